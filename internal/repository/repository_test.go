package repository_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/composer/internal/contract"
	"github.com/zjrosen/composer/internal/group"
	"github.com/zjrosen/composer/internal/part"
	"github.com/zjrosen/composer/internal/repository"
	"github.com/zjrosen/composer/internal/typesystem"
	"github.com/zjrosen/composer/internal/typesystem/livetype"
)

type fixture struct {
	pool       *typesystem.IdentityPool
	object     *livetype.Type
	shape      *livetype.Type
	circle     *livetype.Type
	drawable   *livetype.Type
	comparable *livetype.Type
}

func newFixture() fixture {
	corlib := livetype.NewAssembly("System.Runtime", "8.0.0.0")
	plugins := livetype.NewAssembly("Acme.Shapes", "1.0.0.0")
	object := livetype.Class(corlib, "System", "Object")
	drawable := livetype.Interface(plugins, "Acme", "IDrawable")
	comparableDef := livetype.GenericDefinition(corlib, "System", "IComparable", true, "T")
	shape := livetype.Class(plugins, "Acme", "Shape").WithBase(object).Implements(drawable)
	circle := livetype.Class(plugins, "Acme", "Circle").WithBase(shape)
	circle.Implements(comparableDef.MakeGeneric(circle))
	return fixture{
		pool:       typesystem.NewIdentityPool(),
		object:     object,
		shape:      shape,
		circle:     circle,
		drawable:   drawable,
		comparable: comparableDef,
	}
}

func (f fixture) id(t *testing.T, typ typesystem.Type) *typesystem.TypeIdentity {
	t.Helper()
	id, err := f.pool.Identity(typ)
	require.NoError(t, err)
	return id
}

func TestMemory_AddTypeTree(t *testing.T) {
	f := newFixture()
	repo := repository.NewMemory()

	root, err := repo.AddTypeTree(f.pool, f.circle)
	require.NoError(t, err)
	require.True(t, root.Identity().Equal(f.id(t, f.circle)))

	for _, typ := range []typesystem.Type{f.circle, f.shape, f.object, f.drawable, f.comparable} {
		_, err := repo.TypeDefinition(f.id(t, typ))
		require.NoError(t, err, "%s", typ.Name())
	}

	names := make([]string, 0)
	for _, def := range repo.Types() {
		names = append(names, def.Identity().String())
	}
	require.IsNonDecreasing(t, names)
	require.Len(t, names, 6, "closed IComparable<Circle> is stored alongside its definition")
}

func TestMemory_UnknownLookups(t *testing.T) {
	f := newFixture()
	repo := repository.NewMemory()

	_, err := repo.TypeDefinition(f.id(t, f.shape))
	require.ErrorIs(t, err, repository.ErrUnknownType)

	_, err = repo.Part(f.id(t, f.shape))
	require.ErrorIs(t, err, repository.ErrUnknownPluginType)
	require.ErrorIs(t, err, group.ErrUnknownPluginType)

	_, err = repo.TypeDefinition(nil)
	require.ErrorIs(t, err, typesystem.ErrNilType)
	require.ErrorIs(t, repo.AddType(nil), typesystem.ErrNilType)
	require.ErrorIs(t, repo.AddPart(nil), typesystem.ErrNilType)
	_, err = repo.AddTypeTree(f.pool, nil)
	require.ErrorIs(t, err, typesystem.ErrNilType)
}

func TestMemory_IsSubtypeOf(t *testing.T) {
	f := newFixture()
	repo := repository.NewMemory()
	_, err := repo.AddTypeTree(f.pool, f.circle)
	require.NoError(t, err)

	circle, shape, object, drawable := f.id(t, f.circle), f.id(t, f.shape), f.id(t, f.object), f.id(t, f.drawable)

	require.True(t, repo.IsSubtypeOf(circle, circle))
	require.True(t, repo.IsSubtypeOf(circle, shape))
	require.True(t, repo.IsSubtypeOf(circle, object))
	require.True(t, repo.IsSubtypeOf(circle, drawable))
	require.False(t, repo.IsSubtypeOf(shape, circle))
	require.False(t, repo.IsSubtypeOf(drawable, shape))
	require.False(t, repo.IsSubtypeOf(nil, shape))

	var _ contract.SubtypeChecker = repo
}

func TestMemory_PartsAsGroupSource(t *testing.T) {
	f := newFixture()
	repo := repository.NewMemory()
	gen := f.pool.Generator()

	corlib := livetype.NewAssembly("System.Runtime", "8.0.0.0")
	area := livetype.Class(livetype.NewAssembly("Acme.Shapes", "1.0.0.0"), "Acme", "Area").
		WithProperty("Value", livetype.Class(corlib, "System", "Double"))
	exp, err := contract.CreatePropertyExport(area.Property("Value"), contract.ExportOptions{ContractName: "area"}, gen)
	require.NoError(t, err)
	areaID := f.id(t, area)
	def, err := part.NewDefinition(areaID, []contract.ExportDefinition{exp}, nil, nil, nil)
	require.NoError(t, err)
	require.NoError(t, repo.AddPart(def))

	got, err := repo.Part(areaID)
	require.NoError(t, err)
	require.Same(t, def, got)
	require.Len(t, repo.Parts(), 1)

	b := group.NewBuilder(repo)
	pb, err := b.RegisterObject(areaID)
	require.NoError(t, err)
	require.Equal(t, 0, pb.Index())
}

type mockReader struct {
	mock.Mock
}

func (m *mockReader) TypeDefinition(id *typesystem.TypeIdentity) (*typesystem.TypeDefinition, error) {
	args := m.Called(id)
	def, _ := args.Get(0).(*typesystem.TypeDefinition)
	return def, args.Error(1)
}

func (m *mockReader) Part(id *typesystem.TypeIdentity) (*part.Definition, error) {
	args := m.Called(id)
	def, _ := args.Get(0).(*part.Definition)
	return def, args.Error(1)
}

func TestCached_ReadsThroughOnce(t *testing.T) {
	f := newFixture()
	shapeDef, err := f.pool.Definition(f.shape)
	require.NoError(t, err)
	shape := shapeDef.Identity()

	source := &mockReader{}
	source.On("TypeDefinition", shape).Return(shapeDef, nil).Once()

	cached := repository.NewCached(source, 0, 0)
	for range 3 {
		got, err := cached.TypeDefinition(shape)
		require.NoError(t, err)
		require.Same(t, shapeDef, got)
	}
	source.AssertExpectations(t)
	require.Equal(t, int64(2), cached.Stats().Hits)

	cached.Invalidate(shape)
	source.On("TypeDefinition", shape).Return(shapeDef, nil).Once()
	_, err = cached.TypeDefinition(shape)
	require.NoError(t, err)
	source.AssertExpectations(t)
}

func TestCached_ErrorsAreNotCached(t *testing.T) {
	f := newFixture()
	circle := f.id(t, f.circle)
	boom := errors.New("store offline")

	source := &mockReader{}
	source.On("Part", circle).Return(nil, boom).Twice()

	cached := repository.NewCached(source, 0, 0)
	_, err := cached.Part(circle)
	require.ErrorIs(t, err, boom)
	_, err = cached.Part(circle)
	require.ErrorIs(t, err, boom)
	source.AssertExpectations(t)

	_, err = cached.Part(nil)
	require.ErrorIs(t, err, typesystem.ErrNilType)
}

func TestCached_IsSubtypeOfMatchesMemory(t *testing.T) {
	f := newFixture()
	repo := repository.NewMemory()
	_, err := repo.AddTypeTree(f.pool, f.circle)
	require.NoError(t, err)

	cached := repository.NewCached(repo, 0, 0)
	require.True(t, cached.IsSubtypeOf(f.id(t, f.circle), f.id(t, f.drawable)))
	require.False(t, cached.IsSubtypeOf(f.id(t, f.object), f.id(t, f.shape)))

	cached.Flush()
	require.True(t, cached.IsSubtypeOf(f.id(t, f.shape), f.id(t, f.object)))
}
