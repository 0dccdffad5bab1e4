package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/composer/internal/contract"
	"github.com/zjrosen/composer/internal/group"
	"github.com/zjrosen/composer/internal/part"
	"github.com/zjrosen/composer/internal/repository"
	"github.com/zjrosen/composer/internal/schedule"
	"github.com/zjrosen/composer/internal/typesystem"
	"github.com/zjrosen/composer/internal/typesystem/livetype"
)

// Catalog is a small scanned plugin set: a calculator exporting "calc" and
// two consumers importing it with exactly-one and zero-or-one cardinality.
type Catalog struct {
	Repo *repository.Memory

	Calculator *typesystem.TypeIdentity
	Consumer   *typesystem.TypeIdentity
	Optional   *typesystem.TypeIdentity
}

// NewCatalog scans the plugin types into a fresh in-memory repository.
func NewCatalog(t testing.TB) *Catalog {
	t.Helper()
	corlib := livetype.NewAssembly("System.Runtime", "8.0.0.0")
	plugins := livetype.NewAssembly("Acme.Plugins", "1.0.0.0")
	intType := livetype.Class(corlib, "System", "Int32")

	pool := typesystem.NewIdentityPool()
	gen := pool.Generator()
	c := &Catalog{Repo: repository.NewMemory()}

	register := func(typ *livetype.Type, exports []contract.ExportDefinition, imports []contract.ImportDefinition) *typesystem.TypeIdentity {
		def, err := c.Repo.AddTypeTree(pool, typ)
		require.NoError(t, err)
		pd, err := part.NewDefinition(def.Identity(), exports, imports, nil, nil)
		require.NoError(t, err)
		require.NoError(t, c.Repo.AddPart(pd))
		return def.Identity()
	}

	calculator := livetype.Class(plugins, "Acme", "Calculator").WithProperty("Value", intType)
	consumer := livetype.Class(plugins, "Acme", "Consumer").WithProperty("Calc", intType)
	optional := livetype.Class(plugins, "Acme", "OptionalConsumer").WithProperty("Calc", intType)

	exp, err := contract.CreatePropertyExport(calculator.Property("Value"), contract.ExportOptions{ContractName: "calc"}, gen)
	require.NoError(t, err)
	one, err := contract.CreatePropertyImport(consumer.Property("Calc"),
		contract.ImportOptions{ContractName: "calc", Cardinality: contract.ExactlyOne}, gen)
	require.NoError(t, err)
	maybe, err := contract.CreatePropertyImport(optional.Property("Calc"),
		contract.ImportOptions{ContractName: "calc", Cardinality: contract.ZeroOrOne}, gen)
	require.NoError(t, err)

	c.Calculator = register(calculator, []contract.ExportDefinition{exp}, nil)
	c.Consumer = register(consumer, nil, []contract.ImportDefinition{one})
	c.Optional = register(optional, nil, []contract.ImportDefinition{maybe})
	return c
}

// Exporter returns a group exporting the calculator as "calc".
func (c *Catalog) Exporter(t testing.TB, name string) *group.Definition {
	t.Helper()
	b := group.NewBuilder(c.Repo)
	pb, err := b.RegisterObject(c.Calculator)
	require.NoError(t, err)
	exp, err := pb.RegisterExport("calc")
	require.NoError(t, err)
	require.NoError(t, b.DefineExport("calc", exp))
	def, err := b.Register(name)
	require.NoError(t, err)
	return def
}

// Importer returns a group whose single import "calc" is backed by typ.
func (c *Catalog) Importer(t testing.TB, name string, typ *typesystem.TypeIdentity) *group.Definition {
	t.Helper()
	b := group.NewBuilder(c.Repo)
	pb, err := b.RegisterObject(typ)
	require.NoError(t, err)
	imp, err := pb.RegisterImport("calc")
	require.NoError(t, err)
	require.NoError(t, b.DefineImport("calc", schedule.ElementID{}, imp))
	def, err := b.Register(name)
	require.NoError(t, err)
	return def
}

// Import returns the single group import of def.
func Import(t testing.TB, def *group.Definition) *group.ImportDefinition {
	t.Helper()
	require.Len(t, def.GroupImports(), 1)
	return def.GroupImports()[0]
}
