package composition_test

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

// catalog holds the scanned plugin types used by the layer tests.
type catalog struct {
	repo *repository.Memory

	calculator *typesystem.TypeIdentity // exports calc:int
	textCalc   *typesystem.TypeIdentity // exports calc:string
	consumer   *typesystem.TypeIdentity // imports calc:int, exactly one
	optional   *typesystem.TypeIdentity // imports calc:int, zero or one
	circles    *typesystem.TypeIdentity // exports shape:Circle
	shapeUser  *typesystem.TypeIdentity // imports shape:Shape
	shape      *typesystem.TypeIdentity
	circle     *typesystem.TypeIdentity
}

func newCatalog(t *testing.T) catalog {
	t.Helper()
	corlib := livetype.NewAssembly("System.Runtime", "8.0.0.0")
	plugins := livetype.NewAssembly("Acme.Plugins", "1.0.0.0")
	intType := livetype.Class(corlib, "System", "Int32")
	strType := livetype.Class(corlib, "System", "String")
	shape := livetype.Class(plugins, "Acme", "Shape")
	circle := livetype.Class(plugins, "Acme", "Circle").WithBase(shape)

	pool := typesystem.NewIdentityPool()
	gen := pool.Generator()
	c := catalog{repo: repository.NewMemory()}

	register := func(typ *livetype.Type, exports []contract.ExportDefinition, imports []contract.ImportDefinition) *typesystem.TypeIdentity {
		def, err := c.repo.AddTypeTree(pool, typ)
		require.NoError(t, err)
		pd, err := part.NewDefinition(def.Identity(), exports, imports, nil, nil)
		require.NoError(t, err)
		require.NoError(t, c.repo.AddPart(pd))
		return def.Identity()
	}
	export := func(typ *livetype.Type, prop, contractName string) []contract.ExportDefinition {
		e, err := contract.CreatePropertyExport(typ.Property(prop), contract.ExportOptions{ContractName: contractName}, gen)
		require.NoError(t, err)
		return []contract.ExportDefinition{e}
	}
	imp := func(typ *livetype.Type, prop, contractName string, card contract.Cardinality) []contract.ImportDefinition {
		i, err := contract.CreatePropertyImport(typ.Property(prop),
			contract.ImportOptions{ContractName: contractName, Cardinality: card}, gen)
		require.NoError(t, err)
		return []contract.ImportDefinition{i}
	}

	calculator := livetype.Class(plugins, "Acme", "Calculator").WithProperty("Value", intType)
	textCalc := livetype.Class(plugins, "Acme", "TextCalculator").WithProperty("Value", strType)
	consumer := livetype.Class(plugins, "Acme", "Consumer").WithProperty("Calc", intType)
	optional := livetype.Class(plugins, "Acme", "OptionalConsumer").WithProperty("Calc", intType)
	circles := livetype.Class(plugins, "Acme", "CircleFactory").WithProperty("Next", circle)
	shapeUser := livetype.Class(plugins, "Acme", "ShapeUser").WithProperty("Shape", shape)

	c.calculator = register(calculator, export(calculator, "Value", "calc"), nil)
	c.textCalc = register(textCalc, export(textCalc, "Value", "calc"), nil)
	c.consumer = register(consumer, nil, imp(consumer, "Calc", "calc", contract.ExactlyOne))
	c.optional = register(optional, nil, imp(optional, "Calc", "calc", contract.ZeroOrOne))
	c.circles = register(circles, export(circles, "Next", "shape"), nil)
	c.shapeUser = register(shapeUser, nil, imp(shapeUser, "Shape", "shape", contract.ExactlyOne))

	circleDef, err := c.repo.AddTypeTree(pool, circle)
	require.NoError(t, err)
	c.circle = circleDef.Identity()
	c.shape, err = pool.Identity(shape)
	require.NoError(t, err)
	return c
}

// exporter builds a group around one part that exports partContract as groupContract.
func (c catalog) exporter(t *testing.T, name string, typ *typesystem.TypeIdentity, partContract, groupContract string) *group.Definition {
	t.Helper()
	b := group.NewBuilder(c.repo)
	pb, err := b.RegisterObject(typ)
	require.NoError(t, err)
	exp, err := pb.RegisterExport(partContract)
	require.NoError(t, err)
	require.NoError(t, b.DefineExport(groupContract, exp))
	def, err := b.Register(name)
	require.NoError(t, err)
	return def
}

// importer builds a group around one part that imports partContract as groupContract.
func (c catalog) importer(t *testing.T, name string, typ *typesystem.TypeIdentity, partContract, groupContract string) *group.Definition {
	t.Helper()
	b := group.NewBuilder(c.repo)
	pb, err := b.RegisterObject(typ)
	require.NoError(t, err)
	imp, err := pb.RegisterImport(partContract)
	require.NoError(t, err)
	require.NoError(t, b.DefineImport(groupContract, schedule.ElementID{}, imp))
	def, err := b.Register(name)
	require.NoError(t, err)
	return def
}

// splicingImporter has two consumers whose group imports "primary" and
// "secondary" share one insert point limited to maxInserts.
func (c catalog) splicingImporter(t *testing.T, maxInserts int) *group.Definition {
	t.Helper()
	sb := schedule.NewBuilder()
	ip := sb.AddInsertPoint(maxInserts)
	sb.LinkTo(sb.Start(), ip).LinkTo(ip, sb.End())
	sched, err := sb.Build()
	require.NoError(t, err)

	b := group.NewBuilder(c.repo)
	b.SetSchedule(sched)
	for _, contractName := range []string{"primary", "secondary"} {
		pb, err := b.RegisterObject(c.consumer)
		require.NoError(t, err)
		imp, err := pb.RegisterImport("calc")
		require.NoError(t, err)
		require.NoError(t, b.DefineImport(contractName, ip, imp))
	}
	def, err := b.Register("splicer")
	require.NoError(t, err)
	return def
}

func onlyImport(t *testing.T, def *group.Definition) *group.ImportDefinition {
	t.Helper()
	require.Len(t, def.GroupImports(), 1)
	return def.GroupImports()[0]
}
