package group_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/composer/internal/contract"
	"github.com/zjrosen/composer/internal/group"
	"github.com/zjrosen/composer/internal/part"
	"github.com/zjrosen/composer/internal/schedule"
	"github.com/zjrosen/composer/internal/typesystem"
	"github.com/zjrosen/composer/internal/typesystem/livetype"
)

type memSource map[string]*part.Definition

func (m memSource) Part(t *typesystem.TypeIdentity) (*part.Definition, error) {
	if d, ok := m[t.Key()]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("%w: %s", part.ErrUnknownPluginType, t)
}

type world struct {
	source     memSource
	calculator *typesystem.TypeIdentity
	consumer   *typesystem.TypeIdentity
	printer    *typesystem.TypeIdentity
}

// newWorld scans three plugin types: Calculator exports "calc" (int) and runs "tick",
// Consumer imports "calc" (int), Printer imports "label" (string, optional).
func newWorld(t *testing.T) world {
	t.Helper()
	corlib := livetype.NewAssembly("System.Runtime", "8.0.0.0")
	plugins := livetype.NewAssembly("Acme.Plugins", "1.0.0.0")
	intType := livetype.Class(corlib, "System", "Int32")
	strType := livetype.Class(corlib, "System", "String")
	boolType := livetype.Class(corlib, "System", "Boolean")

	calc := livetype.Class(plugins, "Acme", "Calculator").
		WithProperty("Value", intType).
		WithProperty("Name", strType).
		WithMethod("Tick", nil).
		WithMethod("Ready", boolType)
	consumer := livetype.Class(plugins, "Acme", "Consumer").WithProperty("Calc", intType)
	printer := livetype.Class(plugins, "Acme", "Printer").WithProperty("Label", strType)

	pool := typesystem.NewIdentityPool()
	gen := pool.Generator()
	w := world{source: memSource{}}

	add := func(typ *livetype.Type, exports []contract.ExportDefinition, imports []contract.ImportDefinition,
		actions []*part.ScheduleActionDefinition, conds []*part.ScheduleConditionDefinition) *typesystem.TypeIdentity {
		id, err := pool.Identity(typ)
		require.NoError(t, err)
		def, err := part.NewDefinition(id, exports, imports, actions, conds)
		require.NoError(t, err)
		w.source[id.Key()] = def
		return id
	}

	value, err := contract.CreatePropertyExport(calc.Property("Value"), contract.ExportOptions{ContractName: "calc"}, gen)
	require.NoError(t, err)
	name, err := contract.CreatePropertyExport(calc.Property("Name"), contract.ExportOptions{ContractName: "name"}, gen)
	require.NoError(t, err)
	tick, err := part.CreateScheduleActionDefinition("tick", calc.Method("Tick"), gen)
	require.NoError(t, err)
	ready, err := part.CreateScheduleConditionDefinition("ready", calc.Method("Ready"), gen)
	require.NoError(t, err)
	w.calculator = add(calc, []contract.ExportDefinition{value, name}, nil,
		[]*part.ScheduleActionDefinition{tick}, []*part.ScheduleConditionDefinition{ready})

	calcImport, err := contract.CreatePropertyImport(consumer.Property("Calc"), contract.ImportOptions{ContractName: "calc"}, gen)
	require.NoError(t, err)
	w.consumer = add(consumer, nil, []contract.ImportDefinition{calcImport}, nil, nil)

	label, err := contract.CreatePropertyImport(printer.Property("Label"),
		contract.ImportOptions{ContractName: "label", Cardinality: contract.ZeroOrOne}, gen)
	require.NoError(t, err)
	w.printer = add(printer, nil, []contract.ImportDefinition{label}, nil, nil)
	return w
}

func (w world) exporterGroup(t *testing.T, name string) *group.Definition {
	t.Helper()
	b := group.NewBuilder(w.source)
	pb, err := b.RegisterObject(w.calculator)
	require.NoError(t, err)
	exp, err := pb.RegisterExport("calc")
	require.NoError(t, err)
	require.NoError(t, b.DefineExport("calc", exp))
	def, err := b.Register(name)
	require.NoError(t, err)
	return def
}

func (w world) importerGroup(t *testing.T, name string) *group.Definition {
	t.Helper()
	b := group.NewBuilder(w.source)
	pb, err := b.RegisterObject(w.consumer)
	require.NoError(t, err)
	imp, err := pb.RegisterImport("calc")
	require.NoError(t, err)
	require.NoError(t, b.DefineImport("calc", schedule.ElementID{}, imp))
	def, err := b.Register(name)
	require.NoError(t, err)
	return def
}

func TestBuilder_UnknownPluginType(t *testing.T) {
	w := newWorld(t)
	b := group.NewBuilder(memSource{})
	_, err := b.RegisterObject(w.calculator)
	require.ErrorIs(t, err, group.ErrUnknownPluginType)
}

func TestBuilder_RepeatedTypesGetIndices(t *testing.T) {
	w := newWorld(t)
	b := group.NewBuilder(w.source)
	first, err := b.RegisterObject(w.calculator)
	require.NoError(t, err)
	second, err := b.RegisterObject(w.calculator)
	require.NoError(t, err)
	require.Equal(t, 0, first.Index())
	require.Equal(t, 1, second.Index())

	require.NoError(t, first.RegisterAll())
	require.NoError(t, second.RegisterAll())
	def, err := b.Register("twins")
	require.NoError(t, err)
	require.Len(t, def.Parts(), 2)
}

func TestBuilder_InternalWiring(t *testing.T) {
	w := newWorld(t)
	b := group.NewBuilder(w.source)
	calc, err := b.RegisterObject(w.calculator)
	require.NoError(t, err)
	consumer, err := b.RegisterObject(w.consumer)
	require.NoError(t, err)

	exp, err := calc.RegisterExport("calc")
	require.NoError(t, err)
	imp, err := consumer.RegisterImport("calc")
	require.NoError(t, err)
	b.Connect(imp, exp)

	def, err := b.Register("wired")
	require.NoError(t, err)
	require.Len(t, def.InternalConnections(), 1)
	require.Equal(t, imp, def.InternalConnections()[0].Import())

	p, err := def.PartByImport(imp)
	require.NoError(t, err)
	require.True(t, p.Identity().Equal(w.consumer))
	p, err = def.PartByExport(exp)
	require.NoError(t, err)
	require.True(t, p.Identity().Equal(w.calculator))
}

func TestBuilder_InternalWiringTypeMismatch(t *testing.T) {
	w := newWorld(t)
	b := group.NewBuilder(w.source)
	calc, err := b.RegisterObject(w.calculator)
	require.NoError(t, err)
	consumer, err := b.RegisterObject(w.consumer)
	require.NoError(t, err)

	name, err := calc.RegisterExport("name")
	require.NoError(t, err)
	imp, err := consumer.RegisterImport("calc")
	require.NoError(t, err)
	b.Connect(imp, name)

	_, err = b.Register("mismatch")
	require.ErrorIs(t, err, group.ErrCannotMapExportToImport)
}

func TestBuilder_Validation(t *testing.T) {
	w := newWorld(t)

	t.Run("unknown member", func(t *testing.T) {
		b := group.NewBuilder(w.source)
		pb, err := b.RegisterObject(w.consumer)
		require.NoError(t, err)
		_, err = pb.RegisterExport("calc")
		require.ErrorIs(t, err, group.ErrUnknownExport)
		_, err = pb.RegisterImport("missing")
		require.ErrorIs(t, err, group.ErrUnknownImport)
	})

	t.Run("second export", func(t *testing.T) {
		b := group.NewBuilder(w.source)
		require.NoError(t, b.DefineExport("a"))
		require.ErrorIs(t, b.DefineExport("b"), group.ErrGroupExportDefined)
	})

	t.Run("import exposed twice", func(t *testing.T) {
		b := group.NewBuilder(w.source)
		pb, err := b.RegisterObject(w.consumer)
		require.NoError(t, err)
		imp, err := pb.RegisterImport("calc")
		require.NoError(t, err)
		require.NoError(t, b.DefineImport("a", schedule.ElementID{}, imp))
		require.NoError(t, b.DefineImport("b", schedule.ElementID{}, imp))
		_, err = b.Register("twice")
		require.ErrorIs(t, err, group.ErrImportAlreadyWired)
	})

	t.Run("insert point without schedule", func(t *testing.T) {
		b := group.NewBuilder(w.source)
		pb, err := b.RegisterObject(w.consumer)
		require.NoError(t, err)
		imp, err := pb.RegisterImport("calc")
		require.NoError(t, err)
		require.NoError(t, b.DefineImport("calc", schedule.NewElementID(), imp))
		_, err = b.Register("dangling")
		require.ErrorIs(t, err, group.ErrUnknownInsertPoint)
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := group.NewBuilder(w.source).Register("")
		require.ErrorIs(t, err, group.ErrEmptyGroupName)
	})

	t.Run("single use", func(t *testing.T) {
		b := group.NewBuilder(w.source)
		_, err := b.Register("once")
		require.NoError(t, err)
		_, err = b.Register("twice")
		require.ErrorIs(t, err, group.ErrGroupRegistered)
	})
}

func TestDefinition_Lookups(t *testing.T) {
	w := newWorld(t)
	def := w.exporterGroup(t, "exporter")

	unknown, err := part.NewExportRegistrationID(w.calculator.String(), 0, "nope")
	require.NoError(t, err)
	_, err = def.PartExportByID(unknown)
	require.ErrorIs(t, err, group.ErrUnknownExport)

	// Registered on the type, but not selected into the group.
	name, err := part.NewExportRegistrationID(w.calculator.String(), 0, "name")
	require.NoError(t, err)
	_, err = def.PartExportByID(name)
	require.ErrorIs(t, err, group.ErrUnknownExport)

	calc, err := part.NewExportRegistrationID(w.calculator.String(), 0, "calc")
	require.NoError(t, err)
	exp, err := def.PartExportByID(calc)
	require.NoError(t, err)
	require.Equal(t, "calc", exp.ContractName())
}

func TestDefinition_IsOptionalImport(t *testing.T) {
	w := newWorld(t)
	required := w.importerGroup(t, "importer")
	imp := required.GroupImports()[0]
	require.True(t, required.HasImport(imp))
	require.False(t, required.IsOptionalImport(imp))

	b := group.NewBuilder(w.source)
	pb, err := b.RegisterObject(w.printer)
	require.NoError(t, err)
	label, err := pb.RegisterImport("label")
	require.NoError(t, err)
	require.NoError(t, b.DefineImport("label", schedule.ElementID{}, label))
	optional, err := b.Register("printer")
	require.NoError(t, err)
	require.True(t, optional.IsOptionalImport(optional.GroupImports()[0]))
	require.False(t, optional.IsOptionalImport(imp), "imports of other groups are never optional here")
}

func TestResolve(t *testing.T) {
	w := newWorld(t)
	exporter := w.exporterGroup(t, "exporter")
	importer := w.importerGroup(t, "importer")
	imp := importer.GroupImports()[0]

	maps, err := group.Resolve(importer, imp, exporter, nil)
	require.NoError(t, err)
	require.Len(t, maps, 1)
	require.Equal(t, imp.ImportsToMatch()[0], maps[0].Import())
	require.Equal(t, exporter.GroupExport().ProvidedExports(), maps[0].Exports())

	_, err = group.Resolve(importer, imp, importer, nil)
	require.ErrorIs(t, err, group.ErrNoGroupExport)
}

func TestResolve_IncompatibleTypes(t *testing.T) {
	w := newWorld(t)
	// The group exports "calc" backed by a string property also named "calc".
	b := group.NewBuilder(w.source)
	pb, err := b.RegisterObject(w.calculator)
	require.NoError(t, err)
	name, err := pb.RegisterExport("name")
	require.NoError(t, err)
	require.NoError(t, b.DefineExport("calc", name))
	exporter, err := b.Register("strings")
	require.NoError(t, err)

	importer := w.importerGroup(t, "importer")
	_, err = group.Resolve(importer, importer.GroupImports()[0], exporter, nil)
	require.ErrorIs(t, err, group.ErrCannotMapExportToImport)
}

func TestScheduledGroup(t *testing.T) {
	w := newWorld(t)
	b := group.NewBuilder(w.source)
	calc, err := b.RegisterObject(w.calculator)
	require.NoError(t, err)
	consumer, err := b.RegisterObject(w.consumer)
	require.NoError(t, err)
	tick, err := calc.RegisterScheduleAction("tick")
	require.NoError(t, err)
	ready, err := calc.RegisterScheduleCondition("ready")
	require.NoError(t, err)
	imp, err := consumer.RegisterImport("calc")
	require.NoError(t, err)

	sb := schedule.NewBuilder()
	act := sb.AddExecutingAction(tick)
	insert := sb.AddInsertPoint(1)
	sb.LinkTo(sb.Start(), act).LinkToWhen(act, insert, ready).LinkTo(insert, sb.End())
	sched, err := sb.Build()
	require.NoError(t, err)
	b.SetSchedule(sched)
	require.NoError(t, b.DefineImport("calc", insert, imp))

	def, err := b.Register("scheduled")
	require.NoError(t, err)
	require.True(t, def.GroupImports()[0].HasInsertPoint())

	data, err := json.Marshal(def)
	require.NoError(t, err)
	var back group.Definition
	require.NoError(t, json.Unmarshal(data, &back))
	require.True(t, def.Equal(&back))
}

func TestScheduledGroup_UnknownAction(t *testing.T) {
	w := newWorld(t)
	b := group.NewBuilder(w.source)
	_, err := b.RegisterObject(w.calculator)
	require.NoError(t, err)

	stray, err := part.NewScheduleActionRegistrationID(w.calculator.String(), 0, "tick")
	require.NoError(t, err)
	sb := schedule.NewBuilder()
	act := sb.AddExecutingAction(stray)
	sb.LinkTo(sb.Start(), act).LinkTo(act, sb.End())
	sched, err := sb.Build()
	require.NoError(t, err)
	b.SetSchedule(sched)

	_, err = b.Register("stray")
	require.ErrorIs(t, err, part.ErrUnknownScheduleAction, "actions must be registered on the part")
}

func TestDefinition_JSONRoundTrip(t *testing.T) {
	w := newWorld(t)
	for _, def := range []*group.Definition{w.exporterGroup(t, "exporter"), w.importerGroup(t, "importer")} {
		data, err := json.Marshal(def)
		require.NoError(t, err)
		var back group.Definition
		require.NoError(t, json.Unmarshal(data, &back))
		require.True(t, def.Equal(&back), string(data))
	}
}
