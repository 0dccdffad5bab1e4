package part_test

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/composer/internal/contract"
	"github.com/zjrosen/composer/internal/part"
	"github.com/zjrosen/composer/internal/typesystem"
	"github.com/zjrosen/composer/internal/typesystem/livetype"
)

var (
	corlib  = livetype.NewAssembly("System.Runtime", "8.0.0.0")
	plugins = livetype.NewAssembly("Acme.Plugins", "1.0.0.0")
	intType = livetype.Class(corlib, "System", "Int32")
	boolean = livetype.Class(corlib, "System", "Boolean")
)

func calculatorDefinition(t *testing.T) *part.Definition {
	t.Helper()
	calc := livetype.Class(plugins, "Acme", "Calculator").
		WithProperty("Result", intType).
		WithProperty("Input", intType).
		WithMethod("Run", nil).
		WithMethod("Ready", boolean)
	gen := typesystem.NewIdentityPool().Generator()

	id, err := gen(calc)
	require.NoError(t, err)
	exp, err := contract.CreatePropertyExport(calc.Property("Result"), contract.ExportOptions{ContractName: "result"}, gen)
	require.NoError(t, err)
	imp, err := contract.CreatePropertyImport(calc.Property("Input"), contract.ImportOptions{ContractName: "input"}, gen)
	require.NoError(t, err)
	run, err := part.CreateScheduleActionDefinition("run", calc.Method("Run"), gen)
	require.NoError(t, err)
	ready, err := part.CreateScheduleConditionDefinition("ready", calc.Method("Ready"), gen)
	require.NoError(t, err)

	def, err := part.NewDefinition(id,
		[]contract.ExportDefinition{exp},
		[]contract.ImportDefinition{imp},
		[]*part.ScheduleActionDefinition{run},
		[]*part.ScheduleConditionDefinition{ready})
	require.NoError(t, err)
	return def
}

func TestRegistrationIDs_Validation(t *testing.T) {
	_, err := part.NewPartRegistrationID("", 0)
	require.ErrorIs(t, err, part.ErrInvalidRegistrationID)
	_, err = part.NewImportRegistrationID("Acme.Calc", -1, "input")
	require.ErrorIs(t, err, part.ErrInvalidRegistrationID)
	_, err = part.NewExportRegistrationID("Acme.Calc", 0, "")
	require.ErrorIs(t, err, part.ErrInvalidRegistrationID)
	_, err = part.NewScheduleActionRegistrationID("Acme.Calc", 0, "a|b")
	require.ErrorIs(t, err, part.ErrInvalidRegistrationID)
	_, err = part.NewGroupRegistrationID("  ")
	require.ErrorIs(t, err, part.ErrInvalidRegistrationID)
}

func TestRegistrationIDs_ValueSemantics(t *testing.T) {
	a, err := part.NewExportRegistrationID("Acme.Calc", 0, "result")
	require.NoError(t, err)
	b, err := part.NewExportRegistrationID("Acme.Calc", 0, "result")
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.Zero(t, a.Compare(b))

	m := map[part.ExportRegistrationID]int{a: 1}
	require.Equal(t, 1, m[b], "ids are usable as map keys")

	text, err := a.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "Acme.Calc|0|result", string(text))
	var back part.ExportRegistrationID
	require.NoError(t, back.UnmarshalText(text))
	require.Equal(t, a, back)

	require.Error(t, back.UnmarshalText([]byte("Acme.Calc|x|result")))
}

func TestRegistrationIDs_TotalOrder(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		draw := func(label string) part.ImportRegistrationID {
			id, err := part.NewImportRegistrationID(
				rapid.SampledFrom([]string{"Acme.A", "Acme.B"}).Draw(rt, label+"owner"),
				rapid.IntRange(0, 2).Draw(rt, label+"index"),
				rapid.SampledFrom([]string{"x", "y", "z"}).Draw(rt, label+"name"))
			require.NoError(rt, err)
			return id
		}
		a, b, c := draw("a"), draw("b"), draw("c")

		require.Equal(rt, a.Compare(b), -b.Compare(a))
		require.Equal(rt, a == b, a.Compare(b) == 0)
		if a.Compare(b) <= 0 && b.Compare(c) <= 0 {
			require.LessOrEqual(rt, a.Compare(c), 0)
		}
	})
}

func TestScheduleMembers_Validation(t *testing.T) {
	host := livetype.Class(plugins, "Acme", "Host").
		WithMethod("Compute", intType).
		WithMethod("Step", nil, livetype.Param("n", intType))
	gen := typesystem.NewIdentityPool().Generator()

	_, err := part.CreateScheduleActionDefinition("compute", host.Method("Compute"), gen)
	require.ErrorIs(t, err, part.ErrInvalidScheduleMember, "actions must be void")
	_, err = part.CreateScheduleActionDefinition("step", host.Method("Step"), gen)
	require.ErrorIs(t, err, part.ErrInvalidScheduleMember, "actions take no parameters")
	_, err = part.CreateScheduleConditionDefinition("compute", host.Method("Compute"), gen)
	require.ErrorIs(t, err, part.ErrInvalidScheduleMember, "conditions return a boolean")
}

func TestDefinition_RejectsDuplicatesAndForeignMembers(t *testing.T) {
	def := calculatorDefinition(t)
	exp := def.Exports()[0]

	_, err := part.NewDefinition(def.Identity(), []contract.ExportDefinition{exp, exp}, nil, nil, nil)
	require.ErrorIs(t, err, part.ErrDuplicateRegistration)

	other, err := typesystem.NewIdentityPool().Identity(livetype.Class(plugins, "Acme", "Other"))
	require.NoError(t, err)
	_, err = part.NewDefinition(other, []contract.ExportDefinition{exp}, nil, nil, nil)
	require.ErrorIs(t, err, part.ErrForeignMember)
}

func TestInstantiate(t *testing.T) {
	def := calculatorDefinition(t)
	p, err := part.Instantiate(def, 1)
	require.NoError(t, err)

	require.Equal(t, "Acme.Calculator", p.RegistrationID().Owner())
	require.Equal(t, 1, p.Index())
	require.Len(t, p.RegisteredExports(), 1)
	require.Len(t, p.RegisteredImports(), 1)
	require.Len(t, p.RegisteredActions(), 1)
	require.Len(t, p.RegisteredConditions(), 1)

	expID := p.RegisteredExports()[0]
	require.Equal(t, "result", expID.ContractName())
	exp, err := p.Export(expID)
	require.NoError(t, err)
	require.True(t, exp.Equal(def.Exports()[0]))

	missing, err := part.NewExportRegistrationID("Acme.Calculator", 1, "missing")
	require.NoError(t, err)
	_, err = p.Export(missing)
	require.ErrorIs(t, err, part.ErrUnknownExport)

	wrongIndex, err := part.NewImportRegistrationID("Acme.Calculator", 0, "input")
	require.NoError(t, err)
	_, err = p.Import(wrongIndex)
	require.ErrorIs(t, err, part.ErrUnknownImport)

	unknownAction, err := part.NewScheduleActionRegistrationID("Acme.Calculator", 1, "stop")
	require.NoError(t, err)
	_, err = p.Action(unknownAction)
	require.ErrorIs(t, err, part.ErrUnknownScheduleAction)

	unknownCondition, err := part.NewScheduleConditionRegistrationID("Acme.Calculator", 1, "done")
	require.NoError(t, err)
	_, err = p.Condition(unknownCondition)
	require.ErrorIs(t, err, part.ErrUnknownScheduleCondition)
}

func TestGroupPartDefinition_PerMapUniqueness(t *testing.T) {
	def := calculatorDefinition(t)
	id, err := part.NewExportRegistrationID("Acme.Calculator", 0, "result")
	require.NoError(t, err)
	entry := part.ExportEntry{ID: id, Definition: def.Exports()[0]}

	_, err = part.NewGroupPartDefinition(def.Identity(), 0, part.Registrations{Exports: []part.ExportEntry{entry, entry}})
	require.ErrorIs(t, err, part.ErrDuplicateRegistration)

	// An import and an export may share a name: the maps are independent.
	impID, err := part.NewImportRegistrationID("Acme.Calculator", 0, "result")
	require.NoError(t, err)
	_, err = part.NewGroupPartDefinition(def.Identity(), 0, part.Registrations{
		Exports: []part.ExportEntry{entry},
		Imports: []part.ImportEntry{{ID: impID, Definition: def.Imports()[0]}},
	})
	require.NoError(t, err)

	_, err = part.NewGroupPartDefinition(def.Identity(), 3, part.Registrations{Exports: []part.ExportEntry{entry}})
	require.ErrorIs(t, err, part.ErrInvalidRegistrationID, "member ids must carry the part index")
}

func TestGroupPartDefinition_JSONRoundTrip(t *testing.T) {
	p, err := part.Instantiate(calculatorDefinition(t), 0)
	require.NoError(t, err)

	data, err := json.Marshal(p)
	require.NoError(t, err)
	var back part.GroupPartDefinition
	require.NoError(t, json.Unmarshal(data, &back))
	require.True(t, p.Equal(&back))
	require.True(t, slices.Equal(p.RegisteredImports(), back.RegisteredImports()))
}

func TestDefinition_JSONRoundTrip(t *testing.T) {
	def := calculatorDefinition(t)
	data, err := json.Marshal(def)
	require.NoError(t, err)

	var back part.Definition
	require.NoError(t, json.Unmarshal(data, &back))
	require.True(t, def.Identity().Equal(back.Identity()))
	require.Len(t, back.Exports(), 1)
	require.True(t, def.Exports()[0].Equal(back.Exports()[0]))
	action, ok := back.Action("run")
	require.True(t, ok)
	require.True(t, action.Equal(def.Actions()[0]))
}
