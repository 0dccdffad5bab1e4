package loader

import (
	"fmt"

	"github.com/zjrosen/composer/internal/contract"
	"github.com/zjrosen/composer/internal/part"
	"github.com/zjrosen/composer/internal/typesystem"
	"github.com/zjrosen/composer/internal/typesystem/livetype"
)

func buildPart(t *livetype.Type, id *typesystem.TypeIdentity, d PartDef, gen typesystem.IdentityGenerator) (*part.Definition, error) {
	var exports []contract.ExportDefinition
	for _, e := range d.Exports {
		exp, err := buildExport(t, e, gen)
		if err != nil {
			return nil, fmt.Errorf("export %q: %w", e.Contract, err)
		}
		exports = append(exports, exp)
	}

	var imports []contract.ImportDefinition
	for _, i := range d.Imports {
		imp, err := buildImport(t, i, gen)
		if err != nil {
			return nil, fmt.Errorf("import %q: %w", i.Contract, err)
		}
		imports = append(imports, imp)
	}

	var actions []*part.ScheduleActionDefinition
	for _, a := range d.Actions {
		m := t.Method(a.Method)
		if m == nil {
			return nil, fmt.Errorf("action %q: %w: unknown method %q", a.Contract, ErrInvalidManifest, a.Method)
		}
		def, err := part.CreateScheduleActionDefinition(a.Contract, m, gen)
		if err != nil {
			return nil, err
		}
		actions = append(actions, def)
	}

	var conditions []*part.ScheduleConditionDefinition
	for _, c := range d.Conditions {
		m := t.Method(c.Method)
		if m == nil {
			return nil, fmt.Errorf("condition %q: %w: unknown method %q", c.Contract, ErrInvalidManifest, c.Method)
		}
		def, err := part.CreateScheduleConditionDefinition(c.Contract, m, gen)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, def)
	}

	return part.NewDefinition(id, exports, imports, actions, conditions)
}

func buildExport(t *livetype.Type, e ExportDef, gen typesystem.IdentityGenerator) (contract.ExportDefinition, error) {
	policy, err := contract.ParseCreationPolicy(e.CreationPolicy)
	if err != nil {
		return nil, err
	}
	opts := contract.ExportOptions{ContractName: e.Contract, CreationPolicy: policy}

	set := 0
	for _, b := range []bool{e.Self, e.Property != "", e.Method != ""} {
		if b {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("%w: exactly one of self, property and method must be set", ErrInvalidManifest)
	}

	switch {
	case e.Property != "":
		p := t.Property(e.Property)
		if p == nil {
			return nil, fmt.Errorf("%w: unknown property %q", ErrInvalidManifest, e.Property)
		}
		return contract.CreatePropertyExport(p, opts, gen)
	case e.Method != "":
		m := t.Method(e.Method)
		if m == nil {
			return nil, fmt.Errorf("%w: unknown method %q", ErrInvalidManifest, e.Method)
		}
		return contract.CreateMethodExport(m, opts, gen)
	default:
		return contract.CreateTypeExport(t, opts, gen)
	}
}

func buildImport(t *livetype.Type, i ImportDef, gen typesystem.IdentityGenerator) (contract.ImportDefinition, error) {
	card := contract.ExactlyOne
	if i.Cardinality != "" {
		c, err := contract.ParseCardinality(i.Cardinality)
		if err != nil {
			return nil, err
		}
		card = c
	}
	policy, err := contract.ParseCreationPolicy(i.CreationPolicy)
	if err != nil {
		return nil, err
	}
	opts := contract.ImportOptions{
		ContractName:   i.Contract,
		Cardinality:    card,
		CreationPolicy: policy,
		Recomposable:   i.Recomposable,
	}

	if (i.Property == "") == (i.Parameter == "") {
		return nil, fmt.Errorf("%w: exactly one of property and parameter must be set", ErrInvalidManifest)
	}
	if i.Property != "" {
		p := t.Property(i.Property)
		if p == nil {
			return nil, fmt.Errorf("%w: unknown property %q", ErrInvalidManifest, i.Property)
		}
		return contract.CreatePropertyImport(p, opts, gen)
	}

	if i.Recomposable {
		return nil, fmt.Errorf("%w: constructor imports cannot be recomposable", ErrInvalidManifest)
	}
	ctors := t.Constructors()
	if i.Constructor < 0 || i.Constructor >= len(ctors) {
		return nil, fmt.Errorf("%w: constructor %d out of range", ErrInvalidManifest, i.Constructor)
	}
	ctor := ctors[i.Constructor]
	for _, p := range ctor.Parameters() {
		if p.Name() == i.Parameter {
			return contract.CreateConstructorImport(ctor, p, opts, gen)
		}
	}
	return nil, fmt.Errorf("%w: constructor %d has no parameter %q", ErrInvalidManifest, i.Constructor, i.Parameter)
}
