// Package part holds the registration surface of a single part: what its type exports,
// imports and offers to a schedule, and the stable ids those members get inside a group.
package part

import (
	"encoding/json"
	"fmt"

	"github.com/zjrosen/composer/internal/contract"
	"github.com/zjrosen/composer/internal/typesystem"
)

// Definition is the scanned surface of a plugin type.
type Definition struct {
	identity   *typesystem.TypeIdentity
	exports    []contract.ExportDefinition
	imports    []contract.ImportDefinition
	actions    []*ScheduleActionDefinition
	conditions []*ScheduleConditionDefinition
}

// NewDefinition validates the members against identity. Contract names must be unique per
// member kind since they become the member registration ids.
func NewDefinition(
	identity *typesystem.TypeIdentity,
	exports []contract.ExportDefinition,
	imports []contract.ImportDefinition,
	actions []*ScheduleActionDefinition,
	conditions []*ScheduleConditionDefinition,
) (*Definition, error) {
	if identity == nil {
		return nil, typesystem.ErrNilType
	}

	seen := make(map[string]bool)
	check := func(kind, name string, declaring *typesystem.TypeIdentity) error {
		if !declaring.Equal(identity) {
			return fmt.Errorf("%w: %s %q of %s declared by %s", ErrForeignMember, kind, name, identity, declaring)
		}
		key := kind + "|" + name
		if seen[key] {
			return fmt.Errorf("%w: %s %q on %s", ErrDuplicateRegistration, kind, name, identity)
		}
		seen[key] = true
		return nil
	}

	for _, e := range exports {
		if e == nil {
			return nil, fmt.Errorf("export of %s: %w", identity, typesystem.ErrNilMember)
		}
		if err := check("export", e.ContractName(), e.DeclaringType()); err != nil {
			return nil, err
		}
	}
	for _, i := range imports {
		if i == nil {
			return nil, fmt.Errorf("import of %s: %w", identity, typesystem.ErrNilMember)
		}
		if err := check("import", i.ContractName(), i.DeclaringType()); err != nil {
			return nil, err
		}
	}
	for _, a := range actions {
		if a == nil {
			return nil, fmt.Errorf("schedule action of %s: %w", identity, typesystem.ErrNilMember)
		}
		if err := check("action", a.ContractName(), a.Method().DeclaringType()); err != nil {
			return nil, err
		}
	}
	for _, c := range conditions {
		if c == nil {
			return nil, fmt.Errorf("schedule condition of %s: %w", identity, typesystem.ErrNilMember)
		}
		if err := check("condition", c.ContractName(), c.Method().DeclaringType()); err != nil {
			return nil, err
		}
	}

	return &Definition{
		identity:   identity,
		exports:    exports,
		imports:    imports,
		actions:    actions,
		conditions: conditions,
	}, nil
}

func (d *Definition) Identity() *typesystem.TypeIdentity         { return d.identity }
func (d *Definition) Exports() []contract.ExportDefinition       { return d.exports }
func (d *Definition) Imports() []contract.ImportDefinition       { return d.imports }
func (d *Definition) Actions() []*ScheduleActionDefinition       { return d.actions }
func (d *Definition) Conditions() []*ScheduleConditionDefinition { return d.conditions }

// Export returns the export with the given contract name.
func (d *Definition) Export(contractName string) (contract.ExportDefinition, bool) {
	for _, e := range d.exports {
		if e.ContractName() == contractName {
			return e, true
		}
	}
	return nil, false
}

// Import returns the import with the given contract name.
func (d *Definition) Import(contractName string) (contract.ImportDefinition, bool) {
	for _, i := range d.imports {
		if i.ContractName() == contractName {
			return i, true
		}
	}
	return nil, false
}

// Action returns the schedule action with the given contract name.
func (d *Definition) Action(contractName string) (*ScheduleActionDefinition, bool) {
	for _, a := range d.actions {
		if a.ContractName() == contractName {
			return a, true
		}
	}
	return nil, false
}

// Condition returns the schedule condition with the given contract name.
func (d *Definition) Condition(contractName string) (*ScheduleConditionDefinition, bool) {
	for _, c := range d.conditions {
		if c.ContractName() == contractName {
			return c, true
		}
	}
	return nil, false
}

type definitionJSON struct {
	Identity   *typesystem.TypeIdentity       `json:"identity"`
	Exports    []json.RawMessage              `json:"exports,omitempty"`
	Imports    []json.RawMessage              `json:"imports,omitempty"`
	Actions    []*ScheduleActionDefinition    `json:"actions,omitempty"`
	Conditions []*ScheduleConditionDefinition `json:"conditions,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (d *Definition) MarshalJSON() ([]byte, error) {
	w := definitionJSON{Identity: d.identity, Actions: d.actions, Conditions: d.conditions}
	for _, e := range d.exports {
		raw, err := json.Marshal(e)
		if err != nil {
			return nil, err
		}
		w.Exports = append(w.Exports, raw)
	}
	for _, i := range d.imports {
		raw, err := json.Marshal(i)
		if err != nil {
			return nil, err
		}
		w.Imports = append(w.Imports, raw)
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Definition) UnmarshalJSON(data []byte) error {
	var w definitionJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	exports := make([]contract.ExportDefinition, 0, len(w.Exports))
	for _, raw := range w.Exports {
		e, err := contract.DecodeExport(raw)
		if err != nil {
			return err
		}
		exports = append(exports, e)
	}
	imports := make([]contract.ImportDefinition, 0, len(w.Imports))
	for _, raw := range w.Imports {
		i, err := contract.DecodeImport(raw)
		if err != nil {
			return err
		}
		imports = append(imports, i)
	}
	v, err := NewDefinition(w.Identity, exports, imports, w.Actions, w.Conditions)
	if err != nil {
		return err
	}
	*d = *v
	return nil
}
