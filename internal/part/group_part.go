package part

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/zjrosen/composer/internal/contract"
	"github.com/zjrosen/composer/internal/typesystem"
)

// Registration is the read surface of a part registered into a group.
type Registration interface {
	RegistrationID() PartRegistrationID
	Identity() *typesystem.TypeIdentity
	RegisteredExports() []ExportRegistrationID
	RegisteredImports() []ImportRegistrationID
	RegisteredActions() []ScheduleActionRegistrationID
	RegisteredConditions() []ScheduleConditionRegistrationID
}

// ExportEntry pairs an export with its registration id.
type ExportEntry struct {
	ID         ExportRegistrationID
	Definition contract.ExportDefinition
}

// ImportEntry pairs an import with its registration id.
type ImportEntry struct {
	ID         ImportRegistrationID
	Definition contract.ImportDefinition
}

// ActionEntry pairs a schedule action with its registration id.
type ActionEntry struct {
	ID         ScheduleActionRegistrationID
	Definition *ScheduleActionDefinition
}

// ConditionEntry pairs a schedule condition with its registration id.
type ConditionEntry struct {
	ID         ScheduleConditionRegistrationID
	Definition *ScheduleConditionDefinition
}

// Registrations lists the members of a part. Each list is its own id namespace.
type Registrations struct {
	Exports    []ExportEntry
	Imports    []ImportEntry
	Actions    []ActionEntry
	Conditions []ConditionEntry
}

// GroupPartDefinition is one part of a group. It is frozen after construction.
type GroupPartDefinition struct {
	id         PartRegistrationID
	identity   *typesystem.TypeIdentity
	exports    map[ExportRegistrationID]contract.ExportDefinition
	imports    map[ImportRegistrationID]contract.ImportDefinition
	actions    map[ScheduleActionRegistrationID]*ScheduleActionDefinition
	conditions map[ScheduleConditionRegistrationID]*ScheduleConditionDefinition
}

var _ Registration = (*GroupPartDefinition)(nil)

// NewGroupPartDefinition validates regs and freezes them. Every member id must belong to
// the part (same owner and index) and appear once in its list.
func NewGroupPartDefinition(identity *typesystem.TypeIdentity, index int, regs Registrations) (*GroupPartDefinition, error) {
	if identity == nil {
		return nil, typesystem.ErrNilType
	}
	id, err := NewPartRegistrationID(identity.String(), index)
	if err != nil {
		return nil, err
	}
	p := &GroupPartDefinition{
		id:         id,
		identity:   identity,
		exports:    make(map[ExportRegistrationID]contract.ExportDefinition, len(regs.Exports)),
		imports:    make(map[ImportRegistrationID]contract.ImportDefinition, len(regs.Imports)),
		actions:    make(map[ScheduleActionRegistrationID]*ScheduleActionDefinition, len(regs.Actions)),
		conditions: make(map[ScheduleConditionRegistrationID]*ScheduleConditionDefinition, len(regs.Conditions)),
	}

	for _, e := range regs.Exports {
		if err := p.owns("export", e.ID.Owner(), e.ID.Index(), e.Definition == nil); err != nil {
			return nil, err
		}
		if _, dup := p.exports[e.ID]; dup {
			return nil, fmt.Errorf("%w: export %s", ErrDuplicateRegistration, e.ID)
		}
		p.exports[e.ID] = e.Definition
	}
	for _, e := range regs.Imports {
		if err := p.owns("import", e.ID.Owner(), e.ID.Index(), e.Definition == nil); err != nil {
			return nil, err
		}
		if _, dup := p.imports[e.ID]; dup {
			return nil, fmt.Errorf("%w: import %s", ErrDuplicateRegistration, e.ID)
		}
		p.imports[e.ID] = e.Definition
	}
	for _, e := range regs.Actions {
		if err := p.owns("schedule action", e.ID.Owner(), e.ID.Index(), e.Definition == nil); err != nil {
			return nil, err
		}
		if _, dup := p.actions[e.ID]; dup {
			return nil, fmt.Errorf("%w: schedule action %s", ErrDuplicateRegistration, e.ID)
		}
		p.actions[e.ID] = e.Definition
	}
	for _, e := range regs.Conditions {
		if err := p.owns("schedule condition", e.ID.Owner(), e.ID.Index(), e.Definition == nil); err != nil {
			return nil, err
		}
		if _, dup := p.conditions[e.ID]; dup {
			return nil, fmt.Errorf("%w: schedule condition %s", ErrDuplicateRegistration, e.ID)
		}
		p.conditions[e.ID] = e.Definition
	}
	return p, nil
}

func (p *GroupPartDefinition) owns(kind, owner string, index int, missing bool) error {
	if missing {
		return fmt.Errorf("%s of part %s: %w", kind, p.id, typesystem.ErrNilMember)
	}
	if owner != p.id.owner || index != p.id.index {
		return fmt.Errorf("%w: %s %s|%d does not belong to part %s", ErrInvalidRegistrationID, kind, owner, index, p.id)
	}
	return nil
}

// Instantiate registers every member of def as part number index of a group. Member ids
// use the member contract names.
func Instantiate(def *Definition, index int) (*GroupPartDefinition, error) {
	if def == nil {
		return nil, typesystem.ErrNilType
	}
	owner := def.Identity().String()
	var regs Registrations
	for _, e := range def.Exports() {
		id, err := NewExportRegistrationID(owner, index, e.ContractName())
		if err != nil {
			return nil, err
		}
		regs.Exports = append(regs.Exports, ExportEntry{ID: id, Definition: e})
	}
	for _, i := range def.Imports() {
		id, err := NewImportRegistrationID(owner, index, i.ContractName())
		if err != nil {
			return nil, err
		}
		regs.Imports = append(regs.Imports, ImportEntry{ID: id, Definition: i})
	}
	for _, a := range def.Actions() {
		id, err := NewScheduleActionRegistrationID(owner, index, a.ContractName())
		if err != nil {
			return nil, err
		}
		regs.Actions = append(regs.Actions, ActionEntry{ID: id, Definition: a})
	}
	for _, c := range def.Conditions() {
		id, err := NewScheduleConditionRegistrationID(owner, index, c.ContractName())
		if err != nil {
			return nil, err
		}
		regs.Conditions = append(regs.Conditions, ConditionEntry{ID: id, Definition: c})
	}
	return NewGroupPartDefinition(def.Identity(), index, regs)
}

func (p *GroupPartDefinition) RegistrationID() PartRegistrationID { return p.id }
func (p *GroupPartDefinition) Identity() *typesystem.TypeIdentity { return p.identity }
func (p *GroupPartDefinition) Index() int                         { return p.id.index }

// Export returns the export registered under id.
func (p *GroupPartDefinition) Export(id ExportRegistrationID) (contract.ExportDefinition, error) {
	if e, ok := p.exports[id]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("%w: %s on part %s", ErrUnknownExport, id, p.id)
}

// Import returns the import registered under id.
func (p *GroupPartDefinition) Import(id ImportRegistrationID) (contract.ImportDefinition, error) {
	if i, ok := p.imports[id]; ok {
		return i, nil
	}
	return nil, fmt.Errorf("%w: %s on part %s", ErrUnknownImport, id, p.id)
}

// Action returns the schedule action registered under id.
func (p *GroupPartDefinition) Action(id ScheduleActionRegistrationID) (*ScheduleActionDefinition, error) {
	if a, ok := p.actions[id]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("%w: %s on part %s", ErrUnknownScheduleAction, id, p.id)
}

// Condition returns the schedule condition registered under id.
func (p *GroupPartDefinition) Condition(id ScheduleConditionRegistrationID) (*ScheduleConditionDefinition, error) {
	if c, ok := p.conditions[id]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: %s on part %s", ErrUnknownScheduleCondition, id, p.id)
}

func (p *GroupPartDefinition) HasExport(id ExportRegistrationID) bool {
	_, ok := p.exports[id]
	return ok
}

func (p *GroupPartDefinition) HasImport(id ImportRegistrationID) bool {
	_, ok := p.imports[id]
	return ok
}

func (p *GroupPartDefinition) HasAction(id ScheduleActionRegistrationID) bool {
	_, ok := p.actions[id]
	return ok
}

func (p *GroupPartDefinition) HasCondition(id ScheduleConditionRegistrationID) bool {
	_, ok := p.conditions[id]
	return ok
}

// RegisteredExports returns the export ids in order.
func (p *GroupPartDefinition) RegisteredExports() []ExportRegistrationID {
	return slices.SortedFunc(maps.Keys(p.exports), ExportRegistrationID.Compare)
}

// RegisteredImports returns the import ids in order.
func (p *GroupPartDefinition) RegisteredImports() []ImportRegistrationID {
	return slices.SortedFunc(maps.Keys(p.imports), ImportRegistrationID.Compare)
}

// RegisteredActions returns the schedule action ids in order.
func (p *GroupPartDefinition) RegisteredActions() []ScheduleActionRegistrationID {
	return slices.SortedFunc(maps.Keys(p.actions), ScheduleActionRegistrationID.Compare)
}

// RegisteredConditions returns the schedule condition ids in order.
func (p *GroupPartDefinition) RegisteredConditions() []ScheduleConditionRegistrationID {
	return slices.SortedFunc(maps.Keys(p.conditions), ScheduleConditionRegistrationID.Compare)
}

// Equal compares the id, identity and every registered member.
func (p *GroupPartDefinition) Equal(o *GroupPartDefinition) bool {
	if p == nil || o == nil {
		return p == o
	}
	if p.id != o.id || !p.identity.Equal(o.identity) {
		return false
	}
	return maps.EqualFunc(p.exports, o.exports, func(a, b contract.ExportDefinition) bool { return a.Equal(b) }) &&
		maps.EqualFunc(p.imports, o.imports, func(a, b contract.ImportDefinition) bool { return a.Equal(b) }) &&
		maps.EqualFunc(p.actions, o.actions, (*ScheduleActionDefinition).Equal) &&
		maps.EqualFunc(p.conditions, o.conditions, (*ScheduleConditionDefinition).Equal)
}

func (p *GroupPartDefinition) String() string {
	return p.id.String()
}

type memberJSON[ID any, D any] struct {
	ID         ID `json:"id"`
	Definition D  `json:"definition"`
}

type groupPartJSON struct {
	Identity   *typesystem.TypeIdentity                                                    `json:"identity"`
	Index      int                                                                         `json:"index"`
	Exports    []memberJSON[ExportRegistrationID, json.RawMessage]                         `json:"exports,omitempty"`
	Imports    []memberJSON[ImportRegistrationID, json.RawMessage]                         `json:"imports,omitempty"`
	Actions    []memberJSON[ScheduleActionRegistrationID, *ScheduleActionDefinition]       `json:"actions,omitempty"`
	Conditions []memberJSON[ScheduleConditionRegistrationID, *ScheduleConditionDefinition] `json:"conditions,omitempty"`
}

// MarshalJSON implements json.Marshaler. Members are written in id order.
func (p *GroupPartDefinition) MarshalJSON() ([]byte, error) {
	w := groupPartJSON{Identity: p.identity, Index: p.id.index}
	for _, id := range p.RegisteredExports() {
		raw, err := json.Marshal(p.exports[id])
		if err != nil {
			return nil, err
		}
		w.Exports = append(w.Exports, memberJSON[ExportRegistrationID, json.RawMessage]{ID: id, Definition: raw})
	}
	for _, id := range p.RegisteredImports() {
		raw, err := json.Marshal(p.imports[id])
		if err != nil {
			return nil, err
		}
		w.Imports = append(w.Imports, memberJSON[ImportRegistrationID, json.RawMessage]{ID: id, Definition: raw})
	}
	for _, id := range p.RegisteredActions() {
		w.Actions = append(w.Actions, memberJSON[ScheduleActionRegistrationID, *ScheduleActionDefinition]{ID: id, Definition: p.actions[id]})
	}
	for _, id := range p.RegisteredConditions() {
		w.Conditions = append(w.Conditions, memberJSON[ScheduleConditionRegistrationID, *ScheduleConditionDefinition]{ID: id, Definition: p.conditions[id]})
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *GroupPartDefinition) UnmarshalJSON(data []byte) error {
	var w groupPartJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	var regs Registrations
	for _, m := range w.Exports {
		e, err := contract.DecodeExport(m.Definition)
		if err != nil {
			return fmt.Errorf("export %s: %w", m.ID, err)
		}
		regs.Exports = append(regs.Exports, ExportEntry{ID: m.ID, Definition: e})
	}
	for _, m := range w.Imports {
		i, err := contract.DecodeImport(m.Definition)
		if err != nil {
			return fmt.Errorf("import %s: %w", m.ID, err)
		}
		regs.Imports = append(regs.Imports, ImportEntry{ID: m.ID, Definition: i})
	}
	for _, m := range w.Actions {
		regs.Actions = append(regs.Actions, ActionEntry{ID: m.ID, Definition: m.Definition})
	}
	for _, m := range w.Conditions {
		regs.Conditions = append(regs.Conditions, ConditionEntry{ID: m.ID, Definition: m.Definition})
	}
	v, err := NewGroupPartDefinition(w.Identity, w.Index, regs)
	if err != nil {
		return err
	}
	*p = *v
	return nil
}
