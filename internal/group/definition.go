// Package group defines part groups: named bundles of parts with their internal wiring,
// an optional schedule, one external export and any number of external imports.
package group

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/zjrosen/composer/internal/contract"
	"github.com/zjrosen/composer/internal/part"
	"github.com/zjrosen/composer/internal/schedule"
)

// Definition is an immutable group template.
type Definition struct {
	id       part.GroupRegistrationID
	parts    []*part.GroupPartDefinition
	byPart   map[part.PartRegistrationID]*part.GroupPartDefinition
	internal []PartImportToPartExportMap
	schedule *schedule.Definition
	export   *ExportDefinition
	imports  []*ImportDefinition
}

// Contents are the pieces of a group definition.
type Contents struct {
	Parts    []*part.GroupPartDefinition
	Internal []PartImportToPartExportMap
	Schedule *schedule.Definition
	Export   *ExportDefinition
	Imports  []*ImportDefinition
}

// NewDefinition validates c and creates the group. Internal wiring must be type compatible
// and respect the import cardinality; a part import is either wired internally or exposed
// through at most one group import.
func NewDefinition(id part.GroupRegistrationID, c Contents) (*Definition, error) {
	if id.IsZero() {
		return nil, ErrEmptyGroupName
	}
	d := &Definition{
		id:       id,
		byPart:   make(map[part.PartRegistrationID]*part.GroupPartDefinition, len(c.Parts)),
		internal: c.Internal,
		schedule: c.Schedule,
		export:   c.Export,
		imports:  c.Imports,
	}
	for _, p := range c.Parts {
		if p == nil {
			return nil, fmt.Errorf("group %s: %w", id, ErrNilPart)
		}
		if _, dup := d.byPart[p.RegistrationID()]; dup {
			return nil, fmt.Errorf("%w: %s in group %s", ErrDuplicatePart, p.RegistrationID(), id)
		}
		d.byPart[p.RegistrationID()] = p
		d.parts = append(d.parts, p)
	}
	slices.SortFunc(d.parts, func(a, b *part.GroupPartDefinition) int {
		return a.RegistrationID().Compare(b.RegistrationID())
	})

	wired := make(map[part.ImportRegistrationID]string)
	for _, m := range d.internal {
		if err := d.validateInternal(m, wired); err != nil {
			return nil, err
		}
	}

	if d.export != nil {
		if d.export.group != id {
			return nil, fmt.Errorf("%w: export %s in group %s", ErrForeignDefinition, d.export, id)
		}
		for _, e := range d.export.providedExports {
			if _, err := d.PartExportByID(e); err != nil {
				return nil, fmt.Errorf("group export %s: %w", d.export, err)
			}
		}
	}

	names := make(map[string]bool, len(d.imports))
	for _, imp := range d.imports {
		if imp == nil {
			return nil, fmt.Errorf("group %s: nil import: %w", id, ErrUnknownImport)
		}
		if imp.group != id {
			return nil, fmt.Errorf("%w: import %s in group %s", ErrForeignDefinition, imp, id)
		}
		if names[imp.contractName] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateGroupImport, imp)
		}
		names[imp.contractName] = true
		for _, pi := range imp.importsToMatch {
			if _, err := d.PartImportByID(pi); err != nil {
				return nil, fmt.Errorf("group import %s: %w", imp, err)
			}
			if by, ok := wired[pi]; ok {
				return nil, fmt.Errorf("%w: %s by %s and %s", ErrImportAlreadyWired, pi, by, imp)
			}
			wired[pi] = "group import " + imp.contractName
		}
		if imp.HasInsertPoint() {
			if d.schedule == nil {
				return nil, fmt.Errorf("%w: %s on %s without schedule", ErrUnknownInsertPoint, imp.insertPoint, imp)
			}
			if _, ok := d.schedule.InsertPoint(imp.insertPoint); !ok {
				return nil, fmt.Errorf("%w: %s on %s", ErrUnknownInsertPoint, imp.insertPoint, imp)
			}
		}
	}

	if d.schedule != nil {
		if err := d.validateSchedule(); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *Definition) validateInternal(m PartImportToPartExportMap, wired map[part.ImportRegistrationID]string) error {
	imp, err := d.PartImportByID(m.importID)
	if err != nil {
		return fmt.Errorf("internal wiring of %s: %w", d.id, err)
	}
	if _, ok := wired[m.importID]; ok {
		return fmt.Errorf("%w: %s", ErrImportAlreadyWired, m.importID)
	}
	wired[m.importID] = "internal wiring"
	for _, e := range m.exports {
		exp, err := d.PartExportByID(e)
		if err != nil {
			return fmt.Errorf("internal wiring of %s: %w", d.id, err)
		}
		if err := contract.Match(imp, exp, nil); err != nil {
			return fmt.Errorf("internal wiring %s -> %s: %w", m.importID, e, err)
		}
	}
	if err := contract.CheckCardinality(imp, len(m.exports)); err != nil {
		return fmt.Errorf("internal wiring of %s: %w", m.importID, err)
	}
	return nil
}

func (d *Definition) validateSchedule() error {
	for elem, action := range d.schedule.Actions() {
		p, ok := d.partOf(action.Owner(), action.Index())
		if !ok || !p.HasAction(action) {
			return fmt.Errorf("schedule %s vertex %s: %w: %s", d.schedule.ID(), elem, part.ErrUnknownScheduleAction, action)
		}
	}
	for elem, cond := range d.schedule.Conditions() {
		p, ok := d.partOf(cond.Owner(), cond.Index())
		if !ok || !p.HasCondition(cond) {
			return fmt.Errorf("schedule %s edge %s: %w: %s", d.schedule.ID(), elem, part.ErrUnknownScheduleCondition, cond)
		}
	}
	return nil
}

func (d *Definition) partOf(owner string, index int) (*part.GroupPartDefinition, bool) {
	id, err := part.NewPartRegistrationID(owner, index)
	if err != nil {
		return nil, false
	}
	p, ok := d.byPart[id]
	return p, ok
}

func (d *Definition) ID() part.GroupRegistrationID { return d.id }

// Parts returns the parts in id order. Callers must not modify the slice.
func (d *Definition) Parts() []*part.GroupPartDefinition { return d.parts }

// InternalConnections returns the part wiring inside the group.
func (d *Definition) InternalConnections() []PartImportToPartExportMap { return d.internal }

// Schedule returns the group schedule, or nil.
func (d *Definition) Schedule() *schedule.Definition { return d.schedule }

// GroupExport returns the group export, or nil.
func (d *Definition) GroupExport() *ExportDefinition { return d.export }

// GroupImports returns the group imports in definition order.
func (d *Definition) GroupImports() []*ImportDefinition { return d.imports }

// GroupImport returns the group import with the given contract name.
func (d *Definition) GroupImport(contractName string) (*ImportDefinition, bool) {
	for _, imp := range d.imports {
		if imp.contractName == contractName {
			return imp, true
		}
	}
	return nil, false
}

// HasImport reports whether imp is one of the group imports.
func (d *Definition) HasImport(imp *ImportDefinition) bool {
	return slices.ContainsFunc(d.imports, imp.Equal)
}

// Part returns the part with the given id.
func (d *Definition) Part(id part.PartRegistrationID) (*part.GroupPartDefinition, bool) {
	p, ok := d.byPart[id]
	return p, ok
}

// PartByImport returns the part owning the import.
func (d *Definition) PartByImport(id part.ImportRegistrationID) (*part.GroupPartDefinition, error) {
	if p, ok := d.partOf(id.Owner(), id.Index()); ok && p.HasImport(id) {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s in group %s", ErrUnknownImport, id, d.id)
}

// PartByExport returns the part owning the export.
func (d *Definition) PartByExport(id part.ExportRegistrationID) (*part.GroupPartDefinition, error) {
	if p, ok := d.partOf(id.Owner(), id.Index()); ok && p.HasExport(id) {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s in group %s", ErrUnknownExport, id, d.id)
}

// PartImportByID returns the part import registered under id.
func (d *Definition) PartImportByID(id part.ImportRegistrationID) (contract.ImportDefinition, error) {
	p, err := d.PartByImport(id)
	if err != nil {
		return nil, err
	}
	return p.Import(id)
}

// PartExportByID returns the part export registered under id.
func (d *Definition) PartExportByID(id part.ExportRegistrationID) (contract.ExportDefinition, error) {
	p, err := d.PartByExport(id)
	if err != nil {
		return nil, err
	}
	return p.Export(id)
}

// IsOptionalImport reports whether every part import behind imp may stay unsatisfied.
func (d *Definition) IsOptionalImport(imp *ImportDefinition) bool {
	if !d.HasImport(imp) {
		return false
	}
	for _, id := range imp.importsToMatch {
		pi, err := d.PartImportByID(id)
		if err != nil || !pi.Cardinality().AllowsZero() {
			return false
		}
	}
	return true
}

// Equal compares every element of the two groups.
func (d *Definition) Equal(o *Definition) bool {
	if d == nil || o == nil {
		return d == o
	}
	return d.id == o.id &&
		slices.EqualFunc(d.parts, o.parts, (*part.GroupPartDefinition).Equal) &&
		slices.EqualFunc(d.internal, o.internal, PartImportToPartExportMap.Equal) &&
		d.schedule.Equal(o.schedule) &&
		d.export.Equal(o.export) &&
		slices.EqualFunc(d.imports, o.imports, (*ImportDefinition).Equal)
}

func (d *Definition) String() string {
	return d.id.String()
}

type definitionJSON struct {
	ID       part.GroupRegistrationID    `json:"id"`
	Parts    []*part.GroupPartDefinition `json:"parts"`
	Internal []PartImportToPartExportMap `json:"internal,omitempty"`
	Schedule *schedule.Definition        `json:"schedule,omitempty"`
	Export   *ExportDefinition           `json:"export,omitempty"`
	Imports  []*ImportDefinition         `json:"imports,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (d *Definition) MarshalJSON() ([]byte, error) {
	return json.Marshal(definitionJSON{
		ID:       d.id,
		Parts:    d.parts,
		Internal: d.internal,
		Schedule: d.schedule,
		Export:   d.export,
		Imports:  d.imports,
	})
}

// UnmarshalJSON implements json.Unmarshaler. The decoded group is validated.
func (d *Definition) UnmarshalJSON(data []byte) error {
	var w definitionJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	v, err := NewDefinition(w.ID, Contents{
		Parts:    w.Parts,
		Internal: w.Internal,
		Schedule: w.Schedule,
		Export:   w.Export,
		Imports:  w.Imports,
	})
	if err != nil {
		return err
	}
	*d = *v
	return nil
}
