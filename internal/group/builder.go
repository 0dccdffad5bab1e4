package group

import (
	"fmt"

	"github.com/zjrosen/composer/internal/contract"
	"github.com/zjrosen/composer/internal/part"
	"github.com/zjrosen/composer/internal/schedule"
	"github.com/zjrosen/composer/internal/typesystem"
)

// PartSource supplies the scanned definition of a plugin type. Implementations return an
// error wrapping ErrUnknownPluginType for types that were never scanned.
type PartSource interface {
	Part(t *typesystem.TypeIdentity) (*part.Definition, error)
}

// Builder assembles a group definition from scanned parts.
type Builder struct {
	source      PartSource
	parts       []*PartBuilder
	counts      map[string]int
	wiring      map[part.ImportRegistrationID][]part.ExportRegistrationID
	wiringOrder []part.ImportRegistrationID
	schedule    *schedule.Definition
	export      *exportSpec
	imports     []importSpec
	registered  bool
}

type exportSpec struct {
	contractName string
	exports      []part.ExportRegistrationID
}

type importSpec struct {
	contractName string
	insertPoint  schedule.ElementID
	imports      []part.ImportRegistrationID
}

// NewBuilder creates a builder that looks parts up in source.
func NewBuilder(source PartSource) *Builder {
	return &Builder{
		source: source,
		counts: make(map[string]int),
		wiring: make(map[part.ImportRegistrationID][]part.ExportRegistrationID),
	}
}

// RegisterObject adds a new part of type t. Repeated registrations of the same type get
// increasing indices.
func (b *Builder) RegisterObject(t *typesystem.TypeIdentity) (*PartBuilder, error) {
	if t == nil {
		return nil, typesystem.ErrNilType
	}
	def, err := b.source.Part(t)
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", t, err)
	}
	if def == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPluginType, t)
	}
	key := t.Key()
	pb := &PartBuilder{def: def, index: b.counts[key]}
	b.counts[key]++
	b.parts = append(b.parts, pb)
	return pb, nil
}

// Connect wires a part import to a part export inside the group. Several exports may be
// connected to one import; Register checks types and cardinality.
func (b *Builder) Connect(imp part.ImportRegistrationID, exp part.ExportRegistrationID) {
	if _, ok := b.wiring[imp]; !ok {
		b.wiringOrder = append(b.wiringOrder, imp)
	}
	b.wiring[imp] = append(b.wiring[imp], exp)
}

// DefineExport sets the group export. A group has at most one export.
func (b *Builder) DefineExport(contractName string, exports ...part.ExportRegistrationID) error {
	if b.export != nil {
		return fmt.Errorf("%w: %q", ErrGroupExportDefined, b.export.contractName)
	}
	if contractName == "" {
		return contract.ErrEmptyContractName
	}
	b.export = &exportSpec{contractName: contractName, exports: exports}
	return nil
}

// DefineImport adds a group import. A zero insertPoint means no schedule splice.
func (b *Builder) DefineImport(contractName string, insertPoint schedule.ElementID, imports ...part.ImportRegistrationID) error {
	if contractName == "" {
		return contract.ErrEmptyContractName
	}
	for _, spec := range b.imports {
		if spec.contractName == contractName {
			return fmt.Errorf("%w: %q", ErrDuplicateGroupImport, contractName)
		}
	}
	b.imports = append(b.imports, importSpec{contractName: contractName, insertPoint: insertPoint, imports: imports})
	return nil
}

// SetSchedule sets the group schedule.
func (b *Builder) SetSchedule(s *schedule.Definition) {
	b.schedule = s
}

// Register validates the collected state and returns the group definition.
func (b *Builder) Register(name string) (*Definition, error) {
	if b.registered {
		return nil, ErrGroupRegistered
	}
	id, err := part.NewGroupRegistrationID(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmptyGroupName, err)
	}

	c := Contents{Schedule: b.schedule}
	for _, pb := range b.parts {
		p, err := part.NewGroupPartDefinition(pb.def.Identity(), pb.index, pb.regs)
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", id, err)
		}
		c.Parts = append(c.Parts, p)
	}
	for _, imp := range b.wiringOrder {
		c.Internal = append(c.Internal, NewPartImportToPartExportMap(imp, b.wiring[imp]...))
	}
	if b.export != nil {
		if c.Export, err = NewExportDefinition(id, b.export.contractName, b.export.exports...); err != nil {
			return nil, err
		}
	}
	for _, spec := range b.imports {
		imp, err := NewImportDefinition(id, spec.contractName, spec.insertPoint, spec.imports...)
		if err != nil {
			return nil, err
		}
		c.Imports = append(c.Imports, imp)
	}

	def, err := NewDefinition(id, c)
	if err != nil {
		return nil, err
	}
	b.registered = true
	return def, nil
}

// PartBuilder selects which members of a registered part the group uses.
type PartBuilder struct {
	def   *part.Definition
	index int
	regs  part.Registrations
}

// Definition returns the scanned definition behind the part.
func (p *PartBuilder) Definition() *part.Definition { return p.def }

// Index returns the index of the part among the parts of the same type.
func (p *PartBuilder) Index() int { return p.index }

// ID returns the part registration id.
func (p *PartBuilder) ID() (part.PartRegistrationID, error) {
	return part.NewPartRegistrationID(p.owner(), p.index)
}

func (p *PartBuilder) owner() string { return p.def.Identity().String() }

// RegisterExport registers the export with the given contract name.
func (p *PartBuilder) RegisterExport(contractName string) (part.ExportRegistrationID, error) {
	exp, ok := p.def.Export(contractName)
	if !ok {
		return part.ExportRegistrationID{}, fmt.Errorf("%w: %q on %s", ErrUnknownExport, contractName, p.owner())
	}
	id, err := part.NewExportRegistrationID(p.owner(), p.index, contractName)
	if err != nil {
		return part.ExportRegistrationID{}, err
	}
	for _, e := range p.regs.Exports {
		if e.ID == id {
			return id, nil
		}
	}
	p.regs.Exports = append(p.regs.Exports, part.ExportEntry{ID: id, Definition: exp})
	return id, nil
}

// RegisterImport registers the import with the given contract name.
func (p *PartBuilder) RegisterImport(contractName string) (part.ImportRegistrationID, error) {
	imp, ok := p.def.Import(contractName)
	if !ok {
		return part.ImportRegistrationID{}, fmt.Errorf("%w: %q on %s", ErrUnknownImport, contractName, p.owner())
	}
	id, err := part.NewImportRegistrationID(p.owner(), p.index, contractName)
	if err != nil {
		return part.ImportRegistrationID{}, err
	}
	for _, e := range p.regs.Imports {
		if e.ID == id {
			return id, nil
		}
	}
	p.regs.Imports = append(p.regs.Imports, part.ImportEntry{ID: id, Definition: imp})
	return id, nil
}

// RegisterScheduleAction registers the schedule action with the given contract name.
func (p *PartBuilder) RegisterScheduleAction(contractName string) (part.ScheduleActionRegistrationID, error) {
	action, ok := p.def.Action(contractName)
	if !ok {
		return part.ScheduleActionRegistrationID{}, fmt.Errorf("%w: %q on %s", part.ErrUnknownScheduleAction, contractName, p.owner())
	}
	id, err := part.NewScheduleActionRegistrationID(p.owner(), p.index, contractName)
	if err != nil {
		return part.ScheduleActionRegistrationID{}, err
	}
	for _, e := range p.regs.Actions {
		if e.ID == id {
			return id, nil
		}
	}
	p.regs.Actions = append(p.regs.Actions, part.ActionEntry{ID: id, Definition: action})
	return id, nil
}

// RegisterScheduleCondition registers the schedule condition with the given contract name.
func (p *PartBuilder) RegisterScheduleCondition(contractName string) (part.ScheduleConditionRegistrationID, error) {
	cond, ok := p.def.Condition(contractName)
	if !ok {
		return part.ScheduleConditionRegistrationID{}, fmt.Errorf("%w: %q on %s", part.ErrUnknownScheduleCondition, contractName, p.owner())
	}
	id, err := part.NewScheduleConditionRegistrationID(p.owner(), p.index, contractName)
	if err != nil {
		return part.ScheduleConditionRegistrationID{}, err
	}
	for _, e := range p.regs.Conditions {
		if e.ID == id {
			return id, nil
		}
	}
	p.regs.Conditions = append(p.regs.Conditions, part.ConditionEntry{ID: id, Definition: cond})
	return id, nil
}

// RegisterAll registers every member of the part.
func (p *PartBuilder) RegisterAll() error {
	for _, e := range p.def.Exports() {
		if _, err := p.RegisterExport(e.ContractName()); err != nil {
			return err
		}
	}
	for _, i := range p.def.Imports() {
		if _, err := p.RegisterImport(i.ContractName()); err != nil {
			return err
		}
	}
	for _, a := range p.def.Actions() {
		if _, err := p.RegisterScheduleAction(a.ContractName()); err != nil {
			return err
		}
	}
	for _, c := range p.def.Conditions() {
		if _, err := p.RegisterScheduleCondition(c.ContractName()); err != nil {
			return err
		}
	}
	return nil
}
