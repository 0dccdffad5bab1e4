package contract

import (
	"encoding/json"
	"fmt"

	"github.com/zjrosen/composer/internal/typesystem"
)

// ExportKind tags the export variants on the wire.
type ExportKind string

const (
	TypeExport     ExportKind = "type"
	MethodExport   ExportKind = "method"
	PropertyExport ExportKind = "property"
)

// ExportDefinition is a declared capability of a part.
type ExportDefinition interface {
	Kind() ExportKind
	ContractName() string
	// ProvidedTypeIdentity is the type importers receive. It is nil for a void method.
	ProvidedTypeIdentity() *typesystem.TypeIdentity
	CreationPolicy() CreationPolicy
	DeclaringType() *typesystem.TypeIdentity
	Key() string
	Equal(other ExportDefinition) bool
	String() string
}

// ExportOptions are the attributes a scanner reads from an export declaration.
type ExportOptions struct {
	ContractName   string
	CreationPolicy CreationPolicy
}

type exportBase struct {
	contractName   string
	creationPolicy CreationPolicy
}

func (b *exportBase) ContractName() string           { return b.contractName }
func (b *exportBase) CreationPolicy() CreationPolicy { return b.creationPolicy }

// TypeExportDefinition exports the part type itself.
type TypeExportDefinition struct {
	exportBase
	declaringType *typesystem.TypeIdentity
}

// CreateTypeExport builds the export of t.
func CreateTypeExport(t typesystem.Type, opts ExportOptions, gen typesystem.IdentityGenerator) (*TypeExportDefinition, error) {
	if opts.ContractName == "" {
		return nil, ErrEmptyContractName
	}
	if t == nil {
		return nil, fmt.Errorf("type export %q: %w", opts.ContractName, typesystem.ErrNilType)
	}
	if gen == nil {
		return nil, typesystem.ErrNilGenerator
	}
	id, err := gen(t)
	if err != nil {
		return nil, fmt.Errorf("type export %q: %w", opts.ContractName, err)
	}
	return NewTypeExport(opts, id)
}

// NewTypeExport assembles a type export from an existing identity.
func NewTypeExport(opts ExportOptions, declaringType *typesystem.TypeIdentity) (*TypeExportDefinition, error) {
	if opts.ContractName == "" {
		return nil, ErrEmptyContractName
	}
	if declaringType == nil {
		return nil, fmt.Errorf("type export %q: %w", opts.ContractName, typesystem.ErrNilType)
	}
	return &TypeExportDefinition{
		exportBase:    exportBase{contractName: opts.ContractName, creationPolicy: opts.CreationPolicy},
		declaringType: declaringType,
	}, nil
}

func (d *TypeExportDefinition) Kind() ExportKind                               { return TypeExport }
func (d *TypeExportDefinition) DeclaringType() *typesystem.TypeIdentity        { return d.declaringType }
func (d *TypeExportDefinition) ProvidedTypeIdentity() *typesystem.TypeIdentity { return d.declaringType }

// Key case-folds the contract name; type exports compare it case-insensitively.
func (d *TypeExportDefinition) Key() string {
	return string(TypeExport) + "#" + typesystem.Fold(d.contractName) + "#" + d.declaringType.Key()
}

// Equal compares the contract name ignoring case and the declaring type.
func (d *TypeExportDefinition) Equal(other ExportDefinition) bool {
	o, ok := other.(*TypeExportDefinition)
	if !ok || d == nil || o == nil {
		return ok && d == o
	}
	return typesystem.EqualFold(d.contractName, o.contractName) && d.declaringType.Equal(o.declaringType)
}

func (d *TypeExportDefinition) String() string {
	return d.contractName + " <- " + d.declaringType.String()
}

// MethodExportDefinition exports a method of the part.
type MethodExportDefinition struct {
	exportBase
	method *typesystem.MethodDefinition
}

// CreateMethodExport builds the export of m.
func CreateMethodExport(m typesystem.Method, opts ExportOptions, gen typesystem.IdentityGenerator) (*MethodExportDefinition, error) {
	if opts.ContractName == "" {
		return nil, ErrEmptyContractName
	}
	md, err := typesystem.CreateMethodDefinition(m, gen)
	if err != nil {
		return nil, fmt.Errorf("method export %q: %w", opts.ContractName, err)
	}
	return NewMethodExport(opts, md)
}

// NewMethodExport assembles a method export from an existing definition.
func NewMethodExport(opts ExportOptions, m *typesystem.MethodDefinition) (*MethodExportDefinition, error) {
	if opts.ContractName == "" {
		return nil, ErrEmptyContractName
	}
	if m == nil {
		return nil, fmt.Errorf("method export %q: %w", opts.ContractName, typesystem.ErrNilMember)
	}
	return &MethodExportDefinition{
		exportBase: exportBase{contractName: opts.ContractName, creationPolicy: opts.CreationPolicy},
		method:     m,
	}, nil
}

func (d *MethodExportDefinition) Kind() ExportKind                               { return MethodExport }
func (d *MethodExportDefinition) Method() *typesystem.MethodDefinition           { return d.method }
func (d *MethodExportDefinition) DeclaringType() *typesystem.TypeIdentity        { return d.method.DeclaringType() }
func (d *MethodExportDefinition) ProvidedTypeIdentity() *typesystem.TypeIdentity { return d.method.ReturnType() }

func (d *MethodExportDefinition) Key() string {
	return string(MethodExport) + "#" + d.contractName + "#" + d.method.Key()
}

// Equal compares the contract name ordinally and the method.
func (d *MethodExportDefinition) Equal(other ExportDefinition) bool {
	o, ok := other.(*MethodExportDefinition)
	if !ok || d == nil || o == nil {
		return ok && d == o
	}
	return d.contractName == o.contractName && d.method.Equal(o.method)
}

func (d *MethodExportDefinition) String() string {
	return d.contractName + " <- " + d.method.String()
}

// PropertyExportDefinition exports a property of the part.
type PropertyExportDefinition struct {
	exportBase
	property *typesystem.PropertyDefinition
}

// CreatePropertyExport builds the export of p.
func CreatePropertyExport(p typesystem.Property, opts ExportOptions, gen typesystem.IdentityGenerator) (*PropertyExportDefinition, error) {
	if opts.ContractName == "" {
		return nil, ErrEmptyContractName
	}
	pd, err := typesystem.CreatePropertyDefinition(p, gen)
	if err != nil {
		return nil, fmt.Errorf("property export %q: %w", opts.ContractName, err)
	}
	return NewPropertyExport(opts, pd)
}

// NewPropertyExport assembles a property export from an existing definition.
func NewPropertyExport(opts ExportOptions, p *typesystem.PropertyDefinition) (*PropertyExportDefinition, error) {
	if opts.ContractName == "" {
		return nil, ErrEmptyContractName
	}
	if p == nil {
		return nil, fmt.Errorf("property export %q: %w", opts.ContractName, typesystem.ErrNilMember)
	}
	return &PropertyExportDefinition{
		exportBase: exportBase{contractName: opts.ContractName, creationPolicy: opts.CreationPolicy},
		property:   p,
	}, nil
}

func (d *PropertyExportDefinition) Kind() ExportKind                               { return PropertyExport }
func (d *PropertyExportDefinition) Property() *typesystem.PropertyDefinition       { return d.property }
func (d *PropertyExportDefinition) DeclaringType() *typesystem.TypeIdentity        { return d.property.DeclaringType() }
func (d *PropertyExportDefinition) ProvidedTypeIdentity() *typesystem.TypeIdentity { return d.property.PropertyType() }

func (d *PropertyExportDefinition) Key() string {
	return string(PropertyExport) + "#" + d.contractName + "#" + d.property.Key()
}

// Equal compares the contract name ordinally and the property.
func (d *PropertyExportDefinition) Equal(other ExportDefinition) bool {
	o, ok := other.(*PropertyExportDefinition)
	if !ok || d == nil || o == nil {
		return ok && d == o
	}
	return d.contractName == o.contractName && d.property.Equal(o.property)
}

func (d *PropertyExportDefinition) String() string {
	return d.contractName + " <- " + d.property.String()
}

type exportJSON struct {
	Kind           ExportKind                     `json:"kind"`
	ContractName   string                         `json:"contract_name"`
	CreationPolicy CreationPolicy                 `json:"creation_policy"`
	DeclaringType  *typesystem.TypeIdentity       `json:"declaring_type,omitempty"`
	Method         *typesystem.MethodDefinition   `json:"method,omitempty"`
	Property       *typesystem.PropertyDefinition `json:"property,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (d *TypeExportDefinition) MarshalJSON() ([]byte, error) {
	return json.Marshal(exportJSON{
		Kind:           TypeExport,
		ContractName:   d.contractName,
		CreationPolicy: d.creationPolicy,
		DeclaringType:  d.declaringType,
	})
}

// MarshalJSON implements json.Marshaler.
func (d *MethodExportDefinition) MarshalJSON() ([]byte, error) {
	return json.Marshal(exportJSON{
		Kind:           MethodExport,
		ContractName:   d.contractName,
		CreationPolicy: d.creationPolicy,
		Method:         d.method,
	})
}

// MarshalJSON implements json.Marshaler.
func (d *PropertyExportDefinition) MarshalJSON() ([]byte, error) {
	return json.Marshal(exportJSON{
		Kind:           PropertyExport,
		ContractName:   d.contractName,
		CreationPolicy: d.creationPolicy,
		Property:       d.property,
	})
}

// DecodeExport decodes any export variant produced by MarshalJSON.
func DecodeExport(data []byte) (ExportDefinition, error) {
	var w exportJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	opts := ExportOptions{ContractName: w.ContractName, CreationPolicy: w.CreationPolicy}
	var (
		def ExportDefinition
		err error
	)
	switch w.Kind {
	case TypeExport:
		def, err = NewTypeExport(opts, w.DeclaringType)
	case MethodExport:
		def, err = NewMethodExport(opts, w.Method)
	case PropertyExport:
		def, err = NewPropertyExport(opts, w.Property)
	default:
		err = fmt.Errorf("%w: export %q", ErrUnknownDefinitionKind, w.Kind)
	}
	if err != nil {
		return nil, err
	}
	return def, nil
}
