package contract

import (
	"encoding/json"
	"fmt"

	"github.com/zjrosen/composer/internal/typesystem"
)

// ImportKind tags the import variants on the wire.
type ImportKind string

const (
	ConstructorImport ImportKind = "constructor"
	PropertyImport    ImportKind = "property"
)

// ImportDefinition is a declared requirement of a part.
type ImportDefinition interface {
	Kind() ImportKind
	ContractName() string
	RequiredTypeIdentity() *typesystem.TypeIdentity
	Cardinality() Cardinality
	IsRecomposable() bool
	IsPrerequisite() bool
	CreationPolicy() CreationPolicy
	DeclaringType() *typesystem.TypeIdentity
	// Key is equal for two imports exactly when Equal holds.
	Key() string
	Equal(other ImportDefinition) bool
	String() string
}

// ImportOptions are the attributes a scanner reads from an import declaration.
type ImportOptions struct {
	ContractName   string
	Cardinality    Cardinality
	CreationPolicy CreationPolicy
	// Recomposable only applies to property imports.
	Recomposable bool
}

type importBase struct {
	contractName   string
	requiredType   *typesystem.TypeIdentity
	cardinality    Cardinality
	recomposable   bool
	prerequisite   bool
	creationPolicy CreationPolicy
	declaringType  *typesystem.TypeIdentity
}

func (b *importBase) ContractName() string                           { return b.contractName }
func (b *importBase) RequiredTypeIdentity() *typesystem.TypeIdentity { return b.requiredType }
func (b *importBase) Cardinality() Cardinality                       { return b.cardinality }
func (b *importBase) IsRecomposable() bool                           { return b.recomposable }
func (b *importBase) IsPrerequisite() bool                           { return b.prerequisite }
func (b *importBase) CreationPolicy() CreationPolicy                 { return b.creationPolicy }
func (b *importBase) DeclaringType() *typesystem.TypeIdentity        { return b.declaringType }

// ConstructorImportDefinition is an import satisfied through a constructor parameter.
// Constructor imports are prerequisites and never recomposable.
type ConstructorImportDefinition struct {
	importBase
	constructor *typesystem.ConstructorDefinition
	parameter   *typesystem.ParameterDefinition
}

// CreateConstructorImport builds the import for parameter param of ctor.
func CreateConstructorImport(
	ctor typesystem.Constructor,
	param typesystem.Parameter,
	opts ImportOptions,
	gen typesystem.IdentityGenerator,
) (*ConstructorImportDefinition, error) {
	if opts.ContractName == "" {
		return nil, ErrEmptyContractName
	}
	if ctor == nil || param == nil {
		return nil, fmt.Errorf("constructor import %q: %w", opts.ContractName, typesystem.ErrNilMember)
	}
	c, err := typesystem.CreateConstructorDefinition(ctor, gen)
	if err != nil {
		return nil, fmt.Errorf("constructor import %q: %w", opts.ContractName, err)
	}
	p, err := typesystem.CreateParameterDefinition(param, gen)
	if err != nil {
		return nil, fmt.Errorf("constructor import %q: %w", opts.ContractName, err)
	}
	return NewConstructorImport(opts, c, p)
}

// NewConstructorImport assembles a constructor import from existing definitions.
func NewConstructorImport(
	opts ImportOptions,
	ctor *typesystem.ConstructorDefinition,
	param *typesystem.ParameterDefinition,
) (*ConstructorImportDefinition, error) {
	if opts.ContractName == "" {
		return nil, ErrEmptyContractName
	}
	if ctor == nil || param == nil {
		return nil, fmt.Errorf("constructor import %q: %w", opts.ContractName, typesystem.ErrNilMember)
	}
	if !param.Equal(ctor.Parameter(param.Position())) {
		return nil, fmt.Errorf("constructor import %q: %w: %s on %s",
			opts.ContractName, ErrUnknownParameter, param.Name(), ctor)
	}
	return &ConstructorImportDefinition{
		importBase: importBase{
			contractName:   opts.ContractName,
			requiredType:   param.Type(),
			cardinality:    opts.Cardinality,
			prerequisite:   true,
			creationPolicy: opts.CreationPolicy,
			declaringType:  ctor.DeclaringType(),
		},
		constructor: ctor,
		parameter:   param,
	}, nil
}

// Kind returns ConstructorImport.
func (d *ConstructorImportDefinition) Kind() ImportKind { return ConstructorImport }

// Constructor returns the importing constructor.
func (d *ConstructorImportDefinition) Constructor() *typesystem.ConstructorDefinition {
	return d.constructor
}

// Parameter returns the importing parameter.
func (d *ConstructorImportDefinition) Parameter() *typesystem.ParameterDefinition {
	return d.parameter
}

// Key returns the contract name and member key.
func (d *ConstructorImportDefinition) Key() string {
	return string(ConstructorImport) + "#" + d.contractName + "#" + d.constructor.Key() + "#" + d.parameter.Name()
}

// Equal compares contract name ordinally, constructor and parameter.
func (d *ConstructorImportDefinition) Equal(other ImportDefinition) bool {
	o, ok := other.(*ConstructorImportDefinition)
	if !ok || d == nil || o == nil {
		return ok && d == o
	}
	return d.contractName == o.contractName &&
		d.constructor.Equal(o.constructor) &&
		d.parameter.Equal(o.parameter)
}

func (d *ConstructorImportDefinition) String() string {
	return fmt.Sprintf("%s [%s] %s", d.contractName, d.cardinality, d.constructor)
}

// PropertyImportDefinition is an import satisfied by setting a property.
type PropertyImportDefinition struct {
	importBase
	property *typesystem.PropertyDefinition
}

// CreatePropertyImport builds the import for prop.
func CreatePropertyImport(
	prop typesystem.Property,
	opts ImportOptions,
	gen typesystem.IdentityGenerator,
) (*PropertyImportDefinition, error) {
	if opts.ContractName == "" {
		return nil, ErrEmptyContractName
	}
	p, err := typesystem.CreatePropertyDefinition(prop, gen)
	if err != nil {
		return nil, fmt.Errorf("property import %q: %w", opts.ContractName, err)
	}
	return NewPropertyImport(opts, p)
}

// NewPropertyImport assembles a property import from an existing definition.
func NewPropertyImport(opts ImportOptions, prop *typesystem.PropertyDefinition) (*PropertyImportDefinition, error) {
	if opts.ContractName == "" {
		return nil, ErrEmptyContractName
	}
	if prop == nil {
		return nil, fmt.Errorf("property import %q: %w", opts.ContractName, typesystem.ErrNilMember)
	}
	return &PropertyImportDefinition{
		importBase: importBase{
			contractName:   opts.ContractName,
			requiredType:   prop.PropertyType(),
			cardinality:    opts.Cardinality,
			recomposable:   opts.Recomposable,
			creationPolicy: opts.CreationPolicy,
			declaringType:  prop.DeclaringType(),
		},
		property: prop,
	}, nil
}

// Kind returns PropertyImport.
func (d *PropertyImportDefinition) Kind() ImportKind { return PropertyImport }

// Property returns the importing property.
func (d *PropertyImportDefinition) Property() *typesystem.PropertyDefinition { return d.property }

// Key returns the contract name and member key.
func (d *PropertyImportDefinition) Key() string {
	return string(PropertyImport) + "#" + d.contractName + "#" + d.property.Key()
}

// Equal compares contract name ordinally and the property.
func (d *PropertyImportDefinition) Equal(other ImportDefinition) bool {
	o, ok := other.(*PropertyImportDefinition)
	if !ok || d == nil || o == nil {
		return ok && d == o
	}
	return d.contractName == o.contractName && d.property.Equal(o.property)
}

func (d *PropertyImportDefinition) String() string {
	return fmt.Sprintf("%s [%s] %s", d.contractName, d.cardinality, d.property)
}

type importJSON struct {
	Kind           ImportKind                        `json:"kind"`
	ContractName   string                            `json:"contract_name"`
	Cardinality    Cardinality                       `json:"cardinality"`
	CreationPolicy CreationPolicy                    `json:"creation_policy"`
	Recomposable   bool                              `json:"recomposable,omitempty"`
	Constructor    *typesystem.ConstructorDefinition `json:"constructor,omitempty"`
	Parameter      *typesystem.ParameterDefinition   `json:"parameter,omitempty"`
	Property       *typesystem.PropertyDefinition    `json:"property,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (d *ConstructorImportDefinition) MarshalJSON() ([]byte, error) {
	return json.Marshal(importJSON{
		Kind:           ConstructorImport,
		ContractName:   d.contractName,
		Cardinality:    d.cardinality,
		CreationPolicy: d.creationPolicy,
		Constructor:    d.constructor,
		Parameter:      d.parameter,
	})
}

// MarshalJSON implements json.Marshaler.
func (d *PropertyImportDefinition) MarshalJSON() ([]byte, error) {
	return json.Marshal(importJSON{
		Kind:           PropertyImport,
		ContractName:   d.contractName,
		Cardinality:    d.cardinality,
		CreationPolicy: d.creationPolicy,
		Recomposable:   d.recomposable,
		Property:       d.property,
	})
}

// DecodeImport decodes any import variant produced by MarshalJSON.
func DecodeImport(data []byte) (ImportDefinition, error) {
	var w importJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	opts := ImportOptions{
		ContractName:   w.ContractName,
		Cardinality:    w.Cardinality,
		CreationPolicy: w.CreationPolicy,
		Recomposable:   w.Recomposable,
	}
	var (
		def ImportDefinition
		err error
	)
	switch w.Kind {
	case ConstructorImport:
		def, err = NewConstructorImport(opts, w.Constructor, w.Parameter)
	case PropertyImport:
		def, err = NewPropertyImport(opts, w.Property)
	default:
		err = fmt.Errorf("%w: import %q", ErrUnknownDefinitionKind, w.Kind)
	}
	if err != nil {
		return nil, err
	}
	return def, nil
}
