package typesystem

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParameterDefinition describes one constructor or method parameter.
type ParameterDefinition struct {
	name          string
	position      int
	parameterType *TypeIdentity
}

// CreateParameterDefinition builds the definition of p.
func CreateParameterDefinition(p Parameter, gen IdentityGenerator) (*ParameterDefinition, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: parameter", ErrNilMember)
	}
	if gen == nil {
		return nil, ErrNilGenerator
	}
	if p.ParameterType() == nil {
		return nil, fmt.Errorf("parameter %q: %w", p.Name(), ErrNilType)
	}
	pt, err := gen(p.ParameterType())
	if err != nil {
		return nil, fmt.Errorf("parameter %q: %w", p.Name(), err)
	}
	return &ParameterDefinition{name: p.Name(), position: p.Position(), parameterType: pt}, nil
}

// Name returns the parameter name.
func (p *ParameterDefinition) Name() string { return p.name }

// Position returns the zero-based parameter position.
func (p *ParameterDefinition) Position() int { return p.position }

// Type returns the parameter type identity.
func (p *ParameterDefinition) Type() *TypeIdentity { return p.parameterType }

// Equal compares name ordinally, position and type.
func (p *ParameterDefinition) Equal(other *ParameterDefinition) bool {
	if p == other {
		return true
	}
	if p == nil || other == nil {
		return false
	}
	return p.name == other.name && p.position == other.position && p.parameterType.Equal(other.parameterType)
}

// String returns "Type name".
func (p *ParameterDefinition) String() string {
	return p.parameterType.String() + " " + p.name
}

func (p *ParameterDefinition) key() string {
	return fmt.Sprintf("%d:%s:%s", p.position, p.name, p.parameterType.Key())
}

type parameterJSON struct {
	Name     string        `json:"name"`
	Position int           `json:"position"`
	Type     *TypeIdentity `json:"type"`
}

// MarshalJSON implements json.Marshaler.
func (p *ParameterDefinition) MarshalJSON() ([]byte, error) {
	return json.Marshal(parameterJSON{Name: p.name, Position: p.position, Type: p.parameterType})
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *ParameterDefinition) UnmarshalJSON(data []byte) error {
	var w parameterJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Type == nil {
		return fmt.Errorf("%w: parameter %q without type", ErrInvalidPayload, w.Name)
	}
	*p = ParameterDefinition{name: w.Name, position: w.Position, parameterType: w.Type}
	return nil
}

func createParameters(params []Parameter, gen IdentityGenerator) ([]*ParameterDefinition, error) {
	defs := make([]*ParameterDefinition, 0, len(params))
	for _, p := range params {
		d, err := CreateParameterDefinition(p, gen)
		if err != nil {
			return nil, err
		}
		defs = append(defs, d)
	}
	return defs, nil
}

func equalParameters(a, b []*ParameterDefinition) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func parameterList(params []*ParameterDefinition) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.String()
	}
	return strings.Join(parts, ", ")
}

// ConstructorDefinition describes a constructor.
type ConstructorDefinition struct {
	declaringType *TypeIdentity
	parameters    []*ParameterDefinition
}

// CreateConstructorDefinition builds the definition of c.
func CreateConstructorDefinition(c Constructor, gen IdentityGenerator) (*ConstructorDefinition, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: constructor", ErrNilMember)
	}
	if gen == nil {
		return nil, ErrNilGenerator
	}
	if c.DeclaringType() == nil {
		return nil, fmt.Errorf("constructor: %w", ErrNilType)
	}
	dt, err := gen(c.DeclaringType())
	if err != nil {
		return nil, fmt.Errorf("constructor: %w", err)
	}
	params, err := createParameters(c.Parameters(), gen)
	if err != nil {
		return nil, fmt.Errorf("constructor of %s: %w", dt, err)
	}
	return &ConstructorDefinition{declaringType: dt, parameters: params}, nil
}

// DeclaringType returns the type that owns the constructor.
func (c *ConstructorDefinition) DeclaringType() *TypeIdentity { return c.declaringType }

// Parameters returns the ordered parameters. Callers must not modify the slice.
func (c *ConstructorDefinition) Parameters() []*ParameterDefinition { return c.parameters }

// Parameter returns the parameter at position, or nil.
func (c *ConstructorDefinition) Parameter(position int) *ParameterDefinition {
	for _, p := range c.parameters {
		if p.position == position {
			return p
		}
	}
	return nil
}

// Equal compares the declaring type and the ordered parameters.
func (c *ConstructorDefinition) Equal(other *ConstructorDefinition) bool {
	if c == other {
		return true
	}
	if c == nil || other == nil {
		return false
	}
	return c.declaringType.Equal(other.declaringType) && equalParameters(c.parameters, other.parameters)
}

// String returns "Type(params)".
func (c *ConstructorDefinition) String() string {
	return c.declaringType.String() + "(" + parameterList(c.parameters) + ")"
}

// Key returns a canonical string that is equal exactly when Equal holds.
func (c *ConstructorDefinition) Key() string {
	var b strings.Builder
	b.WriteString("ctor|")
	b.WriteString(c.declaringType.Key())
	for _, p := range c.parameters {
		b.WriteString("|")
		b.WriteString(p.key())
	}
	return b.String()
}

type constructorJSON struct {
	DeclaringType *TypeIdentity          `json:"declaring_type"`
	Parameters    []*ParameterDefinition `json:"parameters,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (c *ConstructorDefinition) MarshalJSON() ([]byte, error) {
	return json.Marshal(constructorJSON{DeclaringType: c.declaringType, Parameters: c.parameters})
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *ConstructorDefinition) UnmarshalJSON(data []byte) error {
	var w constructorJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.DeclaringType == nil {
		return fmt.Errorf("%w: constructor without declaring type", ErrInvalidPayload)
	}
	*c = ConstructorDefinition{declaringType: w.DeclaringType, parameters: w.Parameters}
	return nil
}

// MethodDefinition describes a method.
type MethodDefinition struct {
	name          string
	declaringType *TypeIdentity
	returnType    *TypeIdentity // nil for void
	parameters    []*ParameterDefinition
}

// CreateMethodDefinition builds the definition of m.
func CreateMethodDefinition(m Method, gen IdentityGenerator) (*MethodDefinition, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: method", ErrNilMember)
	}
	if gen == nil {
		return nil, ErrNilGenerator
	}
	if m.Name() == "" {
		return nil, fmt.Errorf("%w: method name", ErrEmptyName)
	}
	if m.DeclaringType() == nil {
		return nil, fmt.Errorf("method %s: %w", m.Name(), ErrNilType)
	}
	dt, err := gen(m.DeclaringType())
	if err != nil {
		return nil, fmt.Errorf("method %s: %w", m.Name(), err)
	}
	def := &MethodDefinition{name: m.Name(), declaringType: dt}
	if rt := m.ReturnType(); rt != nil {
		if def.returnType, err = gen(rt); err != nil {
			return nil, fmt.Errorf("return type of %s.%s: %w", dt, m.Name(), err)
		}
	}
	if def.parameters, err = createParameters(m.Parameters(), gen); err != nil {
		return nil, fmt.Errorf("method %s.%s: %w", dt, m.Name(), err)
	}
	return def, nil
}

// Name returns the method name.
func (m *MethodDefinition) Name() string { return m.name }

// DeclaringType returns the type that owns the method.
func (m *MethodDefinition) DeclaringType() *TypeIdentity { return m.declaringType }

// ReturnType returns the return type identity, or nil for void methods.
func (m *MethodDefinition) ReturnType() *TypeIdentity { return m.returnType }

// Parameters returns the ordered parameters. Callers must not modify the slice.
func (m *MethodDefinition) Parameters() []*ParameterDefinition { return m.parameters }

// IsVoid reports whether the method has no result.
func (m *MethodDefinition) IsVoid() bool { return m.returnType == nil }

// Equal compares name ordinally, declaring type, return type and parameters.
func (m *MethodDefinition) Equal(other *MethodDefinition) bool {
	if m == other {
		return true
	}
	if m == nil || other == nil {
		return false
	}
	return m.name == other.name &&
		m.declaringType.Equal(other.declaringType) &&
		m.returnType.Equal(other.returnType) &&
		equalParameters(m.parameters, other.parameters)
}

// String returns "Return Type.Name(params)".
func (m *MethodDefinition) String() string {
	ret := "void"
	if m.returnType != nil {
		ret = m.returnType.String()
	}
	return ret + " " + m.declaringType.String() + "." + m.name + "(" + parameterList(m.parameters) + ")"
}

// Key returns a canonical string that is equal exactly when Equal holds.
func (m *MethodDefinition) Key() string {
	var b strings.Builder
	b.WriteString("method|")
	b.WriteString(m.declaringType.Key())
	b.WriteString("|")
	b.WriteString(m.name)
	b.WriteString("|")
	b.WriteString(m.returnType.Key())
	for _, p := range m.parameters {
		b.WriteString("|")
		b.WriteString(p.key())
	}
	return b.String()
}

type methodJSON struct {
	Name          string                 `json:"name"`
	DeclaringType *TypeIdentity          `json:"declaring_type"`
	ReturnType    *TypeIdentity          `json:"return_type,omitempty"`
	Parameters    []*ParameterDefinition `json:"parameters,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (m *MethodDefinition) MarshalJSON() ([]byte, error) {
	return json.Marshal(methodJSON{
		Name:          m.name,
		DeclaringType: m.declaringType,
		ReturnType:    m.returnType,
		Parameters:    m.parameters,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *MethodDefinition) UnmarshalJSON(data []byte) error {
	var w methodJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Name == "" || w.DeclaringType == nil {
		return fmt.Errorf("%w: method requires name and declaring type", ErrInvalidPayload)
	}
	*m = MethodDefinition{
		name:          w.Name,
		declaringType: w.DeclaringType,
		returnType:    w.ReturnType,
		parameters:    w.Parameters,
	}
	return nil
}

// PropertyDefinition describes a property.
type PropertyDefinition struct {
	name          string
	declaringType *TypeIdentity
	propertyType  *TypeIdentity
}

// CreatePropertyDefinition builds the definition of p.
func CreatePropertyDefinition(p Property, gen IdentityGenerator) (*PropertyDefinition, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: property", ErrNilMember)
	}
	if gen == nil {
		return nil, ErrNilGenerator
	}
	if p.Name() == "" {
		return nil, fmt.Errorf("%w: property name", ErrEmptyName)
	}
	if p.DeclaringType() == nil || p.PropertyType() == nil {
		return nil, fmt.Errorf("property %s: %w", p.Name(), ErrNilType)
	}
	dt, err := gen(p.DeclaringType())
	if err != nil {
		return nil, fmt.Errorf("property %s: %w", p.Name(), err)
	}
	pt, err := gen(p.PropertyType())
	if err != nil {
		return nil, fmt.Errorf("property %s.%s: %w", dt, p.Name(), err)
	}
	return &PropertyDefinition{name: p.Name(), declaringType: dt, propertyType: pt}, nil
}

// Name returns the property name.
func (p *PropertyDefinition) Name() string { return p.name }

// DeclaringType returns the type that owns the property.
func (p *PropertyDefinition) DeclaringType() *TypeIdentity { return p.declaringType }

// PropertyType returns the property type identity.
func (p *PropertyDefinition) PropertyType() *TypeIdentity { return p.propertyType }

// Equal compares name ordinally, declaring type and property type.
func (p *PropertyDefinition) Equal(other *PropertyDefinition) bool {
	if p == other {
		return true
	}
	if p == nil || other == nil {
		return false
	}
	return p.name == other.name &&
		p.declaringType.Equal(other.declaringType) &&
		p.propertyType.Equal(other.propertyType)
}

// String returns "Type Declaring.Name".
func (p *PropertyDefinition) String() string {
	return p.propertyType.String() + " " + p.declaringType.String() + "." + p.name
}

// Key returns a canonical string that is equal exactly when Equal holds.
func (p *PropertyDefinition) Key() string {
	return "property|" + p.declaringType.Key() + "|" + p.name + "|" + p.propertyType.Key()
}

type propertyJSON struct {
	Name          string        `json:"name"`
	DeclaringType *TypeIdentity `json:"declaring_type"`
	PropertyType  *TypeIdentity `json:"property_type"`
}

// MarshalJSON implements json.Marshaler.
func (p *PropertyDefinition) MarshalJSON() ([]byte, error) {
	return json.Marshal(propertyJSON{Name: p.name, DeclaringType: p.declaringType, PropertyType: p.propertyType})
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *PropertyDefinition) UnmarshalJSON(data []byte) error {
	var w propertyJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Name == "" || w.DeclaringType == nil || w.PropertyType == nil {
		return fmt.Errorf("%w: property requires name, declaring type and property type", ErrInvalidPayload)
	}
	*p = PropertyDefinition{name: w.Name, declaringType: w.DeclaringType, propertyType: w.PropertyType}
	return nil
}
