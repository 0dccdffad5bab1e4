// Package livetype provides in-memory implementations of the typesystem handle interfaces.
//
// A scanner (or a manifest loader) describes the plugin surface with these values; the
// typesystem factories then turn them into serializable definitions.
package livetype

import (
	"strconv"

	"github.com/zjrosen/composer/internal/typesystem"
)

// Assembly is a named compilation unit.
type Assembly struct {
	name           string
	version        string
	culture        string
	publicKeyToken string
}

// NewAssembly creates an assembly handle.
func NewAssembly(name, version string) *Assembly {
	return &Assembly{name: name, version: version}
}

// WithCulture sets the culture and returns the assembly.
func (a *Assembly) WithCulture(culture string) *Assembly {
	a.culture = culture
	return a
}

// WithPublicKeyToken sets the public key token and returns the assembly.
func (a *Assembly) WithPublicKeyToken(token string) *Assembly {
	a.publicKeyToken = token
	return a
}

func (a *Assembly) Name() string           { return a.name }
func (a *Assembly) Version() string        { return a.version }
func (a *Assembly) Culture() string        { return a.culture }
func (a *Assembly) PublicKeyToken() string { return a.publicKeyToken }

type kind int

const (
	kindClass kind = iota
	kindInterface
	kindGenericParameter
)

// Type is a mutable description of a type. Mutators return the receiver so that handles
// can be declared fluently; handles must not be mutated once handed to a pool.
type Type struct {
	name      string
	namespace string
	assembly  *Assembly
	kind      kind

	declaring  *Type
	definition *Type   // open generic this type was closed from
	params     []*Type // generic parameters of an open definition
	args       []*Type // arguments of a closed generic

	base         *Type
	interfaces   []*Type
	constructors []*Constructor
	properties   []*Property
	methods      []*Method
}

// Class creates a class handle.
func Class(asm *Assembly, namespace, name string) *Type {
	return &Type{name: name, namespace: namespace, assembly: asm, kind: kindClass}
}

// Interface creates an interface handle.
func Interface(asm *Assembly, namespace, name string) *Type {
	return &Type{name: name, namespace: namespace, assembly: asm, kind: kindInterface}
}

// GenericParameter creates a generic parameter handle such as T.
func GenericParameter(asm *Assembly, name string) *Type {
	return &Type{name: name, assembly: asm, kind: kindGenericParameter}
}

// GenericDefinition creates an open generic class or interface over the named parameters.
// The name gets the conventional arity suffix, e.g. "List`1".
func GenericDefinition(asm *Assembly, namespace, name string, iface bool, params ...string) *Type {
	k := kindClass
	if iface {
		k = kindInterface
	}
	t := &Type{name: arityName(name, len(params)), namespace: namespace, assembly: asm, kind: k}
	for _, p := range params {
		gp := GenericParameter(asm, p)
		gp.declaring = t
		t.params = append(t.params, gp)
	}
	return t
}

// Nested creates a class declared inside t.
func (t *Type) Nested(name string) *Type {
	return &Type{name: name, namespace: t.namespace, assembly: t.assembly, kind: kindClass, declaring: t}
}

// NestedInterface creates an interface declared inside t.
func (t *Type) NestedInterface(name string) *Type {
	n := t.Nested(name)
	n.kind = kindInterface
	return n
}

// MakeGeneric closes an open generic definition over args. Repeated calls return distinct
// handles that identify the same type.
func (t *Type) MakeGeneric(args ...*Type) *Type {
	return &Type{
		name:       t.name,
		namespace:  t.namespace,
		assembly:   t.assembly,
		kind:       t.kind,
		declaring:  t.declaring,
		definition: t,
		args:       args,
		base:       t.base,
		interfaces: t.interfaces,
	}
}

// Param returns the i-th generic parameter of an open definition.
func (t *Type) Param(i int) *Type {
	return t.params[i]
}

// WithBase sets the base type and returns t.
func (t *Type) WithBase(base *Type) *Type {
	t.base = base
	return t
}

// Implements appends interfaces and returns t.
func (t *Type) Implements(ifaces ...*Type) *Type {
	t.interfaces = append(t.interfaces, ifaces...)
	return t
}

// WithConstructor declares a constructor with the given parameters and returns t.
func (t *Type) WithConstructor(params ...*Parameter) *Type {
	t.constructors = append(t.constructors, &Constructor{declaring: t, params: positioned(params)})
	return t
}

// WithProperty declares a property and returns t.
func (t *Type) WithProperty(name string, typ *Type) *Type {
	t.properties = append(t.properties, &Property{name: name, declaring: t, typ: typ})
	return t
}

// WithMethod declares a method and returns t. A nil result declares a void method.
func (t *Type) WithMethod(name string, result *Type, params ...*Parameter) *Type {
	t.methods = append(t.methods, &Method{name: name, declaring: t, result: result, params: positioned(params)})
	return t
}

func (t *Type) Name() string      { return t.name }
func (t *Type) Namespace() string { return t.namespace }

func (t *Type) Assembly() typesystem.Assembly {
	if t.assembly == nil {
		return nil
	}
	return t.assembly
}

func (t *Type) IsGenericParameter() bool { return t.kind == kindGenericParameter }
func (t *Type) IsNested() bool           { return t.declaring != nil && t.kind != kindGenericParameter }
func (t *Type) IsGenericType() bool      { return len(t.params) > 0 || len(t.args) > 0 }
func (t *Type) IsClass() bool            { return t.kind == kindClass }
func (t *Type) IsInterface() bool        { return t.kind == kindInterface }

func (t *Type) ContainsGenericParameters() bool {
	if t.kind == kindGenericParameter || len(t.params) > 0 {
		return true
	}
	for _, a := range t.args {
		if a.ContainsGenericParameters() {
			return true
		}
	}
	return false
}

func (t *Type) DeclaringType() typesystem.Type {
	if t.declaring == nil {
		return nil
	}
	return t.declaring
}

func (t *Type) GenericArguments() []typesystem.Type {
	src := t.args
	if len(src) == 0 {
		src = t.params
	}
	return handles(src)
}

func (t *Type) GenericTypeDefinition() typesystem.Type {
	switch {
	case t.definition != nil:
		return t.definition
	case len(t.params) > 0:
		return t
	default:
		return nil
	}
}

func (t *Type) BaseType() typesystem.Type {
	if t.base == nil {
		return nil
	}
	return t.base
}

func (t *Type) Interfaces() []typesystem.Type {
	return handles(t.interfaces)
}

// Constructors returns the declared constructors.
func (t *Type) Constructors() []*Constructor { return t.generic().constructors }

// Properties returns the declared properties.
func (t *Type) Properties() []*Property { return t.generic().properties }

// Methods returns the declared methods.
func (t *Type) Methods() []*Method { return t.generic().methods }

// Property returns the named property, or nil.
func (t *Type) Property(name string) *Property {
	for _, p := range t.Properties() {
		if p.name == name {
			return p
		}
	}
	return nil
}

// Method returns the named method, or nil.
func (t *Type) Method(name string) *Method {
	for _, m := range t.Methods() {
		if m.name == name {
			return m
		}
	}
	return nil
}

func (t *Type) generic() *Type {
	if t.definition != nil {
		return t.definition
	}
	return t
}

// Parameter is a constructor or method parameter.
type Parameter struct {
	name     string
	position int
	typ      *Type
}

// Param creates a parameter. Its position is assigned by the member it is declared on.
func Param(name string, typ *Type) *Parameter {
	return &Parameter{name: name, typ: typ}
}

func (p *Parameter) Name() string  { return p.name }
func (p *Parameter) Position() int { return p.position }

func (p *Parameter) ParameterType() typesystem.Type {
	if p.typ == nil {
		return nil
	}
	return p.typ
}

// Constructor is a declared constructor.
type Constructor struct {
	declaring *Type
	params    []*Parameter
}

func (c *Constructor) DeclaringType() typesystem.Type { return c.declaring }

func (c *Constructor) Parameters() []typesystem.Parameter {
	out := make([]typesystem.Parameter, len(c.params))
	for i, p := range c.params {
		out[i] = p
	}
	return out
}

// Param returns the parameter at position i.
func (c *Constructor) Param(i int) *Parameter { return c.params[i] }

// Method is a declared method.
type Method struct {
	name      string
	declaring *Type
	result    *Type
	params    []*Parameter
}

func (m *Method) Name() string                   { return m.name }
func (m *Method) DeclaringType() typesystem.Type { return m.declaring }

func (m *Method) ReturnType() typesystem.Type {
	if m.result == nil {
		return nil
	}
	return m.result
}

func (m *Method) Parameters() []typesystem.Parameter {
	out := make([]typesystem.Parameter, len(m.params))
	for i, p := range m.params {
		out[i] = p
	}
	return out
}

// Property is a declared property.
type Property struct {
	name      string
	declaring *Type
	typ       *Type
}

func (p *Property) Name() string                   { return p.name }
func (p *Property) DeclaringType() typesystem.Type { return p.declaring }

func (p *Property) PropertyType() typesystem.Type {
	if p.typ == nil {
		return nil
	}
	return p.typ
}

func handles(ts []*Type) []typesystem.Type {
	if len(ts) == 0 {
		return nil
	}
	out := make([]typesystem.Type, len(ts))
	for i, t := range ts {
		out[i] = t
	}
	return out
}

func positioned(params []*Parameter) []*Parameter {
	out := make([]*Parameter, len(params))
	for i, p := range params {
		out[i] = &Parameter{name: p.name, position: i, typ: p.typ}
	}
	return out
}

func arityName(name string, n int) string {
	if n == 0 {
		return name
	}
	return name + "`" + strconv.Itoa(n)
}
