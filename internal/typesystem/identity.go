package typesystem

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TypeIdentity identifies a type by name, namespace, assembly and type arguments.
// Identities are immutable once built.
type TypeIdentity struct {
	name      string
	namespace string
	assembly  *AssemblyDefinition

	isGenericParameter bool
	isNested           bool
	isGenericType      bool
	isOpenGeneric      bool

	declaringType *TypeIdentity   // nested types only
	typeArguments []*TypeIdentity // generic types only
}

// CreateIdentity builds the identity of t. Nested identities are requested from gen.
func CreateIdentity(t Type, gen IdentityGenerator) (*TypeIdentity, error) {
	if t == nil {
		return nil, ErrNilType
	}
	if gen == nil {
		return nil, ErrNilGenerator
	}
	id := &TypeIdentity{}
	if err := fillIdentity(id, t, gen); err != nil {
		return nil, err
	}
	return id, nil
}

// fillIdentity populates id in place so that a pool can hand out the pointer before the
// nested identities are resolved.
func fillIdentity(id *TypeIdentity, t Type, gen IdentityGenerator) error {
	if t.Name() == "" {
		return fmt.Errorf("%w: type name", ErrEmptyName)
	}
	asm, err := CreateAssemblyDefinition(t.Assembly())
	if err != nil {
		return fmt.Errorf("type %s: %w", t.Name(), err)
	}
	id.name = t.Name()
	id.namespace = t.Namespace()
	id.assembly = asm

	// Generic parameters stop here. Expanding the declaring type of T in IComparable<T>
	// would request IComparable<T> again.
	if t.IsGenericParameter() {
		id.isGenericParameter = true
		return nil
	}

	if t.IsNested() {
		id.isNested = true
		if dt := t.DeclaringType(); dt != nil {
			did, err := gen(dt)
			if err != nil {
				return fmt.Errorf("declaring type of %s: %w", t.Name(), err)
			}
			id.declaringType = did
		}
	}

	if t.IsGenericType() {
		id.isGenericType = true
		id.isOpenGeneric = t.ContainsGenericParameters()
		args := t.GenericArguments()
		id.typeArguments = make([]*TypeIdentity, 0, len(args))
		for i, arg := range args {
			aid, err := gen(arg)
			if err != nil {
				return fmt.Errorf("type argument %d of %s: %w", i, t.Name(), err)
			}
			id.typeArguments = append(id.typeArguments, aid)
		}
	}
	return nil
}

// Name returns the simple type name.
func (id *TypeIdentity) Name() string {
	return id.name
}

// Namespace returns the namespace, or "" for the global namespace.
func (id *TypeIdentity) Namespace() string {
	return id.namespace
}

// Assembly returns the owning assembly.
func (id *TypeIdentity) Assembly() *AssemblyDefinition {
	return id.assembly
}

// IsGenericParameter reports whether the identity names a generic parameter such as T.
func (id *TypeIdentity) IsGenericParameter() bool {
	return id.isGenericParameter
}

// IsNested reports whether the type is declared inside another type.
func (id *TypeIdentity) IsNested() bool {
	return id.isNested
}

// IsGenericType reports whether the type has type arguments.
func (id *TypeIdentity) IsGenericType() bool {
	return id.isGenericType
}

// IsOpenGeneric reports whether any type argument is still a generic parameter.
func (id *TypeIdentity) IsOpenGeneric() bool {
	return id.isOpenGeneric
}

// DeclaringType returns the enclosing type of a nested type, or nil.
func (id *TypeIdentity) DeclaringType() *TypeIdentity {
	return id.declaringType
}

// TypeArguments returns the ordered type arguments. Callers must not modify the slice.
func (id *TypeIdentity) TypeArguments() []*TypeIdentity {
	return id.typeArguments
}

// String returns the full name, e.g. "System.Collections.Generic.List`1[System.Int32]".
func (id *TypeIdentity) String() string {
	if id == nil {
		return "<nil>"
	}
	if id.isGenericParameter {
		return id.name
	}
	var b strings.Builder
	if id.declaringType != nil {
		b.WriteString(id.declaringType.String())
		b.WriteString("+")
	} else if id.namespace != "" {
		b.WriteString(id.namespace)
		b.WriteString(".")
	}
	b.WriteString(id.name)
	if len(id.typeArguments) > 0 {
		b.WriteString("[")
		for i, arg := range id.typeArguments {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(arg.String())
		}
		b.WriteString("]")
	}
	return b.String()
}

// AssemblyQualifiedName returns String followed by the assembly full name.
func (id *TypeIdentity) AssemblyQualifiedName() string {
	return id.String() + ", " + id.assembly.FullName()
}

// Key returns a canonical form that is equal for two identities exactly when Equal holds.
func (id *TypeIdentity) Key() string {
	if id == nil {
		return ""
	}
	var b strings.Builder
	id.writeKey(&b)
	return b.String()
}

func (id *TypeIdentity) writeKey(b *strings.Builder) {
	b.WriteString(Fold(id.name))
	b.WriteString("|")
	b.WriteString(id.namespace)
	b.WriteString("|")
	b.WriteString(id.assembly.key())
	if id.declaringType != nil {
		b.WriteString("|<")
		id.declaringType.writeKey(b)
		b.WriteString(">")
	}
	if len(id.typeArguments) > 0 {
		b.WriteString("|[")
		for i, arg := range id.typeArguments {
			if i > 0 {
				b.WriteString(";")
			}
			arg.writeKey(b)
		}
		b.WriteString("]")
	}
}

// Equal compares name (case-insensitive), namespace, assembly, declaring type and type
// arguments.
func (id *TypeIdentity) Equal(other *TypeIdentity) bool {
	if id == other {
		return true
	}
	if id == nil || other == nil {
		return false
	}
	if !EqualFold(id.name, other.name) || id.namespace != other.namespace {
		return false
	}
	if !id.assembly.Equal(other.assembly) {
		return false
	}
	if !id.declaringType.Equal(other.declaringType) {
		return false
	}
	if len(id.typeArguments) != len(other.typeArguments) {
		return false
	}
	for i := range id.typeArguments {
		if !id.typeArguments[i].Equal(other.typeArguments[i]) {
			return false
		}
	}
	return true
}

// EqualType compares the identity against a live type handle using the same rules as Equal.
func (id *TypeIdentity) EqualType(t Type) bool {
	if id == nil || t == nil {
		return id == nil && t == nil
	}
	if !EqualFold(id.name, t.Name()) || id.namespace != t.Namespace() {
		return false
	}
	if !id.assembly.EqualAssembly(t.Assembly()) {
		return false
	}
	if t.IsGenericParameter() {
		return id.declaringType == nil && len(id.typeArguments) == 0
	}

	var declaring Type
	if t.IsNested() {
		declaring = t.DeclaringType()
	}
	if !id.declaringType.EqualType(declaring) {
		return false
	}

	var args []Type
	if t.IsGenericType() {
		args = t.GenericArguments()
	}
	if len(id.typeArguments) != len(args) {
		return false
	}
	for i := range args {
		if !id.typeArguments[i].EqualType(args[i]) {
			return false
		}
	}
	return true
}

// SameType reports whether a live handle and an identity name the same type.
func SameType(t Type, id *TypeIdentity) bool {
	return id.EqualType(t)
}

type identityJSON struct {
	Name               string              `json:"name"`
	Namespace          string              `json:"namespace,omitempty"`
	Assembly           *AssemblyDefinition `json:"assembly"`
	IsGenericParameter bool                `json:"is_generic_parameter,omitempty"`
	IsNested           bool                `json:"is_nested,omitempty"`
	IsGenericType      bool                `json:"is_generic_type,omitempty"`
	IsOpenGeneric      bool                `json:"is_open_generic,omitempty"`
	DeclaringType      *TypeIdentity       `json:"declaring_type,omitempty"`
	TypeArguments      []*TypeIdentity     `json:"type_arguments,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (id *TypeIdentity) MarshalJSON() ([]byte, error) {
	return json.Marshal(identityJSON{
		Name:               id.name,
		Namespace:          id.namespace,
		Assembly:           id.assembly,
		IsGenericParameter: id.isGenericParameter,
		IsNested:           id.isNested,
		IsGenericType:      id.isGenericType,
		IsOpenGeneric:      id.isOpenGeneric,
		DeclaringType:      id.declaringType,
		TypeArguments:      id.typeArguments,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *TypeIdentity) UnmarshalJSON(data []byte) error {
	var w identityJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Name == "" || w.Assembly == nil {
		return fmt.Errorf("%w: type identity requires name and assembly", ErrInvalidPayload)
	}
	*id = TypeIdentity{
		name:               w.Name,
		namespace:          w.Namespace,
		assembly:           w.Assembly,
		isGenericParameter: w.IsGenericParameter,
		isNested:           w.IsNested,
		isGenericType:      w.IsGenericType,
		isOpenGeneric:      w.IsOpenGeneric,
		declaringType:      w.DeclaringType,
		typeArguments:      w.TypeArguments,
	}
	return nil
}
