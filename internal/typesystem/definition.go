package typesystem

import (
	"encoding/json"
	"fmt"
)

// TypeDefinition adds inheritance information to a TypeIdentity.
type TypeDefinition struct {
	identity              *TypeIdentity
	baseType              *TypeIdentity   // nil for interfaces, generic parameters and roots
	interfaces            []*TypeIdentity // ordered, without duplicates
	genericTypeDefinition *TypeIdentity   // nil unless a closed or partially closed generic
	isClass               bool
	isInterface           bool
}

// CreateTypeDefinition builds the definition of t, requesting every referenced identity
// from gen.
func CreateTypeDefinition(t Type, gen IdentityGenerator) (*TypeDefinition, error) {
	if t == nil {
		return nil, ErrNilType
	}
	if gen == nil {
		return nil, ErrNilGenerator
	}

	id, err := gen(t)
	if err != nil {
		return nil, err
	}
	def := &TypeDefinition{
		identity:    id,
		isClass:     t.IsClass(),
		isInterface: t.IsInterface(),
	}

	// A generic parameter carries no inheritance of its own.
	if t.IsGenericParameter() {
		return def, nil
	}

	if bt := t.BaseType(); bt != nil {
		bid, err := gen(bt)
		if err != nil {
			return nil, fmt.Errorf("base type of %s: %w", id, err)
		}
		def.baseType = bid
	}

	seen := make(map[string]bool)
	for _, it := range t.Interfaces() {
		iid, err := gen(it)
		if err != nil {
			return nil, fmt.Errorf("interface of %s: %w", id, err)
		}
		k := iid.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		def.interfaces = append(def.interfaces, iid)
	}

	if t.IsGenericType() {
		if gtd := t.GenericTypeDefinition(); gtd != nil {
			gid, err := gen(gtd)
			if err != nil {
				return nil, fmt.Errorf("generic definition of %s: %w", id, err)
			}
			// An open generic is its own definition; keep the field for closed forms only.
			if !gid.Equal(id) {
				def.genericTypeDefinition = gid
			}
		}
	}

	return def, nil
}

// Identity returns the identity of the defined type.
func (d *TypeDefinition) Identity() *TypeIdentity {
	return d.identity
}

// BaseType returns the base type identity, or nil.
func (d *TypeDefinition) BaseType() *TypeIdentity {
	return d.baseType
}

// Interfaces returns the implemented interfaces in declaration order.
func (d *TypeDefinition) Interfaces() []*TypeIdentity {
	return d.interfaces
}

// GenericTypeDefinition returns the open generic this type was closed from, or nil.
func (d *TypeDefinition) GenericTypeDefinition() *TypeIdentity {
	return d.genericTypeDefinition
}

// IsClass reports whether the type is a class.
func (d *TypeDefinition) IsClass() bool {
	return d.isClass
}

// IsInterface reports whether the type is an interface.
func (d *TypeDefinition) IsInterface() bool {
	return d.isInterface
}

// Implements reports whether iface is listed among the direct interfaces.
func (d *TypeDefinition) Implements(iface *TypeIdentity) bool {
	for _, it := range d.interfaces {
		if it.Equal(iface) {
			return true
		}
	}
	return false
}

// Equal compares identities only.
func (d *TypeDefinition) Equal(other *TypeDefinition) bool {
	if d == other {
		return true
	}
	if d == nil || other == nil {
		return false
	}
	return d.identity.Equal(other.identity)
}

// String returns the identity full name.
func (d *TypeDefinition) String() string {
	return d.identity.String()
}

type definitionJSON struct {
	Identity              *TypeIdentity   `json:"identity"`
	BaseType              *TypeIdentity   `json:"base_type,omitempty"`
	Interfaces            []*TypeIdentity `json:"interfaces,omitempty"`
	GenericTypeDefinition *TypeIdentity   `json:"generic_type_definition,omitempty"`
	IsClass               bool            `json:"is_class,omitempty"`
	IsInterface           bool            `json:"is_interface,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (d *TypeDefinition) MarshalJSON() ([]byte, error) {
	return json.Marshal(definitionJSON{
		Identity:              d.identity,
		BaseType:              d.baseType,
		Interfaces:            d.interfaces,
		GenericTypeDefinition: d.genericTypeDefinition,
		IsClass:               d.isClass,
		IsInterface:           d.isInterface,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *TypeDefinition) UnmarshalJSON(data []byte) error {
	var w definitionJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Identity == nil {
		return fmt.Errorf("%w: type definition without identity", ErrInvalidPayload)
	}
	*d = TypeDefinition{
		identity:              w.Identity,
		baseType:              w.BaseType,
		interfaces:            w.Interfaces,
		genericTypeDefinition: w.GenericTypeDefinition,
		isClass:               w.IsClass,
		isInterface:           w.IsInterface,
	}
	return nil
}
