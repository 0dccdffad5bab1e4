package typesystem

// Assembly is a live handle to the unit a type was compiled into.
type Assembly interface {
	Name() string
	Version() string
	Culture() string
	PublicKeyToken() string
}

// Type is a live handle to a type as reported by a scanner.
//
// Implementations must be comparable (typically pointer types) because IdentityPool uses
// handles as map keys. Methods returning a Type return an untyped nil when absent.
type Type interface {
	Name() string
	Namespace() string
	Assembly() Assembly

	IsGenericParameter() bool
	IsNested() bool
	IsGenericType() bool
	// ContainsGenericParameters reports whether the type is an open generic.
	ContainsGenericParameters() bool

	DeclaringType() Type
	GenericArguments() []Type
	GenericTypeDefinition() Type

	BaseType() Type
	Interfaces() []Type
	IsClass() bool
	IsInterface() bool
}

// Parameter is a live handle to a constructor or method parameter.
type Parameter interface {
	Name() string
	Position() int
	ParameterType() Type
}

// Constructor is a live handle to a constructor.
type Constructor interface {
	DeclaringType() Type
	Parameters() []Parameter
}

// Method is a live handle to a method. ReturnType is nil for methods without a result.
type Method interface {
	Name() string
	DeclaringType() Type
	ReturnType() Type
	Parameters() []Parameter
}

// Property is a live handle to a property.
type Property interface {
	Name() string
	DeclaringType() Type
	PropertyType() Type
}

// IdentityGenerator produces the identity of a live type. Factories call it for every nested
// type they encounter so that a caller-supplied pool can memoize identities.
type IdentityGenerator func(Type) (*TypeIdentity, error)
