// Package typesystem describes types and their members as plain, serializable data.
//
// A live type handle (Type, Constructor, Property, Method, Parameter, Assembly) is whatever an
// external scanner hands over while a plugin is being inspected. The definitions built from
// those handles (TypeIdentity, TypeDefinition, ConstructorDefinition, ...) hold no reference to
// the handle afterwards, so they can be persisted, transmitted and compared in a process that
// never loaded the plugin.
//
// # Identity generation
//
// Identities are produced by an IdentityGenerator passed explicitly to every factory. Nested
// identities (declaring types, type arguments, parameter types) are produced by the same
// generator, which lets an IdentityPool memoize them:
//
//	pool := typesystem.NewIdentityPool()
//	def, err := typesystem.CreateTypeDefinition(t, pool.Identity)
//
// Generic parameters are classified before anything else and never expand their declaring
// type, so self-referential generics such as IComparable<T> terminate.
//
// # Equality
//
// Every definition compares structurally with an Equal method. TypeIdentity also compares
// against a live handle with EqualType, and Key returns a canonical string that is equal for
// equal identities and is safe to use as a map key.
package typesystem
