package typesystem

import "sync"

// IdentityPool memoizes identities and definitions per live type handle.
//
// An identity is registered before its nested identities are resolved, so a type that
// reaches itself through its declaring type or type arguments receives the pointer that is
// still being filled instead of recursing forever.
type IdentityPool struct {
	mu          sync.Mutex
	identities  map[Type]*TypeIdentity
	definitions map[Type]*TypeDefinition
}

// NewIdentityPool creates an empty pool.
func NewIdentityPool() *IdentityPool {
	return &IdentityPool{
		identities:  make(map[Type]*TypeIdentity),
		definitions: make(map[Type]*TypeDefinition),
	}
}

// Identity returns the memoized identity of t, building it on first use.
// It has the IdentityGenerator signature.
func (p *IdentityPool) Identity(t Type) (*TypeIdentity, error) {
	if t == nil {
		return nil, ErrNilType
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.identity(t)
}

// identity must be called with p.mu held.
func (p *IdentityPool) identity(t Type) (*TypeIdentity, error) {
	if t == nil {
		return nil, ErrNilType
	}
	if id, ok := p.identities[t]; ok {
		return id, nil
	}
	id := &TypeIdentity{}
	p.identities[t] = id
	if err := fillIdentity(id, t, p.identity); err != nil {
		delete(p.identities, t)
		return nil, err
	}
	return id, nil
}

// Definition returns the memoized definition of t. Base types and interfaces referenced by
// the definition share identities with the rest of the pool.
func (p *IdentityPool) Definition(t Type) (*TypeDefinition, error) {
	if t == nil {
		return nil, ErrNilType
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if def, ok := p.definitions[t]; ok {
		return def, nil
	}
	def, err := CreateTypeDefinition(t, p.identity)
	if err != nil {
		return nil, err
	}
	p.definitions[t] = def
	return def, nil
}

// Generator returns the pool as an IdentityGenerator for the Create* factories.
func (p *IdentityPool) Generator() IdentityGenerator {
	return p.Identity
}

// Len returns the number of memoized identities.
func (p *IdentityPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.identities)
}
