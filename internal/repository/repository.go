// Package repository stores scanned plugin metadata: type definitions and the
// composition surface of every discovered part type.
package repository

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/zjrosen/composer/internal/log"
	"github.com/zjrosen/composer/internal/part"
	"github.com/zjrosen/composer/internal/typesystem"
)

var (
	// ErrUnknownType is returned when no definition is stored for a type identity.
	ErrUnknownType = errors.New("unknown type")
	// ErrUnknownPluginType is returned when a type was never scanned as a part.
	ErrUnknownPluginType = part.ErrUnknownPluginType
)

// Reader is the read side of a metadata repository.
type Reader interface {
	TypeDefinition(id *typesystem.TypeIdentity) (*typesystem.TypeDefinition, error)
	Part(id *typesystem.TypeIdentity) (*part.Definition, error)
}

// Memory is an in-memory repository safe for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	types map[string]*typesystem.TypeDefinition
	parts map[string]*part.Definition
}

var _ Reader = (*Memory)(nil)

// NewMemory creates an empty repository.
func NewMemory() *Memory {
	return &Memory{
		types: make(map[string]*typesystem.TypeDefinition),
		parts: make(map[string]*part.Definition),
	}
}

// AddType stores def. Adding a type that is already known keeps the first definition.
func (m *Memory) AddType(def *typesystem.TypeDefinition) error {
	if def == nil {
		return typesystem.ErrNilType
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addType(def)
	return nil
}

func (m *Memory) addType(def *typesystem.TypeDefinition) bool {
	key := def.Identity().Key()
	if _, ok := m.types[key]; ok {
		return false
	}
	m.types[key] = def
	return true
}

// AddTypeTree stores the definition of t together with every base type and
// interface reachable from it. Definitions are built through pool so that
// identities are shared.
func (m *Memory) AddTypeTree(pool *typesystem.IdentityPool, t typesystem.Type) (*typesystem.TypeDefinition, error) {
	if t == nil {
		return nil, typesystem.ErrNilType
	}
	root, err := pool.Definition(t)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	added := 0
	seen := make(map[typesystem.Type]bool)
	var walk func(typesystem.Type) error
	walk = func(cur typesystem.Type) error {
		if cur == nil || seen[cur] {
			return nil
		}
		seen[cur] = true
		def, err := pool.Definition(cur)
		if err != nil {
			return fmt.Errorf("definition of %s.%s: %w", cur.Namespace(), cur.Name(), err)
		}
		if m.addType(def) {
			added++
		}
		if cur.IsGenericParameter() {
			return nil
		}
		if err := walk(cur.BaseType()); err != nil {
			return err
		}
		for _, iface := range cur.Interfaces() {
			if err := walk(iface); err != nil {
				return err
			}
		}
		return walk(cur.GenericTypeDefinition())
	}
	if err := walk(t); err != nil {
		return nil, err
	}
	log.Debug(log.CatRepo, "added type tree", "type", root.Identity(), "new", added)
	return root, nil
}

// AddPart stores the composition surface of a part type, replacing any previous one.
func (m *Memory) AddPart(def *part.Definition) error {
	if def == nil {
		return typesystem.ErrNilType
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.parts[def.Identity().Key()] = def
	return nil
}

// TypeDefinition returns the stored definition of id.
func (m *Memory) TypeDefinition(id *typesystem.TypeIdentity) (*typesystem.TypeDefinition, error) {
	if id == nil {
		return nil, typesystem.ErrNilType
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if def, ok := m.types[id.Key()]; ok {
		return def, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownType, id)
}

// Part returns the part definition of id.
func (m *Memory) Part(id *typesystem.TypeIdentity) (*part.Definition, error) {
	if id == nil {
		return nil, typesystem.ErrNilType
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if def, ok := m.parts[id.Key()]; ok {
		return def, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownPluginType, id)
}

// Types returns every stored type definition ordered by display name.
func (m *Memory) Types() []*typesystem.TypeDefinition {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.SortedFunc(maps.Values(m.types), func(a, b *typesystem.TypeDefinition) int {
		return cmp.Compare(a.Identity().String(), b.Identity().String())
	})
}

// Parts returns every stored part definition ordered by display name.
func (m *Memory) Parts() []*part.Definition {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.SortedFunc(maps.Values(m.parts), func(a, b *part.Definition) int {
		return cmp.Compare(a.Identity().String(), b.Identity().String())
	})
}

// IsSubtypeOf reports whether child equals parent or derives from or implements it.
func (m *Memory) IsSubtypeOf(child, parent *typesystem.TypeIdentity) bool {
	return IsSubtypeOf(m, child, parent)
}

// IsSubtypeOf walks the base types and interfaces recorded in r. Types missing
// from r end the walk along that branch.
func IsSubtypeOf(r Reader, child, parent *typesystem.TypeIdentity) bool {
	if child == nil || parent == nil {
		return false
	}
	seen := make(map[string]bool)
	queue := []*typesystem.TypeIdentity{child}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.Equal(parent) {
			return true
		}
		key := cur.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		def, err := r.TypeDefinition(cur)
		if err != nil {
			continue
		}
		if base := def.BaseType(); base != nil {
			queue = append(queue, base)
		}
		queue = append(queue, def.Interfaces()...)
	}
	return false
}
