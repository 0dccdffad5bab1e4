package loader

import (
	"fmt"

	"github.com/zjrosen/composer/internal/group"
	"github.com/zjrosen/composer/internal/log"
	"github.com/zjrosen/composer/internal/repository"
	"github.com/zjrosen/composer/internal/typesystem"
)

// Catalog is everything a manifest describes.
type Catalog struct {
	Repo *repository.Memory
	// Types maps full names to identities, builtins included.
	Types  map[string]*typesystem.TypeIdentity
	Groups []*group.Definition
	Plan   *Plan
}

// Group returns the group definition with the given name.
func (c *Catalog) Group(name string) (*group.Definition, bool) {
	for _, g := range c.Groups {
		if g.ID().Name() == name {
			return g, true
		}
	}
	return nil, false
}

// Load scans m into a repository, builds its groups and validates its plan.
func Load(m *Manifest) (*Catalog, error) {
	ts := newTypes()
	if err := ts.declare(m.Assemblies, m.Types); err != nil {
		return nil, err
	}

	pool := typesystem.NewIdentityPool()
	c := &Catalog{
		Repo:  repository.NewMemory(),
		Types: make(map[string]*typesystem.TypeIdentity, len(ts.byName)),
	}
	for _, t := range ts.all() {
		def, err := c.Repo.AddTypeTree(pool, t)
		if err != nil {
			return nil, fmt.Errorf("scan %s.%s: %w", t.Namespace(), t.Name(), err)
		}
		c.Types[qualified(t.Namespace(), t.Name())] = def.Identity()
	}

	seen := make(map[string]bool, len(m.Parts))
	for _, pd := range m.Parts {
		if seen[pd.Type] {
			return nil, fmt.Errorf("%w: duplicate part for %q", ErrInvalidManifest, pd.Type)
		}
		seen[pd.Type] = true
		t, err := ts.resolve(pd.Type)
		if err != nil {
			return nil, fmt.Errorf("part: %w", err)
		}
		def, err := buildPart(t, c.Types[pd.Type], pd, pool.Generator())
		if err != nil {
			return nil, fmt.Errorf("part %s: %w", pd.Type, err)
		}
		if err := c.Repo.AddPart(def); err != nil {
			return nil, err
		}
	}

	byName := make(map[string]*group.Definition, len(m.Groups))
	for _, gd := range m.Groups {
		if _, dup := byName[gd.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate group %q", ErrInvalidManifest, gd.Name)
		}
		def, err := buildGroup(c.Repo, c.Types, gd)
		if err != nil {
			return nil, fmt.Errorf("group %q: %w", gd.Name, err)
		}
		byName[gd.Name] = def
		c.Groups = append(c.Groups, def)
	}

	plan, err := buildPlan(m.Compose, byName)
	if err != nil {
		return nil, fmt.Errorf("compose: %w", err)
	}
	c.Plan = plan

	log.Info(log.CatLoader, "manifest loaded",
		"types", len(ts.declared), "parts", len(m.Parts), "groups", len(c.Groups), "instances", len(plan.Instances))
	return c, nil
}

// LoadFile reads, parses and loads the manifest at path.
func LoadFile(path string) (*Catalog, error) {
	m, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Load(m)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func qualified(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "." + name
}
