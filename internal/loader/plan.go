package loader

import (
	"context"
	"fmt"

	"github.com/zjrosen/composer/internal/composition"
	"github.com/zjrosen/composer/internal/group"
	"github.com/zjrosen/composer/internal/log"
)

// Instance is one group to add, named for use by connections.
type Instance struct {
	Name  string
	Group *group.Definition
}

// PlannedConnection connects the import of the importing instance to the exporting instance.
type PlannedConnection struct {
	Importing string
	Import    *group.ImportDefinition
	Exporting string
}

// Plan is a validated sequence of composition commands.
type Plan struct {
	Instances   []Instance
	Connections []PlannedConnection
}

// Applied maps instance names to the ids the composition layer assigned.
type Applied map[string]composition.GroupCompositionID

func buildPlan(d ComposeDef, groups map[string]*group.Definition) (*Plan, error) {
	p := &Plan{}
	defs := make(map[string]*group.Definition, len(d.Instances))
	for _, inst := range d.Instances {
		if inst.Name == "" {
			return nil, fmt.Errorf("%w: instance without name", ErrInvalidManifest)
		}
		if _, dup := defs[inst.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate instance %q", ErrInvalidManifest, inst.Name)
		}
		def, ok := groups[inst.Group]
		if !ok {
			return nil, fmt.Errorf("%w: instance %q uses unknown group %q", ErrInvalidManifest, inst.Name, inst.Group)
		}
		defs[inst.Name] = def
		p.Instances = append(p.Instances, Instance{Name: inst.Name, Group: def})
	}

	for _, c := range d.Connections {
		importing, ok := defs[c.Importing]
		if !ok {
			return nil, fmt.Errorf("%w: connection from unknown instance %q", ErrInvalidManifest, c.Importing)
		}
		if _, ok := defs[c.Exporting]; !ok {
			return nil, fmt.Errorf("%w: connection to unknown instance %q", ErrInvalidManifest, c.Exporting)
		}
		imp, ok := importing.GroupImport(c.Import)
		if !ok {
			return nil, fmt.Errorf("%w: group %s has no import %q", ErrInvalidManifest, importing.ID(), c.Import)
		}
		p.Connections = append(p.Connections, PlannedConnection{Importing: c.Importing, Import: imp, Exporting: c.Exporting})
	}
	return p, nil
}

// Apply adds every instance and then makes every connection through cmds. It stops at the
// first failing command and returns the ids assigned so far.
func (p *Plan) Apply(ctx context.Context, cmds composition.Commands) (Applied, error) {
	applied := make(Applied, len(p.Instances))
	for _, inst := range p.Instances {
		id, err := cmds.Add(ctx, inst.Group)
		if err != nil {
			return applied, fmt.Errorf("add %s: %w", inst.Name, err)
		}
		applied[inst.Name] = id
		log.Debug(log.CatLoader, "instance added", "name", inst.Name, "group", inst.Group.ID(), "id", id)
	}
	for _, c := range p.Connections {
		if err := cmds.Connect(ctx, applied[c.Importing], c.Import, applied[c.Exporting]); err != nil {
			return applied, fmt.Errorf("connect %s/%s to %s: %w", c.Importing, c.Import.ContractName(), c.Exporting, err)
		}
	}
	log.Info(log.CatLoader, "plan applied", "instances", len(p.Instances), "connections", len(p.Connections))
	return applied, nil
}
