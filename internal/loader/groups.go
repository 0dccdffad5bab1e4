package loader

import (
	"fmt"
	"strings"

	"github.com/zjrosen/composer/internal/group"
	"github.com/zjrosen/composer/internal/part"
	"github.com/zjrosen/composer/internal/schedule"
	"github.com/zjrosen/composer/internal/typesystem"
)

const (
	startVertex = "start"
	endVertex   = "end"
)

// groupBuilder resolves "alias.contract" references against the parts of one group.
type groupBuilder struct {
	b        *group.Builder
	parts    map[string]*group.PartBuilder
	vertices map[string]schedule.ElementID
}

func buildGroup(source group.PartSource, ids map[string]*typesystem.TypeIdentity, d GroupDef) (*group.Definition, error) {
	gb := &groupBuilder{
		b:     group.NewBuilder(source),
		parts: make(map[string]*group.PartBuilder, len(d.Parts)),
	}

	for _, p := range d.Parts {
		if p.Alias == "" || strings.Contains(p.Alias, ".") {
			return nil, fmt.Errorf("%w: part alias %q must be non-empty and contain no dot", ErrInvalidManifest, p.Alias)
		}
		if _, dup := gb.parts[p.Alias]; dup {
			return nil, fmt.Errorf("%w: duplicate part alias %q", ErrInvalidManifest, p.Alias)
		}
		id, ok := ids[p.Type]
		if !ok {
			return nil, fmt.Errorf("%w: part %s has unknown type %q", ErrInvalidManifest, p.Alias, p.Type)
		}
		pb, err := gb.b.RegisterObject(id)
		if err != nil {
			return nil, fmt.Errorf("part %s: %w", p.Alias, err)
		}
		gb.parts[p.Alias] = pb
	}

	for _, w := range d.Wiring {
		imp, err := gb.importRef(w.Import)
		if err != nil {
			return nil, err
		}
		for _, ref := range w.Exports {
			exp, err := gb.exportRef(ref)
			if err != nil {
				return nil, err
			}
			gb.b.Connect(imp, exp)
		}
	}

	if d.Export != nil {
		var provided []part.ExportRegistrationID
		for _, ref := range d.Export.Provides {
			exp, err := gb.exportRef(ref)
			if err != nil {
				return nil, err
			}
			provided = append(provided, exp)
		}
		if err := gb.b.DefineExport(d.Export.Contract, provided...); err != nil {
			return nil, err
		}
	}

	if d.Schedule != nil {
		s, err := gb.schedule(d.Schedule)
		if err != nil {
			return nil, fmt.Errorf("schedule: %w", err)
		}
		gb.b.SetSchedule(s)
	}

	for _, imp := range d.Imports {
		var ip schedule.ElementID
		if imp.InsertPoint != "" {
			v, ok := gb.vertices[imp.InsertPoint]
			if !ok {
				return nil, fmt.Errorf("%w: import %q names unknown vertex %q", ErrInvalidManifest, imp.Contract, imp.InsertPoint)
			}
			ip = v
		}
		var matches []part.ImportRegistrationID
		for _, ref := range imp.Matches {
			id, err := gb.importRef(ref)
			if err != nil {
				return nil, err
			}
			matches = append(matches, id)
		}
		if err := gb.b.DefineImport(imp.Contract, ip, matches...); err != nil {
			return nil, err
		}
	}

	return gb.b.Register(d.Name)
}

func (gb *groupBuilder) schedule(d *ScheduleDef) (*schedule.Definition, error) {
	sb := schedule.NewBuilder()
	gb.vertices = map[string]schedule.ElementID{startVertex: sb.Start(), endVertex: sb.End()}

	for _, v := range d.Vertices {
		if v.Name == "" {
			return nil, fmt.Errorf("%w: vertex without name", ErrInvalidManifest)
		}
		if _, dup := gb.vertices[v.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate vertex %q", ErrInvalidManifest, v.Name)
		}
		if v.Action == "" {
			maxInserts := v.MaxInserts
			if maxInserts == 0 {
				maxInserts = schedule.Unlimited
			}
			gb.vertices[v.Name] = sb.AddInsertPoint(maxInserts)
			continue
		}
		pb, contractName, err := gb.member(v.Action)
		if err != nil {
			return nil, err
		}
		action, err := pb.RegisterScheduleAction(contractName)
		if err != nil {
			return nil, err
		}
		gb.vertices[v.Name] = sb.AddExecutingAction(action)
	}

	for _, e := range d.Edges {
		from, ok := gb.vertices[e.From]
		if !ok {
			return nil, fmt.Errorf("%w: edge from unknown vertex %q", ErrInvalidManifest, e.From)
		}
		to, ok := gb.vertices[e.To]
		if !ok {
			return nil, fmt.Errorf("%w: edge to unknown vertex %q", ErrInvalidManifest, e.To)
		}
		if e.When == "" {
			sb.LinkTo(from, to)
			continue
		}
		pb, contractName, err := gb.member(e.When)
		if err != nil {
			return nil, err
		}
		cond, err := pb.RegisterScheduleCondition(contractName)
		if err != nil {
			return nil, err
		}
		sb.LinkToWhen(from, to, cond)
	}
	return sb.Build()
}

func (gb *groupBuilder) member(ref string) (*group.PartBuilder, string, error) {
	alias, contractName, ok := strings.Cut(ref, ".")
	if !ok || alias == "" || contractName == "" {
		return nil, "", fmt.Errorf("%w: member reference %q is not alias.contract", ErrInvalidManifest, ref)
	}
	pb, ok := gb.parts[alias]
	if !ok {
		return nil, "", fmt.Errorf("%w: member reference %q names unknown part %q", ErrInvalidManifest, ref, alias)
	}
	return pb, contractName, nil
}

func (gb *groupBuilder) importRef(ref string) (part.ImportRegistrationID, error) {
	pb, contractName, err := gb.member(ref)
	if err != nil {
		return part.ImportRegistrationID{}, err
	}
	return pb.RegisterImport(contractName)
}

func (gb *groupBuilder) exportRef(ref string) (part.ExportRegistrationID, error) {
	pb, contractName, err := gb.member(ref)
	if err != nil {
		return part.ExportRegistrationID{}, err
	}
	return pb.RegisterExport(contractName)
}
