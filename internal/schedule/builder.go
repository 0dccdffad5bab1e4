package schedule

import (
	"errors"
	"fmt"

	"github.com/zjrosen/composer/internal/part"
)

// Validation errors returned by Builder.Build()
var (
	ErrUnknownVertex       = errors.New("unknown vertex")
	ErrDuplicateEdge       = errors.New("duplicate edge")
	ErrSelfLoop            = errors.New("edge links a vertex to itself")
	ErrCycleDetected       = errors.New("cycle detected in schedule")
	ErrUnreachableVertex   = errors.New("vertex not reachable from start")
	ErrDeadEnd             = errors.New("vertex has no outbound edge")
	ErrInvalidStartEnd     = errors.New("invalid start or end vertex")
	ErrInvalidCapacity     = errors.New("insert capacity must be positive or unlimited")
	ErrInvalidSubSchedule  = errors.New("sub-schedule id cannot be zero")
	ErrInvalidScheduleData = errors.New("invalid schedule data")
)

// Builder provides a fluent API for constructing schedule graphs. Errors are collected and
// reported by Build.
type Builder struct {
	id         ID
	start      *Vertex
	end        *Vertex
	vertices   []*Vertex
	byID       map[ElementID]*Vertex
	edges      []Edge
	actions    map[ElementID]part.ScheduleActionRegistrationID
	conditions map[ElementID]part.ScheduleConditionRegistrationID
	errs       []error
}

// NewBuilder creates a builder with a fresh start and end vertex.
func NewBuilder() *Builder {
	b := &Builder{
		id:         NewID(),
		byID:       make(map[ElementID]*Vertex),
		actions:    make(map[ElementID]part.ScheduleActionRegistrationID),
		conditions: make(map[ElementID]part.ScheduleConditionRegistrationID),
	}
	b.start = b.add(&Vertex{id: NewElementID(), kind: StartVertex})
	b.end = b.add(&Vertex{id: NewElementID(), kind: EndVertex})
	return b
}

func (b *Builder) add(v *Vertex) *Vertex {
	b.vertices = append(b.vertices, v)
	b.byID[v.id] = v
	return v
}

// Start returns the start vertex id.
func (b *Builder) Start() ElementID { return b.start.id }

// End returns the end vertex id.
func (b *Builder) End() ElementID { return b.end.id }

// AddExecutingAction adds a vertex that runs the given part action.
func (b *Builder) AddExecutingAction(action part.ScheduleActionRegistrationID) ElementID {
	v := b.add(&Vertex{id: NewElementID(), kind: ActionVertex})
	if action.IsZero() {
		b.errs = append(b.errs, fmt.Errorf("action vertex %s: %w", v.id, part.ErrInvalidRegistrationID))
	}
	b.actions[v.id] = action
	return v.id
}

// AddInsertPoint adds a vertex where imported schedules may be spliced in. maxInserts is a
// positive bound or Unlimited.
func (b *Builder) AddInsertPoint(maxInserts int) ElementID {
	v := b.add(&Vertex{id: NewElementID(), kind: InsertVertex, maxInserts: maxInserts})
	if maxInserts == 0 || maxInserts < Unlimited {
		b.errs = append(b.errs, fmt.Errorf("%w: %s has %d", ErrInvalidCapacity, v.id, maxInserts))
	}
	return v.id
}

// AddSubSchedule adds a vertex that runs another schedule.
func (b *Builder) AddSubSchedule(id ID) ElementID {
	v := b.add(&Vertex{id: NewElementID(), kind: SubScheduleVertex, subSchedule: id})
	if id.IsZero() {
		b.errs = append(b.errs, fmt.Errorf("%w: vertex %s", ErrInvalidSubSchedule, v.id))
	}
	return v.id
}

// LinkTo adds an unconditional edge.
func (b *Builder) LinkTo(from, to ElementID) *Builder {
	b.edges = append(b.edges, Edge{From: from, To: to})
	return b
}

// LinkToWhen adds an edge guarded by a part condition.
func (b *Builder) LinkToWhen(from, to ElementID, condition part.ScheduleConditionRegistrationID) *Builder {
	cond := NewElementID()
	if condition.IsZero() {
		b.errs = append(b.errs, fmt.Errorf("edge condition %s: %w", cond, part.ErrInvalidRegistrationID))
	}
	b.conditions[cond] = condition
	b.edges = append(b.edges, Edge{From: from, To: to, Condition: cond})
	return b
}

// Build validates the graph and returns an immutable Definition.
// Returns validation errors for: invalid vertices, unknown edge endpoints, duplicate
// edges, edges into start or out of end, cycles, unreachable vertices and dead ends.
func (b *Builder) Build() (*Definition, error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	s := &Schedule{
		id:       b.id,
		start:    b.start.id,
		end:      b.end.id,
		vertices: b.vertices,
		byID:     b.byID,
		edges:    b.edges,
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return newDefinition(s, b.actions, b.conditions)
}
