// Package schedule describes the structure of a group schedule: a DAG of actions, insert
// points and sub-schedules. Executing a schedule is left to an external scheduler.
package schedule

import (
	"fmt"
	"slices"
)

// Schedule is an immutable, validated schedule graph.
type Schedule struct {
	id       ID
	start    ElementID
	end      ElementID
	vertices []*Vertex
	byID     map[ElementID]*Vertex
	edges    []Edge
	out      map[ElementID][]Edge
}

func (s *Schedule) ID() ID           { return s.id }
func (s *Schedule) Start() ElementID { return s.start }
func (s *Schedule) End() ElementID   { return s.end }

// Vertices returns all vertices in insertion order.
func (s *Schedule) Vertices() []*Vertex { return s.vertices }

// Edges returns all edges in insertion order.
func (s *Schedule) Edges() []Edge { return s.edges }

// Vertex returns the vertex with the given id.
func (s *Schedule) Vertex(id ElementID) (*Vertex, bool) {
	v, ok := s.byID[id]
	return v, ok
}

// Successors returns the targets of the outbound edges of id.
func (s *Schedule) Successors(id ElementID) []ElementID {
	var next []ElementID
	for _, e := range s.out[id] {
		if !slices.Contains(next, e.To) {
			next = append(next, e.To)
		}
	}
	return next
}

// OutEdges returns the outbound edges of id.
func (s *Schedule) OutEdges(id ElementID) []Edge {
	return s.out[id]
}

// InsertPoints returns the insert vertices in insertion order.
func (s *Schedule) InsertPoints() []*Vertex {
	var points []*Vertex
	for _, v := range s.vertices {
		if v.kind == InsertVertex {
			points = append(points, v)
		}
	}
	return points
}

// TopologicalOrder returns the vertices ordered so that every edge points forward. Ties are
// broken by insertion order, so the result is deterministic.
func (s *Schedule) TopologicalOrder() []ElementID {
	indegree := make(map[ElementID]int, len(s.vertices))
	for _, e := range s.edges {
		indegree[e.To]++
	}
	order := make([]ElementID, 0, len(s.vertices))
	done := make(map[ElementID]bool, len(s.vertices))
	for len(order) < len(s.vertices) {
		progressed := false
		for _, v := range s.vertices {
			if done[v.id] || indegree[v.id] > 0 {
				continue
			}
			done[v.id] = true
			order = append(order, v.id)
			for _, e := range s.out[v.id] {
				indegree[e.To]--
			}
			progressed = true
		}
		if !progressed {
			break
		}
	}
	return order
}

func (s *Schedule) validate() error {
	s.out = make(map[ElementID][]Edge, len(s.vertices))

	if v, ok := s.byID[s.start]; !ok || v.kind != StartVertex {
		return fmt.Errorf("%w: start %s", ErrInvalidStartEnd, s.start)
	}
	if v, ok := s.byID[s.end]; !ok || v.kind != EndVertex {
		return fmt.Errorf("%w: end %s", ErrInvalidStartEnd, s.end)
	}

	type pair struct{ from, to ElementID }
	seen := make(map[pair]bool, len(s.edges))
	for _, e := range s.edges {
		if _, ok := s.byID[e.From]; !ok {
			return fmt.Errorf("%w: %s (edge source)", ErrUnknownVertex, e.From)
		}
		if _, ok := s.byID[e.To]; !ok {
			return fmt.Errorf("%w: %s (edge target)", ErrUnknownVertex, e.To)
		}
		if e.From == e.To {
			return fmt.Errorf("%w: %s", ErrSelfLoop, e.From)
		}
		if e.To == s.start {
			return fmt.Errorf("%w: edge %s -> start", ErrInvalidStartEnd, e.From)
		}
		if e.From == s.end {
			return fmt.Errorf("%w: edge end -> %s", ErrInvalidStartEnd, e.To)
		}
		key := pair{e.From, e.To}
		if seen[key] {
			return fmt.Errorf("%w: %s -> %s", ErrDuplicateEdge, e.From, e.To)
		}
		seen[key] = true
		s.out[e.From] = append(s.out[e.From], e)
	}

	for _, v := range s.vertices {
		switch v.kind {
		case InsertVertex:
			if v.maxInserts == 0 || v.maxInserts < Unlimited {
				return fmt.Errorf("%w: %s has %d", ErrInvalidCapacity, v.id, v.maxInserts)
			}
		case SubScheduleVertex:
			if v.subSchedule.IsZero() {
				return fmt.Errorf("%w: vertex %s", ErrInvalidSubSchedule, v.id)
			}
		case StartVertex, EndVertex:
			if v.id != s.start && v.id != s.end {
				return fmt.Errorf("%w: extra %s vertex %s", ErrInvalidStartEnd, v.kind, v.id)
			}
		}
		if v.id != s.end && len(s.out[v.id]) == 0 {
			return fmt.Errorf("%w: %s", ErrDeadEnd, v)
		}
	}

	if err := s.detectCycles(); err != nil {
		return err
	}

	reached := make(map[ElementID]bool, len(s.vertices))
	stack := []ElementID{s.start}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if reached[id] {
			continue
		}
		reached[id] = true
		stack = append(stack, s.Successors(id)...)
	}
	for _, v := range s.vertices {
		if !reached[v.id] {
			return fmt.Errorf("%w: %s", ErrUnreachableVertex, v)
		}
	}
	return nil
}

// detectCycles uses DFS with a recursion stack.
func (s *Schedule) detectCycles() error {
	visited := make(map[ElementID]bool)
	recStack := make(map[ElementID]bool)

	var dfs func(id ElementID) error
	dfs = func(id ElementID) error {
		visited[id] = true
		recStack[id] = true
		for _, next := range s.Successors(id) {
			if !visited[next] {
				if err := dfs(next); err != nil {
					return err
				}
			} else if recStack[next] {
				return fmt.Errorf("%w: %s -> %s", ErrCycleDetected, id, next)
			}
		}
		recStack[id] = false
		return nil
	}

	for _, v := range s.vertices {
		if !visited[v.id] {
			if err := dfs(v.id); err != nil {
				return err
			}
		}
	}
	return nil
}
