package schedule

import (
	"encoding/json"
	"fmt"

	"github.com/zjrosen/composer/internal/part"
)

// Definition is a schedule graph plus the part actions and conditions its elements refer to.
type Definition struct {
	schedule   *Schedule
	actions    map[ElementID]part.ScheduleActionRegistrationID
	conditions map[ElementID]part.ScheduleConditionRegistrationID
}

func newDefinition(
	s *Schedule,
	actions map[ElementID]part.ScheduleActionRegistrationID,
	conditions map[ElementID]part.ScheduleConditionRegistrationID,
) (*Definition, error) {
	for _, v := range s.vertices {
		if _, ok := actions[v.id]; (v.kind == ActionVertex) != ok {
			return nil, fmt.Errorf("%w: action mapping for %s", ErrInvalidScheduleData, v)
		}
	}
	for id := range actions {
		if v, ok := s.byID[id]; !ok || v.kind != ActionVertex {
			return nil, fmt.Errorf("%w: action mapped to unknown vertex %s", ErrInvalidScheduleData, id)
		}
	}
	used := make(map[ElementID]bool)
	for _, e := range s.edges {
		if !e.Conditional() {
			continue
		}
		if _, ok := conditions[e.Condition]; !ok {
			return nil, fmt.Errorf("%w: edge %s -> %s has unmapped condition %s", ErrInvalidScheduleData, e.From, e.To, e.Condition)
		}
		used[e.Condition] = true
	}
	for id := range conditions {
		if !used[id] {
			return nil, fmt.Errorf("%w: condition %s is not used by any edge", ErrInvalidScheduleData, id)
		}
	}
	return &Definition{schedule: s, actions: actions, conditions: conditions}, nil
}

func (d *Definition) ID() ID              { return d.schedule.id }
func (d *Definition) Schedule() *Schedule { return d.schedule }

// Actions maps action vertices to part actions. Callers must not modify the map.
func (d *Definition) Actions() map[ElementID]part.ScheduleActionRegistrationID { return d.actions }

// Conditions maps edge conditions to part conditions. Callers must not modify the map.
func (d *Definition) Conditions() map[ElementID]part.ScheduleConditionRegistrationID {
	return d.conditions
}

// Action returns the part action run by vertex id.
func (d *Definition) Action(id ElementID) (part.ScheduleActionRegistrationID, bool) {
	a, ok := d.actions[id]
	return a, ok
}

// Condition returns the part condition guarding an edge.
func (d *Definition) Condition(id ElementID) (part.ScheduleConditionRegistrationID, bool) {
	c, ok := d.conditions[id]
	return c, ok
}

// InsertPoint returns the insert vertex with the given id.
func (d *Definition) InsertPoint(id ElementID) (*Vertex, bool) {
	v, ok := d.schedule.byID[id]
	if !ok || v.kind != InsertVertex {
		return nil, false
	}
	return v, true
}

// Equal compares the graph structure and the mappings.
func (d *Definition) Equal(o *Definition) bool {
	if d == nil || o == nil {
		return d == o
	}
	a, b := d.schedule, o.schedule
	if a.id != b.id || a.start != b.start || a.end != b.end ||
		len(a.vertices) != len(b.vertices) || len(a.edges) != len(b.edges) ||
		len(d.actions) != len(o.actions) || len(d.conditions) != len(o.conditions) {
		return false
	}
	for i, v := range a.vertices {
		if *v != *b.vertices[i] {
			return false
		}
	}
	for i, e := range a.edges {
		if e != b.edges[i] {
			return false
		}
	}
	for k, v := range d.actions {
		if o.actions[k] != v {
			return false
		}
	}
	for k, v := range d.conditions {
		if o.conditions[k] != v {
			return false
		}
	}
	return true
}

type vertexJSON struct {
	ID          ElementID  `json:"id"`
	Kind        VertexKind `json:"kind"`
	MaxInserts  int        `json:"max_inserts,omitempty"`
	SubSchedule *ID        `json:"sub_schedule,omitempty"`
}

type edgeJSON struct {
	From      ElementID  `json:"from"`
	To        ElementID  `json:"to"`
	Condition *ElementID `json:"condition,omitempty"`
}

type definitionJSON struct {
	ID         ID                                                 `json:"id"`
	Start      ElementID                                          `json:"start"`
	End        ElementID                                          `json:"end"`
	Vertices   []vertexJSON                                       `json:"vertices"`
	Edges      []edgeJSON                                         `json:"edges"`
	Actions    map[ElementID]part.ScheduleActionRegistrationID    `json:"actions,omitempty"`
	Conditions map[ElementID]part.ScheduleConditionRegistrationID `json:"conditions,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (d *Definition) MarshalJSON() ([]byte, error) {
	s := d.schedule
	w := definitionJSON{
		ID:         s.id,
		Start:      s.start,
		End:        s.end,
		Actions:    d.actions,
		Conditions: d.conditions,
	}
	for _, v := range s.vertices {
		vj := vertexJSON{ID: v.id, Kind: v.kind, MaxInserts: v.maxInserts}
		if v.kind == SubScheduleVertex {
			sub := v.subSchedule
			vj.SubSchedule = &sub
		}
		w.Vertices = append(w.Vertices, vj)
	}
	for _, e := range s.edges {
		ej := edgeJSON{From: e.From, To: e.To}
		if e.Conditional() {
			c := e.Condition
			ej.Condition = &c
		}
		w.Edges = append(w.Edges, ej)
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler. The decoded graph is validated like a built one.
func (d *Definition) UnmarshalJSON(data []byte) error {
	var w definitionJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	s := &Schedule{
		id:    w.ID,
		start: w.Start,
		end:   w.End,
		byID:  make(map[ElementID]*Vertex, len(w.Vertices)),
	}
	for _, vj := range w.Vertices {
		if _, dup := s.byID[vj.ID]; dup {
			return fmt.Errorf("%w: duplicate vertex %s", ErrInvalidScheduleData, vj.ID)
		}
		v := &Vertex{id: vj.ID, kind: vj.Kind, maxInserts: vj.MaxInserts}
		switch vj.Kind {
		case StartVertex, EndVertex, ActionVertex, InsertVertex:
		case SubScheduleVertex:
			if vj.SubSchedule != nil {
				v.subSchedule = *vj.SubSchedule
			}
		default:
			return fmt.Errorf("%w: vertex kind %q", ErrInvalidScheduleData, vj.Kind)
		}
		s.vertices = append(s.vertices, v)
		s.byID[v.id] = v
	}
	for _, ej := range w.Edges {
		e := Edge{From: ej.From, To: ej.To}
		if ej.Condition != nil {
			e.Condition = *ej.Condition
		}
		s.edges = append(s.edges, e)
	}
	if err := s.validate(); err != nil {
		return err
	}
	actions := w.Actions
	if actions == nil {
		actions = make(map[ElementID]part.ScheduleActionRegistrationID)
	}
	conditions := w.Conditions
	if conditions == nil {
		conditions = make(map[ElementID]part.ScheduleConditionRegistrationID)
	}
	v, err := newDefinition(s, actions, conditions)
	if err != nil {
		return err
	}
	*d = *v
	return nil
}
