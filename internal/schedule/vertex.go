package schedule

import "fmt"

// VertexKind classifies schedule vertices.
type VertexKind string

const (
	StartVertex       VertexKind = "start"
	EndVertex         VertexKind = "end"
	ActionVertex      VertexKind = "action"
	InsertVertex      VertexKind = "insert"
	SubScheduleVertex VertexKind = "sub_schedule"
)

// Unlimited is the MaxInserts value of an insert point without a bound.
const Unlimited = -1

// Vertex is one node of a schedule graph.
type Vertex struct {
	id          ElementID
	kind        VertexKind
	maxInserts  int // InsertVertex only
	subSchedule ID  // SubScheduleVertex only
}

func (v *Vertex) ID() ElementID    { return v.id }
func (v *Vertex) Kind() VertexKind { return v.kind }

// MaxInserts returns how many sub-schedules may be spliced in at an insert vertex, or
// Unlimited. It is zero for other kinds.
func (v *Vertex) MaxInserts() int { return v.maxInserts }

// SubSchedule returns the schedule a SubScheduleVertex runs.
func (v *Vertex) SubSchedule() ID { return v.subSchedule }

// AllowsInserts reports whether n splices fit into the vertex.
func (v *Vertex) AllowsInserts(n int) bool {
	if v.kind != InsertVertex {
		return false
	}
	return v.maxInserts == Unlimited || n <= v.maxInserts
}

func (v *Vertex) String() string {
	switch v.kind {
	case InsertVertex:
		if v.maxInserts == Unlimited {
			return fmt.Sprintf("insert(%s, unlimited)", v.id)
		}
		return fmt.Sprintf("insert(%s, max %d)", v.id, v.maxInserts)
	case SubScheduleVertex:
		return fmt.Sprintf("sub_schedule(%s -> %s)", v.id, v.subSchedule)
	default:
		return fmt.Sprintf("%s(%s)", v.kind, v.id)
	}
}

// Edge is a directed link between two vertices, optionally guarded by a condition element.
type Edge struct {
	From      ElementID
	To        ElementID
	Condition ElementID // zero when unconditional
}

// Conditional reports whether the edge is guarded.
func (e Edge) Conditional() bool { return !e.Condition.IsZero() }
