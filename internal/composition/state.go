package composition

import (
	"fmt"

	"github.com/zjrosen/composer/internal/group"
	"github.com/zjrosen/composer/internal/log"
)

// GroupEntry is one instantiated group in a State.
type GroupEntry struct {
	ID         GroupCompositionID `json:"id"`
	Definition *group.Definition  `json:"definition"`
}

// ConnectionEntry is one edge in a State. Part maps are re-derived on Restore.
type ConnectionEntry struct {
	Importing GroupCompositionID      `json:"importing"`
	Import    *group.ImportDefinition `json:"import"`
	Exporting GroupCompositionID      `json:"exporting"`
}

// State is a consistent snapshot of a Layer.
type State struct {
	Groups      []GroupEntry      `json:"groups"`
	Connections []ConnectionEntry `json:"connections"`
}

// CurrentState captures groups in addition order and connections in key order.
func (l *Layer) CurrentState() State {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s := State{
		Groups:      make([]GroupEntry, 0, len(l.groups)),
		Connections: make([]ConnectionEntry, 0, len(l.connections)),
	}
	for _, id := range l.orderedIDs() {
		s.Groups = append(s.Groups, GroupEntry{ID: id, Definition: l.groups[id].def})
	}
	for _, c := range l.sortedConnections() {
		s.Connections = append(s.Connections, ConnectionEntry{
			Importing: c.Importing,
			Import:    c.Import,
			Exporting: c.Exporting,
		})
	}
	return s
}

// Restore rebuilds a layer from s, keeping group IDs. Connections are validated
// exactly like Connect. No events are published for the restored content; the
// event bus option applies to later mutations.
func Restore(s State, opts ...Option) (*Layer, error) {
	l := NewLayer(opts...)
	events := l.events
	l.events = nil

	for i, g := range s.Groups {
		if g.Definition == nil {
			return nil, fmt.Errorf("%w: group %d: %w", ErrInconsistentState, i, ErrNilGroup)
		}
		if err := l.insert(g.ID, g.Definition); err != nil {
			return nil, fmt.Errorf("%w: group %d: %w", ErrInconsistentState, i, err)
		}
	}
	for i, c := range s.Connections {
		if err := l.Connect(c.Importing, c.Import, c.Exporting); err != nil {
			return nil, fmt.Errorf("%w: connection %d: %w", ErrInconsistentState, i, err)
		}
	}

	l.events = events
	log.Debug(log.CatCompose, "layer restored", "groups", len(s.Groups), "connections", len(s.Connections))
	return l, nil
}
