package schedule

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"
)

// ID identifies a schedule.
type ID struct {
	uuid uuid.UUID
}

// NewID allocates a random schedule id.
func NewID() ID {
	return ID{uuid: uuid.New()}
}

// ParseID parses the textual form of an ID.
func ParseID(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ID{}, fmt.Errorf("schedule id %q: %w", s, err)
	}
	return ID{uuid: u}, nil
}

func (id ID) IsZero() bool   { return id.uuid == uuid.Nil }
func (id ID) String() string { return id.uuid.String() }

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) { return id.uuid.MarshalText() }

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(text []byte) error { return id.uuid.UnmarshalText(text) }

// ElementID identifies a vertex, or an edge condition, inside a schedule.
type ElementID struct {
	uuid uuid.UUID
}

// NewElementID allocates a random element id.
func NewElementID() ElementID {
	return ElementID{uuid: uuid.New()}
}

// ParseElementID parses the textual form of an ElementID.
func ParseElementID(s string) (ElementID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ElementID{}, fmt.Errorf("schedule element id %q: %w", s, err)
	}
	return ElementID{uuid: u}, nil
}

func (id ElementID) IsZero() bool   { return id.uuid == uuid.Nil }
func (id ElementID) String() string { return id.uuid.String() }

// Compare orders element ids bytewise.
func (id ElementID) Compare(o ElementID) int {
	return bytes.Compare(id.uuid[:], o.uuid[:])
}

// MarshalText implements encoding.TextMarshaler.
func (id ElementID) MarshalText() ([]byte, error) { return id.uuid.MarshalText() }

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ElementID) UnmarshalText(text []byte) error { return id.uuid.UnmarshalText(text) }
