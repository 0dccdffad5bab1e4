package composition

import (
	"bytes"

	"github.com/google/uuid"
)

// GroupCompositionID names one instantiation of a group definition inside a Layer.
// The zero UUID is reserved; no constructor in this package produces it.
type GroupCompositionID struct {
	uuid uuid.UUID
}

// NewGroupCompositionID returns a random ID.
func NewGroupCompositionID() GroupCompositionID {
	return GroupCompositionID{uuid: uuid.New()}
}

// GroupCompositionIDFromUUID wraps u, rejecting the zero UUID.
func GroupCompositionIDFromUUID(u uuid.UUID) (GroupCompositionID, error) {
	if u == uuid.Nil {
		return GroupCompositionID{}, ErrInvalidGroupCompositionID
	}
	return GroupCompositionID{uuid: u}, nil
}

// ParseGroupCompositionID parses the canonical UUID form.
func ParseGroupCompositionID(s string) (GroupCompositionID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return GroupCompositionID{}, ErrInvalidGroupCompositionID
	}
	return GroupCompositionIDFromUUID(u)
}

// IsValid reports whether id was produced by a constructor.
func (id GroupCompositionID) IsValid() bool { return id.uuid != uuid.Nil }

func (id GroupCompositionID) UUID() uuid.UUID { return id.uuid }

func (id GroupCompositionID) String() string { return id.uuid.String() }

// Compare orders IDs by their bytes.
func (id GroupCompositionID) Compare(o GroupCompositionID) int {
	return bytes.Compare(id.uuid[:], o.uuid[:])
}

// MarshalText implements encoding.TextMarshaler.
func (id GroupCompositionID) MarshalText() ([]byte, error) {
	if !id.IsValid() {
		return nil, ErrInvalidGroupCompositionID
	}
	return id.uuid.MarshalText()
}

// UnmarshalText implements encoding.TextUnmarshaler. The zero UUID is rejected.
func (id *GroupCompositionID) UnmarshalText(text []byte) error {
	parsed, err := ParseGroupCompositionID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
