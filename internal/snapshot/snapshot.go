// Package snapshot encodes composition states as canonical JSON and compares
// two encoded snapshots line by line.
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zjrosen/composer/internal/composition"
)

// ErrInvalidSnapshot is returned when a snapshot cannot be decoded.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// Encode renders s as indented JSON terminated by a newline. Groups keep
// addition order and connections keep key order, so equal states encode equally.
func Encode(s composition.State) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses a snapshot produced by Encode. Group definitions are validated.
func Decode(data []byte) (composition.State, error) {
	var s composition.State
	if err := json.Unmarshal(data, &s); err != nil {
		return composition.State{}, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	return s, nil
}

// Capture encodes the current state of l.
func Capture(l *composition.Layer) ([]byte, error) {
	return Encode(l.CurrentState())
}

// Load decodes data and restores it into a new layer.
func Load(data []byte, opts ...composition.Option) (*composition.Layer, error) {
	s, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return composition.Restore(s, opts...)
}

// Summary counts the contents of a state.
type Summary struct {
	Groups      int
	Connections int
}

// Summarize counts the groups and connections in s.
func Summarize(s composition.State) Summary {
	return Summary{Groups: len(s.Groups), Connections: len(s.Connections)}
}
