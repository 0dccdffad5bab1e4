// Package contract describes what parts import and export, and decides whether an export
// can satisfy an import.
package contract

import (
	"errors"
	"fmt"
)

// Cardinality is how many exports may satisfy one import.
type Cardinality int

const (
	ExactlyOne Cardinality = iota
	ZeroOrOne
	ZeroOrMore
)

var cardinalityNames = map[Cardinality]string{
	ExactlyOne: "exactly-one",
	ZeroOrOne:  "zero-or-one",
	ZeroOrMore: "zero-or-more",
}

// String returns the kebab-case name.
func (c Cardinality) String() string {
	if s, ok := cardinalityNames[c]; ok {
		return s
	}
	return fmt.Sprintf("cardinality(%d)", int(c))
}

// AllowsZero reports whether the import may stay unsatisfied.
func (c Cardinality) AllowsZero() bool {
	return c == ZeroOrOne || c == ZeroOrMore
}

// Allows reports whether n matching exports are acceptable.
func (c Cardinality) Allows(n int) bool {
	switch c {
	case ExactlyOne:
		return n == 1
	case ZeroOrOne:
		return n == 0 || n == 1
	case ZeroOrMore:
		return n >= 0
	default:
		return false
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Cardinality) MarshalText() ([]byte, error) {
	s, ok := cardinalityNames[c]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCardinality, int(c))
	}
	return []byte(s), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Cardinality) UnmarshalText(text []byte) error {
	v, err := ParseCardinality(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ParseCardinality parses a kebab-case cardinality name.
func ParseCardinality(s string) (Cardinality, error) {
	for c, name := range cardinalityNames {
		if name == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidCardinality, s)
}

// CreationPolicy states whether an export instance may be shared between importers.
type CreationPolicy int

const (
	Any CreationPolicy = iota
	Shared
	NonShared
)

var policyNames = map[CreationPolicy]string{
	Any:       "any",
	Shared:    "shared",
	NonShared: "non-shared",
}

func (p CreationPolicy) String() string {
	if s, ok := policyNames[p]; ok {
		return s
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// MarshalText implements encoding.TextMarshaler.
func (p CreationPolicy) MarshalText() ([]byte, error) {
	s, ok := policyNames[p]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCreationPolicy, int(p))
	}
	return []byte(s), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *CreationPolicy) UnmarshalText(text []byte) error {
	v, err := ParseCreationPolicy(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// ParseCreationPolicy parses a creation policy name. The empty string means Any.
func ParseCreationPolicy(s string) (CreationPolicy, error) {
	if s == "" {
		return Any, nil
	}
	for p, name := range policyNames {
		if name == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidCreationPolicy, s)
}

// Compatible reports whether an import policy accepts an export policy.
func (p CreationPolicy) Compatible(export CreationPolicy) bool {
	return p == Any || export == Any || p == export
}

// Errors
var (
	ErrEmptyContractName       = errors.New("contract name cannot be empty")
	ErrInvalidCardinality      = errors.New("invalid cardinality")
	ErrInvalidCreationPolicy   = errors.New("invalid creation policy")
	ErrCannotMapExportToImport = errors.New("cannot map export to import")
	ErrUnknownDefinitionKind   = errors.New("unknown definition kind")
	ErrUnknownParameter        = errors.New("parameter is not declared by the constructor")
)
