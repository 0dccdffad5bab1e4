package typesystem

import "errors"

// Construction errors
var (
	ErrNilType        = errors.New("type cannot be nil")
	ErrNilAssembly    = errors.New("type assembly cannot be nil")
	ErrNilGenerator   = errors.New("identity generator cannot be nil")
	ErrNilMember      = errors.New("member cannot be nil")
	ErrEmptyName      = errors.New("name cannot be empty")
	ErrInvalidPayload = errors.New("invalid serialized definition")
)
