package typesystem

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AssemblyDefinition is the serializable name of an assembly.
type AssemblyDefinition struct {
	name           string
	version        string
	culture        string
	publicKeyToken string
}

// NewAssemblyDefinition creates an assembly definition. Only the name is required.
func NewAssemblyDefinition(name, version, culture, publicKeyToken string) (*AssemblyDefinition, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: assembly name", ErrEmptyName)
	}
	return &AssemblyDefinition{
		name:           name,
		version:        version,
		culture:        culture,
		publicKeyToken: publicKeyToken,
	}, nil
}

// CreateAssemblyDefinition copies the name parts of a live assembly handle.
func CreateAssemblyDefinition(a Assembly) (*AssemblyDefinition, error) {
	if a == nil {
		return nil, ErrNilAssembly
	}
	return NewAssemblyDefinition(a.Name(), a.Version(), a.Culture(), a.PublicKeyToken())
}

// Name returns the simple assembly name.
func (a *AssemblyDefinition) Name() string {
	return a.name
}

// Version returns the assembly version, or "" when unversioned.
func (a *AssemblyDefinition) Version() string {
	return a.version
}

// Culture returns the assembly culture, or "" for the neutral culture.
func (a *AssemblyDefinition) Culture() string {
	return a.culture
}

// PublicKeyToken returns the hex public key token, or "" when unsigned.
func (a *AssemblyDefinition) PublicKeyToken() string {
	return a.publicKeyToken
}

// FullName returns the display form "Name, Version=..., Culture=..., PublicKeyToken=...".
func (a *AssemblyDefinition) FullName() string {
	var b strings.Builder
	b.WriteString(a.name)
	if a.version != "" {
		b.WriteString(", Version=")
		b.WriteString(a.version)
	}
	culture := a.culture
	if culture == "" {
		culture = "neutral"
	}
	b.WriteString(", Culture=")
	b.WriteString(culture)
	token := a.publicKeyToken
	if token == "" {
		token = "null"
	}
	b.WriteString(", PublicKeyToken=")
	b.WriteString(token)
	return b.String()
}

// String returns FullName.
func (a *AssemblyDefinition) String() string {
	return a.FullName()
}

// Equal compares the name case-insensitively and the version, culture and token.
func (a *AssemblyDefinition) Equal(other *AssemblyDefinition) bool {
	if a == other {
		return true
	}
	if a == nil || other == nil {
		return false
	}
	return EqualFold(a.name, other.name) &&
		a.version == other.version &&
		EqualFold(a.culture, other.culture) &&
		EqualFold(a.publicKeyToken, other.publicKeyToken)
}

// EqualAssembly compares against a live assembly handle.
func (a *AssemblyDefinition) EqualAssembly(other Assembly) bool {
	if a == nil || other == nil {
		return a == nil && other == nil
	}
	return EqualFold(a.name, other.Name()) &&
		a.version == other.Version() &&
		EqualFold(a.culture, other.Culture()) &&
		EqualFold(a.publicKeyToken, other.PublicKeyToken())
}

func (a *AssemblyDefinition) key() string {
	return Fold(a.name) + "," + a.version + "," + Fold(a.culture) + "," + Fold(a.publicKeyToken)
}

type assemblyJSON struct {
	Name           string `json:"name"`
	Version        string `json:"version,omitempty"`
	Culture        string `json:"culture,omitempty"`
	PublicKeyToken string `json:"public_key_token,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (a *AssemblyDefinition) MarshalJSON() ([]byte, error) {
	return json.Marshal(assemblyJSON{
		Name:           a.name,
		Version:        a.version,
		Culture:        a.culture,
		PublicKeyToken: a.publicKeyToken,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *AssemblyDefinition) UnmarshalJSON(data []byte) error {
	var w assemblyJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Name == "" {
		return fmt.Errorf("%w: assembly without name", ErrInvalidPayload)
	}
	*a = AssemblyDefinition{
		name:           w.Name,
		version:        w.Version,
		culture:        w.Culture,
		publicKeyToken: w.PublicKeyToken,
	}
	return nil
}
