// Package loader reads a YAML plugin manifest and turns it into scanned metadata: type
// definitions, part definitions, group definitions and a composition plan that can be
// replayed against any composition.Commands implementation.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidManifest wraps every structural problem found while loading a manifest.
var ErrInvalidManifest = errors.New("invalid manifest")

// Manifest is the root structure of a manifest file.
type Manifest struct {
	Assemblies []AssemblyDef `yaml:"assemblies"`
	Types      []TypeDef     `yaml:"types"`
	Parts      []PartDef     `yaml:"parts"`
	Groups     []GroupDef    `yaml:"groups"`
	Compose    ComposeDef    `yaml:"compose"`
}

// AssemblyDef names an assembly that declares manifest types.
type AssemblyDef struct {
	Name           string `yaml:"name"`
	Version        string `yaml:"version"`
	Culture        string `yaml:"culture"`
	PublicKeyToken string `yaml:"public_key_token"`
}

// TypeDef declares a class or interface. Type references elsewhere in the manifest use the
// full name "Namespace.Name".
type TypeDef struct {
	Namespace    string           `yaml:"namespace"`
	Name         string           `yaml:"name"`
	Assembly     string           `yaml:"assembly"`
	Interface    bool             `yaml:"interface"`
	Base         string           `yaml:"base"`
	Implements   []string         `yaml:"implements"`
	Properties   []PropertyDef    `yaml:"properties"`
	Methods      []MethodDef      `yaml:"methods"`
	Constructors []ConstructorDef `yaml:"constructors"`
}

// FullName returns "Namespace.Name", or just the name without a namespace.
func (t TypeDef) FullName() string {
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}

type PropertyDef struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// MethodDef declares a method. An empty Returns declares a void method.
type MethodDef struct {
	Name    string         `yaml:"name"`
	Returns string         `yaml:"returns"`
	Params  []ParameterDef `yaml:"params"`
}

type ConstructorDef struct {
	Params []ParameterDef `yaml:"params"`
}

type ParameterDef struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// PartDef is the composition surface of one manifest type.
type PartDef struct {
	Type       string      `yaml:"type"`
	Exports    []ExportDef `yaml:"exports"`
	Imports    []ImportDef `yaml:"imports"`
	Actions    []MemberDef `yaml:"actions"`
	Conditions []MemberDef `yaml:"conditions"`
}

// ExportDef exports the part type itself, one of its properties, or one of its methods.
// Exactly one of Self, Property and Method is set.
type ExportDef struct {
	Contract       string `yaml:"contract"`
	Self           bool   `yaml:"self"`
	Property       string `yaml:"property"`
	Method         string `yaml:"method"`
	CreationPolicy string `yaml:"creation_policy"`
}

// ImportDef imports through a property or a constructor parameter. Constructor selects the
// constructor by position when Parameter is set.
type ImportDef struct {
	Contract       string `yaml:"contract"`
	Property       string `yaml:"property"`
	Constructor    int    `yaml:"constructor"`
	Parameter      string `yaml:"parameter"`
	Cardinality    string `yaml:"cardinality"`
	CreationPolicy string `yaml:"creation_policy"`
	Recomposable   bool   `yaml:"recomposable"`
}

// MemberDef binds a schedule action or condition contract to a method.
type MemberDef struct {
	Contract string `yaml:"contract"`
	Method   string `yaml:"method"`
}

// GroupDef declares a group. Parts get local aliases that the rest of the group uses in
// "alias.contract" member references.
type GroupDef struct {
	Name     string           `yaml:"name"`
	Parts    []GroupPartDef   `yaml:"parts"`
	Wiring   []WiringDef      `yaml:"wiring"`
	Export   *GroupExportDef  `yaml:"export"`
	Imports  []GroupImportDef `yaml:"imports"`
	Schedule *ScheduleDef     `yaml:"schedule"`
}

type GroupPartDef struct {
	Alias string `yaml:"alias"`
	Type  string `yaml:"type"`
}

type WiringDef struct {
	Import  string   `yaml:"import"`
	Exports []string `yaml:"exports"`
}

type GroupExportDef struct {
	Contract string   `yaml:"contract"`
	Provides []string `yaml:"provides"`
}

// GroupImportDef exposes part imports as one group import. InsertPoint names a schedule
// vertex.
type GroupImportDef struct {
	Contract    string   `yaml:"contract"`
	InsertPoint string   `yaml:"insert_point"`
	Matches     []string `yaml:"matches"`
}

// ScheduleDef is a schedule graph. The vertices "start" and "end" always exist.
type ScheduleDef struct {
	Vertices []VertexDef `yaml:"vertices"`
	Edges    []EdgeDef   `yaml:"edges"`
}

// VertexDef is an action vertex when Action is set, otherwise an insert point. MaxInserts
// of zero means unlimited.
type VertexDef struct {
	Name       string `yaml:"name"`
	Action     string `yaml:"action"`
	MaxInserts int    `yaml:"max_inserts"`
}

type EdgeDef struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
	When string `yaml:"when"`
}

// ComposeDef lists the group instances to add and the connections between them.
type ComposeDef struct {
	Instances   []InstanceDef   `yaml:"instances"`
	Connections []ConnectionDef `yaml:"connections"`
}

type InstanceDef struct {
	Name  string `yaml:"name"`
	Group string `yaml:"group"`
}

type ConnectionDef struct {
	Importing string `yaml:"importing"`
	Import    string `yaml:"import"`
	Exporting string `yaml:"exporting"`
}

// Parse decodes manifest YAML. Unknown fields are rejected.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return &m, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	return &m, nil
}

// ReadFile reads and parses the manifest at path.
func ReadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: manifest path is user supplied
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ReadFS reads and parses the manifest at name inside fsys.
func ReadFS(fsys fs.FS, name string) (*Manifest, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return m, nil
}
