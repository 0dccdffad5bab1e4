package presentation

import (
	"time"

	"github.com/zjrosen/composer/internal/composition"
	"github.com/zjrosen/composer/internal/infrastructure/sqlite"
	"github.com/zjrosen/composer/internal/repository"
)

// GroupDTO represents one instantiated group.
type GroupDTO struct {
	ID      string   `json:"id"`
	Group   string   `json:"group"`
	Parts   int      `json:"parts"`
	Export  string   `json:"export,omitempty"`
	Imports []string `json:"imports"`
}

// ConnectionDTO represents one import-to-export edge. Group fields hold group names.
type ConnectionDTO struct {
	ImportingID string `json:"importing_id"`
	Importing   string `json:"importing"`
	Import      string `json:"import"`
	ExportingID string `json:"exporting_id"`
	Exporting   string `json:"exporting"`
	PartMaps    int    `json:"part_maps"`
}

// UnsatisfiedDTO represents a group import without a connection.
type UnsatisfiedDTO struct {
	GroupID  string `json:"group_id"`
	Group    string `json:"group"`
	Import   string `json:"import"`
	Optional bool   `json:"optional"`
}

// StateDTO represents the whole composition graph.
type StateDTO struct {
	Groups      []GroupDTO       `json:"groups"`
	Connections []ConnectionDTO  `json:"connections"`
	Unsatisfied []UnsatisfiedDTO `json:"unsatisfied"`
}

// FromLayer converts the current graph of l. Optional unsatisfied imports are included.
func FromLayer(l *composition.Layer) StateDTO {
	names := make(map[composition.GroupCompositionID]string)
	dto := StateDTO{
		Groups:      make([]GroupDTO, 0),
		Connections: make([]ConnectionDTO, 0),
		Unsatisfied: make([]UnsatisfiedDTO, 0),
	}

	for _, entry := range l.CurrentState().Groups {
		def := entry.Definition
		names[entry.ID] = def.ID().Name()
		g := GroupDTO{
			ID:      entry.ID.String(),
			Group:   def.ID().Name(),
			Parts:   len(def.Parts()),
			Imports: make([]string, 0, len(def.GroupImports())),
		}
		if exp := def.GroupExport(); exp != nil {
			g.Export = exp.ContractName()
		}
		for _, imp := range def.GroupImports() {
			g.Imports = append(g.Imports, imp.ContractName())
		}
		dto.Groups = append(dto.Groups, g)
	}

	for _, c := range l.Connections() {
		dto.Connections = append(dto.Connections, ConnectionDTO{
			ImportingID: c.Importing.String(),
			Importing:   names[c.Importing],
			Import:      c.Import.ContractName(),
			ExportingID: c.Exporting.String(),
			Exporting:   names[c.Exporting],
			PartMaps:    len(c.PartMaps),
		})
	}

	for _, u := range l.NonSatisfiedImports(true) {
		dto.Unsatisfied = append(dto.Unsatisfied, UnsatisfiedDTO{
			GroupID:  u.Group.String(),
			Group:    names[u.Group],
			Import:   u.Import.ContractName(),
			Optional: u.Optional,
		})
	}
	return dto
}

// TypeDTO represents a stored type definition and, for plugin types, its part surface.
type TypeDTO struct {
	Name       string   `json:"name"`
	Assembly   string   `json:"assembly"`
	Kind       string   `json:"kind"`
	Base       string   `json:"base,omitempty"`
	Interfaces []string `json:"interfaces,omitempty"`
	Part       bool     `json:"part"`
	Exports    []string `json:"exports,omitempty"`
	Imports    []string `json:"imports,omitempty"`
}

// FromRepository converts every type in repo, ordered by name.
func FromRepository(repo *repository.Memory) []TypeDTO {
	dtos := make([]TypeDTO, 0)
	for _, def := range repo.Types() {
		id := def.Identity()
		t := TypeDTO{
			Name:     id.String(),
			Assembly: id.Assembly().Name(),
			Kind:     "class",
		}
		if def.IsInterface() {
			t.Kind = "interface"
		}
		if base := def.BaseType(); base != nil {
			t.Base = base.String()
		}
		for _, iface := range def.Interfaces() {
			t.Interfaces = append(t.Interfaces, iface.String())
		}
		if p, err := repo.Part(id); err == nil {
			t.Part = true
			for _, e := range p.Exports() {
				t.Exports = append(t.Exports, e.ContractName())
			}
			for _, i := range p.Imports() {
				t.Imports = append(t.Imports, i.ContractName()+" ("+i.Cardinality().String()+")")
			}
		}
		dtos = append(dtos, t)
	}
	return dtos
}

// SnapshotDTO represents a stored snapshot.
type SnapshotDTO struct {
	Name        string    `json:"name"`
	Groups      int       `json:"groups"`
	Connections int       `json:"connections"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FromSnapshots converts snapshot listings.
func FromSnapshots(infos []sqlite.SnapshotInfo) []SnapshotDTO {
	dtos := make([]SnapshotDTO, len(infos))
	for i, info := range infos {
		dtos[i] = SnapshotDTO{
			Name:        info.Name,
			Groups:      info.Groups,
			Connections: info.Connections,
			CreatedAt:   info.CreatedAt,
			UpdatedAt:   info.UpdatedAt,
		}
	}
	return dtos
}
