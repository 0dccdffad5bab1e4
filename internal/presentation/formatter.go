// Package presentation renders composer results as JSON or as terminal tables.
package presentation

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/zjrosen/composer/internal/snapshot"
)

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
	json   bool
}

// NewFormatter creates a formatter writing tables, or indented JSON when asJSON is set.
func NewFormatter(writer io.Writer, asJSON bool) *Formatter {
	return &Formatter{
		writer: writer,
		json:   asJSON,
	}
}

func (f *Formatter) encode(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func (f *Formatter) println(s string) error {
	_, err := fmt.Fprintln(f.writer, s)
	return err
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// ShortID returns the first eight characters of a group id.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// FormatState renders groups, connections and unsatisfied imports.
func (f *Formatter) FormatState(state StateDTO) error {
	if f.json {
		return f.encode(state)
	}

	groups := newTable("ID", "GROUP", "PARTS", "EXPORT", "IMPORTS")
	for _, g := range state.Groups {
		groups.Row(ShortID(g.ID), g.Group, strconv.Itoa(g.Parts), orDash(g.Export), orDash(strings.Join(g.Imports, ", ")))
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Groups (%d)", len(state.Groups))))
	b.WriteString("\n")
	b.WriteString(groups.Render())
	b.WriteString("\n")

	b.WriteString(titleStyle.Render(fmt.Sprintf("Connections (%d)", len(state.Connections))))
	b.WriteString("\n")
	if len(state.Connections) == 0 {
		b.WriteString(mutedStyle.Render("no connections"))
	} else {
		conns := newTable("IMPORTING", "IMPORT", "EXPORTING", "PART MAPS")
		for _, c := range state.Connections {
			conns.Row(
				c.Importing+" "+ShortID(c.ImportingID),
				c.Import,
				c.Exporting+" "+ShortID(c.ExportingID),
				strconv.Itoa(c.PartMaps),
			)
		}
		b.WriteString(conns.Render())
	}

	for _, u := range state.Unsatisfied {
		b.WriteString("\n")
		if u.Optional {
			b.WriteString(mutedStyle.Render(fmt.Sprintf("optional import %s of %s %s is not connected", u.Import, u.Group, ShortID(u.GroupID))))
		} else {
			b.WriteString(warningStyle.Render(fmt.Sprintf("import %s of %s %s is not connected", u.Import, u.Group, ShortID(u.GroupID))))
		}
	}
	return f.println(b.String())
}

// FormatTypes renders the stored types.
func (f *Formatter) FormatTypes(types []TypeDTO) error {
	if f.json {
		return f.encode(types)
	}
	t := newTable("TYPE", "KIND", "ASSEMBLY", "BASE", "EXPORTS", "IMPORTS")
	for _, typ := range types {
		kind := typ.Kind
		if typ.Part {
			kind += " (part)"
		}
		t.Row(typ.Name, kind, typ.Assembly, orDash(typ.Base),
			orDash(strings.Join(typ.Exports, ", ")), orDash(strings.Join(typ.Imports, ", ")))
	}
	return f.println(t.Render())
}

// FormatSnapshots renders snapshot listings.
func (f *Formatter) FormatSnapshots(snaps []SnapshotDTO) error {
	if f.json {
		return f.encode(snaps)
	}
	if len(snaps) == 0 {
		return f.println(mutedStyle.Render("no snapshots"))
	}
	t := newTable("NAME", "GROUPS", "CONNECTIONS", "UPDATED")
	for _, s := range snaps {
		t.Row(s.Name, strconv.Itoa(s.Groups), strconv.Itoa(s.Connections), s.UpdatedAt.Local().Format(time.DateTime))
	}
	return f.println(t.Render())
}

// DiffDTO is the JSON form of a snapshot diff.
type DiffDTO struct {
	Before  string `json:"before"`
	After   string `json:"after"`
	Added   int    `json:"added"`
	Removed int    `json:"removed"`
	Diff    string `json:"diff"`
}

// FormatDiff renders a line diff between two snapshots.
func (f *Formatter) FormatDiff(before, after string, d snapshot.Diff) error {
	added, removed := d.Counts()
	if f.json {
		return f.encode(DiffDTO{Before: before, After: after, Added: added, Removed: removed, Diff: d.String()})
	}
	if !d.Changed() {
		return f.println(mutedStyle.Render(fmt.Sprintf("%s and %s are identical", before, after)))
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s -> %s (+%d -%d)", before, after, added, removed)))
	for _, line := range d.Lines {
		b.WriteString("\n")
		switch line.Kind {
		case snapshot.LineAdded:
			b.WriteString(successStyle.Render("+ " + line.Text))
		case snapshot.LineRemoved:
			b.WriteString(errorStyle.Render("- " + line.Text))
		default:
			b.WriteString(mutedStyle.Render("  " + line.Text))
		}
	}
	return f.println(b.String())
}

// ValidationDTO summarizes a loaded manifest.
type ValidationDTO struct {
	Manifest    string           `json:"manifest"`
	Types       int              `json:"types"`
	Parts       int              `json:"parts"`
	Groups      []string         `json:"groups"`
	Instances   int              `json:"instances"`
	Connections int              `json:"connections"`
	Unsatisfied []UnsatisfiedDTO `json:"unsatisfied"`
}

// FormatValidation renders the outcome of validating a manifest.
func (f *Formatter) FormatValidation(v ValidationDTO) error {
	if f.json {
		return f.encode(v)
	}
	var b strings.Builder
	b.WriteString(successStyle.Render("✓ " + v.Manifest + " is valid"))
	fmt.Fprintf(&b, "\n  types: %d  parts: %d  groups: %d  instances: %d  connections: %d",
		v.Types, v.Parts, len(v.Groups), v.Instances, v.Connections)
	if len(v.Groups) > 0 {
		b.WriteString("\n  ")
		b.WriteString(mutedStyle.Render("groups: " + strings.Join(v.Groups, ", ")))
	}
	for _, u := range v.Unsatisfied {
		b.WriteString("\n  ")
		if u.Optional {
			b.WriteString(mutedStyle.Render("optional import " + u.Import + " of " + u.Group + " is not connected"))
		} else {
			b.WriteString(warningStyle.Render("import " + u.Import + " of " + u.Group + " is not connected"))
		}
	}
	return f.println(b.String())
}
