package snapshot

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineKind classifies a diff line.
type LineKind int

const (
	LineUnchanged LineKind = iota
	LineAdded
	LineRemoved
)

// Line is one line of a snapshot diff.
type Line struct {
	Kind LineKind
	Text string
}

// Diff is the line diff between two encoded snapshots.
type Diff struct {
	Lines []Line
}

// Compare diffs two encoded snapshots line by line.
func Compare(before, after []byte) Diff {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(string(before), string(after))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var d Diff
	for _, df := range diffs {
		kind := LineUnchanged
		switch df.Type {
		case diffmatchpatch.DiffInsert:
			kind = LineAdded
		case diffmatchpatch.DiffDelete:
			kind = LineRemoved
		}
		for _, text := range splitLines(df.Text) {
			d.Lines = append(d.Lines, Line{Kind: kind, Text: text})
		}
	}
	return d
}

func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// Changed reports whether any line was added or removed.
func (d Diff) Changed() bool {
	for _, l := range d.Lines {
		if l.Kind != LineUnchanged {
			return true
		}
	}
	return false
}

// Counts returns the number of added and removed lines.
func (d Diff) Counts() (added, removed int) {
	for _, l := range d.Lines {
		switch l.Kind {
		case LineAdded:
			added++
		case LineRemoved:
			removed++
		}
	}
	return added, removed
}

// String renders the diff with "+", "-" and " " prefixes.
func (d Diff) String() string {
	var b strings.Builder
	for _, l := range d.Lines {
		switch l.Kind {
		case LineAdded:
			b.WriteString("+ ")
		case LineRemoved:
			b.WriteString("- ")
		default:
			b.WriteString("  ")
		}
		b.WriteString(l.Text)
		b.WriteByte('\n')
	}
	return b.String()
}
