package composition

import (
	"context"

	"github.com/zjrosen/composer/internal/group"
)

// Commands is the mutating surface of the composition graph as seen by callers
// outside the process boundary. Implementations check ctx only before a
// command starts; an admitted command always runs to completion.
type Commands interface {
	Add(ctx context.Context, def *group.Definition) (GroupCompositionID, error)
	Remove(ctx context.Context, id GroupCompositionID) error
	Connect(ctx context.Context, importing GroupCompositionID, imp *group.ImportDefinition, exporting GroupCompositionID) error
	Disconnect(ctx context.Context, importing, exporting GroupCompositionID) error
	DisconnectAll(ctx context.Context, id GroupCompositionID) error
}

// Direct returns Commands that call l on the caller's goroutine.
func Direct(l *Layer) Commands {
	return direct{l: l}
}

type direct struct {
	l *Layer
}

func (d direct) Add(ctx context.Context, def *group.Definition) (GroupCompositionID, error) {
	if err := ctx.Err(); err != nil {
		return GroupCompositionID{}, err
	}
	return d.l.Add(def)
}

func (d direct) Remove(ctx context.Context, id GroupCompositionID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.l.Remove(id)
}

func (d direct) Connect(ctx context.Context, importing GroupCompositionID, imp *group.ImportDefinition, exporting GroupCompositionID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.l.Connect(importing, imp, exporting)
}

func (d direct) Disconnect(ctx context.Context, importing, exporting GroupCompositionID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := d.l.Disconnect(importing, exporting)
	return err
}

func (d direct) DisconnectAll(ctx context.Context, id GroupCompositionID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := d.l.DisconnectAll(id)
	return err
}
