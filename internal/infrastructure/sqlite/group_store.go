package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zjrosen/composer/internal/group"
)

// ErrGroupNotFound is returned when no group definition has the requested name.
var ErrGroupNotFound = errors.New("group definition not found")

// GroupStore persists group definitions by name.
type GroupStore struct {
	db *sql.DB
}

// Save stores def under its name, replacing an earlier definition.
func (s *GroupStore) Save(ctx context.Context, def *group.Definition) error {
	if def == nil {
		return group.ErrEmptyGroupName
	}
	data, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("encode group %s: %w", def, err)
	}
	now := time.Now().Unix()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO group_definitions (name, definition, created_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET definition = excluded.definition, updated_at = excluded.updated_at`,
		def.ID().String(), string(data), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save group %s: %w", def, err)
	}
	return nil
}

// Find returns the definition stored under name.
func (s *GroupStore) Find(ctx context.Context, name string) (*group.Definition, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT definition FROM group_definitions WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find group %s: %w", name, err)
	}
	var def group.Definition
	if err := json.Unmarshal([]byte(data), &def); err != nil {
		return nil, fmt.Errorf("decode group %s: %w", name, err)
	}
	return &def, nil
}

// List returns every stored definition ordered by name.
func (s *GroupStore) List(ctx context.Context) ([]*group.Definition, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT definition FROM group_definitions ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	var defs []*group.Definition
	err = eachJSON(rows, func(def *group.Definition) error {
		defs = append(defs, def)
		return nil
	})
	return defs, err
}

// Delete removes the definition stored under name.
func (s *GroupStore) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM group_definitions WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete group %s: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrGroupNotFound, name)
	}
	return nil
}
