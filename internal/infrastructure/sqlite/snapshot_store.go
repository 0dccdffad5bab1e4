package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/zjrosen/composer/internal/composition"
	"github.com/zjrosen/composer/internal/log"
	"github.com/zjrosen/composer/internal/snapshot"
)

// ErrSnapshotNotFound is returned when no snapshot has the requested name.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotInfo describes a stored snapshot without its state.
type SnapshotInfo struct {
	ID          int64
	Name        string
	Groups      int
	Connections int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SnapshotStore persists named composition states.
type SnapshotStore struct {
	db *sql.DB
}

// Save encodes state and stores it under name, replacing an earlier snapshot.
func (s *SnapshotStore) Save(ctx context.Context, name string, state composition.State) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", snapshot.ErrInvalidSnapshot)
	}
	data, err := snapshot.Encode(state)
	if err != nil {
		return err
	}
	sum := snapshot.Summarize(state)
	now := time.Now().Unix()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (name, state, group_count, connection_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			state = excluded.state,
			group_count = excluded.group_count,
			connection_count = excluded.connection_count,
			updated_at = excluded.updated_at`,
		name, string(data), sum.Groups, sum.Connections, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", name, err)
	}
	log.Debug(log.CatDB, "snapshot saved", "name", name, "groups", sum.Groups, "connections", sum.Connections)
	return nil
}

// Raw returns the encoded state stored under name.
func (s *SnapshotStore) Raw(ctx context.Context, name string) ([]byte, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT state FROM snapshots WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find snapshot %s: %w", name, err)
	}
	return []byte(data), nil
}

// Load decodes the state stored under name.
func (s *SnapshotStore) Load(ctx context.Context, name string) (composition.State, error) {
	data, err := s.Raw(ctx, name)
	if err != nil {
		return composition.State{}, err
	}
	return snapshot.Decode(data)
}

// List returns every snapshot, most recently updated first.
func (s *SnapshotStore) List(ctx context.Context) ([]SnapshotInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, group_count, connection_count, created_at, updated_at
		FROM snapshots ORDER BY updated_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var infos []SnapshotInfo
	for rows.Next() {
		var (
			info             SnapshotInfo
			created, updated int64
		)
		if err := rows.Scan(&info.ID, &info.Name, &info.Groups, &info.Connections, &created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		info.CreatedAt = time.Unix(created, 0)
		info.UpdatedAt = time.Unix(updated, 0)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Delete removes the snapshot stored under name.
func (s *SnapshotStore) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrSnapshotNotFound, name)
	}
	return nil
}
