package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zjrosen/composer/internal/log"
	"github.com/zjrosen/composer/internal/part"
	"github.com/zjrosen/composer/internal/repository"
	"github.com/zjrosen/composer/internal/typesystem"
)

// MetadataStore persists scanned type and part definitions keyed by type identity.
// It satisfies repository.Reader, so it can sit behind repository.Cached.
type MetadataStore struct {
	db *sql.DB
}

var _ repository.Reader = (*MetadataStore)(nil)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SaveType stores def, replacing a stored definition with the same identity.
func (s *MetadataStore) SaveType(ctx context.Context, def *typesystem.TypeDefinition) error {
	return saveType(ctx, s.db, def)
}

func saveType(ctx context.Context, db execer, def *typesystem.TypeDefinition) error {
	if def == nil {
		return typesystem.ErrNilType
	}
	data, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("encode type %s: %w", def, err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO type_definitions (type_key, name, definition, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(type_key) DO UPDATE SET name = excluded.name, definition = excluded.definition`,
		def.Identity().Key(), def.Identity().String(), string(data), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save type %s: %w", def, err)
	}
	return nil
}

// SavePart stores def. The part's type must already be stored.
func (s *MetadataStore) SavePart(ctx context.Context, def *part.Definition) error {
	return savePart(ctx, s.db, def)
}

func savePart(ctx context.Context, db execer, def *part.Definition) error {
	if def == nil {
		return typesystem.ErrNilType
	}
	data, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("encode part %s: %w", def.Identity(), err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO part_definitions (type_key, definition, created_at) VALUES (?, ?, ?)
		ON CONFLICT(type_key) DO UPDATE SET definition = excluded.definition`,
		def.Identity().Key(), string(data), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save part %s: %w", def.Identity(), err)
	}
	return nil
}

// Import stores every type and part of mem in one transaction.
func (s *MetadataStore) Import(ctx context.Context, mem *repository.Memory) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	types, parts := mem.Types(), mem.Parts()
	for _, def := range types {
		if err := saveType(ctx, tx, def); err != nil {
			return err
		}
	}
	for _, def := range parts {
		if err := savePart(ctx, tx, def); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	log.Debug(log.CatDB, "metadata imported", "types", len(types), "parts", len(parts))
	return nil
}

// TypeDefinition returns the stored definition of id, or repository.ErrUnknownType.
func (s *MetadataStore) TypeDefinition(id *typesystem.TypeIdentity) (*typesystem.TypeDefinition, error) {
	if id == nil {
		return nil, typesystem.ErrNilType
	}
	var data string
	err := s.db.QueryRow(`SELECT definition FROM type_definitions WHERE type_key = ?`, id.Key()).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", repository.ErrUnknownType, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find type %s: %w", id, err)
	}
	var def typesystem.TypeDefinition
	if err := json.Unmarshal([]byte(data), &def); err != nil {
		return nil, fmt.Errorf("decode type %s: %w", id, err)
	}
	return &def, nil
}

// Part returns the stored part definition of id, or repository.ErrUnknownPluginType.
func (s *MetadataStore) Part(id *typesystem.TypeIdentity) (*part.Definition, error) {
	if id == nil {
		return nil, typesystem.ErrNilType
	}
	var data string
	err := s.db.QueryRow(`SELECT definition FROM part_definitions WHERE type_key = ?`, id.Key()).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", repository.ErrUnknownPluginType, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find part %s: %w", id, err)
	}
	var def part.Definition
	if err := json.Unmarshal([]byte(data), &def); err != nil {
		return nil, fmt.Errorf("decode part %s: %w", id, err)
	}
	return &def, nil
}

// IsSubtypeOf walks stored base types and interfaces.
func (s *MetadataStore) IsSubtypeOf(child, parent *typesystem.TypeIdentity) bool {
	return repository.IsSubtypeOf(s, child, parent)
}

// LoadAll reads every stored type and part into a new in-memory repository.
func (s *MetadataStore) LoadAll(ctx context.Context) (*repository.Memory, error) {
	mem := repository.NewMemory()

	rows, err := s.db.QueryContext(ctx, `SELECT definition FROM type_definitions ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list types: %w", err)
	}
	err = eachJSON(rows, func(def *typesystem.TypeDefinition) error { return mem.AddType(def) })
	if err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `SELECT definition FROM part_definitions ORDER BY type_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list parts: %w", err)
	}
	if err := eachJSON(rows, func(def *part.Definition) error { return mem.AddPart(def) }); err != nil {
		return nil, err
	}
	return mem, nil
}

// Counts returns the number of stored types and parts.
func (s *MetadataStore) Counts(ctx context.Context) (types, parts int, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM type_definitions), (SELECT COUNT(*) FROM part_definitions)`,
	).Scan(&types, &parts)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count metadata: %w", err)
	}
	return types, parts, nil
}

// eachJSON decodes the single text column of every row into a fresh T and calls fn.
func eachJSON[T any](rows *sql.Rows, fn func(*T) error) error {
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
		v := new(T)
		if err := json.Unmarshal([]byte(data), v); err != nil {
			return fmt.Errorf("decode row: %w", err)
		}
		if err := fn(v); err != nil {
			return err
		}
	}
	return rows.Err()
}
