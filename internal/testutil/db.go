// Package testutil provides shared fixtures for composer tests: a small
// scanned plugin catalog and a migrated database in a temp directory.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/composer/internal/infrastructure/sqlite"
)

// NewTestDB opens a migrated database in t.TempDir. It is closed on cleanup.
func NewTestDB(t testing.TB) *sqlite.DB {
	t.Helper()
	db, err := sqlite.NewDB(filepath.Join(t.TempDir(), "composer.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}
