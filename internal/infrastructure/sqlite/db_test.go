package sqlite_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/composer/internal/infrastructure/sqlite"
)

func TestNewDB_CreatesDirectoryAndFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "subdir", "nested", "test.db")

	db, err := sqlite.NewDB(dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	info, err := os.Stat(filepath.Dir(dbPath))
	require.NoError(t, err)
	require.True(t, info.IsDir())
	if runtime.GOOS != "windows" {
		require.Equal(t, os.FileMode(0o700), info.Mode().Perm())
	}
	_, err = os.Stat(dbPath)
	require.NoError(t, err)
	require.Equal(t, dbPath, db.Path())
}

func TestNewDB_Pragmas(t *testing.T) {
	db, err := sqlite.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var journalMode string
	require.NoError(t, db.Connection().QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	require.Equal(t, "wal", journalMode)

	var foreignKeys, busyTimeout int
	require.NoError(t, db.Connection().QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys))
	require.Equal(t, 1, foreignKeys)
	require.NoError(t, db.Connection().QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout))
	require.Equal(t, 5000, busyTimeout)
}

func TestNewDB_PreMigrationBackup(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db1, err := sqlite.NewDB(dbPath)
	require.NoError(t, err)
	_, err = os.Stat(dbPath + ".bak")
	require.ErrorIs(t, err, os.ErrNotExist, "a fresh database has nothing to back up")
	require.NoError(t, db1.Close())

	db2, err := sqlite.NewDB(dbPath)
	require.NoError(t, err)
	defer func() { _ = db2.Close() }()

	info, err := os.Stat(dbPath + ".bak")
	require.NoError(t, err)
	require.Positive(t, info.Size())
}

func TestNewDB_ReopenIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db1, err := sqlite.NewDB(dbPath)
	require.NoError(t, err)
	defer func() { _ = db1.Close() }()

	db2, err := sqlite.NewDB(dbPath)
	require.NoError(t, err)
	defer func() { _ = db2.Close() }()

	var count int
	require.NoError(t, db2.Connection().QueryRow("SELECT COUNT(*) FROM snapshots").Scan(&count))
	require.Zero(t, count)
}

func TestDB_Close(t *testing.T) {
	db, err := sqlite.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.Close())
	require.Error(t, db.Connection().Ping())
}

func TestNewDB_InvalidPath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	_, err := sqlite.NewDB(filepath.Join(blocker, "test.db"))
	require.Error(t, err)
}
