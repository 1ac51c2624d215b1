package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) locationStore {
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
	})

	repo := NewSQLite(db)
	repo.now = func() time.Time { return testNow }
	return repo
}

func TestSQLiteRepository(t *testing.T) {
	runRepositoryCases(t, newTestSQLite)
}

func TestOpenSQLite_CreatesDirectoryAndReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "imagery.db")

	db, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Migrations are idempotent.
	db, err = OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestOpen(t *testing.T) {
	store, closeFn, err := Open(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	defer closeFn()
	require.IsType(t, &SQLite{}, store)

	_, _, err = Open(context.Background(), "mysql", "")
	require.Error(t, err)
}
