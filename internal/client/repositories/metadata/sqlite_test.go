package metadata

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE sync_metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at INTEGER NOT NULL DEFAULT 0
);
`)
	require.NoError(t, err)

	return db
}

func TestSetGetOverwrite(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	_, ok, err := r.Get(ctx, CursorKey("document"))
	require.NoError(t, err)
	assert.False(t, ok, "unset key reads as absent, not an error")

	require.NoError(t, r.Set(ctx, CursorKey("document"), "2025-01-01T00:00:00Z", 100))
	require.NoError(t, r.Set(ctx, CursorKey("document"), "2025-02-01T00:00:00Z", 200))

	v, ok, err := r.Get(ctx, CursorKey("document"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2025-02-01T00:00:00Z", v)

	var stamp int64
	require.NoError(t, db.QueryRow(`SELECT updated_at FROM sync_metadata WHERE key=?`, CursorKey("document")).Scan(&stamp))
	assert.Equal(t, int64(200), stamp)
}

func TestDeleteAndList(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "a", "1", 10))
	require.NoError(t, r.Set(ctx, "b", "2", 10))
	require.NoError(t, r.Delete(ctx, "a"))
	require.NoError(t, r.Delete(ctx, "missing"))

	all, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"b": "2"}, all)
}
