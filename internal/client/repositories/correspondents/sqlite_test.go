package correspondents

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/avlasov/paperdock/internal/client/models"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE correspondents (
  id INTEGER PRIMARY KEY,
  name TEXT NOT NULL DEFAULT '',
  last_synced_at INTEGER NOT NULL DEFAULT 0,
  is_deleted INTEGER NOT NULL DEFAULT 0
);
`)
	require.NoError(t, err)

	return db
}

func TestUpsertAndTombstone(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	c := models.CachedCorrespondent{ID: 1, Name: "City Utilities", LastSyncedAt: 100}
	require.NoError(t, r.Upsert(ctx, c))
	require.NoError(t, r.Upsert(ctx, c))

	got, err := r.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, c, *got)

	require.NoError(t, r.SoftDelete(ctx, 1, 200))

	visible, err := r.GetAll(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, visible)

	all, err := r.GetAll(ctx, true)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].IsDeleted)
}
