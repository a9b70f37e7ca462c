package tags

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
CREATE TABLE tags (
  id INTEGER PRIMARY KEY,
  name TEXT NOT NULL DEFAULT '',
  color TEXT NOT NULL DEFAULT '',
  is_inbox_tag INTEGER NOT NULL DEFAULT 0,
  last_synced_at INTEGER NOT NULL DEFAULT 0,
  is_deleted INTEGER NOT NULL DEFAULT 0
);
`)
	require.NoError(t, err)

	return db
}

func TestUpsert_InsertAndUpdate(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	tag := models.CachedTag{ID: 1, Name: "inbox", Color: "#f00", IsInboxTag: true, LastSyncedAt: 100}
	require.NoError(t, r.Upsert(ctx, tag))
	require.NoError(t, r.Upsert(ctx, tag))

	got, err := r.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, tag, *got)

	tag.Name = "archive"
	tag.LastSyncedAt = 200
	require.NoError(t, r.Upsert(ctx, tag))

	got, err = r.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "archive", got.Name)
	assert.Equal(t, int64(200), got.LastSyncedAt)
}

func TestSoftDelete_ExcludedFromReads(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Upsert(ctx, models.CachedTag{ID: 1, Name: "a", LastSyncedAt: 100}))
	require.NoError(t, r.Upsert(ctx, models.CachedTag{ID: 2, Name: "b", LastSyncedAt: 100}))
	require.NoError(t, r.SoftDelete(ctx, 1, 500))

	visible, err := r.GetAll(ctx, false)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, int64(2), visible[0].ID)

	all, err := r.GetAll(ctx, true)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, all[0].IsDeleted)
}

func TestPurgeDeletedOlderThan_KeepsFreshTombstones(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Upsert(ctx, models.CachedTag{ID: 1, LastSyncedAt: 100}))
	require.NoError(t, r.SoftDelete(ctx, 1, 100))

	n, err := r.PurgeDeletedOlderThan(ctx, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = r.PurgeDeletedOlderThan(ctx, 200)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
