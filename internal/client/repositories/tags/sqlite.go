package tags

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/avlasov/paperdock/internal/client/models"
	"github.com/avlasov/paperdock/internal/common"
	"github.com/avlasov/paperdock/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Upsert(ctx context.Context, t models.CachedTag) error {
	query := `INSERT INTO tags (id, name, color, is_inbox_tag, last_synced_at, is_deleted)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			color = excluded.color,
			is_inbox_tag = excluded.is_inbox_tag,
			last_synced_at = MAX(tags.last_synced_at, excluded.last_synced_at),
			is_deleted = excluded.is_deleted
	`
	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.Name, t.Color, t.IsInboxTag, t.LastSyncedAt, t.IsDeleted)
	if err != nil {
		return fmt.Errorf("failed to upsert tag: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SoftDelete(ctx context.Context, id int64, syncedAt int64) error {
	query := `UPDATE tags SET is_deleted = 1, last_synced_at = MAX(last_synced_at, ?) WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, syncedAt, id); err != nil {
		return fmt.Errorf("failed to soft-delete tag %d: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context, includeDeleted bool) ([]models.CachedTag, error) {
	query := `SELECT id, name, color, is_inbox_tag, last_synced_at, is_deleted FROM tags`
	if !includeDeleted {
		query += ` WHERE is_deleted = 0`
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select tags: %w", err)
	}
	defer rows.Close()

	var result []models.CachedTag
	for rows.Next() {
		var t models.CachedTag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &t.IsInboxTag, &t.LastSyncedAt, &t.IsDeleted); err != nil {
			return nil, fmt.Errorf("failed to scan tag row: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.CachedTag, error) {
	query := `SELECT id, name, color, is_inbox_tag, last_synced_at, is_deleted
		FROM tags WHERE id = ? AND is_deleted = 0`
	row := r.db.QueryRowContext(ctx, query, id)

	var t models.CachedTag
	err := row.Scan(&t.ID, &t.Name, &t.Color, &t.IsInboxTag, &t.LastSyncedAt, &t.IsDeleted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tag %d: %w", id, err)
	}
	return &t, nil
}

func (r *SQLiteRepository) PurgeDeletedOlderThan(ctx context.Context, cutoff int64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM tags WHERE is_deleted = 1 AND last_synced_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge tags: %w", err)
	}
	return res.RowsAffected()
}
