package correspondents

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

func (r *SQLiteRepository) Upsert(ctx context.Context, c models.CachedCorrespondent) error {
	query := `INSERT INTO correspondents (id, name, last_synced_at, is_deleted)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			last_synced_at = MAX(correspondents.last_synced_at, excluded.last_synced_at),
			is_deleted = excluded.is_deleted
	`
	_, err := r.db.ExecContext(ctx, query, c.ID, c.Name, c.LastSyncedAt, c.IsDeleted)
	if err != nil {
		return fmt.Errorf("failed to upsert correspondent: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SoftDelete(ctx context.Context, id int64, syncedAt int64) error {
	query := `UPDATE correspondents SET is_deleted = 1, last_synced_at = MAX(last_synced_at, ?) WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, syncedAt, id); err != nil {
		return fmt.Errorf("failed to soft-delete correspondent %d: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context, includeDeleted bool) ([]models.CachedCorrespondent, error) {
	query := `SELECT id, name, last_synced_at, is_deleted FROM correspondents`
	if !includeDeleted {
		query += ` WHERE is_deleted = 0`
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select correspondents: %w", err)
	}
	defer rows.Close()

	var result []models.CachedCorrespondent
	for rows.Next() {
		var c models.CachedCorrespondent
		if err := rows.Scan(&c.ID, &c.Name, &c.LastSyncedAt, &c.IsDeleted); err != nil {
			return nil, fmt.Errorf("failed to scan correspondent row: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.CachedCorrespondent, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, last_synced_at, is_deleted FROM correspondents WHERE id = ? AND is_deleted = 0`, id)

	var c models.CachedCorrespondent
	err := row.Scan(&c.ID, &c.Name, &c.LastSyncedAt, &c.IsDeleted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get correspondent %d: %w", id, err)
	}
	return &c, nil
}

func (r *SQLiteRepository) PurgeDeletedOlderThan(ctx context.Context, cutoff int64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM correspondents WHERE is_deleted = 1 AND last_synced_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge correspondents: %w", err)
	}
	return res.RowsAffected()
}
