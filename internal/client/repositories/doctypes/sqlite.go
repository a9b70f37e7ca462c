package doctypes

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

func (r *SQLiteRepository) Upsert(ctx context.Context, d models.CachedDocumentType) error {
	query := `INSERT INTO document_types (id, name, last_synced_at, is_deleted)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			last_synced_at = MAX(document_types.last_synced_at, excluded.last_synced_at),
			is_deleted = excluded.is_deleted
	`
	_, err := r.db.ExecContext(ctx, query, d.ID, d.Name, d.LastSyncedAt, d.IsDeleted)
	if err != nil {
		return fmt.Errorf("failed to upsert document type: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SoftDelete(ctx context.Context, id int64, syncedAt int64) error {
	query := `UPDATE document_types SET is_deleted = 1, last_synced_at = MAX(last_synced_at, ?) WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, syncedAt, id); err != nil {
		return fmt.Errorf("failed to soft-delete document type %d: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context, includeDeleted bool) ([]models.CachedDocumentType, error) {
	query := `SELECT id, name, last_synced_at, is_deleted FROM document_types`
	if !includeDeleted {
		query += ` WHERE is_deleted = 0`
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select document types: %w", err)
	}
	defer rows.Close()

	var result []models.CachedDocumentType
	for rows.Next() {
		var d models.CachedDocumentType
		if err := rows.Scan(&d.ID, &d.Name, &d.LastSyncedAt, &d.IsDeleted); err != nil {
			return nil, fmt.Errorf("failed to scan document type row: %w", err)
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.CachedDocumentType, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, last_synced_at, is_deleted FROM document_types WHERE id = ? AND is_deleted = 0`, id)

	var d models.CachedDocumentType
	err := row.Scan(&d.ID, &d.Name, &d.LastSyncedAt, &d.IsDeleted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document type %d: %w", id, err)
	}
	return &d, nil
}

func (r *SQLiteRepository) PurgeDeletedOlderThan(ctx context.Context, cutoff int64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM document_types WHERE is_deleted = 1 AND last_synced_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge document types: %w", err)
	}
	return res.RowsAffected()
}
