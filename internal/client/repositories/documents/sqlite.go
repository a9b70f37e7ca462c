package documents

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

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const documentColumns = `id, title, correspondent_id, document_type_id, tag_ids,
	created, added, modified, original_file_name, last_synced_at, is_deleted`

// Upsert inserts or replaces a document by id. last_synced_at never moves
// backwards, even when an older snapshot is re-applied.
func (r *SQLiteRepository) Upsert(ctx context.Context, d models.CachedDocument) error {
	query := `INSERT INTO documents (id, title, correspondent_id, document_type_id, tag_ids,
			created, added, modified, original_file_name, last_synced_at, is_deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			correspondent_id = excluded.correspondent_id,
			document_type_id = excluded.document_type_id,
			tag_ids = excluded.tag_ids,
			created = excluded.created,
			added = excluded.added,
			modified = excluded.modified,
			original_file_name = excluded.original_file_name,
			last_synced_at = MAX(documents.last_synced_at, excluded.last_synced_at),
			is_deleted = excluded.is_deleted
	`
	_, err := r.db.ExecContext(ctx, query,
		d.ID, d.Title, d.CorrespondentID, d.DocumentTypeID, d.TagIDs,
		d.Created, d.Added, d.Modified, d.OriginalFileName, d.LastSyncedAt, d.IsDeleted)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}
	return nil
}

// SoftDelete tombstones a document. The row stays put so stale pending
// changes can still resolve against it.
func (r *SQLiteRepository) SoftDelete(ctx context.Context, id int64, syncedAt int64) error {
	query := `UPDATE documents SET is_deleted = 1, last_synced_at = MAX(last_synced_at, ?) WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, syncedAt, id); err != nil {
		return fmt.Errorf("failed to soft-delete document %d: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context, includeDeleted bool) ([]models.CachedDocument, error) {
	query := `SELECT ` + documentColumns + ` FROM documents`
	if !includeDeleted {
		query += ` WHERE is_deleted = 0`
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select documents: %w", err)
	}
	defer rows.Close()

	var result []models.CachedDocument
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.CachedDocument, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = ? AND is_deleted = 0`
	row := r.db.QueryRowContext(ctx, query, id)

	var d models.CachedDocument
	err := row.Scan(&d.ID, &d.Title, &d.CorrespondentID, &d.DocumentTypeID, &d.TagIDs,
		&d.Created, &d.Added, &d.Modified, &d.OriginalFileName, &d.LastSyncedAt, &d.IsDeleted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document %d: %w", id, err)
	}
	return &d, nil
}

func (r *SQLiteRepository) FindByOriginalFileName(ctx context.Context, name string) ([]models.CachedDocument, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE original_file_name = ? AND is_deleted = 0`
	rows, err := r.db.QueryContext(ctx, query, name)
	if err != nil {
		return nil, fmt.Errorf("failed to select documents by file name: %w", err)
	}
	defer rows.Close()

	var result []models.CachedDocument
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) PurgeDeletedOlderThan(ctx context.Context, cutoff int64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM documents WHERE is_deleted = 1 AND last_synced_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge documents: %w", err)
	}
	return res.RowsAffected()
}

func scanDocument(rows *sql.Rows) (models.CachedDocument, error) {
	var d models.CachedDocument
	err := rows.Scan(&d.ID, &d.Title, &d.CorrespondentID, &d.DocumentTypeID, &d.TagIDs,
		&d.Created, &d.Added, &d.Modified, &d.OriginalFileName, &d.LastSyncedAt, &d.IsDeleted)
	if err != nil {
		return models.CachedDocument{}, fmt.Errorf("failed to scan document row: %w", err)
	}
	return d, nil
}
