package pending

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/avlasov/paperdock/internal/client/models"
	"github.com/avlasov/paperdock/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const changeColumns = `id, entity_type, entity_id, local_id, change_type, change_data,
	created_at, sync_attempts, last_error`

func (r *SQLiteRepository) Enqueue(ctx context.Context, c models.PendingChange) (int64, error) {
	query := `INSERT INTO pending_changes
			(entity_type, entity_id, local_id, change_type, change_data, created_at, sync_attempts, last_error)
		VALUES (?, ?, ?, ?, ?, ?, 0, NULL)`

	res, err := r.db.ExecContext(ctx, query,
		string(c.EntityType), c.EntityID, c.LocalID, string(c.ChangeType),
		string(c.ChangeData), c.CreatedAt.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to enqueue change: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get queue id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) DequeueBatch(ctx context.Context, limit int) ([]models.PendingChange, error) {
	query := `SELECT ` + changeColumns + ` FROM pending_changes ORDER BY id LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select pending changes: %w", err)
	}
	defer rows.Close()
	return scanChanges(rows)
}

func (r *SQLiteRepository) MarkSucceeded(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM pending_changes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to mark change %d succeeded: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) MarkFailed(ctx context.Context, id int64, cause string) error {
	query := `UPDATE pending_changes SET sync_attempts = sync_attempts + 1, last_error = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, cause, id); err != nil {
		return fmt.Errorf("failed to mark change %d failed: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) ListByEntity(ctx context.Context, entityType models.EntityType, entityID int64) ([]models.PendingChange, error) {
	query := `SELECT ` + changeColumns + ` FROM pending_changes
		WHERE entity_type = ? AND entity_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, string(entityType), entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list changes by entity: %w", err)
	}
	defer rows.Close()
	return scanChanges(rows)
}

func (r *SQLiteRepository) ListByLocalID(ctx context.Context, localID string) ([]models.PendingChange, error) {
	query := `SELECT ` + changeColumns + ` FROM pending_changes WHERE local_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, localID)
	if err != nil {
		return nil, fmt.Errorf("failed to list changes by local id: %w", err)
	}
	defer rows.Close()
	return scanChanges(rows)
}

func (r *SQLiteRepository) ListCreates(ctx context.Context, entityType models.EntityType) ([]models.PendingChange, error) {
	query := `SELECT ` + changeColumns + ` FROM pending_changes
		WHERE entity_type = ? AND change_type = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, string(entityType), string(models.ChangeCreate))
	if err != nil {
		return nil, fmt.Errorf("failed to list queued creates: %w", err)
	}
	defer rows.Close()
	return scanChanges(rows)
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM pending_changes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete change %d: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) AssignEntityID(ctx context.Context, localID string, entityID int64) error {
	query := `UPDATE pending_changes SET entity_id = ? WHERE local_id = ? AND entity_id IS NULL`
	if _, err := r.db.ExecContext(ctx, query, entityID, localID); err != nil {
		return fmt.Errorf("failed to assign entity id for %s: %w", localID, err)
	}
	return nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_changes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count pending changes: %w", err)
	}
	return n, nil
}

func scanChanges(rows *sql.Rows) ([]models.PendingChange, error) {
	var result []models.PendingChange
	for rows.Next() {
		c, err := scanChange(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanChange(rows *sql.Rows) (models.PendingChange, error) {
	var (
		c          models.PendingChange
		entityType string
		changeType string
		changeData string
		createdAt  int64
		lastError  sql.NullString
	)
	err := rows.Scan(&c.ID, &entityType, &c.EntityID, &c.LocalID, &changeType,
		&changeData, &createdAt, &c.SyncAttempts, &lastError)
	if err != nil {
		return models.PendingChange{}, fmt.Errorf("failed to scan pending change: %w", err)
	}
	c.EntityType = models.EntityType(entityType)
	c.ChangeType = models.ChangeType(changeType)
	c.ChangeData = []byte(changeData)
	c.CreatedAt = millisToTime(createdAt)
	if lastError.Valid {
		c.LastError = lastError.String
	}
	return c, nil
}

func millisToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
