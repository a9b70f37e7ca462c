package documents

import (
	"context"

	"github.com/avlasov/paperdock/internal/client/models"
)

// Repository describes the cached-document store. Writes (Upsert, SoftDelete,
// Purge) are reserved for the reconciliation engine; domain-level services
// only read.
type Repository interface {
	// Upsert inserts or replaces a cached document keyed by its remote id.
	// Applying the same value twice yields the same stored state.
	Upsert(ctx context.Context, d models.CachedDocument) error

	// SoftDelete tombstones a document and bumps its last-synced stamp.
	// Missing rows are a no-op.
	SoftDelete(ctx context.Context, id int64, syncedAt int64) error

	// GetAll returns cached documents; tombstones only when includeDeleted.
	GetAll(ctx context.Context, includeDeleted bool) ([]models.CachedDocument, error)

	// GetByID returns a non-deleted document or common.ErrNotFound.
	GetByID(ctx context.Context, id int64) (*models.CachedDocument, error)

	// FindByOriginalFileName returns non-deleted documents with the given
	// original file name.
	FindByOriginalFileName(ctx context.Context, name string) ([]models.CachedDocument, error)

	// PurgeDeletedOlderThan removes tombstones whose last-synced stamp is
	// older than cutoff and reports how many rows went away.
	PurgeDeletedOlderThan(ctx context.Context, cutoff int64) (int64, error)
}
