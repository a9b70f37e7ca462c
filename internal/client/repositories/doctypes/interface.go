package doctypes

import (
	"context"

	"github.com/avlasov/paperdock/internal/client/models"
)

// Repository describes the cached document-type store.
type Repository interface {
	Upsert(ctx context.Context, d models.CachedDocumentType) error
	SoftDelete(ctx context.Context, id int64, syncedAt int64) error
	GetAll(ctx context.Context, includeDeleted bool) ([]models.CachedDocumentType, error)
	GetByID(ctx context.Context, id int64) (*models.CachedDocumentType, error)
	PurgeDeletedOlderThan(ctx context.Context, cutoff int64) (int64, error)
}
