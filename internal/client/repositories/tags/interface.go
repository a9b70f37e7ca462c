package tags

import (
	"context"

	"github.com/avlasov/paperdock/internal/client/models"
)

// Repository describes the cached-tag store. Only the reconciliation engine
// writes; domain-level services read.
type Repository interface {
	Upsert(ctx context.Context, t models.CachedTag) error
	SoftDelete(ctx context.Context, id int64, syncedAt int64) error
	GetAll(ctx context.Context, includeDeleted bool) ([]models.CachedTag, error)
	GetByID(ctx context.Context, id int64) (*models.CachedTag, error)
	PurgeDeletedOlderThan(ctx context.Context, cutoff int64) (int64, error)
}
