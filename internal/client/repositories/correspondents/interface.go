package correspondents

import (
	"context"

	"github.com/avlasov/paperdock/internal/client/models"
)

// Repository describes the cached-correspondent store.
type Repository interface {
	Upsert(ctx context.Context, c models.CachedCorrespondent) error
	SoftDelete(ctx context.Context, id int64, syncedAt int64) error
	GetAll(ctx context.Context, includeDeleted bool) ([]models.CachedCorrespondent, error)
	GetByID(ctx context.Context, id int64) (*models.CachedCorrespondent, error)
	PurgeDeletedOlderThan(ctx context.Context, cutoff int64) (int64, error)
}
