package pending

import (
	"context"

	"github.com/avlasov/paperdock/internal/client/models"
)

// Repository describes the durable pending-change queue. The queue is
// append-mostly: rows are created by local write operations, deleted on
// confirmed success, and retained with an incremented attempt counter on
// failure. Draining order is creation order, globally across entity kinds.
type Repository interface {
	// Enqueue appends a change and returns its queue id. The caller fills
	// everything except ID and SyncAttempts.
	Enqueue(ctx context.Context, c models.PendingChange) (int64, error)

	// DequeueBatch returns up to limit changes, oldest first. Rows are not
	// removed; the reconciliation engine deletes them on confirmed success.
	DequeueBatch(ctx context.Context, limit int) ([]models.PendingChange, error)

	// MarkSucceeded removes a confirmed change.
	MarkSucceeded(ctx context.Context, id int64) error

	// MarkFailed increments the attempt counter and records the error.
	// The row remains for retry; dropping past-N changes is a UI decision,
	// never the queue's.
	MarkFailed(ctx context.Context, id int64, cause string) error

	// ListByEntity returns outstanding changes for one remotely-identified
	// entity, oldest first.
	ListByEntity(ctx context.Context, entityType models.EntityType, entityID int64) ([]models.PendingChange, error)

	// ListByLocalID returns outstanding changes correlated by the client
	// uuid of a not-yet-synced creation, oldest first.
	ListByLocalID(ctx context.Context, localID string) ([]models.PendingChange, error)

	// ListCreates returns outstanding Create changes for one entity kind,
	// oldest first. The inbox watcher uses it to avoid re-queueing a file
	// whose creation has not reached the cache yet.
	ListCreates(ctx context.Context, entityType models.EntityType) ([]models.PendingChange, error)

	// DeleteByID removes a change without contacting the remote. Used when
	// a delete collapses an unconfirmed create.
	DeleteByID(ctx context.Context, id int64) error

	// AssignEntityID stamps the server-assigned id onto every queued change
	// still correlated only by the creation's local uuid.
	AssignEntityID(ctx context.Context, localID string, entityID int64) error

	// Count reports the number of outstanding changes.
	Count(ctx context.Context) (int64, error)
}
