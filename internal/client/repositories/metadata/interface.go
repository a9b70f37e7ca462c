package metadata

import "context"

// Repository is a durable key/value store for scalar sync state (cursors,
// last-full-sync timestamp). It is not an event log.
type Repository interface {
	// Get returns the value for key, or "" with ok=false when unset.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key and stamps the update time.
	Set(ctx context.Context, key, value string, updatedAt int64) error

	// Delete removes key; missing keys are a no-op.
	Delete(ctx context.Context, key string) error

	// List returns every stored key/value pair.
	List(ctx context.Context) (map[string]string, error)
}
