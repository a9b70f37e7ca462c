// Package remote defines the shape of the document-management server the
// client reconciles against. The reconciliation engine and the services
// depend only on the API interface; the REST implementation lives alongside.
package remote

import (
	"context"
	"encoding/json"

	"github.com/avlasov/paperdock/internal/client/models"
	"github.com/avlasov/paperdock/internal/common"
)

// ChangeSet is one page of remote changes for a single entity kind.
type ChangeSet struct {
	// Changed holds remote representations, raw; the engine decodes them
	// into the kind's remote struct.
	Changed []json.RawMessage

	// DeletedIDs are remote-reported tombstones.
	DeletedIDs []int64

	// NextCursor is the value to store once the whole set is applied.
	NextCursor string
}

// API is the remote collaborator. Implementations map transport failures onto
// the shared sentinel errors: common.ErrUnavailable for transient faults,
// common.ErrNotFound for missing entities, and *ConflictError (wrapping
// common.ErrConflict) when the server's version diverged.
type API interface {
	// FetchChanged returns entities of one kind changed since the cursor,
	// plus tombstones. An empty cursor means "everything".
	FetchChanged(ctx context.Context, kind models.EntityType, since string) (*ChangeSet, error)

	// Create submits a new entity and returns the server's representation,
	// remote id included.
	Create(ctx context.Context, kind models.EntityType, payload json.RawMessage) (json.RawMessage, error)

	// Update submits new state for an existing entity and returns the
	// server's representation.
	Update(ctx context.Context, kind models.EntityType, id int64, payload json.RawMessage) (json.RawMessage, error)

	// Delete removes an entity. Deleting a missing entity returns
	// common.ErrNotFound.
	Delete(ctx context.Context, kind models.EntityType, id int64) error

	// Ping probes server reachability.
	Ping(ctx context.Context) error
}

// ConflictError reports that the server rejected a write because its version
// differs from the snapshot's assumed base. Server carries the winning copy
// when the server returned one.
type ConflictError struct {
	Server json.RawMessage
}

func (e *ConflictError) Error() string { return common.ErrConflict.Error() }

func (e *ConflictError) Unwrap() error { return common.ErrConflict }
