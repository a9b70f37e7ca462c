package models

import (
	"encoding/json"
	"strconv"
	"time"
)

// ChangeType classifies a pending local mutation.
type ChangeType string

const (
	ChangeCreate ChangeType = "create"
	ChangeUpdate ChangeType = "update"
	ChangeDelete ChangeType = "delete"
)

// PendingChange is a locally made mutation not yet confirmed by the server.
//
// EntityID is nil for creations whose remote identity has not been assigned
// yet; LocalID then carries a client-generated uuid so later changes to the
// same unsynced entity can still be correlated.
type PendingChange struct {
	ID           int64
	EntityType   EntityType
	EntityID     *int64
	LocalID      string
	ChangeType   ChangeType
	ChangeData   json.RawMessage
	CreatedAt    time.Time
	SyncAttempts int
	LastError    string
}

// EntityKey returns a stable per-entity ordering key: the remote id when
// assigned, otherwise the local uuid. Draining serializes changes that share
// a key.
func (c PendingChange) EntityKey() string {
	if c.EntityID != nil {
		return string(c.EntityType) + "#" + strconv.FormatInt(*c.EntityID, 10)
	}
	return string(c.EntityType) + "@" + c.LocalID
}
