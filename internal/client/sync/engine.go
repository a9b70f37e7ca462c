// Package sync implements the reconciliation engine: one pull-then-drain
// cycle between the local cache and the remote server. The engine is the only
// writer of the entity cache; everything else reads.
package sync

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	stdsync "sync"
	"sync/atomic"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/avlasov/paperdock/internal/client/mapper"
	"github.com/avlasov/paperdock/internal/client/models"
	"github.com/avlasov/paperdock/internal/client/remote"
	"github.com/avlasov/paperdock/internal/client/repositories/correspondents"
	"github.com/avlasov/paperdock/internal/client/repositories/doctypes"
	"github.com/avlasov/paperdock/internal/client/repositories/documents"
	"github.com/avlasov/paperdock/internal/client/repositories/metadata"
	"github.com/avlasov/paperdock/internal/client/repositories/pending"
	"github.com/avlasov/paperdock/internal/client/repositories/tags"
	"github.com/avlasov/paperdock/internal/common"
	"github.com/avlasov/paperdock/internal/dbx"
	"github.com/avlasov/paperdock/internal/logging"
)

const defaultBatchSize = 50

// Engine orchestrates reconciliation cycles. At most one cycle runs at a
// time; concurrent triggers are coalesced, not queued.
type Engine struct {
	db        *sql.DB
	remote    remote.API
	log       logging.Logger
	now       func() time.Time
	batchSize int

	busy atomic.Bool

	mu    stdsync.Mutex
	state State
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock overrides the engine's clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithBatchSize bounds how many pending changes one drain takes.
func WithBatchSize(n int) Option {
	return func(e *Engine) { e.batchSize = n }
}

// NewEngine returns an engine bound to the local database and the remote API.
func NewEngine(db *sql.DB, api remote.API, log logging.Logger, opts ...Option) *Engine {
	e := &Engine{
		db:        db,
		remote:    api,
		log:       log,
		now:       time.Now,
		batchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Observe returns a copy of the current engine state.
func (e *Engine) Observe() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// TriggerSync starts a cycle in the background, fire-and-forget. A trigger
// while a cycle is in flight is dropped.
func (e *Engine) TriggerSync() {
	go e.RunCycle(context.Background())
}

// RunCycle performs one pull-then-drain pass and reports whether it ran
// (false means it was coalesced into an in-flight cycle). The cycle never
// propagates failures: every error is recorded into the observable state.
// The two phases are independent; a failed pull does not block the drain.
func (e *Engine) RunCycle(ctx context.Context) bool {
	if !e.busy.CompareAndSwap(false, true) {
		e.log.Debug(ctx, "sync trigger coalesced, cycle already in flight")
		return false
	}
	defer e.busy.Store(false)

	var res CycleResult

	e.setPhase(PhasePulling)
	pullErr := e.pull(ctx, &res)
	if pullErr != nil {
		e.setPhase(PhaseFailed)
		e.log.Error(ctx, "pull phase failed", "error", pullErr)
	}

	e.setPhase(PhaseDraining)
	drainErr := e.drain(ctx, &res)
	if drainErr != nil {
		e.setPhase(PhaseFailed)
		e.log.Error(ctx, "drain phase failed", "error", drainErr)
	}

	e.mu.Lock()
	e.state.Phase = PhaseIdle
	e.state.LastCycleAt = e.now()
	e.state.LastResult = res
	e.state.LastError = ""
	if err := errors.Join(pullErr, drainErr); err != nil {
		e.state.LastError = err.Error()
	}
	e.mu.Unlock()

	e.log.Info(ctx, "sync cycle finished",
		"pulled", res.Pulled, "tombstoned", res.Tombstoned,
		"drained", res.Drained, "failed", res.Failed, "conflicts", len(res.Conflicts))
	return true
}

func (e *Engine) setPhase(p Phase) {
	e.mu.Lock()
	e.state.Phase = p
	e.mu.Unlock()
}

// pull fetches remote changes per kind and applies each kind's changeset in
// one transaction, cursor included, so a partial failure re-pulls the same
// page on the next cycle.
func (e *Engine) pull(ctx context.Context, res *CycleResult) error {
	for _, kind := range models.EntityTypes {
		if err := e.pullKind(ctx, kind, res); err != nil {
			return fmt.Errorf("pull %s: %w", kind, err)
		}
	}
	return nil
}

func (e *Engine) pullKind(ctx context.Context, kind models.EntityType, res *CycleResult) error {
	meta := metadata.NewSQLiteRepository(e.db)
	since, _, err := meta.Get(ctx, metadata.CursorKey(string(kind)))
	if err != nil {
		return err
	}

	var cs *remote.ChangeSet
	backoff := retry.WithMaxRetries(2, retry.NewExponential(200*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		var ferr error
		cs, ferr = e.remote.FetchChanged(ctx, kind, since)
		if errors.Is(ferr, common.ErrUnavailable) {
			return retry.RetryableError(ferr)
		}
		return ferr
	})
	if err != nil {
		return err
	}

	now := e.now()
	upserted, tombstoned := 0, 0
	err = dbx.WithTx(ctx, e.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, raw := range cs.Changed {
			if err := upsertRemote(ctx, tx, kind, raw, now); err != nil {
				return err
			}
			upserted++
		}
		for _, id := range cs.DeletedIDs {
			if err := softDelete(ctx, tx, kind, id, now.UnixMilli()); err != nil {
				return err
			}
			tombstoned++
		}
		if cs.NextCursor != "" && cs.NextCursor != since {
			return metadata.NewSQLiteRepository(tx).
				Set(ctx, metadata.CursorKey(string(kind)), cs.NextCursor, now.UnixMilli())
		}
		return nil
	})
	if err != nil {
		return err
	}
	res.Pulled += upserted
	res.Tombstoned += tombstoned
	return nil
}

// drain sends queued local changes in creation order. A failing change blocks
// only later changes for the same entity; independent entities continue.
func (e *Engine) drain(ctx context.Context, res *CycleResult) error {
	queue := pending.NewSQLiteRepository(e.db)
	batch, err := queue.DequeueBatch(ctx, e.batchSize)
	if err != nil {
		return fmt.Errorf("drain: %w", err)
	}

	blocked := make(map[string]bool)
	assigned := make(map[string]int64)

	for _, c := range batch {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("drain cancelled: %w", err)
		}

		key := c.EntityKey()
		if blocked[key] {
			continue
		}
		if c.EntityID == nil {
			// A create confirmed earlier in this batch already assigned
			// the remote id; the row read predates that write.
			if id, ok := assigned[c.LocalID]; ok {
				c.EntityID = &id
			}
		}

		conflict, err := e.applyChange(ctx, c, assigned)
		if err != nil {
			res.Failed++
			blocked[key] = true
			if mferr := queue.MarkFailed(ctx, c.ID, err.Error()); mferr != nil {
				return fmt.Errorf("drain: %w", mferr)
			}
			e.log.Warn(ctx, "pending change not applied",
				"change_id", c.ID, "entity", key, "attempts", c.SyncAttempts+1, "error", err)
			continue
		}
		res.Drained++
		if conflict != nil {
			res.Conflicts = append(res.Conflicts, *conflict)
			e.log.Info(ctx, "conflict resolved, server copy kept",
				"entity_type", conflict.EntityType, "entity_id", conflict.EntityID)
		}
	}
	return nil
}

// applyChange pushes one pending change to the remote. On success the queue
// row is gone and the cache reflects the server's answer, atomically.
func (e *Engine) applyChange(ctx context.Context, c models.PendingChange, assigned map[string]int64) (*ConflictOutcome, error) {
	switch c.ChangeType {
	case models.ChangeCreate:
		return e.applyCreate(ctx, c, assigned)
	case models.ChangeUpdate:
		return e.applyUpdate(ctx, c)
	case models.ChangeDelete:
		return e.applyDelete(ctx, c)
	default:
		return nil, fmt.Errorf("%w: unknown change type %q", common.ErrMalformedSnapshot, c.ChangeType)
	}
}

func (e *Engine) applyCreate(ctx context.Context, c models.PendingChange, assigned map[string]int64) (*ConflictOutcome, error) {
	body, err := e.remote.Create(ctx, c.EntityType, c.ChangeData)

	var conflictErr *remote.ConflictError
	if errors.As(err, &conflictErr) {
		id, cerr := e.confirmWithBody(ctx, c, conflictErr.Server)
		if cerr != nil {
			return nil, cerr
		}
		if c.LocalID != "" {
			assigned[c.LocalID] = id
		}
		return &ConflictOutcome{EntityType: c.EntityType, EntityID: id}, nil
	}
	if err != nil {
		return nil, err
	}

	id, err := e.confirmWithBody(ctx, c, body)
	if err != nil {
		return nil, err
	}
	if c.LocalID != "" {
		assigned[c.LocalID] = id
	}
	return nil, nil
}

func (e *Engine) applyUpdate(ctx context.Context, c models.PendingChange) (*ConflictOutcome, error) {
	if c.EntityID == nil {
		return nil, fmt.Errorf("%w: update without entity id", common.ErrMalformedSnapshot)
	}
	id := *c.EntityID

	body, err := e.remote.Update(ctx, c.EntityType, id, c.ChangeData)

	var conflictErr *remote.ConflictError
	switch {
	case errors.As(err, &conflictErr):
		if _, cerr := e.confirmWithBody(ctx, c, conflictErr.Server); cerr != nil {
			return nil, cerr
		}
		return &ConflictOutcome{EntityType: c.EntityType, EntityID: id}, nil
	case errors.Is(err, common.ErrNotFound):
		// Entity vanished remotely; resolve against the tombstone as a no-op.
		return nil, e.confirmDeleted(ctx, c, id)
	case err != nil:
		return nil, err
	}

	_, err = e.confirmWithBody(ctx, c, body)
	return nil, err
}

func (e *Engine) applyDelete(ctx context.Context, c models.PendingChange) (*ConflictOutcome, error) {
	if c.EntityID == nil {
		// The create never reached the server, so there is nothing remote
		// to delete. (The queue collapses most of these before they land.)
		return nil, pending.NewSQLiteRepository(e.db).MarkSucceeded(ctx, c.ID)
	}
	id := *c.EntityID

	err := e.remote.Delete(ctx, c.EntityType, id)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}
	return nil, e.confirmDeleted(ctx, c, id)
}

// confirmWithBody finishes a confirmed create/update: upsert the server's
// representation into the cache and delete the queue row in one transaction.
func (e *Engine) confirmWithBody(ctx context.Context, c models.PendingChange, body json.RawMessage) (int64, error) {
	id, err := decodeID(body)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", common.ErrMalformedSnapshot, err)
	}

	now := e.now()
	err = dbx.WithTx(ctx, e.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := upsertRemote(ctx, tx, c.EntityType, body, now); err != nil {
			return err
		}
		q := pending.NewSQLiteRepository(tx)
		if err := q.MarkSucceeded(ctx, c.ID); err != nil {
			return err
		}
		if c.LocalID != "" {
			if err := q.AssignEntityID(ctx, c.LocalID, id); err != nil {
				return err
			}
			// Keep the uuid resolvable after the queue row is gone, for
			// local-id operations issued once the create confirmed.
			return metadata.NewSQLiteRepository(tx).
				Set(ctx, metadata.LocalIDKey(c.LocalID), strconv.FormatInt(id, 10), now.UnixMilli())
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// confirmDeleted finishes a confirmed delete: tombstone the cached row and
// delete the queue row in one transaction.
func (e *Engine) confirmDeleted(ctx context.Context, c models.PendingChange, id int64) error {
	now := e.now().UnixMilli()
	return dbx.WithTx(ctx, e.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := softDelete(ctx, tx, c.EntityType, id, now); err != nil {
			return err
		}
		return pending.NewSQLiteRepository(tx).MarkSucceeded(ctx, c.ID)
	})
}

func decodeID(body json.RawMessage) (int64, error) {
	var probe struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return 0, err
	}
	if probe.ID == 0 {
		return 0, errors.New("server response carries no id")
	}
	return probe.ID, nil
}

func upsertRemote(ctx context.Context, db dbx.DBTX, kind models.EntityType, raw json.RawMessage, now time.Time) error {
	switch kind {
	case models.EntityDocument:
		var r models.RemoteDocument
		if err := json.Unmarshal(raw, &r); err != nil {
			return fmt.Errorf("decode remote document: %w", err)
		}
		return documents.NewSQLiteRepository(db).Upsert(ctx, mapper.ToCachedDocument(r, now))
	case models.EntityTag:
		var r models.RemoteTag
		if err := json.Unmarshal(raw, &r); err != nil {
			return fmt.Errorf("decode remote tag: %w", err)
		}
		return tags.NewSQLiteRepository(db).Upsert(ctx, mapper.ToCachedTag(r, now))
	case models.EntityCorrespondent:
		var r models.RemoteCorrespondent
		if err := json.Unmarshal(raw, &r); err != nil {
			return fmt.Errorf("decode remote correspondent: %w", err)
		}
		return correspondents.NewSQLiteRepository(db).Upsert(ctx, mapper.ToCachedCorrespondent(r, now))
	case models.EntityDocumentType:
		var r models.RemoteDocumentType
		if err := json.Unmarshal(raw, &r); err != nil {
			return fmt.Errorf("decode remote document type: %w", err)
		}
		return doctypes.NewSQLiteRepository(db).Upsert(ctx, mapper.ToCachedDocumentType(r, now))
	default:
		return fmt.Errorf("unknown entity kind %q", kind)
	}
}

func softDelete(ctx context.Context, db dbx.DBTX, kind models.EntityType, id int64, syncedAt int64) error {
	switch kind {
	case models.EntityDocument:
		return documents.NewSQLiteRepository(db).SoftDelete(ctx, id, syncedAt)
	case models.EntityTag:
		return tags.NewSQLiteRepository(db).SoftDelete(ctx, id, syncedAt)
	case models.EntityCorrespondent:
		return correspondents.NewSQLiteRepository(db).SoftDelete(ctx, id, syncedAt)
	case models.EntityDocumentType:
		return doctypes.NewSQLiteRepository(db).SoftDelete(ctx, id, syncedAt)
	default:
		return fmt.Errorf("unknown entity kind %q", kind)
	}
}
