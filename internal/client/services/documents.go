// Package services exposes the domain-facing API of the client: cache reads,
// queued writes, sync observation and usage accounting. Services never talk
// to the remote server themselves; local mutations are enqueued and a sync
// cycle is triggered fire-and-forget.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/avlasov/paperdock/internal/client/mapper"
	"github.com/avlasov/paperdock/internal/client/models"
	"github.com/avlasov/paperdock/internal/client/repositories/documents"
	"github.com/avlasov/paperdock/internal/client/repositories/metadata"
	"github.com/avlasov/paperdock/internal/client/repositories/pending"
	"github.com/avlasov/paperdock/internal/client/sync"
	"github.com/avlasov/paperdock/internal/common"
	"github.com/avlasov/paperdock/internal/logging"
)

// Syncer is the slice of the reconciliation engine the services need.
type Syncer interface {
	TriggerSync()
	Observe() sync.State
}

// DocumentService reads documents from the cache and enqueues local edits.
type DocumentService struct {
	docs   documents.Repository
	queue  pending.Repository
	meta   metadata.Repository
	syncer Syncer
	log    logging.Logger
	now    func() time.Time
}

func NewDocumentService(docs documents.Repository, queue pending.Repository, meta metadata.Repository, syncer Syncer, log logging.Logger) *DocumentService {
	return &DocumentService{docs: docs, queue: queue, meta: meta, syncer: syncer, log: log, now: time.Now}
}

// List returns all non-deleted documents.
func (s *DocumentService) List(ctx context.Context) ([]models.Document, error) {
	cached, err := s.docs.GetAll(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	out := make([]models.Document, 0, len(cached))
	for _, c := range cached {
		out = append(out, mapper.DocumentToDomain(c))
	}
	return out, nil
}

// Get returns one document or common.ErrNotFound.
func (s *DocumentService) Get(ctx context.Context, id int64) (models.Document, error) {
	c, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return models.Document{}, fmt.Errorf("get document %d: %w", id, err)
	}
	return mapper.DocumentToDomain(*c), nil
}

// FindByFileName returns non-deleted documents matching the original upload
// file name.
func (s *DocumentService) FindByFileName(ctx context.Context, name string) ([]models.Document, error) {
	cached, err := s.docs.FindByOriginalFileName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("find documents by file name: %w", err)
	}
	out := make([]models.Document, 0, len(cached))
	for _, c := range cached {
		out = append(out, mapper.DocumentToDomain(c))
	}
	return out, nil
}

// HasQueuedFile reports whether a document creation carrying the given
// original file name is still waiting to sync. The cache does not know such
// documents yet, so inbox deduplication has to consult the queue too.
func (s *DocumentService) HasQueuedFile(ctx context.Context, name string) (bool, error) {
	creates, err := s.queue.ListCreates(ctx, models.EntityDocument)
	if err != nil {
		return false, fmt.Errorf("list queued creates: %w", err)
	}
	for _, c := range creates {
		var snap struct {
			OriginalFileName string `json:"original_file_name"`
		}
		if err := json.Unmarshal(c.ChangeData, &snap); err != nil {
			continue
		}
		if snap.OriginalFileName == name {
			return true, nil
		}
	}
	return false, nil
}

// Add queues the creation of a document and returns the local uuid that
// identifies it until the server assigns a remote id.
func (s *DocumentService) Add(ctx context.Context, d models.Document) (string, error) {
	snapshot, err := json.Marshal(createDocumentPayload(d))
	if err != nil {
		return "", fmt.Errorf("encode document snapshot: %w", err)
	}

	localID := uuid.NewString()
	_, err = s.queue.Enqueue(ctx, models.PendingChange{
		EntityType: models.EntityDocument,
		LocalID:    localID,
		ChangeType: models.ChangeCreate,
		ChangeData: snapshot,
		CreatedAt:  s.now(),
	})
	if err != nil {
		return "", fmt.Errorf("queue document create: %w", err)
	}

	s.log.Debug(ctx, "document create queued", "local_id", localID, "title", d.Title)
	s.syncer.TriggerSync()
	return localID, nil
}

// Update queues new state for a remotely-identified document.
func (s *DocumentService) Update(ctx context.Context, id int64, d models.Document) error {
	snapshot, err := json.Marshal(createDocumentPayload(d))
	if err != nil {
		return fmt.Errorf("encode document snapshot: %w", err)
	}

	_, err = s.queue.Enqueue(ctx, models.PendingChange{
		EntityType: models.EntityDocument,
		EntityID:   &id,
		ChangeType: models.ChangeUpdate,
		ChangeData: snapshot,
		CreatedAt:  s.now(),
	})
	if err != nil {
		return fmt.Errorf("queue document update: %w", err)
	}

	s.syncer.TriggerSync()
	return nil
}

// Delete queues the deletion of a remotely-identified document.
func (s *DocumentService) Delete(ctx context.Context, id int64) error {
	if err := enqueueDelete(ctx, s.queue, models.EntityDocument, id, s.now()); err != nil {
		return err
	}
	s.syncer.TriggerSync()
	return nil
}

// DeleteLocal deletes a document identified by its creation uuid. When the
// create is still queued unconfirmed, it and everything after it collapse
// locally and no remote call is ever made. When the create has already been
// confirmed, the uuid resolves to the remote id and a normal delete is
// queued. An unknown uuid returns common.ErrNotFound.
func (s *DocumentService) DeleteLocal(ctx context.Context, localID string) error {
	collapsed, err := deleteByLocalID(ctx, s.queue, s.meta, models.EntityDocument, localID, s.now())
	if err != nil {
		return err
	}
	if collapsed {
		s.log.Debug(ctx, "unconfirmed create collapsed", "local_id", localID)
		return nil
	}
	s.syncer.TriggerSync()
	return nil
}

// PendingChanges returns the outstanding queued edits for one document,
// oldest first. The UI uses SyncAttempts and LastError to offer a manual
// discard; the queue itself never drops a change.
func (s *DocumentService) PendingChanges(ctx context.Context, id int64) ([]models.PendingChange, error) {
	return s.queue.ListByEntity(ctx, models.EntityDocument, id)
}

// DiscardChange drops one queued edit without contacting the remote.
func (s *DocumentService) DiscardChange(ctx context.Context, changeID int64) error {
	return s.queue.DeleteByID(ctx, changeID)
}

// SyncState reports the engine's current phase and last outcome.
func (s *DocumentService) SyncState() sync.State {
	return s.syncer.Observe()
}

// TriggerSync starts a reconciliation cycle fire-and-forget.
func (s *DocumentService) TriggerSync() {
	s.syncer.TriggerSync()
}

// createDocumentPayload is the remote-shaped write snapshot for a document.
func createDocumentPayload(d models.Document) map[string]any {
	p := map[string]any{
		"title": d.Title,
		"tags":  d.TagIDs,
	}
	if d.CorrespondentID != nil {
		p["correspondent"] = *d.CorrespondentID
	}
	if d.DocumentTypeID != nil {
		p["document_type"] = *d.DocumentTypeID
	}
	if d.OriginalFileName != "" {
		p["original_file_name"] = d.OriginalFileName
	}
	return p
}

// enqueueDelete queues a delete for a remotely-identified entity of any kind.
func enqueueDelete(ctx context.Context, queue pending.Repository, kind models.EntityType, id int64, now time.Time) error {
	_, err := queue.Enqueue(ctx, models.PendingChange{
		EntityType: kind,
		EntityID:   &id,
		ChangeType: models.ChangeDelete,
		ChangeData: []byte(`{}`),
		CreatedAt:  now,
	})
	if err != nil {
		return fmt.Errorf("queue %s delete: %w", kind, err)
	}
	return nil
}

// deleteByLocalID applies the delete-after-create collapse rule. If the
// local entity still has an unconfirmed Create queued, every change for that
// local id is removed and true is returned. Otherwise the uuid is resolved to
// the remote id recorded at create confirmation and a normal id-keyed Delete
// is enqueued; a uuid with neither a pending Create nor a recorded id yields
// common.ErrNotFound.
func deleteByLocalID(ctx context.Context, queue pending.Repository, meta metadata.Repository, kind models.EntityType, localID string, now time.Time) (bool, error) {
	outstanding, err := queue.ListByLocalID(ctx, localID)
	if err != nil {
		return false, fmt.Errorf("list changes for %s: %w", localID, err)
	}

	hasCreate := false
	for _, c := range outstanding {
		if c.ChangeType == models.ChangeCreate && c.EntityID == nil {
			hasCreate = true
			break
		}
	}
	if hasCreate {
		for _, c := range outstanding {
			if err := queue.DeleteByID(ctx, c.ID); err != nil {
				return false, fmt.Errorf("collapse change %d: %w", c.ID, err)
			}
		}
		return true, nil
	}

	raw, ok, err := meta.Get(ctx, metadata.LocalIDKey(localID))
	if err != nil {
		return false, fmt.Errorf("resolve %s: %w", localID, err)
	}
	if !ok {
		return false, fmt.Errorf("no entity for local id %s: %w", localID, common.ErrNotFound)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("resolve %s: bad remote id %q", localID, raw)
	}

	return false, enqueueDelete(ctx, queue, kind, id, now)
}
