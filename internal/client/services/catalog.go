package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/avlasov/paperdock/internal/client/mapper"
	"github.com/avlasov/paperdock/internal/client/models"
	"github.com/avlasov/paperdock/internal/client/repositories/correspondents"
	"github.com/avlasov/paperdock/internal/client/repositories/doctypes"
	"github.com/avlasov/paperdock/internal/client/repositories/metadata"
	"github.com/avlasov/paperdock/internal/client/repositories/pending"
	"github.com/avlasov/paperdock/internal/client/repositories/tags"
	"github.com/avlasov/paperdock/internal/logging"
)

// CatalogService reads the classification entities (tags, correspondents,
// document types) from the cache and enqueues local edits for them.
type CatalogService struct {
	tags   tags.Repository
	corrs  correspondents.Repository
	dtypes doctypes.Repository
	queue  pending.Repository
	meta   metadata.Repository
	syncer Syncer
	log    logging.Logger
	now    func() time.Time
}

func NewCatalogService(t tags.Repository, c correspondents.Repository, d doctypes.Repository, queue pending.Repository, meta metadata.Repository, syncer Syncer, log logging.Logger) *CatalogService {
	return &CatalogService{tags: t, corrs: c, dtypes: d, queue: queue, meta: meta, syncer: syncer, log: log, now: time.Now}
}

func (s *CatalogService) Tags(ctx context.Context) ([]models.Tag, error) {
	cached, err := s.tags.GetAll(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	out := make([]models.Tag, 0, len(cached))
	for _, c := range cached {
		out = append(out, mapper.TagToDomain(c))
	}
	return out, nil
}

func (s *CatalogService) Correspondents(ctx context.Context) ([]models.Correspondent, error) {
	cached, err := s.corrs.GetAll(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list correspondents: %w", err)
	}
	out := make([]models.Correspondent, 0, len(cached))
	for _, c := range cached {
		out = append(out, mapper.CorrespondentToDomain(c))
	}
	return out, nil
}

func (s *CatalogService) DocumentTypes(ctx context.Context) ([]models.DocumentType, error) {
	cached, err := s.dtypes.GetAll(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list document types: %w", err)
	}
	out := make([]models.DocumentType, 0, len(cached))
	for _, c := range cached {
		out = append(out, mapper.DocumentTypeToDomain(c))
	}
	return out, nil
}

// AddTag queues the creation of a tag and returns its local uuid.
func (s *CatalogService) AddTag(ctx context.Context, t models.Tag) (string, error) {
	return s.enqueueCreate(ctx, models.EntityTag, map[string]any{
		"name":         t.Name,
		"color":        t.Color,
		"is_inbox_tag": t.IsInboxTag,
	})
}

// AddCorrespondent queues the creation of a correspondent.
func (s *CatalogService) AddCorrespondent(ctx context.Context, c models.Correspondent) (string, error) {
	return s.enqueueCreate(ctx, models.EntityCorrespondent, map[string]any{"name": c.Name})
}

// AddDocumentType queues the creation of a document type.
func (s *CatalogService) AddDocumentType(ctx context.Context, d models.DocumentType) (string, error) {
	return s.enqueueCreate(ctx, models.EntityDocumentType, map[string]any{"name": d.Name})
}

// Delete queues the deletion of a remotely-identified catalog entity.
func (s *CatalogService) Delete(ctx context.Context, kind models.EntityType, id int64) error {
	if !kind.Valid() || kind == models.EntityDocument {
		return fmt.Errorf("catalog delete: unsupported kind %q", kind)
	}
	if err := enqueueDelete(ctx, s.queue, kind, id, s.now()); err != nil {
		return err
	}
	s.syncer.TriggerSync()
	return nil
}

// DeleteLocal removes a catalog entity identified by its creation uuid. An
// unconfirmed create collapses into a local no-op; a confirmed one resolves
// to its remote id and queues a normal delete.
func (s *CatalogService) DeleteLocal(ctx context.Context, kind models.EntityType, localID string) error {
	collapsed, err := deleteByLocalID(ctx, s.queue, s.meta, kind, localID, s.now())
	if err != nil {
		return err
	}
	if collapsed {
		s.log.Debug(ctx, "unconfirmed create collapsed", "kind", kind, "local_id", localID)
		return nil
	}
	s.syncer.TriggerSync()
	return nil
}

func (s *CatalogService) enqueueCreate(ctx context.Context, kind models.EntityType, payload map[string]any) (string, error) {
	snapshot, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode %s snapshot: %w", kind, err)
	}

	localID := uuid.NewString()
	_, err = s.queue.Enqueue(ctx, models.PendingChange{
		EntityType: kind,
		LocalID:    localID,
		ChangeType: models.ChangeCreate,
		ChangeData: snapshot,
		CreatedAt:  s.now(),
	})
	if err != nil {
		return "", fmt.Errorf("queue %s create: %w", kind, err)
	}

	s.syncer.TriggerSync()
	return localID, nil
}
