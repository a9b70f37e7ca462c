// Package mapper holds the pure transforms between remote, cached and domain
// representations of every mirrored entity kind. Nothing here touches storage
// or the network; functions are safe to call from any goroutine.
package mapper

import (
	"encoding/json"
	"time"

	"github.com/avlasov/paperdock/internal/client/models"
)

// EncodeTagIDs serializes a tag-id list into the opaque form stored on a
// cached document. A nil list encodes as an empty list.
func EncodeTagIDs(ids []int64) string {
	if ids == nil {
		ids = []int64{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// DecodeTagIDs deserializes the opaque tag-id payload. A malformed payload is
// not fatal: the tag list is denormalized and re-derivable on the next pull,
// so decoding degrades to an empty list instead of failing the whole record.
func DecodeTagIDs(raw string) []int64 {
	if raw == "" {
		return []int64{}
	}
	var ids []int64
	if err := json.Unmarshal([]byte(raw), &ids); err != nil || ids == nil {
		return []int64{}
	}
	return ids
}

// ToCachedDocument converts a remote document into its cached form, stamping
// sync bookkeeping with the supplied clock value.
func ToCachedDocument(r models.RemoteDocument, now time.Time) models.CachedDocument {
	return models.CachedDocument{
		ID:               r.ID,
		Title:            r.Title,
		CorrespondentID:  r.CorrespondentID,
		DocumentTypeID:   r.DocumentTypeID,
		TagIDs:           EncodeTagIDs(r.TagIDs),
		Created:          r.Created.UnixMilli(),
		Added:            r.Added.UnixMilli(),
		Modified:         r.Modified.UnixMilli(),
		OriginalFileName: r.OriginalFileName,
		LastSyncedAt:     now.UnixMilli(),
		IsDeleted:        false,
	}
}

// DocumentToDomain strips sync bookkeeping and decodes the tag-id list.
func DocumentToDomain(c models.CachedDocument) models.Document {
	return models.Document{
		ID:               c.ID,
		Title:            c.Title,
		CorrespondentID:  c.CorrespondentID,
		DocumentTypeID:   c.DocumentTypeID,
		TagIDs:           DecodeTagIDs(c.TagIDs),
		Created:          time.UnixMilli(c.Created).UTC(),
		Added:            time.UnixMilli(c.Added).UTC(),
		Modified:         time.UnixMilli(c.Modified).UTC(),
		OriginalFileName: c.OriginalFileName,
	}
}

// ToCachedTag converts a remote tag into its cached form.
func ToCachedTag(r models.RemoteTag, now time.Time) models.CachedTag {
	return models.CachedTag{
		ID:           r.ID,
		Name:         r.Name,
		Color:        r.Color,
		IsInboxTag:   r.IsInboxTag,
		LastSyncedAt: now.UnixMilli(),
		IsDeleted:    false,
	}
}

// TagToDomain strips sync bookkeeping from a cached tag.
func TagToDomain(c models.CachedTag) models.Tag {
	return models.Tag{
		ID:         c.ID,
		Name:       c.Name,
		Color:      c.Color,
		IsInboxTag: c.IsInboxTag,
	}
}

// ToCachedCorrespondent converts a remote correspondent into its cached form.
func ToCachedCorrespondent(r models.RemoteCorrespondent, now time.Time) models.CachedCorrespondent {
	return models.CachedCorrespondent{
		ID:           r.ID,
		Name:         r.Name,
		LastSyncedAt: now.UnixMilli(),
		IsDeleted:    false,
	}
}

// CorrespondentToDomain strips sync bookkeeping from a cached correspondent.
func CorrespondentToDomain(c models.CachedCorrespondent) models.Correspondent {
	return models.Correspondent{ID: c.ID, Name: c.Name}
}

// ToCachedDocumentType converts a remote document type into its cached form.
func ToCachedDocumentType(r models.RemoteDocumentType, now time.Time) models.CachedDocumentType {
	return models.CachedDocumentType{
		ID:           r.ID,
		Name:         r.Name,
		LastSyncedAt: now.UnixMilli(),
		IsDeleted:    false,
	}
}

// DocumentTypeToDomain strips sync bookkeeping from a cached document type.
func DocumentTypeToDomain(c models.CachedDocumentType) models.DocumentType {
	return models.DocumentType{ID: c.ID, Name: c.Name}
}
