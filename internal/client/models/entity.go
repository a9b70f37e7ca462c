// Package models defines client-side data models for the PaperDock cache,
// the pending-change queue and the usage ledger.
//
// Each entity kind has three disjoint representations:
//   - remote: the shape received from the document-management server;
//   - cached: remote fields plus sync bookkeeping, persisted locally;
//   - domain: cached fields minus sync bookkeeping, exposed to the app.
package models

// EntityType identifies one of the mirrored entity kinds.
type EntityType string

const (
	EntityDocument      EntityType = "document"
	EntityTag           EntityType = "tag"
	EntityCorrespondent EntityType = "correspondent"
	EntityDocumentType  EntityType = "document_type"
)

// EntityTypes lists all mirrored kinds in pull order. Catalog kinds come
// before documents so a pulled document never references a tag or
// correspondent the cache has not seen yet.
var EntityTypes = []EntityType{
	EntityTag,
	EntityCorrespondent,
	EntityDocumentType,
	EntityDocument,
}

// Valid reports whether t is one of the known entity kinds.
func (t EntityType) Valid() bool {
	switch t {
	case EntityDocument, EntityTag, EntityCorrespondent, EntityDocumentType:
		return true
	}
	return false
}
