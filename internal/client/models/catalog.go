package models

// Catalog kinds (tags, correspondents, document types) share a flat,
// name-centric shape.

// RemoteTag is the tag shape received from the server.
type RemoteTag struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Color      string `json:"color"`
	IsInboxTag bool   `json:"is_inbox_tag"`
}

// CachedTag is the locally persisted tag plus sync bookkeeping.
type CachedTag struct {
	ID           int64
	Name         string
	Color        string
	IsInboxTag   bool
	LastSyncedAt int64
	IsDeleted    bool
}

// Tag is the domain representation of a tag.
type Tag struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Color      string `json:"color"`
	IsInboxTag bool   `json:"is_inbox_tag"`
}

// RemoteCorrespondent is the correspondent shape received from the server.
type RemoteCorrespondent struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CachedCorrespondent is the locally persisted correspondent plus sync
// bookkeeping.
type CachedCorrespondent struct {
	ID           int64
	Name         string
	LastSyncedAt int64
	IsDeleted    bool
}

// Correspondent is the domain representation of a correspondent.
type Correspondent struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// RemoteDocumentType is the document-type shape received from the server.
type RemoteDocumentType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CachedDocumentType is the locally persisted document type plus sync
// bookkeeping.
type CachedDocumentType struct {
	ID           int64
	Name         string
	LastSyncedAt int64
	IsDeleted    bool
}

// DocumentType is the domain representation of a document type.
type DocumentType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
