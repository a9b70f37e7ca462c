package models

import "time"

// RemoteDocument is the document shape received from the server.
type RemoteDocument struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	CorrespondentID  *int64    `json:"correspondent"`
	DocumentTypeID   *int64    `json:"document_type"`
	TagIDs           []int64   `json:"tags"`
	Created          time.Time `json:"created"`
	Added            time.Time `json:"added"`
	Modified         time.Time `json:"modified"`
	OriginalFileName string    `json:"original_file_name"`
}

// CachedDocument is the locally persisted copy of a document plus sync
// bookkeeping. Times are epoch milliseconds; TagIDs holds the tag-id list
// in its opaque serialized form.
type CachedDocument struct {
	ID               int64
	Title            string
	CorrespondentID  *int64
	DocumentTypeID   *int64
	TagIDs           string
	Created          int64
	Added            int64
	Modified         int64
	OriginalFileName string
	LastSyncedAt     int64
	IsDeleted        bool
}

// Document is the domain representation exposed to application logic.
type Document struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	CorrespondentID  *int64    `json:"correspondent"`
	DocumentTypeID   *int64    `json:"document_type"`
	TagIDs           []int64   `json:"tags"`
	Created          time.Time `json:"created"`
	Added            time.Time `json:"added"`
	Modified         time.Time `json:"modified"`
	OriginalFileName string    `json:"original_file_name"`
}
