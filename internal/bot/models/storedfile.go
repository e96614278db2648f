// Package models defines bot-side data models persisted in the database.
package models

import "time"

// Kind classifies an uploaded payload.
type Kind string

const (
	KindDocument Kind = "document"
	KindPhoto    Kind = "photo"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == KindDocument || k == KindPhoto
}

// StoredFile describes ledger metadata for a stored blob. The payload itself
// lives in the blob vault under StorageHandle.
type StoredFile struct {
	ID int64
	// UserID is the owner of the file (chat identity, not the row PK).
	UserID int64
	// StorageHandle is the vault handle of the blob: a filesystem path for the
	// disk backend, an object key for S3.
	StorageHandle string
	// OriginalFilename is the name the uploader supplied, kept verbatim for
	// display. Never used for storage.
	OriginalFilename string
	Kind             Kind
	UploadedAt       time.Time

	// OwnerName is the owner's display name, populated by list queries only.
	OwnerName string
}
