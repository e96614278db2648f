// Package blobstore stores and removes blob payloads for the file vault.
//
// Two backends are provided: a local filesystem vault and an S3-compatible
// one. Both identify a stored blob by an opaque handle which the caller
// records in the ledger and passes back for removal.
package blobstore

import (
	"context"
	"io"
)

// Vault writes and removes blobs.
type Vault interface {
	// Save stores the contents of r under a per-user location derived from
	// name and returns the blob's handle.
	Save(ctx context.Context, userID int64, name string, r io.Reader) (string, error)
	// Remove deletes the blob identified by handle.
	Remove(ctx context.Context, handle string) error
}
