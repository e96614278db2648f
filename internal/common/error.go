// Package common defines shared constants and sentinel errors used across
// filekeeper components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Authorization-key redemption outcomes.
	ErrKeyInvalid = errors.New("invalid authorization key")
	ErrKeyUsed    = errors.New("authorization key already used")

	// Upload-session errors.
	ErrNoSession   = errors.New("no active session")
	ErrUnknownKind = errors.New("unknown file kind")
)
