// Package common defines shared sentinel errors used across the PaperDock
// client layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Remote collaborator errors.
	ErrConflict    = errors.New("remote version conflict")
	ErrUnavailable = errors.New("server unavailable")

	// Local durable store failed; not recoverable locally.
	ErrStorage = errors.New("local storage error")

	// Validation errors (malformed local snapshot or payload).
	ErrMalformedSnapshot = errors.New("malformed change snapshot")

	// Metered-feature errors.
	ErrUsageLimitReached = errors.New("monthly usage limit reached")
)
