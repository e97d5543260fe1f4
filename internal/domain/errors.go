package domain

import "errors"

// Sentinel errors shared across services and repositories. Services pass
// these through unwrapped so the delivery layer can map them to HTTP codes
// with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
)
