package models

import "errors"

var (
	// ErrNotFound is returned by lookups when the referenced row no longer exists.
	ErrNotFound = errors.New("not found")

	// ErrInvalidEvent marks a mutation event that is missing required identifiers or payloads.
	ErrInvalidEvent = errors.New("invalid mutation event")
)
