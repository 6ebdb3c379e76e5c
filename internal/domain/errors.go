package domain

import "errors"

// Sentinel errors for the domain layer.
var (
	ErrNotFound    = errors.New("domain: not found")
	ErrInvalidSlug = errors.New("domain: invalid slug")
	ErrInvalidID   = errors.New("domain: invalid profile id")
	ErrConflict    = errors.New("domain: conflict")
)
