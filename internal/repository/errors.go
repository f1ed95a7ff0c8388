package repository

import "errors"

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict covers unique violations, serialization failures and stale versions.
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("store unavailable")
)
