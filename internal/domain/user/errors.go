package user

import "errors"

var (
	// ErrNotFound is returned when a user or address does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrStaleVersion is returned when an update carries a version that no
	// longer matches the stored row.
	ErrStaleVersion = errors.New("stale version")
)
