package snapshot

import "errors"

var (
	// ErrNotFound is returned when no snapshot has the requested name.
	ErrNotFound = errors.New("snapshot: not found")

	// ErrInvalidName is returned for an empty, oversized or
	// path-unsafe snapshot name.
	ErrInvalidName = errors.New("snapshot: invalid name")
)
