package xgdata

import "errors"

// Domain errors for the xgdata package.
var (
	// ErrInvalidPack is returned when a descriptor pack fails validation.
	ErrInvalidPack = errors.New("xgdata: invalid descriptor pack")

	// ErrPopulate is returned when the catalog cannot be loaded into a
	// registry, which means the static tables are inconsistent.
	ErrPopulate = errors.New("xgdata: populate failed")
)
