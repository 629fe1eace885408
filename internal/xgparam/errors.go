package xgparam

import "errors"

// Domain errors for the xgparam package.
//
// Lookup misses are never errors: Find* methods return nil (or false)
// and the caller decides what absence means.
//
//	if err := p.SetValue(200, nil); errors.Is(err, xgparam.ErrOutOfRange) {
//	    // value rejected, parameter unchanged
//	}
var (
	// ErrOutOfRange is returned when a value lies outside the bounds of the
	// parameter's descriptor or cannot be represented in its wire width.
	ErrOutOfRange = errors.New("xgparam: value out of range")

	// ErrDuplicateAddress is returned when a parameter collides with one
	// already present in the flat index or in its group.
	ErrDuplicateAddress = errors.New("xgparam: duplicate address")

	// ErrUnresolvedEffectParameter is returned when an effect-dependent
	// address has no entry for the requested effect type and no base
	// descriptor to fall back to. It indicates malformed descriptor data.
	ErrUnresolvedEffectParameter = errors.New("xgparam: unresolved effect parameter")

	// ErrShortBuffer is returned when a buffer cannot hold the parameter's
	// bytes at the requested offset.
	ErrShortBuffer = errors.New("xgparam: buffer too short")

	// ErrInvalidAddress is returned when an address string cannot be parsed.
	ErrInvalidAddress = errors.New("xgparam: invalid address")

	// ErrInvalidEffectType is returned when an effect type string cannot
	// be parsed.
	ErrInvalidEffectType = errors.New("xgparam: invalid effect type")

	// ErrUnroutableAddress is returned when no category owns an address.
	ErrUnroutableAddress = errors.New("xgparam: no category for address")

	// ErrUnknownCategory is returned when a category name is not recognised.
	ErrUnknownCategory = errors.New("xgparam: unknown category")

	// ErrBusy is returned when a parameter is asked to change value while
	// its own notification is still in flight.
	ErrBusy = errors.New("xgparam: parameter busy")

	// ErrNilParameter is returned when a nil parameter or descriptor is
	// passed where one is required.
	ErrNilParameter = errors.New("xgparam: nil parameter")
)
