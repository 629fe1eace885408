package sysex

import "errors"

// Domain errors for the sysex package.
var (
	// ErrNotXG is returned for messages that are not Yamaha XG
	// system exclusive messages.
	ErrNotXG = errors.New("sysex: not an XG message")

	// ErrMalformed is returned for XG messages with an invalid layout.
	ErrMalformed = errors.New("sysex: malformed message")

	// ErrChecksum is returned when a bulk dump checksum does not match.
	ErrChecksum = errors.New("sysex: checksum mismatch")

	// ErrUnknownAddress is returned when a parameter change targets an
	// address the registry does not hold.
	ErrUnknownAddress = errors.New("sysex: unknown address")
)
