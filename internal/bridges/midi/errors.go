package midi

import "errors"

var (
	// ErrPortNotFound is returned when no MIDI port name contains the
	// requested fragment.
	ErrPortNotFound = errors.New("midi: port not found")

	// ErrPortOpen is returned when a port exists but cannot be opened.
	ErrPortOpen = errors.New("midi: cannot open port")

	// ErrNotStarted is returned by operations that need a running bridge.
	ErrNotStarted = errors.New("midi: bridge not started")

	// ErrStopped is returned once the bridge has been stopped.
	ErrStopped = errors.New("midi: bridge stopped")
)
