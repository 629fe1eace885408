package fanout

import "errors"

var (
	// ErrInvalidCommand is returned for a command payload that is not
	// valid JSON or does not carry exactly one of value and display.
	ErrInvalidCommand = errors.New("fanout: invalid command")

	// ErrUnknownParameter is returned when a command addresses nothing.
	ErrUnknownParameter = errors.New("fanout: unknown parameter")

	// ErrCategoryMismatch is returned when a command's address belongs to
	// a different category than its topic.
	ErrCategoryMismatch = errors.New("fanout: address not in topic category")
)
