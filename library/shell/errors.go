package shell

import "errors"

var (
	// ErrInvalidCommand is joined with a more specific error when a command cannot be built from its input.
	ErrInvalidCommand = errors.New("invalid command")

	// ErrInvalidQuery is joined with a more specific error when a query cannot be built from its input.
	ErrInvalidQuery = errors.New("invalid query")
)
