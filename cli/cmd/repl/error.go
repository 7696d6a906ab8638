package repl

import "errors"

// Sentinel errors.
var (
	ErrOutOfBounds  = errors.New("index out of range")
	ErrEditDeclined = errors.New("decline edit")
	ErrIncomplete   = errors.New("incomplete input at end of file")
)
