package history

import "errors"

var (
	// ErrNotFound is returned when no run has the requested id.
	ErrNotFound = errors.New("run not found")
	// ErrInvalidRun is returned when a run lacks its id or channel.
	ErrInvalidRun = errors.New("invalid run")
)
