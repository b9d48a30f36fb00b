package pipeline

import "errors"

// Precondition failures abort a run before anything is written.
var (
	ErrChannelNotFound = errors.New("channel directory not found")
	ErrChannelMetadata = errors.New("malformed channel metadata")
	ErrInvalidRequest  = errors.New("invalid run request")
)

// Per-record failures skip one video and let the run continue.
var (
	ErrNegativeEngagement = errors.New("negative engagement count")
	ErrUnknownLabel       = errors.New("unknown model label")
)
