package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrStopped      = errors.New("service stopped before the run started")
	ErrChannelBusy  = errors.New("channel already has a run in progress")
	ErrBackpressure = errors.New("run queue is full")
	ErrRunNotFound  = errors.New("run not found")
	ErrNoSummary    = errors.New("channel has no summary")
)
