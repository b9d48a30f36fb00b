// Package history keeps a ledger of aggregation runs.
package history

import (
	"context"

	"github.com/okian/tubesense/internal/domain/types"
)

// Store records run lifecycles.
type Store interface {
	// Begin inserts a new run. The run's status is stored as given.
	Begin(ctx context.Context, run types.Run) error
	// MarkRunning moves a queued run to running.
	MarkRunning(ctx context.Context, id string) error
	// Finish stores the terminal status, counters and error of a run.
	Finish(ctx context.Context, run types.Run) error
	// Get returns one run, or ErrNotFound.
	Get(ctx context.Context, id string) (types.Run, error)
	// ListByChannel returns the most recent runs of a channel, newest first.
	ListByChannel(ctx context.Context, channelID string, limit int) ([]types.Run, error)
	Close() error
}

// DefaultListLimit is used when ListByChannel is called with a non-positive limit.
const DefaultListLimit = 20

// nopStore is used when the ledger is disabled.
type nopStore struct{}

// Nop returns a Store that records nothing.
func Nop() Store { return nopStore{} }

func (nopStore) Begin(context.Context, types.Run) error { return nil }
func (nopStore) MarkRunning(context.Context, string) error { return nil }
func (nopStore) Finish(context.Context, types.Run) error { return nil }
func (nopStore) Get(context.Context, string) (types.Run, error) {
	return types.Run{}, ErrNotFound
}
func (nopStore) ListByChannel(context.Context, string, int) ([]types.Run, error) {
	return []types.Run{}, nil
}
func (nopStore) Close() error { return nil }
