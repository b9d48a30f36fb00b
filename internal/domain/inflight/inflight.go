// Package inflight tracks which channels currently have a run in progress.
package inflight

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
)

// Guard admits at most one run per channel at a time.
type Guard interface {
	// Acquire atomically marks channelID as running. It returns false when the
	// channel is already running or the guard is at capacity.
	Acquire(ctx context.Context, channelID string) bool

	// Release marks channelID as idle again. Releasing an idle channel is a no-op.
	Release(ctx context.Context, channelID string)

	// Running reports whether channelID currently holds the guard.
	Running(channelID string) bool

	// Channels returns the running channels in sorted order.
	Channels() []string

	Size() int64
}

// inMemoryGuard implements Guard with a mutex-protected set.
// maxSize > 0 bounds the number of channels running at once; 0 or negative is unbounded.
type inMemoryGuard struct {
	mu      sync.Mutex
	running map[string]struct{}
	maxSize int
	size    atomic.Int64
}

// NewGuard creates an in-memory guard with configuration options.
func NewGuard(opts ...Option) Guard {
	g := &inMemoryGuard{}
	for _, opt := range opts {
		opt(g)
	}
	g.running = make(map[string]struct{})
	return g
}

func (g *inMemoryGuard) Acquire(ctx context.Context, channelID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.running[channelID]; busy {
		return false
	}
	if g.maxSize > 0 && len(g.running) >= g.maxSize {
		return false
	}
	g.running[channelID] = struct{}{}
	g.size.Add(1)
	return true
}

func (g *inMemoryGuard) Release(ctx context.Context, channelID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.running[channelID]; busy {
		delete(g.running, channelID)
		g.size.Add(-1)
	}
}

func (g *inMemoryGuard) Running(channelID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.running[channelID]
	return busy
}

func (g *inMemoryGuard) Channels() []string {
	g.mu.Lock()
	out := make([]string, 0, len(g.running))
	for id := range g.running {
		out = append(out, id)
	}
	g.mu.Unlock()
	sort.Strings(out)
	return out
}

// Size returns the number of channels currently running.
func (g *inMemoryGuard) Size() int64 {
	return g.size.Load()
}
