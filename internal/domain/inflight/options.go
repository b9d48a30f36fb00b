package inflight

// Option applies a configuration option to the in-memory Guard.
type Option func(*inMemoryGuard)

// WithMaxSize bounds the number of channels that may run at once.
// If maxSize <= 0 the guard is unbounded.
func WithMaxSize(maxSize int) Option {
	return func(g *inMemoryGuard) {
		g.maxSize = maxSize
	}
}
