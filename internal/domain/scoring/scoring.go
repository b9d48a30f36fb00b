// Package scoring computes engagement weights for comments.
package scoring

import "math"

// Default weighting coefficients.
const (
	DefaultLikeWeight  = 1.0
	DefaultReplyWeight = 1.5
)

// Option applies a configuration option to the Weigher.
type Option func(*Weigher)

// WithLikeWeight sets the coefficient applied to ln(1+likes).
// Negative or non-finite values are ignored.
func WithLikeWeight(w float64) Option {
	return func(s *Weigher) {
		if valid(w) {
			s.likeWeight = w
		}
	}
}

// WithReplyWeight sets the coefficient applied to ln(1+replies).
// Negative or non-finite values are ignored.
func WithReplyWeight(w float64) Option {
	return func(s *Weigher) {
		if valid(w) {
			s.replyWeight = w
		}
	}
}

func valid(w float64) bool {
	return w >= 0 && !math.IsInf(w, 0) && !math.IsNaN(w)
}

// Weigher turns a comment's likes and replies into a weight >= 1.
type Weigher struct {
	likeWeight  float64
	replyWeight float64
}

// NewWeigher creates a weigher with configuration options.
func NewWeigher(opts ...Option) *Weigher {
	s := &Weigher{
		likeWeight:  DefaultLikeWeight,
		replyWeight: DefaultReplyWeight,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Weight returns 1 + lw*ln(1+likes) + rw*ln(1+replies). Negative counts are
// treated as zero; callers are expected to reject them beforehand.
func (s *Weigher) Weight(likes, replies int64) float64 {
	return 1 + s.likeWeight*math.Log1p(float64(max(likes, 0))) + s.replyWeight*math.Log1p(float64(max(replies, 0)))
}

// LikeWeight returns the configured like coefficient.
func (s *Weigher) LikeWeight() float64 { return s.likeWeight }

// ReplyWeight returns the configured reply coefficient.
func (s *Weigher) ReplyWeight() float64 { return s.replyWeight }
