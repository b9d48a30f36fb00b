package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidMode is returned by ParseMode for an unknown run mode.
var ErrInvalidMode = errors.New("invalid run mode")

// Mode selects which summaries a run derives.
type Mode string

const (
	// ModeEngagement derives only engagement metrics.
	ModeEngagement Mode = "engagement"
	// ModeWeighted derives only comment weights and weighted metrics.
	ModeWeighted Mode = "weighted"
	// ModeAll derives both in one pass.
	ModeAll Mode = "all"
)

// ParseMode maps a user supplied mode to a Mode. Empty means ModeAll and
// "analyze" is accepted as an alias for it.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ModeAll), "analyze":
		return ModeAll, nil
	case string(ModeEngagement):
		return ModeEngagement, nil
	case string(ModeWeighted):
		return ModeWeighted, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// Engagement reports whether engagement metrics are derived in this mode.
func (m Mode) Engagement() bool { return m == ModeEngagement || m == ModeAll }

// Weighted reports whether weighted metrics are derived in this mode.
func (m Mode) Weighted() bool { return m == ModeWeighted || m == ModeAll }

// Job is a queued request to aggregate one channel.
type Job struct {
	RunID     string
	ChannelID string
	Mode      Mode

	// Cutoff inputs; Since wins over Days when both are set.
	Since string
	Days  *int

	// Optional coefficient overrides, nil means the configured default.
	LikeWeight  *float64
	ReplyWeight *float64

	EnqueuedAt time.Time
}
