// Package cutoff implements the publish-date inclusion predicate.
package cutoff

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidCutoff is returned for an unparsable since date or a negative day count.
var ErrInvalidCutoff = errors.New("invalid cutoff")

// layouts accepted for both cutoff dates and published_at values, tried in order.
var layouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

// Parse reads a date in one of the accepted layouts. Values without a zone
// are taken as UTC; zoned values are converted to UTC.
func Parse(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// Reasons reported by Includes for excluded videos.
const (
	ReasonBeforeCutoff = "published before cutoff"
	ReasonNoDate       = "missing or unparsable published_at"
)

// Cutoff is an optional lower bound on publish dates. The zero value has no bound.
type Cutoff struct {
	at    time.Time
	isSet bool
}

// None returns a cutoff that bounds nothing.
func None() Cutoff { return Cutoff{} }

// New builds a cutoff from an absolute date or a day count relative to now.
// since wins when both are given; both empty means no bound.
func New(since string, days *int, now time.Time) (Cutoff, error) {
	if strings.TrimSpace(since) != "" {
		t, ok := Parse(since)
		if !ok {
			return Cutoff{}, fmt.Errorf("%w: could not parse since date %q", ErrInvalidCutoff, since)
		}
		return Cutoff{at: t, isSet: true}, nil
	}
	if days != nil {
		if *days < 0 {
			return Cutoff{}, fmt.Errorf("%w: days must be non-negative, got %d", ErrInvalidCutoff, *days)
		}
		return Cutoff{at: now.UTC().AddDate(0, 0, -*days), isSet: true}, nil
	}
	return Cutoff{}, nil
}

// IsSet reports whether the cutoff bounds anything.
func (c Cutoff) IsSet() bool { return c.isSet }

// Time returns the bound; ok is false when unset.
func (c Cutoff) Time() (time.Time, bool) { return c.at, c.isSet }

// String renders the bound for logs and reports.
func (c Cutoff) String() string {
	if !c.isSet {
		return "none"
	}
	return c.at.Format(time.RFC3339)
}

// Includes reports whether a video published at publishedAt is selected.
// A video without a parseable date is never selected. When excluded, reason
// says why.
func (c Cutoff) Includes(publishedAt string) (bool, string) {
	t, ok := Parse(publishedAt)
	if !ok {
		return false, ReasonNoDate
	}
	if c.isSet && t.Before(c.at) {
		return false, ReasonBeforeCutoff
	}
	return true, ""
}
