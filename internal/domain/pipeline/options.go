package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/tubesense/internal/domain/labels"
	"github.com/okian/tubesense/internal/domain/scoring"
	"github.com/okian/tubesense/pkg/logger"
	"github.com/okian/tubesense/pkg/progress"
)

// LabelPolicy decides what happens to model labels outside the taxonomy.
type LabelPolicy string

const (
	// PolicyWarn drops the unknown label, logs it and keeps the comment.
	PolicyWarn LabelPolicy = "warn"
	// PolicyReject fails the whole video record.
	PolicyReject LabelPolicy = "reject"
)

// ParseLabelPolicy maps a configured policy name to a LabelPolicy.
func ParseLabelPolicy(s string) (LabelPolicy, error) {
	switch LabelPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyWarn:
		return PolicyWarn, nil
	case PolicyReject:
		return PolicyReject, nil
	default:
		return "", fmt.Errorf("unknown label policy %q", s)
	}
}

// Option applies a configuration option to the Driver.
type Option func(*Driver)

// WithLogger sets the logger used for per-video diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithTaxonomy sets the closed label sets comments are resolved against.
func WithTaxonomy(t *labels.Taxonomy) Option {
	return func(d *Driver) {
		if t != nil {
			d.taxonomy = t
		}
	}
}

// WithLabelPolicy sets how unknown labels are handled.
func WithLabelPolicy(p LabelPolicy) Option {
	return func(d *Driver) {
		if p == PolicyWarn || p == PolicyReject {
			d.policy = p
		}
	}
}

// WithCoefficients sets the default like and reply coefficients. Requests
// may still override them per run.
func WithCoefficients(like, reply float64) Option {
	return func(d *Driver) {
		d.weigherOpts = []scoring.Option{scoring.WithLikeWeight(like), scoring.WithReplyWeight(reply)}
	}
}

// WithClock sets the time source used for day-count cutoffs.
func WithClock(now func() time.Time) Option {
	return func(d *Driver) {
		if now != nil {
			d.now = now
		}
	}
}

// WithProgress sets the progress reporter. One step is reported per video file.
func WithProgress(p progress.Reporter) Option {
	return func(d *Driver) {
		if p != nil {
			d.progress = p
		}
	}
}
