// Package config defines process configuration and its loading.
package config

import (
	"fmt"
	"strings"

	"github.com/okian/tubesense/internal/domain/labels"
)

// Unknown label policies accepted by Validate.
const (
	PolicyWarn   = "warn"
	PolicyReject = "reject"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address of the serve command, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DataRoot is the directory holding one subdirectory per channel.
	DataRoot string `koanf:"data_root"`

	// LikeWeight and ReplyWeight are the default comment weight coefficients.
	LikeWeight  float64 `koanf:"like_weight"`
	ReplyWeight float64 `koanf:"reply_weight"`

	SentimentLabels []string `koanf:"sentiment_labels"`
	TopicLabels     []string `koanf:"topic_labels"`

	// UnknownLabelPolicy is warn or reject.
	UnknownLabelPolicy string `koanf:"unknown_label_policy"`

	// HistoryPath is the SQLite run ledger. Empty disables the ledger.
	HistoryPath string `koanf:"history_path"`

	// QueueSize bounds the number of runs waiting for a worker.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of run workers.
	WorkerCount int `koanf:"worker_count"`

	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	// Progress enables the terminal progress bar of CLI runs.
	Progress bool `koanf:"progress"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":9080",
		DataRoot:           "data",
		LikeWeight:         1.0,
		ReplyWeight:        1.5,
		SentimentLabels:    append([]string(nil), labels.DefaultSentiments...),
		TopicLabels:        append([]string(nil), labels.DefaultTopics...),
		UnknownLabelPolicy: PolicyWarn,
		HistoryPath:        "tubesense.db",
		QueueSize:          64,
		WorkerCount:        1,
		RateLimitRPS:       5,
		RateLimitBurst:     10,
		Progress:           true,
	}
}

// Validate reports the first invalid setting, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.DataRoot) == "":
		return fmt.Errorf("%w: data_root must not be empty", ErrInvalidConfig)
	case c.LikeWeight < 0:
		return fmt.Errorf("%w: like_weight must not be negative", ErrInvalidConfig)
	case c.ReplyWeight < 0:
		return fmt.Errorf("%w: reply_weight must not be negative", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.RateLimitRPS < 0 || c.RateLimitBurst < 0:
		return fmt.Errorf("%w: rate limits must not be negative", ErrInvalidConfig)
	}

	switch strings.ToLower(strings.TrimSpace(c.UnknownLabelPolicy)) {
	case PolicyWarn, PolicyReject:
	default:
		return fmt.Errorf("%w: unknown_label_policy must be %s or %s, got %q",
			ErrInvalidConfig, PolicyWarn, PolicyReject, c.UnknownLabelPolicy)
	}

	if _, err := c.Taxonomy(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Taxonomy builds the label taxonomy from the configured label lists.
func (c *Config) Taxonomy() (*labels.Taxonomy, error) {
	return labels.NewTaxonomy(c.SentimentLabels, c.TopicLabels)
}
