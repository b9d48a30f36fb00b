// Package types contains common types used across the application
package types

import (
	"encoding/json"
	"time"
)

// Run statuses recorded by the run ledger.
const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Run is one aggregation run of a channel as seen by the ledger and the HTTP surface.
type Run struct {
	ID               string     `json:"run_id"`
	ChannelID        string     `json:"channel_id"`
	Mode             string     `json:"mode"`
	Status           string     `json:"status"`
	StartedAt        time.Time  `json:"started_at"`
	FinishedAt       *time.Time `json:"finished_at"`
	VideosIncluded   int        `json:"videos_included"`
	VideosExcluded   int        `json:"videos_excluded"`
	VideosFailed     int        `json:"videos_failed"`
	CommentsWeighted int        `json:"comments_weighted"`
	Error            string     `json:"error,omitempty"`
}

// Done reports whether the run reached a terminal status.
func (r Run) Done() bool {
	return r.Status == StatusSucceeded || r.Status == StatusFailed
}

// ChannelSummary is the channel-level output of the last run of a channel.
type ChannelSummary struct {
	ChannelID              string          `json:"channel_id"`
	EngagementMetrics      json.RawMessage `json:"engagement_metrics,omitempty"`
	WeightedMetricsSummary json.RawMessage `json:"weighted_metrics_summary,omitempty"`
}
