package pipeline

import (
	"time"

	"github.com/okian/tubesense/internal/domain/engagement"
	"github.com/okian/tubesense/internal/domain/model"
)

// Skip records why one video file was not included.
type Skip struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// Report summarises one run.
type Report struct {
	ChannelID string        `json:"channel_id"`
	Mode      model.Mode    `json:"mode"`
	Cutoff    string        `json:"cutoff"`
	Duration  time.Duration `json:"duration_ns"`

	VideosSeen     int `json:"videos_seen"`
	VideosIncluded int `json:"videos_included"`
	VideosExcluded int `json:"videos_excluded"`
	VideosFailed   int `json:"videos_failed"`
	VideosWritten  int `json:"videos_written"`

	CommentsWeighted  int `json:"comments_weighted"`
	UnknownSentiments int `json:"unknown_sentiments"`
	UnknownTopics     int `json:"unknown_topics"`

	Excluded []Skip `json:"excluded,omitempty"`
	Failures []Skip `json:"failures,omitempty"`

	Engagement     *engagement.ChannelMetrics `json:"engagement_metrics,omitempty"`
	Weighted       *WeightedSummary           `json:"weighted_metrics_summary,omitempty"`
	ChannelWritten bool                       `json:"channel_written"`
}
