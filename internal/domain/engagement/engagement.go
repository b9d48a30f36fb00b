// Package engagement computes unweighted engagement rates for videos and the
// channel aggregate over a set of included videos.
package engagement

import "math"

// Counts are the raw, already coerced counters of one video.
type Counts struct {
	Views    int64
	Comments int64
	Likes    int64
}

// VideoMetrics is persisted under engagement_metrics on a video record.
// Rates are nil when their denominator is zero.
type VideoMetrics struct {
	ViewCount        int64    `json:"view_count"`
	CommentCount     int64    `json:"comment_count"`
	LikeCount        int64    `json:"like_count"`
	CommentRate      *float64 `json:"comment_rate"`
	LikeRate         *float64 `json:"like_rate"`
	EngagementRate   *float64 `json:"engagement_rate"`
	EngagedLikeRatio *float64 `json:"engaged_like_ratio"`
}

// ComputeVideo derives the per-video rates, rounded to six decimals.
func ComputeVideo(c Counts) VideoMetrics {
	return VideoMetrics{
		ViewCount:        c.Views,
		CommentCount:     c.Comments,
		LikeCount:        c.Likes,
		CommentRate:      ratio(c.Comments, c.Views),
		LikeRate:         ratio(c.Likes, c.Views),
		EngagementRate:   ratio(c.Comments+c.Likes, c.Views),
		EngagedLikeRatio: ratio(c.Comments, c.Likes),
	}
}

// ratio returns num/den rounded to six decimals, or nil when den is zero.
func ratio(num, den int64) *float64 {
	if den <= 0 {
		return nil
	}
	v := round6(float64(num) / float64(den))
	return &v
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
