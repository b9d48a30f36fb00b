package engagement

// ChannelMetrics is persisted under engagement_metrics on the channel record.
//
// overall_* rates come from the channel sums; mean_*_across_videos are plain
// means of the defined per-video values. The two generally differ.
type ChannelMetrics struct {
	VideosIncluded    int   `json:"videos_included"`
	TotalViewCount    int64 `json:"total_view_count"`
	TotalCommentCount int64 `json:"total_comment_count"`
	TotalLikeCount    int64 `json:"total_like_count"`

	OverallCommentRate      *float64 `json:"overall_comment_rate"`
	OverallLikeRate         *float64 `json:"overall_like_rate"`
	OverallEngagementRate   *float64 `json:"overall_engagement_rate"`
	OverallEngagedLikeRatio *float64 `json:"overall_engaged_like_ratio"`

	MeanCommentRate      *float64 `json:"mean_comment_rate_across_videos"`
	MeanLikeRate         *float64 `json:"mean_like_rate_across_videos"`
	MeanEngagementRate   *float64 `json:"mean_engagement_rate_across_videos"`
	MeanEngagedLikeRatio *float64 `json:"mean_engaged_like_ratio_across_videos"`
}

// VideoSummary is one entry of per_video_engagement_summary.
type VideoSummary struct {
	VideoID     string       `json:"video_id"`
	Title       string       `json:"title"`
	PublishedAt *string      `json:"published_at"`
	Metrics     VideoMetrics `json:"metrics"`
}

// mean tracks a running mean over defined values.
type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v *float64) {
	if v == nil {
		return
	}
	m.sum += *v
	m.n++
}

func (m mean) value() *float64 {
	if m.n == 0 {
		return nil
	}
	v := round6(m.sum / float64(m.n))
	return &v
}

// ChannelAggregator accumulates included videos into a ChannelMetrics.
// The zero value is ready to use.
type ChannelAggregator struct {
	videos   int
	views    int64
	comments int64
	likes    int64

	commentRate      mean
	likeRate         mean
	engagementRate   mean
	engagedLikeRatio mean
}

// Add folds the persisted metrics of one included video.
func (a *ChannelAggregator) Add(m VideoMetrics) {
	a.videos++
	a.views += m.ViewCount
	a.comments += m.CommentCount
	a.likes += m.LikeCount

	a.commentRate.add(m.CommentRate)
	a.likeRate.add(m.LikeRate)
	a.engagementRate.add(m.EngagementRate)
	a.engagedLikeRatio.add(m.EngagedLikeRatio)
}

// Videos returns the number of videos folded in.
func (a *ChannelAggregator) Videos() int { return a.videos }

// Metrics returns the channel aggregate for the videos added so far.
func (a *ChannelAggregator) Metrics() ChannelMetrics {
	return ChannelMetrics{
		VideosIncluded:    a.videos,
		TotalViewCount:    a.views,
		TotalCommentCount: a.comments,
		TotalLikeCount:    a.likes,

		OverallCommentRate:      ratio(a.comments, a.views),
		OverallLikeRate:         ratio(a.likes, a.views),
		OverallEngagementRate:   ratio(a.comments+a.likes, a.views),
		OverallEngagedLikeRatio: ratio(a.comments, a.likes),

		MeanCommentRate:      a.commentRate.value(),
		MeanLikeRate:         a.likeRate.value(),
		MeanEngagementRate:   a.engagementRate.value(),
		MeanEngagedLikeRatio: a.engagedLikeRatio.value(),
	}
}
