package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okian/tubesense/internal/domain/aggregate"
	"github.com/okian/tubesense/internal/domain/cutoff"
	"github.com/okian/tubesense/internal/domain/engagement"
	"github.com/okian/tubesense/internal/domain/model"
	"github.com/okian/tubesense/pkg/logger"
	"github.com/okian/tubesense/pkg/metrics"
)

// derived is the outcome of deriving one included video.
type derived struct {
	video      model.Video
	write      bool
	engagement *engagement.VideoMetrics
	acc        *aggregate.Accumulator

	unknownSentiments int
	unknownTopics     int
}

// processVideo handles one video file. Failures are recorded on the run and
// never returned.
func (d *Driver) processVideo(ctx context.Context, r *run, name string) {
	start := time.Now()
	r.report.VideosSeen++
	file := logger.String("file", name)

	data, err := d.store.ReadVideo(ctx, r.req.ChannelID, name)
	if err != nil {
		d.fail(ctx, r, name, "read", err)
		return
	}
	v, err := model.DecodeVideo(data)
	if err != nil {
		d.fail(ctx, r, name, "decode", err)
		return
	}

	if ok, reason := r.cut.Includes(v.PublishedAt); !ok {
		r.report.VideosExcluded++
		r.report.Excluded = append(r.report.Excluded, Skip{File: name, Reason: reason})
		metrics.RecordVideo("excluded")
		if reason == cutoff.ReasonNoDate {
			r.log.Warn(ctx, "skipping video: "+reason, r.channelField(), file, logger.String("published_at", v.PublishedAt))
		} else {
			r.log.Debug(ctx, "skipping video: "+reason, r.channelField(), file, logger.String("published_at", v.PublishedAt))
		}
		return
	}

	out, err := d.derive(ctx, r, name, v)
	if err != nil {
		d.fail(ctx, r, name, "derive", err)
		return
	}

	if out.write {
		encoded, err := out.video.Encode()
		if err != nil {
			d.fail(ctx, r, name, "encode", err)
			return
		}
		if err := d.store.WriteVideo(ctx, r.req.ChannelID, name, encoded); err != nil {
			d.fail(ctx, r, name, "write", err)
			return
		}
		r.report.VideosWritten++
	}

	// Only videos whose record was derived and persisted feed the channel summary.
	r.report.VideosIncluded++
	r.report.UnknownSentiments += out.unknownSentiments
	r.report.UnknownTopics += out.unknownTopics
	if out.engagement != nil {
		r.channelAgg.Add(*out.engagement)
		published := v.PublishedAt
		r.summaries = append(r.summaries, engagement.VideoSummary{
			VideoID:     videoID(v, name),
			Title:       v.Title,
			PublishedAt: &published,
			Metrics:     *out.engagement,
		})
	}
	if out.acc != nil {
		r.pooled.Merge(out.acc)
		r.weighted++
		r.report.CommentsWeighted += out.acc.Comments()
		metrics.RecordCommentsWeighted(out.acc.Comments())
	}

	metrics.RecordVideo("included")
	metrics.RecordVideoLatency(float64(time.Since(start).Microseconds()) / 1000)
	r.log.Debug(ctx, "video processed", r.channelField(), file)
}

// derive builds the output record of an included video as a pure function of
// the input record. v is not modified.
func (d *Driver) derive(ctx context.Context, r *run, name string, v model.Video) (derived, error) {
	out := derived{video: v}
	var err error

	if r.req.Mode.Engagement() {
		m := engagement.ComputeVideo(engagement.Counts{
			Views:    v.ViewCount,
			Comments: v.CommentCount,
			Likes:    v.LikeCount,
		})
		if out.video, err = out.video.WithField(model.FieldEngagementMetrics, m); err != nil {
			return derived{}, err
		}
		out.engagement = &m
		out.write = true
	}

	// A video without comments gets no weighted metrics at all.
	if !r.req.Mode.Weighted() || len(v.Comments) == 0 {
		return out, nil
	}

	acc := aggregate.NewAccumulator(d.taxonomy.Sentiments())
	weighted := make([]model.Comment, len(v.Comments))
	for i, c := range v.Comments {
		if c.Likes < 0 || c.Replies < 0 {
			return derived{}, fmt.Errorf("%w: comments[%d] has likes=%d num_replies=%d", ErrNegativeEngagement, i, c.Likes, c.Replies)
		}

		res := d.taxonomy.Resolve(c.Sentiment, c.Topics)
		if n := len(res.UnknownSentiments) + len(res.UnknownTopics); n > 0 {
			if d.policy == PolicyReject {
				return derived{}, fmt.Errorf("%w: comments[%d]: %s", ErrUnknownLabel, i,
					strings.Join(append(res.UnknownSentiments, res.UnknownTopics...), ", "))
			}
			for _, l := range res.UnknownSentiments {
				metrics.RecordUnknownLabel("sentiment")
				r.log.Warn(ctx, "ignoring unknown sentiment label", r.channelField(), logger.String("file", name), logger.Int("comment", i), logger.String("label", l))
			}
			for _, l := range res.UnknownTopics {
				metrics.RecordUnknownLabel("topic")
				r.log.Warn(ctx, "ignoring unknown topic label", r.channelField(), logger.String("file", name), logger.Int("comment", i), logger.String("label", l))
			}
			out.unknownSentiments += len(res.UnknownSentiments)
			out.unknownTopics += len(res.UnknownTopics)
		}

		w := r.weigher.Weight(c.Likes, c.Replies)
		acc.Add(w, res.Sentiment, res.Topics)
		if weighted[i], err = c.WithWeight(w); err != nil {
			return derived{}, err
		}
	}

	if out.video, err = out.video.WithComments(weighted); err != nil {
		return derived{}, err
	}
	if out.video, err = out.video.WithField(model.FieldWeightedMetrics, acc.Normalize()); err != nil {
		return derived{}, err
	}
	out.acc = acc
	out.write = true
	return out, nil
}

// fail records a per-video failure.
func (d *Driver) fail(ctx context.Context, r *run, name, stage string, err error) {
	r.report.VideosFailed++
	r.report.Failures = append(r.report.Failures, Skip{File: name, Reason: err.Error()})
	metrics.RecordVideo("failed")
	metrics.RecordErrorByComponent("pipeline", stage)
	r.log.Error(ctx, "error processing video", r.channelField(), logger.String("file", name), logger.String("stage", stage), logger.Error(err))
}

// videoID returns the record's video_id, falling back to the file stem.
func videoID(v model.Video, name string) string {
	if v.VideoID != "" {
		return v.VideoID
	}
	return strings.TrimSuffix(name, ".json")
}
