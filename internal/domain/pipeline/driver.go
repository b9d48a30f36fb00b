// Package pipeline drives the aggregation of one channel directory: it reads
// every video record, selects videos by publish date, derives engagement and
// weighted metrics, and writes the derived records and the channel summary.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"strings"
	"time"

	"github.com/okian/tubesense/internal/domain/aggregate"
	"github.com/okian/tubesense/internal/domain/cutoff"
	"github.com/okian/tubesense/internal/domain/engagement"
	"github.com/okian/tubesense/internal/domain/labels"
	"github.com/okian/tubesense/internal/domain/model"
	"github.com/okian/tubesense/internal/domain/scoring"
	"github.com/okian/tubesense/pkg/logger"
	"github.com/okian/tubesense/pkg/metrics"
	"github.com/okian/tubesense/pkg/progress"
)

// Store is the channel directory access the driver needs.
//
// ReadChannel must return an error wrapping fs.ErrNotExist when the channel
// has no metadata record.
type Store interface {
	ChannelExists(ctx context.Context, channelID string) (bool, error)
	ListVideos(ctx context.Context, channelID string) ([]string, error)
	ReadVideo(ctx context.Context, channelID, name string) ([]byte, error)
	WriteVideo(ctx context.Context, channelID, name string, data []byte) error
	ReadChannel(ctx context.Context, channelID string) ([]byte, error)
	WriteChannel(ctx context.Context, channelID string, data []byte) error
}

// Request describes one run.
type Request struct {
	ChannelID string
	Mode      model.Mode

	Since string
	Days  *int

	// Optional per-run coefficient overrides.
	LikeWeight  *float64
	ReplyWeight *float64
}

// WeightedSummary is the pooled weighted metrics of every included video,
// persisted under weighted_metrics_summary on the channel record.
type WeightedSummary struct {
	VideosWeighted   int `json:"videos_weighted"`
	CommentsWeighted int `json:"comments_weighted"`
	aggregate.WeightedMetrics
}

// Driver runs channel aggregations. A Driver is safe for concurrent use on
// different channels; callers must not run the same channel twice at once.
type Driver struct {
	store       Store
	logger      logger.Logger
	taxonomy    *labels.Taxonomy
	policy      LabelPolicy
	weigherOpts []scoring.Option
	now         func() time.Time
	progress    progress.Reporter
}

// NewDriver creates a driver over store.
func NewDriver(store Store, opts ...Option) *Driver {
	d := &Driver{
		store:    store,
		logger:   logger.Discard(),
		taxonomy: labels.Default(),
		policy:   PolicyWarn,
		now:      time.Now,
		progress: progress.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// run carries the state of one Run call.
type run struct {
	req     Request
	cut     cutoff.Cutoff
	weigher *scoring.Weigher
	log     logger.Logger

	channelAgg engagement.ChannelAggregator
	summaries  []engagement.VideoSummary
	pooled     *aggregate.Accumulator
	weighted   int

	report Report
}

// Run aggregates one channel. Precondition failures are returned before any
// file is written. Per-video failures are logged, counted in the report and
// skipped. When ctx is cancelled between videos the run stops; records
// already written stay written and the channel record is not updated.
func (d *Driver) Run(ctx context.Context, req Request) (rep Report, err error) {
	start := d.now()
	if req.Mode == "" {
		req.Mode = model.ModeAll
	}
	defer func() {
		rep.Duration = d.now().Sub(start)
		status := "succeeded"
		if err != nil {
			status = "failed"
		}
		metrics.RecordRun(string(req.Mode), status, float64(rep.Duration.Microseconds())/1000)
	}()

	r, err := d.prepare(ctx, req)
	if err != nil {
		return Report{ChannelID: req.ChannelID, Mode: req.Mode}, err
	}

	channelID := r.req.ChannelID
	channel, err := d.loadChannel(ctx, channelID)
	if err != nil {
		r.log.Error(ctx, "cannot load channel metadata", r.channelField(), logger.Error(err))
		return r.report, err
	}

	names, err := d.store.ListVideos(ctx, channelID)
	if err != nil {
		return r.report, fmt.Errorf("list videos of %s: %w", channelID, err)
	}

	r.log.Info(ctx, "processing channel",
		r.channelField(),
		logger.Int("videos", len(names)),
		logger.String("mode", string(req.Mode)),
		logger.String("cutoff", r.cut.String()))

	d.progress.Start(len(names), "Processing channel "+channelID)
	defer d.progress.Finish()

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			r.log.Warn(ctx, "run cancelled", r.channelField(), logger.Int("videos_processed", r.report.VideosSeen))
			return r.report, fmt.Errorf("run cancelled: %w", err)
		}
		d.processVideo(ctx, r, name)
		d.progress.Step(name)
	}

	if err := d.writeChannel(ctx, r, channel); err != nil {
		return r.report, err
	}

	r.log.Info(ctx, "channel processed",
		r.channelField(),
		logger.Int("included", r.report.VideosIncluded),
		logger.Int("excluded", r.report.VideosExcluded),
		logger.Int("failed", r.report.VideosFailed),
		logger.Int("comments_weighted", r.report.CommentsWeighted))
	return r.report, nil
}

// Validate checks the preconditions of req without touching any record.
func (d *Driver) Validate(ctx context.Context, req Request) error {
	if req.Mode == "" {
		req.Mode = model.ModeAll
	}
	_, err := d.prepare(ctx, req)
	return err
}

func (r *run) channelField() logger.Field {
	return logger.String("channel_id", r.req.ChannelID)
}

// prepare validates the request and resolves the cutoff and weigher.
func (d *Driver) prepare(ctx context.Context, req Request) (*run, error) {
	log := d.logger.Named("pipeline")
	channelID := strings.TrimSpace(req.ChannelID)
	if channelID == "" {
		return nil, fmt.Errorf("%w: channel id is required", ErrInvalidRequest)
	}
	if req.Mode != model.ModeAll && req.Mode != model.ModeEngagement && req.Mode != model.ModeWeighted {
		return nil, fmt.Errorf("%w: %w: %q", ErrInvalidRequest, model.ErrInvalidMode, req.Mode)
	}

	opts := append([]scoring.Option(nil), d.weigherOpts...)
	for name, w := range map[string]*float64{"like_weight": req.LikeWeight, "reply_weight": req.ReplyWeight} {
		if w == nil {
			continue
		}
		if *w < 0 || math.IsNaN(*w) || math.IsInf(*w, 0) {
			return nil, fmt.Errorf("%w: %s must be a non-negative number", ErrInvalidRequest, name)
		}
	}
	if req.LikeWeight != nil {
		opts = append(opts, scoring.WithLikeWeight(*req.LikeWeight))
	}
	if req.ReplyWeight != nil {
		opts = append(opts, scoring.WithReplyWeight(*req.ReplyWeight))
	}

	cut, err := cutoff.New(req.Since, req.Days, d.now())
	if err != nil {
		log.Error(ctx, "invalid cutoff", logger.String("since", req.Since), logger.Any("days", req.Days), logger.Error(err))
		return nil, err
	}

	exists, err := d.store.ChannelExists(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("check channel %s: %w", channelID, err)
	}
	if !exists {
		log.Error(ctx, "channel directory not found", logger.String("channel_id", channelID))
		return nil, fmt.Errorf("%w: %s", ErrChannelNotFound, channelID)
	}

	req.ChannelID = channelID
	return &run{
		req:     req,
		cut:     cut,
		weigher: scoring.NewWeigher(opts...),
		log:     log,
		pooled:  aggregate.NewAccumulator(d.taxonomy.Sentiments()),
		report: Report{
			ChannelID: channelID,
			Mode:      req.Mode,
			Cutoff:    cut.String(),
		},
	}, nil
}

// loadChannel reads the channel metadata record, or starts a new one.
func (d *Driver) loadChannel(ctx context.Context, channelID string) (model.Channel, error) {
	data, err := d.store.ReadChannel(ctx, channelID)
	if errors.Is(err, fs.ErrNotExist) {
		return model.NewChannel(), nil
	}
	if err != nil {
		return model.Channel{}, fmt.Errorf("read channel metadata of %s: %w", channelID, err)
	}
	ch, err := model.DecodeChannel(data)
	if err != nil {
		return model.Channel{}, fmt.Errorf("%w: %s: %w", ErrChannelMetadata, channelID, err)
	}
	return ch, nil
}

// writeChannel attaches the channel-level summaries and persists the record.
func (d *Driver) writeChannel(ctx context.Context, r *run, channel model.Channel) error {
	var err error
	if r.req.Mode.Engagement() {
		m := r.channelAgg.Metrics()
		r.report.Engagement = &m
		if channel, err = channel.WithField(model.FieldEngagementMetrics, m); err != nil {
			return err
		}
		summaries := r.summaries
		if summaries == nil {
			summaries = []engagement.VideoSummary{}
		}
		if channel, err = channel.WithField(model.FieldPerVideoSummary, summaries); err != nil {
			return err
		}
	}
	if r.req.Mode.Weighted() {
		ws := WeightedSummary{
			VideosWeighted:   r.weighted,
			CommentsWeighted: r.pooled.Comments(),
			WeightedMetrics:  r.pooled.Normalize(),
		}
		r.report.Weighted = &ws
		if channel, err = channel.WithField(model.FieldWeightedMetricsSummary, ws); err != nil {
			return err
		}
	}

	data, err := channel.Encode()
	if err != nil {
		return fmt.Errorf("encode channel metadata: %w", err)
	}
	if err := d.store.WriteChannel(ctx, r.req.ChannelID, data); err != nil {
		metrics.RecordErrorByComponent("pipeline", "write_channel")
		r.log.Error(ctx, "failed to write channel metadata", r.channelField(), logger.Error(err))
		return fmt.Errorf("write channel metadata of %s: %w", r.req.ChannelID, err)
	}
	r.report.ChannelWritten = true
	r.log.Info(ctx, "wrote channel metadata", r.channelField())
	return nil
}
