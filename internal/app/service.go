// Package service wires the aggregation pipeline to its run ledger, in-flight
// guard and job queue, and implements the dependencies of the HTTP API.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/okian/tubesense/internal/adapters/history"
	jobqueue "github.com/okian/tubesense/internal/adapters/mq/queue"
	workerpool "github.com/okian/tubesense/internal/adapters/mq/worker"
	"github.com/okian/tubesense/internal/adapters/repository"
	"github.com/okian/tubesense/internal/domain/inflight"
	"github.com/okian/tubesense/internal/domain/labels"
	"github.com/okian/tubesense/internal/domain/model"
	"github.com/okian/tubesense/internal/domain/pipeline"
	"github.com/okian/tubesense/internal/domain/scoring"
	"github.com/okian/tubesense/internal/domain/types"
	"github.com/okian/tubesense/pkg/logger"
	"github.com/okian/tubesense/pkg/metrics"
	"github.com/okian/tubesense/pkg/progress"
)

// maxTrackedRuns bounds the in-memory view of recent runs.
const maxTrackedRuns = 1024

// Service runs channel aggregations synchronously (CLI) or through a queue (HTTP).
type Service struct {
	mu sync.RWMutex

	// Core components
	store   repository.Store
	history history.Store
	guard   inflight.Guard
	driver  *pipeline.Driver
	queue   *jobqueue.InMemoryQueue
	pool    *workerpool.Pool

	// Configuration
	dataRoot    string
	workerCount int
	queueSize   int
	taxonomy    *labels.Taxonomy
	likeWeight  float64
	replyWeight float64
	policy      pipeline.LabelPolicy
	now         func() time.Time
	progress    progress.Reporter
	newID       func() string

	// State
	started bool
	cancel  context.CancelFunc

	runsMu    sync.RWMutex
	runs      map[string]types.Run
	runOrder  []string
	submitted atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of run workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of queued runs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDataRoot sets the directory holding one sub-directory per channel.
// Ignored when WithRepository is given.
func WithDataRoot(root string) Option {
	return func(s *Service) {
		if root != "" {
			s.dataRoot = root
		}
	}
}

// WithRepository sets the channel store.
func WithRepository(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithHistory sets the run ledger.
func WithHistory(h history.Store) Option {
	return func(s *Service) {
		if h != nil {
			s.history = h
		}
	}
}

// WithTaxonomy sets the closed label sets.
func WithTaxonomy(t *labels.Taxonomy) Option {
	return func(s *Service) {
		if t != nil {
			s.taxonomy = t
		}
	}
}

// WithCoefficients sets the default like and reply coefficients.
func WithCoefficients(like, reply float64) Option {
	return func(s *Service) {
		if like >= 0 && reply >= 0 {
			s.likeWeight = like
			s.replyWeight = reply
		}
	}
}

// WithLabelPolicy sets how unknown model labels are handled.
func WithLabelPolicy(p pipeline.LabelPolicy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// WithClock sets the time source for day cutoffs and run timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithProgress sets the progress reporter used by synchronous runs.
func WithProgress(p progress.Reporter) Option {
	return func(s *Service) {
		if p != nil {
			s.progress = p
		}
	}
}

// WithIDGenerator sets the run id generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// New constructs a Service. Synchronous runs work right away; Start is only
// needed for Submit.
func New(opts ...Option) *Service {
	s := &Service{
		dataRoot:    "data",
		workerCount: 1,
		queueSize:   64,
		taxonomy:    labels.Default(),
		likeWeight:  scoring.DefaultLikeWeight,
		replyWeight: scoring.DefaultReplyWeight,
		policy:      pipeline.PolicyWarn,
		now:         time.Now,
		progress:    progress.Nop(),
		newID:       uuid.NewString,
		history:     history.Nop(),
		guard:       inflight.NewGuard(),
		runs:        make(map[string]types.Run),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.store == nil {
		s.store = repository.NewFileStore(s.dataRoot)
	}
	s.driver = pipeline.NewDriver(s.store,
		pipeline.WithLogger(s.logger),
		pipeline.WithTaxonomy(s.taxonomy),
		pipeline.WithLabelPolicy(s.policy),
		pipeline.WithCoefficients(s.likeWeight, s.replyWeight),
		pipeline.WithClock(s.now),
		pipeline.WithProgress(s.progress),
	)
	return s
}

// Start starts the queue and worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting aggregation service...")

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.queue = jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s, workerpool.WithLogger(s.logger.Named("worker")))
	s.pool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "aggregation service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
	)
	return nil
}

// Stop cancels runs in progress, stops the workers and fails every run that
// was still queued.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping aggregation service...")

	s.cancel()
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown incomplete", logger.Error(err))
	}
	_ = s.queue.Close()
	for _, job := range s.queue.Drain() {
		s.finish(ctx, s.runFor(job), pipeline.Report{}, ErrStopped)
		s.release(ctx, job.ChannelID)
	}

	s.started = false
	s.logger.Info(ctx, "aggregation service stopped")
}

// Run aggregates one channel synchronously.
func (s *Service) Run(ctx context.Context, req pipeline.Request) (types.Run, pipeline.Report, error) {
	req, err := normalize(req)
	if err != nil {
		return types.Run{}, pipeline.Report{}, err
	}
	if !s.guard.Acquire(ctx, req.ChannelID) {
		return types.Run{}, pipeline.Report{}, fmt.Errorf("%w: %s", ErrChannelBusy, req.ChannelID)
	}
	metrics.UpdateInflightRuns(int(s.guard.Size()))
	defer s.release(ctx, req.ChannelID)

	run := s.begin(ctx, req)
	return s.execute(ctx, run, req)
}

// Submit validates req and queues it. The returned run is queued.
func (s *Service) Submit(ctx context.Context, req pipeline.Request) (types.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return types.Run{}, ErrNotStarted
	}

	req, err := normalize(req)
	if err != nil {
		return types.Run{}, err
	}
	if err := s.driver.Validate(ctx, req); err != nil {
		return types.Run{}, err
	}
	if !s.guard.Acquire(ctx, req.ChannelID) {
		return types.Run{}, fmt.Errorf("%w: %s", ErrChannelBusy, req.ChannelID)
	}
	metrics.UpdateInflightRuns(int(s.guard.Size()))

	run := s.begin(ctx, req)
	job := model.Job{
		RunID:       run.ID,
		ChannelID:   req.ChannelID,
		Mode:        req.Mode,
		Since:       req.Since,
		Days:        req.Days,
		LikeWeight:  req.LikeWeight,
		ReplyWeight: req.ReplyWeight,
		EnqueuedAt:  s.now(),
	}
	if !s.queue.Enqueue(ctx, job) {
		s.finish(ctx, run, pipeline.Report{}, ErrBackpressure)
		s.release(ctx, req.ChannelID)
		return types.Run{}, ErrBackpressure
	}
	s.logger.Info(ctx, "run queued", logger.String("run_id", run.ID), logger.String("channel_id", run.ChannelID))
	return run, nil
}

// Execute runs a queued job. It implements the worker Runner.
func (s *Service) Execute(ctx context.Context, job model.Job) error {
	defer s.release(ctx, job.ChannelID)

	run := s.runFor(job)
	req := pipeline.Request{
		ChannelID:   job.ChannelID,
		Mode:        job.Mode,
		Since:       job.Since,
		Days:        job.Days,
		LikeWeight:  job.LikeWeight,
		ReplyWeight: job.ReplyWeight,
	}
	_, _, err := s.execute(ctx, run, req)
	return err
}

// RunStatus returns a run by id.
func (s *Service) RunStatus(ctx context.Context, id string) (types.Run, error) {
	if run, ok := s.trackedRun(id); ok {
		return run, nil
	}
	run, err := s.history.Get(ctx, id)
	if errors.Is(err, history.ErrNotFound) {
		return types.Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// ChannelRuns returns the most recent ledger entries of a channel.
func (s *Service) ChannelRuns(ctx context.Context, channelID string, limit int) ([]types.Run, error) {
	return s.history.ListByChannel(ctx, channelID, limit)
}

// ChannelSummary reads the aggregate fields from a channel metadata record.
func (s *Service) ChannelSummary(ctx context.Context, channelID string) (types.ChannelSummary, error) {
	data, err := s.store.ReadChannel(ctx, channelID)
	if errors.Is(err, fs.ErrNotExist) {
		return types.ChannelSummary{}, fmt.Errorf("%w: %s", ErrNoSummary, channelID)
	}
	if err != nil {
		return types.ChannelSummary{}, err
	}
	ch, err := model.DecodeChannel(data)
	if err != nil {
		return types.ChannelSummary{}, fmt.Errorf("%w: %s: %w", pipeline.ErrChannelMetadata, channelID, err)
	}

	out := types.ChannelSummary{ChannelID: channelID}
	if raw, ok := ch.Field(model.FieldEngagementMetrics); ok {
		out.EngagementMetrics = compact(raw)
	}
	if raw, ok := ch.Field(model.FieldWeightedMetricsSummary); ok {
		out.WeightedMetricsSummary = compact(raw)
	}
	if out.EngagementMetrics == nil && out.WeightedMetricsSummary == nil {
		return types.ChannelSummary{}, fmt.Errorf("%w: %s", ErrNoSummary, channelID)
	}
	return out, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":         s.started,
		"workerCount":     s.workerCount,
		"queueSize":       s.queueSize,
		"runsSubmitted":   s.submitted.Load(),
		"runsSucceeded":   s.succeeded.Load(),
		"runsFailed":      s.failed.Load(),
		"runningChannels": s.guard.Channels(),
	}
	if s.started {
		queueLen := s.queue.Len(context.Background())
		stats["queueLength"] = queueLen
		stats["activeWorkers"] = s.pool.Active()
		metrics.UpdateQueueSize(queueLen)
	}
	return stats
}

func compact(raw json.RawMessage) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}

// normalize trims the channel id and parses the mode.
func normalize(req pipeline.Request) (pipeline.Request, error) {
	req.ChannelID = strings.TrimSpace(req.ChannelID)
	if req.ChannelID == "" {
		return req, fmt.Errorf("%w: channel id is required", pipeline.ErrInvalidRequest)
	}
	mode, err := model.ParseMode(string(req.Mode))
	if err != nil {
		return req, fmt.Errorf("%w: %w", pipeline.ErrInvalidRequest, err)
	}
	req.Mode = mode
	return req, nil
}

// begin records a new queued run.
func (s *Service) begin(ctx context.Context, req pipeline.Request) types.Run {
	run := types.Run{
		ID:        s.newID(),
		ChannelID: req.ChannelID,
		Mode:      string(req.Mode),
		Status:    types.StatusQueued,
		StartedAt: s.now(),
	}
	s.submitted.Add(1)
	if err := s.history.Begin(ctx, run); err != nil {
		s.logger.Warn(ctx, "run ledger unavailable", logger.String("run_id", run.ID), logger.Error(err))
	}
	s.track(run)
	return run
}

// execute runs the driver for an admitted run and records the outcome.
func (s *Service) execute(ctx context.Context, run types.Run, req pipeline.Request) (types.Run, pipeline.Report, error) {
	run.Status = types.StatusRunning
	s.track(run)
	if err := s.history.MarkRunning(ctx, run.ID); err != nil {
		s.logger.Warn(ctx, "run ledger unavailable", logger.String("run_id", run.ID), logger.Error(err))
	}

	rep, err := s.driver.Run(ctx, req)
	run = s.finish(ctx, run, rep, err)
	return run, rep, err
}

// finish stores the terminal state of run.
func (s *Service) finish(ctx context.Context, run types.Run, rep pipeline.Report, err error) types.Run {
	finished := s.now()
	run.FinishedAt = &finished
	run.VideosIncluded = rep.VideosIncluded
	run.VideosExcluded = rep.VideosExcluded
	run.VideosFailed = rep.VideosFailed
	run.CommentsWeighted = rep.CommentsWeighted
	if err != nil {
		run.Status = types.StatusFailed
		run.Error = err.Error()
		s.failed.Add(1)
	} else {
		run.Status = types.StatusSucceeded
		s.succeeded.Add(1)
	}
	if herr := s.history.Finish(context.WithoutCancel(ctx), run); herr != nil {
		s.logger.Warn(ctx, "run ledger unavailable", logger.String("run_id", run.ID), logger.Error(herr))
	}
	s.track(run)
	return run
}

func (s *Service) release(ctx context.Context, channelID string) {
	s.guard.Release(ctx, channelID)
	metrics.UpdateInflightRuns(int(s.guard.Size()))
}

func (s *Service) track(run types.Run) {
	s.runsMu.Lock()
	defer s.runsMu.Unlock()
	if _, ok := s.runs[run.ID]; !ok {
		s.runOrder = append(s.runOrder, run.ID)
		if len(s.runOrder) > maxTrackedRuns {
			delete(s.runs, s.runOrder[0])
			s.runOrder = s.runOrder[1:]
		}
	}
	s.runs[run.ID] = run
}

// runFor returns the tracked run of job, rebuilding it when it was evicted.
func (s *Service) runFor(job model.Job) types.Run {
	if run, ok := s.trackedRun(job.RunID); ok {
		return run
	}
	return types.Run{ID: job.RunID, ChannelID: job.ChannelID, Mode: string(job.Mode), StartedAt: job.EnqueuedAt}
}

func (s *Service) trackedRun(id string) (types.Run, bool) {
	s.runsMu.RLock()
	defer s.runsMu.RUnlock()
	run, ok := s.runs[id]
	return run, ok
}
