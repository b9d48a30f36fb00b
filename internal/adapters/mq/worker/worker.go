// Package worker runs queued aggregation jobs.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/tubesense/internal/domain/model"
	"github.com/okian/tubesense/pkg/logger"
	"github.com/okian/tubesense/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Job is what workers read off the queue.
type Job = model.Job

// Runner executes one job. It owns the job's bookkeeping (ledger entry,
// in-flight guard) and must not panic.
type Runner interface {
	Execute(ctx context.Context, job Job) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
	Len(ctx context.Context) int
}

// Worker processes jobs through a Runner.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after the job in progress, if any.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for a single job at a time.
type InMemoryWorker struct {
	queue  Queue
	runner Runner
	name   string
	busy   *atomic.Int64

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, runner Runner, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		runner:   runner,
		name:     "worker",
		busy:     new(atomic.Int64),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			// A job received together with a shutdown signal still runs; its
			// context is cancelled by the caller when it must stop early.
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "error processing job", logger.String("run_id", job.RunID), logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, job Job) error {
	metrics.RecordQueueDequeue()
	metrics.UpdateQueueSize(w.queue.Len(ctx))
	if !job.EnqueuedAt.IsZero() {
		metrics.RecordQueueWait(float64(time.Since(job.EnqueuedAt).Microseconds()) / 1000)
	}

	metrics.UpdateWorkerActiveCount(int(w.busy.Add(1)))
	defer func() { metrics.UpdateWorkerActiveCount(int(w.busy.Add(-1))) }()

	w.logger.Debug(ctx, "running job",
		logger.String("run_id", job.RunID),
		logger.String("channel_id", job.ChannelID),
		logger.String("mode", string(job.Mode)))

	if err := w.runner.Execute(ctx, job); err != nil {
		metrics.RecordErrorByComponent("worker", "run_failed")
		return fmt.Errorf("run %s for channel %s: %w", job.RunID, job.ChannelID, err)
	}
	return nil
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	busy    *atomic.Int64
	logger  logger.Logger
}

// NewPool creates a worker pool. workerCount < 1 means a single worker, which
// keeps channel runs strictly sequential.
func NewPool(workerCount int, queue Queue, runner Runner, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		busy:    new(atomic.Int64),
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		w := NewInMemoryWorker(queue, runner, wopts...)
		w.busy = pool.busy
		pool.workers[i] = w
	}
	metrics.UpdateWorkerActiveCount(0)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Active returns the number of workers currently running a job.
func (p *Pool) Active() int { return int(p.busy.Load()) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown stops every worker, waiting for jobs in progress. Queued jobs are
// left in the queue.
func (p *Pool) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var firstErr error
	for i, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
