// Package worker runs the pool that loads queued pages into the dataset
// store ahead of requests.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/campaignboard/internal/adapters/mq/queue"
	"github.com/okian/campaignboard/pkg/logger"
	"github.com/okian/campaignboard/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount  = 2
	poolShutdownTimeout = 30 * time.Second
)

// Warmer loads a page's dataset.
type Warmer interface {
	Warm(ctx context.Context, page string) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes warm-up jobs.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after its current job.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker over a Queue.
type InMemoryWorker struct {
	queue  Queue
	warmer Warmer
	name   string

	processed *atomic.Int64

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, warmer Warmer, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     queue,
		warmer:    warmer,
		name:      "worker",
		processed: new(atomic.Int64),
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
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
			// Failures are logged and counted; the next request retries the load.
			_ = w.process(ctx, job)
		}
	}
}

// Shutdown stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, job queue.Job) error {
	start := time.Now()
	err := w.warmer.Warm(ctx, job.Page)
	elapsed := float64(time.Since(start).Nanoseconds()) / 1e6
	w.processed.Add(1)

	if err != nil {
		metrics.RecordWarm(job.Reason, "error", elapsed)
		w.logger.Warn(ctx, "warm-up failed",
			logger.String("page", job.Page),
			logger.String("reason", job.Reason),
			logger.Error(err))
		return fmt.Errorf("warm page %s: %w", job.Page, err)
	}

	metrics.RecordWarm(job.Reason, "success", elapsed)
	w.logger.Debug(ctx, "page warmed",
		logger.String("page", job.Page),
		logger.String("reason", job.Reason),
		logger.String("waited", start.Sub(job.Enqueued).String()),
		logger.Float64("ms", elapsed))
	return nil
}

// Pool manages multiple workers over one queue.
type Pool struct {
	workers   []*InMemoryWorker
	queue     Queue
	processed *atomic.Int64
	logger    logger.Logger
}

// NewPool creates a pool of workerCount workers. A count below one uses the
// default.
func NewPool(workerCount int, queue Queue, warmer Warmer, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	pool := &Pool{
		workers:   make([]*InMemoryWorker, workerCount),
		queue:     queue,
		processed: new(atomic.Int64),
		logger:    logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		wopts := append(append([]Option{}, opts...),
			WithName("worker-"+strconv.Itoa(i)),
			withCounter(pool.processed))
		pool.workers[i] = NewInMemoryWorker(queue, warmer, wopts...)
	}

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns how many jobs the pool has finished, failed ones
// included.
func (p *Pool) Processed() int64 { return p.processed.Load() }

// Shutdown closes the queue and waits for every worker to return.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var firstErr error
	for _, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
