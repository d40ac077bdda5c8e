// Package worker defines worker contracts for asynchronous batch ranking.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/masarhr/murshid/internal/adapters/repository"
	"github.com/masarhr/murshid/internal/domain/model"
	"github.com/masarhr/murshid/pkg/logger"
	"github.com/masarhr/murshid/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 4 // multiplier for runtime.NumCPU()
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Job abstracts what workers read off the queue.
// Using the model.BatchJob type for consistency.
type Job = model.BatchJob

// Ranker runs the recommendation pipeline for one employee.
type Ranker interface {
	Rank(ctx context.Context, p model.EmployeeProfile, candidates []model.CourseCandidate, topK int) ([]model.Recommendation, error)
}

// Results stores completed ranking results.
type Results interface {
	Put(ctx context.Context, res repository.Result) error
}

// Tracker observes per-job batch outcomes.
type Tracker interface {
	JobSucceeded(batchID string)
	JobFailed(batchID string)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes batch jobs and writes ranking results using the
// provided interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	// It will process any remaining jobs before stopping.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing batch jobs.
type InMemoryWorker struct {
	queue   Queue
	ranker  Ranker
	results Results
	tracker Tracker
	name    string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, ranker Ranker, results Results, tracker Tracker, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		ranker:   ranker,
		results:  results,
		tracker:  tracker,
		name:     "worker",
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
	defer func() {
		close(w.done)
	}()

	jobChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobChan:
			if !ok {
				// Channel closed, worker should stop.
				return
			}

			// A failing job is counted and logged, never propagated: one
			// malformed profile must not take down its batch siblings.
			if err := w.processJob(ctx, job); err != nil {
				w.logger.Error(ctx, "error processing batch job", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
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

// processJob ranks a single employee and stores the result.
func (w *InMemoryWorker) processJob(ctx context.Context, job Job) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	recs, err := w.ranker.Rank(ctx, job.Profile, job.Candidates, job.TopK)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordBatchJobFailed()
		metrics.RecordErrorByComponent("worker", "ranking_error")
		metrics.RecordErrorByType("ranking_error", "high")
		w.failed(job.BatchID)
		w.logger.Error(ctx, "ranking failed for job",
			logger.String("jobID", job.JobID),
			logger.String("employeeID", job.Profile.EmployeeID),
			logger.Error(err),
		)
		return fmt.Errorf("failed to rank job %s: %w", job.JobID, err)
	}

	err = w.results.Put(ctx, repository.Result{
		EmployeeID:      job.Profile.EmployeeID,
		BatchID:         job.BatchID,
		Recommendations: recs,
		GeneratedAt:     time.Now().UTC(),
	})
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordBatchJobFailed()
		metrics.RecordErrorByComponent("worker", "store_error")
		metrics.RecordErrorByType("store_error", "high")
		w.failed(job.BatchID)
		w.logger.Error(ctx, "storing result failed for job",
			logger.String("jobID", job.JobID),
			logger.Error(err),
		)
		return fmt.Errorf("store result for job %s: %w", job.JobID, err)
	}

	metrics.RecordBatchJobSucceeded()
	if w.tracker != nil {
		w.tracker.JobSucceeded(job.BatchID)
	}

	return nil
}

func (w *InMemoryWorker) failed(batchID string) {
	if w.tracker != nil {
		w.tracker.JobFailed(batchID)
	}
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	// Shutdown control
	shutdown chan struct{}

	// Logging
	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, queue Queue, ranker Ranker, results Results, tracker Tracker) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    queue,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			queue,
			ranker,
			results,
			tracker,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	close(p.shutdown)

	for _, worker := range p.workers {
		select {
		case <-worker.done:
			// Worker finished.
		case <-time.After(workerShutdownTimeout):
			// Worker timeout.
		}
	}
}

// Shutdown gracefully shuts down the entire worker pool.
func (p *Pool) Shutdown(ctx context.Context) error {
	// First close the queue so workers drain and stop.
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	return nil
}
