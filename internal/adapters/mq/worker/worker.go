// Package worker runs AUC evaluations off the job queue.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/rocauc/internal/adapters/reader"
	"github.com/okian/rocauc/internal/domain/auc"
	"github.com/okian/rocauc/internal/domain/model"
	"github.com/okian/rocauc/pkg/logger"
	"github.com/okian/rocauc/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Job abstracts what workers read off the queue.
type Job = model.Job

// Loader reads a labelled dataset from a source.
type Loader interface {
	ReadFile(ctx context.Context, path string) (*model.Dataset, error)
}

// Recorder stores finished reports.
type Recorder interface {
	Put(ctx context.Context, r model.Report) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Result is emitted once per processed job.
type Result struct {
	Job    Job
	Report model.Report
	Err    error
}

// Worker processes jobs and records reports using the provided interfaces.
type Worker interface {
	// Run starts the worker loop until the queue drains or ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after its current job.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for evaluating jobs.
type InMemoryWorker struct {
	queue    Queue
	loader   Loader
	recorder Recorder
	results  chan<- Result
	name     string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
// Results are sent on results, which must have room for every job or be drained concurrently.
func NewInMemoryWorker(queue Queue, loader Loader, recorder Recorder, results chan<- Result, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		loader:   loader,
		recorder: recorder,
		results:  results,
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

			metrics.WorkerBusy()
			res := w.process(ctx, job)
			metrics.WorkerIdle()

			if res.Err != nil {
				w.logger.Debug(ctx, "evaluation failed",
					logger.String("source", job.Source),
					logger.Error(res.Err),
				)
			}

			select {
			case w.results <- res:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

// Shutdown stops the worker after its current job.
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

// process evaluates a single job.
func (w *InMemoryWorker) process(ctx context.Context, job Job) Result {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	res := Result{Job: job}

	ds, err := w.loader.ReadFile(ctx, job.Source)
	if err != nil {
		res.Err = w.fail(err)
		return res
	}

	summary, err := auc.Summarize(ds.Labels, ds.Scores)
	if err != nil {
		res.Err = w.fail(fmt.Errorf("%s: %w", job.Source, err))
		return res
	}

	elapsed := time.Since(start)
	report := model.Report{
		ID:           job.ID,
		Index:        job.Index,
		Source:       job.Source,
		AUC:          summary.AUC,
		Samples:      summary.Samples,
		Positives:    summary.Positives,
		Negatives:    summary.Negatives,
		TiedGroups:   summary.TiedGroups,
		PositiveMean: summary.PositiveMean,
		NegativeMean: summary.NegativeMean,
		Duration:     elapsed,
	}

	if err := w.recorder.Put(ctx, report); err != nil {
		res.Err = w.fail(fmt.Errorf("record %s: %w", job.Source, err))
		return res
	}

	metrics.RecordEvaluation(metrics.OutcomeOK)
	metrics.RecordEvaluationLatency(float64(elapsed.Milliseconds()))
	metrics.SetAUC(job.Source, summary.AUC)

	w.logger.Debug(ctx, "evaluated",
		logger.String("source", job.Source),
		logger.Float64("auc", summary.AUC),
		logger.Int("samples", summary.Samples),
	)

	res.Report = report
	return res
}

func (w *InMemoryWorker) fail(err error) error {
	metrics.RecordWorkerError()
	metrics.RecordEvaluation(Outcome(err))
	return err
}

// Outcome maps an evaluation error to its metrics outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeCanceled
	case errors.Is(err, reader.ErrParse):
		return metrics.OutcomeParseError
	case errors.Is(err, reader.ErrFileAccess):
		return metrics.OutcomeFileError
	default:
		return metrics.OutcomeInvalidInput
	}
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	logger logger.Logger
}

// NewPool creates a new worker pool. A workerCount below 1 means one worker per CPU.
func NewPool(workerCount int, queue Queue, loader Loader, recorder Recorder, results chan<- Result) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  logger.Get().Named("worker-pool"),
	}

	for i := range workerCount {
		pool.workers[i] = NewInMemoryWorker(
			queue,
			loader,
			recorder,
			results,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Wait blocks until every worker has returned or ctx is done.
func (p *Pool) Wait(ctx context.Context) error {
	for _, w := range p.workers {
		select {
		case <-w.Done():
		case <-ctx.Done():
			return fmt.Errorf("wait for workers: %w", ctx.Err())
		}
	}
	return nil
}

// Shutdown closes the queue and stops all workers.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	return nil
}
