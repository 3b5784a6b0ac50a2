// Package service evaluates result files through the job queue and worker pool.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"

	jobqueue "github.com/okian/rocauc/internal/adapters/mq/queue"
	workerpool "github.com/okian/rocauc/internal/adapters/mq/worker"
	"github.com/okian/rocauc/internal/adapters/reader"
	repository "github.com/okian/rocauc/internal/adapters/repository"
	"github.com/okian/rocauc/internal/domain/model"
	"github.com/okian/rocauc/pkg/logger"
)

const (
	defaultQueueSize  = 1024
	enqueueRetryDelay = time.Millisecond
)

// Service runs batch AUC evaluations.
type Service struct {
	workerCount int
	queueSize   int

	loader workerpool.Loader
	store  repository.Store

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   defaultQueueSize,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.loader == nil {
		s.loader = reader.New()
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}

	return s
}

// Evaluate computes one report per source and returns them in input order.
// If any source fails, the joined errors are returned and no reports.
func (s *Service) Evaluate(ctx context.Context, sources []string) ([]model.Report, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Repeated paths are read once; stdin can only be consumed once anyway.
	first := make(map[string]int, len(sources))
	var unique []string
	for i, src := range sources {
		if _, ok := first[src]; !ok {
			first[src] = i
			unique = append(unique, src)
		}
	}

	q := jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(min(s.queueSize, len(unique))))
	results := make(chan workerpool.Result, len(unique))
	pool := workerpool.NewPool(min(s.workerCount, len(unique)), q, s.loader, s.store, results)
	pool.Start(ctx)
	defer func() {
		cancel()
		_ = pool.Shutdown(context.WithoutCancel(ctx))
	}()

	s.logger.Debug(ctx, "evaluation started",
		logger.Int("sources", len(unique)),
		logger.Int("workers", pool.Size()),
	)

	go s.submit(ctx, q, unique, first, results)

	byIndex := make(map[int]model.Report, len(unique))
	var errs []error
	for range unique {
		select {
		case res := <-results:
			if res.Err != nil {
				errs = append(errs, res.Err)
				continue
			}
			byIndex[res.Job.Index] = res.Report
		case <-ctx.Done():
			return nil, fmt.Errorf("evaluate: %w", ctx.Err())
		}
	}

	// Every job is accounted for and the submitter has closed the queue,
	// so the workers drain out on their own.
	if err := pool.Wait(ctx); err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}

	if len(errs) > 0 {
		s.logger.Debug(ctx, "evaluation failed", logger.Int("failures", len(errs)))
		return nil, errors.Join(errs...)
	}

	reports := make([]model.Report, len(sources))
	for i, src := range sources {
		r := byIndex[first[src]]
		r.Index = i
		reports[i] = r
	}

	s.logger.Debug(ctx, "evaluation finished", logger.Int("reports", len(reports)))
	return reports, nil
}

// submit enqueues one job per source, waiting for room when the queue is full.
// Enqueue failures are reported as results so Evaluate still sees one per source.
func (s *Service) submit(ctx context.Context, q *jobqueue.InMemoryQueue, sources []string, index map[string]int, results chan<- workerpool.Result) {
	defer func() { _ = q.Close() }()

	for _, src := range sources {
		job := model.Job{ID: uuid.NewString(), Index: index[src], Source: src}
		for {
			err := q.Enqueue(ctx, job)
			if err == nil {
				break
			}
			if !errors.Is(err, jobqueue.ErrFull) {
				results <- workerpool.Result{Job: job, Err: err}
				break
			}
			s.logger.Debug(ctx, "queue full, retrying",
				logger.String("source", src),
				logger.Int("pending", q.Len()),
			)
			select {
			case <-time.After(enqueueRetryDelay):
			case <-ctx.Done():
				results <- workerpool.Result{Job: job, Err: ctx.Err()}
				return
			}
		}
	}
}

// EvaluateOne is Evaluate for a single source.
func (s *Service) EvaluateOne(ctx context.Context, source string) (model.Report, error) {
	reports, err := s.Evaluate(ctx, []string{source})
	if err != nil {
		return model.Report{}, err
	}
	return reports[0], nil
}

// TopN returns the n best reports computed by this service so far.
func (s *Service) TopN(ctx context.Context, n int) ([]model.Report, error) {
	return s.store.TopN(ctx, n)
}

// Count returns the number of reports computed by this service so far.
func (s *Service) Count(ctx context.Context) int {
	return s.store.Count(ctx)
}
