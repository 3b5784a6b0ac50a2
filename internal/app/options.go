// Package service evaluates result files through the job queue and worker pool.
package service

import (
	workerpool "github.com/okian/rocauc/internal/adapters/mq/worker"
	repository "github.com/okian/rocauc/internal/adapters/repository"
	"github.com/okian/rocauc/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending jobs.
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

// WithLoader replaces the file reader used by workers.
func WithLoader(loader workerpool.Loader) Option {
	return func(s *Service) {
		if loader != nil {
			s.loader = loader
		}
	}
}

// WithStore replaces the report store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}
