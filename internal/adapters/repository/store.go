// Package repository defines the report store interface and errors.
package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/okian/rocauc/internal/domain/model"
	"github.com/okian/rocauc/pkg/metrics"
)

// Store provides read/write access to evaluation reports.
type Store interface {
	// Put records a report. A report with the same ID replaces the old one.
	Put(ctx context.Context, r model.Report) error

	// List returns all reports ordered by their input position.
	List(ctx context.Context) []model.Report

	// TopN returns the n reports with the highest AUC.
	// Ties keep input order.
	TopN(ctx context.Context, n int) ([]model.Report, error)

	// Count returns the number of stored reports.
	Count(ctx context.Context) int
}

// MemoryStore is a mutex-guarded Store.
type MemoryStore struct {
	mu       sync.RWMutex
	byID     map[string]model.Report
	capacity int
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{}
	for _, opt := range opts {
		opt(s)
	}
	s.byID = make(map[string]model.Report, s.capacity)
	return s
}

// Put records a report.
func (s *MemoryStore) Put(ctx context.Context, r model.Report) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("put report %s: %w", r.ID, err)
	}
	if r.ID == "" {
		return fmt.Errorf("%w: source %s", ErrMissingID, r.Source)
	}

	s.mu.Lock()
	s.byID[r.ID] = r
	n := len(s.byID)
	s.mu.Unlock()

	metrics.UpdateReportsStored(n)
	return nil
}

// List returns all reports ordered by Index.
func (s *MemoryStore) List(_ context.Context) []model.Report {
	s.mu.RLock()
	out := make([]model.Report, 0, len(s.byID))
	for _, r := range s.byID {
		out = append(out, r)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, byIndex)
	return out
}

// TopN returns up to n reports ordered by AUC desc, then Index asc.
func (s *MemoryStore) TopN(ctx context.Context, n int) ([]model.Report, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}

	out := s.List(ctx)
	slices.SortStableFunc(out, func(a, b model.Report) int {
		switch {
		case a.AUC > b.AUC:
			return -1
		case a.AUC < b.AUC:
			return 1
		default:
			return 0
		}
	})
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// Count returns the number of stored reports.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func byIndex(a, b model.Report) int {
	if a.Index != b.Index {
		return a.Index - b.Index
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	default:
		return 0
	}
}
