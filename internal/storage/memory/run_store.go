// Package memory holds in-memory store implementations. They back the
// single-process pipeline runs and the unit tests; behavior matches the
// database-backed stores, including the append-only duplicate rules.
package memory

import (
	"context"
	"sync"

	"brent-regime-lab/internal/domain"
	"brent-regime-lab/internal/storage"
)

// RunStore is an in-memory implementation of storage.RunStore.
type RunStore struct {
	mu    sync.RWMutex
	runs  map[string]*domain.AnalysisRun
	order []string // insert order, for GetLatest
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{runs: make(map[string]*domain.AnalysisRun)}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

// Insert adds a completed run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(_ context.Context, run *domain.AnalysisRun) error {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[run.RunID]; exists {
		return storage.ErrDuplicateKey
	}
	cp := *run
	s.runs[run.RunID] = &cp
	s.order = append(s.order, run.RunID)
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(_ context.Context, runID string) (*domain.AnalysisRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[runID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *run
	return &cp, nil
}

// GetLatest retrieves the most recently inserted run.
func (s *RunStore) GetLatest(_ context.Context) (*domain.AnalysisRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.order) == 0 {
		return nil, storage.ErrNotFound
	}
	cp := *s.runs[s.order[len(s.order)-1]]
	return &cp, nil
}
