package memory

import (
	"context"
	"sync"

	"brent-regime-lab/internal/domain"
	"brent-regime-lab/internal/storage"
)

// ConvergenceStore is an in-memory implementation of storage.ConvergenceStore.
type ConvergenceStore struct {
	mu   sync.RWMutex
	data map[string][]domain.ParameterSummary // keyed by run_id
}

// NewConvergenceStore creates a new in-memory convergence store.
func NewConvergenceStore() *ConvergenceStore {
	return &ConvergenceStore{data: make(map[string][]domain.ParameterSummary)}
}

// Compile-time interface check.
var _ storage.ConvergenceStore = (*ConvergenceStore)(nil)

// InsertBulk adds a run's parameter summaries. Returns ErrDuplicateKey
// if the run already has summaries stored.
func (s *ConvergenceStore) InsertBulk(_ context.Context, runID string, rows []domain.ParameterSummary) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[runID]; exists {
		return storage.ErrDuplicateKey
	}
	cp := make([]domain.ParameterSummary, len(rows))
	copy(cp, rows)
	s.data[runID] = cp
	return nil
}

// GetByRunID retrieves a run's parameter summaries in insert order.
func (s *ConvergenceStore) GetByRunID(_ context.Context, runID string) ([]domain.ParameterSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, ok := s.data[runID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := make([]domain.ParameterSummary, len(rows))
	copy(out, rows)
	return out, nil
}
