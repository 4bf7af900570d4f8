package memory

import (
	"context"
	"sort"
	"sync"

	"brent-regime-lab/internal/domain"
	"brent-regime-lab/internal/storage"
)

// ChangePointStore is an in-memory implementation of storage.ChangePointStore.
type ChangePointStore struct {
	mu   sync.RWMutex
	data map[string][]domain.ChangePoint // keyed by run_id
}

// NewChangePointStore creates a new in-memory change point store.
func NewChangePointStore() *ChangePointStore {
	return &ChangePointStore{data: make(map[string][]domain.ChangePoint)}
}

// Compile-time interface check.
var _ storage.ChangePointStore = (*ChangePointStore)(nil)

// InsertBulk adds a run's change points. Returns ErrDuplicateKey if the
// run already has change points stored.
func (s *ChangePointStore) InsertBulk(_ context.Context, runID string, cps []domain.ChangePoint) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(cps) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[runID]; exists {
		return storage.ErrDuplicateKey
	}
	cp := make([]domain.ChangePoint, len(cps))
	copy(cp, cps)
	s.data[runID] = cp
	return nil
}

// GetByRunID retrieves a run's change points ordered by date ASC.
func (s *ChangePointStore) GetByRunID(_ context.Context, runID string) ([]domain.ChangePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cps, ok := s.data[runID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := make([]domain.ChangePoint, len(cps))
	copy(out, cps)
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
