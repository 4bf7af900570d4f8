package memory

import (
	"context"
	"sort"
	"sync"

	"brent-regime-lab/internal/domain"
	"brent-regime-lab/internal/storage"
)

// ImpactStore is an in-memory implementation of storage.ImpactStore.
type ImpactStore struct {
	mu   sync.RWMutex
	data map[string][]domain.ImpactRecord // keyed by run_id
}

// NewImpactStore creates a new in-memory impact store.
func NewImpactStore() *ImpactStore {
	return &ImpactStore{data: make(map[string][]domain.ImpactRecord)}
}

// Compile-time interface check.
var _ storage.ImpactStore = (*ImpactStore)(nil)

// InsertBulk adds a run's impact records. Returns ErrDuplicateKey if the
// run already has records stored.
func (s *ImpactStore) InsertBulk(_ context.Context, runID string, records []domain.ImpactRecord) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[runID]; exists {
		return storage.ErrDuplicateKey
	}
	cp := make([]domain.ImpactRecord, len(records))
	copy(cp, records)
	s.data[runID] = cp
	return nil
}

// GetByRunID retrieves a run's impact records ordered by regime ASC.
func (s *ImpactStore) GetByRunID(_ context.Context, runID string) ([]domain.ImpactRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, ok := s.data[runID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := make([]domain.ImpactRecord, len(records))
	copy(out, records)
	sort.Slice(out, func(i, j int) bool { return out[i].Regime < out[j].Regime })
	return out, nil
}
