package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"brent-regime-lab/internal/domain"
	"brent-regime-lab/internal/storage"
)

// SeriesStore is an in-memory implementation of storage.SeriesStore.
type SeriesStore struct {
	mu   sync.RWMutex
	data map[string]domain.PricePoint // keyed by (digest, date)
}

// NewSeriesStore creates a new in-memory series store.
func NewSeriesStore() *SeriesStore {
	return &SeriesStore{data: make(map[string]domain.PricePoint)}
}

// Compile-time interface check.
var _ storage.SeriesStore = (*SeriesStore)(nil)

// seriesKey generates a unique key for a price point.
func seriesKey(digest string, date time.Time) string {
	return fmt.Sprintf("%s|%s", digest, date.Format("2006-01-02"))
}

// InsertBulk adds a cleaned series. Fails the whole batch with
// ErrDuplicateKey on any duplicate (digest, date).
func (s *SeriesStore) InsertBulk(_ context.Context, digest string, points []domain.PricePoint) error {
	if digest == "" {
		return storage.ErrInvalidInput
	}
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// First pass: duplicates against existing data and inside the batch.
	batch := make(map[string]struct{}, len(points))
	for _, p := range points {
		key := seriesKey(digest, p.Date)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batch[key]; exists {
			return storage.ErrDuplicateKey
		}
		batch[key] = struct{}{}
	}

	for _, p := range points {
		s.data[seriesKey(digest, p.Date)] = p
	}
	return nil
}

// GetByDigest retrieves a series ordered by date ASC.
func (s *SeriesStore) GetByDigest(ctx context.Context, digest string) ([]domain.PricePoint, error) {
	return s.GetByDateRange(ctx, digest, time.Time{}, time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC))
}

// GetByDateRange retrieves points with start <= date <= end, ordered by
// date ASC.
func (s *SeriesStore) GetByDateRange(_ context.Context, digest string, start, end time.Time) ([]domain.PricePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := digest + "|"
	var out []domain.PricePoint
	for key, p := range s.data {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix &&
			!p.Date.Before(start) && !p.Date.After(end) {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil, storage.ErrNotFound
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
