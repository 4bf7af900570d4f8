package clickhouse

import (
	"context"
	"fmt"
	"time"

	"brent-regime-lab/internal/domain"
	"brent-regime-lab/internal/storage"
)

// SeriesStore implements storage.SeriesStore using ClickHouse.
type SeriesStore struct {
	conn *Conn
}

// NewSeriesStore creates a new SeriesStore.
func NewSeriesStore(conn *Conn) *SeriesStore {
	return &SeriesStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SeriesStore = (*SeriesStore)(nil)

// InsertBulk adds a cleaned series. Fails entire batch on duplicate (digest, date).
func (s *SeriesStore) InsertBulk(ctx context.Context, digest string, points []domain.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[time.Time]struct{})
	for _, p := range points {
		d := p.Date.UTC().Truncate(24 * time.Hour)
		if _, exists := seen[d]; exists {
			return storage.ErrDuplicateKey
		}
		seen[d] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	exists, err := s.exists(ctx, digest)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO price_series (dataset_digest, date, price)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		if err := batch.Append(digest, p.Date.UTC(), p.Price); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByDigest retrieves a series, ordered by date ASC.
func (s *SeriesStore) GetByDigest(ctx context.Context, digest string) ([]domain.PricePoint, error) {
	query := `
		SELECT date, price
		FROM price_series
		WHERE dataset_digest = ?
		ORDER BY date ASC
	`

	rows, err := s.conn.Query(ctx, query, digest)
	if err != nil {
		return nil, fmt.Errorf("query by digest: %w", err)
	}
	defer rows.Close()

	points, err := scanPricePoints(rows)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, storage.ErrNotFound
	}
	return points, nil
}

// GetByDateRange retrieves points with start <= date <= end, ordered by date ASC.
func (s *SeriesStore) GetByDateRange(ctx context.Context, digest string, start, end time.Time) ([]domain.PricePoint, error) {
	query := `
		SELECT date, price
		FROM price_series
		WHERE dataset_digest = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`

	rows, err := s.conn.Query(ctx, query, digest, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("query by date range: %w", err)
	}
	defer rows.Close()

	points, err := scanPricePoints(rows)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, storage.ErrNotFound
	}
	return points, nil
}

// exists checks if any rows exist for the digest.
func (s *SeriesStore) exists(ctx context.Context, digest string) (bool, error) {
	query := `
		SELECT count(*) FROM price_series
		WHERE dataset_digest = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, digest).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanPricePoints scans multiple rows.
func scanPricePoints(rows chRows) ([]domain.PricePoint, error) {
	var points []domain.PricePoint

	for rows.Next() {
		var p domain.PricePoint
		if err := rows.Scan(&p.Date, &p.Price); err != nil {
			return nil, fmt.Errorf("scan price point row: %w", err)
		}
		p.Date = p.Date.UTC()
		points = append(points, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price point rows: %w", err)
	}

	return points, nil
}
