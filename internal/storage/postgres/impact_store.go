package postgres

import (
	"context"
	"fmt"

	"brent-regime-lab/internal/domain"
	"brent-regime-lab/internal/storage"
)

// ImpactStore implements storage.ImpactStore using PostgreSQL.
type ImpactStore struct {
	pool *Pool
}

// NewImpactStore creates a new ImpactStore.
func NewImpactStore(pool *Pool) *ImpactStore {
	return &ImpactStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ImpactStore = (*ImpactStore)(nil)

// InsertBulk adds a run's impact records in one transaction. Returns
// ErrDuplicateKey if any (run_id, regime) already exists.
func (s *ImpactStore) InsertBulk(ctx context.Context, runID string, records []domain.ImpactRecord) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO impact_records (
			run_id, regime, start_date, end_date, observations,
			mean_price, std_dev, ann_vol, price_change_pct, vol_change_pct
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	for _, r := range records {
		_, err := tx.Exec(ctx, query,
			runID, r.Regime, r.Start, r.End, r.Observations,
			r.MeanPrice, r.StdDev, r.AnnualizedVol,
			r.PriceChangePct, r.VolChangePct, // nil maps to NULL for the first regime
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert impact record for regime %d: %w", r.Regime, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByRunID retrieves a run's impact records ordered by regime ASC.
func (s *ImpactStore) GetByRunID(ctx context.Context, runID string) ([]domain.ImpactRecord, error) {
	query := `
		SELECT regime, start_date, end_date, observations,
		       mean_price, std_dev, ann_vol, price_change_pct, vol_change_pct
		FROM impact_records
		WHERE run_id = $1
		ORDER BY regime ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get impact records: %w", err)
	}
	defer rows.Close()

	var out []domain.ImpactRecord
	for rows.Next() {
		var r domain.ImpactRecord
		if err := rows.Scan(
			&r.Regime, &r.Start, &r.End, &r.Observations,
			&r.MeanPrice, &r.StdDev, &r.AnnualizedVol,
			&r.PriceChangePct, &r.VolChangePct,
		); err != nil {
			return nil, fmt.Errorf("scan impact record: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate impact records: %w", err)
	}
	if len(out) == 0 {
		return nil, storage.ErrNotFound
	}
	return out, nil
}
