package clickhouse

import (
	"context"
	"fmt"

	"brent-regime-lab/internal/domain"
	"brent-regime-lab/internal/storage"
)

// ConvergenceStore implements storage.ConvergenceStore using ClickHouse.
type ConvergenceStore struct {
	conn *Conn
}

// NewConvergenceStore creates a new ConvergenceStore.
func NewConvergenceStore(conn *Conn) *ConvergenceStore {
	return &ConvergenceStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ConvergenceStore = (*ConvergenceStore)(nil)

// InsertBulk adds a run's parameter summaries. Fails entire batch if the
// run already has rows.
func (s *ConvergenceStore) InsertBulk(ctx context.Context, runID string, rows []domain.ParameterSummary) error {
	if len(rows) == 0 {
		return nil
	}

	exists, err := s.exists(ctx, runID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO convergence_summaries (
			run_id, ordinal, parameter, mean, sd, r_hat, ess_bulk
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for i, r := range rows {
		err = batch.Append(
			runID, uint32(i), r.Parameter,
			r.Mean, r.SD, r.RHat, r.ESSBulk,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByRunID retrieves a run's parameter summaries in insert order.
func (s *ConvergenceStore) GetByRunID(ctx context.Context, runID string) ([]domain.ParameterSummary, error) {
	query := `
		SELECT parameter, mean, sd, r_hat, ess_bulk
		FROM convergence_summaries
		WHERE run_id = ?
		ORDER BY ordinal ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query by run id: %w", err)
	}
	defer rows.Close()

	out, err := scanSummaries(rows)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, storage.ErrNotFound
	}
	return out, nil
}

// exists checks if any summaries exist for the run.
func (s *ConvergenceStore) exists(ctx context.Context, runID string) (bool, error) {
	query := `
		SELECT count(*) FROM convergence_summaries
		WHERE run_id = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, runID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanSummaries scans multiple rows.
func scanSummaries(rows chRows) ([]domain.ParameterSummary, error) {
	var out []domain.ParameterSummary

	for rows.Next() {
		var r domain.ParameterSummary
		err := rows.Scan(&r.Parameter, &r.Mean, &r.SD, &r.RHat, &r.ESSBulk)
		if err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		out = append(out, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summary rows: %w", err)
	}

	return out, nil
}
