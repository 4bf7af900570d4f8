package postgres

import (
	"context"
	"fmt"

	"brent-regime-lab/internal/domain"
	"brent-regime-lab/internal/storage"
)

// RunStore implements storage.RunStore using PostgreSQL.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new RunStore.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

const runColumns = `
	run_id, short_id, dataset_digest, k, draws, tune, chains, target_accept,
	seed, mu_scale, sigma_scale, shared_sigma, observations, window_start,
	window_end, started_at, completed_at, max_rhat, min_ess_bulk, converged
`

// Insert adds a completed run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(ctx context.Context, run *domain.AnalysisRun) error {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO analysis_runs (` + runColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	_, err := s.pool.Exec(ctx, query,
		run.RunID,
		run.ShortID,
		run.DatasetDigest,
		run.Spec.K,
		run.Spec.Draws,
		run.Spec.Tune,
		run.Spec.Chains,
		run.Spec.TargetAccept,
		int64(run.Spec.Seed),
		run.Spec.MuScale,
		run.Spec.SigmaScale,
		run.Spec.SharedSigma,
		run.Observations,
		run.WindowStart,
		run.WindowEnd,
		run.StartedAt,
		run.CompletedAt,
		run.MaxRHat,
		run.MinESSBulk,
		run.Converged,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(ctx context.Context, runID string) (*domain.AnalysisRun, error) {
	query := `SELECT ` + runColumns + ` FROM analysis_runs WHERE run_id = $1`

	run, err := scanRun(s.pool.QueryRow(ctx, query, runID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get run by id: %w", err)
	}
	return run, nil
}

// GetLatest retrieves the most recently completed run.
func (s *RunStore) GetLatest(ctx context.Context) (*domain.AnalysisRun, error) {
	query := `SELECT ` + runColumns + ` FROM analysis_runs ORDER BY completed_at DESC, run_id DESC LIMIT 1`

	run, err := scanRun(s.pool.QueryRow(ctx, query))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest run: %w", err)
	}
	return run, nil
}

// rowScanner abstracts pgx.Row and pgx.Rows for scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*domain.AnalysisRun, error) {
	var run domain.AnalysisRun
	var seed int64
	err := row.Scan(
		&run.RunID,
		&run.ShortID,
		&run.DatasetDigest,
		&run.Spec.K,
		&run.Spec.Draws,
		&run.Spec.Tune,
		&run.Spec.Chains,
		&run.Spec.TargetAccept,
		&seed,
		&run.Spec.MuScale,
		&run.Spec.SigmaScale,
		&run.Spec.SharedSigma,
		&run.Observations,
		&run.WindowStart,
		&run.WindowEnd,
		&run.StartedAt,
		&run.CompletedAt,
		&run.MaxRHat,
		&run.MinESSBulk,
		&run.Converged,
	)
	if err != nil {
		return nil, err
	}
	run.Spec.Seed = uint64(seed)
	return &run, nil
}
