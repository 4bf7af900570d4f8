package storage

import (
	"context"
	"time"

	"brent-regime-lab/internal/domain"
)

// RunStore provides access to analysis_runs storage.
type RunStore interface {
	// Insert adds a completed run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, run *domain.AnalysisRun) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.AnalysisRun, error)

	// GetLatest retrieves the most recently completed run.
	// Returns ErrNotFound when the store is empty.
	GetLatest(ctx context.Context) (*domain.AnalysisRun, error)
}

// ChangePointStore provides access to detected change points, keyed by run.
type ChangePointStore interface {
	// InsertBulk adds a run's change points. Returns ErrDuplicateKey if
	// any already exist for the run.
	InsertBulk(ctx context.Context, runID string, cps []domain.ChangePoint) error

	// GetByRunID retrieves a run's change points ordered by date ASC.
	GetByRunID(ctx context.Context, runID string) ([]domain.ChangePoint, error)
}

// ImpactStore provides access to per-regime impact records, keyed by run.
type ImpactStore interface {
	// InsertBulk adds a run's impact records. Returns ErrDuplicateKey if
	// any already exist for the run.
	InsertBulk(ctx context.Context, runID string, records []domain.ImpactRecord) error

	// GetByRunID retrieves a run's impact records ordered by regime ASC.
	GetByRunID(ctx context.Context, runID string) ([]domain.ImpactRecord, error)
}

// ConvergenceStore provides access to per-parameter convergence
// summaries, keyed by run.
type ConvergenceStore interface {
	// InsertBulk adds a run's parameter summaries. Returns
	// ErrDuplicateKey if any already exist for the run.
	InsertBulk(ctx context.Context, runID string, rows []domain.ParameterSummary) error

	// GetByRunID retrieves a run's parameter summaries in insert order.
	// Returns ErrNotFound when the run has no summaries.
	GetByRunID(ctx context.Context, runID string) ([]domain.ParameterSummary, error)
}

// SeriesStore provides access to cleaned price series storage, keyed by
// dataset digest.
type SeriesStore interface {
	// InsertBulk adds a cleaned series. Fails the whole batch with
	// ErrDuplicateKey on any duplicate (digest, date).
	InsertBulk(ctx context.Context, digest string, points []domain.PricePoint) error

	// GetByDigest retrieves a series ordered by date ASC. Returns
	// ErrNotFound when no points exist for the digest.
	GetByDigest(ctx context.Context, digest string) ([]domain.PricePoint, error)

	// GetByDateRange retrieves points with start <= date <= end, ordered
	// by date ASC.
	GetByDateRange(ctx context.Context, digest string, start, end time.Time) ([]domain.PricePoint, error)
}
