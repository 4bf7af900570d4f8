package postgres

import (
	"context"
	"fmt"

	"brent-regime-lab/internal/domain"
	"brent-regime-lab/internal/storage"
)

// ChangePointStore implements storage.ChangePointStore using PostgreSQL.
type ChangePointStore struct {
	pool *Pool
}

// NewChangePointStore creates a new ChangePointStore.
func NewChangePointStore(pool *Pool) *ChangePointStore {
	return &ChangePointStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ChangePointStore = (*ChangePointStore)(nil)

// InsertBulk adds a run's change points in one transaction. Returns
// ErrDuplicateKey if any (run_id, ordinal) already exists.
func (s *ChangePointStore) InsertBulk(ctx context.Context, runID string, cps []domain.ChangePoint) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(cps) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO change_points (run_id, ordinal, cp_index, cp_pos, cp_date)
		VALUES ($1, $2, $3, $4, $5)
	`
	for i, cp := range cps {
		if _, err := tx.Exec(ctx, query, runID, i, cp.Index, cp.Pos, cp.Date); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert change point %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByRunID retrieves a run's change points ordered by date ASC.
func (s *ChangePointStore) GetByRunID(ctx context.Context, runID string) ([]domain.ChangePoint, error) {
	query := `
		SELECT cp_index, cp_pos, cp_date
		FROM change_points
		WHERE run_id = $1
		ORDER BY cp_date ASC, ordinal ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get change points: %w", err)
	}
	defer rows.Close()

	var out []domain.ChangePoint
	for rows.Next() {
		var cp domain.ChangePoint
		if err := rows.Scan(&cp.Index, &cp.Pos, &cp.Date); err != nil {
			return nil, fmt.Errorf("scan change point: %w", err)
		}
		out = append(out, cp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate change points: %w", err)
	}
	if len(out) == 0 {
		return nil, storage.ErrNotFound
	}
	return out, nil
}
