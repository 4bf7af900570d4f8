package artifacts

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"brent-regime-lab/internal/domain"
)

// ErrNotFound is returned when an artifact file does not exist.
// Presentation callers degrade gracefully on it instead of failing hard.
var ErrNotFound = errors.New("artifact not found")

// ReadChangePoints loads a detected change points artifact. Positions
// are reconstructed by clamping the stored continuous index onto the
// given series.
func ReadChangePoints(path string, series *domain.Series) ([]domain.ChangePoint, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("open change points: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	if _, err := cr.Read(); err != nil { // header
		return nil, fmt.Errorf("read change points header: %w", err)
	}

	var cps []domain.ChangePoint
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read change points row: %w", err)
		}
		if len(rec) < 2 {
			return nil, fmt.Errorf("change points row has %d fields, want 2", len(rec))
		}
		idx, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			return nil, fmt.Errorf("parse change point index %q: %w", rec[0], err)
		}
		date, err := time.Parse(dateLayout, rec[1])
		if err != nil {
			return nil, fmt.Errorf("parse change point date %q: %w", rec[1], err)
		}
		pos := series.ClampIndex(idx)
		cps = append(cps, domain.ChangePoint{Index: idx, Pos: pos, Date: date})
	}
	return cps, nil
}
