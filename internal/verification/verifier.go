// Package verification replays a stored analysis run and checks that the
// re-run reproduces the recorded posterior summaries and change points.
package verification

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"brent-regime-lab/internal/changepoint"
	"brent-regime-lab/internal/diagnostics"
	"brent-regime-lab/internal/domain"
	"brent-regime-lab/internal/mcmc"
	"brent-regime-lab/internal/storage"
)

// FloatTolerance is the tolerance for float64 comparisons. Replay with a
// fixed seed is deterministic on one platform; the tolerance absorbs
// cross-platform float differences.
const FloatTolerance = 1e-7

// ErrRunNotFound is returned when the run ID doesn't exist.
var ErrRunNotFound = errors.New("run not found")

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string      // field name
	Expected interface{} // stored value
	Actual   interface{} // replayed value
}

// VerificationResult contains the result of verifying a single run.
type VerificationResult struct {
	RunID       string            // verified run ID
	Match       bool              // true if all fields match
	Divergences []FieldDivergence // list of divergent fields
}

// Verifier replays runs from stored series data.
type Verifier struct {
	runStore         storage.RunStore
	changePointStore storage.ChangePointStore
	convergenceStore storage.ConvergenceStore
	seriesStore      storage.SeriesStore
	log              zerolog.Logger
}

// Options contains configuration for creating a Verifier.
type Options struct {
	RunStore         storage.RunStore
	ChangePointStore storage.ChangePointStore
	ConvergenceStore storage.ConvergenceStore
	SeriesStore      storage.SeriesStore
	Logger           zerolog.Logger
}

// NewVerifier creates a new Verifier.
func NewVerifier(opts Options) *Verifier {
	return &Verifier{
		runStore:         opts.RunStore,
		changePointStore: opts.ChangePointStore,
		convergenceStore: opts.ConvergenceStore,
		seriesStore:      opts.SeriesStore,
		log:              opts.Logger,
	}
}

// VerifyRun re-runs the sampler with a run's stored spec and compares the
// posterior summaries and extracted change points against the stored ones.
func (v *Verifier) VerifyRun(ctx context.Context, runID string) (*VerificationResult, error) {
	// 1. Load stored run
	run, err := v.runStore.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}

	// 2. Rebuild the series from storage
	points, err := v.seriesStore.GetByDigest(ctx, run.DatasetDigest)
	if err != nil {
		return nil, fmt.Errorf("load stored series: %w", err)
	}
	series, err := domain.NewSeries(points)
	if err != nil {
		return nil, fmt.Errorf("rebuild series: %w", err)
	}

	// 3. Replay sampling
	model, err := changepoint.New(series, run.Spec)
	if err != nil {
		return nil, fmt.Errorf("rebuild model: %w", err)
	}
	trace, err := mcmc.Sample(ctx, model.Problem(), mcmc.Config{
		Draws:        run.Spec.Draws,
		Tune:         run.Spec.Tune,
		Chains:       run.Spec.Chains,
		TargetAccept: run.Spec.TargetAccept,
		Seed:         run.Spec.Seed,
	}, v.log)
	if err != nil {
		return nil, fmt.Errorf("replay sampling: %w", err)
	}

	// 4. Compare summaries and change points
	var divergences []FieldDivergence

	storedSummary, err := v.convergenceStore.GetByRunID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load stored summary: %w", err)
	}
	divergences = append(divergences, CompareSummaries(storedSummary, diagnostics.Summarize(trace))...)

	storedCPs, err := v.changePointStore.GetByRunID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load stored change points: %w", err)
	}
	replayedCPs, err := changepoint.Extract(trace, series, run.Spec.K, v.log)
	if err != nil {
		return nil, fmt.Errorf("extract replayed change points: %w", err)
	}
	divergences = append(divergences, CompareChangePoints(storedCPs, replayedCPs)...)

	return &VerificationResult{
		RunID:       runID,
		Match:       len(divergences) == 0,
		Divergences: divergences,
	}, nil
}

// CompareSummaries compares stored and replayed parameter summaries.
func CompareSummaries(stored, replayed []domain.ParameterSummary) []FieldDivergence {
	var divs []FieldDivergence
	if len(stored) != len(replayed) {
		return []FieldDivergence{{Field: "summary.len", Expected: len(stored), Actual: len(replayed)}}
	}
	for i := range stored {
		s, r := stored[i], replayed[i]
		if s.Parameter != r.Parameter {
			divs = append(divs, FieldDivergence{
				Field: fmt.Sprintf("summary[%d].parameter", i), Expected: s.Parameter, Actual: r.Parameter,
			})
			continue
		}
		divs = appendFloatDivergence(divs, s.Parameter+".mean", s.Mean, r.Mean)
		divs = appendFloatDivergence(divs, s.Parameter+".sd", s.SD, r.SD)
		divs = appendFloatDivergence(divs, s.Parameter+".r_hat", s.RHat, r.RHat)
		divs = appendFloatDivergence(divs, s.Parameter+".ess_bulk", s.ESSBulk, r.ESSBulk)
	}
	return divs
}

// CompareChangePoints compares stored and replayed change points.
func CompareChangePoints(stored, replayed []domain.ChangePoint) []FieldDivergence {
	var divs []FieldDivergence
	if len(stored) != len(replayed) {
		return []FieldDivergence{{Field: "change_points.len", Expected: len(stored), Actual: len(replayed)}}
	}
	for i := range stored {
		s, r := stored[i], replayed[i]
		divs = appendFloatDivergence(divs, fmt.Sprintf("change_points[%d].index", i), s.Index, r.Index)
		if s.Pos != r.Pos {
			divs = append(divs, FieldDivergence{
				Field: fmt.Sprintf("change_points[%d].pos", i), Expected: s.Pos, Actual: r.Pos,
			})
		}
		if !s.Date.Equal(r.Date) {
			divs = append(divs, FieldDivergence{
				Field: fmt.Sprintf("change_points[%d].date", i), Expected: s.Date, Actual: r.Date,
			})
		}
	}
	return divs
}

func appendFloatDivergence(divs []FieldDivergence, field string, expected, actual float64) []FieldDivergence {
	if floatsEqual(expected, actual) {
		return divs
	}
	return append(divs, FieldDivergence{Field: field, Expected: expected, Actual: actual})
}

// floatsEqual compares floats within FloatTolerance. NaNs compare equal.
func floatsEqual(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return math.Abs(a-b) <= FloatTolerance
}
