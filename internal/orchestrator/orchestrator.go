// Package orchestrator provides end-to-end pipeline orchestration.
// It coordinates: load → properties → sampling → diagnostics → extraction → impact.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"brent-regime-lab/internal/artifacts"
	"brent-regime-lab/internal/changepoint"
	"brent-regime-lab/internal/dataset"
	"brent-regime-lab/internal/diagnostics"
	"brent-regime-lab/internal/domain"
	"brent-regime-lab/internal/eda"
	"brent-regime-lab/internal/impact"
	"brent-regime-lab/internal/mcmc"
	"brent-regime-lab/internal/observability"
	"brent-regime-lab/internal/runid"
	"brent-regime-lab/internal/storage"
)

// Orchestrator coordinates the full analysis pipeline.
type Orchestrator struct {
	inputPath    string
	artifactsDir string
	spec         domain.ModelSpec
	windowStart  time.Time
	windowEnd    time.Time

	runStore         storage.RunStore
	changePointStore storage.ChangePointStore
	impactStore      storage.ImpactStore
	convergenceStore storage.ConvergenceStore
	seriesStore      storage.SeriesStore

	log zerolog.Logger
}

// Options for creating an Orchestrator.
type Options struct {
	// Required
	InputPath    string
	ArtifactsDir string
	Spec         domain.ModelSpec

	// Optional analysis window; zero times mean unbounded.
	WindowStart time.Time
	WindowEnd   time.Time

	// Required stores (memory or DB-backed)
	RunStore         storage.RunStore
	ChangePointStore storage.ChangePointStore
	ImpactStore      storage.ImpactStore
	ConvergenceStore storage.ConvergenceStore
	SeriesStore      storage.SeriesStore

	Logger zerolog.Logger
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	return &Orchestrator{
		inputPath:        opts.InputPath,
		artifactsDir:     opts.ArtifactsDir,
		spec:             opts.Spec,
		windowStart:      opts.WindowStart,
		windowEnd:        opts.WindowEnd,
		runStore:         opts.RunStore,
		changePointStore: opts.ChangePointStore,
		impactStore:      opts.ImpactStore,
		convergenceStore: opts.ConvergenceStore,
		seriesStore:      opts.SeriesStore,
		log:              opts.Logger,
	}
}

// RunResult contains the outputs of one pipeline run.
type RunResult struct {
	Run          *domain.AnalysisRun
	Quality      *dataset.QualityReport
	Properties   eda.Properties
	ChangePoints []domain.ChangePoint
	Impact       []domain.ImpactRecord
	Summary      []domain.ParameterSummary
}

// Run executes the full pipeline and persists results to the stores and
// the artifacts directory. Artifact writes are atomic; a failed stage
// leaves no partial artifact behind.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	startedAt := time.Now().UTC()

	// Stage 1: load and clean the series.
	series, quality, err := dataset.Load(o.inputPath, o.log)
	if err != nil {
		return nil, fmt.Errorf("load series: %w", err)
	}
	if !o.windowStart.IsZero() || !o.windowEnd.IsZero() {
		ws, we := o.windowStart, o.windowEnd
		if ws.IsZero() {
			ws = series.First().Date
		}
		if we.IsZero() {
			we = series.Last().Date
		}
		series, err = series.Window(ws, we)
		if err != nil {
			return nil, fmt.Errorf("window series: %w", err)
		}
	}
	observability.RecordLoad(series.Len(), quality.DroppedDates, quality.MissingFilled)

	// Fail fast before any sampling.
	if err := o.spec.Validate(series.Len()); err != nil {
		return nil, err
	}

	digest := runid.DatasetDigest(series)
	id := runid.Compute(digest, o.spec)
	log := o.log.With().
		Str("run_id", runid.Short(id)).
		Int("k", o.spec.K).
		Int("n", series.Len()).
		Logger()

	if o.spec.DataStarved(series.Len()) {
		log.Warn().Msg("k is large relative to series length; regimes may be data-starved")
	}

	if err := o.writeArtifact(artifacts.SeriesFile, artifacts.RenderSeriesCSV(series)); err != nil {
		return nil, err
	}
	if err := o.persistSeries(ctx, digest, series, log); err != nil {
		return nil, err
	}

	// Stage 2: series properties.
	props := eda.Analyze(series)
	if err := o.writeArtifact(artifacts.PropertiesFile, artifacts.RenderPropertiesCSV(series, props)); err != nil {
		return nil, err
	}

	// Stage 3: sampling.
	model, err := changepoint.New(series, o.spec)
	if err != nil {
		return nil, fmt.Errorf("build model: %w", err)
	}
	samplingStart := time.Now()
	trace, err := mcmc.Sample(ctx, model.Problem(), mcmc.Config{
		Draws:        o.spec.Draws,
		Tune:         o.spec.Tune,
		Chains:       o.spec.Chains,
		TargetAccept: o.spec.TargetAccept,
		Seed:         o.spec.Seed,
	}, log)
	observability.RecordSampling(time.Since(samplingStart).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("sample posterior: %w", err)
	}

	// Stage 4: convergence diagnostics (warn-only).
	summary := diagnostics.Summarize(trace)
	maxRHat, minESS, converged := diagnostics.Check(summary, log)
	observability.RecordConvergence(maxRHat, minESS)
	if err := o.writeArtifact(artifacts.SummaryFile, artifacts.RenderSummaryCSV(summary)); err != nil {
		return nil, err
	}

	// Stage 5: change-point extraction.
	cps, err := changepoint.Extract(trace, series, o.spec.K, log)
	if err != nil {
		return nil, fmt.Errorf("extract change points: %w", err)
	}
	if err := o.writeArtifact(artifacts.ChangePointsFile, artifacts.RenderChangePointsCSV(cps)); err != nil {
		return nil, err
	}

	// Stage 6: impact quantification.
	records, err := impact.Quantify(series, cps)
	if err != nil {
		return nil, fmt.Errorf("quantify impact: %w", err)
	}
	if err := o.writeArtifact(artifacts.ImpactFile, artifacts.RenderImpactCSV(records)); err != nil {
		return nil, err
	}

	run := &domain.AnalysisRun{
		RunID:         id,
		ShortID:       runid.Short(id),
		DatasetDigest: digest,
		Spec:          o.spec,
		Observations:  series.Len(),
		WindowStart:   series.First().Date,
		WindowEnd:     series.Last().Date,
		StartedAt:     startedAt,
		CompletedAt:   time.Now().UTC(),
		MaxRHat:       maxRHat,
		MinESSBulk:    minESS,
		Converged:     converged,
	}
	if err := o.persistRun(ctx, run, cps, records, summary, log); err != nil {
		return nil, err
	}

	observability.DefaultMetrics.LastSuccessfulRun.Set(float64(run.CompletedAt.Unix()))
	log.Info().
		Float64("max_rhat", maxRHat).
		Float64("min_ess_bulk", minESS).
		Bool("converged", converged).
		Int("change_points", len(cps)).
		Msg("pipeline run complete")

	return &RunResult{
		Run:          run,
		Quality:      quality,
		Properties:   props,
		ChangePoints: cps,
		Impact:       records,
		Summary:      summary,
	}, nil
}

func (o *Orchestrator) writeArtifact(name, content string) error {
	path := filepath.Join(o.artifactsDir, name)
	if err := artifacts.WriteFileAtomic(path, []byte(content)); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// persistSeries stores the cleaned series. An existing series under the
// same digest is the same data, so duplicates are not an error.
func (o *Orchestrator) persistSeries(ctx context.Context, digest string, series *domain.Series, log zerolog.Logger) error {
	if o.seriesStore == nil {
		return nil
	}
	err := o.seriesStore.InsertBulk(ctx, digest, series.Points())
	if errors.Is(err, storage.ErrDuplicateKey) {
		log.Debug().Str("digest", digest[:12]).Msg("series already stored")
		return nil
	}
	if err != nil {
		return fmt.Errorf("store series: %w", err)
	}
	return nil
}

// persistRun stores the run and its derived results. A duplicate run ID
// means the identical analysis already ran; earlier results stand.
func (o *Orchestrator) persistRun(ctx context.Context, run *domain.AnalysisRun, cps []domain.ChangePoint, records []domain.ImpactRecord, summary []domain.ParameterSummary, log zerolog.Logger) error {
	err := o.runStore.Insert(ctx, run)
	if errors.Is(err, storage.ErrDuplicateKey) {
		log.Warn().Msg("identical run already recorded; keeping existing results")
		return nil
	}
	if err != nil {
		return fmt.Errorf("store run: %w", err)
	}

	if err := o.changePointStore.InsertBulk(ctx, run.RunID, cps); err != nil {
		return fmt.Errorf("store change points: %w", err)
	}
	if err := o.impactStore.InsertBulk(ctx, run.RunID, records); err != nil {
		return fmt.Errorf("store impact records: %w", err)
	}
	if err := o.convergenceStore.InsertBulk(ctx, run.RunID, summary); err != nil {
		return fmt.Errorf("store convergence summary: %w", err)
	}
	return nil
}
