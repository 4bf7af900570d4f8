// Package main runs Bayesian change-point inference on the cleaned price
// series: posterior sampling, convergence diagnostics, and change-point
// extraction.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"brent-regime-lab/internal/artifacts"
	"brent-regime-lab/internal/changepoint"
	"brent-regime-lab/internal/config"
	"brent-regime-lab/internal/dataset"
	"brent-regime-lab/internal/diagnostics"
	"brent-regime-lab/internal/logging"
	"brent-regime-lab/internal/mcmc"
	"brent-regime-lab/internal/observability"
	"brent-regime-lab/internal/runid"
)

func main() {
	config.LoadEnv()

	input := flag.String("input", "output/"+artifacts.SeriesFile, "Cleaned price CSV path")
	outputDir := flag.String("output-dir", "output", "Output directory for artifacts")
	configPath := flag.String("config", "", "Optional YAML config path")
	k := flag.Int("k", 0, "Number of breakpoints (overrides config)")
	draws := flag.Int("draws", 0, "Posterior draws per chain (overrides config)")
	tune := flag.Int("tune", -1, "Tuning steps per chain (overrides config)")
	chains := flag.Int("chains", 0, "Number of chains (overrides config)")
	seed := flag.Uint64("seed", 0, "RNG seed (overrides config)")
	sharedSigma := flag.Bool("shared-sigma", false, "Single sigma across regimes")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", "console", "Log format (console or json)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	spec := cfg.Model
	if *k > 0 {
		spec.K = *k
	}
	if *draws > 0 {
		spec.Draws = *draws
	}
	if *tune >= 0 {
		spec.Tune = *tune
	}
	if *chains > 0 {
		spec.Chains = *chains
	}
	if *seed > 0 {
		spec.Seed = *seed
	}
	if *sharedSigma {
		spec.SharedSigma = true
	}

	log, err := logging.New(logging.Config{Level: *logLevel, Format: *logFormat})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log = logging.ForStage(log, "model")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Warn().Str("signal", sig.String()).Msg("cancelling sampling")
		cancel()
	}()

	series, _, err := dataset.Load(*input, log)
	if err != nil {
		log.Error().Err(err).Str("input", *input).Msg("load series")
		os.Exit(1)
	}

	// Fail fast on validation before any sampling.
	if err := spec.Validate(series.Len()); err != nil {
		log.Error().Err(err).Msg("invalid model configuration")
		os.Exit(1)
	}
	if spec.DataStarved(series.Len()) {
		log.Warn().Int("k", spec.K).Int("n", series.Len()).
			Msg("k is large relative to series length; regimes may be data-starved")
	}

	model, err := changepoint.New(series, spec)
	if err != nil {
		log.Error().Err(err).Msg("build model")
		os.Exit(1)
	}

	id := runid.Compute(runid.DatasetDigest(series), spec)
	log = log.With().Str("run_id", runid.Short(id)).Logger()

	start := time.Now()
	trace, err := mcmc.Sample(ctx, model.Problem(), mcmc.Config{
		Draws:        spec.Draws,
		Tune:         spec.Tune,
		Chains:       spec.Chains,
		TargetAccept: spec.TargetAccept,
		Seed:         spec.Seed,
	}, log)
	observability.RecordSampling(time.Since(start).Seconds(), err)
	if err != nil {
		log.Error().Err(err).Msg("sampling failed")
		os.Exit(1)
	}

	summary := diagnostics.Summarize(trace)
	maxRHat, minESS, converged := diagnostics.Check(summary, log)
	observability.RecordConvergence(maxRHat, minESS)

	cps, err := changepoint.Extract(trace, series, spec.K, log)
	if err != nil {
		log.Error().Err(err).Msg("extract change points")
		os.Exit(1)
	}

	summaryPath := filepath.Join(*outputDir, artifacts.SummaryFile)
	if err := artifacts.WriteFileAtomic(summaryPath, []byte(artifacts.RenderSummaryCSV(summary))); err != nil {
		log.Error().Err(err).Msg("write model summary")
		os.Exit(1)
	}
	cpPath := filepath.Join(*outputDir, artifacts.ChangePointsFile)
	if err := artifacts.WriteFileAtomic(cpPath, []byte(artifacts.RenderChangePointsCSV(cps))); err != nil {
		log.Error().Err(err).Msg("write change points")
		os.Exit(1)
	}

	fmt.Printf("Inference complete (run %s):\n", runid.Short(id))
	fmt.Printf("  Sampling time: %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("  Max R-hat: %.4f  Min bulk ESS: %.0f  Converged: %t\n", maxRHat, minESS, converged)
	for _, cp := range cps {
		fmt.Printf("  Change point: index %.1f -> %s\n", cp.Index, cp.Date.Format("2006-01-02"))
	}
	fmt.Printf("  - %s\n", summaryPath)
	fmt.Printf("  - %s\n", cpPath)
}
