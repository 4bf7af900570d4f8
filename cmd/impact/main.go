// Package main quantifies per-regime market impact from the cleaned
// series and the detected change points.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"brent-regime-lab/internal/artifacts"
	"brent-regime-lab/internal/config"
	"brent-regime-lab/internal/dataset"
	"brent-regime-lab/internal/impact"
	"brent-regime-lab/internal/logging"
)

func main() {
	config.LoadEnv()

	input := flag.String("input", "output/"+artifacts.SeriesFile, "Cleaned price CSV path")
	changePoints := flag.String("change-points", "output/"+artifacts.ChangePointsFile, "Detected change points CSV path")
	outputDir := flag.String("output-dir", "output", "Output directory for artifacts")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", "console", "Log format (console or json)")
	flag.Parse()

	log, err := logging.New(logging.Config{Level: *logLevel, Format: *logFormat})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log = logging.ForStage(log, "impact")

	series, _, err := dataset.Load(*input, log)
	if err != nil {
		log.Error().Err(err).Str("input", *input).Msg("load series")
		os.Exit(1)
	}

	cps, err := artifacts.ReadChangePoints(*changePoints, series)
	if err != nil {
		log.Error().Err(err).Str("path", *changePoints).Msg("read change points")
		os.Exit(1)
	}

	records, err := impact.Quantify(series, cps)
	if err != nil {
		log.Error().Err(err).Msg("quantify impact")
		os.Exit(1)
	}

	outPath := filepath.Join(*outputDir, artifacts.ImpactFile)
	if err := artifacts.WriteFileAtomic(outPath, []byte(artifacts.RenderImpactCSV(records))); err != nil {
		log.Error().Err(err).Msg("write impact analysis")
		os.Exit(1)
	}

	fmt.Printf("Impact analysis (%d regimes):\n", len(records))
	for _, r := range records {
		fmt.Printf("  Regime %d: %s to %s  mean=%.2f  ann_vol=%.4f\n",
			r.Regime, r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"),
			r.MeanPrice, r.AnnualizedVol)
	}
	fmt.Printf("  - %s\n", outPath)
}
