// Package main computes series properties (trend, rolling volatility,
// stationarity) from the cleaned price series.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"brent-regime-lab/internal/artifacts"
	"brent-regime-lab/internal/config"
	"brent-regime-lab/internal/dataset"
	"brent-regime-lab/internal/eda"
	"brent-regime-lab/internal/logging"
)

func main() {
	config.LoadEnv()

	input := flag.String("input", "output/"+artifacts.SeriesFile, "Cleaned price CSV path")
	outputDir := flag.String("output-dir", "output", "Output directory for artifacts")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", "console", "Log format (console or json)")
	flag.Parse()

	log, err := logging.New(logging.Config{Level: *logLevel, Format: *logFormat})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log = logging.ForStage(log, "eda")

	series, _, err := dataset.Load(*input, log)
	if err != nil {
		log.Error().Err(err).Str("input", *input).Msg("load series")
		os.Exit(1)
	}

	props := eda.Analyze(series)

	outPath := filepath.Join(*outputDir, artifacts.PropertiesFile)
	if err := artifacts.WriteFileAtomic(outPath, []byte(artifacts.RenderPropertiesCSV(series, props))); err != nil {
		log.Error().Err(err).Msg("write series properties")
		os.Exit(1)
	}

	fmt.Printf("Series properties:\n")
	fmt.Printf("  Observations: %d\n", series.Len())
	fmt.Printf("  ADF statistic: %.4f (p=%.4f, lags=%d)\n",
		props.ADF.Statistic, props.ADF.PValue, props.ADF.Lags)
	fmt.Printf("  Stationary at 5%%: %t\n", props.ADF.Stationary)
	fmt.Printf("  - %s\n", outPath)
}
