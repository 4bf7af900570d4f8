// Package main provides the preprocessing entry point: raw price CSV in,
// cleaned series artifact out, optionally sinking the series to ClickHouse.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"

	"brent-regime-lab/internal/artifacts"
	"brent-regime-lab/internal/config"
	"brent-regime-lab/internal/dataset"
	"brent-regime-lab/internal/domain"
	"brent-regime-lab/internal/logging"
	"brent-regime-lab/internal/observability"
	"brent-regime-lab/internal/runid"
	"brent-regime-lab/internal/storage"
	chstore "brent-regime-lab/internal/storage/clickhouse"
	"brent-regime-lab/internal/storage/migrations"
)

func main() {
	config.LoadEnv()

	input := flag.String("input", "data/BrentOilPrices.csv", "Raw price CSV path")
	outputDir := flag.String("output-dir", "output", "Output directory for artifacts")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "Optional ClickHouse sink for the cleaned series")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", "console", "Log format (console or json)")
	flag.Parse()

	log, err := logging.New(logging.Config{Level: *logLevel, Format: *logFormat})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log = logging.ForStage(log, "preprocess")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Warn().Str("signal", sig.String()).Msg("cancelling")
		cancel()
	}()

	series, quality, err := dataset.Load(*input, log)
	if err != nil {
		log.Error().Err(err).Str("input", *input).Msg("load series")
		os.Exit(1)
	}
	observability.RecordLoad(series.Len(), quality.DroppedDates, quality.MissingFilled)

	outPath := filepath.Join(*outputDir, artifacts.SeriesFile)
	if err := artifacts.WriteFileAtomic(outPath, []byte(artifacts.RenderSeriesCSV(series))); err != nil {
		log.Error().Err(err).Msg("write cleaned series")
		os.Exit(1)
	}

	if *clickhouseDSN != "" {
		if err := sinkSeries(ctx, *clickhouseDSN, series, log); err != nil {
			log.Error().Err(err).Msg("sink series to clickhouse")
			os.Exit(1)
		}
	}

	fmt.Printf("Preprocessing complete:\n")
	fmt.Printf("  Rows read: %d\n", quality.RowsRead)
	fmt.Printf("  Dropped (bad dates): %d\n", quality.DroppedDates)
	fmt.Printf("  Missing filled: %d\n", quality.MissingFilled)
	fmt.Printf("  Duplicate dates: %d\n", quality.DuplicateDates)
	fmt.Printf("  Observations: %d (%s to %s)\n", series.Len(),
		series.First().Date.Format("2006-01-02"), series.Last().Date.Format("2006-01-02"))
	fmt.Printf("  - %s\n", outPath)
}

// sinkSeries writes the cleaned series to ClickHouse, applying migrations
// first. An already-stored series under the same digest is not an error.
func sinkSeries(ctx context.Context, dsn string, series *domain.Series, log zerolog.Logger) error {
	conn, err := migrations.RunClickhouseMigrations(ctx, dsn)
	if err != nil {
		return fmt.Errorf("clickhouse migrations: %w", err)
	}
	defer conn.Close()

	digest := runid.DatasetDigest(series)
	store := chstore.NewSeriesStore(conn)
	err = store.InsertBulk(ctx, digest, series.Points())
	if errors.Is(err, storage.ErrDuplicateKey) {
		log.Info().Str("digest", digest[:12]).Msg("series already stored")
		return nil
	}
	if err != nil {
		return err
	}
	log.Info().Str("digest", digest[:12]).Int("rows", series.Len()).Msg("series stored")
	return nil
}
