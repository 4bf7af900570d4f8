// Package main provides the end-to-end pipeline entry point.
// Executes: load → properties → sampling → diagnostics → extraction → impact.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"brent-regime-lab/internal/config"
	"brent-regime-lab/internal/logging"
	"brent-regime-lab/internal/orchestrator"
	"brent-regime-lab/internal/storage"
	chstore "brent-regime-lab/internal/storage/clickhouse"
	"brent-regime-lab/internal/storage/memory"
	"brent-regime-lab/internal/storage/migrations"
	pgstore "brent-regime-lab/internal/storage/postgres"
	"brent-regime-lab/internal/verification"
)

// allStores holds all storage implementations.
type allStores struct {
	runStore         storage.RunStore
	changePointStore storage.ChangePointStore
	impactStore      storage.ImpactStore
	convergenceStore storage.ConvergenceStore
	seriesStore      storage.SeriesStore
}

func main() {
	config.LoadEnv()

	configPath := flag.String("config", "", "Optional YAML config path")
	input := flag.String("input", "", "Raw price CSV path (overrides config)")
	outputDir := flag.String("output-dir", "", "Output directory for artifacts (overrides config)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of databases")
	verify := flag.Bool("verify", false, "Replay the run after completion and check reproducibility")
	logLevel := flag.String("log-level", "", "Log level (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *input != "" {
		cfg.Data.InputPath = *input
	}
	if *outputDir != "" {
		cfg.Data.ArtifactsDir = *outputDir
	}
	if *postgresDSN != "" {
		cfg.Storage.PostgresDSN = *postgresDSN
	}
	if *clickhouseDSN != "" {
		cfg.Storage.ClickhouseDSN = *clickhouseDSN
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log = logging.ForStage(log, "pipeline")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Warn().Str("signal", sig.String()).Msg("cancelling pipeline")
		cancel()
	}()

	memOnly := *useMemory || (cfg.Storage.PostgresDSN == "" && cfg.Storage.ClickhouseDSN == "")
	stores, cleanup, err := createStores(ctx, cfg.Storage, memOnly)
	if err != nil {
		log.Error().Err(err).Msg("create stores")
		os.Exit(1)
	}
	defer cleanup()

	windowStart, windowEnd, err := cfg.Window()
	if err != nil {
		log.Error().Err(err).Msg("invalid window")
		os.Exit(1)
	}

	orch := orchestrator.New(orchestrator.Options{
		InputPath:        cfg.Data.InputPath,
		ArtifactsDir:     cfg.Data.ArtifactsDir,
		Spec:             cfg.Model,
		WindowStart:      windowStart,
		WindowEnd:        windowEnd,
		RunStore:         stores.runStore,
		ChangePointStore: stores.changePointStore,
		ImpactStore:      stores.impactStore,
		ConvergenceStore: stores.convergenceStore,
		SeriesStore:      stores.seriesStore,
		Logger:           log,
	})

	result, err := orch.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("pipeline failed")
		os.Exit(1)
	}

	fmt.Printf("Pipeline completed (run %s):\n", result.Run.ShortID)
	fmt.Printf("  Observations: %d (%s to %s)\n", result.Run.Observations,
		result.Run.WindowStart.Format("2006-01-02"), result.Run.WindowEnd.Format("2006-01-02"))
	fmt.Printf("  Max R-hat: %.4f  Min bulk ESS: %.0f  Converged: %t\n",
		result.Run.MaxRHat, result.Run.MinESSBulk, result.Run.Converged)
	for _, cp := range result.ChangePoints {
		fmt.Printf("  Change point: %s\n", cp.Date.Format("2006-01-02"))
	}
	fmt.Printf("  Regimes: %d\n", len(result.Impact))
	fmt.Printf("  Artifacts in %s\n", cfg.Data.ArtifactsDir)

	if *verify {
		verifier := verification.NewVerifier(verification.Options{
			RunStore:         stores.runStore,
			ChangePointStore: stores.changePointStore,
			ConvergenceStore: stores.convergenceStore,
			SeriesStore:      stores.seriesStore,
			Logger:           log,
		})
		vr, err := verifier.VerifyRun(ctx, result.Run.RunID)
		if err != nil {
			log.Error().Err(err).Msg("verification failed")
			os.Exit(1)
		}
		fmt.Printf("Verification: match=%t\n", vr.Match)
		for _, d := range vr.Divergences {
			fmt.Printf("  Divergence %s: stored=%v replayed=%v\n", d.Field, d.Expected, d.Actual)
		}
		if !vr.Match {
			os.Exit(1)
		}
	}
}

// createStores builds the storage backends: all in-memory, or Postgres
// for run results plus ClickHouse for the timeseries side.
func createStores(ctx context.Context, cfg config.StorageConfig, useMemory bool) (*allStores, func(), error) {
	if useMemory {
		stores := &allStores{
			runStore:         memory.NewRunStore(),
			changePointStore: memory.NewChangePointStore(),
			impactStore:      memory.NewImpactStore(),
			convergenceStore: memory.NewConvergenceStore(),
			seriesStore:      memory.NewSeriesStore(),
		}
		return stores, func() {}, nil
	}

	if cfg.PostgresDSN == "" || cfg.ClickhouseDSN == "" {
		return nil, nil, fmt.Errorf("both postgres and clickhouse DSNs are required (or use --use-memory)")
	}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	chConn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}

	stores := &allStores{
		// PostgreSQL stores (run results)
		runStore:         pgstore.NewRunStore(pool),
		changePointStore: pgstore.NewChangePointStore(pool),
		impactStore:      pgstore.NewImpactStore(pool),

		// ClickHouse stores (timeseries analytics)
		convergenceStore: chstore.NewConvergenceStore(chConn),
		seriesStore:      chstore.NewSeriesStore(chConn),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}
	return stores, cleanup, nil
}
