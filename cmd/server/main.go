// Package main serves the analysis artifacts over a read-only JSON API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"brent-regime-lab/internal/config"
	"brent-regime-lab/internal/logging"
	"brent-regime-lab/internal/server"
)

func main() {
	config.LoadEnv()

	configPath := flag.String("config", "", "Optional YAML config path")
	addr := flag.String("addr", "", "Listen address (overrides config)")
	artifactsDir := flag.String("artifacts-dir", "", "Artifacts directory (overrides config)")
	eventsPath := flag.String("events", "", "Path to the major events CSV (defaults inside artifacts dir)")
	logLevel := flag.String("log-level", "", "Log level (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *artifactsDir != "" {
		cfg.Data.ArtifactsDir = *artifactsDir
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log = logging.ForStage(log, "server")

	srv := server.New(server.Config{
		Addr:         cfg.Server.Addr,
		ArtifactsDir: cfg.Data.ArtifactsDir,
		EventsPath:   *eventsPath,
	}, log)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	if err := srv.Start(); err != nil {
		log.Error().Err(err).Msg("server error")
		os.Exit(1)
	}
	log.Info().Msg("shutdown complete")
}
