// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vidbridge/vidbridge/internal/api"
	"github.com/vidbridge/vidbridge/internal/config"
	vblog "github.com/vidbridge/vidbridge/internal/log"
	"github.com/vidbridge/vidbridge/internal/probe"
	"github.com/vidbridge/vidbridge/internal/ratelimit"
	"github.com/vidbridge/vidbridge/internal/transcode"
)

var (
	version   = "v0.3.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	cfg, err := config.FromEnv(os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	vblog.Configure(vblog.Config{
		Level:   cfg.LogLevel,
		Service: "vidbridge",
		Version: version,
	})
	logger := vblog.WithComponent("daemon")

	// Unwritable cache directory is the one startup-fatal condition.
	if err := cfg.EnsureDataDir(); err != nil {
		logger.Fatal().Err(err).Str("data_dir", cfg.DataDir).Msg("cache directory unusable")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := transcode.NewRegistry(cfg.StreamsDir())
	prober := probe.New(cfg.FFprobeBin, vblog.WithComponent("probe"))
	orch := transcode.NewOrchestrator(registry, prober, nil, transcode.Options{
		FFmpegBin:      cfg.FFmpegBin,
		SegmentSeconds: cfg.SegmentSeconds,
		CacheTTL:       cfg.CacheTTL,
	}, vblog.WithComponent("orchestrator"))
	poller := transcode.NewPoller()
	gate := ratelimit.NewGate(cfg.RateInterval)

	retention := transcode.NewRetention(registry, time.Minute, vblog.WithComponent("retention"))
	go retention.Run(ctx)

	server := api.New(cfg, orch, registry, poller, gate, vblog.WithComponent("api"))

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		// No global write timeout: segment downloads and readiness waits are
		// long-lived by design.
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		logger.Info().
			Str("listen", cfg.ListenAddr).
			Str("data_dir", cfg.DataDir).
			Dur("cache_ttl", cfg.CacheTTL).
			Msg("vidbridge started")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
