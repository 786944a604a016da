// Package main provides the entrypoint for the climatlas pipeline worker.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/climatlas/climatlas/internal/census"
	"github.com/climatlas/climatlas/internal/database"
	"github.com/climatlas/climatlas/internal/ghcnd"
	"github.com/climatlas/climatlas/internal/pipeline"
	"github.com/climatlas/climatlas/internal/run"
	"github.com/climatlas/climatlas/internal/storage"
	"github.com/climatlas/climatlas/internal/telemetry"
	"github.com/climatlas/climatlas/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "climatlas-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting climatlas worker")

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryCfg := telemetry.ConfigFromEnv(serviceName, Version)
	tp, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	cfg := worker.ConfigFromEnv()

	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Str("database", dbConfig.Database).
		Msg("database connected")

	store, err := storage.Open(ctx, cfg.BucketURL)
	if err != nil {
		log.Fatal().Err(err).Str("bucket_url", cfg.BucketURL).Msg("failed to open artifact bucket")
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close artifact bucket")
		}
	}()
	log.Info().
		Str("bucket_url", cfg.BucketURL).
		Msg("artifact bucket opened")

	censusClient := census.NewClient(census.ClientConfig{})
	ghcndClient := ghcnd.NewClient(ghcnd.ClientConfig{})

	metrics, err := pipeline.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize pipeline metrics")
	}

	steps := []pipeline.Step{
		pipeline.NewFetchGeoData(censusClient, ghcndClient, store, pipeline.GeoDataConfig{Logger: log}),
		pipeline.NewFetchStationData(ghcndClient, store, pipeline.StationDataConfig{Logger: log}),
		pipeline.NewProcessBaseline(ghcndClient, store, pipeline.BaselineStepConfig{Logger: log}),
		pipeline.NewPlotHeatmap(store, pipeline.HeatmapConfig{Logger: log}),
	}

	runRepo := run.NewPostgresRepository(pool)
	runner := pipeline.NewRunner(steps, runRepo, pipeline.RunnerConfig{
		Logger:  log,
		Metrics: metrics,
	})

	dispatcher := worker.NewDispatcher(runner, runRepo)

	subscriber, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
		ProjectID:        cfg.ProjectID,
		SubscriptionName: cfg.SubscriptionName,
		Dispatcher:       dispatcher,
		Logger:           log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create pubsub handler")
	}

	go func() {
		log.Info().
			Str("subscription", cfg.SubscriptionName).
			Msg("worker consuming jobs")

		if err := subscriber.Start(ctx); err != nil {
			log.Error().Err(err).Msg("pubsub receive stopped")
			cancel()
		}
	}()

	// Cloud Run requires an HTTP health endpoint even for workers.
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","version":"%s"}`, Version)
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info().Msg("shutdown signal received")
	case <-ctx.Done():
		log.Info().Msg("worker context cancelled")
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
