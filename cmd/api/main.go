// Package main provides the entrypoint for the climatlas API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/climatlas/climatlas/internal/api"
	"github.com/climatlas/climatlas/internal/api/handler"
	"github.com/climatlas/climatlas/internal/api/middleware"
	"github.com/climatlas/climatlas/internal/auth"
	"github.com/climatlas/climatlas/internal/database"
	"github.com/climatlas/climatlas/internal/run"
	"github.com/climatlas/climatlas/internal/telemetry"
	"github.com/climatlas/climatlas/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "climatlas-api"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting climatlas API")

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	ctx := context.Background()

	telemetryCfg := telemetry.ConfigFromEnv(serviceName, Version)
	tp, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryCfg.Enabled {
		log.Info().
			Str("otlp_endpoint", telemetryCfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	signingKey := os.Getenv("JWT_SIGNING_KEY")
	if signingKey == "" {
		signingKey = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}

	tokens := auth.NewService(auth.Config{
		SigningKey: signingKey,
		Issuer:     "climatlas",
		Audience:   "climatlas-api",
	})

	workerCfg := worker.ConfigFromEnv()
	publisher, err := worker.NewPublisher(ctx, worker.PublisherConfig{
		ProjectID: workerCfg.ProjectID,
		TopicName: workerCfg.TopicName,
		Logger:    log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create job publisher")
	}
	defer func() {
		if closeErr := publisher.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close job publisher")
		}
	}()
	log.Info().
		Str("topic", workerCfg.TopicName).
		Msg("job publisher initialized")

	runRepo := run.NewPostgresRepository(pool)
	runService := run.NewService(runRepo, run.ServiceConfig{Logger: log})
	log.Info().Msg("run service initialized")

	router := api.NewRouter(api.RouterConfig{
		Runs:      handler.NewRunHandler(runService, publisher, log),
		Ops:       handler.NewOpsHandler(pool),
		Validator: tokens,
		Metrics:   metrics,
		Logger:    log,
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
