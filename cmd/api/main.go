// Package main is the entry point for the FloatDeck API server.
//
// It loads the configuration, connects the PostgreSQL pool, builds the domain
// services (profiles, analytics, chat, export, ingest publishing) and serves
// the HTTP API through the core chassis.
//
// Graceful shutdown is handled via OS signal interception (SIGINT, SIGTERM).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"floatdeck/internal/api/handlers"
	"floatdeck/internal/chat"
	"floatdeck/internal/config"
	"floatdeck/internal/core"
	"floatdeck/internal/db"
	"floatdeck/internal/export"
	"floatdeck/internal/external"
	"floatdeck/internal/profiles"
	"floatdeck/internal/queue"
	"floatdeck/internal/viewport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on error.
func run() error {
	cfg, err := config.LoadConfig(secretProvider())
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("floatdeck API starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"port", cfg.Server.Port,
	)

	ctx := context.Background()

	// Database pool. Ping up front so a bad DSN fails startup, not the first
	// request.
	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("creating database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("pinging database: %w", err)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return fmt.Errorf("loading AWS SDK config: %w", err)
	}

	var metrics *core.CloudWatchMetrics
	if cfg.Observability.EnableMetrics {
		cwClient := cloudwatch.NewFromConfig(awsCfg, func(o *cloudwatch.Options) {
			if cfg.AWS.EndpointURL != "" {
				o.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
			}
		})
		metrics = core.NewCloudWatchMetrics(cwClient, cfg.Observability.MetricNamespace, logger)
	}

	// Profile service. Viewport reads go through the bounds-keyed cache; an
	// empty local result hydrates from the upstream data source.
	repo := db.NewProfileRepository(pool)
	dataSource := external.NewDataSourceClient(cfg.DataSource)
	store := profiles.NewHydratingStore(repo, dataSource, repo, logger)

	cacheOpts := []viewport.Option{viewport.WithCapacity(cfg.Viewport.CacheCapacity)}
	if metrics != nil {
		cacheOpts = append(cacheOpts, viewport.WithMetrics(metrics))
	}
	profileSvc := profiles.NewService(store, logger, cacheOpts...)

	summarizer := external.NewSummarizerClient(cfg.Summarizer)
	chatSvc := chat.NewService(profileSvc, summarizer, logger)

	sqsClient := sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
		if cfg.AWS.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
		}
	})
	publisher := queue.NewIngestPublisher(sqsClient, cfg.AWS, logger)

	// Build the server.
	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	if metrics != nil {
		srv.Metrics = metrics
	}
	srv.HealthProbes = []core.HealthProbe{
		&db.PoolProbe{Pool: pool},
		dataSource,
	}
	srv.OnShutdown(func() error {
		pool.Close()
		return nil
	})

	profileHandler := handlers.NewProfileHandler(profileSvc, logger)
	analyticsHandler := handlers.NewAnalyticsHandler(profileSvc, logger)
	exportHandler := handlers.NewExportHandler(profileSvc, export.NewWriter(nil), logger)
	chatHandler := handlers.NewChatHandler(chatSvc, logger)
	ingestHandler := handlers.NewIngestHandler(publisher, logger)

	srv.V1RouteRegistrars = append(srv.V1RouteRegistrars,
		profileHandler.RegisterRoutes,
		analyticsHandler.RegisterRoutes,
		exportHandler.RegisterRoutes,
		chatHandler.RegisterRoutes,
		ingestHandler.RegisterRoutes,
	)

	// Mount all routes (middleware chain + versioned endpoints + health).
	srv.MountRoutes()

	return runHTTPServer(srv, cfg, logger)
}

// secretProvider returns the SSM provider for non-local environments. Local
// development resolves everything from the environment and dotenv file.
func secretProvider() config.SecretProvider {
	if os.Getenv("APP_ENV") == "local" {
		return nil
	}
	return config.NewSSMProvider(os.Getenv("AWS_REGION"))
}

// runHTTPServer starts the server in standard HTTP mode with graceful shutdown.
func runHTTPServer(srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	// Channel to capture server errors from ListenAndServe.
	serverErr := make(chan error, 1)

	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for shutdown signal or server error.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("initiating graceful shutdown")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	// Shutdown server resources (DB pool, etc.).
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server resource shutdown error", "error", err)
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
}

// newLogger creates a structured slog.Logger configured for the given log level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     lvl,
		AddSource: false,
	})
	return slog.New(handler)
}
