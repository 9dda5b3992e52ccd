package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"networth/internal/backend"
	"networth/internal/cache"
	"networth/internal/cli"
	apphttp "networth/internal/http"
	"networth/internal/log"
)

const cacheSweepInterval = 10 * time.Minute

func main() {
	cfg, logger := cli.MustLoadConfig(log.ComponentApp)

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}

	caches := cache.NewManager(logger)
	factory := backend.NewFactory(logger, caches)
	result, err := factory.CreateBackend(context.Background(), backendConfig)
	if err != nil {
		logger.Error("Failed to create backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	srv := apphttp.NewServer(":"+cfg.Port, result.Backend, apphttp.Options{
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Caches:             caches,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Warn("Backend cleanup error", log.FieldError, err)
			}
		}
	})
	caches.StartCleanup(ctx, cacheSweepInterval)

	logger.Info("Starting networth server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"amqp_enabled", cfg.AMQPURL != "")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	requests, detection, limits := srv.Metrics()
	logger.Info("Server stopped gracefully",
		"requests", requests.TotalRequests,
		"server_errors", requests.ServerErrors,
		"suspicious_requests", detection.SuspiciousRequests,
		"rate_limited", limits.Rejected)
}
