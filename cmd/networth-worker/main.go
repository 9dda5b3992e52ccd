package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"networth/internal/amqp"
	"networth/internal/cli"
	"networth/internal/log"
	"networth/internal/sheets"
	gsheet "networth/internal/sheets/google"
	"networth/internal/sheets/memory"
	"networth/internal/worker"
)

func main() {
	cfg, logger := cli.MustLoadConfig(log.ComponentWorker)
	if err := cfg.ValidateSync(); err != nil {
		logger.Error("Sync configuration validation failed",
			log.FieldErrorType, log.ErrorTypeConfiguration,
			log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Starting networth-worker")

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	var (
		appender  sheets.RowAppender
		retryable func(error) bool
		kept      *memory.Store
	)
	if cfg.SheetsEnabled() {
		sheetsClient, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		}, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}

		startupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		if err := sheetsClient.EnsureHeader(startupCtx); err != nil {
			// Rows can still be appended; the header is cosmetic.
			logger.Warn("Failed to ensure sheet header", log.FieldError, err)
		}
		cancel()
		appender, retryable = sheetsClient, gsheet.IsRetryable
	} else {
		logger.Warn("GOOGLE_SPREADSHEET_ID not set, keeping synced rows in memory")
		kept = memory.New()
		// The memory sink only rejects rows without an id.
		appender, retryable = kept, func(error) bool { return false }
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	syncWorker := worker.NewSyncWorker(appender, worker.Config{
		BatchSize: cfg.SyncBatchSize,
		Retryable: retryable,
	}, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeCalculationSaved(gctx, syncWorker.HandleCalculationSaved)
	})
	g.Go(func() error {
		return syncWorker.RunSweeps(gctx, cfg.SyncInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	if n := syncWorker.Pending(); n > 0 {
		logger.Warn("Exiting with unsynced rows", "pending", n)
	}
	if kept != nil {
		logger.Info("Rows kept in memory", "rows", len(kept.Rows()))
	}
	logger.Info("Worker stopped gracefully")
}
