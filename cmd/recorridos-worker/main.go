package main

import (
	"context"
	"errors"
	"os"
	"time"

	"recorridos/internal/amqp"
	"recorridos/internal/cache"
	"recorridos/internal/cli"
	"recorridos/internal/config"
	"recorridos/internal/sheets"
	gsheet "recorridos/internal/sheets/google"
	memlog "recorridos/internal/sheets/memory"
	"recorridos/internal/worker"
)

const (
	dedupeSize    = 10000
	dedupeTTL     = 24 * time.Hour
	statsInterval = 5 * time.Minute
)

// validate requires the broker always and the sheet settings only when a
// spreadsheet is configured; without one events go to an in-memory log.
func validate(cfg *config.Config) error {
	if cfg.GoogleSpreadsheetID != "" {
		return cfg.ValidateWorker()
	}
	if cfg.AMQPURL == "" {
		return errors.New("AMQP_URL is required for the worker")
	}
	return nil
}

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig(validate)
	logger.Info("Starting recorridos-worker")

	var eventLog sheets.EventLog
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(context.Background(), cfg)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		eventLog = client
		logger.Info("Google Sheets event log initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	} else {
		eventLog = memlog.New()
		logger.Warn("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, events kept in memory")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}

	w := worker.NewEventLogWorker(eventLog, dedupeSize, dedupeTTL)
	caches := cache.NewManager(logger)
	caches.Register("event_dedupe", w.Seen())
	caches.StartCleanup(time.Hour)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		caches.Stop()
	})

	if err := w.Start(ctx); err != nil {
		logger.Error("Failed to prepare event log", "error", err)
		os.Exit(1)
	}

	go func() {
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				appended, skipped, failed := w.Stats()
				logger.Info("Event log stats", "appended", appended, "skipped", skipped, "failed", failed)
			}
		}
	}()

	if err := amqpClient.Consume(ctx, w.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
	}

	cli.WaitForShutdown(ctx, done)
	if err := amqpClient.Close(); err != nil {
		logger.Error("AMQP close error", "error", err)
	}
	appended, skipped, failed := w.Stats()
	logger.Info("Worker stopped", "appended", appended, "skipped", skipped, "failed", failed)
}
