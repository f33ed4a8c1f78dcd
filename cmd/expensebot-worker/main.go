package main

import (
	"context"
	"errors"
	"os"

	"expensebot/internal/cli"
	"expensebot/internal/config"
	"expensebot/internal/log"
	gsheet "expensebot/internal/sheets/google"
	"expensebot/internal/worker"
)

func main() {
	cfg, logger := cli.MustLoadConfig(log.ComponentWorker, (*config.Config).ValidateWorker)
	logger.Info("Starting expensebot-worker")

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	// The worker reads expenses the API server committed to the shared database.
	store, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

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
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := cli.RequireAMQP(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	mirror := worker.NewMirrorWorker(store.Store, sheetsClient, logger)

	logger.Info("Consuming expense events", "queue", cfg.AMQPQueue)
	if err := amqpClient.ConsumeExpenseCreated(ctx, mirror.HandleExpenseCreated); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
