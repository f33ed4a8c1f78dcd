package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"expensebot/internal/cli"
	"expensebot/internal/config"
	apphttp "expensebot/internal/http"
	"expensebot/internal/log"
	"expensebot/internal/services"
)

func main() {
	cfg, logger := cli.MustLoadConfig(log.ComponentApp, (*config.Config).Validate)
	logger.Info("Starting expensebot", "version", cfg.Version, "backend", cfg.DataBackend, "llm_provider", cfg.LLMProvider)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	store, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close backend", log.FieldError, err)
		}
	}()

	// A nil *amqp.Client must not end up inside the interface.
	var publisher services.EventPublisher
	if amqpClient := cli.OptionalAMQP(cfg, logger); amqpClient != nil {
		defer amqpClient.Close()
		publisher = amqpClient
	}

	svc, err := cli.NewServices(cfg, store.Store, publisher, logger)
	if err != nil {
		logger.Error("Failed to initialize services", log.FieldError, err)
		os.Exit(1)
	}

	// SIGHUP reloads the category vocabulary after it is edited in the store.
	cli.ReloadOnHangup(ctx, logger, svc.Categories.Invalidate)

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               cfg.Addr(),
		APIPrefix:          cfg.APIPrefix,
		ProjectName:        cfg.ProjectName,
		Version:            cfg.Version,
		CORSOrigins:        cfg.CORSOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}, apphttp.Deps{
		Messages:   svc.Messages,
		Categories: svc.Categories,
		Expenses:   store.Store,
		Health:     store.Store,
	}, logger)
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting HTTP server", "addr", cfg.Addr(), "api_prefix", cfg.APIPrefix)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
