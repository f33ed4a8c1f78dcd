// Package cli provides common initialization shared by cmd/expensebot,
// cmd/expensebot-worker and cmd/expensectl.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"expensebot/internal/amqp"
	"expensebot/internal/backend"
	"expensebot/internal/config"
	"expensebot/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from cfg and installs it as the
// slog default.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	return SetupLoggerTo(cfg, component, os.Stdout)
}

// SetupLoggerTo is SetupLogger writing to out.
func SetupLoggerTo(cfg *config.Config, component string, out io.Writer) *log.Logger {
	lc := log.DefaultConfig()
	lc.Level = log.ParseLevel(cfg.LogLevel)
	lc.Format = cfg.LogFormat
	lc.Component = component
	lc.Output = out
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger
}

// LoadConfig loads .env and the environment, sets up logging, then runs the
// validators. It returns the first validation error.
func LoadConfig(component string, validators ...func(*config.Config) error) (*config.Config, *log.Logger, error) {
	LoadEnvFile()
	return LoadConfigFrom(viper.New(), os.Stdout, component, validators...)
}

// LoadConfigFrom reads the configuration through v, which may carry bound
// command line flags, and logs to logOutput. .env is not loaded here.
func LoadConfigFrom(v *viper.Viper, logOutput io.Writer, component string, validators ...func(*config.Config) error) (*config.Config, *log.Logger, error) {
	cfg := config.LoadFrom(v)
	logger := SetupLoggerTo(cfg, component, logOutput)

	for _, validate := range validators {
		if err := validate(cfg); err != nil {
			return cfg, logger, err
		}
	}
	return cfg, logger, nil
}

// MustLoadConfig is LoadConfig that exits the process on validation failure.
func MustLoadConfig(component string, validators ...func(*config.Config) error) (*config.Config, *log.Logger) {
	cfg, logger, err := LoadConfig(component, validators...)
	if err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg, logger
}

// OpenBackend creates the configured store.
func OpenBackend(ctx context.Context, cfg *config.Config, logger *log.Logger) (*backend.BackendResult, error) {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	return backend.NewFactory(logger).CreateBackend(ctx, bc)
}

// OptionalAMQP connects to the broker when AMQP_URL is set. Failures are
// logged and yield nil so the caller can run without events.
func OptionalAMQP(cfg *config.Config, logger *log.Logger) *amqp.Client {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP_URL not set, expense events disabled")
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		return nil
	}
	logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client
}

// RequireAMQP connects to the broker or fails.
func RequireAMQP(cfg *config.Config, logger *log.Logger) (*amqp.Client, error) {
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to AMQP: %w", err)
	}
	return client, nil
}

// ReloadOnHangup calls reload each time the process receives SIGHUP, until
// ctx is done. The handler is registered before it returns.
func ReloadOnHangup(ctx context.Context, logger *log.Logger, reload func()) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)

	go func() {
		defer signal.Stop(hup)
		for {
			select {
			case <-hup:
				logger.Info("Reload signal received")
				reload()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
