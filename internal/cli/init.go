// Package cli provides common CLI initialization utilities shared by
// cmd/spendlog and cmd/spendlog-export.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"spendlog/internal/config"
	"spendlog/internal/log"
)

// SetupLogger initializes structured logging at level, writing to output.
// A nil output keeps the default of stdout.
// Returns the configured logger and sets it as the default logger.
func SetupLogger(level slog.Level, output io.Writer) *log.Logger {
	logCfg := log.DefaultConfig()
	logCfg.Level = level
	if output != nil {
		logCfg.Output = output
	}
	logger := log.New(logCfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as the file is optional.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// Bootstrap loads .env and the configuration, then sets up logging with the
// configured level or defaultLevel. The process exits on invalid configuration.
func Bootstrap(defaultLevel slog.Level, output io.Writer) (*config.Config, *log.Logger) {
	LoadEnvFile()
	cfg := config.Load()
	logger := SetupLogger(cfg.Level(defaultLevel), output)
	return LoadAndValidateConfig(logger, cfg), logger
}

// LoadAndValidateConfig validates cfg.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger, cfg *config.Config) *config.Config {
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM.
// The returned stop function releases the signal handler.
func GracefulShutdown(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}
