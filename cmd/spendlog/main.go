package main

import (
	"context"
	"log/slog"
	"os"

	"spendlog/internal/backend"
	"spendlog/internal/cli"
	"spendlog/internal/log"
	"spendlog/internal/menu"
)

func main() {
	// Prompts go to stdout, so logs stay on stderr
	cfg, logger := cli.Bootstrap(slog.LevelWarn, os.Stderr)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}

	ctx := context.Background()
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, log.FieldBackend, backendCfg.Type)
		os.Exit(1)
	}

	runErr := menu.New(result.Service, os.Stdin, os.Stdout).Run(ctx)

	if err := result.Cleanup(); err != nil {
		logger.Warn("Cleanup failed", log.FieldError, err)
	}
	if runErr != nil {
		logger.Error("Menu stopped", log.FieldError, runErr)
		os.Exit(1)
	}
}
