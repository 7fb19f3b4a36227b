package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"

	"spendlog/internal/amqp"
	"spendlog/internal/backend"
	"spendlog/internal/cli"
	"spendlog/internal/log"
	ports "spendlog/internal/sheets"
	gsheet "spendlog/internal/sheets/google"
	mem "spendlog/internal/sheets/memory"
	"spendlog/internal/worker"
)

func main() {
	follow := flag.Bool("follow", false, "keep running and re-export on every change message")
	dryRun := flag.Bool("dry-run", false, "export to memory instead of Google Sheets")
	flag.Parse()

	cfg, logger := cli.Bootstrap(slog.LevelInfo, os.Stdout)
	logger = logger.WithComponent(log.ComponentExport)

	if !*dryRun {
		if err := cfg.ValidateExport(); err != nil {
			logger.Error("Configuration validation failed", log.FieldError, err)
			os.Exit(1)
		}
	}
	if *follow && cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required with -follow")
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	// The exporter only reads; it never publishes changes of its own
	backendCfg.AMQPURL = ""

	ctx, stop := cli.GracefulShutdown(logger)
	defer stop()

	opts := options{
		follow:       *follow,
		dryRun:       *dryRun,
		amqpURL:      cfg.AMQPURL,
		amqpExchange: cfg.AMQPExchange,
		amqpQueue:    cfg.AMQPQueue,
		backend:      backendCfg,
		google: gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			ReportSheetName: cfg.GoogleReportSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		},
	}
	if err := run(ctx, logger, opts); err != nil {
		logger.ErrorContext(ctx, "Export failed", log.FieldError, err)
		stop()
		os.Exit(1)
	}
}

type options struct {
	follow bool
	dryRun bool

	amqpURL      string
	amqpExchange string
	amqpQueue    string

	backend backend.Config
	google  gsheet.Config
}

func run(ctx context.Context, logger *log.Logger, opts options) error {
	result, err := backend.NewFactory(logger).CreateBackend(ctx, opts.backend)
	if err != nil {
		return err
	}
	defer result.Cleanup()

	var exporter ports.Exporter
	if opts.dryRun {
		exporter = mem.New()
		logger.InfoContext(ctx, "Dry run, exporting to memory")
	} else {
		exporter, err = gsheet.New(ctx, opts.google)
		if err != nil {
			return err
		}
	}

	w := worker.NewExportWorker(result.Service, exporter, logger)
	if err := w.ExportAll(ctx); err != nil {
		if !opts.follow {
			return err
		}
		// The next change message triggers another attempt
		logger.WarnContext(ctx, "Initial export failed", log.FieldError, err)
	}

	if !opts.follow {
		return nil
	}

	client, err := amqp.NewClient(opts.amqpURL, opts.amqpExchange, opts.amqpQueue)
	if err != nil {
		return err
	}
	defer client.Close()

	logger.InfoContext(ctx, "Following change messages", "exchange", opts.amqpExchange, "queue", opts.amqpQueue)
	if err := client.ConsumeChanges(ctx, w.HandleChangeMessage); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.InfoContext(ctx, "Export worker stopped")
	return nil
}
