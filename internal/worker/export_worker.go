package worker

import (
	"context"
	"fmt"

	"spendlog/internal/amqp"
	"spendlog/internal/core"
	"spendlog/internal/log"
	"spendlog/internal/sheets"
	"spendlog/internal/storage"
)

// ExpenseSource reads the current collection. Implemented by services.ExpenseService.
type ExpenseSource interface {
	Load(ctx context.Context) (core.Expenses, error)
}

// ExportWorker mirrors the stored collection into a spreadsheet.
// Every export is a full rewrite, so handling a change message twice is harmless.
type ExportWorker struct {
	source   ExpenseSource
	exporter sheets.Exporter
	logger   *log.Logger
}

func NewExportWorker(source ExpenseSource, exporter sheets.Exporter, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &ExportWorker{
		source:   source,
		exporter: exporter,
		logger:   logger.WithComponent(log.ComponentExport),
	}
}

// ExportAll loads the collection and exports it with its summary.
// Unreadable data is not exported, so a damaged file never wipes the sheet.
// Records that fail validation are left out of both rows and totals.
func (w *ExportWorker) ExportAll(ctx context.Context) error {
	items, err := w.source.Load(ctx)
	if err != nil {
		if storage.IsRecoverable(err) {
			return fmt.Errorf("skip export of unreadable data: %w", err)
		}
		return fmt.Errorf("load expenses: %w", err)
	}

	valid := make(core.Expenses, 0, len(items))
	for i, e := range items {
		if err := e.Validate(); err != nil {
			w.logger.WarnContext(ctx, "Skipping invalid expense",
				log.FieldPosition, i+1,
				log.FieldError, err)
			continue
		}
		valid = append(valid, e)
	}

	if err := w.exporter.Export(ctx, valid, valid.Summarize()); err != nil {
		return fmt.Errorf("export expenses: %w", err)
	}

	fields := log.NewFields().WithOperation(log.OpExport)
	fields[log.FieldCount] = len(valid)
	w.logger.InfoContext(ctx, "Export complete", fields.ToSlice()...)
	return nil
}

// HandleChangeMessage re-exports after an expense was added or removed.
func (w *ExportWorker) HandleChangeMessage(ctx context.Context, msg *amqp.ChangeMessage) error {
	w.logger.DebugContext(ctx, "Processing change message",
		"type", msg.Type,
		log.FieldExpenseID, msg.ExpenseID)

	return w.ExportAll(ctx)
}
