// Package sheets mirrors the expense collection into a spreadsheet.
// The spreadsheet is write-only: nothing is ever read back into the store.
package sheets

import (
	"context"

	"spendlog/internal/core"
)

// Ports for outbound adapters.
type (
	// Exporter replaces the exported copy with items and their summary.
	Exporter interface {
		Export(ctx context.Context, items core.Expenses, summary core.Summary) error
	}
)
