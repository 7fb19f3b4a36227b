package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"spendlog/internal/core"
	ports "spendlog/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Config selects the target spreadsheet and the credentials used to reach it.
type Config struct {
	SpreadsheetID string
	// Base tab names without year (e.g. "Expenses"); the client prefixes the year.
	SheetName       string
	ReportSheetName string

	CredentialsJSON string
	CredentialsFile string

	// Year used for tab names; zero means the current year.
	Year int
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	expensesSheet string
	reportSheet   string
}

// Ensure interface conformance
var _ ports.Exporter = (*Client)(nil)

var (
	expensesHeader = []any{"No.", "Date", "Category", "Amount", "Notes"}
	reportHeader   = []any{"Category", "Amount"}
)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet ID")
	}

	year := cfg.Year
	if year == 0 {
		year = time.Now().Year()
	}
	expenses := yearPrefixedName(defaultName(cfg.SheetName, "Expenses"), year)
	report := yearPrefixedName(defaultName(cfg.ReportSheetName, "Report"), year)
	if expenses == report {
		return nil, fmt.Errorf("expenses and report tabs must differ: %q", expenses)
	}

	svc, err := newSheetsService(ctx, cfg.CredentialsJSON, cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		expensesSheet: expenses,
		reportSheet:   report,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Inline JSON wins over the file.
func newSheetsService(ctx context.Context, serviceAccountJSON, serviceAccountFile string) (*gsheet.Service, error) {
	serviceAccountJSON = strings.TrimSpace(serviceAccountJSON)
	serviceAccountFile = strings.TrimSpace(serviceAccountFile)

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		slog.DebugContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.DebugContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return service, nil
}

// Export clears both tabs and rewrites them. The tabs are written concurrently;
// the first failure cancels the other write.
func (c *Client) Export(ctx context.Context, items core.Expenses, summary core.Summary) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.replace(gctx, c.expensesSheet, expenseRows(items))
	})
	g.Go(func() error {
		return c.replace(gctx, c.reportSheet, reportRows(summary))
	})
	if err := g.Wait(); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Exported expenses to Google Sheets",
		"spreadsheet_id", c.spreadsheetID,
		"expenses_sheet", c.expensesSheet,
		"report_sheet", c.reportSheet,
		"count", len(items))
	return nil
}

func (c *Client) replace(ctx context.Context, sheetName string, rows [][]any) error {
	rng := fmt.Sprintf("%s!A:Z", sheetName)
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}

	dataRange := fmt.Sprintf("%s!A1", sheetName)
	vr := &gsheet.ValueRange{Values: rows}
	// RAW keeps free text such as "=1+1" in notes from being evaluated
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", dataRange, err)
	}
	return nil
}

// expenseRows lays out the collection the way the menu table shows it.
func expenseRows(items core.Expenses) [][]any {
	rows := make([][]any, 0, len(items)+1)
	rows = append(rows, expensesHeader)
	for i, e := range items {
		rows = append(rows, []any{i + 1, e.Date.String(), e.Category, e.Amount.InexactFloat64(), e.Notes})
	}
	return rows
}

// reportRows lists per-category totals followed by the grand total.
func reportRows(summary core.Summary) [][]any {
	rows := make([][]any, 0, len(summary.ByCategory)+2)
	rows = append(rows, reportHeader)
	for _, ca := range summary.ByCategory {
		rows = append(rows, []any{ca.Name, ca.Amount.InexactFloat64()})
	}
	rows = append(rows, []any{"Total", summary.Total.InexactFloat64()})
	return rows
}

func defaultName(name, def string) string {
	if strings.TrimSpace(name) == "" {
		return def
	}
	return name
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
