package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"spendlog/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository stores the collection in a SQLite table, one row per
// expense, ordered by position.
type SQLiteRepository struct {
	db *sql.DB
}

var _ Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Load implements Store
func (r *SQLiteRepository) Load(ctx context.Context) (core.Expenses, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT uid, date, category, amount, notes FROM expenses ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	items := core.Expenses{}
	for rows.Next() {
		var (
			e            core.Expense
			date, amount string
		)
		if err := rows.Scan(&e.ID, &date, &e.Category, &amount, &e.Notes); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.Date = core.DateFromString(date)
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("expense %d amount %q: %w", len(items)+1, amount, err)
		}
		e.Amount = core.Money{Decimal: d}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return items, nil
}

// Save implements Store. The table is rewritten inside one transaction.
func (r *SQLiteRepository) Save(ctx context.Context, items core.Expenses) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM expenses`); err != nil {
		return fmt.Errorf("clear expenses: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO expenses (position, uid, date, category, amount, notes) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range items {
		if _, err := stmt.ExecContext(ctx, i+1, e.ID, e.Date.String(), e.Category, e.Amount.String(), e.Notes); err != nil {
			return fmt.Errorf("insert expense %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	slog.DebugContext(ctx, "Expenses saved to SQLite", "count", len(items))
	return nil
}
