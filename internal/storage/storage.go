// Package storage persists the expense collection.
//
// Every backend loads and saves the whole collection at once; callers run one
// load, mutate, save cycle per user action.
package storage

import (
	"context"
	"errors"

	"spendlog/internal/core"
)

// Store is the persistence port shared by all backends.
type Store interface {
	// Load returns the full collection. A missing backing store is an empty
	// collection, not an error.
	Load(ctx context.Context) (core.Expenses, error)
	// Save replaces the stored collection with items.
	Save(ctx context.Context, items core.Expenses) error
	Close() error
}

var (
	// ErrCorruptData means the stored content could not be parsed at all.
	ErrCorruptData = errors.New("expense data is corrupted")
	// ErrShapeMismatch means the content parsed but is not a list of expenses.
	ErrShapeMismatch = errors.New("expense data is not a list of expenses")
)

// IsRecoverable reports whether err came with a usable (empty) collection.
// Load returns these alongside core.Expenses{} so callers can warn and go on.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrCorruptData) || errors.Is(err, ErrShapeMismatch)
}
