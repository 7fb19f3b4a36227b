package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"spendlog/internal/core"
	"spendlog/internal/log"
	"spendlog/internal/storage"
)

// ChangePublisher announces committed changes. Implemented by amqp.Client.
type ChangePublisher interface {
	PublishExpenseAdded(ctx context.Context, e core.Expense) error
	PublishExpenseRemoved(ctx context.Context, e core.Expense) error
}

// ExpenseService runs one load, mutate, save cycle per user action and
// publishes change messages after each successful save.
//
// Methods may return a valid result together with an error matching
// storage.IsRecoverable; callers should report it and use the result.
type ExpenseService struct {
	store     storage.Store
	publisher ChangePublisher
	logger    *log.Logger
	now       func() time.Time
}

type Option func(*ExpenseService)

// WithPublisher enables change messages. Pass only a non-nil publisher.
func WithPublisher(p ChangePublisher) Option {
	return func(s *ExpenseService) { s.publisher = p }
}

func WithLogger(l *log.Logger) Option {
	return func(s *ExpenseService) {
		if l != nil {
			s.logger = l.WithComponent(log.ComponentExpense)
		}
	}
}

// WithClock overrides the time source used for blank dates.
func WithClock(now func() time.Time) Option {
	return func(s *ExpenseService) { s.now = now }
}

func NewExpenseService(store storage.Store, opts ...Option) *ExpenseService {
	s := &ExpenseService{
		store:  store,
		logger: log.Discard(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the current collection.
func (s *ExpenseService) Load(ctx context.Context) (core.Expenses, error) {
	items, err := s.store.Load(ctx)
	if err != nil {
		if storage.IsRecoverable(err) {
			s.logger.WarnContext(ctx, "Unreadable expense data, continuing with an empty list",
				log.NewFields().WithOperation(log.OpLoad).WithError(err).ToSlice()...)
			return items, err
		}
		return nil, fmt.Errorf("load expenses: %w", err)
	}
	return items, nil
}

// Add validates d, appends it to the stored collection and saves.
// Invalid input returns a *core.ValidationError before any I/O happens.
func (s *ExpenseService) Add(ctx context.Context, d core.Draft) (core.Expense, error) {
	e, err := d.Expense(s.now())
	if err != nil {
		s.logger.DebugContext(ctx, "Rejected expense input",
			log.NewFields().WithOperation(log.OpAdd).WithError(err).ToSlice()...)
		return core.Expense{}, err
	}

	items, loadErr := s.Load(ctx)
	if loadErr != nil && !storage.IsRecoverable(loadErr) {
		return core.Expense{}, loadErr
	}

	items = items.Append(e)
	if err := s.store.Save(ctx, items); err != nil {
		return core.Expense{}, fmt.Errorf("save expenses: %w", err)
	}

	fields := log.NewFields().WithOperation(log.OpAdd).WithExpense(e)
	fields[log.FieldCount] = len(items)
	s.logger.InfoContext(ctx, "Expense added", fields.ToSlice()...)

	if s.publisher != nil {
		if err := s.publisher.PublishExpenseAdded(ctx, e); err != nil {
			// Don't fail the action - the expense is stored locally
			s.logger.WarnContext(ctx, "Failed to publish change message",
				log.NewFields().WithOperation(log.OpAdd).WithExpense(e).WithError(err).ToSlice()...)
		}
	}

	return e, loadErr
}

// Delete removes the expense at the 1-based position of snapshot, which must
// be the collection the user was shown, and saves the result.
func (s *ExpenseService) Delete(ctx context.Context, snapshot core.Expenses, position int) (core.Expense, error) {
	items, removed, err := snapshot.Remove(position)
	if err != nil {
		return core.Expense{}, err
	}

	if err := s.store.Save(ctx, items); err != nil {
		return core.Expense{}, fmt.Errorf("save expenses: %w", err)
	}

	fields := log.NewFields().WithOperation(log.OpDelete).WithExpense(removed)
	fields[log.FieldPosition] = position
	s.logger.InfoContext(ctx, "Expense removed", fields.ToSlice()...)

	if s.publisher != nil {
		if err := s.publisher.PublishExpenseRemoved(ctx, removed); err != nil {
			s.logger.WarnContext(ctx, "Failed to publish change message",
				log.NewFields().WithOperation(log.OpDelete).WithExpense(removed).WithError(err).ToSlice()...)
		}
	}

	return removed, nil
}

// Report summarizes the stored collection.
func (s *ExpenseService) Report(ctx context.Context) (core.Summary, error) {
	items, err := s.Load(ctx)
	if err != nil && !storage.IsRecoverable(err) {
		return core.Summary{}, err
	}
	summary := items.Summarize()

	fields := log.NewFields().WithOperation(log.OpReport)
	fields[log.FieldCount] = summary.Count
	s.logger.DebugContext(ctx, "Report generated", fields.ToSlice()...)

	return summary, err
}

// Close releases the store and, when it holds one, the publisher connection.
func (s *ExpenseService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %w", errors.Join(errs...))
	}

	return nil
}
