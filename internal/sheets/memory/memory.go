package memory

import (
	"context"
	"sync"

	"spendlog/internal/core"
	ports "spendlog/internal/sheets"
)

// Store keeps the last exported snapshot in memory.
type Store struct {
	mu      sync.Mutex
	items   core.Expenses
	summary core.Summary
	exports int
}

var _ ports.Exporter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// Export replaces the stored snapshot.
func (s *Store) Export(ctx context.Context, items core.Expenses, summary core.Summary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(core.Expenses{}, items...)
	s.summary = core.Summary{
		Count:      summary.Count,
		Total:      summary.Total,
		ByCategory: append([]core.CategoryAmount(nil), summary.ByCategory...),
	}
	s.exports++
	return nil
}

// Last returns the most recent snapshot, or false if nothing was exported yet.
func (s *Store) Last() (core.Expenses, core.Summary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exports == 0 {
		return nil, core.Summary{}, false
	}
	return append(core.Expenses{}, s.items...), s.summary, true
}

// Exports reports how many times Export succeeded.
func (s *Store) Exports() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exports
}
