package storage

import (
	"context"
	"sync"

	"spendlog/internal/core"
)

// MemoryStore keeps the collection in process memory. Nothing survives exit.
type MemoryStore struct {
	mu    sync.Mutex
	items core.Expenses
	saves int
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(seed ...core.Expense) *MemoryStore {
	return &MemoryStore{items: append(core.Expenses{}, seed...)}
}

// Load returns a copy so callers cannot alias the stored slice.
func (s *MemoryStore) Load(_ context.Context) (core.Expenses, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(core.Expenses{}, s.items...), nil
}

func (s *MemoryStore) Save(_ context.Context, items core.Expenses) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(core.Expenses{}, items...)
	s.saves++
	return nil
}

// Saves reports how many times Save has been called.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *MemoryStore) Close() error {
	return nil
}
