package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"spendlog/internal/core"
	"spendlog/internal/storage"
)

var fixedNow = func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) }

type fakePublisher struct {
	added   []core.Expense
	removed []core.Expense
	err     error
	closed  bool
}

func (p *fakePublisher) PublishExpenseAdded(_ context.Context, e core.Expense) error {
	p.added = append(p.added, e)
	return p.err
}

func (p *fakePublisher) PublishExpenseRemoved(_ context.Context, e core.Expense) error {
	p.removed = append(p.removed, e)
	return p.err
}

func (p *fakePublisher) Close() error {
	p.closed = true
	return nil
}

type brokenStore struct {
	loadErr error
	saveErr error
}

func (s *brokenStore) Load(context.Context) (core.Expenses, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return core.Expenses{}, nil
}

func (s *brokenStore) Save(context.Context, core.Expenses) error { return s.saveErr }
func (s *brokenStore) Close() error { return nil }

func TestNewExpenseService(t *testing.T) {
	service := NewExpenseService(nil)
	if service == nil {
		t.Fatal("NewExpenseService should return a non-nil service")
	}
	if service.publisher != nil {
		t.Error("publisher should be nil unless configured")
	}
}

func TestExpenseService_EmptyStore(t *testing.T) {
	ctx := context.Background()
	svc := NewExpenseService(storage.NewMemoryStore())

	items, err := svc.Load(ctx)
	if err != nil || len(items) != 0 {
		t.Fatalf("expected empty list, got %v (err=%v)", items, err)
	}
	sum, err := svc.Report(ctx)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if sum.Count != 0 || !sum.Total.IsZero() || len(sum.ByCategory) != 0 {
		t.Fatalf("expected zero report, got %+v", sum)
	}
}

func TestExpenseService_AddDefaultsDate(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	pub := &fakePublisher{}
	svc := NewExpenseService(store, WithPublisher(pub), WithClock(fixedNow))

	e, err := svc.Add(ctx, core.Draft{Date: "", Category: "Food", Amount: "12.50", Notes: ""})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	items, _ := store.Load(ctx)
	if len(items) != 1 {
		t.Fatalf("expected 1 stored record, got %d", len(items))
	}
	got := items[0]
	if got.Date.String() != "2024-03-01" || got.Category != "Food" || !got.Amount.Equal(core.NewMoney("12.5")) || got.Notes != "" {
		t.Fatalf("unexpected stored record: %+v", got)
	}
	if got.ID != e.ID {
		t.Fatalf("returned expense differs from stored one")
	}
	if len(pub.added) != 1 || pub.added[0].ID != e.ID {
		t.Fatalf("expected one added message, got %+v", pub.added)
	}
}

func TestExpenseService_AddRejectsInvalidWithoutWrite(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	pub := &fakePublisher{}
	svc := NewExpenseService(store, WithPublisher(pub), WithClock(fixedNow))

	_, err := svc.Add(ctx, core.Draft{Category: "Food", Amount: "-5"})
	var ve *core.ValidationError
	if !errors.As(err, &ve) || ve.Field != core.FieldAmount {
		t.Fatalf("expected amount ValidationError, got %v", err)
	}
	if store.Saves() != 0 {
		t.Fatalf("expected no write, got %d saves", store.Saves())
	}
	if len(pub.added) != 0 {
		t.Fatal("no message expected for rejected input")
	}
}

func TestExpenseService_AddRecoversFromCorruptFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "expenses.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	svc := NewExpenseService(storage.NewFileStore(path), WithClock(fixedNow))

	e, err := svc.Add(ctx, core.Draft{Category: "Food", Amount: "3"})
	if !errors.Is(err, storage.ErrCorruptData) {
		t.Fatalf("expected recoverable ErrCorruptData, got %v", err)
	}
	if e.ID == "" {
		t.Fatal("expected the expense to be added despite the warning")
	}

	items, err := svc.Load(ctx)
	if err != nil || len(items) != 1 {
		t.Fatalf("expected 1 record after recovery, got %v (err=%v)", items, err)
	}
}

func TestExpenseService_AddKeepsRecordsWithOddDates(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "expenses.json")
	seed := `[
  {"date": "2024-03-01", "category": "Rent", "amount": 800, "notes": ""},
  {"date": "2024-3-2", "category": "Food", "amount": 10, "notes": ""}
]`
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	svc := NewExpenseService(storage.NewFileStore(path), WithClock(fixedNow))

	items, err := svc.Load(ctx)
	if err != nil || len(items) != 2 {
		t.Fatalf("expected 2 records, got %v (err=%v)", items, err)
	}
	if _, err := svc.Add(ctx, core.Draft{Category: "Bus", Amount: "2"}); err != nil {
		t.Fatalf("add: %v", err)
	}

	items, err = svc.Load(ctx)
	if err != nil || len(items) != 3 {
		t.Fatalf("expected 3 records after add, got %v (err=%v)", items, err)
	}
	if items[0].Category != "Rent" || !items[0].Amount.Equal(core.NewMoney("800")) {
		t.Fatalf("first record changed: %+v", items[0])
	}
	if items[1].Category != "Food" || items[1].Date.String() != "2024-3-2" {
		t.Fatalf("second record changed: %+v", items[1])
	}
	if items[2].Category != "Bus" {
		t.Fatalf("expected the new record last, got %+v", items[2])
	}
}

func TestExpenseService_Delete(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	pub := &fakePublisher{}
	svc := NewExpenseService(store, WithPublisher(pub), WithClock(fixedNow))

	for _, c := range []string{"Food", "Rent", "Books"} {
		if _, err := svc.Add(ctx, core.Draft{Category: c, Amount: "1"}); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	snapshot, _ := svc.Load(ctx)
	removed, err := svc.Delete(ctx, snapshot, 2)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if removed.Category != "Rent" {
		t.Fatalf("removed %q, want Rent", removed.Category)
	}
	items, _ := store.Load(ctx)
	if len(items) != 2 || items[0].Category != "Food" || items[1].Category != "Books" {
		t.Fatalf("unexpected remaining items: %+v", items)
	}
	if len(pub.removed) != 1 || pub.removed[0].ID != removed.ID {
		t.Fatalf("expected one removed message, got %+v", pub.removed)
	}
}

func TestExpenseService_DeleteOutOfRange(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(core.Expense{Category: "Food", Amount: core.NewMoney("1")})
	svc := NewExpenseService(store)

	snapshot, _ := svc.Load(ctx)
	for _, p := range []int{0, 2} {
		if _, err := svc.Delete(ctx, snapshot, p); !errors.Is(err, core.ErrIndexOutOfRange) {
			t.Fatalf("position %d: expected ErrIndexOutOfRange, got %v", p, err)
		}
	}
	if store.Saves() != 0 {
		t.Fatalf("expected no write, got %d saves", store.Saves())
	}
}

func TestExpenseService_Report(t *testing.T) {
	ctx := context.Background()
	svc := NewExpenseService(storage.NewMemoryStore(), WithClock(fixedNow))
	for _, a := range []string{"10.00", "5.50"} {
		if _, err := svc.Add(ctx, core.Draft{Category: "Food", Amount: a}); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	sum, err := svc.Report(ctx)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(sum.ByCategory) != 1 || sum.ByCategory[0].Name != "Food" || !sum.ByCategory[0].Amount.Equal(core.NewMoney("15.50")) {
		t.Fatalf("unexpected totals: %+v", sum.ByCategory)
	}
	if !sum.Total.Equal(core.NewMoney("15.50")) {
		t.Fatalf("expected grand total 15.50, got %s", sum.Total)
	}
}

func TestExpenseService_PublishFailureDoesNotFailAction(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewExpenseService(storage.NewMemoryStore(), WithPublisher(pub), WithClock(fixedNow))

	if _, err := svc.Add(ctx, core.Draft{Category: "Food", Amount: "1"}); err != nil {
		t.Fatalf("add should succeed when publishing fails: %v", err)
	}
}

func TestExpenseService_StoreFailures(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk full")

	svc := NewExpenseService(&brokenStore{saveErr: boom}, WithClock(fixedNow))
	if _, err := svc.Add(ctx, core.Draft{Category: "Food", Amount: "1"}); !errors.Is(err, boom) {
		t.Fatalf("expected save error, got %v", err)
	}
	if _, err := svc.Delete(ctx, core.Expenses{{Category: "x"}}, 1); !errors.Is(err, boom) {
		t.Fatalf("expected save error, got %v", err)
	}

	svc = NewExpenseService(&brokenStore{loadErr: boom})
	if _, err := svc.Load(ctx); !errors.Is(err, boom) || storage.IsRecoverable(err) {
		t.Fatalf("expected fatal load error, got %v", err)
	}
	if _, err := svc.Report(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected load error from report, got %v", err)
	}
}

func TestExpenseService_Close(t *testing.T) {
	t.Run("nil components", func(t *testing.T) {
		service := &ExpenseService{}
		if err := service.Close(); err != nil {
			t.Fatalf("Close should not return error with nil components: %v", err)
		}
	})

	t.Run("closes publisher", func(t *testing.T) {
		pub := &fakePublisher{}
		service := NewExpenseService(storage.NewMemoryStore(), WithPublisher(pub))
		if err := service.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
		if !pub.closed {
			t.Fatal("publisher should be closed")
		}
	})
}
