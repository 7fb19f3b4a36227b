package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"spendlog/internal/amqp"
	"spendlog/internal/core"
	"spendlog/internal/sheets/memory"
	"spendlog/internal/storage"
)

type failingExporter struct{ err error }

func (f failingExporter) Export(context.Context, core.Expenses, core.Summary) error { return f.err }

func TestExportWorker_ExportAll(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(
		core.Expense{Date: core.NewDate(2024, 3, 1), Category: "Food", Amount: core.NewMoney("10.00")},
		core.Expense{Date: core.NewDate(2024, 3, 2), Category: "Food", Amount: core.NewMoney("5.50")},
	)
	sink := memory.New()

	w := NewExportWorker(store, sink, nil)
	if err := w.ExportAll(ctx); err != nil {
		t.Fatalf("ExportAll: %v", err)
	}

	items, sum, ok := sink.Last()
	if !ok || len(items) != 2 {
		t.Fatalf("expected 2 exported items, got %v", items)
	}
	if !sum.Total.Equal(core.NewMoney("15.50")) {
		t.Errorf("exported total = %s, want 15.50", sum.Total)
	}
}

func TestExportWorker_HandleChangeMessage(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	sink := memory.New()
	w := NewExportWorker(store, sink, nil)

	e := core.Expense{ID: "id-1", Date: core.NewDate(2024, 3, 1), Category: "Food", Amount: core.NewMoney("1")}
	if err := store.Save(ctx, core.Expenses{e}); err != nil {
		t.Fatalf("save: %v", err)
	}

	for _, typ := range []amqp.ChangeType{amqp.ChangeAdded, amqp.ChangeAdded, amqp.ChangeRemoved} {
		if err := w.HandleChangeMessage(ctx, amqp.NewChangeMessage(typ, e)); err != nil {
			t.Fatalf("HandleChangeMessage(%s): %v", typ, err)
		}
	}
	if sink.Exports() != 3 {
		t.Errorf("Exports() = %d, want 3", sink.Exports())
	}
	items, _, _ := sink.Last()
	if len(items) != 1 {
		t.Errorf("duplicate messages should not duplicate rows, got %d", len(items))
	}
}

func TestExportWorker_SkipsCorruptData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expenses.json")
	if err := os.WriteFile(path, []byte(`{"not": "a list"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	sink := memory.New()
	w := NewExportWorker(storage.NewFileStore(path), sink, nil)

	err := w.ExportAll(context.Background())
	if !errors.Is(err, storage.ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
	if sink.Exports() != 0 {
		t.Error("nothing should be exported from unreadable data")
	}
}

func TestExportWorker_SkipsInvalidRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expenses.json")
	seed := `[
  {"date": "2024-03-01", "category": "Rent", "amount": 800, "notes": ""},
  {"date": "2024-3-2", "category": "Food", "amount": 10, "notes": ""},
  {"date": "03/01/2024", "category": "Bus", "amount": 2, "notes": ""},
  {"date": "2024-03-04", "category": "Gift", "amount": 0, "notes": ""},
  "stray text"
]`
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	sink := memory.New()
	w := NewExportWorker(storage.NewFileStore(path), sink, nil)

	if err := w.ExportAll(context.Background()); err != nil {
		t.Fatalf("ExportAll: %v", err)
	}
	items, sum, ok := sink.Last()
	if !ok || len(items) != 2 {
		t.Fatalf("expected 2 exported items, got %v", items)
	}
	if items[0].Category != "Rent" || items[1].Category != "Food" {
		t.Errorf("unexpected exported rows: %+v", items)
	}
	if sum.Count != 2 || !sum.Total.Equal(core.NewMoney("810")) {
		t.Errorf("summary should only cover exported rows, got %+v", sum)
	}
}

func TestExportWorker_ExporterFailure(t *testing.T) {
	boom := errors.New("quota exceeded")
	w := NewExportWorker(storage.NewMemoryStore(), failingExporter{err: boom}, nil)

	if err := w.ExportAll(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected exporter error, got %v", err)
	}
}
