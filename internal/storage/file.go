package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"spendlog/internal/core"
)

// FileStore keeps the collection in a single JSON file holding an array of
// expense objects.
type FileStore struct {
	path string
}

var _ Store = (*FileStore)(nil)

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load implements Store. Unparsable content yields ErrCorruptData and a
// non-array top level yields ErrShapeMismatch; both return an empty collection.
// Elements of an array are never rejected: unreadable ones are kept as they are.
func (s *FileStore) Load(ctx context.Context) (core.Expenses, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return core.Expenses{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read expenses file: %w", err)
	}
	items, err := decodeExpenses(data)
	if err != nil {
		return core.Expenses{}, fmt.Errorf("%s: %w", s.path, err)
	}
	return items, nil
}

// Save implements Store. The file is replaced via rename so a crash never
// leaves a half-written collection behind.
func (s *FileStore) Save(ctx context.Context, items core.Expenses) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encodeExpenses(items)
	if err != nil {
		return fmt.Errorf("encode expenses: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace expenses file: %w", err)
	}
	committed = true

	slog.DebugContext(ctx, "Expenses saved to file", "path", s.path, "count", len(items))
	return nil
}

func (s *FileStore) Close() error {
	return nil
}

func decodeExpenses(data []byte) (core.Expenses, error) {
	if !json.Valid(data) {
		return core.Expenses{}, ErrCorruptData
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return core.Expenses{}, ErrShapeMismatch
	}
	var items core.Expenses
	if err := json.Unmarshal(data, &items); err != nil {
		return core.Expenses{}, fmt.Errorf("%w: %v", ErrShapeMismatch, err)
	}
	if items == nil {
		items = core.Expenses{}
	}
	return items, nil
}

func encodeExpenses(items core.Expenses) ([]byte, error) {
	if items == nil {
		items = core.Expenses{}
	}
	data, err := json.MarshalIndent(items, "", "    ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
