package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"saldo/internal/core"
	ports "saldo/internal/sheets"
)

var _ ports.TransactionStore = (*Store)(nil)

// Store keeps transactions in memory. When created with a path, every
// mutation is written back to that JSON file.
type Store struct {
	mu    sync.Mutex
	path  string
	items []core.Transaction
}

func New(txns ...core.Transaction) *Store {
	return &Store{items: slices.Clone(txns)}
}

// Open loads the JSON file at path, starting empty when it does not exist.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Load replaces the contents with the file's records.
func (s *Store) Load() error {
	if s.path == "" {
		return nil
	}
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", s.path, err)
	}
	var items []core.Transaction
	if len(b) > 0 {
		if err := json.Unmarshal(b, &items); err != nil {
			return fmt.Errorf("decode %s: %w", s.path, err)
		}
	}
	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	return nil
}

// Save writes the collection to the backing file atomically.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(s.items)
}

// commitLocked persists items and only then makes them the collection, so a
// failed write leaves the store unchanged.
func (s *Store) commitLocked(items []core.Transaction) error {
	if err := s.writeLocked(items); err != nil {
		return err
	}
	s.items = items
	return nil
}

func (s *Store) writeLocked(items []core.Transaction) error {
	if s.path == "" {
		return nil
	}
	if items == nil {
		items = []core.Transaction{}
	}
	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode transactions: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	out := slices.Clone(s.items)
	s.mu.Unlock()
	slices.SortStableFunc(out, func(a, b core.Transaction) int { return a.Date.Compare(b.Date) })
	return out, nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.items[i], nil
	}
	return core.Transaction{}, core.ErrNotFound
}

// SaveTransaction replaces in place so edits keep their position.
func (s *Store) SaveTransaction(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := slices.Clone(s.items)
	if i := s.indexOf(t.ID); i >= 0 {
		items[i] = t
	} else {
		items = append(items, t)
	}
	return s.commitLocked(items)
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.ErrNotFound
	}
	return s.commitLocked(slices.Delete(slices.Clone(s.items), i, i+1))
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.items, func(t core.Transaction) bool { return t.ID == id })
}
