package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"saldo/internal/core"
)

func TestMemoryStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	a := core.Transaction{ID: "a", Date: core.MustParseDate("2024-02-01"), Amount: core.Money{Cents: 100}, Details: core.Income{}}
	b := core.Transaction{ID: "b", Date: core.MustParseDate("2024-01-01"), Amount: core.Money{Cents: 50}, Details: core.Expense{}}
	for _, tx := range []core.Transaction{a, b} {
		if err := s.SaveTransaction(ctx, tx); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	list, _ := s.ListTransactions(ctx)
	if len(list) != 2 || list[0].ID != "b" {
		t.Fatalf("expected date-ordered list, got %+v", list)
	}

	a.Amount = core.Money{Cents: 999}
	if err := s.SaveTransaction(ctx, a); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, err := s.GetTransaction(ctx, "a")
	if err != nil || got.Amount.Cents != 999 {
		t.Fatalf("expected replaced amount, got %+v err=%v", got, err)
	}
	if list, _ := s.ListTransactions(ctx); len(list) != 2 {
		t.Fatalf("replace must not duplicate, got %d", len(list))
	}

	if err := s.DeleteTransaction(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetTransaction(ctx, "a"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteTransaction(ctx, "a"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestMemoryStorePersistsToFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "transactions.json")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open missing file: %v", err)
	}
	tx := core.Transaction{ID: "inv", Date: core.MustParseDate("2024-03-01"), Amount: core.Money{Cents: 30000}, Details: core.Investment{Withdrawable: true}, Tags: []string{"etf"}}
	if err := s.SaveTransaction(ctx, tx); err != nil {
		t.Fatalf("save: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := reopened.GetTransaction(ctx, "inv")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if w, ok := got.Withdrawable(); !ok || !w || !got.HasTag("etf") {
		t.Fatalf("record fields lost: %+v", got)
	}
}

func TestMemoryStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`[{"id":"x","type":"transfer"}]`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Open(path); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}

func TestMemoryStoreFailedWriteLeavesCollectionUnchanged(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "transactions.json")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	a := core.Transaction{ID: "a", Date: core.MustParseDate("2024-01-01"), Amount: core.Money{Cents: 100}, Details: core.Income{}}
	if err := s.SaveTransaction(ctx, a); err != nil {
		t.Fatalf("save: %v", err)
	}

	// a non-empty directory where the file was makes every write-back fail
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(path, "blocker"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	x := core.Transaction{ID: "x", Date: core.MustParseDate("2024-01-02"), Amount: core.Money{Cents: 5}, Details: core.Expense{}}
	if err := s.SaveTransaction(ctx, x); err == nil {
		t.Fatalf("expected save to fail")
	}
	if _, err := s.GetTransaction(ctx, "x"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("failed insert is visible: %v", err)
	}

	edited := a
	edited.Amount = core.Money{Cents: 999}
	if err := s.SaveTransaction(ctx, edited); err == nil {
		t.Fatalf("expected update to fail")
	}
	if got, _ := s.GetTransaction(ctx, "a"); got.Amount.Cents != 100 {
		t.Fatalf("failed update is visible: %+v", got)
	}

	if err := s.DeleteTransaction(ctx, "a"); err == nil {
		t.Fatalf("expected delete to fail")
	}
	if list, _ := s.ListTransactions(ctx); len(list) != 1 || list[0].ID != "a" {
		t.Fatalf("failed delete is visible: %+v", list)
	}
}
