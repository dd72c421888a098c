package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"saldo/internal/balance"
	"saldo/internal/core"
	"saldo/internal/sheets"
	"saldo/internal/tabular"

	"github.com/google/uuid"
)

// Publisher announces changes to the sync pipeline.
type Publisher interface {
	PublishSync(ctx context.Context, id string, version int64) error
	PublishDelete(ctx context.Context, id string, version int64) error
}

// ValidationError marks input rejected before it reached the store.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return "invalid transaction: " + e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// TransactionService orchestrates transaction writes across the configured
// store and the optional sync publisher. Every successful mutation bumps
// Revision so derived views can be cached per revision.
type TransactionService struct {
	store     sheets.TransactionStore
	publisher Publisher
	codec     tabular.Codec
	newID     func() string
	revision  atomic.Int64

	// writeMu makes each check-then-write sequence atomic within the
	// process, so concurrent creates of one id cannot both succeed.
	writeMu sync.Mutex
}

func NewTransactionService(store sheets.TransactionStore, publisher Publisher) *TransactionService {
	return &TransactionService{
		store:     store,
		publisher: publisher,
		codec:     tabular.NewCodec(),
		newID:     uuid.NewString,
	}
}

// Revision changes after every successful mutation.
func (s *TransactionService) Revision() int64 {
	return s.revision.Load()
}

// List returns the transactions matching f ordered by date.
func (s *TransactionService) List(ctx context.Context, f balance.Filter) ([]core.Transaction, error) {
	txns, err := s.store.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return f.Apply(txns), nil
}

func (s *TransactionService) Get(ctx context.Context, id string) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, id)
}

// Create stores a new transaction, assigning an id when t has none. An id
// that already exists is rejected with core.ErrDuplicateID.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if t.ID == "" {
		t.ID = s.newID()
	} else if _, err := s.store.GetTransaction(ctx, t.ID); err == nil {
		return core.Transaction{}, &ValidationError{Err: fmt.Errorf("%w: %s", core.ErrDuplicateID, t.ID)}
	} else if !errors.Is(err, core.ErrNotFound) {
		return core.Transaction{}, fmt.Errorf("check transaction %s: %w", t.ID, err)
	}
	if err := s.save(ctx, t); err != nil {
		return core.Transaction{}, err
	}
	slog.InfoContext(ctx, "Transaction created", "id", t.ID, "type", t.Type(), "amount_cents", t.Amount.Cents, "date", t.Date.String())
	return t, nil
}

// Update replaces the transaction with the same id as a whole.
func (s *TransactionService) Update(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := s.store.GetTransaction(ctx, t.ID); err != nil {
		return core.Transaction{}, err
	}
	if err := s.save(ctx, t); err != nil {
		return core.Transaction{}, err
	}
	slog.InfoContext(ctx, "Transaction updated", "id", t.ID, "type", t.Type(), "amount_cents", t.Amount.Cents, "date", t.Date.String())
	return t, nil
}

func (s *TransactionService) Delete(ctx context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	s.revision.Add(1)
	slog.InfoContext(ctx, "Transaction deleted", "id", id)

	if s.publisher != nil {
		if err := s.publisher.PublishDelete(ctx, id, s.version(ctx, id)); err != nil {
			// The row is already deleted locally; the pending sweep will catch up.
			slog.ErrorContext(ctx, "Failed to publish delete message", "id", id, "error", err)
		}
	}
	return nil
}

// ImportReport summarizes a CSV import.
type ImportReport struct {
	Imported int                `json:"imported"`
	Errors   []tabular.RowError `json:"-"`
}

// Import decodes a CSV file and upserts every valid row. Rows that fail to
// decode are reported without aborting the import.
func (s *TransactionService) Import(ctx context.Context, r io.Reader) (ImportReport, error) {
	res, err := s.codec.Import(r)
	if err != nil {
		return ImportReport{}, fmt.Errorf("import: %w", err)
	}
	report := ImportReport{Errors: res.Errors}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	for _, t := range res.Transactions {
		if err := s.save(ctx, t); err != nil {
			return report, fmt.Errorf("import %s: %w", t.ID, err)
		}
		report.Imported++
	}
	slog.InfoContext(ctx, "Transactions imported", "count", report.Imported, "rejected", len(report.Errors))
	return report, nil
}

// Export writes every transaction as CSV in date order.
func (s *TransactionService) Export(ctx context.Context, w io.Writer) error {
	txns, err := s.store.ListTransactions(ctx)
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}
	txns = slices.Clone(txns)
	slices.SortStableFunc(txns, func(a, b core.Transaction) int { return a.Date.Compare(b.Date) })
	return tabular.Export(w, txns)
}

// Ping reports whether the store is reachable. Stores without a health
// check are always considered ready.
func (s *TransactionService) Ping(ctx context.Context) error {
	if p, ok := s.store.(sheets.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (s *TransactionService) save(ctx context.Context, t core.Transaction) error {
	t.Tags = core.NormalizeTags(t.Tags)
	if err := t.Validate(); err != nil {
		return &ValidationError{Err: err}
	}
	if err := s.store.SaveTransaction(ctx, t); err != nil {
		return fmt.Errorf("save transaction %s: %w", t.ID, err)
	}
	s.revision.Add(1)

	if s.publisher != nil {
		if err := s.publisher.PublishSync(ctx, t.ID, s.version(ctx, t.ID)); err != nil {
			slog.ErrorContext(ctx, "Failed to publish sync message", "id", t.ID, "error", err)
		}
	}
	return nil
}

// version returns the store's sync version for id, or 0 when the store does
// not track versions.
func (s *TransactionService) version(ctx context.Context, id string) int64 {
	v, ok := s.store.(sheets.Versioned)
	if !ok {
		return 0
	}
	version, err := v.Version(ctx, id)
	if err != nil {
		slog.WarnContext(ctx, "Failed to read transaction version", "id", id, "error", err)
		return 0
	}
	return version
}

// Close releases the store and publisher when they hold resources.
func (s *TransactionService) Close() error {
	var errs []error
	if c, ok := s.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close transaction service: %w", errors.Join(errs...))
	}
	return nil
}
