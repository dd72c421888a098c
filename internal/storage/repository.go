package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"saldo/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping implements the readiness check.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ListTransactions returns every live transaction ordered by date.
func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := row.toTransaction()
		if err != nil {
			slog.WarnContext(ctx, "Skipping unreadable transaction row", "id", row.ID, "error", err)
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && row.DeletedAt.Valid) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return row.toTransaction()
}

// SaveTransaction upserts t by id.
func (r *SQLiteRepository) SaveTransaction(ctx context.Context, t core.Transaction) error {
	_, err := r.Upsert(ctx, t)
	return err
}

// Upsert stores t and returns its new version. Every write resets the row to
// pending sync.
func (r *SQLiteRepository) Upsert(ctx context.Context, t core.Transaction) (int64, error) {
	params, err := upsertParams(t)
	if err != nil {
		return 0, err
	}
	version, err := r.queries.UpsertTransaction(ctx, params)
	if err != nil {
		return 0, fmt.Errorf("upsert transaction %s: %w", t.ID, err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"type", t.Type(),
		"amount_cents", t.Amount.Cents,
		"date", t.Date.String(),
		"version", version)
	return version, nil
}

// DeleteTransaction soft-deletes the row so the deletion can be synced.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	_, err := r.SoftDelete(ctx, id)
	return err
}

func (r *SQLiteRepository) SoftDelete(ctx context.Context, id string) (int64, error) {
	version, err := r.queries.SoftDeleteTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, core.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("delete transaction %s: %w", id, err)
	}
	slog.InfoContext(ctx, "Transaction soft-deleted", "id", id, "version", version)
	return version, nil
}

// Version returns the current sync version of a row, deleted or not.
func (r *SQLiteRepository) Version(ctx context.Context, id string) (int64, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, core.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get version %s: %w", id, err)
	}
	return row.Version, nil
}

// SyncRecord is what the sync worker needs to mirror one row.
type SyncRecord struct {
	Transaction core.Transaction
	Version     int64
	Deleted     bool
}

// GetForSync returns the row including soft-deleted state.
func (r *SQLiteRepository) GetForSync(ctx context.Context, id string) (SyncRecord, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return SyncRecord{}, core.ErrNotFound
	}
	if err != nil {
		return SyncRecord{}, fmt.Errorf("get transaction for sync %s: %w", id, err)
	}
	t, err := row.toTransaction()
	if err != nil {
		return SyncRecord{}, err
	}
	return SyncRecord{Transaction: t, Version: row.Version, Deleted: row.DeletedAt.Valid}, nil
}

// PendingSync identifies a row waiting to be mirrored.
type PendingSync struct {
	ID        string
	Version   int64
	Deleted   bool
	UpdatedAt time.Time
}

// GetPendingSync returns rows in pending or error state, oldest first.
func (r *SQLiteRepository) GetPendingSync(ctx context.Context, limit int) ([]PendingSync, error) {
	rows, err := r.queries.GetPendingSync(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("get pending sync: %w", err)
	}
	out := make([]PendingSync, len(rows))
	for i, row := range rows {
		out[i] = PendingSync(row)
	}
	return out, nil
}

// MarkSynced marks a row as synced if it is still at version.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string, version int64) error {
	n, err := r.queries.MarkSynced(ctx, id, version)
	if err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	if n == 0 {
		slog.InfoContext(ctx, "Transaction changed during sync, leaving pending", "id", id, "version", version)
		return nil
	}
	slog.InfoContext(ctx, "Transaction marked as synced", "id", id, "version", version)
	return nil
}

// MarkSyncError marks a row as having sync errors.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id string) error {
	if err := r.queries.MarkSyncError(ctx, id); err != nil {
		return fmt.Errorf("mark transaction sync error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with sync error", "id", id)
	return nil
}

// PurgeDeleted drops soft-deleted rows already mirrored.
func (r *SQLiteRepository) PurgeDeleted(ctx context.Context) (int64, error) {
	n, err := r.queries.PurgeDeleted(ctx)
	if err != nil {
		return 0, fmt.Errorf("purge deleted: %w", err)
	}
	return n, nil
}

func upsertParams(t core.Transaction) (UpsertTransactionParams, error) {
	tags, err := json.Marshal(nonNilTags(t.Tags))
	if err != nil {
		return UpsertTransactionParams{}, fmt.Errorf("encode tags: %w", err)
	}
	p := UpsertTransactionParams{
		ID:          t.ID,
		Date:        t.Date.String(),
		Type:        string(t.Type()),
		AmountCents: t.Amount.Cents,
		Note:        t.Note,
		Tags:        string(tags),
	}
	switch d := t.Details.(type) {
	case core.BorrowIn:
		p.Counterparty = sql.NullString{String: d.Counterparty, Valid: true}
	case core.RepayLoan:
		p.Counterparty = sql.NullString{String: d.Counterparty, Valid: true}
	case core.Investment:
		p.IsWithdrawable = sql.NullBool{Bool: d.Withdrawable, Valid: true}
	case core.Custom:
		p.CustomLabel = sql.NullString{String: d.Label, Valid: true}
		p.IsPositive = sql.NullBool{Bool: d.Positive, Valid: true}
	}
	return p, nil
}

func (row TransactionRow) toTransaction() (core.Transaction, error) {
	date, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	var tags []string
	if row.Tags != "" {
		if err := json.Unmarshal([]byte(row.Tags), &tags); err != nil {
			return core.Transaction{}, fmt.Errorf("decode tags: %w", err)
		}
	}
	details, err := core.NewDetails(core.Type(row.Type), row.Counterparty.String, row.IsWithdrawable.Bool, row.CustomLabel.String, row.IsPositive.Bool)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID:      row.ID,
		Date:    date,
		Amount:  core.Money{Cents: row.AmountCents},
		Details: details,
		Tags:    core.NormalizeTags(tags),
		Note:    row.Note,
	}, nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
