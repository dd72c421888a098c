package storage

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// TransactionRow is one row of the transactions table.
type TransactionRow struct {
	ID             string
	Date           string
	Type           string
	AmountCents    int64
	Note           string
	Counterparty   sql.NullString
	IsWithdrawable sql.NullBool
	CustomLabel    sql.NullString
	IsPositive     sql.NullBool
	Tags           string
	Version        int64
	SyncStatus     string
	DeletedAt      sql.NullTime
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

const transactionColumns = `id, date, type, amount_cents, note, counterparty, is_withdrawable,
	custom_label, is_positive, tags, version, sync_status, deleted_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(s rowScanner) (TransactionRow, error) {
	var r TransactionRow
	err := s.Scan(
		&r.ID, &r.Date, &r.Type, &r.AmountCents, &r.Note, &r.Counterparty, &r.IsWithdrawable,
		&r.CustomLabel, &r.IsPositive, &r.Tags, &r.Version, &r.SyncStatus, &r.DeletedAt,
		&r.CreatedAt, &r.UpdatedAt,
	)
	return r, err
}

const upsertTransaction = `
INSERT INTO transactions (id, date, type, amount_cents, note, counterparty, is_withdrawable, custom_label, is_positive, tags)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	date = excluded.date,
	type = excluded.type,
	amount_cents = excluded.amount_cents,
	note = excluded.note,
	counterparty = excluded.counterparty,
	is_withdrawable = excluded.is_withdrawable,
	custom_label = excluded.custom_label,
	is_positive = excluded.is_positive,
	tags = excluded.tags,
	version = transactions.version + 1,
	sync_status = 'pending',
	deleted_at = NULL,
	updated_at = CURRENT_TIMESTAMP
RETURNING version`

type UpsertTransactionParams struct {
	ID             string
	Date           string
	Type           string
	AmountCents    int64
	Note           string
	Counterparty   sql.NullString
	IsWithdrawable sql.NullBool
	CustomLabel    sql.NullString
	IsPositive     sql.NullBool
	Tags           string
}

func (q *Queries) UpsertTransaction(ctx context.Context, arg UpsertTransactionParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, upsertTransaction,
		arg.ID, arg.Date, arg.Type, arg.AmountCents, arg.Note, arg.Counterparty,
		arg.IsWithdrawable, arg.CustomLabel, arg.IsPositive, arg.Tags,
	)
	var version int64
	err := row.Scan(&version)
	return version, err
}

const getTransaction = `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`

// GetTransaction returns the row including soft-deleted ones.
func (q *Queries) GetTransaction(ctx context.Context, id string) (TransactionRow, error) {
	return scanTransaction(q.db.QueryRowContext(ctx, getTransaction, id))
}

const listTransactions = `SELECT ` + transactionColumns + ` FROM transactions
WHERE deleted_at IS NULL
ORDER BY date, created_at, id`

func (q *Queries) ListTransactions(ctx context.Context) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TransactionRow
	for rows.Next() {
		r, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const softDeleteTransaction = `
UPDATE transactions
SET deleted_at = CURRENT_TIMESTAMP, version = version + 1, sync_status = 'pending', updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND deleted_at IS NULL
RETURNING version`

func (q *Queries) SoftDeleteTransaction(ctx context.Context, id string) (int64, error) {
	var version int64
	err := q.db.QueryRowContext(ctx, softDeleteTransaction, id).Scan(&version)
	return version, err
}

const getPendingSync = `SELECT id, version, deleted_at IS NOT NULL, updated_at FROM transactions
WHERE sync_status IN ('pending', 'error')
ORDER BY updated_at, id
LIMIT ?`

type PendingSyncRow struct {
	ID        string
	Version   int64
	Deleted   bool
	UpdatedAt time.Time
}

func (q *Queries) GetPendingSync(ctx context.Context, limit int64) ([]PendingSyncRow, error) {
	rows, err := q.db.QueryContext(ctx, getPendingSync, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PendingSyncRow
	for rows.Next() {
		var r PendingSyncRow
		if err := rows.Scan(&r.ID, &r.Version, &r.Deleted, &r.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const markSynced = `UPDATE transactions SET sync_status = 'synced' WHERE id = ? AND version = ?`

// MarkSynced only flags the row when version is still current.
func (q *Queries) MarkSynced(ctx context.Context, id string, version int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, markSynced, id, version)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const markSyncError = `UPDATE transactions SET sync_status = 'error' WHERE id = ?`

func (q *Queries) MarkSyncError(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, markSyncError, id)
	return err
}

const purgeDeleted = `DELETE FROM transactions WHERE deleted_at IS NOT NULL AND sync_status = 'synced'`

// PurgeDeleted removes soft-deleted rows that have already been synced.
func (q *Queries) PurgeDeleted(ctx context.Context) (int64, error) {
	res, err := q.db.ExecContext(ctx, purgeDeleted)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
