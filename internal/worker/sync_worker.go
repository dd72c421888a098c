package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"saldo/internal/amqp"
	"saldo/internal/core"
	"saldo/internal/sheets"
	"saldo/internal/storage"
)

// Source is the local store the worker mirrors from.
type Source interface {
	GetForSync(ctx context.Context, id string) (storage.SyncRecord, error)
	GetPendingSync(ctx context.Context, limit int) ([]storage.PendingSync, error)
	MarkSynced(ctx context.Context, id string, version int64) error
	MarkSyncError(ctx context.Context, id string) error
	PurgeDeleted(ctx context.Context) (int64, error)
}

var _ Source = (*storage.SQLiteRepository)(nil)

// SyncWorker mirrors transactions from SQLite to a spreadsheet.
type SyncWorker struct {
	source    Source
	target    sheets.TransactionWriter
	batchSize int
}

func NewSyncWorker(source Source, target sheets.TransactionWriter, batchSize int) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &SyncWorker{source: source, target: target, batchSize: batchSize}
}

// HandleSyncMessage processes one message from AMQP. The row is always
// re-read so upsert and delete share one path. A message older than the
// row is skipped; the message for the newer version follows it.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.SyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"version", msg.Version,
		"action", msg.Action)

	rec, err := w.source.GetForSync(ctx, msg.ID)
	if errors.Is(err, core.ErrNotFound) {
		slog.InfoContext(ctx, "Transaction no longer exists, nothing to sync", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}
	if msg.Version > 0 && msg.Version < rec.Version {
		slog.InfoContext(ctx, "Skipping stale sync message",
			"id", msg.ID,
			"message_version", msg.Version,
			"current_version", rec.Version)
		return nil
	}
	return w.syncRecord(ctx, rec)
}

// ProcessPending syncs rows whose messages may have been lost, then purges
// deleted rows that have been mirrored.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.source.GetPendingSync(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending transactions: %w", err)
	}

	synced, failed := 0, 0
	for _, p := range pending {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rec, err := w.source.GetForSync(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get pending transaction", "id", p.ID, "error", err)
			failed++
			continue
		}
		if err := w.syncRecord(ctx, rec); err != nil {
			slog.ErrorContext(ctx, "Failed to sync pending transaction", "id", p.ID, "error", err)
			failed++
			continue
		}
		synced++
	}
	if len(pending) > 0 {
		slog.InfoContext(ctx, "Pending sync pass completed",
			"total", len(pending),
			"synced", synced,
			"errors", failed)
	}

	purged, err := w.source.PurgeDeleted(ctx)
	if err != nil {
		return err
	}
	if purged > 0 {
		slog.InfoContext(ctx, "Purged synced deletions", "count", purged)
	}
	return nil
}

// StartupCheck verifies the target is reachable and prepared, then runs one
// pending pass to recover from worker downtime.
func (w *SyncWorker) StartupCheck(ctx context.Context) error {
	if p, ok := w.target.(sheets.Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("ping sync target: %w", err)
		}
	}
	if h, ok := w.target.(interface{ EnsureHeader(context.Context) error }); ok {
		if err := h.EnsureHeader(ctx); err != nil {
			return fmt.Errorf("prepare sync target: %w", err)
		}
	}
	return w.ProcessPending(ctx)
}

// Run repeats the pending pass every interval until ctx ends.
func (w *SyncWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.ProcessPending(ctx); err != nil && ctx.Err() == nil {
				slog.ErrorContext(ctx, "Pending sync pass failed", "error", err)
			}
		}
	}
}

func (w *SyncWorker) syncRecord(ctx context.Context, rec storage.SyncRecord) error {
	id := rec.Transaction.ID
	var err error
	if rec.Deleted {
		err = w.target.DeleteTransaction(ctx, id)
		if errors.Is(err, core.ErrNotFound) {
			err = nil
		}
	} else {
		err = w.target.SaveTransaction(ctx, rec.Transaction)
	}
	if err != nil {
		if markErr := w.source.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("mirror transaction %s: %w", id, err)
	}

	if err := w.source.MarkSynced(ctx, id, rec.Version); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", id, "error", err)
	}
	slog.InfoContext(ctx, "Successfully synced transaction",
		"id", id,
		"version", rec.Version,
		"deleted", rec.Deleted)
	return nil
}
