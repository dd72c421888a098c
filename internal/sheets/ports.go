package sheets

import (
	"context"

	"saldo/internal/core"
)

// Ports for outbound adapters.
type (
	TransactionReader interface {
		// ListTransactions returns the whole collection ordered by date.
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
		// GetTransaction returns core.ErrNotFound for unknown ids.
		GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	}

	TransactionWriter interface {
		// SaveTransaction inserts t or replaces the transaction with the same id.
		SaveTransaction(ctx context.Context, t core.Transaction) error
		// DeleteTransaction returns core.ErrNotFound for unknown ids.
		DeleteTransaction(ctx context.Context, id string) error
	}

	TransactionStore interface {
		TransactionReader
		TransactionWriter
	}

	// Versioned is implemented by stores that keep a per-row sync version.
	Versioned interface {
		Version(ctx context.Context, id string) (int64, error)
	}

	// Pinger reports whether the backing store is reachable.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)
