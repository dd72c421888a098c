package balance

import (
	"slices"

	"saldo/internal/core"
)

// Snapshot is the point-in-time state of both figures.
type Snapshot struct {
	Liquid   core.Money `json:"liquid"`
	NetWorth core.Money `json:"netWorth"`
}

// Aggregate folds txns into a snapshot. When cutoff is non-nil, transactions
// dated strictly after it are skipped.
func Aggregate(txns []core.Transaction, cutoff *core.Date) Snapshot {
	var total Delta
	for _, t := range txns {
		if cutoff != nil && t.Date.After(*cutoff) {
			continue
		}
		total = total.Add(Classify(t))
	}
	return Snapshot{Liquid: total.Liquid, NetWorth: total.NetWorth}
}

// AggregateAsOf is Aggregate with a cutoff of d.
func AggregateAsOf(txns []core.Transaction, d core.Date) Snapshot {
	return Aggregate(txns, &d)
}

// sortedByDate returns a chronologically sorted copy of txns. Transactions on
// the same day keep their input order.
func sortedByDate(txns []core.Transaction) []core.Transaction {
	out := slices.Clone(txns)
	slices.SortStableFunc(out, func(a, b core.Transaction) int {
		return a.Date.Compare(b.Date)
	})
	return out
}
