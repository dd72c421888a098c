// Package balance derives liquid funds and net worth from a set of
// transactions. Every function here is pure: inputs are never mutated and
// results depend only on the arguments.
package balance

import "saldo/internal/core"

// Delta is the signed effect of one transaction on the two running figures.
type Delta struct {
	Liquid   core.Money
	NetWorth core.Money
}

// Add returns the component-wise sum.
func (d Delta) Add(o Delta) Delta {
	return Delta{Liquid: d.Liquid.Add(o.Liquid), NetWorth: d.NetWorth.Add(o.NetWorth)}
}

// Classify maps a transaction to its liquid and net-worth deltas.
// Unknown or missing details contribute nothing.
func Classify(t core.Transaction) Delta {
	amt := t.Amount
	switch d := t.Details.(type) {
	case core.Income, core.Deposit:
		return Delta{Liquid: amt, NetWorth: amt}
	case core.Expense:
		return Delta{Liquid: amt.Neg(), NetWorth: amt.Neg()}
	case core.BorrowIn:
		return Delta{Liquid: amt}
	case core.RepayLoan:
		return Delta{Liquid: amt.Neg()}
	case core.Investment:
		if d.Withdrawable {
			return Delta{}
		}
		return Delta{Liquid: amt.Neg()}
	case core.Custom:
		if d.Positive {
			return Delta{Liquid: amt, NetWorth: amt}
		}
		return Delta{Liquid: amt.Neg(), NetWorth: amt.Neg()}
	default:
		return Delta{}
	}
}
