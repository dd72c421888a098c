package balance

import (
	"time"

	"saldo/internal/core"
)

// DayBalance is the liquid balance at the end of one day.
type DayBalance struct {
	Date    core.Date  `json:"date"`
	Balance core.Money `json:"balance"`
}

// Ledger holds end-of-day liquid balances for a contiguous range of days.
type Ledger struct {
	from     core.Date
	balances []core.Money
}

// RangeLedger computes the end-of-day liquid balance for every day in
// [from, to] with one sort and one forward sweep. Transactions dated after
// to are never consumed. An inverted range yields an empty ledger.
func RangeLedger(txns []core.Transaction, from, to core.Date) Ledger {
	l := Ledger{from: from}
	if to.Before(from) {
		return l
	}
	sorted := sortedByDate(txns)
	l.balances = make([]core.Money, 0, from.DaysUntil(to)+1)

	var running core.Money
	i := 0
	// baseline: everything strictly before the first day
	for i < len(sorted) && sorted[i].Date.Before(from) {
		running = running.Add(Classify(sorted[i]).Liquid)
		i++
	}
	for day := from; !day.After(to); day = day.AddDays(1) {
		for i < len(sorted) && !sorted[i].Date.After(day) {
			running = running.Add(Classify(sorted[i]).Liquid)
			i++
		}
		l.balances = append(l.balances, running)
	}
	return l
}

// MonthLedger computes end-of-day liquid balances for every day of the month.
func MonthLedger(txns []core.Transaction, year int, month time.Month) Ledger {
	first := core.NewDate(year, int(month), 1)
	last := core.NewDate(year, int(month), core.DaysIn(year, month))
	return RangeLedger(txns, first, last)
}

// Days returns the number of days covered.
func (l Ledger) Days() int { return len(l.balances) }

// From returns the first covered day.
func (l Ledger) From() core.Date { return l.from }

// At returns the balance for the 1-based day offset within the ledger.
// Out of range offsets return zero.
func (l Ledger) At(day int) core.Money {
	if day < 1 || day > len(l.balances) {
		return core.Money{}
	}
	return l.balances[day-1]
}

// On returns the balance recorded for d; ok is false outside the range.
func (l Ledger) On(d core.Date) (core.Money, bool) {
	if len(l.balances) == 0 {
		return core.Money{}, false
	}
	off := l.from.DaysUntil(d)
	if off < 0 || off >= len(l.balances) {
		return core.Money{}, false
	}
	return l.balances[off], true
}

// Balances returns one dated entry per covered day, in order.
func (l Ledger) Balances() []DayBalance {
	out := make([]DayBalance, len(l.balances))
	for i, b := range l.balances {
		out[i] = DayBalance{Date: l.from.AddDays(i), Balance: b}
	}
	return out
}

// Map returns the balances keyed by YYYY-MM-DD.
func (l Ledger) Map() map[string]core.Money {
	out := make(map[string]core.Money, len(l.balances))
	for i, b := range l.balances {
		out[l.from.AddDays(i).String()] = b
	}
	return out
}
