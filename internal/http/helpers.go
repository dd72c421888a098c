package http

import (
	"fmt"

	"saldo/internal/balance"
	"saldo/internal/core"
)

// snapshotView adds display strings to a snapshot.
type snapshotView struct {
	balance.Snapshot
	AsOf              *core.Date `json:"asOf,omitempty"`
	Currency          string     `json:"currency"`
	LiquidDisplay     string     `json:"liquidDisplay"`
	NetWorthDisplay   string     `json:"netWorthDisplay"`
	TransactionsCount int        `json:"transactionsCount"`
}

func newSnapshotView(s balance.Snapshot, asOf *core.Date, currency string, count int) snapshotView {
	return snapshotView{
		Snapshot:          s,
		AsOf:              asOf,
		Currency:          currency,
		LiquidDisplay:     s.Liquid.Format(currency),
		NetWorthDisplay:   s.NetWorth.Format(currency),
		TransactionsCount: count,
	}
}

// calendarView is one month of end-of-day liquid balances.
type calendarView struct {
	Year     int                  `json:"year"`
	Month    int                  `json:"month"`
	Days     []balance.DayBalance `json:"days"`
	Opening  core.Money           `json:"opening"`
	Closing  core.Money           `json:"closing"`
	Currency string               `json:"currency"`
}

func newCalendarView(txns []core.Transaction, year, month int, currency string) calendarView {
	first := core.NewDate(year, month, 1)
	ledger := balance.MonthLedger(txns, year, first.Time.Month())
	return calendarView{
		Year:     year,
		Month:    month,
		Days:     ledger.Balances(),
		Opening:  balance.AggregateAsOf(txns, first.AddDays(-1)).Liquid,
		Closing:  ledger.At(ledger.Days()),
		Currency: currency,
	}
}

type seriesView struct {
	Metric balance.Metric  `json:"metric"`
	Window balance.Window  `json:"window"`
	Points []balance.Point `json:"points"`
}

// cacheKey builds a ledger cache key scoped to one collection revision.
func cacheKey(revision int64, kind string, parts ...any) string {
	return fmt.Sprintf("%d|%s|%v", revision, kind, parts)
}
