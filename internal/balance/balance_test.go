package balance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saldo/internal/core"
)

func tx(id, date string, cents int64, d core.Details) core.Transaction {
	return core.Transaction{ID: id, Date: core.MustParseDate(date), Amount: core.Money{Cents: cents}, Details: d}
}

func money(c int64) core.Money { return core.Money{Cents: c} }

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		details  core.Details
		liquid   int64
		netWorth int64
	}{
		{"income", core.Income{}, 1000, 1000},
		{"deposit", core.Deposit{}, 1000, 1000},
		{"expense", core.Expense{}, -1000, -1000},
		{"borrow", core.BorrowIn{Counterparty: "Bank"}, 1000, 0},
		{"repay", core.RepayLoan{Counterparty: "Bank"}, -1000, 0},
		{"withdrawable investment", core.Investment{Withdrawable: true}, 0, 0},
		{"locked investment", core.Investment{Withdrawable: false}, -1000, 0},
		{"custom positive", core.Custom{Label: "Gift", Positive: true}, 1000, 1000},
		{"custom negative", core.Custom{Label: "Fine"}, -1000, -1000},
		{"missing details", nil, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Classify(tx("x", "2024-01-01", 1000, tt.details))
			assert.Equal(t, money(tt.liquid), d.Liquid)
			assert.Equal(t, money(tt.netWorth), d.NetWorth)
		})
	}
}

func TestClassifyPropertiesHoldForAnyAmount(t *testing.T) {
	for _, cents := range []int64{0, 1, 99, 12345, 1 << 40} {
		exp := Classify(tx("e", "2024-01-01", cents, core.Expense{}))
		assert.Equal(t, money(-cents), exp.Liquid)
		assert.Equal(t, money(-cents), exp.NetWorth)

		assert.True(t, Classify(tx("w", "2024-01-01", cents, core.Investment{Withdrawable: true})).Liquid.IsZero())
		assert.Equal(t, money(-cents), Classify(tx("l", "2024-01-01", cents, core.Investment{})).Liquid)
	}
}

func TestAggregate(t *testing.T) {
	txns := []core.Transaction{
		tx("1", "2024-01-01", 100000, core.Income{}),
		tx("2", "2024-01-05", 20000, core.Expense{}),
		tx("3", "2024-02-01", 50000, core.BorrowIn{Counterparty: "Bank"}),
	}

	t.Run("empty input is the identity", func(t *testing.T) {
		assert.Equal(t, Snapshot{}, Aggregate(nil, nil))
		assert.Equal(t, Snapshot{}, Aggregate([]core.Transaction{}, nil))
	})

	t.Run("nil cutoff equals far future", func(t *testing.T) {
		far := core.NewDate(9999, 12, 31)
		assert.Equal(t, Aggregate(txns, &far), Aggregate(txns, nil))
	})

	t.Run("cutoff is inclusive", func(t *testing.T) {
		got := AggregateAsOf(txns, core.MustParseDate("2024-01-05"))
		assert.Equal(t, Snapshot{Liquid: money(80000), NetWorth: money(80000)}, got)
		got = AggregateAsOf(txns, core.MustParseDate("2024-01-04"))
		assert.Equal(t, Snapshot{Liquid: money(100000), NetWorth: money(100000)}, got)
	})

	t.Run("idempotent and non-mutating", func(t *testing.T) {
		before := append([]core.Transaction(nil), txns...)
		first := Aggregate(txns, nil)
		second := Aggregate(txns, nil)
		assert.Equal(t, first, second)
		assert.Equal(t, before, txns)
	})

	t.Run("order independent", func(t *testing.T) {
		reversed := []core.Transaction{txns[2], txns[1], txns[0]}
		assert.Equal(t, Aggregate(txns, nil), Aggregate(reversed, nil))
	})
}

func TestScenarioA(t *testing.T) {
	txns := []core.Transaction{
		tx("1", "2024-01-01", 1000, core.Income{}),
		tx("2", "2024-01-05", 200, core.Expense{}),
	}
	assert.Equal(t, Snapshot{Liquid: money(800), NetWorth: money(800)}, Aggregate(txns, nil))

	ledger := MonthLedger(txns, 2024, time.January)
	require.Equal(t, 31, ledger.Days())
	m := ledger.Map()
	assert.Equal(t, money(1000), m["2024-01-03"])
	assert.Equal(t, money(800), m["2024-01-05"])
	assert.Equal(t, money(800), m["2024-01-10"])
}

func TestScenarioB(t *testing.T) {
	txns := []core.Transaction{tx("1", "2024-02-01", 500, core.BorrowIn{Counterparty: "Bank"})}
	assert.Equal(t, Snapshot{Liquid: money(500), NetWorth: money(0)}, Aggregate(txns, nil))
}

func TestScenarioC(t *testing.T) {
	txns := []core.Transaction{
		tx("1", "2024-03-01", 300, core.Investment{Withdrawable: false}),
		tx("2", "2024-03-02", 300, core.Investment{Withdrawable: true}),
	}
	ledger := MonthLedger(txns, 2024, time.March)
	assert.Equal(t, money(-300), ledger.At(1))
	assert.Equal(t, money(-300), ledger.At(2))
}

func TestScenarioD(t *testing.T) {
	d := Classify(tx("1", "2024-04-01", 50, core.Custom{Label: "Fine", Positive: false}))
	assert.Equal(t, Delta{Liquid: money(-50), NetWorth: money(-50)}, d)
}

func sampleHistory() []core.Transaction {
	return []core.Transaction{
		tx("a", "2023-12-30", 5000, core.Income{}),
		tx("b", "2024-01-15", 1200, core.Expense{}),
		tx("c", "2024-02-10", 300, core.Investment{}),
		tx("d", "2024-02-10", 700, core.Deposit{}),
		tx("e", "2024-02-29", 50, core.Custom{Label: "Leap", Positive: true}),
		tx("f", "2024-02-03", 2000, core.BorrowIn{Counterparty: "Anna"}),
		tx("g", "2024-02-20", 1000, core.RepayLoan{Counterparty: "Anna"}),
		tx("h", "2024-03-01", 9999, core.Expense{}),
	}
}

func TestMonthLedgerMatchesAggregate(t *testing.T) {
	txns := sampleHistory()
	for _, month := range []time.Month{time.December, time.January, time.February, time.March} {
		year := 2024
		if month == time.December {
			year = 2023
		}
		ledger := MonthLedger(txns, year, month)
		require.Equal(t, core.DaysIn(year, month), ledger.Days())
		for day := 1; day <= ledger.Days(); day++ {
			d := core.NewDate(year, int(month), day)
			assert.Equal(t, AggregateAsOf(txns, d).Liquid, ledger.At(day), "day %s", d)
		}
	}
}

func TestMonthLedgerCarriesForward(t *testing.T) {
	txns := sampleHistory()
	ledger := MonthLedger(txns, 2024, time.February)
	require.Equal(t, 29, ledger.Days())

	busy := map[int]bool{}
	for _, tr := range txns {
		if tr.Date.Year() == 2024 && tr.Date.Month() == 2 {
			busy[tr.Date.Day()] = true
		}
	}
	baseline := AggregateAsOf(txns, core.MustParseDate("2024-01-31")).Liquid
	for day := 1; day <= ledger.Days(); day++ {
		if busy[day] {
			continue
		}
		prev := baseline
		if day > 1 {
			prev = ledger.At(day - 1)
		}
		assert.Equal(t, prev, ledger.At(day), "day %d", day)
	}
}

func TestMonthLedgerEdges(t *testing.T) {
	t.Run("no history", func(t *testing.T) {
		ledger := MonthLedger(nil, 2024, time.June)
		require.Equal(t, 30, ledger.Days())
		for _, b := range ledger.Balances() {
			assert.True(t, b.Balance.IsZero())
		}
	})

	t.Run("later transactions are not consumed", func(t *testing.T) {
		txns := []core.Transaction{tx("1", "2024-05-01", 100, core.Income{})}
		ledger := MonthLedger(txns, 2024, time.April)
		assert.True(t, ledger.At(30).IsZero())
	})

	t.Run("input order untouched", func(t *testing.T) {
		txns := sampleHistory()
		before := append([]core.Transaction(nil), txns...)
		_ = MonthLedger(txns, 2024, time.February)
		assert.Equal(t, before, txns)
	})

	t.Run("lookups", func(t *testing.T) {
		ledger := MonthLedger(sampleHistory(), 2024, time.January)
		got, ok := ledger.On(core.MustParseDate("2024-01-15"))
		require.True(t, ok)
		assert.Equal(t, money(3800), got)
		_, ok = ledger.On(core.MustParseDate("2024-02-01"))
		assert.False(t, ok)
		assert.True(t, ledger.At(0).IsZero())
		assert.True(t, ledger.At(32).IsZero())

		balances := ledger.Balances()
		require.Len(t, balances, 31)
		assert.Equal(t, "2024-01-01", balances[0].Date.String())
		assert.Equal(t, "2024-01-31", balances[30].Date.String())
	})

	t.Run("inverted range", func(t *testing.T) {
		ledger := RangeLedger(sampleHistory(), core.MustParseDate("2024-02-02"), core.MustParseDate("2024-02-01"))
		assert.Equal(t, 0, ledger.Days())
		assert.Empty(t, ledger.Map())
	})
}
