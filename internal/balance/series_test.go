package balance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saldo/internal/core"
)

func TestParseMetric(t *testing.T) {
	m, err := ParseMetric("")
	require.NoError(t, err)
	assert.Equal(t, MetricLiquid, m)

	m, err = ParseMetric("Expense")
	require.NoError(t, err)
	assert.Equal(t, MetricExpense, m)

	_, err = ParseMetric("profit")
	assert.ErrorIs(t, err, ErrInvalidMetric)
}

func TestWindows(t *testing.T) {
	anchor := core.MustParseDate("2024-03-10")

	w := CenteredWindow(anchor, 7)
	assert.Equal(t, "2024-03-07", w.From.String())
	assert.Equal(t, "2024-03-13", w.To.String())
	assert.Equal(t, 7, w.Days())

	w = CenteredWindow(anchor, 4)
	assert.Equal(t, "2024-03-09", w.From.String())
	assert.Equal(t, "2024-03-12", w.To.String())

	w = LastDays(anchor, 10)
	assert.Equal(t, "2024-03-01", w.From.String())
	assert.Equal(t, anchor, w.To)

	w = w.Pan(-10)
	assert.Equal(t, "2024-02-20", w.From.String())
	assert.Equal(t, "2024-02-29", w.To.String())
	assert.Equal(t, 10, w.Days())

	assert.Equal(t, 1, LastDays(anchor, 0).Days())

	_, err := NewWindow(anchor, anchor.AddDays(-1))
	assert.ErrorIs(t, err, ErrInvalidWindow)
	w, err = NewWindow(anchor, anchor)
	require.NoError(t, err)
	assert.Equal(t, 1, w.Days())
}

func TestSeriesLiquidMatchesAggregate(t *testing.T) {
	txns := sampleHistory()
	w, err := NewWindow(core.MustParseDate("2024-01-20"), core.MustParseDate("2024-03-05"))
	require.NoError(t, err)

	points := Series(txns, w, MetricLiquid)
	require.Len(t, points, w.Days())
	for _, p := range points {
		assert.Equal(t, AggregateAsOf(txns, p.Date).Liquid, p.Value, "day %s", p.Date)
	}
}

func TestSeriesIncomeAndExpense(t *testing.T) {
	txns := sampleHistory()
	w := LastDays(core.MustParseDate("2024-02-12"), 3)

	income := Series(txns, w, MetricIncome)
	expense := Series(txns, w, MetricExpense)
	require.Len(t, income, 3)
	require.Len(t, expense, 3)

	// 2024-02-10: deposit 700 in, locked investment 300 out
	assert.Equal(t, "2024-02-10", income[0].Date.String())
	assert.Equal(t, money(700), income[0].Value)
	assert.Equal(t, money(300), expense[0].Value)
	for i := 1; i < 3; i++ {
		assert.True(t, income[i].Value.IsZero())
		assert.True(t, expense[i].Value.IsZero())
	}

	// the borrow on 2024-02-03 is liquid income for the day
	day := Series(txns, LastDays(core.MustParseDate("2024-02-03"), 1), MetricIncome)
	assert.Equal(t, money(2000), day[0].Value)
}

func TestSeriesEdges(t *testing.T) {
	assert.Nil(t, Series(sampleHistory(), Window{From: core.MustParseDate("2024-01-02"), To: core.MustParseDate("2024-01-01")}, MetricLiquid))
	points := Series(sampleHistory(), LastDays(core.MustParseDate("2024-01-15"), 2), Metric("bogus"))
	require.Len(t, points, 2)
	assert.True(t, points[1].Value.IsZero())
}

func TestSeriesOverCenturies(t *testing.T) {
	txns := []core.Transaction{tx("i", "2050-06-01", 100, core.Income{})}
	w, err := NewWindow(core.MustParseDate("1700-01-01"), core.MustParseDate("2100-01-01"))
	require.NoError(t, err)
	require.Equal(t, 146098, w.Days())

	ledger := RangeLedger(txns, w.From, w.To)
	assert.Equal(t, w.Days(), ledger.Days())
	got, ok := ledger.On(w.To)
	require.True(t, ok)
	assert.Equal(t, AggregateAsOf(txns, w.To).Liquid, got)

	points := Series(txns, w, MetricLiquid)
	require.Len(t, points, w.Days())
	assert.Equal(t, "2100-01-01", points[len(points)-1].Date.String())
	assert.Equal(t, money(100), points[len(points)-1].Value)

	income := Series(txns, w, MetricIncome)
	i := w.From.DaysUntil(core.MustParseDate("2050-06-01"))
	assert.Equal(t, "2050-06-01", income[i].Date.String())
	assert.Equal(t, money(100), income[i].Value)
}
