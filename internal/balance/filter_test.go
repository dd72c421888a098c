package balance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saldo/internal/core"
)

func taggedHistory() []core.Transaction {
	txns := sampleHistory()
	txns[0].Note = "January salary"
	txns[0].Tags = []string{"work"}
	txns[1].Note = "Groceries"
	txns[1].Tags = []string{"food", "home"}
	txns[7].Tags = []string{"Home"}
	return txns
}

func TestFilterMatch(t *testing.T) {
	txns := taggedHistory()
	tests := []struct {
		name   string
		filter Filter
		ids    []string
	}{
		{"zero filter matches all", Filter{}, []string{"a", "b", "c", "d", "e", "f", "g", "h"}},
		{"text over note", Filter{Text: "salary"}, []string{"a"}},
		{"text over counterparty", Filter{Text: "anna"}, []string{"f", "g"}},
		{"text over custom label", Filter{Text: "LEAP"}, []string{"e"}},
		{"text over type name", Filter{Text: "invest"}, []string{"c"}},
		{"text over tags", Filter{Text: "foo"}, []string{"b"}},
		{"types", Filter{Types: []core.Type{core.TypeExpense, core.TypeDeposit}}, []string{"b", "d", "h"}},
		{"any tag, case-insensitive", Filter{Tags: []string{"home", "work"}}, []string{"a", "b", "h"}},
		{"date range inclusive", Filter{From: core.MustParseDate("2024-02-10"), To: core.MustParseDate("2024-02-29")}, []string{"c", "d", "e", "g"}},
		{"combined", Filter{Tags: []string{"home"}, From: core.MustParseDate("2024-02-01")}, []string{"h"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ids []string
			for _, tr := range tt.filter.Apply(txns) {
				ids = append(ids, tr.ID)
			}
			assert.ElementsMatch(t, tt.ids, ids)
		})
	}
}

func TestSummarize(t *testing.T) {
	txns := taggedHistory()

	all := Summarize(txns, Filter{})
	assert.Equal(t, 8, all.Count)
	// in: 5000 + 700 + 50 + 2000; out: 1200 + 300 + 1000 + 9999
	assert.Equal(t, money(7750), all.Inflow)
	assert.Equal(t, money(12499), all.Outflow)
	assert.Equal(t, Aggregate(txns, nil).Liquid, all.Net)

	neutral := []core.Transaction{tx("n", "2024-01-01", 400, core.Investment{Withdrawable: true})}
	s := Summarize(neutral, Filter{})
	assert.Equal(t, Summary{Count: 1}, s)

	assert.Equal(t, Summary{}, Summarize(nil, Filter{Text: "x"}))
}

func TestBreakdown(t *testing.T) {
	ov := Breakdown(taggedHistory(), Filter{})
	assert.Equal(t, 8, ov.Count)

	require.NotEmpty(t, ov.ByType)
	assert.Equal(t, "expense", ov.ByType[0].Key)
	assert.Equal(t, 2, ov.ByType[0].Count)
	assert.Equal(t, money(11199), ov.ByType[0].Outflow)

	require.Len(t, ov.ByTag, 3)
	assert.Equal(t, Bucket{Key: "home", Count: 2, Outflow: money(11199)}, ov.ByTag[0])
	assert.Equal(t, Bucket{Key: "food", Count: 1, Outflow: money(1200)}, ov.ByTag[1])
	assert.Equal(t, Bucket{Key: "work", Count: 1, Inflow: money(5000)}, ov.ByTag[2])
}
