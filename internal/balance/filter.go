package balance

import (
	"strings"

	"saldo/internal/core"
)

// Filter selects transactions for a summary. Zero-valued fields match
// everything.
type Filter struct {
	Text  string
	Types []core.Type
	Tags  []string
	From  core.Date
	To    core.Date
}

// Match reports whether t satisfies every set criterion.
func (f Filter) Match(t core.Transaction) bool {
	if !f.From.IsEmpty() && t.Date.Before(f.From) {
		return false
	}
	if !f.To.IsEmpty() && t.Date.After(f.To) {
		return false
	}
	if len(f.Types) > 0 && !containsType(f.Types, t.Type()) {
		return false
	}
	if len(f.Tags) > 0 && !hasAnyTag(t, f.Tags) {
		return false
	}
	if q := strings.TrimSpace(f.Text); q != "" && !matchesText(t, strings.ToLower(q)) {
		return false
	}
	return true
}

// Apply returns the matching transactions in input order.
func (f Filter) Apply(txns []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, 0, len(txns))
	for _, t := range txns {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

func containsType(types []core.Type, typ core.Type) bool {
	for _, want := range types {
		if want == typ {
			return true
		}
	}
	return false
}

func hasAnyTag(t core.Transaction, tags []string) bool {
	for _, tag := range tags {
		if t.HasTag(tag) {
			return true
		}
	}
	return false
}

func matchesText(t core.Transaction, q string) bool {
	label, _, _ := t.CustomLabel()
	fields := append([]string{t.Note, t.Counterparty(), label, string(t.Type())}, t.Tags...)
	for _, f := range fields {
		if f != "" && strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// Summary totals a filtered set by the sign of each liquid delta.
type Summary struct {
	Count   int        `json:"count"`
	Inflow  core.Money `json:"inflow"`
	Outflow core.Money `json:"outflow"` // magnitude
	Net     core.Money `json:"net"`
}

// Summarize totals the transactions matching f. Liquid-neutral transactions
// only count toward Count.
func Summarize(txns []core.Transaction, f Filter) Summary {
	var s Summary
	for _, t := range txns {
		if !f.Match(t) {
			continue
		}
		s.Count++
		liquid := Classify(t).Liquid
		switch {
		case liquid.IsPositive():
			s.Inflow = s.Inflow.Add(liquid)
		case liquid.IsNegative():
			s.Outflow = s.Outflow.Add(liquid.Abs())
		}
	}
	s.Net = s.Inflow.Sub(s.Outflow)
	return s
}
