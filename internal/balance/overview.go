package balance

import (
	"cmp"
	"slices"
	"strings"

	"saldo/internal/core"
)

// Bucket totals one group of a breakdown.
type Bucket struct {
	Key     string     `json:"key"`
	Count   int        `json:"count"`
	Inflow  core.Money `json:"inflow"`
	Outflow core.Money `json:"outflow"`
}

// Overview is a filtered summary broken down by type and by tag.
type Overview struct {
	Summary
	ByType []Bucket `json:"byType"`
	ByTag  []Bucket `json:"byTag"`
}

// Breakdown summarizes the transactions matching f and groups them by type
// and by tag. A transaction with several tags counts in each of its tags;
// untagged transactions are not grouped by tag. Buckets are ordered by
// outflow, then inflow, then key.
func Breakdown(txns []core.Transaction, f Filter) Overview {
	ov := Overview{Summary: Summarize(txns, f)}
	byType := map[string]*Bucket{}
	byTag := map[string]*Bucket{}
	for _, t := range txns {
		if !f.Match(t) {
			continue
		}
		liquid := Classify(t).Liquid
		addTo(byType, t.Type().String(), liquid)
		for _, tag := range t.Tags {
			addTo(byTag, strings.ToLower(tag), liquid)
		}
	}
	ov.ByType = sortedBuckets(byType)
	ov.ByTag = sortedBuckets(byTag)
	return ov
}

func addTo(groups map[string]*Bucket, key string, liquid core.Money) {
	b, ok := groups[key]
	if !ok {
		b = &Bucket{Key: key}
		groups[key] = b
	}
	b.Count++
	switch {
	case liquid.IsPositive():
		b.Inflow = b.Inflow.Add(liquid)
	case liquid.IsNegative():
		b.Outflow = b.Outflow.Add(liquid.Abs())
	}
}

func sortedBuckets(groups map[string]*Bucket) []Bucket {
	out := make([]Bucket, 0, len(groups))
	for _, b := range groups {
		out = append(out, *b)
	}
	slices.SortFunc(out, func(a, b Bucket) int {
		if c := cmp.Compare(b.Outflow.Cents, a.Outflow.Cents); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Inflow.Cents, a.Inflow.Cents); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return out
}
