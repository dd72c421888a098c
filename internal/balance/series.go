package balance

import (
	"errors"
	"fmt"
	"strings"

	"saldo/internal/core"
)

// Metric selects what a series point measures.
type Metric string

const (
	// MetricLiquid is the liquid balance at the end of each day.
	MetricLiquid Metric = "liquid"
	// MetricIncome is the same-day total of positive liquid deltas.
	MetricIncome Metric = "income"
	// MetricExpense is the same-day total of negative liquid deltas, as a magnitude.
	MetricExpense Metric = "expense"
)

var (
	ErrInvalidMetric = errors.New("invalid series metric")
	ErrInvalidWindow = errors.New("invalid window")
)

// ParseMetric maps a metric name (case-insensitive) to a Metric. Empty
// selects MetricLiquid.
func ParseMetric(s string) (Metric, error) {
	switch m := Metric(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return MetricLiquid, nil
	case MetricLiquid, MetricIncome, MetricExpense:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMetric, s)
	}
}

// Window is an inclusive range of days.
type Window struct {
	From core.Date `json:"from"`
	To   core.Date `json:"to"`
}

// NewWindow returns the window [from, to].
func NewWindow(from, to core.Date) (Window, error) {
	if from.IsEmpty() || to.IsEmpty() {
		return Window{}, fmt.Errorf("%w: missing bound", ErrInvalidWindow)
	}
	if to.Before(from) {
		return Window{}, fmt.Errorf("%w: %s is after %s", ErrInvalidWindow, from, to)
	}
	return Window{From: from, To: to}, nil
}

// CenteredWindow returns a window of days days with anchor in the middle.
// For an even count the extra day falls after the anchor.
func CenteredWindow(anchor core.Date, days int) Window {
	if days < 1 {
		days = 1
	}
	from := anchor.AddDays(-(days - 1) / 2)
	return Window{From: from, To: from.AddDays(days - 1)}
}

// LastDays returns the window of days days ending on anchor.
func LastDays(anchor core.Date, days int) Window {
	if days < 1 {
		days = 1
	}
	return Window{From: anchor.AddDays(-(days - 1)), To: anchor}
}

// Pan shifts the window by n days, backwards when n is negative.
func (w Window) Pan(n int) Window {
	return Window{From: w.From.AddDays(n), To: w.To.AddDays(n)}
}

// Days returns the number of days in the window.
func (w Window) Days() int {
	if w.To.Before(w.From) {
		return 0
	}
	return w.From.DaysUntil(w.To) + 1
}

// Contains reports whether d falls inside the window.
func (w Window) Contains(d core.Date) bool {
	return !d.Before(w.From) && !d.After(w.To)
}

// Point is one day of a series.
type Point struct {
	Date  core.Date  `json:"date"`
	Value core.Money `json:"value"`
}

// Series produces one point per day of w. An unknown metric yields zero values.
func Series(txns []core.Transaction, w Window, metric Metric) []Point {
	n := w.Days()
	if n == 0 {
		return nil
	}
	points := make([]Point, n)
	for i := range points {
		points[i].Date = w.From.AddDays(i)
	}

	switch metric {
	case MetricLiquid:
		ledger := RangeLedger(txns, w.From, w.To)
		for i := range points {
			points[i].Value = ledger.At(i + 1)
		}
	case MetricIncome, MetricExpense:
		for _, t := range txns {
			if !w.Contains(t.Date) {
				continue
			}
			liquid := Classify(t).Liquid
			i := w.From.DaysUntil(t.Date)
			switch {
			case metric == MetricIncome && liquid.IsPositive():
				points[i].Value = points[i].Value.Add(liquid)
			case metric == MetricExpense && liquid.IsNegative():
				points[i].Value = points[i].Value.Add(liquid.Abs())
			}
		}
	}
	return points
}
