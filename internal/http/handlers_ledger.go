package http

import (
	"net/http"
	"strings"

	"saldo/internal/balance"
	"saldo/internal/core"
)

// handleStats returns the snapshot over the whole history, or as of the
// end of asOf.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	asOf, err := ParseDateParam(r.URL.Query(), "asOf")
	if err != nil {
		writeError(w, r, err)
		return
	}
	txns, err := s.svc.List(r.Context(), balance.Filter{})
	if err != nil {
		writeError(w, r, err)
		return
	}

	var cutoff *core.Date
	if !asOf.IsEmpty() {
		cutoff = &asOf
	}
	snap := balance.Aggregate(txns, cutoff)
	NewJSONResponse().Body(newSnapshotView(snap, cutoff, s.currency, len(txns))).Write(w)
}

// handleCalendar returns the month ledger. Results are cached per collection
// revision and concurrent identical requests share one computation.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	year, month, err := ParseMonthParams(r.URL.Query(), s.today())
	if err != nil {
		writeError(w, r, err)
		return
	}

	key := cacheKey(s.svc.Revision(), "calendar", year, int(month))
	view, err := s.calendarCache.Get(key, func() (calendarView, error) {
		txns, err := s.svc.List(r.Context(), balance.Filter{})
		if err != nil {
			return calendarView{}, err
		}
		return newCalendarView(txns, year, int(month), s.currency), nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(view).Write(w)
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	metric, err := balance.ParseMetric(query.Get("metric"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	window, err := ParseWindow(query, s.today())
	if err != nil {
		writeError(w, r, err)
		return
	}

	key := cacheKey(s.svc.Revision(), "series", metric, window.From.String(), window.To.String())
	points, err := s.seriesCache.Get(key, func() ([]balance.Point, error) {
		txns, err := s.svc.List(r.Context(), balance.Filter{})
		if err != nil {
			return nil, err
		}
		return balance.Series(txns, window, metric), nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(seriesView{Metric: metric, Window: window, Points: points}).Write(w)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	txns, err := s.svc.List(r.Context(), balance.Filter{})
	if err != nil {
		writeError(w, r, err)
		return
	}
	overview := balance.Breakdown(txns, f)
	if overview.ByType == nil {
		overview.ByType = []balance.Bucket{}
	}
	if overview.ByTag == nil {
		overview.ByTag = []balance.Bucket{}
	}
	NewJSONResponse().Body(struct {
		balance.Overview
		Query      string `json:"query,omitempty"`
		Currency   string `json:"currency"`
		NetDisplay string `json:"netDisplay"`
	}{overview, strings.TrimSpace(f.Text), s.currency, overview.Net.Format(s.currency)}).Write(w)
}
