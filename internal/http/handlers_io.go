package http

import (
	"bytes"
	"net/http"

	"saldo/internal/tabular"
)

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.svc.Export(r.Context(), &buf); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
	_, _ = w.Write(buf.Bytes())
}

type importError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

type importView struct {
	Imported int           `json:"imported"`
	Rejected int           `json:"rejected"`
	Errors   []importError `json:"errors"`
}

func newImportView(errs []tabular.RowError, imported int) importView {
	v := importView{Imported: imported, Rejected: len(errs), Errors: make([]importError, len(errs))}
	for i, e := range errs {
		v.Errors[i] = importError{Row: e.Row, Error: e.Err.Error()}
	}
	return v
}

// handleImport reads a CSV body. Bad rows are reported, not fatal. A bulk
// change makes every cached ledger obsolete, so both caches are emptied.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, 10*maxBodyBytes)
	report, err := s.svc.Import(r.Context(), body)
	if report.Imported > 0 {
		s.calendarCache.Purge()
		s.seriesCache.Purge()
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(newImportView(report.Errors, report.Imported)).Write(w)
}
