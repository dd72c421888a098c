package http

import (
	"net/http"

	"saldo/internal/core"
	applog "saldo/internal/log"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	txns, err := s.svc.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if txns == nil {
		txns = []core.Transaction{}
	}
	NewJSONResponse().Body(txns).Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(t).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := DecodeTransaction(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if t.Date.IsEmpty() {
		t.Date = s.today()
	}
	created, err := s.svc.Create(r.Context(), t)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.logSaved(r, created, applog.OpCreate)
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/transactions/"+created.ID).
		Body(created).
		Write(w)
}

// handleUpdateTransaction replaces the transaction as a whole. The id in the
// path wins over one in the body.
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := DecodeTransaction(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	t.ID = r.PathValue("id")
	if t.Date.IsEmpty() {
		t.Date = s.today()
	}
	updated, err := s.svc.Update(r.Context(), t)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.logSaved(r, updated, applog.OpUpdate)
	NewJSONResponse().Body(updated).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) logSaved(r *http.Request, t core.Transaction, op string) {
	fields := applog.NewFields().
		WithOperation(op).
		WithTransaction(t.ID, string(t.Type()), t.Date.String(), t.Amount.Cents)
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Transaction saved", fields.ToSlice()...)
}
