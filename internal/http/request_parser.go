// Package http serves the JSON API over the transaction service and the
// balance engine.
//
// This file holds the request parsing helpers shared by the handlers.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"saldo/internal/balance"
	"saldo/internal/core"
	"saldo/internal/services"
)

const (
	maxBodyBytes = 1 << 20
	// maxWindowDays bounds every series window, about ten years.
	maxWindowDays = 3660
)

// errBadRequest marks malformed input that never reached validation.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// ParseMonthParams extracts year and month from the query, defaulting to the
// month containing today.
func ParseMonthParams(query url.Values, today core.Date) (int, time.Month, error) {
	year, month := today.Year(), today.Month()
	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 || y > 9999 {
			return 0, 0, badRequest("invalid year %q", v)
		}
		year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return 0, 0, badRequest("invalid month %q", v)
		}
		month = m
	}
	return year, time.Month(month), nil
}

// ParseDateParam returns the date in query key, or the zero Date when absent.
func ParseDateParam(query url.Values, key string) (core.Date, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, badRequest("%s: %v", key, err)
	}
	return d, nil
}

// ParseIntParam returns the integer in query key, or def when absent.
func ParseIntParam(query url.Values, key string, def int) (int, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, badRequest("invalid %s %q", key, v)
	}
	return n, nil
}

// ParseFilter reads q, type, tag, from and to. type and tag may repeat or be
// comma separated.
func ParseFilter(query url.Values) (balance.Filter, error) {
	f := balance.Filter{Text: strings.TrimSpace(query.Get("q"))}
	for _, raw := range splitMulti(query["type"]) {
		typ, err := core.ParseType(raw)
		if err != nil {
			return balance.Filter{}, badRequest("%v", err)
		}
		f.Types = append(f.Types, typ)
	}
	f.Tags = splitMulti(query["tag"])

	var err error
	if f.From, err = ParseDateParam(query, "from"); err != nil {
		return balance.Filter{}, err
	}
	if f.To, err = ParseDateParam(query, "to"); err != nil {
		return balance.Filter{}, err
	}
	return f, nil
}

// ParseWindow reads either from/to or anchor/days/pan. Without any of them
// the window is the 30 days ending today.
func ParseWindow(query url.Values, today core.Date) (balance.Window, error) {
	from, err := ParseDateParam(query, "from")
	if err != nil {
		return balance.Window{}, err
	}
	to, err := ParseDateParam(query, "to")
	if err != nil {
		return balance.Window{}, err
	}
	if !from.IsEmpty() || !to.IsEmpty() {
		w, err := balance.NewWindow(from, to)
		if err != nil {
			return balance.Window{}, badRequest("%v", err)
		}
		if w.Days() > maxWindowDays {
			return balance.Window{}, badRequest("window spans %d days, at most %d allowed", w.Days(), maxWindowDays)
		}
		return w, nil
	}

	days, err := ParseIntParam(query, "days", 30)
	if err != nil {
		return balance.Window{}, err
	}
	if days < 1 || days > maxWindowDays {
		return balance.Window{}, badRequest("days must be between 1 and %d", maxWindowDays)
	}
	pan, err := ParseIntParam(query, "pan", 0)
	if err != nil {
		return balance.Window{}, err
	}
	anchor, err := ParseDateParam(query, "anchor")
	if err != nil {
		return balance.Window{}, err
	}
	if anchor.IsEmpty() {
		return balance.LastDays(today, days).Pan(pan), nil
	}
	return balance.CenteredWindow(anchor, days).Pan(pan), nil
}

// DecodeTransaction reads one JSON record from the body.
func DecodeTransaction(r *http.Request) (core.Transaction, error) {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	var rec core.Record
	if err := dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return core.Transaction{}, badRequest("empty body")
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) || errors.Is(err, core.ErrInvalidDate) || errors.Is(err, core.ErrInvalidAmount) {
			return core.Transaction{}, &services.ValidationError{Err: err}
		}
		return core.Transaction{}, badRequest("decode body: %v", err)
	}
	rec.ID = strings.TrimSpace(rec.ID)
	rec.Note = sanitizeInput(rec.Note)
	t, err := rec.Transaction()
	if err != nil {
		return core.Transaction{}, &services.ValidationError{Err: err}
	}
	return t, nil
}

func splitMulti(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// sanitizeInput removes control characters other than tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
