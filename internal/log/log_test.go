package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("decode %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Handler: slog.NewJSONHandler(&buf, nil), Component: ComponentLedger})

	logger.Info("computed", FieldCount, 3)
	logger.WithComponent(ComponentCache).Warn("evicted")

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0][FieldComponent] != ComponentLedger || lines[0][FieldCount] != float64(3) {
		t.Errorf("unexpected first line: %v", lines[0])
	}
	if lines[1][FieldComponent] != ComponentCache {
		t.Errorf("unexpected second line: %v", lines[1])
	}
}

func TestLogFieldsBuilder(t *testing.T) {
	f := NewFields().
		WithTransaction("tx-1", "expense", "2024-01-05", 200).
		WithError(errors.New("boom")).
		WithError(nil).
		WithOperation(OpCreate)

	if f[FieldTxID] != "tx-1" || f[FieldAmountCents] != int64(200) || f[FieldError] != "boom" || f[FieldOperation] != OpCreate {
		t.Errorf("unexpected fields: %v", f)
	}
	if len(f.ToSlice()) != 2*len(f) {
		t.Errorf("ToSlice should hold key/value pairs")
	}
}

func TestMiddlewareLogsRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Handler: slog.NewJSONHandler(&buf, nil)})

	var fromCtx *Logger
	h := Middleware(logger, func(*http.Request) string { return "req-1" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fromCtx = FromContext(r.Context())
			w.WriteHeader(http.StatusNotFound)
		}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/transactions/x?y=1", nil))

	if fromCtx == nil || fromCtx.Component() != ComponentHTTP {
		t.Fatalf("expected request logger in context")
	}
	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected one access log line, got %d", len(lines))
	}
	line := lines[0]
	if line["level"] != "WARN" || line[FieldStatusCode] != float64(404) || line[FieldRequestID] != "req-1" {
		t.Errorf("unexpected access log: %v", line)
	}
	if line[FieldPath] != "/api/transactions/x" || line[FieldQuery] != "y=1" {
		t.Errorf("unexpected request fields: %v", line)
	}
}

func TestFromContextFallback(t *testing.T) {
	l := FromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	if l == nil || l.Component() != "unknown" {
		t.Errorf("expected fallback logger, got %+v", l)
	}
}
