package app

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestLogMeta(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status int
		level  slog.Level
		result string
	}{
		{200, slog.LevelInfo, "success"},
		{204, slog.LevelInfo, "success"},
		{302, slog.LevelInfo, "redirect"},
		{404, slog.LevelWarn, "client_error"},
		{422, slog.LevelWarn, "client_error"},
		{500, slog.LevelError, "server_error"},
		{502, slog.LevelError, "server_error"},
	}
	for _, tc := range cases {
		level, result := requestLogMeta(tc.status)
		if level != tc.level || result != tc.result {
			t.Fatalf("requestLogMeta(%d) = (%v, %q), want (%v, %q)",
				tc.status, level, result, tc.level, tc.result)
		}
	}
}

func TestWithRequestLogging(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	h := WithRequestLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("missing"))
	}), log)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if entry["msg"] != "http.request" {
		t.Fatalf("msg = %v, want http.request", entry["msg"])
	}
	if entry["status"] != float64(404) || entry["result"] != "client_error" {
		t.Fatalf("status/result = %v/%v", entry["status"], entry["result"])
	}
	if entry["level"] != "WARN" {
		t.Fatalf("level = %v, want WARN", entry["level"])
	}
	if entry["bytes"] != float64(len("missing")) {
		t.Fatalf("bytes = %v, want %d", entry["bytes"], len("missing"))
	}
}

func TestWithSecurityHeaders(t *testing.T) {
	t.Parallel()

	h := WithSecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	want := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "no-referrer",
	}
	for k, v := range want {
		if got := rec.Header().Get(k); got != v {
			t.Fatalf("%s = %q, want %q", k, got, v)
		}
	}
}
