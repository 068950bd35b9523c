package httpclient

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLoggingTransport_KeepsCallerUserAgent(t *testing.T) {
	var received string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received = r.Header.Get("User-Agent")
	}))
	defer server.Close()

	transport := newLoggingTransport(http.DefaultTransport, "default/1.0", slog.Default())
	req, _ := http.NewRequest("GET", server.URL, nil)
	req.Header.Set("User-Agent", "caller/2.0")

	resp, err := transport.RoundTrip(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if received != "caller/2.0" {
		t.Errorf("expected caller User-Agent to win, got %q", received)
	}
	if req.Header.Get("X-Correlation-ID") != "" {
		t.Error("the caller's request must not be modified")
	}
}

func TestLoggingTransport_LogsSanitizedURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	transport := newLoggingTransport(http.DefaultTransport, "ua", logger)

	req, _ := http.NewRequest("GET", server.URL+"/?wctoken=secret-value", nil)
	resp, err := transport.RoundTrip(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	out := logs.String()
	if strings.Contains(out, "secret-value") {
		t.Errorf("log leaks token: %s", out)
	}
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "status=404") {
		t.Errorf("expected a warning with the status, got: %s", out)
	}
}
