// Package testutil provides a seeded API server and response helpers for
// tests of the pharmadmin client and console packages.
package testutil

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pharmhttp "pharmadmin/internal/http"
	"pharmadmin/internal/observability"
	"pharmadmin/internal/storage"
)

// TestServerConfig holds configuration for creating a test server.
type TestServerConfig struct {
	// Seed loads the demo data into the store.
	Seed bool
	// RateLimit enables rate limiting when it has a positive rate and burst.
	RateLimit pharmhttp.RateLimitConfig
	// EnableMetrics enables metrics collection and the /metrics route.
	EnableMetrics bool
	// Token, when set, is required as a Bearer token on every request.
	Token string
}

// DefaultTestServerConfig returns a seeded server without rate limiting.
func DefaultTestServerConfig() TestServerConfig {
	return TestServerConfig{Seed: true}
}

// TestServerComponents holds all the components created for a test server.
type TestServerComponents struct {
	Server  *httptest.Server
	Store   *storage.MemoryStore
	Metrics *observability.Metrics
	Logger  observability.Logger

	// Requests records the raw query string of every API request, in order.
	Requests *RequestLog
}

// NewTestServer starts a server over a memory store. It is closed by
// t.Cleanup.
func NewTestServer(t *testing.T, cfg TestServerConfig) *TestServerComponents {
	t.Helper()

	store := storage.NewMemoryStore()
	if cfg.Seed {
		if err := storage.Seed(context.Background(), store); err != nil {
			t.Fatalf("seed store: %v", err)
		}
	}

	logger := observability.NewLogger(observability.Config{Level: "debug", Format: "json", Output: io.Discard})

	var metrics *observability.Metrics
	if cfg.EnableMetrics {
		metrics = observability.NewMetrics(observability.MetricsConfig{Enabled: true, Namespace: "pharmadmin_test", Version: "test"})
	}

	mux := http.NewServeMux()
	srv := pharmhttp.NewServer(mux, store, logger, metrics)
	srv.RegisterRoutes()

	log := &RequestLog{}
	api := srv.Handler(cfg.RateLimit)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			log.add(r.URL.Path + "?" + r.URL.RawQuery)
		}
		if cfg.Token != "" && r.Header.Get("Authorization") != "Bearer "+cfg.Token {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":"unauthorized"}`)
			return
		}
		api.ServeHTTP(w, r)
	})

	ts := httptest.NewServer(handler)
	t.Cleanup(func() {
		ts.Close()
		_ = store.Close()
	})

	return &TestServerComponents{
		Server:   ts,
		Store:    store,
		Metrics:  metrics,
		Logger:   logger,
		Requests: log,
	}
}

// URL returns the full URL for a given path.
func (c *TestServerComponents) URL(path string) string {
	return c.Server.URL + path
}

// AssertStatus checks that the response has the expected status code.
func AssertStatus(t *testing.T, got, expected int) {
	t.Helper()
	if got != expected {
		t.Errorf("expected status %d, got %d", expected, got)
	}
}

// ReadJSONResponse reads and unmarshals a JSON response body.
func ReadJSONResponse(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("failed to unmarshal response: %v\nBody: %s", err, string(data))
	}
}

// Get performs a GET against the test server and fails the test on
// transport errors.
func (c *TestServerComponents) Get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := c.Server.Client().Get(c.URL(path))
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}
