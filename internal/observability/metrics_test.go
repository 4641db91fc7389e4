package observability

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	var buf bytes.Buffer
	m.WriteTo(&buf)
	return buf.String()
}

func TestNewMetrics(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, Version: "1.2.3"})
	if m == nil || m.namespace != "pharmadmin" {
		t.Fatalf("expected default namespace, got %+v", m)
	}
	if NewMetrics(MetricsConfig{Enabled: false}) != nil {
		t.Error("expected nil metrics when disabled")
	}
	out := scrape(t, m)
	if !strings.Contains(out, `pharmadmin_info{version="1.2.3"} 1`) {
		t.Errorf("missing info metric:\n%s", out)
	}
}

func TestMetricsConfigFromEnv(t *testing.T) {
	t.Setenv("PHARMADMIN_METRICS_ENABLED", "false")
	t.Setenv("APP_VERSION", "v2.0.0")
	cfg := MetricsConfigFromEnv()
	if cfg.Enabled || cfg.Version != "v2.0.0" || cfg.Namespace != "pharmadmin" {
		t.Errorf("unexpected config %+v", cfg)
	}
	t.Setenv("PHARMADMIN_METRICS_ENABLED", "1")
	if !MetricsConfigFromEnv().Enabled {
		t.Error("expected 1 to enable metrics")
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	m := NewMetrics(DefaultMetricsConfig())
	m.RecordHTTPRequest("GET", "/api/v1/products", 200, 10*time.Millisecond)
	m.RecordHTTPRequest("GET", "/api/v1/products", 200, 30*time.Millisecond)
	m.RecordHTTPRequest("GET", "/api/v1/orders/42", 404, time.Millisecond)

	out := scrape(t, m)
	for _, want := range []string{
		`pharmadmin_http_requests_total{method="GET",path="/api/v1/products",status="200"} 2`,
		`pharmadmin_http_requests_total{method="GET",path="/api/v1/orders/{id}",status="404"} 1`,
		`pharmadmin_http_request_duration_seconds_count{method="GET",path="/api/v1/products"} 2`,
		`pharmadmin_http_request_duration_seconds_sum{method="GET",path="/api/v1/products"} 0.040000`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in:\n%s", want, out)
		}
	}
}

func TestRecordList(t *testing.T) {
	m := NewMetrics(DefaultMetricsConfig())
	m.RecordList("products", 12, nil)
	m.RecordList("products", 3, nil)
	m.RecordList("orders", 0, errors.New("boom"))

	out := scrape(t, m)
	for _, want := range []string{
		`pharmadmin_list_queries_total{resource="products",outcome="ok"} 2`,
		`pharmadmin_list_queries_total{resource="orders",outcome="error"} 1`,
		`pharmadmin_list_last_total{resource="products"} 3`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in:\n%s", want, out)
		}
	}
	if strings.Contains(out, `pharmadmin_list_last_total{resource="orders"}`) {
		t.Error("failed queries should not update the last total")
	}
}

func TestWindowQuantile(t *testing.T) {
	var w window
	if w.quantile(0.5) != 0 {
		t.Error("expected zero for empty window")
	}
	for i := 1; i <= 5; i++ {
		w.add(time.Duration(i) * time.Second)
	}
	if got := w.quantile(0.5); got != 3 {
		t.Errorf("expected median 3, got %v", got)
	}
	if got := w.quantile(0.99); got < 4.9 || got > 5 {
		t.Errorf("expected p99 near 5, got %v", got)
	}

	var full window
	for i := 0; i < windowSize+10; i++ {
		full.add(time.Duration(i) * time.Millisecond)
	}
	if full.count != windowSize+10 {
		t.Errorf("expected count to include evicted samples, got %d", full.count)
	}
	if got := full.quantile(0); got != 0.010 {
		t.Errorf("expected oldest samples evicted, min=%v", got)
	}
}

func TestNormalizePath(t *testing.T) {
	tests := map[string]string{
		"/api/v1/products":     "/api/v1/products",
		"/api/v1/products/123": "/api/v1/products/{id}",
		"/":                    "/",
	}
	for in, want := range tests {
		if got := normalizePath(in); got != want {
			t.Errorf("normalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics(DefaultMetricsConfig())
	h := m.Handler()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK || !strings.HasPrefix(rr.Header().Get("Content-Type"), "text/plain") {
		t.Fatalf("unexpected response %d %q", rr.Code, rr.Header().Get("Content-Type"))
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/metrics", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rr.Code)
	}
}

func TestMetricsMiddleware(t *testing.T) {
	m := NewMetrics(DefaultMetricsConfig())
	var during int64
	h := MetricsMiddleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		during = m.inFlight.Load()
		w.WriteHeader(http.StatusTeapot)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/customers", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if during != 1 || m.inFlight.Load() != 0 {
		t.Errorf("unexpected in-flight gauge during=%d after=%d", during, m.inFlight.Load())
	}
	out := scrape(t, m)
	if !strings.Contains(out, `path="/api/v1/customers",status="418"} 1`) {
		t.Errorf("expected recorded request:\n%s", out)
	}
	if strings.Contains(out, `path="/metrics"`) {
		t.Error("scrapes should not be recorded")
	}

	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	if got := MetricsMiddleware(nil)(next); got == nil {
		t.Error("expected passthrough handler for nil metrics")
	}
}

func TestRateLimitMetricsMiddleware(t *testing.T) {
	m := NewMetrics(DefaultMetricsConfig())
	limited := false
	h := RateLimitMetricsMiddleware(m, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if limited {
			w.WriteHeader(http.StatusTooManyRequests)
		}
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	limited = true
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if m.rateLimitAllowed.Load() != 1 || m.rateLimitRejected.Load() != 1 {
		t.Errorf("allowed=%d rejected=%d", m.rateLimitAllowed.Load(), m.rateLimitRejected.Load())
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordHTTPRequest("GET", "/", 200, time.Millisecond)
	m.RecordList("products", 1, nil)
	m.RecordRateLimit(false)
	if out := scrape(t, m); out != "" {
		t.Errorf("expected no output, got %q", out)
	}
}

func TestMetricsConcurrentAccess(t *testing.T) {
	m := NewMetrics(DefaultMetricsConfig())
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				m.RecordHTTPRequest("GET", "/api/v1/products", 200, time.Millisecond)
				m.RecordList("products", j, nil)
			}
		}()
	}
	wg.Wait()
	if !strings.Contains(scrape(t, m), `status="200"} 1000`) {
		t.Error("expected 1000 recorded requests")
	}
}
