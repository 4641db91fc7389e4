package observability

import (
	"fmt"
	"io"
	"maps"
	"net/http"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// MetricsConfig holds configuration for the metrics subsystem.
type MetricsConfig struct {
	Enabled bool
	// Namespace prefixes every metric name (default: pharmadmin).
	Namespace string
	// Version is reported by the info metric.
	Version string
}

func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{Enabled: true, Namespace: "pharmadmin", Version: "dev"}
}

// MetricsConfigFromEnv creates a MetricsConfig from environment variables.
// PHARMADMIN_METRICS_ENABLED: true/false (default: true)
// APP_VERSION: version string (default: dev)
func MetricsConfigFromEnv() MetricsConfig {
	cfg := DefaultMetricsConfig()
	if v := os.Getenv("PHARMADMIN_METRICS_ENABLED"); v != "" {
		cfg.Enabled = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("APP_VERSION"); v != "" {
		cfg.Version = v
	}
	return cfg
}

// Metrics collects request and list metrics and serves them in the
// Prometheus text format. A nil *Metrics is valid and records nothing.
type Metrics struct {
	namespace string
	version   string

	mu        sync.Mutex
	requests  map[requestKey]int64
	durations map[routeKey]*window
	lists     map[listKey]int64
	lastTotal map[string]int64

	rateLimitAllowed  atomic.Int64
	rateLimitRejected atomic.Int64
	inFlight          atomic.Int64
}

type requestKey struct {
	method, path string
	status       int
}

type routeKey struct{ method, path string }

type listKey struct{ resource, outcome string }

// window keeps the most recent duration samples, in seconds.
type window struct {
	samples []float64
	next    int
	full    bool
	sum     float64
	count   int64
}

const windowSize = 1000

func (w *window) add(d time.Duration) {
	s := d.Seconds()
	if w.samples == nil {
		w.samples = make([]float64, windowSize)
	}
	w.samples[w.next] = s
	w.next = (w.next + 1) % windowSize
	if w.next == 0 {
		w.full = true
	}
	w.sum += s
	w.count++
}

func (w *window) quantile(q float64) float64 {
	n := w.next
	if w.full {
		n = windowSize
	}
	if n == 0 {
		return 0
	}
	sorted := slices.Clone(w.samples[:n])
	slices.Sort(sorted)
	idx := q * float64(n-1)
	lower := int(idx)
	if lower+1 >= n {
		return sorted[n-1]
	}
	frac := idx - float64(lower)
	return sorted[lower]*(1-frac) + sorted[lower+1]*frac
}

// NewMetrics returns nil when cfg disables collection.
func NewMetrics(cfg MetricsConfig) *Metrics {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "pharmadmin"
	}
	return &Metrics{
		namespace: cfg.Namespace,
		version:   cfg.Version,
		requests:  make(map[requestKey]int64),
		durations: make(map[routeKey]*window),
		lists:     make(map[listKey]int64),
		lastTotal: make(map[string]int64),
	}
}

// RecordHTTPRequest records one served request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	path = normalizePath(path)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[requestKey{method, path, status}]++
	w, ok := m.durations[routeKey{method, path}]
	if !ok {
		w = &window{}
		m.durations[routeKey{method, path}] = w
	}
	w.add(d)
}

// RecordList records the outcome of a list query and, on success, the
// number of matching rows.
func (m *Metrics) RecordList(resource string, total int, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists[listKey{resource, outcome}]++
	if err == nil {
		m.lastTotal[resource] = int64(total)
	}
}

func (m *Metrics) RecordRateLimit(allowed bool) {
	if m == nil {
		return
	}
	if allowed {
		m.rateLimitAllowed.Add(1)
	} else {
		m.rateLimitRejected.Add(1)
	}
}

// normalizePath replaces numeric path segments with {id}.
func normalizePath(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if _, err := strconv.ParseInt(part, 10, 64); err == nil {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}

// Handler serves the Prometheus text exposition.
func (m *Metrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		m.WriteTo(w)
	})
}

// WriteTo writes every metric in Prometheus text format.
func (m *Metrics) WriteTo(w io.Writer) {
	if m == nil {
		return
	}
	ns := m.namespace
	m.mu.Lock()
	defer m.mu.Unlock()

	fmt.Fprintf(w, "# HELP %s_info Application information\n# TYPE %s_info gauge\n", ns, ns)
	fmt.Fprintf(w, "%s_info{version=%q} 1\n\n", ns, m.version)

	fmt.Fprintf(w, "# HELP %s_http_requests_total Total number of HTTP requests\n# TYPE %s_http_requests_total counter\n", ns, ns)
	reqKeys := slices.SortedFunc(maps.Keys(m.requests), func(a, b requestKey) int {
		if c := strings.Compare(a.path, b.path); c != 0 {
			return c
		}
		if c := strings.Compare(a.method, b.method); c != 0 {
			return c
		}
		return a.status - b.status
	})
	for _, k := range reqKeys {
		fmt.Fprintf(w, "%s_http_requests_total{method=%q,path=%q,status=\"%d\"} %d\n", ns, k.method, k.path, k.status, m.requests[k])
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "# HELP %s_http_request_duration_seconds HTTP request duration in seconds\n# TYPE %s_http_request_duration_seconds summary\n", ns, ns)
	routes := slices.SortedFunc(maps.Keys(m.durations), func(a, b routeKey) int {
		if c := strings.Compare(a.path, b.path); c != 0 {
			return c
		}
		return strings.Compare(a.method, b.method)
	})
	for _, k := range routes {
		win := m.durations[k]
		for _, q := range []float64{0.5, 0.9, 0.99} {
			fmt.Fprintf(w, "%s_http_request_duration_seconds{method=%q,path=%q,quantile=\"%.2f\"} %.6f\n", ns, k.method, k.path, q, win.quantile(q))
		}
		fmt.Fprintf(w, "%s_http_request_duration_seconds_sum{method=%q,path=%q} %.6f\n", ns, k.method, k.path, win.sum)
		fmt.Fprintf(w, "%s_http_request_duration_seconds_count{method=%q,path=%q} %d\n", ns, k.method, k.path, win.count)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "# HELP %s_list_queries_total List queries by resource and outcome\n# TYPE %s_list_queries_total counter\n", ns, ns)
	listKeys := slices.SortedFunc(maps.Keys(m.lists), func(a, b listKey) int {
		if c := strings.Compare(a.resource, b.resource); c != 0 {
			return c
		}
		return strings.Compare(a.outcome, b.outcome)
	})
	for _, k := range listKeys {
		fmt.Fprintf(w, "%s_list_queries_total{resource=%q,outcome=%q} %d\n", ns, k.resource, k.outcome, m.lists[k])
	}
	fmt.Fprintf(w, "\n# HELP %s_list_last_total Matching rows of the latest successful list query\n# TYPE %s_list_last_total gauge\n", ns, ns)
	for _, res := range slices.Sorted(maps.Keys(m.lastTotal)) {
		fmt.Fprintf(w, "%s_list_last_total{resource=%q} %d\n", ns, res, m.lastTotal[res])
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "# HELP %s_rate_limit_requests_total Total rate limit decisions\n# TYPE %s_rate_limit_requests_total counter\n", ns, ns)
	fmt.Fprintf(w, "%s_rate_limit_requests_total{status=\"allowed\"} %d\n", ns, m.rateLimitAllowed.Load())
	fmt.Fprintf(w, "%s_rate_limit_requests_total{status=\"rejected\"} %d\n\n", ns, m.rateLimitRejected.Load())

	fmt.Fprintf(w, "# HELP %s_requests_in_flight Requests currently being served\n# TYPE %s_requests_in_flight gauge\n", ns, ns)
	fmt.Fprintf(w, "%s_requests_in_flight %d\n", ns, m.inFlight.Load())
}

// MetricsMiddleware records every request except scrapes of /metrics.
func MetricsMiddleware(m *Metrics) func(http.Handler) http.Handler {
	if m == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}
			m.inFlight.Add(1)
			defer m.inFlight.Add(-1)

			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			m.RecordHTTPRequest(r.Method, r.URL.Path, sw.status, time.Since(start))
		})
	}
}

// RateLimitMetricsMiddleware wraps the rate limiter and counts its decisions
// by the response status.
func RateLimitMetricsMiddleware(m *Metrics, rateLimitEnabled bool) func(http.Handler) http.Handler {
	if m == nil || !rateLimitEnabled {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			m.RecordRateLimit(sw.status != http.StatusTooManyRequests)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
