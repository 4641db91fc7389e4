package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"

	apidocs "pharmadmin/docs"
	"pharmadmin/internal/domain"
	"pharmadmin/internal/observability"
	"pharmadmin/internal/storage"
)

// apiError is the JSON body of every error response.
type apiError struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Server serves the list API of the pharmacy console.
type Server struct {
	mux     *http.ServeMux
	store   storage.Store
	logger  observability.Logger
	metrics *observability.Metrics
}

// NewServer creates a Server. A nil logger falls back to the default JSON
// logger; a nil metrics disables collection and the /metrics route.
func NewServer(mux *http.ServeMux, store storage.Store, logger observability.Logger, metrics *observability.Metrics) *Server {
	if logger == nil {
		logger = observability.NewLogger(observability.DefaultConfig())
	}
	return &Server{mux: mux, store: store, logger: logger, metrics: metrics}
}

func (s *Server) RegisterRoutes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/readyz", s.handleReady)
	s.mux.HandleFunc("/openapi.yaml", s.handleOpenAPISpec)
	if s.metrics != nil {
		s.mux.Handle("/metrics", s.metrics.Handler())
	}
	s.mux.HandleFunc("/api/v1/resources", s.handleResources)
	s.mux.HandleFunc(domain.ResourceEmployees.Path(), listHandler(s, domain.ResourceEmployees, s.store.ListEmployees))
	s.mux.HandleFunc(domain.ResourceCustomers.Path(), listHandler(s, domain.ResourceCustomers, s.store.ListCustomers))
	s.mux.HandleFunc(domain.ResourceProducts.Path(), listHandler(s, domain.ResourceProducts, s.store.ListProducts))
	s.mux.HandleFunc(domain.ResourceProviders.Path(), listHandler(s, domain.ResourceProviders, s.store.ListProviders))
	s.mux.HandleFunc(domain.ResourceOrders.Path(), listHandler(s, domain.ResourceOrders, s.store.ListOrders))
	s.mux.HandleFunc("/", s.handleNotFound)
}

// Handler returns the routes wrapped in the standard middleware chain.
func (s *Server) Handler(rl RateLimitConfig) http.Handler {
	return ApplyMiddlewares(s.mux,
		RequestIDMiddleware(),
		LoggingMiddleware(s.logger),
		Middleware(observability.MetricsMiddleware(s.metrics)),
		Middleware(observability.RateLimitMetricsMiddleware(s.metrics, rl.Enabled())),
		RateLimitMiddleware(rl, s.logger),
	)
}

func (s *Server) writeErr(ctx context.Context, w http.ResponseWriter, code int, msg string, detail string) {
	fields := []any{"status", code, "error", msg}
	if detail != "" {
		fields = append(fields, "detail", detail)
	}
	if code >= 500 {
		s.logger.ErrorContext(ctx, "request failed", fields...)
		hub := sentry.GetHubFromContext(ctx)
		if hub == nil {
			hub = sentry.CurrentHub()
		}
		hub.CaptureMessage(fmt.Sprintf("HTTP %d: %s (detail: %s)", code, msg, detail))
	} else {
		s.logger.WarnContext(ctx, "request failed", fields...)
	}
	writeJSON(w, code, apiError{Error: msg, Detail: detail})
}

// writeStoreErr maps a storage-layer error to an HTTP status with errors.Is,
// falling back to 500 for anything unrecognised.
func (s *Server) writeStoreErr(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrValidation):
		s.writeErr(ctx, w, http.StatusBadRequest, "invalid list query", err.Error())
	case errors.Is(err, storage.ErrConflict):
		s.writeErr(ctx, w, http.StatusConflict, err.Error(), "")
	case errors.Is(err, context.Canceled):
		// The client went away; nobody reads the body.
		s.logger.DebugContext(ctx, "request canceled", "error", err)
	default:
		s.writeErr(ctx, w, http.StatusInternalServerError, "internal error", err.Error())
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readinessResponse is the body of /readyz.
type readinessResponse struct {
	Status   string            `json:"status"`
	Checks   map[string]string `json:"checks"`
	Database *storage.DBStats  `json:"database,omitempty"`
}

// handleReady pings the store when it supports health checks. Stores
// without a connection pool are always ready.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErr(r.Context(), w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}
	resp := readinessResponse{Status: "ok", Checks: map[string]string{"database": "ok"}}
	hc, ok := s.store.(storage.HealthCheck)
	if !ok {
		resp.Checks["database"] = "memory"
		writeJSON(w, http.StatusOK, resp)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := hc.Ping(ctx); err != nil {
		s.logger.ErrorContext(ctx, "readiness check failed", "check", "database", "error", err.Error())
		resp.Status = "unhealthy"
		resp.Checks["database"] = "error"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	resp.Database = hc.Stats()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErr(r.Context(), w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(apidocs.OpenAPISpec)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeErr(r.Context(), w, http.StatusNotFound, "not found", r.URL.Path)
}
