// Package client is the HTTP client of the pharmadmin list API. It paces
// requests with a token bucket, authenticates with a static bearer token and
// tags every request with an X-Request-ID.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"pharmadmin/internal/domain"
	"pharmadmin/internal/listquery"
	"pharmadmin/internal/observability"
)

const requestIDHeader = "X-Request-ID"

// Config configures a Client.
type Config struct {
	// BaseURL is the server root, e.g. http://localhost:8080.
	BaseURL string
	// Token, when set, is sent as a Bearer token.
	Token string
	// Timeout bounds each attempt. Zero means 10s.
	Timeout time.Duration
	// RequestsPerSecond paces outgoing requests; zero disables pacing.
	RequestsPerSecond float64
	Burst             int
	// MaxRetries is the number of retries after a transport error or a 5xx.
	MaxRetries int
	// Backoff is the first retry delay; it doubles on every retry.
	Backoff time.Duration
	// HTTPClient is the base client; its transport carries the token.
	HTTPClient *http.Client
	Logger     observability.Logger
}

// Client talks to the list API.
type Client struct {
	base       *url.URL
	http       *http.Client
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
	logger     observability.Logger
}

// APIError is a non-2xx response from the API.
type APIError struct {
	Status    int
	Message   string
	Detail    string
	RequestID string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
	if e.Detail != "" {
		msg += " - " + e.Detail
	}
	return msg
}

// Temporary reports whether a retry could succeed.
func (e *APIError) Temporary() bool {
	return e.Status >= 500 || e.Status == http.StatusTooManyRequests
}

// New validates cfg and builds a Client.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must be http or https", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = observability.NewLogger(observability.DefaultConfig())
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 200 * time.Millisecond
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	if cfg.Token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, hc)
		hc = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"}))
	} else {
		clone := *hc
		hc = &clone
	}
	hc.Timeout = cfg.Timeout

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), max(cfg.Burst, 1))
	}

	return &Client{
		base:       base,
		http:       hc,
		limiter:    limiter,
		maxRetries: max(cfg.MaxRetries, 0),
		backoff:    cfg.Backoff,
		logger:     cfg.Logger.WithComponent("client"),
	}, nil
}

// BaseURL returns the server root the client talks to.
func (c *Client) BaseURL() string { return c.base.String() }

// List fetches one page of res for the effective query q.
func List[T any](ctx context.Context, c *Client, res domain.Resource, q listquery.Query) (domain.ListResponse[T], error) {
	var out domain.ListResponse[T]
	err := c.get(observability.WithResource(ctx, string(res)), res.Path(), q.Values(), &out)
	return out, err
}

// Fetcher binds List to a resource.
func Fetcher[T any](c *Client, res domain.Resource) func(context.Context, listquery.Query) (domain.ListResponse[T], error) {
	return func(ctx context.Context, q listquery.Query) (domain.ListResponse[T], error) {
		return List[T](ctx, c, res, q)
	}
}

// Resources fetches the column catalog of every list endpoint.
func (c *Client) Resources(ctx context.Context) ([]domain.ResourceInfo, error) {
	var out []domain.ResourceInfo
	err := c.get(ctx, "/api/v1/resources", nil, &out)
	return out, err
}

// Health checks the server liveness endpoint.
func (c *Client) Health(ctx context.Context) error {
	var out map[string]string
	return c.get(ctx, "/healthz", nil, &out)
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	u := *c.base
	u.Path = c.base.Path + path
	u.RawQuery = q.Encode()
	target := u.String()

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoff * time.Duration(1<<uint(attempt-1))
			c.logger.DebugContext(ctx, "retrying request", "attempt", attempt, "delay", delay, "error", lastErr)
			t := time.NewTimer(delay)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			}
		}

		lastErr = c.do(ctx, target, out)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var apiErr *APIError
		if errors.As(lastErr, &apiErr) && !apiErr.Temporary() {
			return lastErr
		}
	}
	if c.maxRetries == 0 {
		return lastErr
	}
	return fmt.Errorf("request failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

func (c *Client) do(ctx context.Context, target string, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.New().String()
	req.Header.Set(requestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	ctx = observability.WithRequestID(ctx, requestID)
	c.logger.DebugContext(ctx, "api response", "url", target, "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var body struct {
			Error  string `json:"error"`
			Detail string `json:"detail"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if err := json.Unmarshal(data, &body); err != nil || body.Error == "" {
			body.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: body.Error, Detail: body.Detail, RequestID: requestID}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
