package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"pharmadmin/internal/domain"
	"pharmadmin/internal/listquery"
)

// ResourceDefaults seeds the list state of one resource.
type ResourceDefaults struct {
	PageSize  int    `yaml:"page_size"`
	SearchBy  string `yaml:"search_by"`
	SortBy    string `yaml:"sort_by"`
	SortOrder string `yaml:"sort_order"`
}

// Config holds the console configuration.
type Config struct {
	APIURL            string                      `yaml:"api_url"`
	APIToken          string                      `yaml:"api_token"`
	RequestTimeout    time.Duration               `yaml:"request_timeout"`
	RequestsPerSecond float64                     `yaml:"requests_per_second"`
	Burst             int                         `yaml:"burst"`
	MaxRetries        int                         `yaml:"max_retries"`
	RetryBackoff      time.Duration               `yaml:"retry_backoff"`
	DebounceDelay     time.Duration               `yaml:"debounce_delay"`
	Resources         map[string]ResourceDefaults `yaml:"resources"`
}

// LoadConfig loads configuration from a YAML file and environment variables.
// Environment variables override YAML values.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		APIURL:            "http://localhost:8080",
		RequestTimeout:    10 * time.Second,
		RequestsPerSecond: 5,
		Burst:             5,
		MaxRetries:        2,
		RetryBackoff:      200 * time.Millisecond,
		DebounceDelay:     listquery.DefaultDebounceDelay,
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if v := os.Getenv("PHARMADMIN_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("PHARMADMIN_API_TOKEN"); v != "" {
		cfg.APIToken = v
	}
	if v := os.Getenv("PHARMADMIN_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RequestTimeout = d
		}
	}
	if v := os.Getenv("PHARMADMIN_RPS"); v != "" {
		if rps, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RequestsPerSecond = rps
		}
	}
	if v := os.Getenv("PHARMADMIN_DEBOUNCE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.DebounceDelay = d
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the API address and every per-resource default.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("api_url is required (set PHARMADMIN_API_URL or yaml)")
	}
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("api_url %q must be an http(s) URL", c.APIURL)
	}
	if c.RequestsPerSecond < 0 {
		return errors.New("requests_per_second must not be negative")
	}
	if c.MaxRetries < 0 {
		return errors.New("max_retries must not be negative")
	}
	for name, d := range c.Resources {
		res, err := domain.ParseResource(name)
		if err != nil {
			return fmt.Errorf("resources: %w", err)
		}
		spec := res.Spec()
		if d.PageSize < 0 {
			return fmt.Errorf("resources.%s.page_size must not be negative", name)
		}
		if d.SearchBy != "" && !spec.CanSearch(d.SearchBy) {
			return fmt.Errorf("resources.%s.search_by: cannot search by %q", name, d.SearchBy)
		}
		if d.SortBy != "" && !spec.CanSort(d.SortBy) {
			return fmt.Errorf("resources.%s.sort_by: cannot sort by %q", name, d.SortBy)
		}
		if d.SortOrder != "" {
			if _, ok := listquery.ParseSortOrder(d.SortOrder); !ok {
				return fmt.Errorf("resources.%s.sort_order: %q is not asc or desc", name, d.SortOrder)
			}
		}
	}
	return nil
}

// ListOptions returns the initial list state for res. The resource's
// default search scope is the fallback searchBy when none is configured.
func (c *Config) ListOptions(res domain.Resource) listquery.Options {
	d := c.Resources[string(res)]
	opts := listquery.Options{
		InitialSize:     d.PageSize,
		InitialSearchBy: d.SearchBy,
		InitialSortBy:   d.SortBy,
		DebounceDelay:   c.DebounceDelay,
	}
	if opts.InitialSearchBy == "" {
		opts.InitialSearchBy = res.Spec().DefaultSearchBy
	}
	if order, ok := listquery.ParseSortOrder(d.SortOrder); ok && d.SortBy != "" {
		opts.InitialSortOrder = order
	}
	return opts
}
