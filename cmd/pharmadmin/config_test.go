package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"pharmadmin/internal/domain"
	"pharmadmin/internal/listquery"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pharmadmin.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func clearConfigEnv(t *testing.T) {
	for _, k := range []string{"PHARMADMIN_API_URL", "PHARMADMIN_API_TOKEN", "PHARMADMIN_REQUEST_TIMEOUT", "PHARMADMIN_RPS", "PHARMADMIN_DEBOUNCE"} {
		t.Setenv(k, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearConfigEnv(t)
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.APIURL != "http://localhost:8080" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.DebounceDelay != listquery.DefaultDebounceDelay {
		t.Errorf("DebounceDelay = %v", cfg.DebounceDelay)
	}
}

func TestLoadConfigYAMLAndEnv(t *testing.T) {
	clearConfigEnv(t)
	path := writeConfig(t, `
api_url: http://pharmacy.internal:9000
api_token: from-file
request_timeout: 3s
debounce_delay: 250ms
resources:
  products:
    page_size: 25
    sort_by: price
    sort_order: desc
  customers:
    search_by: phone
`)
	t.Setenv("PHARMADMIN_API_TOKEN", "from-env")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.APIURL != "http://pharmacy.internal:9000" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.APIToken != "from-env" {
		t.Errorf("APIToken = %q, env should win", cfg.APIToken)
	}
	if cfg.RequestTimeout != 3*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.RequestTimeout)
	}

	want := listquery.Options{
		InitialSize:      25,
		InitialSearchBy:  "name",
		InitialSortBy:    "price",
		InitialSortOrder: listquery.SortDESC,
		DebounceDelay:    250 * time.Millisecond,
	}
	if diff := cmp.Diff(want, cfg.ListOptions(domain.ResourceProducts)); diff != "" {
		t.Errorf("products options mismatch (-want +got):\n%s", diff)
	}
	if got := cfg.ListOptions(domain.ResourceCustomers).InitialSearchBy; got != "phone" {
		t.Errorf("customers searchBy = %q", got)
	}
	if got := cfg.ListOptions(domain.ResourceOrders).InitialSize; got != 0 {
		t.Errorf("orders size = %d, want default 0", got)
	}
}

func TestLoadConfigRejects(t *testing.T) {
	clearConfigEnv(t)
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad url", "api_url: ftp://x\n", "http(s)"},
		{"unknown resource", "resources:\n  invoices:\n    page_size: 5\n", "unknown resource"},
		{"bad search column", "resources:\n  products:\n    search_by: price\n", "cannot search"},
		{"bad sort column", "resources:\n  orders:\n    sort_by: status\n", "cannot sort"},
		{"bad sort order", "resources:\n  orders:\n    sort_by: total\n    sort_order: sideways\n", "sort_order"},
		{"bad yaml", "api_url: [\n", "parse config file"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.body))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("LoadConfig error = %v, want it to mention %q", err, tc.want)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	clearConfigEnv(t)
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
