package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"pharmadmin/internal/testutil"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runCLIWithInput(t, "", args...)
}

func runCLIWithInput(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	clearConfigEnv(t)
	t.Setenv("PHARMADMIN_CONFIG", "")
	t.Setenv("PHARMADMIN_DEBOUNCE", "-1ns")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(stdin))
	err := root.Execute()
	return out.String(), err
}

func TestListCommandTable(t *testing.T) {
	ts := testutil.NewTestServer(t, testutil.DefaultTestServerConfig())

	out, err := runCLI(t, "--api-url", ts.Server.URL, "list", "products", "--query", "size=3&sortBy=price&sortOrder=desc")
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected header, 3 rows and footer, got:\n%s", out)
	}
	if !strings.HasPrefix(lines[0], "ID") || !strings.Contains(lines[0], "PRICE") {
		t.Errorf("header = %q", lines[0])
	}
	for i, code := range []string{"SP009", "SP011", "SP003"} {
		if !strings.Contains(lines[i+1], code) {
			t.Errorf("row %d = %q, want %s", i, lines[i+1], code)
		}
	}
	if lines[4] != "page 1/4, 3 of 12 rows" {
		t.Errorf("footer = %q", lines[4])
	}

	reqs := ts.Requests.All()
	if len(reqs) != 1 || reqs[0] != "/api/v1/products?page=0&size=3&sortBy=price&sortOrder=DESC" {
		t.Errorf("requests = %v", reqs)
	}
}

func TestListCommandJSONWithToken(t *testing.T) {
	cfg := testutil.DefaultTestServerConfig()
	cfg.Token = "s3cret"
	ts := testutil.NewTestServer(t, cfg)

	if _, err := runCLI(t, "--api-url", ts.Server.URL, "list", "customers"); err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected 401 without token, got %v", err)
	}

	out, err := runCLI(t, "--api-url", ts.Server.URL, "--token", "s3cret", "--json", "list", "customers", "--query", "search=parker")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var got struct {
		Columns []string   `json:"columns"`
		Items   [][]string `json:"items"`
		Total   int        `json:"total"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if got.Total != 1 || len(got.Items) != 1 || got.Items[0][1] != "KH004" {
		t.Fatalf("unexpected result %+v", got)
	}
	if got.Columns[1] != "code" {
		t.Fatalf("columns = %v", got.Columns)
	}
}

func TestListCommandErrors(t *testing.T) {
	ts := testutil.NewTestServer(t, testutil.DefaultTestServerConfig())

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown resource", []string{"list", "invoices"}, "unknown resource"},
		{"bad query", []string{"list", "products", "--query", "%zz"}, "invalid --query"},
		{"server rejects column", []string{"list", "products", "--query", "sortBy=category"}, "invalid list query"},
		{"missing resource", []string{"list"}, "accepts 1 arg"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := runCLI(t, append([]string{"--api-url", ts.Server.URL}, tc.args...)...)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error = %v, want it to contain %q", err, tc.want)
			}
		})
	}
}

func TestResourcesCommand(t *testing.T) {
	ts := testutil.NewTestServer(t, testutil.DefaultTestServerConfig())
	out, err := runCLI(t, "--api-url", ts.Server.URL, "resources")
	if err != nil {
		t.Fatalf("resources: %v", err)
	}
	for _, want := range []string{"employees (/api/v1/employees)", "orders (/api/v1/orders)", "sort:   id, code, name, price, stock, createdAt"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestBrowseCommandPrintsURL(t *testing.T) {
	ts := testutil.NewTestServer(t, testutil.DefaultTestServerConfig())
	out, err := runCLIWithInput(t, "sort code desc\nurl\nq\n",
		"--api-url", ts.Server.URL, "browse", "orders", "--query", "status=paid&sortBy=total&page=2")
	if err != nil {
		t.Fatalf("browse: %v", err)
	}
	want := ts.Server.URL + "/api/v1/orders?sortBy=code&sortOrder=DESC&status=paid\n"
	if !strings.Contains(out, want) {
		t.Fatalf("output missing %q:\n%s", want, out)
	}
}
