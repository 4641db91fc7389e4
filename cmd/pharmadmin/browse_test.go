package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"pharmadmin/internal/domain"
	"pharmadmin/internal/listquery"
	"pharmadmin/internal/observability"
)

// syncBuffer is a bytes.Buffer safe for the fetch goroutine and the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func staticRows(total int) func(context.Context, listquery.Query) (domain.ListResponse[row], error) {
	return func(_ context.Context, q listquery.Query) (domain.ListResponse[row], error) {
		items := []row{{"1", "SP001", "Paracetamol 500mg"}}
		return domain.NewListResponse(items, total, domain.ListRequest{Page: q.Page, Size: q.Size}), nil
	}
}

func newTestBrowser(t *testing.T) (*browser, *syncBuffer) {
	t.Helper()
	out := &syncBuffer{}
	opts := listquery.Options{InitialSearchBy: "name", DebounceDelay: -1}
	b := newBrowser(domain.ResourceProducts, staticRows(35), opts, opts, "http://localhost:8080/", out, observability.Discard())
	b.page.Start(context.Background())
	t.Cleanup(b.page.Close)
	return b, out
}

func TestBrowserCommands(t *testing.T) {
	b, _ := newTestBrowser(t)
	state := b.page.State()

	for _, cmd := range []string{"/par", "scope code", "sort price desc", "filter status=active category=otc category=rx", "size 5"} {
		if err := b.exec(cmd); err != nil {
			t.Fatalf("exec %q: %v", cmd, err)
		}
	}

	want := listquery.Query{
		Page:      0,
		Size:      5,
		Search:    "par",
		SearchBy:  "code",
		SortBy:    "price",
		SortOrder: listquery.SortDESC,
		Filters:   map[string]any{"status": "active", "category": []string{"otc", "rx"}},
	}
	if diff := cmp.Diff(want, state.Query()); diff != "" {
		t.Fatalf("query mismatch (-want +got):\n%s", diff)
	}

	if err := b.exec("sort name"); err != nil {
		t.Fatal(err)
	}
	if got := state.SortOrder(); got != listquery.SortDESC {
		t.Errorf("selecting a new column kept order %q, want DESC", got)
	}

	if err := b.exec("clear"); err != nil {
		t.Fatal(err)
	}
	got := state.Query()
	if got.Search != "" || got.SearchBy != "" || got.SortBy != "" || got.SortOrder != "" || len(got.Filters) != 0 {
		t.Fatalf("clear left %+v", got)
	}
	if got.Size != 5 {
		t.Fatalf("clear should keep page size, got %d", got.Size)
	}
}

func TestBrowserSortSelectsAscending(t *testing.T) {
	b, _ := newTestBrowser(t)
	if err := b.exec("sort stock"); err != nil {
		t.Fatal(err)
	}
	if got := b.page.State().SortOrder(); got != listquery.SortASC {
		t.Fatalf("SortOrder = %q, want ASC", got)
	}
	if err := b.exec("sort"); err != nil {
		t.Fatal(err)
	}
	if s := b.page.State().Snapshot(); s.SortBy != "" || s.SortOrder != "" {
		t.Fatalf("sort without column should clear, got %q %q", s.SortBy, s.SortOrder)
	}
}

func TestBrowserRejects(t *testing.T) {
	b, _ := newTestBrowser(t)
	tests := []struct {
		cmd  string
		want string
	}{
		{"scope price", "cannot search"},
		{"sort category", "cannot sort"},
		{"sort price up", "invalid sort order"},
		{"filter name=x", "cannot filter"},
		{"filter status", "expected key=value"},
		{"size zero", "invalid page size"},
		{"size", "usage"},
		{"frobnicate", "unknown command"},
	}
	for _, tc := range tests {
		err := b.exec(tc.cmd)
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Errorf("exec %q = %v, want error containing %q", tc.cmd, err, tc.want)
		}
	}
	if err := b.exec("q"); err != errQuit {
		t.Errorf("exec q = %v, want errQuit", err)
	}
}

func TestBrowserPagingAndURL(t *testing.T) {
	b, out := newTestBrowser(t)
	waitFor(t, out, "page 1/4")

	if err := b.exec("n"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, out, "page 2/4")
	if err := b.exec("/para"); err != nil {
		t.Fatal(err)
	}
	if got := b.page.State().PageIndex(); got != 0 {
		t.Fatalf("search should reset the page, got %d", got)
	}
	if err := b.exec("p"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, out, "already on the first page")

	if err := b.exec("url"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, out, "http://localhost:8080/api/v1/products?search=para&searchBy=name\n")
}

func TestBrowserRunQuits(t *testing.T) {
	out := &syncBuffer{}
	opts := listquery.Options{DebounceDelay: -1}
	b := newBrowser(domain.ResourceProducts, staticRows(3), opts, opts, "http://localhost:8080", out, observability.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- b.run(ctx, strings.NewReader("help\nsize 2\nq\nsize 9\n")) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("browser did not quit")
	}
	if got := b.page.State().PageSize(); got != 2 {
		t.Fatalf("commands after q were applied: size %d", got)
	}
	if !strings.Contains(out.String(), "commands:") {
		t.Fatalf("help not printed:\n%s", out.String())
	}
}

func waitFor(t *testing.T, out *syncBuffer, want string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(out.String(), want) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("output never contained %q:\n%s", want, out.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("terminal closed") }

func TestBrowserLogsRenderFailure(t *testing.T) {
	logs := &syncBuffer{}
	logger := observability.NewLogger(observability.Config{Level: "warn", Format: "text", Output: logs})
	opts := listquery.Options{DebounceDelay: -1}
	b := newBrowser(domain.ResourceProducts, staticRows(3), opts, opts, "http://localhost:8080", failingWriter{}, logger)
	b.page.Start(context.Background())
	t.Cleanup(b.page.Close)

	waitFor(t, logs, "render page failed")
	if !strings.Contains(logs.String(), "terminal closed") {
		t.Errorf("expected write error in log, got %q", logs.String())
	}
}
