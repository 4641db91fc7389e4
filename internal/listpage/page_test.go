package listpage

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"pharmadmin/internal/client"
	"pharmadmin/internal/domain"
	"pharmadmin/internal/listquery"
	"pharmadmin/internal/observability"
	"pharmadmin/internal/testutil"
)

type item struct{ N int }

// fakeSource serves one item per page and can hold a page until released.
type fakeSource struct {
	mu    sync.Mutex
	calls []listquery.Query
	hold  map[int]chan struct{}
}

func newFakeSource() *fakeSource {
	return &fakeSource{hold: map[int]chan struct{}{}}
}

func (f *fakeSource) block(page int) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.hold[page] = ch
	return ch
}

func (f *fakeSource) fetch(ctx context.Context, q listquery.Query) (domain.ListResponse[item], error) {
	f.mu.Lock()
	f.calls = append(f.calls, q)
	gate := f.hold[q.Page]
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return domain.ListResponse[item]{}, ctx.Err()
		}
	}
	return domain.NewListResponse([]item{{N: q.Page}}, 3, domain.ListRequest{Page: q.Page, Size: q.Size}), nil
}

func (f *fakeSource) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type results struct {
	ch chan Result[item]
}

func newResults() *results { return &results{ch: make(chan Result[item], 16)} }

func (r *results) on(res Result[item]) { r.ch <- res }

func (r *results) wait(t *testing.T) Result[item] {
	t.Helper()
	select {
	case res := <-r.ch:
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for result")
		return Result[item]{}
	}
}

func (r *results) none(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case res := <-r.ch:
		t.Fatalf("unexpected result for page %d", res.Query.Page)
	case <-time.After(d):
	}
}

func newPage(src *fakeSource, res *results, opts listquery.Options) *Page[item] {
	return New(Config[item]{
		Options:  opts,
		Fetch:    src.fetch,
		OnResult: res.on,
		Logger:   observability.Discard(),
	})
}

func TestStartFetchesInitialQuery(t *testing.T) {
	src, res := newFakeSource(), newResults()
	p := newPage(src, res, listquery.Options{InitialPage: 1, InitialSize: 1})
	defer p.Close()

	p.Start(context.Background())
	got := res.wait(t)
	if got.Err != nil {
		t.Fatalf("unexpected error: %v", got.Err)
	}
	if got.Query.Page != 1 || got.Data.Items[0].N != 1 {
		t.Fatalf("unexpected result %+v", got)
	}
	if last, ok := p.Last(); !ok || last.Query.Page != 1 {
		t.Fatalf("Last() = %+v, %v", last, ok)
	}
}

func TestLatestQueryWins(t *testing.T) {
	src, res := newFakeSource(), newResults()
	gate := src.block(0)
	defer close(gate)
	p := newPage(src, res, listquery.Options{InitialSize: 1})
	defer p.Close()

	p.Start(context.Background())
	p.State().SetPageIndex(2)

	got := res.wait(t)
	if got.Query.Page != 2 {
		t.Fatalf("expected page 2 result, got page %d", got.Query.Page)
	}
	res.none(t, 50*time.Millisecond)
}

func TestUnchangedQueryIsNotRefetched(t *testing.T) {
	src, res := newFakeSource(), newResults()
	p := newPage(src, res, listquery.Options{InitialFilters: map[string]any{"status": "active"}})
	defer p.Close()

	p.Start(context.Background())
	res.wait(t)

	p.State().SetFilters(map[string]any{"status": "active"})
	p.State().SetPageIndex(0)
	res.none(t, 50*time.Millisecond)
	if n := src.count(); n != 1 {
		t.Fatalf("expected 1 fetch, got %d", n)
	}

	p.Refresh()
	res.wait(t)
	if n := src.count(); n != 2 {
		t.Fatalf("expected refresh to fetch again, got %d fetches", n)
	}
}

func TestMirrorFollowsState(t *testing.T) {
	src, res := newFakeSource(), newResults()
	opts := listquery.Options{DebounceDelay: -1}
	mirror := listquery.NewMirror(opts)
	p := New(Config[item]{
		Options:  opts,
		Fetch:    src.fetch,
		Mirror:   mirror,
		OnResult: res.on,
		Logger:   observability.Discard(),
	})
	defer p.Close()

	p.Start(context.Background())
	res.wait(t)
	if got := mirror.Encode(); got != "" {
		t.Fatalf("expected empty mirror, got %q", got)
	}

	p.State().Update(func(b *listquery.Batch) {
		b.SetSearchTerm("para")
		b.SelectSort("price")
	})
	res.wait(t)
	if got, want := mirror.Encode(), "search=para&sortBy=price&sortOrder=ASC"; got != want {
		t.Fatalf("mirror = %q, want %q", got, want)
	}
}

func TestPaging(t *testing.T) {
	src, res := newFakeSource(), newResults()
	p := newPage(src, res, listquery.Options{InitialSize: 1})
	defer p.Close()

	p.Start(context.Background())
	res.wait(t)

	if p.PrevPage() {
		t.Fatal("PrevPage on first page should not move")
	}
	for want := 1; want <= 2; want++ {
		if !p.NextPage() {
			t.Fatalf("NextPage to %d did not move", want)
		}
		if got := res.wait(t); got.Query.Page != want {
			t.Fatalf("page = %d, want %d", got.Query.Page, want)
		}
	}
	if p.NextPage() {
		t.Fatal("NextPage past the last page should not move")
	}
	if !p.PrevPage() {
		t.Fatal("PrevPage should move back")
	}
	if got := res.wait(t); got.Query.Page != 1 {
		t.Fatalf("page = %d, want 1", got.Query.Page)
	}
}

func TestCloseCancelsInFlight(t *testing.T) {
	src, res := newFakeSource(), newResults()
	gate := src.block(0)
	defer close(gate)
	p := newPage(src, res, listquery.Options{})

	p.Start(context.Background())
	p.Close()
	res.none(t, 50*time.Millisecond)

	// Changes after close are ignored.
	p.State().SetPageIndex(3)
	p.Refresh()
	if n := src.count(); n != 1 {
		t.Fatalf("expected 1 fetch, got %d", n)
	}
}

func TestFetchErrorIsDelivered(t *testing.T) {
	res := newResults()
	boom := &client.APIError{Status: 400, Message: "invalid list query"}
	p := New(Config[item]{
		Fetch: func(context.Context, listquery.Query) (domain.ListResponse[item], error) {
			return domain.ListResponse[item]{}, boom
		},
		OnResult: res.on,
		Logger:   observability.Discard(),
	})
	defer p.Close()

	p.Start(context.Background())
	if got := res.wait(t); got.Err != boom {
		t.Fatalf("expected API error, got %v", got.Err)
	}
}

func TestPageAgainstAPI(t *testing.T) {
	ts := testutil.NewTestServer(t, testutil.DefaultTestServerConfig())
	c, err := client.New(client.Config{BaseURL: ts.Server.URL, Logger: observability.Discard()})
	if err != nil {
		t.Fatalf("client: %v", err)
	}

	got := make(chan Result[domain.Product], 8)
	p := New(Config[domain.Product]{
		Options:  listquery.Options{InitialSize: 5, DebounceDelay: 100 * time.Millisecond},
		Fetch:    client.Fetcher[domain.Product](c, domain.ResourceProducts),
		OnResult: func(r Result[domain.Product]) { got <- r },
		Logger:   observability.Discard(),
	})
	defer p.Close()

	p.Start(context.Background())
	first := <-got
	if first.Err != nil {
		t.Fatalf("initial fetch: %v", first.Err)
	}
	if len(first.Data.Items) != 5 || first.Data.Total <= 5 {
		t.Fatalf("unexpected first page: %d items of %d", len(first.Data.Items), first.Data.Total)
	}

	p.State().SetSearchTerm("p")
	p.State().SetSearchTerm("par")
	select {
	case r := <-got:
		if r.Err != nil {
			t.Fatalf("search fetch: %v", r.Err)
		}
		if r.Query.Search != "par" {
			t.Fatalf("expected debounced search %q, got %q", "par", r.Query.Search)
		}
		if r.Data.Total != 2 {
			t.Fatalf("expected 2 matches for %q, got %d", "par", r.Data.Total)
		}
		for _, prod := range r.Data.Items {
			if !strings.Contains(strings.ToLower(prod.Name), "par") {
				t.Fatalf("unexpected match %q", prod.Name)
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for search result")
	}
}
