// Package listpage drives a paginated list view: it owns a listquery.State,
// fetches whenever the effective query changes and hands back the newest
// result only.
package listpage

import (
	"context"
	"errors"
	"sync"

	"pharmadmin/internal/domain"
	"pharmadmin/internal/listquery"
	"pharmadmin/internal/observability"
)

// Fetch loads one page for an effective query.
type Fetch[T any] func(ctx context.Context, q listquery.Query) (domain.ListResponse[T], error)

// Result is the outcome of one fetch.
type Result[T any] struct {
	Query listquery.Query
	Data  domain.ListResponse[T]
	Err   error
}

// Config configures a Page.
type Config[T any] struct {
	Options listquery.Options
	Fetch   Fetch[T]
	// Mirror, when set, is synced with the state after every change.
	Mirror *listquery.Mirror
	// OnResult receives results in query order. It runs on a fetch
	// goroutine and must not block for long.
	OnResult func(Result[T])
	Logger   observability.Logger
}

// Page is a list view bound to a data source.
type Page[T any] struct {
	state    *listquery.State
	fetch    Fetch[T]
	mirror   *listquery.Mirror
	onResult func(Result[T])
	logger   observability.Logger

	mu      sync.Mutex
	base    context.Context
	stop    context.CancelFunc
	cancel  context.CancelFunc
	seq     uint64
	last    listquery.Query
	fetched bool
	started bool
	closed  bool
	unsub   func()
	wg      sync.WaitGroup

	// deliverMu serialises OnResult so a stale result can never be
	// delivered after a newer one.
	deliverMu  sync.Mutex
	lastResult *Result[T]
}

func New[T any](cfg Config[T]) *Page[T] {
	if cfg.Logger == nil {
		cfg.Logger = observability.NewLogger(observability.DefaultConfig())
	}
	if cfg.OnResult == nil {
		cfg.OnResult = func(Result[T]) {}
	}
	return &Page[T]{
		state:    listquery.New(cfg.Options),
		fetch:    cfg.Fetch,
		mirror:   cfg.Mirror,
		onResult: cfg.OnResult,
		logger:   cfg.Logger.WithComponent("listpage"),
	}
}

// State returns the query state the page reacts to.
func (p *Page[T]) State() *listquery.State { return p.state }

// Start subscribes to the state and fetches the initial query. Fetches run
// under ctx; cancelling it stops the page from loading.
func (p *Page[T]) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started || p.closed {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.base, p.stop = context.WithCancel(ctx)
	p.mu.Unlock()

	unsub := p.state.Subscribe(p.onChange)
	p.mu.Lock()
	p.unsub = unsub
	p.mu.Unlock()
	p.syncMirror()
	p.load(p.state.Query(), false)
}

// Refresh refetches the current query even if it has not changed.
func (p *Page[T]) Refresh() {
	p.load(p.state.Query(), true)
}

// Last returns the most recently delivered result.
func (p *Page[T]) Last() (Result[T], bool) {
	p.deliverMu.Lock()
	defer p.deliverMu.Unlock()
	if p.lastResult == nil {
		return Result[T]{}, false
	}
	return *p.lastResult, true
}

// NextPage advances the page index unless the last result shows it is the
// final page. It reports whether the index moved.
func (p *Page[T]) NextPage() bool {
	snap := p.state.Snapshot()
	if r, ok := p.Last(); ok && r.Err == nil && snap.PageIndex+1 >= r.Data.TotalPages {
		return false
	}
	p.state.SetPageIndex(snap.PageIndex + 1)
	return true
}

// PrevPage moves back one page unless already on the first.
func (p *Page[T]) PrevPage() bool {
	idx := p.state.PageIndex()
	if idx <= 0 {
		return false
	}
	p.state.SetPageIndex(idx - 1)
	return true
}

// Close unsubscribes, cancels any in-flight fetch, waits for fetch
// goroutines to finish and closes the state.
func (p *Page[T]) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	if p.stop != nil {
		p.stop()
	}
	unsub := p.unsub
	p.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	p.wg.Wait()
	p.state.Close()
}

func (p *Page[T]) onChange(q listquery.Query) {
	p.syncMirror()
	p.load(q, false)
}

func (p *Page[T]) syncMirror() {
	if p.mirror != nil {
		p.mirror.Sync(p.state.Snapshot())
	}
}

func (p *Page[T]) load(q listquery.Query, force bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || !p.started {
		return
	}
	if !force && p.fetched && q.Equal(p.last) {
		return
	}
	if p.cancel != nil {
		p.cancel()
	}
	p.seq++
	p.last, p.fetched = q, true
	ctx, cancel := context.WithCancel(p.base)
	p.cancel = cancel

	p.wg.Add(1)
	go p.run(ctx, cancel, p.seq, q)
}

func (p *Page[T]) run(ctx context.Context, cancel context.CancelFunc, seq uint64, q listquery.Query) {
	defer p.wg.Done()
	defer cancel()

	data, err := p.fetch(ctx, q)

	p.deliverMu.Lock()
	defer p.deliverMu.Unlock()

	p.mu.Lock()
	current := seq == p.seq && !p.closed
	p.mu.Unlock()
	if !current {
		p.logger.DebugContext(ctx, "dropped superseded result", "page", q.Page, "search", q.Search)
		return
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		p.logger.WarnContext(ctx, "list fetch failed", "error", err, "page", q.Page)
	}

	r := Result[T]{Query: q, Data: data, Err: err}
	p.lastResult = &r
	p.onResult(r)
}
