package listquery

import "sync"

// Snapshot is a consistent read of a State.
type Snapshot struct {
	PageIndex  int
	PageSize   int
	SearchTerm string
	SearchBy   string
	SortBy     string
	SortOrder  SortOrder
	Filters    map[string]any
	Query      Query
}

// State owns the parameters of one list page. It is safe for concurrent use;
// the debounce timer commits from its own goroutine.
//
// Listeners registered with Subscribe are called outside the lock, in commit
// order, only when the effective query changes by value. A listener may call
// mutators; the resulting notification is delivered after the current one.
type State struct {
	mu sync.Mutex

	opts          Options
	resetOnChange bool
	delay         bool
	debouncer     *Debouncer

	pageIndex  int
	pageSize   int
	searchTerm string
	debounced  string
	searchGen  uint64
	searchBy   string
	sortBy     string
	sortOrder  SortOrder
	filters    map[string]any

	query  Query
	closed bool

	listeners map[int]func(Query)
	nextID    int
	pending   []Query
	notifying bool
}

// New creates a State from opts.
func New(opts Options) *State {
	d := opts.debounceDelay()
	s := &State{
		opts:          opts,
		resetOnChange: opts.resetOnChange(),
		delay:         d > 0,
		debouncer:     NewDebouncer(d),
		pageIndex:     opts.InitialPage,
		pageSize:      opts.pageSize(),
		searchTerm:    opts.InitialSearch,
		debounced:     opts.InitialSearch,
		searchBy:      opts.InitialSearchBy,
		sortBy:        opts.InitialSortBy,
		sortOrder:     opts.InitialSortOrder,
		filters:       cloneFilters(opts.InitialFilters),
		listeners:     make(map[int]func(Query)),
	}
	if s.filters == nil {
		s.filters = map[string]any{}
	}
	s.query = s.deriveLocked()
	return s
}

func (s *State) deriveLocked() Query {
	return derive(s.pageIndex, s.pageSize, s.debounced, s.searchBy, s.opts.InitialSearchBy, s.sortBy, s.sortOrder, s.filters)
}

// Query returns the current effective query.
func (s *State) Query() Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deriveLocked()
}

// Snapshot returns every read value at once.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		PageIndex:  s.pageIndex,
		PageSize:   s.pageSize,
		SearchTerm: s.searchTerm,
		SearchBy:   s.searchBy,
		SortBy:     s.sortBy,
		SortOrder:  s.sortOrder,
		Filters:    cloneFilters(s.filters),
		Query:      s.deriveLocked(),
	}
}

// PageIndex returns the zero-based page.
func (s *State) PageIndex() int { return s.Snapshot().PageIndex }

// PageSize returns the number of rows per page.
func (s *State) PageSize() int { return s.Snapshot().PageSize }

// SearchTerm returns the immediate, undebounced search input.
func (s *State) SearchTerm() string { return s.Snapshot().SearchTerm }

// SearchBy returns the selected search scope.
func (s *State) SearchBy() string { return s.Snapshot().SearchBy }

// SortBy returns the sort column.
func (s *State) SortBy() string { return s.Snapshot().SortBy }

// SortOrder returns the sort direction.
func (s *State) SortOrder() SortOrder { return s.Snapshot().SortOrder }

// Filters returns a copy of the external filters.
func (s *State) Filters() map[string]any { return s.Snapshot().Filters }

// Subscribe registers fn for effective query changes and returns a function
// that removes it.
func (s *State) Subscribe(fn func(Query)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return func() {}
	}
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Batch applies mutators inside Update. Its methods mirror those of State.
// Reads inside Update go through the Batch, which sees edits made earlier in
// the same transaction.
type Batch struct {
	s         *State
	filterHit bool
	rearm     bool
}

// PageIndex returns the page as edited so far.
func (b *Batch) PageIndex() int { return b.s.pageIndex }

// PageSize returns the page size as edited so far.
func (b *Batch) PageSize() int { return b.s.pageSize }

// SearchTerm returns the immediate search input as edited so far.
func (b *Batch) SearchTerm() string { return b.s.searchTerm }

// SearchBy returns the search scope as edited so far.
func (b *Batch) SearchBy() string { return b.s.searchBy }

// SortBy returns the sort column as edited so far.
func (b *Batch) SortBy() string { return b.s.sortBy }

// SortOrder returns the sort direction as edited so far.
func (b *Batch) SortOrder() SortOrder { return b.s.sortOrder }

// Filters returns a copy of the external filters as edited so far.
func (b *Batch) Filters() map[string]any { return cloneFilters(b.s.filters) }

// SetPageIndex moves to page n without resetting anything.
func (b *Batch) SetPageIndex(n int) { b.s.pageIndex = n }

// SetPageSize changes the page size. It counts as a filter change.
func (b *Batch) SetPageSize(n int) {
	b.s.pageSize = n
	b.filterHit = true
}

// SetSearchTerm records the search input and re-arms the debounce.
func (b *Batch) SetSearchTerm(term string) {
	b.s.searchTerm = term
	b.s.searchGen++
	b.rearm = true
	b.filterHit = true
}

// SetSearchBy sets the search scope.
func (b *Batch) SetSearchBy(scope string) {
	b.s.searchBy = scope
	b.filterHit = true
}

// SetSortBy sets the sort column without touching the order. Clearing the
// column clears the order too.
func (b *Batch) SetSortBy(column string) {
	b.s.sortBy = column
	if column == "" {
		b.s.sortOrder = ""
	}
	b.filterHit = true
}

// SetSortOrder sets the sort direction.
func (b *Batch) SetSortOrder(order SortOrder) {
	b.s.sortOrder = order
	b.filterHit = true
}

// SelectSort picks a sort column the way a column selector does: the order
// defaults to ASC when none is set yet.
func (b *Batch) SelectSort(column string) {
	b.SetSortBy(column)
	if column != "" && b.s.sortOrder == "" {
		b.s.sortOrder = SortASC
	}
}

// SetFilters replaces the external filters wholesale.
func (b *Batch) SetFilters(filters map[string]any) {
	b.s.filters = cloneFilters(filters)
	if b.s.filters == nil {
		b.s.filters = map[string]any{}
	}
	b.filterHit = true
}

// Update runs fn as one transaction: the effective query is derived and
// listeners notified at most once. Updates after Close are ignored.
//
// fn runs with the State locked and must not call State methods; it reads
// through the Batch instead.
func (s *State) Update(fn func(b *Batch)) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	b := &Batch{s: s}
	fn(b)
	if b.filterHit && s.resetOnChange {
		s.pageIndex = 0
	}
	if b.rearm {
		if s.delay {
			gen, term := s.searchGen, s.searchTerm
			s.debouncer.Debounce(func() { s.commitSearch(gen, term) })
		} else {
			s.debounced = s.searchTerm
		}
	}
	s.commitLocked()
}

// SetPageIndex moves to page n.
func (s *State) SetPageIndex(n int) { s.Update(func(b *Batch) { b.SetPageIndex(n) }) }

// SetPageSize changes the page size.
func (s *State) SetPageSize(n int) { s.Update(func(b *Batch) { b.SetPageSize(n) }) }

// SetSearchTerm records the search input; the query sees it once debounced.
func (s *State) SetSearchTerm(term string) { s.Update(func(b *Batch) { b.SetSearchTerm(term) }) }

// SetSearchBy sets the search scope.
func (s *State) SetSearchBy(scope string) { s.Update(func(b *Batch) { b.SetSearchBy(scope) }) }

// SetSortBy sets the sort column.
func (s *State) SetSortBy(column string) { s.Update(func(b *Batch) { b.SetSortBy(column) }) }

// SetSortOrder sets the sort direction.
func (s *State) SetSortOrder(order SortOrder) { s.Update(func(b *Batch) { b.SetSortOrder(order) }) }

// SelectSort behaves like Batch.SelectSort.
func (s *State) SelectSort(column string) { s.Update(func(b *Batch) { b.SelectSort(column) }) }

// SetFilters replaces the external filters wholesale.
func (s *State) SetFilters(f map[string]any) { s.Update(func(b *Batch) { b.SetFilters(f) }) }

// commitSearch is the debounce callback. A superseded generation is a stale
// timer that fired while being replaced.
func (s *State) commitSearch(gen uint64, term string) {
	s.mu.Lock()
	if s.closed || gen != s.searchGen {
		s.mu.Unlock()
		return
	}
	s.debounced = term
	s.commitLocked()
}

// commitLocked derives the query, queues a notification if it changed and
// delivers queued notifications unless another goroutine already is. It is
// called with mu held and returns with it released.
func (s *State) commitLocked() {
	q := s.deriveLocked()
	if !q.Equal(s.query) {
		s.query = q
		s.pending = append(s.pending, q)
	}
	if s.notifying {
		s.mu.Unlock()
		return
	}
	s.notifying = true
	for len(s.pending) > 0 && !s.closed {
		next := s.pending[0]
		s.pending = s.pending[1:]
		ls := make([]func(Query), 0, len(s.listeners))
		for id := 0; id < s.nextID; id++ {
			if fn, ok := s.listeners[id]; ok {
				ls = append(ls, fn)
			}
		}
		s.mu.Unlock()
		for _, fn := range ls {
			fn(next)
		}
		s.mu.Lock()
	}
	s.pending = nil
	s.notifying = false
	s.mu.Unlock()
}

// Close cancels a pending search commit and detaches every listener. The
// state keeps its last values but ignores further updates.
func (s *State) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.debouncer.Cancel()
	s.listeners = map[int]func(Query){}
	s.pending = nil
}
