package listquery

import (
	"net/url"
	"strconv"
	"sync"
)

var reservedKeys = map[string]bool{
	KeyPage: true, KeySize: true, KeySearch: true,
	KeySearchBy: true, KeySortBy: true, KeySortOrder: true,
}

// OptionsFromValues seeds Options from URL query values. Values that do not
// parse leave the base option untouched. Keys other than the reserved ones
// become initial filters: a single value as a string, repeated values as a
// []string.
func OptionsFromValues(v url.Values, base Options) Options {
	out := base
	if n, err := strconv.Atoi(v.Get(KeyPage)); err == nil && n >= 0 {
		out.InitialPage = n
	}
	if n, err := strconv.Atoi(v.Get(KeySize)); err == nil && n > 0 {
		out.InitialSize = n
	}
	if v.Has(KeySearch) {
		out.InitialSearch = v.Get(KeySearch)
	}
	if s := v.Get(KeySearchBy); s != "" {
		out.InitialSearchBy = s
	}
	if s := v.Get(KeySortBy); s != "" {
		out.InitialSortBy = s
	}
	if o, ok := ParseSortOrder(v.Get(KeySortOrder)); ok && o != "" {
		out.InitialSortOrder = o
	}

	filters := cloneFilters(base.InitialFilters)
	for k, vals := range v {
		if reservedKeys[k] || len(vals) == 0 {
			continue
		}
		if filters == nil {
			filters = make(map[string]any)
		}
		if len(vals) == 1 {
			filters[k] = vals[0]
		} else {
			filters[k] = append([]string(nil), vals...)
		}
	}
	out.InitialFilters = filters
	return out
}

// Mirror writes list state into URL query values. It only ever writes, so
// pairing it with OptionsFromValues at construction cannot loop.
type Mirror struct {
	mu       sync.Mutex
	defaults Options
	values   url.Values
}

// NewMirror creates a mirror that omits values equal to the defaults.
func NewMirror(defaults Options) *Mirror {
	return &Mirror{defaults: defaults, values: url.Values{}}
}

// Sync rewrites the mirrored values from s and reports whether they changed.
func (m *Mirror) Sync(s Snapshot) bool {
	next := url.Values{}
	for k, val := range s.Filters {
		if reservedKeys[k] {
			continue
		}
		appendValue(next, k, val)
	}
	if s.PageIndex != 0 {
		next.Set(KeyPage, strconv.Itoa(s.PageIndex))
	}
	if s.PageSize != m.defaults.pageSize() {
		next.Set(KeySize, strconv.Itoa(s.PageSize))
	}
	if s.SearchTerm != "" {
		next.Set(KeySearch, s.SearchTerm)
	}
	if s.SearchBy != "" {
		next.Set(KeySearchBy, s.SearchBy)
	}
	if s.SortBy != "" {
		next.Set(KeySortBy, s.SortBy)
	}
	if s.SortOrder != "" {
		next.Set(KeySortOrder, string(s.SortOrder))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if next.Encode() == m.values.Encode() {
		return false
	}
	m.values = next
	return true
}

// Values returns a copy of the mirrored values.
func (m *Mirror) Values() url.Values {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(url.Values, len(m.values))
	for k, v := range m.values {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Encode returns the mirrored values as a canonical query string.
func (m *Mirror) Encode() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values.Encode()
}
