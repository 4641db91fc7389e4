package listquery

import (
	"fmt"
	"net/url"
	"reflect"
	"slices"
	"strconv"
	"time"
)

// Keys of the effective query as handed to a data source.
const (
	KeyPage      = "page"
	KeySize      = "size"
	KeySearch    = "search"
	KeySearchBy  = "searchBy"
	KeySortBy    = "sortBy"
	KeySortOrder = "sortOrder"
)

// Query is the effective query derived from a State. Empty strings are
// absent keys.
type Query struct {
	Page      int
	Size      int
	Search    string
	SearchBy  string
	SortBy    string
	SortOrder SortOrder
	Filters   map[string]any
}

// derive builds the effective query. It is a pure function of its inputs.
func derive(page, size int, debounced, scope, initialScope, sortBy string, order SortOrder, filters map[string]any) Query {
	q := Query{
		Page:      page,
		Size:      size,
		SortBy:    sortBy,
		SortOrder: order,
		Filters:   cloneFilters(filters),
	}
	if debounced != "" {
		q.Search = debounced
		switch {
		case scope != "":
			q.SearchBy = scope
		case initialScope != "":
			q.SearchBy = initialScope
		}
	}
	return q
}

// cloneFilters copies filters including slice values, so callers and the
// cached query never share backing arrays with the State.
func cloneFilters(filters map[string]any) map[string]any {
	if filters == nil {
		return nil
	}
	out := make(map[string]any, len(filters))
	for k, v := range filters {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case []string:
		return slices.Clone(v)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneValue(e)
		}
		return out
	case map[string]any:
		return cloneFilters(v)
	default:
		return v
	}
}

// Map flattens the query: filters first, then sort, pagination and search
// keys on top.
func (q Query) Map() map[string]any {
	out := make(map[string]any, len(q.Filters)+6)
	for k, v := range q.Filters {
		out[k] = cloneValue(v)
	}
	if q.SortBy != "" {
		out[KeySortBy] = q.SortBy
	}
	if q.SortOrder != "" {
		out[KeySortOrder] = string(q.SortOrder)
	}
	out[KeyPage] = q.Page
	out[KeySize] = q.Size
	if q.Search != "" {
		out[KeySearch] = q.Search
		if q.SearchBy != "" {
			out[KeySearchBy] = q.SearchBy
		}
	}
	return out
}

// Equal reports value equality of the flattened queries.
func (q Query) Equal(o Query) bool {
	return reflect.DeepEqual(q.Map(), o.Map())
}

// Values encodes the query for a URL. Slices become repeated keys; nil
// filter values are dropped.
func (q Query) Values() url.Values {
	v := url.Values{}
	for k, val := range q.Map() {
		appendValue(v, k, val)
	}
	return v
}

func appendValue(v url.Values, key string, val any) {
	switch t := val.(type) {
	case nil:
	case string:
		v.Add(key, t)
	case []string:
		for _, s := range t {
			v.Add(key, s)
		}
	case []any:
		for _, e := range t {
			appendValue(v, key, e)
		}
	case int:
		v.Add(key, strconv.Itoa(t))
	case int64:
		v.Add(key, strconv.FormatInt(t, 10))
	case float64:
		v.Add(key, strconv.FormatFloat(t, 'f', -1, 64))
	case bool:
		v.Add(key, strconv.FormatBool(t))
	case time.Time:
		v.Add(key, t.UTC().Format(time.RFC3339))
	case fmt.Stringer:
		v.Add(key, t.String())
	default:
		v.Add(key, fmt.Sprint(t))
	}
}
