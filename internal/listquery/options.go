// Package listquery holds the query state behind a paginated, searchable,
// sortable and filterable list page, and derives the effective query a data
// source is asked for.
package listquery

import (
	"strings"
	"time"
)

const (
	// DefaultPageSize is used when Options.InitialSize is zero.
	DefaultPageSize = 10
	// DefaultDebounceDelay is the search quiescence window used when
	// Options.DebounceDelay is zero.
	DefaultDebounceDelay = 500 * time.Millisecond
)

// SortOrder is the direction of a sort. The zero value means unset.
type SortOrder string

const (
	SortASC  SortOrder = "ASC"
	SortDESC SortOrder = "DESC"
)

// ParseSortOrder accepts "asc"/"desc" in any case. An empty string parses to
// the unset order.
func ParseSortOrder(s string) (SortOrder, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return "", true
	case string(SortASC):
		return SortASC, true
	case string(SortDESC):
		return SortDESC, true
	default:
		return "", false
	}
}

// Options configures a State. The zero value is usable.
type Options struct {
	InitialPage      int
	InitialSize      int
	InitialSearch    string
	InitialSearchBy  string
	InitialSortBy    string
	InitialSortOrder SortOrder
	InitialFilters   map[string]any

	// ResetPageIndexOnFilterChange defaults to true when nil.
	ResetPageIndexOnFilterChange *bool

	// DebounceDelay is the quiescence window for the search term. Zero
	// selects DefaultDebounceDelay; a negative value commits synchronously.
	DebounceDelay time.Duration
}

// Bool returns a pointer to v, for ResetPageIndexOnFilterChange.
func Bool(v bool) *bool { return &v }

func (o Options) resetOnChange() bool {
	if o.ResetPageIndexOnFilterChange == nil {
		return true
	}
	return *o.ResetPageIndexOnFilterChange
}

func (o Options) pageSize() int {
	if o.InitialSize == 0 {
		return DefaultPageSize
	}
	return o.InitialSize
}

func (o Options) debounceDelay() time.Duration {
	switch {
	case o.DebounceDelay == 0:
		return DefaultDebounceDelay
	case o.DebounceDelay < 0:
		return 0
	default:
		return o.DebounceDelay
	}
}
