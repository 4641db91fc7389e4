package storage

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"pharmadmin/internal/domain"
)

// MaxPageSize bounds ListRequest.Size for every backend.
const MaxPageSize = 200

// ValidateListRequest checks a request against the resource's column catalog.
func ValidateListRequest(spec domain.ResourceSpec, req domain.ListRequest) error {
	if req.Page < 0 {
		return fmt.Errorf("page must not be negative: %w", ErrValidation)
	}
	if req.Size < 1 || req.Size > MaxPageSize {
		return fmt.Errorf("size must be between 1 and %d: %w", MaxPageSize, ErrValidation)
	}
	if req.Page > math.MaxInt/req.Size {
		return fmt.Errorf("page %d is out of range: %w", req.Page, ErrValidation)
	}
	if req.SearchBy != "" && !spec.CanSearch(req.SearchBy) {
		return fmt.Errorf("cannot search by %q: %w", req.SearchBy, ErrValidation)
	}
	if req.SortBy != "" && !spec.CanSort(req.SortBy) {
		return fmt.Errorf("cannot sort by %q: %w", req.SortBy, ErrValidation)
	}
	for col := range req.Filters {
		if !spec.CanFilter(col) {
			return fmt.Errorf("cannot filter by %q: %w", col, ErrValidation)
		}
	}
	if (req.From != nil || req.To != nil) && spec.DateColumn == "" {
		return fmt.Errorf("date range not supported: %w", ErrValidation)
	}
	if req.From != nil && req.To != nil && req.To.Before(*req.From) {
		return fmt.Errorf("date range ends before it starts: %w", ErrValidation)
	}
	return nil
}

// ApplyListRequest searches, filters, sorts and pages rows in memory. Rows
// without an explicit sort keep their input order.
func ApplyListRequest[T domain.Record](rows []T, spec domain.ResourceSpec, req domain.ListRequest) (domain.ListResponse[T], error) {
	if err := ValidateListRequest(spec, req); err != nil {
		return domain.ListResponse[T]{}, err
	}

	scope := spec.Searchable
	if req.SearchBy != "" {
		scope = []string{req.SearchBy}
	}
	term := strings.ToLower(strings.TrimSpace(req.Search))

	matched := make([]T, 0, len(rows))
	for _, r := range rows {
		if term != "" && !matchesSearch(r, scope, term) {
			continue
		}
		if !matchesFilters(r, req.Filters) {
			continue
		}
		if !inRange(r, spec.DateColumn, req.From, req.To) {
			continue
		}
		matched = append(matched, r)
	}

	if req.SortBy != "" {
		slices.SortStableFunc(matched, func(a, b T) int {
			av, _ := a.Field(req.SortBy)
			bv, _ := b.Field(req.SortBy)
			c := compareValues(av, bv)
			if req.SortDesc {
				return -c
			}
			return c
		})
	}

	total := len(matched)
	start := min(req.Offset(), total)
	end := min(start+req.Size, total)
	page := append([]T(nil), matched[start:end]...)
	return domain.NewListResponse(page, total, req), nil
}

func matchesSearch(r domain.Record, scope []string, term string) bool {
	for _, col := range scope {
		v, ok := r.Field(col)
		if ok && strings.Contains(strings.ToLower(FormatValue(v)), term) {
			return true
		}
	}
	return false
}

func matchesFilters(r domain.Record, filters map[string][]string) bool {
	for col, want := range filters {
		v, ok := r.Field(col)
		if !ok {
			return false
		}
		got := FormatValue(v)
		if !slices.ContainsFunc(want, func(w string) bool { return strings.EqualFold(w, got) }) {
			return false
		}
	}
	return true
}

func inRange(r domain.Record, col string, from, to *time.Time) bool {
	if col == "" || (from == nil && to == nil) {
		return true
	}
	v, _ := r.Field(col)
	ts, ok := v.(time.Time)
	if !ok {
		return false
	}
	if from != nil && ts.Before(*from) {
		return false
	}
	if to != nil && ts.After(*to) {
		return false
	}
	return true
}

// FormatValue renders a column value the way it is searched and filtered.
func FormatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

func compareValues(a, b any) int {
	switch av := a.(type) {
	case string:
		bv, _ := b.(string)
		return strings.Compare(strings.ToLower(av), strings.ToLower(bv))
	case int64:
		bv, _ := b.(int64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case time.Time:
		bv, _ := b.(time.Time)
		return av.Compare(bv)
	default:
		return strings.Compare(FormatValue(a), FormatValue(b))
	}
}
