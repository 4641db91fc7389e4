package listquery

import (
	"net/url"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDeriveRules(t *testing.T) {
	cases := []struct {
		name      string
		debounced string
		scope     string
		initial   string
		sortBy    string
		order     SortOrder
		filters   map[string]any
		want      map[string]any
	}{
		{
			name: "pagination only",
			want: map[string]any{KeyPage: 1, KeySize: 20},
		},
		{
			name:      "search without scope",
			debounced: "par",
			want:      map[string]any{KeyPage: 1, KeySize: 20, KeySearch: "par"},
		},
		{
			name:      "initial scope fallback",
			debounced: "par",
			initial:   "name",
			want:      map[string]any{KeyPage: 1, KeySize: 20, KeySearch: "par", KeySearchBy: "name"},
		},
		{
			name:      "selected scope wins",
			debounced: "par",
			scope:     "code",
			initial:   "name",
			want:      map[string]any{KeyPage: 1, KeySize: 20, KeySearch: "par", KeySearchBy: "code"},
		},
		{
			name:  "scope ignored without search",
			scope: "code",
			want:  map[string]any{KeyPage: 1, KeySize: 20},
		},
		{
			name:   "sort pair",
			sortBy: "price",
			order:  SortDESC,
			want:   map[string]any{KeyPage: 1, KeySize: 20, KeySortBy: "price", KeySortOrder: "DESC"},
		},
		{
			name:    "reserved keys override filters",
			filters: map[string]any{"status": "active", KeyPage: 9},
			want:    map[string]any{KeyPage: 1, KeySize: 20, "status": "active"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := derive(1, 20, tc.debounced, tc.scope, tc.initial, tc.sortBy, tc.order, tc.filters)
			if diff := cmp.Diff(tc.want, q.Map()); diff != "" {
				t.Errorf("Map() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDeriveCopiesFilters(t *testing.T) {
	filters := map[string]any{"status": "active"}
	q := derive(0, 10, "", "", "", "", "", filters)
	filters["status"] = "inactive"
	if q.Filters["status"] != "active" {
		t.Errorf("derived query shares the filter map: %v", q.Filters)
	}
}

func TestQueryEqual(t *testing.T) {
	a := Query{Page: 0, Size: 10, Filters: map[string]any{"status": "active"}}
	b := Query{Page: 0, Size: 10, Filters: map[string]any{"status": "active"}}
	if !a.Equal(b) {
		t.Error("expected equal queries")
	}
	b.Filters["status"] = "inactive"
	if a.Equal(b) {
		t.Error("expected filter change to break equality")
	}
	// scope without a search term is not part of the query
	c := Query{Page: 0, Size: 10, SearchBy: "code", Filters: map[string]any{"status": "active"}}
	if !a.Equal(c) {
		t.Error("expected dangling scope to be ignored")
	}
}

func TestQueryValues(t *testing.T) {
	from := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	q := Query{
		Page:      2,
		Size:      25,
		Search:    "para",
		SearchBy:  "name",
		SortBy:    "price",
		SortOrder: SortASC,
		Filters: map[string]any{
			"status":   []string{"active", "draft"},
			"from":     from,
			"inStock":  true,
			"ignored":  nil,
			"minPrice": 1.5,
		},
	}

	want := url.Values{
		"page":      {"2"},
		"size":      {"25"},
		"search":    {"para"},
		"searchBy":  {"name"},
		"sortBy":    {"price"},
		"sortOrder": {"ASC"},
		"status":    {"active", "draft"},
		"from":      {"2024-03-01T08:00:00Z"},
		"inStock":   {"true"},
		"minPrice":  {"1.5"},
	}
	if diff := cmp.Diff(want, q.Values()); diff != "" {
		t.Errorf("Values() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSortOrder(t *testing.T) {
	cases := map[string]struct {
		want SortOrder
		ok   bool
	}{
		"":      {"", true},
		"asc":   {SortASC, true},
		"DESC":  {SortDESC, true},
		" Asc ": {SortASC, true},
		"up":    {"", false},
	}
	for in, tc := range cases {
		got, ok := ParseSortOrder(in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseSortOrder(%q) = %q, %v; want %q, %v", in, got, ok, tc.want, tc.ok)
		}
	}
}
