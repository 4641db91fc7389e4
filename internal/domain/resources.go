package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Resource names a list endpoint.
type Resource string

const (
	ResourceEmployees Resource = "employees"
	ResourceCustomers Resource = "customers"
	ResourceProducts  Resource = "products"
	ResourceProviders Resource = "providers"
	ResourceOrders    Resource = "orders"
)

// Resources lists every resource in display order.
var Resources = []Resource{ResourceEmployees, ResourceCustomers, ResourceProducts, ResourceProviders, ResourceOrders}

// ResourceSpec describes which columns of a resource a list query may use.
type ResourceSpec struct {
	Columns    []string
	Searchable []string
	Sortable   []string
	Filterable []string
	// DateColumn is bounded by ListRequest.From/To.
	DateColumn string
	// DefaultSearchBy is the scope a console page starts with.
	DefaultSearchBy string
}

var resourceSpecs = map[Resource]ResourceSpec{
	ResourceEmployees: {
		Columns:         []string{"id", "code", "name", "email", "phone", "role", "status", "hiredAt"},
		Searchable:      []string{"code", "name", "email", "phone"},
		Sortable:        []string{"id", "code", "name", "role", "hiredAt", "createdAt"},
		Filterable:      []string{"role", "status"},
		DateColumn:      "hiredAt",
		DefaultSearchBy: "name",
	},
	ResourceCustomers: {
		Columns:    []string{"id", "code", "name", "phone", "email", "points"},
		Searchable: []string{"code", "name", "phone", "email"},
		Sortable:   []string{"id", "code", "name", "points", "createdAt"},
		DateColumn: "createdAt",
	},
	ResourceProducts: {
		Columns:         []string{"id", "code", "name", "category", "unit", "price", "stock", "status"},
		Searchable:      []string{"code", "name", "category"},
		Sortable:        []string{"id", "code", "name", "price", "stock", "createdAt"},
		Filterable:      []string{"category", "status", "providerId", "unit"},
		DateColumn:      "createdAt",
		DefaultSearchBy: "name",
	},
	ResourceProviders: {
		Columns:    []string{"id", "code", "name", "phone", "email", "status"},
		Searchable: []string{"code", "name", "phone", "email", "address"},
		Sortable:   []string{"id", "code", "name", "createdAt"},
		Filterable: []string{"status"},
		DateColumn: "createdAt",
	},
	ResourceOrders: {
		Columns:    []string{"id", "code", "customerId", "employeeId", "total", "status", "createdAt"},
		Searchable: []string{"code"},
		Sortable:   []string{"id", "code", "total", "createdAt"},
		Filterable: []string{"status", "customerId", "employeeId"},
		DateColumn: "createdAt",
	},
}

// ParseResource validates a resource name.
func ParseResource(s string) (Resource, error) {
	r := Resource(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := resourceSpecs[r]; !ok {
		return "", fmt.Errorf("unknown resource %q", s)
	}
	return r, nil
}

// Spec returns the column catalog of r.
func (r Resource) Spec() ResourceSpec {
	return resourceSpecs[r]
}

func (s ResourceSpec) CanSearch(col string) bool { return slices.Contains(s.Searchable, col) }
func (s ResourceSpec) CanSort(col string) bool   { return slices.Contains(s.Sortable, col) }
func (s ResourceSpec) CanFilter(col string) bool { return slices.Contains(s.Filterable, col) }

// ResourceInfo describes one list endpoint to API clients.
type ResourceInfo struct {
	Name            Resource `json:"name"`
	Path            string   `json:"path"`
	Columns         []string `json:"columns"`
	Searchable      []string `json:"searchable"`
	Sortable        []string `json:"sortable"`
	Filterable      []string `json:"filterable"`
	DateColumn      string   `json:"dateColumn,omitempty"`
	DefaultSearchBy string   `json:"defaultSearchBy,omitempty"`
}

// Path is the API path that lists r.
func (r Resource) Path() string { return "/api/v1/" + string(r) }

// Info returns the public description of r.
func (r Resource) Info() ResourceInfo {
	spec := r.Spec()
	info := ResourceInfo{
		Name:            r,
		Path:            r.Path(),
		Columns:         spec.Columns,
		Searchable:      spec.Searchable,
		Sortable:        spec.Sortable,
		Filterable:      spec.Filterable,
		DateColumn:      spec.DateColumn,
		DefaultSearchBy: spec.DefaultSearchBy,
	}
	if info.Filterable == nil {
		info.Filterable = []string{}
	}
	return info
}
