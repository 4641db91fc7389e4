package domain

import "time"

// ListRequest is a parsed list query. Page is 0-based.
type ListRequest struct {
	Page     int    `json:"page"`
	Size     int    `json:"size"`
	Search   string `json:"search,omitempty"`
	SearchBy string `json:"searchBy,omitempty"`
	SortBy   string `json:"sortBy,omitempty"`
	// SortDesc is only meaningful with SortBy.
	SortDesc bool `json:"sortDesc,omitempty"`
	// Filters match column values exactly (case-insensitive); several values
	// for one column are alternatives.
	Filters map[string][]string `json:"filters,omitempty"`
	// From and To bound the resource's date column, inclusive.
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

// Offset is the number of rows skipped before the page.
func (r ListRequest) Offset() int {
	return r.Page * r.Size
}

// ListResponse is one page of a list.
type ListResponse[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Size       int `json:"size"`
	TotalPages int `json:"totalPages"`
}

// NewListResponse fills in the paging fields of a response.
func NewListResponse[T any](items []T, total int, req ListRequest) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if req.Size > 0 {
		pages = (total + req.Size - 1) / req.Size
	}
	return ListResponse[T]{Items: items, Total: total, Page: req.Page, Size: req.Size, TotalPages: pages}
}
