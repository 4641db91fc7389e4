package http

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pharmadmin/internal/domain"
	"pharmadmin/internal/listquery"
	"pharmadmin/internal/observability"
)

// Query keys the list endpoints read besides the effective query keys.
// Every other key is a filter.
const (
	keyFrom = "from"
	keyTo   = "to"
)

var listReservedKeys = map[string]bool{
	listquery.KeyPage: true, listquery.KeySize: true,
	listquery.KeySearch: true, listquery.KeySearchBy: true,
	listquery.KeySortBy: true, listquery.KeySortOrder: true,
	keyFrom: true, keyTo: true,
}

// ParseListRequest turns list query parameters into a ListRequest. It checks
// syntax only; column whitelists and size bounds are the store's concern.
func ParseListRequest(q url.Values) (domain.ListRequest, error) {
	req := domain.ListRequest{Size: listquery.DefaultPageSize}

	if v := strings.TrimSpace(q.Get(listquery.KeyPage)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, fmt.Errorf("page %q is not a number", v)
		}
		req.Page = n
	}
	if v := strings.TrimSpace(q.Get(listquery.KeySize)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, fmt.Errorf("size %q is not a number", v)
		}
		req.Size = n
	}

	req.Search = strings.TrimSpace(q.Get(listquery.KeySearch))
	if req.Search != "" {
		req.SearchBy = q.Get(listquery.KeySearchBy)
	}

	req.SortBy = q.Get(listquery.KeySortBy)
	order, ok := listquery.ParseSortOrder(q.Get(listquery.KeySortOrder))
	if !ok {
		return req, fmt.Errorf("sortOrder %q must be ASC or DESC", q.Get(listquery.KeySortOrder))
	}
	req.SortDesc = req.SortBy != "" && order == listquery.SortDESC

	var err error
	if req.From, err = parseBound(q.Get(keyFrom), false); err != nil {
		return req, err
	}
	if req.To, err = parseBound(q.Get(keyTo), true); err != nil {
		return req, err
	}

	for k, vals := range q {
		if listReservedKeys[k] {
			continue
		}
		for _, v := range vals {
			if v = strings.TrimSpace(v); v == "" {
				continue
			}
			if req.Filters == nil {
				req.Filters = make(map[string][]string)
			}
			req.Filters[k] = append(req.Filters[k], v)
		}
	}
	return req, nil
}

// parseBound accepts RFC 3339 or a bare date. A bare upper bound covers the
// whole day.
func parseBound(v string, upper bool) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return nil, fmt.Errorf("date %q must be RFC 3339 or YYYY-MM-DD", v)
	}
	if upper {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

// listHandler serves GET /api/v1/<resource>.
func listHandler[T any](s *Server, res domain.Resource, list func(context.Context, domain.ListRequest) (domain.ListResponse[T], error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := observability.WithResource(r.Context(), string(res))
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			s.writeErr(ctx, w, http.StatusMethodNotAllowed, "method not allowed", "")
			return
		}
		req, err := ParseListRequest(r.URL.Query())
		if err != nil {
			s.writeErr(ctx, w, http.StatusBadRequest, "invalid list query", err.Error())
			return
		}
		resp, err := list(ctx, req)
		s.metrics.RecordList(string(res), resp.Total, err)
		if err != nil {
			s.writeStoreErr(ctx, w, err)
			return
		}
		s.logger.DebugContext(ctx, "list served", "page", req.Page, "size", req.Size, "total", resp.Total)
		writeJSON(w, http.StatusOK, resp)
	}
}

// handleResources serves GET /api/v1/resources, the column catalog of every
// list endpoint.
func (s *Server) handleResources(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErr(r.Context(), w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}
	out := make([]domain.ResourceInfo, 0, len(domain.Resources))
	for _, res := range domain.Resources {
		out = append(out, res.Info())
	}
	writeJSON(w, http.StatusOK, out)
}
