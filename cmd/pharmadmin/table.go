package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"pharmadmin/internal/client"
	"pharmadmin/internal/domain"
	"pharmadmin/internal/listpage"
	"pharmadmin/internal/listquery"
)

// row is one record rendered as display cells.
type row []string

// rowFetcher returns a fetch function that lists res and renders each record
// into the resource's display columns.
func rowFetcher(c *client.Client, res domain.Resource) (listpage.Fetch[row], error) {
	cols := res.Spec().Columns
	switch res {
	case domain.ResourceEmployees:
		return renderRows(client.Fetcher[domain.Employee](c, res), cols), nil
	case domain.ResourceCustomers:
		return renderRows(client.Fetcher[domain.Customer](c, res), cols), nil
	case domain.ResourceProducts:
		return renderRows(client.Fetcher[domain.Product](c, res), cols), nil
	case domain.ResourceProviders:
		return renderRows(client.Fetcher[domain.Provider](c, res), cols), nil
	case domain.ResourceOrders:
		return renderRows(client.Fetcher[domain.Order](c, res), cols), nil
	}
	return nil, fmt.Errorf("unknown resource %q", res)
}

func renderRows[T domain.Record](fetch func(context.Context, listquery.Query) (domain.ListResponse[T], error), cols []string) listpage.Fetch[row] {
	return func(ctx context.Context, q listquery.Query) (domain.ListResponse[row], error) {
		resp, err := fetch(ctx, q)
		if err != nil {
			return domain.ListResponse[row]{}, err
		}
		out := domain.ListResponse[row]{
			Items:      make([]row, 0, len(resp.Items)),
			Total:      resp.Total,
			Page:       resp.Page,
			Size:       resp.Size,
			TotalPages: resp.TotalPages,
		}
		for _, rec := range resp.Items {
			r := make(row, len(cols))
			for i, col := range cols {
				v, _ := rec.Field(col)
				r[i] = formatCell(v)
			}
			out.Items = append(out.Items, r)
		}
		return out, nil
	}
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Format(time.DateOnly)
	default:
		return fmt.Sprint(x)
	}
}

// printTable writes a page as an aligned table followed by a paging footer.
func printTable(w io.Writer, cols []string, resp domain.ListResponse[row]) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = strings.ToUpper(c)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, r := range resp.Items {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	pages := max(resp.TotalPages, 1)
	_, err := fmt.Fprintf(w, "page %d/%d, %d of %d rows\n", resp.Page+1, pages, len(resp.Items), resp.Total)
	return err
}
