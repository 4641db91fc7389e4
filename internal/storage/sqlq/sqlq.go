// Package sqlq builds list and insert statements shared by the SQL storage
// backends. Column names always come from the resource catalog, never from
// request input.
package sqlq

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"pharmadmin/internal/domain"
	"pharmadmin/internal/storage"
)

// Placeholder style of a SQL dialect.
type Placeholder int

const (
	// Question is SQLite's ? style.
	Question Placeholder = iota
	// Dollar is PostgreSQL's $n style.
	Dollar
)

// builder accumulates arguments and renders placeholders.
type builder struct {
	ph   Placeholder
	args []any
}

func (b *builder) arg(v any) string {
	b.args = append(b.args, v)
	if b.ph == Dollar {
		return "$" + strconv.Itoa(len(b.args))
	}
	return "?"
}

// Column maps a JSON column name to its SQL column.
func Column(name string) string {
	var sb strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				sb.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Table returns the SQL table of a resource.
func Table(res domain.Resource) string {
	return string(res)
}

// List holds the statements for one list request.
type List struct {
	CountSQL  string
	CountArgs []any
	PageSQL   string
	PageArgs  []any
}

// BuildList validates req and renders the count and page statements. The
// selected columns are given by SelectColumns(res).
func BuildList(ph Placeholder, res domain.Resource, req domain.ListRequest) (List, error) {
	spec := res.Spec()
	if err := storage.ValidateListRequest(spec, req); err != nil {
		return List{}, err
	}

	b := &builder{ph: ph}
	var where []string

	if term := strings.ToLower(strings.TrimSpace(req.Search)); term != "" {
		scope := spec.Searchable
		if req.SearchBy != "" {
			scope = []string{req.SearchBy}
		}
		pattern := "%" + escapeLike(term) + "%"
		ors := make([]string, 0, len(scope))
		for _, col := range scope {
			ors = append(ors, fmt.Sprintf("LOWER(CAST(%s AS TEXT)) LIKE %s ESCAPE '\\'", Column(col), b.arg(pattern)))
		}
		where = append(where, "("+strings.Join(ors, " OR ")+")")
	}

	for _, col := range slices.Sorted(maps.Keys(req.Filters)) {
		vals := req.Filters[col]
		if len(vals) == 0 {
			continue
		}
		in := make([]string, 0, len(vals))
		for _, v := range vals {
			in = append(in, b.arg(strings.ToLower(v)))
		}
		where = append(where, fmt.Sprintf("LOWER(CAST(%s AS TEXT)) IN (%s)", Column(col), strings.Join(in, ", ")))
	}

	if spec.DateColumn != "" {
		if req.From != nil {
			where = append(where, fmt.Sprintf("%s >= %s", Column(spec.DateColumn), b.arg(req.From.UTC())))
		}
		if req.To != nil {
			where = append(where, fmt.Sprintf("%s <= %s", Column(spec.DateColumn), b.arg(req.To.UTC())))
		}
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}
	filterArgs := append([]any(nil), b.args...)

	order := " ORDER BY id ASC"
	if req.SortBy != "" {
		dir := "ASC"
		if req.SortDesc {
			dir = "DESC"
		}
		order = fmt.Sprintf(" ORDER BY %s %s, id ASC", Column(req.SortBy), dir)
	}

	countSQL := "SELECT COUNT(1) FROM " + Table(res) + clause
	limit := b.arg(req.Size)
	offset := b.arg(req.Offset())
	pageSQL := fmt.Sprintf("SELECT %s FROM %s%s%s LIMIT %s OFFSET %s",
		strings.Join(SelectColumns(res), ", "), Table(res), clause, order, limit, offset)

	return List{CountSQL: countSQL, CountArgs: filterArgs, PageSQL: pageSQL, PageArgs: b.args}, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
