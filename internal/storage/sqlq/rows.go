package sqlq

import (
	"fmt"
	"strings"

	"pharmadmin/internal/domain"
)

// Scanner is satisfied by *sql.Rows, *sql.Row and pgx.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

var selectColumns = map[domain.Resource][]string{
	domain.ResourceEmployees: {"id", "code", "name", "email", "phone", "role", "status", "hired_at", "created_at"},
	domain.ResourceCustomers: {"id", "code", "name", "phone", "email", "points", "created_at"},
	domain.ResourceProducts:  {"id", "code", "name", "category", "unit", "price", "stock", "status", "provider_id", "created_at"},
	domain.ResourceProviders: {"id", "code", "name", "phone", "email", "address", "status", "created_at"},
	domain.ResourceOrders:    {"id", "code", "customer_id", "employee_id", "total", "status", "created_at"},
}

// SelectColumns lists the columns a page statement selects, in scan order.
func SelectColumns(res domain.Resource) []string {
	return selectColumns[res]
}

func ScanEmployee(s Scanner) (domain.Employee, error) {
	var e domain.Employee
	err := s.Scan(&e.ID, &e.Code, &e.Name, &e.Email, &e.Phone, &e.Role, &e.Status, &e.HiredAt, &e.CreatedAt)
	return e, err
}

func ScanCustomer(s Scanner) (domain.Customer, error) {
	var c domain.Customer
	err := s.Scan(&c.ID, &c.Code, &c.Name, &c.Phone, &c.Email, &c.Points, &c.CreatedAt)
	return c, err
}

func ScanProduct(s Scanner) (domain.Product, error) {
	var p domain.Product
	err := s.Scan(&p.ID, &p.Code, &p.Name, &p.Category, &p.Unit, &p.Price, &p.Stock, &p.Status, &p.ProviderID, &p.CreatedAt)
	return p, err
}

func ScanProvider(s Scanner) (domain.Provider, error) {
	var p domain.Provider
	err := s.Scan(&p.ID, &p.Code, &p.Name, &p.Phone, &p.Email, &p.Address, &p.Status, &p.CreatedAt)
	return p, err
}

func ScanOrder(s Scanner) (domain.Order, error) {
	var o domain.Order
	err := s.Scan(&o.ID, &o.Code, &o.CustomerID, &o.EmployeeID, &o.Total, &o.Status, &o.CreatedAt)
	return o, err
}

// Insert renders an INSERT ... RETURNING id for every column but id.
func Insert(ph Placeholder, res domain.Resource, values ...any) (string, []any, error) {
	cols := selectColumns[res][1:]
	if len(values) != len(cols) {
		return "", nil, fmt.Errorf("insert %s: %d values for %d columns", res, len(values), len(cols))
	}
	b := &builder{ph: ph}
	marks := make([]string, len(values))
	for i, v := range values {
		marks[i] = b.arg(v)
	}
	stmt := fmt.Sprintf("INSERT INTO %s(%s) VALUES(%s) RETURNING id",
		Table(res), strings.Join(cols, ", "), strings.Join(marks, ", "))
	return stmt, b.args, nil
}

// EmployeeValues and friends list insert values in column order.
func EmployeeValues(e domain.Employee) []any {
	return []any{e.Code, e.Name, e.Email, e.Phone, string(e.Role), string(e.Status), e.HiredAt.UTC(), e.CreatedAt.UTC()}
}

func CustomerValues(c domain.Customer) []any {
	return []any{c.Code, c.Name, c.Phone, c.Email, c.Points, c.CreatedAt.UTC()}
}

func ProductValues(p domain.Product) []any {
	return []any{p.Code, p.Name, p.Category, p.Unit, p.Price, p.Stock, string(p.Status), p.ProviderID, p.CreatedAt.UTC()}
}

func ProviderValues(p domain.Provider) []any {
	return []any{p.Code, p.Name, p.Phone, p.Email, p.Address, string(p.Status), p.CreatedAt.UTC()}
}

func OrderValues(o domain.Order) []any {
	return []any{o.Code, o.CustomerID, o.EmployeeID, o.Total, string(o.Status), o.CreatedAt.UTC()}
}
