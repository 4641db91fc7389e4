//go:build sqlite

package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // CGO-less SQLite driver

	"pharmadmin/internal/domain"
	"pharmadmin/internal/storage"
	"pharmadmin/internal/storage/sqlq"
)

type Store struct {
	db *sql.DB
}

var (
	_ storage.Store       = (*Store)(nil)
	_ storage.HealthCheck = (*Store)(nil)
)

func New(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000; PRAGMA foreign_keys=ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Status returns schema_migrations and schema_info summary for the given DSN without creating a Store.
func Status(dsn string) (string, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return "", err
	}
	defer db.Close()
	var count, latest, schemaVersion int
	var appVersion, appliedAt string
	_ = db.QueryRow(`SELECT COUNT(1), COALESCE(MAX(version),0) FROM schema_migrations`).Scan(&count, &latest)
	_ = db.QueryRow(`SELECT schema_version, app_version, applied_at FROM schema_info WHERE id=1`).Scan(&schemaVersion, &appVersion, &appliedAt)
	return fmt.Sprintf("schema_version=%d applied=%d latest=%d app_version=%s applied_at=%s", schemaVersion, count, latest, appVersion, appliedAt), nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

func list[T any](ctx context.Context, db *sql.DB, res domain.Resource, req domain.ListRequest, scan func(sqlq.Scanner) (T, error)) (domain.ListResponse[T], error) {
	q, err := sqlq.BuildList(sqlq.Question, res, req)
	if err != nil {
		return domain.ListResponse[T]{}, err
	}
	var total int
	if err := db.QueryRowContext(ctx, q.CountSQL, q.CountArgs...).Scan(&total); err != nil {
		return domain.ListResponse[T]{}, fmt.Errorf("count %s: %w", res, err)
	}
	rows, err := db.QueryContext(ctx, q.PageSQL, q.PageArgs...)
	if err != nil {
		return domain.ListResponse[T]{}, fmt.Errorf("list %s: %w", res, err)
	}
	defer rows.Close()
	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return domain.ListResponse[T]{}, fmt.Errorf("scan %s: %w", res, err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return domain.ListResponse[T]{}, err
	}
	return domain.NewListResponse(out, total, req), nil
}

func insert(ctx context.Context, db *sql.DB, res domain.Resource, values []any) (int64, error) {
	stmt, args, err := sqlq.Insert(sqlq.Question, res, values...)
	if err != nil {
		return 0, err
	}
	var id int64
	if err := db.QueryRowContext(ctx, stmt, args...).Scan(&id); err != nil {
		return 0, storage.WrapIfConflict(err)
	}
	return id, nil
}

func (s *Store) ListEmployees(ctx context.Context, req domain.ListRequest) (domain.ListResponse[domain.Employee], error) {
	return list(ctx, s.db, domain.ResourceEmployees, req, sqlq.ScanEmployee)
}

func (s *Store) ListCustomers(ctx context.Context, req domain.ListRequest) (domain.ListResponse[domain.Customer], error) {
	return list(ctx, s.db, domain.ResourceCustomers, req, sqlq.ScanCustomer)
}

func (s *Store) ListProducts(ctx context.Context, req domain.ListRequest) (domain.ListResponse[domain.Product], error) {
	return list(ctx, s.db, domain.ResourceProducts, req, sqlq.ScanProduct)
}

func (s *Store) ListProviders(ctx context.Context, req domain.ListRequest) (domain.ListResponse[domain.Provider], error) {
	return list(ctx, s.db, domain.ResourceProviders, req, sqlq.ScanProvider)
}

func (s *Store) ListOrders(ctx context.Context, req domain.ListRequest) (domain.ListResponse[domain.Order], error) {
	return list(ctx, s.db, domain.ResourceOrders, req, sqlq.ScanOrder)
}

func (s *Store) CreateEmployee(ctx context.Context, in domain.Employee) (domain.Employee, error) {
	in, err := storage.PrepareEmployee(in)
	if err != nil {
		return domain.Employee{}, err
	}
	in.ID, err = insert(ctx, s.db, domain.ResourceEmployees, sqlq.EmployeeValues(in))
	return in, err
}

func (s *Store) CreateCustomer(ctx context.Context, in domain.Customer) (domain.Customer, error) {
	in, err := storage.PrepareCustomer(in)
	if err != nil {
		return domain.Customer{}, err
	}
	in.ID, err = insert(ctx, s.db, domain.ResourceCustomers, sqlq.CustomerValues(in))
	return in, err
}

func (s *Store) CreateProduct(ctx context.Context, in domain.Product) (domain.Product, error) {
	in, err := storage.PrepareProduct(in)
	if err != nil {
		return domain.Product{}, err
	}
	in.ID, err = insert(ctx, s.db, domain.ResourceProducts, sqlq.ProductValues(in))
	return in, err
}

func (s *Store) CreateProvider(ctx context.Context, in domain.Provider) (domain.Provider, error) {
	in, err := storage.PrepareProvider(in)
	if err != nil {
		return domain.Provider{}, err
	}
	in.ID, err = insert(ctx, s.db, domain.ResourceProviders, sqlq.ProviderValues(in))
	return in, err
}

func (s *Store) CreateOrder(ctx context.Context, in domain.Order) (domain.Order, error) {
	in, err := storage.PrepareOrder(in)
	if err != nil {
		return domain.Order{}, err
	}
	in.ID, err = insert(ctx, s.db, domain.ResourceOrders, sqlq.OrderValues(in))
	return in, err
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Stats returns connection pool statistics.
func (s *Store) Stats() *storage.DBStats {
	st := s.db.Stats()
	return &storage.DBStats{
		MaxOpenConnections: st.MaxOpenConnections,
		OpenConnections:    st.OpenConnections,
		InUse:              st.InUse,
		Idle:               st.Idle,
		WaitCount:          st.WaitCount,
		WaitDuration:       st.WaitDuration.Nanoseconds(),
	}
}
