package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"pharmadmin/internal/domain"
)

// Store serves the list endpoints of the console API.
type Store interface {
	ListEmployees(ctx context.Context, req domain.ListRequest) (domain.ListResponse[domain.Employee], error)
	ListCustomers(ctx context.Context, req domain.ListRequest) (domain.ListResponse[domain.Customer], error)
	ListProducts(ctx context.Context, req domain.ListRequest) (domain.ListResponse[domain.Product], error)
	ListProviders(ctx context.Context, req domain.ListRequest) (domain.ListResponse[domain.Provider], error)
	ListOrders(ctx context.Context, req domain.ListRequest) (domain.ListResponse[domain.Order], error)

	CreateEmployee(ctx context.Context, in domain.Employee) (domain.Employee, error)
	CreateCustomer(ctx context.Context, in domain.Customer) (domain.Customer, error)
	CreateProduct(ctx context.Context, in domain.Product) (domain.Product, error)
	CreateProvider(ctx context.Context, in domain.Provider) (domain.Provider, error)
	CreateOrder(ctx context.Context, in domain.Order) (domain.Order, error)

	// Close releases resources held by the store
	Close() error
}

// MemoryStore is an in-memory implementation for quick start and tests.
// Rows are kept in insertion order, which is id order.
type MemoryStore struct {
	mu        sync.RWMutex
	employees []domain.Employee
	customers []domain.Customer
	products  []domain.Product
	providers []domain.Provider
	orders    []domain.Order
	next      map[domain.Resource]int64
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{next: make(map[domain.Resource]int64)}
}

func (m *MemoryStore) ListEmployees(ctx context.Context, req domain.ListRequest) (domain.ListResponse[domain.Employee], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return ApplyListRequest(m.employees, domain.ResourceEmployees.Spec(), req)
}

func (m *MemoryStore) ListCustomers(ctx context.Context, req domain.ListRequest) (domain.ListResponse[domain.Customer], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return ApplyListRequest(m.customers, domain.ResourceCustomers.Spec(), req)
}

func (m *MemoryStore) ListProducts(ctx context.Context, req domain.ListRequest) (domain.ListResponse[domain.Product], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return ApplyListRequest(m.products, domain.ResourceProducts.Spec(), req)
}

func (m *MemoryStore) ListProviders(ctx context.Context, req domain.ListRequest) (domain.ListResponse[domain.Provider], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return ApplyListRequest(m.providers, domain.ResourceProviders.Spec(), req)
}

func (m *MemoryStore) ListOrders(ctx context.Context, req domain.ListRequest) (domain.ListResponse[domain.Order], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return ApplyListRequest(m.orders, domain.ResourceOrders.Spec(), req)
}

func (m *MemoryStore) CreateEmployee(ctx context.Context, in domain.Employee) (domain.Employee, error) {
	in, err := PrepareEmployee(in)
	if err != nil {
		return domain.Employee{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if codeTaken(m.employees, in.Code, func(e domain.Employee) string { return e.Code }) {
		return domain.Employee{}, fmt.Errorf("employee code %q: %w", in.Code, ErrConflict)
	}
	in.ID = m.nextID(domain.ResourceEmployees)
	m.employees = append(m.employees, in)
	return in, nil
}

func (m *MemoryStore) CreateCustomer(ctx context.Context, in domain.Customer) (domain.Customer, error) {
	in, err := PrepareCustomer(in)
	if err != nil {
		return domain.Customer{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if codeTaken(m.customers, in.Code, func(c domain.Customer) string { return c.Code }) {
		return domain.Customer{}, fmt.Errorf("customer code %q: %w", in.Code, ErrConflict)
	}
	in.ID = m.nextID(domain.ResourceCustomers)
	m.customers = append(m.customers, in)
	return in, nil
}

func (m *MemoryStore) CreateProduct(ctx context.Context, in domain.Product) (domain.Product, error) {
	in, err := PrepareProduct(in)
	if err != nil {
		return domain.Product{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if codeTaken(m.products, in.Code, func(p domain.Product) string { return p.Code }) {
		return domain.Product{}, fmt.Errorf("product code %q: %w", in.Code, ErrConflict)
	}
	in.ID = m.nextID(domain.ResourceProducts)
	m.products = append(m.products, in)
	return in, nil
}

func (m *MemoryStore) CreateProvider(ctx context.Context, in domain.Provider) (domain.Provider, error) {
	in, err := PrepareProvider(in)
	if err != nil {
		return domain.Provider{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if codeTaken(m.providers, in.Code, func(p domain.Provider) string { return p.Code }) {
		return domain.Provider{}, fmt.Errorf("provider code %q: %w", in.Code, ErrConflict)
	}
	in.ID = m.nextID(domain.ResourceProviders)
	m.providers = append(m.providers, in)
	return in, nil
}

func (m *MemoryStore) CreateOrder(ctx context.Context, in domain.Order) (domain.Order, error) {
	in, err := PrepareOrder(in)
	if err != nil {
		return domain.Order{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if codeTaken(m.orders, in.Code, func(o domain.Order) string { return o.Code }) {
		return domain.Order{}, fmt.Errorf("order code %q: %w", in.Code, ErrConflict)
	}
	in.ID = m.nextID(domain.ResourceOrders)
	m.orders = append(m.orders, in)
	return in, nil
}

// Close is a no-op for the memory store.
func (m *MemoryStore) Close() error { return nil }

// nextID assigns the next id of res. Called with mu held.
func (m *MemoryStore) nextID(res domain.Resource) int64 {
	m.next[res]++
	return m.next[res]
}

func codeTaken[T any](rows []T, code string, key func(T) string) bool {
	for _, r := range rows {
		if strings.EqualFold(key(r), code) {
			return true
		}
	}
	return false
}
