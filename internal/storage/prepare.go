package storage

import (
	"fmt"
	"strings"
	"time"

	"pharmadmin/internal/domain"
)

// The Prepare functions validate a record and fill in defaults before it is
// written by any Store implementation. IDs are assigned by the store.

func PrepareEmployee(in domain.Employee) (domain.Employee, error) {
	if err := requireCodeName(in.Code, in.Name); err != nil {
		return domain.Employee{}, err
	}
	if in.Role == "" {
		in.Role = domain.RoleCashier
	}
	if in.Status == "" {
		in.Status = domain.StatusActive
	}
	in.CreatedAt = stampTime(in.CreatedAt)
	if in.HiredAt.IsZero() {
		in.HiredAt = in.CreatedAt
	}
	in.HiredAt = in.HiredAt.UTC()
	return in, nil
}

func PrepareCustomer(in domain.Customer) (domain.Customer, error) {
	if err := requireCodeName(in.Code, in.Name); err != nil {
		return domain.Customer{}, err
	}
	if in.Points < 0 {
		return domain.Customer{}, fmt.Errorf("points must not be negative: %w", ErrValidation)
	}
	in.CreatedAt = stampTime(in.CreatedAt)
	return in, nil
}

func PrepareProduct(in domain.Product) (domain.Product, error) {
	if err := requireCodeName(in.Code, in.Name); err != nil {
		return domain.Product{}, err
	}
	if in.Price < 0 || in.Stock < 0 {
		return domain.Product{}, fmt.Errorf("price and stock must not be negative: %w", ErrValidation)
	}
	if in.Status == "" {
		in.Status = domain.StatusActive
	}
	in.CreatedAt = stampTime(in.CreatedAt)
	return in, nil
}

func PrepareProvider(in domain.Provider) (domain.Provider, error) {
	if err := requireCodeName(in.Code, in.Name); err != nil {
		return domain.Provider{}, err
	}
	if in.Status == "" {
		in.Status = domain.StatusActive
	}
	in.CreatedAt = stampTime(in.CreatedAt)
	return in, nil
}

func PrepareOrder(in domain.Order) (domain.Order, error) {
	if strings.TrimSpace(in.Code) == "" {
		return domain.Order{}, fmt.Errorf("code required: %w", ErrValidation)
	}
	if in.Total < 0 {
		return domain.Order{}, fmt.Errorf("total must not be negative: %w", ErrValidation)
	}
	if in.Status == "" {
		in.Status = domain.OrderPending
	}
	in.CreatedAt = stampTime(in.CreatedAt)
	return in, nil
}

func requireCodeName(code, name string) error {
	if strings.TrimSpace(code) == "" || strings.TrimSpace(name) == "" {
		return fmt.Errorf("code and name required: %w", ErrValidation)
	}
	return nil
}

func stampTime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
