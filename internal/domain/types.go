package domain

import "time"

// Record is a list row whose columns can be searched, sorted and filtered by
// name. Names are the JSON field names.
type Record interface {
	Field(name string) (any, bool)
}

// EmployeeRole is the console role of a staff member.
type EmployeeRole string

const (
	RoleAdmin      EmployeeRole = "admin"
	RoleManager    EmployeeRole = "manager"
	RolePharmacist EmployeeRole = "pharmacist"
	RoleCashier    EmployeeRole = "cashier"
)

// Status is shared by employees, products and providers.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Employee is a member of pharmacy staff.
type Employee struct {
	ID        int64        `json:"id"`
	Code      string       `json:"code"`
	Name      string       `json:"name"`
	Email     string       `json:"email"`
	Phone     string       `json:"phone"`
	Role      EmployeeRole `json:"role"`
	Status    Status       `json:"status"`
	HiredAt   time.Time    `json:"hiredAt"`
	CreatedAt time.Time    `json:"createdAt"`
}

func (e Employee) Field(name string) (any, bool) {
	switch name {
	case "id":
		return e.ID, true
	case "code":
		return e.Code, true
	case "name":
		return e.Name, true
	case "email":
		return e.Email, true
	case "phone":
		return e.Phone, true
	case "role":
		return string(e.Role), true
	case "status":
		return string(e.Status), true
	case "hiredAt":
		return e.HiredAt, true
	case "createdAt":
		return e.CreatedAt, true
	}
	return nil, false
}

// Customer is a loyalty-program customer.
type Customer struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email,omitempty"`
	Points    int64     `json:"points"`
	CreatedAt time.Time `json:"createdAt"`
}

func (c Customer) Field(name string) (any, bool) {
	switch name {
	case "id":
		return c.ID, true
	case "code":
		return c.Code, true
	case "name":
		return c.Name, true
	case "phone":
		return c.Phone, true
	case "email":
		return c.Email, true
	case "points":
		return c.Points, true
	case "createdAt":
		return c.CreatedAt, true
	}
	return nil, false
}

// Product is a catalog item. Price is in the smallest currency unit.
type Product struct {
	ID         int64     `json:"id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	Category   string    `json:"category"`
	Unit       string    `json:"unit"`
	Price      int64     `json:"price"`
	Stock      int64     `json:"stock"`
	Status     Status    `json:"status"`
	ProviderID int64     `json:"providerId"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (p Product) Field(name string) (any, bool) {
	switch name {
	case "id":
		return p.ID, true
	case "code":
		return p.Code, true
	case "name":
		return p.Name, true
	case "category":
		return p.Category, true
	case "unit":
		return p.Unit, true
	case "price":
		return p.Price, true
	case "stock":
		return p.Stock, true
	case "status":
		return string(p.Status), true
	case "providerId":
		return p.ProviderID, true
	case "createdAt":
		return p.CreatedAt, true
	}
	return nil, false
}

// Provider supplies products to the chain.
type Provider struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Address   string    `json:"address"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

func (p Provider) Field(name string) (any, bool) {
	switch name {
	case "id":
		return p.ID, true
	case "code":
		return p.Code, true
	case "name":
		return p.Name, true
	case "phone":
		return p.Phone, true
	case "email":
		return p.Email, true
	case "address":
		return p.Address, true
	case "status":
		return string(p.Status), true
	case "createdAt":
		return p.CreatedAt, true
	}
	return nil, false
}

// OrderStatus tracks a sales order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

// Order is a point-of-sale order.
type Order struct {
	ID         int64       `json:"id"`
	Code       string      `json:"code"`
	CustomerID int64       `json:"customerId"`
	EmployeeID int64       `json:"employeeId"`
	Total      int64       `json:"total"`
	Status     OrderStatus `json:"status"`
	CreatedAt  time.Time   `json:"createdAt"`
}

func (o Order) Field(name string) (any, bool) {
	switch name {
	case "id":
		return o.ID, true
	case "code":
		return o.Code, true
	case "customerId":
		return o.CustomerID, true
	case "employeeId":
		return o.EmployeeID, true
	case "total":
		return o.Total, true
	case "status":
		return string(o.Status), true
	case "createdAt":
		return o.CreatedAt, true
	}
	return nil, false
}
