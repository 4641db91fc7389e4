package storage

import (
	"context"
	"fmt"
	"time"

	"pharmadmin/internal/domain"
)

// seedEpoch anchors demo timestamps so seeded lists sort the same on every run.
var seedEpoch = time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)

// Seed fills an empty store with demo data for the console.
func Seed(ctx context.Context, st Store) error {
	day := func(n int) time.Time { return seedEpoch.AddDate(0, 0, n) }

	providers := []domain.Provider{
		{Code: "PRV001", Name: "Mekophar", Phone: "028-3855-3047", Email: "sales@mekophar.example", Address: "297/5 Ly Thuong Kiet", CreatedAt: day(0)},
		{Code: "PRV002", Name: "Traphaco", Phone: "024-3681-1212", Email: "order@traphaco.example", Address: "75 Yen Ninh", CreatedAt: day(1)},
		{Code: "PRV003", Name: "Domesco", Phone: "0277-385-1950", Email: "contact@domesco.example", Address: "66 Quoc lo 30", Status: domain.StatusInactive, CreatedAt: day(2)},
	}
	for _, p := range providers {
		if _, err := st.CreateProvider(ctx, p); err != nil {
			return fmt.Errorf("seed provider %s: %w", p.Code, err)
		}
	}

	products := []domain.Product{
		{Code: "SP001", Name: "Paracetamol 500mg", Category: "otc", Unit: "box", Price: 25000, Stock: 320, ProviderID: 1, CreatedAt: day(3)},
		{Code: "SP002", Name: "Amoxicillin 250mg", Category: "rx", Unit: "box", Price: 48000, Stock: 110, ProviderID: 2, CreatedAt: day(4)},
		{Code: "SP003", Name: "Vitamin C 1000mg", Category: "supplement", Unit: "tube", Price: 65000, Stock: 75, ProviderID: 1, CreatedAt: day(5)},
		{Code: "SP004", Name: "Ibuprofen 400mg", Category: "otc", Unit: "box", Price: 32000, Stock: 0, ProviderID: 3, Status: domain.StatusInactive, CreatedAt: day(6)},
		{Code: "SP005", Name: "Panadol Extra", Category: "otc", Unit: "blister", Price: 18000, Stock: 540, ProviderID: 2, CreatedAt: day(7)},
		{Code: "SP006", Name: "Omeprazole 20mg", Category: "rx", Unit: "box", Price: 56000, Stock: 64, ProviderID: 3, CreatedAt: day(8)},
		{Code: "SP007", Name: "Cetirizine 10mg", Category: "otc", Unit: "blister", Price: 15000, Stock: 210, ProviderID: 1, CreatedAt: day(9)},
		{Code: "SP008", Name: "Metformin 500mg", Category: "rx", Unit: "box", Price: 42000, Stock: 98, ProviderID: 2, CreatedAt: day(10)},
		{Code: "SP009", Name: "Fish Oil Omega-3", Category: "supplement", Unit: "bottle", Price: 210000, Stock: 40, ProviderID: 1, CreatedAt: day(11)},
		{Code: "SP010", Name: "Oresol", Category: "otc", Unit: "sachet", Price: 3000, Stock: 1200, ProviderID: 2, CreatedAt: day(12)},
		{Code: "SP011", Name: "Salbutamol Inhaler", Category: "rx", Unit: "piece", Price: 95000, Stock: 22, ProviderID: 3, CreatedAt: day(13)},
		{Code: "SP012", Name: "Parafin Gauze", Category: "device", Unit: "pack", Price: 27000, Stock: 150, ProviderID: 1, CreatedAt: day(14)},
	}
	for _, p := range products {
		if _, err := st.CreateProduct(ctx, p); err != nil {
			return fmt.Errorf("seed product %s: %w", p.Code, err)
		}
	}

	employees := []domain.Employee{
		{Code: "NV001", Name: "Tran Thi Lan", Email: "lan@pharmacy.example", Phone: "0901000001", Role: domain.RoleAdmin, HiredAt: day(-700), CreatedAt: day(0)},
		{Code: "NV002", Name: "Nguyen Van Minh", Email: "minh@pharmacy.example", Phone: "0901000002", Role: domain.RoleManager, HiredAt: day(-400), CreatedAt: day(0)},
		{Code: "NV003", Name: "Le Hoang Anh", Email: "anh@pharmacy.example", Phone: "0901000003", Role: domain.RolePharmacist, HiredAt: day(-200), CreatedAt: day(1)},
		{Code: "NV004", Name: "Pham Thu Ha", Email: "ha@pharmacy.example", Phone: "0901000004", Role: domain.RoleCashier, HiredAt: day(-30), CreatedAt: day(1)},
		{Code: "NV005", Name: "Vo Quoc Bao", Email: "bao@pharmacy.example", Phone: "0901000005", Role: domain.RolePharmacist, Status: domain.StatusInactive, HiredAt: day(-900), CreatedAt: day(2)},
	}
	for _, e := range employees {
		if _, err := st.CreateEmployee(ctx, e); err != nil {
			return fmt.Errorf("seed employee %s: %w", e.Code, err)
		}
	}

	customers := []domain.Customer{
		{Code: "KH001", Name: "Hoang Mai", Phone: "0912000001", Email: "mai@mail.example", Points: 120, CreatedAt: day(3)},
		{Code: "KH002", Name: "Dang Khoa", Phone: "0912000002", Points: 45, CreatedAt: day(4)},
		{Code: "KH003", Name: "Bui Thanh Truc", Phone: "0912000003", Email: "truc@mail.example", Points: 310, CreatedAt: day(6)},
		{Code: "KH004", Name: "Parker Nguyen", Phone: "0912000004", Points: 0, CreatedAt: day(9)},
	}
	for _, c := range customers {
		if _, err := st.CreateCustomer(ctx, c); err != nil {
			return fmt.Errorf("seed customer %s: %w", c.Code, err)
		}
	}

	orders := []domain.Order{
		{Code: "HD0001", CustomerID: 1, EmployeeID: 4, Total: 73000, Status: domain.OrderCompleted, CreatedAt: day(10)},
		{Code: "HD0002", CustomerID: 2, EmployeeID: 4, Total: 18000, Status: domain.OrderCompleted, CreatedAt: day(11)},
		{Code: "HD0003", CustomerID: 3, EmployeeID: 3, Total: 305000, Status: domain.OrderPending, CreatedAt: day(12)},
		{Code: "HD0004", CustomerID: 1, EmployeeID: 3, Total: 42000, Status: domain.OrderCancelled, CreatedAt: day(14)},
		{Code: "HD0005", CustomerID: 4, EmployeeID: 4, Total: 6000, Status: domain.OrderCompleted, CreatedAt: day(15)},
	}
	for _, o := range orders {
		if _, err := st.CreateOrder(ctx, o); err != nil {
			return fmt.Errorf("seed order %s: %w", o.Code, err)
		}
	}
	return nil
}
