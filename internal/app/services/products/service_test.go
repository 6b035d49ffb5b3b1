package products

import (
	"context"
	"testing"

	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/billing"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/stock"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/storage"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/storage/memory"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/apperr"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/config"

	billingsvc "github.com/learngermanghana/sedifexbiz-sub004/internal/app/services/billing"
)

const storeID = "store-1"

func newService() (*Service, *memory.Store) {
	mem := memory.New()
	return New(mem, mem, nil), mem
}

func TestCreateNormalizesSKUAndRecordsOpeningStock(t *testing.T) {
	svc, mem := newService()
	ctx := context.Background()

	p, err := svc.Create(ctx, storeID, "user-1", CreateInput{
		Name:       "Sachet Water",
		SKU:        "  wat-001  ",
		PriceCents: 50,
		CostCents:  30,
		StockCount: 24,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.SKU != "WAT-001" {
		t.Fatalf("sku = %q, want WAT-001", p.SKU)
	}
	if !p.Active {
		t.Fatal("new product should be active")
	}

	movements, err := mem.ListMovements(ctx, storeID, storage.MovementFilter{ProductID: p.ID})
	if err != nil {
		t.Fatalf("list movements: %v", err)
	}
	if len(movements) != 1 {
		t.Fatalf("movements = %d, want 1", len(movements))
	}
	m := movements[0]
	if m.Kind != stock.KindReceive || m.Quantity != 24 || m.Reference != "opening stock" {
		t.Fatalf("opening movement = %+v", m)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	cases := []struct {
		name string
		in   CreateInput
	}{
		{"empty name", CreateInput{PriceCents: 100}},
		{"negative price", CreateInput{Name: "Soap", PriceCents: -1}},
		{"negative stock", CreateInput{Name: "Soap", PriceCents: 100, StockCount: -1}},
	}
	for _, tc := range cases {
		if _, err := svc.Create(ctx, storeID, "user-1", tc.in); apperr.KindOf(err) != apperr.KindInvalid {
			t.Errorf("%s: kind = %v, want invalid", tc.name, apperr.KindOf(err))
		}
	}
}

func TestCreateDuplicateSKU(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, storeID, "user-1", CreateInput{Name: "Soap", SKU: "SOAP-1", PriceCents: 500}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := svc.Create(ctx, storeID, "user-1", CreateInput{Name: "Other Soap", SKU: "soap-1", PriceCents: 700})
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("kind = %v, want conflict", apperr.KindOf(err))
	}
}

func TestCreateEnforcesPlanProductLimit(t *testing.T) {
	svc, mem := newService()
	ctx := context.Background()

	plans := &config.PlansConfig{Plans: []billing.Plan{
		{Name: billing.PlanFree, ProductLimit: 1},
	}}
	svc.AttachDependencies(billingsvc.New(mem, plans, "", nil), nil)
	if _, err := mem.CreateSubscription(ctx, billing.Subscription{
		StoreID: storeID,
		Plan:    billing.PlanFree,
		Status:  billing.StatusActive,
	}); err != nil {
		t.Fatalf("subscription: %v", err)
	}

	if _, err := svc.Create(ctx, storeID, "user-1", CreateInput{Name: "Soap", PriceCents: 500}); err != nil {
		t.Fatalf("first product: %v", err)
	}
	_, err := svc.Create(ctx, storeID, "user-1", CreateInput{Name: "Brush", PriceCents: 300})
	if apperr.KindOf(err) != apperr.KindPaymentRequired {
		t.Fatalf("kind = %v, want payment required", apperr.KindOf(err))
	}
}

func TestUpdateFields(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	p, err := svc.Create(ctx, storeID, "user-1", CreateInput{Name: "Soap", PriceCents: 500})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	price := int64(650)
	inactive := false
	updated, err := svc.Update(ctx, p.ID, UpdateInput{PriceCents: &price, Active: &inactive})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.PriceCents != 650 || updated.Active {
		t.Fatalf("updated = %+v", updated)
	}

	negative := int64(-5)
	if _, err := svc.Update(ctx, p.ID, UpdateInput{PriceCents: &negative}); apperr.KindOf(err) != apperr.KindInvalid {
		t.Fatalf("kind = %v, want invalid", apperr.KindOf(err))
	}
}

func TestAdjustStock(t *testing.T) {
	svc, mem := newService()
	ctx := context.Background()

	p, err := svc.Create(ctx, storeID, "user-1", CreateInput{Name: "Soap", PriceCents: 500, StockCount: 5})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	adjusted, err := svc.AdjustStock(ctx, storeID, p.ID, "user-1", 3, "recount after delivery")
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if adjusted.StockCount != 8 {
		t.Fatalf("stock = %d, want 8", adjusted.StockCount)
	}

	if _, err := svc.AdjustStock(ctx, storeID, p.ID, "user-1", -20, "shrinkage"); apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("negative stock kind = %v, want conflict", apperr.KindOf(err))
	}
	if _, err := svc.AdjustStock(ctx, storeID, p.ID, "user-1", 0, "noop"); apperr.KindOf(err) != apperr.KindInvalid {
		t.Fatalf("zero delta kind = %v, want invalid", apperr.KindOf(err))
	}
	if _, err := svc.AdjustStock(ctx, storeID, p.ID, "user-1", 1, "  "); apperr.KindOf(err) != apperr.KindInvalid {
		t.Fatalf("missing reason kind = %v, want invalid", apperr.KindOf(err))
	}

	movements, err := mem.ListMovements(ctx, storeID, storage.MovementFilter{ProductID: p.ID})
	if err != nil {
		t.Fatalf("list movements: %v", err)
	}
	var adjustments int
	for _, m := range movements {
		if m.Kind == stock.KindAdjust {
			adjustments++
		}
	}
	if adjustments != 1 {
		t.Fatalf("adjust movements = %d, want 1", adjustments)
	}
}

func TestDeleteKeepsSoldProducts(t *testing.T) {
	svc, mem := newService()
	ctx := context.Background()

	sold, err := svc.Create(ctx, storeID, "user-1", CreateInput{Name: "Soap", PriceCents: 500, StockCount: 5})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := mem.CreateMovement(ctx, stock.Movement{
		StoreID:   storeID,
		ProductID: sold.ID,
		Kind:      stock.KindSale,
		Quantity:  -1,
	}); err != nil {
		t.Fatalf("sale movement: %v", err)
	}

	if err := svc.Delete(ctx, sold.ID); err != nil {
		t.Fatalf("delete sold: %v", err)
	}
	kept, err := svc.Get(ctx, sold.ID)
	if err != nil {
		t.Fatalf("sold product should survive as inactive: %v", err)
	}
	if kept.Active {
		t.Fatal("sold product should be deactivated")
	}

	fresh, err := svc.Create(ctx, storeID, "user-1", CreateInput{Name: "Brush", PriceCents: 300})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(ctx, fresh.ID); err != nil {
		t.Fatalf("delete fresh: %v", err)
	}
	if _, err := svc.Get(ctx, fresh.ID); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("unsold product should be gone; kind = %v", apperr.KindOf(err))
	}
}

func TestLowStock(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, storeID, "user-1", CreateInput{Name: "Soap", PriceCents: 500, StockCount: 2, ReorderLevel: 5}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, storeID, "user-1", CreateInput{Name: "Brush", PriceCents: 300, StockCount: 50, ReorderLevel: 5}); err != nil {
		t.Fatalf("create: %v", err)
	}

	low, err := svc.LowStock(ctx, storeID)
	if err != nil {
		t.Fatalf("low stock: %v", err)
	}
	if len(low) != 1 || low[0].Name != "Soap" {
		t.Fatalf("low stock = %+v", low)
	}
}
