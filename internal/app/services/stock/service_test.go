package stock

import (
	"context"
	"testing"

	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/product"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/stock"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/storage"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/storage/memory"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/apperr"
)

const storeID = "store-1"

func newService(t *testing.T) (*Service, *memory.Store, product.Product) {
	t.Helper()
	mem := memory.New()
	p, err := mem.CreateProduct(context.Background(), product.Product{
		StoreID:    storeID,
		Name:       "Sachet Water",
		SKU:        "WAT-001",
		PriceCents: 50,
		CostCents:  30,
		StockCount: 10,
		Active:     true,
	})
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return New(mem, mem, nil), mem, p
}

func TestReceiveIncrementsStockAndCost(t *testing.T) {
	svc, mem, p := newService(t)
	ctx := context.Background()

	updated, movement, err := svc.Receive(ctx, storeID, "user-1", ReceiveInput{
		ProductID:     p.ID,
		Quantity:      24,
		UnitCostCents: 35,
		Reference:     "delivery DN-114",
	})
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if updated.StockCount != 34 {
		t.Fatalf("stock = %d, want 34", updated.StockCount)
	}
	if updated.CostCents != 35 {
		t.Fatalf("cost = %d, want 35 (latest unit cost)", updated.CostCents)
	}
	if movement.Kind != stock.KindReceive || movement.Quantity != 24 || movement.Reference != "delivery DN-114" {
		t.Fatalf("movement = %+v", movement)
	}

	movements, err := mem.ListMovements(ctx, storeID, storage.MovementFilter{ProductID: p.ID})
	if err != nil {
		t.Fatalf("list movements: %v", err)
	}
	if len(movements) != 1 {
		t.Fatalf("movements = %d, want 1", len(movements))
	}
}

func TestReceiveValidation(t *testing.T) {
	svc, _, p := newService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   ReceiveInput
		want apperr.Kind
	}{
		{"zero quantity", ReceiveInput{ProductID: p.ID, Quantity: 0}, apperr.KindInvalid},
		{"negative quantity", ReceiveInput{ProductID: p.ID, Quantity: -5}, apperr.KindInvalid},
		{"missing product", ReceiveInput{Quantity: 5}, apperr.KindInvalid},
		{"unknown product", ReceiveInput{ProductID: "ghost", Quantity: 5}, apperr.KindNotFound},
	}
	for _, tc := range cases {
		_, _, err := svc.Receive(ctx, storeID, "user-1", tc.in)
		if apperr.KindOf(err) != tc.want {
			t.Errorf("%s: kind = %v, want %v", tc.name, apperr.KindOf(err), tc.want)
		}
	}
}

func TestReceiveScopedToStore(t *testing.T) {
	svc, _, p := newService(t)

	_, _, err := svc.Receive(context.Background(), "other-store", "user-1", ReceiveInput{
		ProductID: p.ID,
		Quantity:  5,
	})
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("kind = %v, want not found", apperr.KindOf(err))
	}
}

func TestReceiveKeepsCostWhenNotGiven(t *testing.T) {
	svc, _, p := newService(t)

	updated, _, err := svc.Receive(context.Background(), storeID, "user-1", ReceiveInput{
		ProductID: p.ID,
		Quantity:  5,
	})
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if updated.CostCents != 30 {
		t.Fatalf("cost = %d, want unchanged 30", updated.CostCents)
	}
}

func TestLevels(t *testing.T) {
	svc, mem, p := newService(t)
	ctx := context.Background()

	if _, err := mem.CreateProduct(ctx, product.Product{
		StoreID:      storeID,
		Name:         "Soap",
		StockCount:   2,
		ReorderLevel: 5,
		Active:       true,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	levels, err := svc.Levels(ctx, storeID)
	if err != nil {
		t.Fatalf("levels: %v", err)
	}
	if len(levels) != 2 {
		t.Fatalf("levels = %d, want 2", len(levels))
	}
	byName := map[string]Level{}
	for _, l := range levels {
		byName[l.Name] = l
	}
	if byName["Soap"].Low != true {
		t.Fatal("soap should flag low stock")
	}
	if byName["Sachet Water"].Low {
		t.Fatal("water should not flag low stock")
	}
	if byName["Sachet Water"].ProductID != p.ID {
		t.Fatalf("levels = %+v", levels)
	}
}
