package customers

import (
	"context"
	"testing"
	"time"

	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/sale"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/storage/memory"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/apperr"
)

const storeID = "store-1"

func newService() (*Service, *memory.Store) {
	mem := memory.New()
	return New(mem, mem, nil), mem
}

func TestCreateNormalizesPhone(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	c, err := svc.Create(ctx, storeID, CreateInput{
		Name:  "Akosua Mensah",
		Phone: "+233 24 123 4567",
		Email: "Akosua@Example.com",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Phone != "+233241234567" {
		t.Fatalf("phone = %q", c.Phone)
	}
	if c.Email != "akosua@example.com" {
		t.Fatalf("email = %q", c.Email)
	}

	_, err = svc.Create(ctx, storeID, CreateInput{Name: "Other Person", Phone: "0233241234567"})
	if err != nil {
		t.Fatalf("different digits should not collide: %v", err)
	}
	_, err = svc.Create(ctx, storeID, CreateInput{Name: "Duplicate", Phone: "+233-24-123-4567"})
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("kind = %v, want conflict", apperr.KindOf(err))
	}
}

func TestCreateRequiresName(t *testing.T) {
	svc, _ := newService()

	_, err := svc.Create(context.Background(), storeID, CreateInput{Phone: "024"})
	if apperr.KindOf(err) != apperr.KindInvalid {
		t.Fatalf("kind = %v, want invalid", apperr.KindOf(err))
	}
}

func TestCustomersWithoutPhonesDoNotCollide(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, storeID, CreateInput{Name: "Walk-in A"}); err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, err := svc.Create(ctx, storeID, CreateInput{Name: "Walk-in B"}); err != nil {
		t.Fatalf("second: %v", err)
	}
}

func TestRecordAndUnwindPurchase(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	c, err := svc.Create(ctx, storeID, CreateInput{Name: "Akosua"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	at := time.Date(2025, 5, 12, 14, 30, 0, 0, time.UTC)
	svc.RecordPurchase(ctx, c.ID, 1500, at)
	svc.RecordPurchase(ctx, c.ID, 2500, at.Add(time.Hour))

	got, err := svc.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.PurchaseCount != 2 || got.TotalSpentCents != 4000 {
		t.Fatalf("stats = %d purchases, %d cents", got.PurchaseCount, got.TotalSpentCents)
	}
	if got.LastPurchaseAt == nil || !got.LastPurchaseAt.Equal(at.Add(time.Hour)) {
		t.Fatalf("last purchase = %v", got.LastPurchaseAt)
	}

	svc.UnwindPurchase(ctx, c.ID, 2500)
	got, err = svc.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.PurchaseCount != 1 || got.TotalSpentCents != 1500 {
		t.Fatalf("stats after unwind = %d purchases, %d cents", got.PurchaseCount, got.TotalSpentCents)
	}

	// Unknown customers are a no-op, not an error.
	svc.RecordPurchase(ctx, "ghost", 1000, at)
	svc.UnwindPurchase(ctx, "ghost", 1000)
}

func TestPurchases(t *testing.T) {
	svc, mem := newService()
	ctx := context.Background()

	c, err := svc.Create(ctx, storeID, CreateInput{Name: "Akosua"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := mem.CreateSale(ctx, sale.Sale{
		StoreID:    storeID,
		CashierID:  "user-1",
		CustomerID: c.ID,
		TotalCents: 1500,
		Lines: []sale.Line{{
			ProductID:      "p1",
			Name:           "Soap",
			UnitPriceCents: 1500,
			Quantity:       1,
			LineTotalCents: 1500,
		}},
	}); err != nil {
		t.Fatalf("seed sale: %v", err)
	}

	sales, err := svc.Purchases(ctx, storeID, c.ID, 10)
	if err != nil {
		t.Fatalf("purchases: %v", err)
	}
	if len(sales) != 1 || sales[0].CustomerID != c.ID {
		t.Fatalf("sales = %+v", sales)
	}

	if _, err := svc.Purchases(ctx, storeID, "ghost", 10); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("kind = %v, want not found", apperr.KindOf(err))
	}
}
