package sync

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/billing"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/oplog"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/product"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/sale"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/user"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/services/customers"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/services/expenses"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/services/products"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/services/sales"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/storage"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/storage/memory"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/apperr"

	billingsvc "github.com/learngermanghana/sedifexbiz-sub004/internal/app/services/billing"
)

const (
	storeID  = "store-1"
	deviceID = "till-1"
	actorID  = "user-1"
)

func newService(t *testing.T) (*Service, *memory.Store, product.Product) {
	t.Helper()
	mem := memory.New()

	svc := New(mem, nil)
	svc.AttachDependencies(
		sales.New(mem, mem, mem, nil),
		products.New(mem, mem, nil),
		customers.New(mem, mem, nil),
		expenses.New(mem, nil),
	)

	p, err := mem.CreateProduct(context.Background(), product.Product{
		StoreID:    storeID,
		Name:       "Key Soap",
		SKU:        "SOAP-1",
		PriceCents: 500,
		StockCount: 10,
		Active:     true,
	})
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return svc, mem, p
}

func saleOp(t *testing.T, opID, productID string, qty int, queuedAt time.Time) QueuedOp {
	t.Helper()
	payload, err := json.Marshal(sales.CommitInput{
		Lines:         []sales.LineInput{{ProductID: productID, Quantity: qty}},
		PaymentMethod: sale.PaymentCash,
	})
	if err != nil {
		t.Fatalf("marshal sale payload: %v", err)
	}
	return QueuedOp{OpID: opID, Kind: OpSaleCommit, QueuedAt: queuedAt, Payload: payload}
}

func TestReplayAppliesSaleCommit(t *testing.T) {
	svc, mem, p := newService(t)
	ctx := context.Background()

	queuedAt := time.Now().UTC().Add(-26 * time.Hour).Truncate(time.Second)
	results, err := svc.Replay(ctx, storeID, deviceID, actorID, []QueuedOp{
		saleOp(t, "q-0001", p.ID, 2, queuedAt),
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	res := results[0]
	if res.Status != oplog.StatusApplied {
		t.Fatalf("status = %q (%s), want applied", res.Status, res.Error)
	}
	if res.ResultID == "" {
		t.Fatal("expected a result id for the committed sale")
	}

	// The op id doubles as the idempotency ref, and the sale is
	// backdated to when the terminal queued it.
	committed, err := mem.GetSaleByClientRef(ctx, storeID, "q-0001")
	if err != nil {
		t.Fatalf("sale by client ref: %v", err)
	}
	if committed.ID != res.ResultID {
		t.Fatalf("sale id = %s, want %s", committed.ID, res.ResultID)
	}
	if !committed.CreatedAt.Equal(queuedAt) {
		t.Fatalf("created at = %v, want %v", committed.CreatedAt, queuedAt)
	}

	got, err := mem.GetProduct(ctx, p.ID)
	if err != nil {
		t.Fatalf("product: %v", err)
	}
	if got.StockCount != 8 {
		t.Fatalf("stock = %d, want 8", got.StockCount)
	}
}

func TestReplayDedupsByOpID(t *testing.T) {
	svc, mem, p := newService(t)
	ctx := context.Background()

	batch := []QueuedOp{saleOp(t, "q-0002", p.ID, 3, time.Now().UTC())}

	first, err := svc.Replay(ctx, storeID, deviceID, actorID, batch)
	if err != nil {
		t.Fatalf("first replay: %v", err)
	}
	if first[0].Status != oplog.StatusApplied {
		t.Fatalf("first status = %q (%s)", first[0].Status, first[0].Error)
	}

	// Resent from another till after a crash mid-upload.
	second, err := svc.Replay(ctx, storeID, "till-2", actorID, batch)
	if err != nil {
		t.Fatalf("second replay: %v", err)
	}
	if second[0].Status != oplog.StatusDuplicate {
		t.Fatalf("second status = %q, want duplicate", second[0].Status)
	}
	if second[0].ResultID != first[0].ResultID {
		t.Fatalf("result id = %s, want %s", second[0].ResultID, first[0].ResultID)
	}

	got, err := mem.GetProduct(ctx, p.ID)
	if err != nil {
		t.Fatalf("product: %v", err)
	}
	if got.StockCount != 7 {
		t.Fatalf("stock = %d, want 7 (decremented once)", got.StockCount)
	}
}

func TestReplayRecordsFailedOutcomes(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	payload, _ := json.Marshal(map[string]any{
		"product_id": "ghost",
		"delta":      -2,
		"reason":     "spoilage",
	})
	batch := []QueuedOp{{OpID: "q-0003", Kind: OpProductAdjust, QueuedAt: time.Now().UTC(), Payload: payload}}

	first, err := svc.Replay(ctx, storeID, deviceID, actorID, batch)
	if err != nil {
		t.Fatalf("first replay: %v", err)
	}
	if first[0].Status != oplog.StatusFailed {
		t.Fatalf("first status = %q, want failed", first[0].Status)
	}
	if first[0].Error == "" {
		t.Fatal("expected an error message on the failed op")
	}

	second, err := svc.Replay(ctx, storeID, deviceID, actorID, batch)
	if err != nil {
		t.Fatalf("second replay: %v", err)
	}
	if second[0].Status != oplog.StatusDuplicate {
		t.Fatalf("second status = %q, want duplicate", second[0].Status)
	}
	if second[0].Error != first[0].Error {
		t.Fatalf("duplicate error = %q, want original %q", second[0].Error, first[0].Error)
	}
}

func TestReplayRetriesEntitlementFailures(t *testing.T) {
	svc, mem, p := newService(t)
	ctx := context.Background()

	if _, err := mem.CreateSubscription(ctx, billing.Subscription{
		StoreID:     storeID,
		Plan:        billing.PlanPro,
		Status:      billing.StatusTrialing,
		TrialEndsAt: time.Now().UTC().Add(-time.Hour),
	}); err != nil {
		t.Fatalf("subscription: %v", err)
	}
	svc.sales.AttachDependencies(billingsvc.New(mem, nil, "", nil), nil, nil)

	batch := []QueuedOp{saleOp(t, "q-0004", p.ID, 1, time.Now().UTC())}

	first, err := svc.Replay(ctx, storeID, deviceID, actorID, batch)
	if err != nil {
		t.Fatalf("first replay: %v", err)
	}
	if first[0].Status != oplog.StatusFailed {
		t.Fatalf("first status = %q, want failed", first[0].Status)
	}

	// No ledger row: the op stays retryable once the store subscribes.
	if _, err := mem.GetOpRecord(ctx, storeID, "q-0004"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("op record err = %v, want not found", err)
	}

	sub, err := mem.GetSubscriptionByStore(ctx, storeID)
	if err != nil {
		t.Fatalf("get subscription: %v", err)
	}
	sub.Status = billing.StatusActive
	sub.TrialEndsAt = time.Time{}
	sub.PeriodEndsAt = time.Now().UTC().Add(30 * 24 * time.Hour)
	if _, err := mem.UpdateSubscription(ctx, sub); err != nil {
		t.Fatalf("update subscription: %v", err)
	}

	second, err := svc.Replay(ctx, storeID, deviceID, actorID, batch)
	if err != nil {
		t.Fatalf("second replay: %v", err)
	}
	if second[0].Status != oplog.StatusApplied {
		t.Fatalf("second status = %q (%s), want applied", second[0].Status, second[0].Error)
	}
}

func TestReplayMixedBatch(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	queuedAt := time.Now().UTC().Add(-2 * time.Hour).Truncate(time.Second)
	customerPayload, _ := json.Marshal(customers.CreateInput{Name: "Ama Serwaa", Phone: "+233241234567"})
	expensePayload, _ := json.Marshal(expenses.CreateInput{Category: "Transport", AmountCents: 1500})

	results, err := svc.Replay(ctx, storeID, deviceID, actorID, []QueuedOp{
		{OpID: "q-0005", Kind: OpCustomerCreate, QueuedAt: queuedAt, Payload: customerPayload},
		{OpID: "q-0006", Kind: "inventory.count", QueuedAt: queuedAt, Payload: []byte(`{}`)},
		{OpID: "q-0007", Kind: OpExpenseCreate, QueuedAt: queuedAt, Payload: expensePayload},
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}

	if results[0].Status != oplog.StatusApplied {
		t.Fatalf("customer op status = %q (%s)", results[0].Status, results[0].Error)
	}
	if results[1].Status != oplog.StatusFailed {
		t.Fatalf("unknown op status = %q, want failed", results[1].Status)
	}
	if results[2].Status != oplog.StatusApplied {
		t.Fatalf("expense op status = %q (%s)", results[2].Status, results[2].Error)
	}

	c, err := svc.customers.Get(ctx, results[0].ResultID)
	if err != nil {
		t.Fatalf("customer: %v", err)
	}
	if c.Name != "Ama Serwaa" {
		t.Fatalf("customer name = %q", c.Name)
	}

	e, err := svc.expenses.Get(ctx, results[2].ResultID)
	if err != nil {
		t.Fatalf("expense: %v", err)
	}
	if !e.IncurredAt.Equal(queuedAt) {
		t.Fatalf("incurred at = %v, want queue time %v", e.IncurredAt, queuedAt)
	}
}

func TestReplayRequiresOpID(t *testing.T) {
	svc, _, p := newService(t)

	op := saleOp(t, "", p.ID, 1, time.Now().UTC())
	results, err := svc.Replay(context.Background(), storeID, deviceID, actorID, []QueuedOp{op})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if results[0].Status != oplog.StatusFailed {
		t.Fatalf("status = %q, want failed", results[0].Status)
	}
}

func TestReplayCapsBatchSize(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.Replay(context.Background(), storeID, deviceID, actorID, make([]QueuedOp, maxReplayBatch+1))
	if apperr.KindOf(err) != apperr.KindInvalid {
		t.Fatalf("kind = %v, want invalid", apperr.KindOf(err))
	}
}

func TestPullReturnsChangesSince(t *testing.T) {
	svc, mem, p := newService(t)
	ctx := context.Background()

	custSvc := customers.New(mem, mem, nil)
	if _, err := custSvc.Create(ctx, storeID, customers.CreateInput{Name: "Kojo"}); err != nil {
		t.Fatalf("customer: %v", err)
	}

	before := time.Now().UTC()
	res, err := svc.Pull(ctx, storeID, time.Now().UTC().Add(-time.Hour))
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if len(res.Products) != 1 || res.Products[0].ID != p.ID {
		t.Fatalf("products = %+v, want the seeded one", res.Products)
	}
	if len(res.Customers) != 1 {
		t.Fatalf("customers = %d, want 1", len(res.Customers))
	}
	if res.Now.Before(before) {
		t.Fatalf("now = %v, want >= %v", res.Now, before)
	}

	empty, err := svc.Pull(ctx, storeID, time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("pull future: %v", err)
	}
	if len(empty.Products) != 0 || len(empty.Customers) != 0 {
		t.Fatalf("future pull = %d products, %d customers, want none", len(empty.Products), len(empty.Customers))
	}
}

func TestJanitorSweeps(t *testing.T) {
	mem := memory.New()
	ctx := context.Background()

	if _, err := mem.CreateOpRecord(ctx, oplog.Record{
		StoreID: storeID,
		OpID:    "q-old",
		Kind:    OpSaleCommit,
		Status:  oplog.StatusApplied,
	}); err != nil {
		t.Fatalf("op record: %v", err)
	}
	if _, err := mem.CreateSession(ctx, user.Session{
		UserID:    actorID,
		TokenHash: "stale",
		ExpiresAt: time.Now().UTC().Add(-time.Hour),
	}); err != nil {
		t.Fatalf("stale session: %v", err)
	}
	if _, err := mem.CreateSession(ctx, user.Session{
		UserID:    actorID,
		TokenHash: "live",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}); err != nil {
		t.Fatalf("live session: %v", err)
	}

	// With a nanosecond retention everything written above is already
	// past the window by the time the janitor runs its startup sweep.
	time.Sleep(10 * time.Millisecond)

	j := NewJanitor(mem, mem, time.Nanosecond, nil)
	if err := j.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := j.Start(ctx); err != nil {
		t.Fatalf("second start: %v", err)
	}
	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := j.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	if _, err := mem.GetOpRecord(ctx, storeID, "q-old"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("op record err = %v, want not found", err)
	}
	if _, err := mem.GetSessionByTokenHash(ctx, "stale"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("stale session err = %v, want not found", err)
	}
	if _, err := mem.GetSessionByTokenHash(ctx, "live"); err != nil {
		t.Fatalf("live session err = %v, want kept", err)
	}
}

func TestNewJanitorDefaultsRetention(t *testing.T) {
	j := NewJanitor(memory.New(), memory.New(), 0, nil)
	if j.retention != 30*24*time.Hour {
		t.Fatalf("retention = %v, want 30 days", j.retention)
	}
}
