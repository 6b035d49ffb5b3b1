package expenses

import (
	"context"
	"testing"
	"time"

	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/storage/memory"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/apperr"
)

const storeID = "store-1"

func newService() *Service {
	return New(memory.New(), nil)
}

func TestCreateValidation(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	cases := []struct {
		name string
		in   CreateInput
	}{
		{"empty category", CreateInput{AmountCents: 500}},
		{"zero amount", CreateInput{Category: "Fuel"}},
		{"negative amount", CreateInput{Category: "Fuel", AmountCents: -200}},
	}
	for _, tc := range cases {
		if _, err := svc.Create(ctx, storeID, "user-1", tc.in); apperr.KindOf(err) != apperr.KindInvalid {
			t.Errorf("%s: kind = %v, want invalid", tc.name, apperr.KindOf(err))
		}
	}
}

func TestCreateDefaultsIncurredAt(t *testing.T) {
	svc := newService()

	before := time.Now().UTC()
	e, err := svc.Create(context.Background(), storeID, "user-1", CreateInput{
		Category:    "Fuel",
		AmountCents: 5000,
		Note:        "generator diesel",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if e.IncurredAt.Before(before) {
		t.Fatalf("incurred at %v predates creation", e.IncurredAt)
	}
	if e.RecordedBy != "user-1" {
		t.Fatalf("recorded by = %q", e.RecordedBy)
	}
}

func TestListRange(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	day := func(d int) time.Time {
		return time.Date(2025, 5, d, 12, 0, 0, 0, time.UTC)
	}
	for d := 1; d <= 3; d++ {
		if _, err := svc.Create(ctx, storeID, "user-1", CreateInput{
			Category:    "Rent",
			AmountCents: 1000,
			IncurredAt:  day(d),
		}); err != nil {
			t.Fatalf("create day %d: %v", d, err)
		}
	}

	got, err := svc.List(ctx, storeID, day(2), day(3))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expenses in [d2, d3) = %d, want 1", len(got))
	}

	all, err := svc.List(ctx, storeID, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("all expenses = %d, want 3", len(all))
	}
}

func TestUpdateAndDelete(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	e, err := svc.Create(ctx, storeID, "user-1", CreateInput{Category: "Fuel", AmountCents: 5000})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	amount := int64(5500)
	updated, err := svc.Update(ctx, e.ID, UpdateInput{AmountCents: &amount})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.AmountCents != 5500 {
		t.Fatalf("amount = %d", updated.AmountCents)
	}

	bad := int64(0)
	if _, err := svc.Update(ctx, e.ID, UpdateInput{AmountCents: &bad}); apperr.KindOf(err) != apperr.KindInvalid {
		t.Fatalf("kind = %v, want invalid", apperr.KindOf(err))
	}

	if err := svc.Delete(ctx, e.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, e.ID); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("kind = %v, want not found", apperr.KindOf(err))
	}
}
