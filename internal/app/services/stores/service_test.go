package stores

import (
	"context"
	"testing"

	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/billing"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/store"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/user"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/storage/memory"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/apperr"

	billingsvc "github.com/learngermanghana/sedifexbiz-sub004/internal/app/services/billing"
)

func newService() (*Service, *memory.Store) {
	mem := memory.New()
	svc := New(mem, mem, nil)
	svc.AttachDependencies(billingsvc.New(mem, nil, "", nil))
	return svc, mem
}

func seedUser(t *testing.T, mem *memory.Store, email string) user.User {
	t.Helper()
	u, err := mem.CreateUser(context.Background(), user.User{
		Email:       email,
		DisplayName: "Test User",
		Status:      user.StatusActive,
	})
	if err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return u
}

func TestInitializeCreatesStoreOwnerAndTrial(t *testing.T) {
	svc, mem := newService()
	ctx := context.Background()
	owner := seedUser(t, mem, "owner@example.com")

	st, m, err := svc.Initialize(ctx, owner.ID, InitializeInput{Name: "Ama's Corner Shop"})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if st.Slug != "ama-s-corner-shop" {
		t.Fatalf("slug = %q", st.Slug)
	}
	if st.Currency != DefaultCurrency {
		t.Fatalf("currency = %q, want %q", st.Currency, DefaultCurrency)
	}
	if m.Role != store.RoleOwner || m.UserID != owner.ID {
		t.Fatalf("owner membership = %+v", m)
	}

	sub, err := mem.GetSubscriptionByStore(ctx, st.ID)
	if err != nil {
		t.Fatalf("trial subscription missing: %v", err)
	}
	if sub.Status != billing.StatusTrialing {
		t.Fatalf("subscription status = %q, want trialing", sub.Status)
	}
}

func TestInitializeSuffixesSlugOnCollision(t *testing.T) {
	svc, mem := newService()
	ctx := context.Background()
	owner := seedUser(t, mem, "owner@example.com")

	first, _, err := svc.Initialize(ctx, owner.ID, InitializeInput{Name: "Corner Shop"})
	if err != nil {
		t.Fatalf("first store: %v", err)
	}
	second, _, err := svc.Initialize(ctx, owner.ID, InitializeInput{Name: "Corner Shop"})
	if err != nil {
		t.Fatalf("second store: %v", err)
	}
	if first.Slug != "corner-shop" || second.Slug != "corner-shop-2" {
		t.Fatalf("slugs = %q, %q", first.Slug, second.Slug)
	}
}

func TestResolveAccess(t *testing.T) {
	svc, mem := newService()
	ctx := context.Background()
	owner := seedUser(t, mem, "owner@example.com")
	stranger := seedUser(t, mem, "stranger@example.com")

	st, _, err := svc.Initialize(ctx, owner.ID, InitializeInput{Name: "Corner Shop"})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	resolved, m, err := svc.ResolveAccess(ctx, owner.ID, "")
	if err != nil {
		t.Fatalf("resolve default store: %v", err)
	}
	if resolved.ID != st.ID || m.Role != store.RoleOwner {
		t.Fatalf("resolved = %+v, membership = %+v", resolved, m)
	}

	if _, _, err := svc.ResolveAccess(ctx, stranger.ID, ""); apperr.KindOf(err) != apperr.KindUnauthorized {
		t.Fatalf("no membership kind = %v, want unauthorized", apperr.KindOf(err))
	}
	if _, _, err := svc.ResolveAccess(ctx, stranger.ID, st.ID); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("foreign store kind = %v, want forbidden", apperr.KindOf(err))
	}
}

func TestUpdateNormalizesCurrency(t *testing.T) {
	svc, mem := newService()
	ctx := context.Background()
	owner := seedUser(t, mem, "owner@example.com")

	st, _, err := svc.Initialize(ctx, owner.ID, InitializeInput{Name: "Corner Shop"})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	currency := "usd"
	updated, err := svc.Update(ctx, st.ID, UpdateInput{Currency: &currency})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Currency != "USD" {
		t.Fatalf("currency = %q, want USD", updated.Currency)
	}
	if updated.Slug != st.Slug {
		t.Fatalf("slug changed: %q -> %q", st.Slug, updated.Slug)
	}

	bad := "cedis"
	if _, err := svc.Update(ctx, st.ID, UpdateInput{Currency: &bad}); apperr.KindOf(err) != apperr.KindInvalid {
		t.Fatalf("kind = %v, want invalid", apperr.KindOf(err))
	}
}

func TestAddMember(t *testing.T) {
	svc, mem := newService()
	ctx := context.Background()
	owner := seedUser(t, mem, "owner@example.com")
	cashier := seedUser(t, mem, "cashier@example.com")

	st, _, err := svc.Initialize(ctx, owner.ID, InitializeInput{Name: "Corner Shop"})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	m, err := svc.AddMember(ctx, st.ID, owner.ID, "Cashier@Example.com", store.RoleCashier)
	if err != nil {
		t.Fatalf("add member: %v", err)
	}
	if m.UserID != cashier.ID || m.Role != store.RoleCashier {
		t.Fatalf("membership = %+v", m)
	}

	if _, err := svc.AddMember(ctx, st.ID, owner.ID, cashier.Email, store.RoleCashier); apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("duplicate kind = %v, want conflict", apperr.KindOf(err))
	}
	if _, err := svc.AddMember(ctx, st.ID, owner.ID, "nobody@example.com", store.RoleCashier); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("unknown user kind = %v, want not found", apperr.KindOf(err))
	}
	if _, err := svc.AddMember(ctx, st.ID, owner.ID, cashier.Email, "janitor"); apperr.KindOf(err) != apperr.KindInvalid {
		t.Fatalf("bad role kind = %v, want invalid", apperr.KindOf(err))
	}
}

func TestAddMemberSeatLimit(t *testing.T) {
	svc, mem := newService()
	ctx := context.Background()
	owner := seedUser(t, mem, "owner@example.com")

	st, _, err := svc.Initialize(ctx, owner.ID, InitializeInput{Name: "Corner Shop"})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	// Drop the store onto the free plan, which caps seats.
	sub, err := mem.GetSubscriptionByStore(ctx, st.ID)
	if err != nil {
		t.Fatalf("subscription: %v", err)
	}
	sub.Plan = billing.PlanFree
	sub.Status = billing.StatusActive
	if _, err := mem.UpdateSubscription(ctx, sub); err != nil {
		t.Fatalf("downgrade: %v", err)
	}

	second := seedUser(t, mem, "second@example.com")
	third := seedUser(t, mem, "third@example.com")
	fourth := seedUser(t, mem, "fourth@example.com")

	if _, err := svc.AddMember(ctx, st.ID, owner.ID, second.Email, store.RoleManager); err != nil {
		t.Fatalf("second member: %v", err)
	}
	if _, err := svc.AddMember(ctx, st.ID, owner.ID, third.Email, store.RoleCashier); err != nil {
		t.Fatalf("third member: %v", err)
	}
	_, err = svc.AddMember(ctx, st.ID, owner.ID, fourth.Email, store.RoleCashier)
	if apperr.KindOf(err) != apperr.KindPaymentRequired {
		t.Fatalf("fourth member kind = %v, want payment required", apperr.KindOf(err))
	}
}

func TestLastOwnerRule(t *testing.T) {
	svc, mem := newService()
	ctx := context.Background()
	owner := seedUser(t, mem, "owner@example.com")
	partner := seedUser(t, mem, "partner@example.com")

	st, _, err := svc.Initialize(ctx, owner.ID, InitializeInput{Name: "Corner Shop"})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	if _, err := svc.UpdateMemberRole(ctx, st.ID, owner.ID, store.RoleCashier); apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("demote last owner kind = %v, want conflict", apperr.KindOf(err))
	}
	if err := svc.RemoveMember(ctx, st.ID, owner.ID); apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("remove last owner kind = %v, want conflict", apperr.KindOf(err))
	}

	if _, err := svc.AddMember(ctx, st.ID, owner.ID, partner.Email, store.RoleOwner); err != nil {
		t.Fatalf("add second owner: %v", err)
	}
	if _, err := svc.UpdateMemberRole(ctx, st.ID, owner.ID, store.RoleManager); err != nil {
		t.Fatalf("demote with second owner present: %v", err)
	}
	if err := svc.RemoveMember(ctx, st.ID, partner.ID); apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("partner is now the last owner; kind = %v, want conflict", apperr.KindOf(err))
	}
}

func TestListMembersResolvesUsers(t *testing.T) {
	svc, mem := newService()
	ctx := context.Background()
	owner := seedUser(t, mem, "owner@example.com")

	st, _, err := svc.Initialize(ctx, owner.ID, InitializeInput{Name: "Corner Shop"})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	members, err := svc.ListMembers(ctx, st.ID)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(members) != 1 || members[0].Email != owner.Email {
		t.Fatalf("members = %+v", members)
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Ama's Corner Shop": "ama-s-corner-shop",
		"  KOFI & SONS  ":   "kofi-sons",
		"!!!":               "store",
		"Shop24":            "shop24",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}
