// Package stores manages the tenant boundary: store records, team
// membership, and the access checks every scoped request goes through.
package stores

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/store"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/storage"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/apperr"
	"github.com/learngermanghana/sedifexbiz-sub004/pkg/logger"

	billingsvc "github.com/learngermanghana/sedifexbiz-sub004/internal/app/services/billing"
)

// DefaultCurrency is assumed when onboarding does not name one.
const DefaultCurrency = "GHS"

const maxSlugAttempts = 25

// Service manages stores and their teams.
type Service struct {
	tenants storage.TenantStore
	users   storage.UserStore
	billing *billingsvc.Service
	log     *logger.Logger
}

// New constructs a stores service.
func New(tenants storage.TenantStore, users storage.UserStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("stores")
	}
	return &Service{tenants: tenants, users: users, log: log}
}

// AttachDependencies wires the billing service so onboarding can open a
// trial and team changes can respect seat limits.
func (s *Service) AttachDependencies(billing *billingsvc.Service) {
	s.billing = billing
}

// InitializeInput carries store onboarding fields.
type InitializeInput struct {
	Name          string `json:"name"`
	Currency      string `json:"currency"`
	Address       string `json:"address"`
	Phone         string `json:"phone"`
	ReceiptFooter string `json:"receipt_footer"`
}

// Initialize creates the store, its owner membership, and a trial
// subscription in one step. The slug is derived from the name and
// suffixed until unique.
func (s *Service) Initialize(ctx context.Context, userID string, in InitializeInput) (store.Store, store.Membership, error) {
	name := strings.TrimSpace(in.Name)
	if userID == "" {
		return store.Store{}, store.Membership{}, apperr.Invalid("user_id is required")
	}
	if name == "" {
		return store.Store{}, store.Membership{}, apperr.Invalid("store name is required")
	}
	currency, err := normalizeCurrency(in.Currency)
	if err != nil {
		return store.Store{}, store.Membership{}, err
	}

	base := Slugify(name)
	var created store.Store
	for attempt := 0; ; attempt++ {
		if attempt == maxSlugAttempts {
			return store.Store{}, store.Membership{}, apperr.Conflict("could not find a free slug for %q", name)
		}
		candidate := base
		if attempt > 0 {
			candidate = fmt.Sprintf("%s-%d", base, attempt+1)
		}
		created, err = s.tenants.CreateStore(ctx, store.Store{
			Name:          name,
			Slug:          candidate,
			Currency:      currency,
			Address:       strings.TrimSpace(in.Address),
			Phone:         strings.TrimSpace(in.Phone),
			ReceiptFooter: strings.TrimSpace(in.ReceiptFooter),
			CreatedBy:     userID,
		})
		if errors.Is(err, storage.ErrDuplicate) {
			continue
		}
		if err != nil {
			return store.Store{}, store.Membership{}, err
		}
		break
	}

	membership, err := s.tenants.CreateMembership(ctx, store.Membership{
		StoreID:   created.ID,
		UserID:    userID,
		Role:      store.RoleOwner,
		InvitedBy: userID,
	})
	if err != nil {
		return store.Store{}, store.Membership{}, err
	}

	if s.billing != nil {
		if _, err := s.billing.StartTrial(ctx, created.ID); err != nil && apperr.KindOf(err) != apperr.KindConflict {
			return store.Store{}, store.Membership{}, err
		}
	}

	s.log.WithField("store_id", created.ID).
		WithField("slug", created.Slug).
		WithField("owner_id", userID).
		Info("store initialized")
	return created, membership, nil
}

// Get returns the store.
func (s *Service) Get(ctx context.Context, storeID string) (store.Store, error) {
	return s.tenants.GetStore(ctx, storeID)
}

// GetBySlug returns the store with the given slug. Slugs are the
// human-facing handle, so back-office tooling resolves through here.
func (s *Service) GetBySlug(ctx context.Context, slug string) (store.Store, error) {
	return s.tenants.GetStoreBySlug(ctx, slug)
}

// UpdateInput carries store profile changes. Nil fields are left
// unchanged; the slug never changes after onboarding.
type UpdateInput struct {
	Name          *string `json:"name,omitempty"`
	Currency      *string `json:"currency,omitempty"`
	Address       *string `json:"address,omitempty"`
	Phone         *string `json:"phone,omitempty"`
	ReceiptFooter *string `json:"receipt_footer,omitempty"`
}

// Update applies profile changes to the store.
func (s *Service) Update(ctx context.Context, storeID string, in UpdateInput) (store.Store, error) {
	st, err := s.tenants.GetStore(ctx, storeID)
	if err != nil {
		return store.Store{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return store.Store{}, apperr.Invalid("store name cannot be empty")
		}
		st.Name = name
	}
	if in.Currency != nil {
		currency, err := normalizeCurrency(*in.Currency)
		if err != nil {
			return store.Store{}, err
		}
		st.Currency = currency
	}
	if in.Address != nil {
		st.Address = strings.TrimSpace(*in.Address)
	}
	if in.Phone != nil {
		st.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.ReceiptFooter != nil {
		st.ReceiptFooter = strings.TrimSpace(*in.ReceiptFooter)
	}

	updated, err := s.tenants.UpdateStore(ctx, st)
	if err != nil {
		return store.Store{}, err
	}
	s.log.WithField("store_id", storeID).Info("store updated")
	return updated, nil
}

// ResolveAccess returns the caller's store and membership. With an
// empty storeID the user's oldest membership decides the default
// store.
func (s *Service) ResolveAccess(ctx context.Context, userID, storeID string) (store.Store, store.Membership, error) {
	if storeID != "" {
		m, err := s.tenants.GetMembership(ctx, storeID, userID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return store.Store{}, store.Membership{}, apperr.Forbidden("not a member of this store")
			}
			return store.Store{}, store.Membership{}, err
		}
		st, err := s.tenants.GetStore(ctx, storeID)
		if err != nil {
			return store.Store{}, store.Membership{}, err
		}
		return st, m, nil
	}

	memberships, err := s.tenants.ListMembershipsByUser(ctx, userID)
	if err != nil {
		return store.Store{}, store.Membership{}, err
	}
	if len(memberships) == 0 {
		return store.Store{}, store.Membership{}, apperr.Unauthorized("no store membership")
	}

	oldest := memberships[0]
	for _, m := range memberships[1:] {
		if m.CreatedAt.Before(oldest.CreatedAt) {
			oldest = m
		}
	}
	st, err := s.tenants.GetStore(ctx, oldest.StoreID)
	if err != nil {
		return store.Store{}, store.Membership{}, err
	}
	return st, oldest, nil
}

// ListForUser returns every store the user belongs to.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]store.Store, error) {
	return s.tenants.ListStoresByUser(ctx, userID)
}

// Member pairs a membership with the user details the team page shows.
type Member struct {
	Membership  store.Membership `json:"membership"`
	Email       string           `json:"email"`
	DisplayName string           `json:"display_name"`
}

// ListMembers returns the store's team with user details resolved.
func (s *Service) ListMembers(ctx context.Context, storeID string) ([]Member, error) {
	memberships, err := s.tenants.ListMemberships(ctx, storeID)
	if err != nil {
		return nil, err
	}

	members := make([]Member, 0, len(memberships))
	for _, m := range memberships {
		member := Member{Membership: m}
		if u, err := s.users.GetUser(ctx, m.UserID); err == nil {
			member.Email = u.Email
			member.DisplayName = u.DisplayName
		} else {
			s.log.WithField("user_id", m.UserID).Warn("member user record missing")
		}
		members = append(members, member)
	}
	return members, nil
}

// AddMember adds an existing user to the team by email. The billing
// plan's seat limit caps the team size.
func (s *Service) AddMember(ctx context.Context, storeID, invitedBy, email string, role store.Role) (store.Membership, error) {
	if !role.Valid() {
		return store.Membership{}, apperr.Invalid("unknown role %q", role)
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return store.Membership{}, apperr.Invalid("email is required")
	}

	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return store.Membership{}, apperr.NotFound("no account exists for %s; they must register first", email)
		}
		return store.Membership{}, err
	}

	if s.billing != nil {
		plan, err := s.billing.PlanFor(ctx, storeID)
		if err != nil && apperr.KindOf(err) != apperr.KindNotFound {
			return store.Membership{}, err
		}
		if plan.SeatLimit > 0 {
			current, err := s.tenants.ListMemberships(ctx, storeID)
			if err != nil {
				return store.Membership{}, err
			}
			if len(current) >= plan.SeatLimit {
				return store.Membership{}, apperr.PaymentRequired("the %s plan allows %d team members", plan.Name, plan.SeatLimit)
			}
		}
	}

	m, err := s.tenants.CreateMembership(ctx, store.Membership{
		StoreID:   storeID,
		UserID:    u.ID,
		Role:      role,
		InvitedBy: invitedBy,
	})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return store.Membership{}, apperr.Conflict("%s is already a member", email)
		}
		return store.Membership{}, err
	}

	s.log.WithField("store_id", storeID).
		WithField("user_id", u.ID).
		WithField("role", string(role)).
		Info("member added")
	return m, nil
}

// UpdateMemberRole changes a member's role, refusing to demote the
// last owner.
func (s *Service) UpdateMemberRole(ctx context.Context, storeID, userID string, role store.Role) (store.Membership, error) {
	if !role.Valid() {
		return store.Membership{}, apperr.Invalid("unknown role %q", role)
	}

	m, err := s.tenants.GetMembership(ctx, storeID, userID)
	if err != nil {
		return store.Membership{}, err
	}
	if m.Role == role {
		return m, nil
	}
	if m.Role == store.RoleOwner && role != store.RoleOwner {
		if err := s.ensureAnotherOwner(ctx, storeID, userID); err != nil {
			return store.Membership{}, err
		}
	}

	m.Role = role
	updated, err := s.tenants.UpdateMembership(ctx, m)
	if err != nil {
		return store.Membership{}, err
	}

	s.log.WithField("store_id", storeID).
		WithField("user_id", userID).
		WithField("role", string(role)).
		Info("member role updated")
	return updated, nil
}

// RemoveMember removes a member, refusing to remove the last owner.
func (s *Service) RemoveMember(ctx context.Context, storeID, userID string) error {
	m, err := s.tenants.GetMembership(ctx, storeID, userID)
	if err != nil {
		return err
	}
	if m.Role == store.RoleOwner {
		if err := s.ensureAnotherOwner(ctx, storeID, userID); err != nil {
			return err
		}
	}
	if err := s.tenants.DeleteMembership(ctx, m.ID); err != nil {
		return err
	}

	s.log.WithField("store_id", storeID).
		WithField("user_id", userID).
		Info("member removed")
	return nil
}

func (s *Service) ensureAnotherOwner(ctx context.Context, storeID, exceptUserID string) error {
	memberships, err := s.tenants.ListMemberships(ctx, storeID)
	if err != nil {
		return err
	}
	for _, m := range memberships {
		if m.Role == store.RoleOwner && m.UserID != exceptUserID {
			return nil
		}
	}
	return apperr.Conflict("a store must retain at least one owner")
}

func normalizeCurrency(raw string) (string, error) {
	currency := strings.ToUpper(strings.TrimSpace(raw))
	if currency == "" {
		return DefaultCurrency, nil
	}
	if len(currency) != 3 {
		return "", apperr.Invalid("currency must be a 3-letter ISO code, got %q", raw)
	}
	for _, r := range currency {
		if r < 'A' || r > 'Z' {
			return "", apperr.Invalid("currency must be a 3-letter ISO code, got %q", raw)
		}
	}
	return currency, nil
}

// Slugify lowers a name into a URL- and filename-safe slug.
func Slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		slug = "store"
	}
	return slug
}
