// Package billing tracks each store's subscription and answers the one
// question the rest of the system asks: may this store still write?
package billing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/tidwall/gjson"

	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/billing"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/storage"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/apperr"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/config"
	"github.com/learngermanghana/sedifexbiz-sub004/pkg/logger"
)

// Service manages subscriptions against the configured plan catalogue.
type Service struct {
	subs          storage.SubscriptionStore
	plans         *config.PlansConfig
	webhookSecret string
	log           *logger.Logger
}

// New constructs a billing service. A nil plan catalogue falls back to
// the built-in plans.
func New(subs storage.SubscriptionStore, plans *config.PlansConfig, webhookSecret string, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("billing")
	}
	if plans == nil {
		plans = config.DefaultPlansConfig()
	}
	return &Service{subs: subs, plans: plans, webhookSecret: webhookSecret, log: log}
}

// StartTrial opens the subscription for a new store: a pro trial when
// the catalogue offers one, otherwise the free plan.
func (s *Service) StartTrial(ctx context.Context, storeID string) (billing.Subscription, error) {
	if storeID == "" {
		return billing.Subscription{}, apperr.Invalid("store_id is required")
	}

	now := time.Now().UTC()
	sub := billing.Subscription{
		StoreID: storeID,
		Plan:    billing.PlanFree,
		Status:  billing.StatusActive,
	}
	if pro, ok := s.plans.Plan(billing.PlanPro); ok && pro.TrialDays > 0 {
		sub.Plan = billing.PlanPro
		sub.Status = billing.StatusTrialing
		sub.TrialEndsAt = now.Add(time.Duration(pro.TrialDays) * 24 * time.Hour)
	}

	created, err := s.subs.CreateSubscription(ctx, sub)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return billing.Subscription{}, apperr.Conflict("store %s already has a subscription", storeID)
		}
		return billing.Subscription{}, err
	}

	s.log.WithField("store_id", storeID).
		WithField("plan", string(created.Plan)).
		Info("subscription opened")
	return created, nil
}

// Subscription returns the store's subscription.
func (s *Service) Subscription(ctx context.Context, storeID string) (billing.Subscription, error) {
	return s.subs.GetSubscriptionByStore(ctx, storeID)
}

// PlanFor resolves the store's current plan limits. Plans missing from
// the catalogue fall back to the free plan so stale data cannot grant
// unlimited seats.
func (s *Service) PlanFor(ctx context.Context, storeID string) (billing.Plan, error) {
	sub, err := s.subs.GetSubscriptionByStore(ctx, storeID)
	if err != nil {
		return billing.Plan{}, err
	}
	if plan, ok := s.plans.Plan(sub.Plan); ok {
		return plan, nil
	}
	if plan, ok := s.plans.Plan(billing.PlanFree); ok {
		return plan, nil
	}
	return billing.Plan{Name: sub.Plan}, nil
}

// EnsureEntitled returns nil when the store may record new trade, and
// a payment-required error when its trial or billing period has run
// out.
func (s *Service) EnsureEntitled(ctx context.Context, storeID string) error {
	sub, err := s.subs.GetSubscriptionByStore(ctx, storeID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.PaymentRequired("store has no subscription")
		}
		return err
	}
	if sub.Entitled(time.Now().UTC()) {
		return nil
	}

	switch sub.Status {
	case billing.StatusTrialing:
		return apperr.PaymentRequired("trial ended on %s", sub.TrialEndsAt.Format("2006-01-02"))
	case billing.StatusCanceled:
		return apperr.PaymentRequired("subscription is canceled")
	default:
		return apperr.PaymentRequired("subscription is not active")
	}
}

// Activate puts the store on a paid plan, typically after a checkout
// confirmation arrives.
func (s *Service) Activate(ctx context.Context, storeID string, plan billing.PlanName, periodEndsAt time.Time, reference string) (billing.Subscription, error) {
	if _, ok := s.plans.Plan(plan); !ok {
		return billing.Subscription{}, apperr.Invalid("unknown plan %q", plan)
	}

	sub, err := s.subs.GetSubscriptionByStore(ctx, storeID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return billing.Subscription{}, err
		}
		sub = billing.Subscription{StoreID: storeID}
	}

	sub.Plan = plan
	sub.Status = billing.StatusActive
	sub.TrialEndsAt = time.Time{}
	sub.PeriodEndsAt = periodEndsAt.UTC()
	sub.Reference = reference

	if sub.ID == "" {
		sub, err = s.subs.CreateSubscription(ctx, sub)
	} else {
		sub, err = s.subs.UpdateSubscription(ctx, sub)
	}
	if err != nil {
		return billing.Subscription{}, err
	}

	s.log.WithField("store_id", storeID).
		WithField("plan", string(plan)).
		Info("subscription activated")
	return sub, nil
}

// Cancel marks the subscription canceled. Reads keep working; new
// trade is refused until the store activates a plan again.
func (s *Service) Cancel(ctx context.Context, storeID string) (billing.Subscription, error) {
	sub, err := s.subs.GetSubscriptionByStore(ctx, storeID)
	if err != nil {
		return billing.Subscription{}, err
	}

	sub.Status = billing.StatusCanceled
	sub, err = s.subs.UpdateSubscription(ctx, sub)
	if err != nil {
		return billing.Subscription{}, err
	}

	s.log.WithField("store_id", storeID).Info("subscription canceled")
	return sub, nil
}

func (s *Service) markPastDue(ctx context.Context, storeID string) (billing.Subscription, error) {
	sub, err := s.subs.GetSubscriptionByStore(ctx, storeID)
	if err != nil {
		return billing.Subscription{}, err
	}
	sub.Status = billing.StatusPastDue
	return s.subs.UpdateSubscription(ctx, sub)
}

// HandleWebhook processes a payment gateway callback. The payload is
// authenticated with an HMAC signature before anything is parsed out
// of it.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.webhookSecret == "" {
		s.log.Warn("billing webhook secret not configured; accepting unsigned payload")
	} else if !s.verifySignature(payload, signature) {
		return apperr.Unauthorized("webhook signature mismatch")
	}

	event := gjson.GetBytes(payload, "event").String()
	storeID := gjson.GetBytes(payload, "data.store_id").String()
	if event == "" || storeID == "" {
		return apperr.Invalid("webhook payload missing event or data.store_id")
	}

	switch event {
	case "payment.succeeded":
		plan := billing.PlanName(gjson.GetBytes(payload, "data.plan").String())
		reference := gjson.GetBytes(payload, "data.reference").String()
		var periodEndsAt time.Time
		if raw := gjson.GetBytes(payload, "data.period_ends_at").String(); raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return apperr.Invalid("invalid period_ends_at %q", raw)
			}
			periodEndsAt = parsed
		}
		_, err := s.Activate(ctx, storeID, plan, periodEndsAt, reference)
		return err

	case "payment.failed":
		_, err := s.markPastDue(ctx, storeID)
		if err == nil {
			s.log.WithField("store_id", storeID).Warn("subscription past due")
		}
		return err

	case "subscription.canceled":
		_, err := s.Cancel(ctx, storeID)
		return err

	default:
		s.log.WithField("event", event).Debug("ignoring unrecognised webhook event")
		return nil
	}
}

func (s *Service) verifySignature(payload []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(s.webhookSecret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
