package billing

import "time"

// PlanName identifies a subscription plan.
type PlanName string

const (
	PlanFree PlanName = "free"
	PlanPro  PlanName = "pro"
)

// Plan describes what a subscription entitles a store to. Plans are
// loaded from configuration; limits of zero mean unlimited.
type Plan struct {
	Name              PlanName `json:"name" yaml:"name"`
	SeatLimit         int      `json:"seat_limit" yaml:"seat_limit"`
	ProductLimit      int      `json:"product_limit" yaml:"product_limit"`
	MonthlyPriceCents int64    `json:"monthly_price_cents" yaml:"monthly_price_cents"`
	TrialDays         int      `json:"trial_days" yaml:"trial_days"`
	Features          []string `json:"features,omitempty" yaml:"features"`
}

// Status represents subscription lifecycle state.
type Status string

const (
	StatusTrialing Status = "trialing"
	StatusActive   Status = "active"
	StatusPastDue  Status = "past_due"
	StatusCanceled Status = "canceled"
)

// Subscription records a store's plan and payment state. Payment
// collection happens at an external gateway; only its outcome lands
// here.
type Subscription struct {
	ID           string    `json:"id"`
	StoreID      string    `json:"store_id"`
	Plan         PlanName  `json:"plan"`
	Status       Status    `json:"status"`
	TrialEndsAt  time.Time `json:"trial_ends_at,omitempty"`
	PeriodEndsAt time.Time `json:"period_ends_at,omitempty"`
	Reference    string    `json:"reference,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Entitled reports whether the subscription currently allows writes
// such as committing sales.
func (s Subscription) Entitled(at time.Time) bool {
	switch s.Status {
	case StatusActive:
		return s.PeriodEndsAt.IsZero() || at.Before(s.PeriodEndsAt)
	case StatusTrialing:
		return at.Before(s.TrialEndsAt)
	default:
		return false
	}
}
