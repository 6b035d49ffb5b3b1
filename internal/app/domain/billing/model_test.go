package billing

import (
	"testing"
	"time"
)

func TestSubscriptionEntitled(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		sub  Subscription
		want bool
	}{
		{"active open ended", Subscription{Status: StatusActive}, true},
		{"active within period", Subscription{Status: StatusActive, PeriodEndsAt: now.Add(time.Hour)}, true},
		{"active lapsed", Subscription{Status: StatusActive, PeriodEndsAt: now.Add(-time.Hour)}, false},
		{"trialing", Subscription{Status: StatusTrialing, TrialEndsAt: now.Add(24 * time.Hour)}, true},
		{"trial expired", Subscription{Status: StatusTrialing, TrialEndsAt: now.Add(-time.Minute)}, false},
		{"past due", Subscription{Status: StatusPastDue}, false},
		{"canceled", Subscription{Status: StatusCanceled}, false},
	}
	for _, tc := range cases {
		if got := tc.sub.Entitled(now); got != tc.want {
			t.Fatalf("%s: Entitled = %v, want %v", tc.name, got, tc.want)
		}
	}
}
