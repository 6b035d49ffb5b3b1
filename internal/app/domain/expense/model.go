package expense

import "time"

// Expense is money spent by the store, recorded against the day it was
// incurred so finance summaries can net it off.
type Expense struct {
	ID          string    `json:"id"`
	StoreID     string    `json:"store_id"`
	Category    string    `json:"category"`
	AmountCents int64     `json:"amount_cents"`
	Note        string    `json:"note,omitempty"`
	RecordedBy  string    `json:"recorded_by,omitempty"`
	IncurredAt  time.Time `json:"incurred_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
