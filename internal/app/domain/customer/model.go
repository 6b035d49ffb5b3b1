package customer

import "time"

// Customer is a repeat buyer tracked per store. Purchase stats are
// maintained by sale commits, not by the customer endpoints.
type Customer struct {
	ID              string     `json:"id"`
	StoreID         string     `json:"store_id"`
	Name            string     `json:"name"`
	Phone           string     `json:"phone,omitempty"`
	Email           string     `json:"email,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	PurchaseCount   int        `json:"purchase_count"`
	TotalSpentCents int64      `json:"total_spent_cents"`
	LastPurchaseAt  *time.Time `json:"last_purchase_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
