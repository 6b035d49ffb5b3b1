package sale

import "time"

// PaymentMethod is how a sale was settled.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentMobile PaymentMethod = "mobile"
)

// Valid reports whether m is a recognised payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentMobile:
		return true
	}
	return false
}

// Status represents sale lifecycle state.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusVoided    Status = "voided"
)

// Line is one product position on a sale. Name and price are captured
// at commit time so later catalog edits never rewrite history.
type Line struct {
	ProductID      string `json:"product_id"`
	Name           string `json:"name"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int    `json:"quantity"`
	LineTotalCents int64  `json:"line_total_cents"`
}

// Sale is a committed checkout. Money fields are recomputed server
// side from stored prices; ClientRef makes commits idempotent so an
// offline queue can replay safely.
type Sale struct {
	ID            string        `json:"id"`
	StoreID       string        `json:"store_id"`
	CashierID     string        `json:"cashier_id"`
	CustomerID    string        `json:"customer_id,omitempty"`
	Lines         []Line        `json:"lines"`
	SubtotalCents int64         `json:"subtotal_cents"`
	DiscountCents int64         `json:"discount_cents,omitempty"`
	TotalCents    int64         `json:"total_cents"`
	TenderedCents int64         `json:"tendered_cents,omitempty"`
	ChangeCents   int64         `json:"change_cents,omitempty"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Status        Status        `json:"status"`
	ClientRef     string        `json:"client_ref,omitempty"`
	Note          string        `json:"note,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	VoidedAt      *time.Time    `json:"voided_at,omitempty"`
	VoidedBy      string        `json:"voided_by,omitempty"`
}
