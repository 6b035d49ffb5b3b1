package stock

import "time"

// MovementKind labels why stock changed.
type MovementKind string

const (
	KindReceive MovementKind = "receive"
	KindSale    MovementKind = "sale"
	KindAdjust  MovementKind = "adjust"
	KindVoid    MovementKind = "void"
)

// Valid reports whether k is a recognised movement kind.
func (k MovementKind) Valid() bool {
	switch k {
	case KindReceive, KindSale, KindAdjust, KindVoid:
		return true
	}
	return false
}

// Movement is one signed stock change. Every mutation of a product's
// on-hand count leaves a movement, so on-hand always equals the sum of
// movements for the product.
type Movement struct {
	ID            string       `json:"id"`
	StoreID       string       `json:"store_id"`
	ProductID     string       `json:"product_id"`
	Kind          MovementKind `json:"kind"`
	Quantity      int          `json:"quantity"`
	UnitCostCents int64        `json:"unit_cost_cents,omitempty"`
	Reference     string       `json:"reference,omitempty"`
	RecordedBy    string       `json:"recorded_by,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}
