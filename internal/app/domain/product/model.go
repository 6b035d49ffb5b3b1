package product

import "time"

// Product represents a catalog item. All money is integer minor units
// (pesewas, cents) to keep arithmetic exact.
type Product struct {
	ID           string    `json:"id"`
	StoreID      string    `json:"store_id"`
	Name         string    `json:"name"`
	SKU          string    `json:"sku,omitempty"`
	Barcode      string    `json:"barcode,omitempty"`
	Category     string    `json:"category,omitempty"`
	PriceCents   int64     `json:"price_cents"`
	CostCents    int64     `json:"cost_cents,omitempty"`
	StockCount   int       `json:"stock_count"`
	ReorderLevel int       `json:"reorder_level,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// LowStock reports whether on-hand stock has reached the reorder
// level. Products without a reorder level never flag.
func (p Product) LowStock() bool {
	return p.ReorderLevel > 0 && p.StockCount <= p.ReorderLevel
}
