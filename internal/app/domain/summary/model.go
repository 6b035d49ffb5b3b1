package summary

import "time"

// Daily is a close-of-day snapshot of one store's trading, keyed by
// (StoreID, Day). Day is midnight UTC of the day it covers.
type Daily struct {
	ID            string    `json:"id"`
	StoreID       string    `json:"store_id"`
	Day           time.Time `json:"day"`
	GrossCents    int64     `json:"gross_cents"`
	DiscountCents int64     `json:"discount_cents"`
	NetCents      int64     `json:"net_cents"`
	ExpenseCents  int64     `json:"expense_cents"`
	SaleCount     int       `json:"sale_count"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DayOf truncates t to the UTC day bucket summaries are keyed by.
func DayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
