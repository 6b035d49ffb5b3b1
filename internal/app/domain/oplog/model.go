package oplog

import "time"

// OpStatus is the recorded outcome of a replayed operation.
type OpStatus string

const (
	StatusApplied   OpStatus = "applied"
	StatusDuplicate OpStatus = "duplicate"
	StatusFailed    OpStatus = "failed"
)

// Record is the dedup ledger for offline replay. (StoreID, OpID) is
// unique; a queued operation whose ID is already recorded is never
// applied twice, whatever device resends it.
type Record struct {
	ID        string    `json:"id"`
	StoreID   string    `json:"store_id"`
	DeviceID  string    `json:"device_id,omitempty"`
	OpID      string    `json:"op_id"`
	Kind      string    `json:"kind"`
	Status    OpStatus  `json:"status"`
	Message   string    `json:"message,omitempty"`
	ResultID  string    `json:"result_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
