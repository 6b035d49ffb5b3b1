package store

import "time"

// Store represents a retail outlet, the tenant boundary for every
// other record in the system.
type Store struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	Currency      string    `json:"currency"`
	Address       string    `json:"address,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	ReceiptFooter string    `json:"receipt_footer,omitempty"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Role grants a member capabilities within one store.
type Role string

const (
	RoleOwner   Role = "owner"
	RoleManager Role = "manager"
	RoleCashier Role = "cashier"
)

var roleRank = map[Role]int{
	RoleCashier: 1,
	RoleManager: 2,
	RoleOwner:   3,
}

// Valid reports whether r is a recognised role.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r carries the capabilities of min.
func (r Role) AtLeast(min Role) bool {
	return roleRank[r] >= roleRank[min]
}

// Membership links a user to a store with a role. (StoreID, UserID)
// is unique.
type Membership struct {
	ID        string    `json:"id"`
	StoreID   string    `json:"store_id"`
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	InvitedBy string    `json:"invited_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
