package storage

import (
	"context"
	"errors"
	"time"

	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/billing"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/customer"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/expense"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/oplog"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/product"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/sale"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/stock"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/store"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/summary"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/user"
)

var (
	// ErrNotFound reports a missing record. Implementations wrap it
	// so callers can test with errors.Is regardless of backend.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate reports a uniqueness violation (email, SKU, slug,
	// phone, client ref).
	ErrDuplicate = errors.New("duplicate record")

	// ErrInsufficientStock is returned by AdjustProductStock when the
	// delta would drive on-hand stock below zero. Implementations
	// must apply the check and the change atomically.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// UserStore persists users and their sessions.
type UserStore interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	UpdateUser(ctx context.Context, u user.User) (user.User, error)
	GetUser(ctx context.Context, id string) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)

	CreateSession(ctx context.Context, s user.Session) (user.Session, error)
	GetSessionByTokenHash(ctx context.Context, tokenHash string) (user.Session, error)
	RevokeSession(ctx context.Context, id string, at time.Time) error
	RevokeUserSessions(ctx context.Context, userID string, at time.Time) error
	DeleteExpiredSessions(ctx context.Context, before time.Time) (int, error)
}

// TenantStore persists stores and memberships, the tenancy boundary.
type TenantStore interface {
	CreateStore(ctx context.Context, st store.Store) (store.Store, error)
	UpdateStore(ctx context.Context, st store.Store) (store.Store, error)
	GetStore(ctx context.Context, id string) (store.Store, error)
	GetStoreBySlug(ctx context.Context, slug string) (store.Store, error)
	ListStores(ctx context.Context) ([]store.Store, error)
	ListStoresByUser(ctx context.Context, userID string) ([]store.Store, error)

	CreateMembership(ctx context.Context, m store.Membership) (store.Membership, error)
	UpdateMembership(ctx context.Context, m store.Membership) (store.Membership, error)
	GetMembership(ctx context.Context, storeID, userID string) (store.Membership, error)
	ListMemberships(ctx context.Context, storeID string) ([]store.Membership, error)
	ListMembershipsByUser(ctx context.Context, userID string) ([]store.Membership, error)
	DeleteMembership(ctx context.Context, id string) error
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	Search       string
	Category     string
	ActiveOnly   bool
	LowStockOnly bool
}

// ProductStore persists catalog items.
type ProductStore interface {
	CreateProduct(ctx context.Context, p product.Product) (product.Product, error)
	UpdateProduct(ctx context.Context, p product.Product) (product.Product, error)
	GetProduct(ctx context.Context, id string) (product.Product, error)
	GetProductBySKU(ctx context.Context, storeID, sku string) (product.Product, error)
	ListProducts(ctx context.Context, storeID string, filter ProductFilter) ([]product.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	// AdjustProductStock applies a signed delta to on-hand stock,
	// failing with ErrInsufficientStock instead of going negative.
	AdjustProductStock(ctx context.Context, id string, delta int) (product.Product, error)

	// ListProductsChangedSince supports offline client cache refresh.
	ListProductsChangedSince(ctx context.Context, storeID string, since time.Time) ([]product.Product, error)
}

// SaleFilter narrows sale listings.
type SaleFilter struct {
	From       time.Time
	To         time.Time
	CashierID  string
	CustomerID string
	Limit      int
}

// SaleStore persists committed sales.
type SaleStore interface {
	CreateSale(ctx context.Context, s sale.Sale) (sale.Sale, error)
	UpdateSale(ctx context.Context, s sale.Sale) (sale.Sale, error)
	GetSale(ctx context.Context, id string) (sale.Sale, error)
	GetSaleByClientRef(ctx context.Context, storeID, clientRef string) (sale.Sale, error)
	ListSales(ctx context.Context, storeID string, filter SaleFilter) ([]sale.Sale, error)
}

// MovementFilter narrows stock movement listings.
type MovementFilter struct {
	ProductID string
	From      time.Time
	To        time.Time
	Limit     int
}

// MovementStore persists the stock movement ledger.
type MovementStore interface {
	CreateMovement(ctx context.Context, m stock.Movement) (stock.Movement, error)
	ListMovements(ctx context.Context, storeID string, filter MovementFilter) ([]stock.Movement, error)
}

// CustomerStore persists customers.
type CustomerStore interface {
	CreateCustomer(ctx context.Context, c customer.Customer) (customer.Customer, error)
	UpdateCustomer(ctx context.Context, c customer.Customer) (customer.Customer, error)
	GetCustomer(ctx context.Context, id string) (customer.Customer, error)
	GetCustomerByPhone(ctx context.Context, storeID, phone string) (customer.Customer, error)
	ListCustomers(ctx context.Context, storeID, search string) ([]customer.Customer, error)
	ListCustomersChangedSince(ctx context.Context, storeID string, since time.Time) ([]customer.Customer, error)
	DeleteCustomer(ctx context.Context, id string) error
}

// ExpenseStore persists expenses.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, e expense.Expense) (expense.Expense, error)
	UpdateExpense(ctx context.Context, e expense.Expense) (expense.Expense, error)
	GetExpense(ctx context.Context, id string) (expense.Expense, error)
	ListExpenses(ctx context.Context, storeID string, from, to time.Time) ([]expense.Expense, error)
	DeleteExpense(ctx context.Context, id string) error
}

// SubscriptionStore persists billing subscriptions, one per store.
type SubscriptionStore interface {
	CreateSubscription(ctx context.Context, sub billing.Subscription) (billing.Subscription, error)
	UpdateSubscription(ctx context.Context, sub billing.Subscription) (billing.Subscription, error)
	GetSubscriptionByStore(ctx context.Context, storeID string) (billing.Subscription, error)
}

// SummaryStore persists close-of-day snapshots.
type SummaryStore interface {
	UpsertDailySummary(ctx context.Context, d summary.Daily) (summary.Daily, error)
	GetDailySummary(ctx context.Context, storeID string, day time.Time) (summary.Daily, error)
	ListDailySummaries(ctx context.Context, storeID string, from, to time.Time) ([]summary.Daily, error)
}

// OpLogStore persists the offline replay dedup ledger.
type OpLogStore interface {
	CreateOpRecord(ctx context.Context, rec oplog.Record) (oplog.Record, error)
	GetOpRecord(ctx context.Context, storeID, opID string) (oplog.Record, error)
	DeleteOpRecordsBefore(ctx context.Context, cutoff time.Time) (int, error)
}
