package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/product"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/sale"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/user"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/storage"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/platform/migrations"
)

func mockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(sqlx.NewDb(db, "sqlmock")), mock
}

func TestTranslateErr(t *testing.T) {
	cases := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", sql.ErrNoRows, storage.ErrNotFound},
		{"pq unique violation", &pq.Error{Code: "23505", Constraint: "users_email_idx"}, storage.ErrDuplicate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := translateErr(tc.in)
			if tc.want == nil {
				if got != nil {
					t.Fatalf("expected nil, got %v", got)
				}
				return
			}
			if !errors.Is(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestGetUserNotFound(t *testing.T) {
	store, mock := mockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id").WillReturnError(sql.ErrNoRows)

	_, err := store.GetUser(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	store, mock := mockStore(t)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_idx"})

	_, err := store.CreateUser(context.Background(), user.User{
		Email:        "ama@example.com",
		PasswordHash: "x",
		Status:       user.StatusActive,
	})
	if !errors.Is(err, storage.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func productColumnsRows(p product.Product) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "store_id", "name", "sku", "barcode", "category",
		"price_cents", "cost_cents", "stock_count", "reorder_level",
		"active", "created_at", "updated_at",
	}).AddRow(
		p.ID, p.StoreID, p.Name, p.SKU, p.Barcode, p.Category,
		p.PriceCents, p.CostCents, p.StockCount, p.ReorderLevel,
		p.Active, p.CreatedAt, p.UpdatedAt,
	)
}

func TestAdjustProductStockGuard(t *testing.T) {
	store, mock := mockStore(t)
	now := time.Now().UTC()
	existing := product.Product{
		ID: "p1", StoreID: "s1", Name: "Milo 400g", SKU: "MILO-400",
		PriceCents: 2500, StockCount: 1, Active: true,
		CreatedAt: now, UpdatedAt: now,
	}

	// The conditional UPDATE touches no rows, so the store re-reads the
	// product to tell "missing" apart from "not enough stock".
	mock.ExpectExec("UPDATE products").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT (.+) FROM products WHERE id").WillReturnRows(productColumnsRows(existing))

	_, err := store.AdjustProductStock(context.Background(), "p1", -3)
	if !errors.Is(err, storage.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteExpiredSessionsCount(t *testing.T) {
	store, mock := mockStore(t)

	mock.ExpectExec("DELETE FROM sessions").WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := store.DeleteExpiredSessions(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("delete expired sessions: %v", err)
	}
	if n != 4 {
		t.Fatalf("expected 4 deleted, got %d", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

// integrationStore opens a real database when TEST_POSTGRES_DSN or
// TEST_SQLITE_DSN is set and skips otherwise, so the suite stays green
// on machines without a database.
func integrationStore(t *testing.T) *Store {
	t.Helper()

	driver, dsn := "postgres", os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		driver, dsn = "sqlite3", os.Getenv("TEST_SQLITE_DSN")
	}
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN / TEST_SQLITE_DSN not set; skipping sql store tests")
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		t.Fatalf("connect %s: %v", driver, err)
	}
	t.Cleanup(func() { db.Close() })

	if err := migrations.Apply(context.Background(), db.DB); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return New(db)
}

func TestIntegrationSaleClientRefRoundTrip(t *testing.T) {
	store := integrationStore(t)
	ctx := context.Background()

	created, err := store.CreateSale(ctx, sale.Sale{
		StoreID:   "store-it-1",
		CashierID: "cashier-1",
		Lines: []sale.Line{
			{ProductID: "p1", Name: "Milo 400g", Quantity: 2, UnitPriceCents: 2500, LineTotalCents: 5000},
		},
		SubtotalCents: 5000,
		TotalCents:    5000,
		PaymentMethod: sale.PaymentCash,
		Status:        sale.StatusCompleted,
		ClientRef:     "device1-0001",
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}

	byRef, err := store.GetSaleByClientRef(ctx, "store-it-1", "device1-0001")
	if err != nil {
		t.Fatalf("get by client ref: %v", err)
	}
	if byRef.ID != created.ID {
		t.Fatalf("expected sale %s, got %s", created.ID, byRef.ID)
	}
	if len(byRef.Lines) != 1 || byRef.Lines[0].Quantity != 2 {
		t.Fatalf("lines did not survive the round trip: %+v", byRef.Lines)
	}

	_, err = store.CreateSale(ctx, sale.Sale{
		StoreID:       "store-it-1",
		CashierID:     "cashier-1",
		SubtotalCents: 100,
		TotalCents:    100,
		PaymentMethod: sale.PaymentCash,
		Status:        sale.StatusCompleted,
		ClientRef:     "device1-0001",
	})
	if !errors.Is(err, storage.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate on reused client ref, got %v", err)
	}
}

func TestIntegrationStockNeverGoesNegative(t *testing.T) {
	store := integrationStore(t)
	ctx := context.Background()

	p, err := store.CreateProduct(ctx, product.Product{
		StoreID:    "store-it-2",
		Name:       "Sachet water",
		SKU:        "WATER-1",
		PriceCents: 50,
		StockCount: 2,
		Active:     true,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	if _, err := store.AdjustProductStock(ctx, p.ID, -2); err != nil {
		t.Fatalf("adjust to zero: %v", err)
	}
	if _, err := store.AdjustProductStock(ctx, p.ID, -1); !errors.Is(err, storage.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	got, err := store.GetProduct(ctx, p.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if got.StockCount != 0 {
		t.Fatalf("expected stock 0, got %d", got.StockCount)
	}
}
