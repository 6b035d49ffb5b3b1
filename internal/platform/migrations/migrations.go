// Package migrations applies the database schema on startup. The DDL
// sticks to the subset shared by PostgreSQL and SQLite so one schema
// serves both drivers.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL,
		phone TEXT,
		display_name TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		last_login_at TIMESTAMP
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_idx ON users (email)`,

	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		token_hash TEXT NOT NULL,
		user_agent TEXT,
		ip TEXT,
		created_at TIMESTAMP NOT NULL,
		expires_at TIMESTAMP NOT NULL,
		revoked_at TIMESTAMP
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS sessions_token_idx ON sessions (token_hash)`,
	`CREATE INDEX IF NOT EXISTS sessions_user_idx ON sessions (user_id)`,

	`CREATE TABLE IF NOT EXISTS stores (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		slug TEXT NOT NULL,
		currency TEXT NOT NULL,
		address TEXT,
		phone TEXT,
		receipt_footer TEXT,
		created_by TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS stores_slug_idx ON stores (slug)`,

	`CREATE TABLE IF NOT EXISTS memberships (
		id TEXT PRIMARY KEY,
		store_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		role TEXT NOT NULL,
		invited_by TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS memberships_store_user_idx ON memberships (store_id, user_id)`,

	`CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		store_id TEXT NOT NULL,
		name TEXT NOT NULL,
		sku TEXT,
		barcode TEXT,
		category TEXT,
		price_cents BIGINT NOT NULL,
		cost_cents BIGINT NOT NULL DEFAULT 0,
		stock_count INTEGER NOT NULL DEFAULT 0,
		reorder_level INTEGER NOT NULL DEFAULT 0,
		active BOOLEAN NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS products_store_sku_idx ON products (store_id, sku)`,
	`CREATE INDEX IF NOT EXISTS products_store_idx ON products (store_id)`,

	`CREATE TABLE IF NOT EXISTS sales (
		id TEXT PRIMARY KEY,
		store_id TEXT NOT NULL,
		cashier_id TEXT NOT NULL,
		customer_id TEXT,
		lines TEXT NOT NULL,
		subtotal_cents BIGINT NOT NULL,
		discount_cents BIGINT NOT NULL DEFAULT 0,
		total_cents BIGINT NOT NULL,
		tendered_cents BIGINT NOT NULL DEFAULT 0,
		change_cents BIGINT NOT NULL DEFAULT 0,
		payment_method TEXT NOT NULL,
		status TEXT NOT NULL,
		client_ref TEXT,
		note TEXT,
		created_at TIMESTAMP NOT NULL,
		voided_at TIMESTAMP,
		voided_by TEXT
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS sales_client_ref_idx ON sales (store_id, client_ref)`,
	`CREATE INDEX IF NOT EXISTS sales_store_created_idx ON sales (store_id, created_at)`,

	`CREATE TABLE IF NOT EXISTS stock_movements (
		id TEXT PRIMARY KEY,
		store_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		unit_cost_cents BIGINT NOT NULL DEFAULT 0,
		reference TEXT,
		recorded_by TEXT,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS stock_movements_store_created_idx ON stock_movements (store_id, created_at)`,

	`CREATE TABLE IF NOT EXISTS customers (
		id TEXT PRIMARY KEY,
		store_id TEXT NOT NULL,
		name TEXT NOT NULL,
		phone TEXT,
		email TEXT,
		notes TEXT,
		purchase_count INTEGER NOT NULL DEFAULT 0,
		total_spent_cents BIGINT NOT NULL DEFAULT 0,
		last_purchase_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS customers_store_phone_idx ON customers (store_id, phone)`,

	`CREATE TABLE IF NOT EXISTS expenses (
		id TEXT PRIMARY KEY,
		store_id TEXT NOT NULL,
		category TEXT NOT NULL,
		amount_cents BIGINT NOT NULL,
		note TEXT,
		recorded_by TEXT,
		incurred_at TIMESTAMP NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS expenses_store_incurred_idx ON expenses (store_id, incurred_at)`,

	`CREATE TABLE IF NOT EXISTS subscriptions (
		id TEXT PRIMARY KEY,
		store_id TEXT NOT NULL,
		plan TEXT NOT NULL,
		status TEXT NOT NULL,
		trial_ends_at TIMESTAMP,
		period_ends_at TIMESTAMP,
		reference TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS subscriptions_store_idx ON subscriptions (store_id)`,

	`CREATE TABLE IF NOT EXISTS daily_summaries (
		id TEXT PRIMARY KEY,
		store_id TEXT NOT NULL,
		day TIMESTAMP NOT NULL,
		gross_cents BIGINT NOT NULL DEFAULT 0,
		discount_cents BIGINT NOT NULL DEFAULT 0,
		net_cents BIGINT NOT NULL DEFAULT 0,
		expense_cents BIGINT NOT NULL DEFAULT 0,
		sale_count INTEGER NOT NULL DEFAULT 0,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS daily_summaries_store_day_idx ON daily_summaries (store_id, day)`,

	`CREATE TABLE IF NOT EXISTS op_log (
		id TEXT PRIMARY KEY,
		store_id TEXT NOT NULL,
		device_id TEXT,
		op_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		status TEXT NOT NULL,
		message TEXT,
		result_id TEXT,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS op_log_store_op_idx ON op_log (store_id, op_id)`,
}

// Apply runs every schema statement in order. Statements are written
// to be re-runnable, so Apply is safe to call on every boot.
func Apply(ctx context.Context, db *sql.DB) error {
	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}
