// Package sqlstore implements the storage interfaces over a SQL
// database. Queries are written with ? bindvars and rebound per
// driver, so the same store runs on PostgreSQL (hosted deployments)
// and SQLite (single-shop offline installs).
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	sqlite3 "github.com/mattn/go-sqlite3"

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
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/storage"
)

// Store implements the storage interfaces backed by PostgreSQL or SQLite.
type Store struct {
	db *sqlx.DB
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.TenantStore = (*Store)(nil)
var _ storage.ProductStore = (*Store)(nil)
var _ storage.SaleStore = (*Store)(nil)
var _ storage.MovementStore = (*Store)(nil)
var _ storage.CustomerStore = (*Store)(nil)
var _ storage.ExpenseStore = (*Store)(nil)
var _ storage.SubscriptionStore = (*Store)(nil)
var _ storage.SummaryStore = (*Store)(nil)
var _ storage.OpLogStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// translateErr maps driver errors onto the shared storage sentinels so
// services never branch on backend-specific error types.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w", storage.ErrNotFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%v: %w", pqErr.Constraint, storage.ErrDuplicate)
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) && liteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return fmt.Errorf("%v: %w", liteErr, storage.ErrDuplicate)
	}
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func nullTimePtr(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

// --- UserStore --------------------------------------------------------------

type userRow struct {
	ID           string         `db:"id"`
	Email        string         `db:"email"`
	Phone        sql.NullString `db:"phone"`
	DisplayName  string         `db:"display_name"`
	PasswordHash string         `db:"password_hash"`
	Status       string         `db:"status"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	LastLoginAt  sql.NullTime   `db:"last_login_at"`
}

func (r userRow) toDomain() user.User {
	u := user.User{
		ID:           r.ID,
		Email:        r.Email,
		Phone:        r.Phone.String,
		DisplayName:  r.DisplayName,
		PasswordHash: r.PasswordHash,
		Status:       user.Status(r.Status),
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
	if r.LastLoginAt.Valid {
		u.LastLoginAt = r.LastLoginAt.Time.UTC()
	}
	return u
}

func userToRow(u user.User) userRow {
	return userRow{
		ID:           u.ID,
		Email:        strings.ToLower(strings.TrimSpace(u.Email)),
		Phone:        nullString(u.Phone),
		DisplayName:  u.DisplayName,
		PasswordHash: u.PasswordHash,
		Status:       string(u.Status),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
		LastLoginAt:  nullTime(u.LastLoginAt),
	}
}

func (s *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO users (id, email, phone, display_name, password_hash, status, created_at, updated_at, last_login_at)
		VALUES (:id, :email, :phone, :display_name, :password_hash, :status, :created_at, :updated_at, :last_login_at)
	`, userToRow(u))
	if err != nil {
		return user.User{}, translateErr(err)
	}
	return s.GetUser(ctx, u.ID)
}

func (s *Store) UpdateUser(ctx context.Context, u user.User) (user.User, error) {
	existing, err := s.GetUser(ctx, u.ID)
	if err != nil {
		return user.User{}, err
	}
	u.CreatedAt = existing.CreatedAt
	u.UpdatedAt = time.Now().UTC()

	result, err := s.db.NamedExecContext(ctx, `
		UPDATE users
		SET email = :email, phone = :phone, display_name = :display_name,
		    password_hash = :password_hash, status = :status,
		    updated_at = :updated_at, last_login_at = :last_login_at
		WHERE id = :id
	`, userToRow(u))
	if err != nil {
		return user.User{}, translateErr(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return user.User{}, fmt.Errorf("user %s: %w", u.ID, storage.ErrNotFound)
	}
	return s.GetUser(ctx, u.ID)
}

func (s *Store) GetUser(ctx context.Context, id string) (user.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`
		SELECT id, email, phone, display_name, password_hash, status, created_at, updated_at, last_login_at
		FROM users WHERE id = ?
	`), id)
	if err != nil {
		return user.User{}, translateErr(err)
	}
	return row.toDomain(), nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`
		SELECT id, email, phone, display_name, password_hash, status, created_at, updated_at, last_login_at
		FROM users WHERE email = ?
	`), strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return user.User{}, translateErr(err)
	}
	return row.toDomain(), nil
}

type sessionRow struct {
	ID        string         `db:"id"`
	UserID    string         `db:"user_id"`
	TokenHash string         `db:"token_hash"`
	UserAgent sql.NullString `db:"user_agent"`
	IP        sql.NullString `db:"ip"`
	CreatedAt time.Time      `db:"created_at"`
	ExpiresAt time.Time      `db:"expires_at"`
	RevokedAt sql.NullTime   `db:"revoked_at"`
}

func (r sessionRow) toDomain() user.Session {
	return user.Session{
		ID:        r.ID,
		UserID:    r.UserID,
		TokenHash: r.TokenHash,
		UserAgent: r.UserAgent.String,
		IP:        r.IP.String,
		CreatedAt: r.CreatedAt.UTC(),
		ExpiresAt: r.ExpiresAt.UTC(),
		RevokedAt: timePtr(r.RevokedAt),
	}
}

func (s *Store) CreateSession(ctx context.Context, sess user.Session) (user.Session, error) {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	sess.CreatedAt = time.Now().UTC()

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO sessions (id, user_id, token_hash, user_agent, ip, created_at, expires_at, revoked_at)
		VALUES (:id, :user_id, :token_hash, :user_agent, :ip, :created_at, :expires_at, :revoked_at)
	`, sessionRow{
		ID:        sess.ID,
		UserID:    sess.UserID,
		TokenHash: sess.TokenHash,
		UserAgent: nullString(sess.UserAgent),
		IP:        nullString(sess.IP),
		CreatedAt: sess.CreatedAt,
		ExpiresAt: sess.ExpiresAt,
		RevokedAt: nullTimePtr(sess.RevokedAt),
	})
	if err != nil {
		return user.Session{}, translateErr(err)
	}
	return sess, nil
}

func (s *Store) GetSessionByTokenHash(ctx context.Context, tokenHash string) (user.Session, error) {
	var row sessionRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`
		SELECT id, user_id, token_hash, user_agent, ip, created_at, expires_at, revoked_at
		FROM sessions WHERE token_hash = ?
	`), tokenHash)
	if err != nil {
		return user.Session{}, translateErr(err)
	}
	return row.toDomain(), nil
}

func (s *Store) RevokeSession(ctx context.Context, id string, at time.Time) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE sessions SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL
	`), at.UTC(), id)
	if err != nil {
		return translateErr(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		var exists int
		if err := s.db.GetContext(ctx, &exists, s.db.Rebind(`SELECT 1 FROM sessions WHERE id = ?`), id); err != nil {
			return translateErr(err)
		}
	}
	return nil
}

func (s *Store) RevokeUserSessions(ctx context.Context, userID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE sessions SET revoked_at = ? WHERE user_id = ? AND revoked_at IS NULL
	`), at.UTC(), userID)
	return translateErr(err)
}

func (s *Store) DeleteExpiredSessions(ctx context.Context, before time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`
		DELETE FROM sessions WHERE expires_at < ?
	`), before.UTC())
	if err != nil {
		return 0, translateErr(err)
	}
	rows, _ := result.RowsAffected()
	return int(rows), nil
}

// --- TenantStore ------------------------------------------------------------

type storeRow struct {
	ID            string         `db:"id"`
	Name          string         `db:"name"`
	Slug          string         `db:"slug"`
	Currency      string         `db:"currency"`
	Address       sql.NullString `db:"address"`
	Phone         sql.NullString `db:"phone"`
	ReceiptFooter sql.NullString `db:"receipt_footer"`
	CreatedBy     string         `db:"created_by"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (r storeRow) toDomain() store.Store {
	return store.Store{
		ID:            r.ID,
		Name:          r.Name,
		Slug:          r.Slug,
		Currency:      r.Currency,
		Address:       r.Address.String,
		Phone:         r.Phone.String,
		ReceiptFooter: r.ReceiptFooter.String,
		CreatedBy:     r.CreatedBy,
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
}

func storeToRow(st store.Store) storeRow {
	return storeRow{
		ID:            st.ID,
		Name:          st.Name,
		Slug:          strings.ToLower(st.Slug),
		Currency:      st.Currency,
		Address:       nullString(st.Address),
		Phone:         nullString(st.Phone),
		ReceiptFooter: nullString(st.ReceiptFooter),
		CreatedBy:     st.CreatedBy,
		CreatedAt:     st.CreatedAt,
		UpdatedAt:     st.UpdatedAt,
	}
}

const storeColumns = `id, name, slug, currency, address, phone, receipt_footer, created_by, created_at, updated_at`

func (s *Store) CreateStore(ctx context.Context, st store.Store) (store.Store, error) {
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	st.CreatedAt = now
	st.UpdatedAt = now

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO stores (id, name, slug, currency, address, phone, receipt_footer, created_by, created_at, updated_at)
		VALUES (:id, :name, :slug, :currency, :address, :phone, :receipt_footer, :created_by, :created_at, :updated_at)
	`, storeToRow(st))
	if err != nil {
		return store.Store{}, translateErr(err)
	}
	return s.GetStore(ctx, st.ID)
}

func (s *Store) UpdateStore(ctx context.Context, st store.Store) (store.Store, error) {
	existing, err := s.GetStore(ctx, st.ID)
	if err != nil {
		return store.Store{}, err
	}
	st.CreatedBy = existing.CreatedBy
	st.CreatedAt = existing.CreatedAt
	st.UpdatedAt = time.Now().UTC()

	result, err := s.db.NamedExecContext(ctx, `
		UPDATE stores
		SET name = :name, slug = :slug, currency = :currency, address = :address,
		    phone = :phone, receipt_footer = :receipt_footer, updated_at = :updated_at
		WHERE id = :id
	`, storeToRow(st))
	if err != nil {
		return store.Store{}, translateErr(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return store.Store{}, fmt.Errorf("store %s: %w", st.ID, storage.ErrNotFound)
	}
	return s.GetStore(ctx, st.ID)
}

func (s *Store) GetStore(ctx context.Context, id string) (store.Store, error) {
	var row storeRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT `+storeColumns+` FROM stores WHERE id = ?`), id)
	if err != nil {
		return store.Store{}, translateErr(err)
	}
	return row.toDomain(), nil
}

func (s *Store) GetStoreBySlug(ctx context.Context, slug string) (store.Store, error) {
	var row storeRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT `+storeColumns+` FROM stores WHERE slug = ?`), strings.ToLower(slug))
	if err != nil {
		return store.Store{}, translateErr(err)
	}
	return row.toDomain(), nil
}

func (s *Store) ListStores(ctx context.Context) ([]store.Store, error) {
	var rows []storeRow
	err := s.db.SelectContext(ctx, &rows, `SELECT `+storeColumns+` FROM stores ORDER BY created_at`)
	if err != nil {
		return nil, translateErr(err)
	}
	result := make([]store.Store, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.toDomain())
	}
	return result, nil
}

func (s *Store) ListStoresByUser(ctx context.Context, userID string) ([]store.Store, error) {
	var rows []storeRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
		SELECT s.id, s.name, s.slug, s.currency, s.address, s.phone, s.receipt_footer, s.created_by, s.created_at, s.updated_at
		FROM stores s
		JOIN memberships m ON m.store_id = s.id
		WHERE m.user_id = ?
		ORDER BY s.created_at
	`), userID)
	if err != nil {
		return nil, translateErr(err)
	}
	result := make([]store.Store, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.toDomain())
	}
	return result, nil
}

type membershipRow struct {
	ID        string         `db:"id"`
	StoreID   string         `db:"store_id"`
	UserID    string         `db:"user_id"`
	Role      string         `db:"role"`
	InvitedBy sql.NullString `db:"invited_by"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func (r membershipRow) toDomain() store.Membership {
	return store.Membership{
		ID:        r.ID,
		StoreID:   r.StoreID,
		UserID:    r.UserID,
		Role:      store.Role(r.Role),
		InvitedBy: r.InvitedBy.String,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

func (s *Store) CreateMembership(ctx context.Context, m store.Membership) (store.Membership, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO memberships (id, store_id, user_id, role, invited_by, created_at, updated_at)
		VALUES (:id, :store_id, :user_id, :role, :invited_by, :created_at, :updated_at)
	`, membershipRow{
		ID:        m.ID,
		StoreID:   m.StoreID,
		UserID:    m.UserID,
		Role:      string(m.Role),
		InvitedBy: nullString(m.InvitedBy),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	})
	if err != nil {
		return store.Membership{}, translateErr(err)
	}
	return m, nil
}

func (s *Store) UpdateMembership(ctx context.Context, m store.Membership) (store.Membership, error) {
	m.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE memberships SET role = ?, updated_at = ? WHERE id = ?
	`), string(m.Role), m.UpdatedAt, m.ID)
	if err != nil {
		return store.Membership{}, translateErr(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return store.Membership{}, fmt.Errorf("membership %s: %w", m.ID, storage.ErrNotFound)
	}

	var row membershipRow
	if err := s.db.GetContext(ctx, &row, s.db.Rebind(`
		SELECT id, store_id, user_id, role, invited_by, created_at, updated_at FROM memberships WHERE id = ?
	`), m.ID); err != nil {
		return store.Membership{}, translateErr(err)
	}
	return row.toDomain(), nil
}

func (s *Store) GetMembership(ctx context.Context, storeID, userID string) (store.Membership, error) {
	var row membershipRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`
		SELECT id, store_id, user_id, role, invited_by, created_at, updated_at
		FROM memberships WHERE store_id = ? AND user_id = ?
	`), storeID, userID)
	if err != nil {
		return store.Membership{}, translateErr(err)
	}
	return row.toDomain(), nil
}

func (s *Store) ListMemberships(ctx context.Context, storeID string) ([]store.Membership, error) {
	var rows []membershipRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
		SELECT id, store_id, user_id, role, invited_by, created_at, updated_at
		FROM memberships WHERE store_id = ? ORDER BY created_at
	`), storeID)
	if err != nil {
		return nil, translateErr(err)
	}
	result := make([]store.Membership, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.toDomain())
	}
	return result, nil
}

func (s *Store) ListMembershipsByUser(ctx context.Context, userID string) ([]store.Membership, error) {
	var rows []membershipRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
		SELECT id, store_id, user_id, role, invited_by, created_at, updated_at
		FROM memberships WHERE user_id = ? ORDER BY created_at
	`), userID)
	if err != nil {
		return nil, translateErr(err)
	}
	result := make([]store.Membership, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.toDomain())
	}
	return result, nil
}

func (s *Store) DeleteMembership(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM memberships WHERE id = ?`), id)
	if err != nil {
		return translateErr(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("membership %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// --- ProductStore -----------------------------------------------------------

type productRow struct {
	ID           string         `db:"id"`
	StoreID      string         `db:"store_id"`
	Name         string         `db:"name"`
	SKU          sql.NullString `db:"sku"`
	Barcode      sql.NullString `db:"barcode"`
	Category     sql.NullString `db:"category"`
	PriceCents   int64          `db:"price_cents"`
	CostCents    int64          `db:"cost_cents"`
	StockCount   int            `db:"stock_count"`
	ReorderLevel int            `db:"reorder_level"`
	Active       bool           `db:"active"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (r productRow) toDomain() product.Product {
	return product.Product{
		ID:           r.ID,
		StoreID:      r.StoreID,
		Name:         r.Name,
		SKU:          r.SKU.String,
		Barcode:      r.Barcode.String,
		Category:     r.Category.String,
		PriceCents:   r.PriceCents,
		CostCents:    r.CostCents,
		StockCount:   r.StockCount,
		ReorderLevel: r.ReorderLevel,
		Active:       r.Active,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

func productToRow(p product.Product) productRow {
	return productRow{
		ID:           p.ID,
		StoreID:      p.StoreID,
		Name:         p.Name,
		SKU:          nullString(strings.ToUpper(p.SKU)),
		Barcode:      nullString(p.Barcode),
		Category:     nullString(p.Category),
		PriceCents:   p.PriceCents,
		CostCents:    p.CostCents,
		StockCount:   p.StockCount,
		ReorderLevel: p.ReorderLevel,
		Active:       p.Active,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

const productColumns = `id, store_id, name, sku, barcode, category, price_cents, cost_cents, stock_count, reorder_level, active, created_at, updated_at`

func (s *Store) CreateProduct(ctx context.Context, p product.Product) (product.Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO products (id, store_id, name, sku, barcode, category, price_cents, cost_cents, stock_count, reorder_level, active, created_at, updated_at)
		VALUES (:id, :store_id, :name, :sku, :barcode, :category, :price_cents, :cost_cents, :stock_count, :reorder_level, :active, :created_at, :updated_at)
	`, productToRow(p))
	if err != nil {
		return product.Product{}, translateErr(err)
	}
	return s.GetProduct(ctx, p.ID)
}

func (s *Store) UpdateProduct(ctx context.Context, p product.Product) (product.Product, error) {
	existing, err := s.GetProduct(ctx, p.ID)
	if err != nil {
		return product.Product{}, err
	}
	p.StoreID = existing.StoreID
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()

	result, err := s.db.NamedExecContext(ctx, `
		UPDATE products
		SET name = :name, sku = :sku, barcode = :barcode, category = :category,
		    price_cents = :price_cents, cost_cents = :cost_cents,
		    stock_count = :stock_count, reorder_level = :reorder_level,
		    active = :active, updated_at = :updated_at
		WHERE id = :id
	`, productToRow(p))
	if err != nil {
		return product.Product{}, translateErr(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return product.Product{}, fmt.Errorf("product %s: %w", p.ID, storage.ErrNotFound)
	}
	return s.GetProduct(ctx, p.ID)
}

func (s *Store) GetProduct(ctx context.Context, id string) (product.Product, error) {
	var row productRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT `+productColumns+` FROM products WHERE id = ?`), id)
	if err != nil {
		return product.Product{}, translateErr(err)
	}
	return row.toDomain(), nil
}

func (s *Store) GetProductBySKU(ctx context.Context, storeID, sku string) (product.Product, error) {
	var row productRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`
		SELECT `+productColumns+` FROM products WHERE store_id = ? AND sku = ?
	`), storeID, strings.ToUpper(sku))
	if err != nil {
		return product.Product{}, translateErr(err)
	}
	return row.toDomain(), nil
}

func (s *Store) ListProducts(ctx context.Context, storeID string, filter storage.ProductFilter) ([]product.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE store_id = ?`
	args := []any{storeID}

	if filter.ActiveOnly {
		query += ` AND active = ?`
		args = append(args, true)
	}
	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, filter.Category)
	}
	if filter.LowStockOnly {
		query += ` AND reorder_level > 0 AND stock_count <= reorder_level`
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query += ` AND (LOWER(name) LIKE ? OR sku LIKE ? OR barcode LIKE ?)`
		needle := "%" + strings.ToLower(search) + "%"
		args = append(args, needle, "%"+strings.ToUpper(search)+"%", "%"+search+"%")
	}
	query += ` ORDER BY name`

	var rows []productRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, translateErr(err)
	}
	result := make([]product.Product, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.toDomain())
	}
	return result, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM products WHERE id = ?`), id)
	if err != nil {
		return translateErr(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("product %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

func (s *Store) AdjustProductStock(ctx context.Context, id string, delta int) (product.Product, error) {
	// The guard rides in the WHERE clause so two concurrent sales can
	// never both take the last unit.
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE products
		SET stock_count = stock_count + ?, updated_at = ?
		WHERE id = ? AND stock_count + ? >= 0
	`), delta, time.Now().UTC(), id, delta)
	if err != nil {
		return product.Product{}, translateErr(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		if _, err := s.GetProduct(ctx, id); err != nil {
			return product.Product{}, err
		}
		return product.Product{}, fmt.Errorf("product %s: %w", id, storage.ErrInsufficientStock)
	}
	return s.GetProduct(ctx, id)
}

func (s *Store) ListProductsChangedSince(ctx context.Context, storeID string, since time.Time) ([]product.Product, error) {
	var rows []productRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
		SELECT `+productColumns+` FROM products WHERE store_id = ? AND updated_at > ? ORDER BY updated_at
	`), storeID, since.UTC())
	if err != nil {
		return nil, translateErr(err)
	}
	result := make([]product.Product, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.toDomain())
	}
	return result, nil
}

// --- SaleStore --------------------------------------------------------------

type saleRow struct {
	ID            string         `db:"id"`
	StoreID       string         `db:"store_id"`
	CashierID     string         `db:"cashier_id"`
	CustomerID    sql.NullString `db:"customer_id"`
	Lines         []byte         `db:"lines"`
	SubtotalCents int64          `db:"subtotal_cents"`
	DiscountCents int64          `db:"discount_cents"`
	TotalCents    int64          `db:"total_cents"`
	TenderedCents int64          `db:"tendered_cents"`
	ChangeCents   int64          `db:"change_cents"`
	PaymentMethod string         `db:"payment_method"`
	Status        string         `db:"status"`
	ClientRef     sql.NullString `db:"client_ref"`
	Note          sql.NullString `db:"note"`
	CreatedAt     time.Time      `db:"created_at"`
	VoidedAt      sql.NullTime   `db:"voided_at"`
	VoidedBy      sql.NullString `db:"voided_by"`
}

func (r saleRow) toDomain() (sale.Sale, error) {
	sl := sale.Sale{
		ID:            r.ID,
		StoreID:       r.StoreID,
		CashierID:     r.CashierID,
		CustomerID:    r.CustomerID.String,
		SubtotalCents: r.SubtotalCents,
		DiscountCents: r.DiscountCents,
		TotalCents:    r.TotalCents,
		TenderedCents: r.TenderedCents,
		ChangeCents:   r.ChangeCents,
		PaymentMethod: sale.PaymentMethod(r.PaymentMethod),
		Status:        sale.Status(r.Status),
		ClientRef:     r.ClientRef.String,
		Note:          r.Note.String,
		CreatedAt:     r.CreatedAt.UTC(),
		VoidedAt:      timePtr(r.VoidedAt),
		VoidedBy:      r.VoidedBy.String,
	}
	if len(r.Lines) > 0 {
		if err := json.Unmarshal(r.Lines, &sl.Lines); err != nil {
			return sale.Sale{}, fmt.Errorf("decode sale lines: %w", err)
		}
	}
	return sl, nil
}

func saleToRow(sl sale.Sale) (saleRow, error) {
	linesJSON, err := json.Marshal(sl.Lines)
	if err != nil {
		return saleRow{}, err
	}
	return saleRow{
		ID:            sl.ID,
		StoreID:       sl.StoreID,
		CashierID:     sl.CashierID,
		CustomerID:    nullString(sl.CustomerID),
		Lines:         linesJSON,
		SubtotalCents: sl.SubtotalCents,
		DiscountCents: sl.DiscountCents,
		TotalCents:    sl.TotalCents,
		TenderedCents: sl.TenderedCents,
		ChangeCents:   sl.ChangeCents,
		PaymentMethod: string(sl.PaymentMethod),
		Status:        string(sl.Status),
		ClientRef:     nullString(sl.ClientRef),
		Note:          nullString(sl.Note),
		CreatedAt:     sl.CreatedAt,
		VoidedAt:      nullTimePtr(sl.VoidedAt),
		VoidedBy:      nullString(sl.VoidedBy),
	}, nil
}

const saleColumns = `id, store_id, cashier_id, customer_id, lines, subtotal_cents, discount_cents, total_cents, tendered_cents, change_cents, payment_method, status, client_ref, note, created_at, voided_at, voided_by`

func (s *Store) CreateSale(ctx context.Context, sl sale.Sale) (sale.Sale, error) {
	if sl.ID == "" {
		sl.ID = uuid.NewString()
	}
	if sl.CreatedAt.IsZero() {
		sl.CreatedAt = time.Now().UTC()
	}

	row, err := saleToRow(sl)
	if err != nil {
		return sale.Sale{}, err
	}
	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO sales (id, store_id, cashier_id, customer_id, lines, subtotal_cents, discount_cents, total_cents, tendered_cents, change_cents, payment_method, status, client_ref, note, created_at, voided_at, voided_by)
		VALUES (:id, :store_id, :cashier_id, :customer_id, :lines, :subtotal_cents, :discount_cents, :total_cents, :tendered_cents, :change_cents, :payment_method, :status, :client_ref, :note, :created_at, :voided_at, :voided_by)
	`, row)
	if err != nil {
		return sale.Sale{}, translateErr(err)
	}
	return sl, nil
}

func (s *Store) UpdateSale(ctx context.Context, sl sale.Sale) (sale.Sale, error) {
	row, err := saleToRow(sl)
	if err != nil {
		return sale.Sale{}, err
	}
	result, err := s.db.NamedExecContext(ctx, `
		UPDATE sales
		SET customer_id = :customer_id, status = :status, note = :note,
		    voided_at = :voided_at, voided_by = :voided_by
		WHERE id = :id
	`, row)
	if err != nil {
		return sale.Sale{}, translateErr(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return sale.Sale{}, fmt.Errorf("sale %s: %w", sl.ID, storage.ErrNotFound)
	}
	return s.GetSale(ctx, sl.ID)
}

func (s *Store) GetSale(ctx context.Context, id string) (sale.Sale, error) {
	var row saleRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT `+saleColumns+` FROM sales WHERE id = ?`), id)
	if err != nil {
		return sale.Sale{}, translateErr(err)
	}
	return row.toDomain()
}

func (s *Store) GetSaleByClientRef(ctx context.Context, storeID, clientRef string) (sale.Sale, error) {
	var row saleRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`
		SELECT `+saleColumns+` FROM sales WHERE store_id = ? AND client_ref = ?
	`), storeID, clientRef)
	if err != nil {
		return sale.Sale{}, translateErr(err)
	}
	return row.toDomain()
}

func (s *Store) ListSales(ctx context.Context, storeID string, filter storage.SaleFilter) ([]sale.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE store_id = ?`
	args := []any{storeID}

	if !filter.From.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, filter.From.UTC())
	}
	if !filter.To.IsZero() {
		query += ` AND created_at < ?`
		args = append(args, filter.To.UTC())
	}
	if filter.CashierID != "" {
		query += ` AND cashier_id = ?`
		args = append(args, filter.CashierID)
	}
	if filter.CustomerID != "" {
		query += ` AND customer_id = ?`
		args = append(args, filter.CustomerID)
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	var rows []saleRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, translateErr(err)
	}
	result := make([]sale.Sale, 0, len(rows))
	for _, r := range rows {
		sl, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		result = append(result, sl)
	}
	return result, nil
}

// --- MovementStore ----------------------------------------------------------

type movementRow struct {
	ID            string         `db:"id"`
	StoreID       string         `db:"store_id"`
	ProductID     string         `db:"product_id"`
	Kind          string         `db:"kind"`
	Quantity      int            `db:"quantity"`
	UnitCostCents int64          `db:"unit_cost_cents"`
	Reference     sql.NullString `db:"reference"`
	RecordedBy    sql.NullString `db:"recorded_by"`
	CreatedAt     time.Time      `db:"created_at"`
}

func (r movementRow) toDomain() stock.Movement {
	return stock.Movement{
		ID:            r.ID,
		StoreID:       r.StoreID,
		ProductID:     r.ProductID,
		Kind:          stock.MovementKind(r.Kind),
		Quantity:      r.Quantity,
		UnitCostCents: r.UnitCostCents,
		Reference:     r.Reference.String,
		RecordedBy:    r.RecordedBy.String,
		CreatedAt:     r.CreatedAt.UTC(),
	}
}

func (s *Store) CreateMovement(ctx context.Context, m stock.Movement) (stock.Movement, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO stock_movements (id, store_id, product_id, kind, quantity, unit_cost_cents, reference, recorded_by, created_at)
		VALUES (:id, :store_id, :product_id, :kind, :quantity, :unit_cost_cents, :reference, :recorded_by, :created_at)
	`, movementRow{
		ID:            m.ID,
		StoreID:       m.StoreID,
		ProductID:     m.ProductID,
		Kind:          string(m.Kind),
		Quantity:      m.Quantity,
		UnitCostCents: m.UnitCostCents,
		Reference:     nullString(m.Reference),
		RecordedBy:    nullString(m.RecordedBy),
		CreatedAt:     m.CreatedAt,
	})
	if err != nil {
		return stock.Movement{}, translateErr(err)
	}
	return m, nil
}

func (s *Store) ListMovements(ctx context.Context, storeID string, filter storage.MovementFilter) ([]stock.Movement, error) {
	query := `SELECT id, store_id, product_id, kind, quantity, unit_cost_cents, reference, recorded_by, created_at FROM stock_movements WHERE store_id = ?`
	args := []any{storeID}

	if filter.ProductID != "" {
		query += ` AND product_id = ?`
		args = append(args, filter.ProductID)
	}
	if !filter.From.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, filter.From.UTC())
	}
	if !filter.To.IsZero() {
		query += ` AND created_at < ?`
		args = append(args, filter.To.UTC())
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	var rows []movementRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, translateErr(err)
	}
	result := make([]stock.Movement, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.toDomain())
	}
	return result, nil
}

// --- CustomerStore ----------------------------------------------------------

type customerRow struct {
	ID              string         `db:"id"`
	StoreID         string         `db:"store_id"`
	Name            string         `db:"name"`
	Phone           sql.NullString `db:"phone"`
	Email           sql.NullString `db:"email"`
	Notes           sql.NullString `db:"notes"`
	PurchaseCount   int            `db:"purchase_count"`
	TotalSpentCents int64          `db:"total_spent_cents"`
	LastPurchaseAt  sql.NullTime   `db:"last_purchase_at"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

func (r customerRow) toDomain() customer.Customer {
	return customer.Customer{
		ID:              r.ID,
		StoreID:         r.StoreID,
		Name:            r.Name,
		Phone:           r.Phone.String,
		Email:           r.Email.String,
		Notes:           r.Notes.String,
		PurchaseCount:   r.PurchaseCount,
		TotalSpentCents: r.TotalSpentCents,
		LastPurchaseAt:  timePtr(r.LastPurchaseAt),
		CreatedAt:       r.CreatedAt.UTC(),
		UpdatedAt:       r.UpdatedAt.UTC(),
	}
}

func customerToRow(c customer.Customer) customerRow {
	return customerRow{
		ID:              c.ID,
		StoreID:         c.StoreID,
		Name:            c.Name,
		Phone:           nullString(c.Phone),
		Email:           nullString(c.Email),
		Notes:           nullString(c.Notes),
		PurchaseCount:   c.PurchaseCount,
		TotalSpentCents: c.TotalSpentCents,
		LastPurchaseAt:  nullTimePtr(c.LastPurchaseAt),
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

const customerColumns = `id, store_id, name, phone, email, notes, purchase_count, total_spent_cents, last_purchase_at, created_at, updated_at`

func (s *Store) CreateCustomer(ctx context.Context, c customer.Customer) (customer.Customer, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO customers (id, store_id, name, phone, email, notes, purchase_count, total_spent_cents, last_purchase_at, created_at, updated_at)
		VALUES (:id, :store_id, :name, :phone, :email, :notes, :purchase_count, :total_spent_cents, :last_purchase_at, :created_at, :updated_at)
	`, customerToRow(c))
	if err != nil {
		return customer.Customer{}, translateErr(err)
	}
	return s.GetCustomer(ctx, c.ID)
}

func (s *Store) UpdateCustomer(ctx context.Context, c customer.Customer) (customer.Customer, error) {
	existing, err := s.GetCustomer(ctx, c.ID)
	if err != nil {
		return customer.Customer{}, err
	}
	c.StoreID = existing.StoreID
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = time.Now().UTC()

	result, err := s.db.NamedExecContext(ctx, `
		UPDATE customers
		SET name = :name, phone = :phone, email = :email, notes = :notes,
		    purchase_count = :purchase_count, total_spent_cents = :total_spent_cents,
		    last_purchase_at = :last_purchase_at, updated_at = :updated_at
		WHERE id = :id
	`, customerToRow(c))
	if err != nil {
		return customer.Customer{}, translateErr(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return customer.Customer{}, fmt.Errorf("customer %s: %w", c.ID, storage.ErrNotFound)
	}
	return s.GetCustomer(ctx, c.ID)
}

func (s *Store) GetCustomer(ctx context.Context, id string) (customer.Customer, error) {
	var row customerRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT `+customerColumns+` FROM customers WHERE id = ?`), id)
	if err != nil {
		return customer.Customer{}, translateErr(err)
	}
	return row.toDomain(), nil
}

func (s *Store) GetCustomerByPhone(ctx context.Context, storeID, phone string) (customer.Customer, error) {
	var row customerRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`
		SELECT `+customerColumns+` FROM customers WHERE store_id = ? AND phone = ?
	`), storeID, phone)
	if err != nil {
		return customer.Customer{}, translateErr(err)
	}
	return row.toDomain(), nil
}

func (s *Store) ListCustomers(ctx context.Context, storeID, search string) ([]customer.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE store_id = ?`
	args := []any{storeID}
	if needle := strings.TrimSpace(search); needle != "" {
		query += ` AND (LOWER(name) LIKE ? OR phone LIKE ?)`
		args = append(args, "%"+strings.ToLower(needle)+"%", "%"+needle+"%")
	}
	query += ` ORDER BY name`

	var rows []customerRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, translateErr(err)
	}
	result := make([]customer.Customer, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.toDomain())
	}
	return result, nil
}

func (s *Store) ListCustomersChangedSince(ctx context.Context, storeID string, since time.Time) ([]customer.Customer, error) {
	var rows []customerRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
		SELECT `+customerColumns+` FROM customers WHERE store_id = ? AND updated_at > ? ORDER BY updated_at
	`), storeID, since.UTC())
	if err != nil {
		return nil, translateErr(err)
	}
	result := make([]customer.Customer, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.toDomain())
	}
	return result, nil
}

func (s *Store) DeleteCustomer(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM customers WHERE id = ?`), id)
	if err != nil {
		return translateErr(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("customer %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// --- ExpenseStore -----------------------------------------------------------

type expenseRow struct {
	ID          string         `db:"id"`
	StoreID     string         `db:"store_id"`
	Category    string         `db:"category"`
	AmountCents int64          `db:"amount_cents"`
	Note        sql.NullString `db:"note"`
	RecordedBy  sql.NullString `db:"recorded_by"`
	IncurredAt  time.Time      `db:"incurred_at"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (r expenseRow) toDomain() expense.Expense {
	return expense.Expense{
		ID:          r.ID,
		StoreID:     r.StoreID,
		Category:    r.Category,
		AmountCents: r.AmountCents,
		Note:        r.Note.String,
		RecordedBy:  r.RecordedBy.String,
		IncurredAt:  r.IncurredAt.UTC(),
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

func (s *Store) CreateExpense(ctx context.Context, e expense.Expense) (expense.Expense, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	if e.IncurredAt.IsZero() {
		e.IncurredAt = now
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO expenses (id, store_id, category, amount_cents, note, recorded_by, incurred_at, created_at, updated_at)
		VALUES (:id, :store_id, :category, :amount_cents, :note, :recorded_by, :incurred_at, :created_at, :updated_at)
	`, expenseRow{
		ID:          e.ID,
		StoreID:     e.StoreID,
		Category:    e.Category,
		AmountCents: e.AmountCents,
		Note:        nullString(e.Note),
		RecordedBy:  nullString(e.RecordedBy),
		IncurredAt:  e.IncurredAt,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	})
	if err != nil {
		return expense.Expense{}, translateErr(err)
	}
	return e, nil
}

func (s *Store) UpdateExpense(ctx context.Context, e expense.Expense) (expense.Expense, error) {
	e.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE expenses
		SET category = ?, amount_cents = ?, note = ?, incurred_at = ?, updated_at = ?
		WHERE id = ?
	`), e.Category, e.AmountCents, nullString(e.Note), e.IncurredAt.UTC(), e.UpdatedAt, e.ID)
	if err != nil {
		return expense.Expense{}, translateErr(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return expense.Expense{}, fmt.Errorf("expense %s: %w", e.ID, storage.ErrNotFound)
	}
	return s.GetExpense(ctx, e.ID)
}

func (s *Store) GetExpense(ctx context.Context, id string) (expense.Expense, error) {
	var row expenseRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`
		SELECT id, store_id, category, amount_cents, note, recorded_by, incurred_at, created_at, updated_at
		FROM expenses WHERE id = ?
	`), id)
	if err != nil {
		return expense.Expense{}, translateErr(err)
	}
	return row.toDomain(), nil
}

func (s *Store) ListExpenses(ctx context.Context, storeID string, from, to time.Time) ([]expense.Expense, error) {
	query := `SELECT id, store_id, category, amount_cents, note, recorded_by, incurred_at, created_at, updated_at FROM expenses WHERE store_id = ?`
	args := []any{storeID}
	if !from.IsZero() {
		query += ` AND incurred_at >= ?`
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		query += ` AND incurred_at < ?`
		args = append(args, to.UTC())
	}
	query += ` ORDER BY incurred_at DESC`

	var rows []expenseRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, translateErr(err)
	}
	result := make([]expense.Expense, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.toDomain())
	}
	return result, nil
}

func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM expenses WHERE id = ?`), id)
	if err != nil {
		return translateErr(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("expense %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// --- SubscriptionStore ------------------------------------------------------

type subscriptionRow struct {
	ID           string         `db:"id"`
	StoreID      string         `db:"store_id"`
	Plan         string         `db:"plan"`
	Status       string         `db:"status"`
	TrialEndsAt  sql.NullTime   `db:"trial_ends_at"`
	PeriodEndsAt sql.NullTime   `db:"period_ends_at"`
	Reference    sql.NullString `db:"reference"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (r subscriptionRow) toDomain() billing.Subscription {
	sub := billing.Subscription{
		ID:        r.ID,
		StoreID:   r.StoreID,
		Plan:      billing.PlanName(r.Plan),
		Status:    billing.Status(r.Status),
		Reference: r.Reference.String,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
	if r.TrialEndsAt.Valid {
		sub.TrialEndsAt = r.TrialEndsAt.Time.UTC()
	}
	if r.PeriodEndsAt.Valid {
		sub.PeriodEndsAt = r.PeriodEndsAt.Time.UTC()
	}
	return sub
}

func (s *Store) CreateSubscription(ctx context.Context, sub billing.Subscription) (billing.Subscription, error) {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	sub.CreatedAt = now
	sub.UpdatedAt = now

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO subscriptions (id, store_id, plan, status, trial_ends_at, period_ends_at, reference, created_at, updated_at)
		VALUES (:id, :store_id, :plan, :status, :trial_ends_at, :period_ends_at, :reference, :created_at, :updated_at)
	`, subscriptionRow{
		ID:           sub.ID,
		StoreID:      sub.StoreID,
		Plan:         string(sub.Plan),
		Status:       string(sub.Status),
		TrialEndsAt:  nullTime(sub.TrialEndsAt),
		PeriodEndsAt: nullTime(sub.PeriodEndsAt),
		Reference:    nullString(sub.Reference),
		CreatedAt:    sub.CreatedAt,
		UpdatedAt:    sub.UpdatedAt,
	})
	if err != nil {
		return billing.Subscription{}, translateErr(err)
	}
	return sub, nil
}

func (s *Store) UpdateSubscription(ctx context.Context, sub billing.Subscription) (billing.Subscription, error) {
	sub.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE subscriptions
		SET plan = ?, status = ?, trial_ends_at = ?, period_ends_at = ?, reference = ?, updated_at = ?
		WHERE store_id = ?
	`), string(sub.Plan), string(sub.Status), nullTime(sub.TrialEndsAt), nullTime(sub.PeriodEndsAt),
		nullString(sub.Reference), sub.UpdatedAt, sub.StoreID)
	if err != nil {
		return billing.Subscription{}, translateErr(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return billing.Subscription{}, fmt.Errorf("subscription for store %s: %w", sub.StoreID, storage.ErrNotFound)
	}
	return s.GetSubscriptionByStore(ctx, sub.StoreID)
}

func (s *Store) GetSubscriptionByStore(ctx context.Context, storeID string) (billing.Subscription, error) {
	var row subscriptionRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`
		SELECT id, store_id, plan, status, trial_ends_at, period_ends_at, reference, created_at, updated_at
		FROM subscriptions WHERE store_id = ?
	`), storeID)
	if err != nil {
		return billing.Subscription{}, translateErr(err)
	}
	return row.toDomain(), nil
}

// --- SummaryStore -----------------------------------------------------------

type summaryRow struct {
	ID            string    `db:"id"`
	StoreID       string    `db:"store_id"`
	Day           time.Time `db:"day"`
	GrossCents    int64     `db:"gross_cents"`
	DiscountCents int64     `db:"discount_cents"`
	NetCents      int64     `db:"net_cents"`
	ExpenseCents  int64     `db:"expense_cents"`
	SaleCount     int       `db:"sale_count"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (r summaryRow) toDomain() summary.Daily {
	return summary.Daily{
		ID:            r.ID,
		StoreID:       r.StoreID,
		Day:           summary.DayOf(r.Day),
		GrossCents:    r.GrossCents,
		DiscountCents: r.DiscountCents,
		NetCents:      r.NetCents,
		ExpenseCents:  r.ExpenseCents,
		SaleCount:     r.SaleCount,
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
}

func (s *Store) UpsertDailySummary(ctx context.Context, d summary.Daily) (summary.Daily, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	d.Day = summary.DayOf(d.Day)
	d.UpdatedAt = time.Now().UTC()

	// ON CONFLICT upsert works on PostgreSQL 9.5+ and SQLite 3.24+.
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO daily_summaries (id, store_id, day, gross_cents, discount_cents, net_cents, expense_cents, sale_count, updated_at)
		VALUES (:id, :store_id, :day, :gross_cents, :discount_cents, :net_cents, :expense_cents, :sale_count, :updated_at)
		ON CONFLICT (store_id, day) DO UPDATE SET
			gross_cents = excluded.gross_cents,
			discount_cents = excluded.discount_cents,
			net_cents = excluded.net_cents,
			expense_cents = excluded.expense_cents,
			sale_count = excluded.sale_count,
			updated_at = excluded.updated_at
	`, summaryRow{
		ID:            d.ID,
		StoreID:       d.StoreID,
		Day:           d.Day,
		GrossCents:    d.GrossCents,
		DiscountCents: d.DiscountCents,
		NetCents:      d.NetCents,
		ExpenseCents:  d.ExpenseCents,
		SaleCount:     d.SaleCount,
		UpdatedAt:     d.UpdatedAt,
	})
	if err != nil {
		return summary.Daily{}, translateErr(err)
	}
	return s.GetDailySummary(ctx, d.StoreID, d.Day)
}

func (s *Store) GetDailySummary(ctx context.Context, storeID string, day time.Time) (summary.Daily, error) {
	var row summaryRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`
		SELECT id, store_id, day, gross_cents, discount_cents, net_cents, expense_cents, sale_count, updated_at
		FROM daily_summaries WHERE store_id = ? AND day = ?
	`), storeID, summary.DayOf(day))
	if err != nil {
		return summary.Daily{}, translateErr(err)
	}
	return row.toDomain(), nil
}

func (s *Store) ListDailySummaries(ctx context.Context, storeID string, from, to time.Time) ([]summary.Daily, error) {
	query := `SELECT id, store_id, day, gross_cents, discount_cents, net_cents, expense_cents, sale_count, updated_at FROM daily_summaries WHERE store_id = ?`
	args := []any{storeID}
	if !from.IsZero() {
		query += ` AND day >= ?`
		args = append(args, summary.DayOf(from))
	}
	if !to.IsZero() {
		query += ` AND day <= ?`
		args = append(args, summary.DayOf(to))
	}
	query += ` ORDER BY day`

	var rows []summaryRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, translateErr(err)
	}
	result := make([]summary.Daily, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.toDomain())
	}
	return result, nil
}

// --- OpLogStore -------------------------------------------------------------

type opRecordRow struct {
	ID        string         `db:"id"`
	StoreID   string         `db:"store_id"`
	DeviceID  sql.NullString `db:"device_id"`
	OpID      string         `db:"op_id"`
	Kind      string         `db:"kind"`
	Status    string         `db:"status"`
	Message   sql.NullString `db:"message"`
	ResultID  sql.NullString `db:"result_id"`
	CreatedAt time.Time      `db:"created_at"`
}

func (r opRecordRow) toDomain() oplog.Record {
	return oplog.Record{
		ID:        r.ID,
		StoreID:   r.StoreID,
		DeviceID:  r.DeviceID.String,
		OpID:      r.OpID,
		Kind:      r.Kind,
		Status:    oplog.OpStatus(r.Status),
		Message:   r.Message.String,
		ResultID:  r.ResultID.String,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

func (s *Store) CreateOpRecord(ctx context.Context, rec oplog.Record) (oplog.Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.CreatedAt = time.Now().UTC()

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO op_log (id, store_id, device_id, op_id, kind, status, message, result_id, created_at)
		VALUES (:id, :store_id, :device_id, :op_id, :kind, :status, :message, :result_id, :created_at)
	`, opRecordRow{
		ID:        rec.ID,
		StoreID:   rec.StoreID,
		DeviceID:  nullString(rec.DeviceID),
		OpID:      rec.OpID,
		Kind:      rec.Kind,
		Status:    string(rec.Status),
		Message:   nullString(rec.Message),
		ResultID:  nullString(rec.ResultID),
		CreatedAt: rec.CreatedAt,
	})
	if err != nil {
		return oplog.Record{}, translateErr(err)
	}
	return rec, nil
}

func (s *Store) GetOpRecord(ctx context.Context, storeID, opID string) (oplog.Record, error) {
	var row opRecordRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`
		SELECT id, store_id, device_id, op_id, kind, status, message, result_id, created_at
		FROM op_log WHERE store_id = ? AND op_id = ?
	`), storeID, opID)
	if err != nil {
		return oplog.Record{}, translateErr(err)
	}
	return row.toDomain(), nil
}

func (s *Store) DeleteOpRecordsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM op_log WHERE created_at < ?`), cutoff.UTC())
	if err != nil {
		return 0, translateErr(err)
	}
	rows, _ := result.RowsAffected()
	return int(rows), nil
}
