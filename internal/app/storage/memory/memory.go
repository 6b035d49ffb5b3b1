package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
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
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local development.
type Store struct {
	mu     sync.RWMutex
	nextID int64

	users        map[string]user.User
	usersByEmail map[string]string

	sessions       map[string]user.Session
	sessionsByHash map[string]string

	stores       map[string]store.Store
	storesBySlug map[string]string

	memberships      map[string]store.Membership
	membershipByPair map[string]string

	products      map[string]product.Product
	productsBySKU map[string]string

	sales           map[string]sale.Sale
	salesByClient   map[string]string
	movements       map[string][]stock.Movement
	customers       map[string]customer.Customer
	customersPhone  map[string]string
	expenses        map[string]expense.Expense
	subscriptions   map[string]billing.Subscription
	dailySummaries  map[string]summary.Daily
	opRecords       map[string]oplog.Record
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

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:           1,
		users:            make(map[string]user.User),
		usersByEmail:     make(map[string]string),
		sessions:         make(map[string]user.Session),
		sessionsByHash:   make(map[string]string),
		stores:           make(map[string]store.Store),
		storesBySlug:     make(map[string]string),
		memberships:      make(map[string]store.Membership),
		membershipByPair: make(map[string]string),
		products:         make(map[string]product.Product),
		productsBySKU:    make(map[string]string),
		sales:            make(map[string]sale.Sale),
		salesByClient:    make(map[string]string),
		movements:        make(map[string][]stock.Movement),
		customers:        make(map[string]customer.Customer),
		customersPhone:   make(map[string]string),
		expenses:         make(map[string]expense.Expense),
		subscriptions:    make(map[string]billing.Subscription),
		dailySummaries:   make(map[string]summary.Daily),
		opRecords:        make(map[string]oplog.Record),
	}
}

func (s *Store) nextIDLocked() string {
	id := s.nextID
	s.nextID++
	return fmt.Sprintf("%d", id)
}

func pairKey(a, b string) string {
	return a + "|" + b
}

func dayKey(storeID string, day time.Time) string {
	return storeID + "|" + summary.DayOf(day).Format("2006-01-02")
}

// UserStore implementation ----------------------------------------------------

func (s *Store) CreateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	emailKey := strings.ToLower(strings.TrimSpace(u.Email))
	if _, exists := s.usersByEmail[emailKey]; exists {
		return user.User{}, fmt.Errorf("user %s: %w", u.Email, storage.ErrDuplicate)
	}

	if u.ID == "" {
		u.ID = s.nextIDLocked()
	} else if _, exists := s.users[u.ID]; exists {
		return user.User{}, fmt.Errorf("user %s: %w", u.ID, storage.ErrDuplicate)
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	s.users[u.ID] = u
	s.usersByEmail[emailKey] = u.ID
	return u, nil
}

func (s *Store) UpdateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.users[u.ID]
	if !ok {
		return user.User{}, fmt.Errorf("user %s: %w", u.ID, storage.ErrNotFound)
	}

	oldKey := strings.ToLower(strings.TrimSpace(original.Email))
	newKey := strings.ToLower(strings.TrimSpace(u.Email))
	if newKey != oldKey {
		if _, exists := s.usersByEmail[newKey]; exists {
			return user.User{}, fmt.Errorf("user %s: %w", u.Email, storage.ErrDuplicate)
		}
		delete(s.usersByEmail, oldKey)
		s.usersByEmail[newKey] = u.ID
	}

	u.CreatedAt = original.CreatedAt
	u.UpdatedAt = time.Now().UTC()

	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return user.User{}, fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.usersByEmail[strings.ToLower(strings.TrimSpace(email))]; ok {
		return s.users[id], nil
	}
	return user.User{}, fmt.Errorf("user %s: %w", email, storage.ErrNotFound)
}

func (s *Store) CreateSession(_ context.Context, sess user.Session) (user.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess.ID == "" {
		sess.ID = s.nextIDLocked()
	}
	sess.CreatedAt = time.Now().UTC()

	s.sessions[sess.ID] = sess
	s.sessionsByHash[sess.TokenHash] = sess.ID
	return sess, nil
}

func (s *Store) GetSessionByTokenHash(_ context.Context, tokenHash string) (user.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.sessionsByHash[tokenHash]; ok {
		return s.sessions[id], nil
	}
	return user.Session{}, fmt.Errorf("session: %w", storage.ErrNotFound)
}

func (s *Store) RevokeSession(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("session %s: %w", id, storage.ErrNotFound)
	}
	if sess.RevokedAt == nil {
		at = at.UTC()
		sess.RevokedAt = &at
		s.sessions[id] = sess
	}
	return nil
}

func (s *Store) RevokeUserSessions(_ context.Context, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	at = at.UTC()
	for id, sess := range s.sessions {
		if sess.UserID == userID && sess.RevokedAt == nil {
			revoked := at
			sess.RevokedAt = &revoked
			s.sessions[id] = sess
		}
	}
	return nil
}

func (s *Store) DeleteExpiredSessions(_ context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.ExpiresAt.Before(before) {
			delete(s.sessions, id)
			delete(s.sessionsByHash, sess.TokenHash)
			removed++
		}
	}
	return removed, nil
}

// TenantStore implementation --------------------------------------------------

func (s *Store) CreateStore(_ context.Context, st store.Store) (store.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slugKey := strings.ToLower(st.Slug)
	if _, exists := s.storesBySlug[slugKey]; exists {
		return store.Store{}, fmt.Errorf("store slug %s: %w", st.Slug, storage.ErrDuplicate)
	}

	if st.ID == "" {
		st.ID = s.nextIDLocked()
	} else if _, exists := s.stores[st.ID]; exists {
		return store.Store{}, fmt.Errorf("store %s: %w", st.ID, storage.ErrDuplicate)
	}

	now := time.Now().UTC()
	st.CreatedAt = now
	st.UpdatedAt = now

	s.stores[st.ID] = st
	s.storesBySlug[slugKey] = st.ID
	return st, nil
}

func (s *Store) UpdateStore(_ context.Context, st store.Store) (store.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.stores[st.ID]
	if !ok {
		return store.Store{}, fmt.Errorf("store %s: %w", st.ID, storage.ErrNotFound)
	}

	oldKey := strings.ToLower(original.Slug)
	newKey := strings.ToLower(st.Slug)
	if newKey != oldKey {
		if _, exists := s.storesBySlug[newKey]; exists {
			return store.Store{}, fmt.Errorf("store slug %s: %w", st.Slug, storage.ErrDuplicate)
		}
		delete(s.storesBySlug, oldKey)
		s.storesBySlug[newKey] = st.ID
	}

	st.CreatedAt = original.CreatedAt
	st.UpdatedAt = time.Now().UTC()

	s.stores[st.ID] = st
	return st, nil
}

func (s *Store) GetStore(_ context.Context, id string) (store.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.stores[id]
	if !ok {
		return store.Store{}, fmt.Errorf("store %s: %w", id, storage.ErrNotFound)
	}
	return st, nil
}

func (s *Store) GetStoreBySlug(_ context.Context, slug string) (store.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.storesBySlug[strings.ToLower(slug)]; ok {
		return s.stores[id], nil
	}
	return store.Store{}, fmt.Errorf("store slug %s: %w", slug, storage.ErrNotFound)
}

func (s *Store) ListStores(_ context.Context) ([]store.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]store.Store, 0, len(s.stores))
	for _, st := range s.stores {
		result = append(result, st)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (s *Store) ListStoresByUser(_ context.Context, userID string) ([]store.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]store.Store, 0)
	for _, m := range s.memberships {
		if m.UserID == userID {
			if st, ok := s.stores[m.StoreID]; ok {
				result = append(result, st)
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (s *Store) CreateMembership(_ context.Context, m store.Membership) (store.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(m.StoreID, m.UserID)
	if _, exists := s.membershipByPair[key]; exists {
		return store.Membership{}, fmt.Errorf("membership %s: %w", key, storage.ErrDuplicate)
	}

	if m.ID == "" {
		m.ID = s.nextIDLocked()
	}

	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now

	s.memberships[m.ID] = m
	s.membershipByPair[key] = m.ID
	return m, nil
}

func (s *Store) UpdateMembership(_ context.Context, m store.Membership) (store.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.memberships[m.ID]
	if !ok {
		return store.Membership{}, fmt.Errorf("membership %s: %w", m.ID, storage.ErrNotFound)
	}

	m.StoreID = original.StoreID
	m.UserID = original.UserID
	m.CreatedAt = original.CreatedAt
	m.UpdatedAt = time.Now().UTC()

	s.memberships[m.ID] = m
	return m, nil
}

func (s *Store) GetMembership(_ context.Context, storeID, userID string) (store.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.membershipByPair[pairKey(storeID, userID)]; ok {
		return s.memberships[id], nil
	}
	return store.Membership{}, fmt.Errorf("membership %s/%s: %w", storeID, userID, storage.ErrNotFound)
}

func (s *Store) ListMemberships(_ context.Context, storeID string) ([]store.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]store.Membership, 0)
	for _, m := range s.memberships {
		if m.StoreID == storeID {
			result = append(result, m)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (s *Store) ListMembershipsByUser(_ context.Context, userID string) ([]store.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]store.Membership, 0)
	for _, m := range s.memberships {
		if m.UserID == userID {
			result = append(result, m)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (s *Store) DeleteMembership(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.memberships[id]
	if !ok {
		return fmt.Errorf("membership %s: %w", id, storage.ErrNotFound)
	}
	delete(s.memberships, id)
	delete(s.membershipByPair, pairKey(m.StoreID, m.UserID))
	return nil
}

// ProductStore implementation -------------------------------------------------

func (s *Store) CreateProduct(_ context.Context, p product.Product) (product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	skuKey := ""
	if p.SKU != "" {
		skuKey = pairKey(p.StoreID, strings.ToUpper(p.SKU))
		if _, exists := s.productsBySKU[skuKey]; exists {
			return product.Product{}, fmt.Errorf("sku %s: %w", p.SKU, storage.ErrDuplicate)
		}
	}

	if p.ID == "" {
		p.ID = s.nextIDLocked()
	} else if _, exists := s.products[p.ID]; exists {
		return product.Product{}, fmt.Errorf("product %s: %w", p.ID, storage.ErrDuplicate)
	}

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	s.products[p.ID] = p
	if skuKey != "" {
		s.productsBySKU[skuKey] = p.ID
	}
	return p, nil
}

func (s *Store) UpdateProduct(_ context.Context, p product.Product) (product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.products[p.ID]
	if !ok {
		return product.Product{}, fmt.Errorf("product %s: %w", p.ID, storage.ErrNotFound)
	}

	oldKey := ""
	if original.SKU != "" {
		oldKey = pairKey(original.StoreID, strings.ToUpper(original.SKU))
	}
	newKey := ""
	if p.SKU != "" {
		newKey = pairKey(p.StoreID, strings.ToUpper(p.SKU))
	}
	if newKey != oldKey {
		if newKey != "" {
			if existing, exists := s.productsBySKU[newKey]; exists && existing != p.ID {
				return product.Product{}, fmt.Errorf("sku %s: %w", p.SKU, storage.ErrDuplicate)
			}
		}
		if oldKey != "" {
			delete(s.productsBySKU, oldKey)
		}
		if newKey != "" {
			s.productsBySKU[newKey] = p.ID
		}
	}

	p.CreatedAt = original.CreatedAt
	p.UpdatedAt = time.Now().UTC()

	s.products[p.ID] = p
	return p, nil
}

func (s *Store) GetProduct(_ context.Context, id string) (product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return product.Product{}, fmt.Errorf("product %s: %w", id, storage.ErrNotFound)
	}
	return p, nil
}

func (s *Store) GetProductBySKU(_ context.Context, storeID, sku string) (product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.productsBySKU[pairKey(storeID, strings.ToUpper(sku))]; ok {
		return s.products[id], nil
	}
	return product.Product{}, fmt.Errorf("sku %s: %w", sku, storage.ErrNotFound)
}

func (s *Store) ListProducts(_ context.Context, storeID string, filter storage.ProductFilter) ([]product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	result := make([]product.Product, 0)
	for _, p := range s.products {
		if p.StoreID != storeID {
			continue
		}
		if filter.ActiveOnly && !p.Active {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.LowStockOnly && !p.LowStock() {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.SKU), search) &&
			!strings.Contains(strings.ToLower(p.Barcode), search) {
			continue
		}
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return fmt.Errorf("product %s: %w", id, storage.ErrNotFound)
	}
	delete(s.products, id)
	if p.SKU != "" {
		delete(s.productsBySKU, pairKey(p.StoreID, strings.ToUpper(p.SKU)))
	}
	return nil
}

func (s *Store) AdjustProductStock(_ context.Context, id string, delta int) (product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return product.Product{}, fmt.Errorf("product %s: %w", id, storage.ErrNotFound)
	}
	if p.StockCount+delta < 0 {
		return product.Product{}, fmt.Errorf("product %s: %w", id, storage.ErrInsufficientStock)
	}

	p.StockCount += delta
	p.UpdatedAt = time.Now().UTC()
	s.products[id] = p
	return p, nil
}

func (s *Store) ListProductsChangedSince(_ context.Context, storeID string, since time.Time) ([]product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]product.Product, 0)
	for _, p := range s.products {
		if p.StoreID == storeID && p.UpdatedAt.After(since) {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UpdatedAt.Before(result[j].UpdatedAt) })
	return result, nil
}

// SaleStore implementation ----------------------------------------------------

func (s *Store) CreateSale(_ context.Context, sl sale.Sale) (sale.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	refKey := ""
	if sl.ClientRef != "" {
		refKey = pairKey(sl.StoreID, sl.ClientRef)
		if _, exists := s.salesByClient[refKey]; exists {
			return sale.Sale{}, fmt.Errorf("client ref %s: %w", sl.ClientRef, storage.ErrDuplicate)
		}
	}

	if sl.ID == "" {
		sl.ID = s.nextIDLocked()
	} else if _, exists := s.sales[sl.ID]; exists {
		return sale.Sale{}, fmt.Errorf("sale %s: %w", sl.ID, storage.ErrDuplicate)
	}

	if sl.CreatedAt.IsZero() {
		sl.CreatedAt = time.Now().UTC()
	}
	sl.Lines = cloneLines(sl.Lines)

	s.sales[sl.ID] = sl
	if refKey != "" {
		s.salesByClient[refKey] = sl.ID
	}
	return cloneSale(sl), nil
}

func (s *Store) UpdateSale(_ context.Context, sl sale.Sale) (sale.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.sales[sl.ID]
	if !ok {
		return sale.Sale{}, fmt.Errorf("sale %s: %w", sl.ID, storage.ErrNotFound)
	}

	sl.StoreID = original.StoreID
	sl.CreatedAt = original.CreatedAt
	sl.Lines = cloneLines(sl.Lines)

	s.sales[sl.ID] = sl
	return cloneSale(sl), nil
}

func (s *Store) GetSale(_ context.Context, id string) (sale.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sl, ok := s.sales[id]
	if !ok {
		return sale.Sale{}, fmt.Errorf("sale %s: %w", id, storage.ErrNotFound)
	}
	return cloneSale(sl), nil
}

func (s *Store) GetSaleByClientRef(_ context.Context, storeID, clientRef string) (sale.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.salesByClient[pairKey(storeID, clientRef)]; ok {
		return cloneSale(s.sales[id]), nil
	}
	return sale.Sale{}, fmt.Errorf("client ref %s: %w", clientRef, storage.ErrNotFound)
}

func (s *Store) ListSales(_ context.Context, storeID string, filter storage.SaleFilter) ([]sale.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]sale.Sale, 0)
	for _, sl := range s.sales {
		if sl.StoreID != storeID {
			continue
		}
		if !filter.From.IsZero() && sl.CreatedAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !sl.CreatedAt.Before(filter.To) {
			continue
		}
		if filter.CashierID != "" && sl.CashierID != filter.CashierID {
			continue
		}
		if filter.CustomerID != "" && sl.CustomerID != filter.CustomerID {
			continue
		}
		result = append(result, cloneSale(sl))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

// MovementStore implementation ------------------------------------------------

func (s *Store) CreateMovement(_ context.Context, m stock.Movement) (stock.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.ID == "" {
		m.ID = s.nextIDLocked()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	s.movements[m.StoreID] = append(s.movements[m.StoreID], m)
	return m, nil
}

func (s *Store) ListMovements(_ context.Context, storeID string, filter storage.MovementFilter) ([]stock.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]stock.Movement, 0)
	for _, m := range s.movements[storeID] {
		if filter.ProductID != "" && m.ProductID != filter.ProductID {
			continue
		}
		if !filter.From.IsZero() && m.CreatedAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !m.CreatedAt.Before(filter.To) {
			continue
		}
		result = append(result, m)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

// CustomerStore implementation ------------------------------------------------

func (s *Store) CreateCustomer(_ context.Context, c customer.Customer) (customer.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	phoneKey := ""
	if c.Phone != "" {
		phoneKey = pairKey(c.StoreID, c.Phone)
		if _, exists := s.customersPhone[phoneKey]; exists {
			return customer.Customer{}, fmt.Errorf("phone %s: %w", c.Phone, storage.ErrDuplicate)
		}
	}

	if c.ID == "" {
		c.ID = s.nextIDLocked()
	} else if _, exists := s.customers[c.ID]; exists {
		return customer.Customer{}, fmt.Errorf("customer %s: %w", c.ID, storage.ErrDuplicate)
	}

	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	s.customers[c.ID] = c
	if phoneKey != "" {
		s.customersPhone[phoneKey] = c.ID
	}
	return c, nil
}

func (s *Store) UpdateCustomer(_ context.Context, c customer.Customer) (customer.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.customers[c.ID]
	if !ok {
		return customer.Customer{}, fmt.Errorf("customer %s: %w", c.ID, storage.ErrNotFound)
	}

	oldKey := ""
	if original.Phone != "" {
		oldKey = pairKey(original.StoreID, original.Phone)
	}
	newKey := ""
	if c.Phone != "" {
		newKey = pairKey(c.StoreID, c.Phone)
	}
	if newKey != oldKey {
		if newKey != "" {
			if existing, exists := s.customersPhone[newKey]; exists && existing != c.ID {
				return customer.Customer{}, fmt.Errorf("phone %s: %w", c.Phone, storage.ErrDuplicate)
			}
		}
		if oldKey != "" {
			delete(s.customersPhone, oldKey)
		}
		if newKey != "" {
			s.customersPhone[newKey] = c.ID
		}
	}

	c.CreatedAt = original.CreatedAt
	c.UpdatedAt = time.Now().UTC()

	s.customers[c.ID] = c
	return c, nil
}

func (s *Store) GetCustomer(_ context.Context, id string) (customer.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.customers[id]
	if !ok {
		return customer.Customer{}, fmt.Errorf("customer %s: %w", id, storage.ErrNotFound)
	}
	return c, nil
}

func (s *Store) GetCustomerByPhone(_ context.Context, storeID, phone string) (customer.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.customersPhone[pairKey(storeID, phone)]; ok {
		return s.customers[id], nil
	}
	return customer.Customer{}, fmt.Errorf("phone %s: %w", phone, storage.ErrNotFound)
}

func (s *Store) ListCustomers(_ context.Context, storeID, search string) ([]customer.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(search))
	result := make([]customer.Customer, 0)
	for _, c := range s.customers {
		if c.StoreID != storeID {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(c.Name), needle) &&
			!strings.Contains(c.Phone, needle) {
			continue
		}
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (s *Store) ListCustomersChangedSince(_ context.Context, storeID string, since time.Time) ([]customer.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]customer.Customer, 0)
	for _, c := range s.customers {
		if c.StoreID == storeID && c.UpdatedAt.After(since) {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UpdatedAt.Before(result[j].UpdatedAt) })
	return result, nil
}

func (s *Store) DeleteCustomer(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.customers[id]
	if !ok {
		return fmt.Errorf("customer %s: %w", id, storage.ErrNotFound)
	}
	delete(s.customers, id)
	if c.Phone != "" {
		delete(s.customersPhone, pairKey(c.StoreID, c.Phone))
	}
	return nil
}

// ExpenseStore implementation -------------------------------------------------

func (s *Store) CreateExpense(_ context.Context, e expense.Expense) (expense.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = s.nextIDLocked()
	} else if _, exists := s.expenses[e.ID]; exists {
		return expense.Expense{}, fmt.Errorf("expense %s: %w", e.ID, storage.ErrDuplicate)
	}

	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	if e.IncurredAt.IsZero() {
		e.IncurredAt = now
	}

	s.expenses[e.ID] = e
	return e, nil
}

func (s *Store) UpdateExpense(_ context.Context, e expense.Expense) (expense.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.expenses[e.ID]
	if !ok {
		return expense.Expense{}, fmt.Errorf("expense %s: %w", e.ID, storage.ErrNotFound)
	}

	e.StoreID = original.StoreID
	e.CreatedAt = original.CreatedAt
	e.UpdatedAt = time.Now().UTC()

	s.expenses[e.ID] = e
	return e, nil
}

func (s *Store) GetExpense(_ context.Context, id string) (expense.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.expenses[id]
	if !ok {
		return expense.Expense{}, fmt.Errorf("expense %s: %w", id, storage.ErrNotFound)
	}
	return e, nil
}

func (s *Store) ListExpenses(_ context.Context, storeID string, from, to time.Time) ([]expense.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]expense.Expense, 0)
	for _, e := range s.expenses {
		if e.StoreID != storeID {
			continue
		}
		if !from.IsZero() && e.IncurredAt.Before(from) {
			continue
		}
		if !to.IsZero() && !e.IncurredAt.Before(to) {
			continue
		}
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].IncurredAt.After(result[j].IncurredAt) })
	return result, nil
}

func (s *Store) DeleteExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.expenses[id]; !ok {
		return fmt.Errorf("expense %s: %w", id, storage.ErrNotFound)
	}
	delete(s.expenses, id)
	return nil
}

// SubscriptionStore implementation --------------------------------------------

func (s *Store) CreateSubscription(_ context.Context, sub billing.Subscription) (billing.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.subscriptions[sub.StoreID]; exists {
		return billing.Subscription{}, fmt.Errorf("subscription for store %s: %w", sub.StoreID, storage.ErrDuplicate)
	}

	if sub.ID == "" {
		sub.ID = s.nextIDLocked()
	}

	now := time.Now().UTC()
	sub.CreatedAt = now
	sub.UpdatedAt = now

	s.subscriptions[sub.StoreID] = sub
	return sub, nil
}

func (s *Store) UpdateSubscription(_ context.Context, sub billing.Subscription) (billing.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.subscriptions[sub.StoreID]
	if !ok {
		return billing.Subscription{}, fmt.Errorf("subscription for store %s: %w", sub.StoreID, storage.ErrNotFound)
	}

	sub.ID = original.ID
	sub.CreatedAt = original.CreatedAt
	sub.UpdatedAt = time.Now().UTC()

	s.subscriptions[sub.StoreID] = sub
	return sub, nil
}

func (s *Store) GetSubscriptionByStore(_ context.Context, storeID string) (billing.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subscriptions[storeID]
	if !ok {
		return billing.Subscription{}, fmt.Errorf("subscription for store %s: %w", storeID, storage.ErrNotFound)
	}
	return sub, nil
}

// SummaryStore implementation -------------------------------------------------

func (s *Store) UpsertDailySummary(_ context.Context, d summary.Daily) (summary.Daily, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d.Day = summary.DayOf(d.Day)
	key := dayKey(d.StoreID, d.Day)
	if existing, ok := s.dailySummaries[key]; ok {
		d.ID = existing.ID
	} else if d.ID == "" {
		d.ID = s.nextIDLocked()
	}
	d.UpdatedAt = time.Now().UTC()

	s.dailySummaries[key] = d
	return d, nil
}

func (s *Store) GetDailySummary(_ context.Context, storeID string, day time.Time) (summary.Daily, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.dailySummaries[dayKey(storeID, day)]
	if !ok {
		return summary.Daily{}, fmt.Errorf("summary %s: %w", summary.DayOf(day).Format("2006-01-02"), storage.ErrNotFound)
	}
	return d, nil
}

func (s *Store) ListDailySummaries(_ context.Context, storeID string, from, to time.Time) ([]summary.Daily, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]summary.Daily, 0)
	for _, d := range s.dailySummaries {
		if d.StoreID != storeID {
			continue
		}
		if !from.IsZero() && d.Day.Before(summary.DayOf(from)) {
			continue
		}
		if !to.IsZero() && d.Day.After(summary.DayOf(to)) {
			continue
		}
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Day.Before(result[j].Day) })
	return result, nil
}

// OpLogStore implementation ---------------------------------------------------

func (s *Store) CreateOpRecord(_ context.Context, rec oplog.Record) (oplog.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(rec.StoreID, rec.OpID)
	if _, exists := s.opRecords[key]; exists {
		return oplog.Record{}, fmt.Errorf("op %s: %w", rec.OpID, storage.ErrDuplicate)
	}

	if rec.ID == "" {
		rec.ID = s.nextIDLocked()
	}
	rec.CreatedAt = time.Now().UTC()

	s.opRecords[key] = rec
	return rec, nil
}

func (s *Store) GetOpRecord(_ context.Context, storeID, opID string) (oplog.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.opRecords[pairKey(storeID, opID)]
	if !ok {
		return oplog.Record{}, fmt.Errorf("op %s: %w", opID, storage.ErrNotFound)
	}
	return rec, nil
}

func (s *Store) DeleteOpRecordsBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, rec := range s.opRecords {
		if rec.CreatedAt.Before(cutoff) {
			delete(s.opRecords, key)
			removed++
		}
	}
	return removed, nil
}

// Helpers ---------------------------------------------------------------------

func cloneLines(lines []sale.Line) []sale.Line {
	if len(lines) == 0 {
		return nil
	}
	return append([]sale.Line(nil), lines...)
}

func cloneSale(sl sale.Sale) sale.Sale {
	sl.Lines = cloneLines(sl.Lines)
	return sl
}
