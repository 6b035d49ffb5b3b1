// Package customers manages the per-store customer book. Purchase
// stats on a customer are written by sale commits, never by hand.
package customers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/customer"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/sale"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/storage"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/apperr"
	"github.com/learngermanghana/sedifexbiz-sub004/pkg/logger"
)

// Service manages customers.
type Service struct {
	customers storage.CustomerStore
	sales     storage.SaleStore
	log       *logger.Logger
}

// New constructs a customers service.
func New(customers storage.CustomerStore, sales storage.SaleStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("customers")
	}
	return &Service{customers: customers, sales: sales, log: log}
}

// CreateInput carries the fields for a new customer.
type CreateInput struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
	Notes string `json:"notes"`
}

// Create adds a customer. Phone numbers are unique per store when
// given, so the same walk-in cannot be filed twice.
func (s *Service) Create(ctx context.Context, storeID string, in CreateInput) (customer.Customer, error) {
	name := strings.TrimSpace(in.Name)
	if storeID == "" {
		return customer.Customer{}, apperr.Invalid("store_id is required")
	}
	if name == "" {
		return customer.Customer{}, apperr.Invalid("customer name is required")
	}

	phone := normalizePhone(in.Phone)
	created, err := s.customers.CreateCustomer(ctx, customer.Customer{
		StoreID: storeID,
		Name:    name,
		Phone:   phone,
		Email:   strings.ToLower(strings.TrimSpace(in.Email)),
		Notes:   strings.TrimSpace(in.Notes),
	})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return customer.Customer{}, apperr.Conflict("a customer with phone %s already exists", phone)
		}
		return customer.Customer{}, err
	}

	s.log.WithField("store_id", storeID).
		WithField("customer_id", created.ID).
		Info("customer created")
	return created, nil
}

// UpdateInput carries customer changes. Nil fields are left unchanged.
type UpdateInput struct {
	Name  *string `json:"name,omitempty"`
	Phone *string `json:"phone,omitempty"`
	Email *string `json:"email,omitempty"`
	Notes *string `json:"notes,omitempty"`
}

// Update applies profile changes. Purchase stats cannot be edited.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (customer.Customer, error) {
	c, err := s.customers.GetCustomer(ctx, id)
	if err != nil {
		return customer.Customer{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return customer.Customer{}, apperr.Invalid("customer name cannot be empty")
		}
		c.Name = name
	}
	if in.Phone != nil {
		c.Phone = normalizePhone(*in.Phone)
	}
	if in.Email != nil {
		c.Email = strings.ToLower(strings.TrimSpace(*in.Email))
	}
	if in.Notes != nil {
		c.Notes = strings.TrimSpace(*in.Notes)
	}

	updated, err := s.customers.UpdateCustomer(ctx, c)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return customer.Customer{}, apperr.Conflict("a customer with phone %s already exists", c.Phone)
		}
		return customer.Customer{}, err
	}

	s.log.WithField("customer_id", id).Info("customer updated")
	return updated, nil
}

// Get returns a customer.
func (s *Service) Get(ctx context.Context, id string) (customer.Customer, error) {
	return s.customers.GetCustomer(ctx, id)
}

// List returns the store's customers, optionally filtered by a name,
// phone, or email search.
func (s *Service) List(ctx context.Context, storeID, search string) ([]customer.Customer, error) {
	return s.customers.ListCustomers(ctx, storeID, strings.TrimSpace(search))
}

// Delete removes a customer. Their sales survive with a dangling
// customer reference; history belongs to the store, not the customer
// record.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.customers.DeleteCustomer(ctx, id); err != nil {
		return err
	}
	s.log.WithField("customer_id", id).Info("customer deleted")
	return nil
}

// ChangedSince returns customers touched after the given instant, for
// offline clients refreshing their local book.
func (s *Service) ChangedSince(ctx context.Context, storeID string, since time.Time) ([]customer.Customer, error) {
	return s.customers.ListCustomersChangedSince(ctx, storeID, since)
}

// Purchases returns the customer's sales, newest first.
func (s *Service) Purchases(ctx context.Context, storeID, customerID string, limit int) ([]sale.Sale, error) {
	if _, err := s.customers.GetCustomer(ctx, customerID); err != nil {
		return nil, err
	}
	return s.sales.ListSales(ctx, storeID, storage.SaleFilter{CustomerID: customerID, Limit: limit})
}

// RecordPurchase bumps the customer's purchase stats after a sale
// commits. A missing customer is ignored; the sale already happened.
func (s *Service) RecordPurchase(ctx context.Context, customerID string, totalCents int64, at time.Time) {
	c, err := s.customers.GetCustomer(ctx, customerID)
	if err != nil {
		s.log.WithField("customer_id", customerID).Warn("purchase stats skipped, customer missing")
		return
	}

	at = at.UTC()
	c.PurchaseCount++
	c.TotalSpentCents += totalCents
	c.LastPurchaseAt = &at
	if _, err := s.customers.UpdateCustomer(ctx, c); err != nil {
		s.log.WithError(err).WithField("customer_id", customerID).Warn("purchase stats update failed")
	}
}

// UnwindPurchase reverses one purchase from the stats after a void.
func (s *Service) UnwindPurchase(ctx context.Context, customerID string, totalCents int64) {
	c, err := s.customers.GetCustomer(ctx, customerID)
	if err != nil {
		return
	}

	if c.PurchaseCount > 0 {
		c.PurchaseCount--
	}
	c.TotalSpentCents -= totalCents
	if c.TotalSpentCents < 0 {
		c.TotalSpentCents = 0
	}
	if _, err := s.customers.UpdateCustomer(ctx, c); err != nil {
		s.log.WithError(err).WithField("customer_id", customerID).Warn("purchase stats unwind failed")
	}
}

func normalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}
