// Package sales owns the checkout path. Commit is the busiest write in
// the system and the one the offline queue replays, so it prices on
// the server, guards stock atomically, and stays idempotent per client
// reference.
package sales

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/sale"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/stock"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/metrics"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/realtime"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/services/customers"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/storage"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/apperr"
	"github.com/learngermanghana/sedifexbiz-sub004/pkg/logger"

	billingsvc "github.com/learngermanghana/sedifexbiz-sub004/internal/app/services/billing"
)

// Service commits, voids, and reads sales.
type Service struct {
	sales     storage.SaleStore
	products  storage.ProductStore
	movements storage.MovementStore
	billing   *billingsvc.Service
	customers *customers.Service
	events    *realtime.Hub
	log       *logger.Logger
}

// New constructs a sales service.
func New(sales storage.SaleStore, products storage.ProductStore, movements storage.MovementStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("sales")
	}
	return &Service{sales: sales, products: products, movements: movements, log: log}
}

// AttachDependencies wires the services a commit touches beyond its
// own stores: entitlement checks, customer stats, and live events.
func (s *Service) AttachDependencies(billing *billingsvc.Service, customers *customers.Service, events *realtime.Hub) {
	s.billing = billing
	s.customers = customers
	s.events = events
}

// LineInput is one cart position as the client sends it. Prices are
// looked up server side; the client only says what and how many.
type LineInput struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CommitInput carries a checkout. Client-computed totals are ignored.
type CommitInput struct {
	CustomerID    string             `json:"customer_id"`
	Lines         []LineInput        `json:"lines"`
	DiscountCents int64              `json:"discount_cents"`
	PaymentMethod sale.PaymentMethod `json:"payment_method"`
	TenderedCents int64              `json:"tendered_cents"`
	ClientRef     string             `json:"client_ref"`
	Note          string             `json:"note"`

	// CreatedAt backdates replayed offline sales to when they were
	// rung up. Zero means now.
	CreatedAt time.Time `json:"created_at"`
}

// Commit validates, prices, and persists a checkout. A ClientRef that
// has been committed before returns the original sale unchanged, which
// makes offline replay safe to repeat.
func (s *Service) Commit(ctx context.Context, storeID, cashierID string, in CommitInput) (sale.Sale, error) {
	switch {
	case storeID == "":
		return sale.Sale{}, apperr.Invalid("store_id is required")
	case cashierID == "":
		return sale.Sale{}, apperr.Invalid("cashier_id is required")
	case len(in.Lines) == 0:
		return sale.Sale{}, apperr.Invalid("a sale needs at least one line")
	case !in.PaymentMethod.Valid():
		return sale.Sale{}, apperr.Invalid("unknown payment method %q", in.PaymentMethod)
	case in.DiscountCents < 0:
		return sale.Sale{}, apperr.Invalid("discount_cents cannot be negative")
	}
	for _, line := range in.Lines {
		if line.ProductID == "" {
			return sale.Sale{}, apperr.Invalid("every line needs a product_id")
		}
		if line.Quantity <= 0 {
			return sale.Sale{}, apperr.Invalid("line quantity must be positive")
		}
	}

	if s.billing != nil {
		if err := s.billing.EnsureEntitled(ctx, storeID); err != nil {
			return sale.Sale{}, err
		}
	}

	clientRef := strings.TrimSpace(in.ClientRef)
	if clientRef != "" {
		existing, err := s.sales.GetSaleByClientRef(ctx, storeID, clientRef)
		if err == nil {
			s.log.WithField("store_id", storeID).
				WithField("client_ref", clientRef).
				Debug("client ref already committed, returning original")
			return existing, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return sale.Sale{}, err
		}
	}

	lines := make([]sale.Line, 0, len(in.Lines))
	var subtotal int64
	for _, l := range in.Lines {
		p, err := s.products.GetProduct(ctx, l.ProductID)
		if err != nil {
			return sale.Sale{}, err
		}
		if p.StoreID != storeID {
			return sale.Sale{}, apperr.NotFound("product %s not found", l.ProductID)
		}
		if !p.Active {
			return sale.Sale{}, apperr.Invalid("%s is no longer sold", p.Name)
		}

		lineTotal := p.PriceCents * int64(l.Quantity)
		lines = append(lines, sale.Line{
			ProductID:      p.ID,
			Name:           p.Name,
			UnitPriceCents: p.PriceCents,
			Quantity:       l.Quantity,
			LineTotalCents: lineTotal,
		})
		subtotal += lineTotal
	}

	if in.DiscountCents > subtotal {
		return sale.Sale{}, apperr.Invalid("discount %d exceeds subtotal %d", in.DiscountCents, subtotal)
	}
	total := subtotal - in.DiscountCents

	tendered, change := int64(0), int64(0)
	if in.PaymentMethod == sale.PaymentCash {
		tendered = in.TenderedCents
		if tendered == 0 {
			tendered = total
		}
		if tendered < total {
			return sale.Sale{}, apperr.Invalid("tendered %d is less than total %d", tendered, total)
		}
		change = tendered - total
	}

	// Decrement stock line by line. The store applies each decrement
	// conditionally, so two registers racing over the last unit cannot
	// both win; on any failure the decrements taken so far are undone.
	for i, line := range lines {
		if _, err := s.products.AdjustProductStock(ctx, line.ProductID, -line.Quantity); err != nil {
			s.restoreStock(ctx, lines[:i])
			if errors.Is(err, storage.ErrInsufficientStock) {
				return sale.Sale{}, apperr.Conflict("insufficient stock for %s", line.Name)
			}
			return sale.Sale{}, err
		}
	}

	createdAt := in.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	committed, err := s.sales.CreateSale(ctx, sale.Sale{
		StoreID:       storeID,
		CashierID:     cashierID,
		CustomerID:    in.CustomerID,
		Lines:         lines,
		SubtotalCents: subtotal,
		DiscountCents: in.DiscountCents,
		TotalCents:    total,
		TenderedCents: tendered,
		ChangeCents:   change,
		PaymentMethod: in.PaymentMethod,
		Status:        sale.StatusCompleted,
		ClientRef:     clientRef,
		Note:          strings.TrimSpace(in.Note),
		CreatedAt:     createdAt.UTC(),
	})
	if err != nil {
		s.restoreStock(ctx, lines)
		if clientRef != "" && errors.Is(err, storage.ErrDuplicate) {
			// Lost a race against a concurrent replay of the same ref.
			return s.sales.GetSaleByClientRef(ctx, storeID, clientRef)
		}
		return sale.Sale{}, err
	}

	for _, line := range committed.Lines {
		if _, err := s.movements.CreateMovement(ctx, stock.Movement{
			StoreID:    storeID,
			ProductID:  line.ProductID,
			Kind:       stock.KindSale,
			Quantity:   -line.Quantity,
			Reference:  committed.ID,
			RecordedBy: cashierID,
		}); err != nil {
			s.log.WithError(err).
				WithField("sale_id", committed.ID).
				WithField("product_id", line.ProductID).
				Warn("sale movement write failed")
		}
	}

	if committed.CustomerID != "" && s.customers != nil {
		s.customers.RecordPurchase(ctx, committed.CustomerID, committed.TotalCents, committed.CreatedAt)
	}

	metrics.RecordSale(string(committed.PaymentMethod), committed.TotalCents)
	if s.events != nil {
		s.events.Publish(storeID, "sale.committed", map[string]any{
			"sale_id":     committed.ID,
			"total_cents": committed.TotalCents,
			"cashier_id":  committed.CashierID,
			"line_count":  len(committed.Lines),
		})
	}

	s.log.WithField("store_id", storeID).
		WithField("sale_id", committed.ID).
		WithField("total_cents", committed.TotalCents).
		Info("sale committed")
	return committed, nil
}

// Void cancels a committed sale: stock goes back, the ledger gets void
// movements, and finance stops counting it.
func (s *Service) Void(ctx context.Context, storeID, saleID, actorID string) (sale.Sale, error) {
	committed, err := s.sales.GetSale(ctx, saleID)
	if err != nil {
		return sale.Sale{}, err
	}
	if committed.StoreID != storeID {
		return sale.Sale{}, apperr.NotFound("sale %s not found", saleID)
	}
	if committed.Status == sale.StatusVoided {
		return sale.Sale{}, apperr.Conflict("sale %s is already voided", saleID)
	}

	for _, line := range committed.Lines {
		if _, err := s.products.AdjustProductStock(ctx, line.ProductID, line.Quantity); err != nil {
			s.log.WithError(err).
				WithField("sale_id", saleID).
				WithField("product_id", line.ProductID).
				Warn("stock restore failed during void")
			continue
		}
		if _, err := s.movements.CreateMovement(ctx, stock.Movement{
			StoreID:    storeID,
			ProductID:  line.ProductID,
			Kind:       stock.KindVoid,
			Quantity:   line.Quantity,
			Reference:  saleID,
			RecordedBy: actorID,
		}); err != nil {
			s.log.WithError(err).WithField("sale_id", saleID).Warn("void movement write failed")
		}
	}

	now := time.Now().UTC()
	committed.Status = sale.StatusVoided
	committed.VoidedAt = &now
	committed.VoidedBy = actorID

	voided, err := s.sales.UpdateSale(ctx, committed)
	if err != nil {
		return sale.Sale{}, err
	}

	if voided.CustomerID != "" && s.customers != nil {
		s.customers.UnwindPurchase(ctx, voided.CustomerID, voided.TotalCents)
	}

	metrics.RecordVoid()
	if s.events != nil {
		s.events.Publish(storeID, "sale.voided", map[string]any{
			"sale_id": voided.ID,
		})
	}

	s.log.WithField("store_id", storeID).
		WithField("sale_id", saleID).
		WithField("voided_by", actorID).
		Info("sale voided")
	return voided, nil
}

// Get returns a sale belonging to the store.
func (s *Service) Get(ctx context.Context, storeID, saleID string) (sale.Sale, error) {
	found, err := s.sales.GetSale(ctx, saleID)
	if err != nil {
		return sale.Sale{}, err
	}
	if found.StoreID != storeID {
		return sale.Sale{}, apperr.NotFound("sale %s not found", saleID)
	}
	return found, nil
}

// List returns the store's sales, newest first.
func (s *Service) List(ctx context.Context, storeID string, filter storage.SaleFilter) ([]sale.Sale, error) {
	return s.sales.ListSales(ctx, storeID, filter)
}

func (s *Service) restoreStock(ctx context.Context, lines []sale.Line) {
	for _, line := range lines {
		if _, err := s.products.AdjustProductStock(ctx, line.ProductID, line.Quantity); err != nil {
			s.log.WithError(err).
				WithField("product_id", line.ProductID).
				Warn("stock rollback failed")
		}
	}
}
