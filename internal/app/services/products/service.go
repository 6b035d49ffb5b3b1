// Package products manages the catalog: the items a store sells, their
// prices, and manual stock corrections.
package products

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/product"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/stock"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/realtime"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/storage"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/apperr"
	"github.com/learngermanghana/sedifexbiz-sub004/pkg/logger"

	billingsvc "github.com/learngermanghana/sedifexbiz-sub004/internal/app/services/billing"
)

// Service manages catalog items.
type Service struct {
	products  storage.ProductStore
	movements storage.MovementStore
	billing   *billingsvc.Service
	events    *realtime.Hub
	log       *logger.Logger
}

// New constructs a products service.
func New(products storage.ProductStore, movements storage.MovementStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("products")
	}
	return &Service{products: products, movements: movements, log: log}
}

// AttachDependencies wires the billing service so catalog growth can
// respect plan product limits, and the hub so terminals hear about
// catalog changes.
func (s *Service) AttachDependencies(billing *billingsvc.Service, events *realtime.Hub) {
	s.billing = billing
	s.events = events
}

func (s *Service) publishUpdated(p product.Product) {
	if s.events == nil {
		return
	}
	s.events.Publish(p.StoreID, "product.updated", map[string]any{
		"product_id":  p.ID,
		"name":        p.Name,
		"price_cents": p.PriceCents,
		"stock_count": p.StockCount,
		"active":      p.Active,
	})
}

// CreateInput carries the fields for a new catalog item.
type CreateInput struct {
	Name         string `json:"name"`
	SKU          string `json:"sku"`
	Barcode      string `json:"barcode"`
	Category     string `json:"category"`
	PriceCents   int64  `json:"price_cents"`
	CostCents    int64  `json:"cost_cents"`
	StockCount   int    `json:"stock_count"`
	ReorderLevel int    `json:"reorder_level"`
}

// Create adds a catalog item. Opening stock, when given, leaves a
// receive movement so the ledger stays complete.
func (s *Service) Create(ctx context.Context, storeID, actorID string, in CreateInput) (product.Product, error) {
	name := strings.TrimSpace(in.Name)
	switch {
	case storeID == "":
		return product.Product{}, apperr.Invalid("store_id is required")
	case name == "":
		return product.Product{}, apperr.Invalid("product name is required")
	case in.PriceCents < 0:
		return product.Product{}, apperr.Invalid("price_cents cannot be negative")
	case in.CostCents < 0:
		return product.Product{}, apperr.Invalid("cost_cents cannot be negative")
	case in.StockCount < 0:
		return product.Product{}, apperr.Invalid("stock_count cannot be negative")
	case in.ReorderLevel < 0:
		return product.Product{}, apperr.Invalid("reorder_level cannot be negative")
	}

	if err := s.checkProductLimit(ctx, storeID); err != nil {
		return product.Product{}, err
	}

	created, err := s.products.CreateProduct(ctx, product.Product{
		StoreID:      storeID,
		Name:         name,
		SKU:          strings.ToUpper(strings.TrimSpace(in.SKU)),
		Barcode:      strings.TrimSpace(in.Barcode),
		Category:     strings.TrimSpace(in.Category),
		PriceCents:   in.PriceCents,
		CostCents:    in.CostCents,
		StockCount:   in.StockCount,
		ReorderLevel: in.ReorderLevel,
		Active:       true,
	})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return product.Product{}, apperr.Conflict("SKU %s is already in use", strings.ToUpper(strings.TrimSpace(in.SKU)))
		}
		return product.Product{}, err
	}

	if created.StockCount > 0 {
		if _, err := s.movements.CreateMovement(ctx, stock.Movement{
			StoreID:       storeID,
			ProductID:     created.ID,
			Kind:          stock.KindReceive,
			Quantity:      created.StockCount,
			UnitCostCents: created.CostCents,
			Reference:     "opening stock",
			RecordedBy:    actorID,
		}); err != nil {
			return product.Product{}, err
		}
	}

	s.log.WithField("store_id", storeID).
		WithField("product_id", created.ID).
		WithField("name", created.Name).
		Info("product created")
	return created, nil
}

// UpdateInput carries catalog changes. Nil fields are left unchanged.
type UpdateInput struct {
	Name         *string `json:"name,omitempty"`
	SKU          *string `json:"sku,omitempty"`
	Barcode      *string `json:"barcode,omitempty"`
	Category     *string `json:"category,omitempty"`
	PriceCents   *int64  `json:"price_cents,omitempty"`
	CostCents    *int64  `json:"cost_cents,omitempty"`
	ReorderLevel *int    `json:"reorder_level,omitempty"`
	Active       *bool   `json:"active,omitempty"`
}

// Update applies catalog changes. Stock is never changed here; that
// goes through AdjustStock or stock receiving so the movement ledger
// stays true.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (product.Product, error) {
	p, err := s.products.GetProduct(ctx, id)
	if err != nil {
		return product.Product{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return product.Product{}, apperr.Invalid("product name cannot be empty")
		}
		p.Name = name
	}
	if in.SKU != nil {
		p.SKU = strings.ToUpper(strings.TrimSpace(*in.SKU))
	}
	if in.Barcode != nil {
		p.Barcode = strings.TrimSpace(*in.Barcode)
	}
	if in.Category != nil {
		p.Category = strings.TrimSpace(*in.Category)
	}
	if in.PriceCents != nil {
		if *in.PriceCents < 0 {
			return product.Product{}, apperr.Invalid("price_cents cannot be negative")
		}
		p.PriceCents = *in.PriceCents
	}
	if in.CostCents != nil {
		if *in.CostCents < 0 {
			return product.Product{}, apperr.Invalid("cost_cents cannot be negative")
		}
		p.CostCents = *in.CostCents
	}
	if in.ReorderLevel != nil {
		if *in.ReorderLevel < 0 {
			return product.Product{}, apperr.Invalid("reorder_level cannot be negative")
		}
		p.ReorderLevel = *in.ReorderLevel
	}
	if in.Active != nil {
		p.Active = *in.Active
	}

	updated, err := s.products.UpdateProduct(ctx, p)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return product.Product{}, apperr.Conflict("SKU %s is already in use", p.SKU)
		}
		return product.Product{}, err
	}

	s.publishUpdated(updated)
	s.log.WithField("product_id", id).Info("product updated")
	return updated, nil
}

// Get returns a catalog item.
func (s *Service) Get(ctx context.Context, id string) (product.Product, error) {
	return s.products.GetProduct(ctx, id)
}

// List returns the store's catalog, narrowed by the filter.
func (s *Service) List(ctx context.Context, storeID string, filter storage.ProductFilter) ([]product.Product, error) {
	return s.products.ListProducts(ctx, storeID, filter)
}

// LowStock returns products at or below their reorder level.
func (s *Service) LowStock(ctx context.Context, storeID string) ([]product.Product, error) {
	return s.products.ListProducts(ctx, storeID, storage.ProductFilter{LowStockOnly: true})
}

// ChangedSince returns products touched after the given instant, for
// offline clients refreshing their local catalog.
func (s *Service) ChangedSince(ctx context.Context, storeID string, since time.Time) ([]product.Product, error) {
	return s.products.ListProductsChangedSince(ctx, storeID, since)
}

// Delete removes a product. Items with sale history are deactivated
// instead so old sales stay resolvable.
func (s *Service) Delete(ctx context.Context, id string) error {
	p, err := s.products.GetProduct(ctx, id)
	if err != nil {
		return err
	}

	sold, err := s.hasSaleHistory(ctx, p)
	if err != nil {
		return err
	}
	if sold {
		p.Active = false
		if _, err := s.products.UpdateProduct(ctx, p); err != nil {
			return err
		}
		s.log.WithField("product_id", id).Info("product deactivated (has sale history)")
		return nil
	}

	if err := s.products.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.log.WithField("product_id", id).Info("product deleted")
	return nil
}

// AdjustStock records a manual stock correction with a reason,
// refusing adjustments that would drive stock negative.
func (s *Service) AdjustStock(ctx context.Context, storeID, productID, actorID string, delta int, reason string) (product.Product, error) {
	if delta == 0 {
		return product.Product{}, apperr.Invalid("adjustment quantity cannot be zero")
	}
	if strings.TrimSpace(reason) == "" {
		return product.Product{}, apperr.Invalid("a reason is required for manual adjustments")
	}

	p, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return product.Product{}, err
	}
	if p.StoreID != storeID {
		return product.Product{}, apperr.NotFound("product %s not found", productID)
	}

	adjusted, err := s.products.AdjustProductStock(ctx, productID, delta)
	if err != nil {
		return product.Product{}, err
	}

	if _, err := s.movements.CreateMovement(ctx, stock.Movement{
		StoreID:    storeID,
		ProductID:  productID,
		Kind:       stock.KindAdjust,
		Quantity:   delta,
		Reference:  strings.TrimSpace(reason),
		RecordedBy: actorID,
	}); err != nil {
		return product.Product{}, err
	}

	s.publishUpdated(adjusted)
	s.log.WithField("product_id", productID).
		WithField("delta", delta).
		Info("stock adjusted")
	return adjusted, nil
}

func (s *Service) checkProductLimit(ctx context.Context, storeID string) error {
	if s.billing == nil {
		return nil
	}
	plan, err := s.billing.PlanFor(ctx, storeID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil
		}
		return err
	}
	if plan.ProductLimit <= 0 {
		return nil
	}
	existing, err := s.products.ListProducts(ctx, storeID, storage.ProductFilter{})
	if err != nil {
		return err
	}
	if len(existing) >= plan.ProductLimit {
		return apperr.PaymentRequired("the %s plan allows %d products", plan.Name, plan.ProductLimit)
	}
	return nil
}

func (s *Service) hasSaleHistory(ctx context.Context, p product.Product) (bool, error) {
	movements, err := s.movements.ListMovements(ctx, p.StoreID, storage.MovementFilter{ProductID: p.ID})
	if err != nil {
		return false, err
	}
	for _, m := range movements {
		if m.Kind == stock.KindSale {
			return true, nil
		}
	}
	return false, nil
}
