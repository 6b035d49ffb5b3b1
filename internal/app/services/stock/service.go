// Package stock handles goods coming in: deliveries increment on-hand
// counts, refresh unit costs, and land in the movement ledger.
package stock

import (
	"context"
	"strings"

	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/product"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/stock"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/metrics"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/realtime"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/storage"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/apperr"
	"github.com/learngermanghana/sedifexbiz-sub004/pkg/logger"
)

// Service records deliveries and reads the movement ledger.
type Service struct {
	products  storage.ProductStore
	movements storage.MovementStore
	events    *realtime.Hub
	log       *logger.Logger
}

// New constructs a stock service.
func New(products storage.ProductStore, movements storage.MovementStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("stock")
	}
	return &Service{products: products, movements: movements, log: log}
}

// AttachDependencies wires the hub so terminals hear about deliveries.
func (s *Service) AttachDependencies(events *realtime.Hub) {
	s.events = events
}

// ReceiveInput carries one delivery line.
type ReceiveInput struct {
	ProductID     string `json:"product_id"`
	Quantity      int    `json:"quantity"`
	UnitCostCents int64  `json:"unit_cost_cents"`
	Reference     string `json:"reference"`
}

// Receive books a delivery: stock goes up, the latest unit cost sticks
// to the product, and a receive movement lands in the ledger.
func (s *Service) Receive(ctx context.Context, storeID, actorID string, in ReceiveInput) (product.Product, stock.Movement, error) {
	switch {
	case in.ProductID == "":
		return product.Product{}, stock.Movement{}, apperr.Invalid("product_id is required")
	case in.Quantity <= 0:
		return product.Product{}, stock.Movement{}, apperr.Invalid("quantity must be positive")
	case in.UnitCostCents < 0:
		return product.Product{}, stock.Movement{}, apperr.Invalid("unit_cost_cents cannot be negative")
	}

	p, err := s.products.GetProduct(ctx, in.ProductID)
	if err != nil {
		return product.Product{}, stock.Movement{}, err
	}
	if p.StoreID != storeID {
		return product.Product{}, stock.Movement{}, apperr.NotFound("product %s not found", in.ProductID)
	}

	updated, err := s.products.AdjustProductStock(ctx, in.ProductID, in.Quantity)
	if err != nil {
		return product.Product{}, stock.Movement{}, err
	}

	if in.UnitCostCents > 0 && in.UnitCostCents != updated.CostCents {
		updated.CostCents = in.UnitCostCents
		updated, err = s.products.UpdateProduct(ctx, updated)
		if err != nil {
			return product.Product{}, stock.Movement{}, err
		}
	}

	movement, err := s.movements.CreateMovement(ctx, stock.Movement{
		StoreID:       storeID,
		ProductID:     in.ProductID,
		Kind:          stock.KindReceive,
		Quantity:      in.Quantity,
		UnitCostCents: in.UnitCostCents,
		Reference:     strings.TrimSpace(in.Reference),
		RecordedBy:    actorID,
	})
	if err != nil {
		return product.Product{}, stock.Movement{}, err
	}

	metrics.RecordStockReceived(in.Quantity)
	if s.events != nil {
		s.events.Publish(storeID, "stock.received", map[string]any{
			"product_id":  updated.ID,
			"quantity":    in.Quantity,
			"stock_count": updated.StockCount,
		})
	}

	s.log.WithField("store_id", storeID).
		WithField("product_id", in.ProductID).
		WithField("quantity", in.Quantity).
		Info("stock received")
	return updated, movement, nil
}

// Movements returns ledger entries for the store, newest first.
func (s *Service) Movements(ctx context.Context, storeID string, filter storage.MovementFilter) ([]stock.Movement, error) {
	return s.movements.ListMovements(ctx, storeID, filter)
}

// Level is one row of the on-hand report.
type Level struct {
	ProductID    string `json:"product_id"`
	Name         string `json:"name"`
	SKU          string `json:"sku,omitempty"`
	StockCount   int    `json:"stock_count"`
	ReorderLevel int    `json:"reorder_level,omitempty"`
	Low          bool   `json:"low"`
}

// Levels reports on-hand stock per active product with reorder flags.
func (s *Service) Levels(ctx context.Context, storeID string) ([]Level, error) {
	items, err := s.products.ListProducts(ctx, storeID, storage.ProductFilter{ActiveOnly: true})
	if err != nil {
		return nil, err
	}

	levels := make([]Level, 0, len(items))
	for _, p := range items {
		levels = append(levels, Level{
			ProductID:    p.ID,
			Name:         p.Name,
			SKU:          p.SKU,
			StockCount:   p.StockCount,
			ReorderLevel: p.ReorderLevel,
			Low:          p.LowStock(),
		})
	}
	return levels, nil
}
