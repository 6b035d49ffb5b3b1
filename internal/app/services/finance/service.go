// Package finance turns raw sales and expenses into the numbers the
// finance page shows: period summaries, close-of-day snapshots, and
// CSV exports.
package finance

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/cache"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/sale"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/summary"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/storage"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/apperr"
	"github.com/learngermanghana/sedifexbiz-sub004/pkg/logger"
)

const topProductLimit = 5

// Service computes finance reports.
type Service struct {
	sales     storage.SaleStore
	expenses  storage.ExpenseStore
	summaries storage.SummaryStore
	tenants   storage.TenantStore
	cache     *cache.Cache
	log       *logger.Logger
}

// New constructs a finance service.
func New(sales storage.SaleStore, expenses storage.ExpenseStore, summaries storage.SummaryStore, tenants storage.TenantStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("finance")
	}
	return &Service{sales: sales, expenses: expenses, summaries: summaries, tenants: tenants, log: log}
}

// WithCache assigns an optional Redis cache for summary reads.
func (s *Service) WithCache(c *cache.Cache) {
	s.cache = c
}

// TopProduct is one row of the best-seller lists.
type TopProduct struct {
	ProductID    string `json:"product_id"`
	Name         string `json:"name"`
	Quantity     int    `json:"quantity"`
	RevenueCents int64  `json:"revenue_cents"`
}

// Summary is the finance page's period report. Voided sales are
// excluded throughout.
type Summary struct {
	StoreID         string           `json:"store_id"`
	From            time.Time        `json:"from"`
	To              time.Time        `json:"to"`
	GrossCents      int64            `json:"gross_cents"`
	DiscountCents   int64            `json:"discount_cents"`
	NetCents        int64            `json:"net_cents"`
	SaleCount       int              `json:"sale_count"`
	AvgSaleCents    int64            `json:"avg_sale_cents"`
	ExpenseCents    int64            `json:"expense_cents"`
	ProfitCents     int64            `json:"profit_cents"`
	ByPaymentMethod map[string]int64 `json:"by_payment_method"`
	TopByQuantity   []TopProduct     `json:"top_by_quantity"`
	TopByRevenue    []TopProduct     `json:"top_by_revenue"`
}

// Summary reports the store's trading over [from, to). Results are
// briefly cached when Redis is configured; figures a minute stale are
// fine for a dashboard.
func (s *Service) Summary(ctx context.Context, storeID string, from, to time.Time) (Summary, error) {
	if storeID == "" {
		return Summary{}, apperr.Invalid("store_id is required")
	}
	if !to.IsZero() && !from.IsZero() && to.Before(from) {
		return Summary{}, apperr.Invalid("to precedes from")
	}

	key := fmt.Sprintf("summary:%s:%d:%d", storeID, from.Unix(), to.Unix())
	var cached Summary
	if s.cache.GetJSON(ctx, key, &cached) {
		return cached, nil
	}

	result, err := s.compute(ctx, storeID, from, to)
	if err != nil {
		return Summary{}, err
	}

	s.cache.SetJSON(ctx, key, result)
	return result, nil
}

func (s *Service) compute(ctx context.Context, storeID string, from, to time.Time) (Summary, error) {
	sales, err := s.sales.ListSales(ctx, storeID, storage.SaleFilter{From: from, To: to})
	if err != nil {
		return Summary{}, err
	}

	result := Summary{
		StoreID:         storeID,
		From:            from.UTC(),
		To:              to.UTC(),
		ByPaymentMethod: map[string]int64{},
	}

	type agg struct {
		name     string
		quantity int
		revenue  int64
	}
	products := map[string]*agg{}

	for _, sl := range sales {
		if sl.Status == sale.StatusVoided {
			continue
		}
		result.GrossCents += sl.SubtotalCents
		result.DiscountCents += sl.DiscountCents
		result.NetCents += sl.TotalCents
		result.SaleCount++
		result.ByPaymentMethod[string(sl.PaymentMethod)] += sl.TotalCents

		for _, line := range sl.Lines {
			a, ok := products[line.ProductID]
			if !ok {
				a = &agg{name: line.Name}
				products[line.ProductID] = a
			}
			a.quantity += line.Quantity
			a.revenue += line.LineTotalCents
		}
	}

	if result.SaleCount > 0 {
		result.AvgSaleCents = result.NetCents / int64(result.SaleCount)
	}

	expenses, err := s.expenses.ListExpenses(ctx, storeID, from, to)
	if err != nil {
		return Summary{}, err
	}
	for _, e := range expenses {
		result.ExpenseCents += e.AmountCents
	}
	result.ProfitCents = result.NetCents - result.ExpenseCents

	all := make([]TopProduct, 0, len(products))
	for id, a := range products {
		all = append(all, TopProduct{ProductID: id, Name: a.name, Quantity: a.quantity, RevenueCents: a.revenue})
	}
	result.TopByQuantity = topBy(all, func(a, b TopProduct) bool { return a.Quantity > b.Quantity })
	result.TopByRevenue = topBy(all, func(a, b TopProduct) bool { return a.RevenueCents > b.RevenueCents })

	return result, nil
}

func topBy(products []TopProduct, less func(a, b TopProduct) bool) []TopProduct {
	ranked := make([]TopProduct, len(products))
	copy(ranked, products)
	sort.SliceStable(ranked, func(i, j int) bool {
		if less(ranked[i], ranked[j]) {
			return true
		}
		if less(ranked[j], ranked[i]) {
			return false
		}
		return ranked[i].Name < ranked[j].Name
	})
	if len(ranked) > topProductLimit {
		ranked = ranked[:topProductLimit]
	}
	return ranked
}

// RunDailySummary snapshots one store's day into the summaries table.
// Re-running a day overwrites it, so the scheduler can repeat safely.
func (s *Service) RunDailySummary(ctx context.Context, storeID string, day time.Time) (summary.Daily, error) {
	day = summary.DayOf(day)
	computed, err := s.compute(ctx, storeID, day, day.Add(24*time.Hour))
	if err != nil {
		return summary.Daily{}, err
	}

	return s.summaries.UpsertDailySummary(ctx, summary.Daily{
		StoreID:       storeID,
		Day:           day,
		GrossCents:    computed.GrossCents,
		DiscountCents: computed.DiscountCents,
		NetCents:      computed.NetCents,
		ExpenseCents:  computed.ExpenseCents,
		SaleCount:     computed.SaleCount,
	})
}

// RunDailySummaries snapshots every store's day. A failing store is
// logged and skipped; one bad tenant must not stall the rest.
func (s *Service) RunDailySummaries(ctx context.Context, day time.Time) error {
	stores, err := s.tenants.ListStores(ctx)
	if err != nil {
		return err
	}
	for _, st := range stores {
		if _, err := s.RunDailySummary(ctx, st.ID, day); err != nil {
			s.log.WithError(err).WithField("store_id", st.ID).Warn("daily summary failed")
		}
	}
	return nil
}

// DailySummaryFor reads a day's snapshot, computing it live when the
// scheduler has not covered that day. Finished days computed this way
// are persisted so the next read is cheap.
func (s *Service) DailySummaryFor(ctx context.Context, storeID string, day time.Time) (summary.Daily, error) {
	day = summary.DayOf(day)
	if existing, err := s.summaries.GetDailySummary(ctx, storeID, day); err == nil {
		return existing, nil
	} else if apperr.KindOf(err) != apperr.KindNotFound {
		return summary.Daily{}, err
	}

	if day.Add(24 * time.Hour).Before(time.Now().UTC()) {
		return s.RunDailySummary(ctx, storeID, day)
	}

	computed, err := s.compute(ctx, storeID, day, day.Add(24*time.Hour))
	if err != nil {
		return summary.Daily{}, err
	}
	return summary.Daily{
		StoreID:       storeID,
		Day:           day,
		GrossCents:    computed.GrossCents,
		DiscountCents: computed.DiscountCents,
		NetCents:      computed.NetCents,
		ExpenseCents:  computed.ExpenseCents,
		SaleCount:     computed.SaleCount,
	}, nil
}

// ListDailySummaries returns snapshots within [from, to).
func (s *Service) ListDailySummaries(ctx context.Context, storeID string, from, to time.Time) ([]summary.Daily, error) {
	return s.summaries.ListDailySummaries(ctx, storeID, from, to)
}

var csvHeader = []string{
	"sale_id", "created_at", "cashier_id", "customer_id",
	"product", "quantity", "unit_price", "line_total", "payment_method",
}

// ExportSalesCSV streams the store's sales as CSV, one row per sale
// line. Voided sales are excluded, matching the summary figures.
func (s *Service) ExportSalesCSV(ctx context.Context, storeID string, from, to time.Time, w io.Writer) error {
	sales, err := s.sales.ListSales(ctx, storeID, storage.SaleFilter{From: from, To: to})
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, sl := range sales {
		if sl.Status == sale.StatusVoided {
			continue
		}
		for _, line := range sl.Lines {
			record := []string{
				sl.ID,
				sl.CreatedAt.UTC().Format(time.RFC3339),
				sl.CashierID,
				sl.CustomerID,
				line.Name,
				fmt.Sprintf("%d", line.Quantity),
				formatCents(line.UnitPriceCents),
				formatCents(line.LineTotalCents),
				string(sl.PaymentMethod),
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
