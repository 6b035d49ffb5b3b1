package app

import (
	"context"
	"fmt"
	"time"

	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/auth"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/cache"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/realtime"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/services/billing"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/services/customers"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/services/expenses"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/services/finance"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/services/products"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/services/sales"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/services/stock"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/services/users"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/storage"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/storage/memory"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/system"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/config"
	"github.com/learngermanghana/sedifexbiz-sub004/pkg/logger"

	storesvc "github.com/learngermanghana/sedifexbiz-sub004/internal/app/services/stores"
	syncsvc "github.com/learngermanghana/sedifexbiz-sub004/internal/app/services/sync"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Users         storage.UserStore
	Tenants       storage.TenantStore
	Products      storage.ProductStore
	Sales         storage.SaleStore
	Movements     storage.MovementStore
	Customers     storage.CustomerStore
	Expenses      storage.ExpenseStore
	Subscriptions storage.SubscriptionStore
	Summaries     storage.SummaryStore
	OpLog         storage.OpLogStore
}

// Options carries the pieces the runtime assembles from configuration.
// Every field has a workable zero value so tests can pass Options{}.
type Options struct {
	Tokens          *auth.Manager       // nil: dev secret, 24h tokens
	Plans           *config.PlansConfig // nil: embedded catalogue
	WebhookSecret   string
	SummarySchedule string        // cron spec, empty means @daily
	OpLogRetention  time.Duration // 0 means 30 days
	Cache           *cache.Cache  // nil: summaries computed per request
	EventOrigins    []string      // websocket origin allowlist
}

// Application ties domain services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Users     *users.Service
	Stores    *storesvc.Service
	Products  *products.Service
	Stock     *stock.Service
	Sales     *sales.Service
	Customers *customers.Service
	Expenses  *expenses.Service
	Finance   *finance.Service
	Billing   *billing.Service
	Sync      *syncsvc.Service
	Events    *realtime.Hub
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, opts Options, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.New()
	if stores.Users == nil {
		stores.Users = mem
	}
	if stores.Tenants == nil {
		stores.Tenants = mem
	}
	if stores.Products == nil {
		stores.Products = mem
	}
	if stores.Sales == nil {
		stores.Sales = mem
	}
	if stores.Movements == nil {
		stores.Movements = mem
	}
	if stores.Customers == nil {
		stores.Customers = mem
	}
	if stores.Expenses == nil {
		stores.Expenses = mem
	}
	if stores.Subscriptions == nil {
		stores.Subscriptions = mem
	}
	if stores.Summaries == nil {
		stores.Summaries = mem
	}
	if stores.OpLog == nil {
		stores.OpLog = mem
	}

	if opts.Tokens == nil {
		opts.Tokens = auth.NewManager(config.DefaultJWTSecret, 24*time.Hour)
	}

	manager := system.NewManager()

	userService := users.New(stores.Users, opts.Tokens, log)
	storeService := storesvc.New(stores.Tenants, stores.Users, log)
	billingService := billing.New(stores.Subscriptions, opts.Plans, opts.WebhookSecret, log)
	productService := products.New(stores.Products, stores.Movements, log)
	stockService := stock.New(stores.Products, stores.Movements, log)
	saleService := sales.New(stores.Sales, stores.Products, stores.Movements, log)
	customerService := customers.New(stores.Customers, stores.Sales, log)
	expenseService := expenses.New(stores.Expenses, log)
	financeService := finance.New(stores.Sales, stores.Expenses, stores.Summaries, stores.Tenants, log)
	syncService := syncsvc.New(stores.OpLog, log)

	hub := realtime.NewHub(log, opts.EventOrigins)

	storeService.AttachDependencies(billingService)
	productService.AttachDependencies(billingService, hub)
	stockService.AttachDependencies(hub)
	saleService.AttachDependencies(billingService, customerService, hub)
	syncService.AttachDependencies(saleService, productService, customerService, expenseService)

	if opts.Cache != nil {
		financeService.WithCache(opts.Cache)
	}

	for _, name := range []string{"users", "stores", "sales"} {
		if err := manager.Register(system.NoopService{ServiceName: name}); err != nil {
			return nil, fmt.Errorf("register %s service: %w", name, err)
		}
	}

	scheduler, err := finance.NewScheduler(financeService, opts.SummarySchedule, log)
	if err != nil {
		return nil, fmt.Errorf("configure summary scheduler: %w", err)
	}
	janitor := syncsvc.NewJanitor(stores.OpLog, stores.Users, opts.OpLogRetention, log)

	for _, svc := range []system.Service{hub, scheduler, janitor} {
		if err := manager.Register(svc); err != nil {
			return nil, fmt.Errorf("register %s: %w", svc.Name(), err)
		}
	}

	return &Application{
		manager:   manager,
		log:       log,
		Users:     userService,
		Stores:    storeService,
		Products:  productService,
		Stock:     stockService,
		Sales:     saleService,
		Customers: customerService,
		Expenses:  expenseService,
		Finance:   financeService,
		Billing:   billingService,
		Sync:      syncService,
		Events:    hub,
	}, nil
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
