// Package runtime assembles the full server process: configuration,
// logging, storage, domain services, HTTP API and lifecycle.
package runtime

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/learngermanghana/sedifexbiz-sub004/internal/app"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/auth"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/cache"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/httpapi"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/httpserver"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/storage/sqlstore"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/config"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/platform/migrations"
	"github.com/learngermanghana/sedifexbiz-sub004/pkg/logger"
)

// Application wires core dependencies and manages the HTTP server lifecycle.
type Application struct {
	cfg        *config.Config
	log        *logger.Logger
	app        *app.Application
	httpServer *httpserver.Server
	db         *sqlx.DB
	cache      *cache.Cache
}

// NewApplication constructs a new application instance with default wiring.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		FilePrefix: cfg.Logging.FilePrefix,
	})

	if cfg.Auth.JWTSecret == config.DefaultJWTSecret {
		log.Warn("AUTH_JWT_SECRET is the development default; set a real secret before going live")
	}

	stores, db, err := buildStores(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("configure stores: %w", err)
	}

	var summaryCache *cache.Cache
	if cfg.Redis.Addr != "" {
		summaryCache = cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			time.Duration(cfg.Redis.TTLSec)*time.Second, log)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := summaryCache.Ping(ctx); err != nil {
			log.WithError(err).Warn("redis unreachable, finance summaries will be computed per request")
			summaryCache = nil
		}
		cancel()
	}

	application, err := app.New(stores, app.Options{
		Tokens:          auth.NewManager(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLSec)*time.Second),
		Plans:           config.LoadPlansConfigOrDefault(cfg.Billing.PlansPath),
		WebhookSecret:   cfg.Billing.WebhookSecret,
		SummarySchedule: cfg.Finance.SummarySchedule,
		OpLogRetention:  time.Duration(cfg.Sync.OpLogRetentionDays) * 24 * time.Hour,
		Cache:           summaryCache,
		EventOrigins:    cfg.CORS.List(),
	}, log)
	if err != nil {
		return nil, fmt.Errorf("assemble application: %w", err)
	}

	apiCfg := httpapi.Config{
		AllowedOrigins: cfg.CORS.List(),
		AdminUserIDs:   cfg.Admin.IDs(),
		AuditLogPath:   cfg.Admin.AuditLogPath,
	}
	if cfg.RateLimit.Enabled {
		apiCfg.RequestsPerSec = cfg.RateLimit.PerSec
		apiCfg.Burst = cfg.RateLimit.Burst
		apiCfg.LoginPerMin = cfg.RateLimit.LoginPerMin
		apiCfg.LoginBurst = cfg.RateLimit.LoginBurst
	}
	handler, err := httpapi.NewHandler(application, apiCfg, log)
	if err != nil {
		return nil, fmt.Errorf("build http handler: %w", err)
	}

	return &Application{
		cfg:        cfg,
		log:        log,
		app:        application,
		httpServer: httpserver.New(cfg.Server, log, handler),
		db:         db,
		cache:      summaryCache,
	}, nil
}

// App exposes the assembled services, mainly for the admin CLI.
func (a *Application) App() *app.Application {
	return a.app
}

// Run starts background services and the HTTP server, then blocks
// until the context is cancelled or the server fails.
func (a *Application) Run(ctx context.Context) error {
	if err := a.app.Start(ctx); err != nil {
		return fmt.Errorf("start services: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Infof("HTTP server listening on %s", a.httpServer.Addr())
		if err := a.httpServer.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server, background services and
// storage connections.
func (a *Application) Shutdown(ctx context.Context) error {
	timeout := time.Duration(a.cfg.Server.ShutdownTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := a.app.Stop(shutdownCtx); err != nil {
		a.log.WithError(err).Warn("error stopping services")
	}

	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.WithError(err).Warn("error closing redis connection")
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.WithError(err).Warn("error closing database connection")
		}
	}

	return nil
}

// buildStores opens the configured database and returns SQL-backed
// stores. An empty DSN leaves every store on the in-memory fallback,
// which is enough for demos and tests but loses data on restart.
func buildStores(cfg *config.Config, log *logger.Logger) (app.Stores, *sqlx.DB, error) {
	if cfg.Database.DSN == "" {
		log.Warn("DATABASE_DSN not set, using in-memory storage")
		return app.Stores{}, nil, nil
	}

	db, err := openDatabase(cfg.Database)
	if err != nil {
		return app.Stores{}, nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := migrations.Apply(ctx, db.DB); err != nil {
		db.Close()
		return app.Stores{}, nil, fmt.Errorf("apply migrations: %w", err)
	}

	st := sqlstore.New(db)
	return app.Stores{
		Users:         st,
		Tenants:       st,
		Products:      st,
		Sales:         st,
		Movements:     st,
		Customers:     st,
		Expenses:      st,
		Subscriptions: st,
		Summaries:     st,
		OpLog:         st,
	}, db, nil
}

func openDatabase(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
