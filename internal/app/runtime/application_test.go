package runtime

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/learngermanghana/sedifexbiz-sub004/internal/config"
	"github.com/learngermanghana/sedifexbiz-sub004/pkg/logger"
)

func TestBuildStoresMemoryFallback(t *testing.T) {
	cfg := &config.Config{}
	stores, db, err := buildStores(cfg, logger.NewDefault("test"))
	if err != nil {
		t.Fatalf("buildStores: %v", err)
	}
	if db != nil {
		t.Fatalf("expected nil db without a DSN")
	}
	if stores.Users != nil {
		t.Fatalf("expected zero stores so the app falls back to memory")
	}
}

func TestBuildStoresSQLite(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Driver = "sqlite3"
	cfg.Database.DSN = filepath.Join(t.TempDir(), "sedifex.db")

	stores, db, err := buildStores(cfg, logger.NewDefault("test"))
	if err != nil {
		t.Fatalf("buildStores: %v", err)
	}
	defer db.Close()

	if stores.Users == nil || stores.Sales == nil || stores.OpLog == nil {
		t.Fatalf("expected SQL-backed stores, got %+v", stores)
	}
	if err := db.PingContext(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestNewApplicationDefaults(t *testing.T) {
	t.Setenv("DATABASE_DSN", "")
	t.Setenv("REDIS_ADDR", "")

	a, err := NewApplication()
	if err != nil {
		t.Fatalf("NewApplication: %v", err)
	}
	if a.App() == nil {
		t.Fatalf("expected assembled services")
	}
	if a.db != nil {
		t.Fatalf("expected in-memory storage without a DSN")
	}
	if err := a.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}
