package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/billing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("expected default driver postgres, got %s", cfg.Database.Driver)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected default log format json, got %s", cfg.Logging.Format)
	}
	if cfg.Auth.TokenTTLSec != 86400 {
		t.Errorf("expected default token ttl 86400, got %d", cfg.Auth.TokenTTLSec)
	}
	if cfg.Sync.OpLogRetentionDays != 30 {
		t.Errorf("expected default oplog retention 30, got %d", cfg.Sync.OpLogRetentionDays)
	}
	if cfg.Finance.SummarySchedule != "@daily" {
		t.Errorf("expected default summary schedule @daily, got %s", cfg.Finance.SummarySchedule)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATABASE_DRIVER", "sqlite3")
	t.Setenv("DATABASE_DSN", "file:shop.db")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite3" || cfg.Database.DSN != "file:shop.db" {
		t.Errorf("database override not applied: %+v", cfg.Database)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected level debug, got %s", cfg.Logging.Level)
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "oracle")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestLoadPlansConfigFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plans.yaml")
	raw := `plans:
  - name: free
    seat_limit: 2
    product_limit: 50
  - name: pro
    monthly_price_cents: 9900
    trial_days: 30
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write plans: %v", err)
	}

	cfg, err := LoadPlansConfigFromPath(path)
	if err != nil {
		t.Fatalf("load plans: %v", err)
	}
	if len(cfg.Plans) != 2 {
		t.Fatalf("expected 2 plans, got %d", len(cfg.Plans))
	}

	free, ok := cfg.Plan(billing.PlanFree)
	if !ok {
		t.Fatal("free plan missing")
	}
	if free.SeatLimit != 2 || free.ProductLimit != 50 {
		t.Fatalf("free plan limits wrong: %+v", free)
	}

	pro, ok := cfg.Plan(billing.PlanPro)
	if !ok {
		t.Fatal("pro plan missing")
	}
	if pro.MonthlyPriceCents != 9900 || pro.TrialDays != 30 {
		t.Fatalf("pro plan wrong: %+v", pro)
	}
}

func TestCORSList(t *testing.T) {
	var c CORSConfig
	if got := c.List(); len(got) != 2 || got[0] != "http://localhost:5173" {
		t.Fatalf("default origins wrong: %v", got)
	}

	c.Origins = "https://app.sedifex.com, https://pos.sedifex.com ,"
	got := c.List()
	if len(got) != 2 || got[0] != "https://app.sedifex.com" || got[1] != "https://pos.sedifex.com" {
		t.Fatalf("parsed origins wrong: %v", got)
	}
}

func TestAdminIDs(t *testing.T) {
	c := AdminConfig{UserIDs: "u-1, u-2,,u-3 "}
	got := c.IDs()
	if len(got) != 3 || got[0] != "u-1" || got[2] != "u-3" {
		t.Fatalf("admin ids wrong: %v", got)
	}
	if got := (AdminConfig{}).IDs(); len(got) != 0 {
		t.Fatalf("expected no admin ids, got %v", got)
	}
}

func TestLoadPlansConfigOrDefaultFallsBack(t *testing.T) {
	cfg := LoadPlansConfigOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	if len(cfg.Plans) == 0 {
		t.Fatal("expected built-in plans")
	}
	if _, ok := cfg.Plan(billing.PlanPro); !ok {
		t.Fatal("expected built-in pro plan")
	}
}
