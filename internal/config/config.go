// Package config loads runtime configuration from the environment.
// A .env file is honoured when present so local development does not
// need exported variables.
package config

import (
	"fmt"
	"strings"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config is the full runtime configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Logging   LoggingConfig
	Auth      AuthConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Redis     RedisConfig
	Billing   BillingConfig
	Finance   FinanceConfig
	Sync      SyncConfig
	Admin     AdminConfig
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string `env:"SERVER_HOST,default=0.0.0.0"`
	Port            int    `env:"SERVER_PORT,default=8080"`
	ShutdownTimeout int    `env:"SERVER_SHUTDOWN_TIMEOUT,default=10"`
}

// DatabaseConfig selects the backing database. An empty DSN keeps the
// server on the in-memory store, which is enough for demos and tests.
type DatabaseConfig struct {
	Driver          string `env:"DATABASE_DRIVER,default=postgres"`
	DSN             string `env:"DATABASE_DSN"`
	MaxOpenConns    int    `env:"DATABASE_MAX_OPEN_CONNS,default=20"`
	MaxIdleConns    int    `env:"DATABASE_MAX_IDLE_CONNS,default=5"`
	ConnMaxLifetime int    `env:"DATABASE_CONN_MAX_LIFETIME,default=300"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level      string `env:"LOG_LEVEL,default=info"`
	Format     string `env:"LOG_FORMAT,default=json"`
	Output     string `env:"LOG_OUTPUT,default=stdout"`
	FilePrefix string `env:"LOG_FILE_PREFIX,default=sedifex"`
}

// DefaultJWTSecret is the development fallback. The runtime warns
// loudly when it is still in use.
const DefaultJWTSecret = "dev-secret-change-me"

// AuthConfig controls token issuing.
type AuthConfig struct {
	JWTSecret   string `env:"AUTH_JWT_SECRET,default=dev-secret-change-me"`
	TokenTTLSec int    `env:"AUTH_TOKEN_TTL,default=86400"`
}

// CORSConfig controls browser origin checks. Origins is a
// comma-separated list; empty falls back to the local dev servers.
type CORSConfig struct {
	Origins string `env:"CORS_ALLOWED_ORIGINS"`
}

// List splits the configured origins, defaulting to the Vite and CRA
// dev servers so a fresh checkout works against a local frontend.
func (c CORSConfig) List() []string {
	if strings.TrimSpace(c.Origins) == "" {
		return []string{"http://localhost:5173", "http://localhost:3000"}
	}
	var out []string
	for _, o := range strings.Split(c.Origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// RateLimitConfig throttles per-client request rates. Login gets its
// own, much smaller bucket so password guessing stalls early.
type RateLimitConfig struct {
	Enabled     bool    `env:"RATE_LIMIT_ENABLED,default=true"`
	PerSec      float64 `env:"RATE_LIMIT_PER_SEC,default=20"`
	Burst       int     `env:"RATE_LIMIT_BURST,default=40"`
	LoginPerMin float64 `env:"RATE_LIMIT_LOGIN_PER_MIN,default=10"`
	LoginBurst  int     `env:"RATE_LIMIT_LOGIN_BURST,default=5"`
}

// AdminConfig grants platform endpoints to specific user accounts.
type AdminConfig struct {
	UserIDs      string `env:"ADMIN_USER_IDS"`
	AuditLogPath string `env:"ADMIN_AUDIT_LOG_PATH"`
}

// IDs returns the configured admin user ids.
func (c AdminConfig) IDs() []string {
	var out []string
	for _, id := range strings.Split(c.UserIDs, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

// RedisConfig enables the optional summary cache. An empty Addr
// disables caching entirely.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,default=0"`
	TTLSec   int    `env:"REDIS_CACHE_TTL,default=60"`
}

// BillingConfig points at the plan catalogue and webhook credentials.
type BillingConfig struct {
	PlansPath     string `env:"BILLING_PLANS_PATH,default=config/plans.yaml"`
	WebhookSecret string `env:"BILLING_WEBHOOK_SECRET"`
}

// FinanceConfig controls the close-of-day summary job.
type FinanceConfig struct {
	SummarySchedule string `env:"FINANCE_SUMMARY_SCHEDULE,default=@daily"`
}

// SyncConfig controls the offline replay ledger.
type SyncConfig struct {
	OpLogRetentionDays int `env:"SYNC_OPLOG_RETENTION_DAYS,default=30"`
}

// Load reads configuration from the environment, preceded by a .env
// file when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	switch c.Database.Driver {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Sync.OpLogRetentionDays <= 0 {
		return fmt.Errorf("oplog retention must be positive, got %d", c.Sync.OpLogRetentionDays)
	}
	return nil
}
