package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/billing"
)

// PlansConfig is the plan catalogue loaded from config/plans.yaml.
type PlansConfig struct {
	Plans []billing.Plan `yaml:"plans"`
}

// Plan returns the named plan, if present.
func (c *PlansConfig) Plan(name billing.PlanName) (billing.Plan, bool) {
	for _, p := range c.Plans {
		if p.Name == name {
			return p, true
		}
	}
	return billing.Plan{}, false
}

// LoadPlansConfig loads the plan catalogue from config/plans.yaml.
func LoadPlansConfig() (*PlansConfig, error) {
	return LoadPlansConfigFromPath(filepath.Join("config", "plans.yaml"))
}

// LoadPlansConfigFromPath loads the plan catalogue from a specific path.
func LoadPlansConfigFromPath(path string) (*PlansConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plans config: %w", err)
	}

	var cfg PlansConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse plans config: %w", err)
	}

	if len(cfg.Plans) == 0 {
		return nil, fmt.Errorf("plans config %s defines no plans", path)
	}
	for _, p := range cfg.Plans {
		if p.Name == "" {
			return nil, fmt.Errorf("plans config %s: plan without a name", path)
		}
	}

	return &cfg, nil
}

// LoadPlansConfigOrDefault loads the plan catalogue or returns the
// built-in plans if the file is missing.
func LoadPlansConfigOrDefault(path string) *PlansConfig {
	if path == "" {
		path = filepath.Join("config", "plans.yaml")
	}
	cfg, err := LoadPlansConfigFromPath(path)
	if err != nil {
		return DefaultPlansConfig()
	}
	return cfg
}

// DefaultPlansConfig returns the built-in plan catalogue.
func DefaultPlansConfig() *PlansConfig {
	return &PlansConfig{
		Plans: []billing.Plan{
			{
				Name:         billing.PlanFree,
				SeatLimit:    3,
				ProductLimit: 100,
				TrialDays:    0,
				Features:     []string{"sell", "receive", "reports"},
			},
			{
				Name:              billing.PlanPro,
				SeatLimit:         0,
				ProductLimit:      0,
				MonthlyPriceCents: 4900,
				TrialDays:         14,
				Features:          []string{"sell", "receive", "reports", "export", "realtime"},
			},
		},
	}
}
