package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/amitpo23/medici-pricing/internal/opportunity"
	"github.com/amitpo23/medici-pricing/internal/optimizer"
	"github.com/amitpo23/medici-pricing/internal/pricing"
	"github.com/amitpo23/medici-pricing/internal/rules"
)

// Tuning bundles every tunable parameter of the pricing core. The zero
// config is never used directly: defaults come from each package and a
// YAML file overrides selectively.
type Tuning struct {
	Pricing     pricing.Tuning         `yaml:"pricing"`
	Opportunity opportunity.Thresholds `yaml:"opportunity"`
	Rules       rules.Thresholds       `yaml:"rules"`
	Optimizer   optimizer.Config       `yaml:"optimizer"`
}

// DefaultTuning returns the production parameters
func DefaultTuning() Tuning {
	return Tuning{
		Pricing:     pricing.DefaultTuning(),
		Opportunity: opportunity.DefaultThresholds(),
		Rules:       rules.DefaultThresholds(),
		Optimizer:   optimizer.DefaultConfig(),
	}
}

// LoadTuning reads the tuning file at path over the defaults. An empty
// path returns the defaults; a missing or unreadable file is an error so
// a typo'd path cannot silently run with defaults.
func LoadTuning(path string) (Tuning, error) {
	tuning := DefaultTuning()
	if path == "" {
		return tuning, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return tuning, fmt.Errorf("read tuning file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &tuning); err != nil {
		return tuning, fmt.Errorf("parse tuning file: %w", err)
	}
	return tuning, nil
}
