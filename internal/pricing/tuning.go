package pricing

import (
	"time"

	"github.com/amitpo23/medici-pricing/internal/domain"
)

// Tuning holds every knob of the pricing computation. Defaults are the
// production values; individual fields can be overridden from the YAML
// tuning file.
type Tuning struct {
	// Margin targets
	DefaultTargetMargin float64 `yaml:"default_target_margin"`
	MinMargin           float64 `yaml:"min_margin"`
	MaxMargin           float64 `yaml:"max_margin"`

	// Competitor-relative pricing
	CompetitorBuffer      float64 `yaml:"competitor_buffer"`
	AggressiveCompCap     float64 `yaml:"aggressive_comp_cap"`
	PremiumCompMultiplier float64 `yaml:"premium_comp_multiplier"`
	PremiumFallbackMult   float64 `yaml:"premium_fallback_mult"`

	// Fallback multipliers applied to buy price when signals are
	// completely unavailable, keyed by strategy
	FallbackAggressive   float64 `yaml:"fallback_aggressive"`
	FallbackBalanced     float64 `yaml:"fallback_balanced"`
	FallbackConservative float64 `yaml:"fallback_conservative"`
	FallbackCompetitive  float64 `yaml:"fallback_competitive"`
	FallbackPremium      float64 `yaml:"fallback_premium"`

	// Confidence contributions saturate at these sample counts
	HistoricalSaturation int `yaml:"historical_saturation"`
	CompetitorSaturation int `yaml:"competitor_saturation"`
	DemandSaturation     int `yaml:"demand_saturation"`

	// Plausible margin band; recommendations outside it lose confidence
	PlausibleMarginLow  float64 `yaml:"plausible_margin_low"`
	PlausibleMarginHigh float64 `yaml:"plausible_margin_high"`

	// Recommendation cache TTL; zero disables caching
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// DefaultTuning returns the production pricing parameters
func DefaultTuning() Tuning {
	return Tuning{
		DefaultTargetMargin:   0.30,
		MinMargin:             0.15,
		MaxMargin:             0.40,
		CompetitorBuffer:      0.02,
		AggressiveCompCap:     0.98,
		PremiumCompMultiplier: 1.15,
		PremiumFallbackMult:   1.35,
		FallbackAggressive:    1.40,
		FallbackBalanced:      1.30,
		FallbackConservative:  1.20,
		FallbackCompetitive:   1.25,
		FallbackPremium:       1.35,
		HistoricalSaturation:  20,
		CompetitorSaturation:  10,
		DemandSaturation:      50,
		PlausibleMarginLow:    0.10,
		PlausibleMarginHigh:   0.60,
		CacheTTL:              5 * time.Minute,
	}
}

// FallbackMultiplier returns the degraded-mode markup for a strategy
func (t Tuning) FallbackMultiplier(s domain.Strategy) float64 {
	switch s {
	case domain.StrategyAggressive:
		return t.FallbackAggressive
	case domain.StrategyConservative:
		return t.FallbackConservative
	case domain.StrategyCompetitive:
		return t.FallbackCompetitive
	case domain.StrategyPremium:
		return t.FallbackPremium
	default:
		return t.FallbackBalanced
	}
}
