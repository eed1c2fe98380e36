package pricing

import (
	"math"

	"github.com/amitpo23/medici-pricing/internal/domain"
)

// basePrice computes the strategy base price before adjustments.
// Invariant: for identical signals without competitor data,
// aggressive >= balanced >= conservative.
func (e *Engine) basePrice(strategy domain.Strategy, buy float64, sig domain.PricingSignals) float64 {
	switch strategy {
	case domain.StrategyAggressive:
		return e.aggressiveBase(buy, sig)
	case domain.StrategyConservative:
		return buy * (1 + e.tuning.MinMargin)
	case domain.StrategyCompetitive:
		if sig.Competitor.HasData() {
			return sig.Competitor.AvgPrice * (1 - e.tuning.CompetitorBuffer)
		}
		return e.balancedBase(buy, sig)
	case domain.StrategyPremium:
		if sig.Competitor.HasData() {
			return sig.Competitor.AvgPrice * e.tuning.PremiumCompMultiplier
		}
		return buy * e.tuning.PremiumFallbackMult
	default:
		return e.balancedBase(buy, sig)
	}
}

// balancedBase prices off the target margin: buy / (1 - target).
// The historical average margin is used when available, clamped into
// [min, max] so sparse or distressed history cannot invert the
// conservative <= balanced <= aggressive ordering.
func (e *Engine) balancedBase(buy float64, sig domain.PricingSignals) float64 {
	target := e.tuning.DefaultTargetMargin
	if sig.Historical.SampleCount > 0 && sig.Historical.AvgMargin > 0 {
		target = sig.Historical.AvgMargin
	}
	target = math.Max(e.tuning.MinMargin, math.Min(e.tuning.MaxMargin, target))
	return buy / (1 - target)
}

// aggressiveBase takes the higher of the max-margin markup and the balanced
// base, capped just under the competitor ceiling when one is known.
func (e *Engine) aggressiveBase(buy float64, sig domain.PricingSignals) float64 {
	price := math.Max(buy*(1+e.tuning.MaxMargin), e.balancedBase(buy, sig))
	if sig.Competitor.HasData() && sig.Competitor.MaxPrice > 0 {
		cap := sig.Competitor.MaxPrice * e.tuning.AggressiveCompCap
		if price > cap {
			price = cap
		}
	}
	return price
}
