package pricing

import (
	"github.com/amitpo23/medici-pricing/internal/domain"
)

// Demand multipliers by demand-level bucket
var demandMultipliers = map[domain.DemandLevel]float64{
	domain.DemandVeryLow:  0.92,
	domain.DemandLow:      0.96,
	domain.DemandNormal:   1.0,
	domain.DemandHigh:     1.05,
	domain.DemandVeryHigh: 1.10,
}

// leadTimeMultiplier buckets days-until-stay. Near stays get discounted to
// move inventory before it expires worthless; far-out stays carry a premium.
func leadTimeMultiplier(leadDays int) float64 {
	switch {
	case leadDays < 3:
		return 0.90
	case leadDays <= 7:
		return 0.95
	case leadDays <= 30:
		return 1.0
	default:
		return 1.03
	}
}

// applyAdjustments applies the sequential multiplicative adjustments to the
// base price and returns the adjusted price with its breakdown.
func (e *Engine) applyAdjustments(
	base float64,
	strategy domain.Strategy,
	sig domain.PricingSignals,
	leadDays int,
) (float64, []domain.Adjustment) {
	price := base
	adjustments := make([]domain.Adjustment, 0, 4)

	apply := func(factor string, mult float64) {
		before := price
		price *= mult
		adjustments = append(adjustments, domain.Adjustment{
			Factor:     factor,
			Multiplier: mult,
			Delta:      domain.Round2(price - before),
		})
	}

	demandMult, ok := demandMultipliers[sig.Demand.Level]
	if !ok {
		demandMult = 1.0
	}
	apply("demand", demandMult)

	seasonal := sig.Seasonal.Factor
	if seasonal <= 0 {
		seasonal = 1.0
	}
	apply("seasonal", seasonal)

	apply("lead_time", leadTimeMultiplier(leadDays))

	// Competitive strategy re-anchors halfway back to the competitor
	// buffer target after adjustments have moved the price.
	if strategy == domain.StrategyCompetitive && sig.Competitor.HasData() {
		target := sig.Competitor.AvgPrice * (1 - e.tuning.CompetitorBuffer)
		before := price
		price = (price + target) / 2
		adjustments = append(adjustments, domain.Adjustment{
			Factor:     "competitor_blend",
			Multiplier: domain.Round3(price / before),
			Delta:      domain.Round2(price - before),
		})
	}

	return price, adjustments
}
