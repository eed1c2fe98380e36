package pricing

import (
	"math"

	"github.com/amitpo23/medici-pricing/internal/domain"
)

// confidence scores how much to trust a recommendation, from 0.5 upwards
// with bounded contributions per signal category. A final margin outside
// the plausible band cuts trust regardless of how much data backed it.
func (e *Engine) confidence(sig domain.PricingSignals, margin float64) float64 {
	c := 0.5

	c += 0.25 * saturate(sig.Historical.SampleCount, e.tuning.HistoricalSaturation)
	c += 0.15 * saturate(sig.Competitor.SampleCount, e.tuning.CompetitorSaturation)
	c += 0.10 * saturate(sig.Demand.SearchCount, e.tuning.DemandSaturation)

	if margin < e.tuning.PlausibleMarginLow || margin > e.tuning.PlausibleMarginHigh {
		c -= 0.20
	}

	return domain.Clamp01(c)
}

// saturate maps a sample count onto [0,1], saturating at the given count
func saturate(samples, saturation int) float64 {
	if saturation <= 0 {
		return 0
	}
	return math.Min(1, float64(samples)/float64(saturation))
}
