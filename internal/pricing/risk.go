package pricing

import (
	"github.com/amitpo23/medici-pricing/internal/domain"
)

// Risk point weights. Points accumulate per factor and bucket into
// LOW (<25), MEDIUM (<50), HIGH (>=50).
const (
	riskThinMargin      = 30
	riskExcessiveMargin = 25
	riskAboveMarket     = 20
	riskBelowMarket     = 15
	riskNoCompetitor    = 10
	riskLowDemand       = 20
	riskNoDemand        = 15
	riskHotDemandCredit = 10

	riskMediumFloor = 25
	riskHighFloor   = 50
)

// assessRisk scores the recommended price against margin, market position
// and demand, returning the bucketed level with its contributing factors.
func (e *Engine) assessRisk(price, margin float64, sig domain.PricingSignals) (domain.RiskLevel, []string) {
	points := 0
	var factors []string

	if margin < e.tuning.MinMargin {
		points += riskThinMargin
		factors = append(factors, "thin margin")
	} else if margin > 0.50 {
		points += riskExcessiveMargin
		factors = append(factors, "excessive margin")
	}

	if sig.Competitor.HasData() {
		avg := sig.Competitor.AvgPrice
		if price > avg*1.20 {
			points += riskAboveMarket
			factors = append(factors, "priced above market")
		} else if price < avg*0.80 {
			points += riskBelowMarket
			factors = append(factors, "priced below market")
		}
	} else {
		points += riskNoCompetitor
		factors = append(factors, "no competitor data")
	}

	switch sig.Demand.Level {
	case domain.DemandLow, domain.DemandVeryLow:
		if sig.Demand.SearchCount > 0 {
			points += riskLowDemand
			factors = append(factors, "low demand")
		}
	case domain.DemandVeryHigh:
		points -= riskHotDemandCredit
	}
	if sig.Demand.SearchCount == 0 {
		points += riskNoDemand
		factors = append(factors, "no demand data")
	}

	if sig.Historical.SampleCount == 0 && !sig.Competitor.HasData() {
		factors = append(factors, "insufficient data")
	}

	return bucketRisk(points), factors
}

func bucketRisk(points int) domain.RiskLevel {
	switch {
	case points < riskMediumFloor:
		return domain.RiskLow
	case points < riskHighFloor:
		return domain.RiskMedium
	default:
		return domain.RiskHigh
	}
}

// marketPosition classifies the price against the competitor average
func marketPosition(price float64, comp domain.CompetitorStats) domain.MarketPosition {
	if !comp.HasData() {
		return domain.PositionUnknown
	}
	switch {
	case price > comp.AvgPrice*1.05:
		return domain.PositionAboveMarket
	case price < comp.AvgPrice*0.95:
		return domain.PositionBelowMarket
	default:
		return domain.PositionAtMarket
	}
}
