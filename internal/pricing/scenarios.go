package pricing

import (
	"github.com/amitpo23/medici-pricing/internal/domain"
)

// scenarios precomputes named alternative prices for comparison UIs:
// the three margin-driven bases plus a direct competitor match when
// competitor data exists.
func (e *Engine) scenarios(buy float64, sig domain.PricingSignals) []domain.Scenario {
	out := make([]domain.Scenario, 0, 4)

	add := func(name string, price float64) {
		out = append(out, domain.Scenario{
			Name:   name,
			Price:  domain.Round2(price),
			Profit: domain.Round2(price - buy),
			Margin: domain.Round3(domain.Margin(buy, price)),
		})
	}

	add("conservative", buy*(1+e.tuning.MinMargin))
	add("balanced", e.balancedBase(buy, sig))
	add("aggressive", e.aggressiveBase(buy, sig))

	if sig.Competitor.HasData() {
		add("match_competitor", sig.Competitor.AvgPrice)
	}

	return out
}
