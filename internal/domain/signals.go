package domain

// HistoricalStats summarizes past selling prices for comparable inventory
type HistoricalStats struct {
	AvgPrice    float64 `json:"avg_price"`
	MinPrice    float64 `json:"min_price"`
	MaxPrice    float64 `json:"max_price"`
	AvgMargin   float64 `json:"avg_margin"`
	SampleCount int     `json:"sample_count"`
}

// CompetitorStats summarizes current competitor rates for comparable inventory
type CompetitorStats struct {
	AvgPrice     float64 `json:"avg_price"`
	MinPrice     float64 `json:"min_price"`
	MaxPrice     float64 `json:"max_price"`
	SampleCount  int     `json:"sample_count"`
	Availability float64 `json:"availability"`
}

// HasData reports whether any competitor rate was observed
func (c CompetitorStats) HasData() bool {
	return c.SampleCount > 0 && c.AvgPrice > 0
}

// DemandStats summarizes search/booking demand for the stay window
type DemandStats struct {
	Level          DemandLevel `json:"level"`
	Score          float64     `json:"score"`
	SearchCount    int         `json:"search_count"`
	ConversionRate float64     `json:"conversion_rate"`
}

// SeasonalStats summarizes seasonal occupancy for the check-in date
type SeasonalStats struct {
	Season        string  `json:"season"`
	Factor        float64 `json:"factor"`
	OccupancyRate float64 `json:"occupancy_rate"`
	SampleCount   int     `json:"sample_count"`
}

// PricingSignals is the read-only signal bundle for one (item, date-range)
// pricing call. Recomputed on every call, never persisted.
type PricingSignals struct {
	Historical HistoricalStats `json:"historical"`
	Competitor CompetitorStats `json:"competitor"`
	Demand     DemandStats     `json:"demand"`
	Seasonal   SeasonalStats   `json:"seasonal"`

	// Degraded is set when one or more providers failed and a neutral
	// default was substituted.
	Degraded bool `json:"degraded"`
}

// Insufficient reports whether the bundle carries no market data at all.
// Pricing falls back to a fixed strategy markup in that case.
func (s PricingSignals) Insufficient() bool {
	return s.Historical.SampleCount == 0 &&
		!s.Competitor.HasData() &&
		s.Demand.SearchCount == 0 &&
		s.Seasonal.SampleCount == 0
}

// NeutralHistorical is the safe default when no history exists
func NeutralHistorical() HistoricalStats {
	return HistoricalStats{}
}

// NeutralCompetitor is the safe default when no competitor rates exist
func NeutralCompetitor() CompetitorStats {
	return CompetitorStats{}
}

// NeutralDemand is the safe default when no demand data exists
func NeutralDemand() DemandStats {
	return DemandStats{Level: DemandNormal, Score: 0.5}
}

// NeutralSeasonal is the safe default when no occupancy data exists
func NeutralSeasonal() SeasonalStats {
	return SeasonalStats{Season: "unknown", Factor: 1.0, OccupancyRate: 0.65}
}
