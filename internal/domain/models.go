package domain

import (
	"fmt"
	"math"
	"time"
)

// Strategy is a named pricing policy controlling base-price computation
type Strategy string

const (
	StrategyAggressive   Strategy = "aggressive"
	StrategyBalanced     Strategy = "balanced"
	StrategyConservative Strategy = "conservative"
	StrategyCompetitive  Strategy = "competitive"
	StrategyPremium      Strategy = "premium"
)

// AllStrategies lists every strategy in comparison order
var AllStrategies = []Strategy{
	StrategyConservative,
	StrategyBalanced,
	StrategyCompetitive,
	StrategyAggressive,
	StrategyPremium,
}

// ParseStrategy maps a strategy name to a Strategy.
// Unknown names fall back to balanced rather than failing the call.
func ParseStrategy(s string) Strategy {
	switch Strategy(s) {
	case StrategyAggressive, StrategyBalanced, StrategyConservative,
		StrategyCompetitive, StrategyPremium:
		return Strategy(s)
	}
	return StrategyBalanced
}

// RiskLevel classifies a recommendation or opportunity
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// GradeRisk grades an opportunity by confidence and margin together.
// Shared by the opportunity scorer and the approval rules.
func GradeRisk(confidence, margin float64) RiskLevel {
	switch {
	case confidence >= 0.85 && margin >= 0.25:
		return RiskLow
	case confidence >= 0.75 && margin >= 0.20,
		confidence >= 0.70 && margin >= 0.15:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// RiskAtMost reports whether level is no riskier than max
func RiskAtMost(level, max RiskLevel) bool {
	rank := map[RiskLevel]int{RiskLow: 0, RiskMedium: 1, RiskHigh: 2}
	return rank[level] <= rank[max]
}

// RiskTolerance is a caller-supplied bias for opportunity scoring
type RiskTolerance string

const (
	ToleranceLow    RiskTolerance = "low"
	ToleranceMedium RiskTolerance = "medium"
	ToleranceHigh   RiskTolerance = "high"
)

// Strategy maps a risk tolerance to its default pricing strategy
func (rt RiskTolerance) Strategy() Strategy {
	switch rt {
	case ToleranceLow:
		return StrategyConservative
	case ToleranceHigh:
		return StrategyAggressive
	}
	return StrategyBalanced
}

// DemandLevel buckets demand signal strength
type DemandLevel string

const (
	DemandVeryLow  DemandLevel = "very_low"
	DemandLow      DemandLevel = "low"
	DemandNormal   DemandLevel = "normal"
	DemandHigh     DemandLevel = "high"
	DemandVeryHigh DemandLevel = "very_high"
)

// MarketPosition classifies a price relative to competitor average
type MarketPosition string

const (
	PositionBelowMarket MarketPosition = "below_market"
	PositionAtMarket    MarketPosition = "at_market"
	PositionAboveMarket MarketPosition = "above_market"
	PositionUnknown     MarketPosition = "unknown"
)

// DateRange is a stay window (check-in inclusive, check-out exclusive)
type DateRange struct {
	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`
}

// IsZero reports whether the range is unset or inverted
func (dr DateRange) IsZero() bool {
	return dr.CheckIn.IsZero() || dr.CheckOut.IsZero() || !dr.CheckOut.After(dr.CheckIn)
}

// Nights returns the number of nights in the range
func (dr DateRange) Nights() int {
	if dr.IsZero() {
		return 0
	}
	return int(dr.CheckOut.Sub(dr.CheckIn).Hours() / 24)
}

// LeadDays returns whole days between now and check-in (negative once in the past)
func (dr DateRange) LeadDays(now time.Time) int {
	return int(math.Floor(dr.CheckIn.Sub(now).Hours() / 24))
}

// Key returns a stable identity string for duplicate detection and cache keys
func (dr DateRange) Key() string {
	return fmt.Sprintf("%s_%s", dr.CheckIn.Format("2006-01-02"), dr.CheckOut.Format("2006-01-02"))
}

// InventoryItem is a buy-low/sell-high room-inventory position.
// Items are never physically deleted, only deactivated.
type InventoryItem struct {
	ID            string    `json:"id"`
	SupplierRef   string    `json:"supplier_ref"`
	HotelName     string    `json:"hotel_name"`
	RoomCategory  string    `json:"room_category"`
	BoardBasis    string    `json:"board_basis"`
	CheckIn       time.Time `json:"check_in"`
	CheckOut      time.Time `json:"check_out"`
	BuyPrice      float64   `json:"buy_price"`
	SellPrice     float64   `json:"sell_price"`
	Confidence    float64   `json:"confidence"`
	IsActive      bool      `json:"is_active"`
	IsSold        bool      `json:"is_sold"`
	IsAIGenerated bool      `json:"is_ai_generated"`
	RejectReason  string    `json:"reject_reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// StayRange returns the item's stay window
func (i *InventoryItem) StayRange() DateRange {
	return DateRange{CheckIn: i.CheckIn, CheckOut: i.CheckOut}
}

// Margin returns the item's current profit margin: (sell - buy) / sell
func (i *InventoryItem) Margin() float64 {
	return Margin(i.BuyPrice, i.SellPrice)
}

// Profit returns the item's current absolute profit
func (i *InventoryItem) Profit() float64 {
	return i.SellPrice - i.BuyPrice
}

// LeadDays returns days until check-in
func (i *InventoryItem) LeadDays(now time.Time) int {
	return i.StayRange().LeadDays(now)
}

// Margin computes profit margin on the sell side: (sell - buy) / sell.
// The sell-side convention is load-bearing: every risk threshold downstream
// assumes it. Returns 0 when sell is not positive.
func Margin(buy, sell float64) float64 {
	if sell <= 0 {
		return 0
	}
	return (sell - buy) / sell
}

// Round2 rounds a monetary value to 2 decimal places.
// Applied only at output boundaries; intermediate math keeps full precision.
func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// Round3 rounds to 3 decimal places (scores, factors)
func Round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

// Clamp01 clamps a score into [0, 1]
func Clamp01(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}
