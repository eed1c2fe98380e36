package domain

import "time"

// Adjustment records one multiplicative step applied to the base price,
// kept for explainability in comparison UIs.
type Adjustment struct {
	Factor     string  `json:"factor"`
	Multiplier float64 `json:"multiplier"`
	Delta      float64 `json:"delta"`
}

// Scenario is a named alternative price for comparison against the
// recommended one.
type Scenario struct {
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
	Profit float64 `json:"profit"`
	Margin float64 `json:"margin"`
}

// PriceRecommendation is the pricing engine's output. Immutable once produced.
type PriceRecommendation struct {
	ItemID           string         `json:"item_id,omitempty"`
	Strategy         Strategy       `json:"strategy"`
	BuyPrice         float64        `json:"buy_price"`
	BasePrice        float64        `json:"base_price"`
	RecommendedPrice float64        `json:"recommended_price"`
	Profit           float64        `json:"profit"`
	ProfitMargin     float64        `json:"profit_margin"`
	Confidence       float64        `json:"confidence"`
	Risk             RiskLevel      `json:"risk"`
	RiskFactors      []string       `json:"risk_factors,omitempty"`
	MarketPosition   MarketPosition `json:"market_position"`
	Adjustments      []Adjustment   `json:"adjustments"`
	Scenarios        []Scenario     `json:"scenarios,omitempty"`
	Degraded         bool           `json:"degraded"`
	GeneratedAt      time.Time      `json:"generated_at"`
}

// ABVariant identifies the arm of a pricing experiment
type ABVariant string

const (
	VariantControl ABVariant = "control"
	VariantTest    ABVariant = "test"
)

// ABTestAssignment links an item to a pricing experiment arm.
// At most one active assignment exists per item; EndedAt stays nil while
// the experiment is running.
type ABTestAssignment struct {
	ID           string     `json:"id"`
	ItemID       string     `json:"item_id"`
	Variant      ABVariant  `json:"variant"`
	Strategy     Strategy   `json:"strategy"`
	ControlPrice float64    `json:"control_price"`
	TestPrice    float64    `json:"test_price"`
	StartedAt    time.Time  `json:"started_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
}

// Active reports whether the assignment is still running
func (a *ABTestAssignment) Active() bool {
	return a != nil && a.EndedAt == nil
}

// Audit entry kinds
const (
	AuditPriceUpdate  = "price_update"
	AuditSuggestion   = "price_suggestion"
	AuditDecision     = "decision"
	AuditStatusChange = "status_change"
)

// AuditEntry is an immutable record of an automated mutation or suggestion
type AuditEntry struct {
	ID             string    `json:"id"`
	ItemID         string    `json:"item_id"`
	Kind           string    `json:"kind"`
	OldPrice       float64   `json:"old_price,omitempty"`
	NewPrice       float64   `json:"new_price,omitempty"`
	Strategy       Strategy  `json:"strategy,omitempty"`
	Confidence     float64   `json:"confidence,omitempty"`
	Details        string    `json:"details,omitempty"`
	RequiresReview bool      `json:"requires_manual_review,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
