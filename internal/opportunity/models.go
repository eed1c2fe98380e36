package opportunity

import (
	"time"

	"github.com/amitpo23/medici-pricing/internal/domain"
)

// Candidate is a raw opportunity before validation and scoring, usually
// produced by the discovery model upstream.
type Candidate struct {
	SupplierRef  string    `json:"supplier_ref"`
	HotelName    string    `json:"hotel_name"`
	RoomCategory string    `json:"room_category"`
	BoardBasis   string    `json:"board_basis"`
	CheckIn      time.Time `json:"check_in"`
	CheckOut     time.Time `json:"check_out"`
	BuyPrice     float64   `json:"buy_price"`
	SellPrice    float64   `json:"sell_price"`

	// Confidence is the upstream prediction confidence in [0,1]
	Confidence float64 `json:"confidence"`
}

// StayRange returns the candidate's stay window
func (c Candidate) StayRange() domain.DateRange {
	return domain.DateRange{CheckIn: c.CheckIn, CheckOut: c.CheckOut}
}

// Scored is an accepted, enriched and prioritized opportunity
type Scored struct {
	Candidate      Candidate                   `json:"candidate"`
	Recommendation *domain.PriceRecommendation `json:"recommendation"`
	FinalPrice     float64                     `json:"final_price"`
	Confidence     float64                     `json:"confidence"`
	PriorityScore  float64                     `json:"priority_score"`
	Risk           domain.RiskLevel            `json:"risk"`
	AutoApprove    bool                        `json:"auto_approve"`
}

// Thresholds holds the scorer's validation and gating parameters.
// Auto-approve gates are configured separately from the decision engine's
// approval rule: the scorer gate admits new positions, the rule gate
// re-approves live ones, and the two thresholds are tiered on purpose.
type Thresholds struct {
	MinMargin     float64 `yaml:"min_margin"`
	MinConfidence float64 `yaml:"min_confidence"`

	// BlendAbove: pricing-engine confidence above this blends 50/50 with
	// the upstream prediction confidence
	BlendAbove float64 `yaml:"blend_above"`

	AutoApproveConfidence float64 `yaml:"auto_approve_confidence"`
	AutoApproveMargin     float64 `yaml:"auto_approve_margin"`
	AutoApproveProfit     float64 `yaml:"auto_approve_profit"`
}

// DefaultThresholds returns the production scorer parameters
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinMargin:             0.15,
		MinConfidence:         0.70,
		BlendAbove:            0.70,
		AutoApproveConfidence: 0.85,
		AutoApproveMargin:     0.20,
		AutoApproveProfit:     50,
	}
}

// Batch statuses for CreateBatch details
const (
	StatusCreated   = "created"
	StatusRejected  = "rejected"
	StatusDuplicate = "duplicate"
	StatusOverCap   = "over_cap"
	StatusFailed    = "failed"
)

// BatchOptions controls one CreateBatch run
type BatchOptions struct {
	// MaxCreate caps how many items one batch may create; <=0 means no cap
	MaxCreate int `json:"max_create"`

	// ActivationConfidence auto-activates created items at or above it.
	// Independent of the auto-approve gate.
	ActivationConfidence float64 `json:"activation_confidence"`

	// Tolerance selects the refinement pricing strategy
	Tolerance domain.RiskTolerance `json:"tolerance"`
}

// BatchDetail records the fate of one candidate in a batch
type BatchDetail struct {
	SupplierRef   string  `json:"supplier_ref"`
	Stay          string  `json:"stay"`
	Status        string  `json:"status"`
	Reason        string  `json:"reason,omitempty"`
	ItemID        string  `json:"item_id,omitempty"`
	PriorityScore float64 `json:"priority_score,omitempty"`
	Activated     bool    `json:"activated,omitempty"`
}

// BatchResult summarizes one CreateBatch run
type BatchResult struct {
	Created int           `json:"created"`
	Skipped int           `json:"skipped"`
	Failed  int           `json:"failed"`
	Details []BatchDetail `json:"details"`
}
