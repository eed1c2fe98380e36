package rules

import (
	"time"

	"github.com/amitpo23/medici-pricing/internal/domain"
)

// Action is what a fired rule does to an item
type Action string

const (
	ActionApprove       Action = "APPROVE"
	ActionReject        Action = "REJECT"
	ActionEscalate      Action = "ESCALATE"
	ActionOptimizePrice Action = "OPTIMIZE_PRICE"
	ActionAlert         Action = "ALERT"
	ActionActivate      Action = "ACTIVATE"
)

// Outcome statuses
const (
	StatusApplied = "applied"
	StatusFailed  = "failed"
)

// DecisionOutcome is an immutable audit record of one rule firing
type DecisionOutcome struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"item_id"`
	RuleID    RuleID    `json:"rule_id"`
	Action    Action    `json:"action"`
	Status    string    `json:"status"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// RuleStatus reports a rule's runtime toggle state
type RuleStatus struct {
	ID      RuleID `json:"id"`
	Label   string `json:"label"`
	Action  Action `json:"action"`
	Enabled bool   `json:"enabled"`
}

// BatchSummary aggregates one batch evaluation pass
type BatchSummary struct {
	Total     int            `json:"total"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Decisions int            `json:"decisions"`
	ByAction  map[Action]int `json:"by_action"`
}

// Thresholds holds the rule predicates' tunable constants.
// The approval gate here is deliberately stricter than the scorer's
// auto-approve gate; the two are configured independently.
type Thresholds struct {
	ApproveConfidence float64          `yaml:"approve_confidence"`
	ApproveMargin     float64          `yaml:"approve_margin"`
	ApproveMaxRisk    domain.RiskLevel `yaml:"approve_max_risk"`

	RejectMargin float64 `yaml:"reject_margin"`

	EscalateMargin   float64 `yaml:"escalate_margin"`
	EscalateLeadDays int     `yaml:"escalate_lead_days"`

	OptimizeStaleAfter time.Duration `yaml:"optimize_stale_after"`
	OptimizeConfidence float64       `yaml:"optimize_confidence"`
	OptimizeMinLead    int           `yaml:"optimize_min_lead"`

	AlertLeadDays int `yaml:"alert_lead_days"`

	ActivateConfidence float64 `yaml:"activate_confidence"`
	ActivateMargin     float64 `yaml:"activate_margin"`

	// Channels for escalations and alerts
	EscalationChannel string `yaml:"escalation_channel"`
	AlertChannel      string `yaml:"alert_channel"`
}

// DefaultThresholds returns the production rule parameters
func DefaultThresholds() Thresholds {
	return Thresholds{
		ApproveConfidence:  0.90,
		ApproveMargin:      0.20,
		ApproveMaxRisk:     domain.RiskMedium,
		RejectMargin:       0.10,
		EscalateMargin:     0.05,
		EscalateLeadDays:   7,
		OptimizeStaleAfter: 24 * time.Hour,
		OptimizeConfidence: 0.75,
		OptimizeMinLead:    3,
		AlertLeadDays:      3,
		ActivateConfidence: 0.80,
		ActivateMargin:     0.15,
		EscalationChannel:  "pricing-escalations",
		AlertChannel:       "pricing-alerts",
	}
}
