// Package rules evaluates a fixed, ordered set of condition-to-action
// business rules against live inventory positions and records every firing
// as an immutable decision outcome.
package rules

import (
	"time"

	"github.com/amitpo23/medici-pricing/internal/domain"
)

// RuleID identifies a rule in the closed rule set
type RuleID string

const (
	RuleAutoApproveHighConfidence RuleID = "AUTO_APPROVE_HIGH_CONFIDENCE"
	RuleRejectLowMargin           RuleID = "REJECT_LOW_MARGIN"
	RuleEscalateHighRisk          RuleID = "ESCALATE_HIGH_RISK"
	RuleOptimizeStalePrice        RuleID = "OPTIMIZE_STALE_PRICE"
	RuleAlertNearCheckIn          RuleID = "ALERT_NEAR_CHECKIN"
	RuleActivateReady             RuleID = "ACTIVATE_READY"
)

// Env carries the derived values predicates see alongside the item
type Env struct {
	Now      time.Time
	Margin   float64
	LeadDays int
}

// Rule pairs a predicate with an action. The set is closed: rules are
// declared here, toggled at runtime, never defined dynamically.
type Rule struct {
	ID        RuleID
	Label     string
	Action    Action
	Predicate func(item *domain.InventoryItem, env Env, t Thresholds) bool
}

// ruleTable returns the rules in their fixed evaluation order. More than
// one rule may fire per item; APPROVE and REJECT exclude each other
// through their predicates (approval targets inactive items, rejection
// active ones).
func ruleTable() []Rule {
	return []Rule{
		{
			ID:     RuleAutoApproveHighConfidence,
			Label:  "Auto-approve high-confidence opportunities",
			Action: ActionApprove,
			Predicate: func(item *domain.InventoryItem, env Env, t Thresholds) bool {
				return !item.IsActive && !item.IsSold &&
					item.Confidence >= t.ApproveConfidence &&
					env.Margin >= t.ApproveMargin &&
					domain.RiskAtMost(domain.GradeRisk(item.Confidence, env.Margin), t.ApproveMaxRisk)
			},
		},
		{
			ID:     RuleRejectLowMargin,
			Label:  "Reject positions with collapsed margin",
			Action: ActionReject,
			Predicate: func(item *domain.InventoryItem, env Env, t Thresholds) bool {
				return item.IsActive && !item.IsSold && env.Margin < t.RejectMargin
			},
		},
		{
			ID:     RuleEscalateHighRisk,
			Label:  "Escalate money-losing or near-worthless positions",
			Action: ActionEscalate,
			Predicate: func(item *domain.InventoryItem, env Env, t Thresholds) bool {
				if !item.IsActive || item.IsSold {
					return false
				}
				losing := item.SellPrice < item.BuyPrice
				expiring := env.Margin < t.EscalateMargin && env.LeadDays <= t.EscalateLeadDays
				return losing || expiring
			},
		},
		{
			ID:     RuleOptimizeStalePrice,
			Label:  "Re-price positions not touched recently",
			Action: ActionOptimizePrice,
			Predicate: func(item *domain.InventoryItem, env Env, t Thresholds) bool {
				return item.IsActive && !item.IsSold &&
					env.LeadDays >= t.OptimizeMinLead &&
					env.Now.Sub(item.UpdatedAt) >= t.OptimizeStaleAfter
			},
		},
		{
			ID:     RuleAlertNearCheckIn,
			Label:  "Alert on unsold inventory near check-in",
			Action: ActionAlert,
			Predicate: func(item *domain.InventoryItem, env Env, t Thresholds) bool {
				return item.IsActive && !item.IsSold &&
					env.LeadDays >= 0 && env.LeadDays < t.AlertLeadDays
			},
		},
		{
			ID:     RuleActivateReady,
			Label:  "Activate dormant positions that meet the bar",
			Action: ActionActivate,
			Predicate: func(item *domain.InventoryItem, env Env, t Thresholds) bool {
				return !item.IsActive && !item.IsSold && item.RejectReason == "" &&
					item.Confidence >= t.ActivateConfidence &&
					env.Margin >= t.ActivateMargin
			},
		},
	}
}
