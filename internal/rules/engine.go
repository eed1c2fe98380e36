package rules

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/amitpo23/medici-pricing/internal/domain"
	"github.com/amitpo23/medici-pricing/internal/pricing"
	"github.com/amitpo23/medici-pricing/pkg/ring"
)

// historyCap bounds the in-memory decision history
const historyCap = 1000

// interItemDelay bounds load on the store during batch passes. It has no
// ordering significance.
const interItemDelay = 100 * time.Millisecond

// Engine evaluates the rule table against live items. Each enabled rule is
// checked against the item's current persisted state, so earlier actions
// in the same pass are visible to later predicates.
type Engine struct {
	store      domain.InventoryStore
	pricer     *pricing.Engine
	notifier   domain.NotificationSink
	thresholds Thresholds
	rules      []Rule

	mu       sync.RWMutex
	disabled map[RuleID]bool

	history *ring.Buffer[DecisionOutcome]
	log     zerolog.Logger
	now     func() time.Time
}

// NewEngine creates a decision rule engine with every rule enabled
func NewEngine(
	store domain.InventoryStore,
	pricer *pricing.Engine,
	notifier domain.NotificationSink,
	thresholds Thresholds,
	log zerolog.Logger,
) *Engine {
	return &Engine{
		store:      store,
		pricer:     pricer,
		notifier:   notifier,
		thresholds: thresholds,
		rules:      ruleTable(),
		disabled:   make(map[RuleID]bool),
		history:    ring.New[DecisionOutcome](historyCap),
		log:        log.With().Str("module", "rules").Logger(),
		now:        time.Now,
	}
}

// SetRuleEnabled toggles a rule at runtime. Returns false for an unknown
// rule id.
func (e *Engine) SetRuleEnabled(id RuleID, enabled bool) bool {
	known := false
	for _, rule := range e.rules {
		if rule.ID == id {
			known = true
			break
		}
	}
	if !known {
		return false
	}

	e.mu.Lock()
	e.disabled[id] = !enabled
	e.mu.Unlock()

	e.log.Info().Str("rule", string(id)).Bool("enabled", enabled).Msg("Rule toggled")
	return true
}

// Rules reports every rule with its toggle state, in evaluation order
func (e *Engine) Rules() []RuleStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]RuleStatus, 0, len(e.rules))
	for _, rule := range e.rules {
		out = append(out, RuleStatus{
			ID:      rule.ID,
			Label:   rule.Label,
			Action:  rule.Action,
			Enabled: !e.disabled[rule.ID],
		})
	}
	return out
}

// History returns recent decision outcomes, most recent first
func (e *Engine) History(limit int) []DecisionOutcome {
	return e.history.Newest(limit)
}

// ProcessItem evaluates every enabled rule against the item. Rules are not
// mutually exclusive: evaluation continues after a match, and each firing
// yields one outcome. An action's failure is recorded in its outcome and
// never aborts the remaining rules.
func (e *Engine) ProcessItem(ctx context.Context, itemID string) ([]DecisionOutcome, error) {
	var outcomes []DecisionOutcome

	for _, rule := range e.rules {
		if !e.enabled(rule.ID) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}

		// Fresh persisted state for every rule, not a snapshot
		item, err := e.store.Get(ctx, itemID)
		if err != nil {
			return outcomes, fmt.Errorf("load item %s: %w", itemID, err)
		}

		now := e.now()
		env := Env{
			Now:      now,
			Margin:   item.Margin(),
			LeadDays: item.LeadDays(now),
		}

		if !rule.Predicate(item, env, e.thresholds) {
			continue
		}

		outcome := e.execute(ctx, rule, item)
		e.record(ctx, outcome)
		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}

// ProcessBatch evaluates the rule set over many items sequentially.
// Per-item failures are counted, never propagated.
func (e *Engine) ProcessBatch(ctx context.Context, itemIDs []string) (*BatchSummary, error) {
	summary := &BatchSummary{ByAction: make(map[Action]int)}

	for i, id := range itemIDs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if i > 0 {
			select {
			case <-time.After(interItemDelay):
			case <-ctx.Done():
				return summary, ctx.Err()
			}
		}

		summary.Total++
		outcomes, err := e.ProcessItem(ctx, id)
		if err != nil {
			summary.Failed++
			e.log.Error().Err(err).Str("item", id).Msg("Item evaluation failed")
			continue
		}

		summary.Succeeded++
		summary.Decisions += len(outcomes)
		for _, o := range outcomes {
			summary.ByAction[o.Action]++
		}
	}

	e.log.Info().
		Int("total", summary.Total).
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Int("decisions", summary.Decisions).
		Msg("Rule batch processed")

	return summary, nil
}

func (e *Engine) enabled(id RuleID) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return !e.disabled[id]
}

// execute performs the rule's action and packages the outcome
func (e *Engine) execute(ctx context.Context, rule Rule, item *domain.InventoryItem) DecisionOutcome {
	outcome := DecisionOutcome{
		ID:        uuid.NewString(),
		ItemID:    item.ID,
		RuleID:    rule.ID,
		Action:    rule.Action,
		Status:    StatusApplied,
		Timestamp: e.now(),
	}

	details, err := e.apply(ctx, rule, item)
	outcome.Details = details
	if err != nil {
		outcome.Status = StatusFailed
		outcome.Details = err.Error()
		e.log.Error().
			Err(err).
			Str("rule", string(rule.ID)).
			Str("item", item.ID).
			Msg("Rule action failed")
	}

	return outcome
}

func (e *Engine) apply(ctx context.Context, rule Rule, item *domain.InventoryItem) (string, error) {
	switch rule.Action {
	case ActionApprove:
		if err := e.store.SetActive(ctx, item.ID, true, ""); err != nil {
			return "", err
		}
		return fmt.Sprintf("approved at confidence %.2f, margin %.1f%%", item.Confidence, item.Margin()*100), nil

	case ActionReject:
		reason := fmt.Sprintf("margin %.1f%% below floor", item.Margin()*100)
		if err := e.store.SetActive(ctx, item.ID, false, reason); err != nil {
			return "", err
		}
		return reason, nil

	case ActionEscalate:
		msg := fmt.Sprintf("item %s (%s) needs attention: sell %.2f vs buy %.2f, %d days to check-in",
			item.ID, item.SupplierRef, item.SellPrice, item.BuyPrice, item.LeadDays(e.now()))
		if err := e.store.AppendAudit(ctx, domain.AuditEntry{
			ItemID:         item.ID,
			Kind:           domain.AuditDecision,
			OldPrice:       item.SellPrice,
			Details:        msg,
			RequiresReview: true,
		}); err != nil {
			return "", err
		}
		e.notifier.Send(ctx, e.thresholds.EscalationChannel, msg)
		return msg, nil

	case ActionOptimizePrice:
		return e.optimizePrice(ctx, item)

	case ActionAlert:
		msg := fmt.Sprintf("item %s (%s) unsold %d days before check-in",
			item.ID, item.SupplierRef, item.LeadDays(e.now()))
		e.notifier.Send(ctx, e.thresholds.AlertChannel, msg)
		return msg, nil

	case ActionActivate:
		if err := e.store.SetActive(ctx, item.ID, true, ""); err != nil {
			return "", err
		}
		return "activated", nil

	default:
		return "", fmt.Errorf("unknown action %s", rule.Action)
	}
}

// optimizePrice re-prices through the balanced strategy and applies only
// confident recommendations
func (e *Engine) optimizePrice(ctx context.Context, item *domain.InventoryItem) (string, error) {
	rec, err := e.pricer.Recommend(ctx, item, domain.StrategyBalanced)
	if err != nil {
		return "", err
	}

	if rec.Confidence < e.thresholds.OptimizeConfidence {
		return fmt.Sprintf("recommendation held: confidence %.2f below %.2f",
			rec.Confidence, e.thresholds.OptimizeConfidence), nil
	}

	if err := e.store.UpdatePrice(ctx, item.ID, rec.RecommendedPrice); err != nil {
		return "", err
	}

	if err := e.store.AppendAudit(ctx, domain.AuditEntry{
		ItemID:     item.ID,
		Kind:       domain.AuditPriceUpdate,
		OldPrice:   item.SellPrice,
		NewPrice:   rec.RecommendedPrice,
		Strategy:   rec.Strategy,
		Confidence: rec.Confidence,
		Details:    "rule-driven re-price",
	}); err != nil {
		e.log.Warn().Err(err).Str("item", item.ID).Msg("Audit append failed after price update")
	}

	return fmt.Sprintf("re-priced %.2f -> %.2f", item.SellPrice, rec.RecommendedPrice), nil
}

// record stores the outcome in the bounded history and the durable audit log
func (e *Engine) record(ctx context.Context, outcome DecisionOutcome) {
	e.history.Push(outcome)

	if err := e.store.AppendAudit(ctx, domain.AuditEntry{
		ItemID:  outcome.ItemID,
		Kind:    domain.AuditDecision,
		Details: fmt.Sprintf("%s: %s (%s)", outcome.RuleID, outcome.Action, outcome.Status),
	}); err != nil {
		e.log.Warn().Err(err).Str("item", outcome.ItemID).Msg("Audit append failed for decision")
	}
}
