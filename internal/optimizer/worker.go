// Package optimizer re-evaluates live inventory positions on a fixed
// cadence, applies or suggests price changes, and enrolls a fraction of
// positions into pricing experiments.
package optimizer

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/amitpo23/medici-pricing/internal/domain"
	"github.com/amitpo23/medici-pricing/internal/pricing"
)

// RunSummary aggregates one optimization pass
type RunSummary struct {
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration"`
	Scanned     int           `json:"scanned"`
	Optimized   int           `json:"optimized"`
	AutoApplied int           `json:"auto_applied"`
	Suggested   int           `json:"suggested"`
	ABEnrolled  int           `json:"ab_enrolled"`
	Skipped     int           `json:"skipped"`
	Errors      int           `json:"errors"`
	TotalDelta  float64       `json:"total_delta"`
}

// Worker drives the optimization loop. Items are processed sequentially:
// every item mutates shared inventory state and the selection order
// (AI-originated first, then least recently updated) is part of the
// contract. A pacing limiter bounds load on the signal providers.
type Worker struct {
	inventory   domain.InventoryStore
	experiments domain.ExperimentStore
	pricer      *pricing.Engine
	notifier    domain.NotificationSink
	cfg         Config
	limiter     *rate.Limiter
	log         zerolog.Logger
	now         func() time.Time
	randFloat   func() float64
}

// NewWorker creates an optimization worker
func NewWorker(
	inventory domain.InventoryStore,
	experiments domain.ExperimentStore,
	pricer *pricing.Engine,
	notifier domain.NotificationSink,
	cfg Config,
	log zerolog.Logger,
) *Worker {
	return &Worker{
		inventory:   inventory,
		experiments: experiments,
		pricer:      pricer,
		notifier:    notifier,
		cfg:         cfg,
		limiter:     rate.NewLimiter(rate.Every(cfg.ItemPacing), 1),
		log:         log.With().Str("module", "optimizer").Logger(),
		now:         time.Now,
		randFloat:   rand.Float64,
	}
}

// RunOnce executes one optimization pass. Selection failure aborts the
// run with an error notification; per-item failures are counted and the
// pass continues. The context cancels the pass between items, never
// mid-write.
func (w *Worker) RunOnce(ctx context.Context) (*RunSummary, error) {
	summary := &RunSummary{StartedAt: w.now()}

	candidates, err := w.inventory.ListCandidates(ctx, domain.CandidateFilter{
		MinLeadDays: w.cfg.MinLeadDays,
		MaxLeadDays: w.cfg.MaxLeadDays,
		StaleBefore: w.cfg.StaleAfterHours,
		Limit:       w.cfg.BatchSize,
		ActiveOnly:  true,
		ExcludeSold: true,
	})
	if err != nil {
		w.notifier.Send(ctx, "pricing-alerts",
			fmt.Sprintf("optimization run aborted: candidate selection failed: %v", err))
		return summary, fmt.Errorf("select candidates: %w", err)
	}

	w.log.Info().Int("candidates", len(candidates)).Msg("Optimization pass started")

	for i := range candidates {
		item := &candidates[i]

		if err := w.limiter.Wait(ctx); err != nil {
			summary.Duration = w.now().Sub(summary.StartedAt)
			return summary, err
		}

		summary.Scanned++
		if err := w.optimizeItem(ctx, item, summary); err != nil {
			summary.Errors++
			w.log.Error().Err(err).Str("item", item.ID).Msg("Item optimization failed")
		}
	}

	summary.Duration = w.now().Sub(summary.StartedAt)
	summary.TotalDelta = domain.Round2(summary.TotalDelta)

	w.notifier.Send(ctx, "pricing-alerts", w.summaryMessage(summary))
	w.log.Info().
		Int("scanned", summary.Scanned).
		Int("optimized", summary.Optimized).
		Int("auto_applied", summary.AutoApplied).
		Int("suggested", summary.Suggested).
		Int("ab_enrolled", summary.ABEnrolled).
		Int("errors", summary.Errors).
		Float64("total_delta", summary.TotalDelta).
		Msg("Optimization pass finished")

	return summary, nil
}

func (w *Worker) optimizeItem(ctx context.Context, item *domain.InventoryItem, summary *RunSummary) error {
	strategy := w.chooseStrategy(ctx, item)

	rec, err := w.pricer.Recommend(ctx, item, strategy)
	if err != nil {
		return fmt.Errorf("recommend: %w", err)
	}

	delta := rec.RecommendedPrice - item.SellPrice
	changePct := math.Abs(delta) / item.SellPrice
	if changePct < w.cfg.MinChangePct {
		// Below the churn threshold nothing is written, not even an
		// audit entry
		summary.Skipped++
		return nil
	}

	summary.Optimized++

	if w.shouldAutoApply(item, rec, delta, changePct) {
		if err := w.applyPrice(ctx, item, rec); err != nil {
			return err
		}
		summary.AutoApplied++
		summary.TotalDelta += delta
	} else {
		if err := w.suggestPrice(ctx, item, rec); err != nil {
			return err
		}
		summary.Suggested++
	}

	// Experiment enrollment runs regardless of the apply/suggest outcome
	// and its failure never blocks pricing
	if w.maybeEnroll(ctx, item, rec) {
		summary.ABEnrolled++
	}

	return nil
}

// chooseStrategy prefers an active experiment's assigned strategy, then
// falls back to lead-time and confidence heuristics.
func (w *Worker) chooseStrategy(ctx context.Context, item *domain.InventoryItem) domain.Strategy {
	assignment, err := w.experiments.GetActiveAssignment(ctx, item.ID)
	if err != nil {
		w.log.Warn().Err(err).Str("item", item.ID).Msg("Assignment lookup failed")
	} else if assignment.Active() {
		return assignment.Strategy
	}

	lead := item.LeadDays(w.now())
	switch {
	case lead <= 7:
		return domain.StrategyConservative
	case item.Confidence >= 0.85:
		return domain.StrategyAggressive
	case lead > 30:
		return domain.StrategyBalanced
	default:
		return domain.StrategyBalanced
	}
}

// shouldAutoApply gates unattended price mutation. Increases are bounded;
// decreases need a market justification.
func (w *Worker) shouldAutoApply(item *domain.InventoryItem, rec *domain.PriceRecommendation, delta, changePct float64) bool {
	if rec.Confidence < w.cfg.AutoApplyConfidence {
		return false
	}
	if rec.Risk == domain.RiskHigh {
		return false
	}
	if item.LeadDays(w.now()) < w.cfg.AutoApplyMinLead {
		return false
	}

	if delta > 0 {
		return changePct <= w.cfg.MaxIncreasePct
	}
	return w.decreaseJustified(rec)
}

// decreaseJustified accepts a price cut when demand dragged the
// recommendation down or the current price sits above the market.
func (w *Worker) decreaseJustified(rec *domain.PriceRecommendation) bool {
	if rec.MarketPosition == domain.PositionAboveMarket {
		return true
	}
	for _, adj := range rec.Adjustments {
		if adj.Factor == "demand" && adj.Multiplier < 1.0 {
			return true
		}
	}
	return false
}

func (w *Worker) applyPrice(ctx context.Context, item *domain.InventoryItem, rec *domain.PriceRecommendation) error {
	if err := w.inventory.UpdatePrice(ctx, item.ID, rec.RecommendedPrice); err != nil {
		return fmt.Errorf("update price: %w", err)
	}

	if err := w.inventory.AppendAudit(ctx, domain.AuditEntry{
		ItemID:     item.ID,
		Kind:       domain.AuditPriceUpdate,
		OldPrice:   item.SellPrice,
		NewPrice:   rec.RecommendedPrice,
		Strategy:   rec.Strategy,
		Confidence: rec.Confidence,
		Details:    "optimization pass auto-apply",
	}); err != nil {
		w.log.Warn().Err(err).Str("item", item.ID).Msg("Audit append failed after price update")
	}

	w.log.Info().
		Str("item", item.ID).
		Float64("old", item.SellPrice).
		Float64("new", rec.RecommendedPrice).
		Str("strategy", string(rec.Strategy)).
		Msg("Price auto-applied")
	return nil
}

func (w *Worker) suggestPrice(ctx context.Context, item *domain.InventoryItem, rec *domain.PriceRecommendation) error {
	if err := w.inventory.AppendAudit(ctx, domain.AuditEntry{
		ItemID:         item.ID,
		Kind:           domain.AuditSuggestion,
		OldPrice:       item.SellPrice,
		NewPrice:       rec.RecommendedPrice,
		Strategy:       rec.Strategy,
		Confidence:     rec.Confidence,
		Details:        "optimization pass suggestion",
		RequiresReview: true,
	}); err != nil {
		return fmt.Errorf("append suggestion: %w", err)
	}
	return nil
}

func (w *Worker) summaryMessage(s *RunSummary) string {
	return fmt.Sprintf(
		"optimization pass: scanned %d, optimized %d (auto %d, suggested %d), enrolled %d, skipped %d, errors %d, net delta %.2f",
		s.Scanned, s.Optimized, s.AutoApplied, s.Suggested, s.ABEnrolled, s.Skipped, s.Errors, s.TotalDelta)
}
