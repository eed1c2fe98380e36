package optimizer

import (
	"context"

	"github.com/google/uuid"

	"github.com/amitpo23/medici-pricing/internal/domain"
)

// maybeEnroll rolls the enrollment dice and starts a new experiment for
// items without an active assignment. The control arm keeps the current
// price, the test arm takes the recommendation. Any failure is swallowed:
// experiments must never block pricing.
func (w *Worker) maybeEnroll(ctx context.Context, item *domain.InventoryItem, rec *domain.PriceRecommendation) bool {
	if w.randFloat() >= w.cfg.ABTestProbability {
		return false
	}

	existing, err := w.experiments.GetActiveAssignment(ctx, item.ID)
	if err != nil {
		w.log.Warn().Err(err).Str("item", item.ID).Msg("Enrollment lookup failed")
		return false
	}
	if existing.Active() {
		return false
	}

	variant := domain.VariantControl
	if w.randFloat() < 0.5 {
		variant = domain.VariantTest
	}

	assignment := &domain.ABTestAssignment{
		ID:           uuid.NewString(),
		ItemID:       item.ID,
		Variant:      variant,
		Strategy:     rec.Strategy,
		ControlPrice: item.SellPrice,
		TestPrice:    rec.RecommendedPrice,
		StartedAt:    w.now(),
	}

	if err := w.experiments.CreateAssignment(ctx, assignment); err != nil {
		w.log.Warn().Err(err).Str("item", item.ID).Msg("Enrollment failed")
		return false
	}

	w.log.Info().
		Str("item", item.ID).
		Str("variant", string(variant)).
		Str("strategy", string(rec.Strategy)).
		Msg("Item enrolled in pricing experiment")
	return true
}
