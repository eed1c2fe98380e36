// Package pricing implements the multi-factor price recommendation engine.
// It combines historical, competitor, demand and seasonal signals into a
// recommended sell price with a confidence score and risk classification,
// parameterized by a pricing strategy.
package pricing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/amitpo23/medici-pricing/internal/domain"
)

// Engine computes price recommendations. It holds no shared mutable state
// beyond the optional cache; construct one and inject it where needed.
type Engine struct {
	provider domain.SignalProvider
	cache    Cache
	tuning   Tuning
	log      zerolog.Logger
	now      func() time.Time
}

// NewEngine creates a pricing engine. cache may be nil to disable caching.
func NewEngine(provider domain.SignalProvider, cache Cache, tuning Tuning, log zerolog.Logger) *Engine {
	return &Engine{
		provider: provider,
		cache:    cache,
		tuning:   tuning,
		log:      log.With().Str("module", "pricing").Logger(),
		now:      time.Now,
	}
}

// SetClock overrides the engine's time source. Lead-time buckets depend
// on the current date, so callers that pin their own clock must pin the
// engine's as well.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Recommend computes a price recommendation for the item under the given
// strategy. Missing signals never fail the call: each provider category
// degrades to a neutral default, and if no signals can be fetched at all
// the result falls back to a fixed strategy markup over the buy price.
func (e *Engine) Recommend(ctx context.Context, item *domain.InventoryItem, strategy domain.Strategy) (*domain.PriceRecommendation, error) {
	if item == nil {
		return nil, fmt.Errorf("item is nil")
	}
	if item.BuyPrice <= 0 {
		return nil, fmt.Errorf("item %s has no buy price", item.ID)
	}

	stay := item.StayRange()
	key := cacheKey(item, stay, strategy)
	if e.cache != nil {
		if rec, ok := e.cache.Get(ctx, key); ok {
			return rec, nil
		}
	}

	sig, failed := e.fetchSignals(ctx, item.SupplierRef, stay)

	var rec *domain.PriceRecommendation
	if failed == 4 || sig.Insufficient() {
		// Signal layer unavailable or holds no market data at all
		rec = e.fallback(item, strategy)
	} else {
		rec = e.compute(item, strategy, sig)
	}

	if e.cache != nil && !rec.Degraded {
		e.cache.Set(ctx, key, rec)
	}

	e.log.Debug().
		Str("item", item.ID).
		Str("strategy", string(strategy)).
		Float64("price", rec.RecommendedPrice).
		Float64("confidence", rec.Confidence).
		Str("risk", string(rec.Risk)).
		Bool("degraded", rec.Degraded).
		Msg("Recommendation computed")

	return rec, nil
}

// CompareStrategies computes one recommendation per strategy for the item,
// ranked by confidence then price.
func (e *Engine) CompareStrategies(ctx context.Context, item *domain.InventoryItem) ([]*domain.PriceRecommendation, error) {
	recs := make([]*domain.PriceRecommendation, 0, len(domain.AllStrategies))
	for _, strategy := range domain.AllStrategies {
		rec, err := e.Recommend(ctx, item, strategy)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}

	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Confidence != recs[j].Confidence {
			return recs[i].Confidence > recs[j].Confidence
		}
		return recs[i].RecommendedPrice > recs[j].RecommendedPrice
	})

	return recs, nil
}

// fetchSignals queries all four signal categories concurrently. Each
// category fails independently: a failure substitutes the neutral default
// and marks the bundle degraded. Returns the bundle and the failure count.
func (e *Engine) fetchSignals(ctx context.Context, supplierRef string, stay domain.DateRange) (domain.PricingSignals, int) {
	sig := domain.PricingSignals{
		Historical: domain.NeutralHistorical(),
		Competitor: domain.NeutralCompetitor(),
		Demand:     domain.NeutralDemand(),
		Seasonal:   domain.NeutralSeasonal(),
	}

	var failures [4]bool

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, err := e.provider.HistoricalPricing(gctx, supplierRef, stay)
		if err != nil {
			e.logSignalFailure("historical", supplierRef, err)
			failures[0] = true
			return nil
		}
		sig.Historical = stats
		return nil
	})
	g.Go(func() error {
		stats, err := e.provider.CompetitorPricing(gctx, supplierRef, stay)
		if err != nil {
			e.logSignalFailure("competitor", supplierRef, err)
			failures[1] = true
			return nil
		}
		sig.Competitor = stats
		return nil
	})
	g.Go(func() error {
		stats, err := e.provider.DemandAnalysis(gctx, supplierRef, stay)
		if err != nil {
			e.logSignalFailure("demand", supplierRef, err)
			failures[2] = true
			return nil
		}
		sig.Demand = stats
		return nil
	})
	g.Go(func() error {
		stats, err := e.provider.SeasonalFactors(gctx, supplierRef, stay)
		if err != nil {
			e.logSignalFailure("seasonal", supplierRef, err)
			failures[3] = true
			return nil
		}
		sig.Seasonal = stats
		return nil
	})

	// Goroutines never return errors; Wait is only a collection barrier.
	_ = g.Wait()

	failed := 0
	for _, f := range failures {
		if f {
			failed++
		}
	}
	sig.Degraded = failed > 0

	return sig, failed
}

func (e *Engine) logSignalFailure(category, supplierRef string, err error) {
	e.log.Warn().
		Err(err).
		Str("category", category).
		Str("ref", supplierRef).
		Msg("Signal provider failed, using neutral default")
}

// compute runs the full pricing pipeline against a signal bundle
func (e *Engine) compute(item *domain.InventoryItem, strategy domain.Strategy, sig domain.PricingSignals) *domain.PriceRecommendation {
	buy := item.BuyPrice
	leadDays := item.LeadDays(e.now())

	base := e.basePrice(strategy, buy, sig)
	price, adjustments := e.applyAdjustments(base, strategy, sig, leadDays)

	margin := domain.Margin(buy, price)
	confidence := e.confidence(sig, margin)
	risk, factors := e.assessRisk(price, margin, sig)

	return &domain.PriceRecommendation{
		ItemID:           item.ID,
		Strategy:         strategy,
		BuyPrice:         domain.Round2(buy),
		BasePrice:        domain.Round2(base),
		RecommendedPrice: domain.Round2(price),
		Profit:           domain.Round2(price - buy),
		ProfitMargin:     domain.Round3(margin),
		Confidence:       domain.Round3(confidence),
		Risk:             risk,
		RiskFactors:      factors,
		MarketPosition:   marketPosition(price, sig.Competitor),
		Adjustments:      adjustments,
		Scenarios:        e.scenarios(buy, sig),
		Degraded:         sig.Degraded,
		GeneratedAt:      e.now(),
	}
}

// fallback prices with a fixed strategy markup when no signals are
// available at all. Confidence is pinned at 0.5 and the result is marked
// degraded so callers can keep it away from auto-apply paths.
func (e *Engine) fallback(item *domain.InventoryItem, strategy domain.Strategy) *domain.PriceRecommendation {
	buy := item.BuyPrice
	price := buy * e.tuning.FallbackMultiplier(strategy)
	margin := domain.Margin(buy, price)

	neutral := domain.PricingSignals{
		Historical: domain.NeutralHistorical(),
		Competitor: domain.NeutralCompetitor(),
		Demand:     domain.NeutralDemand(),
		Seasonal:   domain.NeutralSeasonal(),
	}
	risk, factors := e.assessRisk(price, margin, neutral)

	return &domain.PriceRecommendation{
		ItemID:           item.ID,
		Strategy:         strategy,
		BuyPrice:         domain.Round2(buy),
		BasePrice:        domain.Round2(price),
		RecommendedPrice: domain.Round2(price),
		Profit:           domain.Round2(price - buy),
		ProfitMargin:     domain.Round3(margin),
		Confidence:       0.5,
		Risk:             risk,
		RiskFactors:      factors,
		MarketPosition:   domain.PositionUnknown,
		Adjustments:      []domain.Adjustment{},
		Degraded:         true,
		GeneratedAt:      e.now(),
	}
}

// cacheKey identifies a recommendation by item, stay and strategy. The
// buy price is part of the key: it feeds every base-price formula, and
// inline-priced requests can share a supplier ref and stay while holding
// different positions.
func cacheKey(item *domain.InventoryItem, stay domain.DateRange, strategy domain.Strategy) string {
	return fmt.Sprintf("rec:%s:%s:%s:%s:%.2f", item.ID, item.SupplierRef, stay.Key(), strategy, item.BuyPrice)
}
