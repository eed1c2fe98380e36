// Package opportunity validates, enriches and scores raw arbitrage
// candidates, and turns accepted ones into inventory positions.
package opportunity

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/amitpo23/medici-pricing/internal/domain"
	"github.com/amitpo23/medici-pricing/internal/pricing"
)

// Scorer evaluates candidates and creates inventory positions
type Scorer struct {
	engine     *pricing.Engine
	store      domain.InventoryStore
	thresholds Thresholds
	log        zerolog.Logger
	now        func() time.Time
}

// NewScorer creates an opportunity scorer
func NewScorer(engine *pricing.Engine, store domain.InventoryStore, thresholds Thresholds, log zerolog.Logger) *Scorer {
	return &Scorer{
		engine:     engine,
		store:      store,
		thresholds: thresholds,
		log:        log.With().Str("module", "opportunity").Logger(),
		now:        time.Now,
	}
}

// Evaluate validates and scores one candidate. A false return means the
// candidate was silently filtered, not that anything failed; the reason
// string explains why.
func (s *Scorer) Evaluate(ctx context.Context, cand Candidate, tolerance domain.RiskTolerance) (*Scored, string, bool) {
	if reason, ok := s.validate(cand); !ok {
		return nil, reason, false
	}

	// Refine the sell price through the pricing engine
	item := &domain.InventoryItem{
		SupplierRef: cand.SupplierRef,
		CheckIn:     cand.CheckIn,
		CheckOut:    cand.CheckOut,
		BuyPrice:    cand.BuyPrice,
		SellPrice:   cand.SellPrice,
	}
	rec, err := s.engine.Recommend(ctx, item, tolerance.Strategy())
	if err != nil {
		// Recommend only fails on structurally bad input, which
		// validation should have caught
		return nil, fmt.Sprintf("pricing failed: %v", err), false
	}

	finalPrice := rec.RecommendedPrice
	confidence := cand.Confidence
	if rec.Confidence > s.thresholds.BlendAbove {
		confidence = (cand.Confidence + rec.Confidence) / 2
	}
	confidence = domain.Clamp01(confidence * toleranceMultiplier(tolerance))

	margin := domain.Margin(cand.BuyPrice, finalPrice)
	profit := finalPrice - cand.BuyPrice
	leadDays := cand.StayRange().LeadDays(s.now())

	return &Scored{
		Candidate:      cand,
		Recommendation: rec,
		FinalPrice:     finalPrice,
		Confidence:     domain.Round3(confidence),
		PriorityScore:  priorityScore(confidence, margin, profit, leadDays),
		Risk:           domain.GradeRisk(confidence, margin),
		AutoApprove: confidence >= s.thresholds.AutoApproveConfidence &&
			margin >= s.thresholds.AutoApproveMargin &&
			profit >= s.thresholds.AutoApproveProfit,
	}, "", true
}

// validate applies the structural acceptance checks
func (s *Scorer) validate(cand Candidate) (string, bool) {
	if cand.BuyPrice <= 0 || cand.SellPrice <= 0 {
		return "missing price", false
	}
	if cand.StayRange().IsZero() {
		return "missing stay range", false
	}
	if domain.Margin(cand.BuyPrice, cand.SellPrice) < s.thresholds.MinMargin {
		return "margin below minimum", false
	}
	if cand.Confidence < s.thresholds.MinConfidence {
		return "confidence below minimum", false
	}
	return "", true
}

// toleranceMultiplier nudges final confidence by risk appetite
func toleranceMultiplier(t domain.RiskTolerance) float64 {
	switch t {
	case domain.ToleranceLow:
		return 0.95
	case domain.ToleranceHigh:
		return 1.05
	default:
		return 1.0
	}
}

// priorityScore ranks opportunities 0-100: weighted confidence, margin,
// normalized profit and lead-time fitness.
func priorityScore(confidence, margin, profit float64, leadDays int) float64 {
	normProfit := profit / 100
	if normProfit > 1 {
		normProfit = 1
	} else if normProfit < 0 {
		normProfit = 0
	}

	leadFit := 0.5
	if leadDays >= 7 && leadDays <= 30 {
		leadFit = 1.0
	}

	score := confidence*0.4 + margin*0.3 + normProfit*0.2 + leadFit*0.1
	return domain.Round2(domain.Clamp01(score) * 100)
}

// CreateBatch scores candidates, creates the best ones as inventory items
// and reports the fate of every candidate. Individual failures never abort
// the batch.
func (s *Scorer) CreateBatch(ctx context.Context, candidates []Candidate, opts BatchOptions) (*BatchResult, error) {
	result := &BatchResult{Details: make([]BatchDetail, 0, len(candidates))}

	var accepted []*Scored
	for _, cand := range candidates {
		scored, reason, ok := s.Evaluate(ctx, cand, opts.Tolerance)
		if !ok {
			result.Skipped++
			result.Details = append(result.Details, BatchDetail{
				SupplierRef: cand.SupplierRef,
				Stay:        cand.StayRange().Key(),
				Status:      StatusRejected,
				Reason:      reason,
			})
			continue
		}
		accepted = append(accepted, scored)
	}

	// Highest priority first; the cap keeps only the best of the run
	sort.SliceStable(accepted, func(i, j int) bool {
		return accepted[i].PriorityScore > accepted[j].PriorityScore
	})

	for _, scored := range accepted {
		detail := BatchDetail{
			SupplierRef:   scored.Candidate.SupplierRef,
			Stay:          scored.Candidate.StayRange().Key(),
			PriorityScore: scored.PriorityScore,
		}

		// The cap counts creations, not list positions: a duplicate or a
		// failed write frees its slot for the next candidate down.
		if opts.MaxCreate > 0 && result.Created >= opts.MaxCreate {
			result.Skipped++
			detail.Status = StatusOverCap
			result.Details = append(result.Details, detail)
			continue
		}

		dup, err := s.store.HasActiveDuplicate(ctx, scored.Candidate.SupplierRef, scored.Candidate.StayRange())
		if err != nil {
			result.Failed++
			detail.Status = StatusFailed
			detail.Reason = err.Error()
			result.Details = append(result.Details, detail)
			s.log.Error().Err(err).Str("ref", scored.Candidate.SupplierRef).Msg("Duplicate check failed")
			continue
		}
		if dup {
			result.Skipped++
			detail.Status = StatusDuplicate
			detail.Reason = domain.ErrDuplicateOpportunity.Error()
			result.Details = append(result.Details, detail)
			continue
		}

		item := s.buildItem(scored, opts)
		if err := s.store.Create(ctx, item); err != nil {
			result.Failed++
			detail.Status = StatusFailed
			detail.Reason = err.Error()
			result.Details = append(result.Details, detail)
			s.log.Error().Err(err).Str("ref", scored.Candidate.SupplierRef).Msg("Item creation failed")
			continue
		}

		result.Created++
		detail.Status = StatusCreated
		detail.ItemID = item.ID
		detail.Activated = item.IsActive
		result.Details = append(result.Details, detail)
	}

	s.log.Info().
		Int("candidates", len(candidates)).
		Int("created", result.Created).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("Opportunity batch processed")

	return result, nil
}

// buildItem materializes a scored opportunity as an inventory position
func (s *Scorer) buildItem(scored *Scored, opts BatchOptions) *domain.InventoryItem {
	now := s.now()
	return &domain.InventoryItem{
		ID:            uuid.NewString(),
		SupplierRef:   scored.Candidate.SupplierRef,
		HotelName:     scored.Candidate.HotelName,
		RoomCategory:  scored.Candidate.RoomCategory,
		BoardBasis:    scored.Candidate.BoardBasis,
		CheckIn:       scored.Candidate.CheckIn,
		CheckOut:      scored.Candidate.CheckOut,
		BuyPrice:      scored.Candidate.BuyPrice,
		SellPrice:     scored.FinalPrice,
		Confidence:    scored.Confidence,
		IsActive:      opts.ActivationConfidence > 0 && scored.Confidence >= opts.ActivationConfidence,
		IsAIGenerated: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
