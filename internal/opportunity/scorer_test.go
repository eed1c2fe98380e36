package opportunity

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/amitpo23/medici-pricing/internal/domain"
	"github.com/amitpo23/medici-pricing/internal/inventory"
	"github.com/amitpo23/medici-pricing/internal/pricing"
	"github.com/amitpo23/medici-pricing/pkg/logger"
)

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

type stubProvider struct{}

func (stubProvider) HistoricalPricing(context.Context, string, domain.DateRange) (domain.HistoricalStats, error) {
	return domain.HistoricalStats{AvgPrice: 145, AvgMargin: 0.30, SampleCount: 20}, nil
}

func (stubProvider) CompetitorPricing(context.Context, string, domain.DateRange) (domain.CompetitorStats, error) {
	return domain.CompetitorStats{AvgPrice: 140, MinPrice: 120, MaxPrice: 160, SampleCount: 10}, nil
}

func (stubProvider) DemandAnalysis(context.Context, string, domain.DateRange) (domain.DemandStats, error) {
	return domain.DemandStats{Level: domain.DemandNormal, Score: 0.5, SearchCount: 60, ConversionRate: 0.05}, nil
}

func (stubProvider) SeasonalFactors(context.Context, string, domain.DateRange) (domain.SeasonalStats, error) {
	return domain.SeasonalStats{Season: "summer", Factor: 1.0, OccupancyRate: 0.65, SampleCount: 30}, nil
}

func newTestScorer(t *testing.T) (*Scorer, *inventory.Repository) {
	t.Helper()
	log := logger.New(logger.Config{Level: "error"})

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, inventory.InitSchema(db))
	t.Cleanup(func() { db.Close() })

	repo := inventory.NewRepository(db, log)
	engine := pricing.NewEngine(stubProvider{}, nil, pricing.DefaultTuning(), log)
	engine.SetClock(func() time.Time { return testNow })

	scorer := NewScorer(engine, repo, DefaultThresholds(), log)
	scorer.now = func() time.Time { return testNow }
	return scorer, repo
}

func candidate(ref string, buy, sell, confidence float64) Candidate {
	return Candidate{
		SupplierRef: ref,
		HotelName:   "Test Hotel",
		CheckIn:     testNow.AddDate(0, 0, 14),
		CheckOut:    testNow.AddDate(0, 0, 17),
		BuyPrice:    buy,
		SellPrice:   sell,
		Confidence:  confidence,
	}
}

func TestEvaluateFiltersInvalidCandidates(t *testing.T) {
	scorer, _ := newTestScorer(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*Candidate)
		reason string
	}{
		{"missing buy price", func(c *Candidate) { c.BuyPrice = 0 }, "missing price"},
		{"missing sell price", func(c *Candidate) { c.SellPrice = 0 }, "missing price"},
		{"missing stay", func(c *Candidate) { c.CheckIn = time.Time{}; c.CheckOut = time.Time{} }, "missing stay range"},
		{"thin margin", func(c *Candidate) { c.SellPrice = 110 }, "margin below minimum"},
		{"low confidence", func(c *Candidate) { c.Confidence = 0.50 }, "confidence below minimum"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cand := candidate("HTL-1", 100, 130, 0.80)
			tt.mutate(&cand)

			_, reason, ok := scorer.Evaluate(ctx, cand, domain.ToleranceMedium)
			assert.False(t, ok)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestEvaluateBlendsConfidenceAndRefines(t *testing.T) {
	scorer, _ := newTestScorer(t)

	scored, _, ok := scorer.Evaluate(context.Background(), candidate("HTL-1", 100, 130, 0.80), domain.ToleranceMedium)
	require.True(t, ok)

	// Pricing confidence saturates at 1.0 here, so the upstream 0.80
	// blends to 0.90
	assert.Equal(t, 142.86, scored.FinalPrice)
	assert.Equal(t, 0.9, scored.Confidence)
	assert.Equal(t, domain.RiskLow, scored.Risk)
	assert.InDelta(t, 63.57, scored.PriorityScore, 0.02)
	assert.False(t, scored.AutoApprove, "profit 42.86 sits under the auto-approve floor")
}

func TestEvaluateAutoApprovesLargeProfit(t *testing.T) {
	scorer, _ := newTestScorer(t)

	scored, _, ok := scorer.Evaluate(context.Background(), candidate("HTL-1", 200, 260, 0.80), domain.ToleranceMedium)
	require.True(t, ok)

	assert.Equal(t, 285.71, scored.FinalPrice)
	assert.True(t, scored.AutoApprove)
}

func TestToleranceSelectsStrategy(t *testing.T) {
	scorer, _ := newTestScorer(t)
	ctx := context.Background()
	cand := candidate("HTL-1", 100, 130, 0.80)

	low, _, ok := scorer.Evaluate(ctx, cand, domain.ToleranceLow)
	require.True(t, ok)
	high, _, ok := scorer.Evaluate(ctx, cand, domain.ToleranceHigh)
	require.True(t, ok)

	assert.Equal(t, domain.StrategyConservative, low.Recommendation.Strategy)
	assert.Equal(t, domain.StrategyAggressive, high.Recommendation.Strategy)
	assert.Less(t, low.FinalPrice, high.FinalPrice)
}

func TestCreateBatchCapsAtTopPriority(t *testing.T) {
	scorer, repo := newTestScorer(t)
	ctx := context.Background()

	// Ascending confidence: the cap must keep the two highest
	candidates := []Candidate{
		candidate("HTL-A", 100, 130, 0.72),
		candidate("HTL-B", 100, 130, 0.80),
		candidate("HTL-C", 100, 130, 0.95),
	}

	result, err := scorer.CreateBatch(ctx, candidates, BatchOptions{
		MaxCreate:            2,
		ActivationConfidence: 0.85,
		Tolerance:            domain.ToleranceMedium,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 0, result.Failed)

	byStatus := map[string][]BatchDetail{}
	for _, d := range result.Details {
		byStatus[d.Status] = append(byStatus[d.Status], d)
	}
	require.Len(t, byStatus[StatusCreated], 2)
	require.Len(t, byStatus[StatusOverCap], 1)
	assert.Equal(t, "HTL-A", byStatus[StatusOverCap][0].SupplierRef, "lowest priority loses to the cap")

	for _, d := range byStatus[StatusCreated] {
		item, err := repo.Get(ctx, d.ItemID)
		require.NoError(t, err)
		assert.True(t, item.IsAIGenerated)
		assert.Equal(t, 142.86, item.SellPrice)
	}
}

func TestCreateBatchActivationGate(t *testing.T) {
	scorer, repo := newTestScorer(t)
	ctx := context.Background()

	// 0.95 blends to 0.975 (activated), 0.72 blends to 0.86 (dormant)
	result, err := scorer.CreateBatch(ctx, []Candidate{
		candidate("HTL-HI", 100, 130, 0.95),
		candidate("HTL-LO", 100, 130, 0.72),
	}, BatchOptions{ActivationConfidence: 0.90, Tolerance: domain.ToleranceMedium})
	require.NoError(t, err)
	require.Equal(t, 2, result.Created)

	for _, d := range result.Details {
		item, err := repo.Get(ctx, d.ItemID)
		require.NoError(t, err)
		switch item.SupplierRef {
		case "HTL-HI":
			assert.True(t, item.IsActive)
		case "HTL-LO":
			assert.False(t, item.IsActive)
		}
	}
}

func TestCreateBatchSkipsActiveDuplicates(t *testing.T) {
	scorer, repo := newTestScorer(t)
	ctx := context.Background()

	cand := candidate("HTL-DUP", 100, 130, 0.80)
	require.NoError(t, repo.Create(ctx, &domain.InventoryItem{
		ID:          "existing",
		SupplierRef: "HTL-DUP",
		CheckIn:     cand.CheckIn,
		CheckOut:    cand.CheckOut,
		BuyPrice:    100,
		SellPrice:   140,
		IsActive:    true,
		CreatedAt:   testNow,
		UpdatedAt:   testNow,
	}))

	result, err := scorer.CreateBatch(ctx, []Candidate{cand}, BatchOptions{Tolerance: domain.ToleranceMedium})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Details, 1)
	assert.Equal(t, StatusDuplicate, result.Details[0].Status)
}

func TestCreateBatchIsIdempotent(t *testing.T) {
	scorer, _ := newTestScorer(t)
	ctx := context.Background()

	batch := []Candidate{candidate("HTL-ONCE", 100, 130, 0.95)}
	opts := BatchOptions{ActivationConfidence: 0.85, Tolerance: domain.ToleranceMedium}

	first, err := scorer.CreateBatch(ctx, batch, opts)
	require.NoError(t, err)
	require.Equal(t, 1, first.Created)

	second, err := scorer.CreateBatch(ctx, batch, opts)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created, "re-running the same batch creates nothing new")
	assert.Equal(t, StatusDuplicate, second.Details[0].Status)
}

func TestCreateBatchDuplicateDoesNotConsumeCapSlot(t *testing.T) {
	scorer, repo := newTestScorer(t)
	ctx := context.Background()

	// The highest-priority candidate already has an active position; its
	// cap slot must pass down so the run still creates MaxCreate items.
	top := candidate("HTL-C", 100, 130, 0.95)
	require.NoError(t, repo.Create(ctx, &domain.InventoryItem{
		ID:          "existing",
		SupplierRef: "HTL-C",
		CheckIn:     top.CheckIn,
		CheckOut:    top.CheckOut,
		BuyPrice:    100,
		SellPrice:   140,
		IsActive:    true,
		CreatedAt:   testNow,
		UpdatedAt:   testNow,
	}))

	result, err := scorer.CreateBatch(ctx, []Candidate{
		candidate("HTL-A", 100, 130, 0.72),
		candidate("HTL-B", 100, 130, 0.80),
		top,
	}, BatchOptions{MaxCreate: 2, Tolerance: domain.ToleranceMedium})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 0, result.Failed)

	byStatus := map[string][]BatchDetail{}
	for _, d := range result.Details {
		byStatus[d.Status] = append(byStatus[d.Status], d)
	}
	require.Len(t, byStatus[StatusCreated], 2)
	require.Len(t, byStatus[StatusDuplicate], 1)
	assert.Empty(t, byStatus[StatusOverCap], "the duplicate frees its slot")
	assert.Equal(t, "HTL-C", byStatus[StatusDuplicate][0].SupplierRef)
}

func TestPriorityScoreWeights(t *testing.T) {
	tests := []struct {
		confidence float64
		margin     float64
		profit     float64
		leadDays   int
		want       float64
	}{
		{1.0, 0.40, 100, 14, 82.0},  // 0.4 + 0.12 + 0.2 + 0.1
		{0.9, 0.30, 42.86, 14, 63.57},
		{0.9, 0.30, 42.86, 60, 58.57}, // out-of-window lead halves the fit term
		{0.0, 0.0, 0, 60, 5.0},
	}

	for i, tt := range tests {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			got := priorityScore(tt.confidence, tt.margin, tt.profit, tt.leadDays)
			assert.InDelta(t, tt.want, got, 0.01)
		})
	}
}
