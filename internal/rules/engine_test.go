package rules

import (
	"context"
	"database/sql"
	"errors"
	"sync"
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

// stubProvider returns canned signals for the pricing engine
type stubProvider struct {
	hist domain.HistoricalStats
}

func (s *stubProvider) HistoricalPricing(context.Context, string, domain.DateRange) (domain.HistoricalStats, error) {
	return s.hist, nil
}

func (s *stubProvider) CompetitorPricing(context.Context, string, domain.DateRange) (domain.CompetitorStats, error) {
	return domain.NeutralCompetitor(), nil
}

func (s *stubProvider) DemandAnalysis(context.Context, string, domain.DateRange) (domain.DemandStats, error) {
	return domain.NeutralDemand(), nil
}

func (s *stubProvider) SeasonalFactors(context.Context, string, domain.DateRange) (domain.SeasonalStats, error) {
	return domain.NeutralSeasonal(), nil
}

// recordingSink captures notifications
type recordingSink struct {
	mu       sync.Mutex
	messages []string
}

func (s *recordingSink) Send(_ context.Context, channel, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, channel+": "+message)
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, inventory.InitSchema(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestEngine(t *testing.T, provider domain.SignalProvider) (*Engine, *inventory.Repository, *recordingSink) {
	t.Helper()
	log := logger.New(logger.Config{Level: "error"})
	repo := inventory.NewRepository(newTestDB(t), log)
	sink := &recordingSink{}

	pricer := pricing.NewEngine(provider, nil, pricing.DefaultTuning(), log)
	pricer.SetClock(func() time.Time { return testNow })
	engine := NewEngine(repo, pricer, sink, DefaultThresholds(), log)
	engine.now = func() time.Time { return testNow }
	return engine, repo, sink
}

// seedItem creates an item 14 days from check-in by default
func seedItem(t *testing.T, repo *inventory.Repository, mutate func(*domain.InventoryItem)) *domain.InventoryItem {
	t.Helper()
	item := &domain.InventoryItem{
		ID:          "itm-rules",
		SupplierRef: "HTL-SEED",
		CheckIn:     testNow.AddDate(0, 0, 14),
		CheckOut:    testNow.AddDate(0, 0, 17),
		BuyPrice:    100,
		SellPrice:   130,
		Confidence:  0.80,
		IsActive:    true,
		CreatedAt:   testNow.Add(-48 * time.Hour),
		UpdatedAt:   testNow.Add(-time.Hour),
	}
	if mutate != nil {
		mutate(item)
	}
	require.NoError(t, repo.Create(context.Background(), item))
	return item
}

func TestAutoApproveHighConfidence(t *testing.T) {
	engine, repo, _ := newTestEngine(t, &stubProvider{})

	// confidence 0.92, margin 0.22, inactive: the approval rule fires once
	seedItem(t, repo, func(i *domain.InventoryItem) {
		i.IsActive = false
		i.Confidence = 0.92
		i.BuyPrice = 100
		i.SellPrice = 128.21 // margin ~0.22
	})

	outcomes, err := engine.ProcessItem(context.Background(), "itm-rules")
	require.NoError(t, err)

	approvals := 0
	for _, o := range outcomes {
		if o.Action == ActionApprove {
			approvals++
			assert.Equal(t, StatusApplied, o.Status)
			assert.Equal(t, RuleAutoApproveHighConfidence, o.RuleID)
		}
	}
	assert.Equal(t, 1, approvals, "exactly one approval outcome")

	item, err := repo.Get(context.Background(), "itm-rules")
	require.NoError(t, err)
	assert.True(t, item.IsActive, "approval must activate the item")
}

func TestNoApprovalOnThinMargin(t *testing.T) {
	engine, repo, _ := newTestEngine(t, &stubProvider{})

	// Same confidence but margin 0.08: no approval rule may fire
	seedItem(t, repo, func(i *domain.InventoryItem) {
		i.IsActive = false
		i.Confidence = 0.92
		i.BuyPrice = 100
		i.SellPrice = 108.70 // margin ~0.08
	})

	outcomes, err := engine.ProcessItem(context.Background(), "itm-rules")
	require.NoError(t, err)

	for _, o := range outcomes {
		assert.NotEqual(t, ActionApprove, o.Action)
		assert.NotEqual(t, ActionActivate, o.Action)
	}
}

func TestDisabledRuleNeverFires(t *testing.T) {
	engine, repo, _ := newTestEngine(t, &stubProvider{})

	seedItem(t, repo, func(i *domain.InventoryItem) {
		i.IsActive = false
		i.Confidence = 0.95
		i.SellPrice = 140
	})

	require.True(t, engine.SetRuleEnabled(RuleAutoApproveHighConfidence, false))
	require.True(t, engine.SetRuleEnabled(RuleActivateReady, false))

	outcomes, err := engine.ProcessItem(context.Background(), "itm-rules")
	require.NoError(t, err)
	assert.Empty(t, outcomes, "disabled rules must not fire even when their predicates hold")

	// Re-enable and the rule fires again
	require.True(t, engine.SetRuleEnabled(RuleAutoApproveHighConfidence, true))
	outcomes, err = engine.ProcessItem(context.Background(), "itm-rules")
	require.NoError(t, err)
	assert.Len(t, outcomes, 1)
	assert.Equal(t, ActionApprove, outcomes[0].Action)
}

func TestSetRuleEnabledUnknownRule(t *testing.T) {
	engine, _, _ := newTestEngine(t, &stubProvider{})
	assert.False(t, engine.SetRuleEnabled("NO_SUCH_RULE", true))
}

func TestMultipleRulesFireSamePass(t *testing.T) {
	engine, repo, sink := newTestEngine(t, &stubProvider{})

	// With rejection off, a losing position one day before check-in fires
	// both the escalation and the near-checkin alert in the same pass
	require.True(t, engine.SetRuleEnabled(RuleRejectLowMargin, false))
	seedItem(t, repo, func(i *domain.InventoryItem) {
		i.CheckIn = testNow.AddDate(0, 0, 1)
		i.CheckOut = testNow.AddDate(0, 0, 3)
		i.BuyPrice = 150
		i.SellPrice = 120
	})

	outcomes, err := engine.ProcessItem(context.Background(), "itm-rules")
	require.NoError(t, err)

	actions := map[Action]bool{}
	for _, o := range outcomes {
		actions[o.Action] = true
	}
	assert.True(t, actions[ActionEscalate], "escalation should fire for a losing position")
	assert.True(t, actions[ActionAlert], "alert should fire near check-in")
	assert.GreaterOrEqual(t, sink.count(), 2, "both firings notify")
}

func TestRejectCollapsedMargin(t *testing.T) {
	engine, repo, _ := newTestEngine(t, &stubProvider{})

	seedItem(t, repo, func(i *domain.InventoryItem) {
		i.BuyPrice = 100
		i.SellPrice = 105 // margin ~0.048
	})

	outcomes, err := engine.ProcessItem(context.Background(), "itm-rules")
	require.NoError(t, err)

	rejected := false
	for _, o := range outcomes {
		if o.Action == ActionReject {
			rejected = true
			assert.Equal(t, StatusApplied, o.Status)
		}
	}
	require.True(t, rejected)

	item, err := repo.Get(context.Background(), "itm-rules")
	require.NoError(t, err)
	assert.False(t, item.IsActive)
	assert.NotEmpty(t, item.RejectReason)
}

func TestOptimizeStalePriceAppliesConfidentReprice(t *testing.T) {
	provider := &stubProvider{
		hist: domain.HistoricalStats{AvgPrice: 150, AvgMargin: 0.30, SampleCount: 25},
	}
	engine, repo, _ := newTestEngine(t, provider)

	seedItem(t, repo, func(i *domain.InventoryItem) {
		i.UpdatedAt = testNow.Add(-48 * time.Hour)
	})

	outcomes, err := engine.ProcessItem(context.Background(), "itm-rules")
	require.NoError(t, err)

	optimized := false
	for _, o := range outcomes {
		if o.Action == ActionOptimizePrice {
			optimized = true
			assert.Equal(t, StatusApplied, o.Status)
		}
	}
	require.True(t, optimized)

	item, err := repo.Get(context.Background(), "itm-rules")
	require.NoError(t, err)
	assert.Equal(t, 142.86, item.SellPrice, "balanced re-price applied")
}

func TestOptimizeHoldsLowConfidenceReprice(t *testing.T) {
	// No signals at all: fallback recommendation at confidence 0.5 is held
	engine, repo, _ := newTestEngine(t, &stubProvider{})

	seedItem(t, repo, func(i *domain.InventoryItem) {
		i.UpdatedAt = testNow.Add(-48 * time.Hour)
	})

	_, err := engine.ProcessItem(context.Background(), "itm-rules")
	require.NoError(t, err)

	item, err := repo.Get(context.Background(), "itm-rules")
	require.NoError(t, err)
	assert.Equal(t, 130.0, item.SellPrice, "price must not move on low confidence")
}

// failingStore wraps a repository and fails activation writes
type failingStore struct {
	domain.InventoryStore
}

func (f *failingStore) SetActive(context.Context, string, bool, string) error {
	return errors.New("write refused")
}

func TestActionFailureDoesNotAbortRemainingRules(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})
	repo := inventory.NewRepository(newTestDB(t), log)
	sink := &recordingSink{}
	pricer := pricing.NewEngine(&stubProvider{}, nil, pricing.DefaultTuning(), log)
	pricer.SetClock(func() time.Time { return testNow })

	engine := NewEngine(&failingStore{InventoryStore: repo}, pricer, sink, DefaultThresholds(), log)
	engine.now = func() time.Time { return testNow }

	// Rejection will fail to persist; the near-checkin alert must still run
	seedItem(t, repo, func(i *domain.InventoryItem) {
		i.CheckIn = testNow.AddDate(0, 0, 1)
		i.CheckOut = testNow.AddDate(0, 0, 2)
		i.BuyPrice = 100
		i.SellPrice = 104
	})

	outcomes, err := engine.ProcessItem(context.Background(), "itm-rules")
	require.NoError(t, err)

	var sawFailedReject, sawAlert bool
	for _, o := range outcomes {
		if o.Action == ActionReject && o.Status == StatusFailed {
			sawFailedReject = true
		}
		if o.Action == ActionAlert {
			sawAlert = true
			assert.Equal(t, StatusApplied, o.Status)
		}
	}
	assert.True(t, sawFailedReject, "persistence failure recorded as failed outcome")
	assert.True(t, sawAlert, "later rules still evaluated")
}

func TestProcessBatchSummary(t *testing.T) {
	engine, repo, _ := newTestEngine(t, &stubProvider{})

	ids := []string{"a", "b", "missing"}
	for _, id := range ids[:2] {
		item := &domain.InventoryItem{
			ID:          id,
			SupplierRef: "HTL-" + id,
			CheckIn:     testNow.AddDate(0, 0, 14),
			CheckOut:    testNow.AddDate(0, 0, 16),
			BuyPrice:    100,
			SellPrice:   105,
			IsActive:    true,
			CreatedAt:   testNow,
			UpdatedAt:   testNow,
		}
		require.NoError(t, repo.Create(context.Background(), item))
	}

	summary, err := engine.ProcessBatch(context.Background(), ids)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed, "missing item counts as a failure, not an abort")
	assert.Equal(t, 2, summary.ByAction[ActionReject])
}

func TestDecisionHistoryBoundedAndOrdered(t *testing.T) {
	engine, repo, _ := newTestEngine(t, &stubProvider{})

	seedItem(t, repo, func(i *domain.InventoryItem) {
		i.CheckIn = testNow.AddDate(0, 0, 1)
		i.CheckOut = testNow.AddDate(0, 0, 2)
	})

	for i := 0; i < 3; i++ {
		_, err := engine.ProcessItem(context.Background(), "itm-rules")
		require.NoError(t, err)
	}

	history := engine.History(2)
	require.Len(t, history, 2)
	assert.False(t, history[0].Timestamp.Before(history[1].Timestamp), "most recent first")
}
