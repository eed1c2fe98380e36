package signals

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
	"github.com/amitpo23/medici-pricing/pkg/logger"
)

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestProvider(t *testing.T) (*Provider, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, InitSchema(db))
	t.Cleanup(func() { db.Close() })

	p := NewProvider(db, logger.New(logger.Config{Level: "error"}))
	p.now = func() time.Time { return testNow }
	return p, db
}

func testStay() domain.DateRange {
	return domain.DateRange{
		CheckIn:  testNow.AddDate(0, 0, 14),
		CheckOut: testNow.AddDate(0, 0, 17),
	}
}

func seedBooking(t *testing.T, db *sql.DB, ref string, sell, buy float64, bookedAt time.Time) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO booking_history (supplier_ref, check_in, check_out, sell_price, buy_price, booked_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ref, "2026-06-15", "2026-06-18", sell, buy, bookedAt.Format(time.RFC3339))
	require.NoError(t, err)
}

func seedCompetitorRate(t *testing.T, db *sql.DB, ref, stayDate, competitor string, price float64, available bool) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO competitor_rates (supplier_ref, stay_date, competitor, price, available, captured_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ref, stayDate, competitor, price, available, testNow.Format(time.RFC3339))
	require.NoError(t, err)
}

func TestHistoricalPricingNeutralWhenEmpty(t *testing.T) {
	p, _ := newTestProvider(t)

	stats, err := p.HistoricalPricing(context.Background(), "HTL-NONE", testStay())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.SampleCount)
}

func TestHistoricalPricingAveragesAndMargins(t *testing.T) {
	p, db := newTestProvider(t)

	seedBooking(t, db, "HTL-1", 120, 90, testNow.Add(-48*time.Hour))
	seedBooking(t, db, "HTL-1", 140, 98, testNow.Add(-24*time.Hour))
	seedBooking(t, db, "HTL-2", 999, 1, testNow.Add(-24*time.Hour)) // other hotel, ignored

	stats, err := p.HistoricalPricing(context.Background(), "HTL-1", testStay())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.SampleCount)
	assert.InDelta(t, 130.0, stats.AvgPrice, 0.001)
	assert.Equal(t, 120.0, stats.MinPrice)
	assert.Equal(t, 140.0, stats.MaxPrice)
	// margins: 0.25 and 0.30
	assert.InDelta(t, 0.275, stats.AvgMargin, 0.001)
}

func TestHistoricalPricingSmoothsRecentSales(t *testing.T) {
	p, db := newTestProvider(t)

	// One old distressed sale followed by seven steady ones: the smoothed
	// average must track the steady rate, not the plain mean
	seedBooking(t, db, "HTL-1", 60, 50, testNow.Add(-200*time.Hour))
	for i := 0; i < 7; i++ {
		seedBooking(t, db, "HTL-1", 140, 100, testNow.Add(-time.Duration(150-i)*time.Hour))
	}

	stats, err := p.HistoricalPricing(context.Background(), "HTL-1", testStay())
	require.NoError(t, err)

	assert.Equal(t, 8, stats.SampleCount)
	assert.InDelta(t, 140.0, stats.AvgPrice, 0.001, "moving average ignores the stale outlier")
}

func TestHistoricalPricingLookbackWindow(t *testing.T) {
	p, db := newTestProvider(t)

	seedBooking(t, db, "HTL-1", 500, 100, testNow.AddDate(0, 0, -200)) // too old
	seedBooking(t, db, "HTL-1", 130, 100, testNow.AddDate(0, 0, -10))

	stats, err := p.HistoricalPricing(context.Background(), "HTL-1", testStay())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.SampleCount)
	assert.Equal(t, 130.0, stats.AvgPrice)
}

func TestCompetitorPricingWindow(t *testing.T) {
	p, db := newTestProvider(t)
	stay := testStay()

	seedCompetitorRate(t, db, "HTL-1", stay.CheckIn.Format("2006-01-02"), "booking", 150, true)
	seedCompetitorRate(t, db, "HTL-1", stay.CheckIn.AddDate(0, 0, 1).Format("2006-01-02"), "expedia", 170, false)
	// Check-out night is outside the stay
	seedCompetitorRate(t, db, "HTL-1", stay.CheckOut.Format("2006-01-02"), "booking", 999, true)

	stats, err := p.CompetitorPricing(context.Background(), "HTL-1", stay)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.SampleCount)
	assert.True(t, stats.HasData())
	assert.InDelta(t, 160.0, stats.AvgPrice, 0.001)
	assert.Equal(t, 150.0, stats.MinPrice)
	assert.Equal(t, 170.0, stats.MaxPrice)
	assert.InDelta(t, 0.5, stats.Availability, 0.001)
}

func TestCompetitorPricingNeutralWhenEmpty(t *testing.T) {
	p, _ := newTestProvider(t)

	stats, err := p.CompetitorPricing(context.Background(), "HTL-NONE", testStay())
	require.NoError(t, err)
	assert.False(t, stats.HasData())
}

func TestDemandAnalysisScoring(t *testing.T) {
	p, db := newTestProvider(t)
	stay := testStay()

	// 200 searches saturates volume; 20 bookings is 10% conversion
	_, err := db.Exec(`
		INSERT INTO search_stats (supplier_ref, stay_date, day, searches, bookings)
		VALUES (?, ?, ?, ?, ?)`,
		"HTL-1", stay.CheckIn.Format("2006-01-02"), testNow.AddDate(0, 0, -5).Format("2006-01-02"), 200, 20)
	require.NoError(t, err)

	stats, err := p.DemandAnalysis(context.Background(), "HTL-1", stay)
	require.NoError(t, err)

	assert.Equal(t, domain.DemandVeryHigh, stats.Level)
	assert.Equal(t, 1.0, stats.Score)
	assert.Equal(t, 200, stats.SearchCount)
	assert.Equal(t, 0.1, stats.ConversionRate)
}

func TestDemandAnalysisNeutralWhenEmpty(t *testing.T) {
	p, _ := newTestProvider(t)

	stats, err := p.DemandAnalysis(context.Background(), "HTL-NONE", testStay())
	require.NoError(t, err)
	assert.Equal(t, domain.DemandNormal, stats.Level)
	assert.Equal(t, 0, stats.SearchCount)
}

func TestDemandLevels(t *testing.T) {
	tests := []struct {
		score float64
		want  domain.DemandLevel
	}{
		{0.10, domain.DemandVeryLow},
		{0.30, domain.DemandLow},
		{0.50, domain.DemandNormal},
		{0.75, domain.DemandHigh},
		{0.90, domain.DemandVeryHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, demandLevel(tt.score), "score %.2f", tt.score)
	}
}

func TestSeasonalFactorsFromOccupancy(t *testing.T) {
	p, db := newTestProvider(t)

	for _, occ := range []float64{0.85, 0.90, 0.95} {
		_, err := db.Exec(`
			INSERT INTO occupancy_history (month, occupancy, observed_at)
			VALUES (?, ?, ?)`, 6, occ, testNow.Format(time.RFC3339))
		require.NoError(t, err)
	}

	stats, err := p.SeasonalFactors(context.Background(), "HTL-1", testStay())
	require.NoError(t, err)

	assert.Equal(t, "summer", stats.Season)
	assert.Equal(t, 1.08, stats.Factor)
	assert.Equal(t, 0.9, stats.OccupancyRate)
	assert.Equal(t, 3, stats.SampleCount)
}

func TestSeasonalFactorsNeutralWhenEmpty(t *testing.T) {
	p, _ := newTestProvider(t)

	stats, err := p.SeasonalFactors(context.Background(), "HTL-NONE", testStay())
	require.NoError(t, err)
	assert.Equal(t, 1.0, stats.Factor)
}

func TestOccupancyFactorBuckets(t *testing.T) {
	tests := []struct {
		rate float64
		want float64
	}{
		{0.30, 0.94},
		{0.50, 0.98},
		{0.70, 1.0},
		{0.80, 1.04},
		{0.95, 1.08},
	}
	for i, tt := range tests {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			assert.Equal(t, tt.want, OccupancyFactor(tt.rate))
		})
	}
}
