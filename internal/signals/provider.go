// Package signals implements the market signal providers consumed by the
// pricing engine: historical selling stats, competitor rate snapshots,
// demand analysis and seasonal occupancy factors.
package signals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/markcheno/go-talib"
	"github.com/rs/zerolog"

	"github.com/amitpo23/medici-pricing/internal/domain"
	"github.com/amitpo23/medici-pricing/pkg/formulas"
)

// smaWindow smooths recent nightly rates before averaging
const smaWindow = 7

// historicalLookbackDays bounds how far back comparable bookings count
const historicalLookbackDays = 180

// demandLookbackDays bounds the search-statistics window
const demandLookbackDays = 30

// Provider answers signal queries from the local market-data tables.
// Every query returns a neutral default when no data exists; an error is
// reserved for broken storage, and callers degrade rather than fail.
type Provider struct {
	db  *sql.DB
	log zerolog.Logger
	now func() time.Time
}

// NewProvider creates a signal provider over the market-data database
func NewProvider(db *sql.DB, log zerolog.Logger) *Provider {
	return &Provider{
		db:  db,
		log: log.With().Str("module", "signals").Logger(),
		now: time.Now,
	}
}

// HistoricalPricing summarizes past selling prices for comparable stays.
// Recent nightly rates are smoothed with a simple moving average so a few
// distressed sales don't drag the whole average down.
func (p *Provider) HistoricalPricing(ctx context.Context, supplierRef string, stay domain.DateRange) (domain.HistoricalStats, error) {
	since := p.now().UTC().AddDate(0, 0, -historicalLookbackDays).Format(time.RFC3339)

	rows, err := p.db.QueryContext(ctx, `
		SELECT sell_price, buy_price
		FROM booking_history
		WHERE supplier_ref = ? AND booked_at >= ? AND sell_price > 0
		ORDER BY booked_at ASC`,
		supplierRef, since,
	)
	if err != nil {
		return domain.NeutralHistorical(), fmt.Errorf("historical pricing query: %w", err)
	}
	defer rows.Close()

	var prices, margins []float64
	for rows.Next() {
		var sell, buy float64
		if err := rows.Scan(&sell, &buy); err != nil {
			return domain.NeutralHistorical(), fmt.Errorf("historical pricing scan: %w", err)
		}
		prices = append(prices, sell)
		margins = append(margins, domain.Margin(buy, sell))
	}
	if err := rows.Err(); err != nil {
		return domain.NeutralHistorical(), fmt.Errorf("historical pricing rows: %w", err)
	}

	if len(prices) == 0 {
		return domain.NeutralHistorical(), nil
	}

	avg := formulas.Mean(prices)
	if len(prices) >= smaWindow {
		// Last SMA value weights recent sales over stale ones
		sma := talib.Sma(prices, smaWindow)
		if last := sma[len(sma)-1]; last > 0 {
			avg = last
		}
	}

	min, max := prices[0], prices[0]
	for _, v := range prices[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	return domain.HistoricalStats{
		AvgPrice:    avg,
		MinPrice:    min,
		MaxPrice:    max,
		AvgMargin:   formulas.Mean(margins),
		SampleCount: len(prices),
	}, nil
}

// CompetitorPricing summarizes currently observed competitor rates for the
// stay window
func (p *Provider) CompetitorPricing(ctx context.Context, supplierRef string, stay domain.DateRange) (domain.CompetitorStats, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT price, available
		FROM competitor_rates
		WHERE supplier_ref = ? AND stay_date >= ? AND stay_date < ? AND price > 0`,
		supplierRef, stay.CheckIn.Format("2006-01-02"), stay.CheckOut.Format("2006-01-02"),
	)
	if err != nil {
		return domain.NeutralCompetitor(), fmt.Errorf("competitor pricing query: %w", err)
	}
	defer rows.Close()

	var prices []float64
	available := 0
	for rows.Next() {
		var price float64
		var avail bool
		if err := rows.Scan(&price, &avail); err != nil {
			return domain.NeutralCompetitor(), fmt.Errorf("competitor pricing scan: %w", err)
		}
		prices = append(prices, price)
		if avail {
			available++
		}
	}
	if err := rows.Err(); err != nil {
		return domain.NeutralCompetitor(), fmt.Errorf("competitor pricing rows: %w", err)
	}

	if len(prices) == 0 {
		return domain.NeutralCompetitor(), nil
	}

	min, max := prices[0], prices[0]
	for _, v := range prices[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	return domain.CompetitorStats{
		AvgPrice:     formulas.Mean(prices),
		MinPrice:     min,
		MaxPrice:     max,
		SampleCount:  len(prices),
		Availability: float64(available) / float64(len(prices)),
	}, nil
}

// DemandAnalysis scores search/booking demand for the stay window
func (p *Provider) DemandAnalysis(ctx context.Context, supplierRef string, stay domain.DateRange) (domain.DemandStats, error) {
	since := p.now().UTC().AddDate(0, 0, -demandLookbackDays).Format("2006-01-02")

	var searches, bookings sql.NullInt64
	err := p.db.QueryRowContext(ctx, `
		SELECT SUM(searches), SUM(bookings)
		FROM search_stats
		WHERE supplier_ref = ? AND stay_date >= ? AND stay_date < ? AND day >= ?`,
		supplierRef, stay.CheckIn.Format("2006-01-02"), stay.CheckOut.Format("2006-01-02"), since,
	).Scan(&searches, &bookings)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return domain.NeutralDemand(), fmt.Errorf("demand query: %w", err)
	}

	if !searches.Valid || searches.Int64 == 0 {
		return domain.NeutralDemand(), nil
	}

	conversion := 0.0
	if bookings.Valid {
		conversion = float64(bookings.Int64) / float64(searches.Int64)
	}

	score := demandScore(int(searches.Int64), conversion)

	return domain.DemandStats{
		Level:          demandLevel(score),
		Score:          domain.Round3(score),
		SearchCount:    int(searches.Int64),
		ConversionRate: domain.Round3(conversion),
	}, nil
}

// SeasonalFactors summarizes occupancy for the check-in month
func (p *Provider) SeasonalFactors(ctx context.Context, supplierRef string, stay domain.DateRange) (domain.SeasonalStats, error) {
	month := int(stay.CheckIn.Month())

	var occupancy sql.NullFloat64
	var samples sql.NullInt64
	err := p.db.QueryRowContext(ctx, `
		SELECT AVG(occupancy), COUNT(*)
		FROM occupancy_history
		WHERE month = ?`,
		month,
	).Scan(&occupancy, &samples)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return domain.NeutralSeasonal(), fmt.Errorf("seasonal query: %w", err)
	}

	if !occupancy.Valid || !samples.Valid || samples.Int64 == 0 {
		return domain.NeutralSeasonal(), nil
	}

	rate := occupancy.Float64
	return domain.SeasonalStats{
		Season:        seasonName(month),
		Factor:        OccupancyFactor(rate),
		OccupancyRate: domain.Round3(rate),
		SampleCount:   int(samples.Int64),
	}, nil
}

// demandScore blends search volume (70%) with conversion (30%).
// 200 searches over the lookback window saturates the volume component.
func demandScore(searches int, conversion float64) float64 {
	volume := float64(searches) / 200.0
	if volume > 1 {
		volume = 1
	}
	conv := conversion / 0.10 // 10% conversion saturates
	if conv > 1 {
		conv = 1
	}
	return domain.Clamp01(volume*0.7 + conv*0.3)
}

// demandLevel buckets a demand score
func demandLevel(score float64) domain.DemandLevel {
	switch {
	case score < 0.20:
		return domain.DemandVeryLow
	case score < 0.40:
		return domain.DemandLow
	case score < 0.70:
		return domain.DemandNormal
	case score < 0.85:
		return domain.DemandHigh
	default:
		return domain.DemandVeryHigh
	}
}

// OccupancyFactor maps an occupancy rate to a seasonal price multiplier
func OccupancyFactor(rate float64) float64 {
	switch {
	case rate < 0.40:
		return 0.94
	case rate < 0.60:
		return 0.98
	case rate < 0.75:
		return 1.0
	case rate < 0.85:
		return 1.04
	default:
		return 1.08
	}
}

func seasonName(month int) string {
	switch month {
	case 12, 1, 2:
		return "winter"
	case 3, 4, 5:
		return "spring"
	case 6, 7, 8:
		return "summer"
	default:
		return "autumn"
	}
}
