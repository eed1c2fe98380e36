package ratefeed

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/amitpo23/medici-pricing/pkg/formulas"
)

// outlierSigma drops feed observations further than this many standard
// deviations from the batch mean before they reach the signal tables
const outlierSigma = 3.0

// Ingestor writes fetched competitor rates into competitor_rates
type Ingestor struct {
	db     *sql.DB
	client *Client
	log    zerolog.Logger
}

// NewIngestor creates a rate feed ingestor
func NewIngestor(db *sql.DB, client *Client, log zerolog.Logger) *Ingestor {
	return &Ingestor{
		db:     db,
		client: client,
		log:    log.With().Str("module", "ratefeed").Logger(),
	}
}

// Sync fetches and stores current rates for one supplier reference.
// Previously captured rates for the same window are replaced so the
// provider always sees the freshest snapshot.
func (in *Ingestor) Sync(ctx context.Context, supplierRef string, checkIn, checkOut time.Time) (int, error) {
	rates, err := in.client.FetchRates(ctx, supplierRef, checkIn, checkOut)
	if err != nil {
		return 0, fmt.Errorf("fetch rates for %s: %w", supplierRef, err)
	}

	rates = dropOutliers(rates)
	if len(rates) == 0 {
		return 0, nil
	}

	tx, err := in.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin rates tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		DELETE FROM competitor_rates
		WHERE supplier_ref = ? AND stay_date >= ? AND stay_date < ?`,
		supplierRef, checkIn.Format("2006-01-02"), checkOut.Format("2006-01-02"),
	)
	if err != nil {
		return 0, fmt.Errorf("clear stale rates: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for _, r := range rates {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO competitor_rates (supplier_ref, stay_date, competitor, price, available, captured_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			r.SupplierRef, r.StayDate, r.Competitor, r.Price, r.Available, now,
		)
		if err != nil {
			return 0, fmt.Errorf("insert rate: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit rates tx: %w", err)
	}

	in.log.Debug().
		Str("ref", supplierRef).
		Int("stored", len(rates)).
		Msg("Competitor rates synced")

	return len(rates), nil
}

// dropOutliers removes observations implausibly far from the rest of the
// batch. Feeds occasionally emit fat-fingered rates (price in cents, wrong
// room class) that would skew the competitor average. Each price is tested
// against the mean and deviation of the *other* prices: a single extreme
// value inflates the whole-batch deviation enough to hide itself in small
// batches.
func dropOutliers(rates []Rate) []Rate {
	if len(rates) < 4 {
		return rates
	}

	prices := make([]float64, len(rates))
	for i, r := range rates {
		prices[i] = r.Price
	}

	kept := rates[:0]
	others := make([]float64, 0, len(prices)-1)
	for i, r := range rates {
		others = others[:0]
		others = append(others, prices[:i]...)
		others = append(others, prices[i+1:]...)

		mean := formulas.Mean(others)
		sd := formulas.StdDev(others)
		if sd == 0 {
			if r.Price == mean {
				kept = append(kept, r)
			}
			continue
		}
		if math.Abs(r.Price-mean) <= outlierSigma*sd {
			kept = append(kept, r)
		}
	}
	return kept
}
