package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/amitpo23/medici-pricing/internal/domain"
	"github.com/amitpo23/medici-pricing/internal/signals/ratefeed"
)

// RateSyncJob refreshes competitor rate snapshots for upcoming active
// positions so pricing runs against current market data.
type RateSyncJob struct {
	base      context.Context
	inventory domain.InventoryStore
	ingestor  *ratefeed.Ingestor
	batch     int
	log       zerolog.Logger
}

// RateSyncConfig holds configuration for the rate sync job
type RateSyncConfig struct {
	Base      context.Context
	Inventory domain.InventoryStore
	Ingestor  *ratefeed.Ingestor
	Batch     int
	Log       zerolog.Logger
}

// NewRateSyncJob creates a rate sync job
func NewRateSyncJob(cfg RateSyncConfig) *RateSyncJob {
	batch := cfg.Batch
	if batch <= 0 {
		batch = 100
	}
	return &RateSyncJob{
		base:      cfg.Base,
		inventory: cfg.Inventory,
		ingestor:  cfg.Ingestor,
		batch:     batch,
		log:       cfg.Log.With().Str("job", "rate_sync").Logger(),
	}
}

// Name returns the job name
func (j *RateSyncJob) Name() string {
	return "rate_sync"
}

// Run syncs rates for every upcoming active position. Per-item feed
// failures are logged and skipped; the circuit breaker inside the client
// keeps a dead feed from dragging the whole run out.
func (j *RateSyncJob) Run() error {
	start := time.Now()

	items, err := j.inventory.ListCandidates(j.base, domain.CandidateFilter{
		MinLeadDays: 0,
		MaxLeadDays: 90,
		Limit:       j.batch,
		ActiveOnly:  true,
		ExcludeSold: true,
	})
	if err != nil {
		return err
	}

	// One sync per distinct hotel/stay pair; duplicates share the snapshot
	synced := map[string]bool{}
	stored, failed := 0, 0
	for i := range items {
		item := &items[i]
		key := item.SupplierRef + "|" + item.StayRange().Key()
		if synced[key] {
			continue
		}
		synced[key] = true

		if err := j.base.Err(); err != nil {
			return err
		}

		n, err := j.ingestor.Sync(j.base, item.SupplierRef, item.CheckIn, item.CheckOut)
		if err != nil {
			failed++
			j.log.Warn().Err(err).Str("ref", item.SupplierRef).Msg("Rate sync failed for item")
			continue
		}
		stored += n
	}

	j.log.Info().
		Int("items", len(items)).
		Int("stored", stored).
		Int("failed", failed).
		Dur("duration", time.Since(start)).
		Msg("Rate sync finished")

	return nil
}
