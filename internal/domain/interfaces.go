package domain

import "context"

// SignalProvider supplies market signals for pricing. All four queries
// return a safe neutral default instead of erroring when data is absent;
// an error means the provider itself failed and the caller should degrade.
type SignalProvider interface {
	HistoricalPricing(ctx context.Context, supplierRef string, stay DateRange) (HistoricalStats, error)
	CompetitorPricing(ctx context.Context, supplierRef string, stay DateRange) (CompetitorStats, error)
	DemandAnalysis(ctx context.Context, supplierRef string, stay DateRange) (DemandStats, error)
	SeasonalFactors(ctx context.Context, supplierRef string, checkIn DateRange) (SeasonalStats, error)
}

// CandidateFilter bounds the optimization loop's selection query.
// Ordering is part of the contract: AI-generated items first, then least
// recently updated.
type CandidateFilter struct {
	MinLeadDays int
	MaxLeadDays int
	StaleBefore int // hours since last update to prioritize
	Limit       int
	ActiveOnly  bool
	ExcludeSold bool
}

// InventoryStore is the persistence collaborator for inventory positions
type InventoryStore interface {
	Get(ctx context.Context, id string) (*InventoryItem, error)
	Create(ctx context.Context, item *InventoryItem) error
	ListCandidates(ctx context.Context, filter CandidateFilter) ([]InventoryItem, error)
	UpdatePrice(ctx context.Context, id string, price float64) error
	SetActive(ctx context.Context, id string, active bool, reason string) error
	HasActiveDuplicate(ctx context.Context, supplierRef string, stay DateRange) (bool, error)
	AppendAudit(ctx context.Context, entry AuditEntry) error
}

// ExperimentStore persists A/B test assignments
type ExperimentStore interface {
	GetActiveAssignment(ctx context.Context, itemID string) (*ABTestAssignment, error)
	CreateAssignment(ctx context.Context, a *ABTestAssignment) error
	CompleteAssignment(ctx context.Context, id string) error
}

// NotificationSink delivers chat-ops messages. Fire-and-forget: failures
// are logged by implementations and never propagated.
type NotificationSink interface {
	Send(ctx context.Context, channel, message string)
}
