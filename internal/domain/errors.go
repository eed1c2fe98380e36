package domain

import "errors"

// Error taxonomy for the pricing core. Individual-item failures are logged
// and counted, never allowed to abort a batch or worker run.
var (
	// ErrNotFound indicates a record does not exist in the store
	ErrNotFound = errors.New("not found")

	// ErrSignalUnavailable indicates a signal provider returned nothing.
	// Callers substitute a neutral default; this is never fatal.
	ErrSignalUnavailable = errors.New("signal unavailable")

	// ErrDuplicateOpportunity is the idempotency guard: an active item for
	// the same supplier reference and stay range already exists. Treated as
	// a normal "skipped" outcome.
	ErrDuplicateOpportunity = errors.New("duplicate opportunity")

	// ErrPersistence indicates a store write failed. Caught per item,
	// counted in the batch summary, processing continues.
	ErrPersistence = errors.New("persistence failure")
)
