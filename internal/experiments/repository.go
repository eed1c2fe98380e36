// Package experiments persists pricing A/B test assignments.
package experiments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/amitpo23/medici-pricing/internal/domain"
)

// Schema holds the A/B assignment table. The partial unique index
// enforces at most one active assignment per item.
const Schema = `
CREATE TABLE IF NOT EXISTS ab_assignments (
    id TEXT PRIMARY KEY,
    item_id TEXT NOT NULL,
    variant TEXT NOT NULL,
    strategy TEXT NOT NULL,
    control_price REAL NOT NULL,
    test_price REAL NOT NULL,
    started_at TEXT NOT NULL,
    ended_at TEXT
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_ab_assignments_active
    ON ab_assignments(item_id) WHERE ended_at IS NULL;
`

// InitSchema ensures the experiment tables exist
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}

// Repository is the sqlite-backed experiment store
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
	now func() time.Time
}

// NewRepository creates an experiment repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "experiments").Logger(),
		now: time.Now,
	}
}

// GetActiveAssignment returns the item's running assignment, or nil when
// it has none
func (r *Repository) GetActiveAssignment(ctx context.Context, itemID string) (*domain.ABTestAssignment, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, item_id, variant, strategy, control_price, test_price, started_at, ended_at
		FROM ab_assignments
		WHERE item_id = ? AND ended_at IS NULL`, itemID)

	a, err := scanAssignment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active assignment for %s: %w", itemID, err)
	}
	return a, nil
}

// CreateAssignment enrolls an item in an experiment. The unique index
// rejects a second active assignment for the same item.
func (r *Repository) CreateAssignment(ctx context.Context, a *domain.ABTestAssignment) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.StartedAt.IsZero() {
		a.StartedAt = r.now()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ab_assignments
		(id, item_id, variant, strategy, control_price, test_price, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, NULL)`,
		a.ID, a.ItemID, string(a.Variant), string(a.Strategy),
		a.ControlPrice, a.TestPrice, a.StartedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}

	r.log.Info().
		Str("item", a.ItemID).
		Str("variant", string(a.Variant)).
		Str("strategy", string(a.Strategy)).
		Msg("A/B assignment created")

	return nil
}

// CompleteAssignment closes a running assignment
func (r *Repository) CompleteAssignment(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE ab_assignments SET ended_at = ? WHERE id = ? AND ended_at IS NULL`,
		r.now().UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("complete assignment %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanAssignment(row *sql.Row) (*domain.ABTestAssignment, error) {
	var a domain.ABTestAssignment
	var variant, strategy, startedAt string
	var endedAt sql.NullString

	if err := row.Scan(&a.ID, &a.ItemID, &variant, &strategy,
		&a.ControlPrice, &a.TestPrice, &startedAt, &endedAt); err != nil {
		return nil, err
	}

	a.Variant = domain.ABVariant(variant)
	a.Strategy = domain.Strategy(strategy)
	a.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
	if endedAt.Valid {
		t, _ := time.Parse(time.RFC3339, endedAt.String)
		a.EndedAt = &t
	}

	return &a, nil
}
