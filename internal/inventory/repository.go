// Package inventory persists arbitrage positions and their audit trail.
package inventory

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

// Repository is the sqlite-backed inventory store. Items are deactivated,
// never deleted; every price mutation is a single atomic write.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
	now func() time.Time
}

// NewRepository creates an inventory repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "inventory").Logger(),
		now: time.Now,
	}
}

// Get retrieves one item by id. Returns domain.ErrNotFound when absent.
func (r *Repository) Get(ctx context.Context, id string) (*domain.InventoryItem, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, supplier_ref, hotel_name, room_category, board_basis,
		       check_in, check_out, buy_price, sell_price, confidence,
		       is_active, is_sold, is_ai_generated, reject_reason,
		       created_at, updated_at
		FROM inventory_items WHERE id = ?`, id)

	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get item %s: %w", id, err)
	}
	return item, nil
}

// Create inserts a new item
func (r *Repository) Create(ctx context.Context, item *domain.InventoryItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := r.now()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = now
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO inventory_items
		(id, supplier_ref, hotel_name, room_category, board_basis,
		 check_in, check_out, buy_price, sell_price, confidence,
		 is_active, is_sold, is_ai_generated, reject_reason, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.SupplierRef, item.HotelName, item.RoomCategory, item.BoardBasis,
		fmtTime(item.CheckIn), fmtTime(item.CheckOut),
		item.BuyPrice, item.SellPrice, item.Confidence,
		item.IsActive, item.IsSold, item.IsAIGenerated, item.RejectReason,
		fmtTime(item.CreatedAt), fmtTime(item.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create item: %w", err)
	}

	r.log.Info().
		Str("id", item.ID).
		Str("ref", item.SupplierRef).
		Float64("buy", item.BuyPrice).
		Float64("sell", item.SellPrice).
		Bool("active", item.IsActive).
		Msg("Item created")

	return nil
}

// ListCandidates returns items matching the filter. Ordering is part of
// the contract: AI-generated items first, then stale-before-cutoff items,
// then least recently updated.
func (r *Repository) ListCandidates(ctx context.Context, filter domain.CandidateFilter) ([]domain.InventoryItem, error) {
	now := r.now()
	minCheckIn := fmtTime(now.AddDate(0, 0, filter.MinLeadDays))
	maxCheckIn := fmtTime(now.AddDate(0, 0, filter.MaxLeadDays))
	staleCutoff := fmtTime(now.Add(-time.Duration(filter.StaleBefore) * time.Hour))

	query := `
		SELECT id, supplier_ref, hotel_name, room_category, board_basis,
		       check_in, check_out, buy_price, sell_price, confidence,
		       is_active, is_sold, is_ai_generated, reject_reason,
		       created_at, updated_at
		FROM inventory_items
		WHERE check_in >= ? AND check_in <= ?`
	args := []interface{}{minCheckIn, maxCheckIn}

	if filter.ActiveOnly {
		query += " AND is_active = 1"
	}
	if filter.ExcludeSold {
		query += " AND is_sold = 0"
	}

	query += `
		ORDER BY is_ai_generated DESC,
		         CASE WHEN updated_at <= ? THEN 0 ELSE 1 END,
		         updated_at ASC`
	args = append(args, staleCutoff)

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var items []domain.InventoryItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// UpdatePrice sets a new sell price in one atomic write
func (r *Repository) UpdatePrice(ctx context.Context, id string, price float64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE inventory_items SET sell_price = ?, updated_at = ? WHERE id = ?`,
		price, fmtTime(r.now()), id,
	)
	if err != nil {
		return fmt.Errorf("update price for %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}

	r.log.Info().Str("id", id).Float64("price", price).Msg("Price updated")
	return nil
}

// SetActive toggles activation. A deactivation reason is stored with the
// item; activation clears it.
func (r *Repository) SetActive(ctx context.Context, id string, active bool, reason string) error {
	if active {
		reason = ""
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE inventory_items SET is_active = ?, reject_reason = ?, updated_at = ? WHERE id = ?`,
		active, reason, fmtTime(r.now()), id,
	)
	if err != nil {
		return fmt.Errorf("set active for %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// HasActiveDuplicate reports whether an active, unsold item already covers
// the same supplier reference and stay range
func (r *Repository) HasActiveDuplicate(ctx context.Context, supplierRef string, stay domain.DateRange) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM inventory_items
		WHERE supplier_ref = ? AND check_in = ? AND check_out = ?
		  AND is_active = 1 AND is_sold = 0`,
		supplierRef, fmtTime(stay.CheckIn), fmtTime(stay.CheckOut),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("duplicate check: %w", err)
	}
	return count > 0, nil
}

// AppendAudit records an immutable audit entry
func (r *Repository) AppendAudit(ctx context.Context, entry domain.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_log
		(id, item_id, kind, old_price, new_price, strategy, confidence, details, requires_review, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.ItemID, entry.Kind, entry.OldPrice, entry.NewPrice,
		string(entry.Strategy), entry.Confidence, entry.Details,
		entry.RequiresReview, fmtTime(entry.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("append audit: %w", err)
	}
	return nil
}

// ListAudit returns recent audit entries, newest first. kind filters when
// non-empty.
func (r *Repository) ListAudit(ctx context.Context, kind string, limit int) ([]domain.AuditEntry, error) {
	query := `
		SELECT id, item_id, kind, old_price, new_price, strategy, confidence,
		       details, requires_review, created_at
		FROM audit_log`
	var args []interface{}
	if kind != "" {
		query += " WHERE kind = ?"
		args = append(args, kind)
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var strategy string
		var createdAt string
		if err := rows.Scan(&e.ID, &e.ItemID, &e.Kind, &e.OldPrice, &e.NewPrice,
			&strategy, &e.Confidence, &e.Details, &e.RequiresReview, &createdAt); err != nil {
			return nil, fmt.Errorf("scan audit: %w", err)
		}
		e.Strategy = domain.Strategy(strategy)
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// fmtTime normalizes every stored timestamp to UTC RFC3339: the lead
// window and staleness filters compare these strings lexicographically,
// which only matches chronological order in a single fixed offset.
func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// scanner abstracts *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(s scanner) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	var checkIn, checkOut, createdAt, updatedAt string
	var rejectReason sql.NullString

	err := s.Scan(
		&item.ID, &item.SupplierRef, &item.HotelName, &item.RoomCategory, &item.BoardBasis,
		&checkIn, &checkOut, &item.BuyPrice, &item.SellPrice, &item.Confidence,
		&item.IsActive, &item.IsSold, &item.IsAIGenerated, &rejectReason,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.RejectReason = rejectReason.String
	item.CheckIn, _ = time.Parse(time.RFC3339, checkIn)
	item.CheckOut, _ = time.Parse(time.RFC3339, checkOut)
	item.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	item.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return &item, nil
}
