package inventory

import "database/sql"

// Schema holds the inventory and audit tables
const Schema = `
CREATE TABLE IF NOT EXISTS inventory_items (
    id TEXT PRIMARY KEY,
    supplier_ref TEXT NOT NULL,
    hotel_name TEXT,
    room_category TEXT,
    board_basis TEXT,
    check_in TEXT NOT NULL,
    check_out TEXT NOT NULL,
    buy_price REAL NOT NULL,
    sell_price REAL NOT NULL,
    confidence REAL NOT NULL DEFAULT 0,
    is_active INTEGER NOT NULL DEFAULT 0,
    is_sold INTEGER NOT NULL DEFAULT 0,
    is_ai_generated INTEGER NOT NULL DEFAULT 0,
    reject_reason TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_inventory_items_ref ON inventory_items(supplier_ref, check_in, check_out);
CREATE INDEX IF NOT EXISTS idx_inventory_items_active ON inventory_items(is_active, is_sold, check_in);

CREATE TABLE IF NOT EXISTS audit_log (
    id TEXT PRIMARY KEY,
    item_id TEXT NOT NULL,
    kind TEXT NOT NULL,
    old_price REAL,
    new_price REAL,
    strategy TEXT,
    confidence REAL,
    details TEXT,
    requires_review INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_log_item ON audit_log(item_id, created_at);
CREATE INDEX IF NOT EXISTS idx_audit_log_kind ON audit_log(kind, created_at);
`

// InitSchema ensures the inventory tables exist
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
