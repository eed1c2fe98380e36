package signals

import "database/sql"

// Schema holds the market-data tables the provider queries.
// booking_history and search_stats are written by the booking pipeline
// (outside this service); competitor_rates by the rate-feed ingestor.
const Schema = `
CREATE TABLE IF NOT EXISTS booking_history (
    id INTEGER PRIMARY KEY,
    supplier_ref TEXT NOT NULL,
    check_in TEXT NOT NULL,
    check_out TEXT NOT NULL,
    sell_price REAL NOT NULL,
    buy_price REAL NOT NULL,
    booked_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_booking_history_ref ON booking_history(supplier_ref, booked_at);

CREATE TABLE IF NOT EXISTS competitor_rates (
    id INTEGER PRIMARY KEY,
    supplier_ref TEXT NOT NULL,
    stay_date TEXT NOT NULL,
    competitor TEXT NOT NULL,
    price REAL NOT NULL,
    available INTEGER NOT NULL DEFAULT 1,
    captured_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_competitor_rates_ref ON competitor_rates(supplier_ref, stay_date);

CREATE TABLE IF NOT EXISTS search_stats (
    id INTEGER PRIMARY KEY,
    supplier_ref TEXT NOT NULL,
    stay_date TEXT NOT NULL,
    day TEXT NOT NULL,
    searches INTEGER NOT NULL DEFAULT 0,
    bookings INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_search_stats_ref ON search_stats(supplier_ref, stay_date);

CREATE TABLE IF NOT EXISTS occupancy_history (
    id INTEGER PRIMARY KEY,
    month INTEGER NOT NULL,
    occupancy REAL NOT NULL,
    observed_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_occupancy_history_month ON occupancy_history(month);
`

// InitSchema ensures the market-data tables exist
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
