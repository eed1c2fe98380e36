// Package database opens the sqlite store and initializes the schemas of
// every persistence-owning package.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/amitpo23/medici-pricing/internal/experiments"
	"github.com/amitpo23/medici-pricing/internal/inventory"
	"github.com/amitpo23/medici-pricing/internal/signals"
)

// DB wraps the database connection
type DB struct {
	conn *sql.DB
	path string
}

// New creates a new database connection
func New(dbPath string) (*DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// WAL mode for better concurrency between the API and the worker
	conn, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)

	return &DB{
		conn: conn,
		path: dbPath,
	}, nil
}

// InitSchemas creates every table the service owns
func (db *DB) InitSchemas() error {
	for name, init := range map[string]func(*sql.DB) error{
		"inventory":   inventory.InitSchema,
		"signals":     signals.InitSchema,
		"experiments": experiments.InitSchema,
	} {
		if err := init(db.conn); err != nil {
			return fmt.Errorf("init %s schema: %w", name, err)
		}
	}
	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying sql.DB connection
func (db *DB) Conn() *sql.DB {
	return db.conn
}
