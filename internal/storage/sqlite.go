// Package storage persists notes, expenses, income and categories in SQLite.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/quantumlife/lifedesk/internal/core"
)

// Supported database/sql driver names
const (
	DriverModernc = "sqlite"  // pure Go, default
	DriverCgo     = "sqlite3" // mattn/go-sqlite3, needs cgo
)

// DB wraps the SQLite database connection
type DB struct {
	conn     *sql.DB
	path     string
	driver   string
	isMemory bool
}

// Config for database initialization
type Config struct {
	Path     string // Path to database file
	InMemory bool   // Use in-memory database (for testing)
	Driver   string // DriverModernc (default) or DriverCgo
}

// Open opens or creates a SQLite database
func Open(cfg Config) (*DB, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverModernc
	}
	if driver != DriverModernc && driver != DriverCgo {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownDriver, driver)
	}

	dsn := ":memory:"
	if !cfg.InMemory {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
		dsn = cfg.Path
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection serializes writes and keeps an in-memory
	// database alive for the lifetime of the pool.
	conn.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	return &DB{
		conn:     conn,
		path:     cfg.Path,
		driver:   driver,
		isMemory: cfg.InMemory,
	}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying sql.DB for direct access
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Driver returns the database/sql driver in use.
func (db *DB) Driver() string {
	return db.driver
}

// Transaction executes a function within a transaction
func (db *DB) Transaction(fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}
