// Package warehouse owns the durable SQLite store: the per-kind
// accumulation tables, the KPI snapshot table, and the loader that moves
// cleaned batches into them.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// SQLite driver registration.
	_ "github.com/mattn/go-sqlite3"
)

const (
	dirPermissions  = 0o755
	pingTimeout     = 2 * time.Second
	connMaxLifetime = time.Hour
)

// Connection wraps the warehouse database handle. The pipeline is the
// sole writer; the read API opens its own connection as a reader.
type Connection struct {
	DB *sql.DB
}

// Open opens (creating if needed) the SQLite warehouse at path. WAL mode
// keeps concurrent dashboard readers unblocked while a cycle writes.
func Open(path string) (*Connection, error) {
	if mkdirErr := os.MkdirAll(filepath.Dir(path), dirPermissions); mkdirErr != nil {
		return nil, fmt.Errorf("create warehouse dir: %w", mkdirErr)
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path)
	db, openErr := sql.Open("sqlite3", dsn)
	if openErr != nil {
		return nil, fmt.Errorf("open warehouse %s: %w", path, openErr)
	}

	// SQLite allows one writer; a single connection avoids lock churn
	// between pipeline stages.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(connMaxLifetime)

	return &Connection{DB: db}, nil
}

// Ping checks warehouse connectivity.
func (c *Connection) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return c.DB.PingContext(pingCtx)
}

// Close closes the underlying database handle.
func (c *Connection) Close() error {
	return c.DB.Close()
}

// schema is the warehouse DDL. Timestamps are stored as RFC 3339 text so
// lexical ordering matches temporal ordering.
const schema = `
CREATE TABLE IF NOT EXISTS orders (
	order_id                TEXT PRIMARY KEY,
	warehouse               TEXT    NOT NULL,
	quantity                INTEGER NOT NULL,
	order_placed_at         TEXT    NOT NULL,
	delivered_at            TEXT    NOT NULL,
	delivery_duration_hours REAL    NOT NULL,
	quality_flag            INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS route_density (
	timestamp       TEXT NOT NULL,
	route_id        TEXT NOT NULL,
	vehicles_per_km REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS kpis (
	metric TEXT PRIMARY KEY,
	value  REAL
);

CREATE INDEX IF NOT EXISTS idx_orders_placed_at ON orders (order_placed_at);
`

// EnsureSchema creates the warehouse tables if they do not exist.
func (c *Connection) EnsureSchema(ctx context.Context) error {
	if _, execErr := c.DB.ExecContext(ctx, schema); execErr != nil {
		return fmt.Errorf("ensure warehouse schema: %w", execErr)
	}
	return nil
}
