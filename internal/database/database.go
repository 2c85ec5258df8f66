// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/config"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/logging"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/metrics"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/store"
)

// DB is the relational signal store. It implements store.Store.
type DB struct {
	conn   *sqlx.DB
	cfg    *config.DatabaseConfig
	driver string
}

var _ store.Store = (*DB)(nil)

// New opens the configured database and, when auto_migrate is set, creates
// the schema.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	conn, err := open(cfg)
	if err != nil {
		return nil, err
	}

	db := &DB{conn: conn, cfg: cfg, driver: cfg.Driver}
	db.configureConnectionPool()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.conn.PingContext(ctx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to ping %s: %w", cfg.Driver, err)
	}

	if cfg.AutoMigrate {
		if err := db.createSchema(); err != nil {
			closeQuietly(conn)
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	logging.Info().
		Str("driver", cfg.Driver).
		Bool("auto_migrate", cfg.AutoMigrate).
		Msg("Signal store connected")
	return db, nil
}

// open builds the driver-specific connection.
func open(cfg *config.DatabaseConfig) (*sqlx.DB, error) {
	switch cfg.Driver {
	case config.DriverDuckDB:
		return openDuckDB(cfg)
	case config.DriverPostgres:
		conn, err := sqlx.Open("postgres", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres: %w", err)
		}
		return conn, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func openDuckDB(cfg *config.DatabaseConfig) (*sqlx.DB, error) {
	// Ensure parent directory exists for the database file.
	// Use 0750 permissions (owner: rwx, group: rx, other: none) per gosec G301
	if cfg.Path != ":memory:" {
		if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	}

	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "1GB"
	}

	// Disable auto-install/auto-load to prevent hangs in restricted network
	// environments. The signal store needs no extensions.
	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, threads, maxMemory)

	conn, err := sqlx.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}
	return conn, nil
}

// configureConnectionPool sets connection pool parameters
func (db *DB) configureConnectionPool() {
	maxOpen := db.cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = runtime.NumCPU()
	}
	if db.driver == config.DriverDuckDB && db.cfg.Path == ":memory:" {
		// Every connection to an in-memory DuckDB would see its own database.
		maxOpen = 1
	}
	db.conn.SetMaxOpenConns(maxOpen)

	maxIdle := db.cfg.MaxIdleConns
	if maxIdle <= 0 || maxIdle > maxOpen {
		maxIdle = maxOpen
	}
	db.conn.SetMaxIdleConns(maxIdle)

	if db.cfg.ConnMaxLifetime > 0 && db.cfg.Path != ":memory:" {
		db.conn.SetConnMaxLifetime(db.cfg.ConnMaxLifetime)
	}
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}

// Driver returns the configured driver name.
func (db *DB) Driver() string {
	return db.driver
}

// Ping implements store.Store.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close implements store.Store.
func (db *DB) Close() error {
	return db.conn.Close()
}

// in expands slice arguments and rebinds placeholders for the driver.
func (db *DB) in(query string, args ...interface{}) (string, []interface{}, error) {
	q, a, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, fmt.Errorf("expand query: %w", err)
	}
	return db.conn.Rebind(q), a, nil
}

// observe records query metrics.
func observe(operation, table string, start time.Time, err error) {
	metrics.RecordDBQuery(operation, table, time.Since(start), err)
}
