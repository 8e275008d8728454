package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// Options configures the storage handle.
type Options struct {
	Path         string
	BusyTimeout  time.Duration
	MaxOpenConns int
}

// DB is the scoped storage handle. It is opened once at process start and
// passed explicitly to every component that reads or replaces the relation.
type DB struct {
	sql    *sql.DB
	path   string
	logger *slog.Logger
}

// Open creates the database file if needed and verifies the connection.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if opts.BusyTimeout <= 0 {
		opts.BusyTimeout = 5 * time.Second
	}
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = 4
	}

	if dir := filepath.Dir(opts.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(opts))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logger = logger.With(slog.String("component", "storage"))
	logger.InfoContext(ctx, "Storage opened",
		slog.String("path", opts.Path),
		slog.Duration("busy_timeout", opts.BusyTimeout))

	return &DB{sql: db, path: opts.Path, logger: logger}, nil
}

// dsn builds a modernc connection string; pragmas apply to every pooled connection.
func dsn(opts Options) string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", opts.BusyTimeout.Milliseconds()))
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "synchronous(NORMAL)")
	return "file:" + opts.Path + "?" + q.Encode()
}

// SQL exposes the pool for read-only aggregation queries.
func (d *DB) SQL() *sql.DB { return d.sql }

// Path returns the database file location.
func (d *DB) Path() string { return d.path }

// Ping checks that the database is reachable.
func (d *DB) Ping(ctx context.Context) error { return d.sql.PingContext(ctx) }

// Close releases the handle.
func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	d.logger.Info("Storage closed", slog.String("path", d.path))
	return d.sql.Close()
}
