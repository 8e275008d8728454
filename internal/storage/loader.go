package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"flightstats/pkg/contracts/domain"
)

// DefaultBatchSize is how many rows are inserted between cancellation checks.
const DefaultBatchSize = 5000

// ReplaceResult describes a committed replacement.
type ReplaceResult struct {
	Rows     int
	Duration time.Duration
}

// Loader replaces the canonical relation.
type Loader struct {
	db        *DB
	batchSize int
	logger    *slog.Logger
}

// NewLoader creates a loader on an open handle.
func NewLoader(db *DB, batchSize int, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Loader{db: db, batchSize: batchSize, logger: logger.With(slog.String("component", "store_loader"))}
}

// Replace builds the new relation in a staging table and swaps it in. Every
// step runs in one transaction; on any error the previous relation is left
// exactly as it was.
func (l *Loader) Replace(ctx context.Context, records []domain.FlightRecord) (ReplaceResult, error) {
	start := time.Now()

	tx, err := l.db.sql.BeginTx(ctx, nil)
	if err != nil {
		return ReplaceResult{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+stagingTable); err != nil {
		return ReplaceResult{}, fmt.Errorf("failed to drop stale staging table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, createTableSQL(stagingTable)); err != nil {
		return ReplaceResult{}, fmt.Errorf("failed to create staging table: %w", err)
	}

	if err := l.insertAll(ctx, tx, records); err != nil {
		return ReplaceResult{}, err
	}

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+FlightsTable); err != nil {
		return ReplaceResult{}, fmt.Errorf("failed to drop previous relation: %w", err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s RENAME TO %s", stagingTable, FlightsTable)); err != nil {
		return ReplaceResult{}, fmt.Errorf("failed to swap staging table: %w", err)
	}
	for _, idx := range indexes {
		stmt := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, FlightsTable, idx.columns)
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return ReplaceResult{}, fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return ReplaceResult{}, fmt.Errorf("failed to commit replacement: %w", err)
	}

	result := ReplaceResult{Rows: len(records), Duration: time.Since(start)}
	l.logger.InfoContext(ctx, "Canonical relation replaced",
		slog.String("table", FlightsTable),
		slog.Int("rows", result.Rows),
		slog.Duration("duration", result.Duration))
	return result, nil
}

func (l *Loader) insertAll(ctx context.Context, tx *sql.Tx, records []domain.FlightRecord) error {
	stmt, err := tx.PrepareContext(ctx, insertSQL(stagingTable))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		if i%l.batchSize == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			if i > 0 {
				l.logger.DebugContext(ctx, "Loading rows", slog.Int("inserted", i), slog.Int("total", len(records)))
			}
		}
		if _, err := stmt.ExecContext(ctx, recordValues(r)...); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", i+1, err)
		}
	}
	return nil
}

// Exists reports whether a canonical relation has been loaded.
func (d *DB) Exists(ctx context.Context) (bool, error) {
	var n int
	err := d.sql.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", FlightsTable).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to inspect schema: %w", err)
	}
	return n > 0, nil
}

// Count returns the number of rows in the relation, or zero when none is loaded.
func (d *DB) Count(ctx context.Context) (int64, error) {
	ok, err := d.Exists(ctx)
	if err != nil || !ok {
		return 0, err
	}
	var n int64
	if err := d.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+FlightsTable).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return n, nil
}

// Scan streams every record of the relation in row order.
func (d *DB) Scan(ctx context.Context, fn func(domain.FlightRecord) error) error {
	rows, err := d.sql.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid", columnList(), FlightsTable))
	if err != nil {
		return fmt.Errorf("failed to read relation: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return fmt.Errorf("failed to scan record: %w", err)
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	return rows.Err()
}

// ErrNoRelation is returned by Checksum when nothing has been loaded.
var ErrNoRelation = errors.New("canonical relation not loaded")

// Checksum hashes the relation independently of row order: rows are read
// sorted by every column and each value is encoded with its storage type.
func (d *DB) Checksum(ctx context.Context) (string, error) {
	ok, err := d.Exists(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNoRelation
	}

	cols := columnList()
	rows, err := d.sql.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", cols, FlightsTable, cols))
	if err != nil {
		return "", fmt.Errorf("failed to read relation: %w", err)
	}
	defer rows.Close()

	h := sha256.New()
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return "", fmt.Errorf("failed to scan record: %w", err)
		}
		for _, v := range recordValues(r) {
			h.Write([]byte(encodeValue(v)))
			h.Write([]byte{0x1f})
		}
		h.Write([]byte{0x1e})
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func encodeValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "\x00"
	case string:
		return "s:" + x
	case int:
		return "i:" + strconv.Itoa(x)
	case int64:
		return "i:" + strconv.FormatInt(x, 10)
	case float64:
		return "f:" + strconv.FormatUint(math.Float64bits(x), 16)
	default:
		return fmt.Sprintf("?:%v", x)
	}
}
