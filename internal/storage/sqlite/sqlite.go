// Package sqlite stores product days and forecast runs in a single local SQLite file.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02T15:04:05.000000000Z07:00" // fixed width so text order is time order
)

// DB wraps a SQLite handle shared by the stores of this package.
type DB struct {
	db *sql.DB
	mu sync.Mutex // serializes writers
}

// Open opens (or creates) the SQLite database at path and applies the schema.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return d, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS product_days (
			product_id            TEXT NOT NULL,
			product_name          TEXT NOT NULL,
			date                  TEXT NOT NULL,
			day_of_week           TEXT NOT NULL,
			day_of_month          INTEGER NOT NULL,
			base_price            REAL NOT NULL CHECK (base_price > 0),
			competitor_base_price REAL NOT NULL CHECK (competitor_base_price > 0),
			units_lag1            REAL NOT NULL,
			units_lag2            REAL NOT NULL,
			units_lag3            REAL NOT NULL,
			units_lag4            REAL NOT NULL,
			units_lag5            REAL NOT NULL,
			units_lag6            REAL NOT NULL,
			units_ma7             REAL NOT NULL,
			extra                 TEXT NOT NULL DEFAULT '{}',
			PRIMARY KEY (product_id, date)
		)`,

		`CREATE TABLE IF NOT EXISTS forecast_runs (
			run_id            TEXT PRIMARY KEY,
			comparison_id     TEXT NOT NULL DEFAULT '',
			product_id        TEXT NOT NULL,
			product_name      TEXT NOT NULL,
			competition       TEXT NOT NULL,
			discount_pct      REAL NOT NULL,
			model_name        TEXT NOT NULL,
			model_version     TEXT NOT NULL,
			horizon_start     TEXT NOT NULL,
			horizon_end       TEXT NOT NULL,
			day_count         INTEGER NOT NULL,
			total_units       REAL NOT NULL,
			total_revenue     REAL NOT NULL,
			mean_sale_price   REAL NOT NULL,
			mean_discount_pct REAL NOT NULL,
			peak_date         TEXT NOT NULL,
			peak_units        REAL NOT NULL,
			clamped_days      INTEGER NOT NULL,
			units_median      REAL NOT NULL,
			units_p10         REAL NOT NULL,
			units_p90         REAL NOT NULL,
			units_stddev      REAL NOT NULL,
			created_at        TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_product ON forecast_runs(product_id, created_at, run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_comparison ON forecast_runs(comparison_id)`,

		`CREATE TABLE IF NOT EXISTS forecast_days (
			run_id            TEXT NOT NULL,
			product_id        TEXT NOT NULL,
			date              TEXT NOT NULL,
			day_of_month      INTEGER NOT NULL,
			day_of_week       TEXT NOT NULL,
			sale_price        REAL NOT NULL,
			competitor_price  REAL NOT NULL,
			discount_pct      REAL NOT NULL,
			price_ratio       REAL NOT NULL,
			units_lag1        REAL NOT NULL,
			units_lag2        REAL NOT NULL,
			units_lag3        REAL NOT NULL,
			units_lag4        REAL NOT NULL,
			units_lag5        REAL NOT NULL,
			units_lag6        REAL NOT NULL,
			units_ma7         REAL NOT NULL,
			raw_prediction    REAL NOT NULL,
			predicted_units   REAL NOT NULL,
			projected_revenue REAL NOT NULL,
			PRIMARY KEY (run_id, date)
		)`,
	}

	for _, s := range stmts {
		if _, err := d.db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// isDuplicateKeyError checks if error is a primary key or unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, time.UTC)
}
