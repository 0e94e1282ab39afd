package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"sales-forecast-lab/internal/domain"
	"sales-forecast-lab/internal/storage"
)

// ForecastRunStore implements storage.ForecastRunStore using SQLite.
type ForecastRunStore struct {
	db *DB
}

// NewForecastRunStore creates a new ForecastRunStore.
func NewForecastRunStore(db *DB) *ForecastRunStore {
	return &ForecastRunStore{db: db}
}

// Compile-time interface check.
var _ storage.ForecastRunStore = (*ForecastRunStore)(nil)

const forecastRunColumns = `
	run_id, comparison_id, product_id, product_name, competition, discount_pct,
	model_name, model_version, horizon_start, horizon_end,
	day_count, total_units, total_revenue, mean_sale_price, mean_discount_pct,
	peak_date, peak_units, clamped_days,
	units_median, units_p10, units_p90, units_stddev,
	created_at
`

const insertForecastRunQuery = `INSERT INTO forecast_runs (` + forecastRunColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *ForecastRunStore) Insert(ctx context.Context, r *domain.ForecastRun) error {
	if !validRun(r) {
		return storage.ErrInvalidInput
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	return insertForecastRun(ctx, s.db.db, r)
}

// InsertBulk adds the runs in one transaction. Fails entire batch on any duplicate run_id.
func (s *ForecastRunStore) InsertBulk(ctx context.Context, runs []*domain.ForecastRun) error {
	if len(runs) == 0 {
		return nil
	}
	for _, r := range runs {
		if !validRun(r) {
			return storage.ErrInvalidInput
		}
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	tx, err := s.db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, r := range runs {
		if err := insertForecastRun(ctx, tx, r); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func validRun(r *domain.ForecastRun) bool {
	return r != nil && r.RunID != "" && r.ProductID != ""
}

func insertForecastRun(ctx context.Context, db execer, r *domain.ForecastRun) error {
	sum := r.Summary
	_, err := db.ExecContext(ctx, insertForecastRunQuery,
		r.RunID, r.ComparisonID, r.ProductID, r.ProductName, string(r.Competition), r.DiscountPct,
		r.ModelName, r.ModelVersion, r.HorizonStart.Format(dateLayout), r.HorizonEnd.Format(dateLayout),
		sum.DayCount, sum.TotalUnits, sum.TotalRevenue, sum.MeanSalePrice, sum.MeanDiscountPct,
		sum.PeakDate.Format(dateLayout), sum.PeakUnits, sum.ClampedDays,
		sum.UnitsMedian, sum.UnitsP10, sum.UnitsP90, sum.UnitsStddev,
		r.CreatedAt.UTC().Format(timestampLayout),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert forecast run: %w", err)
	}
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *ForecastRunStore) GetByID(ctx context.Context, runID string) (*domain.ForecastRun, error) {
	row := s.db.db.QueryRowContext(ctx, `SELECT `+forecastRunColumns+` FROM forecast_runs WHERE run_id = ?`, runID)
	r, err := scanForecastRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get forecast run by id: %w", err)
	}
	return r, nil
}

// GetByProduct retrieves all runs of a product, ordered by created_at ASC, run_id ASC.
func (s *ForecastRunStore) GetByProduct(ctx context.Context, productID string) ([]*domain.ForecastRun, error) {
	rows, err := s.db.db.QueryContext(ctx,
		`SELECT `+forecastRunColumns+` FROM forecast_runs WHERE product_id = ? ORDER BY created_at ASC, run_id ASC`,
		productID)
	if err != nil {
		return nil, fmt.Errorf("get forecast runs by product: %w", err)
	}
	defer rows.Close()

	return scanForecastRuns(rows)
}

// GetByComparison retrieves the runs sharing a comparison_id, ordered by run_id ASC.
func (s *ForecastRunStore) GetByComparison(ctx context.Context, comparisonID string) ([]*domain.ForecastRun, error) {
	if comparisonID == "" {
		return nil, nil
	}
	rows, err := s.db.db.QueryContext(ctx,
		`SELECT `+forecastRunColumns+` FROM forecast_runs WHERE comparison_id = ? ORDER BY run_id ASC`,
		comparisonID)
	if err != nil {
		return nil, fmt.Errorf("get forecast runs by comparison: %w", err)
	}
	defer rows.Close()

	return scanForecastRuns(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanForecastRun(row rowScanner) (*domain.ForecastRun, error) {
	var r domain.ForecastRun
	var competition, start, end, peak, created string
	sum := &r.Summary

	err := row.Scan(
		&r.RunID, &r.ComparisonID, &r.ProductID, &r.ProductName, &competition, &r.DiscountPct,
		&r.ModelName, &r.ModelVersion, &start, &end,
		&sum.DayCount, &sum.TotalUnits, &sum.TotalRevenue, &sum.MeanSalePrice, &sum.MeanDiscountPct,
		&peak, &sum.PeakUnits, &sum.ClampedDays,
		&sum.UnitsMedian, &sum.UnitsP10, &sum.UnitsP90, &sum.UnitsStddev,
		&created,
	)
	if err != nil {
		return nil, err
	}

	r.Competition = domain.CompetitionScenario(competition)
	if r.HorizonStart, err = parseDate(start); err != nil {
		return nil, fmt.Errorf("parse horizon_start: %w", err)
	}
	if r.HorizonEnd, err = parseDate(end); err != nil {
		return nil, fmt.Errorf("parse horizon_end: %w", err)
	}
	if sum.PeakDate, err = parseDate(peak); err != nil {
		return nil, fmt.Errorf("parse peak_date: %w", err)
	}
	if r.CreatedAt, err = time.Parse(timestampLayout, created); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	r.CreatedAt = r.CreatedAt.UTC()
	return &r, nil
}

func scanForecastRuns(rows *sql.Rows) ([]*domain.ForecastRun, error) {
	var result []*domain.ForecastRun
	for rows.Next() {
		r, err := scanForecastRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan forecast run: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate forecast runs: %w", err)
	}
	return result, nil
}
