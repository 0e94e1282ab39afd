package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"sales-forecast-lab/internal/domain"
	"sales-forecast-lab/internal/storage"
)

// ForecastRunStore implements storage.ForecastRunStore using PostgreSQL.
type ForecastRunStore struct {
	pool *Pool
}

// NewForecastRunStore creates a new ForecastRunStore.
func NewForecastRunStore(pool *Pool) *ForecastRunStore {
	return &ForecastRunStore{pool: pool}
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

const insertForecastRunQuery = `INSERT INTO forecast_runs (` + forecastRunColumns + `) VALUES (
	$1, $2, $3, $4, $5, $6,
	$7, $8, $9, $10,
	$11, $12, $13, $14, $15,
	$16, $17, $18,
	$19, $20, $21, $22,
	$23
)`

// execer is satisfied by both *Pool and pgx.Tx.
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *ForecastRunStore) Insert(ctx context.Context, r *domain.ForecastRun) error {
	if !validRun(r) {
		return storage.ErrInvalidInput
	}
	return insertForecastRun(ctx, s.pool, r)
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

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range runs {
		if err := insertForecastRun(ctx, tx, r); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func validRun(r *domain.ForecastRun) bool {
	return r != nil && r.RunID != "" && r.ProductID != ""
}

func insertForecastRun(ctx context.Context, db execer, r *domain.ForecastRun) error {
	sum := r.Summary
	_, err := db.Exec(ctx, insertForecastRunQuery,
		r.RunID, r.ComparisonID, r.ProductID, r.ProductName, string(r.Competition), r.DiscountPct,
		r.ModelName, r.ModelVersion, r.HorizonStart, r.HorizonEnd,
		sum.DayCount, sum.TotalUnits, sum.TotalRevenue, sum.MeanSalePrice, sum.MeanDiscountPct,
		sum.PeakDate, sum.PeakUnits, sum.ClampedDays,
		sum.UnitsMedian, sum.UnitsP10, sum.UnitsP90, sum.UnitsStddev,
		r.CreatedAt,
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
	query := `SELECT ` + forecastRunColumns + ` FROM forecast_runs WHERE run_id = $1`

	r, err := scanForecastRun(s.pool.QueryRow(ctx, query, runID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get forecast run by id: %w", err)
	}
	return r, nil
}

// GetByProduct retrieves all runs of a product, ordered by created_at ASC, run_id ASC.
func (s *ForecastRunStore) GetByProduct(ctx context.Context, productID string) ([]*domain.ForecastRun, error) {
	query := `SELECT ` + forecastRunColumns + `
		FROM forecast_runs
		WHERE product_id = $1
		ORDER BY created_at ASC, run_id ASC
	`

	rows, err := s.pool.Query(ctx, query, productID)
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

	query := `SELECT ` + forecastRunColumns + `
		FROM forecast_runs
		WHERE comparison_id = $1
		ORDER BY run_id ASC
	`

	rows, err := s.pool.Query(ctx, query, comparisonID)
	if err != nil {
		return nil, fmt.Errorf("get forecast runs by comparison: %w", err)
	}
	defer rows.Close()

	return scanForecastRuns(rows)
}

func scanForecastRun(row pgx.Row) (*domain.ForecastRun, error) {
	var r domain.ForecastRun
	var competition string
	sum := &r.Summary

	err := row.Scan(
		&r.RunID, &r.ComparisonID, &r.ProductID, &r.ProductName, &competition, &r.DiscountPct,
		&r.ModelName, &r.ModelVersion, &r.HorizonStart, &r.HorizonEnd,
		&sum.DayCount, &sum.TotalUnits, &sum.TotalRevenue, &sum.MeanSalePrice, &sum.MeanDiscountPct,
		&sum.PeakDate, &sum.PeakUnits, &sum.ClampedDays,
		&sum.UnitsMedian, &sum.UnitsP10, &sum.UnitsP90, &sum.UnitsStddev,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Competition = domain.CompetitionScenario(competition)
	r.HorizonStart = r.HorizonStart.UTC()
	r.HorizonEnd = r.HorizonEnd.UTC()
	sum.PeakDate = sum.PeakDate.UTC()
	r.CreatedAt = r.CreatedAt.UTC()
	return &r, nil
}

func scanForecastRuns(rows pgx.Rows) ([]*domain.ForecastRun, error) {
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
