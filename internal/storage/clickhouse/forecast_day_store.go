package clickhouse

import (
	"context"
	"fmt"
	"time"

	"sales-forecast-lab/internal/domain"
	"sales-forecast-lab/internal/storage"
)

// ForecastDayStore implements storage.ForecastDayStore using ClickHouse.
type ForecastDayStore struct {
	conn *Conn
}

// NewForecastDayStore creates a new ForecastDayStore.
func NewForecastDayStore(conn *Conn) *ForecastDayStore {
	return &ForecastDayStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ForecastDayStore = (*ForecastDayStore)(nil)

// InsertBulk adds multiple points. Fails entire batch on duplicate (run_id, date).
func (s *ForecastDayStore) InsertBulk(ctx context.Context, points []*domain.ForecastDayPoint) error {
	if len(points) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		runID string
		date  time.Time
	}
	seen := make(map[key]struct{})
	for _, p := range points {
		if p == nil || p.RunID == "" {
			return storage.ErrInvalidInput
		}
		k := key{p.RunID, p.Date.UTC()}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, p := range points {
		exists, err := s.exists(ctx, p.RunID, p.Date.UTC())
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO forecast_days (
			run_id, product_id, date, day_of_month, day_of_week,
			sale_price, competitor_price, discount_pct, price_ratio,
			units_lags, units_ma7, raw_prediction, predicted_units, projected_revenue
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		err = batch.Append(
			p.RunID, p.ProductID, p.Date.UTC(), uint8(p.DayOfMonth), p.DayOfWeek,
			p.SalePrice, p.CompetitorPrice, p.DiscountPct, p.PriceRatio,
			p.LagFeatures[:], p.MovingAvgFeature, p.RawPrediction, p.PredictedUnits, p.ProjectedRevenue,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByRunID retrieves all points of a run, ordered by date ASC.
func (s *ForecastDayStore) GetByRunID(ctx context.Context, runID string) ([]*domain.ForecastDayPoint, error) {
	query := `
		SELECT
			run_id, product_id, date, day_of_month, day_of_week,
			sale_price, competitor_price, discount_pct, price_ratio,
			units_lags, units_ma7, raw_prediction, predicted_units, projected_revenue
		FROM forecast_days
		WHERE run_id = ?
		ORDER BY date ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query by run id: %w", err)
	}
	defer rows.Close()

	return scanForecastDays(rows)
}

// exists checks if a point with the given key exists.
func (s *ForecastDayStore) exists(ctx context.Context, runID string, date time.Time) (bool, error) {
	query := `
		SELECT count(*) FROM forecast_days
		WHERE run_id = ? AND date = ?
	`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, runID, date).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// chRows abstracts driver.Rows for scanning helpers.
type chRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// scanForecastDays scans multiple rows.
func scanForecastDays(rows chRows) ([]*domain.ForecastDayPoint, error) {
	var points []*domain.ForecastDayPoint

	for rows.Next() {
		var p domain.ForecastDayPoint
		var dayOfMonth uint8
		var lags []float64

		err := rows.Scan(
			&p.RunID, &p.ProductID, &p.Date, &dayOfMonth, &p.DayOfWeek,
			&p.SalePrice, &p.CompetitorPrice, &p.DiscountPct, &p.PriceRatio,
			&lags, &p.MovingAvgFeature, &p.RawPrediction, &p.PredictedUnits, &p.ProjectedRevenue,
		)
		if err != nil {
			return nil, fmt.Errorf("scan forecast day row: %w", err)
		}

		p.Date = p.Date.UTC()
		p.DayOfMonth = int(dayOfMonth)
		copy(p.LagFeatures[:], lags)
		points = append(points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate forecast day rows: %w", err)
	}

	return points, nil
}
