package postgres

import (
	"context"
	"fmt"

	"sales-forecast-lab/internal/domain"
	"sales-forecast-lab/internal/storage"
)

// ForecastDayStore implements storage.ForecastDayStore using PostgreSQL.
type ForecastDayStore struct {
	pool *Pool
}

// NewForecastDayStore creates a new ForecastDayStore.
func NewForecastDayStore(pool *Pool) *ForecastDayStore {
	return &ForecastDayStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ForecastDayStore = (*ForecastDayStore)(nil)

// InsertBulk adds multiple points atomically. Fails entire batch on any duplicate.
func (s *ForecastDayStore) InsertBulk(ctx context.Context, points []*domain.ForecastDayPoint) error {
	if len(points) == 0 {
		return nil
	}
	for _, p := range points {
		if p == nil || p.RunID == "" || p.Date.IsZero() {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO forecast_days (
			run_id, product_id, date, day_of_month, day_of_week,
			sale_price, competitor_price, discount_pct, price_ratio,
			units_lags, units_ma7, raw_prediction, predicted_units, projected_revenue
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	for _, p := range points {
		_, err := tx.Exec(ctx, query,
			p.RunID, p.ProductID, p.Date, p.DayOfMonth, p.DayOfWeek,
			p.SalePrice, p.CompetitorPrice, p.DiscountPct, p.PriceRatio,
			p.LagFeatures[:], p.MovingAvgFeature, p.RawPrediction, p.PredictedUnits, p.ProjectedRevenue,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert forecast day in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
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
		WHERE run_id = $1
		ORDER BY date ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get forecast days by run id: %w", err)
	}
	defer rows.Close()

	var result []*domain.ForecastDayPoint
	for rows.Next() {
		var p domain.ForecastDayPoint
		var dayOfMonth int16
		var lags []float64

		err := rows.Scan(
			&p.RunID, &p.ProductID, &p.Date, &dayOfMonth, &p.DayOfWeek,
			&p.SalePrice, &p.CompetitorPrice, &p.DiscountPct, &p.PriceRatio,
			&lags, &p.MovingAvgFeature, &p.RawPrediction, &p.PredictedUnits, &p.ProjectedRevenue,
		)
		if err != nil {
			return nil, fmt.Errorf("scan forecast day: %w", err)
		}
		p.Date = p.Date.UTC()
		p.DayOfMonth = int(dayOfMonth)
		copy(p.LagFeatures[:], lags)
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate forecast days: %w", err)
	}
	return result, nil
}
