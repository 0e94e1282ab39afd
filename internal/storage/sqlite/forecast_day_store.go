package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"sales-forecast-lab/internal/domain"
	"sales-forecast-lab/internal/storage"
)

// ForecastDayStore implements storage.ForecastDayStore using SQLite.
type ForecastDayStore struct {
	db *DB
}

// NewForecastDayStore creates a new ForecastDayStore.
func NewForecastDayStore(db *DB) *ForecastDayStore {
	return &ForecastDayStore{db: db}
}

// Compile-time interface check.
var _ storage.ForecastDayStore = (*ForecastDayStore)(nil)

// InsertBulk adds multiple points in one transaction. Fails entire batch on any duplicate.
func (s *ForecastDayStore) InsertBulk(ctx context.Context, points []*domain.ForecastDayPoint) error {
	if len(points) == 0 {
		return nil
	}
	for _, p := range points {
		if p == nil || p.RunID == "" {
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

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO forecast_days (
			run_id, product_id, date, day_of_month, day_of_week,
			sale_price, competitor_price, discount_pct, price_ratio,
			units_lag1, units_lag2, units_lag3, units_lag4, units_lag5, units_lag6,
			units_ma7, raw_prediction, predicted_units, projected_revenue
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		l := p.LagFeatures
		_, err := stmt.ExecContext(ctx,
			p.RunID, p.ProductID, p.Date.Format(dateLayout), p.DayOfMonth, p.DayOfWeek,
			p.SalePrice, p.CompetitorPrice, p.DiscountPct, p.PriceRatio,
			l[0], l[1], l[2], l[3], l[4], l[5],
			p.MovingAvgFeature, p.RawPrediction, p.PredictedUnits, p.ProjectedRevenue,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert forecast day in bulk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByRunID retrieves all points of a run, ordered by date ASC.
func (s *ForecastDayStore) GetByRunID(ctx context.Context, runID string) ([]*domain.ForecastDayPoint, error) {
	rows, err := s.db.db.QueryContext(ctx, `
		SELECT
			run_id, product_id, date, day_of_month, day_of_week,
			sale_price, competitor_price, discount_pct, price_ratio,
			units_lag1, units_lag2, units_lag3, units_lag4, units_lag5, units_lag6,
			units_ma7, raw_prediction, predicted_units, projected_revenue
		FROM forecast_days
		WHERE run_id = ?
		ORDER BY date ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("get forecast days by run id: %w", err)
	}
	defer rows.Close()

	return scanForecastDays(rows)
}

func scanForecastDays(rows *sql.Rows) ([]*domain.ForecastDayPoint, error) {
	var result []*domain.ForecastDayPoint
	for rows.Next() {
		var p domain.ForecastDayPoint
		var date string
		l := &p.LagFeatures

		err := rows.Scan(
			&p.RunID, &p.ProductID, &date, &p.DayOfMonth, &p.DayOfWeek,
			&p.SalePrice, &p.CompetitorPrice, &p.DiscountPct, &p.PriceRatio,
			&l[0], &l[1], &l[2], &l[3], &l[4], &l[5],
			&p.MovingAvgFeature, &p.RawPrediction, &p.PredictedUnits, &p.ProjectedRevenue,
		)
		if err != nil {
			return nil, fmt.Errorf("scan forecast day: %w", err)
		}
		if p.Date, err = parseDate(date); err != nil {
			return nil, fmt.Errorf("parse date: %w", err)
		}
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate forecast days: %w", err)
	}
	return result, nil
}
