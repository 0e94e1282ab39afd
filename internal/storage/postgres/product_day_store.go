package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"sales-forecast-lab/internal/domain"
	"sales-forecast-lab/internal/storage"
)

// ProductDayStore implements storage.ProductDayStore using PostgreSQL.
type ProductDayStore struct {
	pool *Pool
}

// NewProductDayStore creates a new ProductDayStore.
func NewProductDayStore(pool *Pool) *ProductDayStore {
	return &ProductDayStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ProductDayStore = (*ProductDayStore)(nil)

// InsertBulk adds multiple days atomically. Fails entire batch on any duplicate.
func (s *ProductDayStore) InsertBulk(ctx context.Context, days []*domain.DayRecord) error {
	if len(days) == 0 {
		return nil
	}
	for _, d := range days {
		if d == nil || d.ProductID == "" || d.Date.IsZero() {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO product_days (
			product_id, product_name, date, day_of_week, day_of_month,
			base_price, competitor_base_price, units_lags, units_ma7, extra
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	for _, d := range days {
		extra := d.Extra
		if extra == nil {
			extra = map[string]float64{}
		}
		_, err := tx.Exec(ctx, query,
			d.ProductID, d.ProductName, d.Date, d.DayOfWeek, d.DayOfMonth,
			d.BasePrice, d.CompetitorBasePrice, d.LagFeatures[:], d.MovingAvgFeature, extra,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert product day in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByProduct retrieves all days of a product, ordered by date ASC.
func (s *ProductDayStore) GetByProduct(ctx context.Context, productID string) ([]*domain.DayRecord, error) {
	query := `
		SELECT
			product_id, product_name, date, day_of_week, day_of_month,
			base_price, competitor_base_price, units_lags, units_ma7, extra
		FROM product_days
		WHERE product_id = $1
		ORDER BY date ASC
	`

	rows, err := s.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("get product days: %w", err)
	}
	defer rows.Close()

	return scanProductDays(rows)
}

// ListProducts returns distinct products ordered by product_id.
func (s *ProductDayStore) ListProducts(ctx context.Context) ([]domain.ProductRef, error) {
	query := `
		SELECT DISTINCT ON (product_id) product_id, product_name
		FROM product_days
		ORDER BY product_id ASC, date ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var result []domain.ProductRef
	for rows.Next() {
		var p domain.ProductRef
		if err := rows.Scan(&p.ProductID, &p.ProductName); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return result, nil
}

func scanProductDays(rows pgx.Rows) ([]*domain.DayRecord, error) {
	var result []*domain.DayRecord

	for rows.Next() {
		var d domain.DayRecord
		var dayOfMonth int16
		var lags []float64
		var extra map[string]float64

		err := rows.Scan(
			&d.ProductID, &d.ProductName, &d.Date, &d.DayOfWeek, &dayOfMonth,
			&d.BasePrice, &d.CompetitorBasePrice, &lags, &d.MovingAvgFeature, &extra,
		)
		if err != nil {
			return nil, fmt.Errorf("scan product day: %w", err)
		}

		d.Date = d.Date.UTC()
		d.DayOfMonth = int(dayOfMonth)
		copy(d.LagFeatures[:], lags)
		if len(extra) > 0 {
			d.Extra = extra
		}
		result = append(result, &d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product days: %w", err)
	}

	return result, nil
}
