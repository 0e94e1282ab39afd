package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"sales-forecast-lab/internal/domain"
	"sales-forecast-lab/internal/storage"
)

// ProductDayStore implements storage.ProductDayStore using SQLite.
type ProductDayStore struct {
	db *DB
}

// NewProductDayStore creates a new ProductDayStore.
func NewProductDayStore(db *DB) *ProductDayStore {
	return &ProductDayStore{db: db}
}

// Compile-time interface check.
var _ storage.ProductDayStore = (*ProductDayStore)(nil)

// InsertBulk adds multiple days in one transaction. Fails entire batch on any duplicate.
func (s *ProductDayStore) InsertBulk(ctx context.Context, days []*domain.DayRecord) error {
	if len(days) == 0 {
		return nil
	}
	for _, d := range days {
		if d == nil || d.ProductID == "" || d.Date.IsZero() {
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
		INSERT INTO product_days (
			product_id, product_name, date, day_of_week, day_of_month,
			base_price, competitor_base_price,
			units_lag1, units_lag2, units_lag3, units_lag4, units_lag5, units_lag6,
			units_ma7, extra
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, d := range days {
		extra := d.Extra
		if extra == nil {
			extra = map[string]float64{}
		}
		extraJSON, err := json.Marshal(extra)
		if err != nil {
			return fmt.Errorf("encode extra: %w", err)
		}
		l := d.LagFeatures
		_, err = stmt.ExecContext(ctx,
			d.ProductID, d.ProductName, d.Date.Format(dateLayout), d.DayOfWeek, d.DayOfMonth,
			d.BasePrice, d.CompetitorBasePrice,
			l[0], l[1], l[2], l[3], l[4], l[5],
			d.MovingAvgFeature, string(extraJSON),
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert product day in bulk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByProduct retrieves all days of a product, ordered by date ASC.
func (s *ProductDayStore) GetByProduct(ctx context.Context, productID string) ([]*domain.DayRecord, error) {
	rows, err := s.db.db.QueryContext(ctx, `
		SELECT
			product_id, product_name, date, day_of_week, day_of_month,
			base_price, competitor_base_price,
			units_lag1, units_lag2, units_lag3, units_lag4, units_lag5, units_lag6,
			units_ma7, extra
		FROM product_days
		WHERE product_id = ?
		ORDER BY date ASC
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("get product days: %w", err)
	}
	defer rows.Close()

	return scanProductDays(rows)
}

// ListProducts returns distinct products ordered by product_id.
// The name is taken from the earliest day of each product.
func (s *ProductDayStore) ListProducts(ctx context.Context) ([]domain.ProductRef, error) {
	rows, err := s.db.db.QueryContext(ctx, `
		SELECT p.product_id, p.product_name
		FROM product_days p
		WHERE p.date = (SELECT MIN(date) FROM product_days WHERE product_id = p.product_id)
		ORDER BY p.product_id ASC
	`)
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

func scanProductDays(rows *sql.Rows) ([]*domain.DayRecord, error) {
	var result []*domain.DayRecord
	for rows.Next() {
		var d domain.DayRecord
		var date, extra string
		l := &d.LagFeatures

		err := rows.Scan(
			&d.ProductID, &d.ProductName, &date, &d.DayOfWeek, &d.DayOfMonth,
			&d.BasePrice, &d.CompetitorBasePrice,
			&l[0], &l[1], &l[2], &l[3], &l[4], &l[5],
			&d.MovingAvgFeature, &extra,
		)
		if err != nil {
			return nil, fmt.Errorf("scan product day: %w", err)
		}
		if d.Date, err = parseDate(date); err != nil {
			return nil, fmt.Errorf("parse date: %w", err)
		}
		if err := json.Unmarshal([]byte(extra), &d.Extra); err != nil {
			return nil, fmt.Errorf("decode extra: %w", err)
		}
		if len(d.Extra) == 0 {
			d.Extra = nil
		}
		result = append(result, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product days: %w", err)
	}
	return result, nil
}
