package storage

import (
	"context"

	"sales-forecast-lab/internal/domain"
)

// ProductDayStore provides access to product_days storage (the forecast input table).
type ProductDayStore interface {
	// InsertBulk adds multiple days atomically. Fails entire batch on any duplicate (product_id, date).
	InsertBulk(ctx context.Context, days []*domain.DayRecord) error

	// GetByProduct retrieves all days of a product, ordered by date ASC.
	GetByProduct(ctx context.Context, productID string) ([]*domain.DayRecord, error)

	// ListProducts returns distinct products ordered by product_id.
	ListProducts(ctx context.Context) ([]domain.ProductRef, error)
}

// ForecastRunStore provides access to forecast_runs storage.
type ForecastRunStore interface {
	// Insert adds a new run header. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.ForecastRun) error

	// InsertBulk adds multiple runs atomically. Fails entire batch on any duplicate run_id.
	InsertBulk(ctx context.Context, runs []*domain.ForecastRun) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.ForecastRun, error)

	// GetByProduct retrieves all runs of a product, ordered by created_at ASC, run_id ASC.
	GetByProduct(ctx context.Context, productID string) ([]*domain.ForecastRun, error)

	// GetByComparison retrieves the runs sharing a comparison_id, ordered by run_id ASC.
	GetByComparison(ctx context.Context, comparisonID string) ([]*domain.ForecastRun, error)
}

// ForecastDayStore provides access to forecast_days storage (per-day engine output).
type ForecastDayStore interface {
	// InsertBulk adds multiple points atomically. Fails entire batch on any duplicate (run_id, date).
	InsertBulk(ctx context.Context, points []*domain.ForecastDayPoint) error

	// GetByRunID retrieves all points of a run, ordered by date ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.ForecastDayPoint, error)
}
