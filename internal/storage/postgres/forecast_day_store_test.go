package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-forecast-lab/internal/domain"
	"sales-forecast-lab/internal/storage"
)

func createTestForecastDay(runID string, dayOfMonth int, units float64) *domain.ForecastDayPoint {
	return &domain.ForecastDayPoint{
		RunID:            runID,
		ProductID:        "p1",
		Date:             time.Date(2024, 11, dayOfMonth, 0, 0, 0, 0, time.UTC),
		DayOfMonth:       dayOfMonth,
		DayOfWeek:        "Friday",
		SalePrice:        42.5,
		CompetitorPrice:  40,
		DiscountPct:      -15,
		PriceRatio:       42.5 / 40,
		LagFeatures:      [domain.LagCount]float64{12, 11, 10, 9, 8, 7},
		MovingAvgFeature: 9.5,
		RawPrediction:    units,
		PredictedUnits:   units,
		ProjectedRevenue: units * 42.5,
	}
}

func TestForecastDayStore_InsertBulkAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewForecastDayStore(pool)
	ctx := context.Background()

	points := []*domain.ForecastDayPoint{
		createTestForecastDay("run-1", 2, 13),
		createTestForecastDay("run-1", 1, 12.5),
		createTestForecastDay("run-2", 1, 4),
	}
	require.NoError(t, store.InsertBulk(ctx, points))

	got, err := store.GetByRunID(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, *points[1], *got[0])
	assert.Equal(t, 2, got[1].DayOfMonth)
}

func TestForecastDayStore_DuplicateRollsBack(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewForecastDayStore(pool)
	ctx := context.Background()

	require.NoError(t, store.InsertBulk(ctx, []*domain.ForecastDayPoint{createTestForecastDay("run-1", 1, 1)}))

	err := store.InsertBulk(ctx, []*domain.ForecastDayPoint{
		createTestForecastDay("run-1", 2, 2),
		createTestForecastDay("run-1", 1, 3),
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	got, err := store.GetByRunID(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
