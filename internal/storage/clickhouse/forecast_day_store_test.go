package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-forecast-lab/internal/domain"
	"sales-forecast-lab/internal/storage"
)

func forecastPoint(runID string, dayOfMonth int, units float64) *domain.ForecastDayPoint {
	return &domain.ForecastDayPoint{
		RunID:            runID,
		ProductID:        "p1",
		Date:             time.Date(2024, 11, dayOfMonth, 0, 0, 0, 0, time.UTC),
		DayOfMonth:       dayOfMonth,
		DayOfWeek:        "Friday",
		SalePrice:        9,
		CompetitorPrice:  9.5,
		DiscountPct:      -10,
		PriceRatio:       9 / 9.5,
		LagFeatures:      [domain.LagCount]float64{units, 1, 2, 3, 4, 5},
		MovingAvgFeature: 2.5,
		RawPrediction:    units,
		PredictedUnits:   units,
		ProjectedRevenue: units * 9,
	}
}

func TestForecastDayStore_InsertBulkAndGet(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewForecastDayStore(conn)
	ctx := context.Background()

	points := []*domain.ForecastDayPoint{
		forecastPoint("run-1", 2, 7),
		forecastPoint("run-1", 1, 6),
		forecastPoint("run-2", 1, 3),
	}
	require.NoError(t, store.InsertBulk(ctx, points))

	got, err := store.GetByRunID(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, 1, got[0].DayOfMonth)
	assert.Equal(t, 2, got[1].DayOfMonth)
	assert.Equal(t, *points[1], *got[0])
}

func TestForecastDayStore_DuplicateKey(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewForecastDayStore(conn)
	ctx := context.Background()

	require.NoError(t, store.InsertBulk(ctx, []*domain.ForecastDayPoint{forecastPoint("run-1", 1, 6)}))

	err := store.InsertBulk(ctx, []*domain.ForecastDayPoint{forecastPoint("run-1", 2, 6), forecastPoint("run-1", 1, 6)})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	got, err := store.GetByRunID(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, got, 1, "rejected batch must not be written")

	err = store.InsertBulk(ctx, []*domain.ForecastDayPoint{forecastPoint("run-3", 1, 6), forecastPoint("run-3", 1, 7)})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestForecastDayStore_EmptyRun(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	got, err := NewForecastDayStore(conn).GetByRunID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, got)
}
