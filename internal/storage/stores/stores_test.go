package stores

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-forecast-lab/internal/config"
	"sales-forecast-lab/internal/domain"
	"sales-forecast-lab/internal/storage/memory"
	"sales-forecast-lab/internal/storage/sqlite"
)

func TestOpen_Memory(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.Backend = config.BackendMemory

	s, cleanup, err := Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer cleanup()

	assert.IsType(t, &memory.ProductDayStore{}, s.ProductDays)
	assert.IsType(t, &memory.ForecastRunStore{}, s.ForecastRuns)
	assert.IsType(t, &memory.ForecastDayStore{}, s.ForecastDays)
	assert.Equal(t, config.BackendMemory, s.Backend)
}

func TestOpen_SQLitePersistsAcrossOpens(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.Backend = config.BackendSQLite
	cfg.Storage.SQLitePath = filepath.Join(t.TempDir(), "forecast.db")
	ctx := context.Background()

	s, cleanup, err := Open(ctx, cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &sqlite.ForecastRunStore{}, s.ForecastRuns)

	day := &domain.DayRecord{
		ProductID:           "p1",
		ProductName:         "Anorak",
		Date:                time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC),
		DayOfWeek:           "Friday",
		DayOfMonth:          1,
		BasePrice:           20,
		CompetitorBasePrice: 19,
	}
	require.NoError(t, s.ProductDays.InsertBulk(ctx, []*domain.DayRecord{day}))
	cleanup()

	s, cleanup, err = Open(ctx, cfg, nil)
	require.NoError(t, err)
	defer cleanup()

	products, err := s.ProductDays.ListProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.ProductRef{{ProductID: "p1", ProductName: "Anorak"}}, products)
}

func TestOpen_UnknownBackend(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.Backend = "mysql"

	_, _, err := Open(context.Background(), cfg, nil)
	assert.Error(t, err)
}
