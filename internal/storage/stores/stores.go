// Package stores opens the storage backend selected in the configuration.
package stores

import (
	"context"
	"fmt"

	"sales-forecast-lab/internal/config"
	"sales-forecast-lab/internal/logger"
	"sales-forecast-lab/internal/storage"
	chstore "sales-forecast-lab/internal/storage/clickhouse"
	"sales-forecast-lab/internal/storage/memory"
	"sales-forecast-lab/internal/storage/migrations"
	pgstore "sales-forecast-lab/internal/storage/postgres"
	"sales-forecast-lab/internal/storage/sqlite"
)

// Stores holds the three stores a forecast run needs.
type Stores struct {
	ProductDays  storage.ProductDayStore
	ForecastRuns storage.ForecastRunStore
	ForecastDays storage.ForecastDayStore
	Backend      string
}

// Open connects the configured backend and returns the stores with a cleanup func.
// On the postgres backend a non-empty ClickHouse DSN moves forecast_days to ClickHouse.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Stores, func(), error) {
	if log == nil {
		log = logger.Nop()
	}

	switch cfg.Storage.Backend {
	case config.BackendMemory:
		log.Debug("using in-memory storage")
		return &Stores{
			ProductDays:  memory.NewProductDayStore(),
			ForecastRuns: memory.NewForecastRunStore(),
			ForecastDays: memory.NewForecastDayStore(),
			Backend:      config.BackendMemory,
		}, func() {}, nil

	case config.BackendSQLite:
		db, err := sqlite.Open(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		log.Info("using sqlite storage", "path", cfg.Storage.SQLitePath)
		return &Stores{
			ProductDays:  sqlite.NewProductDayStore(db),
			ForecastRuns: sqlite.NewForecastRunStore(db),
			ForecastDays: sqlite.NewForecastDayStore(db),
			Backend:      config.BackendSQLite,
		}, func() { db.Close() }, nil

	case config.BackendPostgres:
		return openPostgres(ctx, cfg, log)

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func openPostgres(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Stores, func(), error) {
	pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	s := &Stores{
		ProductDays:  pgstore.NewProductDayStore(pool),
		ForecastRuns: pgstore.NewForecastRunStore(pool),
		Backend:      config.BackendPostgres,
	}

	if cfg.Storage.ClickhouseDSN == "" {
		log.Info("using postgres storage", "dsn", cfg.Storage.PostgresDSN)
		s.ForecastDays = pgstore.NewForecastDayStore(pool)
		return s, func() { pool.Close() }, nil
	}

	chConn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}
	log.Info("using postgres storage with clickhouse forecast days",
		"dsn", cfg.Storage.PostgresDSN, "clickhouse_dsn", cfg.Storage.ClickhouseDSN)
	s.ForecastDays = chstore.NewForecastDayStore(chConn)

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}
	return s, cleanup, nil
}
