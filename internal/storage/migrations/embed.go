// Package migrations holds the forecast schema: product_days, forecast_runs and
// forecast_days for PostgreSQL, and the forecast_days table for ClickHouse.
package migrations

import "embed"

// PostgresFS embeds the PostgreSQL schema (input table, run headers, per-day output).
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS embeds the ClickHouse per-day forecast output schema.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
