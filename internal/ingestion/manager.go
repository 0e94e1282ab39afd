// Package ingestion loads the forecast input table into storage.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sales-forecast-lab/internal/domain"
	"sales-forecast-lab/internal/logger"
	"sales-forecast-lab/internal/observability"
	"sales-forecast-lab/internal/storage"
)

// Manager moves rows from a DaySource into a ProductDayStore.
// It enforces deterministic ordering and uses the storage layer for duplicate rejection.
type Manager struct {
	source DaySource
	store  storage.ProductDayStore
	log    *logger.Logger
}

// ManagerOptions contains configuration for creating a Manager.
type ManagerOptions struct {
	Source DaySource
	Store  storage.ProductDayStore
	Logger *logger.Logger
}

// IngestResult summarizes one ingestion pass.
type IngestResult struct {
	ProductsLoaded  int
	DaysLoaded      int
	ProductsSkipped []string // already stored, ordered by product_id
}

// NewManager creates a new ingestion manager with the provided source and store.
func NewManager(opts ManagerOptions) *Manager {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Manager{
		source: opts.Source,
		store:  opts.Store,
		log:    log,
	}
}

// Ingest fetches all rows and stores them one product per batch.
// A product whose batch hits an existing (product_id, date) is skipped as a whole,
// so re-ingesting the same file is a no-op.
func (m *Manager) Ingest(ctx context.Context) (*IngestResult, error) {
	result := &IngestResult{}
	if m.source == nil || m.store == nil {
		return result, nil
	}

	rows, err := m.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch days: %w", err)
	}
	if len(rows) == 0 {
		return result, nil
	}

	days := make([]*domain.DayRecord, len(rows))
	for i := range rows {
		d := rows[i].Clone()
		days[i] = &d
	}

	// Enforce deterministic ordering
	SortDays(days)

	for _, batch := range splitByProduct(days) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		productID := batch[0].ProductID

		start := time.Now()
		err := m.store.InsertBulk(ctx, batch)
		observability.RecordDBQuery("product_days", "insert_bulk", time.Since(start).Seconds(), err)
		if errors.Is(err, storage.ErrDuplicateKey) {
			m.log.Info("product already ingested, skipping", "product_id", productID)
			result.ProductsSkipped = append(result.ProductsSkipped, productID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("store days of %s: %w", productID, err)
		}

		result.ProductsLoaded++
		result.DaysLoaded += len(batch)
		m.log.Debug("product ingested", "product_id", productID, "days", len(batch))
	}

	m.log.Info("ingestion finished",
		"products", result.ProductsLoaded,
		"days", result.DaysLoaded,
		"skipped", len(result.ProductsSkipped))
	return result, nil
}

// splitByProduct cuts sorted days into per-product runs.
func splitByProduct(days []*domain.DayRecord) [][]*domain.DayRecord {
	var batches [][]*domain.DayRecord
	start := 0
	for i := 1; i <= len(days); i++ {
		if i == len(days) || days[i].ProductID != days[start].ProductID {
			batches = append(batches, days[start:i])
			start = i
		}
	}
	return batches
}
