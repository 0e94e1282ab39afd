package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"sales-forecast-lab/internal/domain"
	"sales-forecast-lab/internal/storage"
)

func forecastRun(runID, productID, comparisonID string, createdAt int64) *domain.ForecastRun {
	return &domain.ForecastRun{
		RunID:        runID,
		ComparisonID: comparisonID,
		ProductID:    productID,
		Competition:  domain.CompetitionActual,
		ModelName:    "constant",
		ModelVersion: "8",
		Summary:      domain.ForecastSummary{DayCount: 30, TotalUnits: 240},
		CreatedAt:    time.Unix(createdAt, 0).UTC(),
	}
}

func TestForecastRunStore_InsertAndGet(t *testing.T) {
	store := NewForecastRunStore()
	ctx := context.Background()

	if err := store.Insert(ctx, forecastRun("r1", "p1", "", 100)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "r1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Summary.TotalUnits != 240 {
		t.Errorf("Expected TotalUnits 240, got %v", got.Summary.TotalUnits)
	}

	if _, err := store.GetByID(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestForecastRunStore_DuplicateKey(t *testing.T) {
	store := NewForecastRunStore()
	ctx := context.Background()

	if err := store.Insert(ctx, forecastRun("r1", "p1", "", 100)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, forecastRun("r1", "p1", "", 200)); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
	if err := store.Insert(ctx, &domain.ForecastRun{ProductID: "p1"}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestForecastRunStore_GetByProductOrdered(t *testing.T) {
	store := NewForecastRunStore()
	ctx := context.Background()

	for _, r := range []*domain.ForecastRun{
		forecastRun("rc", "p1", "", 200),
		forecastRun("rb", "p1", "", 100),
		forecastRun("ra", "p1", "", 200),
		forecastRun("rx", "p2", "", 50),
	} {
		if err := store.Insert(ctx, r); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	runs, err := store.GetByProduct(ctx, "p1")
	if err != nil {
		t.Fatalf("GetByProduct failed: %v", err)
	}
	want := []string{"rb", "ra", "rc"}
	if len(runs) != len(want) {
		t.Fatalf("Expected %d runs, got %d", len(want), len(runs))
	}
	for i, r := range runs {
		if r.RunID != want[i] {
			t.Errorf("Position %d: expected %s, got %s", i, want[i], r.RunID)
		}
	}
}

func TestForecastRunStore_GetByComparison(t *testing.T) {
	store := NewForecastRunStore()
	ctx := context.Background()

	for _, r := range []*domain.ForecastRun{
		forecastRun("r2", "p1", "cmp-1", 100),
		forecastRun("r1", "p1", "cmp-1", 100),
		forecastRun("r3", "p1", "cmp-2", 100),
		forecastRun("r4", "p1", "", 100),
	} {
		if err := store.Insert(ctx, r); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	runs, err := store.GetByComparison(ctx, "cmp-1")
	if err != nil {
		t.Fatalf("GetByComparison failed: %v", err)
	}
	if len(runs) != 2 || runs[0].RunID != "r1" || runs[1].RunID != "r2" {
		t.Errorf("Unexpected comparison runs: %+v", runs)
	}

	none, _ := store.GetByComparison(ctx, "")
	if len(none) != 0 {
		t.Errorf("Expected no runs for empty comparison id, got %d", len(none))
	}
}

func TestForecastRunStore_InsertBulkAllOrNothing(t *testing.T) {
	store := NewForecastRunStore()
	ctx := context.Background()

	if err := store.Insert(ctx, forecastRun("r2", "p1", "c1", 100)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	batch := []*domain.ForecastRun{
		forecastRun("r1", "p1", "c1", 100),
		forecastRun("r2", "p1", "c1", 100),
		forecastRun("r3", "p1", "c1", 100),
	}
	if err := store.InsertBulk(ctx, batch); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("Expected ErrDuplicateKey, got %v", err)
	}
	if _, err := store.GetByID(ctx, "r1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Failed batch left r1 behind: %v", err)
	}

	dup := []*domain.ForecastRun{forecastRun("r4", "p1", "c1", 100), forecastRun("r4", "p1", "c1", 100)}
	if err := store.InsertBulk(ctx, dup); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey for repeated id in batch, got %v", err)
	}

	batch[1] = forecastRun("r5", "p1", "c1", 100)
	if err := store.InsertBulk(ctx, batch); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}
	runs, err := store.GetByComparison(ctx, "c1")
	if err != nil {
		t.Fatalf("GetByComparison failed: %v", err)
	}
	if len(runs) != 4 {
		t.Errorf("Expected 4 runs, got %d", len(runs))
	}
}
