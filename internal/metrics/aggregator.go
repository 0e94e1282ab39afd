package metrics

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"sales-forecast-lab/internal/domain"
	"sales-forecast-lab/internal/storage"
)

// ErrNoPoints is returned when a run has no stored days to aggregate.
var ErrNoPoints = errors.New("no forecast days available for aggregation")

// ErrIncompleteComparison is returned when a comparison lacks its actual run.
var ErrIncompleteComparison = errors.New("comparison has no actual run")

// Aggregator recomputes run summaries from persisted forecast days.
type Aggregator struct {
	runStore storage.ForecastRunStore
	dayStore storage.ForecastDayStore

	// MissingDays tracks run_ids whose header exists without stored days (for data quality reporting).
	MissingDays map[string]struct{}
}

// NewAggregator creates a new metrics aggregator.
func NewAggregator(runStore storage.ForecastRunStore, dayStore storage.ForecastDayStore) *Aggregator {
	return &Aggregator{
		runStore:    runStore,
		dayStore:    dayStore,
		MissingDays: make(map[string]struct{}),
	}
}

// ComputeRunSummary recomputes the summary of a run from its stored days.
// Returns ErrNoPoints if the run has no days.
func (a *Aggregator) ComputeRunSummary(ctx context.Context, runID string) (domain.ForecastSummary, error) {
	points, err := a.dayStore.GetByRunID(ctx, runID)
	if err != nil {
		return domain.ForecastSummary{}, err
	}
	if len(points) == 0 {
		a.MissingDays[runID] = struct{}{}
		return domain.ForecastSummary{}, fmt.Errorf("%w: run %s", ErrNoPoints, runID)
	}
	return SummaryFromPoints(points), nil
}

// ComputeComparison rebuilds a stored comparison from its runs' days.
// Results carry recomputed summaries only; Days are not reconstructed.
func (a *Aggregator) ComputeComparison(ctx context.Context, comparisonID string) (*domain.ScenarioComparison, error) {
	runs, err := a.runStore.GetByComparison(ctx, comparisonID)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("comparison %s: %w", comparisonID, storage.ErrNotFound)
	}

	cmp := &domain.ScenarioComparison{
		ProductID:   runs[0].ProductID,
		DiscountPct: runs[0].DiscountPct,
		Results:     make(map[domain.CompetitionScenario]*domain.ForecastResult, len(runs)),
		Deltas:      make(map[domain.CompetitionScenario]domain.ScenarioDelta),
	}
	for _, run := range runs {
		summary, err := a.ComputeRunSummary(ctx, run.RunID)
		if err != nil {
			return nil, err
		}
		cmp.Results[run.Competition] = &domain.ForecastResult{
			ProductID: run.ProductID,
			Scenario:  domain.ScenarioConfig{DiscountPct: run.DiscountPct, Competition: run.Competition},
			Summary:   summary,
		}
	}

	actual, ok := cmp.Results[domain.CompetitionActual]
	if !ok {
		return nil, fmt.Errorf("comparison %s: %w", comparisonID, ErrIncompleteComparison)
	}
	for s, res := range cmp.Results {
		if s == domain.CompetitionActual {
			continue
		}
		cmp.Deltas[s] = ComputeDelta(actual.Summary, res.Summary)
	}
	return cmp, nil
}

// RunAggregate pairs a stored run header with its recomputed summary.
type RunAggregate struct {
	Run     *domain.ForecastRun
	Summary domain.ForecastSummary
}

// ComputeProduct recomputes every run of a product. Runs without stored days
// are recorded in MissingDays and skipped.
func (a *Aggregator) ComputeProduct(ctx context.Context, productID string) ([]RunAggregate, error) {
	runs, err := a.runStore.GetByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	var out []RunAggregate
	for _, run := range runs {
		summary, err := a.ComputeRunSummary(ctx, run.RunID)
		if err != nil {
			if errors.Is(err, ErrNoPoints) {
				continue
			}
			return nil, err
		}
		out = append(out, RunAggregate{Run: run, Summary: summary})
	}
	return out, nil
}

// GetMissingDayErrors returns data quality errors for runs without stored days.
// Sorted by run_id for deterministic output.
func (a *Aggregator) GetMissingDayErrors() []string {
	if len(a.MissingDays) == 0 {
		return nil
	}

	keys := make([]string, 0, len(a.MissingDays))
	for k := range a.MissingDays {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	errs := make([]string, len(keys))
	for i, runID := range keys {
		errs[i] = fmt.Sprintf("run %s has no stored forecast days", runID)
	}
	return errs
}
