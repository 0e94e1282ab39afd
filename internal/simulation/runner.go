package simulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sales-forecast-lab/internal/dataset"
	"sales-forecast-lab/internal/domain"
	"sales-forecast-lab/internal/forecast"
	"sales-forecast-lab/internal/idhash"
	"sales-forecast-lab/internal/logger"
	"sales-forecast-lab/internal/observability"
	"sales-forecast-lab/internal/regressor"
	"sales-forecast-lab/internal/storage"
)

// Runner executes forecasts for products held in storage.
type Runner struct {
	productDayStore  storage.ProductDayStore
	forecastRunStore storage.ForecastRunStore
	forecastDayStore storage.ForecastDayStore
	engine           *forecast.Engine
	comparator       *forecast.Comparator
	log              *logger.Logger
	clock            func() time.Time
}

// RunnerOptions contains configuration for creating a Runner.
// Run and day stores are optional; without them results are not persisted.
type RunnerOptions struct {
	ProductDayStore  storage.ProductDayStore
	ForecastRunStore storage.ForecastRunStore
	ForecastDayStore storage.ForecastDayStore
	Engine           *forecast.Engine
	Logger           *logger.Logger
}

// RunOutput is the outcome of one persisted-or-not run.
type RunOutput struct {
	Run    *domain.ForecastRun
	Result *domain.ForecastResult
}

// CompareOutput is the outcome of a scenario comparison.
type CompareOutput struct {
	ComparisonID string
	Runs         map[domain.CompetitionScenario]*domain.ForecastRun
	Comparison   *domain.ScenarioComparison
}

// NewRunner creates a simulation runner.
func NewRunner(opts RunnerOptions) *Runner {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	r := &Runner{
		productDayStore:  opts.ProductDayStore,
		forecastRunStore: opts.ForecastRunStore,
		forecastDayStore: opts.ForecastDayStore,
		engine:           opts.Engine,
		log:              log,
		clock:            func() time.Time { return time.Now().UTC() },
	}
	r.comparator = forecast.NewComparator(opts.Engine).WithObserver(r.observeRun)
	return r
}

// WithClock sets a custom clock function for CreatedAt timestamps.
func (r *Runner) WithClock(clock func() time.Time) *Runner {
	r.clock = clock
	return r
}

// Products lists the products available for forecasting.
func (r *Runner) Products(ctx context.Context) ([]domain.ProductRef, error) {
	return r.productDayStore.ListProducts(ctx)
}

// LoadDays loads a product's horizon ordered by date.
// Returns dataset.ErrProductNotFound when the product has no days.
func (r *Runner) LoadDays(ctx context.Context, productID string) ([]domain.DayRecord, error) {
	stored, err := r.productDayStore.GetByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("load product days: %w", err)
	}
	if len(stored) == 0 {
		return nil, fmt.Errorf("%w: %s", dataset.ErrProductNotFound, productID)
	}
	days := make([]domain.DayRecord, len(stored))
	for i, d := range stored {
		days[i] = d.Clone()
	}
	dataset.SortByDate(days)
	return days, nil
}

// Run executes one scenario for a product and persists it when stores are configured.
// Steps:
//  1. Load the product's days
//  2. Run the engine (validates before predicting)
//  3. Build the run header with a deterministic run_id
//  4. Persist days, then the header
func (r *Runner) Run(ctx context.Context, productID string, scenario domain.ScenarioConfig) (*RunOutput, error) {
	days, err := r.LoadDays(ctx, productID)
	if err != nil {
		return nil, err
	}

	result, err := r.runEngine(ctx, days, scenario)
	if err != nil {
		return nil, err
	}

	run := r.buildRun(days, result, "")
	if err := r.ensureDays(ctx, run, result); err != nil {
		return nil, err
	}
	if r.forecastRunStore != nil {
		start := time.Now()
		err := r.forecastRunStore.Insert(ctx, run)
		observability.RecordDBQuery("forecast_runs", "insert", time.Since(start).Seconds(), err)
		if err != nil {
			return nil, fmt.Errorf("persist run %s: %w", run.RunID, err)
		}
	}

	r.log.Info("forecast run finished",
		"run_id", run.RunID,
		"product_id", productID,
		"scenario", scenario.ID(),
		"total_units", result.Summary.TotalUnits,
		"total_revenue", result.Summary.TotalRevenue,
	)
	return &RunOutput{Run: run, Result: result}, nil
}

// Compare runs all competition scenarios for a product with one discount and
// persists the runs under a shared comparison_id.
//
// Scenario runs fail independently. When any of them fails nothing is persisted
// and the returned output carries the partial comparison alongside the error.
// storage.ErrDuplicateKey means the comparison is already stored in full.
func (r *Runner) Compare(ctx context.Context, productID string, discountPct float64) (*CompareOutput, error) {
	days, err := r.LoadDays(ctx, productID)
	if err != nil {
		return nil, err
	}

	modelName, modelVersion := regressor.Describe(r.engine.Model())
	names := make([]string, len(domain.CompetitionScenarios))
	for i, s := range domain.CompetitionScenarios {
		names[i] = string(s)
	}
	out := &CompareOutput{
		ComparisonID: idhash.ComputeComparisonID(productID, discountPct, modelName, modelVersion, names),
		Runs:         make(map[domain.CompetitionScenario]*domain.ForecastRun, len(domain.CompetitionScenarios)),
	}

	start := time.Now()
	cmp, err := r.comparator.Compare(ctx, days, discountPct)
	out.Comparison = cmp
	if err != nil {
		observability.RecordComparison("error")
		r.log.Warn("scenario comparison failed",
			"product_id", productID,
			"discount_pct", discountPct,
			"failed_scenarios", len(cmp.Errors),
			"err", err,
		)
		return out, err
	}
	observability.RecordComparison("ok")

	runs := make([]*domain.ForecastRun, len(domain.CompetitionScenarios))
	results := make([]*domain.ForecastResult, len(domain.CompetitionScenarios))
	for i, s := range domain.CompetitionScenarios {
		results[i] = cmp.Results[s]
		runs[i] = r.buildRun(days, results[i], out.ComparisonID)
		out.Runs[s] = runs[i]
	}
	if err := r.persistComparison(ctx, out.ComparisonID, runs, results); err != nil {
		return nil, err
	}

	r.log.Info("scenario comparison finished",
		"comparison_id", out.ComparisonID,
		"product_id", productID,
		"discount_pct", discountPct,
		"delta_units_lower", cmp.Deltas[domain.CompetitionLower].Units,
		"delta_units_higher", cmp.Deltas[domain.CompetitionHigher].Units,
		"duration", time.Since(start),
	)
	return out, nil
}

func (r *Runner) runEngine(ctx context.Context, days []domain.DayRecord, scenario domain.ScenarioConfig) (*domain.ForecastResult, error) {
	start := time.Now()
	result, err := r.engine.Run(ctx, days, scenario)
	r.observeRun(scenario, time.Since(start), result, err)
	if err != nil {
		r.log.Warn("forecast run failed", "product_id", days[0].ProductID, "scenario", scenario.ID(), "err", err)
		return nil, err
	}
	return result, nil
}

// observeRun records metrics for a single engine run.
func (r *Runner) observeRun(scenario domain.ScenarioConfig, elapsed time.Duration, result *domain.ForecastResult, err error) {
	if err != nil {
		observability.RecordRun(string(scenario.Competition), "error", elapsed.Seconds(), 0, 0)
		r.recordFailure(err)
		return
	}
	observability.RecordRun(string(scenario.Competition), "ok", elapsed.Seconds(), result.Summary.DayCount, result.Summary.ClampedDays)
	observability.UpdateLastSuccessfulRun(r.clock().Unix())
}

func (r *Runner) recordFailure(err error) {
	var pe *forecast.PreconditionError
	switch {
	case errors.As(err, &pe):
		observability.RecordPreconditionFailure(pe.Field)
	case errors.Is(err, forecast.ErrModel):
		observability.RecordModelError()
	}
}

func (r *Runner) buildRun(days []domain.DayRecord, result *domain.ForecastResult, comparisonID string) *domain.ForecastRun {
	modelName, modelVersion := regressor.Describe(r.engine.Model())
	s := result.Scenario
	return &domain.ForecastRun{
		RunID:        idhash.ComputeRunID(result.ProductID, string(s.Competition), s.DiscountPct, modelName, modelVersion, comparisonID),
		ComparisonID: comparisonID,
		ProductID:    result.ProductID,
		ProductName:  days[0].ProductName,
		Competition:  s.Competition,
		DiscountPct:  s.DiscountPct,
		ModelName:    modelName,
		ModelVersion: modelVersion,
		HorizonStart: days[0].Date,
		HorizonEnd:   days[len(days)-1].Date,
		Summary:      result.Summary,
		CreatedAt:    r.clock(),
	}
}

// persistComparison stores the days of every run, then every missing header in one
// batch. A header is written only after its days, so a stored header always has its
// days, and a retry after a partial failure completes the comparison. Returns
// storage.ErrDuplicateKey when all headers were already present.
func (r *Runner) persistComparison(ctx context.Context, comparisonID string, runs []*domain.ForecastRun, results []*domain.ForecastResult) error {
	pending := runs
	if r.forecastRunStore != nil {
		start := time.Now()
		stored, err := r.forecastRunStore.GetByComparison(ctx, comparisonID)
		observability.RecordDBQuery("forecast_runs", "select", time.Since(start).Seconds(), err)
		if err != nil {
			return fmt.Errorf("load stored runs of comparison %s: %w", comparisonID, err)
		}
		have := make(map[string]bool, len(stored))
		for _, s := range stored {
			have[s.RunID] = true
		}
		pending = nil
		for _, run := range runs {
			if !have[run.RunID] {
				pending = append(pending, run)
			}
		}
	}

	for i, run := range runs {
		if err := r.ensureDays(ctx, run, results[i]); err != nil {
			return err
		}
	}

	if len(pending) == 0 {
		return fmt.Errorf("comparison %s: %w", comparisonID, storage.ErrDuplicateKey)
	}
	if r.forecastRunStore == nil {
		return nil
	}
	if len(pending) < len(runs) {
		r.log.Warn("completing partially stored comparison", "comparison_id", comparisonID, "missing_runs", len(pending))
	}

	start := time.Now()
	err := r.forecastRunStore.InsertBulk(ctx, pending)
	observability.RecordDBQuery("forecast_runs", "insert_bulk", time.Since(start).Seconds(), err)
	if err != nil {
		return fmt.Errorf("persist runs of comparison %s: %w", comparisonID, err)
	}
	return nil
}

// ensureDays stores a run's days unless the full set is already present.
func (r *Runner) ensureDays(ctx context.Context, run *domain.ForecastRun, result *domain.ForecastResult) error {
	if r.forecastDayStore == nil {
		return nil
	}

	start := time.Now()
	existing, err := r.forecastDayStore.GetByRunID(ctx, run.RunID)
	observability.RecordDBQuery("forecast_days", "select", time.Since(start).Seconds(), err)
	if err != nil {
		return fmt.Errorf("load days of run %s: %w", run.RunID, err)
	}
	switch {
	case len(existing) == len(result.Days):
		return nil
	case len(existing) > 0:
		return fmt.Errorf("run %s has %d of %d days stored", run.RunID, len(existing), len(result.Days))
	}

	points := make([]*domain.ForecastDayPoint, len(result.Days))
	for i := range result.Days {
		points[i] = domain.NewForecastDayPoint(run.RunID, &result.Days[i])
	}
	start = time.Now()
	err = r.forecastDayStore.InsertBulk(ctx, points)
	observability.RecordDBQuery("forecast_days", "insert_bulk", time.Since(start).Seconds(), err)
	if err != nil {
		return fmt.Errorf("persist days of run %s: %w", run.RunID, err)
	}
	return nil
}
