package verification

import (
	"context"
	"errors"
	"fmt"

	"sales-forecast-lab/internal/dataset"
	"sales-forecast-lab/internal/domain"
	"sales-forecast-lab/internal/forecast"
	"sales-forecast-lab/internal/idhash"
	"sales-forecast-lab/internal/observability"
	"sales-forecast-lab/internal/regressor"
	"sales-forecast-lab/internal/storage"
)

var (
	// ErrRunNotFound is returned when run ID doesn't exist.
	ErrRunNotFound = errors.New("run not found")

	// ErrModelMismatch is returned when the stored run was produced by another model.
	ErrModelMismatch = errors.New("run was produced by a different model")
)

// ReplayVerifier implements Verifier interface.
type ReplayVerifier struct {
	productDayStore  storage.ProductDayStore
	forecastRunStore storage.ForecastRunStore
	forecastDayStore storage.ForecastDayStore
	engine           *forecast.Engine
}

// ReplayVerifierOptions contains configuration for creating a ReplayVerifier.
type ReplayVerifierOptions struct {
	ProductDayStore  storage.ProductDayStore
	ForecastRunStore storage.ForecastRunStore
	ForecastDayStore storage.ForecastDayStore
	Engine           *forecast.Engine
}

// NewReplayVerifier creates a new ReplayVerifier.
func NewReplayVerifier(opts ReplayVerifierOptions) *ReplayVerifier {
	return &ReplayVerifier{
		productDayStore:  opts.ProductDayStore,
		forecastRunStore: opts.ForecastRunStore,
		forecastDayStore: opts.ForecastDayStore,
		engine:           opts.Engine,
	}
}

// VerifyRun verifies a single run by replaying the engine.
func (v *ReplayVerifier) VerifyRun(ctx context.Context, runID string) (*VerificationResult, error) {
	// 1. Load stored run and its days
	stored, err := v.forecastRunStore.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	storedDays, err := v.forecastDayStore.GetByRunID(ctx, runID)
	if err != nil {
		return nil, err
	}

	// 2. Replay
	replayed, replayedDays, err := v.replayRun(ctx, stored)
	if err != nil {
		observability.RecordVerification("error")
		return nil, err
	}

	// 3. Compare results
	divergences := CompareRuns(stored, replayed)
	divergences = append(divergences, CompareDays(storedDays, replayedDays)...)

	result := &VerificationResult{
		RunID:              runID,
		Match:              len(divergences) == 0,
		Divergences:        divergences,
		StoredTotalUnits:   stored.Summary.TotalUnits,
		ReplayedTotalUnits: replayed.Summary.TotalUnits,
	}
	if result.Match {
		observability.RecordVerification("match")
	} else {
		observability.RecordVerification("divergent")
	}
	return result, nil
}

// VerifyAll verifies all stored runs of a product.
func (v *ReplayVerifier) VerifyAll(ctx context.Context, productID string) (*VerificationReport, error) {
	runs, err := v.forecastRunStore.GetByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	report := &VerificationReport{
		TotalRuns: len(runs),
		Results:   make([]VerificationResult, 0, len(runs)),
	}

	for _, run := range runs {
		result, err := v.VerifyRun(ctx, run.RunID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Record error as divergence
			report.Results = append(report.Results, VerificationResult{
				RunID:            run.RunID,
				Match:            false,
				StoredTotalUnits: run.Summary.TotalUnits,
				Divergences: []FieldDivergence{
					{Field: "Error", Expected: nil, Actual: err.Error()},
				},
			})
			report.DivergentRuns++
			continue
		}

		report.Results = append(report.Results, *result)
		if result.Match {
			report.MatchedRuns++
		} else {
			report.DivergentRuns++
		}
	}

	return report, nil
}

// replayRun re-executes the engine with the stored run's parameters.
func (v *ReplayVerifier) replayRun(ctx context.Context, stored *domain.ForecastRun) (*domain.ForecastRun, []*domain.ForecastDayPoint, error) {
	// 1. Model must be the one that produced the run
	modelName, modelVersion := regressor.Describe(v.engine.Model())
	if modelName != stored.ModelName || modelVersion != stored.ModelVersion {
		return nil, nil, fmt.Errorf("%w: stored %s/%s, engine %s/%s",
			ErrModelMismatch, stored.ModelName, stored.ModelVersion, modelName, modelVersion)
	}

	// 2. Load input days
	input, err := v.productDayStore.GetByProduct(ctx, stored.ProductID)
	if err != nil {
		return nil, nil, err
	}
	if len(input) == 0 {
		return nil, nil, fmt.Errorf("%w: %s", dataset.ErrProductNotFound, stored.ProductID)
	}
	days := make([]domain.DayRecord, len(input))
	for i, d := range input {
		days[i] = d.Clone()
	}
	dataset.SortByDate(days)

	// 3. Execute engine
	scenario := domain.ScenarioConfig{DiscountPct: stored.DiscountPct, Competition: stored.Competition}
	result, err := v.engine.Run(ctx, days, scenario)
	if err != nil {
		return nil, nil, err
	}

	// 4. Rebuild header and points the way the runner persists them
	runID := idhash.ComputeRunID(stored.ProductID, string(stored.Competition), stored.DiscountPct,
		modelName, modelVersion, stored.ComparisonID)
	replayed := &domain.ForecastRun{
		RunID:        runID,
		ComparisonID: stored.ComparisonID,
		ProductID:    result.ProductID,
		Competition:  stored.Competition,
		DiscountPct:  stored.DiscountPct,
		ModelName:    modelName,
		ModelVersion: modelVersion,
		HorizonStart: days[0].Date,
		HorizonEnd:   days[len(days)-1].Date,
		Summary:      result.Summary,
	}
	points := make([]*domain.ForecastDayPoint, len(result.Days))
	for i := range result.Days {
		points[i] = domain.NewForecastDayPoint(runID, &result.Days[i])
	}
	return replayed, points, nil
}

var _ Verifier = (*ReplayVerifier)(nil)
