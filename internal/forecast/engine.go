// Package forecast implements the recursive day-by-day sales forecast.
package forecast

import (
	"context"
	"fmt"
	"math"

	"sales-forecast-lab/internal/domain"
	"sales-forecast-lab/internal/metrics"
	"sales-forecast-lab/internal/regressor"
)

// Engine runs a regressor recursively over an ordered horizon.
// An Engine is safe for concurrent use when its regressor is.
type Engine struct {
	model    regressor.Regressor
	features []string
	bounds   DiscountBounds
}

// NewEngine creates an engine reading the model's declared features from each day.
func NewEngine(model regressor.Regressor) *Engine {
	return &Engine{
		model:    model,
		features: model.FeatureNames(),
		bounds:   DefaultDiscountBounds(),
	}
}

// WithDiscountBounds overrides the accepted discount range.
func (e *Engine) WithDiscountBounds(b DiscountBounds) *Engine {
	e.bounds = b
	return e
}

// Features returns the ordered feature columns the engine feeds the model.
func (e *Engine) Features() []string {
	out := make([]string, len(e.features))
	copy(out, e.features)
	return out
}

// Model returns the engine's regressor.
func (e *Engine) Model() regressor.Regressor {
	return e.model
}

// Run forecasts every day of the horizon in order under one scenario.
// The input is not modified; the result holds processed copies.
// Days must be date-sorted and gap-free; violations are reported as ErrPrecondition
// before any prediction is made.
func (e *Engine) Run(ctx context.Context, days []domain.DayRecord, scenario domain.ScenarioConfig) (*domain.ForecastResult, error) {
	if err := Validate(days, e.features, scenario, e.bounds); err != nil {
		return nil, err
	}

	out := make([]domain.DayRecord, len(days))
	for i := range days {
		out[i] = days[i].Clone()
	}

	state := NewLagState(out[0].LagFeatures)
	vec := make([]float64, len(e.features))

	for i := range out {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d := &out[i]

		// Day 0 keeps its observed lag and moving-average features.
		if i > 0 {
			d.LagFeatures = state.Lags()
			d.MovingAvgFeature = state.MovingAverage()
		}

		AdjustPrices(d.BasePrice, d.CompetitorBasePrice, scenario).Apply(d)

		for j, name := range e.features {
			v, _ := d.Feature(name)
			vec[j] = v
		}

		raw, err := e.model.Predict(vec)
		if err != nil {
			return nil, &ModelError{Index: i, Date: d.Date, Err: fmt.Errorf("%w: %w", ErrModel, err)}
		}
		if math.IsNaN(raw) || math.IsInf(raw, 0) {
			return nil, &ModelError{Index: i, Date: d.Date, Err: fmt.Errorf("%w: %w: %v", ErrModel, ErrNonNumeric, raw)}
		}

		d.RawPrediction = raw
		d.PredictedUnits = math.Max(raw, 0)
		state.Advance(d.PredictedUnits)
		d.ProjectedRevenue = d.PredictedUnits * d.SalePrice
	}

	return &domain.ForecastResult{
		ProductID: out[0].ProductID,
		Scenario:  scenario,
		Days:      out,
		Summary:   metrics.ComputeSummary(out),
	}, nil
}
