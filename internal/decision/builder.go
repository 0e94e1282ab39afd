package decision

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"sales-forecast-lab/internal/domain"
	"sales-forecast-lab/internal/metrics"
	"sales-forecast-lab/internal/storage"
)

var (
	// ErrNoComparisons is returned when a product has no stored comparisons.
	ErrNoComparisons = errors.New("no stored comparisons")

	// ErrMissingBaseline is returned when no 0% comparison is stored for the model.
	// The gate measures every discount against it.
	ErrMissingBaseline = errors.New("missing 0% discount comparison")

	// ErrMissingScenario is returned when a comparison lacks the lower competition run.
	ErrMissingScenario = errors.New("comparison lacks a competition scenario")
)

// Builder constructs DecisionInputs from stored comparisons.
type Builder struct {
	runStore   storage.ForecastRunStore
	aggregator *metrics.Aggregator
}

// NewBuilder creates a new decision input builder.
func NewBuilder(runStore storage.ForecastRunStore, aggregator *metrics.Aggregator) *Builder {
	return &Builder{runStore: runStore, aggregator: aggregator}
}

type candidate struct {
	comparisonID string
	cmp          *domain.ScenarioComparison
}

// BuildAll creates one DecisionInput per stored non-zero discount of the product,
// ordered by discount ASC. Totals are recomputed from stored days.
// Only comparisons produced by the model of the latest run are considered.
func (b *Builder) BuildAll(ctx context.Context, productID string) ([]*DecisionInput, error) {
	runs, err := b.runStore.GetByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	var modelKey string
	seen := make(map[string]bool)
	var comparisonIDs []string
	for _, r := range runs {
		if r.ComparisonID == "" {
			continue
		}
		modelKey = r.ModelName + "@" + r.ModelVersion // runs are ordered by created_at, last wins
		if !seen[r.ComparisonID] {
			seen[r.ComparisonID] = true
			comparisonIDs = append(comparisonIDs, r.ComparisonID)
		}
	}
	if len(comparisonIDs) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoComparisons, productID)
	}

	var candidates []candidate
	for _, id := range comparisonIDs {
		members, err := b.runStore.GetByComparison(ctx, id)
		if err != nil {
			return nil, err
		}
		if len(members) == 0 || members[0].ModelName+"@"+members[0].ModelVersion != modelKey {
			continue
		}
		cmp, err := b.aggregator.ComputeComparison(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("comparison %s: %w", id, err)
		}
		if cmp.Results[domain.CompetitionLower] == nil {
			return nil, fmt.Errorf("comparison %s: %w", id, ErrMissingScenario)
		}
		candidates = append(candidates, candidate{comparisonID: id, cmp: cmp})
	}

	var baseline *domain.ScenarioComparison
	for _, c := range candidates {
		if c.cmp.DiscountPct == 0 {
			baseline = c.cmp
			break
		}
	}
	if baseline == nil {
		return nil, fmt.Errorf("%w for %s", ErrMissingBaseline, productID)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].cmp.DiscountPct < candidates[j].cmp.DiscountPct
	})

	base := baseline.Results[domain.CompetitionActual].Summary
	baseLower := baseline.Results[domain.CompetitionLower].Summary

	inputs := make([]*DecisionInput, 0, len(candidates))
	for _, c := range candidates {
		if c.cmp.DiscountPct == 0 {
			continue
		}
		actual := c.cmp.Results[domain.CompetitionActual].Summary
		lower := c.cmp.Results[domain.CompetitionLower].Summary
		var higherRevenue float64
		if h := c.cmp.Results[domain.CompetitionHigher]; h != nil {
			higherRevenue = h.Summary.TotalRevenue
		}

		input := &DecisionInput{
			ProductID:            productID,
			DiscountPct:          c.cmp.DiscountPct,
			ComparisonID:         c.comparisonID,
			ActualUnits:          actual.TotalUnits,
			ActualRevenue:        actual.TotalRevenue,
			LowerUnits:           lower.TotalUnits,
			LowerRevenue:         lower.TotalRevenue,
			HigherRevenue:        higherRevenue,
			BaselineUnits:        base.TotalUnits,
			BaselineRevenue:      base.TotalRevenue,
			BaselineLowerRevenue: baseLower.TotalRevenue,
			ClampedDays:          actual.ClampedDays,
			DayCount:             actual.DayCount,
		}

		// Validate before adding (fail fast)
		if err := input.Validate(); err != nil {
			return nil, fmt.Errorf("discount %+g: %w", c.cmp.DiscountPct, err)
		}
		inputs = append(inputs, input)
	}
	return inputs, nil
}

// Gate evaluates every stored discount of a product and picks a recommendation.
type Gate struct {
	builder   *Builder
	evaluator *Evaluator
}

// NewGate creates a decision gate over stored comparisons.
func NewGate(runStore storage.ForecastRunStore, aggregator *metrics.Aggregator) *Gate {
	return &Gate{builder: NewBuilder(runStore, aggregator), evaluator: NewEvaluator()}
}

// Report is the outcome of the gate for one product.
type Report struct {
	ProductID   string
	Results     []*DecisionResult
	Recommended *DecisionResult // nil keeps the base price
}

// Evaluate builds, evaluates and recommends.
func (g *Gate) Evaluate(ctx context.Context, productID string) (*Report, error) {
	inputs, err := g.builder.BuildAll(ctx, productID)
	if err != nil {
		return nil, err
	}
	report := &Report{ProductID: productID}
	for _, in := range inputs {
		res, err := g.evaluator.Evaluate(*in)
		if err != nil {
			return nil, err
		}
		report.Results = append(report.Results, res)
	}
	report.Recommended = Recommend(report.Results)
	return report, nil
}
