package forecast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"sales-forecast-lab/internal/domain"
	"sales-forecast-lab/internal/metrics"
)

// RunObserver is notified after each scenario run with that run's own duration.
// It may be called concurrently.
type RunObserver func(scenario domain.ScenarioConfig, elapsed time.Duration, result *domain.ForecastResult, err error)

// Comparator runs one horizon under several competition scenarios with a fixed discount.
type Comparator struct {
	engine  *Engine
	observe RunObserver
}

// NewComparator creates a comparator over an engine.
func NewComparator(engine *Engine) *Comparator {
	return &Comparator{engine: engine}
}

// WithObserver sets a callback invoked after every scenario run.
func (c *Comparator) WithObserver(fn RunObserver) *Comparator {
	c.observe = fn
	return c
}

// Compare runs the actual, lower and higher competition scenarios.
func (c *Comparator) Compare(ctx context.Context, days []domain.DayRecord, discountPct float64) (*domain.ScenarioComparison, error) {
	return c.CompareScenarios(ctx, days, discountPct, domain.CompetitionScenarios...)
}

// CompareScenarios runs the listed scenarios concurrently, each on its own copy of days.
// The actual scenario is always run as the baseline for deltas.
//
// Runs fail independently. A failed scenario is recorded in Errors and left out of
// Results; deltas exist only for scenarios that succeeded alongside actual. The
// comparison is always returned, together with the joined per-scenario errors.
func (c *Comparator) CompareScenarios(ctx context.Context, days []domain.DayRecord, discountPct float64, scenarios ...domain.CompetitionScenario) (*domain.ScenarioComparison, error) {
	wanted := []domain.CompetitionScenario{domain.CompetitionActual}
	seen := map[domain.CompetitionScenario]bool{domain.CompetitionActual: true}
	for _, s := range scenarios {
		if !seen[s] {
			seen[s] = true
			wanted = append(wanted, s)
		}
	}

	results := make([]*domain.ForecastResult, len(wanted))
	errs := make([]error, len(wanted))
	var g errgroup.Group // no shared cancellation between runs
	for i, s := range wanted {
		input := cloneDays(days)
		cfg := domain.ScenarioConfig{DiscountPct: discountPct, Competition: s}
		g.Go(func() error {
			start := time.Now()
			results[i], errs[i] = c.engine.Run(ctx, input, cfg)
			if c.observe != nil {
				c.observe(cfg, time.Since(start), results[i], errs[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	cmp := &domain.ScenarioComparison{
		DiscountPct: discountPct,
		Results:     make(map[domain.CompetitionScenario]*domain.ForecastResult, len(wanted)),
		Deltas:      make(map[domain.CompetitionScenario]domain.ScenarioDelta, len(wanted)-1),
	}
	if len(days) > 0 {
		cmp.ProductID = days[0].ProductID
	}

	var failed []error
	for i, s := range wanted {
		if errs[i] != nil {
			if cmp.Errors == nil {
				cmp.Errors = make(map[domain.CompetitionScenario]error)
			}
			cmp.Errors[s] = errs[i]
			failed = append(failed, fmt.Errorf("%s scenario: %w", s, errs[i]))
			continue
		}
		cmp.Results[s] = results[i]
	}

	if baseline, ok := cmp.Results[domain.CompetitionActual]; ok {
		for s, res := range cmp.Results {
			if s != domain.CompetitionActual {
				cmp.Deltas[s] = metrics.ComputeDelta(baseline.Summary, res.Summary)
			}
		}
	}
	return cmp, errors.Join(failed...)
}

func cloneDays(days []domain.DayRecord) []domain.DayRecord {
	out := make([]domain.DayRecord, len(days))
	for i := range days {
		out[i] = days[i].Clone()
	}
	return out
}
