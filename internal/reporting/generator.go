package reporting

import (
	"context"
	"fmt"
	"math"
	"time"

	"sales-forecast-lab/internal/domain"
	"sales-forecast-lab/internal/metrics"
	"sales-forecast-lab/internal/observability"
	"sales-forecast-lab/internal/storage"
)

// summaryTolerance bounds the accepted drift between a stored summary and its recomputation.
const summaryTolerance = 1e-6

// Generator produces reports from live results or stored runs.
type Generator struct {
	runStore   storage.ForecastRunStore
	dayStore   storage.ForecastDayStore
	aggregator *metrics.Aggregator
	eventDay   int
	eventLabel string
	now        func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator. Stores may be nil when only
// live results are rendered.
func NewGenerator(runStore storage.ForecastRunStore, dayStore storage.ForecastDayStore) *Generator {
	g := &Generator{
		runStore:   runStore,
		dayStore:   dayStore,
		eventDay:   DefaultEventDay,
		eventLabel: DefaultEventLabel,
		now:        func() time.Time { return time.Now().UTC() },
	}
	if runStore != nil && dayStore != nil {
		g.aggregator = metrics.NewAggregator(runStore, dayStore)
	}
	return g
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// WithEvent sets the highlighted day of month and its label. Day 0 disables the highlight.
func (g *Generator) WithEvent(day int, label string) *Generator {
	g.eventDay = day
	g.eventLabel = label
	return g
}

// FromResult builds a report for a run that has just been executed.
func (g *Generator) FromResult(run *domain.ForecastRun, result *domain.ForecastResult) *Report {
	points := make([]*domain.ForecastDayPoint, len(result.Days))
	for i := range result.Days {
		points[i] = domain.NewForecastDayPoint(run.RunID, &result.Days[i])
	}
	r := g.newReport(run)
	r.Run = g.buildRunSection(run, result.Summary, points)
	observability.RecordReportGenerated()
	return r
}

// FromComparison builds a report for a comparison that has just been executed.
// The daily table shows the actual scenario.
func (g *Generator) FromComparison(runs map[domain.CompetitionScenario]*domain.ForecastRun, cmp *domain.ScenarioComparison) (*Report, error) {
	actualRun, ok := runs[domain.CompetitionActual]
	actual, okResult := cmp.Results[domain.CompetitionActual]
	if !ok || !okResult {
		return nil, metrics.ErrIncompleteComparison
	}
	r := g.FromResult(actualRun, actual)
	r.Comparison = buildComparisonSection(actualRun.ComparisonID, cmp)
	return r, nil
}

// GenerateRun builds a report for a stored run, recomputing its summary from stored days.
func (g *Generator) GenerateRun(ctx context.Context, runID string) (*Report, error) {
	if g.aggregator == nil {
		return nil, fmt.Errorf("generate run report: %w", storage.ErrInvalidInput)
	}
	run, err := g.runStore.GetByID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}
	points, err := g.dayStore.GetByRunID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load days of run %s: %w", runID, err)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: run %s", metrics.ErrNoPoints, runID)
	}

	summary := metrics.SummaryFromPoints(points)
	r := g.newReport(run)
	r.Run = g.buildRunSection(run, summary, points)
	r.DataQuality.IntegrityErrors = checkSummary(run, summary)
	observability.RecordReportGenerated()
	return r, nil
}

// GenerateComparison builds a report for a stored comparison.
func (g *Generator) GenerateComparison(ctx context.Context, comparisonID string) (*Report, error) {
	if g.aggregator == nil {
		return nil, fmt.Errorf("generate comparison report: %w", storage.ErrInvalidInput)
	}
	cmp, err := g.aggregator.ComputeComparison(ctx, comparisonID)
	if err != nil {
		return nil, err
	}
	runs, err := g.runStore.GetByComparison(ctx, comparisonID)
	if err != nil {
		return nil, err
	}

	var actualID string
	var integrity []string
	for _, run := range runs {
		if run.Competition == domain.CompetitionActual {
			actualID = run.RunID
		}
		integrity = append(integrity, checkSummary(run, cmp.Results[run.Competition].Summary)...)
	}

	r, err := g.GenerateRun(ctx, actualID)
	if err != nil {
		return nil, err
	}
	r.Comparison = buildComparisonSection(comparisonID, cmp)
	r.DataQuality.IntegrityErrors = integrity
	return r, nil
}

func (g *Generator) newReport(run *domain.ForecastRun) *Report {
	return &Report{
		GeneratedAt: g.now(),
		ProductID:   run.ProductID,
		ProductName: run.ProductName,
		EventDay:    g.eventDay,
		EventLabel:  g.eventLabel,
	}
}

func (g *Generator) buildRunSection(run *domain.ForecastRun, summary domain.ForecastSummary, points []*domain.ForecastDayPoint) *RunSection {
	sec := &RunSection{
		RunID:        run.RunID,
		Scenario:     run.Competition.Label(),
		DiscountPct:  run.DiscountPct,
		ModelName:    run.ModelName,
		ModelVersion: run.ModelVersion,
		HorizonStart: run.HorizonStart,
		HorizonEnd:   run.HorizonEnd,
		KPIs: KPISection{
			TotalUnits:      summary.TotalUnits,
			TotalRevenue:    summary.TotalRevenue,
			MeanSalePrice:   summary.MeanSalePrice,
			MeanDiscountPct: summary.MeanDiscountPct,
			ClampedDays:     summary.ClampedDays,
			UnitsMedian:     summary.UnitsMedian,
			UnitsP10:        summary.UnitsP10,
			UnitsP90:        summary.UnitsP90,
		},
		Days: make([]DailyRow, len(points)),
	}

	peakSet := false
	for i, p := range points {
		weekday := p.DayOfWeek
		if weekday == "" {
			weekday = p.Date.Weekday().String()
		}
		row := DailyRow{
			Date:            p.Date,
			Weekday:         weekday,
			DayOfMonth:      p.DayOfMonth,
			SalePrice:       p.SalePrice,
			CompetitorPrice: p.CompetitorPrice,
			DiscountPct:     p.DiscountPct,
			Units:           p.PredictedUnits,
			Revenue:         p.ProjectedRevenue,
		}
		if !peakSet && summary.DayCount > 0 && p.Date.Equal(summary.PeakDate) {
			row.IsPeak = true
			peakSet = true
		}
		if g.eventDay > 0 && p.Date.Day() == g.eventDay {
			row.IsEvent = true
		}
		sec.Days[i] = row
	}

	for i := range sec.Days {
		if sec.Days[i].IsPeak {
			sec.Peak = &sec.Days[i]
		}
		if sec.Days[i].IsEvent && sec.Event == nil {
			sec.Event = &sec.Days[i]
		}
	}
	return sec
}

func buildComparisonSection(comparisonID string, cmp *domain.ScenarioComparison) *ComparisonSection {
	sec := &ComparisonSection{ComparisonID: comparisonID, DiscountPct: cmp.DiscountPct}
	for _, s := range domain.CompetitionScenarios {
		res, ok := cmp.Results[s]
		if !ok {
			continue
		}
		delta := cmp.Deltas[s]
		sec.Rows = append(sec.Rows, ComparisonRow{
			Competition:   s,
			Label:         s.Label(),
			IsBaseline:    s == domain.CompetitionActual,
			TotalUnits:    res.Summary.TotalUnits,
			TotalRevenue:  res.Summary.TotalRevenue,
			MeanSalePrice: res.Summary.MeanSalePrice,
			PeakUnits:     res.Summary.PeakUnits,
			DeltaUnits:    delta.Units,
			DeltaRevenue:  delta.Revenue,
		})
	}
	return sec
}

// checkSummary compares a stored run header with the summary recomputed from its days.
func checkSummary(run *domain.ForecastRun, recomputed domain.ForecastSummary) []string {
	var errs []string
	if run.Summary.DayCount != recomputed.DayCount {
		errs = append(errs, fmt.Sprintf("run %s: stored day_count %d, %d stored days",
			run.RunID, run.Summary.DayCount, recomputed.DayCount))
	}
	if math.Abs(run.Summary.TotalUnits-recomputed.TotalUnits) > summaryTolerance {
		errs = append(errs, fmt.Sprintf("run %s: stored total_units %.6f, recomputed %.6f",
			run.RunID, run.Summary.TotalUnits, recomputed.TotalUnits))
	}
	if math.Abs(run.Summary.TotalRevenue-recomputed.TotalRevenue) > summaryTolerance {
		errs = append(errs, fmt.Sprintf("run %s: stored total_revenue %.6f, recomputed %.6f",
			run.RunID, run.Summary.TotalRevenue, recomputed.TotalRevenue))
	}
	return errs
}
