package reporting

import (
	"context"
	"strings"
	"testing"
	"time"

	"sales-forecast-lab/internal/domain"
	"sales-forecast-lab/internal/metrics"
	"sales-forecast-lab/internal/storage/memory"
)

var fixedTime = time.Date(2024, 12, 1, 9, 30, 0, 0, time.UTC)

// makeResult builds a processed horizon starting 2024-11-26 with the given units.
func makeResult(productID string, competition domain.CompetitionScenario, unitsPerDay ...float64) *domain.ForecastResult {
	start := time.Date(2024, 11, 26, 0, 0, 0, 0, time.UTC)
	days := make([]domain.DayRecord, len(unitsPerDay))
	for i, u := range unitsPerDay {
		date := start.AddDate(0, 0, i)
		days[i] = domain.DayRecord{
			ProductID:        productID,
			ProductName:      "Widget",
			Date:             date,
			DayOfWeek:        date.Weekday().String(),
			DayOfMonth:       date.Day(),
			BasePrice:        20,
			SalePrice:        18,
			CompetitorPrice:  19,
			DiscountPct:      -10,
			PriceRatio:       18.0 / 19.0,
			RawPrediction:    u,
			PredictedUnits:   u,
			ProjectedRevenue: u * 18,
		}
	}
	return &domain.ForecastResult{
		ProductID: productID,
		Scenario:  domain.ScenarioConfig{DiscountPct: -10, Competition: competition},
		Days:      days,
		Summary:   metrics.ComputeSummary(days),
	}
}

func makeRun(runID, comparisonID string, res *domain.ForecastResult) *domain.ForecastRun {
	return &domain.ForecastRun{
		RunID:        runID,
		ComparisonID: comparisonID,
		ProductID:    res.ProductID,
		ProductName:  "Widget",
		Competition:  res.Scenario.Competition,
		DiscountPct:  res.Scenario.DiscountPct,
		ModelName:    "units-linear",
		ModelVersion: "v1",
		HorizonStart: res.Days[0].Date,
		HorizonEnd:   res.Days[len(res.Days)-1].Date,
		Summary:      res.Summary,
		CreatedAt:    fixedTime,
	}
}

func storeRun(t *testing.T, runs *memory.ForecastRunStore, days *memory.ForecastDayStore, run *domain.ForecastRun, res *domain.ForecastResult) {
	t.Helper()
	ctx := context.Background()
	if err := runs.Insert(ctx, run); err != nil {
		t.Fatalf("Insert run failed: %v", err)
	}
	points := make([]*domain.ForecastDayPoint, len(res.Days))
	for i := range res.Days {
		points[i] = domain.NewForecastDayPoint(run.RunID, &res.Days[i])
	}
	if err := days.InsertBulk(ctx, points); err != nil {
		t.Fatalf("InsertBulk points failed: %v", err)
	}
}

func TestFromResult_PeakAndEvent(t *testing.T) {
	res := makeResult("p-1", domain.CompetitionActual, 10, 12, 30, 14)
	run := makeRun("run-1", "", res)

	r := NewGenerator(nil, nil).WithClock(func() time.Time { return fixedTime }).FromResult(run, res)

	if r.Run == nil {
		t.Fatal("expected run section")
	}
	if len(r.Run.Days) != 4 {
		t.Fatalf("expected 4 daily rows, got %d", len(r.Run.Days))
	}
	if r.Run.Peak == nil || r.Run.Peak.DayOfMonth != 28 {
		t.Errorf("expected peak on day 28, got %+v", r.Run.Peak)
	}
	if r.Run.Event == nil || r.Run.Event.DayOfMonth != DefaultEventDay {
		t.Errorf("expected event on day %d, got %+v", DefaultEventDay, r.Run.Event)
	}
	if r.Run.KPIs.TotalUnits != 66 {
		t.Errorf("expected TotalUnits 66, got %f", r.Run.KPIs.TotalUnits)
	}
	if !r.GeneratedAt.Equal(fixedTime) {
		t.Errorf("GeneratedAt = %v, want %v", r.GeneratedAt, fixedTime)
	}
}

func TestFromResult_EventDisabled(t *testing.T) {
	res := makeResult("p-1", domain.CompetitionActual, 10, 12, 30)
	r := NewGenerator(nil, nil).WithEvent(0, "").FromResult(makeRun("run-1", "", res), res)

	if r.Run.Event != nil {
		t.Errorf("expected no event row, got %+v", r.Run.Event)
	}
	for _, d := range r.Run.Days {
		if d.IsEvent {
			t.Errorf("day %d marked as event", d.DayOfMonth)
		}
	}
}

func TestFromResult_EventOutsideHorizon(t *testing.T) {
	res := makeResult("p-1", domain.CompetitionActual, 10, 12)
	r := NewGenerator(nil, nil).FromResult(makeRun("run-1", "", res), res)

	if r.Run.Event != nil {
		t.Errorf("expected no event row for 26..27, got %+v", r.Run.Event)
	}
}

func TestFromComparison(t *testing.T) {
	cmp := &domain.ScenarioComparison{
		ProductID:   "p-1",
		DiscountPct: -10,
		Results: map[domain.CompetitionScenario]*domain.ForecastResult{
			domain.CompetitionActual: makeResult("p-1", domain.CompetitionActual, 10, 10),
			domain.CompetitionLower:  makeResult("p-1", domain.CompetitionLower, 8, 9),
			domain.CompetitionHigher: makeResult("p-1", domain.CompetitionHigher, 12, 11),
		},
	}
	cmp.Deltas = map[domain.CompetitionScenario]domain.ScenarioDelta{
		domain.CompetitionLower:  metrics.ComputeDelta(cmp.Results[domain.CompetitionActual].Summary, cmp.Results[domain.CompetitionLower].Summary),
		domain.CompetitionHigher: metrics.ComputeDelta(cmp.Results[domain.CompetitionActual].Summary, cmp.Results[domain.CompetitionHigher].Summary),
	}
	runs := map[domain.CompetitionScenario]*domain.ForecastRun{
		domain.CompetitionActual: makeRun("a", "cmp-1", cmp.Results[domain.CompetitionActual]),
	}

	r, err := NewGenerator(nil, nil).FromComparison(runs, cmp)
	if err != nil {
		t.Fatalf("FromComparison failed: %v", err)
	}
	if r.Comparison == nil || len(r.Comparison.Rows) != 3 {
		t.Fatalf("expected 3 comparison rows, got %+v", r.Comparison)
	}

	rows := r.Comparison.Rows
	if rows[0].Competition != domain.CompetitionActual || !rows[0].IsBaseline {
		t.Errorf("first row should be the actual baseline, got %+v", rows[0])
	}
	if rows[1].DeltaUnits != -3 || rows[1].DeltaRevenue != -54 {
		t.Errorf("lower delta = %v/%v, want -3/-54", rows[1].DeltaUnits, rows[1].DeltaRevenue)
	}
	if rows[2].DeltaUnits != 3 {
		t.Errorf("higher delta units = %v, want 3", rows[2].DeltaUnits)
	}

	md := RenderMarkdown(r)
	for _, want := range []string{"## Competition Scenarios", "Competition -5%", "-3.0", "-54.00", "+3.0", "+54.00"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestFromComparison_MissingActual(t *testing.T) {
	cmp := &domain.ScenarioComparison{
		Results: map[domain.CompetitionScenario]*domain.ForecastResult{
			domain.CompetitionLower: makeResult("p-1", domain.CompetitionLower, 1),
		},
	}

	_, err := NewGenerator(nil, nil).FromComparison(nil, cmp)
	if err == nil {
		t.Fatal("expected error without actual scenario")
	}
}

func TestGenerateRun_FromStore(t *testing.T) {
	ctx := context.Background()
	runs := memory.NewForecastRunStore()
	days := memory.NewForecastDayStore()

	res := makeResult("p-1", domain.CompetitionActual, 5, 6, 7)
	storeRun(t, runs, days, makeRun("run-1", "", res), res)

	r, err := NewGenerator(runs, days).WithClock(func() time.Time { return fixedTime }).GenerateRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GenerateRun failed: %v", err)
	}
	if len(r.DataQuality.IntegrityErrors) != 0 {
		t.Errorf("unexpected integrity errors: %v", r.DataQuality.IntegrityErrors)
	}
	if r.Run.KPIs.TotalRevenue != 18*18 {
		t.Errorf("expected TotalRevenue %v, got %v", 18*18, r.Run.KPIs.TotalRevenue)
	}
}

func TestGenerateRun_IntegrityError(t *testing.T) {
	ctx := context.Background()
	runs := memory.NewForecastRunStore()
	days := memory.NewForecastDayStore()

	res := makeResult("p-1", domain.CompetitionActual, 5, 6, 7)
	run := makeRun("run-1", "", res)
	run.Summary.TotalUnits = 99
	storeRun(t, runs, days, run, res)

	r, err := NewGenerator(runs, days).GenerateRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GenerateRun failed: %v", err)
	}
	if len(r.DataQuality.IntegrityErrors) != 1 || !strings.Contains(r.DataQuality.IntegrityErrors[0], "total_units") {
		t.Errorf("expected total_units integrity error, got %v", r.DataQuality.IntegrityErrors)
	}
	if !strings.Contains(RenderMarkdown(r), "### Integrity Errors") {
		t.Error("markdown should list integrity errors")
	}
}

func TestGenerateRun_WithoutStores(t *testing.T) {
	_, err := NewGenerator(nil, nil).GenerateRun(context.Background(), "run-1")
	if err == nil {
		t.Fatal("expected error without stores")
	}
}

func TestGenerateComparison_FromStore(t *testing.T) {
	ctx := context.Background()
	runs := memory.NewForecastRunStore()
	days := memory.NewForecastDayStore()

	actual := makeResult("p-1", domain.CompetitionActual, 10, 10, 10)
	lower := makeResult("p-1", domain.CompetitionLower, 9, 9, 9)
	higher := makeResult("p-1", domain.CompetitionHigher, 11, 11, 11)
	storeRun(t, runs, days, makeRun("a", "cmp-1", actual), actual)
	storeRun(t, runs, days, makeRun("l", "cmp-1", lower), lower)
	storeRun(t, runs, days, makeRun("h", "cmp-1", higher), higher)

	r, err := NewGenerator(runs, days).GenerateComparison(ctx, "cmp-1")
	if err != nil {
		t.Fatalf("GenerateComparison failed: %v", err)
	}
	if r.Run.RunID != "a" {
		t.Errorf("daily table should show the actual run, got %s", r.Run.RunID)
	}
	if len(r.Comparison.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(r.Comparison.Rows))
	}
	if r.Comparison.Rows[2].DeltaUnits != 3 {
		t.Errorf("higher delta units = %v, want 3", r.Comparison.Rows[2].DeltaUnits)
	}

	out := RenderComparisonCSV(r.Comparison)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + 3 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[1], "cmp-1,actual,") {
		t.Errorf("unexpected first row: %s", lines[1])
	}
}

func TestRenderMarkdown_Deterministic(t *testing.T) {
	res := makeResult("p-1", domain.CompetitionActual, 10, 12, 30, 14)
	run := makeRun("run-1", "", res)
	gen := NewGenerator(nil, nil).WithClock(func() time.Time { return fixedTime })

	first := RenderMarkdown(gen.FromResult(run, res))
	for i := 0; i < 5; i++ {
		if got := RenderMarkdown(gen.FromResult(run, res)); got != first {
			t.Fatalf("render %d differs", i)
		}
	}

	for _, want := range []string{"# Sales Forecast Report", "2024-12-01T09:30:00Z", "Black Friday", "peak", "| Total Revenue | 1188.00 |"} {
		if !strings.Contains(first, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestRenderDailyCSV(t *testing.T) {
	res := makeResult("p-1", domain.CompetitionActual, 10, 12, 30)
	r := NewGenerator(nil, nil).FromResult(makeRun("run-1", "", res), res)

	out := RenderDailyCSV(r.Run.Days)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + 3 rows, got %d lines", len(lines))
	}
	if lines[0] != "date,weekday,day_of_month,sale_price,competitor_price,discount_pct,units,revenue,is_peak,is_event" {
		t.Errorf("unexpected header: %s", lines[0])
	}
	want := "2024-11-28,Thursday,28,18.00,19.00,-10.000000,30.000000,540.00,true,true"
	if lines[3] != want {
		t.Errorf("row = %s, want %s", lines[3], want)
	}
}

func TestMoneyRounding(t *testing.T) {
	tests := []struct {
		fn   func(float64) string
		in   float64
		want string
	}{
		{money, 2.345, "2.35"},
		{money, -2.345, "-2.35"},
		{money, 10, "10.00"},
		{signedMoney, 3, "+3.00"},
		{signedMoney, 0, "0.00"},
		{signedMoney, -0.004, "0.00"},
		{units, 12.25, "12.3"},
		{signedUnits, -1.04, "-1.0"},
		{percent, -10, "-10.00%"},
	}
	for _, tt := range tests {
		if got := tt.fn(tt.in); got != tt.want {
			t.Errorf("format(%v) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
