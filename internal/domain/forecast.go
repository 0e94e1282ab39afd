package domain

import "time"

// ForecastSummary holds run-level aggregates over a horizon.
type ForecastSummary struct {
	DayCount        int
	TotalUnits      float64
	TotalRevenue    float64
	MeanSalePrice   float64
	MeanDiscountPct float64
	PeakDate        time.Time // day with the highest prediction (first on ties)
	PeakUnits       float64
	ClampedDays     int // days whose raw prediction was negative

	// Distribution of daily predicted units
	UnitsMedian float64
	UnitsP10    float64
	UnitsP90    float64
	UnitsStddev float64
}

// ForecastResult is the ordered output of one engine run.
type ForecastResult struct {
	ProductID string
	Scenario  ScenarioConfig
	Days      []DayRecord
	Summary   ForecastSummary
}

// ScenarioDelta is the signed difference of a scenario's totals against the actual scenario.
type ScenarioDelta struct {
	Units   float64
	Revenue float64
}

// ScenarioComparison holds the outcome of running several competition scenarios with a fixed discount.
type ScenarioComparison struct {
	ProductID   string
	DiscountPct float64
	Results     map[CompetitionScenario]*ForecastResult
	Deltas      map[CompetitionScenario]ScenarioDelta // lower/higher vs actual, successful runs only
	Errors      map[CompetitionScenario]error         // failed runs, absent from Results
}

// ForecastRun is the persisted header of one engine run.
type ForecastRun struct {
	RunID        string // deterministic hash
	ComparisonID string // shared by the runs of one comparison, empty for standalone runs
	ProductID    string
	ProductName  string
	Competition  CompetitionScenario
	DiscountPct  float64
	ModelName    string
	ModelVersion string
	HorizonStart time.Time
	HorizonEnd   time.Time
	Summary      ForecastSummary
	CreatedAt    time.Time
}

// ForecastDayPoint is the persisted per-day output of a run.
type ForecastDayPoint struct {
	RunID            string
	ProductID        string
	Date             time.Time
	DayOfMonth       int
	DayOfWeek        string
	SalePrice        float64
	CompetitorPrice  float64
	DiscountPct      float64
	PriceRatio       float64
	LagFeatures      [LagCount]float64
	MovingAvgFeature float64
	RawPrediction    float64
	PredictedUnits   float64
	ProjectedRevenue float64
}

// NewForecastDayPoint converts a processed day into its persisted form.
func NewForecastDayPoint(runID string, d *DayRecord) *ForecastDayPoint {
	return &ForecastDayPoint{
		RunID:            runID,
		ProductID:        d.ProductID,
		Date:             d.Date,
		DayOfMonth:       d.DayOfMonth,
		DayOfWeek:        d.DayOfWeek,
		SalePrice:        d.SalePrice,
		CompetitorPrice:  d.CompetitorPrice,
		DiscountPct:      d.DiscountPct,
		PriceRatio:       d.PriceRatio,
		LagFeatures:      d.LagFeatures,
		MovingAvgFeature: d.MovingAvgFeature,
		RawPrediction:    d.RawPrediction,
		PredictedUnits:   d.PredictedUnits,
		ProjectedRevenue: d.ProjectedRevenue,
	}
}
