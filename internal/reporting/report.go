package reporting

import (
	"time"

	"sales-forecast-lab/internal/domain"
)

// Default event highlighted in reports.
const (
	DefaultEventDay   = 28
	DefaultEventLabel = "Black Friday"
)

// Report is a rendered-agnostic view of one run and, optionally, a comparison.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	ProductID   string
	ProductName string
	EventDay    int
	EventLabel  string

	// Run under report (the actual scenario for comparisons)
	Run *RunSection

	// Scenario comparison, nil for single runs
	Comparison *ComparisonSection

	// Data Quality (sufficiency checks and integrity errors)
	DataQuality DataQualitySection

	// Reproducibility, filled by the report pipeline
	Reproducibility *ReproducibilityMetadata
}

// ReproducibilityMetadata records what is needed to reproduce a report.
type ReproducibilityMetadata struct {
	GeneratorVersion string
	DataVersion      string // short hash of the rendered daily rows
	CommitHash       string
	VerifyCommand    string
}

// DataQualitySection contains data sufficiency checks and integrity errors.
type DataQualitySection struct {
	SufficiencyChecks []SufficiencyCheckRow
	IntegrityErrors   []string
	AllChecksPassed   bool
}

// SufficiencyCheckRow represents one sufficiency criterion.
type SufficiencyCheckRow struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// RunSection describes one forecast run.
type RunSection struct {
	RunID        string
	Scenario     string // human label, e.g. "Competition -5%"
	DiscountPct  float64
	ModelName    string
	ModelVersion string
	HorizonStart time.Time
	HorizonEnd   time.Time
	KPIs         KPISection
	Days         []DailyRow // ordered by date
	Peak         *DailyRow
	Event        *DailyRow // nil when the event day is outside the horizon
}

// KPISection holds headline numbers of a run.
type KPISection struct {
	TotalUnits      float64
	TotalRevenue    float64
	MeanSalePrice   float64
	MeanDiscountPct float64
	ClampedDays     int
	UnitsMedian     float64
	UnitsP10        float64
	UnitsP90        float64
}

// DailyRow is one day of the daily table.
type DailyRow struct {
	Date            time.Time
	Weekday         string
	DayOfMonth      int
	SalePrice       float64
	CompetitorPrice float64
	DiscountPct     float64
	Units           float64
	Revenue         float64
	IsPeak          bool
	IsEvent         bool
}

// ComparisonSection holds one row per competition scenario.
type ComparisonSection struct {
	ComparisonID string
	DiscountPct  float64
	Rows         []ComparisonRow // actual, lower, higher
}

// ComparisonRow is one scenario of a comparison. Deltas are zero for the baseline.
type ComparisonRow struct {
	Competition   domain.CompetitionScenario
	Label         string
	IsBaseline    bool
	TotalUnits    float64
	TotalRevenue  float64
	MeanSalePrice float64
	PeakUnits     float64
	DeltaUnits    float64
	DeltaRevenue  float64
}
