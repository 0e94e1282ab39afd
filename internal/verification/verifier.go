// Package verification replays stored forecast runs and checks that the
// engine reproduces them.
package verification

import (
	"context"
	"fmt"
	"math"
	"time"

	"sales-forecast-lab/internal/domain"
)

// FloatTolerance is the tolerance for float64 comparisons.
const FloatTolerance = 1e-7

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string      // field name
	Date     time.Time   // day of the mismatch, zero for run-level fields
	Expected interface{} // stored value
	Actual   interface{} // replayed value
}

func (d FieldDivergence) String() string {
	if d.Date.IsZero() {
		return fmt.Sprintf("%s: stored %v, replayed %v", d.Field, d.Expected, d.Actual)
	}
	return fmt.Sprintf("%s %s: stored %v, replayed %v", d.Date.Format("2006-01-02"), d.Field, d.Expected, d.Actual)
}

// VerificationResult contains the result of verifying a single run.
type VerificationResult struct {
	RunID              string            // verified run ID
	Match              bool              // true if all fields match
	Divergences        []FieldDivergence // list of divergent fields
	StoredTotalUnits   float64           // total units from stored header
	ReplayedTotalUnits float64           // total units from replay
}

// VerificationReport contains results for batch verification.
type VerificationReport struct {
	TotalRuns     int                  // total runs verified
	MatchedRuns   int                  // runs that matched within tolerance
	DivergentRuns int                  // runs with divergences or replay errors
	Results       []VerificationResult // individual results
}

// Verifier interface for forecast replay verification.
type Verifier interface {
	// VerifyRun verifies a single run by ID.
	// It loads the stored run, re-executes the engine with the same product,
	// scenario and model, and compares every stored day.
	VerifyRun(ctx context.Context, runID string) (*VerificationResult, error)

	// VerifyAll verifies all stored runs of a product.
	VerifyAll(ctx context.Context, productID string) (*VerificationReport, error)
}

// CompareRuns compares two run headers and returns divergences.
func CompareRuns(stored, replayed *domain.ForecastRun) []FieldDivergence {
	var divergences []FieldDivergence

	// RunID must match exactly
	if stored.RunID != replayed.RunID {
		divergences = append(divergences, FieldDivergence{Field: "RunID", Expected: stored.RunID, Actual: replayed.RunID})
	}
	if stored.ProductID != replayed.ProductID {
		divergences = append(divergences, FieldDivergence{Field: "ProductID", Expected: stored.ProductID, Actual: replayed.ProductID})
	}
	if !stored.HorizonStart.Equal(replayed.HorizonStart) {
		divergences = append(divergences, FieldDivergence{Field: "HorizonStart", Expected: stored.HorizonStart, Actual: replayed.HorizonStart})
	}
	if !stored.HorizonEnd.Equal(replayed.HorizonEnd) {
		divergences = append(divergences, FieldDivergence{Field: "HorizonEnd", Expected: stored.HorizonEnd, Actual: replayed.HorizonEnd})
	}

	s, r := stored.Summary, replayed.Summary
	if s.DayCount != r.DayCount {
		divergences = append(divergences, FieldDivergence{Field: "DayCount", Expected: s.DayCount, Actual: r.DayCount})
	}
	if !floatEquals(s.TotalUnits, r.TotalUnits) {
		divergences = append(divergences, FieldDivergence{Field: "TotalUnits", Expected: s.TotalUnits, Actual: r.TotalUnits})
	}
	if !floatEquals(s.TotalRevenue, r.TotalRevenue) {
		divergences = append(divergences, FieldDivergence{Field: "TotalRevenue", Expected: s.TotalRevenue, Actual: r.TotalRevenue})
	}
	if s.ClampedDays != r.ClampedDays {
		divergences = append(divergences, FieldDivergence{Field: "ClampedDays", Expected: s.ClampedDays, Actual: r.ClampedDays})
	}

	return divergences
}

// CompareDays compares stored and replayed day points in date order.
// Uses FloatTolerance for float64 comparisons.
func CompareDays(stored, replayed []*domain.ForecastDayPoint) []FieldDivergence {
	var divergences []FieldDivergence

	if len(stored) != len(replayed) {
		divergences = append(divergences, FieldDivergence{Field: "Days", Expected: len(stored), Actual: len(replayed)})
	}

	n := len(stored)
	if len(replayed) < n {
		n = len(replayed)
	}
	for i := 0; i < n; i++ {
		s, r := stored[i], replayed[i]
		if !s.Date.Equal(r.Date) {
			divergences = append(divergences, FieldDivergence{Field: "Date", Date: s.Date, Expected: s.Date, Actual: r.Date})
			continue
		}

		fields := []struct {
			name     string
			expected float64
			actual   float64
		}{
			{"SalePrice", s.SalePrice, r.SalePrice},
			{"CompetitorPrice", s.CompetitorPrice, r.CompetitorPrice},
			{"DiscountPct", s.DiscountPct, r.DiscountPct},
			{"PriceRatio", s.PriceRatio, r.PriceRatio},
			{"MovingAvgFeature", s.MovingAvgFeature, r.MovingAvgFeature},
			{"RawPrediction", s.RawPrediction, r.RawPrediction},
			{"PredictedUnits", s.PredictedUnits, r.PredictedUnits},
			{"ProjectedRevenue", s.ProjectedRevenue, r.ProjectedRevenue},
		}
		for _, f := range fields {
			if !floatEquals(f.expected, f.actual) {
				divergences = append(divergences, FieldDivergence{Field: f.name, Date: s.Date, Expected: f.expected, Actual: f.actual})
			}
		}

		for k := 0; k < domain.LagCount; k++ {
			if !floatEquals(s.LagFeatures[k], r.LagFeatures[k]) {
				divergences = append(divergences, FieldDivergence{
					Field:    domain.LagFeatureName(k + 1),
					Date:     s.Date,
					Expected: s.LagFeatures[k],
					Actual:   r.LagFeatures[k],
				})
			}
		}
	}

	return divergences
}

// floatEquals compares two float64 values within FloatTolerance.
func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= FloatTolerance
}
