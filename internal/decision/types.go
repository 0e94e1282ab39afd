package decision

import (
	"errors"
	"fmt"
	"math"
)

// Decision represents the GO/NO-GO result for one discount.
type Decision string

const (
	DecisionGO   Decision = "GO"
	DecisionNOGO Decision = "NO-GO"
)

// ErrInvalidInput is returned when a DecisionInput cannot be evaluated.
var ErrInvalidInput = errors.New("invalid decision input")

// DecisionInput contains the totals of one discount candidate and of the
// no-discount baseline of the same product.
type DecisionInput struct {
	ProductID    string
	DiscountPct  float64
	ComparisonID string

	// Candidate totals per competition scenario
	ActualUnits   float64
	ActualRevenue float64
	LowerUnits    float64
	LowerRevenue  float64
	HigherRevenue float64

	// Baseline (0% discount) totals
	BaselineUnits        float64
	BaselineRevenue      float64
	BaselineLowerRevenue float64

	// Floor hits of the candidate under actual competition
	ClampedDays int
	DayCount    int
}

// RevenueUpliftPct is the candidate's revenue change against the baseline, actual competition.
func (in DecisionInput) RevenueUpliftPct() float64 {
	return upliftPct(in.ActualRevenue, in.BaselineRevenue)
}

// LowerRevenueUpliftPct is the same change when the competitor cuts prices.
func (in DecisionInput) LowerRevenueUpliftPct() float64 {
	return upliftPct(in.LowerRevenue, in.BaselineLowerRevenue)
}

// ClampedShare is the fraction of days whose prediction hit the zero floor.
func (in DecisionInput) ClampedShare() float64 {
	if in.DayCount == 0 {
		return 0
	}
	return float64(in.ClampedDays) / float64(in.DayCount)
}

// Validate checks that every number is usable.
func (in DecisionInput) Validate() error {
	if in.ProductID == "" {
		return fmt.Errorf("%w: empty product id", ErrInvalidInput)
	}
	if in.DayCount <= 0 {
		return fmt.Errorf("%w: no forecast days", ErrInvalidInput)
	}
	if in.BaselineRevenue <= 0 || in.BaselineLowerRevenue <= 0 {
		return fmt.Errorf("%w: baseline revenue must be positive", ErrInvalidInput)
	}
	for _, v := range []float64{
		in.ActualUnits, in.ActualRevenue, in.LowerUnits, in.LowerRevenue, in.HigherRevenue,
		in.BaselineUnits, in.BaselineRevenue, in.BaselineLowerRevenue,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite total", ErrInvalidInput)
		}
	}
	return nil
}

func upliftPct(value, baseline float64) float64 {
	if baseline == 0 {
		return 0
	}
	return (value - baseline) / baseline * 100
}

// CriterionResult represents pass/fail for one criterion.
type CriterionResult struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// DecisionResult contains the decision for one discount with its checklist.
type DecisionResult struct {
	Input      DecisionInput
	Decision   Decision
	GOCriteria []CriterionResult // 4 GO criteria
	NOGOChecks []CriterionResult // 3 NO-GO triggers
}
