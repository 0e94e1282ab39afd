package decision

import "fmt"

// Thresholds of the discount gate.
const (
	MinRevenueUpliftPct = 2.0  // GO: revenue gain under actual competition
	MaxClampedShare     = 0.10 // GO: at most 10% of days on the zero floor
	MaxClampedShareNOGO = 0.25 // NO-GO: model mostly outside its range
)

// Evaluator evaluates decision criteria.
type Evaluator struct{}

// NewEvaluator creates a new decision evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Evaluate produces DecisionResult from DecisionInput.
// GO if ALL criteria pass and NO NO-GO triggers.
// NO-GO if ANY criterion fails or ANY trigger fires.
func (e *Evaluator) Evaluate(input DecisionInput) (*DecisionResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	goCriteria := e.evaluateGOCriteria(input)
	nogoChecks := e.evaluateNOGOTriggers(input)

	decision := DecisionGO
	for _, c := range append(goCriteria, nogoChecks...) {
		if !c.Pass {
			decision = DecisionNOGO
			break
		}
	}

	return &DecisionResult{
		Input:      input,
		Decision:   decision,
		GOCriteria: goCriteria,
		NOGOChecks: nogoChecks,
	}, nil
}

// Recommend picks the GO result with the highest revenue uplift.
// Ties go to the smaller absolute discount. Returns nil when nothing passed.
func Recommend(results []*DecisionResult) *DecisionResult {
	var best *DecisionResult
	for _, r := range results {
		if r.Decision != DecisionGO {
			continue
		}
		if best == nil {
			best = r
			continue
		}
		ru, bu := r.Input.RevenueUpliftPct(), best.Input.RevenueUpliftPct()
		if ru > bu || (ru == bu && abs(r.Input.DiscountPct) < abs(best.Input.DiscountPct)) {
			best = r
		}
	}
	return best
}

// evaluateGOCriteria evaluates the 4 GO criteria.
func (e *Evaluator) evaluateGOCriteria(input DecisionInput) []CriterionResult {
	criteria := make([]CriterionResult, 4)

	// 1. Revenue uplift under actual competition
	uplift := input.RevenueUpliftPct()
	criteria[0] = CriterionResult{
		Name:      "Revenue uplift vs no discount",
		Threshold: fmt.Sprintf(">= %.1f%%", MinRevenueUpliftPct),
		Actual:    fmt.Sprintf("%+.2f%%", uplift),
		Pass:      uplift >= MinRevenueUpliftPct,
	}

	// 2. Units do not fall
	criteria[1] = CriterionResult{
		Name:      "Units vs no discount",
		Threshold: ">= baseline",
		Actual:    fmt.Sprintf("%.1f vs %.1f", input.ActualUnits, input.BaselineUnits),
		Pass:      input.ActualUnits >= input.BaselineUnits,
	}

	// 3. Still ahead when the competitor cuts prices
	lowerUplift := input.LowerRevenueUpliftPct()
	criteria[2] = CriterionResult{
		Name:      "Robust to lower competitor prices",
		Threshold: "lower-scenario uplift >= 0",
		Actual:    fmt.Sprintf("%+.2f%%", lowerUplift),
		Pass:      lowerUplift >= 0,
	}

	// 4. Model stays in range
	criteria[3] = CriterionResult{
		Name:      "Predictions within model range",
		Threshold: fmt.Sprintf("clamped days <= %.0f%%", MaxClampedShare*100),
		Actual:    fmt.Sprintf("%d/%d", input.ClampedDays, input.DayCount),
		Pass:      input.ClampedShare() <= MaxClampedShare,
	}

	return criteria
}

// evaluateNOGOTriggers evaluates the 3 NO-GO triggers.
// Pass=true means NOT triggered, Pass=false means triggered.
func (e *Evaluator) evaluateNOGOTriggers(input DecisionInput) []CriterionResult {
	checks := make([]CriterionResult, 3)

	// 1. Revenue loss under actual competition
	uplift := input.RevenueUpliftPct()
	checks[0] = CriterionResult{
		Name:      "Revenue loss",
		Threshold: "uplift < 0",
		Actual:    fmt.Sprintf("%+.2f%%", uplift),
		Pass:      uplift >= 0,
	}

	// 2. Gain disappears when the competitor cuts prices
	lowerUplift := input.LowerRevenueUpliftPct()
	triggered := uplift > 0 && lowerUplift <= 0
	checks[1] = CriterionResult{
		Name:      "Gain disappears under lower competitor prices",
		Threshold: "uplift > 0 AND lower-scenario uplift <= 0",
		Actual:    fmt.Sprintf("uplift=%+.2f%%, lower=%+.2f%%", uplift, lowerUplift),
		Pass:      !triggered,
	}

	// 3. Model mostly outside its range
	checks[2] = CriterionResult{
		Name:      "Frequent zero-floor predictions",
		Threshold: fmt.Sprintf("clamped days > %.0f%%", MaxClampedShareNOGO*100),
		Actual:    fmt.Sprintf("%d/%d", input.ClampedDays, input.DayCount),
		Pass:      input.ClampedShare() <= MaxClampedShareNOGO,
	}

	return checks
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
