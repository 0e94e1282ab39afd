package pipeline

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"sales-forecast-lab/internal/domain"
	"sales-forecast-lab/internal/storage"
)

// MinHorizonDays is the shortest horizon over which the moving-average window fills.
const MinHorizonDays = domain.MovingAverageWindow

// SufficiencyCheck represents one data sufficiency criterion.
type SufficiencyCheck struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// SufficiencyResult contains all checks for one product.
type SufficiencyResult struct {
	Checks  []SufficiencyCheck
	AllPass bool
	Errors  []string // data integrity errors
}

// SufficiencyChecker inspects a product's input horizon before reporting.
// Unlike run validation it never stops at the first problem.
type SufficiencyChecker struct {
	productDayStore storage.ProductDayStore
	eventDay        int
}

// NewSufficiencyChecker creates a new sufficiency checker. eventDay 0 skips the event check.
func NewSufficiencyChecker(productDayStore storage.ProductDayStore, eventDay int) *SufficiencyChecker {
	return &SufficiencyChecker{productDayStore: productDayStore, eventDay: eventDay}
}

// Check performs all sufficiency checks for a product.
func (c *SufficiencyChecker) Check(ctx context.Context, productID string) (*SufficiencyResult, error) {
	days, err := c.productDayStore.GetByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get days of %s: %w", productID, err)
	}

	sorted := make([]*domain.DayRecord, len(days))
	copy(sorted, days)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	result := &SufficiencyResult{
		Checks:  make([]SufficiencyCheck, 0, 5),
		AllPass: true,
		Errors:  []string{},
	}
	add := func(check SufficiencyCheck, errs []string) {
		result.Checks = append(result.Checks, check)
		if !check.Pass {
			result.AllPass = false
		}
		result.Errors = append(result.Errors, errs...)
	}

	// Check 1: Horizon length >= moving-average window
	add(checkHorizonLength(sorted), nil)

	// Check 2: Calendar continuity
	add(checkContinuity(sorted))

	// Check 3: Positive prices on every day
	add(checkPrices(sorted))

	// Check 4: Lag seed usable
	add(checkLagSeed(sorted))

	// Check 5: Event day present
	if c.eventDay > 0 {
		add(checkEventDay(sorted, c.eventDay), nil)
	}

	return result, nil
}

// checkHorizonLength: days >= MinHorizonDays.
func checkHorizonLength(days []*domain.DayRecord) SufficiencyCheck {
	return SufficiencyCheck{
		Name:      "Horizon length",
		Threshold: fmt.Sprintf(">= %d days", MinHorizonDays),
		Actual:    fmt.Sprintf("%d days", len(days)),
		Pass:      len(days) >= MinHorizonDays,
	}
}

// checkContinuity: no missing or duplicate calendar days.
func checkContinuity(days []*domain.DayRecord) (SufficiencyCheck, []string) {
	var gaps, duplicates int
	var errors []string

	for i := 1; i < len(days); i++ {
		prev := days[i-1].Date
		cur := days[i].Date
		expected := prev.AddDate(0, 0, 1)
		switch {
		case sameDay(prev, cur):
			duplicates++
			errors = append(errors, fmt.Sprintf("duplicate date %s", cur.Format("2006-01-02")))
		case !sameDay(expected, cur):
			gaps++
			errors = append(errors, fmt.Sprintf("gap between %s and %s",
				prev.Format("2006-01-02"), cur.Format("2006-01-02")))
		}
	}

	return SufficiencyCheck{
		Name:      "Calendar continuity",
		Threshold: "0 gaps, 0 duplicates",
		Actual:    fmt.Sprintf("%d gaps, %d duplicates", gaps, duplicates),
		Pass:      gaps == 0 && duplicates == 0,
	}, errors
}

// checkPrices: base and competitor prices > 0 on every day.
func checkPrices(days []*domain.DayRecord) (SufficiencyCheck, []string) {
	bad := 0
	var errors []string
	for _, d := range days {
		if d.BasePrice <= 0 || d.CompetitorBasePrice <= 0 {
			bad++
			errors = append(errors, fmt.Sprintf("non-positive price on %s (base %.2f, competitor %.2f)",
				d.Date.Format("2006-01-02"), d.BasePrice, d.CompetitorBasePrice))
		}
	}
	return SufficiencyCheck{
		Name:      "Positive prices",
		Threshold: "= 100%",
		Actual:    fmt.Sprintf("%d/%d days", len(days)-bad, len(days)),
		Pass:      bad == 0 && len(days) > 0,
	}, errors
}

// checkLagSeed: the first day's lags and moving average are finite and non-negative.
func checkLagSeed(days []*domain.DayRecord) (SufficiencyCheck, []string) {
	check := SufficiencyCheck{
		Name:      "Lag seed",
		Threshold: fmt.Sprintf("%d lags + moving average, finite and >= 0", domain.LagCount),
	}
	if len(days) == 0 {
		check.Actual = "no days"
		return check, nil
	}

	seed := days[0]
	values := append(seed.LagFeatures[:], seed.MovingAvgFeature)
	names := make([]string, 0, len(values))
	for k := 1; k <= domain.LagCount; k++ {
		names = append(names, domain.LagFeatureName(k))
	}
	names = append(names, domain.FeatureMovingAvg7)

	var errors []string
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			errors = append(errors, fmt.Sprintf("seed %s = %v on %s", names[i], v, seed.Date.Format("2006-01-02")))
		}
	}
	check.Actual = fmt.Sprintf("%d invalid", len(errors))
	check.Pass = len(errors) == 0
	return check, errors
}

// checkEventDay: the horizon contains the highlighted day of month.
func checkEventDay(days []*domain.DayRecord, eventDay int) SufficiencyCheck {
	found := false
	for _, d := range days {
		if d.Date.Day() == eventDay {
			found = true
			break
		}
	}
	actual := "absent"
	if found {
		actual = "present"
	}
	return SufficiencyCheck{
		Name:      "Event day in horizon",
		Threshold: fmt.Sprintf("day %d present", eventDay),
		Actual:    actual,
		Pass:      found,
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
