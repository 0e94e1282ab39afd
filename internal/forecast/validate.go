package forecast

import (
	"fmt"
	"time"

	"sales-forecast-lab/internal/domain"
)

// DiscountBounds is the inclusive range of accepted discount adjustments, in percent.
type DiscountBounds struct {
	Min float64
	Max float64
}

// DefaultDiscountBounds returns the default [-50, +50] range.
func DefaultDiscountBounds() DiscountBounds {
	return DiscountBounds{Min: domain.DefaultDiscountMin, Max: domain.DefaultDiscountMax}
}

// Validate checks that a horizon can be forecast with the given features and scenario.
// It reports the first violation found.
func Validate(days []domain.DayRecord, features []string, scenario domain.ScenarioConfig, bounds DiscountBounds) error {
	if !scenario.Competition.Valid() {
		return &PreconditionError{Index: -1, Field: "competition", Reason: fmt.Sprintf("unknown scenario %q", scenario.Competition)}
	}
	if scenario.DiscountPct < bounds.Min || scenario.DiscountPct > bounds.Max {
		return &PreconditionError{Index: -1, Field: "discount_pct",
			Reason: fmt.Sprintf("%g outside [%g, %g]", scenario.DiscountPct, bounds.Min, bounds.Max)}
	}
	if len(days) == 0 {
		return &PreconditionError{Index: -1, Field: "days", Reason: "empty horizon"}
	}

	productID := days[0].ProductID
	for i := range days {
		d := &days[i]
		fail := func(field, reason string) error {
			return &PreconditionError{Index: i, Date: d.Date, Field: field, Reason: reason}
		}

		if d.ProductID != productID {
			return fail("product_id", fmt.Sprintf("%q differs from %q", d.ProductID, productID))
		}
		if !(d.BasePrice > 0) {
			return fail(domain.FeatureBasePrice, fmt.Sprintf("must be positive, got %g", d.BasePrice))
		}
		if !(d.CompetitorBasePrice > 0) {
			return fail(domain.FeatureCompetitorBasePrice, fmt.Sprintf("must be positive, got %g", d.CompetitorBasePrice))
		}
		if i > 0 {
			prev := calendarDay(days[i-1].Date)
			cur := calendarDay(d.Date)
			switch {
			case !cur.After(prev):
				return fail("date", "not after previous day")
			case !cur.Equal(prev.AddDate(0, 0, 1)):
				return fail("date", fmt.Sprintf("gap after %s", prev.Format("2006-01-02")))
			}
		}
		for _, name := range features {
			if _, ok := d.Feature(name); !ok {
				return fail(name, "missing feature column")
			}
		}
	}
	return nil
}

func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
