package ingestion

import (
	"errors"
	"sort"
	"strings"

	"sales-forecast-lab/internal/domain"
)

// ErrInvalidOrdering is returned when days are not properly ordered.
var ErrInvalidOrdering = errors.New("days are not in deterministic order")

// SortDays orders days by (product_id ASC, date ASC).
func SortDays(days []*domain.DayRecord) {
	sort.SliceStable(days, func(i, j int) bool {
		return compareDays(days[i], days[j]) < 0
	})
}

// ValidateDayOrdering checks that days are strictly ordered by (product_id, date).
// Equal keys are duplicates and also fail.
func ValidateDayOrdering(days []*domain.DayRecord) error {
	for i := 1; i < len(days); i++ {
		if compareDays(days[i-1], days[i]) >= 0 {
			return ErrInvalidOrdering
		}
	}
	return nil
}

// compareDays returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
//
// Order: (product_id ASC, date ASC)
func compareDays(a, b *domain.DayRecord) int {
	if c := strings.Compare(a.ProductID, b.ProductID); c != 0 {
		return c
	}
	return a.Date.Compare(b.Date)
}
