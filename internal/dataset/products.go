package dataset

import (
	"fmt"
	"sort"

	"sales-forecast-lab/internal/domain"
)

// Products returns the distinct products of the table sorted by id.
// The first name seen for an id wins.
func Products(days []domain.DayRecord) []domain.ProductRef {
	names := make(map[string]string)
	for i := range days {
		if _, ok := names[days[i].ProductID]; !ok {
			names[days[i].ProductID] = days[i].ProductName
		}
	}
	refs := make([]domain.ProductRef, 0, len(names))
	for id, name := range names {
		refs = append(refs, domain.ProductRef{ProductID: id, ProductName: name})
	}
	sort.Slice(refs, func(i, j int) bool {
		return refs[i].ProductID < refs[j].ProductID
	})
	return refs
}

// PrepareProduct returns copies of one product's days sorted by date.
func PrepareProduct(days []domain.DayRecord, productID string) ([]domain.DayRecord, error) {
	var out []domain.DayRecord
	for i := range days {
		if days[i].ProductID == productID {
			out = append(out, days[i].Clone())
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}
	SortByDate(out)
	return out, nil
}

// SortByDate orders days by date in place, keeping input order for equal dates.
func SortByDate(days []domain.DayRecord) {
	sort.SliceStable(days, func(i, j int) bool {
		return days[i].Date.Before(days[j].Date)
	})
}
