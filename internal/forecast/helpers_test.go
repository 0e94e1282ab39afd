package forecast

import (
	"time"

	"sales-forecast-lab/internal/domain"
)

var horizonStart = time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)

// makeHorizon builds n consecutive days of one product with constant prices and seed lags.
func makeHorizon(n int, base, compBase float64, seed float64) []domain.DayRecord {
	days := make([]domain.DayRecord, n)
	for i := range days {
		date := horizonStart.AddDate(0, 0, i)
		days[i] = domain.DayRecord{
			ProductID:           "p-1",
			ProductName:         "Widget",
			Date:                date,
			DayOfWeek:           date.Weekday().String(),
			DayOfMonth:          date.Day(),
			BasePrice:           base,
			CompetitorBasePrice: compBase,
			Extra:               map[string]float64{"is_holiday": 0},
			LagFeatures:         [domain.LagCount]float64{seed, seed, seed, seed, seed, seed},
			MovingAvgFeature:    seed,
		}
	}
	return days
}

func allLagFeatures() []string {
	names := make([]string, 0, domain.LagCount)
	for k := 1; k <= domain.LagCount; k++ {
		names = append(names, domain.LagFeatureName(k))
	}
	return names
}
