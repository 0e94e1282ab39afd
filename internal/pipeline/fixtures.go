package pipeline

import (
	"context"
	"time"

	"sales-forecast-lab/internal/domain"
	"sales-forecast-lab/internal/regressor"
	"sales-forecast-lab/internal/storage"
)

// FixtureEventFeature flags the promotional day in fixture data.
const FixtureEventFeature = "is_black_friday"

type fixtureProduct struct {
	id, name           string
	basePrice, compBase float64
	lags               [domain.LagCount]float64
}

var fixtureProducts = []fixtureProduct{
	{id: "SKU-1001", name: "Espresso Beans 1kg", basePrice: 24.90, compBase: 26.50, lags: [domain.LagCount]float64{42, 39, 44, 41, 37, 40}},
	{id: "SKU-2002", name: "Wireless Earbuds", basePrice: 79.00, compBase: 74.00, lags: [domain.LagCount]float64{18, 21, 17, 19, 22, 20}},
}

// LoadFixtures populates the product store with a November 2024 horizon for demonstration.
func LoadFixtures(ctx context.Context, store storage.ProductDayStore) error {
	for _, p := range fixtureProducts {
		if err := store.InsertBulk(ctx, fixtureDays(p)); err != nil {
			return err
		}
	}
	return nil
}

func fixtureDays(p fixtureProduct) []*domain.DayRecord {
	start := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)
	days := make([]*domain.DayRecord, 30)

	var seedSum float64
	for _, v := range p.lags {
		seedSum += v
	}

	for i := range days {
		date := start.AddDate(0, 0, i)
		weekend := 0.0
		if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			weekend = 1
		}
		event := 0.0
		if date.Day() == 28 {
			event = 1
		}
		days[i] = &domain.DayRecord{
			ProductID:           p.id,
			ProductName:         p.name,
			Date:                date,
			DayOfWeek:           date.Weekday().String(),
			DayOfMonth:          date.Day(),
			BasePrice:           p.basePrice,
			CompetitorBasePrice: p.compBase,
			Extra: map[string]float64{
				"is_weekend":        weekend,
				FixtureEventFeature: event,
			},
			LagFeatures:      p.lags,
			MovingAvgFeature: seedSum / float64(domain.LagCount),
		}
	}
	return days
}

// DemoModel returns a linear model over fixture features.
func DemoModel() *regressor.LinearModel {
	return &regressor.LinearModel{
		Name:      "demo-linear",
		Version:   "2024-11",
		Intercept: 9,
		Features: []regressor.Coefficient{
			{Name: domain.FeaturePriceRatio, Coef: -8},
			{Name: domain.FeatureDiscountPct, Coef: -0.15},
			{Name: domain.LagFeatureName(1), Coef: 0.45},
			{Name: domain.LagFeatureName(6), Coef: 0.1},
			{Name: domain.FeatureMovingAvg7, Coef: 0.35},
			{Name: "is_weekend", Coef: 3},
			{Name: FixtureEventFeature, Coef: 25},
		},
	}
}
