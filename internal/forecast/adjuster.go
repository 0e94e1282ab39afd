package forecast

import "sales-forecast-lab/internal/domain"

// AdjustedPrices holds the scenario-adjusted pricing fields of one day.
type AdjustedPrices struct {
	SalePrice       float64
	CompetitorPrice float64
	DiscountPct     float64
	PriceRatio      float64
}

// AdjustPrices derives the sale and competitor prices of a day under a scenario.
// Base and competitor base prices must be positive; Validate guarantees it.
func AdjustPrices(basePrice, competitorBasePrice float64, s domain.ScenarioConfig) AdjustedPrices {
	sale := basePrice * (1 + s.DiscountPct/100)
	competitor := competitorBasePrice * s.Competition.CompetitorMultiplier()
	return AdjustedPrices{
		SalePrice:       sale,
		CompetitorPrice: competitor,
		// recomputed from prices, equals DiscountPct up to rounding
		DiscountPct: (sale - basePrice) / basePrice * 100,
		PriceRatio:  sale / competitor,
	}
}

// Apply writes the adjusted prices onto the day.
func (a AdjustedPrices) Apply(d *domain.DayRecord) {
	d.SalePrice = a.SalePrice
	d.CompetitorPrice = a.CompetitorPrice
	d.DiscountPct = a.DiscountPct
	d.PriceRatio = a.PriceRatio
}
