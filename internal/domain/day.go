package domain

import (
	"fmt"
	"time"
)

// LagCount is the number of lagged-target feature slots carried per day.
const LagCount = 6

// MovingAverageWindow is the number of recent predictions averaged into the moving-average feature.
const MovingAverageWindow = 7

// Feature column names understood by DayRecord.Feature.
const (
	FeatureBasePrice           = "base_price"
	FeatureCompetitorBasePrice = "competitor_base_price"
	FeatureSalePrice           = "sale_price"
	FeatureCompetitorPrice     = "competitor_price"
	FeatureDiscountPct         = "discount_pct"
	FeaturePriceRatio          = "price_ratio"
	FeatureMovingAvg7          = "units_ma7"
	FeatureDayOfMonth          = "day_of_month"
	FeatureDayOfWeek           = "day_of_week"
)

// LagFeatureName returns the column name of lag k (1-based), e.g. "units_lag3".
func LagFeatureName(k int) string {
	return fmt.Sprintf("units_lag%d", k)
}

// DayRecord is one calendar day of one product.
// Exogenous fields come from the input table; derived fields are written by the engine.
type DayRecord struct {
	// Exogenous
	ProductID           string
	ProductName         string
	Date                time.Time // UTC midnight
	DayOfWeek           string    // label from the input table, e.g. "Monday"
	DayOfMonth          int
	BasePrice           float64
	CompetitorBasePrice float64
	Extra               map[string]float64 // additional static model inputs

	// Target history features. Seeded from the input table; overwritten by the engine for days after the first.
	LagFeatures      [LagCount]float64 // [0] = lag1 (most recent)
	MovingAvgFeature float64

	// Scenario-adjusted prices
	SalePrice       float64
	CompetitorPrice float64
	DiscountPct     float64
	PriceRatio      float64

	// Prediction
	RawPrediction    float64 // regressor output before the zero floor
	PredictedUnits   float64
	ProjectedRevenue float64
}

// Clone returns a deep copy of the record.
func (d DayRecord) Clone() DayRecord {
	c := d
	if d.Extra != nil {
		c.Extra = make(map[string]float64, len(d.Extra))
		for k, v := range d.Extra {
			c.Extra[k] = v
		}
	}
	return c
}

// Feature resolves a model input column against the record's current state.
func (d *DayRecord) Feature(name string) (float64, bool) {
	switch name {
	case FeatureBasePrice:
		return d.BasePrice, true
	case FeatureCompetitorBasePrice:
		return d.CompetitorBasePrice, true
	case FeatureSalePrice:
		return d.SalePrice, true
	case FeatureCompetitorPrice:
		return d.CompetitorPrice, true
	case FeatureDiscountPct:
		return d.DiscountPct, true
	case FeaturePriceRatio:
		return d.PriceRatio, true
	case FeatureMovingAvg7:
		return d.MovingAvgFeature, true
	case FeatureDayOfMonth:
		return float64(d.DayOfMonth), true
	case FeatureDayOfWeek:
		return float64(weekdayIndex(d.Date)), true
	}
	for k := 1; k <= LagCount; k++ {
		if name == LagFeatureName(k) {
			return d.LagFeatures[k-1], true
		}
	}
	v, ok := d.Extra[name]
	return v, ok
}

// weekdayIndex maps Monday=0 .. Sunday=6.
func weekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// ProductRef identifies a product present in the input table.
type ProductRef struct {
	ProductID   string
	ProductName string
}
