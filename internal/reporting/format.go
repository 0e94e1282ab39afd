package reporting

import (
	"github.com/shopspring/decimal"
)

// money rounds half away from zero to cents.
func money(v float64) string {
	return decimal.NewFromFloat(v).Round(2).StringFixed(2)
}

// signedMoney is money with an explicit sign for positive values.
func signedMoney(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	if d.IsPositive() {
		return "+" + d.StringFixed(2)
	}
	return d.StringFixed(2)
}

// units renders a unit count with one decimal place.
func units(v float64) string {
	return decimal.NewFromFloat(v).Round(1).StringFixed(1)
}

func signedUnits(v float64) string {
	d := decimal.NewFromFloat(v).Round(1)
	if d.IsPositive() {
		return "+" + d.StringFixed(1)
	}
	return d.StringFixed(1)
}

func percent(v float64) string {
	return decimal.NewFromFloat(v).Round(2).StringFixed(2) + "%"
}
