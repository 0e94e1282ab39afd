package forecast

import (
	"math"
	"testing"

	"sales-forecast-lab/internal/domain"
)

func TestAdjustPrices(t *testing.T) {
	tests := []struct {
		name           string
		base, compBase float64
		scenario       domain.ScenarioConfig
		wantSale       float64
		wantComp       float64
		wantDisc       float64
		wantRatio      float64
	}{
		{
			name: "no discount actual", base: 10, compBase: 9,
			scenario: domain.ScenarioConfig{DiscountPct: 0, Competition: domain.CompetitionActual},
			wantSale: 10, wantComp: 9, wantDisc: 0, wantRatio: 10.0 / 9.0,
		},
		{
			name: "price cut lower competition", base: 100, compBase: 100,
			scenario: domain.ScenarioConfig{DiscountPct: -20, Competition: domain.CompetitionLower},
			wantSale: 80, wantComp: 95, wantDisc: -20, wantRatio: 80.0 / 95.0,
		},
		{
			name: "price rise higher competition", base: 40, compBase: 50,
			scenario: domain.ScenarioConfig{DiscountPct: 10, Competition: domain.CompetitionHigher},
			wantSale: 44, wantComp: 52.5, wantDisc: 10, wantRatio: 44.0 / 52.5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AdjustPrices(tt.base, tt.compBase, tt.scenario)
			check := func(field string, got, want float64) {
				if math.Abs(got-want) > 1e-9 {
					t.Errorf("%s: got %v, want %v", field, got, want)
				}
			}
			check("SalePrice", got.SalePrice, tt.wantSale)
			check("CompetitorPrice", got.CompetitorPrice, tt.wantComp)
			check("DiscountPct", got.DiscountPct, tt.wantDisc)
			check("PriceRatio", got.PriceRatio, tt.wantRatio)
		})
	}
}

func TestAdjustPrices_DiscountRoundTrip(t *testing.T) {
	for d := -50.0; d <= 50; d += 2.5 {
		got := AdjustPrices(17.3, 11, domain.ScenarioConfig{DiscountPct: d, Competition: domain.CompetitionActual})
		if math.Abs(got.DiscountPct-d) > 1e-9 {
			t.Errorf("discount %v: recomputed %v", d, got.DiscountPct)
		}
	}
}

func TestAdjustedPrices_Apply(t *testing.T) {
	d := &domain.DayRecord{BasePrice: 10, CompetitorBasePrice: 10}
	AdjustPrices(d.BasePrice, d.CompetitorBasePrice, domain.ScenarioConfig{DiscountPct: 50, Competition: domain.CompetitionLower}).Apply(d)

	if d.SalePrice != 15 {
		t.Errorf("expected sale price 15, got %v", d.SalePrice)
	}
	if d.CompetitorPrice != 9.5 {
		t.Errorf("expected competitor price 9.5, got %v", d.CompetitorPrice)
	}
	if d.BasePrice != 10 || d.CompetitorBasePrice != 10 {
		t.Error("base prices must not change")
	}
}
