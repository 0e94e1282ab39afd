package forecast

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-forecast-lab/internal/domain"
)

func TestValidate(t *testing.T) {
	features := []string{domain.LagFeatureName(1), "is_holiday"}

	tests := []struct {
		name      string
		mutate    func(days []domain.DayRecord) []domain.DayRecord
		scenario  domain.ScenarioConfig
		wantField string
		wantIndex int
	}{
		{
			name:      "empty",
			mutate:    func([]domain.DayRecord) []domain.DayRecord { return nil },
			wantField: "days", wantIndex: -1,
		},
		{
			name: "out of order",
			mutate: func(d []domain.DayRecord) []domain.DayRecord {
				d[1], d[2] = d[2], d[1]
				return d
			},
			wantField: "date", wantIndex: 1,
		},
		{
			name: "duplicate date",
			mutate: func(d []domain.DayRecord) []domain.DayRecord {
				d[2].Date = d[1].Date
				return d
			},
			wantField: "date", wantIndex: 2,
		},
		{
			name: "gap",
			mutate: func(d []domain.DayRecord) []domain.DayRecord {
				return append(d[:2], d[3:]...)
			},
			wantField: "date", wantIndex: 2,
		},
		{
			name: "zero competitor price",
			mutate: func(d []domain.DayRecord) []domain.DayRecord {
				d[3].CompetitorBasePrice = 0
				return d
			},
			wantField: domain.FeatureCompetitorBasePrice, wantIndex: 3,
		},
		{
			name: "negative base price",
			mutate: func(d []domain.DayRecord) []domain.DayRecord {
				d[0].BasePrice = -1
				return d
			},
			wantField: domain.FeatureBasePrice, wantIndex: 0,
		},
		{
			name: "mixed products",
			mutate: func(d []domain.DayRecord) []domain.DayRecord {
				d[4].ProductID = "p-2"
				return d
			},
			wantField: "product_id", wantIndex: 4,
		},
		{
			name: "missing feature column",
			mutate: func(d []domain.DayRecord) []domain.DayRecord {
				delete(d[1].Extra, "is_holiday")
				return d
			},
			wantField: "is_holiday", wantIndex: 1,
		},
		{
			name:      "unknown scenario",
			scenario:  domain.ScenarioConfig{Competition: "sideways"},
			wantField: "competition", wantIndex: -1,
		},
		{
			name:      "discount below range",
			scenario:  domain.ScenarioConfig{DiscountPct: -50.5, Competition: domain.CompetitionActual},
			wantField: "discount_pct", wantIndex: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days := makeHorizon(5, 10, 9, 1)
			if tt.mutate != nil {
				days = tt.mutate(days)
			}
			scenario := tt.scenario
			if scenario.Competition == "" {
				scenario.Competition = domain.CompetitionActual
			}

			err := Validate(days, features, scenario, DefaultDiscountBounds())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrPrecondition)

			var pe *PreconditionError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.wantField, pe.Field)
			assert.Equal(t, tt.wantIndex, pe.Index)
		})
	}
}

func TestValidate_OK(t *testing.T) {
	days := makeHorizon(30, 10, 9, 1)
	err := Validate(days, append(allLagFeatures(), domain.FeatureDayOfWeek), domain.ScenarioConfig{DiscountPct: 50, Competition: domain.CompetitionHigher}, DefaultDiscountBounds())
	assert.NoError(t, err)
}

func TestValidate_EngineRejectsBeforePredicting(t *testing.T) {
	days := makeHorizon(3, 10, 9, 1)
	days[2].CompetitorBasePrice = -2

	_, err := NewEngine(lagEcho()).Run(t.Context(), days, actualNoDiscount)
	assert.ErrorIs(t, err, ErrPrecondition)
}
