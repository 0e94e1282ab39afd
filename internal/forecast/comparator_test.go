package forecast

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-forecast-lab/internal/domain"
	"sales-forecast-lab/internal/regressor"
)

// ratioModel sells more when the product is cheaper than the competitor.
func ratioModel() regressor.Regressor {
	return &regressor.FuncModel{
		Features: []string{domain.FeaturePriceRatio, domain.LagFeatureName(1), domain.FeatureMovingAvg7},
		Fn: func(x []float64) (float64, error) {
			return 20 - 10*x[0] + 0.3*x[1] + 0.1*x[2], nil
		},
	}
}

func TestComparator_ThreeScenarios(t *testing.T) {
	days := makeHorizon(30, 10, 10, 5)
	cmp, err := NewComparator(NewEngine(ratioModel())).Compare(context.Background(), days, 0)
	require.NoError(t, err)

	require.Len(t, cmp.Results, 3)
	require.Len(t, cmp.Deltas, 2)
	assert.Equal(t, "p-1", cmp.ProductID)

	actual := cmp.Results[domain.CompetitionActual]
	lower := cmp.Results[domain.CompetitionLower]
	higher := cmp.Results[domain.CompetitionHigher]

	// cheaper competitor → fewer units, pricier competitor → more units
	assert.Less(t, lower.Summary.TotalUnits, actual.Summary.TotalUnits)
	assert.Greater(t, higher.Summary.TotalUnits, actual.Summary.TotalUnits)

	assert.InDelta(t, lower.Summary.TotalUnits-actual.Summary.TotalUnits, cmp.Deltas[domain.CompetitionLower].Units, 1e-9)
	assert.InDelta(t, higher.Summary.TotalRevenue-actual.Summary.TotalRevenue, cmp.Deltas[domain.CompetitionHigher].Revenue, 1e-9)
	_, hasActual := cmp.Deltas[domain.CompetitionActual]
	assert.False(t, hasActual)
}

func TestComparator_ScenarioIsolation(t *testing.T) {
	days := makeHorizon(30, 10, 10, 5)
	engine := NewEngine(ratioModel())

	alone, err := engine.Run(context.Background(), days, domain.ScenarioConfig{DiscountPct: -15, Competition: domain.CompetitionActual})
	require.NoError(t, err)

	full, err := NewComparator(engine).Compare(context.Background(), days, -15)
	require.NoError(t, err)
	onlyLower, err := NewComparator(engine).CompareScenarios(context.Background(), days, -15, domain.CompetitionLower)
	require.NoError(t, err)

	assert.Equal(t, alone, full.Results[domain.CompetitionActual])
	assert.Equal(t, alone, onlyLower.Results[domain.CompetitionActual])
	assert.Equal(t, full.Results[domain.CompetitionLower], onlyLower.Results[domain.CompetitionLower])
	assert.NotContains(t, onlyLower.Results, domain.CompetitionHigher)
}

func TestComparator_InputUntouched(t *testing.T) {
	days := makeHorizon(10, 10, 10, 5)
	before := cloneDays(days)

	_, err := NewComparator(NewEngine(ratioModel())).Compare(context.Background(), days, 25)
	require.NoError(t, err)
	assert.Equal(t, before, days)
}

func TestComparator_FailureIsolatedPerScenario(t *testing.T) {
	boom := errors.New("model exploded")
	model := &regressor.FuncModel{
		Features: []string{domain.FeatureCompetitorPrice},
		Fn: func(x []float64) (float64, error) {
			// only the higher scenario sees 10.5
			if x[0] > 10.4 {
				return 0, boom
			}
			return 1, nil
		},
	}
	engine := NewEngine(model)
	days := makeHorizon(5, 10, 10, 1)

	alone, err := engine.Run(context.Background(), days, domain.ScenarioConfig{Competition: domain.CompetitionActual})
	require.NoError(t, err)

	cmp, err := NewComparator(engine).Compare(context.Background(), days, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, ErrModel)
	require.NotNil(t, cmp)

	assert.Equal(t, alone, cmp.Results[domain.CompetitionActual])
	assert.Contains(t, cmp.Results, domain.CompetitionLower)
	assert.NotContains(t, cmp.Results, domain.CompetitionHigher)

	require.Len(t, cmp.Errors, 1)
	assert.ErrorIs(t, cmp.Errors[domain.CompetitionHigher], boom)

	assert.Contains(t, cmp.Deltas, domain.CompetitionLower)
	assert.NotContains(t, cmp.Deltas, domain.CompetitionHigher)
}

func TestComparator_ActualFailureDropsDeltas(t *testing.T) {
	boom := errors.New("baseline only")
	model := &regressor.FuncModel{
		Features: []string{domain.FeatureCompetitorPrice},
		Fn: func(x []float64) (float64, error) {
			if x[0] == 10 {
				return 0, boom
			}
			return 2, nil
		},
	}

	cmp, err := NewComparator(NewEngine(model)).Compare(context.Background(), makeHorizon(5, 10, 10, 1), 0)
	assert.ErrorIs(t, err, boom)
	require.NotNil(t, cmp)
	assert.Len(t, cmp.Results, 2)
	assert.Empty(t, cmp.Deltas)
	assert.Contains(t, cmp.Errors, domain.CompetitionActual)
}

func TestComparator_ObserverSeesEveryRun(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[domain.CompetitionScenario]bool)
	comparator := NewComparator(NewEngine(ratioModel())).WithObserver(
		func(s domain.ScenarioConfig, elapsed time.Duration, res *domain.ForecastResult, err error) {
			mu.Lock()
			defer mu.Unlock()
			seen[s.Competition] = err == nil && res != nil && elapsed >= 0
		})

	_, err := comparator.Compare(context.Background(), makeHorizon(5, 10, 10, 5), 10)
	require.NoError(t, err)
	assert.Equal(t, map[domain.CompetitionScenario]bool{
		domain.CompetitionActual: true,
		domain.CompetitionLower:  true,
		domain.CompetitionHigher: true,
	}, seen)
}

func TestComparator_PreconditionFails(t *testing.T) {
	days := makeHorizon(5, 10, 10, 1)
	days[3].CompetitorBasePrice = 0

	cmp, err := NewComparator(NewEngine(ratioModel())).Compare(context.Background(), days, 0)
	assert.ErrorIs(t, err, ErrPrecondition)
	require.NotNil(t, cmp)
	assert.Empty(t, cmp.Results)
	assert.Len(t, cmp.Errors, 3)
}
