package regressor

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleModel = `
name: units-linear
version: "v3"
intercept: 2.5
features:
  - name: price_ratio
    coef: -4
  - name: units_lag1
    coef: 0.5
  - name: units_ma7
    coef: 0.25
`

func TestLoadLinearModel(t *testing.T) {
	m, err := LoadLinearModel(strings.NewReader(sampleModel))
	require.NoError(t, err)

	assert.Equal(t, []string{"price_ratio", "units_lag1", "units_ma7"}, m.FeatureNames())

	// 2.5 - 4*1.0 + 0.5*10 + 0.25*8 = 5.5
	y, err := m.Predict([]float64{1.0, 10, 8})
	require.NoError(t, err)
	assert.InDelta(t, 5.5, y, 1e-12)

	name, version := Describe(m)
	assert.Equal(t, "units-linear", name)
	assert.Equal(t, "v3", version)
}

func TestLoadLinearModel_Invalid(t *testing.T) {
	cases := map[string]string{
		"no features":   "name: x\nintercept: 1\n",
		"duplicate":     "name: x\nfeatures:\n  - {name: a, coef: 1}\n  - {name: a, coef: 2}\n",
		"empty name":    "name: x\nfeatures:\n  - {coef: 1}\n",
		"unknown field": "name: x\nbias: 3\nfeatures:\n  - {name: a, coef: 1}\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadLinearModel(strings.NewReader(doc))
			require.Error(t, err)
		})
	}
}

func TestLinearModel_WrongLength(t *testing.T) {
	m, err := LoadLinearModel(strings.NewReader(sampleModel))
	require.NoError(t, err)

	_, err = m.Predict([]float64{1})
	assert.True(t, errors.Is(err, ErrFeatureCount))
}

func TestConstantModel(t *testing.T) {
	m := NewConstantModel(8, "sale_price")
	y, err := m.Predict([]float64{123})
	require.NoError(t, err)
	assert.Equal(t, 8.0, y)

	names := m.FeatureNames()
	names[0] = "mutated"
	assert.Equal(t, []string{"sale_price"}, m.FeatureNames())
}

func TestFuncModel(t *testing.T) {
	m := &FuncModel{
		Features: []string{"a", "b"},
		Fn: func(x []float64) (float64, error) {
			return x[0] * x[1], nil
		},
	}
	y, err := m.Predict([]float64{3, 4})
	require.NoError(t, err)
	assert.Equal(t, 12.0, y)

	name, version := Describe(m)
	assert.Equal(t, "func", name)
	assert.Equal(t, "0", version)
}

type bareModel struct{}

func (bareModel) FeatureNames() []string              { return nil }
func (bareModel) Predict([]float64) (float64, error) { return 0, nil }

func TestDescribe_Unknown(t *testing.T) {
	name, version := Describe(bareModel{})
	assert.Equal(t, "unknown", name)
	assert.Equal(t, "0", version)
}
