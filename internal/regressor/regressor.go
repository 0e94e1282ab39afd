// Package regressor defines the prediction contract consumed by the forecast engine
// and a few concrete models.
package regressor

import (
	"errors"
	"fmt"
)

// Regressor errors
var (
	ErrFeatureCount = errors.New("feature vector length does not match declared features")
	ErrInvalidModel = errors.New("invalid model")
)

// Regressor maps one feature vector to one scalar estimate.
// FeatureNames declares the ordered input columns; Predict receives values in that order.
// Implementations must be safe for concurrent use.
type Regressor interface {
	FeatureNames() []string
	Predict(features []float64) (float64, error)
}

// Describer is implemented by models that carry a name and version.
type Describer interface {
	ModelName() string
	ModelVersion() string
}

// Describe returns the model's name and version, or ("unknown", "0") when it does not carry them.
func Describe(r Regressor) (name, version string) {
	if d, ok := r.(Describer); ok {
		return d.ModelName(), d.ModelVersion()
	}
	return "unknown", "0"
}

func checkLen(want []string, got []float64) error {
	if len(want) != len(got) {
		return fmt.Errorf("%w: want %d, got %d", ErrFeatureCount, len(want), len(got))
	}
	return nil
}

// ConstantModel always predicts Value.
type ConstantModel struct {
	Value    float64
	Features []string
}

// NewConstantModel creates a model returning value for any input over the given features.
func NewConstantModel(value float64, features ...string) *ConstantModel {
	return &ConstantModel{Value: value, Features: features}
}

// FeatureNames implements Regressor.
func (m *ConstantModel) FeatureNames() []string { return copyNames(m.Features) }

// Predict implements Regressor.
func (m *ConstantModel) Predict(features []float64) (float64, error) {
	if err := checkLen(m.Features, features); err != nil {
		return 0, err
	}
	return m.Value, nil
}

// ModelName implements Describer.
func (m *ConstantModel) ModelName() string { return "constant" }

// ModelVersion implements Describer.
func (m *ConstantModel) ModelVersion() string { return fmt.Sprintf("%g", m.Value) }

// FuncModel adapts a plain function to Regressor.
type FuncModel struct {
	Name     string
	Features []string
	Fn       func(features []float64) (float64, error)
}

// FeatureNames implements Regressor.
func (m *FuncModel) FeatureNames() []string { return copyNames(m.Features) }

// Predict implements Regressor.
func (m *FuncModel) Predict(features []float64) (float64, error) {
	if err := checkLen(m.Features, features); err != nil {
		return 0, err
	}
	return m.Fn(features)
}

// ModelName implements Describer.
func (m *FuncModel) ModelName() string {
	if m.Name == "" {
		return "func"
	}
	return m.Name
}

// ModelVersion implements Describer.
func (m *FuncModel) ModelVersion() string { return "0" }

func copyNames(names []string) []string {
	out := make([]string, len(names))
	copy(out, names)
	return out
}
