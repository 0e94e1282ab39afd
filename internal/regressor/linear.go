package regressor

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Coefficient is one named weight of a linear model.
type Coefficient struct {
	Name string  `yaml:"name"`
	Coef float64 `yaml:"coef"`
}

// LinearModel predicts intercept + sum(coef_i * x_i).
type LinearModel struct {
	Name      string        `yaml:"name"`
	Version   string        `yaml:"version"`
	Intercept float64       `yaml:"intercept"`
	Features  []Coefficient `yaml:"features"`
}

// LoadLinearModelFile reads a YAML model artifact from path.
func LoadLinearModelFile(path string) (*LinearModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model: %w", err)
	}
	defer f.Close()
	return LoadLinearModel(f)
}

// LoadLinearModel decodes a YAML model artifact.
//
//	name: units-linear
//	version: "2024-11"
//	intercept: 4.2
//	features:
//	  - name: price_ratio
//	    coef: -3.1
func LoadLinearModel(r io.Reader) (*LinearModel, error) {
	var m LinearModel
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the model has at least one uniquely named feature.
func (m *LinearModel) Validate() error {
	if len(m.Features) == 0 {
		return fmt.Errorf("%w: no features", ErrInvalidModel)
	}
	seen := make(map[string]bool, len(m.Features))
	for i, f := range m.Features {
		if f.Name == "" {
			return fmt.Errorf("%w: feature %d has no name", ErrInvalidModel, i)
		}
		if seen[f.Name] {
			return fmt.Errorf("%w: duplicate feature %q", ErrInvalidModel, f.Name)
		}
		seen[f.Name] = true
	}
	return nil
}

// FeatureNames implements Regressor.
func (m *LinearModel) FeatureNames() []string {
	names := make([]string, len(m.Features))
	for i, f := range m.Features {
		names[i] = f.Name
	}
	return names
}

// Predict implements Regressor.
func (m *LinearModel) Predict(features []float64) (float64, error) {
	if len(features) != len(m.Features) {
		return 0, fmt.Errorf("%w: want %d, got %d", ErrFeatureCount, len(m.Features), len(features))
	}
	y := m.Intercept
	for i, f := range m.Features {
		y += f.Coef * features[i]
	}
	return y, nil
}

// ModelName implements Describer.
func (m *LinearModel) ModelName() string { return m.Name }

// ModelVersion implements Describer.
func (m *LinearModel) ModelVersion() string { return m.Version }
