package ingestion

import (
	"context"

	"sales-forecast-lab/internal/dataset"
	"sales-forecast-lab/internal/domain"
)

// DaySource provides raw input-table rows from an external source.
type DaySource interface {
	// Fetch returns every row the source holds. Rows may be unordered and may
	// mix products; Manager enforces deterministic ordering.
	Fetch(ctx context.Context) ([]domain.DayRecord, error)
}

// CSVSource reads the input table from a CSV file.
type CSVSource struct {
	Path string
}

// NewCSVSource creates a source reading path.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{Path: path}
}

// Fetch parses the whole file.
func (s *CSVSource) Fetch(ctx context.Context) ([]domain.DayRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return dataset.LoadCSVFile(s.Path)
}
