package stub

import (
	"context"

	"sales-forecast-lab/internal/domain"
)

// StubDaySource returns fixed in-memory days for testing.
// Days can be intentionally unordered to test sorting.
// Implements ingestion.DaySource interface.
type StubDaySource struct {
	days []domain.DayRecord
	err  error
}

// NewStubDaySource creates a new stub day source with the given days.
func NewStubDaySource(days []domain.DayRecord) *StubDaySource {
	return &StubDaySource{days: days}
}

// NewFailingDaySource creates a source whose Fetch always fails with err.
func NewFailingDaySource(err error) *StubDaySource {
	return &StubDaySource{err: err}
}

// Fetch returns copies to prevent mutation.
func (s *StubDaySource) Fetch(_ context.Context) ([]domain.DayRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	result := make([]domain.DayRecord, len(s.days))
	for i := range s.days {
		result[i] = s.days[i].Clone()
	}
	return result, nil
}
