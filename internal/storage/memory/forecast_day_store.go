package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"sales-forecast-lab/internal/domain"
	"sales-forecast-lab/internal/storage"
)

// ForecastDayStore is an in-memory implementation of storage.ForecastDayStore.
type ForecastDayStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ForecastDayPoint // keyed by (run_id, date)
}

// NewForecastDayStore creates a new in-memory forecast day store.
func NewForecastDayStore() *ForecastDayStore {
	return &ForecastDayStore{
		data: make(map[string]*domain.ForecastDayPoint),
	}
}

func pointKey(p *domain.ForecastDayPoint) string {
	return fmt.Sprintf("%s|%d", p.RunID, p.Date.Unix())
}

// InsertBulk adds multiple points. Fails entire batch on duplicate.
func (s *ForecastDayStore) InsertBulk(_ context.Context, points []*domain.ForecastDayPoint) error {
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(points))

	for _, p := range points {
		if p == nil || p.RunID == "" {
			return storage.ErrInvalidInput
		}
		key := pointKey(p)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, p := range points {
		pointCopy := *p
		s.data[pointKey(p)] = &pointCopy
	}
	return nil
}

// GetByRunID retrieves all points of a run, ordered by date ASC.
func (s *ForecastDayStore) GetByRunID(_ context.Context, runID string) ([]*domain.ForecastDayPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ForecastDayPoint
	for _, p := range s.data {
		if p.RunID == runID {
			pointCopy := *p
			result = append(result, &pointCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result, nil
}

var _ storage.ForecastDayStore = (*ForecastDayStore)(nil)
