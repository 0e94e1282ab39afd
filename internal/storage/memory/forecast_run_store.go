package memory

import (
	"context"
	"sort"
	"sync"

	"sales-forecast-lab/internal/domain"
	"sales-forecast-lab/internal/storage"
)

// ForecastRunStore is an in-memory implementation of storage.ForecastRunStore.
type ForecastRunStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ForecastRun // keyed by run_id
}

// NewForecastRunStore creates a new in-memory forecast run store.
func NewForecastRunStore() *ForecastRunStore {
	return &ForecastRunStore{
		data: make(map[string]*domain.ForecastRun),
	}
}

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *ForecastRunStore) Insert(_ context.Context, r *domain.ForecastRun) error {
	if r == nil || r.RunID == "" || r.ProductID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *r
	s.data[r.RunID] = &copy
	return nil
}

// InsertBulk adds the runs under one lock. Fails entire batch on any duplicate run_id.
func (s *ForecastRunStore) InsertBulk(_ context.Context, runs []*domain.ForecastRun) error {
	for _, r := range runs {
		if r == nil || r.RunID == "" || r.ProductID == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(runs))
	for _, r := range runs {
		if _, exists := s.data[r.RunID]; exists || seen[r.RunID] {
			return storage.ErrDuplicateKey
		}
		seen[r.RunID] = true
	}

	for _, r := range runs {
		copy := *r
		s.data[r.RunID] = &copy
	}
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *ForecastRunStore) GetByID(_ context.Context, runID string) (*domain.ForecastRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *r
	return &copy, nil
}

// GetByProduct retrieves all runs of a product, ordered by created_at ASC, run_id ASC.
func (s *ForecastRunStore) GetByProduct(_ context.Context, productID string) ([]*domain.ForecastRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ForecastRun
	for _, r := range s.data {
		if r.ProductID == productID {
			copy := *r
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].RunID < result[j].RunID
	})
	return result, nil
}

// GetByComparison retrieves the runs sharing a comparison_id, ordered by run_id ASC.
func (s *ForecastRunStore) GetByComparison(_ context.Context, comparisonID string) ([]*domain.ForecastRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ForecastRun
	if comparisonID == "" {
		return result, nil
	}
	for _, r := range s.data {
		if r.ComparisonID == comparisonID {
			copy := *r
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].RunID < result[j].RunID
	})
	return result, nil
}

var _ storage.ForecastRunStore = (*ForecastRunStore)(nil)
