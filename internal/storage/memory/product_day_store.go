package memory

import (
	"context"
	"sort"
	"sync"

	"sales-forecast-lab/internal/domain"
	"sales-forecast-lab/internal/storage"
)

// ProductDayStore is an in-memory implementation of storage.ProductDayStore.
type ProductDayStore struct {
	mu   sync.RWMutex
	data map[string]*domain.DayRecord // keyed by (product_id, date)
}

// NewProductDayStore creates a new in-memory product day store.
func NewProductDayStore() *ProductDayStore {
	return &ProductDayStore{
		data: make(map[string]*domain.DayRecord),
	}
}

func dayKey(productID string, d *domain.DayRecord) string {
	return productID + "|" + d.Date.Format("2006-01-02")
}

// InsertBulk adds multiple days. Fails entire batch on duplicate.
func (s *ProductDayStore) InsertBulk(_ context.Context, days []*domain.DayRecord) error {
	if len(days) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(days))
	for _, d := range days {
		if d == nil || d.ProductID == "" || d.Date.IsZero() {
			return storage.ErrInvalidInput
		}
		key := dayKey(d.ProductID, d)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, d := range days {
		c := d.Clone()
		s.data[dayKey(d.ProductID, d)] = &c
	}
	return nil
}

// GetByProduct retrieves all days of a product, ordered by date ASC.
func (s *ProductDayStore) GetByProduct(_ context.Context, productID string) ([]*domain.DayRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.DayRecord
	for _, d := range s.data {
		if d.ProductID == productID {
			c := d.Clone()
			result = append(result, &c)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result, nil
}

// ListProducts returns distinct products ordered by product_id.
func (s *ProductDayStore) ListProducts(_ context.Context) ([]domain.ProductRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make(map[string]string)
	for _, d := range s.data {
		if _, ok := names[d.ProductID]; !ok {
			names[d.ProductID] = d.ProductName
		}
	}
	result := make([]domain.ProductRef, 0, len(names))
	for id, name := range names {
		result = append(result, domain.ProductRef{ProductID: id, ProductName: name})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ProductID < result[j].ProductID
	})
	return result, nil
}

var _ storage.ProductDayStore = (*ProductDayStore)(nil)
