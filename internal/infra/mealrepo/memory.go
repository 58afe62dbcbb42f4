package mealrepo

import (
	"context"
	"sync"

	"github.com/healapp/mealtrack/internal/domain/ledger"
	"github.com/healapp/mealtrack/internal/domain/nutrition"
)

// MemoryStore keeps meal records in process memory for tests/dev.
type MemoryStore struct {
	mu   sync.RWMutex
	days map[string][]nutrition.MealRecord
}

// NewMemoryStore constructs an empty in-memory meal store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{days: make(map[string][]nutrition.MealRecord)}
}

// Append adds a record to the given day.
func (s *MemoryStore) Append(_ context.Context, day string, rec nutrition.MealRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.days[day] = append(s.days[day], rec)
	return nil
}

// Day returns the day's records in insertion order.
func (s *MemoryStore) Day(_ context.Context, day string) ([]nutrition.MealRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := s.days[day]
	out := make([]nutrition.MealRecord, len(records))
	copy(out, records)
	return out, nil
}

// Clear removes the day's records.
func (s *MemoryStore) Clear(_ context.Context, day string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.days, day)
	return nil
}

var _ ledger.Store = (*MemoryStore)(nil)
