package profilerepo

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/healapp/mealtrack/internal/domain/nutrition"
	"github.com/healapp/mealtrack/internal/domain/profile"
	apperrors "github.com/healapp/mealtrack/pkg/errors"
)

// Record keys; each record is independently serialized so either may be
// absent without corrupting the other.
const (
	keyProfile = "profile"
	keyBudget  = "budget"
)

// MemoryRepository keeps the encoded profile/budget records in memory for
// tests/dev. Records are stored encoded so decode failures behave like the
// durable implementations.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[string][]byte)}
}

// SaveProfile stores the profile record.
func (r *MemoryRepository) SaveProfile(_ context.Context, p nutrition.UserProfile) error {
	return r.save(keyProfile, p)
}

// SaveBudget stores the budget record.
func (r *MemoryRepository) SaveBudget(_ context.Context, b nutrition.DailyBudget) error {
	return r.save(keyBudget, b)
}

// LoadProfile restores the profile record if present.
func (r *MemoryRepository) LoadProfile(context.Context) (nutrition.UserProfile, bool, error) {
	var p nutrition.UserProfile
	found, err := r.load(keyProfile, &p)
	return p, found, err
}

// LoadBudget restores the budget record if present.
func (r *MemoryRepository) LoadBudget(context.Context) (nutrition.DailyBudget, bool, error) {
	var b nutrition.DailyBudget
	found, err := r.load(keyBudget, &b)
	return b, found, err
}

// Corrupt overwrites a stored record with undecodable bytes. Test hook.
func (r *MemoryRepository) Corrupt(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[key] = []byte("{not json")
}

func (r *MemoryRepository) save(key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[key] = payload
	return nil
}

func (r *MemoryRepository) load(key string, v any) (bool, error) {
	r.mu.RLock()
	payload, ok := r.records[key]
	r.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return false, apperrors.Wrap(apperrors.CodePersistenceCorrupt, "decode "+key+" record", err)
	}
	return true, nil
}

var _ profile.Repository = (*MemoryRepository)(nil)
