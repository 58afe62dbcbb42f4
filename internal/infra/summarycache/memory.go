package summarycache

import (
	"context"
	"sync"
	"time"

	"github.com/healapp/mealtrack/internal/domain/nutrition"
	"github.com/healapp/mealtrack/internal/domain/summary"
)

type memoryEntry struct {
	record    nutrition.DailySummary
	expiresAt time.Time
}

// MemoryCache keeps summaries in process memory with per-day expiry.
// Used when no Valkey instance is configured and in tests.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache constructs an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, day string) (nutrition.DailySummary, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[day]
	if !ok {
		return nutrition.DailySummary{}, false, nil
	}
	if !entry.expiresAt.IsZero() && c.now().After(entry.expiresAt) {
		delete(c.entries, day)
		return nutrition.DailySummary{}, false, nil
	}
	return entry.record, true, nil
}

func (c *MemoryCache) Set(_ context.Context, day string, s nutrition.DailySummary, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry := memoryEntry{record: s}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}
	c.entries[day] = entry
	return nil
}

// SetNow overrides the clock for expiry tests.
func (c *MemoryCache) SetNow(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

var _ summary.Cache = (*MemoryCache)(nil)
