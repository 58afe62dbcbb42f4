package summarycache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/healapp/mealtrack/internal/domain/nutrition"
	"github.com/healapp/mealtrack/internal/domain/summary"
)

// ValkeyCache keeps one generated daily summary per day key in a
// Valkey-compatible database.
type ValkeyCache struct {
	client valkey.Client
	prefix string
}

// NewValkeyCache constructs the cache.
func NewValkeyCache(client valkey.Client, prefix string) *ValkeyCache {
	if prefix == "" {
		prefix = "summary"
	}
	return &ValkeyCache{client: client, prefix: prefix}
}

func (c *ValkeyCache) Get(ctx context.Context, day string) (nutrition.DailySummary, bool, error) {
	cmd := c.client.B().Get().Key(c.dayKey(day)).Build()
	payload, err := c.client.Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nutrition.DailySummary{}, false, nil
		}
		return nutrition.DailySummary{}, false, err
	}
	var record nutrition.DailySummary
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return nutrition.DailySummary{}, false, err
	}
	return record, true, nil
}

func (c *ValkeyCache) Set(ctx context.Context, day string, s nutrition.DailySummary, ttl time.Duration) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}
	builder := c.client.B().Set().Key(c.dayKey(day)).Value(string(payload))
	var cmd valkey.Completed
	if ttl > 0 {
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return c.client.Do(ctx, cmd).Error()
}

func (c *ValkeyCache) dayKey(day string) string {
	return fmt.Sprintf("%s:day:%s", c.prefix, day)
}

var _ summary.Cache = (*ValkeyCache)(nil)
