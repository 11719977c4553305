package recommend

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"mediashelf/internal/cache"
	"mediashelf/internal/models"

	"github.com/sirupsen/logrus"
)

const (
	recommendationKeyPrefix = "recommendations:"

	// DefaultTTL is how long a generated set stays valid.
	DefaultTTL = time.Hour
)

// Trigger records what caused a generation pass.
type Trigger string

const (
	TriggerUserAction  Trigger = "user_action"
	TriggerPeriodic    Trigger = "periodic"
	TriggerCacheExpiry Trigger = "cache_expiry"
)

// CacheEntry is one cached generation result. It is valid while younger than
// the TTL and only for requests whose filters structurally match the ones it
// was generated with.
type CacheEntry struct {
	Recommendations []models.Recommendation `json:"recommendations"`
	Profile         models.UserProfile      `json:"profile"`
	Timestamp       time.Time               `json:"timestamp"`
	Filters         models.Filters          `json:"filters"`
	Trigger         Trigger                 `json:"trigger,omitempty"`
}

// Cache stores generated recommendation sets per user in an injected KV.
type Cache struct {
	kv     cache.KV
	ttl    time.Duration
	logger *logrus.Logger
}

func NewCache(kv cache.KV, ttl time.Duration, logger *logrus.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{kv: kv, ttl: ttl, logger: logger}
}

// Get returns the cached entry for the user if it is still fresh and was
// generated with structurally equal filters. Any mismatch is a miss, never an
// error.
func (c *Cache) Get(ctx context.Context, userID string, filters models.Filters) (*CacheEntry, bool) {
	raw, err := c.kv.Get(ctx, recommendationKeyPrefix+userID)
	if err != nil {
		if err != cache.ErrMiss {
			c.logger.WithError(err).WithField("user_id", userID).Warn("Failed to read recommendation cache")
		}
		return nil, false
	}

	var entry CacheEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		c.logger.WithError(err).WithField("user_id", userID).Warn("Corrupt recommendation cache entry, ignoring")
		return nil, false
	}

	if time.Since(entry.Timestamp) >= c.ttl {
		return nil, false
	}
	if !FiltersEqual(entry.Filters, filters) {
		return nil, false
	}
	return &entry, true
}

func (c *Cache) Put(ctx context.Context, userID string, entry *CacheEntry) error {
	encoded, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return c.kv.Set(ctx, recommendationKeyPrefix+userID, string(encoded), c.ttl)
}

func (c *Cache) Invalidate(ctx context.Context, userID string) error {
	return c.kv.Del(ctx, recommendationKeyPrefix+userID)
}

// FiltersEqual compares two filter sets structurally via their canonical JSON
// encoding after normalization.
func FiltersEqual(a, b models.Filters) bool {
	aJSON, errA := json.Marshal(a.Normalized())
	bJSON, errB := json.Marshal(b.Normalized())
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(aJSON, bJSON)
}
