// Package cache holds the distinct-cities picker set so the feed pages do
// not hit the store on every render. Redis-backed when a client is
// configured, plain in-memory otherwise; either way a miss just falls
// through to the database.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"cityevents/internal/logger"
)

const citiesKey = "eventboard:cities"

type memoryEntry struct {
	cities    []string
	expiresAt time.Time
}

func (e *memoryEntry) valid() bool {
	return e != nil && time.Now().Before(e.expiresAt)
}

type Cache struct {
	client *redis.Client // nil means in-memory only
	ttl    time.Duration
	logger *logger.Logger

	mu     sync.Mutex
	memory *memoryEntry
}

func New(client *redis.Client, ttl time.Duration, log *logger.Logger) *Cache {
	return &Cache{client: client, ttl: ttl, logger: log}
}

// GetCities returns the cached set and whether it was a hit. Redis errors
// degrade to the in-memory copy; they never surface to the caller.
func (c *Cache) GetCities(ctx context.Context) ([]string, bool) {
	if c.client != nil {
		raw, err := c.client.Get(ctx, citiesKey).Result()
		if err == nil {
			var cities []string
			if err := json.Unmarshal([]byte(raw), &cities); err == nil {
				return cities, true
			}
		} else if err != redis.Nil {
			c.logger.Warn("CACHE", fmt.Sprintf("redis get failed: %v", err))
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.memory.valid() {
		return c.memory.cities, true
	}
	return nil, false
}

func (c *Cache) SetCities(ctx context.Context, cities []string) {
	if c.client != nil {
		if raw, err := json.Marshal(cities); err == nil {
			if err := c.client.Set(ctx, citiesKey, raw, c.ttl).Err(); err != nil {
				c.logger.Warn("CACHE", fmt.Sprintf("redis set failed: %v", err))
			}
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.memory = &memoryEntry{cities: cities, expiresAt: time.Now().Add(c.ttl)}
}

// Invalidate drops the cached set, e.g. after a moderation decision
// changes the approved event population.
func (c *Cache) Invalidate(ctx context.Context) {
	if c.client != nil {
		if err := c.client.Del(ctx, citiesKey).Err(); err != nil {
			c.logger.Warn("CACHE", fmt.Sprintf("redis del failed: %v", err))
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.memory = nil
}
