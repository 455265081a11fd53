package orchestrator

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/model"
)

// ResultCache is the orchestrator's small bounded cache of the most recent
// results per timeframe, a get/set-with-TTL wrapper over either an
// in-memory map or Redis.
type ResultCache interface {
	Get(ctx context.Context, timeframe model.Interval) (*model.HybridAnalysisResult, bool)
	Set(ctx context.Context, timeframe model.Interval, result *model.HybridAnalysisResult)
}

// memoryCache is a bounded, TTL-expiring in-memory cache used whenever
// Redis is not reachable, so the orchestrator never hard-depends on it.
type memoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[model.Interval]memoryCacheEntry
}

type memoryCacheEntry struct {
	result    *model.HybridAnalysisResult
	expiresAt time.Time
}

// NewMemoryCache creates an in-memory ResultCache with the given entry TTL.
func NewMemoryCache(ttl time.Duration) ResultCache {
	return &memoryCache{ttl: ttl, entries: make(map[model.Interval]memoryCacheEntry, len(model.AllIntervals))}
}

func (c *memoryCache) Get(_ context.Context, timeframe model.Interval) (*model.HybridAnalysisResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[timeframe]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.result, true
}

func (c *memoryCache) Set(_ context.Context, timeframe model.Interval, result *model.HybridAnalysisResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[timeframe] = memoryCacheEntry{result: result, expiresAt: time.Now().Add(c.ttl)}
}

// redisCache stores results as JSON under a per-timeframe key with the
// Redis TTL doing the expiry instead of a bookkeeping timestamp.
type redisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisCache wraps a go-redis client as a ResultCache.
func NewRedisCache(client *redis.Client, ttl time.Duration) ResultCache {
	return &redisCache{client: client, ttl: ttl, prefix: "hybrid:latest:"}
}

func (c *redisCache) Get(ctx context.Context, timeframe model.Interval) (*model.HybridAnalysisResult, bool) {
	raw, err := c.client.Get(ctx, c.prefix+string(timeframe)).Bytes()
	if err != nil {
		return nil, false
	}
	var result model.HybridAnalysisResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, false
	}
	return &result, true
}

func (c *redisCache) Set(ctx context.Context, timeframe model.Interval, result *model.HybridAnalysisResult) {
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	c.client.Set(ctx, c.prefix+string(timeframe), raw, c.ttl)
}
