package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"growth-scraper/models"
	apperrors "growth-scraper/pkg/errors"
)

// ErrCacheMiss is returned when no cached result exists for the lookup.
var ErrCacheMiss = errors.New("cache: miss")

// RunResult is the cached outcome of one pipeline run.
type RunResult struct {
	Summary models.RunSummary `json:"summary"`
	Table   models.CleanTable `json:"table"`
}

// ResultCache keeps the last successful run results keyed by run ID.
type ResultCache interface {
	// Put stores result under its run ID and marks it as the latest.
	Put(ctx context.Context, result RunResult) error
	// Get returns the result of a specific run.
	Get(ctx context.Context, runID string) (RunResult, error)
	// Latest returns the result marked latest by Put.
	Latest(ctx context.Context) (RunResult, error)
	// Invalidate forgets the latest marker so the next read recomputes.
	Invalidate(ctx context.Context) error
}

// MemoryResultCache is an in-process ResultCache.
type MemoryResultCache struct {
	mu      sync.RWMutex
	entries map[string]RunResult
	latest  string
}

// NewMemoryResultCache creates an empty in-process cache.
func NewMemoryResultCache() *MemoryResultCache {
	return &MemoryResultCache{entries: make(map[string]RunResult)}
}

func (c *MemoryResultCache) Put(_ context.Context, result RunResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[result.Summary.RunID] = result
	c.latest = result.Summary.RunID
	return nil
}

func (c *MemoryResultCache) Get(_ context.Context, runID string) (RunResult, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.entries[runID]
	if !ok {
		return RunResult{}, ErrCacheMiss
	}
	return r, nil
}

func (c *MemoryResultCache) Latest(ctx context.Context) (RunResult, error) {
	c.mu.RLock()
	latest := c.latest
	c.mu.RUnlock()
	if latest == "" {
		return RunResult{}, ErrCacheMiss
	}
	return c.Get(ctx, latest)
}

// Invalidate drops every entry; older runs are never read again once a
// new collection has been requested.
func (c *MemoryResultCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]RunResult)
	c.latest = ""
	return nil
}

// RedisResultCache stores run results in Redis so several dashboard
// processes share them.
type RedisResultCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisResultCache creates a Redis-backed cache. Entries expire after ttl.
func NewRedisResultCache(addr string, db int, ttl time.Duration) *RedisResultCache {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	return &RedisResultCache{client: client, prefix: "growth:run", ttl: ttl}
}

func (c *RedisResultCache) runKey(runID string) string { return c.prefix + ":" + runID }

func (c *RedisResultCache) latestKey() string { return c.prefix + ":latest" }

// Ping checks connectivity.
func (c *RedisResultCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return apperrors.NewCache("redis", "ping", err)
	}
	return nil
}

func (c *RedisResultCache) Put(ctx context.Context, result RunResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return apperrors.NewCache("redis", "encode result", err)
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, c.runKey(result.Summary.RunID), data, c.ttl)
	pipe.Set(ctx, c.latestKey(), result.Summary.RunID, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return apperrors.NewCache("redis", "store result", err)
	}
	return nil
}

func (c *RedisResultCache) Get(ctx context.Context, runID string) (RunResult, error) {
	data, err := c.client.Get(ctx, c.runKey(runID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return RunResult{}, ErrCacheMiss
	}
	if err != nil {
		return RunResult{}, apperrors.NewCache("redis", "load result", err)
	}

	var r RunResult
	if err := json.Unmarshal(data, &r); err != nil {
		return RunResult{}, apperrors.NewCache("redis", "decode result", err)
	}
	return r, nil
}

func (c *RedisResultCache) Latest(ctx context.Context) (RunResult, error) {
	runID, err := c.client.Get(ctx, c.latestKey()).Result()
	if errors.Is(err, redis.Nil) {
		return RunResult{}, ErrCacheMiss
	}
	if err != nil {
		return RunResult{}, apperrors.NewCache("redis", "load latest marker", err)
	}
	return c.Get(ctx, runID)
}

// Invalidate removes the latest marker. Per-run entries expire on their own.
func (c *RedisResultCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, c.latestKey()).Err(); err != nil {
		return apperrors.NewCache("redis", "invalidate", err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *RedisResultCache) Close() error {
	return c.client.Close()
}
