// Package cache provides a Redis read cache exposed as a mono plugin.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"
)

// Storage is the key/value backend the cache writes through. An empty,
// nil-error result from GetWithContext is a miss.
type Storage interface {
	GetWithContext(ctx context.Context, key string) ([]byte, error)
	SetWithContext(ctx context.Context, key string, val []byte, exp time.Duration) error
	DeleteWithContext(ctx context.Context, key string) error
	Close() error
}

// CacheService defines the caching operations used by consumers.
type CacheService interface {
	// Get unmarshals the cached value into dest and reports whether it was found.
	Get(ctx context.Context, key string, dest any) (bool, error)
	// Set stores value with the default TTL.
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
	Stats() StatsSnapshot
	Close() error
}

// StatsSnapshot is a point-in-time copy of the cache counters.
type StatsSnapshot struct {
	Hits      uint64  `json:"hits"`
	Misses    uint64  `json:"misses"`
	Sets      uint64  `json:"sets"`
	Deletes   uint64  `json:"deletes"`
	Errors    uint64  `json:"errors"`
	HitRate   float64 `json:"hit_rate"`
	TotalGets uint64  `json:"total_gets"`
}

type stats struct {
	hits, misses, sets, deletes, errors atomic.Uint64
}

type cacheService struct {
	storage Storage
	prefix  string
	ttl     time.Duration
	stats   stats
}

// NewCacheService creates a CacheService over s. Keys are namespaced with prefix.
func NewCacheService(s Storage, prefix string, ttl time.Duration) CacheService {
	return &cacheService{
		storage: s,
		prefix:  prefix,
		ttl:     ttl,
	}
}

func (c *cacheService) Get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := c.storage.GetWithContext(ctx, c.prefix+key)
	if err != nil {
		c.stats.errors.Add(1)
		return false, fmt.Errorf("cache get error: %w", err)
	}
	if len(data) == 0 {
		c.stats.misses.Add(1)
		return false, nil
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.stats.errors.Add(1)
		return false, fmt.Errorf("cache unmarshal error: %w", err)
	}
	c.stats.hits.Add(1)
	return true, nil
}

func (c *cacheService) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		c.stats.errors.Add(1)
		return fmt.Errorf("cache marshal error: %w", err)
	}

	if err := c.storage.SetWithContext(ctx, c.prefix+key, data, c.ttl); err != nil {
		c.stats.errors.Add(1)
		return fmt.Errorf("cache set error: %w", err)
	}
	c.stats.sets.Add(1)
	return nil
}

func (c *cacheService) Delete(ctx context.Context, key string) error {
	if err := c.storage.DeleteWithContext(ctx, c.prefix+key); err != nil {
		c.stats.errors.Add(1)
		return fmt.Errorf("cache delete error: %w", err)
	}
	c.stats.deletes.Add(1)
	return nil
}

func (c *cacheService) Stats() StatsSnapshot {
	s := StatsSnapshot{
		Hits:    c.stats.hits.Load(),
		Misses:  c.stats.misses.Load(),
		Sets:    c.stats.sets.Load(),
		Deletes: c.stats.deletes.Load(),
		Errors:  c.stats.errors.Load(),
	}
	s.TotalGets = s.Hits + s.Misses
	if s.TotalGets > 0 {
		s.HitRate = float64(s.Hits) / float64(s.TotalGets)
	}
	return s
}

func (c *cacheService) Close() error {
	return c.storage.Close()
}
