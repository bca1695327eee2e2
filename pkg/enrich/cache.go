package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/richard-senior/matchodds/internal/logger"
	"github.com/richard-senior/matchodds/pkg/engine"
)

// ErrCacheMiss is returned by Cache.Get when the key is absent or expired
var ErrCacheMiss = errors.New("cache miss")

// Cache stores encoded provider answers
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// MemoryCache is an in-process Cache
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	// Now is replaceable in tests
	Now func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: map[string]memoryEntry{}, Now: time.Now}
}

func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	if !e.expires.IsZero() && !c.Now().Before(e.expires) {
		delete(c.entries, key)
		return nil, ErrCacheMiss
	}
	return e.value, nil
}

// Set stores value; a ttl of zero never expires
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expires = c.Now().Add(ttl)
	}
	c.entries[key] = e
	return nil
}

// RedisCache shares provider answers between processes
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to a redis:// url and checks the connection
func NewRedisCache(ctx context.Context, url string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.Info("Connected to redis", opts.Addr)
	return &RedisCache{client: client}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return data, err
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// CachedProvider answers from the cache before asking the wrapped provider. Errors are not cached.
type CachedProvider struct {
	next  Provider
	cache Cache
	ttl   time.Duration
}

func NewCachedProvider(next Provider, cache Cache, ttl time.Duration) *CachedProvider {
	return &CachedProvider{next: next, cache: cache, ttl: ttl}
}

func (p *CachedProvider) TeamSignal(ctx context.Context, teamID, leagueID int) (engine.TeamSignal, error) {
	var ts engine.TeamSignal
	key := fmt.Sprintf("matchodds:signal:%d:%d", leagueID, teamID)
	err := p.cached(ctx, key, &ts, func() (any, error) {
		return p.next.TeamSignal(ctx, teamID, leagueID)
	})
	return ts, err
}

func (p *CachedProvider) HeadToHead(ctx context.Context, homeID, awayID int) (engine.HeadToHead, error) {
	var h engine.HeadToHead
	key := fmt.Sprintf("matchodds:h2h:%d:%d", homeID, awayID)
	err := p.cached(ctx, key, &h, func() (any, error) {
		return p.next.HeadToHead(ctx, homeID, awayID)
	})
	return h, err
}

// cached decodes the cached value into out, or calls load and stores its answer
func (p *CachedProvider) cached(ctx context.Context, key string, out any, load func() (any, error)) error {
	data, err := p.cache.Get(ctx, key)
	if err == nil {
		if err := json.Unmarshal(data, out); err == nil {
			return nil
		}
		logger.Warn("Discarding undecodable cache entry", key)
	} else if !errors.Is(err, ErrCacheMiss) {
		logger.Warn("Cache read failed", key, err)
	}

	v, err := load()
	if err != nil {
		return err
	}
	data, err = json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := p.cache.Set(ctx, key, data, p.ttl); err != nil {
		logger.Warn("Cache write failed", key, err)
	}
	return json.Unmarshal(data, out)
}
