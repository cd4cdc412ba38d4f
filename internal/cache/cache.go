package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"greenlens/internal/config"
)

// ===============================
// CACHE INTERFACE
// ===============================

// Cache stores opaque values with a time to live
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Stats() Stats
	Health(ctx context.Context) error
	Close() error
}

// Stats counts cache traffic since start
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
	Keys   int64 `json:"keys"`
}

// ===============================
// CACHE CONFIGURATION
// ===============================

// Config holds cache configuration
type Config struct {
	Provider        string        // "memory", "redis"
	TTL             time.Duration // default TTL when Set gets none
	MaxKeys         int
	CleanupInterval time.Duration
	KeyPrefix       string
	RedisURL        string
	PoolSize        int
}

// DefaultConfig returns a default cache configuration
func DefaultConfig() *Config {
	return &Config{
		Provider:        "memory",
		TTL:             15 * time.Minute,
		MaxKeys:         10000,
		CleanupInterval: 5 * time.Minute,
		PoolSize:        10,
	}
}

// FromAppConfig maps the application cache section
func FromAppConfig(c config.CacheConfig) *Config {
	cfg := DefaultConfig()
	cfg.Provider = c.Provider
	cfg.RedisURL = c.RedisURL
	cfg.KeyPrefix = c.KeyPrefix
	if c.DefaultTTL > 0 {
		cfg.TTL = c.DefaultTTL
	}
	if c.MaxEntries > 0 {
		cfg.MaxKeys = c.MaxEntries
	}
	return cfg
}

// NewCache creates a new cache instance based on configuration
func NewCache(cfg *Config, logger *zap.Logger) (Cache, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	switch strings.ToLower(cfg.Provider) {
	case "redis":
		return NewRedisCache(cfg, logger)
	case "memory", "":
		logger.Info("Using in-memory cache", zap.Int("max_keys", cfg.MaxKeys))
		return NewMemoryCache(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported cache provider: %s", cfg.Provider)
	}
}

// ===============================
// MEMORY CACHE IMPLEMENTATION
// ===============================

type memoryCache struct {
	mu      sync.Mutex
	items   map[string]*cacheItem
	maxKeys int
	ttl     time.Duration
	logger  *zap.Logger
	stats   Stats
	now     func() time.Time
	stopCh  chan struct{}
	once    sync.Once
}

type cacheItem struct {
	value      []byte
	expiresAt  time.Time
	accessedAt time.Time
}

// NewMemoryCache creates an in-process cache with periodic cleanup of
// expired entries. The least recently used entry is evicted when full.
func NewMemoryCache(cfg *Config, logger *zap.Logger) Cache {
	c := &memoryCache{
		items:   make(map[string]*cacheItem),
		maxKeys: cfg.MaxKeys,
		ttl:     cfg.TTL,
		logger:  logger,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
	if c.maxKeys <= 0 {
		c.maxKeys = DefaultConfig().MaxKeys
	}

	if cfg.CleanupInterval > 0 {
		go c.cleanup(cfg.CleanupInterval)
	}
	return c
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return nil, false, nil
	}
	now := c.now()
	if now.After(item.expiresAt) {
		delete(c.items, key)
		c.stats.Misses++
		return nil, false, nil
	}

	item.accessedAt = now
	c.stats.Hits++
	return item.value, true, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxKeys {
		c.evictLRU()
	}

	now := c.now()
	stored := make([]byte, len(value))
	copy(stored, value)
	c.items[key] = &cacheItem{value: stored, expiresAt: now.Add(ttl), accessedAt: now}
	c.stats.Sets++
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

func (c *memoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Keys = int64(len(c.items))
	return s
}

func (c *memoryCache) Health(context.Context) error { return nil }

func (c *memoryCache) Close() error {
	c.once.Do(func() { close(c.stopCh) })
	return nil
}

func (c *memoryCache) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanupExpired()
		case <-c.stopCh:
			return
		}
	}
}

func (c *memoryCache) cleanupExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, item := range c.items {
		if now.After(item.expiresAt) {
			delete(c.items, key)
			removed++
		}
	}
	if removed > 0 {
		c.logger.Debug("Cleaned up expired cache entries", zap.Int("removed", removed))
	}
}

// evictLRU must be called with the lock held
func (c *memoryCache) evictLRU() {
	var (
		oldestKey  string
		oldestTime time.Time
	)
	for key, item := range c.items {
		if oldestKey == "" || item.accessedAt.Before(oldestTime) {
			oldestKey, oldestTime = key, item.accessedAt
		}
	}
	if oldestKey != "" {
		delete(c.items, oldestKey)
	}
}

// ===============================
// REDIS CACHE IMPLEMENTATION
// ===============================

type redisCache struct {
	client *redis.Client
	logger *zap.Logger
	config *Config

	mu    sync.Mutex
	stats Stats
}

// NewRedisCache creates a Redis-backed cache and checks the connection
func NewRedisCache(cfg *Config, logger *zap.Logger) (Cache, error) {
	if cfg == nil {
		return nil, fmt.Errorf("cache config cannot be nil")
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("redis URL is required")
	}

	options, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		options.PoolSize = cfg.PoolSize
	}

	client := redis.NewClient(options)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis cache initialized",
		zap.String("addr", options.Addr),
		zap.Int("db", options.DB),
	)

	return &redisCache{client: client, logger: logger, config: cfg}, nil
}

func (r *redisCache) key(k string) string {
	return r.config.KeyPrefix + k
}

func (r *redisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		r.count(func(s *Stats) { s.Misses++ })
		return nil, false, nil
	}
	if err != nil {
		r.logger.Error("Failed to get from Redis", zap.String("key", key), zap.Error(err))
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	r.count(func(s *Stats) { s.Hits++ })
	return val, true, nil
}

func (r *redisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.config.TTL
	}
	if err := r.client.Set(ctx, r.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	r.count(func(s *Stats) { s.Sets++ })
	return nil
}

func (r *redisCache) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

func (r *redisCache) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

func (r *redisCache) count(fn func(*Stats)) {
	r.mu.Lock()
	fn(&r.stats)
	r.mu.Unlock()
}

func (r *redisCache) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisCache) Close() error {
	return r.client.Close()
}
