// Package dedupe remembers webhook update ids so that redelivered updates
// are processed once.
package dedupe

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/redis/go-redis/v9"
)

// Tracker reports whether a key is seen for the first time and marks it.
type Tracker interface {
	FirstSeen(ctx context.Context, key string) (bool, error)
}

// RedisTracker shares seen keys across replicas.
type RedisTracker struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisClient parses redisURL and verifies the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

// NewRedisTracker creates a tracker whose marks expire after ttl.
func NewRedisTracker(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisTracker {
	return &RedisTracker{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

// FirstSeen sets the key only if absent.
func (t *RedisTracker) FirstSeen(ctx context.Context, key string) (bool, error) {
	ok, err := t.client.SetNX(ctx, t.keyPrefix+key, 1, t.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

// MemoryTracker keeps seen keys in a bounded in-process LRU.
type MemoryTracker struct {
	mu    sync.Mutex
	cache *lru.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewMemoryTracker creates a tracker holding at most size keys.
func NewMemoryTracker(size int, ttl time.Duration) (*MemoryTracker, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &MemoryTracker{cache: cache, ttl: ttl, now: time.Now}, nil
}

// FirstSeen marks key. Marks older than ttl count as unseen.
func (t *MemoryTracker) FirstSeen(_ context.Context, key string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if v, ok := t.cache.Get(key); ok {
		if expires, _ := v.(time.Time); t.ttl <= 0 || now.Before(expires) {
			return false, nil
		}
	}
	t.cache.Add(key, now.Add(t.ttl))
	return true, nil
}
