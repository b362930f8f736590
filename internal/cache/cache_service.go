// Package cache provides Redis-based caching for credit balances.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/dyncarl8-oss/signalix-ai/config"
)

// CacheService provides Redis-based caching with graceful degradation.
// When Redis is unavailable, operations return errors that callers should
// handle by falling back to database queries.
type CacheService struct {
	client       *redis.Client
	logger       zerolog.Logger
	mu           sync.RWMutex
	healthy      bool
	failureCount int
	lastCheck    time.Time

	maxFailures   int
	checkInterval time.Duration
}

// Key prefix for cached credit balances
const PrefixUserCredits = "user:%s:credits"

// DefaultCreditsTTL keeps cached balances short-lived: every credit mutation
// invalidates the key, the TTL only bounds staleness after missed invalidations.
const DefaultCreditsTTL = 60 * time.Second

// NewCacheService creates a new CacheService with the provided configuration.
// It attempts to connect to Redis and verifies connectivity.
func NewCacheService(cfg config.RedisConfig, logger zerolog.Logger) (*CacheService, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("redis is not enabled in configuration")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	cs := &CacheService{
		client:        client,
		logger:        logger,
		healthy:       false,
		maxFailures:   3,
		checkInterval: 30 * time.Second,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("initial Redis connection failed, running in degraded mode")
		return cs, nil
	}

	cs.healthy = true
	cs.lastCheck = time.Now()
	logger.Info().Str("address", cfg.Address).Msg("connected to Redis")

	return cs, nil
}

// IsHealthy reports whether Redis is currently usable. Periodically re-pings
// when unhealthy so the cache recovers without a restart.
func (cs *CacheService) IsHealthy() bool {
	cs.mu.RLock()
	healthy := cs.healthy
	lastCheck := cs.lastCheck
	cs.mu.RUnlock()

	if healthy || time.Since(lastCheck) < cs.checkInterval {
		return healthy
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := cs.client.Ping(ctx).Err()

	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.lastCheck = time.Now()
	if err == nil {
		cs.healthy = true
		cs.failureCount = 0
		cs.logger.Info().Msg("Redis connection recovered")
	}
	return cs.healthy
}

// Get retrieves a cached value. Returns redis.Nil on a miss.
func (cs *CacheService) Get(ctx context.Context, key string) (string, error) {
	val, err := cs.client.Get(ctx, key).Result()
	if err != nil && err != redis.Nil {
		cs.recordFailure(err)
		return "", err
	}
	cs.recordSuccess()
	return val, err
}

// Set stores a value with the given TTL. Non-string values are JSON encoded.
func (cs *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	var payload string
	switch v := value.(type) {
	case string:
		payload = v
	case []byte:
		payload = string(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal cache value: %w", err)
		}
		payload = string(data)
	}

	if err := cs.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		cs.recordFailure(err)
		return err
	}
	cs.recordSuccess()
	return nil
}

// Delete removes a key. Used to invalidate balances after mutations.
func (cs *CacheService) Delete(ctx context.Context, key string) error {
	if err := cs.client.Del(ctx, key).Err(); err != nil {
		cs.recordFailure(err)
		return err
	}
	cs.recordSuccess()
	return nil
}

// Close releases the Redis client.
func (cs *CacheService) Close() error {
	return cs.client.Close()
}

func (cs *CacheService) recordFailure(err error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.failureCount++
	if cs.failureCount >= cs.maxFailures && cs.healthy {
		cs.healthy = false
		cs.lastCheck = time.Now()
		cs.logger.Warn().Err(err).Int("failures", cs.failureCount).Msg("Redis marked unhealthy")
	}
}

func (cs *CacheService) recordSuccess() {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.failureCount = 0
	cs.healthy = true
}
