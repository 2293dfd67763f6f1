package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

const redisBackend = "redis"

// RedisConfig holds the Redis cache settings.
type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	KeyPrefix  string
	DefaultTTL time.Duration

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
}

// RedisCache is the shared cache backend.
type RedisCache struct {
	client     *redis.Client
	keyPrefix  string
	defaultTTL time.Duration
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr, err)
	}

	ttl := cfg.DefaultTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &RedisCache{
		client:     client,
		keyPrefix:  cfg.KeyPrefix,
		defaultTTL: ttl,
	}, nil
}

// GetObject retrieves and unmarshals a cached value.
func (rc *RedisCache) GetObject(ctx context.Context, key string, dest any) (bool, error) {
	timer := prometheus.NewTimer(cacheLatency.WithLabelValues(redisBackend))
	defer timer.ObserveDuration()

	data, err := rc.client.Get(ctx, rc.keyPrefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			cacheMisses.WithLabelValues(redisBackend).Inc()
			return false, nil
		}
		cacheErrors.WithLabelValues(redisBackend).Inc()
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		cacheErrors.WithLabelValues(redisBackend).Inc()
		return false, err
	}
	cacheHits.WithLabelValues(redisBackend).Inc()
	return true, nil
}

// SetObject marshals and stores a value.
func (rc *RedisCache) SetObject(ctx context.Context, key string, value any, ttl time.Duration) error {
	timer := prometheus.NewTimer(cacheLatency.WithLabelValues(redisBackend))
	defer timer.ObserveDuration()

	data, err := json.Marshal(value)
	if err != nil {
		cacheErrors.WithLabelValues(redisBackend).Inc()
		return err
	}
	if ttl <= 0 {
		ttl = rc.defaultTTL
	}
	if err := rc.client.Set(ctx, rc.keyPrefix+key, data, ttl).Err(); err != nil {
		cacheErrors.WithLabelValues(redisBackend).Inc()
		return err
	}
	cacheSets.WithLabelValues(redisBackend).Inc()
	return nil
}

// Delete removes a key.
func (rc *RedisCache) Delete(ctx context.Context, key string) error {
	if err := rc.client.Del(ctx, rc.keyPrefix+key).Err(); err != nil {
		cacheErrors.WithLabelValues(redisBackend).Inc()
		return err
	}
	cacheDeletes.WithLabelValues(redisBackend).Inc()
	return nil
}

// Close releases the client connection pool.
func (rc *RedisCache) Close() error {
	return rc.client.Close()
}
