package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

const localBackend = "local"

// LocalCache is the in-process TTL cache used when Redis is not configured.
type LocalCache struct {
	mu         sync.RWMutex
	items      map[string]*localItem
	maxSize    int
	defaultTTL time.Duration
}

type localItem struct {
	data       []byte
	expiresAt  time.Time
	accessedAt time.Time
}

// NewLocalCache builds a local cache. maxSize bounds the entry count; the
// least recently accessed entry is evicted at capacity.
func NewLocalCache(maxSize int, defaultTTL time.Duration) *LocalCache {
	if maxSize <= 0 {
		maxSize = 10000
	}
	if defaultTTL <= 0 {
		defaultTTL = 15 * time.Minute
	}
	return &LocalCache{
		items:      make(map[string]*localItem),
		maxSize:    maxSize,
		defaultTTL: defaultTTL,
	}
}

// GetObject retrieves and unmarshals a cached value.
func (lc *LocalCache) GetObject(_ context.Context, key string, dest any) (bool, error) {
	lc.mu.Lock()
	item, exists := lc.items[key]
	if exists && time.Now().After(item.expiresAt) {
		delete(lc.items, key)
		exists = false
	}
	if exists {
		item.accessedAt = time.Now()
	}
	lc.mu.Unlock()

	if !exists {
		cacheMisses.WithLabelValues(localBackend).Inc()
		return false, nil
	}
	if err := json.Unmarshal(item.data, dest); err != nil {
		cacheErrors.WithLabelValues(localBackend).Inc()
		return false, err
	}
	cacheHits.WithLabelValues(localBackend).Inc()
	return true, nil
}

// SetObject marshals and stores a value.
func (lc *LocalCache) SetObject(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		cacheErrors.WithLabelValues(localBackend).Inc()
		return err
	}
	if ttl <= 0 {
		ttl = lc.defaultTTL
	}

	lc.mu.Lock()
	if _, exists := lc.items[key]; !exists && len(lc.items) >= lc.maxSize {
		lc.evictOldest()
	}
	lc.items[key] = &localItem{
		data:       data,
		expiresAt:  time.Now().Add(ttl),
		accessedAt: time.Now(),
	}
	entries := len(lc.items)
	lc.mu.Unlock()

	cacheSets.WithLabelValues(localBackend).Inc()
	cacheEntries.WithLabelValues(localBackend).Set(float64(entries))
	return nil
}

// Delete removes a key.
func (lc *LocalCache) Delete(_ context.Context, key string) error {
	lc.mu.Lock()
	if _, exists := lc.items[key]; exists {
		delete(lc.items, key)
		cacheDeletes.WithLabelValues(localBackend).Inc()
	}
	entries := len(lc.items)
	lc.mu.Unlock()

	cacheEntries.WithLabelValues(localBackend).Set(float64(entries))
	return nil
}

// Close is a no-op for the local backend.
func (lc *LocalCache) Close() error { return nil }

// PurgeExpired drops every expired entry and returns how many went. The
// scheduler calls this periodically.
func (lc *LocalCache) PurgeExpired() int {
	now := time.Now()
	lc.mu.Lock()
	purged := 0
	for key, item := range lc.items {
		if now.After(item.expiresAt) {
			delete(lc.items, key)
			purged++
		}
	}
	entries := len(lc.items)
	lc.mu.Unlock()

	cacheEntries.WithLabelValues(localBackend).Set(float64(entries))
	return purged
}

// Len reports the current entry count.
func (lc *LocalCache) Len() int {
	lc.mu.RLock()
	defer lc.mu.RUnlock()
	return len(lc.items)
}

// evictOldest removes the least recently accessed entry. Caller holds the
// write lock.
func (lc *LocalCache) evictOldest() {
	var oldestKey string
	var oldestAt time.Time
	first := true
	for key, item := range lc.items {
		if first || item.accessedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = item.accessedAt
			first = false
		}
	}
	if oldestKey != "" {
		delete(lc.items, oldestKey)
	}
}
