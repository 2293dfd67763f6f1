// Package cache provides the object caches behind reference data lookups and
// search term vectors, with a Redis backend for shared deployments and a
// process-local backend for single instances and tests.
package cache

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Store is the backend-neutral object cache. Values round-trip through JSON.
type Store interface {
	// GetObject unmarshals the cached value into dest, reporting whether the
	// key was present.
	GetObject(ctx context.Context, key string, dest any) (bool, error)
	// SetObject stores value under key. A zero ttl uses the backend default.
	SetObject(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Shared metrics across backends, labeled by backend name.
var (
	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "helpdesk_cache_hits_total",
		Help: "Total number of cache hits",
	}, []string{"backend"})
	cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "helpdesk_cache_misses_total",
		Help: "Total number of cache misses",
	}, []string{"backend"})
	cacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "helpdesk_cache_errors_total",
		Help: "Total number of cache errors",
	}, []string{"backend"})
	cacheSets = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "helpdesk_cache_sets_total",
		Help: "Total number of cache sets",
	}, []string{"backend"})
	cacheDeletes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "helpdesk_cache_deletes_total",
		Help: "Total number of cache deletes",
	}, []string{"backend"})
	cacheLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "helpdesk_cache_operation_duration_seconds",
		Help:    "Cache operation latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend"})
	cacheEntries = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "helpdesk_cache_entries",
		Help: "Current number of cached entries",
	}, []string{"backend"})
)
