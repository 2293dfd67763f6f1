package jobs

import (
	"context"
	"log"
	"time"

	"github.com/helpdesk-io/helpdesk-ce/internal/cache"
)

// CacheSweep drops expired entries from the in-process cache. The local cache
// evicts lazily on reads, so term vectors of tickets nobody searches for
// anymore would otherwise sit in memory until their keys are touched. Redis
// expires keys itself and needs no sweeping.
type CacheSweep struct {
	store *cache.LocalCache
	spec  string
}

// NewCacheSweep builds the sweep task for the given local cache.
func NewCacheSweep(store *cache.LocalCache, spec string) *CacheSweep {
	return &CacheSweep{store: store, spec: spec}
}

func (t *CacheSweep) Name() string { return "cache-sweep" }

func (t *CacheSweep) Spec() string { return t.spec }

func (t *CacheSweep) Timeout() time.Duration { return 30 * time.Second }

// Run purges expired entries and reports what was reclaimed.
func (t *CacheSweep) Run(_ context.Context) error {
	purged := t.store.PurgeExpired()
	if purged > 0 {
		log.Printf("[jobs] cache-sweep purged %d expired entries, %d remain", purged, t.store.Len())
	}
	return nil
}
