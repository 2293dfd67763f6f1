package cache

import (
	"context"
	"time"

	"github.com/helpdesk-io/helpdesk-ce/internal/relevance"
)

// VectorCache adapts a Store to the ranker's term-vector interface. Cache
// failures degrade to recomputation, never to errors.
type VectorCache struct {
	store Store
	ttl   time.Duration
}

// NewVectorCache wraps a store for term-vector use.
func NewVectorCache(store Store, ttl time.Duration) *VectorCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &VectorCache{store: store, ttl: ttl}
}

// GetVector implements relevance.VectorCache.
func (vc *VectorCache) GetVector(key string) (*relevance.TermVector, bool) {
	var v relevance.TermVector
	ok, err := vc.store.GetObject(context.Background(), key, &v)
	if err != nil || !ok {
		return nil, false
	}
	return &v, true
}

// SetVector implements relevance.VectorCache.
func (vc *VectorCache) SetVector(key string, v *relevance.TermVector) {
	_ = vc.store.SetObject(context.Background(), key, v, vc.ttl)
}
