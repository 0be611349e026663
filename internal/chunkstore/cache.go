// Tessellatus - Satellite Imagery Virtual Data Cube Store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tessellatus

package chunkstore

import (
	"context"

	"github.com/tomtom215/tessellatus/internal/cache"
	"github.com/tomtom215/tessellatus/internal/metrics"
)

// Reader is the read surface of a store, satisfied by *Store and by
// CachingStore itself.
type Reader interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Has(key string) bool
	Keys() []string
}

// CachingStore sits in front of a store and keeps recently read values
// in an LRU. The wrapped store stays cache-free; failed reads are never
// cached.
type CachingStore struct {
	inner Reader
	lru   *cache.LRU
}

// NewCachingStore wraps inner with an LRU bounded by entry count and
// total payload bytes; zero budgets fall back to the cache defaults.
func NewCachingStore(inner Reader, maxEntries int, maxBytes int64) *CachingStore {
	return &CachingStore{inner: inner, lru: cache.NewLRU(maxEntries, maxBytes)}
}

func (c *CachingStore) Get(ctx context.Context, key string) ([]byte, error) {
	if data, ok := c.lru.Get(key); ok {
		metrics.RecordChunkCache(true)
		return data, nil
	}
	metrics.RecordChunkCache(false)

	data, err := c.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	c.lru.Add(key, data)
	metrics.SetChunkCacheSize(c.lru.Len(), c.lru.SizeBytes())
	return data, nil
}

func (c *CachingStore) Has(key string) bool {
	return c.inner.Has(key)
}

func (c *CachingStore) Keys() []string {
	return c.inner.Keys()
}

// Stats exposes the underlying cache counters.
func (c *CachingStore) Stats() cache.Stats {
	return c.lru.GetStats()
}
