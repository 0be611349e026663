// Tessellatus - Satellite Imagery Virtual Data Cube Store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tessellatus

// Package cache provides an in-memory LRU cache for decoded chunk payloads.
// Chunk content is immutable for the lifetime of a store, so entries never
// expire; they are only evicted to stay within the entry and byte budgets.
package cache

import (
	"sync"
)

// lruEntry is a node of the doubly-linked recency list.
type lruEntry struct {
	key   string
	value []byte
	prev  *lruEntry
	next  *lruEntry
}

// LRU is a thread-safe least-recently-used cache for chunk payloads.
// It bounds both the number of entries and their total byte size, and
// provides O(1) Get, Add and eviction.
//
// The recency order lives in a doubly-linked list with sentinel head and
// tail nodes; a map gives O(1) key lookup into the list.
type LRU struct {
	mu sync.RWMutex

	// maxEntries caps the number of cached chunks.
	maxEntries int

	// maxBytes caps the summed payload size. Zero means no byte budget.
	maxBytes int64

	items map[string]*lruEntry

	// head.next is the most recently used, tail.prev the least.
	head *lruEntry
	tail *lruEntry

	sizeBytes int64
	hits      int64
	misses    int64
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Entries   int
	SizeBytes int64
}

// DefaultMaxEntries is used when NewLRU is given a non-positive entry budget.
const DefaultMaxEntries = 256

// NewLRU creates a chunk cache bounded by maxEntries chunks and maxBytes
// total payload size. maxBytes <= 0 disables the byte budget.
func NewLRU(maxEntries int, maxBytes int64) *LRU {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}

	c := &LRU{
		maxEntries: maxEntries,
		maxBytes:   maxBytes,
		items:      make(map[string]*lruEntry, maxEntries),
		head:       &lruEntry{},
		tail:       &lruEntry{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// Get retrieves a chunk payload. Found entries move to the front of the
// recency list. The returned slice is the cached backing array; callers must
// not modify it.
func (c *LRU) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.moveToFront(entry)
	c.hits++
	return entry.value, true
}

// Contains reports whether a key is cached without touching recency order.
func (c *LRU) Contains(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.items[key]
	return ok
}

// Add stores a chunk payload, evicting least recently used entries until the
// budgets hold. A payload larger than the whole byte budget is not cached.
func (c *LRU) Add(key string, value []byte) {
	if c.maxBytes > 0 && int64(len(value)) > c.maxBytes {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.items[key]; ok {
		c.sizeBytes += int64(len(value)) - int64(len(entry.value))
		entry.value = value
		c.moveToFront(entry)
		c.evictOverBudget()
		return
	}

	entry := &lruEntry{key: key, value: value}
	c.addToFront(entry)
	c.items[key] = entry
	c.sizeBytes += int64(len(value))
	c.evictOverBudget()
}

// Remove drops a key. Returns true when the key was cached.
func (c *LRU) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.items[key]
	if !ok {
		return false
	}
	c.removeEntry(entry)
	return true
}

// Len returns the current number of cached chunks.
func (c *LRU) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// SizeBytes returns the summed payload size of all cached chunks.
func (c *LRU) SizeBytes() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sizeBytes
}

// Clear removes all entries and resets the byte accounting. Hit and miss
// counters are kept.
func (c *LRU) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*lruEntry, c.maxEntries)
	c.head.next = c.tail
	c.tail.prev = c.head
	c.sizeBytes = 0
}

// GetStats returns a snapshot of the cache counters.
func (c *LRU) GetStats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Entries:   len(c.items),
		SizeBytes: c.sizeBytes,
	}
}

// HitRate returns the hit rate as a percentage of all lookups.
func (c *LRU) HitRate() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := c.hits + c.misses
	if total == 0 {
		return 0
	}
	return float64(c.hits) / float64(total) * 100
}

// Internal methods, called with the lock held.

func (c *LRU) addToFront(entry *lruEntry) {
	entry.prev = c.head
	entry.next = c.head.next
	c.head.next.prev = entry
	c.head.next = entry
}

func (c *LRU) moveToFront(entry *lruEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	c.addToFront(entry)
}

func (c *LRU) removeEntry(entry *lruEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	delete(c.items, entry.key)
	c.sizeBytes -= int64(len(entry.value))
}

func (c *LRU) evictOverBudget() {
	for len(c.items) > c.maxEntries || (c.maxBytes > 0 && c.sizeBytes > c.maxBytes) {
		oldest := c.tail.prev
		if oldest == c.head {
			return
		}
		c.removeEntry(oldest)
	}
}
