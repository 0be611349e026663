// Tessellatus - Satellite Imagery Virtual Data Cube Store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tessellatus

package cache

import (
	"bytes"
	"fmt"
	"sync"
	"testing"
)

func TestLRU_BasicOperations(t *testing.T) {
	cache := NewLRU(3, 0)

	cache.Add("0.0.0", []byte("alpha"))
	cache.Add("0.0.1", []byte("bravo"))
	cache.Add("0.1.0", []byte("charlie"))

	got, found := cache.Get("0.0.0")
	if !found {
		t.Fatal("Expected to find key '0.0.0'")
	}
	if !bytes.Equal(got, []byte("alpha")) {
		t.Errorf("Expected 'alpha', got %q", got)
	}

	if cache.Len() != 3 {
		t.Errorf("Expected len 3, got %d", cache.Len())
	}
	if want := int64(len("alpha") + len("bravo") + len("charlie")); cache.SizeBytes() != want {
		t.Errorf("Expected %d bytes, got %d", want, cache.SizeBytes())
	}
}

func TestLRU_EntryEviction(t *testing.T) {
	cache := NewLRU(3, 0)

	cache.Add("a", []byte("1"))
	cache.Add("b", []byte("2"))
	cache.Add("c", []byte("3"))

	// Access 'a' to make it most recently used
	cache.Get("a")

	// Add new item, should evict 'b' (least recently used)
	cache.Add("d", []byte("4"))

	if _, found := cache.Get("b"); found {
		t.Error("Expected 'b' to be evicted")
	}
	for _, key := range []string{"a", "c", "d"} {
		if _, found := cache.Get(key); !found {
			t.Errorf("Expected %q to be present", key)
		}
	}
}

func TestLRU_ByteBudgetEviction(t *testing.T) {
	cache := NewLRU(100, 10)

	cache.Add("a", make([]byte, 4))
	cache.Add("b", make([]byte, 4))
	cache.Add("c", make([]byte, 4)) // pushes total to 12, evicts 'a'

	if _, found := cache.Get("a"); found {
		t.Error("Expected 'a' to be evicted by byte budget")
	}
	if cache.SizeBytes() != 8 {
		t.Errorf("Expected 8 bytes after eviction, got %d", cache.SizeBytes())
	}

	// A payload larger than the whole budget must not be cached.
	cache.Add("huge", make([]byte, 11))
	if _, found := cache.Get("huge"); found {
		t.Error("Oversized payload must not be cached")
	}
}

func TestLRU_UpdateExistingKey(t *testing.T) {
	cache := NewLRU(10, 0)

	cache.Add("a", []byte("short"))
	cache.Add("a", []byte("a longer payload"))

	got, found := cache.Get("a")
	if !found {
		t.Fatal("Expected to find key 'a'")
	}
	if !bytes.Equal(got, []byte("a longer payload")) {
		t.Errorf("Expected updated value, got %q", got)
	}
	if cache.Len() != 1 {
		t.Errorf("Expected len 1 after update, got %d", cache.Len())
	}
	if want := int64(len("a longer payload")); cache.SizeBytes() != want {
		t.Errorf("Expected %d bytes, got %d", want, cache.SizeBytes())
	}
}

func TestLRU_RemoveAndClear(t *testing.T) {
	cache := NewLRU(10, 0)

	cache.Add("a", []byte("1"))
	cache.Add("b", []byte("2"))

	if !cache.Remove("a") {
		t.Error("Expected Remove to report true for cached key")
	}
	if cache.Remove("a") {
		t.Error("Expected Remove to report false for missing key")
	}
	if cache.Contains("a") {
		t.Error("Expected 'a' to be gone")
	}

	cache.Clear()
	if cache.Len() != 0 || cache.SizeBytes() != 0 {
		t.Errorf("Expected empty cache after Clear, got len=%d size=%d",
			cache.Len(), cache.SizeBytes())
	}
}

func TestLRU_Stats(t *testing.T) {
	cache := NewLRU(10, 0)

	cache.Add("a", []byte("1"))
	cache.Get("a")
	cache.Get("a")
	cache.Get("missing")

	stats := cache.GetStats()
	if stats.Hits != 2 || stats.Misses != 1 {
		t.Errorf("Expected 2 hits / 1 miss, got %d / %d", stats.Hits, stats.Misses)
	}
	if rate := cache.HitRate(); rate < 66.0 || rate > 67.0 {
		t.Errorf("Expected hit rate near 66.7%%, got %g", rate)
	}
}

func TestLRU_ConcurrentAccess(t *testing.T) {
	cache := NewLRU(100, 0)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("%d.%d", n, j%20)
				cache.Add(key, []byte{byte(n), byte(j)})
				cache.Get(key)
			}
		}(i)
	}
	wg.Wait()

	if cache.Len() > 100 {
		t.Errorf("Cache exceeded capacity: %d", cache.Len())
	}
}
