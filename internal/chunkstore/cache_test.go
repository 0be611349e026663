// Tessellatus - Satellite Imagery Virtual Data Cube Store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tessellatus

package chunkstore

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

// countingReader is a Reader double counting inner reads per key.
type countingReader struct {
	values map[string][]byte
	errs   map[string]error
	reads  map[string]int
}

func newCountingReader() *countingReader {
	return &countingReader{
		values: map[string][]byte{},
		errs:   map[string]error{},
		reads:  map[string]int{},
	}
}

func (r *countingReader) Get(_ context.Context, key string) ([]byte, error) {
	r.reads[key]++
	if err := r.errs[key]; err != nil {
		return nil, err
	}
	data, ok := r.values[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return data, nil
}

func (r *countingReader) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

func (r *countingReader) Keys() []string {
	keys := make([]string, 0, len(r.values))
	for k := range r.values {
		keys = append(keys, k)
	}
	return keys
}

func TestCachingStore_SecondReadHitsCache(t *testing.T) {
	inner := newCountingReader()
	inner.values["B04/0.0.0"] = []byte("chunk bytes")
	store := NewCachingStore(inner, 16, 1<<20)

	for i := 0; i < 3; i++ {
		data, err := store.Get(context.Background(), "B04/0.0.0")
		if err != nil {
			t.Fatalf("Get #%d: %v", i, err)
		}
		if !bytes.Equal(data, []byte("chunk bytes")) {
			t.Fatalf("Get #%d returned %q", i, data)
		}
	}

	if inner.reads["B04/0.0.0"] != 1 {
		t.Errorf("inner read %d times, want 1", inner.reads["B04/0.0.0"])
	}
	if stats := store.Stats(); stats.Hits != 2 || stats.Misses != 1 {
		t.Errorf("stats = %+v, want 2 hits / 1 miss", stats)
	}
}

func TestCachingStore_ErrorsAreNotCached(t *testing.T) {
	inner := newCountingReader()
	boom := errors.New("fetch failed")
	inner.errs["B04/0.0.0"] = boom
	store := NewCachingStore(inner, 16, 1<<20)

	for i := 0; i < 2; i++ {
		if _, err := store.Get(context.Background(), "B04/0.0.0"); !errors.Is(err, boom) {
			t.Fatalf("Get #%d: %v", i, err)
		}
	}
	if inner.reads["B04/0.0.0"] != 2 {
		t.Errorf("inner read %d times, want 2 (failures must not be cached)", inner.reads["B04/0.0.0"])
	}
}

func TestCachingStore_DelegatesHasAndKeys(t *testing.T) {
	inner := newCountingReader()
	inner.values["x"] = []byte("1")
	store := NewCachingStore(inner, 16, 1<<20)

	if !store.Has("x") || store.Has("y") {
		t.Error("Has is not delegated")
	}
	if keys := store.Keys(); len(keys) != 1 || keys[0] != "x" {
		t.Errorf("Keys = %v", keys)
	}
}
