// Tessellatus - Satellite Imagery Virtual Data Cube Store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tessellatus

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordProcessRequest(t *testing.T) {
	before := testutil.ToFloat64(ProcessRequestsTotal.WithLabelValues("S2L2A", "200"))
	RecordProcessRequest("S2L2A", 200, 4096, 150*time.Millisecond)
	after := testutil.ToFloat64(ProcessRequestsTotal.WithLabelValues("S2L2A", "200"))
	if after != before+1 {
		t.Errorf("ProcessRequestsTotal not incremented: %v -> %v", before, after)
	}

	// A transport failure has no status code and no body.
	before = testutil.ToFloat64(ProcessRequestsTotal.WithLabelValues("S2L2A", "0"))
	RecordProcessRequest("S2L2A", 0, 0, time.Second)
	after = testutil.ToFloat64(ProcessRequestsTotal.WithLabelValues("S2L2A", "0"))
	if after != before+1 {
		t.Errorf("transport failures must be counted under status 0: %v -> %v", before, after)
	}
}

func TestRecordRetry(t *testing.T) {
	before := testutil.ToFloat64(ProcessRetriesTotal.WithLabelValues("throttled"))
	RecordRetry("throttled")
	RecordRetry("throttled")
	after := testutil.ToFloat64(ProcessRetriesTotal.WithLabelValues("throttled"))
	if after != before+2 {
		t.Errorf("ProcessRetriesTotal not incremented twice: %v -> %v", before, after)
	}
}

func TestRecordTokenRefresh(t *testing.T) {
	beforeForced := testutil.ToFloat64(TokenRefreshesTotal.WithLabelValues("true"))
	beforeErrors := testutil.ToFloat64(TokenRefreshErrors)

	RecordTokenRefresh(true, nil)
	RecordTokenRefresh(true, errors.New("invalid_client"))

	if got := testutil.ToFloat64(TokenRefreshesTotal.WithLabelValues("true")); got != beforeForced+2 {
		t.Errorf("TokenRefreshesTotal = %v, want %v", got, beforeForced+2)
	}
	if got := testutil.ToFloat64(TokenRefreshErrors); got != beforeErrors+1 {
		t.Errorf("TokenRefreshErrors = %v, want %v", got, beforeErrors+1)
	}
}

func TestRecordStoreRead(t *testing.T) {
	beforeReads := testutil.ToFloat64(StoreReadsTotal.WithLabelValues("chunk"))
	beforeErrs := testutil.ToFloat64(StoreReadErrors.WithLabelValues("chunk"))

	RecordStoreRead("chunk", nil)
	RecordStoreRead("chunk", errors.New("boom"))

	if got := testutil.ToFloat64(StoreReadsTotal.WithLabelValues("chunk")); got != beforeReads+2 {
		t.Errorf("StoreReadsTotal = %v, want %v", got, beforeReads+2)
	}
	if got := testutil.ToFloat64(StoreReadErrors.WithLabelValues("chunk")); got != beforeErrs+1 {
		t.Errorf("StoreReadErrors = %v, want %v", got, beforeErrs+1)
	}
}

func TestRecordChunkCache(t *testing.T) {
	hits := testutil.ToFloat64(ChunkCacheHits)
	misses := testutil.ToFloat64(ChunkCacheMisses)

	RecordChunkCache(true)
	RecordChunkCache(false)
	RecordChunkCache(false)

	if got := testutil.ToFloat64(ChunkCacheHits); got != hits+1 {
		t.Errorf("ChunkCacheHits = %v, want %v", got, hits+1)
	}
	if got := testutil.ToFloat64(ChunkCacheMisses); got != misses+2 {
		t.Errorf("ChunkCacheMisses = %v, want %v", got, misses+2)
	}
}

func TestSetChunkCacheSize(t *testing.T) {
	SetChunkCacheSize(12, 34567)
	if got := testutil.ToFloat64(ChunkCacheEntries); got != 12 {
		t.Errorf("ChunkCacheEntries = %v, want 12", got)
	}
	if got := testutil.ToFloat64(ChunkCacheBytes); got != 34567 {
		t.Errorf("ChunkCacheBytes = %v, want 34567", got)
	}
}

func TestRecordCatalogSearch(t *testing.T) {
	before := testutil.ToFloat64(CatalogSearchesTotal.WithLabelValues("sentinel-2-l2a"))
	RecordCatalogSearch("sentinel-2-l2a", 32)
	if got := testutil.ToFloat64(CatalogSearchesTotal.WithLabelValues("sentinel-2-l2a")); got != before+1 {
		t.Errorf("CatalogSearchesTotal = %v, want %v", got, before+1)
	}
}
