// Tessellatus - Satellite Imagery Virtual Data Cube Store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tessellatus

// Package metrics provides Prometheus instrumentation for the remote imagery
// client and the virtual chunk store:
//   - process API request latency, sizes and errors
//   - retry and token refresh counters
//   - catalog search activity
//   - chunk store reads and chunk cache efficiency
//
// All collectors are registered on the default registry via promauto; expose
// them with Serve or mount promhttp.Handler() yourself.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Process API metrics
	ProcessRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sh_process_request_duration_seconds",
			Help:    "Duration of process API requests in seconds, including retries",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"dataset"},
	)

	ProcessRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sh_process_requests_total",
			Help: "Total number of process API requests",
		},
		[]string{"dataset", "status_code"},
	)

	ProcessResponseBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sh_process_response_bytes",
			Help:    "Size of process API responses in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10), // 1KiB .. 256MiB
		},
	)

	ProcessRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sh_process_retries_total",
			Help: "Total number of process API request retries",
		},
		[]string{"reason"}, // "throttled", "server_error", "token_expired", "transport"
	)

	// OAuth2 metrics
	TokenRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sh_token_refreshes_total",
			Help: "Total number of OAuth2 token fetches",
		},
		[]string{"forced"}, // "true" when triggered by a 401 mid-flight
	)

	TokenRefreshErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sh_token_refresh_errors_total",
			Help: "Total number of failed OAuth2 token fetches",
		},
	)

	// Catalog metrics
	CatalogSearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sh_catalog_searches_total",
			Help: "Total number of catalog search requests, including pagination",
		},
		[]string{"collection"},
	)

	CatalogFeaturesReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sh_catalog_features_returned",
			Help:    "Number of features returned per catalog search",
			Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000, 5000},
		},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sh_circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sh_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"from", "to"},
	)

	CircuitBreakerRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sh_circuit_breaker_rejections_total",
			Help: "Total number of requests rejected by an open circuit breaker",
		},
	)

	// Chunk store metrics
	StoreReadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_reads_total",
			Help: "Total number of store key reads",
		},
		[]string{"kind"}, // "metadata", "static", "chunk"
	)

	StoreReadErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_read_errors_total",
			Help: "Total number of failed store key reads",
		},
		[]string{"kind"},
	)

	ChunkFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "store_chunk_fetch_duration_seconds",
			Help:    "End-to-end duration of remote chunk fetches in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	ChunkCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "store_chunk_cache_hits_total",
			Help: "Total number of chunk cache hits",
		},
	)

	ChunkCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "store_chunk_cache_misses_total",
			Help: "Total number of chunk cache misses",
		},
	)

	ChunkCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "store_chunk_cache_entries",
			Help: "Current number of cached chunks",
		},
	)

	ChunkCacheBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "store_chunk_cache_bytes",
			Help: "Current total size of cached chunks in bytes",
		},
	)
)

// RecordProcessRequest records one completed process API call. statusCode 0
// means the request never produced an HTTP response.
func RecordProcessRequest(dataset string, statusCode int, size int, duration time.Duration) {
	ProcessRequestDuration.WithLabelValues(dataset).Observe(duration.Seconds())
	ProcessRequestsTotal.WithLabelValues(dataset, strconv.Itoa(statusCode)).Inc()
	if size > 0 {
		ProcessResponseBytes.Observe(float64(size))
	}
}

// RecordRetry records one retry attempt with its trigger.
func RecordRetry(reason string) {
	ProcessRetriesTotal.WithLabelValues(reason).Inc()
}

// RecordTokenRefresh records an OAuth2 token fetch.
func RecordTokenRefresh(forced bool, err error) {
	TokenRefreshesTotal.WithLabelValues(strconv.FormatBool(forced)).Inc()
	if err != nil {
		TokenRefreshErrors.Inc()
	}
}

// RecordCatalogSearch records one catalog search page.
func RecordCatalogSearch(collection string, numFeatures int) {
	CatalogSearchesTotal.WithLabelValues(collection).Inc()
	CatalogFeaturesReturned.Observe(float64(numFeatures))
}

// RecordStoreRead records a store key read by key kind.
func RecordStoreRead(kind string, err error) {
	StoreReadsTotal.WithLabelValues(kind).Inc()
	if err != nil {
		StoreReadErrors.WithLabelValues(kind).Inc()
	}
}

// RecordChunkFetch records the end-to-end duration of a remote chunk fetch.
func RecordChunkFetch(duration time.Duration) {
	ChunkFetchDuration.Observe(duration.Seconds())
}

// RecordChunkCache records a cache lookup result.
func RecordChunkCache(hit bool) {
	if hit {
		ChunkCacheHits.Inc()
	} else {
		ChunkCacheMisses.Inc()
	}
}

// SetChunkCacheSize updates the cache occupancy gauges.
func SetChunkCacheSize(entries int, bytes int64) {
	ChunkCacheEntries.Set(float64(entries))
	ChunkCacheBytes.Set(float64(bytes))
}

// Serve exposes /metrics on addr until ctx is cancelled. It blocks; run it
// in its own goroutine.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
