// Tessellatus - Satellite Imagery Virtual Data Cube Store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tessellatus

package chunkstore

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/tessellatus/internal/config"
	"github.com/tomtom215/tessellatus/internal/logging"
	"github.com/tomtom215/tessellatus/internal/metrics"
)

// Event is the telemetry record of one chunk fetch attempt. Exactly one
// event is emitted per read of a chunk placeholder, success or failure.
type Event struct {
	ID        uuid.UUID
	Variable  string
	Key       ChunkKey
	BBox      config.BBox
	TimeRange config.TimeRange
	Duration  time.Duration

	// Err is non-nil if and only if the read failed.
	Err error
}

func newEventID() uuid.UUID {
	return uuid.New()
}

// Observer is notified after every chunk fetch attempt. Observers run on
// the reading goroutine and must be safe for concurrent calls.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) {
	f(e)
}

// LogObserver logs every fetch event.
type LogObserver struct{}

func (LogObserver) Observe(e Event) {
	event := logging.Debug()
	if e.Err != nil {
		event = logging.Warn().Err(e.Err)
	}
	event.
		Str("event_id", e.ID.String()).
		Str("variable", e.Variable).
		Str("chunk", e.Key.String()).
		Str("bbox", e.BBox.String()).
		Time("time_start", e.TimeRange.Start).
		Time("time_end", e.TimeRange.End).
		Dur("duration", e.Duration).
		Msg("chunk fetch")
}

// MetricsObserver bridges fetch telemetry into Prometheus.
type MetricsObserver struct{}

func (MetricsObserver) Observe(e Event) {
	metrics.RecordChunkFetch(e.Duration)
}

// Collector accumulates fetch durations for summary statistics.
type Collector struct {
	mu        sync.Mutex
	durations []time.Duration
	errors    int
}

// CollectorStats summarizes the fetches seen so far.
type CollectorStats struct {
	Count  int
	Errors int
	Min    time.Duration
	Max    time.Duration
	Mean   time.Duration
	Median time.Duration
	StdDev time.Duration
}

func (c *Collector) Observe(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.durations = append(c.durations, e.Duration)
	if e.Err != nil {
		c.errors++
	}
}

// Stats computes summary statistics over everything observed so far.
func (c *Collector) Stats() CollectorStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := CollectorStats{Count: len(c.durations), Errors: c.errors}
	if stats.Count == 0 {
		return stats
	}

	sorted := make([]time.Duration, len(c.durations))
	copy(sorted, c.durations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	stats.Min = sorted[0]
	stats.Max = sorted[len(sorted)-1]
	if n := len(sorted); n%2 == 1 {
		stats.Median = sorted[n/2]
	} else {
		stats.Median = (sorted[n/2-1] + sorted[n/2]) / 2
	}

	var sum time.Duration
	for _, d := range sorted {
		sum += d
	}
	stats.Mean = sum / time.Duration(len(sorted))

	var variance float64
	mean := float64(stats.Mean)
	for _, d := range sorted {
		diff := float64(d) - mean
		variance += diff * diff
	}
	stats.StdDev = time.Duration(math.Sqrt(variance / float64(len(sorted))))
	return stats
}
