// Tessellatus - Satellite Imagery Virtual Data Cube Store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tessellatus

package sentinelhub

import (
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/tessellatus/internal/logging"
	"github.com/tomtom215/tessellatus/internal/metrics"
)

// processBreaker wraps process API fetches in a circuit breaker so a dead
// or overloaded endpoint stops burning the whole retry budget per chunk.
//
// The breaker uses real time for its interval and timeout calculations;
// tests exercise the underlying fetch path directly.
type processBreaker struct {
	cb *gobreaker.CircuitBreaker[*FetchResponse]
}

// newProcessBreaker configures the breaker:
//   - max 3 concurrent probes in half-open state
//   - 1 minute measurement window
//   - 2 minute open period before probing again
//   - opens at a 60% failure rate over at least 10 requests
func newProcessBreaker() *processBreaker {
	cb := gobreaker.NewCircuitBreaker[*FetchResponse](gobreaker.Settings{
		Name:        "sh-process-api",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := breakerStateString(from)
			toStr := breakerStateString(to)
			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).
				Msg("circuit breaker state transition")
			metrics.CircuitBreakerState.Set(breakerStateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(fromStr, toStr).Inc()
		},
	})
	return &processBreaker{cb: cb}
}

// execute runs fn under the breaker, counting rejections.
func (b *processBreaker) execute(fn func() (*FetchResponse, error)) (*FetchResponse, error) {
	resp, err := b.cb.Execute(fn)
	if err != nil && (errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)) {
		metrics.CircuitBreakerRejections.Inc()
		logging.Warn().Err(err).Msg("process request rejected by circuit breaker")
	}
	return resp, err
}

func breakerStateString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
