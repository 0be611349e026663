// Tessellatus - Satellite Imagery Virtual Data Cube Store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tessellatus

package sentinelhub

import (
	"slices"
	"time"

	"github.com/tomtom215/tessellatus/internal/config"
	"github.com/tomtom215/tessellatus/internal/logging"
	models "github.com/tomtom215/tessellatus/internal/models/sentinelhub"
)

// DefaultObservationDelta is the grouping window for acquisition
// timestamps: observations closer together than this belong to the same
// overpass and become one time slice.
const DefaultObservationDelta = time.Hour

// FeaturesToTimeRanges groups catalog acquisition timestamps into time
// ranges. Timestamps are deduplicated and sorted, then grouped greedily: a
// group is extended while the next timestamp is less than maxDelta after
// the group's first timestamp.
//
// Features without a parseable datetime property are skipped.
func FeaturesToTimeRanges(features []models.Feature, maxDelta time.Duration) []config.TimeRange {
	if maxDelta <= 0 {
		maxDelta = DefaultObservationDelta
	}

	timestamps := make([]time.Time, 0, len(features))
	for _, feature := range features {
		datetime := feature.Properties.Datetime
		if datetime == "" {
			continue
		}
		ts, err := config.ParseTimestamp(datetime)
		if err != nil {
			logging.Warn().Str("datetime", datetime).
				Msg("failed parsing feature datetime, skipping")
			continue
		}
		timestamps = append(timestamps, ts)
	}

	slices.SortFunc(timestamps, time.Time.Compare)
	timestamps = slices.CompactFunc(timestamps, time.Time.Equal)

	var timeRanges []config.TimeRange
	i := 0
	for i < len(timestamps) {
		first := timestamps[i]
		last := first
		for i < len(timestamps) {
			ts := timestamps[i]
			if ts.Sub(first) >= maxDelta {
				break
			}
			last = ts
			i++
		}
		timeRanges = append(timeRanges, config.TimeRange{Start: first, End: last})
	}
	return timeRanges
}
