// Tessellatus - Satellite Imagery Virtual Data Cube Store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tessellatus

package chunkstore

import (
	"context"
	"fmt"

	"github.com/tomtom215/tessellatus/internal/config"
	"github.com/tomtom215/tessellatus/internal/sentinelhub"
)

// periodTimeRanges slices the configured time range into fixed periods,
// starting at the range start and stepping until the range end is passed.
// Deterministic and offline.
func periodTimeRanges(cube *config.Cube) []config.TimeRange {
	var ranges []config.TimeRange
	for t := cube.TimeRange.Start; !t.After(cube.TimeRange.End); t = t.Add(cube.TimePeriod) {
		ranges = append(ranges, config.TimeRange{Start: t, End: t.Add(cube.TimePeriod)})
	}
	return ranges
}

// resolveTimeRanges computes the cube's time slices. With a configured
// period the slices are derived arithmetically; otherwise the catalog is
// searched for the actual acquisition timestamps intersecting the cube's
// bbox and time range.
//
// A search with no hits is repeated without the time filter, since some
// collections (DEM, some BYOC) carry no temporal metadata at all. When
// that fallback finds features but the first one has no datetime, the
// whole configured range becomes a single slice. An empty result after
// the fallback yields an empty list, which construction treats as fatal.
func resolveTimeRanges(ctx context.Context, client RemoteClient, cube *config.Cube) ([]config.TimeRange, error) {
	if cube.TimePeriod > 0 {
		return periodTimeRanges(cube), nil
	}

	collectionName := cube.CollectionID
	if !cube.IsCustom() {
		collectionName = sentinelhub.DatasetCollectionName(cube.Dataset)
		if collectionName == "" {
			return nil, fmt.Errorf("%w: cannot find collection name for dataset %q",
				config.ErrInvalid, cube.Dataset)
		}
	}

	bbox := cube.BBox
	timeRange := cube.TimeRange
	features, err := client.GetFeatures(ctx, collectionName, sentinelhub.SearchOptions{
		BBox:      &bbox,
		CRS:       cube.CRS,
		TimeRange: &timeRange,
	})
	if err != nil {
		return nil, err
	}
	if len(features) == 0 {
		// The collection may have no data in the requested range, or no
		// time information at all. Repeat without the time filter.
		features, err = client.GetFeatures(ctx, collectionName, sentinelhub.SearchOptions{
			BBox:         &bbox,
			CRS:          cube.CRS,
			BadRequestOK: true,
		})
		if err != nil {
			return nil, err
		}
		if len(features) == 0 {
			return nil, nil
		}
	}

	if features[0].Properties.Datetime == "" {
		// Data exists but carries no per-feature time information; the
		// configured range is the one and only slice.
		return []config.TimeRange{cube.TimeRange}, nil
	}

	return sentinelhub.FeaturesToTimeRanges(features, sentinelhub.DefaultObservationDelta), nil
}
