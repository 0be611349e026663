// Tessellatus - Satellite Imagery Virtual Data Cube Store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tessellatus

package chunkstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/tessellatus/internal/config"
	models "github.com/tomtom215/tessellatus/internal/models/sentinelhub"
	"github.com/tomtom215/tessellatus/internal/sentinelhub"
)

func featuresAt(datetimes ...string) []models.Feature {
	features := make([]models.Feature, len(datetimes))
	for i, dt := range datetimes {
		features[i].Properties.Datetime = dt
	}
	return features
}

func TestResolveTimeRanges_PeriodMode(t *testing.T) {
	client := &fakeClient{}
	cube := testCube(t, nil)

	ranges, err := resolveTimeRanges(context.Background(), client, cube)
	if err != nil {
		t.Fatalf("resolveTimeRanges: %v", err)
	}
	if len(ranges) != 4 {
		t.Fatalf("got %d ranges, want 4", len(ranges))
	}
	if len(client.featuresCalls) != 0 {
		t.Errorf("period mode searched the catalog %d times", len(client.featuresCalls))
	}

	wantStart := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, r := range ranges {
		if !r.Start.Equal(wantStart.Add(time.Duration(i) * 48 * time.Hour)) {
			t.Errorf("range %d starts at %v", i, r.Start)
		}
		if r.End.Sub(r.Start) != 48*time.Hour {
			t.Errorf("range %d spans %v", i, r.End.Sub(r.Start))
		}
	}
}

func TestResolveTimeRanges_CatalogMode(t *testing.T) {
	client := &fakeClient{
		featuresFn: func(collection string, opts sentinelhub.SearchOptions) ([]models.Feature, error) {
			if collection != "sentinel-2-l2a" {
				t.Errorf("searched collection %q", collection)
			}
			return featuresAt(
				"2019-01-02T10:00:00Z",
				"2019-01-02T10:00:02Z",
				"2019-01-05T10:10:00Z",
			), nil
		},
	}
	cube := testCube(t, func(cc *config.CubeConfig) { cc.TimePeriod = "" })

	ranges, err := resolveTimeRanges(context.Background(), client, cube)
	if err != nil {
		t.Fatalf("resolveTimeRanges: %v", err)
	}
	if len(ranges) != 2 {
		t.Fatalf("got %d ranges, want 2", len(ranges))
	}
	if !ranges[0].Start.Equal(time.Date(2019, 1, 2, 10, 0, 0, 0, time.UTC)) ||
		!ranges[0].End.Equal(time.Date(2019, 1, 2, 10, 0, 2, 0, time.UTC)) {
		t.Errorf("first range = %v", ranges[0])
	}

	if len(client.featuresCalls) != 1 {
		t.Fatalf("catalog searched %d times, want 1", len(client.featuresCalls))
	}
	opts := client.featuresCalls[0]
	if opts.TimeRange == nil || opts.BBox == nil {
		t.Fatal("first search must carry the bbox and time filter")
	}
	if opts.BBox.X1 != 10.2 || opts.BBox.Y2 != 53.6 {
		t.Errorf("search bbox = %v", *opts.BBox)
	}
}

func TestResolveTimeRanges_RetriesWithoutTimeFilter(t *testing.T) {
	client := &fakeClient{
		featuresFn: func(_ string, opts sentinelhub.SearchOptions) ([]models.Feature, error) {
			if opts.TimeRange != nil {
				return nil, nil
			}
			return featuresAt("2019-01-02T10:00:00Z"), nil
		},
	}
	cube := testCube(t, func(cc *config.CubeConfig) { cc.TimePeriod = "" })

	ranges, err := resolveTimeRanges(context.Background(), client, cube)
	if err != nil {
		t.Fatalf("resolveTimeRanges: %v", err)
	}
	if len(ranges) != 1 {
		t.Fatalf("got %d ranges, want 1", len(ranges))
	}
	if len(client.featuresCalls) != 2 {
		t.Fatalf("catalog searched %d times, want 2", len(client.featuresCalls))
	}
	retry := client.featuresCalls[1]
	if retry.TimeRange != nil {
		t.Error("retry still carries the time filter")
	}
	if !retry.BadRequestOK {
		t.Error("retry must tolerate a 400 response")
	}
}

func TestResolveTimeRanges_NoDatetimeCollapsesToOneSlice(t *testing.T) {
	client := &fakeClient{
		featuresFn: func(_ string, _ sentinelhub.SearchOptions) ([]models.Feature, error) {
			return featuresAt(""), nil
		},
	}
	cube := testCube(t, func(cc *config.CubeConfig) { cc.TimePeriod = "" })

	ranges, err := resolveTimeRanges(context.Background(), client, cube)
	if err != nil {
		t.Fatalf("resolveTimeRanges: %v", err)
	}
	if len(ranges) != 1 {
		t.Fatalf("got %d ranges, want 1", len(ranges))
	}
	if !ranges[0].Start.Equal(cube.TimeRange.Start) || !ranges[0].End.Equal(cube.TimeRange.End) {
		t.Errorf("slice %v does not cover the configured range %v", ranges[0], cube.TimeRange)
	}
}

func TestNew_NoTimestampsIsFatal(t *testing.T) {
	client := &fakeClient{} // catalog always empty
	cube := testCube(t, func(cc *config.CubeConfig) { cc.TimePeriod = "" })

	_, err := New(context.Background(), client, cube)
	if !errors.Is(err, ErrNoValidTimestamps) {
		t.Fatalf("got %v, want ErrNoValidTimestamps", err)
	}
	if len(client.featuresCalls) != 2 {
		t.Errorf("catalog searched %d times, want 2 (with and without time filter)", len(client.featuresCalls))
	}
}

func TestResolveTimeRanges_UnknownDatasetCollection(t *testing.T) {
	cube := testCube(t, func(cc *config.CubeConfig) { cc.TimePeriod = "" })
	cube.Dataset = "NO_SUCH_DATASET"

	_, err := resolveTimeRanges(context.Background(), &fakeClient{}, cube)
	if !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("got %v, want ErrInvalid", err)
	}
}

// Grouping the boundaries of already-grouped ranges must reproduce the
// ranges unchanged.
func TestTimeRangeGroupingIsFixedPoint(t *testing.T) {
	features := featuresAt(
		"2019-01-02T10:00:00Z",
		"2019-01-02T10:00:02Z",
		"2019-01-02T10:00:06Z",
		"2019-01-05T09:55:00Z",
		"2019-01-05T09:55:04Z",
		"2019-01-09T10:02:00Z",
	)
	ranges := sentinelhub.FeaturesToTimeRanges(features, time.Hour)

	var boundaries []models.Feature
	for _, r := range ranges {
		boundaries = append(boundaries, featuresAt(
			r.Start.Format(time.RFC3339),
			r.End.Format(time.RFC3339),
		)...)
	}
	again := sentinelhub.FeaturesToTimeRanges(boundaries, time.Hour)

	if len(again) != len(ranges) {
		t.Fatalf("regrouping changed the slice count: %d -> %d", len(ranges), len(again))
	}
	for i := range ranges {
		if !ranges[i].Start.Equal(again[i].Start) || !ranges[i].End.Equal(again[i].End) {
			t.Errorf("range %d changed: %v -> %v", i, ranges[i], again[i])
		}
	}
}

func TestRequestTimeRange_AppliesTolerance(t *testing.T) {
	store := newTestStore(t, &fakeClient{}, func(cc *config.CubeConfig) {
		cc.TimeTolerance = "10m"
	})

	window := store.RequestTimeRange(0)
	slice := store.TimeRanges()[0]
	if !window.Start.Equal(slice.Start.Add(-10 * time.Minute)) {
		t.Errorf("window start = %v", window.Start)
	}
	if !window.End.Equal(slice.End.Add(10 * time.Minute)) {
		t.Errorf("window end = %v", window.End)
	}
}

func TestIso8601Duration(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{48 * time.Hour, "P2DT0H0M0S"},
		{90 * time.Minute, "PT1H30M0S"},
		{10 * time.Second, "PT0H0M10S"},
		{30*24*time.Hour + 12*time.Hour + 30*time.Minute, "P30DT12H30M0S"},
	}
	for _, tc := range cases {
		if got := iso8601Duration(tc.d); got != tc.want {
			t.Errorf("iso8601Duration(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}
