// Tessellatus - Satellite Imagery Virtual Data Cube Store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tessellatus

package sentinelhub

import (
	"testing"
	"time"

	models "github.com/tomtom215/tessellatus/internal/models/sentinelhub"
)

func featuresFromDatetimes(datetimes []string) []models.Feature {
	features := make([]models.Feature, len(datetimes))
	for i, dt := range datetimes {
		features[i].Properties.Datetime = dt
	}
	return features
}

func TestFeaturesToTimeRanges(t *testing.T) {
	// A month of unordered Sentinel-2 acquisitions; pairs seconds apart
	// belong to the same overpass and must merge into one range.
	features := featuresFromDatetimes([]string{
		"2019-09-17T10:35:42Z",
		"2019-09-17T10:35:46Z",
		"2019-10-09T10:25:46Z",
		"2019-10-10T10:45:38Z",
		"2019-09-19T10:25:44Z",
		"2019-09-20T10:45:35Z",
		"2019-09-20T10:45:43Z",
		"2019-09-22T10:35:42Z",
		"2019-09-27T10:35:44Z",
		"2019-09-27T10:35:48Z",
		"2019-10-02T10:35:47Z",
		"2019-10-04T10:25:47Z",
		"2019-10-05T10:45:36Z",
		"2019-10-05T10:45:44Z",
		"2019-10-07T10:35:45Z",
		"2019-10-07T10:35:49Z",
		"2019-09-29T10:25:46Z",
		"2019-09-30T10:45:37Z",
		"2019-09-25T10:45:35Z",
		"2019-09-25T10:45:43Z",
		"2019-09-30T10:45:45Z",
		"2019-10-02T10:35:43Z",
		"2019-10-10T10:45:46Z",
		"2019-10-12T10:35:44Z",
		"2019-09-22T10:35:46Z",
		"2019-09-24T10:25:46Z",
		"2019-10-12T10:35:48Z",
		"2019-10-14T10:25:48Z",
		"2019-10-15T10:45:36Z",
		"2019-10-15T10:45:44Z",
		"2019-10-17T10:35:46Z",
		"2019-10-17T10:35:50Z",
	})

	want := [][2]string{
		{"2019-09-17T10:35:42Z", "2019-09-17T10:35:46Z"},
		{"2019-09-19T10:25:44Z", "2019-09-19T10:25:44Z"},
		{"2019-09-20T10:45:35Z", "2019-09-20T10:45:43Z"},
		{"2019-09-22T10:35:42Z", "2019-09-22T10:35:46Z"},
		{"2019-09-24T10:25:46Z", "2019-09-24T10:25:46Z"},
		{"2019-09-25T10:45:35Z", "2019-09-25T10:45:43Z"},
		{"2019-09-27T10:35:44Z", "2019-09-27T10:35:48Z"},
		{"2019-09-29T10:25:46Z", "2019-09-29T10:25:46Z"},
		{"2019-09-30T10:45:37Z", "2019-09-30T10:45:45Z"},
		{"2019-10-02T10:35:43Z", "2019-10-02T10:35:47Z"},
		{"2019-10-04T10:25:47Z", "2019-10-04T10:25:47Z"},
		{"2019-10-05T10:45:36Z", "2019-10-05T10:45:44Z"},
		{"2019-10-07T10:35:45Z", "2019-10-07T10:35:49Z"},
		{"2019-10-09T10:25:46Z", "2019-10-09T10:25:46Z"},
		{"2019-10-10T10:45:38Z", "2019-10-10T10:45:46Z"},
		{"2019-10-12T10:35:44Z", "2019-10-12T10:35:48Z"},
		{"2019-10-14T10:25:48Z", "2019-10-14T10:25:48Z"},
		{"2019-10-15T10:45:36Z", "2019-10-15T10:45:44Z"},
		{"2019-10-17T10:35:46Z", "2019-10-17T10:35:50Z"},
	}

	got := FeaturesToTimeRanges(features, time.Hour)
	if len(got) != len(want) {
		t.Fatalf("expected %d time ranges, got %d", len(want), len(got))
	}
	for i, w := range want {
		wantStart, _ := time.Parse(time.RFC3339, w[0])
		wantEnd, _ := time.Parse(time.RFC3339, w[1])
		if !got[i].Start.Equal(wantStart) || !got[i].End.Equal(wantEnd) {
			t.Errorf("range %d: got (%v, %v), want (%v, %v)",
				i, got[i].Start, got[i].End, wantStart, wantEnd)
		}
	}
}

func TestFeaturesToTimeRanges_Duplicates(t *testing.T) {
	features := featuresFromDatetimes([]string{
		"2020-01-01T12:00:00Z",
		"2020-01-01T12:00:00Z",
		"2020-01-01T12:00:00Z",
	})
	got := FeaturesToTimeRanges(features, time.Hour)
	if len(got) != 1 {
		t.Fatalf("expected 1 range, got %d", len(got))
	}
	if !got[0].Start.Equal(got[0].End) {
		t.Errorf("duplicate timestamps must collapse into a degenerate range: %v", got[0])
	}
}

func TestFeaturesToTimeRanges_SkipsBadDatetimes(t *testing.T) {
	features := featuresFromDatetimes([]string{
		"",
		"not a timestamp",
		"2020-01-01T12:00:00Z",
	})
	got := FeaturesToTimeRanges(features, time.Hour)
	if len(got) != 1 {
		t.Fatalf("expected 1 range from the single valid datetime, got %d", len(got))
	}
}

func TestFeaturesToTimeRanges_Empty(t *testing.T) {
	if got := FeaturesToTimeRanges(nil, time.Hour); len(got) != 0 {
		t.Errorf("expected no ranges for no features, got %v", got)
	}
}

func TestFeaturesToTimeRanges_ExactDeltaSplits(t *testing.T) {
	features := featuresFromDatetimes([]string{
		"2020-01-01T12:00:00Z",
		"2020-01-01T13:00:00Z", // exactly maxDelta later, must start a new range
	})
	got := FeaturesToTimeRanges(features, time.Hour)
	if len(got) != 2 {
		t.Fatalf("expected 2 ranges, got %d", len(got))
	}
}
