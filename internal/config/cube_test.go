// Tessellatus - Satellite Imagery Virtual Data Cube Store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tessellatus

package config

import (
	"errors"
	"math"
	"testing"
	"time"
)

func validCubeConfig() CubeConfig {
	return CubeConfig{
		Dataset:    "S2L2A",
		Bands:      []string{"B01", "B08", "B12"},
		BBox:       []float64{10.2, 53.5, 10.3, 53.6},
		SpatialRes: 0.1 / 4000,
		CRS:        "WGS84",
		TileWidth:  1000,
		TileHeight: 1000,
		TimeStart:  "2019-09-17",
		TimeEnd:    "2019-10-17",
	}
}

func TestNewCube_GridResolution(t *testing.T) {
	cube, err := NewCube(validCubeConfig())
	if err != nil {
		t.Fatalf("NewCube failed: %v", err)
	}

	if cube.Width != 4000 || cube.Height != 4000 {
		t.Errorf("expected 4000x4000 grid, got %dx%d", cube.Width, cube.Height)
	}
	if cube.TileWidth != 1000 || cube.TileHeight != 1000 {
		t.Errorf("expected 1000x1000 tiles, got %dx%d", cube.TileWidth, cube.TileHeight)
	}
	if cube.NumTilesX() != 4 || cube.NumTilesY() != 4 {
		t.Errorf("expected 4x4 tile grid, got %dx%d", cube.NumTilesX(), cube.NumTilesY())
	}

	// The bbox must snap exactly back onto the requested extent since the
	// grid divides evenly.
	if math.Abs(cube.BBox.X2-10.3) > 1e-9 || math.Abs(cube.BBox.Y2-53.6) > 1e-9 {
		t.Errorf("bbox not preserved: %v", cube.BBox)
	}
}

func TestNewCube_SmallGridBecomesOneTile(t *testing.T) {
	cc := validCubeConfig()
	cc.BBox = []float64{10.2, 53.5, 10.21, 53.51} // 400x400 pixels
	cube, err := NewCube(cc)
	if err != nil {
		t.Fatalf("NewCube failed: %v", err)
	}
	if cube.TileWidth != 400 || cube.TileHeight != 400 {
		t.Errorf("expected tile size collapsed to grid size 400, got %dx%d",
			cube.TileWidth, cube.TileHeight)
	}
	if cube.NumTilesX() != 1 || cube.NumTilesY() != 1 {
		t.Errorf("expected a single tile, got %dx%d", cube.NumTilesX(), cube.NumTilesY())
	}
}

func TestNewCube_GridSnapsUpToWholeTiles(t *testing.T) {
	cc := validCubeConfig()
	// 4200x4200 pixels with 1000px tiles must snap up to 5000x5000.
	cc.BBox = []float64{10.2, 53.5, 10.2 + 4200*cc.SpatialRes, 53.5 + 4200*cc.SpatialRes}
	cube, err := NewCube(cc)
	if err != nil {
		t.Fatalf("NewCube failed: %v", err)
	}
	if cube.Width != 5000 || cube.Height != 5000 {
		t.Errorf("expected grid snapped to 5000x5000, got %dx%d", cube.Width, cube.Height)
	}
	wantX2 := 10.2 + 5000*cc.SpatialRes
	if math.Abs(cube.BBox.X2-wantX2) > 1e-9 {
		t.Errorf("bbox X2 not grown with the grid: got %g want %g", cube.BBox.X2, wantX2)
	}
}

func TestNewCube_TileSizeDefaultAndCap(t *testing.T) {
	cc := validCubeConfig()
	cc.TileWidth, cc.TileHeight = 0, 0
	cube, err := NewCube(cc)
	if err != nil {
		t.Fatalf("NewCube failed: %v", err)
	}
	if cube.TileWidth != DefaultTileSize || cube.TileHeight != DefaultTileSize {
		t.Errorf("expected default %d tiles for a square grid, got %dx%d",
			DefaultTileSize, cube.TileWidth, cube.TileHeight)
	}

	cc.TileWidth, cc.TileHeight = 4000, 4000
	cube, err = NewCube(cc)
	if err != nil {
		t.Fatalf("NewCube failed: %v", err)
	}
	if cube.TileWidth != MaxImageSize || cube.TileHeight != MaxImageSize {
		t.Errorf("expected tile size capped at %d, got %dx%d",
			MaxImageSize, cube.TileWidth, cube.TileHeight)
	}
}

func TestNewCube_CollectionID(t *testing.T) {
	cc := validCubeConfig()
	cc.Dataset = ""
	cc.CollectionID = "0123-4567"
	cube, err := NewCube(cc)
	if err != nil {
		t.Fatalf("NewCube failed: %v", err)
	}
	if cube.Dataset != "CUSTOM" {
		t.Errorf("expected dataset CUSTOM, got %q", cube.Dataset)
	}
	if cube.CollectionID != "byoc-0123-4567" {
		t.Errorf("expected byoc- prefix, got %q", cube.CollectionID)
	}

	// A named dataset plus a collection id is contradictory.
	cc.Dataset = "S2L2A"
	if _, err := NewCube(cc); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid for dataset+collection_id, got %v", err)
	}
}

func TestNewCube_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*CubeConfig)
	}{
		{"no dataset", func(cc *CubeConfig) { cc.Dataset = "" }},
		{"zero resolution", func(cc *CubeConfig) { cc.SpatialRes = 0 }},
		{"negative resolution", func(cc *CubeConfig) { cc.SpatialRes = -1 }},
		{"short bbox", func(cc *CubeConfig) { cc.BBox = []float64{1, 2, 3} }},
		{"inverted bbox", func(cc *CubeConfig) { cc.BBox = []float64{10.3, 53.5, 10.2, 53.6} }},
		{"bad crs", func(cc *CubeConfig) { cc.CRS = "EPSG:99999" }},
		{"bad upsampling", func(cc *CubeConfig) { cc.Upsampling = "CUBIC" }},
		{"bad mosaicking", func(cc *CubeConfig) { cc.MosaickingOrder = "newest" }},
		{"bad period", func(cc *CubeConfig) { cc.TimePeriod = "eight days" }},
		{"inverted time range", func(cc *CubeConfig) { cc.TimeStart, cc.TimeEnd = "2020-01-02", "2020-01-01" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cc := validCubeConfig()
			tc.mutate(&cc)
			if _, err := NewCube(cc); err == nil {
				t.Errorf("expected error, got nil")
			}
		})
	}
}

func TestNewCube_TimeToleranceDefault(t *testing.T) {
	cc := validCubeConfig()
	cube, err := NewCube(cc)
	if err != nil {
		t.Fatalf("NewCube failed: %v", err)
	}
	if cube.TimeTolerance != DefaultTimeTolerance {
		t.Errorf("expected default tolerance %v, got %v", DefaultTimeTolerance, cube.TimeTolerance)
	}

	// With an aggregation period the tolerance stays unset unless explicit.
	cc.TimePeriod = "8d"
	cube, err = NewCube(cc)
	if err != nil {
		t.Fatalf("NewCube failed: %v", err)
	}
	if cube.TimePeriod != 8*24*time.Hour {
		t.Errorf("expected 8-day period, got %v", cube.TimePeriod)
	}
	if cube.TimeTolerance != 0 {
		t.Errorf("expected zero tolerance with period set, got %v", cube.TimeTolerance)
	}
}

func TestParseDelta(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"", 0},
		{"8d", 8 * 24 * time.Hour},
		{"8D", 8 * 24 * time.Hour},
		{"1w", 7 * 24 * time.Hour},
		{"2W", 14 * 24 * time.Hour},
		{"10m", 10 * time.Minute},
		{"1H", time.Hour},
		{"1h30m", 90 * time.Minute},
	}
	for _, tc := range cases {
		got, err := parseDelta(tc.in)
		if err != nil {
			t.Errorf("parseDelta(%q) failed: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseDelta(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
	if _, err := parseDelta("next tuesday"); err == nil {
		t.Error("expected error for unparseable delta")
	}
}

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2019-09-17", time.Date(2019, 9, 17, 0, 0, 0, 0, time.UTC)},
		{"2019-09-17T10:35:42", time.Date(2019, 9, 17, 10, 35, 42, 0, time.UTC)},
		{"2019-09-17T10:35:42Z", time.Date(2019, 9, 17, 10, 35, 42, 0, time.UTC)},
		{"2019-09-17T12:35:42+02:00", time.Date(2019, 9, 17, 10, 35, 42, 0, time.UTC)},
	}
	for _, tc := range cases {
		got, err := ParseTimestamp(tc.in)
		if err != nil {
			t.Errorf("ParseTimestamp(%q) failed: %v", tc.in, err)
			continue
		}
		if !got.Equal(tc.want) {
			t.Errorf("ParseTimestamp(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
	if _, err := ParseTimestamp("17.09.2019"); err == nil {
		t.Error("expected error for unrecognized layout")
	}
}

func TestTimeRange_MidAndWiden(t *testing.T) {
	r := TimeRange{
		Start: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	if want := time.Date(2020, 1, 1, 12, 0, 0, 0, time.UTC); !r.Mid().Equal(want) {
		t.Errorf("Mid() = %v, want %v", r.Mid(), want)
	}
	w := r.Widen(10 * time.Minute)
	if !w.Start.Equal(r.Start.Add(-10 * time.Minute)) {
		t.Errorf("Widen start = %v", w.Start)
	}
	if !w.End.Equal(r.End.Add(10 * time.Minute)) {
		t.Errorf("Widen end = %v", w.End)
	}
	if got := r.Widen(0); got != r {
		t.Errorf("Widen(0) must be identity, got %v", got)
	}
}

func TestWithBands(t *testing.T) {
	cc := validCubeConfig()
	cc.Bands = nil
	cube, err := NewCube(cc)
	if err != nil {
		t.Fatalf("NewCube failed: %v", err)
	}
	if cube.Bands != nil {
		t.Fatalf("expected unresolved bands, got %v", cube.Bands)
	}

	resolved := cube.WithBands([]string{"B02", "B03"}, []string{"UINT16", "UINT16"})
	if cube.Bands != nil {
		t.Error("WithBands must not mutate the receiver")
	}
	if len(resolved.Bands) != 2 || resolved.Bands[0] != "B02" {
		t.Errorf("unexpected resolved bands: %v", resolved.Bands)
	}
	if len(resolved.SampleTypes) != 2 || resolved.SampleTypes[0] != "UINT16" {
		t.Errorf("unexpected resolved sample types: %v", resolved.SampleTypes)
	}

	// Sample types with gaps must not be adopted.
	partial := cube.WithBands([]string{"B02", "B03"}, []string{"UINT16", ""})
	if len(partial.SampleTypes) != 0 {
		t.Errorf("expected partial sample types dropped, got %v", partial.SampleTypes)
	}
}

func TestCube_Overrides(t *testing.T) {
	cc := validCubeConfig()
	cc.BandSampleTypes = []string{"UINT8"}
	cc.BandFillValues = []float64{0, 1, 2}
	cube, err := NewCube(cc)
	if err != nil {
		t.Fatalf("NewCube failed: %v", err)
	}

	// A single sample type applies to every band.
	for i := range cube.Bands {
		if got := cube.SampleTypeOverride(i); got != "UINT8" {
			t.Errorf("SampleTypeOverride(%d) = %q, want UINT8", i, got)
		}
	}
	if v, ok := cube.FillValueOverride(2); !ok || v != 2 {
		t.Errorf("FillValueOverride(2) = %v, %v", v, ok)
	}
	if _, ok := cube.FillValueOverride(7); ok {
		t.Error("FillValueOverride out of range must report false")
	}
}

func TestCube_ToMapSanitizesNaNFillValues(t *testing.T) {
	cc := validCubeConfig()
	cc.BandFillValues = []float64{0, math.NaN(), 2}
	cube, err := NewCube(cc)
	if err != nil {
		t.Fatalf("NewCube failed: %v", err)
	}

	fills, ok := cube.ToMap()["band_fill_values"].([]interface{})
	if !ok {
		t.Fatalf("band_fill_values missing or wrong type: %v", cube.ToMap()["band_fill_values"])
	}
	if len(fills) != 3 {
		t.Fatalf("expected 3 fill values, got %d", len(fills))
	}
	if fills[0] != 0.0 || fills[2] != 2.0 {
		t.Errorf("finite fill values must survive: %v", fills)
	}
	// NaN is not representable in JSON; it must become null.
	if fills[1] != nil {
		t.Errorf("NaN fill value = %v, want nil", fills[1])
	}
}
