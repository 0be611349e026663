// Tessellatus - Satellite Imagery Virtual Data Cube Store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tessellatus

package config

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// BBox is a spatial bounding box (x1, y1, x2, y2) in CRS units, with
// (x1, y1) the southwest and (x2, y2) the northeast corner.
type BBox struct {
	X1, Y1, X2, Y2 float64
}

// Slice returns the bbox as [x1, y1, x2, y2], the order the remote API and
// the manifest use.
func (b BBox) Slice() []float64 {
	return []float64{b.X1, b.Y1, b.X2, b.Y2}
}

func (b BBox) String() string {
	return fmt.Sprintf("(%g, %g, %g, %g)", b.X1, b.Y1, b.X2, b.Y2)
}

// TimeRange is an ordered pair of UTC timestamps.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Mid returns the midpoint of the range.
func (r TimeRange) Mid() time.Time {
	return r.Start.Add(r.End.Sub(r.Start) / 2)
}

// Widen returns the range widened symmetrically by tol on both ends.
func (r TimeRange) Widen(tol time.Duration) TimeRange {
	if tol <= 0 {
		return r
	}
	return TimeRange{Start: r.Start.Add(-tol), End: r.End.Add(tol)}
}

// Cube is the resolved, immutable cube description consumed by the chunk
// store. Its pixel grid is snapped to whole tiles: Width is a multiple of
// TileWidth and Height a multiple of TileHeight (or equal to them when the
// grid is smaller than one nominal tile).
type Cube struct {
	Dataset      string
	CollectionID string

	// Bands is nil until band names are resolved, either from CubeConfig or
	// from the remote band list via WithBands.
	Bands       []string
	SampleTypes []string
	FillValues  []float64
	Units       []string

	BBox       BBox
	SpatialRes float64
	CRS        string

	Width, Height         int
	TileWidth, TileHeight int

	Upsampling      string
	Downsampling    string
	MosaickingOrder string

	TimeRange     TimeRange
	TimePeriod    time.Duration // zero means "use actual acquisition times"
	TimeTolerance time.Duration

	FourD bool
}

// NewCube resolves a raw CubeConfig into an immutable Cube: CRS ids are
// normalized, the byoc- collection prefix applied, the pixel grid computed
// from bbox and resolution, tile sizes defaulted and capped, the bbox grown
// northward/eastward so the grid divides into whole tiles, and the time
// range, period and tolerance parsed.
func NewCube(cc CubeConfig) (*Cube, error) {
	crs, err := NormalizeCRS(cc.CRS)
	if err != nil {
		return nil, err
	}

	upsampling := orDefault(cc.Upsampling, DefaultResampling)
	downsampling := orDefault(cc.Downsampling, DefaultResampling)
	mosaickingOrder := orDefault(cc.MosaickingOrder, DefaultMosaickingOrder)
	if !slices.Contains(Resamplings, upsampling) {
		return nil, fmt.Errorf("%w: upsampling must be one of %v (got %q)", ErrInvalid, Resamplings, upsampling)
	}
	if !slices.Contains(Resamplings, downsampling) {
		return nil, fmt.Errorf("%w: downsampling must be one of %v (got %q)", ErrInvalid, Resamplings, downsampling)
	}
	if !slices.Contains(MosaickingOrders, mosaickingOrder) {
		return nil, fmt.Errorf("%w: mosaicking_order must be one of %v (got %q)", ErrInvalid, MosaickingOrders, mosaickingOrder)
	}

	dataset := cc.Dataset
	collectionID := cc.CollectionID
	if collectionID != "" && !strings.HasPrefix(collectionID, "byoc-") {
		collectionID = "byoc-" + collectionID
	}
	if dataset == "" {
		if collectionID == "" {
			return nil, fmt.Errorf("%w: either dataset or collection_id must be given", ErrInvalid)
		}
		dataset = "CUSTOM"
	}
	if collectionID != "" && !strings.EqualFold(dataset, "CUSTOM") {
		return nil, fmt.Errorf(`%w: dataset must be "CUSTOM" when collection_id is given`, ErrInvalid)
	}

	if cc.SpatialRes <= 0 {
		return nil, fmt.Errorf("%w: spatial_res must be a positive number (got %g)", ErrInvalid, cc.SpatialRes)
	}
	if len(cc.BBox) != 4 {
		return nil, fmt.Errorf("%w: bbox must be a tuple of 4 numbers", ErrInvalid)
	}
	bbox := BBox{X1: cc.BBox[0], Y1: cc.BBox[1], X2: cc.BBox[2], Y2: cc.BBox[3]}
	if bbox.X1 >= bbox.X2 || bbox.Y1 >= bbox.Y2 {
		return nil, fmt.Errorf("%w: bbox must satisfy x1 < x2 and y1 < y2", ErrInvalid)
	}

	width := max(1, int(math.Round((bbox.X2-bbox.X1)/cc.SpatialRes)))
	height := max(1, int(math.Round((bbox.Y2-bbox.Y1)/cc.SpatialRes)))

	tileWidth, tileHeight := cc.TileWidth, cc.TileHeight
	switch {
	case tileWidth <= 0 && tileHeight <= 0:
		// Aim for roughly DefaultTileSize^2 pixels per tile, shaped like the
		// overall grid.
		numPixelsPerTile := DefaultTileSize * DefaultTileSize
		tileWidth = int(math.Ceil(math.Sqrt(float64(width) * float64(numPixelsPerTile) / float64(height))))
		tileHeight = ceilDiv(numPixelsPerTile, tileWidth)
	case tileWidth <= 0:
		tileWidth = tileHeight
	case tileHeight <= 0:
		tileHeight = tileWidth
	}
	tileWidth = min(tileWidth, MaxImageSize)
	tileHeight = min(tileHeight, MaxImageSize)

	// Snap the grid to whole tiles. Grids not much larger than a single tile
	// become exactly one tile; otherwise the grid grows to the next tile
	// multiple and the bbox grows with it.
	if float64(width) < 1.5*float64(tileWidth) {
		tileWidth = width
	} else {
		width = ceilDiv(width, tileWidth) * tileWidth
	}
	if float64(height) < 1.5*float64(tileHeight) {
		tileHeight = height
	} else {
		height = ceilDiv(height, tileHeight) * tileHeight
	}
	bbox.X2 = bbox.X1 + float64(width)*cc.SpatialRes
	bbox.Y2 = bbox.Y1 + float64(height)*cc.SpatialRes

	timeRange, err := parseCubeTimeRange(cc.TimeStart, cc.TimeEnd)
	if err != nil {
		return nil, err
	}

	timePeriod, err := parseDelta(cc.TimePeriod)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid time_period %q: %v", ErrInvalid, cc.TimePeriod, err)
	}
	timeTolerance, err := parseDelta(cc.TimeTolerance)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid time_tolerance %q: %v", ErrInvalid, cc.TimeTolerance, err)
	}
	if timePeriod == 0 && timeTolerance == 0 {
		timeTolerance = DefaultTimeTolerance
	}

	var bands []string
	if len(cc.Bands) > 0 {
		bands = slices.Clone(cc.Bands)
	}

	cube := &Cube{
		Dataset:         dataset,
		CollectionID:    collectionID,
		Bands:           bands,
		SampleTypes:     slices.Clone(cc.BandSampleTypes),
		FillValues:      slices.Clone(cc.BandFillValues),
		Units:           slices.Clone(cc.BandUnits),
		BBox:            bbox,
		SpatialRes:      cc.SpatialRes,
		CRS:             crs,
		Width:           width,
		Height:          height,
		TileWidth:       tileWidth,
		TileHeight:      tileHeight,
		Upsampling:      upsampling,
		Downsampling:    downsampling,
		MosaickingOrder: mosaickingOrder,
		TimeRange:       timeRange,
		TimePeriod:      timePeriod,
		TimeTolerance:   timeTolerance,
		FourD:           cc.FourD,
	}
	return cube, nil
}

// WithBands returns a copy of the cube with concrete band names and, when
// the cube carries none of its own, the given per-band sample types. Used
// when the band list is resolved from the remote API.
func (c *Cube) WithBands(bands, sampleTypes []string) *Cube {
	cube := *c
	cube.Bands = slices.Clone(bands)
	if len(cube.SampleTypes) == 0 && len(sampleTypes) == len(bands) &&
		!slices.Contains(sampleTypes, "") {
		cube.SampleTypes = slices.Clone(sampleTypes)
	}
	return &cube
}

// IsGeographic reports whether the cube's CRS uses geographic (lon/lat)
// coordinates.
func (c *Cube) IsGeographic() bool {
	return IsGeographicCRS(c.CRS)
}

// IsCustom reports whether the cube targets a user-registered (BYOC)
// collection rather than a builtin dataset.
func (c *Cube) IsCustom() bool {
	return strings.EqualFold(c.Dataset, "CUSTOM")
}

// NumTilesX returns the number of tile columns.
func (c *Cube) NumTilesX() int {
	return ceilDiv(c.Width, c.TileWidth)
}

// NumTilesY returns the number of tile rows.
func (c *Cube) NumTilesY() int {
	return ceilDiv(c.Height, c.TileHeight)
}

// SampleTypeOverride returns the configured sample type for band index i, or
// "" when the configuration does not override it. A single configured entry
// applies to every band.
func (c *Cube) SampleTypeOverride(i int) string {
	return scalarOrIndex(c.SampleTypes, i)
}

// UnitOverride returns the configured unit for band index i, or "".
func (c *Cube) UnitOverride(i int) string {
	return scalarOrIndex(c.Units, i)
}

// FillValueOverride returns the configured fill value for band index i.
// The second result is false when the configuration does not override it.
func (c *Cube) FillValueOverride(i int) (float64, bool) {
	switch len(c.FillValues) {
	case 0:
		return 0, false
	case 1:
		return c.FillValues[0], true
	default:
		if i >= 0 && i < len(c.FillValues) {
			return c.FillValues[i], true
		}
		return 0, false
	}
}

// BandIndex returns the index of the named band, or -1.
func (c *Cube) BandIndex(name string) int {
	return slices.Index(c.Bands, name)
}

// ToMap returns a JSON-serializable record of the exact configuration, used
// for the manifest's provenance attribute.
func (c *Cube) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"dataset_name":     c.Dataset,
		"band_names":       c.Bands,
		"bbox":             c.BBox.Slice(),
		"spatial_res":      c.SpatialRes,
		"crs":              c.CRS,
		"tile_size":        []int{c.TileWidth, c.TileHeight},
		"upsampling":       c.Upsampling,
		"downsampling":     c.Downsampling,
		"mosaicking_order": c.MosaickingOrder,
		"time_range": []string{
			c.TimeRange.Start.Format(time.RFC3339),
			c.TimeRange.End.Format(time.RFC3339),
		},
		"four_d": c.FourD,
	}
	if c.CollectionID != "" {
		m["collection_id"] = c.CollectionID
	}
	if len(c.SampleTypes) > 0 {
		m["band_sample_types"] = c.SampleTypes
	}
	if len(c.FillValues) > 0 {
		// NaN means "no fill value" and is not valid JSON; record it as null.
		fills := make([]interface{}, len(c.FillValues))
		for i, v := range c.FillValues {
			if math.IsNaN(v) {
				fills[i] = nil
			} else {
				fills[i] = v
			}
		}
		m["band_fill_values"] = fills
	}
	if len(c.Units) > 0 {
		m["band_units"] = c.Units
	}
	if c.TimePeriod > 0 {
		m["time_period"] = c.TimePeriod.String()
	}
	if c.TimeTolerance > 0 {
		m["time_tolerance"] = c.TimeTolerance.String()
	}
	return m
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func scalarOrIndex(values []string, i int) string {
	switch len(values) {
	case 0:
		return ""
	case 1:
		return values[0]
	default:
		if i >= 0 && i < len(values) {
			return values[i]
		}
		return ""
	}
}

func ceilDiv(x, y int) int {
	return (x + y - 1) / y
}

// timestampLayouts are the accepted time layouts, tried in order.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses a timestamp in one of the accepted layouts,
// normalized to UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognized timestamp %q", ErrInvalid, s)
}

func parseCubeTimeRange(start, end string) (TimeRange, error) {
	if start == "" {
		start = "1970-01-01"
	}
	if end == "" {
		end = time.Now().UTC().Format("2006-01-02")
	}
	startTime, err := ParseTimestamp(start)
	if err != nil {
		return TimeRange{}, err
	}
	endTime, err := ParseTimestamp(end)
	if err != nil {
		return TimeRange{}, err
	}
	if endTime.Before(startTime) {
		return TimeRange{}, fmt.Errorf("%w: time_end must not precede time_start", ErrInvalid)
	}
	return TimeRange{Start: startTime, End: endTime}, nil
}

// parseDelta parses a duration. On top of Go duration syntax ("90m", "1h30m")
// it accepts day and week suffixes ("8d", "1w", "1D", "2W") since aggregation
// periods are usually given in days. "M" means minutes, never months.
func parseDelta(s string) (time.Duration, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, nil
	}
	if n, ok := strings.CutSuffix(s, "d"); ok {
		if v, err := strconv.Atoi(n); err == nil && v > 0 {
			return time.Duration(v) * 24 * time.Hour, nil
		}
	}
	if n, ok := strings.CutSuffix(s, "w"); ok {
		if v, err := strconv.Atoi(n); err == nil && v > 0 {
			return time.Duration(v) * 7 * 24 * time.Hour, nil
		}
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must not be negative")
	}
	return d, nil
}
