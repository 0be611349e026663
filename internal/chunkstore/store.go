// Tessellatus - Satellite Imagery Virtual Data Cube Store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tessellatus

// Package chunkstore exposes a configured data cube as a virtual,
// read-only Zarr v2 store. All metadata and coordinate arrays are
// synthesized eagerly at construction; pixel chunks are placeholders
// that resolve to a remote process-API request on first read.
//
// Related Files:
// - fetch.go: lazy chunk resolution and telemetry
// - zarr.go: Zarr v2 entry synthesis
// - timegrid.go: time slice computation (period or catalog driven)
// - observer.go: per-fetch telemetry observers
// - cache.go: optional LRU-caching wrapper

package chunkstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tessellatus/internal/config"
	"github.com/tomtom215/tessellatus/internal/logging"
	models "github.com/tomtom215/tessellatus/internal/models/sentinelhub"
	"github.com/tomtom215/tessellatus/internal/sentinelhub"
)

// BandDataArrayName is the combined variable holding every band along a
// fourth axis when the cube is configured in 4-D mode.
const BandDataArrayName = "band_data"

// RemoteClient is the capability the store needs from the remote API:
// band discovery, catalog search and raster fetch. *sentinelhub.Client
// satisfies it; tests substitute doubles.
type RemoteClient interface {
	Bands(ctx context.Context, datasetName, collectionID string) ([]models.Band, error)
	GetFeatures(ctx context.Context, collectionName string, opts sentinelhub.SearchOptions) ([]models.Feature, error)
	GetData(ctx context.Context, request *models.ProcessRequest, mimeType string) (*sentinelhub.FetchResponse, error)
}

// manifestEntry is one store key: either inline bytes or a deferred
// chunk fetch.
type manifestEntry struct {
	data     []byte
	remote   bool
	variable string
	key      ChunkKey
	size     int64
}

// Store is the virtual Zarr store. The manifest is immutable after New
// returns; chunk reads are safe to issue concurrently.
type Store struct {
	cube        *config.Cube
	client      RemoteClient
	timeRanges  []config.TimeRange
	manifest    map[string]manifestEntry
	keys        []string
	sampleTypes map[string]string

	trace bool

	mu        sync.RWMutex
	observers []Observer
}

// Option configures a Store at construction.
type Option func(*Store)

// WithObserver registers an observer notified after every chunk fetch.
func WithObserver(o Observer) Option {
	return func(s *Store) { s.observers = append(s.observers, o) }
}

// WithTraceCalls logs every store-protocol call at trace level. Pure
// observability; returned values are unaffected.
func WithTraceCalls() Option {
	return func(s *Store) { s.trace = true }
}

// New builds the virtual store for the given cube. When the cube has no
// band names yet they are resolved through the client first. The time
// grid is computed (possibly via catalog searches), every coordinate
// array is materialized, and a chunk placeholder is registered for each
// chunk coordinate of each band variable. No pixel data is fetched.
func New(ctx context.Context, client RemoteClient, cube *config.Cube, opts ...Option) (*Store, error) {
	s := &Store{client: client}
	for _, opt := range opts {
		opt(s)
	}

	if len(cube.Bands) == 0 {
		bands, err := client.Bands(ctx, cube.Dataset, cube.CollectionID)
		if err != nil {
			return nil, fmt.Errorf("resolving band names: %w", err)
		}
		names := make([]string, len(bands))
		types := make([]string, len(bands))
		for i, band := range bands {
			names[i] = band.Name
			types[i] = band.SampleType
		}
		cube = cube.WithBands(names, types)
		if len(cube.Bands) == 0 {
			return nil, fmt.Errorf("%w: dataset %q reports no bands", config.ErrInvalid, cube.Dataset)
		}
	}
	s.cube = cube

	timeRanges, err := resolveTimeRanges(ctx, client, cube)
	if err != nil {
		return nil, err
	}
	if len(timeRanges) == 0 {
		return nil, ErrNoValidTimestamps
	}
	s.timeRanges = timeRanges

	if err := s.buildManifest(); err != nil {
		return nil, err
	}
	return s, nil
}

// Cube returns the resolved cube description the store was built from.
func (s *Store) Cube() *config.Cube {
	return s.cube
}

// TimeRanges returns the ordered time slices of the cube.
func (s *Store) TimeRanges() []config.TimeRange {
	ranges := make([]config.TimeRange, len(s.timeRanges))
	copy(ranges, s.timeRanges)
	return ranges
}

// AddObserver registers an observer after construction.
func (s *Store) AddObserver(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// Get returns the bytes stored under key. Metadata and coordinate
// entries are served from the manifest; chunk placeholders trigger a
// remote fetch. A failed fetch is returned as a FetchError.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	s.traceCall("get", key)
	entry, ok := s.manifest[key]
	if !ok {
		return nil, fmt.Errorf("%q: %w", key, ErrKeyNotFound)
	}
	if !entry.remote {
		metricStoreRead(key, false, nil)
		return entry.data, nil
	}
	return s.fetchChunk(ctx, key, entry)
}

// Has reports whether key exists in the manifest.
func (s *Store) Has(key string) bool {
	s.traceCall("contains", key)
	_, ok := s.manifest[key]
	return ok
}

// Keys returns every manifest key in sorted order.
func (s *Store) Keys() []string {
	s.traceCall("keys", "")
	keys := make([]string, len(s.keys))
	copy(keys, s.keys)
	return keys
}

// Len returns the number of manifest keys.
func (s *Store) Len() int {
	s.traceCall("len", "")
	return len(s.keys)
}

// ListDir returns the immediate children of the given path, "" meaning
// the root.
func (s *Store) ListDir(path string) []string {
	s.traceCall("listdir", path)
	var children []string
	if path == "" {
		for _, k := range s.keys {
			if !strings.Contains(k, "/") {
				children = append(children, k)
			}
		}
		return children
	}
	prefix := path + "/"
	for _, k := range s.keys {
		if strings.HasPrefix(k, prefix) && !strings.Contains(k[len(prefix):], "/") {
			children = append(children, k[len(prefix):])
		}
	}
	return children
}

// GetSize returns the byte size of the entry under key. For chunk
// placeholders this is the exact size the declared dtype and chunk shape
// imply, available without fetching.
func (s *Store) GetSize(key string) (int64, error) {
	s.traceCall("getsize", key)
	entry, ok := s.manifest[key]
	if !ok {
		return 0, fmt.Errorf("%q: %w", key, ErrKeyNotFound)
	}
	if entry.remote {
		return entry.size, nil
	}
	return int64(len(entry.data)), nil
}

// Set always fails: the store is read-only.
func (s *Store) Set(key string, _ []byte) error {
	s.traceCall("set", key)
	return fmt.Errorf("set %q: %w", key, ErrReadOnly)
}

// Delete always fails: the store is read-only.
func (s *Store) Delete(key string) error {
	s.traceCall("delete", key)
	return fmt.Errorf("delete %q: %w", key, ErrReadOnly)
}

func (s *Store) traceCall(op, key string) {
	if !s.trace {
		return
	}
	event := logging.Trace().Str("op", op)
	if key != "" {
		event = event.Str("key", key)
	}
	event.Msg("store call")
}

// buildManifest synthesizes every static entry and registers the chunk
// placeholders. Runs once, single-threaded, inside New.
func (s *Store) buildManifest() error {
	s.manifest = make(map[string]manifestEntry)
	s.sampleTypes = make(map[string]string)

	zgroup, err := zgroupEntry()
	if err != nil {
		return err
	}
	s.putInline(".zgroup", zgroup)

	attrs, err := marshalEntry(s.globalAttrs())
	if err != nil {
		return err
	}
	s.putInline(".zattrs", attrs)

	if err := s.addCoordinateArrays(); err != nil {
		return err
	}
	if err := s.addBandArrays(); err != nil {
		return err
	}
	if err := s.consolidateMetadata(); err != nil {
		return err
	}

	s.keys = make([]string, 0, len(s.manifest))
	for k := range s.manifest {
		s.keys = append(s.keys, k)
	}
	sort.Strings(s.keys)
	return nil
}

func (s *Store) globalAttrs() map[string]interface{} {
	cube := s.cube
	start := s.timeRanges[0].Start
	end := s.timeRanges[len(s.timeRanges)-1].End

	attrs := map[string]interface{}{
		"Conventions": "CF-1.7",
		"coordinates": "time_bnds",
		"title":       fmt.Sprintf("%s Data Cube Subset", cube.Dataset),
		"history": []map[string]interface{}{{
			"program":     "tessellatus.chunkstore.Store",
			"cube_config": cube.ToMap(),
		}},
		"date_created":           time.Now().UTC().Format(time.RFC3339),
		"time_coverage_start":    start.Format(time.RFC3339),
		"time_coverage_end":      end.Format(time.RFC3339),
		"time_coverage_duration": iso8601Duration(end.Sub(start)),
	}
	if cube.TimePeriod > 0 {
		attrs["time_coverage_resolution"] = iso8601Duration(cube.TimePeriod)
	}
	if cube.IsGeographic() {
		attrs["geospatial_lon_min"] = cube.BBox.X1
		attrs["geospatial_lat_min"] = cube.BBox.Y1
		attrs["geospatial_lon_max"] = cube.BBox.X2
		attrs["geospatial_lat_max"] = cube.BBox.Y2
	}
	if meta, ok := sentinelhub.DatasetMetadata(cube.Dataset); ok && meta.ProcessingLevel != "" {
		attrs["processing_level"] = meta.ProcessingLevel
	}
	return attrs
}

// addCoordinateArrays materializes the x/y (or lon/lat), time and
// time_bnds coordinate arrays, and a crs grid-mapping variable for
// projected cubes.
func (s *Store) addCoordinateArrays() error {
	cube := s.cube
	res := cube.SpatialRes

	xValues := make([]float64, cube.Width)
	for i := range xValues {
		xValues[i] = cube.BBox.X1 + res/2 + float64(i)*res
	}
	yValues := make([]float64, cube.Height)
	for j := range yValues {
		yValues[j] = cube.BBox.Y2 - res/2 - float64(j)*res
	}

	tMid := make([]int64, len(s.timeRanges))
	tBnds := make([]int64, 0, 2*len(s.timeRanges))
	for i, r := range s.timeRanges {
		tMid[i] = r.Mid().Unix()
		tBnds = append(tBnds, r.Start.Unix(), r.End.Unix())
	}

	xName, yName := "x", "y"
	xAttrs := map[string]interface{}{
		"_ARRAY_DIMENSIONS": []string{"x"},
		"long_name":         "x coordinate of projection",
		"standard_name":     "projection_x_coordinate",
	}
	yAttrs := map[string]interface{}{
		"_ARRAY_DIMENSIONS": []string{"y"},
		"long_name":         "y coordinate of projection",
		"standard_name":     "projection_y_coordinate",
	}
	if cube.IsGeographic() {
		xName, yName = "lon", "lat"
		xAttrs = map[string]interface{}{
			"_ARRAY_DIMENSIONS": []string{"lon"},
			"units":             "decimal_degrees",
			"long_name":         "longitude",
			"standard_name":     "longitude",
		}
		yAttrs = map[string]interface{}{
			"_ARRAY_DIMENSIONS": []string{"lat"},
			"units":             "decimal_degrees",
			"long_name":         "latitude",
			"standard_name":     "latitude",
		}
	}

	if err := s.addStaticArray(xName, []int{cube.Width}, "<f8", float64Bytes(xValues), xAttrs); err != nil {
		return err
	}
	if err := s.addStaticArray(yName, []int{cube.Height}, "<f8", float64Bytes(yValues), yAttrs); err != nil {
		return err
	}

	timeAttrs := map[string]interface{}{
		"_ARRAY_DIMENSIONS": []string{"time"},
		"units":             "seconds since 1970-01-01T00:00:00Z",
		"calendar":          "proleptic_gregorian",
		"standard_name":     "time",
		"bounds":            "time_bnds",
	}
	timeBndsAttrs := map[string]interface{}{
		"_ARRAY_DIMENSIONS": []string{"time", "bnds"},
		"units":             "seconds since 1970-01-01T00:00:00Z",
		"calendar":          "proleptic_gregorian",
		"standard_name":     "time",
	}
	if err := s.addStaticArray("time", []int{len(tMid)}, "<i8", int64Bytes(tMid), timeAttrs); err != nil {
		return err
	}
	if err := s.addStaticArray("time_bnds", []int{len(s.timeRanges), 2}, "<i8", int64Bytes(tBnds), timeBndsAttrs); err != nil {
		return err
	}

	if !cube.IsGeographic() {
		crsURI, err := config.CRSToURI(cube.CRS)
		if err != nil {
			return err
		}
		crsAttrs := map[string]interface{}{
			"_ARRAY_DIMENSIONS": []string{},
			"spatial_ref":       crsURI,
		}
		if err := s.addStaticArray("crs", nil, "<i8", int64Bytes([]int64{0}), crsAttrs); err != nil {
			return err
		}
	}
	return nil
}

// addBandArrays registers the remote pixel variables: one per band, or
// in 4-D mode one combined band_data variable plus a static band-name
// coordinate.
func (s *Store) addBandArrays() error {
	cube := s.cube
	numTimes := len(s.timeRanges)

	spatialDims := []string{"time", "y", "x"}
	if cube.IsGeographic() {
		spatialDims = []string{"time", "lat", "lon"}
	}

	if cube.FourD {
		raw, dtype := unicodeArrayBytes(cube.Bands)
		bandAttrs := map[string]interface{}{"_ARRAY_DIMENSIONS": []string{"band"}}
		if err := s.addStaticArray("band", []int{len(cube.Bands)}, dtype, raw, bandAttrs); err != nil {
			return err
		}

		enc, err := resolveBandEncoding(cube, -1, BandDataArrayName)
		if err != nil {
			return err
		}
		attrs := map[string]interface{}{
			"_ARRAY_DIMENSIONS": append(append([]string{}, spatialDims...), "band"),
			"band_names":        cube.Bands,
		}
		s.addGridMapping(attrs)
		shape := []int{numTimes, cube.Height, cube.Width, len(cube.Bands)}
		chunks := []int{1, cube.TileHeight, cube.TileWidth, len(cube.Bands)}
		return s.addRemoteArray(BandDataArrayName, shape, chunks, enc, attrs)
	}

	for i, name := range cube.Bands {
		enc, err := resolveBandEncoding(cube, i, name)
		if err != nil {
			return err
		}
		attrs := s.bandAttrs(name)
		attrs["_ARRAY_DIMENSIONS"] = spatialDims
		s.addGridMapping(attrs)
		shape := []int{numTimes, cube.Height, cube.Width}
		chunks := []int{1, cube.TileHeight, cube.TileWidth}
		if err := s.addRemoteArray(name, shape, chunks, enc, attrs); err != nil {
			return err
		}
	}
	return nil
}

// bandAttrs collects the static metadata of a band, minus the fill value
// which lives in the .zarray entry instead.
func (s *Store) bandAttrs(bandName string) map[string]interface{} {
	attrs := map[string]interface{}{}
	band, ok := sentinelhub.DatasetBand(s.cube.Dataset, bandName)
	if !ok {
		return attrs
	}
	if band.SampleType != "" {
		attrs["sample_type"] = band.SampleType
	}
	if band.Units != "" {
		attrs["units"] = band.Units
	}
	if band.WavelengthNanometers > 0 {
		attrs["wavelength"] = band.WavelengthNanometers
	}
	if band.BandwidthNanometers > 0 {
		attrs["bandwidth"] = band.BandwidthNanometers
	}
	if band.Resolution > 0 {
		attrs["resolution"] = band.Resolution
	}
	if len(band.FlagMeanings) > 0 {
		attrs["flag_meanings"] = strings.Join(band.FlagMeanings, " ")
	}
	if len(band.FlagValues) > 0 {
		attrs["flag_values"] = band.FlagValues
	}
	return attrs
}

func (s *Store) addGridMapping(attrs map[string]interface{}) {
	if !s.cube.IsGeographic() {
		attrs["grid_mapping"] = "crs"
	}
}

func (s *Store) putInline(key string, data []byte) {
	s.manifest[key] = manifestEntry{data: data}
}

// addStaticArray registers an eagerly-materialized array: its metadata
// entries plus one zlib-compressed chunk holding the whole array.
func (s *Store) addStaticArray(name string, shape []int, dtype string, raw []byte, attrs map[string]interface{}) error {
	if shape == nil {
		shape = []int{}
	}
	meta := zarrArray{
		ZarrFormat: 2,
		Chunks:     shape,
		Shape:      shape,
		Dtype:      dtype,
		Compressor: staticArrayCompressor(),
		Order:      "C",
	}
	metaBytes, err := marshalEntry(meta)
	if err != nil {
		return err
	}
	attrBytes, err := marshalEntry(attrs)
	if err != nil {
		return err
	}
	compressed, err := zlibCompress(raw)
	if err != nil {
		return fmt.Errorf("compressing %s: %w", name, err)
	}
	s.putInline(name, []byte{})
	s.putInline(name+"/.zarray", metaBytes)
	s.putInline(name+"/.zattrs", attrBytes)
	s.putInline(name+"/"+zeroChunkName(len(shape)), compressed)
	return nil
}

// addRemoteArray registers a lazily-fetched variable: metadata entries
// plus one placeholder per chunk coordinate implied by shape and chunk
// shape. Remote chunks arrive already in the declared dtype, so the
// compressor is declared null.
func (s *Store) addRemoteArray(name string, shape, chunks []int, enc bandEncoding, attrs map[string]interface{}) error {
	meta := zarrArray{
		ZarrFormat: 2,
		Chunks:     chunks,
		Shape:      shape,
		Dtype:      enc.Dtype,
		FillValue:  enc.FillValue,
		Order:      "C",
	}
	metaBytes, err := marshalEntry(meta)
	if err != nil {
		return err
	}
	attrBytes, err := marshalEntry(attrs)
	if err != nil {
		return err
	}
	s.putInline(name, []byte{})
	s.putInline(name+"/.zarray", metaBytes)
	s.putInline(name+"/.zattrs", attrBytes)
	s.sampleTypes[name] = enc.SampleType

	chunkSize := int64(dtypeItemSize(enc.Dtype))
	for _, c := range chunks {
		chunkSize *= int64(c)
	}

	numBandChunks := 1
	if len(shape) == 4 {
		numBandChunks = shape[3] / chunks[3]
	}
	for t := 0; t < shape[0]/chunks[0]; t++ {
		for y := 0; y < shape[1]/chunks[1]; y++ {
			for x := 0; x < shape[2]/chunks[2]; x++ {
				for b := 0; b < numBandChunks; b++ {
					key := ChunkKey{Time: t, Y: y, X: x, Band: -1}
					if len(shape) == 4 {
						key.Band = b
					}
					s.manifest[name+"/"+key.String()] = manifestEntry{
						remote:   true,
						variable: name,
						key:      key,
						size:     chunkSize,
					}
				}
			}
		}
	}
	return nil
}

// consolidateMetadata aggregates every metadata entry into .zmetadata so
// consumers need no metadata-discovery fallback.
func (s *Store) consolidateMetadata() error {
	keys := make([]string, 0, len(s.manifest))
	for k := range s.manifest {
		if isMetadataKey(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	metadata := make(map[string]json.RawMessage, len(keys))
	for _, k := range keys {
		metadata[k] = json.RawMessage(s.manifest[k].data)
	}
	data, err := marshalEntry(consolidatedMetadata{
		ZarrConsolidatedFormat: 1,
		Metadata:               metadata,
	})
	if err != nil {
		return err
	}
	s.putInline(".zmetadata", data)
	return nil
}

// iso8601Duration renders a duration as an ISO 8601 duration string,
// e.g. "P30DT12H30M0S".
func iso8601Duration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	seconds := (d - minutes*time.Minute).Seconds()

	out := "P"
	if days > 0 {
		out += fmt.Sprintf("%dD", days)
	}
	return out + fmt.Sprintf("T%dH%dM%gS", hours, minutes, seconds)
}
