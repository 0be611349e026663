// Tessellatus - Satellite Imagery Virtual Data Cube Store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tessellatus

package chunkstore

import (
	"context"
	"strings"
	"time"

	"github.com/tomtom215/tessellatus/internal/config"
	"github.com/tomtom215/tessellatus/internal/metrics"
	"github.com/tomtom215/tessellatus/internal/sentinelhub"
)

// RequestBBox computes the ground bounding box of the tile at the given
// column and row. Tile (0,0) is the northwest-most tile; rows are
// counted from the cube's top (maximum Y) edge downward.
func (s *Store) RequestBBox(xTileIndex, yTileIndex int) config.BBox {
	cube := s.cube
	res := cube.SpatialRes
	xIndex := xTileIndex * cube.TileWidth
	yIndex := yTileIndex * cube.TileHeight

	return config.BBox{
		X1: cube.BBox.X1 + res*float64(xIndex),
		Y1: cube.BBox.Y2 - res*float64(yIndex+cube.TileHeight),
		X2: cube.BBox.X1 + res*float64(xIndex+cube.TileWidth),
		Y2: cube.BBox.Y2 - res*float64(yIndex),
	}
}

// RequestTimeRange returns the request time window for a time slice: the
// precomputed range widened symmetrically by the configured tolerance.
func (s *Store) RequestTimeRange(timeIndex int) config.TimeRange {
	return s.timeRanges[timeIndex].Widen(s.cube.TimeTolerance)
}

// fetchChunk resolves a chunk placeholder: it computes the request bbox
// and time window, delegates to the remote client, notifies every
// observer exactly once, and returns the raw response bytes verbatim.
// Failures become a FetchError; no partial or zero-filled substitute is
// invented here.
func (s *Store) fetchChunk(ctx context.Context, key string, entry manifestEntry) ([]byte, error) {
	bbox := s.RequestBBox(entry.key.X, entry.key.Y)
	timeRange := s.RequestTimeRange(entry.key.Time)

	start := time.Now()
	data, fetchErr := s.doFetch(ctx, entry.variable, bbox, timeRange)
	duration := time.Since(start)

	var err error
	if fetchErr != nil {
		err = &FetchError{
			Variable:  entry.variable,
			Key:       entry.key,
			BBox:      bbox,
			TimeRange: timeRange,
			Err:       fetchErr,
		}
	}

	s.notifyObservers(Event{
		ID:        newEventID(),
		Variable:  entry.variable,
		Key:       entry.key,
		BBox:      bbox,
		TimeRange: timeRange,
		Duration:  duration,
		Err:       err,
	})
	metricStoreRead(key, true, err)

	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *Store) doFetch(ctx context.Context, variable string, bbox config.BBox, timeRange config.TimeRange) ([]byte, error) {
	cube := s.cube
	bands := []string{variable}
	if variable == BandDataArrayName {
		bands = cube.Bands
	}

	request, err := sentinelhub.NewProcessRequest(sentinelhub.RequestSpec{
		Dataset:         cube.Dataset,
		CollectionID:    cube.CollectionID,
		Bands:           bands,
		BandUnits:       cube.Units,
		SampleType:      s.sampleTypes[variable],
		Width:           cube.TileWidth,
		Height:          cube.TileHeight,
		CRS:             cube.CRS,
		BBox:            &bbox,
		TimeRange:       &timeRange,
		Upsampling:      cube.Upsampling,
		Downsampling:    cube.Downsampling,
		MosaickingOrder: cube.MosaickingOrder,
	})
	if err != nil {
		return nil, err
	}

	response, err := s.client.GetData(ctx, request, sentinelhub.OctetStreamMimeType)
	if err != nil {
		return nil, err
	}
	if response == nil {
		return nil, sentinelhub.ResponseError(&sentinelhub.FetchResponse{})
	}
	if !response.OK {
		// Under the warn/ignore error policy the client hands back the
		// failed response instead of an error; a chunk read still fails.
		return nil, sentinelhub.ResponseError(response)
	}
	return response.Body, nil
}

func (s *Store) notifyObservers(event Event) {
	s.mu.RLock()
	observers := s.observers
	s.mu.RUnlock()
	for _, o := range observers {
		o.Observe(event)
	}
}

func metricStoreRead(key string, remote bool, err error) {
	kind := "static"
	switch {
	case remote:
		kind = "chunk"
	case strings.HasSuffix(key, ".zarray") || strings.HasSuffix(key, ".zattrs") ||
		strings.HasSuffix(key, ".zgroup") || key == ".zmetadata":
		kind = "metadata"
	}
	metrics.RecordStoreRead(kind, err)
}
