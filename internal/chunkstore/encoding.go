// Tessellatus - Satellite Imagery Virtual Data Cube Store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tessellatus

package chunkstore

import (
	"fmt"
	"math"
	"sort"

	"github.com/tomtom215/tessellatus/internal/config"
	"github.com/tomtom215/tessellatus/internal/sentinelhub"
)

// sampleTypeToDtype maps remote sample type names to numpy
// array-protocol type strings for the .zarray "dtype" field.
//
// The remote API only supports unsigned integers, so INT8 and INT16
// requests come back as UINT8 and UINT16 respectively.
var sampleTypeToDtype = map[string]string{
	"UINT8":   "|u1",
	"UINT16":  "<u2",
	"UINT32":  "<u4",
	"INT8":    "|u1",
	"INT16":   "<u2",
	"INT32":   "<u4",
	"FLOAT32": "<f4",
	"FLOAT64": "<f8",
}

// dtypeItemSize maps an array-protocol type string to its per-element
// byte width.
func dtypeItemSize(dtype string) int {
	if len(dtype) < 3 {
		return 0
	}
	switch dtype[2] {
	case '1':
		return 1
	case '2':
		return 2
	case '4':
		return 4
	case '8':
		return 8
	}
	return 0
}

// bandEncoding is the resolved Zarr encoding of one remote variable.
type bandEncoding struct {
	SampleType string
	Dtype      string
	FillValue  *float64
}

func knownSampleTypes() []string {
	types := make([]string, 0, len(sampleTypeToDtype))
	for t := range sampleTypeToDtype {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// resolveBandEncoding resolves the encoding of the band at index i,
// preferring a config override over the static dataset tables over the
// FLOAT32 default. An unrecognized sample type is a construction-time
// error; a NaN fill value collapses to "no fill value".
func resolveBandEncoding(cube *config.Cube, i int, bandName string) (bandEncoding, error) {
	sampleType := cube.SampleTypeOverride(i)
	if sampleType == "" {
		sampleType = sentinelhub.DatasetBandSampleType(cube.Dataset, bandName)
	}
	dtype, ok := sampleTypeToDtype[sampleType]
	if !ok {
		return bandEncoding{}, fmt.Errorf("%w: invalid sample type %q for band %q, must be one of %v",
			config.ErrInvalid, sampleType, bandName, knownSampleTypes())
	}

	fillValue, ok := cube.FillValueOverride(i)
	if !ok {
		fillValue, ok = sentinelhub.DatasetBandFillValue(cube.Dataset, bandName)
	}
	var fill *float64
	if ok && !math.IsNaN(fillValue) {
		fill = &fillValue
	}
	return bandEncoding{SampleType: sampleType, Dtype: dtype, FillValue: fill}, nil
}
