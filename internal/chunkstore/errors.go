// Tessellatus - Satellite Imagery Virtual Data Cube Store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tessellatus

package chunkstore

import (
	"errors"
	"fmt"

	"github.com/tomtom215/tessellatus/internal/config"
)

// ErrReadOnly is returned by any write or delete attempt against a store.
var ErrReadOnly = errors.New("store is read-only")

// ErrKeyNotFound is returned when a requested key is not in the manifest.
var ErrKeyNotFound = errors.New("key not found")

// ErrNoValidTimestamps is returned at construction when no time slices
// could be determined for the configured cube.
var ErrNoValidTimestamps = errors.New("could not determine any valid time stamps")

// FetchError is a failed chunk read. It carries the failing chunk's
// variable, key, request bbox and time window so a caller several layers
// up can still tell which slab of which array went wrong.
type FetchError struct {
	Variable  string
	Key       ChunkKey
	BBox      config.BBox
	TimeRange config.TimeRange
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("cannot fetch chunk %s/%s for bbox %s and time range %s-%s: %v",
		e.Variable, e.Key,
		e.BBox,
		e.TimeRange.Start.Format("2006-01-02T15:04:05Z"),
		e.TimeRange.End.Format("2006-01-02T15:04:05Z"),
		e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
