// Tessellatus - Satellite Imagery Virtual Data Cube Store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tessellatus

package chunkstore

import (
	"fmt"
	"strconv"
	"strings"
)

// ChunkKey addresses one remote fetch: a time slice index, a tile row and
// column, and in 4-D mode a band index. Band is -1 for 3-D variables.
//
// Its string form is the Zarr chunk file name, dot-separated indices in
// the order of the array's dimensions: "t.y.x" or "t.y.x.b".
type ChunkKey struct {
	Time int
	Y    int
	X    int
	Band int
}

func (k ChunkKey) String() string {
	if k.Band < 0 {
		return fmt.Sprintf("%d.%d.%d", k.Time, k.Y, k.X)
	}
	return fmt.Sprintf("%d.%d.%d.%d", k.Time, k.Y, k.X, k.Band)
}

// ParseChunkKey parses a dot-separated chunk file name with three or four
// components.
func ParseChunkKey(s string) (ChunkKey, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 && len(parts) != 4 {
		return ChunkKey{}, fmt.Errorf("chunk key %q: want 3 or 4 indices, got %d", s, len(parts))
	}
	indices := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return ChunkKey{}, fmt.Errorf("chunk key %q: bad index %q", s, part)
		}
		indices[i] = n
	}
	key := ChunkKey{Time: indices[0], Y: indices[1], X: indices[2], Band: -1}
	if len(indices) == 4 {
		key.Band = indices[3]
	}
	return key, nil
}
