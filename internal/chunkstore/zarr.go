// Tessellatus - Satellite Imagery Virtual Data Cube Store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tessellatus

// Zarr v2 entry synthesis: array metadata documents, the consolidated
// metadata blob, and the binary encoding of static coordinate chunks.
//
// Related Files:
// - store.go: assembles the entries into the manifest
// - encoding.go: sample-type to dtype resolution for remote variables

package chunkstore

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zlib"
)

// compressorConfig is a numcodecs codec declaration in a .zarray entry.
type compressorConfig struct {
	ID    string `json:"id"`
	Level int    `json:"level"`
}

// staticArrayCompressionLevel favors speed; coordinate arrays are small
// and written exactly once.
const staticArrayCompressionLevel = 1

func staticArrayCompressor() *compressorConfig {
	return &compressorConfig{ID: "zlib", Level: staticArrayCompressionLevel}
}

// zarrArray is a .zarray metadata document. Field order follows the
// layout consumers are used to seeing.
type zarrArray struct {
	ZarrFormat int               `json:"zarr_format"`
	Chunks     []int             `json:"chunks"`
	Shape      []int             `json:"shape"`
	Dtype      string            `json:"dtype"`
	FillValue  *float64          `json:"fill_value"`
	Compressor *compressorConfig `json:"compressor"`
	Filters    interface{}       `json:"filters"`
	Order      string            `json:"order"`
}

// consolidatedMetadata is the .zmetadata document: every metadata-only
// manifest entry, decoded, under one key.
type consolidatedMetadata struct {
	ZarrConsolidatedFormat int                        `json:"zarr_consolidated_format"`
	Metadata               map[string]json.RawMessage `json:"metadata"`
}

func marshalEntry(v interface{}) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

func zgroupEntry() ([]byte, error) {
	return marshalEntry(map[string]int{"zarr_format": 2})
}

// isMetadataKey reports whether a manifest key belongs in the
// consolidated metadata document.
func isMetadataKey(key string) bool {
	for _, name := range []string{".zattrs", ".zarray", ".zgroup"} {
		if key == name || strings.HasSuffix(key, "/"+name) {
			return true
		}
	}
	return false
}

// zeroChunkName returns the chunk file name of a static array's single
// chunk: "0", "0.0", ... per dimension.
func zeroChunkName(ndim int) string {
	if ndim == 0 {
		return "0"
	}
	parts := make([]string, ndim)
	for i := range parts {
		parts[i] = "0"
	}
	return strings.Join(parts, ".")
}

func zlibCompress(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, staticArrayCompressionLevel)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(raw); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func float64Bytes(values []float64) []byte {
	raw := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(raw[8*i:], math.Float64bits(v))
	}
	return raw
}

func int64Bytes(values []int64) []byte {
	raw := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(raw[8*i:], uint64(v))
	}
	return raw
}

// unicodeArrayBytes encodes strings as a fixed-width numpy unicode array:
// each element is width code points of little-endian UTF-32, zero padded.
// The matching dtype is "<U{width}".
func unicodeArrayBytes(values []string) (raw []byte, dtype string) {
	width := 1
	for _, s := range values {
		if n := utf8.RuneCountInString(s); n > width {
			width = n
		}
	}
	raw = make([]byte, 4*width*len(values))
	for i, s := range values {
		offset := 4 * width * i
		for _, r := range s {
			binary.LittleEndian.PutUint32(raw[offset:], uint32(r))
			offset += 4
		}
	}
	return raw, fmt.Sprintf("<U%d", width)
}
