// Tessellatus - Satellite Imagery Virtual Data Cube Store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tessellatus

package chunkstore

import "testing"

func TestChunkKeyString(t *testing.T) {
	if got := (ChunkKey{Time: 1, Y: 2, X: 3, Band: -1}).String(); got != "1.2.3" {
		t.Errorf("3-D key = %q", got)
	}
	if got := (ChunkKey{Time: 1, Y: 2, X: 3, Band: 0}).String(); got != "1.2.3.0" {
		t.Errorf("4-D key = %q", got)
	}
}

func TestParseChunkKey(t *testing.T) {
	key, err := ParseChunkKey("4.0.7")
	if err != nil {
		t.Fatalf("ParseChunkKey: %v", err)
	}
	if key != (ChunkKey{Time: 4, Y: 0, X: 7, Band: -1}) {
		t.Errorf("got %v", key)
	}

	key, err = ParseChunkKey("0.1.2.3")
	if err != nil {
		t.Fatalf("ParseChunkKey: %v", err)
	}
	if key.Band != 3 {
		t.Errorf("band = %d", key.Band)
	}

	for _, bad := range []string{"", "1", "1.2", "1.2.3.4.5", "a.b.c", "1.-2.3", "1..3"} {
		if _, err := ParseChunkKey(bad); err == nil {
			t.Errorf("ParseChunkKey(%q) accepted", bad)
		}
	}
}

func TestZeroChunkName(t *testing.T) {
	cases := map[int]string{0: "0", 1: "0", 2: "0.0", 3: "0.0.0"}
	for ndim, want := range cases {
		if got := zeroChunkName(ndim); got != want {
			t.Errorf("zeroChunkName(%d) = %q, want %q", ndim, got, want)
		}
	}
}

func TestUnicodeArrayBytes(t *testing.T) {
	raw, dtype := unicodeArrayBytes([]string{"B1", "B8A"})
	if dtype != "<U3" {
		t.Errorf("dtype = %q", dtype)
	}
	if len(raw) != 2*3*4 {
		t.Fatalf("len = %d", len(raw))
	}
	if got := decodeUnicodeArray(raw, 3); !equalStrings(got, []string{"B1", "B8A"}) {
		t.Errorf("round trip = %v", got)
	}
}
