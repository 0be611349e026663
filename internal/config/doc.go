// Tessellatus - Satellite Imagery Virtual Data Cube Store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tessellatus

// Package config provides configuration loading and validation for Tessellatus.
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority
// wins): environment variables > YAML config file > built-in defaults.
//
// Two configuration surfaces exist:
//
//   - ClientConfig: credentials, endpoint URLs, and retry/backoff tuning for
//     the remote imagery API. Credentials come from SH_CLIENT_ID and
//     SH_CLIENT_SECRET, endpoint overrides from SH_INSTANCE_URL and friends.
//
//   - CubeConfig: the declarative description of a data cube (dataset, bands,
//     bounding box, resolution, CRS, tile size, time range). CubeConfig is the
//     raw user input; NewCube resolves it into an immutable Cube with the
//     pixel grid snapped to whole tiles.
//
// A Cube is immutable after NewCube and safe for concurrent read access.
package config
