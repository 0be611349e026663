// Tessellatus - Satellite Imagery Virtual Data Cube Store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tessellatus

// Package sentinelhub provides data models for the Sentinel Hub APIs.
//
// The structs here mirror the wire formats of the endpoints the client
// talks to:
//
// Process API:
//   - ProcessRequest: the full POST payload for pixel data requests,
//     including bounds, data filters, output shape and the evalscript
//
// Catalog API (STAC):
//   - SearchRequest: catalog search with paging via the "next" offset
//   - FeatureCollection, Feature: search results; only the acquisition
//     datetime property is consumed
//   - Collection: catalog collection listings
//
// Configuration and metadata APIs:
//   - Dataset: configuration dataset listings
//   - Band: per-band metadata, both for builtin datasets and for
//     user-registered (BYOC) collections
//
// OAuth2:
//   - TokenInfo: decoded access token claims from the tokeninfo endpoint
//
// All models use goccy/go-json compatible tags; optional request fields
// carry omitempty so absent filters stay absent on the wire.
package sentinelhub
