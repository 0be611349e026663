// Tessellatus - Satellite Imagery Virtual Data Cube Store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tessellatus

package sentinelhub

// CatalogFeatureLimit is the page size for catalog searches. Pagination
// continues while a page comes back full.
const CatalogFeatureLimit = 100

// SearchRequest is the POST payload of the catalog search endpoint. The
// bbox, when present, must be geographic (lon/lat). Next is the feature
// offset for pagination; zero means the first page and is omitted.
type SearchRequest struct {
	Collections []string      `json:"collections"`
	Limit       int           `json:"limit"`
	Fields      *SearchFields `json:"fields,omitempty"`
	BBox        []float64     `json:"bbox,omitempty"`
	Datetime    string        `json:"datetime,omitempty"`
	Next        int           `json:"next,omitempty"`
}

// SearchFields trims the search response to the properties actually
// consumed.
type SearchFields struct {
	Include []string `json:"include,omitempty"`
	Exclude []string `json:"exclude,omitempty"`
}

// FeatureCollection is one page of catalog search results.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is a single acquisition record. Only the datetime property is
// consumed; everything else is excluded server-side.
type Feature struct {
	Type       string            `json:"type,omitempty"`
	ID         string            `json:"id,omitempty"`
	Properties FeatureProperties `json:"properties"`
}

// FeatureProperties carries the acquisition timestamp. Datetime may be
// empty for degenerate records.
type FeatureProperties struct {
	Datetime string `json:"datetime"`
}

// CollectionList is the response of the catalog collections endpoint.
type CollectionList struct {
	Collections []Collection `json:"collections"`
}

// Collection describes one catalog collection.
type Collection struct {
	ID          string   `json:"id"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	License     string   `json:"license,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
}
