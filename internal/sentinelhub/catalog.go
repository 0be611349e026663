// Tessellatus - Satellite Imagery Virtual Data Cube Store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tessellatus

package sentinelhub

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tessellatus/internal/config"
	"github.com/tomtom215/tessellatus/internal/logging"
	"github.com/tomtom215/tessellatus/internal/metrics"
	models "github.com/tomtom215/tessellatus/internal/models/sentinelhub"
)

// SearchOptions narrows a catalog search. The zero value searches the whole
// collection.
type SearchOptions struct {
	// BBox restricts results spatially. CRS names the coordinate system of
	// the bbox; the catalog only accepts geographic coordinates, so
	// projected boxes are reprojected and boxes in unsupported projections
	// are dropped from the query.
	BBox *config.BBox
	CRS  string

	// TimeRange restricts results temporally. Open sides are allowed.
	TimeRange *config.TimeRange

	// BadRequestOK returns an empty result instead of an error when the
	// catalog rejects the query with 400.
	BadRequestOK bool
}

// GetFeatures searches the catalog for acquisitions of a collection,
// paginating until a page comes back short. Only the acquisition datetime
// property is requested.
func (c *Client) GetFeatures(ctx context.Context, collectionName string, opts SearchOptions) ([]models.Feature, error) {
	request := models.SearchRequest{
		Collections: []string{collectionName},
		Limit:       models.CatalogFeatureLimit,
		// Exclude most of the response data, as only the acquisition
		// timestamp is consumed.
		Fields: &models.SearchFields{
			Exclude: []string{"geometry", "bbox", "assets", "links"},
			Include: []string{"properties.datetime"},
		},
	}

	if opts.BBox != nil {
		crs := opts.CRS
		if crs == "" {
			crs = config.DefaultCRS
		}
		if bbox, ok := config.BBoxToGeographic(*opts.BBox, crs); ok {
			request.BBox = bbox.Slice()
		} else {
			logging.Warn().Str("crs", crs).
				Msg("bbox not reprojectable to geographic coordinates, searching whole collection")
		}
	}

	if opts.TimeRange != nil {
		request.Datetime = formatSearchDatetime(*opts.TimeRange)
	}

	searchURL := c.cfg.EffectiveCatalogURL() + "/search"

	var allFeatures []models.Feature
	for offset := 0; ; {
		page, status, err := c.searchPage(ctx, searchURL, &request)
		if err != nil {
			if opts.BadRequestOK && status == http.StatusBadRequest {
				break
			}
			return nil, err
		}
		metrics.RecordCatalogSearch(collectionName, len(page.Features))

		if len(page.Features) == 0 {
			break
		}
		allFeatures = append(allFeatures, page.Features...)
		if len(page.Features) < models.CatalogFeatureLimit {
			break
		}
		offset += len(page.Features)
		request.Next = offset
	}
	return allFeatures, nil
}

// searchPage posts one search request and decodes the feature collection.
// The HTTP status is returned alongside the error so callers can tolerate
// bad requests.
func (c *Client) searchPage(ctx context.Context, url string, request *models.SearchRequest) (*models.FeatureCollection, int, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to encode search request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("catalog search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body := readBodyForError(resp.Body)
		return nil, resp.StatusCode, newAPIError(resp.StatusCode, resp.Status, body)
	}

	var page models.FeatureCollection
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to decode search response: %w", err)
	}
	if page.Type != "FeatureCollection" {
		return nil, resp.StatusCode, fmt.Errorf("unexpected search result of type %q", page.Type)
	}
	return &page, resp.StatusCode, nil
}

// formatSearchDatetime renders a time range in the catalog's interval
// syntax, with ".." for open sides and old-style "Z" suffixes.
func formatSearchDatetime(r config.TimeRange) string {
	from, to := "..", ".."
	if !r.Start.IsZero() {
		from = r.Start.UTC().Format(time.RFC3339)
	}
	if !r.End.IsZero() {
		to = r.End.UTC().Format(time.RFC3339)
	}
	return from + "/" + to
}
