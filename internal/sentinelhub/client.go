// Tessellatus - Satellite Imagery Virtual Data Cube Store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tessellatus

/*
client.go - Core Sentinel Hub API Client

This file provides the core Client struct and HTTP communication layer for
the Sentinel Hub APIs (process, catalog, configuration, collection metadata
and OAuth2).

Client Features:
  - OAuth2 client-credentials token management with forced refresh on 401
  - Optional client-side rate limiting (golang.org/x/time/rate)
  - Optional circuit breaker protection for the process API (see breaker.go)
  - JSON request/response handling via goccy/go-json
  - Context support for cancellation and timeouts

Related Files:
  - fetch.go: process API data fetch with the retry state machine
  - catalog.go: catalog search and pagination
  - request.go: process request and evalscript construction
  - metadata.go: static dataset and band tables
*/

//nolint:staticcheck // File documentation, not package doc
package sentinelhub

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/tomtom215/tessellatus/internal/config"
	"github.com/tomtom215/tessellatus/internal/logging"
	"github.com/tomtom215/tessellatus/internal/metrics"
	models "github.com/tomtom215/tessellatus/internal/models/sentinelhub"
)

// maxErrorBodySize limits how much of a response body is read for error
// reporting.
const maxErrorBodySize = 64 * 1024 // 64KB

// userAgent identifies the client on the wire.
const userAgent = "tessellatus/1.0 Go"

// Client talks to the Sentinel Hub APIs. It manages its OAuth2 token
// itself so a 401 mid-flight can force a refresh without waiting for the
// token's nominal expiry.
//
// Thread Safety: all methods are safe for concurrent use.
type Client struct {
	cfg config.ClientConfig

	httpClient *http.Client
	creds      clientcredentials.Config

	tokenMu sync.Mutex
	token   *oauth2.Token

	// limiter is nil when client-side rate limiting is disabled.
	limiter *rate.Limiter

	breaker *processBreaker
}

// NewClient creates a client from the given configuration. It fails fast
// when credentials are missing; the first token is fetched lazily on the
// first authorized request.
func NewClient(cfg config.ClientConfig) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrMissingCredentials
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = config.DefaultRequestTimeout
	}

	c := &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		creds: clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.EffectiveOAuth2URL() + "/token",
		},
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	if cfg.BreakerEnabled {
		c.breaker = newProcessBreaker()
	}
	return c, nil
}

// accessToken returns a valid bearer token, fetching one when none is held
// or the held one has expired.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.token != nil && c.token.Valid() {
		return c.token.AccessToken, nil
	}
	return c.fetchTokenLocked(ctx, false)
}

// refreshToken discards the held token and fetches a fresh one. Used when
// the API answers 401 even though the token looked valid.
func (c *Client) refreshToken(ctx context.Context) error {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	c.token = nil
	_, err := c.fetchTokenLocked(ctx, true)
	return err
}

// fetchTokenLocked performs the client-credentials exchange. Callers hold
// tokenMu.
func (c *Client) fetchTokenLocked(ctx context.Context, forced bool) (string, error) {
	token, err := c.creds.Token(ctx)
	metrics.RecordTokenRefresh(forced, err)
	if err != nil {
		return "", fmt.Errorf("failed to fetch access token: %w", err)
	}
	c.token = token
	logging.Info().Bool("forced", forced).Msg("fetched access token")
	return token.AccessToken, nil
}

// newRequest builds an authorized request with the standard headers.
func (c *Client) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("SH-Tag", "tessellatus")
	return req, nil
}

// getJSON performs an authorized GET and decodes the JSON response into
// result.
func (c *Client) getJSON(ctx context.Context, url string, result interface{}) error {
	req, err := c.newRequest(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body := readBodyForError(resp.Body)
		return newAPIError(resp.StatusCode, resp.Status, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", url, err)
	}
	return nil
}

// readBodyForError reads at most maxErrorBodySize bytes of a response body
// for error diagnostics.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	return body
}

// TokenInfo returns the decoded claims of the current access token.
func (c *Client) TokenInfo(ctx context.Context) (*models.TokenInfo, error) {
	var info models.TokenInfo
	url := c.cfg.EffectiveOAuth2URL() + "/tokeninfo"
	if err := c.getJSON(ctx, url, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Datasets lists the datasets known to the configuration API.
func (c *Client) Datasets(ctx context.Context) ([]models.Dataset, error) {
	var datasets []models.Dataset
	url := c.cfg.EffectiveConfigurationURL() + "/datasets"
	if err := c.getJSON(ctx, url, &datasets); err != nil {
		return nil, err
	}
	return datasets, nil
}

// DatasetNames lists the ids of all datasets known to the configuration API.
func (c *Client) DatasetNames(ctx context.Context) ([]string, error) {
	datasets, err := c.Datasets(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(datasets))
	for i, d := range datasets {
		names[i] = d.ID
	}
	return names, nil
}

// BandNames lists the band names of a dataset. BYOC collections use the
// collection metadata endpoint; builtin datasets use the process API's band
// listing.
func (c *Client) BandNames(ctx context.Context, datasetName, collectionID string) ([]string, error) {
	bands, err := c.Bands(ctx, datasetName, collectionID)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(bands))
	for i, b := range bands {
		names[i] = b.Name
	}
	return names, nil
}

// Bands returns band metadata for a dataset. Builtin datasets only report
// names on the wire; their entries are enriched from the static tables.
func (c *Client) Bands(ctx context.Context, datasetName, collectionID string) ([]models.Band, error) {
	if isCustomDataset(datasetName) {
		if collectionID == "" {
			return nil, fmt.Errorf("%w: collection_id is required for CUSTOM datasets", config.ErrInvalid)
		}
		var meta models.CollectionMetadata
		url := c.cfg.EffectiveCollectionURL() + "/" + collectionID
		if err := c.getJSON(ctx, url, &meta); err != nil {
			return nil, err
		}
		return meta.Bands, nil
	}

	var list models.BandNameList
	url := c.cfg.EffectiveProcessURL() + "/dataset/" + datasetName + "/bands"
	if err := c.getJSON(ctx, url, &list); err != nil {
		return nil, err
	}

	bands := make([]models.Band, len(list.Data))
	for i, name := range list.Data {
		if band, ok := DatasetBand(datasetName, name); ok {
			bands[i] = band
		} else {
			bands[i] = models.Band{Name: name}
		}
	}
	return bands, nil
}

// Collections lists the collections of the catalog API.
func (c *Client) Collections(ctx context.Context) ([]models.Collection, error) {
	var list models.CollectionList
	url := c.cfg.EffectiveCatalogURL() + "/collections"
	if err := c.getJSON(ctx, url, &list); err != nil {
		return nil, err
	}
	return list.Collections, nil
}

// waitForRateLimit blocks until the client-side rate limiter admits one
// request. A nil limiter admits immediately.
func (c *Client) waitForRateLimit(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func isCustomDataset(datasetName string) bool {
	return strings.EqualFold(datasetName, "CUSTOM")
}

// retryWait sleeps for d unless the context ends first.
func retryWait(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
