// Tessellatus - Satellite Imagery Virtual Data Cube Store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tessellatus

package config

import (
	"errors"
	"time"
)

// ErrInvalid marks fatal configuration problems. All validation and cube
// resolution errors wrap it, so callers can test with errors.Is.
var ErrInvalid = errors.New("invalid configuration")

// Default remote API endpoints and tuning values.
const (
	DefaultInstanceURL = "https://services.sentinel-hub.com"

	DefaultNumRetries       = 200
	DefaultRetryBackoffMax  = 40 * time.Millisecond
	DefaultRetryBackoffBase = 1.001
	DefaultRequestTimeout   = 120 * time.Second
)

// Cube defaults.
const (
	DefaultCRS             = "WGS84"
	DefaultResampling      = "NEAREST"
	DefaultMosaickingOrder = "mostRecent"
	DefaultTileSize        = 1000
	DefaultTimeTolerance   = 10 * time.Minute

	// MaxImageSize is the largest tile edge the process API accepts.
	MaxImageSize = 2500
)

// Resamplings lists the spatial resampling methods the process API accepts.
var Resamplings = []string{"NEAREST", "BILINEAR", "BICUBIC"}

// MosaickingOrders lists the accepted mosaicking policies.
var MosaickingOrders = []string{"mostRecent", "leastRecent", "leastCC"}

// Error policies for exhausted retry budgets.
const (
	ErrorPolicyFail   = "fail"
	ErrorPolicyWarn   = "warn"
	ErrorPolicyIgnore = "ignore"
)

// Config holds all application configuration loaded from environment
// variables and config files.
//
// Thread Safety: Config is immutable after LoadWithKoanf and safe for
// concurrent read access from multiple goroutines.
type Config struct {
	Client  ClientConfig  `koanf:"client"`
	Cube    CubeConfig    `koanf:"cube"`
	Logging LoggingConfig `koanf:"logging"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// ClientConfig configures the remote imagery API client: OAuth2 credentials,
// endpoint URLs, and the retry/backoff budget.
//
// Endpoint URLs other than InstanceURL are optional; when empty they are
// derived from InstanceURL (see the Effective* methods).
type ClientConfig struct {
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`

	InstanceURL      string `koanf:"instance_url"`
	OAuth2URL        string `koanf:"oauth2_url"`
	ProcessURL       string `koanf:"process_url"`
	CatalogURL       string `koanf:"catalog_url"`
	CollectionURL    string `koanf:"collection_url"`
	ConfigurationURL string `koanf:"configuration_url"`

	// ErrorPolicy governs behavior after the retry budget is exhausted:
	// "fail" (default) surfaces an error, "warn" logs and returns the failed
	// response, "ignore" silently returns the failed response.
	ErrorPolicy string `koanf:"error_policy"`

	NumRetries       int           `koanf:"num_retries"`
	RetryBackoffMax  time.Duration `koanf:"retry_backoff_max"`
	RetryBackoffBase float64       `koanf:"retry_backoff_base"`
	RequestTimeout   time.Duration `koanf:"request_timeout"`

	// RateLimit caps outbound process-API requests per second.
	// Zero disables client-side rate limiting.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`

	// BreakerEnabled wraps the process-API fetch path in a circuit breaker.
	BreakerEnabled bool `koanf:"breaker_enabled"`
}

// EffectiveOAuth2URL returns the OAuth2 endpoint, derived from the default
// instance when not overridden. The authorization service for most instances
// is the default instance URL, not the configured one.
func (c *ClientConfig) EffectiveOAuth2URL() string {
	if c.OAuth2URL != "" {
		return c.OAuth2URL
	}
	return DefaultInstanceURL + "/oauth"
}

// EffectiveProcessURL returns the process API endpoint.
func (c *ClientConfig) EffectiveProcessURL() string {
	if c.ProcessURL != "" {
		return c.ProcessURL
	}
	return c.InstanceURL + "/api/v1/process"
}

// EffectiveCatalogURL returns the catalog API endpoint.
func (c *ClientConfig) EffectiveCatalogURL() string {
	if c.CatalogURL != "" {
		return c.CatalogURL
	}
	return c.InstanceURL + "/api/v1/catalog/1.0.0"
}

// EffectiveCollectionURL returns the collection metadata endpoint used for
// user-registered (BYOC) collections.
func (c *ClientConfig) EffectiveCollectionURL() string {
	if c.CollectionURL != "" {
		return c.CollectionURL
	}
	return c.InstanceURL + "/api/v1/metadata/collection"
}

// EffectiveConfigurationURL returns the dataset configuration endpoint.
func (c *ClientConfig) EffectiveConfigurationURL() string {
	if c.ConfigurationURL != "" {
		return c.ConfigurationURL
	}
	return c.InstanceURL + "/configuration/v1"
}

// CubeConfig is the raw, declarative cube description as given by the user.
// NewCube resolves it into an immutable Cube.
type CubeConfig struct {
	// Dataset is the named builtin dataset, e.g. "S2L2A". If CollectionID is
	// given, Dataset must be empty or "CUSTOM".
	Dataset string `koanf:"dataset"`

	// CollectionID identifies a user-registered (BYOC) collection. The
	// "byoc-" prefix is added when missing.
	CollectionID string `koanf:"collection_id"`

	// Bands selects the bands to include. Empty means all bands; the store
	// resolves the full list from the remote API before construction.
	Bands []string `koanf:"bands"`

	// BandSampleTypes optionally overrides per-band sample types. One entry
	// applies to all bands, otherwise the length must match Bands.
	BandSampleTypes []string `koanf:"band_sample_types"`

	// BandFillValues optionally overrides per-band fill values. NaN entries
	// mean "no fill value". One entry applies to all bands.
	BandFillValues []float64 `koanf:"band_fill_values"`

	// BandUnits optionally requests per-band units. One entry applies to all
	// bands.
	BandUnits []string `koanf:"band_units"`

	// BBox is the spatial bounding box (x1, y1, x2, y2) in CRS units.
	BBox []float64 `koanf:"bbox"`

	// SpatialRes is the spatial resolution in CRS units per pixel. Must be
	// positive.
	SpatialRes float64 `koanf:"spatial_res"`

	// CRS names the coordinate reference system, by id ("WGS84", "CRS84",
	// "EPSG:3857") or by OGC URI.
	CRS string `koanf:"crs"`

	TileWidth  int `koanf:"tile_width"`
	TileHeight int `koanf:"tile_height"`

	Upsampling      string `koanf:"upsampling"`
	Downsampling    string `koanf:"downsampling"`
	MosaickingOrder string `koanf:"mosaicking_order"`

	// TimeStart and TimeEnd bound the cube's time axis. Accepted layouts:
	// RFC 3339, "2006-01-02T15:04:05", "2006-01-02".
	TimeStart string `koanf:"time_start"`
	TimeEnd   string `koanf:"time_end"`

	// TimePeriod is an optional aggregation period ("8d", "1w", "30m").
	// When set, time slices are generated offline from the period.
	TimePeriod string `koanf:"time_period"`

	// TimeTolerance widens per-slice request windows symmetrically.
	// Defaults to 10m when TimePeriod is not set.
	TimeTolerance string `koanf:"time_tolerance"`

	// FourD selects a single 4-D "band_data" array with band as the last
	// axis instead of one 3-D array per band.
	FourD bool `koanf:"four_d"`
}

// LoggingConfig configures the zerolog-based logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// MetricsConfig configures the optional Prometheus metrics listener of the
// CLI.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}
