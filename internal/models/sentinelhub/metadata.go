// Tessellatus - Satellite Imagery Virtual Data Cube Store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tessellatus

package sentinelhub

// Dataset is one entry of the configuration API's dataset listing.
type Dataset struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// Band is per-band metadata. Builtin datasets only report names through the
// process API's band listing, so most fields are populated only for BYOC
// collections and from the static dataset tables.
type Band struct {
	Name       string `json:"name"`
	SampleType string `json:"sampleType,omitempty"`
	Units      string `json:"units,omitempty"`

	// Optics, present in the static dataset tables.
	WavelengthNanometers float64 `json:"wavelength,omitempty"`
	BandwidthNanometers  float64 `json:"bandwidth,omitempty"`
	Resolution           float64 `json:"resolution,omitempty"`

	// FillValue is the no-data value; nil means none is defined.
	FillValue *float64 `json:"fillValue,omitempty"`

	// FlagMeanings and FlagValues describe categorical bands such as a
	// scene classification layer.
	FlagMeanings []string  `json:"flagMeanings,omitempty"`
	FlagValues   []float64 `json:"flagValues,omitempty"`
}

// BandNameList is the process API's band listing for builtin datasets:
// {"data": ["B01", "B02", ...]}.
type BandNameList struct {
	Data []string `json:"data"`
}

// CollectionMetadata is the BYOC collection metadata response. Its band
// entries carry full sample type information.
type CollectionMetadata struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Bands []Band `json:"bands"`
}

// TokenInfo is the decoded access token returned by the tokeninfo
// endpoint.
type TokenInfo struct {
	Subject   string `json:"sub,omitempty"`
	Audience  string `json:"aud,omitempty"`
	ClientID  string `json:"azp,omitempty"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	Active    bool   `json:"active,omitempty"`
	ExpiresAt int64  `json:"exp,omitempty"`
	IssuedAt  int64  `json:"iat,omitempty"`
}
