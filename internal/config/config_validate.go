// Tessellatus - Satellite Imagery Virtual Data Cube Store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tessellatus

package config

import (
	"fmt"
	"slices"
)

// Validate checks that the loaded configuration is coherent. Cube geometry
// and time-range resolution have their own, stricter checks in NewCube; this
// pass catches what can be rejected before any cube is built.
func (c *Config) Validate() error {
	if err := c.validateClient(); err != nil {
		return err
	}
	if c.Cube.Dataset != "" || c.Cube.CollectionID != "" {
		return c.validateCube()
	}
	return nil
}

func (c *Config) validateClient() error {
	validators := []func() error{
		c.validateErrorPolicy,
		c.validateRetryBudget,
		c.validateInstanceURL,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateErrorPolicy() error {
	switch c.Client.ErrorPolicy {
	case ErrorPolicyFail, ErrorPolicyWarn, ErrorPolicyIgnore:
		return nil
	}
	return fmt.Errorf("%w: client.error_policy must be one of fail, warn, ignore (got %q)",
		ErrInvalid, c.Client.ErrorPolicy)
}

func (c *Config) validateRetryBudget() error {
	if c.Client.NumRetries < 1 {
		return fmt.Errorf("%w: client.num_retries must be at least 1 (got %d)",
			ErrInvalid, c.Client.NumRetries)
	}
	if c.Client.RetryBackoffBase <= 1.0 {
		return fmt.Errorf("%w: client.retry_backoff_base must be greater than 1 (got %g)",
			ErrInvalid, c.Client.RetryBackoffBase)
	}
	if c.Client.RetryBackoffMax < 0 {
		return fmt.Errorf("%w: client.retry_backoff_max must not be negative", ErrInvalid)
	}
	if c.Client.RateLimit < 0 {
		return fmt.Errorf("%w: client.rate_limit must not be negative", ErrInvalid)
	}
	return nil
}

func (c *Config) validateInstanceURL() error {
	if c.Client.InstanceURL == "" {
		return fmt.Errorf("%w: client.instance_url must not be empty", ErrInvalid)
	}
	return nil
}

func (c *Config) validateCube() error {
	validators := []func() error{
		c.validateSampling,
		c.validateSpatial,
		c.validateBandOverrides,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateSampling() error {
	if !slices.Contains(Resamplings, c.Cube.Upsampling) {
		return fmt.Errorf("%w: cube.upsampling must be one of %v (got %q)",
			ErrInvalid, Resamplings, c.Cube.Upsampling)
	}
	if !slices.Contains(Resamplings, c.Cube.Downsampling) {
		return fmt.Errorf("%w: cube.downsampling must be one of %v (got %q)",
			ErrInvalid, Resamplings, c.Cube.Downsampling)
	}
	if !slices.Contains(MosaickingOrders, c.Cube.MosaickingOrder) {
		return fmt.Errorf("%w: cube.mosaicking_order must be one of %v (got %q)",
			ErrInvalid, MosaickingOrders, c.Cube.MosaickingOrder)
	}
	return nil
}

func (c *Config) validateSpatial() error {
	if c.Cube.SpatialRes <= 0 {
		return fmt.Errorf("%w: cube.spatial_res must be a positive number (got %g)",
			ErrInvalid, c.Cube.SpatialRes)
	}
	if len(c.Cube.BBox) != 4 {
		return fmt.Errorf("%w: cube.bbox must have exactly 4 numbers (got %d)",
			ErrInvalid, len(c.Cube.BBox))
	}
	if c.Cube.BBox[0] >= c.Cube.BBox[2] || c.Cube.BBox[1] >= c.Cube.BBox[3] {
		return fmt.Errorf("%w: cube.bbox must satisfy x1 < x2 and y1 < y2", ErrInvalid)
	}
	return nil
}

func (c *Config) validateBandOverrides() error {
	n := len(c.Cube.Bands)
	if n == 0 {
		// Bands unresolved; per-band override lengths can only be checked
		// once the remote band list is known.
		return nil
	}
	if l := len(c.Cube.BandSampleTypes); l > 1 && l != n {
		return fmt.Errorf("%w: cube.band_sample_types must have 1 or %d entries (got %d)",
			ErrInvalid, n, l)
	}
	if l := len(c.Cube.BandFillValues); l > 1 && l != n {
		return fmt.Errorf("%w: cube.band_fill_values must have 1 or %d entries (got %d)",
			ErrInvalid, n, l)
	}
	if l := len(c.Cube.BandUnits); l > 1 && l != n {
		return fmt.Errorf("%w: cube.band_units must have 1 or %d entries (got %d)",
			ErrInvalid, n, l)
	}
	return nil
}
