// Tessellatus - Satellite Imagery Virtual Data Cube Store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tessellatus

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order
// of priority. The first file found will be used.
var DefaultConfigPaths = []string{
	"tessellatus.yaml",
	"tessellatus.yml",
	"/etc/tessellatus/config.yaml",
	"/etc/tessellatus/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config
// file path.
const ConfigPathEnvVar = "TESSELLATUS_CONFIG"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env
// vars.
func defaultConfig() *Config {
	return &Config{
		Client: ClientConfig{
			ClientID:         "",
			ClientSecret:     "",
			InstanceURL:      DefaultInstanceURL,
			ErrorPolicy:      ErrorPolicyFail,
			NumRetries:       DefaultNumRetries,
			RetryBackoffMax:  DefaultRetryBackoffMax,
			RetryBackoffBase: DefaultRetryBackoffBase,
			RequestTimeout:   DefaultRequestTimeout,
			RateLimit:        0, // Unlimited
			RateBurst:        1,
			BreakerEnabled:   false,
		},
		Cube: CubeConfig{
			CRS:             DefaultCRS,
			Upsampling:      DefaultResampling,
			Downsampling:    DefaultResampling,
			MosaickingOrder: DefaultMosaickingOrder,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9464",
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config file: Optional YAML file (tessellatus.yaml)
//  3. Environment variables: Override any setting
//
// This function is the preferred way to load configuration and provides:
//   - Type-safe configuration unmarshaling
//   - Clear precedence: ENV > File > Defaults
//   - Support for nested configuration via koanf struct tags
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as
// comma-separated slices when supplied through environment variables.
var sliceConfigPaths = []string{
	"cube.bands",
	"cube.band_sample_types",
	"cube.band_units",
	"cube.bbox",
	"cube.band_fill_values",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields. This is necessary because env vars come in as strings,
// but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// If it's already a slice (from YAML file), skip
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc transforms environment variable names to koanf config
// paths. The SH_* names match what users of the remote imagery API already
// have exported; CUBE_* names map onto the cube section.
//
// Examples:
//   - SH_CLIENT_ID -> client.client_id
//   - SH_INSTANCE_URL -> client.instance_url
//   - CUBE_DATASET -> cube.dataset
//   - CUBE_SPATIAL_RES -> cube.spatial_res
//   - LOG_LEVEL -> logging.level
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		"sh_client_id":          "client.client_id",
		"sh_client_secret":      "client.client_secret",
		"sh_instance_url":       "client.instance_url",
		"sh_oauth2_url":         "client.oauth2_url",
		"sh_process_url":        "client.process_url",
		"sh_catalog_url":        "client.catalog_url",
		"sh_collection_url":     "client.collection_url",
		"sh_configuration_url":  "client.configuration_url",
		"sh_error_policy":       "client.error_policy",
		"sh_num_retries":        "client.num_retries",
		"sh_retry_backoff_max":  "client.retry_backoff_max",
		"sh_retry_backoff_base": "client.retry_backoff_base",

		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",

		"metrics_enabled": "metrics.enabled",
		"metrics_addr":    "metrics.addr",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	if rest, ok := strings.CutPrefix(key, "cube_"); ok {
		return "cube." + rest
	}

	// Unknown variables are dropped rather than polluting the config tree.
	return ""
}
