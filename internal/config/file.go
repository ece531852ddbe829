// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Load builds a Config from defaults, an optional YAML file, and
// SJ_* environment overrides, then validates the result. If path is
// empty, "config.yaml" in the working directory is used when present;
// otherwise defaults apply.
func Load(path string) (*Config, error) {
	cfg := New()

	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides layers SJ_* environment variables over the loaded
// configuration. Unparseable values are ignored rather than fatal, so a
// stray variable cannot block startup.
func (c *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv("SJ_CHUNK_SIZE"); ok {
		if n, err := strconv.Atoi(val); err == nil {
			c.ChunkSize = n
		}
	}
	if val, ok := os.LookupEnv("SJ_WINDOW"); ok {
		c.Window = val
	}
	if val, ok := os.LookupEnv("SJ_MEDIUM_DENSITY"); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			c.MediumDensity = f
		}
	}
	if val, ok := os.LookupEnv("SJ_SOUND_SPEED"); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			c.SoundSpeed = f
		}
	}
	if val, ok := os.LookupEnv("SJ_CACHE_CAPACITY"); ok {
		if n, err := strconv.Atoi(val); err == nil {
			c.CacheCapacity = n
		}
	}
	if val, ok := os.LookupEnv("SJ_CACHE_BYTE_BUDGET"); ok {
		if n, err := strconv.Atoi(val); err == nil {
			c.CacheByteBudget = n
		}
	}
	if val, ok := os.LookupEnv("SJ_LOG_LEVEL"); ok {
		c.LogLevel = val
	}
	if val, ok := os.LookupEnv("SJ_UDP_TARGET_ADDRESS"); ok {
		c.Transport.UDPTargetAddress = val
		c.Transport.UDPEnabled = true
	}
}
