// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"time"

	"github.com/JaclynCodes/Symphonic-Joules/internal/analysis"
)

// Defaults and limits for the analysis pipeline. The physical defaults
// describe air at 15 °C.
const (
	DefaultChunkSize       = 4096   // Samples per chunk
	DefaultWindow          = "hann" // FFT window function
	DefaultMediumDensity   = 1.225  // kg/m³
	DefaultSoundSpeed      = 343.0  // m/s
	DefaultCacheCapacity   = 128    // Max cached entries
	DefaultCacheByteBudget = 16 << 20
	DefaultComputeSpectral = true
	DefaultSampleRate      = 44100 // Hz, for live capture
	DefaultLogLevel        = "info"

	MinChunkSize = 16
	MaxChunkSize = 1 << 20
)

// Config holds all runtime options for the analysis engine. It is
// constructed from defaults, then a YAML file, environment overrides,
// and finally command line flags, in that order.
type Config struct {
	// Analysis settings.
	ChunkSize       int     `yaml:"chunk_size"`
	Window          string  `yaml:"window"`
	MediumDensity   float64 `yaml:"medium_density"`
	SoundSpeed      float64 `yaml:"sound_speed"`
	ComputeSpectral bool    `yaml:"compute_spectral"`

	// Cache budgets. Zero disables the respective budget.
	CacheCapacity   int `yaml:"cache_capacity"`
	CacheByteBudget int `yaml:"cache_byte_budget"`

	// Live capture settings.
	DeviceID   int           `yaml:"device_id"`
	SampleRate float64       `yaml:"sample_rate"`
	Duration   time.Duration `yaml:"duration"`

	// Transport settings for streaming per-chunk metrics to viewers.
	Transport TransportConfig `yaml:"transport"`

	// Batch settings.
	Workers     int  `yaml:"workers"`      // Parallel sources; 0 means one per source.
	SharedCache bool `yaml:"shared_cache"` // Share one cache across parallel pipelines.

	LogLevel string `yaml:"log_level"`
}

// TransportConfig controls optional metrics publishing. Both transports
// are off by default.
type TransportConfig struct {
	UDPEnabled       bool   `yaml:"udp_enabled"`
	UDPTargetAddress string `yaml:"udp_target_address"`
	WebSocketEnabled bool   `yaml:"websocket_enabled"`
	WebSocketAddress string `yaml:"websocket_address"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		ChunkSize:       DefaultChunkSize,
		Window:          DefaultWindow,
		MediumDensity:   DefaultMediumDensity,
		SoundSpeed:      DefaultSoundSpeed,
		ComputeSpectral: DefaultComputeSpectral,
		CacheCapacity:   DefaultCacheCapacity,
		CacheByteBudget: DefaultCacheByteBudget,
		DeviceID:        -1,
		SampleRate:      DefaultSampleRate,
		LogLevel:        DefaultLogLevel,
		Transport: TransportConfig{
			UDPTargetAddress: "127.0.0.1:9090",
			WebSocketAddress: ":8080",
		},
	}
}

// Validate fails fast on configurations the pipeline must never run
// with. Physical parameters are checked here so the error surfaces at
// construction, not per chunk.
func (c *Config) Validate() error {
	if c.ChunkSize < MinChunkSize || c.ChunkSize > MaxChunkSize {
		return fmt.Errorf("%w: chunk_size %d outside [%d, %d]",
			analysis.ErrInvalidChunkSize, c.ChunkSize, MinChunkSize, MaxChunkSize)
	}
	if _, err := analysis.ParseWindowFunc(c.Window); err != nil {
		return err
	}
	if c.MediumDensity <= 0 {
		return fmt.Errorf("%w: medium_density %f", analysis.ErrInvalidPhysicalParameter, c.MediumDensity)
	}
	if c.SoundSpeed <= 0 {
		return fmt.Errorf("%w: sound_speed %f", analysis.ErrInvalidPhysicalParameter, c.SoundSpeed)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample_rate %f", analysis.ErrInvalidSampleRate, c.SampleRate)
	}
	if c.CacheCapacity < 0 {
		return fmt.Errorf("cache_capacity must not be negative, got %d", c.CacheCapacity)
	}
	if c.CacheByteBudget < 0 {
		return fmt.Errorf("cache_byte_budget must not be negative, got %d", c.CacheByteBudget)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.Transport.UDPEnabled && c.Transport.UDPTargetAddress == "" {
		return fmt.Errorf("transport.udp_target_address must be set when UDP is enabled")
	}
	if c.Transport.WebSocketEnabled && c.Transport.WebSocketAddress == "" {
		return fmt.Errorf("transport.websocket_address must be set when websocket is enabled")
	}
	return nil
}

// WindowFunc returns the parsed window function. Call Validate first;
// an unknown name falls back to Hann here.
func (c *Config) WindowFunc() analysis.WindowFunc {
	w, _ := analysis.ParseWindowFunc(c.Window)
	return w
}
