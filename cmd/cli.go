// SPDX-License-Identifier: MIT
// Package cmd parses command line arguments into the engine
// configuration and the command to dispatch.
package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/JaclynCodes/Symphonic-Joules/internal/config"
	"github.com/JaclynCodes/Symphonic-Joules/pkg/build"
)

// Options is the parsed invocation: which command to run and on what.
type Options struct {
	Command string // "analyze", "devices", or "listen"
	Files   []string
	Config  *config.Config
}

// ParseArgs builds the configuration from (in order) defaults, config
// file, environment, and command line flags, and returns the parsed
// invocation.
func ParseArgs() (*Options, error) {
	info := build.Get()
	opts := &Options{}

	var (
		configPath string
		flagCfg    = config.New()
		duration   time.Duration
	)

	rootCmd := &cobra.Command{
		Use:           info.Name + " [files...]",
		Short:         "Streaming acoustic energy analysis for audio files and live capture",
		Version:       info.Version,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			opts.Command = "analyze"
			opts.Files = args
			return resolveConfig(cmd, opts, configPath, flagCfg, duration)
		},
	}

	devicesCmd := &cobra.Command{
		Use:   "devices",
		Short: "List available audio capture devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Command = "devices"
			return resolveConfig(cmd, opts, configPath, flagCfg, duration)
		},
	}
	rootCmd.AddCommand(devicesCmd)

	listenCmd := &cobra.Command{
		Use:   "listen",
		Short: "Analyze live audio from a capture device",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Command = "listen"
			return resolveConfig(cmd, opts, configPath, flagCfg, duration)
		},
	}
	listenCmd.Flags().DurationVar(&duration, "duration", 0,
		"Stop capturing after this long (0 means until interrupted)")
	rootCmd.AddCommand(listenCmd)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Path to YAML configuration file")
	pf.IntVar(&flagCfg.ChunkSize, "chunk-size", config.DefaultChunkSize,
		"Samples per analysis chunk")
	pf.StringVarP(&flagCfg.Window, "window", "w", config.DefaultWindow,
		"FFT window function (hann, hamming, rectangular)")
	pf.Float64Var(&flagCfg.MediumDensity, "medium-density", config.DefaultMediumDensity,
		"Medium density in kg/m³ (default is air)")
	pf.Float64Var(&flagCfg.SoundSpeed, "sound-speed", config.DefaultSoundSpeed,
		"Speed of sound in m/s (default is air)")
	pf.BoolVar(&flagCfg.ComputeSpectral, "spectral", config.DefaultComputeSpectral,
		"Compute and cache magnitude spectra alongside energy metrics")
	pf.IntVar(&flagCfg.CacheCapacity, "cache-capacity", config.DefaultCacheCapacity,
		"Maximum cached chunk results (0 disables the entry budget)")
	pf.IntVar(&flagCfg.CacheByteBudget, "cache-bytes", config.DefaultCacheByteBudget,
		"Maximum cache size in bytes (0 disables the byte budget)")
	pf.IntVar(&flagCfg.Workers, "workers", 0,
		"Parallel sources in a batch (0 means one per source)")
	pf.BoolVar(&flagCfg.SharedCache, "shared-cache", false,
		"Share one result cache across parallel pipelines")
	pf.IntVarP(&flagCfg.DeviceID, "device", "d", -1,
		"Capture device index for listen, -1 for the system default")
	pf.Float64VarP(&flagCfg.SampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate in Hz for live capture")
	pf.StringVar(&flagCfg.Transport.UDPTargetAddress, "udp-target", "",
		"Publish per-chunk metrics as UDP packets to this host:port")
	pf.StringVar(&flagCfg.Transport.WebSocketAddress, "ws-addr", "",
		"Serve per-chunk metrics over websocket on this address")
	pf.StringVar(&flagCfg.LogLevel, "log-level", config.DefaultLogLevel,
		"Log level (debug, info, warn, error)")

	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}
	return opts, nil
}

// resolveConfig layers explicitly set flags over the file- and
// env-derived configuration, then validates the result.
func resolveConfig(cmd *cobra.Command, opts *Options, configPath string, flagCfg *config.Config, duration time.Duration) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	overlay := map[string]func(){
		"chunk-size":     func() { cfg.ChunkSize = flagCfg.ChunkSize },
		"window":         func() { cfg.Window = flagCfg.Window },
		"medium-density": func() { cfg.MediumDensity = flagCfg.MediumDensity },
		"sound-speed":    func() { cfg.SoundSpeed = flagCfg.SoundSpeed },
		"spectral":       func() { cfg.ComputeSpectral = flagCfg.ComputeSpectral },
		"cache-capacity": func() { cfg.CacheCapacity = flagCfg.CacheCapacity },
		"cache-bytes":    func() { cfg.CacheByteBudget = flagCfg.CacheByteBudget },
		"workers":        func() { cfg.Workers = flagCfg.Workers },
		"shared-cache":   func() { cfg.SharedCache = flagCfg.SharedCache },
		"device":         func() { cfg.DeviceID = flagCfg.DeviceID },
		"sample-rate":    func() { cfg.SampleRate = flagCfg.SampleRate },
		"log-level":      func() { cfg.LogLevel = flagCfg.LogLevel },
		"udp-target": func() {
			cfg.Transport.UDPTargetAddress = flagCfg.Transport.UDPTargetAddress
			cfg.Transport.UDPEnabled = flagCfg.Transport.UDPTargetAddress != ""
		},
		"ws-addr": func() {
			cfg.Transport.WebSocketAddress = flagCfg.Transport.WebSocketAddress
			cfg.Transport.WebSocketEnabled = flagCfg.Transport.WebSocketAddress != ""
		},
	}
	for name, apply := range overlay {
		if cmd.Flags().Changed(name) {
			apply()
		}
	}
	if cmd.Flags().Changed("duration") {
		cfg.Duration = duration
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	opts.Config = cfg
	return nil
}
