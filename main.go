// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JaclynCodes/Symphonic-Joules/cmd"
	"github.com/JaclynCodes/Symphonic-Joules/internal/config"
	applog "github.com/JaclynCodes/Symphonic-Joules/internal/log"
	"github.com/JaclynCodes/Symphonic-Joules/internal/pipeline"
	sig "github.com/JaclynCodes/Symphonic-Joules/internal/signal"
	"github.com/JaclynCodes/Symphonic-Joules/internal/source"
	"github.com/JaclynCodes/Symphonic-Joules/internal/transport"
)

func main() {
	opts, err := cmd.ParseArgs()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if opts.Command == "" {
		return // Help was shown.
	}

	if level, ok := applog.ParseLevel(opts.Config.LogLevel); ok {
		applog.SetLevel(level)
	}

	// Interrupt and SIGTERM cancel the context; pipelines stop between
	// chunks and park in the Cancelled state.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch opts.Command {
	case "devices":
		err = listDevices()
	case "analyze":
		err = analyzeFiles(ctx, opts.Files, opts.Config)
	case "listen":
		err = listenLive(ctx, opts.Config)
	default:
		err = fmt.Errorf("unknown command %q", opts.Command)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func listDevices() error {
	if err := source.Initialize(); err != nil {
		return err
	}
	defer source.Terminate()

	devices, err := source.ListInputDevices()
	if err != nil {
		return err
	}
	for _, dev := range devices {
		marker := " "
		if dev.Default {
			marker = "*"
		}
		fmt.Printf("%s [%d] %s (%d ch, %.0f Hz)\n", marker, dev.Index, dev.Name, dev.Channels, dev.SampleRate)
	}
	return nil
}

func analyzeFiles(ctx context.Context, files []string, cfg *config.Config) error {
	sources := make([]source.SampleSource, 0, len(files))
	for _, path := range files {
		src, err := source.OpenFile(path, cfg.ChunkSize)
		if err != nil {
			for _, s := range sources {
				s.Close()
			}
			return err
		}
		sources = append(sources, src)
	}

	tr, err := buildTransport(cfg)
	if err != nil {
		return err
	}
	if tr != nil {
		defer tr.Close()
	}

	summaries, err := pipeline.RunBatch(ctx, sources, cfg, pipeline.BatchOptions{Transport: tr})
	if err != nil {
		return err
	}

	var failed int
	for _, s := range summaries {
		printSummary(s)
		if s.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d sources failed", failed, len(summaries))
	}
	return nil
}

func listenLive(ctx context.Context, cfg *config.Config) error {
	if err := source.Initialize(); err != nil {
		return err
	}
	defer source.Terminate()

	src, err := source.NewLiveSource(source.LiveConfig{
		DeviceIndex:     cfg.DeviceID,
		SampleRate:      cfg.SampleRate,
		FramesPerBuffer: cfg.ChunkSize,
		Duration:        cfg.Duration,
	})
	if err != nil {
		return err
	}

	tr, err := buildTransport(cfg)
	if err != nil {
		src.Close()
		return err
	}
	if tr != nil {
		defer tr.Close()
	}

	var popts []pipeline.Option
	if tr != nil {
		popts = append(popts, pipeline.WithTransport(tr))
	}
	p, err := pipeline.New(src, cfg, popts...)
	if err != nil {
		src.Close()
		return err
	}

	// The live source blocks in NextChunk; closing it on cancellation
	// unblocks the pipeline so the run can wind down.
	go func() {
		<-ctx.Done()
		src.Close()
	}()

	results, err := p.Run(ctx)
	if err != nil {
		return err
	}
	for res := range results {
		applog.Debugf("chunk %d: %.3e J/m³, %.4f Pa RMS",
			res.Index, res.Metrics.EnergyDensity, res.Metrics.RMSPressure)
	}

	printSummary(pipeline.SourceSummary{
		SourceID:  src.ID(),
		Chunks:    p.Stats().Processed,
		Aggregate: p.CurrentAggregate(),
		State:     p.State(),
		Err:       p.Err(),
	})
	if dropped := src.Dropped(); dropped > 0 {
		applog.Warnf("Live capture dropped %d frames", dropped)
	}
	return p.Err()
}

func printSummary(s pipeline.SourceSummary) {
	fmt.Printf("%s: %s, %d chunks\n", s.SourceID, s.State, s.Chunks)
	printMetrics("  total", s.Aggregate)
	if s.Err != nil {
		fmt.Printf("  error: %v\n", s.Err)
	}
}

func printMetrics(label string, m sig.EnergyMetrics) {
	fmt.Printf("%s: %.6e J/m³ | %.6f Pa RMS | %.6e W/m² | %s..%s\n",
		label, m.EnergyDensity, m.RMSPressure, m.AvgPower,
		m.Start.Round(time.Millisecond), m.End.Round(time.Millisecond))
}

func buildTransport(cfg *config.Config) (transport.Transport, error) {
	var parts transport.Multi
	if cfg.Transport.UDPEnabled {
		udp, err := transport.NewUDPTransport(cfg.Transport.UDPTargetAddress)
		if err != nil {
			return nil, err
		}
		parts = append(parts, udp)
	}
	if cfg.Transport.WebSocketEnabled {
		parts = append(parts, transport.NewWebSocketTransport(cfg.Transport.WebSocketAddress))
	}
	if len(parts) == 0 {
		return nil, nil
	}
	return parts, nil
}
