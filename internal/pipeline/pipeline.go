// SPDX-License-Identifier: MIT
/*
Package pipeline drives chunks from a SampleSource through spectral and
energy analysis into the result cache, producing a lazy stream of
per-chunk metrics with O(chunk size × cache capacity) peak memory
regardless of stream length.

Each pipeline run is single-use: Idle → Running → Completed, Failed, or
Cancelled, with no way back from a terminal state. Reprocessing a source
requires a fresh pipeline (and a fresh source; sources are not
restartable either).
*/
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/JaclynCodes/Symphonic-Joules/internal/analysis"
	"github.com/JaclynCodes/Symphonic-Joules/internal/cache"
	"github.com/JaclynCodes/Symphonic-Joules/internal/config"
	applog "github.com/JaclynCodes/Symphonic-Joules/internal/log"
	"github.com/JaclynCodes/Symphonic-Joules/internal/signal"
	"github.com/JaclynCodes/Symphonic-Joules/internal/source"
	"github.com/JaclynCodes/Symphonic-Joules/internal/transport"
)

// State is the pipeline lifecycle state.
type State int32

const (
	Idle State = iota
	Running
	Completed
	Failed
	Cancelled
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// CorruptChunkError reports a malformed chunk from the source. The run
// fails rather than skipping: an aggregate with a silently missing
// chunk would understate total energy.
type CorruptChunkError struct {
	Index uint64
	Err   error
}

func (e *CorruptChunkError) Error() string {
	return fmt.Sprintf("corrupt chunk %d: %v", e.Index, e.Err)
}

func (e *CorruptChunkError) Unwrap() error { return e.Err }

// Result is one per-chunk output of a pipeline run.
type Result struct {
	Index   uint64
	Metrics signal.EnergyMetrics
}

// Stats counts pipeline work for instrumentation; Computed versus
// Processed exposes how much the cache saved.
type Stats struct {
	Processed uint64 // Chunks emitted.
	Computed  uint64 // Chunks that required analysis (cache misses).
	Cache     cache.Stats
}

// Option configures optional pipeline collaborators.
type Option func(*Pipeline)

// WithCache substitutes a caller-owned (possibly shared) result cache
// for the pipeline's private one.
func WithCache(c *cache.Cache) Option {
	return func(p *Pipeline) { p.cache = c }
}

// WithTransport attaches a metrics publisher; each processed chunk is
// sent best-effort. The pipeline does not close the transport.
func WithTransport(t transport.Transport) Option {
	return func(p *Pipeline) { p.transport = t }
}

// Pipeline is a single-use streaming analysis run over one source.
type Pipeline struct {
	src       source.SampleSource
	cfg       *config.Config
	analyzer  *analysis.SpectralAnalyzer
	energy    *analysis.EnergyComputer
	cache     *cache.Cache
	transport transport.Transport

	state atomic.Int32

	mu         sync.Mutex
	aggregate  *analysis.Aggregator
	lastIndex  uint64
	hasChunks  bool
	runErr     error
	computed   uint64
	processed  uint64
	seq        uint32
}

// New constructs a pipeline over src. Configuration, including the
// physical parameters, is validated here so invalid setups fail before
// any chunk is pulled.
func New(src source.SampleSource, cfg *config.Config, opts ...Option) (*Pipeline, error) {
	if src == nil {
		return nil, errors.New("pipeline requires a sample source")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if src.SampleRate() <= 0 {
		return nil, fmt.Errorf("%w: source %q reports %f",
			analysis.ErrInvalidSampleRate, src.ID(), src.SampleRate())
	}

	energy, err := analysis.NewEnergyComputer(cfg.MediumDensity, cfg.SoundSpeed)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		src:       src,
		cfg:       cfg,
		energy:    energy,
		aggregate: analysis.NewAggregator(energy),
	}

	if cfg.ComputeSpectral {
		analyzer, err := analysis.NewSpectralAnalyzer(cfg.ChunkSize, cfg.WindowFunc())
		if err != nil {
			return nil, err
		}
		p.analyzer = analyzer
	}

	for _, opt := range opts {
		opt(p)
	}
	if p.cache == nil {
		p.cache = cache.New(cfg.CacheCapacity, cfg.CacheByteBudget)
	}
	return p, nil
}

// State returns the current lifecycle state.
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

// Err returns the error that terminated a Failed run, nil otherwise.
// Valid once the result channel has closed.
func (p *Pipeline) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.runErr
}

// CurrentAggregate returns the energy integrated over all chunks
// processed so far. Safe to call concurrently with Run, and after a
// failure it reflects everything up to the failing chunk.
func (p *Pipeline) CurrentAggregate() signal.EnergyMetrics {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.aggregate.Snapshot()
}

// LastChunkIndex returns the index of the last successfully processed
// chunk; ok is false before any chunk completes.
func (p *Pipeline) LastChunkIndex() (index uint64, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastIndex, p.hasChunks
}

// Stats returns work counters for this run plus cache counters (which
// may span runs when the cache is shared).
func (p *Pipeline) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{Processed: p.processed, Computed: p.computed, Cache: p.cache.Stats()}
}

// Run starts the pipeline and returns its lazy result stream. Results
// arrive in strict chunk order; the channel closes when the run reaches
// a terminal state. Cancellation is checked between chunks, never
// mid-chunk, and parks the pipeline in Cancelled, not Failed. A second
// Run on the same pipeline errors.
func (p *Pipeline) Run(ctx context.Context) (<-chan Result, error) {
	if !p.state.CompareAndSwap(int32(Idle), int32(Running)) {
		return nil, fmt.Errorf("pipeline already started (state %s)", p.State())
	}

	results := make(chan Result)
	go p.run(ctx, results)
	return results, nil
}

func (p *Pipeline) run(ctx context.Context, results chan<- Result) {
	defer close(results)

	var expect uint64
	for {
		select {
		case <-ctx.Done():
			p.finish(Cancelled, nil)
			return
		default:
		}

		chunk, err := p.src.NextChunk()
		if err == io.EOF {
			p.finish(Completed, nil)
			return
		}
		if err != nil {
			p.finish(Failed, fmt.Errorf("source %q: %w", p.src.ID(), err))
			return
		}

		if err := p.checkChunk(chunk, expect); err != nil {
			p.finish(Failed, err)
			return
		}
		expect = chunk.Index + 1

		metrics, err := p.process(chunk)
		if err != nil {
			p.finish(Failed, err)
			return
		}

		p.record(chunk.Index, metrics)
		p.publish(chunk, metrics)

		select {
		case results <- Result{Index: chunk.Index, Metrics: metrics}:
		case <-ctx.Done():
			p.finish(Cancelled, nil)
			return
		}
	}
}

// checkChunk enforces the source contract: sequential indices, bounded
// length, finite samples.
func (p *Pipeline) checkChunk(chunk *signal.SampleChunk, expect uint64) error {
	if chunk.Index != expect {
		return &CorruptChunkError{Index: chunk.Index,
			Err: fmt.Errorf("out-of-order chunk, expected index %d", expect)}
	}
	if len(chunk.Samples) > p.cfg.ChunkSize {
		return &CorruptChunkError{Index: chunk.Index,
			Err: fmt.Errorf("chunk has %d samples, configured size is %d", len(chunk.Samples), p.cfg.ChunkSize)}
	}
	if err := chunk.Validate(); err != nil {
		return &CorruptChunkError{Index: chunk.Index, Err: err}
	}
	return nil
}

// process returns cached metrics for the chunk or computes and caches
// them.
func (p *Pipeline) process(chunk *signal.SampleChunk) (signal.EnergyMetrics, error) {
	key := chunk.Fingerprint()
	if entry, ok := p.cache.Get(key); ok {
		return entry.Metrics, nil
	}

	metrics, err := p.energy.ComputeTimeDomain(chunk)
	if err != nil {
		return signal.EnergyMetrics{}, err
	}

	entry := &cache.Entry{Metrics: metrics}
	if p.analyzer != nil {
		spectrum, err := p.analyzer.Analyze(chunk)
		if err != nil {
			return signal.EnergyMetrics{}, err
		}
		entry.Spectrum = spectrum
	}
	p.cache.Put(key, entry)

	p.mu.Lock()
	p.computed++
	p.mu.Unlock()
	return metrics, nil
}

func (p *Pipeline) record(index uint64, metrics signal.EnergyMetrics) {
	p.mu.Lock()
	p.aggregate.Add(metrics)
	p.lastIndex = index
	p.hasChunks = true
	p.processed++
	p.mu.Unlock()
}

// publish sends the chunk's metrics to the attached transport. Failures
// are logged, never propagated: publishing is an optimization of
// visibility, not of correctness.
func (p *Pipeline) publish(chunk *signal.SampleChunk, metrics signal.EnergyMetrics) {
	if p.transport == nil {
		return
	}
	p.mu.Lock()
	p.seq++
	seq := p.seq
	p.mu.Unlock()

	frame := transport.MetricsFrame{
		Seq:           seq,
		Timestamp:     time.Now().UnixNano(),
		SourceID:      chunk.SourceID,
		ChunkIndex:    chunk.Index,
		EnergyDensity: metrics.EnergyDensity,
		RMSPressure:   metrics.RMSPressure,
		AvgPower:      metrics.AvgPower,
		Start:         metrics.Start,
		End:           metrics.End,
	}
	if err := p.transport.Send(frame); err != nil {
		applog.Debugf("Pipeline: metrics publish failed for chunk %d: %v", chunk.Index, err)
	}
}

func (p *Pipeline) finish(state State, err error) {
	if err != nil {
		p.mu.Lock()
		p.runErr = err
		p.mu.Unlock()
		applog.Errorf("Pipeline: source %q failed: %v", p.src.ID(), err)
	}
	p.state.Store(int32(state))

	if closeErr := p.src.Close(); closeErr != nil {
		applog.Warnf("Pipeline: error closing source %q: %v", p.src.ID(), closeErr)
	}
}
