// SPDX-License-Identifier: MIT
package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/JaclynCodes/Symphonic-Joules/internal/cache"
	"github.com/JaclynCodes/Symphonic-Joules/internal/config"
	applog "github.com/JaclynCodes/Symphonic-Joules/internal/log"
	"github.com/JaclynCodes/Symphonic-Joules/internal/signal"
	"github.com/JaclynCodes/Symphonic-Joules/internal/source"
	"github.com/JaclynCodes/Symphonic-Joules/internal/transport"
)

// SourceSummary is the outcome of one source's pipeline in a batch run.
// A failed source carries its error and the partial aggregate computed
// before the failure.
type SourceSummary struct {
	SourceID  string
	Chunks    uint64
	Aggregate signal.EnergyMetrics
	State     State
	Err       error
}

// BatchOptions tunes a batch run beyond the shared Config.
type BatchOptions struct {
	// Transport, when set, receives metrics frames from every pipeline.
	Transport transport.Transport
}

// RunBatch processes independent sources in parallel, one pipeline per
// source, each with its own state and (by default) its own private
// cache. cfg.Workers bounds concurrency (0 means one worker per
// source); cfg.SharedCache shares a single mutex-guarded cache across
// all pipelines for cross-source deduplication.
//
// A failing source does not abort the others; its summary carries the
// error. Cancellation of ctx stops every pipeline cooperatively.
// Summaries are returned in input order.
func RunBatch(ctx context.Context, sources []source.SampleSource, cfg *config.Config, opts BatchOptions) ([]SourceSummary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var shared *cache.Cache
	if cfg.SharedCache {
		shared = cache.New(cfg.CacheCapacity, cfg.CacheByteBudget)
	}

	summaries := make([]SourceSummary, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	if cfg.Workers > 0 {
		g.SetLimit(cfg.Workers)
	}

	for i, src := range sources {
		g.Go(func() error {
			summaries[i] = runOne(ctx, src, cfg, shared, opts.Transport)
			return nil
		})
	}

	// Workers never return errors; per-source failures live in their
	// summaries so one bad file cannot abort a batch.
	if err := g.Wait(); err != nil {
		return summaries, err
	}
	return summaries, nil
}

func runOne(ctx context.Context, src source.SampleSource, cfg *config.Config, shared *cache.Cache, tr transport.Transport) SourceSummary {
	summary := SourceSummary{SourceID: src.ID()}

	var opts []Option
	if shared != nil {
		opts = append(opts, WithCache(shared))
	}
	if tr != nil {
		opts = append(opts, WithTransport(tr))
	}

	p, err := New(src, cfg, opts...)
	if err != nil {
		src.Close()
		summary.State = Failed
		summary.Err = err
		return summary
	}

	results, err := p.Run(ctx)
	if err != nil {
		summary.State = Failed
		summary.Err = err
		return summary
	}

	for range results {
		// Per-chunk results are folded into the pipeline's aggregate;
		// batch callers consume only the summary.
	}

	summary.Chunks = p.Stats().Processed
	summary.Aggregate = p.CurrentAggregate()
	summary.State = p.State()
	summary.Err = p.Err()

	applog.Infof("Batch: source %q %s after %d chunks", src.ID(), summary.State, summary.Chunks)
	return summary
}
