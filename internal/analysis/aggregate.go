// SPDX-License-Identifier: MIT
package analysis

import (
	"time"

	"github.com/JaclynCodes/Symphonic-Joules/internal/signal"
)

// Aggregator folds per-chunk metrics into a running whole-stream
// EnergyMetrics. Energy density and power are linear in mean-square
// pressure, so the accumulator keeps a duration-weighted mean-square sum
// and rederives the physical quantities on demand.
//
// Not safe for concurrent use; the owning pipeline serializes access.
type Aggregator struct {
	computer *EnergyComputer

	weightedSum float64 // Σ meanSquare_i · duration_i
	totalSpan   time.Duration
	start, end  time.Duration
	chunks      uint64
}

// NewAggregator creates an empty aggregate bound to the given medium.
func NewAggregator(computer *EnergyComputer) *Aggregator {
	return &Aggregator{computer: computer}
}

// Add folds one chunk's metrics into the aggregate.
func (a *Aggregator) Add(m signal.EnergyMetrics) {
	span := m.End - m.Start
	if span <= 0 {
		return
	}
	if a.chunks == 0 || m.Start < a.start {
		a.start = m.Start
	}
	if m.End > a.end {
		a.end = m.End
	}
	a.weightedSum += m.MeanSquare() * span.Seconds()
	a.totalSpan += span
	a.chunks++
}

// Chunks returns the number of chunks folded in so far.
func (a *Aggregator) Chunks() uint64 {
	return a.chunks
}

// Snapshot returns the metrics integrated over everything added so far.
// An empty aggregate yields zero metrics.
func (a *Aggregator) Snapshot() signal.EnergyMetrics {
	if a.chunks == 0 || a.totalSpan <= 0 {
		return signal.EnergyMetrics{}
	}
	meanSquare := a.weightedSum / a.totalSpan.Seconds()
	return a.computer.fromMeanSquare(meanSquare, a.start, a.end)
}
