// SPDX-License-Identifier: MIT
package signal

import "time"

// SpectrumResult is the magnitude spectrum of one SampleChunk. It holds
// TransformSize/2+1 magnitudes (real-input transform), the sample rate
// used to interpret bin frequencies, and enough bookkeeping to map
// spectral energy back to the time-domain chunk it came from.
type SpectrumResult struct {
	SourceID string
	Index    uint64

	// Magnitudes holds |X_k| for k in [0, TransformSize/2].
	Magnitudes []float64

	SampleRate    float64
	TransformSize int

	// ChunkLen is the original chunk length before any zero-padding to
	// reach TransformSize. Zero-padded bins carry no extra energy, but
	// mean-square normalization must divide by ChunkLen, not the
	// transform size.
	ChunkLen int

	// WindowPower is the sum of squared window coefficients over the
	// un-padded region. Dividing the Parseval sum by it recovers the
	// mean-square of the original (un-windowed) signal.
	WindowPower float64

	Start, End time.Duration
}

// BinFrequency returns the center frequency in Hz of the given bin, or 0
// if the index is out of range.
func (s *SpectrumResult) BinFrequency(bin int) float64 {
	if bin < 0 || bin >= len(s.Magnitudes) {
		return 0
	}
	return float64(bin) * s.SampleRate / float64(s.TransformSize)
}

// SizeBytes estimates the heap footprint of the spectrum, used by the
// result cache for byte-budget accounting.
func (s *SpectrumResult) SizeBytes() int {
	const header = 96 // struct fields and slice header, rounded up
	return header + 8*len(s.Magnitudes)
}
