// SPDX-License-Identifier: MIT
package signal

import (
	"fmt"
	"math"
)

// NormalizePeak scales samples so the largest absolute value is 1.0,
// returning a new slice. Fails on an empty or all-zero signal, since
// there is no peak to normalize against.
func NormalizePeak(samples []float64) ([]float64, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("cannot normalize empty signal")
	}
	var peak float64
	for _, s := range samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return nil, fmt.Errorf("cannot normalize all-zero signal")
	}
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s / peak
	}
	return out, nil
}

// ToMono downmixes channel-interleaved samples to mono by averaging the
// channels of each frame. A single-channel input is returned as a copy.
// The input length must be a multiple of the channel count.
func ToMono(interleaved []float64, channels int) ([]float64, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("channel count must be positive, got %d", channels)
	}
	if len(interleaved)%channels != 0 {
		return nil, fmt.Errorf("interleaved length %d is not a multiple of %d channels", len(interleaved), channels)
	}
	if channels == 1 {
		out := make([]float64, len(interleaved))
		copy(out, interleaved)
		return out, nil
	}
	frames := len(interleaved) / channels
	out := make([]float64, frames)
	inv := 1.0 / float64(channels)
	for i := 0; i < frames; i++ {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			sum += interleaved[i*channels+ch]
		}
		out[i] = sum * inv
	}
	return out, nil
}
