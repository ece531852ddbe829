// SPDX-License-Identifier: MIT
/*
Package signal defines the value types that flow through the analysis
pipeline: sample chunks, magnitude spectra, energy metrics, and the
content fingerprints used as cache keys.

All types in this package are plain values. A SampleChunk is immutable
once produced by its source; a SpectrumResult is owned by whoever holds
the pointer (typically the cache after insertion).
*/
package signal

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"time"
)

// SampleChunk is a fixed-length run of mono pressure samples pulled from
// one source. Index increases strictly by one within a source; Offset is
// the absolute sample position of the first sample, so the chunk's time
// range can be recovered without knowing the source's chunking policy.
type SampleChunk struct {
	SourceID   string
	Index      uint64
	Offset     uint64
	SampleRate float64
	Samples    []float64
}

// StartTime returns the chunk's start position within its source.
func (c *SampleChunk) StartTime() time.Duration {
	return sampleDuration(c.Offset, c.SampleRate)
}

// EndTime returns the position just past the chunk's last sample.
func (c *SampleChunk) EndTime() time.Duration {
	return sampleDuration(c.Offset+uint64(len(c.Samples)), c.SampleRate)
}

// Duration returns the span of audio the chunk covers.
func (c *SampleChunk) Duration() time.Duration {
	return c.EndTime() - c.StartTime()
}

// Validate reports whether the chunk is well-formed: non-empty, positive
// sample rate, and every sample finite. The returned error names the
// first offending sample index.
func (c *SampleChunk) Validate() error {
	if len(c.Samples) == 0 {
		return fmt.Errorf("chunk %d from %q is empty", c.Index, c.SourceID)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("chunk %d from %q has sample rate %f", c.Index, c.SourceID, c.SampleRate)
	}
	for i, s := range c.Samples {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return fmt.Errorf("chunk %d from %q has non-finite sample at offset %d", c.Index, c.SourceID, i)
		}
	}
	return nil
}

// CacheKey is a content fingerprint over (source ID, chunk index, sample
// data). Two distinct inputs collide only with FNV-1a probability; the
// key is used for lookup, never for ownership.
type CacheKey uint64

// Fingerprint computes the chunk's cache key. The sample payload is
// hashed bit-exactly via the IEEE-754 representation, so chunks that
// differ by any amount, however small, key differently.
func (c *SampleChunk) Fingerprint() CacheKey {
	h := fnv.New64a()
	h.Write([]byte(c.SourceID))

	var scratch [8]byte
	binary.BigEndian.PutUint64(scratch[:], c.Index)
	h.Write(scratch[:])

	for _, s := range c.Samples {
		binary.BigEndian.PutUint64(scratch[:], math.Float64bits(s))
		h.Write(scratch[:])
	}
	return CacheKey(h.Sum64())
}

func sampleDuration(samples uint64, rate float64) time.Duration {
	if rate <= 0 {
		return 0
	}
	return time.Duration(float64(samples) / rate * float64(time.Second))
}
