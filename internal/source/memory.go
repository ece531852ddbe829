// SPDX-License-Identifier: MIT
package source

import (
	"fmt"
	"io"

	"github.com/JaclynCodes/Symphonic-Joules/internal/signal"
)

// MemorySource serves a pre-decoded mono signal from memory. It backs
// synthetic test signals and any caller that decodes outside this
// package.
type MemorySource struct {
	*chunker
	samples []float64
	pos     int
}

// NewMemorySource creates a source over samples, split into chunkSize
// chunks. The slice is not copied; the caller must not mutate it while
// the source is in use.
func NewMemorySource(id string, samples []float64, sampleRate float64, chunkSize int) (*MemorySource, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", sampleRate)
	}
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	m := &MemorySource{samples: samples}
	m.chunker = &chunker{
		id:         id,
		sampleRate: sampleRate,
		channels:   1,
		chunkSize:  chunkSize,
		read:       m.readChunk,
	}
	return m, nil
}

func (m *MemorySource) readChunk(n int) ([]float64, error) {
	if m.pos >= len(m.samples) {
		return nil, io.EOF
	}
	end := m.pos + n
	if end > len(m.samples) {
		end = len(m.samples)
	}
	part := m.samples[m.pos:end]
	m.pos = end
	if m.pos >= len(m.samples) {
		return part, io.EOF
	}
	return part, nil
}

// Compile-time interface check.
var _ SampleSource = (*MemorySource)(nil)

// FuncSource adapts an arbitrary chunk generator into a SampleSource,
// useful for fault-injection in tests (corrupt chunks, mid-stream
// errors).
type FuncSource struct {
	SourceID string
	Rate     float64
	Channels int
	Next     func() (*signal.SampleChunk, error)
}

func (f *FuncSource) NextChunk() (*signal.SampleChunk, error) { return f.Next() }
func (f *FuncSource) ID() string                              { return f.SourceID }
func (f *FuncSource) SampleRate() float64                     { return f.Rate }
func (f *FuncSource) ChannelCount() int                       { return f.Channels }
func (f *FuncSource) Close() error                            { return nil }

var _ SampleSource = (*FuncSource)(nil)
