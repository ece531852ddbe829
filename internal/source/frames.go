// SPDX-License-Identifier: MIT
package source

import (
	"fmt"
	"io"

	"github.com/JaclynCodes/Symphonic-Joules/internal/signal"
)

// FrameSource re-chunks a mono signal into overlapping frames of
// frameLength samples advanced by hopLength, for analyses that need
// finer time resolution than disjoint chunks give. Each frame carries
// the absolute offset of its first sample, so overlapping frames of the
// same content fingerprint identically across runs.
type FrameSource struct {
	id         string
	samples    []float64
	sampleRate float64
	frameLen   int
	hopLen     int

	index uint64
	pos   int
}

// NewFrameSource frames samples with the given frame and hop lengths.
// Both must be positive; a trailing partial frame is dropped, matching
// the usual framing convention for windowed analysis.
func NewFrameSource(id string, samples []float64, sampleRate float64, frameLength, hopLength int) (*FrameSource, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", sampleRate)
	}
	if frameLength <= 0 {
		return nil, fmt.Errorf("frame length must be positive, got %d", frameLength)
	}
	if hopLength <= 0 {
		return nil, fmt.Errorf("hop length must be positive, got %d", hopLength)
	}
	return &FrameSource{
		id:         id,
		samples:    samples,
		sampleRate: sampleRate,
		frameLen:   frameLength,
		hopLen:     hopLength,
	}, nil
}

// FrameCount returns the number of full frames the source will yield.
func (f *FrameSource) FrameCount() int {
	if len(f.samples) < f.frameLen {
		return 0
	}
	return (len(f.samples)-f.frameLen)/f.hopLen + 1
}

func (f *FrameSource) NextChunk() (*signal.SampleChunk, error) {
	if f.pos+f.frameLen > len(f.samples) {
		return nil, io.EOF
	}
	frame := make([]float64, f.frameLen)
	copy(frame, f.samples[f.pos:f.pos+f.frameLen])

	chunk := &signal.SampleChunk{
		SourceID:   f.id,
		Index:      f.index,
		Offset:     uint64(f.pos),
		SampleRate: f.sampleRate,
		Samples:    frame,
	}
	f.index++
	f.pos += f.hopLen
	return chunk, nil
}

func (f *FrameSource) ID() string          { return f.id }
func (f *FrameSource) SampleRate() float64 { return f.sampleRate }
func (f *FrameSource) ChannelCount() int   { return 1 }
func (f *FrameSource) Close() error        { return nil }

var _ SampleSource = (*FrameSource)(nil)
