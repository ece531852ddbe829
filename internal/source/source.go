// SPDX-License-Identifier: MIT
/*
Package source provides SampleSource implementations: decoded audio
files (WAV, MP3), live capture via PortAudio, and in-memory synthetic
signals.

A SampleSource is a lazy, finite, non-restartable sequence of fixed-size
mono chunks, exclusively owned by one pipeline run. Multi-channel inputs
are downmixed to mono by channel averaging before chunking.
*/
package source

import (
	"io"

	"github.com/JaclynCodes/Symphonic-Joules/internal/signal"
)

// SampleSource abstracts a decoded audio stream as a sequence of
// chunks. NextChunk returns io.EOF when the stream is exhausted; any
// other error is fatal to the stream. Implementations are not safe for
// concurrent use.
type SampleSource interface {
	// NextChunk returns the next chunk in strict index order. The final
	// chunk may be shorter than the configured chunk size.
	NextChunk() (*signal.SampleChunk, error)

	// ID identifies the source (file path, device name); it feeds the
	// chunk fingerprints, so two sources with the same ID and content
	// deduplicate against each other in a shared cache.
	ID() string

	SampleRate() float64
	ChannelCount() int

	io.Closer
}

// chunker turns a per-call sample reader into a SampleSource. Decoders
// may return fewer samples than requested, so chunker keeps reading
// until the chunk fills or the stream ends.
type chunker struct {
	id         string
	sampleRate float64
	channels   int
	chunkSize  int
	read       func(n int) ([]float64, error) // Returns mono samples; io.EOF ends the stream.
	close      func() error

	index  uint64
	offset uint64
	done   bool
}

func (c *chunker) NextChunk() (*signal.SampleChunk, error) {
	if c.done {
		return nil, io.EOF
	}

	samples := make([]float64, 0, c.chunkSize)
	for len(samples) < c.chunkSize {
		part, err := c.read(c.chunkSize - len(samples))
		samples = append(samples, part...)
		if err == io.EOF {
			c.done = true
			break
		}
		if err != nil {
			return nil, err
		}
	}
	if len(samples) == 0 {
		return nil, io.EOF
	}

	chunk := &signal.SampleChunk{
		SourceID:   c.id,
		Index:      c.index,
		Offset:     c.offset,
		SampleRate: c.sampleRate,
		Samples:    samples,
	}
	c.index++
	c.offset += uint64(len(samples))
	return chunk, nil
}

func (c *chunker) ID() string          { return c.id }
func (c *chunker) SampleRate() float64 { return c.sampleRate }
func (c *chunker) ChannelCount() int   { return c.channels }

func (c *chunker) Close() error {
	c.done = true
	if c.close != nil {
		return c.close()
	}
	return nil
}
