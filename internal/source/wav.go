// SPDX-License-Identifier: MIT
package source

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/JaclynCodes/Symphonic-Joules/internal/signal"
)

// WAVSource streams chunks from a WAV file. Multi-channel files are
// downmixed to mono by channel averaging; samples are normalized to
// [-1, 1] from the file's bit depth.
type WAVSource struct {
	*chunker
	decoder  *wav.Decoder
	file     *os.File
	bitDepth int
}

// NewWAVSource opens path and prepares chunked streaming of its PCM
// data.
func NewWAVSource(path string, chunkSize int) (*WAVSource, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("%s: not a valid WAV file", path)
	}
	if err := decoder.FwdToPCM(); err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: failed to seek to PCM data: %w", path, err)
	}

	s := &WAVSource{
		decoder:  decoder,
		file:     f,
		bitDepth: int(decoder.BitDepth),
	}
	s.chunker = &chunker{
		id:         path,
		sampleRate: float64(decoder.SampleRate),
		channels:   int(decoder.NumChans),
		chunkSize:  chunkSize,
		read:       s.readPCM,
		close:      f.Close,
	}
	return s, nil
}

// readPCM reads up to n mono samples from the decoder.
func (s *WAVSource) readPCM(n int) ([]float64, error) {
	channels := s.chunker.channels
	buf := &audio.IntBuffer{
		Data: make([]int, n*channels),
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  int(s.chunker.sampleRate),
		},
	}

	read, err := s.decoder.PCMBuffer(buf)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("%s: failed to read PCM buffer: %w", s.chunker.id, err)
	}
	if read == 0 {
		return nil, io.EOF
	}

	maxVal := float64(audio.IntMaxSignedValue(s.bitDepth))
	interleaved := make([]float64, read)
	for i := 0; i < read; i++ {
		interleaved[i] = float64(buf.Data[i]) / maxVal
	}

	mono, err := signal.ToMono(interleaved[:read-(read%channels)], channels)
	if err != nil {
		return nil, err
	}
	return mono, nil
}

var _ SampleSource = (*WAVSource)(nil)
