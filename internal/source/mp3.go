// SPDX-License-Identifier: MIT
package source

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	mp3 "github.com/hajimehoshi/go-mp3"
)

// MP3Source streams chunks from an MP3 file. The decoder always yields
// interleaved 16-bit stereo frames; they are averaged down to mono.
type MP3Source struct {
	*chunker
	decoder *mp3.Decoder
	file    *os.File
}

// NewMP3Source opens path and prepares chunked streaming of its decoded
// frames.
func NewMP3Source(path string, chunkSize int) (*MP3Source, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: failed to create MP3 decoder: %w", path, err)
	}

	s := &MP3Source{decoder: decoder, file: f}
	s.chunker = &chunker{
		id:         path,
		sampleRate: float64(decoder.SampleRate()),
		channels:   2, // go-mp3 always outputs stereo.
		chunkSize:  chunkSize,
		read:       s.readFrames,
		close:      f.Close,
	}
	return s, nil
}

// readFrames reads up to n mono samples. Each stereo frame is 4 bytes:
// 16-bit little-endian left then right.
func (s *MP3Source) readFrames(n int) ([]float64, error) {
	buf := make([]byte, n*4)
	read, err := s.decoder.Read(buf)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("%s: failed to read MP3 data: %w", s.chunker.id, err)
	}
	if read == 0 {
		return nil, io.EOF
	}

	frames := read / 4
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		left := int16(buf[i*4]) | int16(buf[i*4+1])<<8
		right := int16(buf[i*4+2]) | int16(buf[i*4+3])<<8
		samples[i] = (float64(left) + float64(right)) / (2 * 32768.0)
	}
	return samples, nil
}

var _ SampleSource = (*MP3Source)(nil)

// OpenFile picks a decoder by file extension. WAV and MP3 are the
// supported formats.
func OpenFile(path string, chunkSize int) (SampleSource, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav":
		return NewWAVSource(path, chunkSize)
	case ".mp3":
		return NewMP3Source(path, chunkSize)
	default:
		return nil, fmt.Errorf("%s: unsupported audio format %q", path, ext)
	}
}
