// SPDX-License-Identifier: MIT
package source

import (
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/JaclynCodes/Symphonic-Joules/internal/signal"
	"github.com/JaclynCodes/Symphonic-Joules/pkg/utils"
)

func collect(t *testing.T, src SampleSource) []*signal.SampleChunk {
	t.Helper()
	var chunks []*signal.SampleChunk
	for {
		chunk, err := src.NextChunk()
		if err == io.EOF {
			return chunks
		}
		if err != nil {
			t.Fatalf("NextChunk failed: %v", err)
		}
		chunks = append(chunks, chunk)
	}
}

func TestMemorySourceChunking(t *testing.T) {
	samples := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	src, err := NewMemorySource("mem", samples, 8000, 4)
	if err != nil {
		t.Fatalf("NewMemorySource failed: %v", err)
	}

	chunks := collect(t, src)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}

	wantLens := []int{4, 4, 2}
	wantOffsets := []uint64{0, 4, 8}
	for i, chunk := range chunks {
		if chunk.Index != uint64(i) {
			t.Errorf("chunk %d has index %d", i, chunk.Index)
		}
		if len(chunk.Samples) != wantLens[i] {
			t.Errorf("chunk %d has %d samples, want %d", i, len(chunk.Samples), wantLens[i])
		}
		if chunk.Offset != wantOffsets[i] {
			t.Errorf("chunk %d has offset %d, want %d", i, chunk.Offset, wantOffsets[i])
		}
		if chunk.SourceID != "mem" {
			t.Errorf("chunk %d has source ID %q", i, chunk.SourceID)
		}
	}

	if chunks[2].Samples[1] != 9 {
		t.Errorf("final chunk content = %v, want tail of input", chunks[2].Samples)
	}

	// Exhausted sources stay exhausted.
	if _, err := src.NextChunk(); err != io.EOF {
		t.Errorf("NextChunk after EOF = %v, want io.EOF", err)
	}
}

func TestMemorySourceExactMultiple(t *testing.T) {
	src, err := NewMemorySource("exact", make([]float64, 8), 8000, 4)
	if err != nil {
		t.Fatalf("NewMemorySource failed: %v", err)
	}
	if chunks := collect(t, src); len(chunks) != 2 {
		t.Errorf("got %d chunks, want 2 full chunks and no empty tail", len(chunks))
	}
}

func TestMemorySourceRejectsBadParams(t *testing.T) {
	if _, err := NewMemorySource("bad", nil, 0, 4); err == nil {
		t.Error("zero sample rate accepted")
	}
	if _, err := NewMemorySource("bad", nil, 8000, 0); err == nil {
		t.Error("zero chunk size accepted")
	}
}

func TestFrameSourceOverlap(t *testing.T) {
	samples := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	src, err := NewFrameSource("frames", samples, 8000, 4, 2)
	if err != nil {
		t.Fatalf("NewFrameSource failed: %v", err)
	}

	if got := src.FrameCount(); got != 4 {
		t.Errorf("FrameCount() = %d, want 4", got)
	}

	chunks := collect(t, src)
	if len(chunks) != 4 {
		t.Fatalf("got %d frames, want 4", len(chunks))
	}
	for i, chunk := range chunks {
		wantOffset := uint64(i * 2)
		if chunk.Offset != wantOffset {
			t.Errorf("frame %d has offset %d, want %d", i, chunk.Offset, wantOffset)
		}
		if chunk.Samples[0] != float64(wantOffset) {
			t.Errorf("frame %d starts with %f, want %d", i, chunk.Samples[0], wantOffset)
		}
		if len(chunk.Samples) != 4 {
			t.Errorf("frame %d has %d samples, want 4", i, len(chunk.Samples))
		}
	}
}

func TestFrameSourceShortInput(t *testing.T) {
	src, err := NewFrameSource("short", make([]float64, 3), 8000, 4, 2)
	if err != nil {
		t.Fatalf("NewFrameSource failed: %v", err)
	}
	if got := src.FrameCount(); got != 0 {
		t.Errorf("FrameCount() = %d for input shorter than a frame, want 0", got)
	}
	if _, err := src.NextChunk(); err != io.EOF {
		t.Errorf("NextChunk = %v, want io.EOF", err)
	}
}

func writeWAV(t *testing.T, path string, data []int, sampleRate, bitDepth, channels int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, bitDepth, channels, 1)
	buf := &audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder for %s: %v", path, err)
	}
}

func TestWAVSourceRoundTrip(t *testing.T) {
	const (
		sampleRate = 8000
		numSamples = 200
		maxInt16   = 32767
	)
	sine := utils.GenerateSineWave(numSamples, sampleRate, 440, 0.5)
	data := make([]int, numSamples)
	for i, s := range sine {
		data[i] = int(s * maxInt16)
	}

	path := filepath.Join(t.TempDir(), "tone.wav")
	writeWAV(t, path, data, sampleRate, 16, 1)

	src, err := NewWAVSource(path, 64)
	if err != nil {
		t.Fatalf("NewWAVSource failed: %v", err)
	}
	defer src.Close()

	if src.SampleRate() != sampleRate {
		t.Errorf("SampleRate() = %f, want %d", src.SampleRate(), sampleRate)
	}
	if src.ChannelCount() != 1 {
		t.Errorf("ChannelCount() = %d, want 1", src.ChannelCount())
	}

	var decoded []float64
	for _, chunk := range collect(t, src) {
		decoded = append(decoded, chunk.Samples...)
	}
	if len(decoded) != numSamples {
		t.Fatalf("decoded %d samples, want %d", len(decoded), numSamples)
	}

	// 16-bit quantization bounds the round-trip error.
	for i, want := range sine {
		if math.Abs(decoded[i]-want) > 1e-3 {
			t.Fatalf("sample %d = %f, want %f within 1e-3", i, decoded[i], want)
		}
	}
}

func TestWAVSourceDownmixesStereo(t *testing.T) {
	const frames = 100
	data := make([]int, frames*2)
	for i := 0; i < frames; i++ {
		data[i*2] = int(0.4 * 32767)   // left
		data[i*2+1] = int(0.8 * 32767) // right
	}

	path := filepath.Join(t.TempDir(), "stereo.wav")
	writeWAV(t, path, data, 8000, 16, 2)

	src, err := NewWAVSource(path, 32)
	if err != nil {
		t.Fatalf("NewWAVSource failed: %v", err)
	}
	defer src.Close()

	var decoded []float64
	for _, chunk := range collect(t, src) {
		decoded = append(decoded, chunk.Samples...)
	}
	if len(decoded) != frames {
		t.Fatalf("decoded %d mono samples, want %d", len(decoded), frames)
	}
	for i, got := range decoded {
		if math.Abs(got-0.6) > 1e-3 {
			t.Fatalf("sample %d = %f, want channel average 0.6", i, got)
		}
	}
}

func TestWAVSourceRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.wav")
	if err := os.WriteFile(path, []byte("not a riff header"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewWAVSource(path, 64); err == nil {
		t.Error("invalid WAV file accepted")
	}
}

func TestOpenFileDispatch(t *testing.T) {
	if _, err := OpenFile("song.flac", 64); err == nil {
		t.Error("unsupported extension accepted")
	}
	if _, err := OpenFile(filepath.Join(t.TempDir(), "missing.wav"), 64); err == nil {
		t.Error("missing file accepted")
	}
}

func TestFuncSourcePropagatesErrors(t *testing.T) {
	wantErr := errors.New("device unplugged")
	src := &FuncSource{
		SourceID: "flaky",
		Rate:     8000,
		Channels: 1,
		Next: func() (*signal.SampleChunk, error) {
			return nil, wantErr
		},
	}
	if _, err := src.NextChunk(); !errors.Is(err, wantErr) {
		t.Errorf("NextChunk = %v, want %v", err, wantErr)
	}
}
