// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"math"
	"testing"

	"github.com/JaclynCodes/Symphonic-Joules/internal/signal"
	"github.com/JaclynCodes/Symphonic-Joules/pkg/utils"
)

const (
	testChunkSize  = 4096
	testSampleRate = 44100.0
)

func sineChunk(freq, amplitude float64, size int) *signal.SampleChunk {
	return &signal.SampleChunk{
		SourceID:   "test",
		Index:      0,
		SampleRate: testSampleRate,
		Samples:    utils.GenerateSineWave(size, testSampleRate, freq, amplitude),
	}
}

func TestAnalyzeSinePeakBin(t *testing.T) {
	analyzer, err := NewSpectralAnalyzer(testChunkSize, Hann)
	if err != nil {
		t.Fatalf("NewSpectralAnalyzer failed: %v", err)
	}

	spectrum, err := analyzer.Analyze(sineChunk(440, 1.0, testChunkSize))
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if got, want := len(spectrum.Magnitudes), testChunkSize/2+1; got != want {
		t.Fatalf("bin count = %d, want %d", got, want)
	}

	// 440 Hz lands at bin round(440*4096/44100) = 41.
	peak := utils.FindPeakBin(spectrum.Magnitudes, 1, len(spectrum.Magnitudes)-1)
	if peak != 41 {
		t.Errorf("peak bin = %d, want 41", peak)
	}

	wantFreq := 41 * testSampleRate / testChunkSize
	if got := spectrum.BinFrequency(peak); math.Abs(got-wantFreq) > 1e-9 {
		t.Errorf("BinFrequency(%d) = %f, want %f", peak, got, wantFreq)
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	analyzer, err := NewSpectralAnalyzer(testChunkSize, Hann)
	if err != nil {
		t.Fatalf("NewSpectralAnalyzer failed: %v", err)
	}

	chunk := sineChunk(440, 1.0, testChunkSize)
	first, err := analyzer.Analyze(chunk)
	if err != nil {
		t.Fatalf("first Analyze failed: %v", err)
	}
	second, err := analyzer.Analyze(chunk)
	if err != nil {
		t.Fatalf("second Analyze failed: %v", err)
	}

	for i := range first.Magnitudes {
		if first.Magnitudes[i] != second.Magnitudes[i] {
			t.Fatalf("magnitudes differ at bin %d: %g vs %g", i, first.Magnitudes[i], second.Magnitudes[i])
		}
	}
}

func TestAnalyzeZeroPadsShortChunk(t *testing.T) {
	analyzer, err := NewSpectralAnalyzer(1000, Hann) // Rounds up to 1024.
	if err != nil {
		t.Fatalf("NewSpectralAnalyzer failed: %v", err)
	}
	if got := analyzer.TransformSize(); got != 1024 {
		t.Fatalf("TransformSize() = %d, want 1024", got)
	}

	spectrum, err := analyzer.Analyze(sineChunk(440, 1.0, 1000))
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if spectrum.ChunkLen != 1000 {
		t.Errorf("ChunkLen = %d, want 1000", spectrum.ChunkLen)
	}
	if spectrum.TransformSize != 1024 {
		t.Errorf("TransformSize = %d, want 1024", spectrum.TransformSize)
	}
}

func TestAnalyzeRejectsOversizeChunk(t *testing.T) {
	analyzer, err := NewSpectralAnalyzer(1024, Hann)
	if err != nil {
		t.Fatalf("NewSpectralAnalyzer failed: %v", err)
	}

	_, err = analyzer.Analyze(sineChunk(440, 1.0, 2048))
	if !errors.Is(err, ErrInvalidChunkSize) {
		t.Errorf("oversize chunk error = %v, want ErrInvalidChunkSize", err)
	}
}

func TestAnalyzeRejectsInvalidSampleRate(t *testing.T) {
	analyzer, err := NewSpectralAnalyzer(1024, Hann)
	if err != nil {
		t.Fatalf("NewSpectralAnalyzer failed: %v", err)
	}

	chunk := sineChunk(440, 1.0, 1024)
	chunk.SampleRate = 0
	if _, err := analyzer.Analyze(chunk); !errors.Is(err, ErrInvalidSampleRate) {
		t.Errorf("zero sample rate error = %v, want ErrInvalidSampleRate", err)
	}
}

func TestParseWindowFunc(t *testing.T) {
	cases := []struct {
		name string
		want WindowFunc
		ok   bool
	}{
		{"hann", Hann, true},
		{"Hanning", Hann, true},
		{"HAMMING", Hamming, true},
		{"rect", Rectangular, true},
		{"none", Rectangular, true},
		{"blackman", Hann, false},
	}
	for _, c := range cases {
		got, err := ParseWindowFunc(c.name)
		if c.ok && err != nil {
			t.Errorf("ParseWindowFunc(%q) failed: %v", c.name, err)
		}
		if !c.ok && err == nil {
			t.Errorf("ParseWindowFunc(%q) accepted an unknown window", c.name)
		}
		if got != c.want {
			t.Errorf("ParseWindowFunc(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}

func BenchmarkAnalyze(b *testing.B) {
	analyzer, err := NewSpectralAnalyzer(testChunkSize, Hann)
	if err != nil {
		b.Fatalf("NewSpectralAnalyzer failed: %v", err)
	}
	chunk := &signal.SampleChunk{
		SourceID:   "bench",
		SampleRate: testSampleRate,
		Samples:    utils.GenerateComplexWave(testChunkSize, testSampleRate),
	}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := analyzer.Analyze(chunk); err != nil {
			b.Fatal(err)
		}
	}
}
