// SPDX-License-Identifier: MIT
/*
Package analysis implements the computational core of the energy
pipeline: FFT-based spectral analysis of sample chunks and derivation of
physical energy metrics from either domain.

The SpectralAnalyzer reuses an internal workspace across calls, so a
single instance is cheap to drive chunk after chunk. Returned spectra
are freshly allocated and safe to cache or hand to other goroutines.
*/
package analysis

import (
	"errors"
	"fmt"
	"math/cmplx"
	"strings"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	"github.com/JaclynCodes/Symphonic-Joules/internal/signal"
	"github.com/JaclynCodes/Symphonic-Joules/pkg/bitint"
)

// Sentinel errors for invalid analysis input. Wrapped errors carry the
// offending values; match with errors.Is.
var (
	ErrInvalidChunkSize         = errors.New("invalid chunk size")
	ErrInvalidSampleRate        = errors.New("invalid sample rate")
	ErrInvalidPhysicalParameter = errors.New("invalid physical parameter")
)

// WindowFunc selects the window applied before the transform to reduce
// spectral leakage.
type WindowFunc int

const (
	Hann WindowFunc = iota
	Hamming
	Rectangular
)

// String returns the canonical lower-case name of the window function.
func (w WindowFunc) String() string {
	switch w {
	case Hann:
		return "hann"
	case Hamming:
		return "hamming"
	case Rectangular:
		return "rectangular"
	default:
		return "unknown"
	}
}

// ParseWindowFunc converts a name (case-insensitive) to a WindowFunc.
// Returns Hann and an error if the name is unknown.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(name) {
	case "hann", "hanning":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "rectangular", "rect", "none":
		return Rectangular, nil
	default:
		return Hann, fmt.Errorf("unknown window function name: %q", name)
	}
}

// Pre-allocated buffers reused across Analyze calls.
type spectralWorkspace struct {
	input     []float64    // Windowed, zero-padded input signal.
	fftOutput []complex128 // Complex FFT results.
	window    []float64    // Pre-calculated window coefficients.
}

// SpectralAnalyzer converts SampleChunks into magnitude spectra. It is
// deterministic: the same chunk and window always yield bit-identical
// output. Not safe for concurrent use; each pipeline owns its own
// instance.
type SpectralAnalyzer struct {
	fftCalculator *fourier.FFT
	transformSize int
	windowType    WindowFunc
	workspace     spectralWorkspace
}

// NewSpectralAnalyzer creates an analyzer for chunks of up to chunkSize
// samples. A chunkSize that is not a power of two is rounded up to the
// next one; shorter chunks are zero-padded at analysis time.
func NewSpectralAnalyzer(chunkSize int, windowType WindowFunc) (*SpectralAnalyzer, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidChunkSize, chunkSize)
	}

	transformSize := chunkSize
	if !bitint.IsPowerOfTwo(transformSize) {
		transformSize = bitint.NextPowerOfTwo(transformSize)
	}

	coeffs := make([]float64, transformSize)
	applyWindow(coeffs, windowType)

	// FFT output size for real input is N/2 + 1 complex values.
	binCount := transformSize/2 + 1

	return &SpectralAnalyzer{
		fftCalculator: fourier.NewFFT(transformSize),
		transformSize: transformSize,
		windowType:    windowType,
		workspace: spectralWorkspace{
			input:     make([]float64, transformSize),
			fftOutput: make([]complex128, binCount),
			window:    coeffs,
		},
	}, nil
}

// TransformSize returns the FFT length in points. It is at least the
// configured chunk size and always a power of two.
func (a *SpectralAnalyzer) TransformSize() int {
	return a.transformSize
}

// Window returns the configured window function.
func (a *SpectralAnalyzer) Window() WindowFunc {
	return a.windowType
}

// Analyze computes the magnitude spectrum of one chunk. Chunks shorter
// than the transform size are zero-padded; a longer chunk fails with
// ErrInvalidChunkSize since truncating would silently drop energy.
func (a *SpectralAnalyzer) Analyze(chunk *signal.SampleChunk) (*signal.SpectrumResult, error) {
	n := len(chunk.Samples)
	if n == 0 || n > a.transformSize {
		return nil, fmt.Errorf("%w: chunk %d has %d samples, transform size is %d",
			ErrInvalidChunkSize, chunk.Index, n, a.transformSize)
	}
	if chunk.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: got %f", ErrInvalidSampleRate, chunk.SampleRate)
	}

	// Window the actual samples, zero-pad the remainder. The window is
	// applied only over the real signal so the recorded window power
	// matches the region that carries energy.
	var windowPower float64
	for i := 0; i < n; i++ {
		w := a.workspace.window[i]
		a.workspace.input[i] = chunk.Samples[i] * w
		windowPower += w * w
	}
	for i := n; i < a.transformSize; i++ {
		a.workspace.input[i] = 0
	}

	a.fftCalculator.Coefficients(a.workspace.fftOutput, a.workspace.input)

	magnitudes := make([]float64, len(a.workspace.fftOutput))
	for i, c := range a.workspace.fftOutput {
		magnitudes[i] = cmplx.Abs(c)
	}

	return &signal.SpectrumResult{
		SourceID:      chunk.SourceID,
		Index:         chunk.Index,
		Magnitudes:    magnitudes,
		SampleRate:    chunk.SampleRate,
		TransformSize: a.transformSize,
		ChunkLen:      n,
		WindowPower:   windowPower,
		Start:         chunk.StartTime(),
		End:           chunk.EndTime(),
	}, nil
}

// applyWindow fills coeffs with the selected window function. Gonum's
// window functions multiply in place, so the slice is seeded with ones.
func applyWindow(coeffs []float64, windowType WindowFunc) {
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	switch windowType {
	case Hann:
		window.Hann(coeffs)
	case Hamming:
		window.Hamming(coeffs)
	case Rectangular:
		// All-ones window, nothing to do.
	default:
		window.Hann(coeffs)
	}
}
