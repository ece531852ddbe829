// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
	"time"

	"github.com/JaclynCodes/Symphonic-Joules/internal/signal"
)

// EnergyComputer derives acoustic energy metrics from pressure chunks
// and their spectra. The total energy density combines a potential term
// p²/(2ρc²) and a kinetic term ½ρv²; with a single pressure signal the
// particle velocity follows from the medium impedance v = p/(ρc), so the
// two terms are equal and the total reduces to <p²>/(ρc²).
//
// The computer holds only the medium parameters; every computation is a
// pure function of its inputs, so one instance may be shared freely
// across goroutines.
type EnergyComputer struct {
	mediumDensity float64 // ρ, kg/m³
	soundSpeed    float64 // c, m/s
}

// NewEnergyComputer validates the medium parameters once so every
// subsequent computation can assume a physically meaningful medium.
func NewEnergyComputer(mediumDensity, soundSpeed float64) (*EnergyComputer, error) {
	if mediumDensity <= 0 {
		return nil, fmt.Errorf("%w: medium density must be positive, got %f",
			ErrInvalidPhysicalParameter, mediumDensity)
	}
	if soundSpeed <= 0 {
		return nil, fmt.Errorf("%w: sound speed must be positive, got %f",
			ErrInvalidPhysicalParameter, soundSpeed)
	}
	return &EnergyComputer{mediumDensity: mediumDensity, soundSpeed: soundSpeed}, nil
}

// ComputeTimeDomain derives energy metrics from raw chunk samples using
// double-precision mean-square accumulation.
func (e *EnergyComputer) ComputeTimeDomain(chunk *signal.SampleChunk) (signal.EnergyMetrics, error) {
	if len(chunk.Samples) == 0 {
		return signal.EnergyMetrics{}, fmt.Errorf("%w: empty chunk %d", ErrInvalidChunkSize, chunk.Index)
	}
	var sumSquares float64
	for _, s := range chunk.Samples {
		sumSquares += s * s
	}
	meanSquare := sumSquares / float64(len(chunk.Samples))
	return e.fromMeanSquare(meanSquare, chunk.StartTime(), chunk.EndTime()), nil
}

// ComputeSpectralDomain derives energy metrics from a magnitude
// spectrum. The Parseval sum counts the DC and Nyquist bins once and
// interior bins twice (the negative-frequency half mirrors them), and is
// normalized by the window power so the result agrees with
// ComputeTimeDomain on the same chunk up to windowing loss.
func (e *EnergyComputer) ComputeSpectralDomain(spectrum *signal.SpectrumResult) (signal.EnergyMetrics, error) {
	if len(spectrum.Magnitudes) == 0 {
		return signal.EnergyMetrics{}, fmt.Errorf("%w: empty spectrum %d", ErrInvalidChunkSize, spectrum.Index)
	}
	if spectrum.WindowPower <= 0 || spectrum.TransformSize <= 0 {
		return signal.EnergyMetrics{}, fmt.Errorf("%w: spectrum %d has window power %f, transform size %d",
			ErrInvalidChunkSize, spectrum.Index, spectrum.WindowPower, spectrum.TransformSize)
	}

	var parseval float64
	last := len(spectrum.Magnitudes) - 1
	for i, m := range spectrum.Magnitudes {
		sq := m * m
		if i == 0 || i == last {
			parseval += sq
		} else {
			parseval += 2 * sq
		}
	}

	// Parseval: Σ_n (x·w)[n]² = Σ_k |X_k|² / N. Dividing the windowed
	// signal energy by Σw² recovers the mean-square of the original
	// signal over its un-padded length.
	windowedEnergy := parseval / float64(spectrum.TransformSize)
	meanSquare := windowedEnergy / spectrum.WindowPower

	return e.fromMeanSquare(meanSquare, spectrum.Start, spectrum.End), nil
}

func (e *EnergyComputer) fromMeanSquare(meanSquare float64, start, end time.Duration) signal.EnergyMetrics {
	if meanSquare < 0 {
		meanSquare = 0 // Accumulation cannot go negative; guard rounding.
	}
	impedance := e.mediumDensity * e.soundSpeed
	return signal.EnergyMetrics{
		EnergyDensity: meanSquare / (impedance * e.soundSpeed),
		RMSPressure:   math.Sqrt(meanSquare),
		AvgPower:      meanSquare / impedance,
		Start:         start,
		End:           end,
	}
}
