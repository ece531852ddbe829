// SPDX-License-Identifier: MIT
package signal

import "time"

// EnergyMetrics is the fixed record of physical quantities derived from
// one chunk (or from an aggregate over many). All fields are
// non-negative for valid input; a negative value is a computation
// defect, never a valid state.
type EnergyMetrics struct {
	// EnergyDensity is the acoustic energy per unit volume in J/m³,
	// combining the pressure (potential) term and the impedance-coupled
	// particle-velocity (kinetic) term.
	EnergyDensity float64

	// RMSPressure is the root-mean-square pressure in Pa.
	RMSPressure float64

	// AvgPower is the plane-wave acoustic intensity p_rms²/(ρc) in W/m²,
	// the power flux the pressure signal carries through the medium.
	AvgPower float64

	// Start and End bound the span of source audio the metrics cover.
	Start, End time.Duration
}

// MeanSquare returns the mean-square pressure the metrics were derived
// from. The energy formulas are all linear in this quantity, which makes
// it the natural accumulator for running aggregates.
func (m EnergyMetrics) MeanSquare() float64 {
	return m.RMSPressure * m.RMSPressure
}
