// SPDX-License-Identifier: MIT
package utils

import (
	"math"
	"testing"
)

func TestGenerateSineWave(t *testing.T) {
	wave := GenerateSineWave(8000, 8000, 440, 0.5)
	if len(wave) != 8000 {
		t.Fatalf("got %d samples, want 8000", len(wave))
	}
	if wave[0] != 0 {
		t.Errorf("sine starts at %f, want 0", wave[0])
	}
	for i, s := range wave {
		if math.Abs(s) > 0.5 {
			t.Fatalf("sample %d = %f exceeds amplitude 0.5", i, s)
		}
	}
}

func TestFindPeakBin(t *testing.T) {
	mags := []float64{0, 1, 5, 2, 9, 3}

	if got := FindPeakBin(mags, 0, len(mags)-1); got != 4 {
		t.Errorf("FindPeakBin full range = %d, want 4", got)
	}
	if got := FindPeakBin(mags, 0, 3); got != 2 {
		t.Errorf("FindPeakBin [0,3] = %d, want 2", got)
	}
	if got := FindPeakBin(mags, -5, 100); got != 4 {
		t.Errorf("FindPeakBin clamped range = %d, want 4", got)
	}
	if got := FindPeakBin(nil, 0, 10); got != 0 {
		t.Errorf("FindPeakBin empty = %d, want 0", got)
	}
}

func TestWithinTolerance(t *testing.T) {
	if !WithinTolerance(1.009, 1.0, 0.01) {
		t.Error("0.9% deviation rejected at 1% tolerance")
	}
	if WithinTolerance(1.02, 1.0, 0.01) {
		t.Error("2% deviation accepted at 1% tolerance")
	}
	if !WithinTolerance(0.0005, 0, 0.001) {
		t.Error("zero-want absolute comparison rejected in-range value")
	}
}
