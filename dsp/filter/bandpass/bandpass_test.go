package bandpass

import (
	"errors"
	"math"
	"testing"
)

func sine(freq, sampleRate float64, n int) []float64 {
	out := make([]float64, n)
	step := 2 * math.Pi * freq / sampleRate
	for i := range out {
		out[i] = math.Sin(step * float64(i))
	}
	return out
}

// rms over the second half, skipping the filter transient.
func settledRMS(x []float64) float64 {
	var sum float64
	half := x[len(x)/2:]
	for _, v := range half {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(half)))
}

func TestDesignValidatesBand(t *testing.T) {
	tests := []struct {
		name      string
		low, high float64
		order     int
		rate      float64
		wantErr   error
	}{
		{"valid", 1, 10, 2, 100, nil},
		{"zero low", 0, 10, 2, 100, ErrInvalidBand},
		{"inverted", 10, 1, 2, 100, ErrInvalidBand},
		{"above nyquist", 1, 60, 2, 100, ErrInvalidBand},
		{"bad order", 1, 10, 0, 100, ErrInvalidOrder},
		{"bad rate", 1, 10, 2, 0, ErrInvalidBand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Design(tt.low, tt.high, tt.order, tt.rate)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Design() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDesignSectionCount(t *testing.T) {
	coeffs, err := Design(1, 10, 3, 100)
	if err != nil {
		t.Fatalf("Design() error = %v", err)
	}

	// Order 3 per edge: one biquad plus one first-order section, twice.
	if len(coeffs) != 4 {
		t.Fatalf("sections = %d, want 4", len(coeffs))
	}
}

func TestApplyPassesBandRejectsOutside(t *testing.T) {
	const (
		rate = 100.0
		n    = 4096
	)

	inBand := sine(5, rate, n)
	below := sine(0.2, rate, n)
	above := sine(40, rate, n)

	for _, data := range [][]float64{inBand, below, above} {
		if err := Apply(data, 2, 10, rate, WithOrder(4)); err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
	}

	passed := settledRMS(inBand)
	if passed < 0.5 {
		t.Fatalf("in-band RMS = %v, want near unfiltered 0.707", passed)
	}
	if r := settledRMS(below); r > passed/10 {
		t.Fatalf("below-band RMS = %v, want strongly attenuated", r)
	}
	if r := settledRMS(above); r > passed/10 {
		t.Fatalf("above-band RMS = %v, want strongly attenuated", r)
	}
}

func TestApplyZeroPhaseKeepsPeakPosition(t *testing.T) {
	const (
		rate = 100.0
		n    = 1024
	)

	// Narrow symmetric pulse in the middle of the band.
	data := make([]float64, n)
	for i := -50; i <= 50; i++ {
		x := float64(i) / 15
		data[n/2+i] = math.Exp(-x*x) * math.Cos(2*math.Pi*5*float64(i)/rate)
	}

	peakBefore := argMaxAbs(data)

	if err := Apply(data, 2, 10, rate, WithZeroPhase()); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	peakAfter := argMaxAbs(data)
	if d := peakAfter - peakBefore; d < -1 || d > 1 {
		t.Fatalf("zero-phase pass moved peak by %d samples", d)
	}
}

func TestApplyCausalDelaysPeak(t *testing.T) {
	const (
		rate = 100.0
		n    = 1024
	)

	data := make([]float64, n)
	for i := -50; i <= 50; i++ {
		x := float64(i) / 15
		data[n/2+i] = math.Exp(-x*x) * math.Cos(2*math.Pi*5*float64(i)/rate)
	}

	peakBefore := argMaxAbs(data)

	if err := Apply(data, 2, 10, rate, WithOrder(4)); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	if peakAfter := argMaxAbs(data); peakAfter <= peakBefore {
		t.Fatalf("causal filter should delay the peak: %d -> %d", peakBefore, peakAfter)
	}
}

func TestSectionImpulseIsFinite(t *testing.T) {
	coeffs, err := Design(1, 10, 2, 100)
	if err != nil {
		t.Fatalf("Design() error = %v", err)
	}

	s := NewSection(coeffs[0])
	out := s.ProcessSample(1)
	for i := 0; i < 1000; i++ {
		out = s.ProcessSample(0)
	}
	if math.IsNaN(out) || math.Abs(out) > 1e-6 {
		t.Fatalf("impulse response not decaying: %v", out)
	}
}

func argMaxAbs(x []float64) int {
	best, bestVal := 0, 0.0
	for i, v := range x {
		if a := math.Abs(v); a > bestVal {
			best, bestVal = i, a
		}
	}
	return best
}
