package taper

import (
	"math"
	"testing"
)

func ones(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}

func TestApplyEdgesReachZeroAndKeepMiddle(t *testing.T) {
	tests := []struct {
		name string
		typ  Type
	}{
		{"hann", TypeHann},
		{"linear", TypeLinear},
		{"cosine", TypeCosine},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := ones(100)
			Apply(data, 10, tt.typ)

			if data[0] != 0 || data[99] != 0 {
				t.Fatalf("edges = %v, %v, want 0", data[0], data[99])
			}
			for i := 10; i < 90; i++ {
				if data[i] != 1 {
					t.Fatalf("data[%d] = %v, want untouched 1", i, data[i])
				}
			}
			// Ramps are monotonic.
			for i := 1; i < 10; i++ {
				if data[i] < data[i-1] {
					t.Fatalf("leading ramp not monotonic at %d", i)
				}
			}
		})
	}
}

func TestApplyClampsWidth(t *testing.T) {
	data := ones(10)
	Apply(data, 50, TypeHann)

	// Width clamps to len/2, so the two ramps meet in the middle.
	if data[0] != 0 || data[9] != 0 {
		t.Fatalf("edges not tapered: %v %v", data[0], data[9])
	}
}

func TestApplyZeroWidthIsNoop(t *testing.T) {
	data := ones(8)
	Apply(data, 0, TypeHann)

	for i, v := range data {
		if v != 1 {
			t.Fatalf("data[%d] = %v, want 1", i, v)
		}
	}
}

func TestDetrendRemovesLine(t *testing.T) {
	data := make([]float64, 200)
	for i := range data {
		data[i] = 3.5 + 0.25*float64(i)
	}

	Detrend(data)

	for i, v := range data {
		if math.Abs(v) > 1e-9 {
			t.Fatalf("data[%d] = %v after detrending a pure line", i, v)
		}
	}
}

func TestDetrendPreservesResidual(t *testing.T) {
	n := 200
	data := make([]float64, n)
	for i := range data {
		data[i] = math.Sin(2*math.Pi*float64(i)/20) + 2 - 0.1*float64(i)
	}

	Detrend(data)

	// The oscillation survives; the trend is gone.
	var mean float64
	for _, v := range data {
		mean += v
	}
	mean /= float64(n)
	if math.Abs(mean) > 1e-9 {
		t.Fatalf("mean = %v after detrend, want ~0", mean)
	}

	if MaxAbs(data) < 0.5 {
		t.Fatalf("oscillation flattened: max %v", MaxAbs(data))
	}
}

func TestNormalizeMax(t *testing.T) {
	data := []float64{0.5, -2, 1}
	NormalizeMax(data)

	want := []float64{0.25, -1, 0.5}
	for i := range want {
		if math.Abs(data[i]-want[i]) > 1e-15 {
			t.Fatalf("data[%d] = %v, want %v", i, data[i], want[i])
		}
	}
}

func TestNormalizeMaxAllZero(t *testing.T) {
	data := []float64{0, 0, 0}
	NormalizeMax(data)

	for i, v := range data {
		if v != 0 {
			t.Fatalf("data[%d] = %v, want 0", i, v)
		}
	}
}

func TestNormalizeByExternalPeak(t *testing.T) {
	data := []float64{1, 2, 4}
	NormalizeBy(data, 2)

	want := []float64{0.5, 1, 2}
	for i := range want {
		if data[i] != want[i] {
			t.Fatalf("data[%d] = %v, want %v", i, data[i], want[i])
		}
	}
}

func TestNegate(t *testing.T) {
	data := []float64{1, -2, 0}
	Negate(data)

	want := []float64{-1, 2, 0}
	for i := range want {
		if data[i] != want[i] {
			t.Fatalf("data[%d] = %v, want %v", i, data[i], want[i])
		}
	}
}
