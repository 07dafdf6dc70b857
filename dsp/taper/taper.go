// Package taper provides the in-place conditioning primitives used when
// preparing signals for correlation: edge tapering, linear detrending, and
// peak normalization.
package taper

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Type identifies a taper ramp shape.
type Type int

const (
	// TypeHann ramps with a raised-cosine (Hann) half window.
	TypeHann Type = iota

	// TypeLinear ramps linearly from zero to unity.
	TypeLinear

	// TypeCosine ramps with a quarter-period cosine.
	TypeCosine
)

// Edge selects which end of the signal a ramp is applied to.
type Edge int

const (
	EdgeLeading Edge = iota
	EdgeTrailing
)

// Apply tapers both ends of data in place, ramping over width samples per
// edge. The width is clamped to half the signal length.
func Apply(data []float64, width int, t Type) {
	ApplyEdge(data, width, t, EdgeLeading)
	ApplyEdge(data, width, t, EdgeTrailing)
}

// ApplyEdge tapers one end of data in place.
func ApplyEdge(data []float64, width int, t Type, edge Edge) {
	if width <= 0 || len(data) == 0 {
		return
	}
	if width > len(data)/2 {
		width = len(data) / 2
	}

	for i := 0; i < width; i++ {
		g := ramp(t, float64(i)/float64(width))
		switch edge {
		case EdgeLeading:
			data[i] *= g
		case EdgeTrailing:
			data[len(data)-1-i] *= g
		}
	}
}

// ramp returns the taper gain at normalized position x in [0, 1),
// rising from 0 at the edge to 1 at the inner end.
func ramp(t Type, x float64) float64 {
	switch t {
	case TypeLinear:
		return x
	case TypeCosine:
		return math.Sin(0.5 * math.Pi * x)
	default:
		return 0.5 * (1 - math.Cos(math.Pi*x))
	}
}

// Detrend removes the least-squares linear trend from data in place.
func Detrend(data []float64) {
	n := len(data)
	if n < 2 {
		if n == 1 {
			data[0] = 0
		}
		return
	}

	// Closed-form fit against sample index.
	var sy, sxy float64
	for i, v := range data {
		sy += v
		sxy += float64(i) * v
	}

	fn := float64(n)
	sx := fn * (fn - 1) / 2
	sxx := fn * (fn - 1) * (2*fn - 1) / 6

	denom := fn*sxx - sx*sx
	slope := (fn*sxy - sx*sy) / denom
	intercept := (sy - slope*sx) / fn

	for i := range data {
		data[i] -= intercept + slope*float64(i)
	}
}

// MaxAbs returns the maximum absolute amplitude of data.
func MaxAbs(data []float64) float64 {
	return vecmath.MaxAbs(data)
}

// NormalizeMax scales data in place so its maximum absolute amplitude
// becomes 1. All-zero data is left untouched.
func NormalizeMax(data []float64) {
	NormalizeBy(data, vecmath.MaxAbs(data))
}

// NormalizeBy scales data in place by 1/peak, for a peak measured elsewhere
// (the context view normalizes by the inner window's peak only). Non-positive
// peaks leave the data untouched.
func NormalizeBy(data []float64, peak float64) {
	if peak <= 0 {
		return
	}

	vecmath.ScaleBlockInPlace(data, 1/peak)
}

// Negate flips the polarity of data in place.
func Negate(data []float64) {
	vecmath.ScaleBlockInPlace(data, -1)
}
