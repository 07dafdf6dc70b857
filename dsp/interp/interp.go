package interp

import (
	"errors"
	"time"
)

// ErrInvalidDelta indicates a non-positive sampling interval.
var ErrInvalidDelta = errors.New("interp: sampling interval must be positive")

// Hermite4 computes cubic 4-point interpolation.
// It interpolates from x0 to x1 at fraction t using neighbor points xm1 and x2.
func Hermite4(t, xm1, x0, x1, x2 float64) float64 {
	c0 := x0
	c1 := 0.5 * (x1 - xm1)
	c2 := xm1 - 2.5*x0 + 2*x1 - 0.5*x2
	c3 := 0.5*(x2-xm1) + 1.5*(x0-x1)
	return ((c3*t+c2)*t+c1)*t + c0
}

// Linear computes two-point linear interpolation from x0 to x1 at fraction t.
func Linear(t, x0, x1 float64) float64 {
	return x0 + t*(x1-x0)
}

// Resample converts data from one sampling interval to another by Hermite
// interpolation. The first output sample coincides with the first input
// sample; the output covers the input span without extrapolating past the
// last sample. When from == to, a copy of the input is returned.
func Resample(data []float64, from, to time.Duration) ([]float64, error) {
	if from <= 0 || to <= 0 {
		return nil, ErrInvalidDelta
	}

	if from == to {
		return append([]float64(nil), data...), nil
	}

	n := len(data)
	if n < 2 {
		return append([]float64(nil), data...), nil
	}

	ratio := float64(from) / float64(to)
	outN := int(float64(n-1)*ratio) + 1

	out := make([]float64, outN)
	for i := range out {
		pos := float64(i) / ratio
		i0 := int(pos)
		frac := pos - float64(i0)

		if i0 >= n-1 {
			out[i] = data[n-1]
			continue
		}

		out[i] = Hermite4(frac,
			data[clampIndex(i0-1, n)],
			data[i0],
			data[i0+1],
			data[clampIndex(i0+2, n)],
		)
	}

	return out, nil
}

// clampIndex clamps i to [0, n).
func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
