package testutil

import (
	"math"
	"math/rand"
	"time"

	"github.com/pysmo/align/dsp/seis"
)

// Burst generates a Hann-windowed sine burst of burstLen samples starting at
// burstStart, embedded in an otherwise silent signal of the given length.
func Burst(length, burstStart, burstLen int, freqHz, sampleRate float64) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate

	for i := 0; i < burstLen; i++ {
		idx := burstStart + i
		if idx < 0 || idx >= length {
			continue
		}

		env := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(burstLen-1)))
		out[idx] = env * math.Sin(step*float64(i))
	}

	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Roll shifts x circularly by k samples: positive k delays the content.
func Roll(x []float64, k int) []float64 {
	n := len(x)
	out := make([]float64, n)
	for i := range x {
		out[((i+k)%n+n)%n] = x[i]
	}
	return out
}

// Negate returns a polarity-flipped copy of x.
func Negate(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = -v
	}
	return out
}

// Add returns the element-wise sum of a and b, which must share a length.
func Add(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out
}

// NewTrace builds a Trace from raw samples. Test inputs are always valid, so
// it panics on constructor errors instead of returning them.
func NewTrace(begin time.Time, delta time.Duration, data []float64, pick time.Time) *seis.Trace {
	s, err := seis.NewSeries(begin, delta, data)
	if err != nil {
		panic(err)
	}

	tr, err := seis.NewTrace(s, pick)
	if err != nil {
		panic(err)
	}

	return tr
}

// Impulse generates a unit impulse at the given position.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}
	return out
}

// DC generates a constant-valued signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}
	return out
}
