// Package bandpass implements the Butterworth band-pass filter used to
// pre-condition signals before correlation.
//
// The band-pass is a cascade of a high-pass at the lower band edge and a
// low-pass at the upper band edge, each realized as biquad sections with
// Butterworth pole spacing. An optional zero-phase mode runs the cascade
// forward and backward, squaring the magnitude response while cancelling the
// phase shift so picks are not dragged by filter delay.
package bandpass

import (
	"errors"
	"math"
)

// Errors returned by filter construction.
var (
	ErrInvalidBand  = errors.New("bandpass: band edges must satisfy 0 < low < high < Nyquist")
	ErrInvalidOrder = errors.New("bandpass: order must be positive")
)

type config struct {
	order     int
	zeroPhase bool
}

// Option configures Apply.
type Option func(*config)

// WithOrder sets the Butterworth order of each band edge. Default 2.
func WithOrder(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.order = n
		}
	}
}

// WithZeroPhase enables the forward-backward pass.
func WithZeroPhase() Option {
	return func(c *config) {
		c.zeroPhase = true
	}
}

// Design returns the biquad cascade for a band-pass between low and high Hz
// at the given sample rate: a high-pass at low followed by a low-pass at
// high, both of the given Butterworth order.
func Design(low, high float64, order int, sampleRate float64) ([]Coefficients, error) {
	if order <= 0 {
		return nil, ErrInvalidOrder
	}
	if sampleRate <= 0 || low <= 0 || high <= low || high >= sampleRate/2 {
		return nil, ErrInvalidBand
	}

	coeffs := designButterworth(low, order, sampleRate, true)
	coeffs = append(coeffs, designButterworth(high, order, sampleRate, false)...)

	return coeffs, nil
}

// Apply band-pass filters data in place.
func Apply(data []float64, low, high, sampleRate float64, opts ...Option) error {
	cfg := config{order: 2}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	coeffs, err := Design(low, high, cfg.order, sampleRate)
	if err != nil {
		return err
	}

	sections := newChain(coeffs)
	sections.processBlock(data)

	if cfg.zeroPhase {
		sections.reset()
		reverse(data)
		sections.processBlock(data)
		reverse(data)
	}

	return nil
}

// designButterworth designs an order-N low- or high-pass as biquad sections
// with Butterworth Q spacing, plus a first-order section for odd orders.
func designButterworth(freq float64, order int, sampleRate float64, highpass bool) []Coefficients {
	var coeffs []Coefficients

	for i := 0; i < order/2; i++ {
		coeffs = append(coeffs, secondOrder(freq, sampleRate, butterworthQ(order, i), highpass))
	}

	if order%2 == 1 {
		coeffs = append(coeffs, firstOrder(freq, sampleRate, highpass))
	}

	return coeffs
}

// butterworthQ returns the Q of biquad section index for a Butterworth
// filter of the given order.
func butterworthQ(order, index int) float64 {
	theta := math.Pi * float64(2*index+1) / (2 * float64(order))

	s := math.Sin(theta)
	if s == 0 {
		return 1 / math.Sqrt2
	}

	return 1 / (2 * s)
}

// secondOrder designs one bilinear-transformed biquad at the given corner.
func secondOrder(freq, sampleRate, q float64, highpass bool) Coefficients {
	k := math.Tan(math.Pi * freq / sampleRate)
	norm := 1 / (1 + k/q + k*k)

	a1 := 2 * (k*k - 1) * norm
	a2 := (1 - k/q + k*k) * norm

	if highpass {
		return Coefficients{
			B0: norm,
			B1: -2 * norm,
			B2: norm,
			A1: a1,
			A2: a2,
		}
	}

	return Coefficients{
		B0: k * k * norm,
		B1: 2 * k * k * norm,
		B2: k * k * norm,
		A1: a1,
		A2: a2,
	}
}

// firstOrder designs the odd-order remainder section.
func firstOrder(freq, sampleRate float64, highpass bool) Coefficients {
	k := math.Tan(math.Pi * freq / sampleRate)
	norm := 1 / (1 + k)

	if highpass {
		return Coefficients{
			B0: norm,
			B1: -norm,
			A1: (k - 1) * norm,
		}
	}

	return Coefficients{
		B0: k * norm,
		B1: k * norm,
		A1: (k - 1) * norm,
	}
}

func reverse(data []float64) {
	for i, j := 0, len(data)-1; i < j; i, j = i+1, j-1 {
		data[i], data[j] = data[j], data[i]
	}
}
