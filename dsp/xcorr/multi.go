package xcorr

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/pysmo/align/dsp/seis"
)

// MultiDelay correlates every signal against one template, amortizing the
// template transform across the batch.
//
// The returned offsets report, per signal, how much later the signal's content
// arrives relative to the template, in seconds. Coefficients follow the same
// two-pass rule as Delay.
func MultiDelay(template seis.Signal, signals []seis.Signal, opts ...Option) ([]float64, []float64, error) {
	cfg := applyOptions(opts)

	t := template.Data()
	if len(t) == 0 || len(signals) == 0 {
		return nil, nil, ErrEmptyInput
	}

	maxLen := 0
	for _, s := range signals {
		if s.Delta() != template.Delta() {
			return nil, nil, ErrSamplingMismatch
		}

		n := len(s.Data())
		if n == 0 {
			return nil, nil, ErrEmptyInput
		}
		if cfg.maxShift > 0 && n != len(t) {
			return nil, nil, ErrLengthMismatch
		}
		if n > maxLen {
			maxLen = n
		}
	}

	// One shared transform size covers every pairing without wraparound.
	size := nextPowerOf2(len(t) + maxLen - 1)

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, nil, fmt.Errorf("xcorr: failed to create FFT plan: %w", err)
	}

	tf, err := forwardNormalized(plan, normalize(t), size)
	if err != nil {
		return nil, nil, err
	}

	offsets := make([]float64, len(signals))
	coeffs := make([]float64, len(signals))

	prod := make([]complex128, size)
	corr := make([]complex128, size)
	deltaSec := template.Delta().Seconds()

	for i, s := range signals {
		x := s.Data()

		sf, err := forwardNormalized(plan, normalize(x), size)
		if err != nil {
			return nil, nil, err
		}

		for k := range prod {
			prod[k] = sf[k] * complex(real(tf[k]), -imag(tf[k]))
		}
		if err := plan.Inverse(corr, prod); err != nil {
			return nil, nil, fmt.Errorf("xcorr: inverse FFT failed: %w", err)
		}

		lo, hi := lagRange(len(x), len(t), cfg.maxShift)
		lag := searchPeak(corr, size, lo, hi, cfg.absMax)

		offsets[i] = float64(lag) * deltaSec
		if cfg.totalDelay {
			offsets[i] += s.Begin().Sub(template.Begin()).Seconds()
		}

		coeffs[i] = alignedCoefficient(x, t, lag)
	}

	return offsets, coeffs, nil
}

// MultiMultiDelay estimates all pairwise time shifts of a signal set via one
// shared set of transforms and a frequency-domain outer product.
//
// In the returned matrices row i is the fixed reference and column j the
// matched signal: offsets[i][j] reports how much later signal j arrives
// relative to signal i. Offsets are antisymmetric with a zero diagonal;
// coefficients are symmetric with a unit diagonal.
func MultiMultiDelay(signals []seis.Signal, opts ...Option) ([][]float64, [][]float64, error) {
	cfg := applyOptions(opts)

	n := len(signals)
	if n == 0 {
		return nil, nil, ErrEmptyInput
	}

	delta := signals[0].Delta()
	maxLen := 0
	for _, s := range signals {
		if s.Delta() != delta {
			return nil, nil, ErrSamplingMismatch
		}

		l := len(s.Data())
		if l == 0 {
			return nil, nil, ErrEmptyInput
		}
		if cfg.maxShift > 0 && l != len(signals[0].Data()) {
			return nil, nil, ErrLengthMismatch
		}
		if l > maxLen {
			maxLen = l
		}
	}

	size := nextPowerOf2(2*maxLen - 1)

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, nil, fmt.Errorf("xcorr: failed to create FFT plan: %w", err)
	}

	// Transform every signal once, then pair spectra.
	spectra := make([][]complex128, n)
	for i, s := range signals {
		sf, err := forwardNormalized(plan, normalize(s.Data()), size)
		if err != nil {
			return nil, nil, err
		}
		spectra[i] = sf
	}

	offsets := make([][]float64, n)
	coeffs := make([][]float64, n)
	for i := range offsets {
		offsets[i] = make([]float64, n)
		coeffs[i] = make([]float64, n)
		coeffs[i][i] = 1
	}

	prod := make([]complex128, size)
	corr := make([]complex128, size)
	deltaSec := delta.Seconds()

	for i := 0; i < n; i++ {
		xi := signals[i].Data()

		for j := i + 1; j < n; j++ {
			xj := signals[j].Data()

			for k := range prod {
				prod[k] = spectra[j][k] * complex(real(spectra[i][k]), -imag(spectra[i][k]))
			}
			if err := plan.Inverse(corr, prod); err != nil {
				return nil, nil, fmt.Errorf("xcorr: inverse FFT failed: %w", err)
			}

			lo, hi := lagRange(len(xj), len(xi), cfg.maxShift)
			lag := searchPeak(corr, size, lo, hi, cfg.absMax)

			off := float64(lag) * deltaSec
			cc := alignedCoefficient(xj, xi, lag)

			offsets[i][j] = off
			offsets[j][i] = -off
			coeffs[i][j] = cc
			coeffs[j][i] = cc
		}
	}

	return offsets, coeffs, nil
}

// forwardNormalized zero-pads x to size and returns its forward transform.
func forwardNormalized(plan *algofft.Plan[complex128], x []float64, size int) ([]complex128, error) {
	padded := make([]complex128, size)
	for i, v := range x {
		padded[i] = complex(v, 0)
	}

	out := make([]complex128, size)
	if err := plan.Forward(out, padded); err != nil {
		return nil, fmt.Errorf("xcorr: forward FFT failed: %w", err)
	}

	return out, nil
}

// normalize returns a zero-mean, unit-variance copy of x. Constant signals
// fall back to unit variance (mean removal only).
func normalize(x []float64) []float64 {
	var sum float64
	for _, v := range x {
		sum += v
	}
	mean := sum / float64(len(x))

	var ss float64
	out := make([]float64, len(x))
	for i, v := range x {
		d := v - mean
		out[i] = d
		ss += d * d
	}

	sigma := math.Sqrt(ss / float64(len(x)))
	if sigma == 0 {
		return out
	}

	for i := range out {
		out[i] /= sigma
	}

	return out
}
