package xcorr

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/pysmo/align/dsp/seis"
)

// Errors returned by correlation functions.
var (
	ErrEmptyInput       = errors.New("xcorr: empty input")
	ErrSamplingMismatch = errors.New("xcorr: sampling intervals differ")
	ErrLengthMismatch   = errors.New("xcorr: max-shift search requires equal-length inputs")
)

type config struct {
	totalDelay bool
	maxShift   int
	absMax     bool
}

// Option configures a correlation call.
type Option func(*config)

// WithTotalDelay adds the begin-time difference to the reported offset, so the
// result is an absolute-time delay rather than a sample-window one.
func WithTotalDelay() Option {
	return func(c *config) {
		c.totalDelay = true
	}
}

// WithMaxShift restricts the lag search to +-n samples. Requires equal-length
// inputs.
func WithMaxShift(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxShift = n
		}
	}
}

// WithAbsMax selects the lag maximizing |correlation| instead of the signed
// maximum, making the search polarity-insensitive. The sign of the reported
// coefficient is preserved.
func WithAbsMax() Option {
	return func(c *config) {
		c.absMax = true
	}
}

func applyOptions(opts []Option) config {
	var cfg config
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}

// Delay estimates the time shift of a relative to b.
//
// The returned offset is in seconds; positive means a's content arrives later
// than b's. The coefficient is the normalized correlation over the overlapping
// shift-aligned samples, in [-1, 1].
func Delay(a, b seis.Signal, opts ...Option) (float64, float64, error) {
	cfg := applyOptions(opts)

	if a.Delta() != b.Delta() {
		return 0, 0, ErrSamplingMismatch
	}

	x, y := a.Data(), b.Data()
	if len(x) == 0 || len(y) == 0 {
		return 0, 0, ErrEmptyInput
	}
	if cfg.maxShift > 0 && len(x) != len(y) {
		return 0, 0, ErrLengthMismatch
	}

	corr, size, err := fftCorrelate(x, y)
	if err != nil {
		return 0, 0, err
	}

	lo, hi := lagRange(len(x), len(y), cfg.maxShift)
	lag := searchPeak(corr, size, lo, hi, cfg.absMax)

	offset := float64(lag) * a.Delta().Seconds()
	if cfg.totalDelay {
		offset += a.Begin().Sub(b.Begin()).Seconds()
	}

	return offset, alignedCoefficient(x, y, lag), nil
}

// fftCorrelate returns the circular cross-correlation of x against y, padded
// to a fast length covering the full linear lag range. corr[m] holds the
// correlation at lag m for m in [0, size); negative lags wrap to size+m.
func fftCorrelate(x, y []float64) ([]complex128, int, error) {
	size := nextPowerOf2(len(x) + len(y) - 1)

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, 0, fmt.Errorf("xcorr: failed to create FFT plan: %w", err)
	}

	xp := make([]complex128, size)
	yp := make([]complex128, size)
	for i, v := range x {
		xp[i] = complex(v, 0)
	}
	for i, v := range y {
		yp[i] = complex(v, 0)
	}

	xf := make([]complex128, size)
	yf := make([]complex128, size)
	if err := plan.Forward(xf, xp); err != nil {
		return nil, 0, fmt.Errorf("xcorr: forward FFT failed: %w", err)
	}
	if err := plan.Forward(yf, yp); err != nil {
		return nil, 0, fmt.Errorf("xcorr: forward FFT failed: %w", err)
	}

	// corr = IFFT(X * conj(Y))
	cf := make([]complex128, size)
	for i := range cf {
		cf[i] = xf[i] * complex(real(yf[i]), -imag(yf[i]))
	}

	corr := make([]complex128, size)
	if err := plan.Inverse(corr, cf); err != nil {
		return nil, 0, fmt.Errorf("xcorr: inverse FFT failed: %w", err)
	}

	return corr, size, nil
}

// lagRange returns the inclusive lag bounds for signals of the given lengths.
// maxShift > 0 narrows the range symmetrically.
func lagRange(lenX, lenY, maxShift int) (int, int) {
	lo := -(lenY - 1)
	hi := lenX - 1

	if maxShift > 0 {
		if -maxShift > lo {
			lo = -maxShift
		}
		if maxShift < hi {
			hi = maxShift
		}
	}

	return lo, hi
}

// searchPeak scans lags lo..hi and returns the lag with the maximum
// correlation value (or |value| when absMax). Ties keep the lowest lag.
func searchPeak(corr []complex128, size, lo, hi int, absMax bool) int {
	best := lo
	bestScore := math.Inf(-1)

	for lag := lo; lag <= hi; lag++ {
		idx := lag
		if idx < 0 {
			idx += size
		}

		score := real(corr[idx])
		if absMax {
			score = math.Abs(score)
		}

		if score > bestScore {
			bestScore = score
			best = lag
		}
	}

	return best
}

// alignedCoefficient computes the normalized correlation of x shifted by lag
// against y, over the overlapping samples only. Means are removed over the
// overlap; for constant segments it falls back to the non-centered form.
func alignedCoefficient(x, y []float64, lag int) float64 {
	// y[i] pairs with x[i+lag]
	start := 0
	if lag < 0 {
		start = -lag
	}

	end := len(y)
	if n := len(x) - lag; n < end {
		end = n
	}

	if end <= start {
		return 0
	}

	var sx, sy, sxx, syy, sxy float64
	for i := start; i < end; i++ {
		xv := x[i+lag]
		yv := y[i]
		sx += xv
		sy += yv
		sxx += xv * xv
		syy += yv * yv
		sxy += xv * yv
	}

	n := float64(end - start)
	varX := sxx - sx*sx/n
	varY := syy - sy*sy/n

	if varX > 0 && varY > 0 {
		return (sxy - sx*sy/n) / math.Sqrt(varX*varY)
	}

	// Constant segment: unit-variance fallback without mean removal.
	denom := math.Sqrt(sxx * syy)
	if denom == 0 {
		return 0
	}

	return sxy / denom
}

// nextPowerOf2 returns the next power of 2 >= n.
func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}

	p := 1
	for p < n {
		p *= 2
	}

	return p
}
