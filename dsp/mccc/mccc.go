package mccc

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/pysmo/align/dsp/seis"
	"github.com/pysmo/align/dsp/xcorr"
)

// Result holds one relative time and uncertainty per input signal.
type Result struct {
	// Times are relative offsets in seconds, constrained to (approximately)
	// zero mean across signals.
	Times []float64

	// Errors are per-signal uncertainties from the diagonal of the
	// regularized normal-equations inverse. Zero-filled if the inverse is
	// singular.
	Errors []float64

	// RMSE is the root-mean-square of the un-regularized pair residuals.
	RMSE float64
}

type config struct {
	minCC    float64
	damping  float64
	absMax   bool
	maxShift int
}

// Option configures the solver.
type Option func(*config)

// WithMinCC sets the minimum correlation coefficient for a pair to enter the
// system. Values outside [0, 1] are ignored. Default 0.5.
func WithMinCC(v float64) Option {
	return func(c *config) {
		if v >= 0 && v <= 1 {
			c.minCC = v
		}
	}
}

// WithDamping sets the Tikhonov regularization weight. Zero disables the
// term. Negative values are ignored. Default 0.1.
func WithDamping(v float64) Option {
	return func(c *config) {
		if v >= 0 {
			c.damping = v
		}
	}
}

// WithAbsMax makes the pairwise lag search polarity-insensitive.
func WithAbsMax() Option {
	return func(c *config) {
		c.absMax = true
	}
}

// WithMaxShift restricts the pairwise lag search to +-n samples.
func WithMaxShift(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxShift = n
		}
	}
}

func defaultConfig() config {
	return config{minCC: 0.5, damping: 0.1}
}

// Solve computes the all-pairs offset matrix for signals and reconciles it by
// weighted least squares.
//
// With fewer than two signals, or when every pair falls below the correlation
// threshold, Solve returns an all-zero Result and no error.
func Solve(signals []seis.Signal, opts ...Option) (Result, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	n := len(signals)
	res := Result{
		Times:  make([]float64, n),
		Errors: make([]float64, n),
	}

	if n < 2 {
		return res, nil
	}

	var xopts []xcorr.Option
	if cfg.absMax {
		xopts = append(xopts, xcorr.WithAbsMax())
	}
	if cfg.maxShift > 0 {
		xopts = append(xopts, xcorr.WithMaxShift(cfg.maxShift))
	}

	offsets, coeffs, err := xcorr.MultiMultiDelay(signals, xopts...)
	if err != nil {
		return res, err
	}

	type pair struct {
		i, j   int
		offset float64
		weight float64
	}

	var pairs []pair
	totalWeight := 0.0

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			cc := coeffs[i][j]
			if cc < cfg.minCC {
				continue
			}

			w := cc * cc
			pairs = append(pairs, pair{i: i, j: j, offset: offsets[i][j], weight: w})
			totalWeight += w
		}
	}

	if len(pairs) == 0 {
		return res, nil
	}

	rows := len(pairs) + 1
	if cfg.damping > 0 {
		rows += n
	}

	a := mat.NewDense(rows, n, nil)
	b := mat.NewVecDense(rows, nil)

	for r, p := range pairs {
		sw := math.Sqrt(p.weight)
		a.Set(r, p.i, -sw)
		a.Set(r, p.j, sw)
		b.SetVec(r, sw*p.offset)
	}

	// Zero-mean constraint removes the difference system's null space.
	meanRow := len(pairs)
	sw := math.Sqrt(totalWeight)
	for k := 0; k < n; k++ {
		a.Set(meanRow, k, sw)
	}

	if cfg.damping > 0 {
		for k := 0; k < n; k++ {
			a.Set(meanRow+1+k, k, cfg.damping)
		}
	}

	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		// Degenerate geometry the regularization could not rescue.
		return res, nil
	}

	for k := 0; k < n; k++ {
		res.Times[k] = x.AtVec(k)
	}

	res.Errors = normalEquationErrors(a, n)
	res.RMSE = pairRMSE(res.Times, offsets, coeffs, cfg.minCC, n)

	return res, nil
}

// normalEquationErrors returns sqrt of the diagonal of inv(A'A), or zeros
// when the inverse does not exist.
func normalEquationErrors(a *mat.Dense, n int) []float64 {
	errs := make([]float64, n)

	var normal mat.Dense
	normal.Mul(a.T(), a)

	var inv mat.Dense
	if err := inv.Inverse(&normal); err != nil {
		return errs
	}

	for k := 0; k < n; k++ {
		d := inv.At(k, k)
		if d > 0 {
			errs[k] = math.Sqrt(d)
		}
	}

	return errs
}

// pairRMSE measures how well the reconciled times reproduce the surviving
// pairwise offsets, without the regularization rows.
func pairRMSE(times []float64, offsets, coeffs [][]float64, minCC float64, n int) float64 {
	var sum float64
	count := 0

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if coeffs[i][j] < minCC {
				continue
			}

			r := offsets[i][j] - (times[j] - times[i])
			sum += r * r
			count++
		}
	}

	if count == 0 {
		return 0
	}

	return math.Sqrt(sum / float64(count))
}
