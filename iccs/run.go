package iccs

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pysmo/align/dsp/xcorr"
)

// Run iterates stack-correlate-update until the stack change falls to the
// convergence limit or the iteration budget runs out. Options apply to this
// call only and default to the values given at construction.
//
// Per iteration every trace is correlated against the current stack. With
// WithAutoFlip a negatively correlating trace has its polarity toggled; with
// WithAutoSelect traces below the minimum coefficient are deselected but
// keep taking part in correlation. The refined pick moves by the measured
// offset unless the move would push the window past the trace bounds; such
// traces keep their pick for the iteration and are reported via Warnings.
//
// The returned history holds one convergence value per completed iteration
// and is never empty on success.
func (a *Aligner) Run(opts ...Option) ([]float64, error) {
	cfg := a.cfg
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	a.warnings = nil
	a.status = StatusIdle

	var history []float64
	for iter := 0; iter < cfg.maxIterations; iter++ {
		prev, err := a.Stack()
		if err != nil {
			return history, fmt.Errorf("iccs: iteration %d: %w", iter, err)
		}
		copies, err := a.CorrelationCopies()
		if err != nil {
			return history, fmt.Errorf("iccs: iteration %d: %w", iter, err)
		}

		xopts := []xcorr.Option{}
		if cfg.autoFlip {
			xopts = append(xopts, xcorr.WithAbsMax())
		}
		if cfg.maxShift > 0 {
			xopts = append(xopts, xcorr.WithMaxShift(cfg.maxShift))
		}
		offsets, coeffs, err := xcorr.MultiDelay(prev, asSignals(copies), xopts...)
		if err != nil {
			return history, fmt.Errorf("iccs: iteration %d: %w", iter, err)
		}

		a.applyUpdates(&cfg, iter, offsets, coeffs)
		a.invalidateAll()

		cur, err := a.Stack()
		if err != nil {
			return history, fmt.Errorf("iccs: iteration %d: %w", iter, err)
		}

		conv := convergenceValue(cur.Data(), prev.Data(), cfg.method)
		history = append(history, conv)
		cfg.log.Debug().
			Int("iteration", iter).
			Float64("convergence", conv).
			Msg("stack updated")

		if conv <= cfg.limit {
			a.status = StatusConverged

			return history, nil
		}
	}

	a.status = StatusMaxIterationsReached

	return history, nil
}

// applyUpdates folds one iteration's offsets and coefficients into the
// per-trace alignment state.
func (a *Aligner) applyUpdates(cfg *settings, iter int, offsets, coeffs []float64) {
	ramp := cfg.ramp()
	for i, tr := range a.traces {
		cc := coeffs[i]
		if cfg.autoFlip && cc < 0 {
			tr.Flip = !tr.Flip
			cc = -cc
		}
		if cfg.autoSelect {
			tr.Select = cc >= cfg.minCC
		}

		offset := secondsToDuration(offsets[i])
		candidate := tr.Pick().Add(offset)
		if !pickFits(tr, candidate, cfg.windowBefore, cfg.windowAfter, ramp) {
			a.warnings = append(a.warnings, PickWarning{
				TraceIndex: i,
				Candidate:  candidate,
				Offset:     offset,
			})
			cfg.log.Warn().
				Int("iteration", iter).
				Int("trace", i).
				Dur("offset", offset).
				Time("candidate", candidate).
				Msg("pick update would exceed trace bounds, keeping pick")

			continue
		}
		tr.SetRefinedPick(candidate)
	}
}

// convergenceValue compares the current stack against the previous one.
// Differing lengths are compared over the shared prefix.
func convergenceValue(cur, prev []float64, method ConvergenceMethod) float64 {
	n := len(cur)
	if len(prev) < n {
		n = len(prev)
	}
	if n == 0 {
		return 0
	}
	x, y := cur[:n], prev[:n]

	switch method {
	case ConvergenceChange:
		diff := make([]float64, n)
		floats.SubTo(diff, x, y)
		norm := floats.Norm(x, 2)
		if norm == 0 {
			return 0
		}

		return floats.Norm(diff, 1) / norm / float64(n)
	default:
		r := stat.Correlation(x, y, nil)
		if math.IsNaN(r) {
			return 1
		}

		return 1 - r
	}
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}
