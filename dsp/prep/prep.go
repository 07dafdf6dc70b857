// Package prep turns a raw trace plus a pick and a time window into the
// cropped, conditioned working copy the correlation and stacking stages
// operate on.
//
// Two flavors exist: the correlation view (window extended by the taper ramp,
// detrended, tapered, peak-normalized) and the context view (window extended
// by a wider untapered margin, zero-padded past the signal bounds, normalized
// by the inner window's peak only). Preparation is a pure function of the
// trace state and parameters: repeated runs on unchanged input yield
// identical copies.
package prep

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/pysmo/align/dsp/filter/bandpass"
	"github.com/pysmo/align/dsp/interp"
	"github.com/pysmo/align/dsp/seis"
	"github.com/pysmo/align/dsp/taper"
)

// ErrInvalidParameter indicates a rejected parameter combination.
var ErrInvalidParameter = errors.New("prep: invalid parameter")

// Mode selects the working-copy flavor.
type Mode int

const (
	// ModeCorrelation crops to window plus taper width, tapers, and
	// normalizes by the copy's own peak.
	ModeCorrelation Mode = iota

	// ModeContext crops to window plus context margin without tapering,
	// padding with zeros past the original signal bounds, and normalizes by
	// the inner window's peak.
	ModeContext
)

// TaperWidth expresses the taper ramp width, either as an absolute duration
// or as a fraction of the window length. A non-zero Fraction wins.
type TaperWidth struct {
	Duration time.Duration
	Fraction float64
}

// Resolve returns the ramp width for a window of the given length.
func (w TaperWidth) Resolve(window time.Duration) time.Duration {
	if w.Fraction > 0 {
		return time.Duration(float64(window) * w.Fraction)
	}

	return w.Duration
}

// BandPass holds optional pre-correlation filter settings.
type BandPass struct {
	Low, High float64 // band edges in Hz
	Order     int     // Butterworth order per edge; 0 means the filter default
	ZeroPhase bool
}

// Params collects every preparation setting.
type Params struct {
	// WindowBefore is the window start relative to the pick, normally
	// negative. WindowAfter is the window end, normally positive. The window
	// must have positive length.
	WindowBefore time.Duration
	WindowAfter  time.Duration

	// ContextMargin widens the context view on both sides of the window.
	ContextMargin time.Duration

	// Taper is the correlation-view edge ramp width.
	Taper     TaperWidth
	TaperType taper.Type

	// Filter enables band-pass conditioning before cropping.
	Filter *BandPass

	// RefDelta resamples the signal to a shared reference interval when it
	// differs from the signal's own. Zero keeps the signal interval.
	RefDelta time.Duration
}

// Validate checks the parameter set without touching any signal.
func (p Params) Validate() error {
	if p.WindowBefore >= p.WindowAfter {
		return fmt.Errorf("%w: window [%v, %v] has no length", ErrInvalidParameter, p.WindowBefore, p.WindowAfter)
	}
	if p.ContextMargin < 0 {
		return fmt.Errorf("%w: negative context margin %v", ErrInvalidParameter, p.ContextMargin)
	}
	if p.Taper.Duration < 0 {
		return fmt.Errorf("%w: negative taper width %v", ErrInvalidParameter, p.Taper.Duration)
	}
	if p.Taper.Fraction < 0 || p.Taper.Fraction > 0.5 {
		return fmt.Errorf("%w: taper fraction %v outside [0, 0.5]", ErrInvalidParameter, p.Taper.Fraction)
	}
	if p.RefDelta < 0 {
		return fmt.Errorf("%w: negative reference interval %v", ErrInvalidParameter, p.RefDelta)
	}

	return nil
}

// Window returns the window length.
func (p Params) Window() time.Duration {
	return p.WindowAfter - p.WindowBefore
}

// Prepare produces one working copy of tr.
func Prepare(tr *seis.Trace, p Params, mode Mode) (*seis.Series, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if seis.NumSamples(tr) == 0 {
		return nil, fmt.Errorf("%w: empty trace", ErrInvalidParameter)
	}

	data := append([]float64(nil), tr.Data()...)
	delta := tr.Delta()

	if p.Filter != nil {
		order := p.Filter.Order
		opts := []bandpass.Option{}
		if order > 0 {
			opts = append(opts, bandpass.WithOrder(order))
		}
		if p.Filter.ZeroPhase {
			opts = append(opts, bandpass.WithZeroPhase())
		}

		if err := bandpass.Apply(data, p.Filter.Low, p.Filter.High, 1/delta.Seconds(), opts...); err != nil {
			return nil, err
		}
	}

	if p.RefDelta > 0 && p.RefDelta != delta {
		resampled, err := interp.Resample(data, delta, p.RefDelta)
		if err != nil {
			return nil, err
		}
		data = resampled
		delta = p.RefDelta
	}

	switch mode {
	case ModeContext:
		return prepareContext(tr, p, data, delta)
	default:
		return prepareCorrelation(tr, p, data, delta)
	}
}

func prepareCorrelation(tr *seis.Trace, p Params, data []float64, delta time.Duration) (*seis.Series, error) {
	ramp := p.Taper.Resolve(p.Window())

	start := tr.Pick().Add(p.WindowBefore - ramp)
	stop := tr.Pick().Add(p.WindowAfter + ramp)

	i0 := sampleIndex(start, tr.Begin(), delta)
	count := durationSamples(stop.Sub(start), delta)

	if i0 < 0 || i0+count > len(data) {
		return nil, fmt.Errorf("%w: window [%v, %v] exceeds signal bounds", ErrInvalidParameter, start, stop)
	}

	seg := append([]float64(nil), data[i0:i0+count]...)

	taper.Detrend(seg)
	taper.Apply(seg, durationSamples(ramp, delta), p.TaperType)
	taper.NormalizeMax(seg)

	if tr.Flip {
		taper.Negate(seg)
	}

	return seis.NewSeries(tr.Begin().Add(time.Duration(i0)*delta), delta, seg)
}

func prepareContext(tr *seis.Trace, p Params, data []float64, delta time.Duration) (*seis.Series, error) {
	start := tr.Pick().Add(p.WindowBefore - p.ContextMargin)
	stop := tr.Pick().Add(p.WindowAfter + p.ContextMargin)

	i0 := sampleIndex(start, tr.Begin(), delta)
	count := durationSamples(stop.Sub(start), delta)

	// Pad with zeros where the context reaches past the signal. Detrending
	// covers the copied region only, so the padding stays exactly zero.
	seg := make([]float64, count)
	from := maxInt(i0, 0)
	to := minInt(i0+count, len(data))
	if from < to {
		copy(seg[from-i0:], data[from:to])
		taper.Detrend(seg[from-i0 : to-i0])
	}

	// Normalize by the inner window's peak only, so margin energy never
	// rescales the view.
	innerStart := durationSamples(p.ContextMargin, delta)
	innerEnd := innerStart + durationSamples(p.Window(), delta)
	innerStart = maxInt(innerStart, 0)
	innerEnd = minInt(innerEnd, len(seg))
	if innerStart < innerEnd {
		taper.NormalizeBy(seg, taper.MaxAbs(seg[innerStart:innerEnd]))
	}

	if tr.Flip {
		taper.Negate(seg)
	}

	return seis.NewSeries(tr.Begin().Add(time.Duration(i0)*delta), delta, seg)
}

// PrepareAll prepares every trace and truncates the batch to the shortest
// resulting copy, so correlation always sees equal lengths.
func PrepareAll(traces []*seis.Trace, p Params, mode Mode) ([]*seis.Series, error) {
	copies := make([]*seis.Series, len(traces))

	for i, tr := range traces {
		c, err := Prepare(tr, p, mode)
		if err != nil {
			return nil, fmt.Errorf("trace %d: %w", i, err)
		}
		copies[i] = c
	}

	TruncateToShortest(copies)

	return copies, nil
}

// TruncateToShortest trims every copy to the shortest length in the batch.
func TruncateToShortest(copies []*seis.Series) {
	shortest := math.MaxInt
	for _, c := range copies {
		if n := seis.NumSamples(c); n < shortest {
			shortest = n
		}
	}

	for _, c := range copies {
		if seis.NumSamples(c) > shortest {
			c.SetData(c.Data()[:shortest])
		}
	}
}

// sampleIndex converts an absolute time to a sample index relative to begin.
func sampleIndex(at, begin time.Time, delta time.Duration) int {
	return int(math.Round(at.Sub(begin).Seconds() / delta.Seconds()))
}

// durationSamples converts a duration to a sample count.
func durationSamples(d, delta time.Duration) int {
	return int(math.Round(d.Seconds() / delta.Seconds()))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
