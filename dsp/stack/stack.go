// Package stack averages prepared working copies of the currently selected
// traces into one reference signal.
package stack

import (
	"errors"
	"time"

	"github.com/cwbudde/algo-vecmath"

	"github.com/pysmo/align/dsp/seis"
)

// Errors returned by the stack builder.
var (
	ErrEmptySelection = errors.New("stack: no trace selected")
	ErrLengthMismatch = errors.New("stack: copies and parents differ in length")
)

// Build averages the working copies whose parent trace is selected.
//
// The result inherits the shared sampling interval; its begin time is the
// chronological mean of the contributing copies' begin times. Copies of
// unequal lengths contribute up to the shortest length.
func Build(copies []*seis.Series, parents []*seis.Trace) (*seis.Series, error) {
	if len(copies) != len(parents) {
		return nil, ErrLengthMismatch
	}

	var chosen []*seis.Series
	for i, parent := range parents {
		if parent.Select {
			chosen = append(chosen, copies[i])
		}
	}

	if len(chosen) == 0 {
		return nil, ErrEmptySelection
	}

	shortest := seis.NumSamples(chosen[0])
	for _, c := range chosen[1:] {
		if n := seis.NumSamples(c); n < shortest {
			shortest = n
		}
	}

	// Mean begin time, accumulated relative to the first contributor to
	// avoid epoch-scale overflow.
	base := chosen[0].Begin()

	sum := make([]float64, shortest)
	var offsetSum time.Duration
	for _, c := range chosen {
		vecmath.AddBlockInPlace(sum, c.Data()[:shortest])
		offsetSum += c.Begin().Sub(base)
	}

	n := len(chosen)
	vecmath.ScaleBlockInPlace(sum, 1/float64(n))

	begin := base.Add(offsetSum / time.Duration(n))

	return seis.NewSeries(begin, chosen[0].Delta(), sum)
}
