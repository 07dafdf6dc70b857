package seis

import (
	"errors"
	"time"
)

// Errors returned by signal constructors.
var (
	ErrInvalidDelta = errors.New("seis: sampling interval must be positive")
	ErrEmptyData    = errors.New("seis: sample data must not be empty")
)

// Signal is the minimal contract for an evenly sampled time series.
type Signal interface {
	// Begin returns the absolute time of the first sample.
	Begin() time.Time

	// Delta returns the sampling interval. Always positive.
	Delta() time.Duration

	// Data returns the ordered sample sequence. The slice is shared, not
	// copied; callers that mutate it own the consequences.
	Data() []float64
}

// End returns the absolute time of the last sample:
// begin + delta*(n-1). For an empty signal it returns the begin time.
func End(s Signal) time.Time {
	n := len(s.Data())
	if n == 0 {
		return s.Begin()
	}

	return s.Begin().Add(time.Duration(n-1) * s.Delta())
}

// NumSamples returns the sample count of s.
func NumSamples(s Signal) int {
	return len(s.Data())
}

// SampleRate returns the sampling rate of s in Hz.
func SampleRate(s Signal) float64 {
	return 1 / s.Delta().Seconds()
}

// Series is a minimal concrete Signal.
type Series struct {
	begin time.Time
	delta time.Duration
	data  []float64
}

// NewSeries creates a Series. The data slice is adopted, not copied.
func NewSeries(begin time.Time, delta time.Duration, data []float64) (*Series, error) {
	if delta <= 0 {
		return nil, ErrInvalidDelta
	}

	return &Series{begin: begin, delta: delta, data: data}, nil
}

// Begin returns the absolute time of the first sample.
func (s *Series) Begin() time.Time { return s.begin }

// Delta returns the sampling interval.
func (s *Series) Delta() time.Duration { return s.delta }

// Data returns the sample sequence without copying.
func (s *Series) Data() []float64 { return s.data }

// SetBegin moves the series in absolute time.
func (s *Series) SetBegin(t time.Time) { s.begin = t }

// SetData replaces the sample sequence.
func (s *Series) SetData(data []float64) { s.data = data }

// Clone returns a deep copy of the series.
func (s *Series) Clone() *Series {
	data := append([]float64(nil), s.data...)

	return &Series{begin: s.begin, delta: s.delta, data: data}
}
