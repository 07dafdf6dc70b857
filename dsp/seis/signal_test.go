package seis

import (
	"errors"
	"testing"
	"time"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestNewSeriesRejectsBadDelta(t *testing.T) {
	_, err := NewSeries(t0, 0, []float64{1})
	if !errors.Is(err, ErrInvalidDelta) {
		t.Fatalf("NewSeries(delta=0) error = %v, want ErrInvalidDelta", err)
	}

	_, err = NewSeries(t0, -time.Second, []float64{1})
	if !errors.Is(err, ErrInvalidDelta) {
		t.Fatalf("NewSeries(delta<0) error = %v, want ErrInvalidDelta", err)
	}
}

func TestEndIsDerived(t *testing.T) {
	s, err := NewSeries(t0, 10*time.Millisecond, make([]float64, 1000))
	if err != nil {
		t.Fatalf("NewSeries() error = %v", err)
	}

	want := t0.Add(999 * 10 * time.Millisecond)
	if got := End(s); !got.Equal(want) {
		t.Fatalf("End() = %v, want %v", got, want)
	}

	// Changing the data length must move the derived end time.
	s.SetData(make([]float64, 500))

	want = t0.Add(499 * 10 * time.Millisecond)
	if got := End(s); !got.Equal(want) {
		t.Fatalf("End() after SetData = %v, want %v", got, want)
	}
}

func TestEndOfEmptySeries(t *testing.T) {
	s, err := NewSeries(t0, time.Second, nil)
	if err != nil {
		t.Fatalf("NewSeries() error = %v", err)
	}
	if got := End(s); !got.Equal(t0) {
		t.Fatalf("End() = %v, want begin %v", got, t0)
	}
}

func TestSampleRate(t *testing.T) {
	s, _ := NewSeries(t0, 10*time.Millisecond, []float64{0})
	if got := SampleRate(s); got != 100 {
		t.Fatalf("SampleRate() = %v, want 100", got)
	}
}

func TestCloneIsDeep(t *testing.T) {
	s, _ := NewSeries(t0, time.Second, []float64{1, 2, 3})
	c := s.Clone()
	c.Data()[0] = 99

	if s.Data()[0] != 1 {
		t.Fatalf("Clone() shares data with original")
	}
}

func TestTracePickFallback(t *testing.T) {
	s, _ := NewSeries(t0, time.Second, []float64{1, 2, 3})
	pick := t0.Add(time.Second)

	tr, err := NewTrace(s, pick)
	if err != nil {
		t.Fatalf("NewTrace() error = %v", err)
	}
	if !tr.Select {
		t.Fatalf("new trace must default to selected")
	}
	if got := tr.Pick(); !got.Equal(pick) {
		t.Fatalf("Pick() = %v, want initial %v", got, pick)
	}

	refined := pick.Add(250 * time.Millisecond)
	tr.SetRefinedPick(refined)
	if got := tr.Pick(); !got.Equal(refined) {
		t.Fatalf("Pick() = %v, want refined %v", got, refined)
	}
	if got := tr.InitialPick(); !got.Equal(pick) {
		t.Fatalf("InitialPick() changed to %v", got)
	}

	tr.ClearRefinedPick()
	if got := tr.Pick(); !got.Equal(pick) {
		t.Fatalf("Pick() after clear = %v, want %v", got, pick)
	}
}

func TestNewTraceRequiresPick(t *testing.T) {
	s, _ := NewSeries(t0, time.Second, []float64{1})
	if _, err := NewTrace(s, time.Time{}); !errors.Is(err, ErrMissingPick) {
		t.Fatalf("NewTrace(zero pick) error = %v, want ErrMissingPick", err)
	}
}
