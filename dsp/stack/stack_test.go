package stack_test

import (
	"errors"
	"testing"
	"time"

	"github.com/pysmo/align/dsp/seis"
	"github.com/pysmo/align/dsp/stack"
	"github.com/pysmo/align/internal/testutil"
)

var begin = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

const delta = 10 * time.Millisecond

func series(t *testing.T, at time.Time, data []float64) *seis.Series {
	t.Helper()
	s, err := seis.NewSeries(at, delta, data)
	if err != nil {
		t.Fatalf("NewSeries() error = %v", err)
	}
	return s
}

func trace(t *testing.T, selected bool) *seis.Trace {
	t.Helper()
	tr := testutil.NewTrace(begin, delta, []float64{0}, begin)
	tr.Select = selected
	return tr
}

func TestBuildAveragesSelected(t *testing.T) {
	copies := []*seis.Series{
		series(t, begin, []float64{1, 2, 3}),
		series(t, begin.Add(time.Second), []float64{3, 4, 5}),
		series(t, begin.Add(10*time.Second), []float64{100, 100, 100}),
	}
	parents := []*seis.Trace{trace(t, true), trace(t, true), trace(t, false)}

	s, err := stack.Build(copies, parents)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	// Deselected third copy must not contribute.
	testutil.RequireSliceNearlyEqual(t, s.Data(), []float64{2, 3, 4}, 1e-15)

	wantBegin := begin.Add(500 * time.Millisecond)
	if !s.Begin().Equal(wantBegin) {
		t.Fatalf("begin = %v, want mean %v", s.Begin(), wantBegin)
	}
	if s.Delta() != delta {
		t.Fatalf("delta = %v, want %v", s.Delta(), delta)
	}
}

func TestBuildEmptySelection(t *testing.T) {
	copies := []*seis.Series{series(t, begin, []float64{1})}
	parents := []*seis.Trace{trace(t, false)}

	if _, err := stack.Build(copies, parents); !errors.Is(err, stack.ErrEmptySelection) {
		t.Fatalf("Build() error = %v, want ErrEmptySelection", err)
	}
}

func TestBuildLengthMismatch(t *testing.T) {
	copies := []*seis.Series{series(t, begin, []float64{1})}

	if _, err := stack.Build(copies, nil); !errors.Is(err, stack.ErrLengthMismatch) {
		t.Fatalf("Build() error = %v, want ErrLengthMismatch", err)
	}
}

func TestBuildTrimsToShortestContributor(t *testing.T) {
	copies := []*seis.Series{
		series(t, begin, []float64{2, 2, 2, 2}),
		series(t, begin, []float64{4, 4}),
	}
	parents := []*seis.Trace{trace(t, true), trace(t, true)}

	s, err := stack.Build(copies, parents)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	testutil.RequireSliceNearlyEqual(t, s.Data(), []float64{3, 3}, 1e-15)
}
