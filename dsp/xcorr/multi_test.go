package xcorr_test

import (
	"errors"
	"testing"
	"time"

	"github.com/pysmo/align/dsp/seis"
	"github.com/pysmo/align/dsp/xcorr"
	"github.com/pysmo/align/internal/testutil"
)

func TestMultiDelayRecoversShifts(t *testing.T) {
	base := testutil.Burst(1000, 400, 200, 5, 100)
	template := newSignal(t, base)

	shifts := []int{0, 15, -30, 60}
	signals := make([]seis.Signal, len(shifts))
	for i, k := range shifts {
		signals[i] = newSignal(t, testutil.Roll(base, k))
	}

	offsets, coeffs, err := xcorr.MultiDelay(template, signals)
	if err != nil {
		t.Fatalf("MultiDelay() error = %v", err)
	}

	for i, k := range shifts {
		// A signal delayed by k samples arrives k*delta later.
		testutil.RequireNearlyEqual(t, offsets[i], float64(k)*delta.Seconds(), 1e-12)
		testutil.RequireNearlyEqual(t, coeffs[i], 1, 1e-9)
	}
}

func TestMultiDelayAbsMaxKeepsCoefficientSign(t *testing.T) {
	base := testutil.Burst(1000, 400, 200, 5, 100)
	template := newSignal(t, base)

	signals := []seis.Signal{
		newSignal(t, testutil.Roll(base, 10)),
		newSignal(t, testutil.Negate(testutil.Roll(base, -20))),
	}

	offsets, coeffs, err := xcorr.MultiDelay(template, signals, xcorr.WithAbsMax())
	if err != nil {
		t.Fatalf("MultiDelay() error = %v", err)
	}

	testutil.RequireNearlyEqual(t, offsets[0], 10*delta.Seconds(), 1e-12)
	testutil.RequireNearlyEqual(t, coeffs[0], 1, 1e-9)
	testutil.RequireNearlyEqual(t, offsets[1], -20*delta.Seconds(), 1e-12)
	testutil.RequireNearlyEqual(t, coeffs[1], -1, 1e-9)
}

func TestMultiDelayConstantSignalFallback(t *testing.T) {
	base := testutil.Burst(500, 200, 100, 5, 100)
	template := newSignal(t, base)

	signals := []seis.Signal{newSignal(t, testutil.DC(1, 500))}

	_, coeffs, err := xcorr.MultiDelay(template, signals)
	if err != nil {
		t.Fatalf("MultiDelay() error = %v", err)
	}

	testutil.RequireFinite(t, coeffs)
}

func TestMultiDelayMixedLengths(t *testing.T) {
	base := testutil.Burst(800, 300, 200, 5, 100)
	template := newSignal(t, base)

	// A longer signal containing the template content delayed by 50 samples.
	long := make([]float64, 1200)
	copy(long[50:], base)

	offsets, coeffs, err := xcorr.MultiDelay(template, []seis.Signal{newSignal(t, long)})
	if err != nil {
		t.Fatalf("MultiDelay() error = %v", err)
	}

	testutil.RequireNearlyEqual(t, offsets[0], 50*delta.Seconds(), 1e-12)
	testutil.RequireNearlyEqual(t, coeffs[0], 1, 1e-9)
}

func TestMultiDelaySamplingMismatch(t *testing.T) {
	template := newSignal(t, []float64{1, 2, 3})

	other, err := seis.NewSeries(begin, 20*time.Millisecond, []float64{1, 2, 3})
	if err != nil {
		t.Fatalf("NewSeries() error = %v", err)
	}

	_, _, err = xcorr.MultiDelay(template, []seis.Signal{other})
	if !errors.Is(err, xcorr.ErrSamplingMismatch) {
		t.Fatalf("MultiDelay() error = %v, want ErrSamplingMismatch", err)
	}
}

func TestMultiMultiDelayAntisymmetry(t *testing.T) {
	base := testutil.Burst(1000, 400, 200, 5, 100)
	noise := testutil.DeterministicNoise(7, 0.05, 1000)

	shifts := []int{0, 20, -35, 50}
	signals := make([]seis.Signal, len(shifts))
	for i, k := range shifts {
		signals[i] = newSignal(t, testutil.Add(testutil.Roll(base, k), testutil.DeterministicNoise(int64(i+1), 0.01, 1000)))
	}
	signals = append(signals, newSignal(t, noise))

	offsets, coeffs, err := xcorr.MultiMultiDelay(signals)
	if err != nil {
		t.Fatalf("MultiMultiDelay() error = %v", err)
	}

	n := len(signals)
	for i := 0; i < n; i++ {
		if offsets[i][i] != 0 {
			t.Fatalf("offsets[%d][%d] = %v, want 0", i, i, offsets[i][i])
		}
		if coeffs[i][i] != 1 {
			t.Fatalf("coeffs[%d][%d] = %v, want 1", i, i, coeffs[i][i])
		}

		for j := 0; j < n; j++ {
			if offsets[i][j] != -offsets[j][i] {
				t.Fatalf("offsets not antisymmetric at (%d,%d): %v vs %v",
					i, j, offsets[i][j], offsets[j][i])
			}
			if coeffs[i][j] != coeffs[j][i] {
				t.Fatalf("coeffs not symmetric at (%d,%d)", i, j)
			}
		}
	}
}

func TestMultiMultiDelayRecoversPairwiseShifts(t *testing.T) {
	base := testutil.Burst(1000, 400, 200, 5, 100)

	shifts := []int{0, 20, -35}
	signals := make([]seis.Signal, len(shifts))
	for i, k := range shifts {
		signals[i] = newSignal(t, testutil.Roll(base, k))
	}

	offsets, coeffs, err := xcorr.MultiMultiDelay(signals)
	if err != nil {
		t.Fatalf("MultiMultiDelay() error = %v", err)
	}

	for i := range shifts {
		for j := range shifts {
			want := float64(shifts[j]-shifts[i]) * delta.Seconds()
			testutil.RequireNearlyEqual(t, offsets[i][j], want, 1e-12)
			if i != j {
				testutil.RequireNearlyEqual(t, coeffs[i][j], 1, 1e-9)
			}
		}
	}
}

func TestMultiMultiDelayEmpty(t *testing.T) {
	_, _, err := xcorr.MultiMultiDelay(nil)
	if !errors.Is(err, xcorr.ErrEmptyInput) {
		t.Fatalf("MultiMultiDelay(nil) error = %v, want ErrEmptyInput", err)
	}
}
