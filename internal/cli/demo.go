package cli

import (
	"math"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/pysmo/align/dsp/seis"
	"github.com/pysmo/align/iccs"
)

// DemoCmd returns the demo command.
func DemoCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Align a synthetic gather and print the result",
		Long: `Build a synthetic gather of one event: several clean recordings, one
with inverted polarity, one picked two seconds early, one picked two
seconds late, and one of pure noise. Then run the alignment and print
the refined picks.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(verbose)

			names, traces := demoGather()
			al, err := iccs.New(traces,
				iccs.WithTimeWindow(-2400*time.Millisecond, 2400*time.Millisecond),
				iccs.WithTaperFraction(0.05),
				iccs.WithLogger(log),
			)
			if err != nil {
				return err
			}

			history, err := al.Run(iccs.WithAutoFlip(), iccs.WithAutoSelect())
			if err != nil {
				return err
			}
			log.Info().
				Int("iterations", len(history)).
				Float64("final", history[len(history)-1]).
				Str("status", statusString(al.Status())).
				Msg("alignment finished")

			coeffs, err := al.Coefficients()
			if err != nil {
				return err
			}

			return printTable(cmd.OutOrStdout(), names, traces, coeffs)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log iteration progress")

	return cmd
}

// demoGather builds the synthetic event: a two second 2 Hz burst five
// seconds into a ten second record.
func demoGather() ([]string, []*seis.Trace) {
	const (
		numSamples = 1000
		sampleRate = 100.0
		burstStart = 400
		burstLen   = 200
	)
	begin := time.Unix(0, 0).UTC()
	delta := 10 * time.Millisecond

	base := make([]float64, numSamples)
	for i := 0; i < burstLen; i++ {
		t := float64(i) / sampleRate
		envelope := math.Pow(math.Sin(math.Pi*float64(i)/float64(burstLen)), 2)
		base[burstStart+i] = envelope * math.Sin(2*math.Pi*2*t)
	}

	flipped := make([]float64, numSamples)
	for i, v := range base {
		flipped[i] = -v
	}
	rng := rand.New(rand.NewSource(42))
	noise := make([]float64, numSamples)
	for i := range noise {
		noise[i] = 2*rng.Float64() - 1
	}

	pick := func(seconds float64) time.Time {
		return begin.Add(time.Duration(seconds * float64(time.Second)))
	}
	mustTrace := func(data []float64, at time.Time) *seis.Trace {
		series, err := seis.NewSeries(begin, delta, data)
		if err != nil {
			panic(err)
		}
		tr, err := seis.NewTrace(series, at)
		if err != nil {
			panic(err)
		}
		return tr
	}

	names := []string{
		"clean-1", "clean-2", "clean-3", "clean-4", "clean-5", "clean-6",
		"flipped", "early", "late", "noise",
	}
	traces := []*seis.Trace{
		mustTrace(base, pick(5)),
		mustTrace(base, pick(5)),
		mustTrace(base, pick(5)),
		mustTrace(base, pick(5)),
		mustTrace(base, pick(5)),
		mustTrace(base, pick(5)),
		mustTrace(flipped, pick(5)),
		mustTrace(base, pick(3)),
		mustTrace(base, pick(7)),
		mustTrace(noise, pick(5)),
	}

	return names, traces
}
