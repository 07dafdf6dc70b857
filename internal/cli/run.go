// Package cli implements the alignrun subcommands.
package cli

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pysmo/align/dsp/seis"
	"github.com/pysmo/align/iccs"
	"github.com/pysmo/align/internal/jobfile"
)

// RunCmd returns the run command.
func RunCmd() *cobra.Command {
	var (
		configPath string
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Align the traces described by a YAML job file",
		Long: `Load a job file naming the input recordings and their picks, run the
iterative alignment, and print the refined picks.

Input recordings are plain text files with one sample per line. Blank
lines and lines starting with '#' are ignored.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := jobfile.Load(configPath)
			if err != nil {
				return err
			}

			log := newLogger(verbose)
			traces, err := loadTraces(job)
			if err != nil {
				return err
			}

			before, after := job.Window()
			opts := []iccs.Option{
				iccs.WithTimeWindow(before, after),
				iccs.WithTaperFraction(job.TaperFraction),
				iccs.WithContextMargin(job.Margin()),
				iccs.WithMinCC(job.MinCC),
				iccs.WithConvergenceLimit(job.ConvergenceLimit),
				iccs.WithConvergenceMethod(convergenceMethod(job.Convergence)),
				iccs.WithMaxIterations(job.MaxIterations),
				iccs.WithLogger(log),
			}
			if f := job.Filter; f != nil {
				opts = append(opts, iccs.WithBandPass(f.Low, f.High, f.ZeroPhase))
			}
			if job.Flip() {
				opts = append(opts, iccs.WithAutoFlip())
			}
			if job.Select() {
				opts = append(opts, iccs.WithAutoSelect())
			}

			al, err := iccs.New(traces, opts...)
			if err != nil {
				return err
			}

			history, err := al.Run()
			if err != nil {
				return err
			}

			log.Info().
				Int("iterations", len(history)).
				Float64("final", history[len(history)-1]).
				Str("status", statusString(al.Status())).
				Msg("alignment finished")
			for _, w := range al.Warnings() {
				log.Warn().
					Int("trace", w.TraceIndex).
					Dur("offset", w.Offset).
					Msg("pick update skipped")
			}

			coeffs, err := al.Coefficients()
			if err != nil {
				return err
			}
			names := make([]string, len(traces))
			for i, spec := range job.Traces {
				names[i] = spec.Path
			}

			return printTable(cmd.OutOrStdout(), names, traces, coeffs)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "job.yaml", "path to the YAML job file")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log iteration progress")

	return cmd
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.TimeOnly,
	}).Level(level).With().Timestamp().Logger()
}

func convergenceMethod(name string) iccs.ConvergenceMethod {
	if name == "change" {
		return iccs.ConvergenceChange
	}

	return iccs.ConvergenceCorrelation
}

func statusString(s iccs.Status) string {
	switch s {
	case iccs.StatusConverged:
		return "converged"
	case iccs.StatusMaxIterationsReached:
		return "max iterations reached"
	default:
		return "idle"
	}
}

// loadTraces reads every recording named by the job. All traces share the
// job's sampling interval and a common start time.
func loadTraces(job *jobfile.Job) ([]*seis.Trace, error) {
	begin := time.Unix(0, 0).UTC()
	delta := job.Delta()

	traces := make([]*seis.Trace, len(job.Traces))
	for i, spec := range job.Traces {
		data, err := readSamples(spec.Path)
		if err != nil {
			return nil, err
		}
		series, err := seis.NewSeries(begin, delta, data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", spec.Path, err)
		}
		pick := begin.Add(time.Duration(spec.Pick * float64(time.Second)))
		tr, err := seis.NewTrace(series, pick)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", spec.Path, err)
		}
		traces[i] = tr
	}

	return traces, nil
}

// readSamples parses a one-sample-per-line text file.
func readSamples(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var data []float64
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		data = append(data, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return data, nil
}
