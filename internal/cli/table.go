package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/pysmo/align/dsp/seis"
)

// printTable renders one row per trace with its pick state and the
// coefficient against the final stack.
func printTable(out io.Writer, names []string, traces []*seis.Trace, coeffs []float64) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "TRACE\tINITIAL PICK\tREFINED PICK\tCC\tFLIP\tSELECT")
	for i, tr := range traces {
		refined := "-"
		if tr.RefinedPick != nil {
			refined = tr.RefinedPick.Format("15:04:05.000")
		}

		cc := coeffs[i]
		ccText := fmt.Sprintf("%.3f", cc)
		switch {
		case !tr.Select:
			ccText = color.New(color.FgRed).Sprint(ccText)
		case cc < 0:
			ccText = color.New(color.FgYellow).Sprint(ccText)
		default:
			ccText = color.New(color.FgGreen).Sprint(ccText)
		}

		flip := ""
		if tr.Flip {
			flip = color.New(color.FgYellow).Sprint("yes")
		}
		selected := "yes"
		if !tr.Select {
			selected = color.New(color.FgRed).Sprint("no")
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			names[i],
			tr.InitialPick().Format("15:04:05.000"),
			refined,
			ccText,
			flip,
			selected,
		)
	}

	return w.Flush()
}
