// Command alignrun aligns picked time-series recordings by iterative
// cross-correlation and stacking.
//
// Usage:
//
//	alignrun demo
//	alignrun run -c job.yaml
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pysmo/align/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "alignrun",
		Short: "Align picked traces by iterative cross-correlation and stacking",
		Long: `alignrun estimates relative time offsets between recordings of one
event. It windows every trace around its pick, correlates it against the
stacked reference, and iterates until the stack stops changing.`,
	}
	rootCmd.AddCommand(cli.DemoCmd())
	rootCmd.AddCommand(cli.RunCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
