// Package iccs aligns a gather of picked traces by iterative
// cross-correlation and stacking.
//
// An Aligner owns the trace list and the shared windowing parameters. Each
// iteration builds a stack (the sample-wise mean of the selected working
// copies), cross-correlates every trace against it, and moves the refined
// picks by the measured offsets until the stack stops changing.
//
// Usage:
//
//	al, err := iccs.New(traces,
//		iccs.WithTimeWindow(-3*time.Second, 3*time.Second),
//		iccs.WithTaperFraction(0.05),
//	)
//	if err != nil {
//		// handle error
//	}
//	history, err := al.Run(iccs.WithAutoFlip(), iccs.WithAutoSelect())
//
// Derived quantities (Stack, Coefficients, working copies) are computed
// lazily and cached. The cache tracks each trace's pick, flip, and selection
// state, so direct field writes on a Trace are picked up on the next read.
package iccs
