// Package seis defines the signal contract shared by all alignment packages.
//
// Every algorithm in this module operates through the Signal interface: an
// absolute begin time, a strictly positive sampling interval, and an ordered
// sample sequence. The end time is always derived from these three and never
// stored independently.
//
// Two concrete types are provided:
//
//   - Series: a minimal Signal, used for working copies and stacks
//   - Trace: a Series plus alignment state (picks, polarity, selection)
//
// The alignment core mutates only a Trace's RefinedPick, Flip, and Select
// fields. Raw samples and the initial pick belong to the caller.
package seis
