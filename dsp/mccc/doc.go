// Package mccc reconciles pairwise cross-correlation offsets into one
// self-consistent relative time per signal (multi-channel cross-correlation).
//
// The solver builds an overdetermined linear system from the all-pairs offset
// matrix: one row per surviving pair constraining the time difference of its
// two signals, weighted by the squared correlation coefficient. A zero-mean
// constraint row removes the null space of the pure difference system, and an
// optional Tikhonov term keeps the normal equations well conditioned.
//
// The solver degrades softly rather than failing: fewer than two signals, or
// no pair above the correlation threshold, yields an all-zero result.
package mccc
