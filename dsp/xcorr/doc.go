// Package xcorr estimates time shifts between signals via frequency-domain
// cross-correlation.
//
// The package offers three entry points sharing one correlation core:
//
//   - Delay: one pair of signals
//   - MultiDelay: one template against many signals, amortizing the template
//     transform
//   - MultiMultiDelay: all pairs of a signal set via shared transforms
//
// All variants zero-pad to a length >= lenA + lenB - 1 before transforming, so
// the circular correlation produced by the FFT equals the linear one. FFT bins
// past the padded midpoint are unwrapped to negative lags before scaling by
// the sampling interval.
//
// The lag is selected from the FFT correlation peak, but the reported
// coefficient is always recomputed as a normalized correlation over the
// actually overlapping, shift-aligned samples. The raw FFT peak amplitude is
// never reported; the separate time-domain pass is a precision choice and
// must be kept.
//
// # Usage
//
//	offset, coeff, err := xcorr.Delay(a, b)
//	offset, coeff, err := xcorr.Delay(a, b, xcorr.WithMaxShift(50))
//	offsets, coeffs, err := xcorr.MultiDelay(stack, copies, xcorr.WithAbsMax())
//
// Delay(a, b) reports how much later a's content arrives relative to b's, in
// seconds: a positive offset means a lags b.
package xcorr
