// Package interp provides the interpolation primitives used to bring signals
// onto a shared reference sampling interval before correlation.
//
// Available methods:
//
//   - [Linear]:   2-point linear interpolation
//   - [Hermite4]: 4-point cubic Hermite (the resampling default)
//   - [Resample]: whole-signal rate conversion built on Hermite4
package interp
