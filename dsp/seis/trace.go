package seis

import (
	"errors"
	"time"
)

// ErrMissingPick indicates a trace constructed without an initial pick.
var ErrMissingPick = errors.New("seis: initial pick is required")

// Trace is a Signal carrying alignment state.
//
// RefinedPick, Flip, and Select are mutated by the alignment core.
// InitialPick is set once at construction and never changes; the Extra bag is
// opaque caller metadata that the core never interprets.
type Trace struct {
	*Series

	initialPick time.Time

	// RefinedPick is the pick produced by alignment, nil until the first
	// successful update.
	RefinedPick *time.Time

	// Flip negates the samples wherever the trace is used, without touching
	// the stored data.
	Flip bool

	// Select controls stack membership. Deselected traces still take part in
	// correlation.
	Select bool

	// Extra is an opaque metadata bag owned by the caller.
	Extra map[string]any
}

// NewTrace creates a Trace around s with the given initial pick.
func NewTrace(s *Series, initialPick time.Time) (*Trace, error) {
	if s == nil {
		return nil, ErrEmptyData
	}
	if initialPick.IsZero() {
		return nil, ErrMissingPick
	}

	return &Trace{
		Series:      s,
		initialPick: initialPick,
		Select:      true,
	}, nil
}

// InitialPick returns the pick the trace was constructed with.
func (t *Trace) InitialPick() time.Time { return t.initialPick }

// Pick returns the refined pick when one exists, else the initial pick.
func (t *Trace) Pick() time.Time {
	if t.RefinedPick != nil {
		return *t.RefinedPick
	}

	return t.initialPick
}

// SetRefinedPick records a refined pick.
func (t *Trace) SetRefinedPick(at time.Time) {
	pick := at
	t.RefinedPick = &pick
}

// ClearRefinedPick drops the refined pick, falling back to the initial one.
func (t *Trace) ClearRefinedPick() {
	t.RefinedPick = nil
}
