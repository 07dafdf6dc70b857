package iccs

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/pysmo/align/dsp/prep"
	"github.com/pysmo/align/dsp/seis"
	"github.com/pysmo/align/dsp/stack"
	"github.com/pysmo/align/dsp/xcorr"
)

// Errors returned by the aligner.
var (
	ErrNoTraces         = errors.New("iccs: at least one trace is required")
	ErrInvalidParameter = errors.New("iccs: invalid parameter")
)

// ConvergenceMethod selects how the stack change between iterations is
// reduced to a scalar.
type ConvergenceMethod int

const (
	// ConvergenceCorrelation measures 1 minus the correlation coefficient
	// between the current and the previous stack.
	ConvergenceCorrelation ConvergenceMethod = iota

	// ConvergenceChange measures the L1 norm of the stack difference,
	// normalized by the stack's L2 norm and the sample count.
	ConvergenceChange
)

// Status reports how the last Run ended.
type Status int

const (
	// StatusIdle means Run has not been called since construction.
	StatusIdle Status = iota

	// StatusConverged means the convergence value reached the limit.
	StatusConverged

	// StatusMaxIterationsReached means the iteration budget ran out first.
	StatusMaxIterationsReached
)

// PickWarning records a per-trace pick update that was skipped because the
// candidate pick would have pushed the window past the trace bounds.
type PickWarning struct {
	TraceIndex int
	Candidate  time.Time
	Offset     time.Duration
}

// settings collects every caller-tunable parameter. The same options feed
// New and Run; Run applies them to a per-call copy.
type settings struct {
	windowBefore  time.Duration
	windowAfter   time.Duration
	taperWidth    prep.TaperWidth
	contextMargin time.Duration
	filter        *prep.BandPass
	minCC         float64

	autoFlip      bool
	autoSelect    bool
	limit         float64
	method        ConvergenceMethod
	maxIterations int
	maxShift      int

	log zerolog.Logger
}

func defaultSettings() settings {
	return settings{
		windowBefore:  -time.Second,
		windowAfter:   time.Second,
		taperWidth:    prep.TaperWidth{Fraction: 0.05},
		contextMargin: time.Second,
		minCC:         0.5,
		limit:         1e-3,
		method:        ConvergenceCorrelation,
		maxIterations: 10,
		log:           zerolog.Nop(),
	}
}

func (s settings) validate() error {
	p := s.params(0)
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	if s.minCC < 0 || s.minCC > 1 {
		return fmt.Errorf("%w: minimum coefficient %v outside [0, 1]", ErrInvalidParameter, s.minCC)
	}
	if s.limit < 0 {
		return fmt.Errorf("%w: negative convergence limit %v", ErrInvalidParameter, s.limit)
	}
	if s.maxIterations < 1 {
		return fmt.Errorf("%w: at least one iteration is required", ErrInvalidParameter)
	}
	if s.maxShift < 0 {
		return fmt.Errorf("%w: negative shift limit %d", ErrInvalidParameter, s.maxShift)
	}

	return nil
}

func (s settings) params(refDelta time.Duration) prep.Params {
	return prep.Params{
		WindowBefore:  s.windowBefore,
		WindowAfter:   s.windowAfter,
		ContextMargin: s.contextMargin,
		Taper:         s.taperWidth,
		Filter:        s.filter,
		RefDelta:      refDelta,
	}
}

// ramp is the taper width added on both sides of the correlation window.
func (s settings) ramp() time.Duration {
	return s.taperWidth.Resolve(s.windowAfter - s.windowBefore)
}

// Option tunes an Aligner at construction or a single Run call.
type Option func(*settings)

// WithTimeWindow sets the correlation window relative to the pick. Before is
// normally negative, after positive.
func WithTimeWindow(before, after time.Duration) Option {
	return func(s *settings) { s.windowBefore, s.windowAfter = before, after }
}

// WithTaperWidth sets an absolute taper ramp width.
func WithTaperWidth(width time.Duration) Option {
	return func(s *settings) { s.taperWidth = prep.TaperWidth{Duration: width} }
}

// WithTaperFraction sets the taper ramp as a fraction of the window length.
func WithTaperFraction(fraction float64) Option {
	return func(s *settings) { s.taperWidth = prep.TaperWidth{Fraction: fraction} }
}

// WithContextMargin widens the context view on both sides of the window.
func WithContextMargin(margin time.Duration) Option {
	return func(s *settings) { s.contextMargin = margin }
}

// WithBandPass filters every trace before windowing.
func WithBandPass(low, high float64, zeroPhase bool) Option {
	return func(s *settings) {
		s.filter = &prep.BandPass{Low: low, High: high, ZeroPhase: zeroPhase}
	}
}

// WithMinCC sets the coefficient threshold for automatic selection.
func WithMinCC(minCC float64) Option {
	return func(s *settings) { s.minCC = minCC }
}

// WithAutoFlip toggles polarity on traces that correlate negatively with the
// stack. The lag search then maximizes the absolute correlation.
func WithAutoFlip() Option {
	return func(s *settings) { s.autoFlip = true }
}

// WithAutoSelect deselects traces whose coefficient falls below the minimum.
func WithAutoSelect() Option {
	return func(s *settings) { s.autoSelect = true }
}

// WithConvergenceLimit sets the value at which iteration stops.
func WithConvergenceLimit(limit float64) Option {
	return func(s *settings) { s.limit = limit }
}

// WithConvergenceMethod selects the stack change measure.
func WithConvergenceMethod(method ConvergenceMethod) Option {
	return func(s *settings) { s.method = method }
}

// WithMaxIterations caps the number of iterations per Run.
func WithMaxIterations(n int) Option {
	return func(s *settings) { s.maxIterations = n }
}

// WithMaxShift restricts the lag search to the given number of samples on
// either side of zero.
func WithMaxShift(n int) Option {
	return func(s *settings) { s.maxShift = n }
}

// WithLogger installs an event sink for iteration progress and warnings.
func WithLogger(log zerolog.Logger) Option {
	return func(s *settings) { s.log = log }
}

// traceState is the per-trace fingerprint the cache is keyed on.
type traceState struct {
	flip     bool
	selected bool
	pick     time.Time
	samples  int
}

// pickBounds is the tightest pick-relative begin and end across the
// currently selected traces.
type pickBounds struct {
	maxBeginRel time.Duration
	minEndRel   time.Duration
}

// Aligner drives the iterative alignment of a trace gather.
//
// All methods must be called from one goroutine; the cached derived
// quantities are recomputed whenever a parameter setter runs or a trace's
// pick, flip, or selection state changed since the last read.
type Aligner struct {
	traces []*seis.Trace
	cfg    settings

	// refDelta is the smallest sampling interval in the gather; every
	// working copy is resampled to it.
	refDelta time.Duration

	states     []traceState
	corrCopies []*seis.Series
	ctxCopies  []*seis.Series
	stackSig   *seis.Series
	ctxStack   *seis.Series
	coeffs     []float64
	bounds     *pickBounds

	status   Status
	warnings []PickWarning
}

// New creates an Aligner over traces. The slice is kept by reference; the
// caller must not append to it during use. Options failing validation or a
// window exceeding any selected trace's bounds reject construction.
func New(traces []*seis.Trace, opts ...Option) (*Aligner, error) {
	if len(traces) == 0 {
		return nil, ErrNoTraces
	}
	for i, tr := range traces {
		if tr == nil || len(tr.Data()) == 0 {
			return nil, fmt.Errorf("%w: trace %d is empty", ErrInvalidParameter, i)
		}
	}

	cfg := defaultSettings()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	refDelta := traces[0].Delta()
	for _, tr := range traces[1:] {
		if tr.Delta() < refDelta {
			refDelta = tr.Delta()
		}
	}

	a := &Aligner{traces: traces, cfg: cfg, refDelta: refDelta}
	if err := a.checkWindow(cfg.windowBefore, cfg.windowAfter, cfg.ramp()); err != nil {
		return nil, err
	}

	return a, nil
}

// Traces returns the gather the aligner operates on.
func (a *Aligner) Traces() []*seis.Trace { return a.traces }

// Status reports how the last Run ended.
func (a *Aligner) Status() Status { return a.status }

// Warnings returns the pick updates skipped during the last Run.
func (a *Aligner) Warnings() []PickWarning { return a.warnings }

// SetTimeWindow changes the correlation window. The new window must stay
// within every selected trace's bounds; otherwise the previous window is
// kept and an error returned.
func (a *Aligner) SetTimeWindow(before, after time.Duration) error {
	next := a.cfg
	next.windowBefore, next.windowAfter = before, after
	if err := next.validate(); err != nil {
		return err
	}
	a.refresh()
	if err := a.checkWindow(before, after, next.ramp()); err != nil {
		return err
	}

	a.cfg = next
	a.invalidateAll()

	return nil
}

// SetTaperWidth changes the taper ramp width.
func (a *Aligner) SetTaperWidth(w prep.TaperWidth) error {
	next := a.cfg
	next.taperWidth = w
	if err := next.validate(); err != nil {
		return err
	}
	a.refresh()
	if err := a.checkWindow(next.windowBefore, next.windowAfter, next.ramp()); err != nil {
		return err
	}

	a.cfg = next
	a.invalidateAll()

	return nil
}

// SetContextMargin changes the context view margin.
func (a *Aligner) SetContextMargin(margin time.Duration) error {
	next := a.cfg
	next.contextMargin = margin
	if err := next.validate(); err != nil {
		return err
	}

	a.cfg = next
	a.invalidateAll()

	return nil
}

// SetMinCC changes the selection threshold.
func (a *Aligner) SetMinCC(minCC float64) error {
	next := a.cfg
	next.minCC = minCC
	if err := next.validate(); err != nil {
		return err
	}

	a.cfg = next

	return nil
}

// SetBandPass changes the pre-correlation filter. A nil value disables
// filtering.
func (a *Aligner) SetBandPass(f *prep.BandPass) error {
	next := a.cfg
	next.filter = f
	if err := next.validate(); err != nil {
		return err
	}

	a.cfg = next
	a.invalidateAll()

	return nil
}

// ValidatePick reports whether shifting every selected trace's pick by
// offset keeps the window within bounds.
func (a *Aligner) ValidatePick(offset time.Duration) error {
	a.refresh()
	b := a.boundsFor()
	ramp := a.cfg.ramp()
	if a.cfg.windowBefore-ramp+offset < b.maxBeginRel ||
		a.cfg.windowAfter+ramp+offset > b.minEndRel {
		return fmt.Errorf("%w: pick shift %v exceeds trace bounds", ErrInvalidParameter, offset)
	}

	return nil
}

// ValidateTimeWindow reports whether the given window would fit every
// selected trace at its current pick.
func (a *Aligner) ValidateTimeWindow(before, after time.Duration) error {
	if before >= after {
		return fmt.Errorf("%w: window [%v, %v] has no length", ErrInvalidParameter, before, after)
	}
	a.refresh()

	return a.checkWindow(before, after, a.cfg.taperWidth.Resolve(after-before))
}

// CorrelationCopies returns the tapered windowed working copies, one per
// trace, all truncated to a shared length.
func (a *Aligner) CorrelationCopies() ([]*seis.Series, error) {
	a.refresh()
	if a.corrCopies != nil {
		return a.corrCopies, nil
	}

	copies, err := prep.PrepareAll(a.traces, a.cfg.params(a.refDelta), prep.ModeCorrelation)
	if err != nil {
		return nil, err
	}
	prep.TruncateToShortest(copies)
	a.corrCopies = copies

	return copies, nil
}

// ContextCopies returns the untapered context-view working copies.
func (a *Aligner) ContextCopies() ([]*seis.Series, error) {
	a.refresh()
	if a.ctxCopies != nil {
		return a.ctxCopies, nil
	}

	copies, err := prep.PrepareAll(a.traces, a.cfg.params(a.refDelta), prep.ModeContext)
	if err != nil {
		return nil, err
	}
	prep.TruncateToShortest(copies)
	a.ctxCopies = copies

	return copies, nil
}

// Stack returns the mean of the selected correlation copies.
func (a *Aligner) Stack() (*seis.Series, error) {
	a.refresh()
	if a.stackSig != nil {
		return a.stackSig, nil
	}

	copies, err := a.CorrelationCopies()
	if err != nil {
		return nil, err
	}
	s, err := stack.Build(copies, a.traces)
	if err != nil {
		return nil, err
	}
	a.stackSig = s

	return s, nil
}

// ContextStack returns the mean of the selected context copies.
func (a *Aligner) ContextStack() (*seis.Series, error) {
	a.refresh()
	if a.ctxStack != nil {
		return a.ctxStack, nil
	}

	copies, err := a.ContextCopies()
	if err != nil {
		return nil, err
	}
	s, err := stack.Build(copies, a.traces)
	if err != nil {
		return nil, err
	}
	a.ctxStack = s

	return s, nil
}

// Coefficients returns each trace's correlation coefficient against the
// current stack.
func (a *Aligner) Coefficients() ([]float64, error) {
	a.refresh()
	if a.coeffs != nil {
		return a.coeffs, nil
	}

	s, err := a.Stack()
	if err != nil {
		return nil, err
	}
	copies, err := a.CorrelationCopies()
	if err != nil {
		return nil, err
	}
	_, coeffs, err := xcorr.MultiDelay(s, asSignals(copies))
	if err != nil {
		return nil, err
	}
	a.coeffs = coeffs

	return coeffs, nil
}

// refresh drops every cached quantity when a trace's alignment state changed
// since the last read.
func (a *Aligner) refresh() {
	cur := a.snapshot()
	if statesEqual(a.states, cur) {
		return
	}
	a.invalidateAll()
	a.states = cur
}

func (a *Aligner) invalidateAll() {
	a.corrCopies = nil
	a.ctxCopies = nil
	a.stackSig = nil
	a.ctxStack = nil
	a.coeffs = nil
	a.bounds = nil
	a.states = nil
}

func (a *Aligner) snapshot() []traceState {
	states := make([]traceState, len(a.traces))
	for i, tr := range a.traces {
		states[i] = traceState{
			flip:     tr.Flip,
			selected: tr.Select,
			pick:     tr.Pick(),
			samples:  len(tr.Data()),
		}
	}

	return states
}

func statesEqual(a, b []traceState) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

// boundsFor computes (and caches) the tightest pick-relative bounds across
// the selected traces. With nothing selected the bounds are vacuous.
func (a *Aligner) boundsFor() pickBounds {
	if a.bounds != nil {
		return *a.bounds
	}

	b := pickBounds{
		maxBeginRel: time.Duration(-1 << 62),
		minEndRel:   time.Duration(1<<62 - 1),
	}
	for _, tr := range a.traces {
		if !tr.Select {
			continue
		}
		pick := tr.Pick()
		if rel := tr.Begin().Sub(pick); rel > b.maxBeginRel {
			b.maxBeginRel = rel
		}
		if rel := seis.End(tr).Sub(pick); rel < b.minEndRel {
			b.minEndRel = rel
		}
	}
	a.bounds = &b

	return b
}

func (a *Aligner) checkWindow(before, after, ramp time.Duration) error {
	b := a.boundsFor()
	if before-ramp < b.maxBeginRel || after+ramp > b.minEndRel {
		return fmt.Errorf("%w: window [%v, %v] with ramp %v exceeds trace bounds",
			ErrInvalidParameter, before, after, ramp)
	}

	return nil
}

// pickFits reports whether a pick at candidate keeps the full cropped
// window inside the trace.
func pickFits(tr *seis.Trace, candidate time.Time, before, after, ramp time.Duration) bool {
	return !candidate.Add(before-ramp).Before(tr.Begin()) &&
		!candidate.Add(after+ramp).After(seis.End(tr))
}

func asSignals(copies []*seis.Series) []seis.Signal {
	signals := make([]seis.Signal, len(copies))
	for i, c := range copies {
		signals[i] = c
	}

	return signals
}
