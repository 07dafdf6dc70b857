package bandpass

// Coefficients holds one normalized second-order section (a0 = 1, not stored).
//
// Processing follows Direct Form II Transposed:
//
//	y  = B0*x + d0
//	d0 = B1*x - A1*y + d1
//	d1 = B2*x - A2*y
type Coefficients struct {
	B0, B1, B2 float64 // feedforward (numerator)
	A1, A2     float64 // feedback (denominator)
}

// Section is a single biquad with internal state.
type Section struct {
	Coefficients

	d0, d1 float64
}

// NewSection returns a Section with the given coefficients and zero state.
func NewSection(c Coefficients) *Section {
	return &Section{Coefficients: c}
}

// ProcessSample filters one input sample and returns the output.
func (s *Section) ProcessSample(x float64) float64 {
	y := s.B0*x + s.d0
	s.d0 = s.B1*x - s.A1*y + s.d1
	s.d1 = s.B2*x - s.A2*y

	return y
}

// ProcessBlock filters a block of samples in place.
func (s *Section) ProcessBlock(buf []float64) {
	for i, x := range buf {
		y := s.B0*x + s.d0
		s.d0 = s.B1*x - s.A1*y + s.d1
		s.d1 = s.B2*x - s.A2*y
		buf[i] = y
	}
}

// Reset clears the section state.
func (s *Section) Reset() {
	s.d0, s.d1 = 0, 0
}

// chain cascades sections in order.
type chain []*Section

func newChain(coeffs []Coefficients) chain {
	sections := make(chain, len(coeffs))
	for i, c := range coeffs {
		sections[i] = NewSection(c)
	}
	return sections
}

func (c chain) processBlock(buf []float64) {
	for _, s := range c {
		s.ProcessBlock(buf)
	}
}

func (c chain) reset() {
	for _, s := range c {
		s.Reset()
	}
}
