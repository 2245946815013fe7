package metrics

import (
	"math"

	"github.com/san-kum/pidsim/internal/pid"
)

// MaxTrackingError is the default error band for Stability.
const MaxTrackingError = 1.0

// Stability is the fraction of steps whose error stayed within threshold.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) OnStep(_ pid.Variant, r pid.Record) {
	s.samples++
	if math.Abs(r.Setpoint-r.Actual) > s.threshold {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
