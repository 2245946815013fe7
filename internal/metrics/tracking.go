package metrics

import (
	"math"

	"github.com/san-kum/pidsim/internal/pid"
)

// FinalError is setpoint minus actual after the last observed step.
type FinalError struct {
	last float64
}

func NewFinalError() *FinalError { return &FinalError{} }

func (f *FinalError) Name() string { return "final_error" }

func (f *FinalError) OnStep(_ pid.Variant, r pid.Record) {
	f.last = r.Setpoint - r.Actual
}

func (f *FinalError) Value() float64 { return f.last }
func (f *FinalError) Reset()         { f.last = 0 }

// Overshoot is the largest excursion of actual past the setpoint, in the
// direction of the setpoint. It is never negative.
type Overshoot struct {
	max float64
}

func NewOvershoot() *Overshoot { return &Overshoot{} }

func (o *Overshoot) Name() string { return "overshoot" }

func (o *Overshoot) OnStep(_ pid.Variant, r pid.Record) {
	past := r.Actual - r.Setpoint
	if r.Setpoint < 0 {
		past = -past
	}
	if past > o.max {
		o.max = past
	}
}

func (o *Overshoot) Value() float64 { return o.max }
func (o *Overshoot) Reset()         { o.max = 0 }

// IAE is the integral of absolute error over the run.
type IAE struct {
	sum float64
}

func NewIAE() *IAE { return &IAE{} }

func (m *IAE) Name() string { return "iae" }

func (m *IAE) OnStep(_ pid.Variant, r pid.Record) {
	m.sum += math.Abs(r.Error)
}

func (m *IAE) Value() float64 { return m.sum }
func (m *IAE) Reset()         { m.sum = 0 }

// SettlingStep is the last step at which actual was outside a band of
// fraction*|setpoint| around the setpoint. Zero means it never left the band.
type SettlingStep struct {
	fraction float64
	last     int
}

func NewSettlingStep(fraction float64) *SettlingStep {
	return &SettlingStep{fraction: fraction}
}

func (s *SettlingStep) Name() string { return "settling_step" }

func (s *SettlingStep) OnStep(_ pid.Variant, r pid.Record) {
	band := s.fraction * math.Abs(r.Setpoint)
	if math.Abs(r.Setpoint-r.Actual) > band {
		s.last = r.Step
	}
}

func (s *SettlingStep) Value() float64 { return float64(s.last) }
func (s *SettlingStep) Reset()         { s.last = 0 }
