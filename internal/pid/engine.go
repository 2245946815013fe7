// Package pid implements a family of discrete-time PID controllers driving a
// unit-gain integrator plant toward a setpoint.
//
// Every variant shares one step skeleton: compute the error, let the policy
// update the integral and output, shift the error history, apply the output
// to the plant and report the step to observers. Each run owns a fresh State,
// so runs are independent and may execute concurrently.
package pid

// Simulate runs p for Iterations steps against setpoint and returns the final
// state. The returned state carries the policy's nominal gains.
func Simulate(setpoint float64, p Policy, observers ...Observer) State {
	s := newState(setpoint, p.Gains())
	v := p.Variant()

	for i := 0; i < Iterations; i++ {
		s.Error = s.Setpoint - s.Actual

		c := p.Update(s)

		if p.Lags() > 1 {
			s.ErrorPrev2 = s.ErrorPrev1
		}
		s.ErrorPrev1 = s.Error

		s.Actual += s.Output * PlantGain

		rec := Record{
			Step:       i + 1,
			Setpoint:   s.Setpoint,
			Error:      s.Error,
			ErrorPrev1: s.ErrorPrev1,
			ErrorPrev2: s.ErrorPrev2,
			Delta:      c.Delta,
			Integral:   s.Integral,
			Gate:       c.Gate,
			RawOutput:  c.Raw,
			Output:     s.Output,
			Actual:     s.Actual,
		}
		for _, o := range observers {
			o.OnStep(v, rec)
		}
	}

	s.Gains = p.Nominal()
	return *s
}

// Run runs p and returns the final actual value.
func Run(setpoint float64, p Policy, observers ...Observer) float64 {
	return Simulate(setpoint, p, observers...).Actual
}

// Positional runs the textbook positional controller.
func Positional(setpoint float64, observers ...Observer) float64 {
	return Run(setpoint, NewPolicy(VariantPositional), observers...)
}

// Incremental runs the controller that accumulates output deltas.
func Incremental(setpoint float64, observers ...Observer) float64 {
	return Run(setpoint, NewPolicy(VariantIncremental), observers...)
}

// Separation runs the integral-separation controller.
func Separation(setpoint float64, observers ...Observer) float64 {
	return Run(setpoint, NewPolicy(VariantSeparation), observers...)
}

// AntiSaturation runs the controller that stops integrating positive error
// while the previous output is saturated.
func AntiSaturation(setpoint float64, observers ...Observer) float64 {
	return Run(setpoint, NewPolicy(VariantAntiSaturation), observers...)
}

// AntiDeadband runs the controller that suppresses near-zero output.
func AntiDeadband(setpoint float64, observers ...Observer) float64 {
	return Run(setpoint, NewPolicy(VariantAntiDeadband), observers...)
}
