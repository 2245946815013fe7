package pid

import "math"

const (
	// MaxSeparation is the error magnitude above which the separation
	// variant drops its integral term.
	MaxSeparation = 30.0
	// MaxAntiSaturation is the previous-output level above which the
	// anti-saturation variant only integrates negative error.
	MaxAntiSaturation = 30.0
	// MinAntiDeadband is the output magnitude at or below which the
	// anti-deadband variant forces zero output.
	MinAntiDeadband = 0.00001
)

var (
	// DefaultGains are the run and nominal gains of every variant except
	// separation.
	DefaultGains = Gains{Kp: 0.2, Ki: 0.015, Kd: 0.2}

	// SeparationGains are used while the separation variant runs.
	SeparationGains = Gains{Kp: 0.18, Ki: 0.15, Kd: 0.2}
	// SeparationNominalGains are restored once a separation run finishes.
	// Ki is a tenth of the run value.
	SeparationNominalGains = Gains{Kp: 0.18, Ki: 0.015, Kd: 0.2}
)

// Correction is what a policy reports for one step.
type Correction struct {
	Delta float64
	Gate  float64
	Raw   float64
}

// Policy is the variant-specific part of a control step. Update reads
// s.Error and the history, updates s.Integral and s.Output and returns the
// correction it applied.
type Policy interface {
	Variant() Variant
	Gains() Gains
	Nominal() Gains
	// Lags is the depth of error history the policy reads (1 or 2).
	Lags() int
	Update(s *State) Correction
}

type policy struct {
	variant Variant
	gains   Gains
	nominal Gains
	// ownNominal is set when the variant restores a nominal set that differs
	// from its run gains.
	ownNominal bool
	lags       int
	update     func(s *State) Correction
}

func (p *policy) Variant() Variant           { return p.variant }
func (p *policy) Gains() Gains               { return p.gains }
func (p *policy) Nominal() Gains             { return p.nominal }
func (p *policy) Lags() int                  { return p.lags }
func (p *policy) Update(s *State) Correction { return p.update(s) }

// NewPolicy returns the policy of v with its default gains, or nil when v is
// not a known variant.
func NewPolicy(v Variant) Policy {
	switch v {
	case VariantPositional:
		return &policy{variant: v, gains: DefaultGains, nominal: DefaultGains, lags: 1, update: updatePositional}
	case VariantIncremental:
		return &policy{variant: v, gains: DefaultGains, nominal: DefaultGains, lags: 2, update: updateIncremental}
	case VariantSeparation:
		return &policy{variant: v, gains: SeparationGains, nominal: SeparationNominalGains, ownNominal: true, lags: 1, update: updateSeparation}
	case VariantAntiSaturation:
		return &policy{variant: v, gains: DefaultGains, nominal: DefaultGains, lags: 1, update: updateAntiSaturation}
	case VariantAntiDeadband:
		return &policy{variant: v, gains: DefaultGains, nominal: DefaultGains, lags: 1, update: updateAntiDeadband}
	}
	return nil
}

// WithGains returns a copy of p running with g. The nominal gains follow g
// unless the variant declares its own nominal set, which survives any number
// of overrides.
func WithGains(p Policy, g Gains) Policy {
	own := p.Nominal() != p.Gains()
	if pp, ok := p.(*policy); ok {
		own = pp.ownNominal
	}

	nominal := g
	if own {
		nominal = p.Nominal()
	}
	return &policy{
		variant:    p.Variant(),
		gains:      g,
		nominal:    nominal,
		ownNominal: own,
		lags:       p.Lags(),
		update:     p.Update,
	}
}

func updatePositional(s *State) Correction {
	s.Integral += s.Error
	s.Output = s.positional(1)
	return Correction{Gate: 1, Raw: s.Output}
}

func updateIncremental(s *State) Correction {
	g := s.Gains
	delta := g.Kp*(s.Error-s.ErrorPrev1) + g.Ki*s.Error + g.Kd*(s.Error-2*s.ErrorPrev1+s.ErrorPrev2)
	s.Output += delta
	return Correction{Delta: delta, Gate: 1, Raw: s.Output}
}

func updateSeparation(s *State) Correction {
	gate := 1.0
	if math.Abs(s.Error) > MaxSeparation {
		gate = 0
	}
	// the integral keeps accumulating while gated; only its contribution stops
	s.Integral += s.Error
	s.Output = s.positional(gate)
	return Correction{Gate: gate, Raw: s.Output}
}

func updateAntiSaturation(s *State) Correction {
	if s.OutputPrev > MaxAntiSaturation {
		if s.Error < 0 {
			s.Integral += s.Error
		}
	} else {
		s.Integral += s.Error
	}
	s.Output = s.positional(1)
	s.OutputPrev = s.Output
	return Correction{Gate: 1, Raw: s.Output}
}

func updateAntiDeadband(s *State) Correction {
	s.Integral += s.Error
	raw := s.positional(1)
	s.Output = raw
	if math.Abs(raw) <= MinAntiDeadband {
		s.Output = 0
	}
	return Correction{Gate: 1, Raw: raw}
}
