package experiment

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/san-kum/pidsim/internal/metrics"
	"github.com/san-kum/pidsim/internal/pid"
	"github.com/san-kum/pidsim/internal/telemetry"
)

type Config struct {
	Variant  pid.Variant
	Setpoint float64
	// Gains overrides the variant's run gains when set.
	Gains *pid.Gains
}

type Result struct {
	Variant  pid.Variant
	Setpoint float64
	Gains    pid.Gains
	Nominal  pid.Gains
	Final    float64
	Records  []pid.Record
	Metrics  map[string]float64
	Elapsed  time.Duration
}

type settings struct {
	logger    zerolog.Logger
	collector telemetry.Collector
	observers []pid.Observer
}

type Option func(*settings)

// WithLogger sets the logger used for run lifecycle events.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithCollector forwards every finished run to c.
func WithCollector(c telemetry.Collector) Option {
	return func(s *settings) {
		if c != nil {
			s.collector = c
		}
	}
}

// WithObservers attaches extra per-step observers to every run.
func WithObservers(obs ...pid.Observer) Option {
	return func(s *settings) { s.observers = append(s.observers, obs...) }
}

type Experiment struct {
	cfg      Config
	policy   pid.Policy
	settings settings
}

// New prepares a run of cfg.Variant, applying cfg.Gains when set. An unknown
// variant is reported by Run.
func New(cfg Config, opts ...Option) *Experiment {
	p := pid.NewPolicy(cfg.Variant)
	if p != nil && cfg.Gains != nil {
		p = pid.WithGains(p, *cfg.Gains)
	}
	return newExperiment(cfg, p, opts)
}

// NewFromPolicy prepares a run of an already configured policy.
func NewFromPolicy(p pid.Policy, setpoint float64, opts ...Option) *Experiment {
	cfg := Config{Variant: -1, Setpoint: setpoint}
	if p != nil {
		cfg.Variant = p.Variant()
	}
	return newExperiment(cfg, p, opts)
}

func newExperiment(cfg Config, p pid.Policy, opts []Option) *Experiment {
	s := settings{
		logger:    zerolog.Nop(),
		collector: telemetry.Noop(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return &Experiment{cfg: cfg, policy: p, settings: s}
}

// AddObserver attaches o to this experiment only.
func (e *Experiment) AddObserver(o pid.Observer) {
	e.settings.observers = append(e.settings.observers, o)
}

// Run executes the controller once. ctx is checked before the run starts; a
// started run always completes.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.policy == nil || !e.cfg.Variant.Valid() {
		return nil, fmt.Errorf("%w: %v", pid.ErrUnknownVariant, e.cfg.Variant)
	}

	rec := pid.NewRecorder()
	ms := metrics.Default()

	observers := make([]pid.Observer, 0, len(e.settings.observers)+len(ms)+1)
	observers = append(observers, rec)
	observers = append(observers, metrics.Observers(ms)...)
	observers = append(observers, e.settings.observers...)

	log := e.settings.logger.With().Str("variant", e.cfg.Variant.String()).Logger()
	log.Debug().Float64("setpoint", e.cfg.Setpoint).
		Float64("kp", e.policy.Gains().Kp).
		Float64("ki", e.policy.Gains().Ki).
		Float64("kd", e.policy.Gains().Kd).
		Msg("run started")

	start := time.Now()
	final := pid.Simulate(e.cfg.Setpoint, e.policy, observers...)
	elapsed := time.Since(start)

	result := &Result{
		Variant:  e.cfg.Variant,
		Setpoint: e.cfg.Setpoint,
		Gains:    e.policy.Gains(),
		Nominal:  final.Gains,
		Final:    final.Actual,
		Records:  rec.Records,
		Metrics:  metrics.Collect(ms),
		Elapsed:  elapsed,
	}
	e.settings.collector.ObserveRun(e.cfg.Variant, result.Metrics)

	log.Info().Float64("actual", result.Final).
		Float64("final_error", result.Metrics["final_error"]).
		Dur("elapsed", elapsed).
		Msg("run finished")

	return result, nil
}
