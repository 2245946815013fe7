package automation

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/pidsim/internal/experiment"
	"github.com/san-kum/pidsim/internal/pid"
)

// Scenario defines a scripted sequence of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is a single run in a scenario.
type ScenarioStep struct {
	Variant  string     `yaml:"variant"`
	Setpoint float64    `yaml:"setpoint"`
	Gains    *pid.Gains `yaml:"gains,omitempty"`
	SaveAs   string     `yaml:"save_as,omitempty"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("decode scenario %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}

	return &scenario, nil
}

// RunScenario executes all steps in order. Results of completed steps are
// returned alongside the first error.
func RunScenario(ctx context.Context, scenario *Scenario, opts ...experiment.Option) ([]*experiment.Result, error) {
	results := make([]*experiment.Result, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		v, err := pid.ParseVariant(step.Variant)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		cfg := experiment.Config{Variant: v, Setpoint: step.Setpoint, Gains: step.Gains}
		result, err := experiment.New(cfg, opts...).Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		results = append(results, result)
	}

	return results, nil
}

// ParameterSweep varies one gain of a variant over an evenly spaced range.
// The other two gains come from Base, or the variant defaults when Base is nil.
type ParameterSweep struct {
	Variant   pid.Variant
	Setpoint  float64
	Base      *pid.Gains
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
}

// SweepResult holds the outcome of one sweep point.
type SweepResult struct {
	ParamValue float64
	Final      float64
	Metrics    map[string]float64
}

// RunSweep executes a parameter sweep
func RunSweep(ctx context.Context, sweep *ParameterSweep) ([]SweepResult, error) {
	if sweep.NumSteps < 2 {
		return nil, fmt.Errorf("sweep needs at least 2 steps, got %d", sweep.NumSteps)
	}

	p := pid.NewPolicy(sweep.Variant)
	if p == nil {
		return nil, fmt.Errorf("%w: %v", pid.ErrUnknownVariant, sweep.Variant)
	}
	base := p.Gains()
	if sweep.Base != nil {
		base = *sweep.Base
	}
	set, err := gainSetter(sweep.ParamName)
	if err != nil {
		return nil, err
	}

	results := make([]SweepResult, 0, sweep.NumSteps)
	paramStep := (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)

	for i := 0; i < sweep.NumSteps; i++ {
		paramVal := sweep.ParamMin + float64(i)*paramStep
		gains := base
		set(&gains, paramVal)

		cfg := experiment.Config{Variant: sweep.Variant, Setpoint: sweep.Setpoint, Gains: &gains}
		result, err := experiment.New(cfg).Run(ctx)
		if err != nil {
			return nil, err
		}

		results = append(results, SweepResult{
			ParamValue: paramVal,
			Final:      result.Final,
			Metrics:    result.Metrics,
		})
	}

	return results, nil
}

func gainSetter(name string) (func(*pid.Gains, float64), error) {
	switch name {
	case "kp", "Kp":
		return func(g *pid.Gains, v float64) { g.Kp = v }, nil
	case "ki", "Ki":
		return func(g *pid.Gains, v float64) { g.Ki = v }, nil
	case "kd", "Kd":
		return func(g *pid.Gains, v float64) { g.Kd = v }, nil
	}
	return nil, fmt.Errorf("unknown gain %q (want kp, ki or kd)", name)
}
