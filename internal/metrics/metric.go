// Package metrics summarises a controller run from its per-step records.
package metrics

import "github.com/san-kum/pidsim/internal/pid"

// Metric observes every step of a run and reduces it to a single value.
type Metric interface {
	pid.Observer
	Name() string
	Value() float64
	Reset()
}

// Default returns a fresh set of the metrics reported for every run.
func Default() []Metric {
	return []Metric{
		NewFinalError(),
		NewOvershoot(),
		NewIAE(),
		NewSettlingStep(0.02),
		NewStability(MaxTrackingError),
		NewControlEffort(),
		NewDeadbandClamps(),
	}
}

// Observers converts metrics to observers for pid.Run.
func Observers(ms []Metric) []pid.Observer {
	out := make([]pid.Observer, len(ms))
	for i, m := range ms {
		out[i] = m
	}
	return out
}

// Collect reads every metric value keyed by name.
func Collect(ms []Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}
