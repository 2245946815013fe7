package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/pidsim/internal/experiment"
	"github.com/san-kum/pidsim/internal/pid"
)

var (
	ErrNoCandidate   = errors.New("optim: no gain combination produced a finite result")
	ErrUnknownMetric = errors.New("optim: unknown metric")
)

// GridSearch evaluates every combination of candidate gains and keeps the one
// with the smallest metric.
type GridSearch struct {
	Kp, Ki, Kd []float64
}

func NewGridSearch(kp, ki, kd []float64) *GridSearch {
	return &GridSearch{Kp: kp, Ki: ki, Kd: kd}
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

type Candidate struct {
	Gains pid.Gains
	Score float64
}

// Search runs variant against setpoint for each gain combination and returns
// the best candidate by metricName. Runs whose final value is not finite are
// skipped. The absolute value of the metric is used so signed metrics such as
// final_error rank by magnitude.
func (g *GridSearch) Search(ctx context.Context, variant pid.Variant, setpoint float64, metricName string) (Candidate, error) {
	best := Candidate{Score: math.Inf(1)}
	found := false

	for _, kp := range g.Kp {
		for _, ki := range g.Ki {
			for _, kd := range g.Kd {
				gains := pid.Gains{Kp: kp, Ki: ki, Kd: kd}
				result, err := experiment.New(experiment.Config{Variant: variant, Setpoint: setpoint, Gains: &gains}).Run(ctx)
				if err != nil {
					return Candidate{}, err
				}
				if math.IsNaN(result.Final) || math.IsInf(result.Final, 0) {
					continue
				}

				m, ok := result.Metrics[metricName]
				if !ok {
					return Candidate{}, fmt.Errorf("%w: %q", ErrUnknownMetric, metricName)
				}
				val := math.Abs(m)
				if math.IsNaN(val) || math.IsInf(val, 0) {
					continue
				}
				if val < best.Score {
					best = Candidate{Gains: gains, Score: val}
					found = true
				}
			}
		}
	}

	if !found {
		return Candidate{}, ErrNoCandidate
	}
	return best, nil
}
