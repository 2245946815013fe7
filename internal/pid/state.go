package pid

// Iterations is the number of discrete steps every run executes.
const Iterations = 300

// PlantGain converts controller output into process response. The plant is a
// unit-gain integrator and the ratio is fixed.
const PlantGain = 1.0

// Gains holds the proportional, integral and derivative coefficients.
type Gains struct {
	Kp float64 `json:"kp" yaml:"kp"`
	Ki float64 `json:"ki" yaml:"ki"`
	Kd float64 `json:"kd" yaml:"kd"`
}

// State is the controller and simulated process state for a single run.
type State struct {
	Setpoint   float64
	Actual     float64
	Error      float64
	ErrorPrev1 float64
	ErrorPrev2 float64
	Integral   float64
	Output     float64
	OutputPrev float64
	Gains      Gains
}

func newState(setpoint float64, g Gains) *State {
	return &State{Setpoint: setpoint, Gains: g}
}

// positional computes the textbook output from the current error, the
// accumulated integral and the lag-1 difference. gate scales the integral term.
func (s *State) positional(gate float64) float64 {
	return s.Gains.Kp*s.Error + gate*s.Gains.Ki*s.Integral + s.Gains.Kd*(s.Error-s.ErrorPrev1)
}
