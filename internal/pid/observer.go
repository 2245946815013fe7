package pid

// Record is the per-step diagnostic emitted to observers.
type Record struct {
	Step       int     `json:"step"`
	Setpoint   float64 `json:"setpoint"`
	Error      float64 `json:"error"`
	ErrorPrev1 float64 `json:"error_prev1"`
	ErrorPrev2 float64 `json:"error_prev2"`
	Delta      float64 `json:"delta"`
	Integral   float64 `json:"integral"`
	Gate       float64 `json:"gate"`
	RawOutput  float64 `json:"raw_output"`
	Output     float64 `json:"output"`
	Actual     float64 `json:"actual"`
}

type Observer interface {
	OnStep(v Variant, r Record)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(v Variant, r Record)

func (f ObserverFunc) OnStep(v Variant, r Record) { f(v, r) }

// Recorder keeps every record it observes.
type Recorder struct {
	Records []Record
}

func NewRecorder() *Recorder {
	return &Recorder{Records: make([]Record, 0, Iterations)}
}

func (r *Recorder) OnStep(_ Variant, rec Record) {
	r.Records = append(r.Records, rec)
}

// Series extracts one field of every record.
func Series(records []Record, field func(Record) float64) []float64 {
	out := make([]float64, len(records))
	for i, rec := range records {
		out[i] = field(rec)
	}
	return out
}
