package storage

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/san-kum/pidsim/internal/pid"
)

// Float is a float64 whose JSON form carries NaN and the infinities as the
// strings "NaN", "+Inf" and "-Inf", matching the trace CSV.
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return json.Marshal(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return json.Marshal(v)
}

func (f *Float) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("decode float %q: %w", s, err)
		}
		*f = Float(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

func toFloats(m map[string]float64) map[string]Float {
	if m == nil {
		return nil
	}
	out := make(map[string]Float, len(m))
	for k, v := range m {
		out[k] = Float(v)
	}
	return out
}

func fromFloats(m map[string]Float) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = float64(v)
	}
	return out
}

// MarshalJSON encodes the metadata with non-finite results as strings.
func (m RunMetadata) MarshalJSON() ([]byte, error) {
	type plain RunMetadata
	return json.Marshal(struct {
		plain
		Final   Float            `json:"final"`
		Metrics map[string]Float `json:"metrics"`
	}{plain(m), Float(m.Final), toFloats(m.Metrics)})
}

func (m *RunMetadata) UnmarshalJSON(data []byte) error {
	type plain RunMetadata
	aux := struct {
		*plain
		Final   Float            `json:"final"`
		Metrics map[string]Float `json:"metrics"`
	}{plain: (*plain)(m)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	m.Final = float64(aux.Final)
	m.Metrics = fromFloats(aux.Metrics)
	return nil
}

// traceRecord is the JSON form of a pid.Record.
type traceRecord struct {
	Step       int   `json:"step"`
	Setpoint   Float `json:"setpoint"`
	Error      Float `json:"error"`
	ErrorPrev1 Float `json:"error_prev1"`
	ErrorPrev2 Float `json:"error_prev2"`
	Delta      Float `json:"delta"`
	Integral   Float `json:"integral"`
	Gate       Float `json:"gate"`
	RawOutput  Float `json:"raw_output"`
	Output     Float `json:"output"`
	Actual     Float `json:"actual"`
}

func newTraceRecord(r pid.Record) traceRecord {
	return traceRecord{
		Step:       r.Step,
		Setpoint:   Float(r.Setpoint),
		Error:      Float(r.Error),
		ErrorPrev1: Float(r.ErrorPrev1),
		ErrorPrev2: Float(r.ErrorPrev2),
		Delta:      Float(r.Delta),
		Integral:   Float(r.Integral),
		Gate:       Float(r.Gate),
		RawOutput:  Float(r.RawOutput),
		Output:     Float(r.Output),
		Actual:     Float(r.Actual),
	}
}

func (t traceRecord) record() pid.Record {
	return pid.Record{
		Step:       t.Step,
		Setpoint:   float64(t.Setpoint),
		Error:      float64(t.Error),
		ErrorPrev1: float64(t.ErrorPrev1),
		ErrorPrev2: float64(t.ErrorPrev2),
		Delta:      float64(t.Delta),
		Integral:   float64(t.Integral),
		Gate:       float64(t.Gate),
		RawOutput:  float64(t.RawOutput),
		Output:     float64(t.Output),
		Actual:     float64(t.Actual),
	}
}
