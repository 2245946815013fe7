// Package observe holds the diagnostic observers attached to controller runs.
package observe

import (
	"github.com/rs/zerolog"

	"github.com/san-kum/pidsim/internal/pid"
)

// Logger writes one event per step at the configured level.
type Logger struct {
	log   zerolog.Logger
	level zerolog.Level
}

func NewLogger(log zerolog.Logger, level zerolog.Level) *Logger {
	return &Logger{log: log, level: level}
}

func (l *Logger) OnStep(v pid.Variant, r pid.Record) {
	ev := l.log.WithLevel(l.level)
	if ev == nil {
		return
	}
	ev = ev.Str("variant", v.String()).
		Int("step", r.Step).
		Float64("err", r.Error)
	if v == pid.VariantIncremental {
		ev = ev.Float64("delta", r.Delta)
	}
	if v == pid.VariantSeparation {
		ev = ev.Float64("gate", r.Gate)
	}
	ev.Float64("voltage", r.Output).
		Float64("actual", r.Actual).
		Msg("step")
}

// Every forwards only every n-th step to next, plus the final one.
type Every struct {
	n    int
	next pid.Observer
}

func NewEvery(n int, next pid.Observer) *Every {
	if n < 1 {
		n = 1
	}
	return &Every{n: n, next: next}
}

func (e *Every) OnStep(v pid.Variant, r pid.Record) {
	if r.Step%e.n == 0 || r.Step == 1 || r.Step == pid.Iterations {
		e.next.OnStep(v, r)
	}
}
