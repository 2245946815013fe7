package metrics

import (
	"math"

	"github.com/san-kum/pidsim/internal/pid"
)

// ControlEffort is the mean absolute controller output.
type ControlEffort struct {
	name    string
	sum     float64
	samples int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{
		name: "control_effort",
	}
}

func (c *ControlEffort) Name() string {
	return c.name
}

func (c *ControlEffort) OnStep(_ pid.Variant, r pid.Record) {
	c.sum += math.Abs(r.Output)
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}

// DeadbandClamps counts the steps whose output was forced to zero.
type DeadbandClamps struct {
	count int
}

func NewDeadbandClamps() *DeadbandClamps { return &DeadbandClamps{} }

func (d *DeadbandClamps) Name() string { return "deadband_clamps" }

func (d *DeadbandClamps) OnStep(_ pid.Variant, r pid.Record) {
	if r.Output == 0 && r.RawOutput != 0 {
		d.count++
	}
}

func (d *DeadbandClamps) Value() float64 { return float64(d.count) }
func (d *DeadbandClamps) Reset()         { d.count = 0 }
