package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/pidsim/internal/pid"
)

const (
	plotWidth  = 80
	plotHeight = 12
)

// PlotActual charts the process value of a trace against its setpoint.
func PlotActual(records []pid.Record, caption string) string {
	if len(records) == 0 {
		return ""
	}
	actual := pid.Series(records, func(r pid.Record) float64 { return r.Actual })
	setpoint := pid.Series(records, func(r pid.Record) float64 { return r.Setpoint })
	return asciigraph.PlotMany([][]float64{setpoint, actual},
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.SeriesColors(asciigraph.DarkGray, asciigraph.Green),
		asciigraph.SeriesLegends("setpoint", "actual"),
		asciigraph.Caption(caption),
	)
}

// PlotOutput charts the controller output of a trace.
func PlotOutput(records []pid.Record, caption string) string {
	if len(records) == 0 {
		return ""
	}
	out := pid.Series(records, func(r pid.Record) float64 { return r.Output })
	return asciigraph.Plot(out,
		asciigraph.Height(plotHeight/2),
		asciigraph.Width(plotWidth),
		asciigraph.Caption(caption),
	)
}

// PlotTrace renders both charts for a run.
func PlotTrace(v pid.Variant, records []pid.Record) string {
	return PlotActual(records, fmt.Sprintf("%s: actual vs setpoint", v)) + "\n\n" +
		PlotOutput(records, fmt.Sprintf("%s: controller output", v))
}
