// Package export renders stored run traces into standalone documents.
package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/pidsim/internal/pid"
)

// Stroke colours per series.
const (
	SetpointColor = "#888888"
	ActualColor   = "#00ff00"
	OutputColor   = "#ffaa00"
)

type bounds struct {
	minX, maxX, minY, maxY float64
}

func traceBounds(records []pid.Record) bounds {
	b := bounds{
		minX: float64(records[0].Step), maxX: float64(records[len(records)-1].Step),
		minY: records[0].Setpoint, maxY: records[0].Setpoint,
	}
	for _, r := range records {
		b.minY = min(b.minY, r.Setpoint, r.Actual, r.Output)
		b.maxY = max(b.maxY, r.Setpoint, r.Actual, r.Output)
	}

	rangeX, rangeY := b.maxX-b.minX, b.maxY-b.minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	b.minY -= rangeY * 0.1
	b.maxY += rangeY * 0.1
	b.maxX = b.minX + rangeX
	return b
}

func (b bounds) project(step int, v float64, width, height int) (float64, float64) {
	x := (float64(step) - b.minX) / (b.maxX - b.minX) * float64(width)
	y := float64(height) - (v-b.minY)/(b.maxY-b.minY)*float64(height)
	return x, y
}

func writePath(sb *strings.Builder, records []pid.Record, b bounds, width, height int, color, dash string, value func(pid.Record) float64) {
	fmt.Fprintf(sb, `<path fill="none" stroke="%s" stroke-width="1.5"%s d="M`, color, dash)
	for i, r := range records {
		x, y := b.project(r.Step, value(r), width, height)
		if i == 0 {
			fmt.Fprintf(sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString("\"/>\n")
}

// TraceSVG draws setpoint, actual and controller output of a run on a shared
// axis. It returns an empty string for fewer than two records.
func TraceSVG(records []pid.Record, width, height int) string {
	if len(records) < 2 {
		return ""
	}
	b := traceBounds(records)

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	writePath(&sb, records, b, width, height, SetpointColor, ` stroke-dasharray="4 4"`,
		func(r pid.Record) float64 { return r.Setpoint })
	writePath(&sb, records, b, width, height, OutputColor, "",
		func(r pid.Record) float64 { return r.Output })
	writePath(&sb, records, b, width, height, ActualColor, "",
		func(r pid.Record) float64 { return r.Actual })

	sb.WriteString("</svg>")
	return sb.String()
}
