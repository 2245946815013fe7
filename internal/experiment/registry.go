package experiment

import (
	"github.com/san-kum/pidsim/internal/pid"
)

// Descriptions gives a one-line summary of each variant's policy.
var Descriptions = map[pid.Variant]string{
	pid.VariantPositional:     "textbook positional form",
	pid.VariantIncremental:    "accumulates output deltas from a two-step error history",
	pid.VariantSeparation:     "drops the integral term while |error| > 30",
	pid.VariantAntiSaturation: "integrates only negative error while the last output exceeded 30",
	pid.VariantAntiDeadband:   "forces output with |output| <= 1e-5 to zero",
}

// Entry describes one variant for listings.
type Entry struct {
	Variant     pid.Variant
	Description string
	Gains       pid.Gains
	Nominal     pid.Gains
}

func List() []Entry {
	vs := pid.Variants()
	out := make([]Entry, 0, len(vs))
	for _, v := range vs {
		p := pid.NewPolicy(v)
		out = append(out, Entry{
			Variant:     v,
			Description: Descriptions[v],
			Gains:       p.Gains(),
			Nominal:     p.Nominal(),
		})
	}
	return out
}
