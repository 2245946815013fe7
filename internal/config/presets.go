package config

import (
	"sort"

	"github.com/san-kum/pidsim/internal/pid"
)

// Presets maps variant name to named setpoint scenarios.
var Presets = map[string]map[string]*Config{}

func init() {
	common := map[string]float64{
		"motor":   200,
		"small":   10,
		"reverse": -200,
		"zero":    0,
	}
	for _, v := range pid.Variants() {
		presets := make(map[string]*Config, len(common)+1)
		for name, sp := range common {
			presets[name] = &Config{Variant: v.String(), Setpoint: sp}
		}
		Presets[v.String()] = presets
	}

	// large steps keep the separation gate closed for longer
	Presets[pid.VariantSeparation.String()]["large"] = &Config{Variant: pid.VariantSeparation.String(), Setpoint: 1000}
	// a unit step spends most of its tail inside the deadband
	Presets[pid.VariantAntiDeadband.String()]["unit"] = &Config{Variant: pid.VariantAntiDeadband.String(), Setpoint: 1}
	Presets[pid.VariantAntiSaturation.String()]["slam"] = &Config{
		Variant:  pid.VariantAntiSaturation.String(),
		Setpoint: 500,
		Gains:    &pid.Gains{Kp: 0.4, Ki: 0.05, Kd: 0.1},
	}
}

func GetPreset(variant, preset string) *Config {
	variantPresets, ok := Presets[variant]
	if !ok {
		return nil
	}
	cfg, ok := variantPresets[preset]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets(variant string) []string {
	variantPresets, ok := Presets[variant]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(variantPresets))
	for name := range variantPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
