package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute(), errOut.String())
	return out.String()
}

func TestRunSavesAndLists(t *testing.T) {
	dir := t.TempDir()

	out := execute(t, "run", "separation", "--setpoint", "50", "--data", dir)
	require.Contains(t, out, "variant:  separation")
	require.Contains(t, out, "nominal:  kp=0.18 ki=0.015 kd=0.2")
	require.Contains(t, out, "run id:   separation_")

	out = execute(t, "list", "--data", dir)
	require.Contains(t, out, "separation")
}

func TestRunGainOverride(t *testing.T) {
	out := execute(t, "run", "positional", "--kp", "0.5", "--no-save", "--data", t.TempDir())
	require.Contains(t, out, "gains:    kp=0.5 ki=0.015 kd=0.2")
}

func TestRunPreset(t *testing.T) {
	out := execute(t, "run", "antisaturation", "--preset", "slam", "--no-save", "--data", t.TempDir())
	require.Contains(t, out, "setpoint: 500")
	require.Contains(t, out, "kp=0.4")
}

func TestRunConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pidsim.yaml")
	require.NoError(t, os.WriteFile(path, []byte("variant: incremental\nsetpoint: 75\n"), 0644))

	out := execute(t, "run", "--config", path, "--no-save", "--data", dir)
	require.Contains(t, out, "variant:  incremental")
	require.Contains(t, out, "setpoint: 75")

	out = execute(t, "run", "--config", path, "--setpoint", "10", "--no-save", "--data", dir)
	require.Contains(t, out, "setpoint: 10")
}

func TestRunUnknownVariant(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"run", "bangbang", "--no-save"})
	require.Error(t, cmd.Execute())
}

func TestCompareWritesMetrics(t *testing.T) {
	dir := t.TempDir()
	metrics := filepath.Join(dir, "pidsim.prom")

	out := execute(t, "compare", "--data", dir, "--metrics-file", metrics, "--no-save")
	for _, name := range []string{"positional", "incremental", "separation", "antisaturation", "antideadband"} {
		require.Contains(t, out, name)
	}

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	require.Equal(t, 5, strings.Count(string(data), "pidsim_runs_total{"))
}

func TestExportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	out := execute(t, "run", "incremental", "--data", dir)

	var runID string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "run id:") {
			runID = strings.TrimSpace(strings.TrimPrefix(line, "run id:"))
		}
	}
	require.NotEmpty(t, runID)

	csv := execute(t, "export-csv", runID, "--data", dir)
	require.True(t, strings.HasPrefix(csv, "step,setpoint,error"))

	js := execute(t, "export-json", runID, "--data", dir)
	require.Contains(t, js, `"variant": "incremental"`)

	plotted := execute(t, "plot", runID, "--data", dir)
	require.Contains(t, plotted, "incremental: actual vs setpoint")

	svg := execute(t, "export-svg", runID, "--data", dir, "--width", "320")
	require.Contains(t, svg, `width="320"`)
	require.Equal(t, 3, strings.Count(svg, "<path"))
}

func TestVariantsAndPresets(t *testing.T) {
	out := execute(t, "variants")
	require.Contains(t, out, "kp=0.18 ki=0.015 kd=0.2")

	out = execute(t, "presets", "anti-deadband")
	require.Contains(t, out, "unit")
}

func TestScenarioSavesNamedRuns(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: s\nsteps:\n  - variant: positional\n    setpoint: 20\n    save_as: pos20\n"), 0644))

	out := execute(t, "scenario", path, "--data", dir)
	require.Contains(t, out, "positional")

	out = execute(t, "list", "--data", dir)
	require.Contains(t, out, "pos20")
}

func TestSweepAndTune(t *testing.T) {
	out := execute(t, "sweep", "positional", "--param", "kp", "--min", "0.1", "--max", "0.3", "--steps", "3")
	require.Equal(t, 4, strings.Count(strings.TrimSpace(out), "\n")+1)

	out = execute(t, "tune", "incremental", "--steps", "3")
	require.Contains(t, out, "best:")
	require.Contains(t, out, "iae:")
}

func TestInitConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pidsim.yaml")

	out := execute(t, "init-config", path, "--variant", "separation", "--setpoint", "120", "--kp", "0.25")
	require.Contains(t, out, "separation, setpoint 120")

	out = execute(t, "run", "--config", path, "--no-save", "--data", dir)
	require.Contains(t, out, "variant:  separation")
	require.Contains(t, out, "setpoint: 120")
	require.Contains(t, out, "gains:    kp=0.25 ki=0.15 kd=0.2")
	require.Contains(t, out, "nominal:  kp=0.18 ki=0.015 kd=0.2")
}

func TestSweepUsesConfiguredGains(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pidsim.yaml")
	require.NoError(t, os.WriteFile(path, []byte("variant: positional\ngains:\n  kp: 0.5\n  ki: 0\n  kd: 0\n"), 0644))

	args := []string{"sweep", "--param", "ki", "--min", "0", "--max", "0.01", "--steps", "2"}
	withDefaults := execute(t, args...)
	withConfig := execute(t, append(args, "--config", path)...)
	require.NotEqual(t, withDefaults, withConfig)
}

func TestRunDivergentGainsIsStored(t *testing.T) {
	dir := t.TempDir()

	out := execute(t, "run", "positional", "--kp", "50", "--data", dir)
	require.Contains(t, out, "run id:")
	require.Contains(t, out, "deadband_clamps  0.000000")

	out = execute(t, "list", "--data", dir)
	require.Contains(t, out, "positional_")
}
