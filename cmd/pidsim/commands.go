package main

import (
	"fmt"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/san-kum/pidsim/internal/config"
	"github.com/san-kum/pidsim/internal/experiment"
	"github.com/san-kum/pidsim/internal/export"
	"github.com/san-kum/pidsim/internal/logging"
	"github.com/san-kum/pidsim/internal/observe"
	"github.com/san-kum/pidsim/internal/pid"
	"github.com/san-kum/pidsim/internal/storage"
	"github.com/san-kum/pidsim/internal/telemetry"
	"github.com/san-kum/pidsim/internal/viz"
)

// resolveConfig layers the config file, the preset and explicitly set flags,
// in that order.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if len(args) > 0 {
		cfg.Variant = args[0]
	}
	v, err := pid.ParseVariant(cfg.Variant)
	if err != nil {
		return nil, err
	}
	cfg.Variant = v.String()

	flags := cmd.Flags()
	if flags.Changed("preset") {
		p := config.GetPreset(cfg.Variant, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.Variant))
		}
		cfg.Setpoint = p.Setpoint
		if p.Gains != nil {
			g := *p.Gains
			cfg.Gains = &g
		}
	}

	if flags.Changed("setpoint") {
		cfg.Setpoint = setpoint
	}
	if flags.Changed("kp") || flags.Changed("ki") || flags.Changed("kd") {
		g := pid.NewPolicy(v).Gains()
		if cfg.Gains != nil {
			g = *cfg.Gains
		}
		if flags.Changed("kp") {
			g.Kp = kp
		}
		if flags.Changed("ki") {
			g.Ki = ki
		}
		if flags.Changed("kd") {
			g.Kd = kd
		}
		cfg.Gains = &g
	}
	if flags.Changed("data") {
		cfg.DataDir = dataDir
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = logFormat
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = metricsFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type app struct {
	cfg       *config.Config
	logger    zerolog.Logger
	collector telemetry.Collector
	prom      *telemetry.PrometheusCollector
	store     *storage.Store
	cleanup   func()
}

func setup(cmd *cobra.Command, args []string) (*app, error) {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return nil, err
	}

	logger, cleanup, err := logging.Setup(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	rt := &app{
		cfg:       cfg,
		logger:    logger,
		collector: telemetry.Noop(),
		store:     storage.New(cfg.DataDir),
		cleanup:   cleanup,
	}
	if cfg.MetricsFile != "" {
		prom, err := telemetry.NewPrometheusCollector()
		if err != nil {
			cleanup()
			return nil, err
		}
		rt.prom = prom
		rt.collector = prom
	}
	return rt, nil
}

func (rt *app) close() error {
	defer rt.cleanup()
	if rt.prom == nil {
		return nil
	}
	if err := rt.prom.WriteTextfile(rt.cfg.MetricsFile); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	rt.logger.Debug().Str("path", rt.cfg.MetricsFile).Msg("metrics written")
	return nil
}

func (rt *app) save(result *experiment.Result) (string, error) {
	if err := rt.store.Init(); err != nil {
		return "", err
	}
	return rt.store.Save(result)
}

func runVariant(cmd *cobra.Command, args []string) (err error) {
	rt, err := setup(cmd, args)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rt.close(); err == nil {
			err = cerr
		}
	}()

	p, err := rt.cfg.Policy()
	if err != nil {
		return err
	}
	exp := experiment.NewFromPolicy(p, rt.cfg.Setpoint,
		experiment.WithLogger(rt.logger),
		experiment.WithCollector(rt.collector),
	)
	if trace {
		exp.AddObserver(observe.NewEvery(traceEvery, observe.NewLogger(rt.logger, zerolog.InfoLevel)))
	}

	result, err := exp.Run(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "variant:  %s\n", result.Variant)
	fmt.Fprintf(out, "setpoint: %g\n", result.Setpoint)
	fmt.Fprintf(out, "gains:    kp=%g ki=%g kd=%g\n", result.Gains.Kp, result.Gains.Ki, result.Gains.Kd)
	if result.Nominal != result.Gains {
		fmt.Fprintf(out, "nominal:  kp=%g ki=%g kd=%g\n", result.Nominal.Kp, result.Nominal.Ki, result.Nominal.Kd)
	}
	fmt.Fprintf(out, "actual:   %.6f\n", result.Final)
	fmt.Fprintf(out, "elapsed:  %v\n", result.Elapsed)

	if !noSave {
		runID, err := rt.save(result)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "run id:   %s\n", runID)
	}

	fmt.Fprintln(out, "\nmetrics:")
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, name := range metricOrder {
		fmt.Fprintf(w, "  %s\t%.6f\n", name, result.Metrics[name])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if plot {
		fmt.Fprintln(out)
		fmt.Fprintln(out, viz.PlotTrace(result.Variant, result.Records))
	}
	return nil
}

var metricOrder = []string{"final_error", "overshoot", "iae", "settling_step", "stability", "control_effort", "deadband_clamps"}

func compareVariants(cmd *cobra.Command, args []string) (err error) {
	rt, err := setup(cmd, nil)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rt.close(); err == nil {
			err = cerr
		}
	}()

	variants := make([]pid.Variant, 0, len(args))
	for _, name := range args {
		v, err := pid.ParseVariant(name)
		if err != nil {
			return err
		}
		variants = append(variants, v)
	}

	if len(variants) == 0 {
		variants = pid.Variants()
	}

	sp := rt.cfg.Setpoint
	rt.logger.Info().Float64("setpoint", sp).Int("variants", len(variants)).Msg("comparing")

	results, err := experiment.Compare(cmd.Context(), sp, variants,
		experiment.WithLogger(rt.logger),
		experiment.WithCollector(rt.collector),
	)
	if err != nil {
		return err
	}

	if !noSave {
		for _, r := range results {
			if _, err := rt.save(r); err != nil {
				return err
			}
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), viz.RenderComparison(results))
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd, args)
	if err != nil {
		return err
	}
	defer rt.cleanup()

	p, err := rt.cfg.Policy()
	if err != nil {
		return err
	}
	result, err := experiment.NewFromPolicy(p, rt.cfg.Setpoint).Run(cmd.Context())
	if err != nil {
		return err
	}

	_, err = tea.NewProgram(viz.NewReplay(result.Variant, result.Records)).Run()
	return err
}

// openStore returns the run store of the resolved configuration.
func openStore(cmd *cobra.Command) (*storage.Store, error) {
	cfg, err := resolveConfig(cmd, nil)
	if err != nil {
		return nil, err
	}
	return storage.New(cfg.DataDir), nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	runs, err := st.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tVARIANT\tTIME\tSETPOINT\tFINAL\tFINAL_ERR")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%.6f\t%.2e\n",
			run.ID,
			run.Variant,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Setpoint,
			run.Final,
			run.Metrics["final_error"],
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	records, err := st.LoadTrace(runID)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no data to plot")
	}

	v, err := pid.ParseVariant(meta.Variant)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run: %s\n", meta.ID)
	fmt.Fprintf(out, "variant: %s\n", meta.Variant)
	fmt.Fprintf(out, "steps: %d\n\n", len(records))
	fmt.Fprintln(out, viz.PlotTrace(v, records))
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	return st.ExportJSON(cmd.OutOrStdout(), args[0])
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	return st.ExportCSV(cmd.OutOrStdout(), args[0])
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	records, err := st.LoadTrace(args[0])
	if err != nil {
		return err
	}
	if len(records) < 2 {
		return fmt.Errorf("run %s has too few steps to draw", args[0])
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), export.TraceSVG(records, svgWidth, svgHeight))
	return err
}

func initConfig(cmd *cobra.Command, args []string) error {
	var variantArgs []string
	if variantName != "" {
		variantArgs = []string{variantName}
	}
	cfg, err := resolveConfig(cmd, variantArgs)
	if err != nil {
		return err
	}
	if err := config.Save(args[0], cfg); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s, setpoint %g)\n", args[0], cfg.Variant, cfg.Setpoint)
	return nil
}

func listVariants(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VARIANT\tKP\tKI\tKD\tNOMINAL\tPOLICY")
	for _, e := range experiment.List() {
		nominal := "-"
		if e.Nominal != e.Gains {
			nominal = fmt.Sprintf("kp=%g ki=%g kd=%g", e.Nominal.Kp, e.Nominal.Ki, e.Nominal.Kd)
		}
		fmt.Fprintf(w, "%s\t%g\t%g\t%g\t%s\t%s\n", e.Variant, e.Gains.Kp, e.Gains.Ki, e.Gains.Kd, nominal, e.Description)
	}
	return w.Flush()
}
