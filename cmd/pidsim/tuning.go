package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/pidsim/internal/automation"
	"github.com/san-kum/pidsim/internal/config"
	"github.com/san-kum/pidsim/internal/experiment"
	"github.com/san-kum/pidsim/internal/optim"
	"github.com/san-kum/pidsim/internal/viz"
)

var (
	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int
	tuneMetric string
	tuneSteps  int
	tuneSpread float64
)

func addTuningCommands(rootCmd *cobra.Command) {
	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted sequence of runs from yaml",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the runs")

	sweepCmd := &cobra.Command{
		Use:   "sweep [variant]",
		Short: "vary one gain over a range",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	sweepCmd.Flags().Float64Var(&setpoint, "setpoint", config.DefaultSetpoint, "target value")
	sweepCmd.Flags().StringVar(&sweepParam, "param", "ki", "gain to sweep (kp, ki, kd)")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0.005, "lowest value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 0.05, "highest value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 10, "number of points")

	tuneCmd := &cobra.Command{
		Use:   "tune [variant]",
		Short: "grid search gains around the variant defaults",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTune,
	}
	tuneCmd.Flags().Float64Var(&setpoint, "setpoint", config.DefaultSetpoint, "target value")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "iae", "metric to minimise")
	tuneCmd.Flags().IntVar(&tuneSteps, "steps", 5, "grid points per gain")
	tuneCmd.Flags().Float64Var(&tuneSpread, "spread", 0.5, "relative range around each default gain")

	rootCmd.AddCommand(scenarioCmd, sweepCmd, tuneCmd)
}

func runScenario(cmd *cobra.Command, args []string) (err error) {
	rt, err := setup(cmd, nil)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rt.close(); err == nil {
			err = cerr
		}
	}()

	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	rt.logger.Info().Str("scenario", sc.Name).Int("steps", len(sc.Steps)).Msg("running scenario")

	results, err := automation.RunScenario(cmd.Context(), sc,
		experiment.WithLogger(rt.logger),
		experiment.WithCollector(rt.collector),
	)
	if err != nil {
		return err
	}

	if !noSave {
		if err := rt.store.Init(); err != nil {
			return err
		}
		for i, r := range results {
			runID, err := rt.store.SaveAs(r, sc.Steps[i].SaveAs)
			if err != nil {
				return err
			}
			rt.logger.Info().Str("run_id", runID).Msg("saved")
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), viz.RenderComparison(results))
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd, args)
	if err != nil {
		return err
	}
	defer rt.cleanup()

	p, err := rt.cfg.Policy()
	if err != nil {
		return err
	}
	base := p.Gains()
	results, err := automation.RunSweep(cmd.Context(), &automation.ParameterSweep{
		Variant:   p.Variant(),
		Setpoint:  rt.cfg.Setpoint,
		Base:      &base,
		ParamName: sweepParam,
		ParamMin:  sweepMin,
		ParamMax:  sweepMax,
		NumSteps:  sweepSteps,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tFINAL\tOVERSHOOT\tIAE\tSETTLED\n", sweepParam)
	for _, r := range results {
		fmt.Fprintf(w, "%.5f\t%.6f\t%.3f\t%.1f\t%.0f\n",
			r.ParamValue, r.Final, r.Metrics["overshoot"], r.Metrics["iae"], r.Metrics["settling_step"])
	}
	return w.Flush()
}

func runTune(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd, args)
	if err != nil {
		return err
	}
	defer rt.cleanup()

	p, err := rt.cfg.Policy()
	if err != nil {
		return err
	}
	v, base := p.Variant(), p.Gains()
	around := func(g float64) []float64 {
		return optim.Linspace(g*(1-tuneSpread), g*(1+tuneSpread), tuneSteps)
	}

	search := optim.NewGridSearch(around(base.Kp), around(base.Ki), around(base.Kd))
	rt.logger.Info().Str("variant", v.String()).Str("metric", tuneMetric).
		Int("candidates", tuneSteps*tuneSteps*tuneSteps).Msg("tuning")

	best, err := search.Search(cmd.Context(), v, rt.cfg.Setpoint, tuneMetric)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "variant: %s\n", v)
	fmt.Fprintf(out, "start:   kp=%g ki=%g kd=%g\n", base.Kp, base.Ki, base.Kd)
	fmt.Fprintf(out, "best:    kp=%g ki=%g kd=%g\n", best.Gains.Kp, best.Gains.Ki, best.Gains.Kd)
	fmt.Fprintf(out, "%s: %.6f\n", tuneMetric, best.Score)
	return nil
}
