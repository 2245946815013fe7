package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/san-kum/pidsim/internal/config"
	"github.com/san-kum/pidsim/internal/pid"
)

var (
	dataDir     string
	configFile  string
	logLevel    string
	logFormat   string
	metricsFile string
	setpoint    float64
	preset      string
	kp          float64
	ki          float64
	kd          float64
	trace       bool
	traceEvery  int
	noSave      bool
	plot        bool
	svgWidth    int
	svgHeight   int
	variantName string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pidsim",
		Short:         "discrete PID controller variants on a simulated plant",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", config.DefaultLogFormat, "log format (text|json)")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write prometheus textfile metrics here")

	runCmd := &cobra.Command{
		Use:   "run [variant]",
		Short: "run one controller variant",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runVariant,
	}
	runCmd.Flags().Float64Var(&setpoint, "setpoint", config.DefaultSetpoint, "target value")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	runCmd.Flags().Float64Var(&kp, "kp", 0, "override proportional gain")
	runCmd.Flags().Float64Var(&ki, "ki", 0, "override integral gain")
	runCmd.Flags().Float64Var(&kd, "kd", 0, "override derivative gain")
	runCmd.Flags().BoolVar(&trace, "trace", false, "log every step")
	runCmd.Flags().IntVar(&traceEvery, "trace-every", 1, "log only every n-th step with --trace")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().BoolVar(&plot, "plot", false, "plot the run after it finishes")

	compareCmd := &cobra.Command{
		Use:   "compare [variant...]",
		Short: "run variants concurrently with their default gains and compare them",
		Long: "Run each named variant (all when none are given) concurrently against the same setpoint.\n" +
			"Every variant uses its own default gains; gain overrides from --config or presets are not applied.",
		RunE:  compareVariants,
	}
	compareCmd.Flags().Float64Var(&setpoint, "setpoint", config.DefaultSetpoint, "target value")
	compareCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the runs")

	liveCmd := &cobra.Command{
		Use:   "live [variant]",
		Short: "replay a variant's run in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	liveCmd.Flags().Float64Var(&setpoint, "setpoint", config.DefaultSetpoint, "target value")
	liveCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run trace to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export run trace as an SVG chart",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().IntVar(&svgWidth, "width", 800, "image width")
	exportSVGCmd.Flags().IntVar(&svgHeight, "height", 400, "image height")

	variantsCmd := &cobra.Command{
		Use:   "variants",
		Short: "list controller variants and their gains",
		RunE:  listVariants,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [variant]",
		Short: "list available presets for a variant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := pid.ParseVariant(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "presets for %s:\n", v)
			for _, name := range config.ListPresets(v.String()) {
				p := config.GetPreset(v.String(), name)
				fmt.Fprintf(out, "  %-10s setpoint=%g\n", name, p.Setpoint)
			}
			return nil
		},
	}

	initConfigCmd := &cobra.Command{
		Use:   "init-config [file]",
		Short: "write the resolved configuration to a yaml file",
		Args:  cobra.ExactArgs(1),
		RunE:  initConfig,
	}
	initConfigCmd.Flags().StringVar(&variantName, "variant", "", "controller variant")
	initConfigCmd.Flags().Float64Var(&setpoint, "setpoint", config.DefaultSetpoint, "target value")
	initConfigCmd.Flags().StringVar(&preset, "preset", "", "start from a preset")
	initConfigCmd.Flags().Float64Var(&kp, "kp", 0, "override proportional gain")
	initConfigCmd.Flags().Float64Var(&ki, "ki", 0, "override integral gain")
	initConfigCmd.Flags().Float64Var(&kd, "kd", 0, "override derivative gain")

	rootCmd.AddCommand(initConfigCmd, runCmd, compareCmd, liveCmd, listCmd, plotCmd, exportJSONCmd, exportCSVCmd, exportSVGCmd, variantsCmd, presetsCmd)
	addTuningCommands(rootCmd)

	return rootCmd
}
