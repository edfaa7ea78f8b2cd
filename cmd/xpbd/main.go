package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	dataDir     string
	configFile  string
	scriptFile  string
	frames      int
	dt          float64
	substeps    int
	multiplier  float64
	mu          float64
	seed        int64
	recordEvery int
	jitter      float64
	probe       string

	preview   bool
	frameRate int
	svgPath   string
	watchCfg  bool

	particle int
	axis     string

	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int
	trials     int

	cols         int
	rows         int
	settleFrames int
	restEnergy   float64
)

// sceneFlags registers the flags that override a scene's config. A flag
// only wins over the config when it is set on the command line.
func sceneFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&scriptFile, "script", "", "tengo script that adds to the scene")
	f.IntVar(&frames, "frames", 600, "frames to run")
	f.Float64Var(&dt, "dt", 0.002, "frame timestep")
	f.IntVar(&substeps, "substeps", 5, "solver substeps per frame")
	f.Float64Var(&multiplier, "multiplier", 100, "time multiplier")
	f.Float64Var(&mu, "mu", 0.5, "polygon friction")
	f.Int64Var(&seed, "seed", 0, "random seed")
	f.IntVar(&recordEvery, "record-every", 1, "keep one snapshot every N frames")
	f.Float64Var(&jitter, "jitter", 0, "random displacement of free particles")
	f.StringVar(&probe, "probe", "", "polygon probe position: previous or current")
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("xpbd: ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := &cobra.Command{
		Use:   "xpbd",
		Short: "2D position based dynamics sandbox",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLive(cmd, nil)
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".xpbd", "data directory")
	sceneFlags(rootCmd)
	rootCmd.Flags().BoolVar(&watchCfg, "watch", true, "reload when the config or script changes")

	runCmd := &cobra.Command{
		Use:   "run [scene]",
		Short: "run a scene headless and save the result",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	sceneFlags(runCmd)
	runCmd.Flags().BoolVar(&preview, "preview", false, "draw frames to the terminal while running")
	runCmd.Flags().IntVar(&frameRate, "fps", 30, "preview frame rate")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot particle heights of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of one particle",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().IntVar(&particle, "particle", 0, "particle index")
	analyzeCmd.Flags().StringVar(&axis, "axis", "y", "coordinate: x or y")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata, or trajectories as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&svgPath, "svg", "", "write particle trajectories to this SVG file")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run snapshots to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	liveCmd := &cobra.Command{
		Use:   "live [scene]",
		Short: "interactive terminal view with mouse editing",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	sceneFlags(liveCmd)
	liveCmd.Flags().BoolVar(&watchCfg, "watch", true, "reload when the config or script changes")

	benchCmd := &cobra.Command{
		Use:   "bench [scene]",
		Short: "benchmark a scene across substep counts",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchScene,
	}
	sceneFlags(benchCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list scenes and presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [scene]",
		Short: "print the scene, optionally after it settles",
		Args:  cobra.MaximumNArgs(1),
		RunE:  snapshotScene,
	}
	sceneFlags(snapshotCmd)
	snapshotCmd.Flags().StringVar(&svgPath, "svg", "", "also write the scene to this SVG file")
	snapshotCmd.Flags().IntVar(&cols, "cols", 96, "canvas columns")
	snapshotCmd.Flags().IntVar(&rows, "rows", 27, "canvas rows")
	snapshotCmd.Flags().IntVar(&settleFrames, "settle", 0, "advance up to N frames until the scene comes to rest")
	snapshotCmd.Flags().Float64Var(&restEnergy, "rest-energy", 1e-3, "kinetic energy below which the scene is at rest")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scenario file and save each step",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [scene]",
		Short: "sweep one parameter across a range",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	sceneFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "substeps", "parameter to sweep")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 1, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 10, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 10, "number of values")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo [scene]",
		Short: "run jittered trials of a scene",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMonteCarlo,
	}
	sceneFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, analyzeCmd, exportCmd, exportCSVCmd, exportJSONCmd,
		liveCmd, benchCmd, presetsCmd, snapshotCmd, scenarioCmd, sweepCmd, monteCarloCmd)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
