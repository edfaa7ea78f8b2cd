package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/xpbd/internal/analysis"
	"github.com/san-kum/xpbd/internal/automation"
	"github.com/san-kum/xpbd/internal/config"
	"github.com/san-kum/xpbd/internal/experiment"
	"github.com/san-kum/xpbd/internal/export"
	"github.com/san-kum/xpbd/internal/scene"
	"github.com/san-kum/xpbd/internal/sim"
	"github.com/san-kum/xpbd/internal/storage"
	"github.com/san-kum/xpbd/internal/viz"
	"github.com/san-kum/xpbd/internal/watch"
	"github.com/san-kum/xpbd/internal/xpbd"
	"github.com/spf13/cobra"
)

const (
	maxPlots           = 4
	defaultTrialJitter = 5.0
)

// resolveConfig loads --config, or the named scene, and applies the flags
// set on the command line on top.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, string, error) {
	name := config.DefaultScene
	if len(args) > 0 {
		name = args[0]
	}

	var cfg *config.Config
	if configFile != "" {
		if len(args) > 0 {
			return nil, "", fmt.Errorf("give either a scene name or --config, not both")
		}
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		name = strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile))
	} else {
		preset, err := experiment.NewRegistry().GetScene(name)
		if err != nil {
			return nil, "", err
		}
		cfg = preset
	}

	changed := cmd.Flags().Changed
	if changed("script") {
		cfg.Script = scriptFile
	}
	if changed("frames") {
		cfg.Frames = frames
	}
	if changed("dt") {
		cfg.Dt = dt
	}
	if changed("substeps") {
		cfg.Substeps = substeps
	}
	if changed("multiplier") {
		cfg.Multiplier = multiplier
	}
	if changed("mu") {
		cfg.Mu = mu
	}
	if changed("seed") {
		cfg.Seed = seed
	}
	if changed("record-every") {
		cfg.RecordEvery = recordEvery
	}
	if changed("jitter") {
		cfg.Jitter = jitter
	}
	if changed("probe") {
		cfg.PolygonProbe = probe
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, name, nil
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, name, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	exp := experiment.New(cfg)
	if err := exp.Setup(ctx, registry.DefaultMetrics(cfg)); err != nil {
		return err
	}

	var printer *viz.FramePrinter
	if preview {
		printer = viz.NewFramePrinter(os.Stdout, frameRate, 96, 27)
		exp.GetSimulator().AddObserver(printer)
	}

	fmt.Printf("running %s: %d particles, %d frames...\n", name, len(exp.GetSimulator().Scene().Particles), cfg.Frames)
	start := time.Now()

	result, err := exp.Run(ctx)
	if printer != nil {
		printer.Close()
	}
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(name, cfg, result)
	if err != nil {
		return err
	}
	snapshots := len(result.States)
	exp.GetSimulator().Release(result)

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("frames: %d, snapshots: %d\n", result.FramesRun, snapshots)
	c := result.Collisions
	fmt.Printf("contacts: %d (boundary %d, polygon %d, pairs %d)\n", c.Total(), c.Boundary, c.Polygon, c.Pairs)
	if len(result.Errors) > 0 {
		fmt.Printf("unstable: %v\n", result.Errors[0])
	}
	fmt.Println("\nmetrics:")
	printMetrics(result.Metrics)

	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENE\tTIME\tFRAMES\tDT\tSUBSTEPS\tPARTICLES\tCONTACTS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.4fs\t%d\t%d\t%d\n",
			run.ID,
			run.Scene,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Frames,
			run.Dt,
			run.Substeps,
			run.Particles,
			run.Collisions,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	states, _, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(states) == 0 || states[0].Particles() == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scene: %s\n", meta.Scene)
	fmt.Printf("samples: %d\n\n", len(states))

	n := min(states[0].Particles(), maxPlots)
	for i := 0; i < n; i++ {
		ys, err := analysis.Series(states, i, analysis.AxisY)
		if err != nil {
			return err
		}
		graph := asciigraph.Plot(ys,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("particle %d y", i)),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	ax, err := analysis.ParseAxis(axis)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	states, times, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(states) < 4 {
		return fmt.Errorf("need at least 4 snapshots, run has %d", len(states))
	}

	series, err := analysis.Series(states, particle, ax)
	if err != nil {
		return err
	}
	sampleDt := (times[len(times)-1] - times[0]) / float64(len(times)-1)

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("scene: %s, particle %d, axis %s\n\n", meta.Scene, particle, axis)

	ps := analysis.PowerSpectrum(series)
	plotData := ps
	if len(ps) >= 8 {
		plotData = ps[:len(ps)/4]
	}
	graph := asciigraph.Plot(plotData,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("power spectrum (%s%d)", axis, particle)),
	)
	fmt.Println(graph)
	fmt.Println()

	freq := analysis.DominantFrequency(series, sampleDt)
	fmt.Printf("dominant frequency: %.3f hz\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", 1.0/freq)
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	if svgPath == "" {
		meta, err := st.Load(runID)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}

	cfg, err := st.LoadConfig(runID)
	if err != nil {
		return err
	}
	states, _, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if err := os.WriteFile(svgPath, []byte(export.TrajectoryToSVG(states, cfg.XPBDBounds())), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", svgPath)
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	states, times, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}
	return storage.ExportCSV(os.Stdout, states, times)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	cfg, err := st.LoadConfig(runID)
	if err != nil {
		return err
	}
	states, times, err := st.LoadStates(runID)
	if err != nil {
		return err
	}

	result := &sim.Result{
		States:    states,
		Times:     times,
		Metrics:   meta.Metrics,
		FramesRun: meta.Frames,
	}
	return storage.ExportJSONStdout(meta.Scene, cfg, result)
}

// sceneBuilder rebuilds the scene from the current config and script on
// every call, so a reset picks up edits.
func sceneBuilder(ctx context.Context, cmd *cobra.Command, args []string) viz.SceneFunc {
	return func() (*xpbd.Scene, error) {
		cfg, _, err := resolveConfig(cmd, args)
		if err != nil {
			return nil, err
		}
		s, err := scene.Build(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if cfg.Jitter > 0 {
			sim.Jitter(s, rand.New(rand.NewSource(cfg.Seed)), cfg.Jitter)
		}
		return s, nil
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, name, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	build := sceneBuilder(ctx, cmd, args)

	var paths []string
	if configFile != "" {
		paths = append(paths, configFile)
	}
	if cfg.Script != "" {
		paths = append(paths, cfg.Script)
	}
	if !watchCfg || len(paths) == 0 {
		return viz.Run(name, build, nil)
	}

	w, err := watch.New(paths...)
	if err != nil {
		return err
	}
	defer w.Close()

	reloads := make(chan viz.ReloadMsg)
	go func() {
		defer close(reloads)
		for {
			select {
			case _, ok := <-w.Events:
				if !ok {
					return
				}
				s, err := build()
				reloads <- viz.ReloadMsg{Scene: s, Err: err}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Printf("watch: %v", err)
			}
		}
	}()

	return viz.Run(name, build, reloads)
}

func benchScene(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	base, name, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	substepCounts := []int{1, 5, 10, 20}
	frameCounts := []int{100, 600}

	fmt.Printf("benchmarking %s\n\n", name)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FRAMES\tSUBSTEPS\tPARTICLES\tTIME\tFRAMES/SEC\tCONTACTS")

	for _, n := range frameCounts {
		for _, k := range substepCounts {
			cfg := base.Clone()
			cfg.Frames = n
			cfg.Substeps = k
			cfg.RecordEvery = 0

			exp := experiment.New(cfg)
			if err := exp.Setup(ctx, nil); err != nil {
				return err
			}
			particles := len(exp.GetSimulator().Scene().Particles)

			start := time.Now()
			result, err := exp.Run(ctx)
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			fmt.Fprintf(w, "%d\t%d\t%d\t%v\t%.0f\t%d\n",
				n, k, particles, elapsed, float64(result.FramesRun)/elapsed.Seconds(), result.Collisions.Total())
		}
	}

	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	registry := experiment.NewRegistry()

	fmt.Println("scenes:")
	for _, name := range registry.ListScenes() {
		fmt.Printf("  %s\n", name)
	}
	fmt.Println("\nmetrics:")
	for _, name := range registry.ListMetrics() {
		fmt.Printf("  %s\n", name)
	}
	return nil
}

func snapshotScene(cmd *cobra.Command, args []string) error {
	s, err := sceneBuilder(cmd.Context(), cmd, args)()
	if err != nil {
		return err
	}
	if settleFrames > 0 {
		n, err := experiment.Settle(cmd.Context(), s, settleFrames, restEnergy)
		if err != nil {
			return err
		}
		fmt.Printf("advanced %d frames\n", n)
	}

	fmt.Println(viz.Snapshot(s, cols, rows))
	fmt.Printf("particles: %d  links: %d  volumes: %d  polygons: %d\n",
		len(s.Particles), len(s.Distances), len(s.Volumes), len(s.Polygons))

	if svgPath != "" {
		if err := os.WriteFile(svgPath, []byte(export.SceneToSVG(s)), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgPath)
	}
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	if sc.Name != "" {
		fmt.Printf("scenario: %s\n", sc.Name)
	}
	results, runErr := automation.RunScenario(cmd.Context(), sc, experiment.NewRegistry(), os.Stdout)

	for _, r := range results {
		runID, err := st.Save(r.Name, r.Config, r.Result)
		if err != nil {
			return err
		}
		fmt.Printf("\n%s -> %s\n", r.Name, runID)
		printMetrics(r.Result.Metrics)
	}
	return runErr
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, name, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	sweep := &automation.ParameterSweep{
		Scene:    name,
		Base:     cfg,
		Param:    sweepParam,
		Min:      sweepMin,
		Max:      sweepMax,
		NumSteps: sweepSteps,
		Frames:   cfg.Frames,
	}

	fmt.Printf("sweeping %s over %s [%g, %g]\n\n", sweepParam, name, sweepMin, sweepMax)
	results, err := automation.RunSweep(cmd.Context(), sweep, experiment.NewRegistry())
	if err != nil {
		return err
	}

	var names []string
	for _, r := range results {
		if r.Err == nil {
			for n := range r.Metrics {
				names = append(names, n)
			}
			break
		}
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tSTABLE\tCONTACTS", strings.ToUpper(sweepParam))
	for _, n := range names {
		fmt.Fprintf(w, "\t%s", strings.ToUpper(n))
	}
	fmt.Fprintln(w)

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(w, "%g\terror: %v\n", r.Value, r.Err)
			continue
		}
		fmt.Fprintf(w, "%g\t%v\t%d", r.Value, r.Stable, r.Collisions)
		for _, n := range names {
			fmt.Fprintf(w, "\t%.4g", r.Metrics[n])
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, name, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	amount := cfg.Jitter
	if amount == 0 {
		amount = defaultTrialJitter
	}
	mc := &automation.MonteCarloConfig{
		Scene:     name,
		Base:      cfg,
		Jitter:    amount,
		NumTrials: trials,
		Frames:    cfg.Frames,
		Seed:      cfg.Seed,
	}

	fmt.Printf("running %d trials of %s (jitter %g)...\n", trials, name, amount)
	start := time.Now()
	results, err := automation.RunMonteCarlo(cmd.Context(), mc, experiment.NewRegistry())
	if err != nil {
		return err
	}

	stable, unstable := automation.MonteCarloStats(results)
	fmt.Printf("completed in %v\n", time.Since(start))
	fmt.Printf("stable: %d  unstable: %d\n\n", stable, unstable)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tMEAN\tMIN\tMAX")
	for _, s := range automation.Summarize(results) {
		fmt.Fprintf(w, "%s\t%.6g\t%.6g\t%.6g\n", s.Name, s.Mean, s.Min, s.Max)
	}
	return w.Flush()
}
