package automation

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"time"

	"github.com/san-kum/xpbd/internal/config"
	"github.com/san-kum/xpbd/internal/experiment"
	"github.com/san-kum/xpbd/internal/scene"
	"github.com/san-kum/xpbd/internal/sim"
	"github.com/san-kum/xpbd/internal/xpbd"
	"gopkg.in/yaml.v3"
)

// Scenario is a scripted sequence of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`

	dir string
}

// ScenarioStep starts from a registered scene or a config file and applies
// the non-zero overrides on top.
type ScenarioStep struct {
	Scene      string   `yaml:"scene"`
	Config     string   `yaml:"config"`
	Frames     int      `yaml:"frames"`
	Dt         float64  `yaml:"dt"`
	Substeps   int      `yaml:"substeps"`
	Multiplier float64  `yaml:"multiplier"`
	Mu         *float64 `yaml:"mu"`
	Seed       int64    `yaml:"seed"`
	Jitter     float64  `yaml:"jitter"`
	SaveAs     string   `yaml:"save_as"`
}

// StepResult pairs a finished step with the config it ran.
type StepResult struct {
	Name   string
	Config *config.Config
	Result *sim.Result
}

// LoadScenario loads a scenario from a YAML file. Step config paths are
// relative to the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}
	scenario.dir = filepath.Dir(path)

	return &scenario, nil
}

func (sc *Scenario) stepConfig(step ScenarioStep, registry *experiment.Registry) (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case step.Config != "":
		path := step.Config
		if !filepath.IsAbs(path) && sc.dir != "" {
			path = filepath.Join(sc.dir, path)
		}
		cfg, err = config.Load(path)
	case step.Scene != "":
		cfg, err = registry.GetScene(step.Scene)
	default:
		err = fmt.Errorf("step needs a scene or a config")
	}
	if err != nil {
		return nil, err
	}

	if step.Frames > 0 {
		cfg.Frames = step.Frames
	}
	if step.Dt > 0 {
		cfg.Dt = step.Dt
	}
	if step.Substeps > 0 {
		cfg.Substeps = step.Substeps
	}
	if step.Multiplier > 0 {
		cfg.Multiplier = step.Multiplier
	}
	if step.Mu != nil {
		cfg.Mu = *step.Mu
	}
	if step.Seed != 0 {
		cfg.Seed = step.Seed
	}
	if step.Jitter > 0 {
		cfg.Jitter = step.Jitter
	}
	return cfg, cfg.Validate()
}

func stepName(step ScenarioStep, i int) string {
	switch {
	case step.SaveAs != "":
		return step.SaveAs
	case step.Scene != "":
		return step.Scene
	case step.Config != "":
		return filepath.Base(step.Config)
	}
	return fmt.Sprintf("step%d", i+1)
}

// RunScenario executes all steps in order and stops at the first failure.
// Progress lines go to out.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, out io.Writer) ([]StepResult, error) {
	if out == nil {
		out = io.Discard
	}
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		name := stepName(step, i)
		fmt.Fprintf(out, "Running step %d/%d: %s\n", i+1, len(scenario.Steps), name)

		cfg, err := scenario.stepConfig(step, registry)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		exp := experiment.New(cfg)
		if err := exp.Setup(ctx, registry.DefaultMetrics(cfg)); err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		results = append(results, StepResult{Name: name, Config: cfg, Result: result})
	}

	return results, nil
}

// SweepParams are the config values a sweep can vary.
var SweepParams = []string{"dt", "gravity", "mu", "multiplier", "substeps"}

// ApplyParam sets one sweepable value on cfg. Substeps are rounded to the
// nearest integer; gravity sets the vertical component.
func ApplyParam(cfg *config.Config, name string, v float64) error {
	switch name {
	case "dt":
		cfg.Dt = v
	case "gravity":
		cfg.Gravity[1] = v
	case "mu":
		cfg.Mu = v
	case "multiplier":
		cfg.Multiplier = v
	case "substeps":
		cfg.Substeps = int(math.Round(v))
	default:
		return fmt.Errorf("unknown sweep parameter %q (want one of %v)", name, SweepParams)
	}
	return nil
}

// ParameterSweep runs one scene across evenly spaced values of Param.
type ParameterSweep struct {
	Scene    string
	Base     *config.Config
	Param    string
	Min, Max float64
	NumSteps int
	Frames   int
}

// SweepResult holds one point of a sweep.
type SweepResult struct {
	Value      float64
	Metrics    map[string]float64
	Collisions int
	Stable     bool
	Err        error
}

func (sw *ParameterSweep) base(registry *experiment.Registry) (*config.Config, error) {
	if sw.Base != nil {
		return sw.Base.Clone(), nil
	}
	return registry.GetScene(sw.Scene)
}

// Values returns the parameter values the sweep visits.
func (sw *ParameterSweep) Values() []float64 {
	if sw.NumSteps <= 1 {
		return []float64{sw.Min}
	}
	step := (sw.Max - sw.Min) / float64(sw.NumSteps-1)
	vals := make([]float64, sw.NumSteps)
	for i := range vals {
		vals[i] = sw.Min + float64(i)*step
	}
	return vals
}

// RunSweep evaluates every sweep point in parallel. A point whose config is
// invalid or whose run fails reports Err instead of aborting the sweep.
func RunSweep(ctx context.Context, sweep *ParameterSweep, registry *experiment.Registry) ([]SweepResult, error) {
	if _, err := sweep.base(registry); err != nil {
		return nil, err
	}
	if !slices.Contains(SweepParams, sweep.Param) {
		return nil, fmt.Errorf("unknown sweep parameter %q (want one of %v)", sweep.Param, SweepParams)
	}

	values := sweep.Values()
	results := make([]SweepResult, len(values))

	sim.ParallelFor(len(values), 1, func(start, end int) {
		for i := start; i < end; i++ {
			results[i] = runPoint(ctx, sweep, registry, values[i])
		}
	})

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

func runPoint(ctx context.Context, sweep *ParameterSweep, registry *experiment.Registry, v float64) SweepResult {
	res := SweepResult{Value: v}

	cfg, err := sweep.base(registry)
	if err != nil {
		res.Err = err
		return res
	}
	if sweep.Frames > 0 {
		cfg.Frames = sweep.Frames
	}
	cfg.RecordEvery = 0
	if err := ApplyParam(cfg, sweep.Param, v); err != nil {
		res.Err = err
		return res
	}

	exp := experiment.New(cfg)
	if err := exp.Setup(ctx, registry.DefaultMetrics(cfg)); err != nil {
		res.Err = err
		return res
	}
	result, err := exp.Run(ctx)
	if err != nil {
		res.Err = err
		return res
	}

	res.Metrics = result.Metrics
	res.Collisions = result.Collisions.Total()
	res.Stable = len(result.Errors) == 0 && result.Metrics["stability"] == 1
	exp.GetSimulator().Release(result)
	return res
}

// MonteCarloConfig runs NumTrials jittered copies of one scene.
type MonteCarloConfig struct {
	Scene     string
	Base      *config.Config
	Jitter    float64
	NumTrials int
	Frames    int
	Seed      int64
}

// MonteCarloResult holds one trial.
type MonteCarloResult struct {
	TrialID    int
	Seed       int64
	FinalState sim.State
	Metrics    map[string]float64
	Stable     bool
}

// RunMonteCarlo builds every trial from the same config, displaces its free
// particles by up to Jitter with a per-trial seed and runs the trials
// concurrently.
func RunMonteCarlo(ctx context.Context, mc *MonteCarloConfig, registry *experiment.Registry) ([]MonteCarloResult, error) {
	var cfg *config.Config
	var err error
	if mc.Base != nil {
		cfg = mc.Base.Clone()
	} else if cfg, err = registry.GetScene(mc.Scene); err != nil {
		return nil, err
	}
	if mc.Frames > 0 {
		cfg.Frames = mc.Frames
	}
	cfg.Jitter = 0
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	seed := mc.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	factory := func(ctx context.Context, trialSeed int64) (*xpbd.Scene, error) {
		s, err := scene.Build(ctx, cfg)
		if err != nil {
			return nil, err
		}
		sim.Jitter(s, rand.New(rand.NewSource(trialSeed)), mc.Jitter)
		return s, nil
	}
	newMetrics := func() []sim.Metric { return registry.DefaultMetrics(cfg) }

	ens := sim.NewEnsemble(factory, newMetrics, mc.NumTrials, seed)
	runs, err := ens.Run(ctx, sim.Config{Frames: cfg.Frames, RecordEvery: 0, ValidateState: true})
	if err != nil {
		return nil, err
	}

	results := make([]MonteCarloResult, len(runs))
	for i, r := range runs {
		results[i] = MonteCarloResult{
			TrialID:    i,
			Seed:       seed + int64(i),
			FinalState: r.Final(),
			Metrics:    r.Metrics,
			Stable:     len(r.Errors) == 0 && r.Metrics["stability"] == 1,
		}
	}
	return results, nil
}

// MonteCarloStats counts stable and unstable trials.
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}

// MetricSummary is the mean, min and max of one metric over trials.
type MetricSummary struct {
	Name           string
	Mean, Min, Max float64
}

// Summarize aggregates every metric over the trials, sorted by name.
func Summarize(results []MonteCarloResult) []MetricSummary {
	acc := make(map[string]*MetricSummary)
	counts := make(map[string]int)
	for _, r := range results {
		for name, v := range r.Metrics {
			s, ok := acc[name]
			if !ok {
				s = &MetricSummary{Name: name, Min: v, Max: v}
				acc[name] = s
			}
			s.Mean += v
			s.Min = math.Min(s.Min, v)
			s.Max = math.Max(s.Max, v)
			counts[name]++
		}
	}

	out := make([]MetricSummary, 0, len(acc))
	for name, s := range acc {
		s.Mean /= float64(counts[name])
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
