package experiment

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/xpbd/internal/config"
	"github.com/san-kum/xpbd/internal/metrics"
	"github.com/san-kum/xpbd/internal/scene"
	"github.com/san-kum/xpbd/internal/sim"
)

// Registry maps scene and metric names to constructors.
type Registry struct {
	scenes  map[string]func() *config.Config
	metrics map[string]func(cfg *config.Config) sim.Metric
}

func NewRegistry() *Registry {
	r := &Registry{
		scenes:  make(map[string]func() *config.Config),
		metrics: make(map[string]func(*config.Config) sim.Metric),
	}

	for _, name := range scene.Layouts() {
		layout := name
		r.scenes[name] = func() *config.Config {
			c := config.DefaultConfig()
			c.Scene = layout
			return c
		}
	}
	for _, name := range config.ListPresets() {
		preset := name
		r.scenes[name] = func() *config.Config { return config.GetPreset(preset) }
	}

	r.metrics["kinetic_energy"] = func(*config.Config) sim.Metric { return metrics.NewKineticEnergy() }
	r.metrics["energy_drift"] = func(*config.Config) sim.Metric { return metrics.NewEnergyDrift() }
	r.metrics["constraint_error"] = func(*config.Config) sim.Metric { return metrics.NewConstraintError() }
	r.metrics["volume_error"] = func(*config.Config) sim.Metric { return metrics.NewVolumeError() }
	r.metrics["contacts"] = func(*config.Config) sim.Metric { return metrics.NewContacts() }
	r.metrics["stability"] = func(cfg *config.Config) sim.Metric {
		return metrics.NewStability(stabilityThreshold(cfg))
	}

	return r
}

// stabilityThreshold is ten world diagonals, or 1e6 without bounds.
func stabilityThreshold(cfg *config.Config) float64 {
	if cfg == nil || cfg.Bounds == nil {
		return 1e6
	}
	return 10 * math.Hypot(cfg.Bounds.Width, cfg.Bounds.Height)
}

// GetScene returns a fresh config for a named scene: either a preset or a
// bare layout on default settings.
func (r *Registry) GetScene(name string) (*config.Config, error) {
	fn, ok := r.scenes[name]
	if !ok {
		return nil, fmt.Errorf("unknown scene: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetMetric(name string, cfg *config.Config) (sim.Metric, error) {
	fn, ok := r.metrics[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric: %s", name)
	}
	return fn(cfg), nil
}

func (r *Registry) ListScenes() []string {
	names := make([]string, 0, len(r.scenes))
	for name := range r.scenes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) ListMetrics() []string {
	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics returns one fresh instance of every registered metric.
func (r *Registry) DefaultMetrics(cfg *config.Config) []sim.Metric {
	out := make([]sim.Metric, 0, len(r.metrics))
	for _, name := range r.ListMetrics() {
		out = append(out, r.metrics[name](cfg))
	}
	return out
}
