package experiment

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/san-kum/xpbd/internal/config"
	"github.com/san-kum/xpbd/internal/metrics"
	"github.com/san-kum/xpbd/internal/scene"
	"github.com/san-kum/xpbd/internal/sim"
	"github.com/san-kum/xpbd/internal/xpbd"
)

// Experiment is one configured run: a scene built from a config, optionally
// jittered by its seed, and a simulator with metrics attached.
type Experiment struct {
	cfg        *config.Config
	simulator  *sim.Simulator
	randSource *rand.Rand
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{
		cfg:        cfg,
		randSource: rand.New(rand.NewSource(cfg.Seed)),
	}
}

func (e *Experiment) Setup(ctx context.Context, metrics []sim.Metric) error {
	s, err := scene.Build(ctx, e.cfg)
	if err != nil {
		return err
	}
	if e.cfg.Jitter > 0 {
		sim.Jitter(s, e.randSource, e.cfg.Jitter)
	}

	e.simulator = sim.New(s)
	for _, m := range metrics {
		e.simulator.AddMetric(m)
	}
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	simCfg := sim.Config{
		Frames:        e.cfg.Frames,
		RecordEvery:   e.cfg.RecordEvery,
		ValidateState: true,
		Seed:          e.cfg.Seed,
	}

	return e.simulator.Run(ctx, simCfg)
}

func (e *Experiment) Config() *config.Config { return e.cfg }

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}

// Settle advances s until its kinetic energy drops below threshold or
// maxFrames have run. It returns the number of frames advanced.
func Settle(ctx context.Context, s *xpbd.Scene, maxFrames int, threshold float64) (int, error) {
	if maxFrames <= 0 {
		return 0, nil
	}
	frames := 0
	err := sim.New(s).RunWithCallback(ctx, sim.Config{Frames: maxFrames, ValidateState: true}, func(f sim.Frame) bool {
		frames = f.Index
		return metrics.Kinetic(f.Scene) >= threshold
	})
	return frames, err
}
