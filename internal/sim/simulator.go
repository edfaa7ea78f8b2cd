package sim

import (
	"context"
	"fmt"

	"github.com/san-kum/xpbd/internal/xpbd"
)

// Simulator drives an xpbd.Stepper frame by frame, feeding metrics and
// observers and recording position snapshots.
type Simulator struct {
	stepper   *xpbd.Stepper
	metrics   []Metric
	observers []Observer
	pool      *StatePool
}

func New(scene *xpbd.Scene) *Simulator {
	return &Simulator{
		stepper:   xpbd.NewStepper(scene),
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Scene() *xpbd.Scene     { return s.stepper.Scene() }
func (s *Simulator) Stepper() *xpbd.Stepper { return s.stepper }

func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	scene := s.Scene()
	dt := scene.Params().Dt
	result := &Result{
		States:  make([]State, 0, expectedRecords(cfg)),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	record := func(frame int, t float64) {
		result.States = append(result.States, s.snapshot())
		result.Frames = append(result.Frames, frame)
		result.Times = append(result.Times, t)
	}
	record(0, 0)

	t := 0.0
	lastRecorded := 0
	for i := 1; i <= cfg.Frames; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		s.stepper.Update()
		t += dt
		result.FramesRun++

		f := Frame{Index: i, Time: t, Scene: scene, Collisions: s.stepper.LastCollisions()}
		result.Collisions.Boundary += f.Collisions.Boundary
		result.Collisions.Polygon += f.Collisions.Polygon
		result.Collisions.Pairs += f.Collisions.Pairs

		if cfg.ValidateState && !scene.IsFinite() {
			result.Errors = append(result.Errors, SimError{Time: t, Frame: i, Message: "invalid state (NaN/Inf)", Wrapped: ErrInvalidState})
			break
		}

		for _, m := range s.metrics {
			m.Observe(f)
		}
		for _, obs := range s.observers {
			obs.OnFrame(f)
		}

		if cfg.RecordEvery > 0 && i%cfg.RecordEvery == 0 {
			record(i, t)
			lastRecorded = i
		}
	}
	if result.FramesRun > lastRecorded && len(result.Errors) == 0 {
		record(result.FramesRun, t)
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

// RunWithCallback advances frames until the callback returns false, the
// context is done or cfg.Frames is reached (0 means no limit).
func (s *Simulator) RunWithCallback(ctx context.Context, cfg Config, callback func(Frame) bool) error {
	scene := s.Scene()
	dt := scene.Params().Dt
	t := 0.0

	for i := 1; cfg.Frames == 0 || i <= cfg.Frames; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		s.stepper.Update()
		t += dt

		if cfg.ValidateState && !scene.IsFinite() {
			return SimError{Time: t, Frame: i, Message: "invalid state (NaN/Inf)", Wrapped: ErrInvalidState}
		}
		if !callback(Frame{Index: i, Time: t, Scene: scene, Collisions: s.stepper.LastCollisions()}) {
			return nil
		}
	}
	return nil
}

// Release hands the snapshots of r back to the simulator's pool.
func (s *Simulator) Release(r *Result) {
	if s.pool == nil || r == nil {
		return
	}
	for _, st := range r.States {
		s.pool.Put(st)
	}
	r.States = nil
}

func (s *Simulator) snapshot() State {
	scene := s.Scene()
	n := 2 * len(scene.Particles)
	if s.pool == nil || s.pool.Size() != n {
		s.pool = NewStatePool(n)
	}
	return State(scene.Positions(s.pool.Get()))
}

func validateConfig(cfg Config) error {
	if cfg.Frames <= 0 {
		return fmt.Errorf("%w: frames must be positive, got %d", ErrInvalidConfig, cfg.Frames)
	}
	if cfg.RecordEvery < 0 {
		return fmt.Errorf("%w: record_every must be non-negative, got %d", ErrInvalidConfig, cfg.RecordEvery)
	}
	return nil
}

func expectedRecords(cfg Config) int {
	if cfg.RecordEvery <= 0 {
		return 2
	}
	return cfg.Frames/cfg.RecordEvery + 2
}
