package sim

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync/atomic"
	"testing"

	"github.com/san-kum/xpbd/internal/vec"
	"github.com/san-kum/xpbd/internal/xpbd"
)

func dropScene(t testing.TB) *xpbd.Scene {
	t.Helper()
	s, err := xpbd.NewScene(xpbd.DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	s.SetBounds(&xpbd.Bounds{Width: 800, Height: 600})
	s.AddParticle(vec.New(400, 100), 1, 15)
	return s
}

type testMetric struct {
	count int
	sum   float64
}

func (t *testMetric) Name() string { return "test" }
func (t *testMetric) Observe(f Frame) {
	t.count++
	t.sum += f.Scene.Particles[0].Position.Y
}
func (t *testMetric) Value() float64 {
	if t.count == 0 {
		return 0
	}
	return t.sum / float64(t.count)
}
func (t *testMetric) Reset() {
	t.count = 0
	t.sum = 0
}

func TestSimulatorRun(t *testing.T) {
	sim := New(dropScene(t))

	cfg := Config{Frames: 300, RecordEvery: 10, ValidateState: true}
	result, err := sim.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.States) != 31 {
		t.Errorf("expected 31 states, got %d", len(result.States))
	}
	if len(result.Times) != len(result.States) || len(result.Frames) != len(result.States) {
		t.Errorf("times/frames out of step with states")
	}
	if result.FramesRun != 300 {
		t.Errorf("expected 300 frames, got %d", result.FramesRun)
	}
	if math.Abs(result.Times[len(result.Times)-1]-300*xpbd.DefaultDt) > 1e-9 {
		t.Errorf("unexpected final time %v", result.Times[len(result.Times)-1])
	}

	final := result.Final().Particle(0)
	if math.Abs(final.Y-585) > 1e-6 {
		t.Errorf("expected particle resting at 585, got %v", final.Y)
	}
	if result.Collisions.Boundary == 0 {
		t.Error("expected boundary collisions")
	}
}

func TestSimulatorRecordEvery(t *testing.T) {
	tests := []struct {
		name        string
		frames      int
		recordEvery int
		want        []int
	}{
		{"every frame", 3, 1, []int{0, 1, 2, 3}},
		{"endpoints only", 20, 0, []int{0, 20}},
		{"uneven", 20, 7, []int{0, 7, 14, 20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := New(dropScene(t))
			result, err := sim.Run(context.Background(), Config{Frames: tt.frames, RecordEvery: tt.recordEvery})
			if err != nil {
				t.Fatal(err)
			}
			if len(result.Frames) != len(tt.want) {
				t.Fatalf("recorded frames %v, want %v", result.Frames, tt.want)
			}
			for i := range tt.want {
				if result.Frames[i] != tt.want[i] {
					t.Errorf("recorded frames %v, want %v", result.Frames, tt.want)
					break
				}
			}
		})
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	sim := New(dropScene(t))

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero frames", Config{Frames: 0}},
		{"negative frames", Config{Frames: -1}},
		{"negative record_every", Config{Frames: 10, RecordEvery: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sim.Run(context.Background(), tt.cfg)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestSimulatorMetricsAndObservers(t *testing.T) {
	sim := New(dropScene(t))

	metric := &testMetric{}
	sim.AddMetric(metric)
	observed := 0
	sim.AddObserver(ObserverFunc(func(f Frame) { observed++ }))

	result, err := sim.Run(context.Background(), Config{Frames: 10, RecordEvery: 1})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if _, ok := result.Metrics["test"]; !ok {
		t.Error("metric not found in result")
	}
	if metric.count != 10 {
		t.Errorf("expected 10 observations, got %d", metric.count)
	}
	if observed != 10 {
		t.Errorf("expected 10 observer calls, got %d", observed)
	}
}

func TestSimulatorCanceled(t *testing.T) {
	sim := New(dropScene(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := sim.Run(ctx, Config{Frames: 100, RecordEvery: 1})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result.FramesRun != 0 || len(result.States) != 1 {
		t.Errorf("expected only the initial snapshot, got %d frames / %d states", result.FramesRun, len(result.States))
	}
}

func TestSimulatorValidateState(t *testing.T) {
	scene := dropScene(t)
	scene.Particles[0].Position = vec.New(math.NaN(), 0)
	sim := New(scene)

	result, err := sim.Run(context.Background(), Config{Frames: 10, RecordEvery: 1, ValidateState: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Errors) != 1 || !errors.Is(result.Errors[0], ErrInvalidState) {
		t.Fatalf("expected one invalid state error, got %v", result.Errors)
	}
	if result.FramesRun != 1 {
		t.Errorf("expected run to stop after 1 frame, got %d", result.FramesRun)
	}
}

func TestSimulatorRunWithCallback(t *testing.T) {
	sim := New(dropScene(t))

	calls := 0
	err := sim.RunWithCallback(context.Background(), Config{}, func(f Frame) bool {
		calls++
		return f.Index < 5
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 5 {
		t.Errorf("expected 5 callbacks, got %d", calls)
	}
	if sim.Stepper().Frames() != 5 {
		t.Errorf("expected 5 frames, got %d", sim.Stepper().Frames())
	}
}

func TestSimulatorRelease(t *testing.T) {
	sim := New(dropScene(t))
	result, err := sim.Run(context.Background(), Config{Frames: 5, RecordEvery: 1})
	if err != nil {
		t.Fatal(err)
	}
	sim.Release(result)
	if result.States != nil {
		t.Error("Release should drop the snapshots")
	}
}

func TestEnsemble(t *testing.T) {
	var built int32
	factory := func(ctx context.Context, seed int64) (*xpbd.Scene, error) {
		atomic.AddInt32(&built, 1)
		s := dropScene(t)
		Jitter(s, rand.New(rand.NewSource(seed)), 5)
		return s, nil
	}
	newMetrics := func() []Metric { return []Metric{&testMetric{}} }

	ens := NewEnsemble(factory, newMetrics, 4, 1)
	results, err := ens.Run(context.Background(), Config{Frames: 50, RecordEvery: 0})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 4 || built != 4 {
		t.Fatalf("expected 4 runs, got %d results from %d scenes", len(results), built)
	}
	for i, r := range results {
		if r.FramesRun != 50 {
			t.Errorf("run %d: expected 50 frames, got %d", i, r.FramesRun)
		}
		if _, ok := r.Metrics["test"]; !ok {
			t.Errorf("run %d: missing metric", i)
		}
	}
	if results[0].States[0].Particle(0) == results[1].States[0].Particle(0) {
		t.Error("different seeds should jitter differently")
	}
}

func TestEnsembleFactoryError(t *testing.T) {
	boom := errors.New("boom")
	ens := NewEnsemble(func(context.Context, int64) (*xpbd.Scene, error) { return nil, boom }, nil, 2, 0)
	if _, err := ens.Run(context.Background(), Config{Frames: 1}); !errors.Is(err, boom) {
		t.Errorf("expected factory error, got %v", err)
	}
}

func TestJitter(t *testing.T) {
	s := dropScene(t)
	pin := s.AddParticle(vec.New(10, 10), 0, 5)
	Jitter(s, rand.New(rand.NewSource(42)), 3)

	p := s.Particles[0]
	if math.Abs(p.Position.X-400) > 3 || math.Abs(p.Position.Y-100) > 3 {
		t.Errorf("jitter out of range: %+v", p.Position)
	}
	if p.Previous != p.Position {
		t.Error("jitter should not introduce velocity")
	}
	if s.Particles[pin].Position != vec.New(10, 10) {
		t.Error("jitter moved a pinned particle")
	}
}

func TestParallelFor(t *testing.T) {
	for _, n := range []int{0, 1, 7, 100, 1001} {
		seen := make([]int32, n)
		ParallelFor(n, 8, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&seen[i], 1)
			}
		})
		for i, c := range seen {
			if c != 1 {
				t.Errorf("n=%d: index %d visited %d times", n, i, c)
				break
			}
		}
	}
}
