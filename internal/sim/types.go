package sim

import (
	"errors"
	"fmt"

	"github.com/san-kum/xpbd/internal/vec"
	"github.com/san-kum/xpbd/internal/xpbd"
)

var (
	// ErrInvalidState indicates a particle position, previous position or
	// velocity became NaN or Inf.
	ErrInvalidState = errors.New("sim: invalid state (NaN or Inf detected)")

	// ErrInvalidConfig indicates run settings outside their valid range.
	ErrInvalidConfig = errors.New("sim: invalid run config")
)

// State is a flattened snapshot of particle positions: x0, y0, x1, y1, ...
type State []float64

// Particles is the number of particles in the snapshot.
func (s State) Particles() int { return len(s) / 2 }

func (s State) Particle(i int) vec.Vec2 {
	return vec.New(s[2*i], s[2*i+1])
}

// Frame is what metrics and observers see after each advanced frame. Scene
// is live; hold on to copies, not the pointer.
type Frame struct {
	Index      int
	Time       float64
	Scene      *xpbd.Scene
	Collisions xpbd.CollisionStats
}

type Metric interface {
	Name() string
	Observe(f Frame)
	Value() float64
	Reset()
}

type Observer interface {
	OnFrame(f Frame)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(f Frame)

func (fn ObserverFunc) OnFrame(f Frame) { fn(f) }

type Config struct {
	Frames int
	// RecordEvery keeps one snapshot every N frames. The first and last
	// frames are always kept; 0 keeps only those.
	RecordEvery   int
	ValidateState bool
	Seed          int64
}

func DefaultConfig() Config {
	return Config{
		Frames:        600,
		RecordEvery:   1,
		ValidateState: true,
	}
}

type Result struct {
	States     []State
	Frames     []int
	Times      []float64
	Metrics    map[string]float64
	FramesRun  int
	Collisions xpbd.CollisionStats
	Errors     []error
}

// Final returns the last recorded snapshot.
func (r *Result) Final() State {
	if len(r.States) == 0 {
		return nil
	}
	return r.States[len(r.States)-1]
}

type SimError struct {
	Time    float64
	Frame   int
	Message string
	Wrapped error
}

func (e SimError) Error() string {
	return fmt.Sprintf("frame %d (t=%.4f): %s", e.Frame, e.Time, e.Message)
}

func (e SimError) Unwrap() error { return e.Wrapped }
