package xpbd

import (
	"fmt"
	"math"

	"github.com/san-kum/xpbd/internal/vec"
)

const (
	DefaultDt         = 0.002
	DefaultSubsteps   = 5
	DefaultMultiplier = 100.0
	DefaultMu         = 0.5
	DefaultRadius     = 15.0
	DefaultMass       = 1.0

	// windingEpsilon is the minimum |winding angle sum| for a point to count
	// as inside a polygon.
	windingEpsilon = 1e-6
)

var DefaultGravity = vec.New(0, 9.81)

// ParticleID is a handle into Scene.Particles.
type ParticleID int

// Probe selects which particle position the polygon containment test uses.
type Probe int

const (
	// ProbePrevious tests the position snapshotted before integration.
	ProbePrevious Probe = iota
	// ProbeCurrent tests the integrated, not yet collided position.
	ProbeCurrent
)

func (p Probe) String() string {
	switch p {
	case ProbeCurrent:
		return "current"
	default:
		return "previous"
	}
}

func ParseProbe(s string) (Probe, error) {
	switch s {
	case "", "previous":
		return ProbePrevious, nil
	case "current":
		return ProbeCurrent, nil
	}
	return ProbePrevious, fmt.Errorf("%w: unknown polygon probe %q", ErrInvalidParams, s)
}

// Bounds is the world extent used for boundary collision.
type Bounds struct {
	Width  float64
	Height float64
}

// Params is the scalar configuration of one run. It is fixed when the scene
// is created; constraints capture SubDt at construction.
type Params struct {
	Dt         float64
	Substeps   int
	Gravity    vec.Vec2
	Multiplier float64
	Mu         float64
	Radius     float64
	Mass       float64
	Probe      Probe
}

func DefaultParams() Params {
	return Params{
		Dt:         DefaultDt,
		Substeps:   DefaultSubsteps,
		Gravity:    DefaultGravity,
		Multiplier: DefaultMultiplier,
		Mu:         DefaultMu,
		Radius:     DefaultRadius,
		Mass:       DefaultMass,
		Probe:      ProbePrevious,
	}
}

// SubDt is the substep interval dt/substeps.
func (p Params) SubDt() float64 {
	return p.Dt / float64(p.Substeps)
}

// Compliance converts a stiffness value into XPBD compliance for this run.
func (p Params) Compliance(stiffness float64) float64 {
	h := p.SubDt()
	return stiffness / (h * h)
}

func (p Params) Validate() error {
	switch {
	case !(p.Dt > 0) || math.IsInf(p.Dt, 0):
		return fmt.Errorf("%w: dt must be positive, got %v", ErrInvalidParams, p.Dt)
	case p.Substeps < 1:
		return fmt.Errorf("%w: substeps must be >= 1, got %d", ErrInvalidParams, p.Substeps)
	case !(p.Multiplier > 0):
		return fmt.Errorf("%w: multiplier must be positive, got %v", ErrInvalidParams, p.Multiplier)
	case p.Mu < 0:
		return fmt.Errorf("%w: mu must be non-negative, got %v", ErrInvalidParams, p.Mu)
	case p.Radius < 0:
		return fmt.Errorf("%w: radius must be non-negative, got %v", ErrInvalidParams, p.Radius)
	case p.Mass < 0:
		return fmt.Errorf("%w: mass must be non-negative, got %v", ErrInvalidParams, p.Mass)
	case !p.Gravity.IsFinite():
		return fmt.Errorf("%w: gravity must be finite", ErrInvalidParams)
	}
	return nil
}
