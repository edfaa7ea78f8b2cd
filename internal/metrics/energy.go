package metrics

import (
	"math"

	"github.com/san-kum/xpbd/internal/sim"
	"github.com/san-kum/xpbd/internal/xpbd"
)

// Kinetic sums 1/2 m |v|^2 over the free particles of s.
func Kinetic(s *xpbd.Scene) float64 {
	ke := 0.0
	for i := range s.Particles {
		p := &s.Particles[i]
		if p.Pinned() {
			continue
		}
		ke += 0.5 * p.Mass * p.Velocity.LenSq()
	}
	return ke
}

// Potential is the gravitational energy of the free particles of s with the
// origin as reference: -m g.p summed.
func Potential(s *xpbd.Scene) float64 {
	g := s.Params().Gravity
	pe := 0.0
	for i := range s.Particles {
		p := &s.Particles[i]
		if p.Pinned() {
			continue
		}
		pe -= p.Mass * g.Dot(p.Position)
	}
	return pe
}

// KineticEnergy is the mean kinetic energy over the observed frames.
type KineticEnergy struct {
	name    string
	samples int
	total   float64
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (e *KineticEnergy) Name() string { return e.name }

func (e *KineticEnergy) Observe(f sim.Frame) {
	e.total += Kinetic(f.Scene)
	e.samples++
}

func (e *KineticEnergy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *KineticEnergy) Reset() {
	e.total = 0
	e.samples = 0
}

// EnergyDrift is the largest relative change in kinetic plus potential
// energy seen against the first observed frame.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(f sim.Frame) {
	energy := Kinetic(f.Scene) + Potential(f.Scene)

	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
