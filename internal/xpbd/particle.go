package xpbd

import "github.com/san-kum/xpbd/internal/vec"

const DefaultColor = "#D91424"

// Particle is a point mass. Mass 0 means pinned (infinite mass).
type Particle struct {
	Position vec.Vec2
	Previous vec.Vec2
	Velocity vec.Vec2
	Mass     float64
	InvMass  float64
	Radius   float64
	Color    string
}

func NewParticle(pos vec.Vec2, mass, radius float64) Particle {
	p := Particle{
		Position: pos,
		Previous: pos,
		Radius:   radius,
		Color:    DefaultColor,
	}
	p.SetMass(mass)
	return p
}

// SetMass updates mass and the derived inverse mass.
func (p *Particle) SetMass(m float64) {
	if m <= 0 {
		p.Mass, p.InvMass = 0, 0
		return
	}
	p.Mass, p.InvMass = m, 1/m
}

func (p *Particle) Pinned() bool { return p.InvMass == 0 }

func (p *Particle) IsFinite() bool {
	return p.Position.IsFinite() && p.Previous.IsFinite() && p.Velocity.IsFinite()
}
