package xpbd

import "github.com/san-kum/xpbd/internal/vec"

// Contact is an environment-collision constraint between one particle and a
// static surface. It is built by the Detector, solved once and dropped.
type Contact struct {
	Particle ParticleID
	Point    vec.Vec2 // point on the surface
	Normal   vec.Vec2 // unit, pointing out of the surface
	Mu       float64
}

// Solve pushes the particle out along Normal and applies Coulomb friction to
// its tangential displacement over the substep. It reports whether the
// particle was penetrating.
func (c Contact) Solve(ps []Particle) bool {
	p := &ps[c.Particle]
	w := p.InvMass
	if w == 0 {
		return false
	}

	pen := p.Position.Sub(c.Point).Dot(c.Normal)
	if pen >= 0 {
		return false
	}

	lambda := pen / w
	p.Position = p.Position.Sub(c.Normal.Scale(lambda * w))

	disp := p.Position.Sub(p.Previous)
	tangent := disp.Sub(c.Normal.Scale(disp.Dot(c.Normal)))
	tl := tangent.Len()
	if tl == 0 {
		return true
	}

	limit := c.Mu * -pen
	if tl <= limit {
		p.Position = p.Position.Sub(tangent)
	} else {
		p.Position = p.Position.Sub(tangent.Scale(limit / tl))
	}
	return true
}
