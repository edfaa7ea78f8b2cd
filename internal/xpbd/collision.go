package xpbd

import "github.com/san-kum/xpbd/internal/vec"

// CollisionStats counts what the detector resolved during one substep.
type CollisionStats struct {
	Boundary int
	Polygon  int
	Pairs    int
}

func (c *CollisionStats) add(o CollisionStats) {
	c.Boundary += o.Boundary
	c.Polygon += o.Polygon
	c.Pairs += o.Pairs
}

func (c CollisionStats) Total() int { return c.Boundary + c.Polygon + c.Pairs }

// Detector finds boundary, polygon and particle-particle penetrations and
// resolves each one immediately. The three checks are independent.
type Detector struct {
	Mu    float64
	Probe Probe
}

func NewDetector(p Params) *Detector {
	return &Detector{Mu: p.Mu, Probe: p.Probe}
}

// Resolve runs all three checks against the scene.
func (d *Detector) Resolve(s *Scene) CollisionStats {
	var st CollisionStats
	for i := range s.Particles {
		id := ParticleID(i)
		if s.Bounds != nil && d.Boundary(s.Particles, id, *s.Bounds) {
			st.Boundary++
		}
		st.Polygon += d.Polygons(s.Particles, id, s.Polygons)
	}
	st.Pairs = d.Pairs(s.Particles)
	return st
}

// Boundary clamps the particle into the extent on x and the top edge, and
// resolves the floor through a frictional contact. Pinned particles are left
// where they are.
func (d *Detector) Boundary(ps []Particle, id ParticleID, b Bounds) bool {
	p := &ps[id]
	if p.InvMass == 0 {
		return false
	}
	r := p.Radius
	hit := false

	if p.Position.X > b.Width-r {
		p.Position.X = b.Width - r
		hit = true
	}
	if p.Position.X < r {
		p.Position.X = r
		hit = true
	}
	if p.Position.Y < r {
		p.Position.Y = r
		hit = true
	}

	if p.Position.Y > b.Height-r {
		c := Contact{
			Particle: id,
			Point:    vec.New(p.Previous.X, b.Height-r),
			Normal:   vec.New(0, -1),
			Mu:       d.Mu,
		}
		if c.Solve(ps) {
			hit = true
		}
	}
	return hit
}

// Polygons resolves the particle against every polygon containing its probe
// point and returns the number of contacts solved.
func (d *Detector) Polygons(ps []Particle, id ParticleID, polys []*Polygon) int {
	n := 0
	for _, poly := range polys {
		p := &ps[id]
		probe := p.Previous
		if d.Probe == ProbeCurrent {
			probe = p.Position
		}
		if !poly.Contains(probe) {
			continue
		}
		point, normal, ok := poly.ClosestPoint(p.Previous)
		if !ok {
			continue
		}
		c := Contact{Particle: id, Point: point, Normal: normal, Mu: d.Mu}
		if c.Solve(ps) {
			n++
		}
	}
	return n
}

// Pairs pushes every overlapping pair apart to exactly touching, once per
// pair, and returns the number of pairs corrected.
func (d *Detector) Pairs(ps []Particle) int {
	n := 0
	for i := 0; i < len(ps); i++ {
		for j := i + 1; j < len(ps); j++ {
			if resolvePair(&ps[i], &ps[j]) {
				n++
			}
		}
	}
	return n
}

func resolvePair(a, b *Particle) bool {
	minDist := a.Radius + b.Radius
	delta := b.Position.Sub(a.Position)
	distSq := delta.LenSq()
	if distSq >= minDist*minDist {
		return false
	}

	w := a.InvMass + b.InvMass
	dist := delta.Len()
	if dist == 0 || w == 0 {
		return false
	}

	n := delta.Div(dist)
	lambda := (dist - minDist) / w
	a.Position = a.Position.Add(n.Scale(lambda * a.InvMass))
	b.Position = b.Position.Sub(n.Scale(lambda * b.InvMass))
	return true
}
