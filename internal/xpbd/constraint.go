package xpbd

import (
	"math"

	"github.com/san-kum/xpbd/internal/vec"
)

// DistanceConstraint keeps two particles at the distance they had when the
// constraint was created. Stiffness 0 is a rigid rod; larger is softer.
type DistanceConstraint struct {
	A, B       ParticleID
	RestLength float64
	Stiffness  float64
	Compliance float64
	Color      string
}

func newDistanceConstraint(ps []Particle, a, b ParticleID, stiffness, dtSub float64) DistanceConstraint {
	return DistanceConstraint{
		A:          a,
		B:          b,
		RestLength: ps[a].Position.Dist(ps[b].Position),
		Stiffness:  stiffness,
		Compliance: stiffness / (dtSub * dtSub),
		Color:      "#F2B90F",
	}
}

// Error is the signed violation |B-A| - RestLength.
func (c *DistanceConstraint) Error(ps []Particle) float64 {
	return ps[c.A].Position.Dist(ps[c.B].Position) - c.RestLength
}

func (c *DistanceConstraint) Solve(ps []Particle) {
	pa, pb := &ps[c.A], &ps[c.B]

	d := pb.Position.Sub(pa.Position)
	l := d.Len()
	if l == 0 {
		return
	}
	denom := pa.InvMass + pb.InvMass + c.Compliance
	if denom == 0 {
		return
	}

	n := d.Div(l)
	lambda := (l - c.RestLength) / denom
	pa.Position = pa.Position.Add(n.Scale(lambda * pa.InvMass))
	pb.Position = pb.Position.Sub(n.Scale(lambda * pb.InvMass))
}

// VolumeConstraint preserves the signed area enclosed by a ring of particles,
// which makes the ring behave like an inflated membrane.
type VolumeConstraint struct {
	Ring       []ParticleID
	RestArea   float64
	Pressure   float64
	Stiffness  float64
	Compliance float64

	grad []vec.Vec2
}

func newVolumeConstraint(ps []Particle, ring []ParticleID, stiffness, pressure, dtSub float64) VolumeConstraint {
	r := make([]ParticleID, len(ring))
	copy(r, ring)
	c := VolumeConstraint{
		Ring:       r,
		Pressure:   pressure,
		Stiffness:  stiffness,
		Compliance: stiffness / (dtSub * dtSub),
		grad:       make([]vec.Vec2, len(ring)),
	}
	c.RestArea = c.Area(ps)
	return c
}

// Area is the signed shoelace area of the ring.
func (c *VolumeConstraint) Area(ps []Particle) float64 {
	n := len(c.Ring)
	sum := 0.0
	for i := 0; i < n; i++ {
		p := ps[c.Ring[i]].Position
		q := ps[c.Ring[(i+1)%n]].Position
		sum += p.Cross(q)
	}
	return 0.5 * sum
}

// TargetArea is the area the constraint drives the ring towards.
func (c *VolumeConstraint) TargetArea() float64 {
	return c.RestArea * c.Pressure
}

func (c *VolumeConstraint) Solve(ps []Particle) {
	n := len(c.Ring)
	if n < 3 {
		return
	}
	if len(c.grad) != n {
		c.grad = make([]vec.Vec2, n)
	}

	C := c.Area(ps) - c.TargetArea()

	denom := c.Compliance
	for i := 0; i < n; i++ {
		prev := ps[c.Ring[(i+n-1)%n]].Position
		next := ps[c.Ring[(i+1)%n]].Position
		g := vec.New(0.5*(next.Y-prev.Y), 0.5*(prev.X-next.X))
		c.grad[i] = g
		denom += ps[c.Ring[i]].InvMass * g.LenSq()
	}
	if denom == 0 || math.IsNaN(denom) {
		return
	}

	lambda := -C / denom
	for i, id := range c.Ring {
		p := &ps[id]
		if p.InvMass == 0 {
			continue
		}
		p.Position = p.Position.Add(c.grad[i].Scale(lambda * p.InvMass))
	}
}

// DragConstraint pulls one particle towards an externally driven target.
type DragConstraint struct {
	Particle   ParticleID
	Target     vec.Vec2
	Stiffness  float64
	Compliance float64
}

func (c *DragConstraint) Solve(ps []Particle) {
	p := &ps[c.Particle]
	if p.InvMass == 0 {
		return
	}

	d := c.Target.Sub(p.Position)
	l := d.Len()
	if l == 0 {
		return
	}

	lambda := l / (p.InvMass + c.Compliance)
	p.Position = p.Position.Add(d.Div(l).Scale(lambda * p.InvMass))
}
