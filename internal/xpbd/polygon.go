package xpbd

import (
	"math"
	"slices"

	"github.com/san-kum/xpbd/internal/vec"
)

const DefaultPolygonColor = "#F2A30F"

// Polygon is a static closed loop. Points are in local space; Transformed is
// rotate-then-translate of every point and is kept in sync by the setters.
type Polygon struct {
	Points   []vec.Vec2
	Position vec.Vec2
	Rotation float64 // degrees
	Color    string

	transformed []vec.Vec2
}

// NewPolygon copies points and, if they run counter-clockwise on screen
// (negative shoelace area with y down), reverses them so every edge normal
// in ClosestPoint faces out. The first point stays first.
func NewPolygon(pos vec.Vec2, rotation float64, points []vec.Vec2) *Polygon {
	pts := make([]vec.Vec2, len(points))
	copy(pts, points)
	if SignedArea(pts) < 0 {
		slices.Reverse(pts[1:])
	}
	p := &Polygon{
		Points:   pts,
		Position: pos,
		Rotation: rotation,
		Color:    DefaultPolygonColor,
	}
	p.transform()
	return p
}

// SignedArea is the shoelace area of ring. It is positive for rings that run
// clockwise on a y-down screen.
func SignedArea(ring []vec.Vec2) float64 {
	n := len(ring)
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += ring[i].Cross(ring[(i+1)%n])
	}
	return sum / 2
}

func (p *Polygon) SetRotation(deg float64) {
	p.Rotation = deg
	p.transform()
}

func (p *Polygon) SetPosition(pos vec.Vec2) {
	p.Position = pos
	p.transform()
}

// Transformed returns the world-space ring. Callers must not modify it.
func (p *Polygon) Transformed() []vec.Vec2 {
	return p.transformed
}

func (p *Polygon) transform() {
	if cap(p.transformed) < len(p.Points) {
		p.transformed = make([]vec.Vec2, len(p.Points))
	}
	p.transformed = p.transformed[:len(p.Points)]
	for i, pt := range p.Points {
		p.transformed[i] = pt.RotateDeg(p.Rotation).Add(p.Position)
	}
}

// WindingAngle is the signed sum of angles subtended by each edge at pt.
// It is ±2π for interior points and ~0 for exterior ones.
func (p *Polygon) WindingAngle(pt vec.Vec2) float64 {
	ring := p.transformed
	n := len(ring)
	total := 0.0
	for i := 0; i < n; i++ {
		v1 := ring[i].Sub(pt)
		v2 := ring[(i+1)%n].Sub(pt)
		total += math.Atan2(v1.Cross(v2), v1.Dot(v2))
	}
	return total
}

func (p *Polygon) Contains(pt vec.Vec2) bool {
	return math.Abs(p.WindingAngle(pt)) > windingEpsilon
}

// closestPointOnSegment projects pt onto ab. Only perpendicular projections
// count: ok is false when the foot falls outside the segment.
func closestPointOnSegment(pt, a, b vec.Vec2) (vec.Vec2, bool) {
	ab := b.Sub(a)
	ab2 := ab.Dot(ab)
	if ab2 == 0 {
		return vec.Vec2{}, false
	}
	t := pt.Sub(a).Dot(ab) / ab2
	if t < 0 || t > 1 {
		return vec.Vec2{}, false
	}
	return a.Add(ab.Scale(t)), true
}

// ClosestPoint finds the nearest perpendicular projection of pt onto the
// polygon boundary and the outward normal of that edge. ok is false when no
// edge admits a perpendicular projection.
func (p *Polygon) ClosestPoint(pt vec.Vec2) (point, normal vec.Vec2, ok bool) {
	ring := p.transformed
	n := len(ring)
	best := math.Inf(1)
	for i := 0; i < n; i++ {
		a, b := ring[i], ring[(i+1)%n]
		cp, hit := closestPointOnSegment(pt, a, b)
		if !hit {
			continue
		}
		d := pt.Dist(cp)
		if d >= best {
			continue
		}
		t, valid := a.Sub(b).Unit()
		if !valid {
			continue
		}
		best = d
		point = cp
		normal = t.Perp()
		ok = true
	}
	return point, normal, ok
}
