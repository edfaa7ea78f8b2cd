// Package vec provides the 2D vector value type shared by the solver,
// scene builders and renderers.
package vec

import "math"

// Vec2 is a 2D vector. The zero value is the origin.
type Vec2 struct {
	X, Y float64
}

func New(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

func (a Vec2) Add(b Vec2) Vec2 {
	return Vec2{a.X + b.X, a.Y + b.Y}
}

func (a Vec2) Sub(b Vec2) Vec2 {
	return Vec2{a.X - b.X, a.Y - b.Y}
}

func (a Vec2) Scale(s float64) Vec2 {
	return Vec2{a.X * s, a.Y * s}
}

// Div divides both components by s. Callers guard s != 0.
func (a Vec2) Div(s float64) Vec2 {
	return Vec2{a.X / s, a.Y / s}
}

func (a Vec2) Dot(b Vec2) float64 {
	return a.X*b.X + a.Y*b.Y
}

// Cross returns the z component of the 3D cross product.
func (a Vec2) Cross(b Vec2) float64 {
	return a.X*b.Y - a.Y*b.X
}

func (a Vec2) Len() float64 {
	return math.Sqrt(a.X*a.X + a.Y*a.Y)
}

func (a Vec2) LenSq() float64 {
	return a.X*a.X + a.Y*a.Y
}

func (a Vec2) Dist(b Vec2) float64 {
	return b.Sub(a).Len()
}

// Normalize returns the unit vector, or the zero vector when a has no length.
func (a Vec2) Normalize() Vec2 {
	l := a.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{a.X / l, a.Y / l}
}

// Unit is Normalize with an explicit degenerate flag.
func (a Vec2) Unit() (Vec2, bool) {
	l := a.Len()
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return Vec2{}, false
	}
	return Vec2{a.X / l, a.Y / l}, true
}

// Perp returns a rotated by +90 degrees: (-y, x).
func (a Vec2) Perp() Vec2 {
	return Vec2{-a.Y, a.X}
}

func (a Vec2) Negate() Vec2 {
	return Vec2{-a.X, -a.Y}
}

// Rotate rotates a by angle radians.
func (a Vec2) Rotate(angle float64) Vec2 {
	sin, cos := math.Sincos(angle)
	return Vec2{
		a.X*cos - a.Y*sin,
		a.X*sin + a.Y*cos,
	}
}

// RotateDeg rotates a by angle degrees.
func (a Vec2) RotateDeg(deg float64) Vec2 {
	return a.Rotate(deg * math.Pi / 180)
}

func (a Vec2) Lerp(b Vec2, t float64) Vec2 {
	return Vec2{a.X + (b.X-a.X)*t, a.Y + (b.Y-a.Y)*t}
}

// IsFinite reports whether neither component is NaN or infinite.
func (a Vec2) IsFinite() bool {
	return !math.IsNaN(a.X) && !math.IsNaN(a.Y) && !math.IsInf(a.X, 0) && !math.IsInf(a.Y, 0)
}

// Array returns the components as a fixed array, handy for yaml/json.
func (a Vec2) Array() [2]float64 {
	return [2]float64{a.X, a.Y}
}

func FromArray(v [2]float64) Vec2 {
	return Vec2{v[0], v[1]}
}
