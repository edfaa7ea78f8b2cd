package xpbd

import (
	"fmt"

	"github.com/san-kum/xpbd/internal/vec"
)

// Scene owns every particle and every constraint, polygon and bound that the
// stepper works on. Constraints hold ParticleIDs into Particles.
//
// Between frames an editor may append to any of the slices or change Drag;
// the stepper re-reads them every substep.
type Scene struct {
	Particles []Particle
	Distances []DistanceConstraint
	Volumes   []VolumeConstraint
	Polygons  []*Polygon
	Drag      *DragConstraint
	Bounds    *Bounds
	Paused    bool

	params Params
}

func NewScene(p Params) (*Scene, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Scene{params: p}, nil
}

func (s *Scene) Params() Params { return s.params }

// SetBounds enables boundary collision. Pass nil to disable it.
func (s *Scene) SetBounds(b *Bounds) { s.Bounds = b }

func (s *Scene) valid(id ParticleID) bool {
	return id >= 0 && int(id) < len(s.Particles)
}

// AddParticle appends a particle and returns its id. A radius <= 0 falls
// back to the scene default.
func (s *Scene) AddParticle(pos vec.Vec2, mass, radius float64) ParticleID {
	if radius <= 0 {
		radius = s.params.Radius
	}
	s.Particles = append(s.Particles, NewParticle(pos, mass, radius))
	return ParticleID(len(s.Particles) - 1)
}

// AddDistance links two particles at their current separation.
func (s *Scene) AddDistance(a, b ParticleID, stiffness float64) error {
	idx := len(s.Distances)
	switch {
	case !s.valid(a):
		return &BuildError{Kind: "distance", Index: idx, Wrapped: fmt.Errorf("%w: %d", ErrUnknownParticle, a)}
	case !s.valid(b):
		return &BuildError{Kind: "distance", Index: idx, Wrapped: fmt.Errorf("%w: %d", ErrUnknownParticle, b)}
	case a == b:
		return &BuildError{Kind: "distance", Index: idx, Wrapped: ErrDuplicateParticle}
	case stiffness < 0:
		return &BuildError{Kind: "distance", Index: idx, Wrapped: fmt.Errorf("%w: negative stiffness", ErrInvalidParams)}
	}
	s.Distances = append(s.Distances, newDistanceConstraint(s.Particles, a, b, stiffness, s.params.SubDt()))
	return nil
}

// AddVolume preserves the area enclosed by ring, scaled by pressure.
func (s *Scene) AddVolume(ring []ParticleID, stiffness, pressure float64) error {
	idx := len(s.Volumes)
	if len(ring) < 3 {
		return &BuildError{Kind: "volume", Index: idx, Wrapped: ErrDegenerateRing}
	}
	for _, id := range ring {
		if !s.valid(id) {
			return &BuildError{Kind: "volume", Index: idx, Wrapped: fmt.Errorf("%w: %d", ErrUnknownParticle, id)}
		}
	}
	if stiffness < 0 {
		return &BuildError{Kind: "volume", Index: idx, Wrapped: fmt.Errorf("%w: negative stiffness", ErrInvalidParams)}
	}
	if pressure <= 0 {
		pressure = 1
	}
	s.Volumes = append(s.Volumes, newVolumeConstraint(s.Particles, ring, stiffness, pressure, s.params.SubDt()))
	return nil
}

// AddPolygon appends static geometry in world space.
func (s *Scene) AddPolygon(pos vec.Vec2, rotation float64, points []vec.Vec2) (*Polygon, error) {
	if len(points) < 3 {
		return nil, &BuildError{Kind: "polygon", Index: len(s.Polygons), Wrapped: ErrDegeneratePolygon}
	}
	poly := NewPolygon(pos, rotation, points)
	s.Polygons = append(s.Polygons, poly)
	return poly, nil
}

// StartDrag attaches the drag constraint to id, replacing any previous one.
func (s *Scene) StartDrag(id ParticleID, target vec.Vec2, stiffness float64) error {
	if !s.valid(id) {
		return &BuildError{Kind: "drag", Index: 0, Wrapped: fmt.Errorf("%w: %d", ErrUnknownParticle, id)}
	}
	s.Drag = &DragConstraint{
		Particle:   id,
		Target:     target,
		Stiffness:  stiffness,
		Compliance: s.params.Compliance(stiffness),
	}
	return nil
}

// MoveDrag retargets the active drag constraint, if any.
func (s *Scene) MoveDrag(target vec.Vec2) {
	if s.Drag != nil {
		s.Drag.Target = target
	}
}

func (s *Scene) StopDrag() { s.Drag = nil }

// ParticleAt returns the particle whose disc contains pt.
func (s *Scene) ParticleAt(pt vec.Vec2) (ParticleID, bool) {
	for i := range s.Particles {
		p := &s.Particles[i]
		if p.Position.Dist(pt) < p.Radius {
			return ParticleID(i), true
		}
	}
	return -1, false
}

// IsFinite reports whether every particle is free of NaN/Inf.
func (s *Scene) IsFinite() bool {
	for i := range s.Particles {
		if !s.Particles[i].IsFinite() {
			return false
		}
	}
	return true
}

// Positions flattens particle positions as x0, y0, x1, y1, ... into dst.
func (s *Scene) Positions(dst []float64) []float64 {
	dst = dst[:0]
	for i := range s.Particles {
		p := s.Particles[i].Position
		dst = append(dst, p.X, p.Y)
	}
	return dst
}

// Validate re-checks every constraint reference. Builders call it once after
// a scene has been assembled from external input.
func (s *Scene) Validate() error {
	for i, c := range s.Distances {
		if !s.valid(c.A) || !s.valid(c.B) {
			return &BuildError{Kind: "distance", Index: i, Wrapped: ErrUnknownParticle}
		}
	}
	for i, c := range s.Volumes {
		if len(c.Ring) < 3 {
			return &BuildError{Kind: "volume", Index: i, Wrapped: ErrDegenerateRing}
		}
		for _, id := range c.Ring {
			if !s.valid(id) {
				return &BuildError{Kind: "volume", Index: i, Wrapped: ErrUnknownParticle}
			}
		}
	}
	if s.Drag != nil && !s.valid(s.Drag.Particle) {
		return &BuildError{Kind: "drag", Index: 0, Wrapped: ErrUnknownParticle}
	}
	return nil
}
