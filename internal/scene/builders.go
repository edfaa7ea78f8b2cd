// Package scene assembles xpbd scenes from prefabricated bodies, named
// layouts, yaml configs and tengo scripts.
package scene

import (
	"fmt"
	"math"

	"github.com/san-kum/xpbd/internal/vec"
	"github.com/san-kum/xpbd/internal/xpbd"
)

const (
	PinnedColor = "#16B4F2"
	RopeColor   = "#155FBF"

	// WheelStiffness gives wheels a little give on impact.
	WheelStiffness = 1e-8
	// SpringStiffness is the editor's soft link.
	SpringStiffness = 1e-7
	// BalloonStiffness is the volume stiffness used by Balloon.
	BalloonStiffness = 1e-6
)

// Square returns the local points of an axis-aligned square with its first
// corner at the origin.
func Square(side float64) []vec.Vec2 {
	return []vec.Vec2{
		vec.New(0, 0),
		vec.New(side, 0),
		vec.New(side, side),
		vec.New(0, side),
	}
}

func linkAll(s *xpbd.Scene, pairs [][2]xpbd.ParticleID, stiffness float64) error {
	for _, p := range pairs {
		if err := s.AddDistance(p[0], p[1], stiffness); err != nil {
			return err
		}
	}
	return nil
}

// Box2x2 adds four particles on a size x size square linked along the edges
// and both diagonals.
func Box2x2(s *xpbd.Scene, x, y, size, stiffness float64) ([]xpbd.ParticleID, error) {
	m := s.Params().Mass
	p0 := s.AddParticle(vec.New(x, y), m, 0)
	p1 := s.AddParticle(vec.New(x+size, y), m, 0)
	p2 := s.AddParticle(vec.New(x, y+size), m, 0)
	p3 := s.AddParticle(vec.New(x+size, y+size), m, 0)

	err := linkAll(s, [][2]xpbd.ParticleID{
		{p0, p1}, {p0, p2}, {p1, p3}, {p2, p3}, {p0, p3}, {p1, p2},
	}, stiffness)
	return []xpbd.ParticleID{p0, p1, p2, p3}, err
}

// Rope adds count particles in a horizontal line, pins both ends and links
// neighbours.
func Rope(s *xpbd.Scene, x, y float64, count int, spacing, stiffness float64) ([]xpbd.ParticleID, error) {
	if count < 2 {
		return nil, fmt.Errorf("%w: rope needs at least 2 particles, got %d", ErrInvalidBody, count)
	}
	m := s.Params().Mass
	ids := make([]xpbd.ParticleID, count)
	for i := range ids {
		end := i == 0 || i == count-1
		mass, color := m, RopeColor
		if end {
			mass, color = 0, PinnedColor
		}
		ids[i] = s.AddParticle(vec.New(x+float64(i)*spacing, y), mass, 0)
		s.Particles[ids[i]].Color = color
	}
	for i := 1; i < count; i++ {
		if err := s.AddDistance(ids[i-1], ids[i], stiffness); err != nil {
			return ids, err
		}
	}
	return ids, nil
}

func ring(s *xpbd.Scene, x, y, radius float64, segments int) []xpbd.ParticleID {
	m := s.Params().Mass
	ids := make([]xpbd.ParticleID, segments)
	for i := range ids {
		angle := float64(i) / float64(segments) * 2 * math.Pi
		sin, cos := math.Sincos(angle)
		ids[i] = s.AddParticle(vec.New(x+cos*radius, y+sin*radius), m, 0)
	}
	return ids
}

func linkRing(s *xpbd.Scene, ids []xpbd.ParticleID, stiffness float64) error {
	n := len(ids)
	for i := 0; i < n; i++ {
		if err := s.AddDistance(ids[i], ids[(i+1)%n], stiffness); err != nil {
			return err
		}
	}
	return nil
}

// Wheel adds a rim of segments particles and a free hub linked to every rim
// particle. The hub is the last id returned.
func Wheel(s *xpbd.Scene, x, y, radius float64, segments int, stiffness float64) ([]xpbd.ParticleID, error) {
	if segments < 3 {
		return nil, fmt.Errorf("%w: wheel needs at least 3 segments, got %d", ErrInvalidBody, segments)
	}
	rim := ring(s, x, y, radius, segments)
	if err := linkRing(s, rim, stiffness); err != nil {
		return rim, err
	}
	hub := s.AddParticle(vec.New(x, y), s.Params().Mass, 0)
	for _, id := range rim {
		if err := s.AddDistance(hub, id, stiffness); err != nil {
			return rim, err
		}
	}
	return append(rim, hub), nil
}

// Balloon adds a ring of segments particles linked along the rim and held
// open by a volume constraint at pressure times its rest area.
func Balloon(s *xpbd.Scene, x, y, radius float64, segments int, stiffness, pressure float64) ([]xpbd.ParticleID, error) {
	if segments < 3 {
		return nil, fmt.Errorf("%w: balloon needs at least 3 segments, got %d", ErrInvalidBody, segments)
	}
	ids := ring(s, x, y, radius, segments)
	for _, id := range ids {
		s.Particles[id].Color = PinnedColor
	}
	if err := s.AddVolume(ids, BalloonStiffness, pressure); err != nil {
		return ids, err
	}
	return ids, linkRing(s, ids, stiffness)
}
