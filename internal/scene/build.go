package scene

import (
	"context"
	"fmt"

	"github.com/san-kum/xpbd/internal/config"
	"github.com/san-kum/xpbd/internal/vec"
	"github.com/san-kum/xpbd/internal/xpbd"
)

// Build creates a scene from cfg: the named layout first, then the script,
// then the explicit particles, links, bodies, volumes and polygons.
func Build(ctx context.Context, cfg *config.Config) (*xpbd.Scene, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	params, err := cfg.Params()
	if err != nil {
		return nil, err
	}
	s, err := xpbd.NewScene(params)
	if err != nil {
		return nil, err
	}
	s.SetBounds(cfg.XPBDBounds())

	if cfg.Scene != "" {
		if err := Apply(s, cfg.Scene); err != nil {
			return nil, err
		}
	}
	if cfg.Script != "" {
		if err := RunScriptFile(ctx, s, cfg.Script); err != nil {
			return nil, err
		}
	}
	if err := Populate(s, cfg); err != nil {
		return nil, err
	}
	return s, s.Validate()
}

// Populate appends the explicit scene description of cfg to s.
func Populate(s *xpbd.Scene, cfg *config.Config) error {
	for _, pc := range cfg.Particles {
		mass := cfg.Mass
		if pc.Mass != nil {
			mass = *pc.Mass
		}
		if pc.Pinned {
			mass = 0
		}
		id := s.AddParticle(vec.New(pc.X, pc.Y), mass, pc.Radius)
		if mass == 0 {
			s.Particles[id].Color = PinnedColor
		}
	}
	for _, lc := range cfg.Links {
		if err := s.AddDistance(xpbd.ParticleID(lc.A), xpbd.ParticleID(lc.B), lc.Stiffness); err != nil {
			return err
		}
	}
	for i, bc := range cfg.Bodies {
		if err := addBody(s, bc); err != nil {
			return fmt.Errorf("body %d: %w", i, err)
		}
	}
	for _, vc := range cfg.Volumes {
		ring := make([]xpbd.ParticleID, len(vc.Ring))
		for i, id := range vc.Ring {
			ring[i] = xpbd.ParticleID(id)
		}
		if err := s.AddVolume(ring, vc.Stiffness, vc.Pressure); err != nil {
			return err
		}
	}
	for _, pc := range cfg.Polygons {
		pts := make([]vec.Vec2, len(pc.Points))
		for i, p := range pc.Points {
			pts[i] = vec.FromArray(p)
		}
		if _, err := s.AddPolygon(vec.New(pc.X, pc.Y), pc.Rotation, pts); err != nil {
			return err
		}
	}
	return nil
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func orDefaultInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func addBody(s *xpbd.Scene, bc config.BodyConfig) error {
	var err error
	switch bc.Kind {
	case "box":
		_, err = Box2x2(s, bc.X, bc.Y, orDefault(bc.Size, 50), bc.Stiffness)
	case "rope":
		_, err = Rope(s, bc.X, bc.Y, orDefaultInt(bc.Count, 10), orDefault(bc.Size, 30), bc.Stiffness)
	case "wheel":
		_, err = Wheel(s, bc.X, bc.Y, orDefault(bc.Size, 50), orDefaultInt(bc.Count, 8), bc.Stiffness)
	case "balloon":
		_, err = Balloon(s, bc.X, bc.Y, orDefault(bc.Size, 50), orDefaultInt(bc.Count, 12), bc.Stiffness, orDefault(bc.Pressure, 1))
	default:
		err = fmt.Errorf("%w: unknown kind %q", ErrInvalidBody, bc.Kind)
	}
	return err
}
