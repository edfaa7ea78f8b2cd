package scene

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/xpbd/internal/vec"
	"github.com/san-kum/xpbd/internal/xpbd"
)

var (
	ErrUnknownLayout = errors.New("unknown scene layout")
	ErrInvalidBody   = errors.New("invalid body")
)

// Layout populates an empty scene.
type Layout func(s *xpbd.Scene) error

var layouts = map[string]Layout{
	"default": Default,
	"rope":    ropeLayout,
	"balloon": balloonLayout,
	"pile":    pileLayout,
	"empty":   func(*xpbd.Scene) error { return nil },
}

func Register(name string, l Layout) {
	layouts[name] = l
}

func Layouts() []string {
	names := make([]string, 0, len(layouts))
	for name := range layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply runs the named layout on s.
func Apply(s *xpbd.Scene, name string) error {
	l, ok := layouts[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownLayout, name)
	}
	return l(s)
}

// Default is the demo scene: a pinned anchor tied to two boxes, four boxes,
// a long rope, two wheels and two tilted square blocks.
func Default(s *xpbd.Scene) error {
	anchor := s.AddParticle(vec.New(800, 100), 0, 0)
	s.Particles[anchor].Color = PinnedColor

	var boxes [][]xpbd.ParticleID
	for _, at := range []vec.Vec2{{X: 900, Y: 100}, {X: 500, Y: 250}, {X: 700, Y: 250}, {X: 500, Y: 50}} {
		ids, err := Box2x2(s, at.X, at.Y, 50, 0)
		if err != nil {
			return err
		}
		boxes = append(boxes, ids)
	}
	if _, err := Rope(s, 200, 150, 20, 30, 0); err != nil {
		return err
	}
	if _, err := Wheel(s, 300, 250, 55, 8, WheelStiffness); err != nil {
		return err
	}
	if _, err := Wheel(s, 1100, 200, 55, 8, WheelStiffness); err != nil {
		return err
	}

	for _, rot := range []struct {
		at  vec.Vec2
		deg float64
	}{{vec.New(200, 400), 30}, {vec.New(600, 400), -30}} {
		if _, err := s.AddPolygon(rot.at, rot.deg, Square(300)); err != nil {
			return err
		}
	}

	if err := s.AddDistance(anchor, boxes[0][0], SpringStiffness); err != nil {
		return err
	}
	return s.AddDistance(anchor, boxes[1][0], SpringStiffness)
}

func ropeLayout(s *xpbd.Scene) error {
	if _, err := Rope(s, 200, 150, 25, 30, 0); err != nil {
		return err
	}
	_, err := Box2x2(s, 500, 20, 50, 0)
	return err
}

func balloonLayout(s *xpbd.Scene) error {
	if _, err := Balloon(s, 640, 200, 80, 16, 0, 1.2); err != nil {
		return err
	}
	_, err := s.AddPolygon(vec.New(490, 500), 10, Square(300))
	return err
}

func pileLayout(s *xpbd.Scene) error {
	for row := 0; row < 6; row++ {
		for col := 0; col < 14; col++ {
			x := 300 + float64(col)*40 + float64(row%2)*20
			y := 60 + float64(row)*40
			s.AddParticle(vec.New(x, y), s.Params().Mass, 0)
		}
	}
	for i := 0; i < 3; i++ {
		if _, err := Box2x2(s, 350+float64(i)*200, 320, 50, 0); err != nil {
			return err
		}
	}
	_, err := s.AddPolygon(vec.New(100, 450), -15, []vec.Vec2{
		vec.New(0, 0), vec.New(350, 0), vec.New(350, 30), vec.New(0, 30),
	})
	return err
}
