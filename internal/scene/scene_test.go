package scene

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/xpbd/internal/config"
	"github.com/san-kum/xpbd/internal/vec"
	"github.com/san-kum/xpbd/internal/xpbd"
)

func newScene(t *testing.T) *xpbd.Scene {
	t.Helper()
	s, err := xpbd.NewScene(xpbd.DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestBodies(t *testing.T) {
	tests := []struct {
		name      string
		build     func(s *xpbd.Scene) ([]xpbd.ParticleID, error)
		particles int
		distances int
		volumes   int
	}{
		{"box", func(s *xpbd.Scene) ([]xpbd.ParticleID, error) { return Box2x2(s, 0, 0, 50, 0) }, 4, 6, 0},
		{"rope", func(s *xpbd.Scene) ([]xpbd.ParticleID, error) { return Rope(s, 0, 0, 10, 30, 0) }, 10, 9, 0},
		{"wheel", func(s *xpbd.Scene) ([]xpbd.ParticleID, error) { return Wheel(s, 0, 0, 50, 8, 0) }, 9, 16, 0},
		{"balloon", func(s *xpbd.Scene) ([]xpbd.ParticleID, error) { return Balloon(s, 0, 0, 50, 12, 0, 1) }, 12, 12, 1},
	}

	for _, tt := range tests {
		s := newScene(t)
		ids, err := tt.build(s)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if len(ids) != tt.particles || len(s.Particles) != tt.particles {
			t.Errorf("%s: expected %d particles, got %d ids / %d", tt.name, tt.particles, len(ids), len(s.Particles))
		}
		if len(s.Distances) != tt.distances {
			t.Errorf("%s: expected %d distances, got %d", tt.name, tt.distances, len(s.Distances))
		}
		if len(s.Volumes) != tt.volumes {
			t.Errorf("%s: expected %d volumes, got %d", tt.name, tt.volumes, len(s.Volumes))
		}
	}
}

func TestBox2x2Diagonals(t *testing.T) {
	s := newScene(t)
	if _, err := Box2x2(s, 10, 10, 50, 0); err != nil {
		t.Fatal(err)
	}
	diag := 50 * math.Sqrt2
	found := 0
	for _, d := range s.Distances {
		if math.Abs(d.RestLength-diag) < 1e-9 {
			found++
		}
	}
	if found != 2 {
		t.Errorf("expected 2 diagonals, got %d", found)
	}
}

func TestRopePinsEnds(t *testing.T) {
	s := newScene(t)
	ids, err := Rope(s, 0, 0, 5, 30, 0)
	if err != nil {
		t.Fatal(err)
	}
	for i, id := range ids {
		pinned := s.Particles[id].Pinned()
		if want := i == 0 || i == len(ids)-1; pinned != want {
			t.Errorf("particle %d: pinned=%v, want %v", i, pinned, want)
		}
	}

	if _, err := Rope(s, 0, 0, 1, 30, 0); !errors.Is(err, ErrInvalidBody) {
		t.Errorf("expected ErrInvalidBody, got %v", err)
	}
}

func TestWheelHub(t *testing.T) {
	s := newScene(t)
	ids, err := Wheel(s, 100, 200, 50, 6, 0)
	if err != nil {
		t.Fatal(err)
	}
	hub := s.Particles[ids[len(ids)-1]].Position
	if hub.X != 100 || hub.Y != 200 {
		t.Errorf("hub at %+v", hub)
	}
	if s.Particles[ids[len(ids)-1]].Pinned() {
		t.Error("hub should be free")
	}
}

func TestBalloonArea(t *testing.T) {
	s := newScene(t)
	n, r := 16, 80.0
	if _, err := Balloon(s, 0, 0, r, n, 0, 1.5); err != nil {
		t.Fatal(err)
	}
	want := 0.5 * float64(n) * r * r * math.Sin(2*math.Pi/float64(n))
	v := s.Volumes[0]
	if math.Abs(v.RestArea-want) > 1e-6 {
		t.Errorf("rest area %v, want %v", v.RestArea, want)
	}
	if math.Abs(v.TargetArea()-1.5*want) > 1e-6 {
		t.Errorf("target area %v, want %v", v.TargetArea(), 1.5*want)
	}
}

func TestLayouts(t *testing.T) {
	for _, name := range Layouts() {
		s := newScene(t)
		if err := Apply(s, name); err != nil {
			t.Errorf("layout %s: %v", name, err)
			continue
		}
		if err := s.Validate(); err != nil {
			t.Errorf("layout %s invalid: %v", name, err)
		}
	}

	s := newScene(t)
	if err := Apply(s, "nope"); !errors.Is(err, ErrUnknownLayout) {
		t.Errorf("expected ErrUnknownLayout, got %v", err)
	}
}

func TestDefaultLayout(t *testing.T) {
	s := newScene(t)
	if err := Default(s); err != nil {
		t.Fatal(err)
	}
	if len(s.Particles) != 55 {
		t.Errorf("expected 55 particles, got %d", len(s.Particles))
	}
	if len(s.Distances) != 77 {
		t.Errorf("expected 77 distances, got %d", len(s.Distances))
	}
	if len(s.Polygons) != 2 {
		t.Fatalf("expected 2 polygons, got %d", len(s.Polygons))
	}
	if s.Polygons[0].Rotation != 30 || s.Polygons[1].Rotation != -30 {
		t.Errorf("unexpected rotations %v, %v", s.Polygons[0].Rotation, s.Polygons[1].Rotation)
	}
	if !s.Particles[0].Pinned() {
		t.Error("anchor should be pinned")
	}
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name      string
		cfg       func() *config.Config
		particles int
		wantErr   error
	}{
		{"drop preset", func() *config.Config { return config.GetPreset("drop") }, 1, nil},
		{"default preset", func() *config.Config { return config.GetPreset("default") }, 55, nil},
		{"slide preset", func() *config.Config { return config.GetPreset("slide") }, 13, nil},
		{"unknown layout", func() *config.Config {
			c := config.DefaultConfig()
			c.Scene = "nope"
			return c
		}, 0, ErrUnknownLayout},
		{"bad link", func() *config.Config {
			c := config.DefaultConfig()
			c.Scene = ""
			c.Particles = []config.ParticleConfig{{X: 1, Y: 1}}
			c.Links = []config.LinkConfig{{A: 0, B: 3}}
			return c
		}, 0, xpbd.ErrUnknownParticle},
		{"invalid params", func() *config.Config {
			c := config.DefaultConfig()
			c.Substeps = 0
			return c
		}, 0, xpbd.ErrInvalidParams},
	}

	for _, tt := range tests {
		s, err := Build(context.Background(), tt.cfg())
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("%s: expected %v, got %v", tt.name, tt.wantErr, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: %v", tt.name, err)
			continue
		}
		if len(s.Particles) != tt.particles {
			t.Errorf("%s: expected %d particles, got %d", tt.name, tt.particles, len(s.Particles))
		}
	}
}

func TestBuildPinnedParticle(t *testing.T) {
	c := config.DefaultConfig()
	c.Scene = ""
	c.Mass = 2
	three, zero := 3.0, 0.0
	c.Particles = []config.ParticleConfig{
		{X: 1, Y: 1},
		{X: 5, Y: 5, Pinned: true},
		{X: 9, Y: 9, Mass: &three, Radius: 4},
		{X: 13, Y: 13, Mass: &zero},
	}

	s, err := Build(context.Background(), c)
	if err != nil {
		t.Fatal(err)
	}
	if s.Particles[0].Mass != 2 {
		t.Errorf("expected default mass 2, got %v", s.Particles[0].Mass)
	}
	if !s.Particles[1].Pinned() {
		t.Error("expected pinned particle")
	}
	if s.Particles[2].Mass != 3 || s.Particles[2].Radius != 4 {
		t.Errorf("unexpected particle %+v", s.Particles[2])
	}
	if !s.Particles[3].Pinned() || s.Particles[3].Color != PinnedColor {
		t.Errorf("explicit mass 0 should pin, got %+v", s.Particles[3])
	}
	if s.Bounds == nil || s.Bounds.Width != config.DefaultWidth {
		t.Errorf("unexpected bounds %+v", s.Bounds)
	}
}

const testScript = `
a := particle(10, 20)
b := pinned(40, 20)
link(a, b)
r := box(100, 100, 40)
volume([r[0], r[1], r[3], r[2]], 0, 1.2)
polygon(0, 500, 15, [[0, 0], [100, 0], [100, 10]])
wheel(300, 100, 30, 6)
particle(width / 2, 10, 2, 8)
`

func TestRunScript(t *testing.T) {
	s := newScene(t)
	s.SetBounds(&xpbd.Bounds{Width: 800, Height: 600})

	if err := RunScript(context.Background(), s, []byte(testScript)); err != nil {
		t.Fatalf("script: %v", err)
	}

	if len(s.Particles) != 2+4+7+1 {
		t.Errorf("expected 14 particles, got %d", len(s.Particles))
	}
	if !s.Particles[1].Pinned() {
		t.Error("pinned() should create a pinned particle")
	}
	if len(s.Distances) != 1+6+12 {
		t.Errorf("expected 19 distances, got %d", len(s.Distances))
	}
	if len(s.Volumes) != 1 || s.Volumes[0].Pressure != 1.2 {
		t.Errorf("unexpected volumes %+v", s.Volumes)
	}
	if len(s.Polygons) != 1 || s.Polygons[0].Rotation != 15 {
		t.Errorf("unexpected polygons %+v", s.Polygons)
	}
	last := s.Particles[len(s.Particles)-1]
	if last.Position.X != 400 || last.Mass != 2 || last.Radius != 8 {
		t.Errorf("unexpected last particle %+v", last)
	}
}

func TestRunScriptUnbounded(t *testing.T) {
	s := newScene(t)
	if err := RunScript(context.Background(), s, []byte("particle(width + 5, height + 7)")); err != nil {
		t.Fatalf("script: %v", err)
	}
	if len(s.Particles) != 1 || s.Particles[0].Position != vec.New(5, 7) {
		t.Errorf("width and height should be 0 without bounds, got %+v", s.Particles)
	}
}

func TestRunScriptErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown id", "link(0, 99)"},
		{"too few args", "particle(1)"},
		{"bad type", `particle("x", [1])`},
		{"short polygon", "polygon(0, 0, 0, [[0, 0], [1, 1]])"},
		{"syntax", "particle(("},
	}

	for _, tt := range tests {
		s := newScene(t)
		s.AddParticle(vec.New(0, 0), 1, 0)
		if err := RunScript(context.Background(), s, []byte(tt.src)); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestBuildWithScriptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.tengo")
	if err := os.WriteFile(path, []byte("rope(100, 100, 5)\n"), 0644); err != nil {
		t.Fatal(err)
	}
	c := config.DefaultConfig()
	c.Scene = ""
	c.Script = path

	s, err := Build(context.Background(), c)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Particles) != 5 || len(s.Distances) != 4 {
		t.Errorf("unexpected scene: %d particles, %d distances", len(s.Particles), len(s.Distances))
	}
}
