package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/xpbd/internal/vec"
	"github.com/san-kum/xpbd/internal/xpbd"
)

const (
	DefaultFrames      = 600
	DefaultRecordEvery = 1
	DefaultWidth       = 1280.0
	DefaultHeight      = 720.0
	DefaultScene       = "default"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config describes one run: solver parameters, run length and the scene.
// Scene contents are applied in order: named layout, script, then the
// explicit particles, links, bodies, volumes and polygons.
type Config struct {
	Dt           float64       `yaml:"dt"`
	Substeps     int           `yaml:"substeps"`
	Gravity      [2]float64    `yaml:"gravity"`
	Multiplier   float64       `yaml:"multiplier"`
	Mu           float64       `yaml:"mu"`
	Radius       float64       `yaml:"radius"`
	Mass         float64       `yaml:"mass"`
	Bounds       *BoundsConfig `yaml:"bounds,omitempty"`
	PolygonProbe string        `yaml:"polygon_probe,omitempty"`

	Frames      int     `yaml:"frames"`
	Seed        int64   `yaml:"seed"`
	RecordEvery int     `yaml:"record_every"`
	Jitter      float64 `yaml:"jitter,omitempty"`

	Scene     string           `yaml:"scene,omitempty"`
	Script    string           `yaml:"script,omitempty"`
	Particles []ParticleConfig `yaml:"particles,omitempty"`
	Links     []LinkConfig     `yaml:"links,omitempty"`
	Bodies    []BodyConfig     `yaml:"bodies,omitempty"`
	Volumes   []VolumeConfig   `yaml:"volumes,omitempty"`
	Polygons  []PolygonConfig  `yaml:"polygons,omitempty"`
}

type BoundsConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// ParticleConfig places one particle. A missing mass uses the run default.
// An explicit mass of 0 pins the particle, as does Pinned.
type ParticleConfig struct {
	X      float64  `yaml:"x"`
	Y      float64  `yaml:"y"`
	Mass   *float64 `yaml:"mass,omitempty"`
	Radius float64  `yaml:"radius,omitempty"`
	Pinned bool     `yaml:"pinned,omitempty"`
}

// LinkConfig indexes into the particles created so far, layout and script
// particles included.
type LinkConfig struct {
	A         int     `yaml:"a"`
	B         int     `yaml:"b"`
	Stiffness float64 `yaml:"stiffness,omitempty"`
}

type VolumeConfig struct {
	Ring      []int   `yaml:"ring"`
	Stiffness float64 `yaml:"stiffness,omitempty"`
	Pressure  float64 `yaml:"pressure,omitempty"`
}

// BodyConfig is a prefabricated body: box, rope, wheel or balloon.
type BodyConfig struct {
	Kind      string  `yaml:"kind"`
	X         float64 `yaml:"x"`
	Y         float64 `yaml:"y"`
	Size      float64 `yaml:"size,omitempty"`
	Count     int     `yaml:"count,omitempty"`
	Stiffness float64 `yaml:"stiffness,omitempty"`
	Pressure  float64 `yaml:"pressure,omitempty"`
}

type PolygonConfig struct {
	X        float64      `yaml:"x"`
	Y        float64      `yaml:"y"`
	Rotation float64      `yaml:"rotation"`
	Points   [][2]float64 `yaml:"points"`
}

func DefaultConfig() *Config {
	p := xpbd.DefaultParams()
	return &Config{
		Dt:          p.Dt,
		Substeps:    p.Substeps,
		Gravity:     p.Gravity.Array(),
		Multiplier:  p.Multiplier,
		Mu:          p.Mu,
		Radius:      p.Radius,
		Mass:        p.Mass,
		Bounds:      &BoundsConfig{Width: DefaultWidth, Height: DefaultHeight},
		Frames:      DefaultFrames,
		RecordEvery: DefaultRecordEvery,
		Scene:       DefaultScene,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes yaml over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy so presets can be modified safely.
func (c *Config) Clone() *Config {
	out := *c
	if c.Bounds != nil {
		b := *c.Bounds
		out.Bounds = &b
	}
	out.Particles = append([]ParticleConfig(nil), c.Particles...)
	for i, p := range out.Particles {
		if p.Mass != nil {
			m := *p.Mass
			out.Particles[i].Mass = &m
		}
	}
	out.Links = append([]LinkConfig(nil), c.Links...)
	out.Bodies = append([]BodyConfig(nil), c.Bodies...)
	out.Volumes = nil
	for _, v := range c.Volumes {
		v.Ring = append([]int(nil), v.Ring...)
		out.Volumes = append(out.Volumes, v)
	}
	out.Polygons = nil
	for _, p := range c.Polygons {
		p.Points = append([][2]float64(nil), p.Points...)
		out.Polygons = append(out.Polygons, p)
	}
	return &out
}

// Params converts the solver section into xpbd parameters.
func (c *Config) Params() (xpbd.Params, error) {
	probe, err := xpbd.ParseProbe(c.PolygonProbe)
	if err != nil {
		return xpbd.Params{}, err
	}
	p := xpbd.Params{
		Dt:         c.Dt,
		Substeps:   c.Substeps,
		Gravity:    vec.FromArray(c.Gravity),
		Multiplier: c.Multiplier,
		Mu:         c.Mu,
		Radius:     c.Radius,
		Mass:       c.Mass,
		Probe:      probe,
	}
	return p, p.Validate()
}

// XPBDBounds returns nil when boundary collision is disabled.
func (c *Config) XPBDBounds() *xpbd.Bounds {
	if c.Bounds == nil {
		return nil
	}
	return &xpbd.Bounds{Width: c.Bounds.Width, Height: c.Bounds.Height}
}

func (c *Config) Validate() error {
	if _, err := c.Params(); err != nil {
		return err
	}
	if c.Frames < 0 {
		return fmt.Errorf("%w: frames must be non-negative, got %d", ErrInvalidConfig, c.Frames)
	}
	if c.Jitter < 0 {
		return fmt.Errorf("%w: jitter must be non-negative, got %v", ErrInvalidConfig, c.Jitter)
	}
	if c.RecordEvery < 0 {
		return fmt.Errorf("%w: record_every must be non-negative, got %d", ErrInvalidConfig, c.RecordEvery)
	}
	if b := c.Bounds; b != nil && (b.Width <= 0 || b.Height <= 0) {
		return fmt.Errorf("%w: bounds must be positive, got %vx%v", ErrInvalidConfig, b.Width, b.Height)
	}
	for i, body := range c.Bodies {
		switch body.Kind {
		case "box", "rope", "wheel", "balloon":
		default:
			return fmt.Errorf("%w: body %d: unknown kind %q", ErrInvalidConfig, i, body.Kind)
		}
	}
	for i, p := range c.Particles {
		if p.Mass != nil && *p.Mass < 0 {
			return fmt.Errorf("%w: particle %d: mass must be non-negative, got %v", ErrInvalidConfig, i, *p.Mass)
		}
	}
	for i, p := range c.Polygons {
		if len(p.Points) < 3 {
			return fmt.Errorf("%w: polygon %d: need at least 3 points", ErrInvalidConfig, i)
		}
	}
	return nil
}

// Duration is the simulated time covered by Frames.
func (c *Config) Duration() float64 {
	return float64(c.Frames) * c.Dt
}
