package config

import "sort"

func preset(mutate func(c *Config)) *Config {
	c := DefaultConfig()
	mutate(c)
	return c
}

var Presets = map[string]*Config{
	"default": preset(func(c *Config) {}),
	"drop": preset(func(c *Config) {
		c.Scene = ""
		c.Bounds = &BoundsConfig{Width: 800, Height: 600}
		c.Frames = 300
		c.Particles = []ParticleConfig{{X: 400, Y: 100}}
	}),
	"rope": preset(func(c *Config) {
		c.Scene = "rope"
		c.Frames = 900
	}),
	"balloon": preset(func(c *Config) {
		c.Scene = "balloon"
		c.Frames = 900
	}),
	"pile": preset(func(c *Config) {
		c.Scene = "pile"
		c.Substeps = 10
		c.Frames = 1200
	}),
	"slide": preset(func(c *Config) {
		c.Scene = ""
		c.Mu = 0.2
		c.Bodies = []BodyConfig{
			{Kind: "box", X: 150, Y: 100, Size: 50},
			{Kind: "wheel", X: 250, Y: 60, Size: 40, Count: 8, Stiffness: 1e-8},
		}
		c.Polygons = []PolygonConfig{{
			X: 100, Y: 300, Rotation: 20,
			Points: [][2]float64{{0, 0}, {600, 0}, {600, 40}, {0, 40}},
		}}
	}),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
