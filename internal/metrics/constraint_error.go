package metrics

import (
	"math"

	"github.com/san-kum/xpbd/internal/sim"
)

// ConstraintError averages, over frames, the worst absolute distance
// constraint violation of each frame.
type ConstraintError struct {
	name    string
	sum     float64
	max     float64
	samples int
}

func NewConstraintError() *ConstraintError {
	return &ConstraintError{
		name: "constraint_error",
	}
}

func (c *ConstraintError) Name() string {
	return c.name
}

func (c *ConstraintError) Observe(f sim.Frame) {
	s := f.Scene
	worst := 0.0
	for i := range s.Distances {
		worst = math.Max(worst, math.Abs(s.Distances[i].Error(s.Particles)))
	}
	c.sum += worst
	c.max = math.Max(c.max, worst)
	c.samples++
}

func (c *ConstraintError) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

// Max is the worst violation seen in any frame.
func (c *ConstraintError) Max() float64 { return c.max }

func (c *ConstraintError) Reset() {
	c.sum = 0
	c.max = 0
	c.samples = 0
}

// VolumeError averages the relative area error |A - target| / |target| of
// every volume constraint over frames.
type VolumeError struct {
	name    string
	sum     float64
	samples int
}

func NewVolumeError() *VolumeError {
	return &VolumeError{name: "volume_error"}
}

func (v *VolumeError) Name() string { return v.name }

func (v *VolumeError) Observe(f sim.Frame) {
	s := f.Scene
	for i := range s.Volumes {
		c := &s.Volumes[i]
		target := c.TargetArea()
		if target == 0 {
			continue
		}
		v.sum += math.Abs(c.Area(s.Particles)-target) / math.Abs(target)
		v.samples++
	}
}

func (v *VolumeError) Value() float64 {
	if v.samples == 0 {
		return 0
	}
	return v.sum / float64(v.samples)
}

func (v *VolumeError) Reset() {
	v.sum = 0
	v.samples = 0
}
