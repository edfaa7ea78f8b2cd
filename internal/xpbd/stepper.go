package xpbd

// Stepper advances a Scene with the XPBD substep loop. Velocity is never
// integrated independently: it is rebuilt from the position change of each
// substep, so every correction shows up in it automatically.
type Stepper struct {
	scene    *Scene
	detector *Detector
	params   Params

	frames int
	last   CollisionStats
}

func NewStepper(s *Scene) *Stepper {
	p := s.Params()
	return &Stepper{
		scene:    s,
		detector: NewDetector(p),
		params:   p,
	}
}

func (st *Stepper) Scene() *Scene { return st.scene }

// Frames is the number of frames actually advanced (paused frames excluded).
func (st *Stepper) Frames() int { return st.frames }

// LastCollisions sums collision counts over the substeps of the last frame.
func (st *Stepper) LastCollisions() CollisionStats { return st.last }

// Update advances one frame. It is a no-op while the scene is paused.
func (st *Stepper) Update() {
	if st.scene.Paused {
		return
	}
	st.last = CollisionStats{}
	for i := 0; i < st.params.Substeps; i++ {
		st.Substep()
	}
	st.frames++
}

// Substep runs integrate, solve, collide and velocity update once.
func (st *Stepper) Substep() {
	h := st.params.SubDt() * st.params.Multiplier
	st.integrate(h)
	st.solveConstraints()
	stats := st.detector.Resolve(st.scene)
	st.last.add(stats)
	st.updateVelocities(h)
}

func (st *Stepper) integrate(h float64) {
	g := st.params.Gravity
	ps := st.scene.Particles
	for i := range ps {
		p := &ps[i]
		accel := g.Scale(p.Mass * p.InvMass)
		p.Velocity = p.Velocity.Add(accel.Scale(h))
		p.Previous = p.Position
		p.Position = p.Position.Add(p.Velocity.Scale(h))
	}
}

func (st *Stepper) solveConstraints() {
	s := st.scene
	for i := range s.Distances {
		s.Distances[i].Solve(s.Particles)
	}
	for i := range s.Volumes {
		s.Volumes[i].Solve(s.Particles)
	}
	if s.Drag != nil {
		s.Drag.Solve(s.Particles)
	}
}

func (st *Stepper) updateVelocities(h float64) {
	ps := st.scene.Particles
	for i := range ps {
		p := &ps[i]
		p.Velocity = p.Position.Sub(p.Previous).Div(h)
	}
}
