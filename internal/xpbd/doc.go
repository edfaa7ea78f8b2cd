// Package xpbd implements a 2D Extended Position-Based Dynamics solver.
//
// The package is organised around a particle arena and a stepper:
//
//   - [Scene]: owns every [Particle] plus the constraints and polygons that
//     refer to particles by [ParticleID]
//   - [DistanceConstraint], [VolumeConstraint], [DragConstraint]: persistent
//     constraints solved once per substep
//   - [Contact]: a transient environment-collision constraint built and
//     solved on the spot by the [Detector]
//   - [Polygon]: static obstacle geometry
//   - [Stepper]: the substep loop (integrate, solve, collide, derive velocity)
//
// # Example
//
//	s, _ := xpbd.NewScene(xpbd.DefaultParams())
//	a := s.AddParticle(vec.New(100, 100), 0, 15)
//	b := s.AddParticle(vec.New(150, 100), 1, 15)
//	_ = s.AddDistance(a, b, 0)
//	st := xpbd.NewStepper(s)
//	st.Update()
//
// # Thread Safety
//
// A Scene and its Stepper are NOT thread-safe. Every substep reads and
// writes particle state in place, in Gauss-Seidel order. Independent scenes
// may be stepped on separate goroutines.
package xpbd
