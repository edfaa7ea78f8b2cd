package xpbd_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/xpbd/internal/vec"
	"github.com/san-kum/xpbd/internal/xpbd"
)

var _ = Describe("DistanceConstraint", func() {
	var s *xpbd.Scene

	BeforeEach(func() {
		s = newScene()
	})

	DescribeTable("rigid rod restores its rest length in one solve",
		func(massA, massB float64) {
			a := s.AddParticle(vec.New(0, 0), massA, 15)
			b := s.AddParticle(vec.New(30, 0), massB, 15)
			Expect(s.AddDistance(a, b, 0)).To(Succeed())
			Expect(s.Distances[0].RestLength).To(BeNumerically("~", 30, tol))

			s.Particles[b].Position = vec.New(60, 40)
			s.Distances[0].Solve(s.Particles)

			d := s.Particles[a].Position.Dist(s.Particles[b].Position)
			Expect(d).To(BeNumerically("~", 30, tol))
		},
		Entry("equal masses", 1.0, 1.0),
		Entry("a pinned", 0.0, 1.0),
		Entry("b pinned", 1.0, 0.0),
		Entry("unequal masses", 2.0, 5.0),
	)

	It("splits the correction by inverse mass", func() {
		a := s.AddParticle(vec.New(0, 0), 1, 15)
		b := s.AddParticle(vec.New(30, 0), 1, 15)
		Expect(s.AddDistance(a, b, 0)).To(Succeed())

		s.Particles[b].Position = vec.New(50, 0)
		s.Distances[0].Solve(s.Particles)

		Expect(s.Particles[a].Position.X).To(BeNumerically("~", 10, tol))
		Expect(s.Particles[b].Position.X).To(BeNumerically("~", 40, tol))
	})

	It("leaves two pinned particles alone", func() {
		a := s.AddParticle(vec.New(0, 0), 0, 15)
		b := s.AddParticle(vec.New(30, 0), 0, 15)
		Expect(s.AddDistance(a, b, 0)).To(Succeed())

		s.Particles[b].Position = vec.New(90, 0)
		s.Distances[0].Solve(s.Particles)

		Expect(s.Particles[a].Position).To(Equal(vec.New(0, 0)))
		Expect(s.Particles[b].Position).To(Equal(vec.New(90, 0)))
	})

	It("is only partially corrected when compliant", func() {
		a := s.AddParticle(vec.New(0, 0), 1, 15)
		b := s.AddParticle(vec.New(30, 0), 1, 15)
		Expect(s.AddDistance(a, b, 1e-7)).To(Succeed())
		Expect(s.Distances[0].Compliance).To(BeNumerically("~", 0.625, 1e-9))

		s.Particles[b].Position = vec.New(60, 0)
		s.Distances[0].Solve(s.Particles)

		d := s.Particles[a].Position.Dist(s.Particles[b].Position)
		Expect(d).To(BeNumerically(">", 30))
		Expect(d).To(BeNumerically("<", 60))
	})

	It("skips coincident particles instead of producing NaN", func() {
		a := s.AddParticle(vec.New(10, 10), 1, 15)
		b := s.AddParticle(vec.New(40, 10), 1, 15)
		Expect(s.AddDistance(a, b, 0)).To(Succeed())

		s.Particles[b].Position = vec.New(10, 10)
		s.Distances[0].Solve(s.Particles)

		Expect(s.IsFinite()).To(BeTrue())
		Expect(s.Particles[a].Position).To(Equal(vec.New(10, 10)))
	})

	It("rejects unknown and duplicate particles at build time", func() {
		a := s.AddParticle(vec.New(0, 0), 1, 15)

		err := s.AddDistance(a, 7, 0)
		Expect(errors.Is(err, xpbd.ErrUnknownParticle)).To(BeTrue())

		var be *xpbd.BuildError
		Expect(errors.As(err, &be)).To(BeTrue())
		Expect(be.Kind).To(Equal("distance"))

		Expect(errors.Is(s.AddDistance(a, a, 0), xpbd.ErrDuplicateParticle)).To(BeTrue())
		Expect(s.Distances).To(BeEmpty())
	})
})

var _ = Describe("VolumeConstraint", func() {
	var (
		s    *xpbd.Scene
		ring []xpbd.ParticleID
	)

	BeforeEach(func() {
		s = newScene()
		ring = []xpbd.ParticleID{
			s.AddParticle(vec.New(0, 0), 1, 5),
			s.AddParticle(vec.New(100, 0), 1, 5),
			s.AddParticle(vec.New(100, 100), 1, 5),
			s.AddParticle(vec.New(0, 100), 1, 5),
		}
	})

	It("captures the signed rest area", func() {
		Expect(s.AddVolume(ring, 0, 1)).To(Succeed())
		Expect(s.Volumes[0].RestArea).To(BeNumerically("~", 10000, tol))
	})

	It("pushes a compressed ring back towards its rest area", func() {
		Expect(s.AddVolume(ring, 0, 1)).To(Succeed())
		v := &s.Volumes[0]

		s.Particles[ring[2]].Position = vec.New(50, 50)
		Expect(v.Area(s.Particles)).To(BeNumerically("~", 5000, tol))

		v.Solve(s.Particles)
		Expect(math.Abs(v.Area(s.Particles) - 10000)).To(BeNumerically("<", 1000))

		for i := 0; i < 50; i++ {
			v.Solve(s.Particles)
		}
		Expect(v.Area(s.Particles)).To(BeNumerically("~", 10000, 1))
	})

	It("targets the pressurised area", func() {
		Expect(s.AddVolume(ring, 0, 1.5)).To(Succeed())
		v := &s.Volumes[0]
		Expect(v.TargetArea()).To(BeNumerically("~", 15000, tol))

		for i := 0; i < 50; i++ {
			v.Solve(s.Particles)
		}
		Expect(v.Area(s.Particles)).To(BeNumerically("~", 15000, 1))
	})

	It("does nothing when every particle is pinned", func() {
		for _, id := range ring {
			s.Particles[id].SetMass(0)
		}
		Expect(s.AddVolume(ring, 0, 1)).To(Succeed())

		s.Particles[ring[2]].Position = vec.New(50, 50)
		s.Volumes[0].Solve(s.Particles)

		Expect(s.Particles[ring[2]].Position).To(Equal(vec.New(50, 50)))
		Expect(s.IsFinite()).To(BeTrue())
	})

	It("rejects rings shorter than three", func() {
		err := s.AddVolume(ring[:2], 0, 1)
		Expect(errors.Is(err, xpbd.ErrDegenerateRing)).To(BeTrue())
	})
})

var _ = Describe("DragConstraint", func() {
	var s *xpbd.Scene

	BeforeEach(func() {
		s = newScene()
	})

	It("snaps a free particle onto the target when rigid", func() {
		id := s.AddParticle(vec.New(0, 0), 1, 15)
		Expect(s.StartDrag(id, vec.New(10, 0), 0)).To(Succeed())

		s.Drag.Solve(s.Particles)
		Expect(s.Particles[id].Position.X).To(BeNumerically("~", 10, tol))
	})

	It("follows retargeting and can be released", func() {
		id := s.AddParticle(vec.New(0, 0), 1, 15)
		Expect(s.StartDrag(id, vec.New(10, 0), 1e-7)).To(Succeed())

		s.MoveDrag(vec.New(0, 20))
		Expect(s.Drag.Target).To(Equal(vec.New(0, 20)))

		s.Drag.Solve(s.Particles)
		y := s.Particles[id].Position.Y
		Expect(y).To(BeNumerically(">", 0))
		Expect(y).To(BeNumerically("<", 20))

		s.StopDrag()
		Expect(s.Drag).To(BeNil())
	})

	It("never moves a pinned particle", func() {
		id := s.AddParticle(vec.New(0, 0), 0, 15)
		Expect(s.StartDrag(id, vec.New(10, 10), 0)).To(Succeed())
		s.Drag.Solve(s.Particles)
		Expect(s.Particles[id].Position).To(Equal(vec.New(0, 0)))
	})

	It("refuses unknown particles", func() {
		Expect(errors.Is(s.StartDrag(3, vec.Vec2{}, 0), xpbd.ErrUnknownParticle)).To(BeTrue())
	})
})
