package xpbd_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/xpbd/internal/vec"
	"github.com/san-kum/xpbd/internal/xpbd"
)

func square(side float64) []vec.Vec2 {
	return []vec.Vec2{
		vec.New(0, 0),
		vec.New(side, 0),
		vec.New(side, side),
		vec.New(0, side),
	}
}

func reversed(pts []vec.Vec2) []vec.Vec2 {
	out := make([]vec.Vec2, len(pts))
	for i, p := range pts {
		out[len(pts)-1-i] = p
	}
	return out
}

func place(ps []xpbd.Particle, id xpbd.ParticleID, prev, pos vec.Vec2) {
	ps[id].Previous = prev
	ps[id].Position = pos
}

var _ = Describe("Polygon", func() {
	It("applies rotation before translation", func() {
		poly := xpbd.NewPolygon(vec.New(10, 10), 90, []vec.Vec2{vec.New(1, 0), vec.New(0, 1), vec.New(-1, 0)})
		t := poly.Transformed()
		Expect(t).To(HaveLen(3))
		Expect(t[0].X).To(BeNumerically("~", 10, tol))
		Expect(t[0].Y).To(BeNumerically("~", 11, tol))

		poly.SetRotation(0)
		Expect(poly.Transformed()[0].X).To(BeNumerically("~", 11, tol))

		poly.SetPosition(vec.New(0, 0))
		Expect(poly.Transformed()[0].X).To(BeNumerically("~", 1, tol))
	})

	It("tells inside from outside by winding angle", func() {
		poly := xpbd.NewPolygon(vec.Vec2{}, 0, square(300))

		Expect(poly.Contains(vec.New(150, 150))).To(BeTrue())
		Expect(math.Abs(poly.WindingAngle(vec.New(150, 150)))).To(BeNumerically("~", 2*math.Pi, 1e-9))
		Expect(poly.Contains(vec.New(400, 400))).To(BeFalse())
		Expect(poly.Contains(vec.New(-1, 150))).To(BeFalse())
	})

	It("is orientation independent", func() {
		rev := reversed(square(300))
		poly := xpbd.NewPolygon(vec.Vec2{}, 0, rev)
		Expect(poly.Contains(vec.New(150, 150))).To(BeTrue())
		Expect(poly.Contains(vec.New(400, 400))).To(BeFalse())
	})

	It("stores rings clockwise on screen", func() {
		rev := reversed(square(300))
		Expect(xpbd.SignedArea(rev)).To(BeNumerically("~", -90000, tol))

		poly := xpbd.NewPolygon(vec.Vec2{}, 0, rev)
		Expect(xpbd.SignedArea(poly.Points)).To(BeNumerically("~", 90000, tol))
		Expect(poly.Points[0]).To(Equal(rev[0]))
		Expect(rev[1]).To(Equal(vec.New(300, 300)), "input must not be modified")
	})

	It("handles concave rings", func() {
		// L shape with the lower right quarter cut out.
		ell := []vec.Vec2{
			vec.New(0, 0), vec.New(200, 0), vec.New(200, 100),
			vec.New(100, 100), vec.New(100, 200), vec.New(0, 200),
		}
		for _, pts := range [][]vec.Vec2{ell, reversed(ell)} {
			poly := xpbd.NewPolygon(vec.Vec2{}, 0, pts)
			Expect(poly.Contains(vec.New(150, 50))).To(BeTrue())
			Expect(poly.Contains(vec.New(50, 150))).To(BeTrue())
			Expect(poly.Contains(vec.New(50, 50))).To(BeTrue())
			Expect(poly.Contains(vec.New(150, 150))).To(BeFalse())
			Expect(poly.Contains(vec.New(250, 50))).To(BeFalse())
		}
	})

	It("tests containment against the rotated ring", func() {
		// A 100 square turned 45 degrees about its corner is a diamond
		// centred on (0, 70.7).
		poly := xpbd.NewPolygon(vec.Vec2{}, 45, square(100))
		Expect(poly.Contains(vec.New(0, 70))).To(BeTrue())
		Expect(poly.Contains(vec.New(-50, 70))).To(BeTrue())
		Expect(poly.Contains(vec.New(60, 10))).To(BeFalse())
		Expect(poly.Contains(vec.New(90, 90))).To(BeFalse())
	})

	DescribeTable("closest point and outward normal",
		func(pts []vec.Vec2, q, point, normal vec.Vec2) {
			poly := xpbd.NewPolygon(vec.Vec2{}, 0, pts)
			cp, n, ok := poly.ClosestPoint(q)
			Expect(ok).To(BeTrue())
			Expect(cp.X).To(BeNumerically("~", point.X, tol))
			Expect(cp.Y).To(BeNumerically("~", point.Y, tol))
			Expect(n.X).To(BeNumerically("~", normal.X, tol))
			Expect(n.Y).To(BeNumerically("~", normal.Y, tol))
		},
		Entry("near top edge", square(300), vec.New(150, 10), vec.New(150, 0), vec.New(0, -1)),
		Entry("near right edge", square(300), vec.New(290, 150), vec.New(300, 150), vec.New(1, 0)),
		Entry("near bottom edge", square(300), vec.New(150, 295), vec.New(150, 300), vec.New(0, 1)),
		Entry("near left edge", square(300), vec.New(3, 150), vec.New(0, 150), vec.New(-1, 0)),
		Entry("reversed ring, top edge", reversed(square(300)), vec.New(150, 10), vec.New(150, 0), vec.New(0, -1)),
		Entry("reversed ring, right edge", reversed(square(300)), vec.New(290, 150), vec.New(300, 150), vec.New(1, 0)),
	)

	It("reports no projection past a corner", func() {
		poly := xpbd.NewPolygon(vec.Vec2{}, 0, square(300))
		_, _, ok := poly.ClosestPoint(vec.New(400, 400))
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("Contact", func() {
	var s *xpbd.Scene

	BeforeEach(func() {
		s = newScene()
	})

	floor := func(id xpbd.ParticleID, x float64) xpbd.Contact {
		return xpbd.Contact{Particle: id, Point: vec.New(x, 585), Normal: vec.New(0, -1), Mu: 0.5}
	}

	It("removes penetration and limits sliding by kinetic friction", func() {
		id := s.AddParticle(vec.Vec2{}, 1, 15)
		place(s.Particles, id, vec.New(400, 580), vec.New(410, 590))

		Expect(floor(id, 400).Solve(s.Particles)).To(BeTrue())
		Expect(s.Particles[id].Position.X).To(BeNumerically("~", 407.5, tol))
		Expect(s.Particles[id].Position.Y).To(BeNumerically("~", 585, tol))
	})

	It("cancels small slides entirely by static friction", func() {
		id := s.AddParticle(vec.Vec2{}, 1, 15)
		place(s.Particles, id, vec.New(400, 580), vec.New(401, 590))

		Expect(floor(id, 400).Solve(s.Particles)).To(BeTrue())
		Expect(s.Particles[id].Position.X).To(BeNumerically("~", 400, tol))
		Expect(s.Particles[id].Position.Y).To(BeNumerically("~", 585, tol))
	})

	It("ignores particles on the outside", func() {
		id := s.AddParticle(vec.Vec2{}, 1, 15)
		place(s.Particles, id, vec.New(400, 570), vec.New(410, 580))

		Expect(floor(id, 400).Solve(s.Particles)).To(BeFalse())
		Expect(s.Particles[id].Position).To(Equal(vec.New(410, 580)))
	})
})

var _ = Describe("Detector", func() {
	var (
		s   *xpbd.Scene
		det *xpbd.Detector
	)

	BeforeEach(func() {
		s = newScene()
		det = xpbd.NewDetector(s.Params())
	})

	Context("particle pairs", func() {
		It("separates an overlapping pair to exactly touching", func() {
			a := s.AddParticle(vec.New(0, 0), 1, 15)
			b := s.AddParticle(vec.New(20, 0), 1, 15)

			Expect(det.Pairs(s.Particles)).To(Equal(1))
			Expect(s.Particles[a].Position.X).To(BeNumerically("~", -5, tol))
			Expect(s.Particles[b].Position.X).To(BeNumerically("~", 25, tol))
		})

		It("uses the sum of per-particle radii", func() {
			a := s.AddParticle(vec.New(0, 0), 1, 10)
			b := s.AddParticle(vec.New(0, 20), 1, 20)

			Expect(det.Pairs(s.Particles)).To(Equal(1))
			d := s.Particles[a].Position.Dist(s.Particles[b].Position)
			Expect(d).To(BeNumerically("~", 30, tol))
		})

		It("moves only the free particle of a pinned pair", func() {
			a := s.AddParticle(vec.New(0, 0), 0, 15)
			b := s.AddParticle(vec.New(20, 0), 1, 15)

			det.Pairs(s.Particles)
			Expect(s.Particles[a].Position).To(Equal(vec.New(0, 0)))
			Expect(s.Particles[b].Position.X).To(BeNumerically("~", 30, tol))
		})

		It("leaves separated and coincident pairs alone", func() {
			s.AddParticle(vec.New(0, 0), 1, 15)
			s.AddParticle(vec.New(100, 0), 1, 15)
			s.AddParticle(vec.New(500, 500), 1, 15)
			s.AddParticle(vec.New(500, 500), 1, 15)

			Expect(det.Pairs(s.Particles)).To(Equal(0))
			Expect(s.IsFinite()).To(BeTrue())
		})
	})

	Context("boundary", func() {
		b := xpbd.Bounds{Width: 800, Height: 600}

		It("clamps x without touching y", func() {
			id := s.AddParticle(vec.New(790, 300), 1, 15)

			Expect(det.Boundary(s.Particles, id, b)).To(BeTrue())
			Expect(s.Particles[id].Position).To(Equal(vec.New(785, 300)))
		})

		It("clamps the left and top edges", func() {
			id := s.AddParticle(vec.New(3, 4), 1, 15)

			Expect(det.Boundary(s.Particles, id, b)).To(BeTrue())
			Expect(s.Particles[id].Position).To(Equal(vec.New(15, 15)))
		})

		It("resolves the floor as a contact below the previous position", func() {
			id := s.AddParticle(vec.Vec2{}, 1, 15)
			place(s.Particles, id, vec.New(400, 580), vec.New(401, 590))

			Expect(det.Boundary(s.Particles, id, b)).To(BeTrue())
			Expect(s.Particles[id].Position.X).To(BeNumerically("~", 400, tol))
			Expect(s.Particles[id].Position.Y).To(BeNumerically("~", 585, tol))
		})

		It("never moves a pinned particle", func() {
			id := s.AddParticle(vec.New(900, 700), 0, 15)

			Expect(det.Boundary(s.Particles, id, b)).To(BeFalse())
			Expect(s.Particles[id].Position).To(Equal(vec.New(900, 700)))
		})
	})

	Context("polygons", func() {
		var polys []*xpbd.Polygon

		BeforeEach(func() {
			poly, err := s.AddPolygon(vec.Vec2{}, 0, square(300))
			Expect(err).NotTo(HaveOccurred())
			polys = []*xpbd.Polygon{poly}
		})

		It("pushes a particle whose previous position was inside out of the nearest edge", func() {
			id := s.AddParticle(vec.Vec2{}, 1, 15)
			place(s.Particles, id, vec.New(150, 5), vec.New(150, 8))

			Expect(det.Polygons(s.Particles, id, polys)).To(Equal(1))
			Expect(s.Particles[id].Position.X).To(BeNumerically("~", 150, tol))
			Expect(s.Particles[id].Position.Y).To(BeNumerically("~", 0, tol))
		})

		It("tests containment at the previous position by default", func() {
			id := s.AddParticle(vec.Vec2{}, 1, 15)
			place(s.Particles, id, vec.New(150, -5), vec.New(150, 3))

			Expect(det.Polygons(s.Particles, id, polys)).To(Equal(0))
			Expect(s.Particles[id].Position).To(Equal(vec.New(150, 3)))
		})

		It("can test the current position instead", func() {
			det.Probe = xpbd.ProbeCurrent
			id := s.AddParticle(vec.Vec2{}, 1, 15)
			place(s.Particles, id, vec.New(150, -5), vec.New(150, 3))

			Expect(det.Polygons(s.Particles, id, polys)).To(Equal(1))
			Expect(s.Particles[id].Position.Y).To(BeNumerically("~", 0, tol))
		})
	})

	It("rejects polygons with fewer than three points", func() {
		_, err := s.AddPolygon(vec.Vec2{}, 0, square(10)[:2])
		Expect(err).To(MatchError(xpbd.ErrDegeneratePolygon))
	})

	It("aggregates every check in Resolve", func() {
		s.SetBounds(&xpbd.Bounds{Width: 800, Height: 600})
		s.AddParticle(vec.New(790, 300), 1, 15)
		s.AddParticle(vec.New(400, 300), 1, 15)
		s.AddParticle(vec.New(410, 300), 1, 15)

		st := det.Resolve(s)
		Expect(st.Boundary).To(Equal(1))
		Expect(st.Pairs).To(Equal(1))
		Expect(st.Total()).To(Equal(2))
	})
})
