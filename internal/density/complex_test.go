package density

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/sphsum/internal/compute"
	"github.com/san-kum/sphsum/internal/neighbor"
	"github.com/san-kum/sphsum/internal/particles"
	"gonum.org/v1/gonum/spatial/r3"
)

var _ = Describe("Complex", func() {
	var tank *waterTank

	BeforeEach(func() {
		tank = newWaterTank(GinkgoT())
	})

	innerOnly := func() Accumulator {
		inner, err := NewInner(tank.inner)
		Expect(err).NotTo(HaveOccurred())
		c := NewComplex(inner)
		c.Exec(compute.Serial{}, 0)
		return append(Accumulator(nil), c.Accumulator()...)
	}

	withContacts := func(targets ...*particles.Body) Accumulator {
		inner, err := NewInner(tank.inner)
		Expect(err).NotTo(HaveOccurred())
		contact, err := NewContact(tank.contact(GinkgoT(), targets...))
		Expect(err).NotTo(HaveOccurred())
		c := NewComplex(inner, contact)
		c.Exec(compute.NewCPUBackend(4).WithMinChunk(8), 0)
		return append(Accumulator(nil), c.Accumulator()...)
	}

	Describe("contact additivity", func() {
		It("adds the contribution of each target to the inner sum", func() {
			vInner := innerOnly()
			vFloor := withContacts(tank.floor)
			vSide := withContacts(tank.side)
			vBoth := withContacts(tank.floor, tank.side)

			for i := range vInner {
				c1 := vFloor[i] - vInner[i]
				c2 := vSide[i] - vInner[i]
				Expect(vBoth[i]).To(BeNumerically("~", vInner[i]+c1+c2, 1e-9))
			}
		})

		It("does not depend on target registration order", func() {
			ab := withContacts(tank.floor, tank.side)
			ba := withContacts(tank.side, tank.floor)
			for i := range ab {
				Expect(ab[i]).To(BeNumerically("~", ba[i], 1e-9))
			}
		})

		It("does not depend on contact policy registration order", func() {
			floor, err := NewContact(tank.contact(GinkgoT(), tank.floor))
			Expect(err).NotTo(HaveOccurred())
			side, err := NewContact(tank.contact(GinkgoT(), tank.side))
			Expect(err).NotTo(HaveOccurred())

			run := func(contacts ...AccumulationPolicy) Accumulator {
				inner, err := NewInner(tank.inner)
				Expect(err).NotTo(HaveOccurred())
				c := NewComplex(inner, contacts...)
				c.Exec(compute.Serial{}, 0)
				return append(Accumulator(nil), c.Accumulator()...)
			}

			ab, ba := run(floor, side), run(side, floor)
			for i := range ab {
				Expect(ab[i]).To(BeNumerically("~", ba[i], 1e-9))
			}
		})

		It("recovers rho0 at a corner fully supported by both walls", func() {
			v := withContacts(tank.floor, tank.side)
			Expect(v[index(0, 0)]).To(BeNumerically("~", 1000, 1e-6))
			Expect(innerOnly()[index(0, 0)]).To(BeNumerically("<", 900))
		})

		It("weights wall particles by volume, not by wall mass", func() {
			v := withContacts(tank.floor)
			// the floor is 2.7x denser than water yet must not push the
			// bottom row above the interior value
			Expect(v[index(5, 0)]).To(BeNumerically("~", 1000, 1e-6))
		})
	})

	Describe("commit", func() {
		It("commits each particle exactly once with several contact policies", func() {
			inner, err := NewInner(tank.inner)
			Expect(err).NotTo(HaveOccurred())
			n := tank.water.Size()
			counting := newCountingInner(inner, n)

			contacts := make([]*constantContact, 3)
			policies := make([]AccumulationPolicy, 3)
			for k := range contacts {
				contacts[k] = &constantContact{value: float64(k + 1), calls: make([]int, n)}
				policies[k] = contacts[k]
			}

			c := NewComplex(counting, policies...)
			c.Exec(compute.NewCPUBackend(4).WithMinChunk(4), 0.001)

			for i := 0; i < n; i++ {
				Expect(counting.updates[i]).To(Equal(1))
				Expect(counting.interactions[i]).To(Equal(1))
				for _, p := range contacts {
					Expect(p.calls[i]).To(Equal(1))
				}
			}
		})

		It("sees the full accumulation before committing", func() {
			inner, err := NewInner(tank.inner)
			Expect(err).NotTo(HaveOccurred())
			n := tank.water.Size()
			extra := &constantContact{value: 7, calls: make([]int, n)}

			reference := innerOnly()
			c := NewComplex(inner, extra)
			c.Exec(compute.NewCPUBackend(8).WithMinChunk(2), 0)

			rho := tank.water.Density()
			for i := 0; i < n; i++ {
				Expect(rho[i]).To(BeNumerically("~", reference[i]+7, 1e-9))
			}
		})

		It("starts every step from a fresh accumulator", func() {
			inner, err := NewInner(tank.inner)
			Expect(err).NotTo(HaveOccurred())
			n := tank.water.Size()
			extra := &constantContact{value: 1, calls: make([]int, n)}
			c := NewComplex(inner, extra)

			c.Exec(compute.Serial{}, 0)
			first := append(Accumulator(nil), c.Accumulator()...)
			c.Exec(compute.Serial{}, 0)

			Expect(c.Accumulator()).To(Equal(first))
		})
	})

	Describe("free-surface correction", func() {
		It("always floors at rho0", func() {
			inner, err := NewInner(tank.inner)
			Expect(err).NotTo(HaveOccurred())
			counting := newCountingInner(inner, tank.water.Size())
			c := NewComplex(NewFreeSurface(counting))
			c.Exec(compute.Serial{}, 0)

			rho, sum := tank.water.Density(), c.Accumulator()
			for i := range rho {
				Expect(rho[i]).To(Equal(math.Max(sum[i], 1000)))
				Expect(counting.reinits[i]).To(Equal(1))
				Expect(counting.assigns[i]).To(Equal(0))
			}
			Expect(rho[index(5, 9)]).To(Equal(1000.0))
		})
	})

	Describe("free-stream correction", func() {
		var (
			body      *particles.Body
			stream    *FreeStream
			counting  *countingInner
			indicator []int
		)

		BeforeEach(func() {
			k := newKernel(GinkgoT(), "wendland_c2")
			body = newBlock(GinkgoT(), k, particles.LatticeSpec{
				Name: "inflow", Rho0: 1000, Size: r3.Vec{X: 1, Y: 1}, FreeSurfaceBand: 0.1,
			})
			inner, err := NewInner(neighbor.NewInnerRelation(body, k))
			Expect(err).NotTo(HaveOccurred())
			counting = newCountingInner(inner, body.Size())
			stream, err = NewFreeStream(counting)
			Expect(err).NotTo(HaveOccurred())
			indicator, err = body.Indicator(particles.FieldIndicator)
			Expect(err).NotTo(HaveOccurred())
		})

		It("assigns near the flagged surface and floors elsewhere", func() {
			sum := make(Accumulator, body.Size())
			rho := body.Density()
			deep, top := index(5, 1), index(5, 9)
			sum[deep], sum[top] = 900, 900

			stream.Update(deep, sum, 0)
			stream.Update(top, sum, 0)

			Expect(rho[deep]).To(Equal(1000.0))
			Expect(rho[top]).To(Equal(900.0))
		})

		It("flips branch when the indicator is toggled", func() {
			sum := make(Accumulator, body.Size())
			rho := body.Density()
			deep := index(5, 1)
			sum[deep] = 950

			Expect(stream.IsNearFreeSurface(deep)).To(BeFalse())
			stream.Update(deep, sum, 0)
			Expect(rho[deep]).To(Equal(1000.0))
			Expect(counting.reinits[deep]).To(Equal(1))

			indicator[deep] = 1
			Expect(stream.IsNearFreeSurface(deep)).To(BeTrue())
			stream.Update(deep, sum, 0)
			Expect(rho[deep]).To(Equal(950.0))
			Expect(counting.assigns[deep]).To(Equal(1))
		})

		It("treats neighbors of flagged particles as near the surface", func() {
			Expect(stream.IsNearFreeSurface(index(5, 8))).To(BeTrue())
			Expect(stream.IsNearFreeSurface(index(5, 6))).To(BeFalse())
		})

		It("never writes the indicator", func() {
			before := append([]int(nil), indicator...)
			NewComplex(stream).Exec(compute.NewCPUBackend(4).WithMinChunk(4), 0)
			Expect(indicator).To(Equal(before))
		})
	})

	Describe("adaptive contact", func() {
		It("matches the uniform contact at reference resolution", func() {
			rel := tank.contact(GinkgoT(), tank.floor, tank.side)
			uniform, err := NewContact(rel)
			Expect(err).NotTo(HaveOccurred())
			adaptive, err := NewContactAdaptive(rel)
			Expect(err).NotTo(HaveOccurred())

			n := tank.water.Size()
			want, got := make(Accumulator, n), make(Accumulator, n)
			for i := 0; i < n; i++ {
				uniform.Interaction(i, want, 0)
				adaptive.Interaction(i, got, 0)
			}
			for i := range want {
				Expect(got[i]).To(BeNumerically("~", want[i], 1e-9))
			}
		})
	})
})
