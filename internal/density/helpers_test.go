package density

import (
	"github.com/san-kum/sphsum/internal/kernel"
	"github.com/san-kum/sphsum/internal/neighbor"
	"github.com/san-kum/sphsum/internal/particles"
	"gonum.org/v1/gonum/spatial/r3"
)

const dx = 0.1

type tb interface {
	Helper()
	Fatalf(format string, args ...any)
}

func newKernel(t tb, name string) kernel.Kernel {
	t.Helper()
	k, err := kernel.New(name, 2)
	if err != nil {
		t.Fatalf("kernel: %v", err)
	}
	return k
}

func newBlock(t tb, k kernel.Kernel, spec particles.LatticeSpec) *particles.Body {
	t.Helper()
	if spec.Dx == 0 {
		spec.Dx = dx
	}
	if spec.HRatio == 0 {
		spec.HRatio = 1.3
	}
	b, err := particles.NewLatticeBody(spec, k)
	if err != nil {
		t.Fatalf("lattice %s: %v", spec.Name, err)
	}
	return b
}

// waterTank is a 1x1 water block with a wall below and a wall to the left,
// each three layers thick and of a different material.
type waterTank struct {
	kernel kernel.Kernel
	water  *particles.Body
	floor  *particles.Body
	side   *particles.Body
	inner  *neighbor.InnerRelation
}

func newWaterTank(t tb) *waterTank {
	t.Helper()
	k := newKernel(t, "wendland_c2")
	water := newBlock(t, k, particles.LatticeSpec{
		Name: "water", Rho0: 1000, Size: r3.Vec{X: 1, Y: 1}, Calibrate: true,
	})
	floor := newBlock(t, k, particles.LatticeSpec{
		Name: "floor", Rho0: 2700, Origin: r3.Vec{X: -0.3, Y: -0.3}, Size: r3.Vec{X: 1.3, Y: 0.3},
	})
	side := newBlock(t, k, particles.LatticeSpec{
		Name: "side", Rho0: 7800, Origin: r3.Vec{X: -0.3}, Size: r3.Vec{X: 0.3, Y: 1},
	})
	return &waterTank{
		kernel: k,
		water:  water,
		floor:  floor,
		side:   side,
		inner:  neighbor.NewInnerRelation(water, k),
	}
}

func (w *waterTank) contact(t tb, targets ...*particles.Body) *neighbor.ContactRelation {
	t.Helper()
	rel, err := neighbor.NewContactRelation(w.water, targets, w.kernel)
	if err != nil {
		t.Fatalf("contact relation: %v", err)
	}
	return rel
}

// index of the lattice particle in column i, row j of a 10-wide block.
func index(i, j int) int { return j*10 + i }

// countingInner records every call made to the wrapped inner policy.
type countingInner struct {
	InnerPolicy
	interactions []int
	updates      []int
	assigns      []int
	reinits      []int
}

func newCountingInner(inner InnerPolicy, n int) *countingInner {
	return &countingInner{
		InnerPolicy:  inner,
		interactions: make([]int, n),
		updates:      make([]int, n),
		assigns:      make([]int, n),
		reinits:      make([]int, n),
	}
}

func (c *countingInner) Interaction(i int, sum Accumulator, dt float64) {
	c.interactions[i]++
	c.InnerPolicy.Interaction(i, sum, dt)
}

func (c *countingInner) Update(i int, sum Accumulator, dt float64) {
	c.updates[i]++
	c.InnerPolicy.Update(i, sum, dt)
}

func (c *countingInner) Assign(i int, sum Accumulator) {
	c.assigns[i]++
	c.InnerPolicy.Assign(i, sum)
}

func (c *countingInner) Reinitialize(i int, sum Accumulator) {
	c.reinits[i]++
	c.InnerPolicy.Reinitialize(i, sum)
}

// constantContact adds a fixed value and counts its calls.
type constantContact struct {
	value float64
	calls []int
}

func (c *constantContact) Interaction(i int, sum Accumulator, dt float64) {
	c.calls[i]++
	sum[i] += c.value
}
