// Package density computes the mass density of particle bodies by kernel
// summation over their neighbor relations.
//
// A summation step has two phases. Accumulation policies write the kernel
// sum of particle i into a shared [Accumulator]; exactly one commit policy
// then turns the accumulated value into the Density field:
//
//   - [Inner], [InnerAdaptive]: same-body summation, initialise slot i
//     with the self contribution and own the commit
//   - [Contact], [ContactAdaptive]: add the contribution of other bodies
//   - [FreeSurface], [FreeStream]: decorators over an inner policy that
//     change only the commit rule
//   - [Complex]: one inner policy plus any number of contact policies
//     sharing one accumulator
//
// Commit rules:
//
//	assign:        rho[i] = sum[i]
//	reinitialize:  rho[i] = max(sum[i], rho0)
//
// Partial kernel support is not an error: the reinitialize rule floors the
// result at the reference density.
package density

import (
	"math"

	"github.com/san-kum/sphsum/internal/neighbor"
	"github.com/san-kum/sphsum/internal/particles"
)

// Accumulator is the per-particle density summation of one step.
type Accumulator []float64

// AccumulationPolicy contributes to the accumulator slot of particle i.
type AccumulationPolicy interface {
	Interaction(i int, sum Accumulator, dt float64)
}

// CommitPolicy writes the density of particle i from its accumulator slot.
type CommitPolicy interface {
	Update(i int, sum Accumulator, dt float64)
}

// InnerPolicy is the same-body summation that starts the accumulation and
// owns the commit. Assign and Reinitialize are exposed so that correction
// decorators can pick between them.
type InnerPolicy interface {
	AccumulationPolicy
	CommitPolicy
	Assign(i int, sum Accumulator)
	Reinitialize(i int, sum Accumulator)
	Relation() *neighbor.InnerRelation
}

// base carries the fields every inner variant reads and writes.
type base struct {
	relation  *neighbor.InnerRelation
	body      *particles.Body
	rho       []float64
	mass      []float64
	rho0      float64
	invSigma0 float64
	w0        float64
}

func newBase(rel *neighbor.InnerRelation) (base, error) {
	if err := rel.Validate(); err != nil {
		return base{}, err
	}
	b := rel.Body()
	return base{
		relation:  rel,
		body:      b,
		rho:       b.Density(),
		mass:      b.Mass(),
		rho0:      b.Rho0,
		invSigma0: b.InvSigma0,
		w0:        b.W0,
	}, nil
}

func (b *base) Relation() *neighbor.InnerRelation { return b.relation }

func (b *base) Assign(i int, sum Accumulator) {
	b.rho[i] = sum[i]
}

func (b *base) Reinitialize(i int, sum Accumulator) {
	b.rho[i] = math.Max(sum[i], b.rho0)
}
