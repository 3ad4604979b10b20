package density

import (
	"github.com/san-kum/sphsum/internal/kernel"
	"github.com/san-kum/sphsum/internal/neighbor"
	"github.com/san-kum/sphsum/internal/particles"
)

// contactBase carries what both contact variants read from the source body
// and from every target.
type contactBase struct {
	relation       *neighbor.ContactRelation
	rho0           float64
	invSigma0      float64
	contactMass    [][]float64
	contactInvRho0 []float64
}

func newContactBase(rel *neighbor.ContactRelation) (contactBase, error) {
	if err := rel.Validate(); err != nil {
		return contactBase{}, err
	}
	b := rel.Body()
	targets := rel.Targets()
	c := contactBase{
		relation:       rel,
		rho0:           b.Rho0,
		invSigma0:      b.InvSigma0,
		contactMass:    make([][]float64, len(targets)),
		contactInvRho0: make([]float64, len(targets)),
	}
	for k, t := range targets {
		c.contactMass[k] = t.Mass()
		c.contactInvRho0[k] = 1 / t.Rho0
	}
	return c, nil
}

// Contact adds the kernel sum over every target body. A neighbor of
// target k contributes its volume m_j/rho0_k at the source's reference
// density:
//
//	sum[i] += inv_sigma0 * rho0 * sum_k sum_j W_ij * m_j / rho0_k
type Contact struct {
	contactBase
}

func NewContact(rel *neighbor.ContactRelation) (*Contact, error) {
	c, err := newContactBase(rel)
	if err != nil {
		return nil, err
	}
	return &Contact{contactBase: c}, nil
}

func (s *Contact) Interaction(i int, sum Accumulator, dt float64) {
	sigma := 0.0
	for k := range s.contactMass {
		mass, invRho0 := s.contactMass[k], s.contactInvRho0[k]
		nb := s.relation.Neighborhood(k, i)
		partial := 0.0
		for n, j := range nb.J {
			partial += nb.W[n] * invRho0 * mass[j]
		}
		sigma += partial
	}
	sum[i] += sigma * s.rho0 * s.invSigma0
}

// ContactAdaptive evaluates every contact pair at the finer of the two
// particles' smoothing lengths and rescales by the source particle's
// normalisation at its own width. Targets without a ratio field are at reference resolution.
type ContactAdaptive struct {
	contactBase
	kernel   kernel.Kernel
	h        float64
	hRatio   []float64
	targetH  []float64
	targetHR [][]float64
	norm     *widthNormalization
}

func NewContactAdaptive(rel *neighbor.ContactRelation) (*ContactAdaptive, error) {
	c, err := newContactBase(rel)
	if err != nil {
		return nil, err
	}
	b := rel.Body()
	k := rel.Kernel()
	s := &ContactAdaptive{
		contactBase: c,
		kernel:      k,
		h:           b.H,
		hRatio:      ratioOrNil(b),
		targetH:     make([]float64, len(rel.Targets())),
		targetHR:    make([][]float64, len(rel.Targets())),
		norm:        newWidthNormalization(b, k),
	}
	for t, target := range rel.Targets() {
		s.targetH[t] = target.H
		s.targetHR[t] = ratioOrNil(target)
	}
	return s, nil
}

func ratioOrNil(b *particles.Body) []float64 {
	ratio, err := b.Scalar(particles.FieldSmoothingLengthRatio)
	if err != nil {
		return nil
	}
	return ratio
}

func widthOf(h float64, ratio []float64, i int) float64 {
	if ratio == nil {
		return h
	}
	return h * ratio[i]
}

func (s *ContactAdaptive) Interaction(i int, sum Accumulator, dt float64) {
	hi := widthOf(s.h, s.hRatio, i)
	sigma := 0.0
	for k := range s.contactMass {
		mass, invRho0 := s.contactMass[k], s.contactInvRho0[k]
		nb := s.relation.Neighborhood(k, i)
		partial := 0.0
		for n, j := range nb.J {
			hij := widthOf(s.targetH[k], s.targetHR[k], j)
			if hi < hij {
				hij = hi
			}
			partial += s.kernel.W(nb.R[n], hij) * invRho0 * mass[j]
		}
		sigma += partial
	}
	sum[i] += sigma * s.rho0 * s.norm.At(i, hi)
}
