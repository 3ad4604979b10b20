package density

import (
	"fmt"

	"github.com/san-kum/sphsum/internal/kernel"
	"github.com/san-kum/sphsum/internal/neighbor"
	"github.com/san-kum/sphsum/internal/particles"
)

// Inner sums a body over its own neighbors at the reference smoothing
// length, using the weights stored in the relation:
//
//	sum[i] = inv_sigma0 * (m_i*W0 + sum_j m_j*W_ij)
type Inner struct {
	base
}

func NewInner(rel *neighbor.InnerRelation) (*Inner, error) {
	b, err := newBase(rel)
	if err != nil {
		return nil, err
	}
	return &Inner{base: b}, nil
}

func (s *Inner) Interaction(i int, sum Accumulator, dt float64) {
	nb := s.relation.Neighborhood(i)
	sigma := s.mass[i] * s.w0
	for n, j := range nb.J {
		sigma += s.mass[j] * nb.W[n]
	}
	sum[i] = sigma * s.invSigma0
}

func (s *Inner) Update(i int, sum Accumulator, dt float64) {
	s.Assign(i, sum)
}

// SupportCount is the number of neighbors with a positive weight.
func (s *Inner) SupportCount(i int) int {
	nb := s.relation.Neighborhood(i)
	count := 0
	for _, w := range nb.W {
		if w > 0 {
			count++
		}
	}
	return count
}

// InnerAdaptive sums a body whose particles carry a smoothing-length ratio.
// Each pair is evaluated at the finer of the two widths; the self weight
// and the normalisation follow the particle's own width.
type InnerAdaptive struct {
	base
	kernel kernel.Kernel
	hRatio []float64
	norm   *widthNormalization
}

func NewInnerAdaptive(rel *neighbor.InnerRelation) (*InnerAdaptive, error) {
	b, err := newBase(rel)
	if err != nil {
		return nil, err
	}
	ratio, err := b.body.Scalar(particles.FieldSmoothingLengthRatio)
	if err != nil {
		return nil, fmt.Errorf("adaptive inner summation: %w", err)
	}
	k := rel.Kernel()
	return &InnerAdaptive{
		base:   b,
		kernel: k,
		hRatio: ratio,
		norm:   newWidthNormalization(b.body, k),
	}, nil
}

// width returns the smoothing length of particle i.
func (s *InnerAdaptive) width(i int) float64 {
	return s.body.H * s.hRatio[i]
}

// pairWidth uses the neighbor's width unless particle i is finer.
func (s *InnerAdaptive) pairWidth(i, j int) float64 {
	hi, hj := s.width(i), s.width(j)
	if hi < hj {
		return hi
	}
	return hj
}

// invSigma rescales the reference normalisation to the width of particle i.
func (s *InnerAdaptive) invSigma(i int) float64 {
	return s.norm.At(i, s.width(i))
}

func (s *InnerAdaptive) Interaction(i int, sum Accumulator, dt float64) {
	nb := s.relation.Neighborhood(i)
	sigma := s.mass[i] * s.kernel.W0(s.width(i))
	for n, j := range nb.J {
		sigma += s.mass[j] * s.kernel.W(nb.R[n], s.pairWidth(i, j))
	}
	sum[i] = sigma * s.invSigma(i)
}

func (s *InnerAdaptive) Update(i int, sum Accumulator, dt float64) {
	s.Assign(i, sum)
}

// SupportCount is the number of neighbors with a positive pair weight.
func (s *InnerAdaptive) SupportCount(i int) int {
	nb := s.relation.Neighborhood(i)
	count := 0
	for n, j := range nb.J {
		if s.kernel.W(nb.R[n], s.pairWidth(i, j)) > 0 {
			count++
		}
	}
	return count
}
