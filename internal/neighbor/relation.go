// Package neighbor builds the per-particle neighbor lists consumed by
// particle dynamics.
//
// An [InnerRelation] lists neighbors of a body within itself, a
// [ContactRelation] lists neighbors of a body in each of its target
// bodies. Both store, per neighbor, the kernel weight at the source body's
// reference smoothing length and the pair distance, so adaptive dynamics
// can re-evaluate the kernel at another width.
//
// Relations are rebuilt with Update after particles move. They must not be
// rebuilt while a dynamics is reading them.
package neighbor

import (
	"fmt"
	"math"

	"github.com/san-kum/sphsum/internal/dynamo"
	"github.com/san-kum/sphsum/internal/kernel"
	"github.com/san-kum/sphsum/internal/particles"
)

// Neighborhood is the neighbor list of one particle.
type Neighborhood struct {
	J []int
	W []float64
	R []float64
}

func (n *Neighborhood) Size() int { return len(n.J) }

func (n *Neighborhood) reset() {
	n.J, n.W, n.R = n.J[:0], n.W[:0], n.R[:0]
}

func (n *Neighborhood) add(j int, w, r float64) {
	n.J = append(n.J, j)
	n.W = append(n.W, w)
	n.R = append(n.R, r)
}

func (n *Neighborhood) validate(size int) error {
	for _, j := range n.J {
		if j < 0 || j >= size {
			return fmt.Errorf("neighbor %d of %d particles: %w", j, size, dynamo.ErrNeighborOutOfRange)
		}
	}
	return nil
}

// searchRadius covers the widest kernel either body can use.
func searchRadius(k kernel.Kernel, bodies ...*particles.Body) float64 {
	h := 0.0
	for _, b := range bodies {
		h = math.Max(h, b.H*b.MaxSmoothingLengthRatio())
	}
	return k.CutOffRadius(h)
}

// InnerRelation holds the same-body neighbor lists of a body.
type InnerRelation struct {
	body   *particles.Body
	kernel kernel.Kernel
	radius float64
	cells  *CellLinkedList
	config []Neighborhood
}

func NewInnerRelation(b *particles.Body, k kernel.Kernel) *InnerRelation {
	r := &InnerRelation{
		body:   b,
		kernel: k,
		config: make([]Neighborhood, b.Size()),
	}
	r.Update()
	return r
}

func (r *InnerRelation) Body() *particles.Body            { return r.body }
func (r *InnerRelation) Kernel() kernel.Kernel            { return r.kernel }
func (r *InnerRelation) Neighborhood(i int) *Neighborhood { return &r.config[i] }

// Update rebuilds every neighbor list from the current positions.
func (r *InnerRelation) Update() {
	b := r.body
	r.radius = searchRadius(r.kernel, b)
	if r.cells == nil {
		r.cells = NewCellLinkedList(b.Positions(), r.radius)
	} else {
		r.cells.cellSize = r.radius
		r.cells.Rebuild(b.Positions())
	}

	for i, p := range b.Positions() {
		nb := &r.config[i]
		nb.reset()
		r.cells.Query(p, r.radius, func(j int, dist float64) {
			if j != i {
				nb.add(j, r.kernel.W(dist, b.H), dist)
			}
		})
	}
}

// Validate checks that every neighbor index addresses a particle of the body.
func (r *InnerRelation) Validate() error {
	if len(r.config) != r.body.Size() {
		return fmt.Errorf("inner relation of %s: %d lists for %d particles: %w",
			r.body.Name, len(r.config), r.body.Size(), dynamo.ErrNeighborOutOfRange)
	}
	for i := range r.config {
		if err := r.config[i].validate(r.body.Size()); err != nil {
			return fmt.Errorf("inner relation of %s, particle %d: %w", r.body.Name, i, err)
		}
	}
	return nil
}

// ContactRelation holds, per target body, the neighbor lists of every
// particle of the source body.
type ContactRelation struct {
	body    *particles.Body
	targets []*particles.Body
	kernel  kernel.Kernel
	cells   []*CellLinkedList
	radius  []float64
	config  [][]Neighborhood
}

func NewContactRelation(b *particles.Body, targets []*particles.Body, k kernel.Kernel) (*ContactRelation, error) {
	if len(targets) == 0 {
		return nil, fmt.Errorf("contact relation of %s: %w", b.Name, dynamo.ErrNoContactTargets)
	}
	r := &ContactRelation{
		body:    b,
		targets: targets,
		kernel:  k,
		cells:   make([]*CellLinkedList, len(targets)),
		radius:  make([]float64, len(targets)),
		config:  make([][]Neighborhood, len(targets)),
	}
	for t := range targets {
		r.config[t] = make([]Neighborhood, b.Size())
	}
	r.Update()
	return r, nil
}

func (r *ContactRelation) Body() *particles.Body      { return r.body }
func (r *ContactRelation) Targets() []*particles.Body { return r.targets }
func (r *ContactRelation) Kernel() kernel.Kernel      { return r.kernel }

// Neighborhood returns the neighbors of particle i in target k.
func (r *ContactRelation) Neighborhood(k, i int) *Neighborhood { return &r.config[k][i] }

// Update rebuilds every neighbor list from the current positions.
func (r *ContactRelation) Update() {
	b := r.body
	for k, t := range r.targets {
		radius := searchRadius(r.kernel, b, t)
		r.radius[k] = radius
		if r.cells[k] == nil {
			r.cells[k] = NewCellLinkedList(t.Positions(), radius)
		} else {
			r.cells[k].cellSize = radius
			r.cells[k].Rebuild(t.Positions())
		}

		for i, p := range b.Positions() {
			nb := &r.config[k][i]
			nb.reset()
			r.cells[k].Query(p, radius, func(j int, dist float64) {
				nb.add(j, r.kernel.W(dist, b.H), dist)
			})
		}
	}
}

// Validate checks that every neighbor index addresses a particle of its target.
func (r *ContactRelation) Validate() error {
	for k, t := range r.targets {
		if len(r.config[k]) != r.body.Size() {
			return fmt.Errorf("contact relation %s->%s: %d lists for %d particles: %w",
				r.body.Name, t.Name, len(r.config[k]), r.body.Size(), dynamo.ErrNeighborOutOfRange)
		}
		for i := range r.config[k] {
			if err := r.config[k][i].validate(t.Size()); err != nil {
				return fmt.Errorf("contact relation %s->%s, particle %d: %w", r.body.Name, t.Name, i, err)
			}
		}
	}
	return nil
}
