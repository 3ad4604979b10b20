package particles

import (
	"fmt"
	"math"

	"github.com/san-kum/sphsum/internal/dynamo"
	"github.com/san-kum/sphsum/internal/kernel"
	"gonum.org/v1/gonum/spatial/r3"
)

// Refinement assigns a smoothing-length ratio to every particle whose
// coordinate along Axis is at least From.
type Refinement struct {
	Axis  int
	From  float64
	Ratio float64
}

// LatticeSpec describes a box filled with a regular particle lattice.
type LatticeSpec struct {
	Name   string
	Rho0   float64
	Dx     float64
	Origin r3.Vec
	Size   r3.Vec
	// HRatio is h/dx.
	HRatio float64
	// Calibrate sets InvSigma0 from the lattice number density so that an
	// interior particle recovers Rho0 exactly.
	Calibrate bool
	// FreeSurfaceBand marks particles within this distance of the top face
	// (the last axis) in the Indicator field. Zero leaves no indicator.
	FreeSurfaceBand float64
	Refinement      *Refinement
}

// NewLatticeBody fills the box with particles at cell centres. Axes beyond
// the kernel dimension hold a single layer at the origin.
func NewLatticeBody(spec LatticeSpec, k kernel.Kernel) (*Body, error) {
	if spec.Dx <= 0 {
		return nil, fmt.Errorf("body %s: dx must be positive: %w", spec.Name, dynamo.ErrInvalidConfig)
	}
	if spec.HRatio <= 0 {
		return nil, fmt.Errorf("body %s: h ratio must be positive: %w", spec.Name, dynamo.ErrInvalidConfig)
	}

	dim := k.Dimension()
	size := [3]float64{spec.Size.X, spec.Size.Y, spec.Size.Z}
	origin := [3]float64{spec.Origin.X, spec.Origin.Y, spec.Origin.Z}
	var count [3]int
	for a := 0; a < 3; a++ {
		count[a] = 1
		if a < dim {
			count[a] = int(math.Round(size[a] / spec.Dx))
			if count[a] < 1 {
				return nil, fmt.Errorf("body %s: size along axis %d is below dx: %w", spec.Name, a, dynamo.ErrInvalidConfig)
			}
		}
	}

	pos := make([]r3.Vec, 0, count[0]*count[1]*count[2])
	coord := func(a, i int) float64 {
		if a >= dim {
			return origin[a]
		}
		return origin[a] + (float64(i)+0.5)*spec.Dx
	}
	for l := 0; l < count[2]; l++ {
		for j := 0; j < count[1]; j++ {
			for i := 0; i < count[0]; i++ {
				pos = append(pos, r3.Vec{X: coord(0, i), Y: coord(1, j), Z: coord(2, l)})
			}
		}
	}

	h := spec.HRatio * spec.Dx
	vol := math.Pow(spec.Dx, float64(dim))
	mat := Material{Rho0: spec.Rho0, InvSigma0: 1}
	if spec.Calibrate {
		mat.InvSigma0 = 1 / (vol * kernel.ReferenceNumberDensity(k, h, spec.Dx))
	}

	b, err := NewBody(spec.Name, pos, mat, h, k)
	if err != nil {
		return nil, err
	}

	mass, volume := b.Mass(), b.AddScalar(FieldVolumetricMeasure)
	for i := range mass {
		mass[i] = spec.Rho0 * vol
		volume[i] = vol
	}

	if spec.FreeSurfaceBand > 0 {
		top := dim - 1
		limit := origin[top] + size[top] - spec.FreeSurfaceBand
		indicator := b.AddIndicator(FieldIndicator)
		for i, p := range pos {
			if component(p, top) >= limit {
				indicator[i] = 1
			}
		}
	}

	if r := spec.Refinement; r != nil {
		if r.Axis < 0 || r.Axis >= dim || r.Ratio <= 0 {
			return nil, fmt.Errorf("body %s: bad refinement %+v: %w", spec.Name, *r, dynamo.ErrInvalidConfig)
		}
		ratio := b.AddScalar(FieldSmoothingLengthRatio)
		for i, p := range pos {
			ratio[i] = 1
			if component(p, r.Axis) >= r.From {
				ratio[i] = r.Ratio
			}
		}
	}

	return b, nil
}

func component(v r3.Vec, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}
