// Package particles holds per-body particle data as named field arrays.
package particles

import (
	"fmt"
	"sort"

	"github.com/san-kum/sphsum/internal/dynamo"
	"github.com/san-kum/sphsum/internal/kernel"
	"gonum.org/v1/gonum/spatial/r3"
)

// Registered field names.
const (
	FieldMass                 = "Mass"
	FieldVolumetricMeasure    = "VolumetricMeasure"
	FieldDensity              = "Density"
	FieldDensitySummation     = "DensitySummation"
	FieldSmoothingLengthRatio = "SmoothingLengthRatio"
	FieldIndicator            = "Indicator"
)

// Material carries the reference state shared by all particles of a body.
type Material struct {
	Rho0 float64
	// InvSigma0 rescales the kernel sum so that a fully supported particle
	// at reference resolution recovers Rho0.
	InvSigma0 float64
}

// Body is an insertion-ordered set of particles of one material.
type Body struct {
	Name string
	Material

	// H is the reference smoothing length.
	H float64
	// W0 is the kernel self weight at H.
	W0 float64

	pos        []r3.Vec
	scalars    map[string][]float64
	indicators map[string][]int
}

// NewBody allocates a body with Mass, VolumetricMeasure and Density fields.
// Density starts at Rho0.
func NewBody(name string, pos []r3.Vec, mat Material, h float64, k kernel.Kernel) (*Body, error) {
	if mat.Rho0 <= 0 {
		return nil, fmt.Errorf("body %s: rho0 must be positive, got %f: %w", name, mat.Rho0, dynamo.ErrInvalidConfig)
	}
	if h <= 0 {
		return nil, fmt.Errorf("body %s: smoothing length must be positive, got %f: %w", name, h, dynamo.ErrInvalidConfig)
	}
	if mat.InvSigma0 == 0 {
		mat.InvSigma0 = 1
	}

	b := &Body{
		Name:       name,
		Material:   mat,
		H:          h,
		W0:         k.W0(h),
		pos:        pos,
		scalars:    make(map[string][]float64),
		indicators: make(map[string][]int),
	}
	b.AddScalar(FieldMass)
	b.AddScalar(FieldVolumetricMeasure)
	rho := b.AddScalar(FieldDensity)
	for i := range rho {
		rho[i] = mat.Rho0
	}
	return b, nil
}

func (b *Body) Size() int { return len(b.pos) }

// Positions returns the particle positions. Callers must not resize it.
func (b *Body) Positions() []r3.Vec { return b.pos }

// AddScalar returns the named scalar field, allocating it zeroed if absent.
func (b *Body) AddScalar(name string) []float64 {
	if f, ok := b.scalars[name]; ok {
		return f
	}
	f := make([]float64, len(b.pos))
	b.scalars[name] = f
	return f
}

// Scalar returns the named scalar field.
func (b *Body) Scalar(name string) ([]float64, error) {
	f, ok := b.scalars[name]
	if !ok {
		return nil, fmt.Errorf("body %s: scalar %q: %w", b.Name, name, dynamo.ErrMissingField)
	}
	return f, nil
}

// HasScalar reports whether the named scalar field exists.
func (b *Body) HasScalar(name string) bool {
	_, ok := b.scalars[name]
	return ok
}

// SetScalar replaces the named scalar field with a copy of values.
func (b *Body) SetScalar(name string, values []float64) error {
	if len(values) != len(b.pos) {
		return fmt.Errorf("body %s: scalar %q has %d values for %d particles: %w",
			b.Name, name, len(values), len(b.pos), dynamo.ErrFieldLength)
	}
	f := b.AddScalar(name)
	copy(f, values)
	return nil
}

// AddIndicator returns the named integer field, allocating it zeroed if absent.
func (b *Body) AddIndicator(name string) []int {
	if f, ok := b.indicators[name]; ok {
		return f
	}
	f := make([]int, len(b.pos))
	b.indicators[name] = f
	return f
}

// Indicator returns the named integer field.
func (b *Body) Indicator(name string) ([]int, error) {
	f, ok := b.indicators[name]
	if !ok {
		return nil, fmt.Errorf("body %s: indicator %q: %w", b.Name, name, dynamo.ErrMissingField)
	}
	return f, nil
}

// ScalarNames lists the scalar fields in sorted order.
func (b *Body) ScalarNames() []string {
	names := make([]string, 0, len(b.scalars))
	for name := range b.scalars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Mass and Density never fail: NewBody allocates both.
func (b *Body) Mass() []float64    { return b.scalars[FieldMass] }
func (b *Body) Density() []float64 { return b.scalars[FieldDensity] }

// MaxSmoothingLengthRatio never returns less than 1, the reference ratio
// of bodies without a ratio field.
func (b *Body) MaxSmoothingLengthRatio() float64 {
	ratio, ok := b.scalars[FieldSmoothingLengthRatio]
	if !ok {
		return 1
	}
	m := 1.0
	for _, r := range ratio {
		if r > m {
			m = r
		}
	}
	return m
}
