// Package metrics observes the density field of a body once per step.
package metrics

import (
	"math"

	"github.com/san-kum/sphsum/internal/particles"
	"github.com/san-kum/sphsum/internal/sim"
)

// DensityError is the largest relative deviation |rho-rho0|/rho0 seen
// over all particles and steps.
type DensityError struct {
	name     string
	maxError float64
}

func NewDensityError() *DensityError {
	return &DensityError{name: "density_error"}
}

func (d *DensityError) Name() string { return d.name }

func (d *DensityError) Observe(b *particles.Body, t float64) {
	for _, rho := range b.Density() {
		d.maxError = math.Max(d.maxError, math.Abs(rho-b.Rho0)/b.Rho0)
	}
}

func (d *DensityError) Value() float64 { return d.maxError }
func (d *DensityError) Reset()         { d.maxError = 0 }

// MeanDensity averages the body's mean density over the observed steps.
type MeanDensity struct {
	name    string
	sum     float64
	samples int
}

func NewMeanDensity() *MeanDensity {
	return &MeanDensity{name: "mean_density"}
}

func (m *MeanDensity) Name() string { return m.name }

func (m *MeanDensity) Observe(b *particles.Body, t float64) {
	rho := b.Density()
	if len(rho) == 0 {
		return
	}
	total := 0.0
	for _, v := range rho {
		total += v
	}
	m.sum += total / float64(len(rho))
	m.samples++
}

func (m *MeanDensity) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanDensity) Reset() {
	m.sum = 0
	m.samples = 0
}

type MinDensity struct {
	name string
	min  float64
}

func NewMinDensity() *MinDensity {
	return &MinDensity{name: "min_density", min: math.Inf(1)}
}

func (m *MinDensity) Name() string { return m.name }

func (m *MinDensity) Observe(b *particles.Body, t float64) {
	for _, rho := range b.Density() {
		m.min = math.Min(m.min, rho)
	}
}

func (m *MinDensity) Value() float64 {
	if math.IsInf(m.min, 1) {
		return 0
	}
	return m.min
}

func (m *MinDensity) Reset() { m.min = math.Inf(1) }

// ClampedFraction is the share of particles at or below rho0 in the last
// observed step. Under the reinitialize rule these are the particles
// floored at rho0.
type ClampedFraction struct {
	name     string
	fraction float64
}

func NewClampedFraction() *ClampedFraction {
	return &ClampedFraction{name: "clamped_fraction"}
}

func (c *ClampedFraction) Name() string { return c.name }

func (c *ClampedFraction) Observe(b *particles.Body, t float64) {
	rho := b.Density()
	if len(rho) == 0 {
		c.fraction = 0
		return
	}
	n := 0
	for _, v := range rho {
		if v <= b.Rho0 {
			n++
		}
	}
	c.fraction = float64(n) / float64(len(rho))
}

func (c *ClampedFraction) Value() float64 { return c.fraction }
func (c *ClampedFraction) Reset()         { c.fraction = 0 }

// Defaults returns one factory per metric, for sim.Simulator.AddMetric.
func Defaults() []sim.MetricFactory {
	return []sim.MetricFactory{
		func() sim.Metric { return NewDensityError() },
		func() sim.Metric { return NewMeanDensity() },
		func() sim.Metric { return NewMinDensity() },
		func() sim.Metric { return NewClampedFraction() },
	}
}
