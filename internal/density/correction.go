package density

import (
	"fmt"

	"github.com/san-kum/sphsum/internal/particles"
)

// FreeSurface always commits with the reinitialize rule. Particles near a
// free surface lack kernel support and would otherwise under-estimate the
// density.
type FreeSurface struct {
	InnerPolicy
}

func NewFreeSurface(inner InnerPolicy) *FreeSurface {
	return &FreeSurface{InnerPolicy: inner}
}

func (f *FreeSurface) Update(i int, sum Accumulator, dt float64) {
	f.Reinitialize(i, sum)
}

// FreeStream keeps the unclamped summation for particles at or next to a
// flagged free surface, so inflow density is not floored, and reinitializes
// every other particle. The indicator is read, never written.
type FreeStream struct {
	InnerPolicy
	indicator []int
}

// NewFreeStream needs the body's Indicator field.
func NewFreeStream(inner InnerPolicy) (*FreeStream, error) {
	body := inner.Relation().Body()
	indicator, err := body.Indicator(particles.FieldIndicator)
	if err != nil {
		return nil, fmt.Errorf("free-stream correction: %w", err)
	}
	return &FreeStream{InnerPolicy: inner, indicator: indicator}, nil
}

// IsNearFreeSurface reports whether particle i or one of its inner
// neighbors is flagged.
func (f *FreeStream) IsNearFreeSurface(i int) bool {
	if f.indicator[i] != 0 {
		return true
	}
	for _, j := range f.Relation().Neighborhood(i).J {
		if f.indicator[j] != 0 {
			return true
		}
	}
	return false
}

func (f *FreeStream) Update(i int, sum Accumulator, dt float64) {
	if f.IsNearFreeSurface(i) {
		f.Assign(i, sum)
		return
	}
	f.Reinitialize(i, sum)
}
