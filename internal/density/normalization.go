package density

import (
	"math"
	"sync"

	"github.com/san-kum/sphsum/internal/kernel"
	"github.com/san-kum/sphsum/internal/particles"
)

// widthNormalization rescales a body's reference normalisation to another
// smoothing length. The summation is mass weighted, so the rescale is the
// ratio of lattice number densities at the two widths for the particle's
// own spacing, dx = V^(1/d):
//
//	inv_sigma(h) = inv_sigma0 * sigma(H, dx) / sigma(h, dx)
//
// A calibrated body then recovers rho0 in the interior at every width.
// Bodies without a volumetric measure keep inv_sigma0.
type widthNormalization struct {
	kernel    kernel.Kernel
	h         float64
	invSigma0 float64
	volume    []float64
	cache     sync.Map // normKey -> float64
}

type normKey struct {
	h, volume float64
}

func newWidthNormalization(b *particles.Body, k kernel.Kernel) *widthNormalization {
	n := &widthNormalization{kernel: k, h: b.H, invSigma0: b.InvSigma0}
	if vol, err := b.Scalar(particles.FieldVolumetricMeasure); err == nil {
		n.volume = vol
	}
	return n
}

// At returns the normalisation of particle i evaluated at width h.
func (n *widthNormalization) At(i int, h float64) float64 {
	if h == n.h || n.volume == nil || n.volume[i] <= 0 {
		return n.invSigma0
	}
	key := normKey{h: h, volume: n.volume[i]}
	if v, ok := n.cache.Load(key); ok {
		return v.(float64)
	}

	dx := math.Pow(key.volume, 1/float64(n.kernel.Dimension()))
	scale := kernel.ReferenceNumberDensity(n.kernel, n.h, dx) / kernel.ReferenceNumberDensity(n.kernel, h, dx)
	v := n.invSigma0 * scale
	n.cache.Store(key, v)
	return v
}
