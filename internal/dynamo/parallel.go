package dynamo

import "github.com/san-kum/sphsum/internal/compute"

// LocalDynamics is a per-particle operation split into an accumulation
// phase and a commit phase.
type LocalDynamics interface {
	Size() int
	Interaction(i int, dt float64)
	Update(i int, dt float64)
}

// Exec runs Interaction for every particle, waits for all of them, then
// runs Update for every particle.
func Exec(b compute.Backend, ld LocalDynamics, dt float64) {
	n := ld.Size()
	b.For(n, func(start, end int) {
		for i := start; i < end; i++ {
			ld.Interaction(i, dt)
		}
	})
	b.For(n, func(start, end int) {
		for i := start; i < end; i++ {
			ld.Update(i, dt)
		}
	})
}

// ForEach runs fn for every particle index on b.
func ForEach(b compute.Backend, n int, fn func(i int)) {
	b.For(n, func(start, end int) {
		for i := start; i < end; i++ {
			fn(i)
		}
	})
}
