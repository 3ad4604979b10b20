// Package dynamo provides the primitives particle dynamics are built from.
//
// A particle dynamics is split into two phases that are run over every
// particle of a body:
//
//   - Interaction: reads neighbors, writes only scratch data of particle i
//   - Update: commits particle i from its own scratch data
//
// [Exec] runs the interaction phase over all particles on a
// [compute.Backend], waits, then runs the update phase. Any particle's
// Update therefore sees every Interaction of the same step.
//
// # Example
//
//	summation := density.NewComplex(inner, contact)
//	dynamo.Exec(compute.NewCPUBackend(0), summation, dt)
//
// # Thread Safety
//
// Interaction(i) and Update(i) may be called concurrently for different i.
// Relations must not be rebuilt while Exec is running.
package dynamo
