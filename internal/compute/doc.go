// Package compute provides the loop backends that particle dynamics are
// dispatched on.
//
//   - [Serial]: runs the loop on the calling goroutine
//   - [CPUBackend]: splits the loop into contiguous chunks, one goroutine
//     per chunk, and waits for all of them
//
// A call to For is a barrier: nothing started by it is still running when
// it returns. The density engine relies on this to separate its
// accumulation phase from its commit phase:
//
//	backend := compute.NewCPUBackend(0)
//	backend.For(n, func(start, end int) { ... })
package compute
