// Package congc implements a conservative mark-and-sweep garbage
// collector for memory obtained from a host [github.com/brindlewood/congc/internal/arena.Allocator]
// rather than from Go's own heap.
//
// The collector takes over allocation for a region of raw, untyped
// memory: the mutator asks it for blocks via [Collector.Allocate] and
// friends, and the collector periodically reclaims blocks no longer
// reachable from a root set — pinned blocks plus an explicit
// conservative stack ([Stack]) the mutator pushes local references
// onto.
//
// Basic usage:
//
//	a, _ := arena.NewReal(64 << 20)
//	gc := congc.Start(a)
//	defer gc.Stop()
//
//	root := gc.Stack()
//	addr := gc.Allocate(64)
//	root.Push(addr)
//	defer root.Pop()
//
// Concurrency: the collector assumes a single-threaded, cooperatively
// scheduled mutator, exactly as the system it reimplements does. Its
// internal mutex only serializes accidental concurrent calls so they
// corrupt nothing; it is not a concurrency feature, and a [Collector]
// should not be shared across goroutines that run genuinely in
// parallel.
//
// Error handling: there is no exception mechanism. Allocation failures
// surface as the zero [Address]; [Collector.Reallocate] additionally
// reports [ErrInvalidArgument] for an unrecognised non-zero address.
package congc
