// Package arena provides the host memory allocator that congc's
// collector façade wraps. It stands in for the C standard library's
// malloc/calloc/realloc/free quartet, giving the collector a heap that
// lives outside the reach of the Go runtime's own tracing collector.
package arena

import "errors"

// ErrOutOfMemory is returned by Malloc, Calloc, and Realloc when the
// host cannot satisfy a request.
var ErrOutOfMemory = errors.New("arena: out of memory")

// ErrUnknownAddress is returned by Realloc when asked to resize an
// address the allocator did not hand out.
var ErrUnknownAddress = errors.New("arena: unknown address")

// Allocator is the host memory provider wrapped by the collector's
// allocator façade.
//
// Two implementations are provided:
//   - [Real]: an mmap-backed arena with a first-fit free list.
//   - [Chaos]: wraps any Allocator and injects allocation failures for
//     testing the collector's forced-collect-and-retry path.
type Allocator interface {
	// Malloc returns size uninitialised bytes.
	Malloc(size uint64) (uintptr, error)

	// Calloc returns count*unitSize zeroed bytes.
	Calloc(count, unitSize uint64) (uintptr, error)

	// Realloc resizes the block at addr, preserving the overlapping
	// prefix. A zero addr behaves like Malloc(newSize).
	Realloc(addr uintptr, newSize uint64) (uintptr, error)

	// Free releases the block at addr. Freeing zero, or an address the
	// allocator does not recognise, is a silent no-op.
	Free(addr uintptr)

	// Bytes returns a live view of the size bytes starting at addr.
	// The returned slice aliases arena memory; callers must not retain
	// it past the next Free or Realloc of addr.
	Bytes(addr uintptr, size uint64) []byte
}
