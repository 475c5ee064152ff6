package congc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/brindlewood/congc/internal/arena"
	"github.com/brindlewood/congc/internal/gclog"
)

const (
	defaultInitialCapacity = 1024
	defaultMinCapacity     = 1024
	defaultDownsizeFactor  = 0.2
	defaultUpsizeFactor    = 0.8
	defaultSweepFactor     = 0.5
)

// Collector is a conservative mark-and-sweep garbage collector over a
// host [arena.Allocator].
//
// A Collector assumes a single-threaded, cooperatively scheduled
// mutator. Its mutex only serializes accidental concurrent calls; it
// is not a concurrency feature.
type Collector struct {
	mu       sync.Mutex
	allocs   *registry
	arena    arena.Allocator
	stack    *Stack
	disabled bool
}

// Start initialises a collector with the system's defaults: initial
// and minimum index capacity 1024, downsize factor 0.2, upsize factor
// 0.8, sweep factor 0.5. The collector is born enabled.
func Start(a arena.Allocator) *Collector {
	return StartExt(a, defaultInitialCapacity, defaultMinCapacity,
		defaultDownsizeFactor, defaultUpsizeFactor, defaultSweepFactor)
}

// StartExt initialises a collector with explicit tuning knobs.
// Zero initialCapacity or minCapacity, and non-positive downsize,
// upsize, or sweep values, fall back to their defaults.
// initialCapacity is raised to minCapacity if lower.
func StartExt(a arena.Allocator, initialCapacity, minCapacity uint64, downsize, upsize, sweep float64) *Collector {
	if initialCapacity == 0 {
		initialCapacity = defaultInitialCapacity
	}

	if minCapacity == 0 {
		minCapacity = defaultMinCapacity
	}

	if downsize <= 0 {
		downsize = defaultDownsizeFactor
	}

	if upsize <= 0 {
		upsize = defaultUpsizeFactor
	}

	if sweep <= 0 {
		sweep = defaultSweepFactor
	}

	if initialCapacity < minCapacity {
		initialCapacity = minCapacity
	}

	return &Collector{
		allocs: newRegistry(minCapacity, initialCapacity, sweep, downsize, upsize),
		arena:  a,
		stack:  NewStack(),
	}
}

// Stack returns the collector's conservative root region. See [Stack].
func (gc *Collector) Stack() *Stack {
	return gc.stack
}

// Enable turns garbage collection back on after [Collector.Disable].
func (gc *Collector) Enable() {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	gc.disabled = false
}

// Disable turns off the sweep-limit and out-of-memory collection
// triggers. Explicit [Collector.Collect] calls still run.
func (gc *Collector) Disable() {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	gc.disabled = true
}

// Collect runs a full mark-sweep cycle and returns the bytes reclaimed.
func (gc *Collector) Collect() uint64 {
	gc.mu.Lock()
	defer gc.mu.Unlock()

	gc.markAllLocked()

	return gc.sweepLocked()
}

// Stop unpins every root, runs a final sweep (which now reclaims
// everything), and returns the total bytes reclaimed. The collector
// must not be used afterward.
func (gc *Collector) Stop() uint64 {
	gc.mu.Lock()
	defer gc.mu.Unlock()

	gc.unrootRootsLocked()

	return gc.sweepLocked()
}

// Allocate requests size uninitialised bytes with no finalizer.
// Returns the zero Address on failure.
func (gc *Collector) Allocate(size uint64) Address {
	return gc.AllocateExt(size, nil)
}

// AllocateExt requests size uninitialised bytes, invoking fin (if
// non-nil) once when the block is reclaimed.
func (gc *Collector) AllocateExt(size uint64, fin Finalizer) Address {
	gc.mu.Lock()
	defer gc.mu.Unlock()

	return gc.allocateLocked(0, size, fin)
}

// AllocateStatic allocates size bytes and immediately pins the result
// as a root, the way a caller would model a long-lived global.
func (gc *Collector) AllocateStatic(size uint64, fin Finalizer) Address {
	addr := gc.AllocateExt(size, fin)
	if addr == 0 {
		return 0
	}

	gc.mu.Lock()
	defer gc.mu.Unlock()

	if rec := gc.allocs.get(addr); rec != nil {
		rec.tag |= tagRoot
	}

	return addr
}

// Calloc requests count*unitSize zeroed bytes with no finalizer.
func (gc *Collector) Calloc(count, unitSize uint64) Address {
	return gc.CallocExt(count, unitSize, nil)
}

// CallocExt requests count*unitSize zeroed bytes, invoking fin (if
// non-nil) once when the block is reclaimed.
func (gc *Collector) CallocExt(count, unitSize uint64, fin Finalizer) Address {
	gc.mu.Lock()
	defer gc.mu.Unlock()

	return gc.allocateLocked(count, unitSize, fin)
}

// allocateLocked generalizes malloc (count == 0) and calloc (count !=
// 0, zero-filled) semantics. Mirrors bgc_allocate's control flow: check
// the sweep limit, call the host allocator, retry once after a forced
// collection on apparent out-of-memory, then register the block.
func (gc *Collector) allocateLocked(count, unitSize uint64, fin Finalizer) Address {
	if !gc.disabled && gc.allocs.size > gc.allocs.sweepLimit {
		gc.markAllLocked()
		gc.sweepLocked()
	}

	size := unitSize
	if count != 0 {
		size = count * unitSize
	}

	raw, err := gc.callHostAllocator(count, unitSize)

	if err != nil && !gc.disabled && isOutOfMemory(err) {
		gc.markAllLocked()
		gc.sweepLocked()

		raw, err = gc.callHostAllocator(count, unitSize)
	}

	if err != nil {
		return 0
	}

	rec := gc.allocs.put(Address(raw), size, fin)
	if rec == nil {
		gclog.Default().Warn("freeing host block after registry insertion failure",
			"address", fmt.Sprintf("%#x", raw), "error", ErrMetadataFailure)
		gc.arena.Free(raw)

		return 0
	}

	return rec.address
}

func (gc *Collector) callHostAllocator(count, unitSize uint64) (uintptr, error) {
	if count == 0 {
		return gc.arena.Malloc(unitSize)
	}

	return gc.arena.Calloc(count, unitSize)
}

// Reallocate resizes the block at addr to newSize bytes.
//
//   - addr == 0 behaves like a fresh allocation with no finalizer.
//   - A non-zero addr unknown to the collector fails with
//     [ErrInvalidArgument].
//   - If the host returns the same address, the record's size is
//     updated in place.
//   - Otherwise the old record's finalizer carries over to a fresh
//     record at the new address.
func (gc *Collector) Reallocate(addr Address, newSize uint64) (Address, error) {
	gc.mu.Lock()
	defer gc.mu.Unlock()

	var rec *record

	if addr != 0 {
		rec = gc.allocs.get(addr)
		if rec == nil {
			return 0, fmt.Errorf("congc: reallocate %#x: %w", uintptr(addr), ErrInvalidArgument)
		}
	}

	newRaw, err := gc.arena.Realloc(uintptr(addr), newSize)
	if err != nil {
		return 0, fmt.Errorf("congc: reallocate %#x: %w", uintptr(addr), ErrOutOfMemory)
	}

	newAddr := Address(newRaw)

	switch {
	case addr == 0:
		gc.allocs.put(newAddr, newSize, nil)
	case newAddr == addr:
		rec.size = newSize
	default:
		fin := rec.finalizer
		gc.allocs.remove(addr, false)
		gc.allocs.put(newAddr, newSize, fin)
	}

	return newAddr, nil
}

// Free releases the block at addr: runs its finalizer (if any), removes
// its record, and releases the host memory. Freeing an unknown address
// logs a warning and is otherwise a no-op.
func (gc *Collector) Free(addr Address) {
	gc.mu.Lock()
	defer gc.mu.Unlock()

	rec := gc.allocs.get(addr)
	if rec == nil {
		gclog.Default().Warn("ignoring request to free unknown address",
			"address", fmt.Sprintf("%#x", uintptr(addr)), "error", ErrUnknownAddress)
		return
	}

	if rec.finalizer != nil {
		rec.finalizer(addr)
	}

	gc.allocs.remove(addr, true)
	gc.arena.Free(uintptr(addr))
}

// Pin marks the block at addr as a root, so it survives collection
// regardless of reachability, until unpinned by [Collector.Stop]. A
// no-op (returning addr unchanged) if addr is unknown.
func (gc *Collector) Pin(addr Address) Address {
	gc.mu.Lock()
	defer gc.mu.Unlock()

	if rec := gc.allocs.get(addr); rec != nil {
		rec.tag |= tagRoot
	}

	return addr
}

// Strdup allocates a managed, nul-terminated copy of s.
func (gc *Collector) Strdup(s string) Address {
	data := make([]byte, len(s)+1)
	copy(data, s)

	addr := gc.Allocate(uint64(len(data)))
	if addr == 0 {
		return 0
	}

	gc.mu.Lock()
	defer gc.mu.Unlock()
	copy(gc.arena.Bytes(uintptr(addr), uint64(len(data))), data)

	return addr
}

// Bytes returns a live view of the size bytes of managed memory at
// addr. The slice aliases arena memory and must not be retained past
// the next Free, Reallocate, or sweep of addr.
func (gc *Collector) Bytes(addr Address, size uint64) []byte {
	gc.mu.Lock()
	defer gc.mu.Unlock()

	return gc.arena.Bytes(uintptr(addr), size)
}

// WriteAddress stores v at byte offset offset within the managed block
// at addr, so the field participates in conservative scanning exactly
// like any other pointer-shaped payload. Used by the boundary adapters
// in package managed to build wrapper records whose fields the
// collector can trace.
func (gc *Collector) WriteAddress(addr Address, offset uint64, v Address) {
	gc.mu.Lock()
	defer gc.mu.Unlock()

	data := gc.arena.Bytes(uintptr(addr), offset+uint64(wordSize))
	binary.NativeEndian.PutUint64(data[offset:], uint64(v))
}

// ReadAddress reads back a value written by [Collector.WriteAddress].
func (gc *Collector) ReadAddress(addr Address, offset uint64) Address {
	gc.mu.Lock()
	defer gc.mu.Unlock()

	data := gc.arena.Bytes(uintptr(addr), offset+uint64(wordSize))

	return Address(binary.NativeEndian.Uint64(data[offset:]))
}

// WriteUint64 stores a plain (non-pointer-shaped) 8-byte field at
// offset within the managed block at addr.
func (gc *Collector) WriteUint64(addr Address, offset, v uint64) {
	gc.mu.Lock()
	defer gc.mu.Unlock()

	data := gc.arena.Bytes(uintptr(addr), offset+8)
	binary.NativeEndian.PutUint64(data[offset:], v)
}

// ReadUint64 reads back a value written by [Collector.WriteUint64].
func (gc *Collector) ReadUint64(addr Address, offset uint64) uint64 {
	gc.mu.Lock()
	defer gc.mu.Unlock()

	data := gc.arena.Bytes(uintptr(addr), offset+8)

	return binary.NativeEndian.Uint64(data[offset:])
}

// isOutOfMemory reports whether err indicates the host allocator is
// exhausted, as opposed to some other host-level failure.
func isOutOfMemory(err error) bool {
	return errors.Is(err, arena.ErrOutOfMemory)
}
