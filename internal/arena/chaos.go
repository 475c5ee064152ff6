package arena

import (
	"math/rand"
	"sync"
)

// ChaosConfig controls fault-injection probabilities for [Chaos]. Each
// rate is a float64 from 0.0 (never) to 1.0 (always). The zero value
// disables all injection.
type ChaosConfig struct {
	// MallocFailRate controls how often Malloc and Calloc fail with
	// [ErrOutOfMemory] instead of reaching the wrapped [Allocator].
	MallocFailRate float64

	// ReallocFailRate controls how often Realloc fails with
	// [ErrOutOfMemory], leaving the original block untouched.
	ReallocFailRate float64
}

// ChaosMode controls how [Chaos] behaves.
type ChaosMode uint8

const (
	// ChaosModeActive enables fault-rate injection. Default for a new Chaos.
	ChaosModeActive ChaosMode = iota

	// ChaosModeNoOp passes every call through to the wrapped Allocator.
	ChaosModeNoOp
)

// ChaosStats counts faults [Chaos] has injected.
type ChaosStats struct {
	MallocFails  int64
	ReallocFails int64
}

// Chaos wraps an [Allocator] and injects allocation failures for
// testing the collector's out-of-memory retry path deterministically —
// congc's counterpart to the teacher's filesystem fault injector.
type Chaos struct {
	mu     sync.Mutex
	next   Allocator
	rng    *rand.Rand
	config ChaosConfig
	mode   ChaosMode
	stats  ChaosStats
}

// NewChaos wraps next, injecting failures per config. seed makes the
// fault sequence reproducible across test runs. Panics if next is nil.
func NewChaos(next Allocator, seed int64, config ChaosConfig) *Chaos {
	if next == nil {
		panic("arena: next is nil")
	}

	return &Chaos{next: next, rng: rand.New(rand.NewSource(seed)), config: config}
}

// SetMode switches fault injection on or off.
func (c *Chaos) SetMode(mode ChaosMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = mode
}

// Stats returns a snapshot of injected fault counts.
func (c *Chaos) Stats() ChaosStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.stats
}

func (c *Chaos) roll(rate float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode == ChaosModeNoOp || rate <= 0 {
		return false
	}

	return c.rng.Float64() < rate
}

// Malloc implements [Allocator].
func (c *Chaos) Malloc(size uint64) (uintptr, error) {
	if c.roll(c.config.MallocFailRate) {
		c.mu.Lock()
		c.stats.MallocFails++
		c.mu.Unlock()

		return 0, ErrOutOfMemory
	}

	return c.next.Malloc(size)
}

// Calloc implements [Allocator].
func (c *Chaos) Calloc(count, unitSize uint64) (uintptr, error) {
	if c.roll(c.config.MallocFailRate) {
		c.mu.Lock()
		c.stats.MallocFails++
		c.mu.Unlock()

		return 0, ErrOutOfMemory
	}

	return c.next.Calloc(count, unitSize)
}

// Realloc implements [Allocator].
func (c *Chaos) Realloc(addr uintptr, newSize uint64) (uintptr, error) {
	if c.roll(c.config.ReallocFailRate) {
		c.mu.Lock()
		c.stats.ReallocFails++
		c.mu.Unlock()

		return 0, ErrOutOfMemory
	}

	return c.next.Realloc(addr, newSize)
}

// Free implements [Allocator].
func (c *Chaos) Free(addr uintptr) {
	c.next.Free(addr)
}

// Bytes implements [Allocator].
func (c *Chaos) Bytes(addr uintptr, size uint64) []byte {
	return c.next.Bytes(addr, size)
}

var _ Allocator = (*Chaos)(nil)
