// Package congcglobal provides a process-wide [congc.Collector]
// singleton, mirroring the BGC_GLOBAL_GC convenience macro and its
// bgcx_* wrappers from the system congc reimplements: most callers
// want one collector for the process and would rather not thread a
// *congc.Collector through every call site.
package congcglobal

import (
	"sync"

	"github.com/brindlewood/congc/internal/arena"
	"github.com/brindlewood/congc/pkg/congc"
)

var (
	mu   sync.Mutex
	inst *congc.Collector
	host *arena.Real
)

// Start replaces the process-wide collector with a fresh one, backed
// by a newly mmapped arena of arenaSize bytes, using default tuning.
// Any previously running global collector is stopped and its arena
// released first.
func Start(arenaSize uint64) error {
	mu.Lock()
	defer mu.Unlock()

	stopLocked()

	a, err := arena.NewReal(arenaSize)
	if err != nil {
		return err
	}

	host = a
	inst = congc.Start(a)

	return nil
}

// Get returns the process-wide collector, or nil if [Start] has not
// been called.
func Get() *congc.Collector {
	mu.Lock()
	defer mu.Unlock()

	return inst
}

// Stop tears down the process-wide collector, reclaiming all memory
// and releasing the backing arena.
func Stop() uint64 {
	mu.Lock()
	defer mu.Unlock()

	return stopLocked()
}

func stopLocked() uint64 {
	if inst == nil {
		return 0
	}

	reclaimed := inst.Stop()
	_ = host.Close()

	inst = nil
	host = nil

	return reclaimed
}
