package congc

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brindlewood/congc/internal/arena"
	"github.com/brindlewood/congc/internal/gclog"
)

func newTestCollector(t *testing.T) (*Collector, *arena.Real) {
	t.Helper()

	a, err := arena.NewReal(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, a.Close()) })

	return Start(a), a
}

func TestCollector_BasicAllocFreeCycle(t *testing.T) {
	gc, _ := newTestCollector(t)

	addr := gc.Allocate(64)
	require.NotZero(t, addr)

	finalized := false
	addr2 := gc.AllocateExt(32, func(Address) { finalized = true })
	require.NotZero(t, addr2)

	gc.Free(addr2)
	require.True(t, finalized)

	collected := gc.Collect()
	require.Equal(t, uint64(64), collected, "unreachable block should be reclaimed")
}

func TestCollector_StackReachabilitySurvivesCollection(t *testing.T) {
	gc, _ := newTestCollector(t)

	addr := gc.Allocate(64)
	require.NotZero(t, addr)

	gc.Stack().Push(addr)
	defer gc.Stack().Pop()

	reclaimed := gc.Collect()
	require.Zero(t, reclaimed, "stack-rooted block must survive")

	require.NotNil(t, gc.allocs.get(addr))
}

func TestCollector_UnreachedBlockIsSweptAfterStackPop(t *testing.T) {
	gc, _ := newTestCollector(t)

	addr := gc.Allocate(64)
	require.NotZero(t, addr)

	gc.Stack().Push(addr)
	gc.Stack().Pop()

	reclaimed := gc.Collect()
	require.Equal(t, uint64(64), reclaimed)
}

func TestCollector_StaticAndPinnedSurviveCollection(t *testing.T) {
	gc, _ := newTestCollector(t)

	static := gc.AllocateStatic(16, nil)
	require.NotZero(t, static)

	pinned := gc.Allocate(16)
	require.NotZero(t, pinned)
	gc.Pin(pinned)

	reclaimed := gc.Collect()
	require.Zero(t, reclaimed)

	require.NotNil(t, gc.allocs.get(static))
	require.NotNil(t, gc.allocs.get(pinned))
}

func TestCollector_StopUnrootsAndReclaimsEverything(t *testing.T) {
	gc, _ := newTestCollector(t)

	static := gc.AllocateStatic(16, nil)
	require.NotZero(t, static)

	reclaimed := gc.Stop()
	require.Equal(t, uint64(16), reclaimed)
}

func TestCollector_ReallocateGrowCarriesFinalizer(t *testing.T) {
	gc, _ := newTestCollector(t)

	var finalizedAddr Address

	addr := gc.AllocateExt(16, func(a Address) { finalizedAddr = a })
	require.NotZero(t, addr)

	grown, err := gc.Reallocate(addr, 4096)
	require.NoError(t, err)
	require.NotZero(t, grown)

	rec := gc.allocs.get(grown)
	require.NotNil(t, rec)
	require.NotNil(t, rec.finalizer)

	gc.Free(grown)
	require.Equal(t, grown, finalizedAddr)
}

func TestCollector_ReallocateSameAddressUpdatesSizeInPlace(t *testing.T) {
	gc, _ := newTestCollector(t)

	addr := gc.Allocate(64)
	require.NotZero(t, addr)

	shrunk, err := gc.Reallocate(addr, 16)
	require.NoError(t, err)
	require.Equal(t, addr, shrunk)
	require.Equal(t, uint64(16), gc.allocs.get(addr).size)
}

func TestCollector_ReallocateNullAddressAllocatesFresh(t *testing.T) {
	gc, _ := newTestCollector(t)

	addr, err := gc.Reallocate(0, 32)
	require.NoError(t, err)
	require.NotZero(t, addr)
	require.NotNil(t, gc.allocs.get(addr))
}

func TestCollector_ReallocateUnknownAddressFails(t *testing.T) {
	gc, _ := newTestCollector(t)

	_, err := gc.Reallocate(0xDEAD, 32)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCollector_FreeUnknownAddressIsNoop(t *testing.T) {
	gc, _ := newTestCollector(t)

	require.NotPanics(t, func() { gc.Free(0xDEAD) })
}

func TestCollector_FreeUnknownAddressLogsErrUnknownAddress(t *testing.T) {
	gc, _ := newTestCollector(t)

	var buf bytes.Buffer
	gclog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { gclog.SetDefault(nil) })

	gc.Free(0xDEAD)

	require.Contains(t, buf.String(), ErrUnknownAddress.Error())
}

func TestCollector_Strdup(t *testing.T) {
	gc, _ := newTestCollector(t)

	addr := gc.Strdup("This is a string")
	require.NotZero(t, addr)

	data := gc.Bytes(addr, 17)
	require.Equal(t, "This is a string\x00", string(data))

	reclaimed := gc.Collect()
	require.Equal(t, uint64(17), reclaimed)
}

func TestCollector_AllocateRetriesAfterForcedCollectOnOutOfMemory(t *testing.T) {
	a, err := arena.NewReal(256)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, a.Close()) })

	gc := StartExt(a, 8, 8, 0.2, 0.8, 0.5)

	// Unreachable: nothing roots this block, so the forced collection
	// triggered by the next allocation's out-of-memory retry reclaims it.
	garbage := gc.Allocate(200)
	require.NotZero(t, garbage)

	addr := gc.Allocate(200)
	require.NotZero(t, addr, "allocation should succeed after the forced collect-and-retry reclaims the garbage block")
}

func TestCollector_DisableSuppressesSweepLimitTrigger(t *testing.T) {
	gc, _ := newTestCollector(t)

	gc.Disable()

	for i := 0; i < 4096; i++ {
		require.NotZero(t, gc.Allocate(8))
	}

	gc.Enable()
	require.Equal(t, uint64(4096*8), gc.Collect())
}
