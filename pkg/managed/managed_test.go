package managed_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brindlewood/congc/internal/arena"
	"github.com/brindlewood/congc/pkg/congc"
	"github.com/brindlewood/congc/pkg/managed"
)

func TestBuffer_WriteAndReadPayload(t *testing.T) {
	a, err := arena.NewReal(1 << 16)
	require.NoError(t, err)
	defer a.Close()

	gc := congc.Start(a)

	buf := managed.NewBuffer(gc, 32)
	require.True(t, buf.Valid())
	require.Equal(t, uint64(32), buf.Length())

	copy(buf.Bytes(), []byte("hello, managed buffer"))
	require.Equal(t, byte('h'), buf.Bytes()[0])
}

func TestBuffer_SurvivesCollectionWhenRooted(t *testing.T) {
	a, err := arena.NewReal(1 << 16)
	require.NoError(t, err)
	defer a.Close()

	gc := congc.Start(a)

	buf := managed.NewBuffer(gc, 16)
	require.True(t, buf.Valid())

	gc.Stack().Push(buf.Addr)
	gc.Stack().Push(buf.Payload())
	defer gc.Stack().Pop()
	defer gc.Stack().Pop()

	gc.Collect()
	require.Equal(t, uint64(16), buf.Length(), "rooted buffer record and payload must both survive")
}

func TestBuffer_FinalizerRunsOnceOnPayloadReclaim(t *testing.T) {
	a, err := arena.NewReal(1 << 16)
	require.NoError(t, err)
	defer a.Close()

	gc := congc.Start(a)

	var calls int
	buf := managed.NewBufferExt(gc, 16, func(congc.Address) { calls++ })
	require.True(t, buf.Valid())

	payload := buf.Payload()
	gc.Free(payload)

	require.Equal(t, 1, calls, "finalizer must run exactly once, on the payload only")
}

func TestArray_FinalizerRunsOnceOnSlotBufferReclaim(t *testing.T) {
	a, err := arena.NewReal(1 << 16)
	require.NoError(t, err)
	defer a.Close()

	gc := congc.Start(a)

	var calls int
	arr := managed.NewArrayExt(gc, 4, 8, func(congc.Address) { calls++ })
	require.True(t, arr.Valid())

	// Array record (24) + Buffer record (16) + slot payload (4*8=32):
	// everything is unrooted, so the whole composite is reclaimed.
	reclaimed := gc.Collect()
	require.Equal(t, uint64(24+16+32), reclaimed, "unrooted array should be fully reclaimed")
	require.Equal(t, 1, calls, "finalizer must run exactly once")
}

func TestArray_SlotAccess(t *testing.T) {
	a, err := arena.NewReal(1 << 16)
	require.NoError(t, err)
	defer a.Close()

	gc := congc.Start(a)

	arr := managed.NewArray(gc, 4, 8)
	require.True(t, arr.Valid())
	require.Equal(t, uint64(4), arr.SlotCount())
	require.Equal(t, uint64(8), arr.SlotSize())

	copy(arr.Slot(2), []byte("abcdefgh"))
	require.Equal(t, byte('a'), arr.Slot(2)[0])
	require.NotEqual(t, arr.Slot(2)[0], arr.Slot(0)[0])
}
