package arena_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brindlewood/congc/internal/arena"
)

func TestReal_MallocCalloc(t *testing.T) {
	t.Parallel()

	r, err := arena.NewReal(4096)
	require.NoError(t, err)
	defer r.Close()

	a, err := r.Malloc(64)
	require.NoError(t, err)

	b, err := r.Calloc(8, 8)
	require.NoError(t, err)
	require.NotEqual(t, a, b)

	data := r.Bytes(b, 64)
	for _, by := range data {
		require.Equal(t, byte(0), by)
	}
}

func TestReal_FreeAndCoalesce(t *testing.T) {
	t.Parallel()

	r, err := arena.NewReal(256)
	require.NoError(t, err)
	defer r.Close()

	a, err := r.Malloc(64)
	require.NoError(t, err)
	b, err := r.Malloc(64)
	require.NoError(t, err)
	c, err := r.Malloc(64)
	require.NoError(t, err)

	r.Free(a)
	r.Free(b)
	r.Free(c)

	// The whole arena should be reassembled into one free run, so a
	// single request for the full size should succeed.
	_, err = r.Malloc(256)
	require.NoError(t, err)
}

func TestReal_OutOfMemory(t *testing.T) {
	t.Parallel()

	r, err := arena.NewReal(128)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Malloc(64)
	require.NoError(t, err)

	_, err = r.Malloc(1024)
	require.ErrorIs(t, err, arena.ErrOutOfMemory)
}

func TestReal_ReallocGrowCopiesPrefix(t *testing.T) {
	t.Parallel()

	r, err := arena.NewReal(4096)
	require.NoError(t, err)
	defer r.Close()

	a, err := r.Malloc(16)
	require.NoError(t, err)

	copy(r.Bytes(a, 16), []byte("0123456789abcdef"))

	b, err := r.Realloc(a, 32)
	require.NoError(t, err)
	require.Equal(t, []byte("0123456789abcdef"), r.Bytes(b, 16))
}

func TestReal_ReallocShrinkKeepsAddress(t *testing.T) {
	t.Parallel()

	r, err := arena.NewReal(4096)
	require.NoError(t, err)
	defer r.Close()

	a, err := r.Malloc(64)
	require.NoError(t, err)

	b, err := r.Realloc(a, 8)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestReal_ReallocUnknownAddress(t *testing.T) {
	t.Parallel()

	r, err := arena.NewReal(4096)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Realloc(0xdeadbeef, 16)
	require.ErrorIs(t, err, arena.ErrUnknownAddress)
}

func TestReal_ReallocNullIsFreshAllocation(t *testing.T) {
	t.Parallel()

	r, err := arena.NewReal(4096)
	require.NoError(t, err)
	defer r.Close()

	addr, err := r.Realloc(0, 16)
	require.NoError(t, err)
	require.NotZero(t, addr)
}

func TestReal_FreeUnknownIsNoop(t *testing.T) {
	t.Parallel()

	r, err := arena.NewReal(4096)
	require.NoError(t, err)
	defer r.Close()

	require.NotPanics(t, func() { r.Free(0xdeadbeef) })
}
