package arena_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brindlewood/congc/internal/arena"
)

func TestChaos_InjectsMallocFailures(t *testing.T) {
	t.Parallel()

	real, err := arena.NewReal(1 << 20)
	require.NoError(t, err)
	defer real.Close()

	c := arena.NewChaos(real, 1, arena.ChaosConfig{MallocFailRate: 1})

	_, err = c.Malloc(16)
	require.ErrorIs(t, err, arena.ErrOutOfMemory)
	require.Equal(t, int64(1), c.Stats().MallocFails)
}

func TestChaos_NoOpModePassesThrough(t *testing.T) {
	t.Parallel()

	real, err := arena.NewReal(1 << 20)
	require.NoError(t, err)
	defer real.Close()

	c := arena.NewChaos(real, 1, arena.ChaosConfig{MallocFailRate: 1})
	c.SetMode(arena.ChaosModeNoOp)

	addr, err := c.Malloc(16)
	require.NoError(t, err)
	require.NotZero(t, addr)
}

func TestChaos_ZeroRateNeverFails(t *testing.T) {
	t.Parallel()

	real, err := arena.NewReal(1 << 20)
	require.NoError(t, err)
	defer real.Close()

	c := arena.NewChaos(real, 1, arena.ChaosConfig{})

	for range 100 {
		_, err := c.Malloc(8)
		require.NoError(t, err)
	}
}
