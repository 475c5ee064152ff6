package congcconfig_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brindlewood/congc/internal/congcconfig"
)

func TestLoad_MissingFileReturnsZeroConfig(t *testing.T) {
	cfg, err := congcconfig.Load(filepath.Join(t.TempDir(), "nope.hujson"))
	require.NoError(t, err)
	require.Zero(t, cfg)
}

func TestLoad_ParsesHuJSONWithComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.hujson")

	body := `{
  // override the initial registry capacity
  "InitialCapacity": 2048,
  "Sweep": 0.75,
}
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := congcconfig.Load(path)
	require.NoError(t, err)
	require.Equal(t, uint64(2048), cfg.InitialCapacity)
	require.Equal(t, 0.75, cfg.Sweep)
	require.Zero(t, cfg.MinCapacity)
}

func TestSaveDefaultConfig_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.hujson")

	want := congcconfig.Config{InitialCapacity: 1024, MinCapacity: 1024, Downsize: 0.2, Upsize: 0.8, Sweep: 0.5}
	require.NoError(t, congcconfig.SaveDefaultConfig(path, want))

	got, err := congcconfig.Load(path)
	require.NoError(t, err)
	require.Equal(t, want, got)
}
