// Package congcconfig loads optional tuning-knob overrides for a
// congc.Collector from a HuJSON (JSON-with-comments) file, so a host
// application can check in a commented config file instead of
// hardcoding congc.StartExt arguments.
package congcconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/tailscale/hujson"
)

// defaultConfigTemplate is written by SaveDefaultConfig. Every knob is
// written out, zero values included; StartExt treats a zero as "use the
// default".
const defaultConfigTemplate = `{
  // Tuning knobs for congc.StartExt. Zero or omitted falls back to the
  // collector's built-in default.
  "InitialCapacity": %d,
  "MinCapacity": %d,
  "Downsize": %v,
  "Upsize": %v,
  "Sweep": %v
}
`

// Config holds the subset of congc.StartExt's knobs a deployment may
// want to override. A zero field falls back to the collector's
// built-in default, exactly as StartExt treats non-positive knobs.
type Config struct {
	InitialCapacity uint64  `json:"InitialCapacity"`
	MinCapacity     uint64  `json:"MinCapacity"`
	Downsize        float64 `json:"Downsize"`
	Upsize          float64 `json:"Upsize"`
	Sweep           float64 `json:"Sweep"`
}

// DefaultPath returns the conventional config location:
// $XDG_CONFIG_HOME/congc/config.hujson, falling back to
// $HOME/.config/congc/config.hujson when XDG_CONFIG_HOME is unset.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "congc", "config.hujson"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("congcconfig: resolve home directory: %w", err)
	}

	return filepath.Join(home, ".config", "congc", "config.hujson"), nil
}

// Load reads and parses the HuJSON config file at path. A missing file
// is not an error: Load returns the zero Config, which StartExt
// interprets as "use every default".
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Config{}, nil
	}

	if err != nil {
		return Config{}, fmt.Errorf("congcconfig: read %s: %w", path, err)
	}

	std, err := hujson.Standardize(raw)
	if err != nil {
		return Config{}, fmt.Errorf("congcconfig: parse %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(std, &cfg); err != nil {
		return Config{}, fmt.Errorf("congcconfig: decode %s: %w", path, err)
	}

	return cfg, nil
}

// LoadDefault loads the config at [DefaultPath].
func LoadDefault() (Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return Config{}, err
	}

	return Load(path)
}

// SaveDefaultConfig writes cfg to path as a commented HuJSON template,
// creating the parent directory if needed. The write is atomic, so a
// crash mid-write never leaves a half-written config file for the next
// [Load] to trip over.
func SaveDefaultConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("congcconfig: create %s: %w", filepath.Dir(path), err)
	}

	body := fmt.Sprintf(defaultConfigTemplate, cfg.InitialCapacity, cfg.MinCapacity, cfg.Downsize, cfg.Upsize, cfg.Sweep)

	if err := atomic.WriteFile(path, strings.NewReader(body)); err != nil {
		return fmt.Errorf("congcconfig: write %s: %w", path, err)
	}

	return nil
}
