package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "engine.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
[world]
segment_size = 32.0
load_radius = 3
unload_radius = 4

[simulation]
tick_rate = "20ms"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 32.0, cfg.World.SegmentSize)
	require.Equal(t, 3, cfg.World.LoadRadius)
	require.Equal(t, 20*time.Millisecond, cfg.Simulation.TickRate)

	// Untouched sections keep their defaults.
	def := Default()
	require.Equal(t, def.Pool.Capacity, cfg.Pool.Capacity)
	require.Equal(t, def.Magnet.Radius, cfg.Magnet.Radius)
	require.Equal(t, def.Logging.Level, cfg.Logging.Level)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"zero segment size", "[world]\nsegment_size = 0.0\n"},
		{"zero load radius", "[world]\nload_radius = 0\n"},
		{"unload below load", "[world]\nload_radius = 3\nunload_radius = 2\n"},
		{"zero initial batch", "[world]\ninitial_batch = 0\n"},
		{"zero pool capacity", "[pool]\ncapacity = 0\n"},
		{"magnet min over radius", "[magnet]\nradius = 2.0\nmin_distance = 3.0\n"},
		{"bad toml", "not toml at all ["},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			require.Error(t, err)
		})
	}
}

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.validate())
	require.Positive(t, cfg.World.SegmentSize)
	require.GreaterOrEqual(t, cfg.World.UnloadRadius, cfg.World.LoadRadius)
	require.Positive(t, cfg.Simulation.TickRate)
}
