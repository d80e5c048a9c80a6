package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesKeepUnsetDefaults(t *testing.T) {
	path := writeConfig(t, `
serial:
  port: /dev/ttyACM0
fader:
  pages: 5
  alpha: 0.5
log_level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, DefaultBaudRate, cfg.Serial.Baud)
	assert.Equal(t, uint8(5), cfg.Fader.Pages)
	assert.InDelta(t, 0.5, cfg.Fader.Alpha, 1e-9)
	assert.InDelta(t, DefaultDeadBand, cfg.Fader.DeadBand, 1e-9)
	assert.Equal(t, DefaultHeartbeatInterval, cfg.HeartbeatInterval)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadDurations(t *testing.T) {
	path := writeConfig(t, `
fader:
  sweep_interval: 5ms
  debounce: 30ms
heartbeat_interval: 2s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Millisecond, cfg.Fader.SweepInterval.Std())
	assert.Equal(t, 30*time.Millisecond, cfg.Fader.Debounce.Std())
	assert.Equal(t, 2*time.Second, cfg.HeartbeatInterval.Std())
}

func TestLoadRejectsBadValues(t *testing.T) {
	for name, content := range map[string]string{
		"alpha":     "fader:\n  alpha: 1.5\n",
		"dead_band": "fader:\n  dead_band: 1.0\n",
		"log_level": "log_level: loud\n",
		"not_yaml":  ":\n  - {",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}
