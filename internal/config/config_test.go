package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/sketchcoach/internal/engine"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Nil(t, cfg.Practice.Category)
	assert.Nil(t, cfg.Engine.MinIntervalMs)

	_, err = LoadConfig("")
	assert.Error(t, err)
}

func TestLoadConfigSections(t *testing.T) {
	path := writeConfig(t, `
[practice]
category = "curves"
shapes = ["wave", "spiral"]
focus-weak = true

[engine]
min-interval-ms = 250
classifier-timeout-ms = 40
match-bonus = 0.05

[memory]
soft = "128MB"
critical = "256MB"

[log]
level = "debug"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Practice.Category)
	assert.Equal(t, "curves", *cfg.Practice.Category)
	assert.Equal(t, []string{"wave", "spiral"}, *cfg.Practice.Shapes)
	assert.True(t, *cfg.Practice.FocusWeak)
	assert.Nil(t, cfg.Practice.WeakTop)
	assert.Equal(t, "256MB", *cfg.Memory.Critical)
	assert.Equal(t, "debug", *cfg.Log.Level)

	ecfg := engine.DefaultConfig()
	cfg.Engine.Apply(&ecfg)
	assert.Equal(t, 250*time.Millisecond, ecfg.MinInterval)
	assert.Equal(t, 40*time.Millisecond, ecfg.ClassifierTimeout)
	assert.Equal(t, engine.DefaultCriticalPressure, ecfg.CriticalPressure)
	assert.InDelta(t, 0.05, ecfg.Weights.MatchBonus, 1e-9)
	assert.InDelta(t, engine.DefaultConfig().Weights.TimingWeight, ecfg.Weights.TimingWeight, 1e-9)
	assert.NoError(t, ecfg.Validate())
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "[practice]\nlang = \"en\"\n")
	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "practice.lang")

	path = writeConfig(t, "[engine\n")
	_, err = LoadConfig(path)
	assert.ErrorContains(t, err, "failed to decode config")
}

func TestXDGPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	assert.Equal(t, filepath.Join("/cfg", "sketchcoach", "config.toml"), DefaultConfigPath())
	assert.Equal(t, filepath.Join("/cfg", "sketchcoach", "guides.toml"), DefaultGuidesPath())
	assert.Equal(t, filepath.Join("/cfg", "sketchcoach", "achievements.json"), DefaultAchievementsPath())
	assert.Equal(t, filepath.Join("/data", "sketchcoach", "sketchcoach.db"), DefaultDBPath())
	assert.Equal(t, filepath.Join("/data", "sketchcoach", "logs"), DefaultLogDir())
}
