// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/sketchcoach/internal/engine"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Practice PracticeConfig `toml:"practice"`
	Engine   EngineConfig   `toml:"engine"`
	Memory   MemoryConfig   `toml:"memory"`
	Log      LogConfig      `toml:"log"`
}

// PracticeConfig maps practice-related settings.
type PracticeConfig struct {
	Category   *string   `toml:"category"`
	Level      *string   `toml:"level"`
	Shapes     *[]string `toml:"shapes"`
	GuidesFile *string   `toml:"guides-file"`
	FocusWeak  *bool     `toml:"focus-weak"`
	WeakTop    *int      `toml:"weak-top"`
	WeakFactor *float64  `toml:"weak-factor"`
	WeakWindow *int      `toml:"weak-window"`
}

// EngineConfig maps analysis settings. Absent keys keep engine defaults.
type EngineConfig struct {
	MinIntervalMs       *int     `toml:"min-interval-ms"`
	CriticalPressure    *int     `toml:"critical-pressure"`
	ClassifierTimeoutMs *int     `toml:"classifier-timeout-ms"`
	ScaleFactor         *float64 `toml:"scale-factor"`
	MatchBonus          *float64 `toml:"match-bonus"`
	MismatchPenalty     *float64 `toml:"mismatch-penalty"`
	TimingWeight        *float64 `toml:"timing-weight"`
}

// MemoryConfig maps memory pressure limits, e.g. "256MB".
type MemoryConfig struct {
	Soft     *string `toml:"soft"`
	Critical *string `toml:"critical"`
}

// LogConfig maps logger settings.
type LogConfig struct {
	Level  *string `toml:"level"`
	Format *string `toml:"format"`
	File   *string `toml:"file"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// Apply overlays the values present in the file onto dst.
func (e EngineConfig) Apply(dst *engine.Config) {
	if e.MinIntervalMs != nil {
		dst.MinInterval = time.Duration(*e.MinIntervalMs) * time.Millisecond
	}
	if e.CriticalPressure != nil {
		dst.CriticalPressure = *e.CriticalPressure
	}
	if e.ClassifierTimeoutMs != nil {
		dst.ClassifierTimeout = time.Duration(*e.ClassifierTimeoutMs) * time.Millisecond
	}
	if e.ScaleFactor != nil {
		dst.ScaleFactor = *e.ScaleFactor
	}
	if e.MatchBonus != nil {
		dst.Weights.MatchBonus = *e.MatchBonus
	}
	if e.MismatchPenalty != nil {
		dst.Weights.MismatchPenalty = *e.MismatchPenalty
	}
	if e.TimingWeight != nil {
		dst.Weights.TimingWeight = *e.TimingWeight
	}
}
