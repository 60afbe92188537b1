package config

import (
	"os"
	"path/filepath"
)

const appDir = "sketchcoach"

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// DefaultDBPath returns the default path for the SQLite database.
func DefaultDBPath() string {
	return filepath.Join(XDGDataHome(), appDir, "sketchcoach.db")
}

// DefaultLogDir returns the directory for practice session logs.
func DefaultLogDir() string {
	return filepath.Join(XDGDataHome(), appDir, "logs")
}

// DefaultGuidesPath returns the default custom guide file.
func DefaultGuidesPath() string {
	return filepath.Join(XDGConfigHome(), appDir, "guides.toml")
}

// DefaultAchievementsPath returns the file holding user-defined achievements.
func DefaultAchievementsPath() string {
	return filepath.Join(XDGConfigHome(), appDir, "achievements.json")
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), appDir, "config.toml")
}
