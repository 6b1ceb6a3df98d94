package config

import (
	"os"
	"path/filepath"
)

const appDir = "fluent"

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
	return filepath.Join(XDGDataHome(), appDir, "fluent.db")
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), appDir, "config.toml")
}

// DefaultEnvPath returns the .env file read next to the config.
func DefaultEnvPath() string {
	return filepath.Join(XDGConfigHome(), appDir, ".env")
}

// DefaultAudioDir returns where synthesized speech is saved.
func DefaultAudioDir() string {
	return filepath.Join(XDGDataHome(), appDir, "audio")
}

// DefaultLogPath returns the log file used by the full-screen views.
func DefaultLogPath() string {
	return filepath.Join(XDGDataHome(), appDir, "fluent.log")
}
