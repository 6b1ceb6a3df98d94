// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Practice PracticeConfig `toml:"practice"`
	Stats    StatsConfig    `toml:"stats"`
	Speech   SpeechConfig   `toml:"speech"`
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
}

// PracticeConfig maps practice-related settings.
type PracticeConfig struct {
	FocusLeast  *bool    `toml:"focus-least"`
	FocusFactor *float64 `toml:"focus-factor"`
	TickMs      *int     `toml:"tick-ms"`
}

// StatsConfig maps stats view settings.
type StatsConfig struct {
	Window *int `toml:"window"`
}

// SpeechConfig maps text-to-speech settings.
type SpeechConfig struct {
	APIKey   *string `toml:"api-key"`
	Model    *string `toml:"model"`
	Voice    *string `toml:"voice"`
	Endpoint *string `toml:"endpoint"`
}

// ServerConfig maps HTTP API settings.
type ServerConfig struct {
	Addr      *string `toml:"addr"`
	RateLimit *int    `toml:"rate-limit"`
}

type LogConfig struct {
	Level *string `toml:"level"`
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

// DefaultFile is written by `fluent config` when no config exists yet.
const DefaultFile = `# fluent configuration

[practice]
# focus-least = false
# focus-factor = 1.0
# tick-ms = 200

[stats]
# window = 14

[speech]
# api-key = ""
# model = "gemini-2.5-flash-preview-tts"
# voice = "Algenib"

[server]
# addr = "127.0.0.1:8080"
# rate-limit = 60

[log]
# level = "info"
`
