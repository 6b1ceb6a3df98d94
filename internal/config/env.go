package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables read by the CLI.
const (
	EnvAPIKey   = "GEMINI_API_KEY"
	EnvLogLevel = "FLUENT_LOG_LEVEL"
	EnvDBPath   = "FLUENT_DB"
)

// LoadEnv loads variables from the given .env files without overriding values
// already set in the environment. Missing files are skipped.
func LoadEnv(paths ...string) error {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// Getenv returns the variable or fallback when unset or empty.
func Getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
