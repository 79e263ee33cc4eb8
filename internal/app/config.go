package app

import (
	"io"
	"os"
)

// Config holds the application configuration
type Config struct {
	// Directory holding config.yaml. Empty uses ~/.config/appctl.
	ConfigPath string

	// Overrides logging.level from config.yaml when set
	LogLevel string

	// Output streams. Run summaries go to Stdout; logs, progress and
	// prompts go to Stderr.
	Stdout io.Writer
	Stderr io.Writer
}

// NewConfig creates a new application configuration writing to the
// process streams.
func NewConfig(configPath, logLevel string) *Config {
	return &Config{
		ConfigPath: configPath,
		LogLevel:   logLevel,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
	}
}
