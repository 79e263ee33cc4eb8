package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"appctl/pkg/logging"

	"gopkg.in/yaml.v3"
)

const (
	userConfigDir  = ".config/appctl"
	configFileName = "config.yaml"
)

// GetUserConfigDir returns the default configuration directory,
// ~/.config/appctl.
func GetUserConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

// LoadConfig loads config.yaml from configPath on top of the defaults. A
// missing file is not an error. The result is validated.
func LoadConfig(configPath string) (AppctlConfig, error) {
	configFilePath := filepath.Join(configPath, configFileName)
	config := GetDefaultConfig()

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Debug("Config", "No config.yaml found at %s, using defaults", configFilePath)
			return config, nil
		}
		return AppctlConfig{}, fmt.Errorf("error reading config from %s: %w", configFilePath, err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return AppctlConfig{}, fmt.Errorf("error loading config from %s: %w", configFilePath, err)
	}
	if config.Backend.Fixture != "" && !filepath.IsAbs(config.Backend.Fixture) {
		config.Backend.Fixture = filepath.Join(configPath, config.Backend.Fixture)
	}

	if errs := Validate(config); errs.HasErrors() {
		return AppctlConfig{}, fmt.Errorf("invalid config %s: %w", configFilePath, errs)
	}

	logging.Info("Config", "Loaded configuration from %s", configFilePath)
	return config, nil
}
