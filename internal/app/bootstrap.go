package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/term"

	"appctl/internal/config"
	"appctl/internal/formatting"
	"appctl/internal/history"
	"appctl/pkg/logging"
)

// ErrHistoryDisabled is returned by History when history.enabled is off.
var ErrHistoryDisabled = errors.New("run history is disabled; set history.enabled in config.yaml")

const promptHistoryFile = "prompt_history"

// Application represents the main application structure. It owns the loaded
// configuration and builds the collaborators of each command from it.
//
// Example usage:
//
//	app, err := app.NewApplication(app.NewConfig("", "debug"))
//	if err != nil {
//	    return err
//	}
//	outcome, err := app.Run(ctx, api.ActionInstall, []string{"wiki"}, flags)
type Application struct {
	config    *Config
	settings  config.AppctlConfig
	configDir string
}

// NewApplication loads the configuration and sets up logging.
//
// Logging starts at the level given in cfg (warn when empty) so that
// configuration loading can be traced, then switches to the configured
// level and format once config.yaml is read. An explicit cfg.LogLevel
// always wins over the file.
func NewApplication(cfg *Config) (*Application, error) {
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}

	bootLevel := logging.LevelWarn
	if cfg.LogLevel != "" {
		level, err := logging.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
		bootLevel = level
	}
	logging.InitForCLI(bootLevel, cfg.Stderr)

	configDir := cfg.ConfigPath
	if configDir == "" {
		dir, err := config.GetUserConfigDir()
		if err != nil {
			return nil, err
		}
		configDir = dir
	}

	settings, err := config.LoadConfig(configDir)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to load configuration from %s", configDir)
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := initLogging(cfg, settings.Logging); err != nil {
		return nil, err
	}

	return &Application{
		config:    cfg,
		settings:  settings,
		configDir: configDir,
	}, nil
}

func initLogging(cfg *Config, lc config.LoggingConfig) error {
	name := lc.Level
	if cfg.LogLevel != "" {
		name = cfg.LogLevel
	}
	level, err := logging.ParseLevel(name)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	if lc.Format == "json" {
		logging.InitForJSON(level, cfg.Stderr)
	} else {
		logging.InitForCLI(level, cfg.Stderr)
	}
	return nil
}

// Settings returns the loaded configuration.
func (a *Application) Settings() config.AppctlConfig {
	return a.settings
}

// History opens the run history store.
func (a *Application) History() (*history.Store, error) {
	hc := a.settings.History
	if !hc.Enabled {
		return nil, ErrHistoryDisabled
	}
	path := hc.Path
	if path == "" {
		path = a.configDir
	}
	return history.NewStore(config.NewStorageWithPath(path), hc.Limit), nil
}

// Formatter creates a formatter for the summary stream.
func (a *Application) Formatter(format formatting.OutputFormat, quiet bool) formatting.Formatter {
	return formatting.NewFactory().CreateFormatter(formatting.Options{
		Format: format,
		Quiet:  quiet,
		Color:  isTerminal(a.config.Stdout),
	})
}

// Stdout is the stream run summaries are printed to.
func (a *Application) Stdout() io.Writer {
	return a.config.Stdout
}

func (a *Application) promptHistoryPath() string {
	return filepath.Join(a.configDir, promptHistoryFile)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
