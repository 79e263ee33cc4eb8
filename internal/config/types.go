package config

import (
	"time"

	"appctl/internal/api"
	"appctl/internal/risk"
)

// AppctlConfig is the top-level configuration structure for appctl.
type AppctlConfig struct {
	Backend  BackendConfig  `yaml:"backend"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Prompt   PromptConfig   `yaml:"prompt"`
	History  HistoryConfig  `yaml:"history"`
	Logging  LoggingConfig  `yaml:"logging"`
}

const (
	// BackendRemote talks HTTP/JSON to a domain controller.
	BackendRemote = "remote"
	// BackendFixture evaluates a YAML described domain offline.
	BackendFixture = "fixture"
)

// BackendConfig selects and configures the collaborator backend.
type BackendConfig struct {
	Type    string        `yaml:"type,omitempty"`    // remote or fixture (default: remote)
	URL     string        `yaml:"url,omitempty"`     // Base URL of the remote backend
	Timeout time.Duration `yaml:"timeout,omitempty"` // Per request timeout for idempotent calls (default: 30s)
	Retries int           `yaml:"retries,omitempty"` // Retries for idempotent calls (default: 3)
	Fixture string        `yaml:"fixture,omitempty"` // Path to the fixture domain file
}

// PipelineConfig tunes the gating behavior of a run.
type PipelineConfig struct {
	// SkipConfirmation proceeds past advisory findings without asking.
	SkipConfirmation bool `yaml:"skipConfirmation,omitempty"`

	// Strict escalates advisory findings to blocking.
	Strict bool `yaml:"strict,omitempty"`

	// AdvisoryKinds reclassifies blocking kinds as advisory.
	AdvisoryKinds []string `yaml:"advisoryKinds,omitempty"`
}

// Policy converts the pipeline settings into a classification policy.
func (p PipelineConfig) Policy() risk.Policy {
	kinds := make([]api.FindingKind, 0, len(p.AdvisoryKinds))
	for _, k := range p.AdvisoryKinds {
		kinds = append(kinds, api.FindingKind(k))
	}
	return risk.Policy{Strict: p.Strict, AdvisoryKinds: kinds}
}

const (
	PromptAuto = "auto"
	PromptHuh  = "huh"
	PromptLine = "line"
	PromptNone = "none"
)

// PromptConfig selects how interactive stages are carried.
type PromptConfig struct {
	Mode string `yaml:"mode,omitempty"` // auto, huh, line or none (default: auto)
}

// HistoryConfig controls the opt-in run history.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Path    string `yaml:"path,omitempty"`  // Defaults to the configuration directory
	Limit   int    `yaml:"limit,omitempty"` // Records kept, newest first (default: 100)
}

// LoggingConfig controls diagnostic logging.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug, info, warn, error (default: warn)
	Format string `yaml:"format,omitempty"` // text or json (default: text)
}
