package config

import "time"

const (
	// DefaultBackendTimeout bounds each idempotent backend request.
	DefaultBackendTimeout = 30 * time.Second

	// DefaultBackendRetries is the retry budget of idempotent backend requests.
	DefaultBackendRetries = 3

	// DefaultHistoryLimit is the number of run records kept.
	DefaultHistoryLimit = 100
)

// GetDefaultConfig returns the default configuration.
func GetDefaultConfig() AppctlConfig {
	return AppctlConfig{
		Backend: BackendConfig{
			Type:    BackendRemote,
			URL:     "http://localhost:8470",
			Timeout: DefaultBackendTimeout,
			Retries: DefaultBackendRetries,
		},
		History: HistoryConfig{
			Limit: DefaultHistoryLimit,
		},
		Prompt: PromptConfig{
			Mode: PromptAuto,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}
