package config

import (
	"fmt"
	"strings"

	"appctl/pkg/logging"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// ValidateOneOf checks if a value is in a list of allowed values
func ValidateOneOf(field, value string, allowed []string) error {
	for _, allowedValue := range allowed {
		if value == allowedValue {
			return nil
		}
	}
	return ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
	}
}

// Validate checks a loaded configuration.
func Validate(cfg AppctlConfig) ValidationErrors {
	var errs ValidationErrors

	addIf := func(err error) {
		if ve, ok := err.(ValidationError); ok {
			errs = append(errs, ve)
		}
	}

	addIf(ValidateOneOf("backend.type", cfg.Backend.Type, []string{BackendRemote, BackendFixture}))
	switch cfg.Backend.Type {
	case BackendRemote:
		if strings.TrimSpace(cfg.Backend.URL) == "" {
			errs.Add("backend.url", "is required for the remote backend")
		}
	case BackendFixture:
		if strings.TrimSpace(cfg.Backend.Fixture) == "" {
			errs.Add("backend.fixture", "is required for the fixture backend")
		}
	}
	if cfg.Backend.Timeout < 0 {
		errs.Add("backend.timeout", "must not be negative", cfg.Backend.Timeout)
	}
	if cfg.Backend.Retries < 0 {
		errs.Add("backend.retries", "must not be negative", cfg.Backend.Retries)
	}

	if err := cfg.Pipeline.Policy().Validate(); err != nil {
		errs.Add("pipeline.advisoryKinds", err.Error())
	}

	if cfg.History.Limit < 0 {
		errs.Add("history.limit", "must not be negative", cfg.History.Limit)
	}

	addIf(ValidateOneOf("prompt.mode", cfg.Prompt.Mode, []string{PromptAuto, PromptHuh, PromptLine, PromptNone}))

	if _, err := logging.ParseLevel(cfg.Logging.Level); err != nil {
		errs.Add("logging.level", err.Error(), cfg.Logging.Level)
	}
	addIf(ValidateOneOf("logging.format", cfg.Logging.Format, []string{"text", "json"}))

	return errs
}
