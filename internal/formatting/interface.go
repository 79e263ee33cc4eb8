// Package formatting renders the pipeline views and run summaries of appctl.
//
// Every interactive stage has a view type in internal/api. The prompters
// display them through a Formatter, and the CLI prints run outcomes and
// history through the same interface, so console, table, JSON and YAML
// output stay consistent.
package formatting

import (
	"fmt"
	"strings"

	"appctl/internal/api"
	"appctl/internal/history"
)

// OutputFormat represents the desired output format
type OutputFormat string

const (
	FormatConsole OutputFormat = "console" // Simple console output
	FormatJSON    OutputFormat = "json"    // JSON output
	FormatYAML    OutputFormat = "yaml"    // YAML output
	FormatTable   OutputFormat = "table"   // Rich table output
)

// ParseFormat converts a flag value into an OutputFormat.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatConsole, FormatJSON, FormatYAML, FormatTable:
		return f, nil
	case "":
		return FormatTable, nil
	}
	return "", fmt.Errorf("unknown output format %q (expected console, table, json or yaml)", s)
}

// Options configures the formatter behavior
type Options struct {
	Format OutputFormat
	Quiet  bool // Suppress decorative elements
	Color  bool // Enable colored output
}

// Formatter renders views and run summaries as text.
type Formatter interface {
	// Pipeline views
	FormatHostChoices(view api.HostChoiceView) string
	FormatConfirmation(view api.ConfirmationView) string
	FormatBlocking(view api.BlockingView) string
	FormatAftermath(view api.AftermathView) string

	// Run summaries
	FormatRun(rec *history.Record) string
	FormatHistory(records []*history.Record) string

	// Configuration
	SetOptions(options Options)
	GetOptions() Options
}

// Factory creates formatters for different output formats
type Factory interface {
	CreateFormatter(options Options) Formatter
}

// NewFactory creates a new formatter factory
func NewFactory() Factory {
	return &factory{}
}

type factory struct{}

// CreateFormatter creates the appropriate formatter based on options
func (f *factory) CreateFormatter(options Options) Formatter {
	switch options.Format {
	case FormatJSON:
		return NewJSONFormatter(options)
	case FormatYAML:
		return NewYAMLFormatter(options)
	case FormatConsole:
		return NewConsoleFormatter(options)
	case FormatTable:
		fallthrough
	default:
		return NewTableFormatter(options)
	}
}
