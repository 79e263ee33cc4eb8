package formatting

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"appctl/internal/api"
	"appctl/internal/history"
)

// YAMLFormatter provides YAML output formatting
type YAMLFormatter struct {
	options Options
}

// NewYAMLFormatter creates a new YAML formatter
func NewYAMLFormatter(options Options) Formatter {
	return &YAMLFormatter{
		options: options,
	}
}

// FormatHostChoices formats the placement question as YAML
func (f *YAMLFormatter) FormatHostChoices(view api.HostChoiceView) string {
	return f.marshal(hostChoicesDoc(view))
}

// FormatConfirmation formats the pre-execution summary as YAML
func (f *YAMLFormatter) FormatConfirmation(view api.ConfirmationView) string {
	return f.marshal(confirmationDoc(view))
}

// FormatBlocking formats blocking findings as YAML
func (f *YAMLFormatter) FormatBlocking(view api.BlockingView) string {
	return f.marshal(blockingDoc(view))
}

// FormatAftermath formats execution results as YAML
func (f *YAMLFormatter) FormatAftermath(view api.AftermathView) string {
	return f.marshal(aftermathDoc(view))
}

// FormatRun formats a run summary as YAML
func (f *YAMLFormatter) FormatRun(rec *history.Record) string {
	return f.marshal(rec)
}

// FormatHistory formats the run list as YAML
func (f *YAMLFormatter) FormatHistory(records []*history.Record) string {
	return f.marshal(historyDoc(records))
}

// SetOptions updates the formatter options
func (f *YAMLFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *YAMLFormatter) GetOptions() Options {
	return f.options
}

// marshal converts data to YAML string
func (f *YAMLFormatter) marshal(data interface{}) string {
	yamlBytes, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Sprintf("error: \"Failed to format YAML: %v\"\n", err)
	}

	return string(yamlBytes)
}
